package quant

import "sync"

// Per-size pools of scratch buffers, to avoid per-pixel/per-iteration
// allocation in the hot loops (Voronoi shards, the dither error map,
// dither error rows). One sync.Pool per distinct size, keyed lazily.

var poolFloat32 = struct {
	sync.RWMutex
	m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

var poolFPixel = struct {
	sync.RWMutex
	m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

func getSizedPoolFloat32(size int) *sync.Pool {
	poolFloat32.RLock()
	pool := poolFloat32.m[size]
	poolFloat32.RUnlock()
	if pool == nil {
		pool = &sync.Pool{
			New: func() interface{} {
				return make([]float32, size)
			},
		}
		poolFloat32.Lock()
		poolFloat32.m[size] = pool
		poolFloat32.Unlock()
	}
	return pool
}

// getFloat32Slice retrieves a zeroed []float32 of the given length from
// the pool.
func getFloat32Slice(size int) []float32 {
	pool := getSizedPoolFloat32(size)
	s := pool.Get().([]float32)[:size]
	for i := range s {
		s[i] = 0
	}
	return s
}

func putFloat32Slice(s []float32) {
	pool := getSizedPoolFloat32(cap(s))
	pool.Put(s[:cap(s)])
}

func getSizedPoolFPixel(size int) *sync.Pool {
	poolFPixel.RLock()
	pool := poolFPixel.m[size]
	poolFPixel.RUnlock()
	if pool == nil {
		pool = &sync.Pool{
			New: func() interface{} {
				return make([]fPixel, size)
			},
		}
		poolFPixel.Lock()
		poolFPixel.m[size] = pool
		poolFPixel.Unlock()
	}
	return pool
}

// getFPixelSlice retrieves a zeroed []fPixel of the given length from the
// pool, used for the two Floyd-Steinberg error rows and per-thread
// Voronoi color sums.
func getFPixelSlice(size int) []fPixel {
	pool := getSizedPoolFPixel(size)
	s := pool.Get().([]fPixel)[:size]
	var zero fPixel
	for i := range s {
		s[i] = zero
	}
	return s
}

func putFPixelSlice(s []fPixel) {
	pool := getSizedPoolFPixel(cap(s))
	pool.Put(s[:cap(s)])
}
