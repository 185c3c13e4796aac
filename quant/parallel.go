package quant

import "sync"

// runBatches splits [0,total) into contiguous batches and runs fn over
// each batch in its own goroutine, gated by a semaphore sized to
// NumWorkers so no more than that many batches run at once. It blocks
// until every batch has completed.
//
// Writes performed by fn must be disjoint across batches (each batch owns
// its [lo,hi) slice of whatever output the caller is building); the
// dithered remap does not use this helper because error propagation
// there is sequential within a scanline.
func runBatches(total int, fn func(lo, hi int)) {
	if total <= 0 {
		return
	}
	workers := NumWorkers()
	if workers < 1 {
		workers = 1
	}
	if total < workers {
		workers = total
	}
	batchSize := (total + workers - 1) / workers

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for lo := 0; lo < total; lo += batchSize {
		hi := lo + batchSize
		if hi > total {
			hi = total
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// shouldParallelize matches spec.md's "rows*cols > 3000" threshold for
// enabling the parallel remap loop; below it, goroutine overhead would
// outweigh the work.
func shouldParallelize(pixelCount int) bool {
	return pixelCount > 3000
}
