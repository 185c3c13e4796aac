package quant

// viterShard is one goroutine's partial accumulation over a batch of
// histogram items: per-palette-index weighted color sum, weight sum, and
// weighted squared error, merged into the caller's totals once every
// shard finishes. Sharded the way mlnoga-nightlight's Stack() shards its
// per-pixel accumulation across goroutines, one mutable accumulator per
// batch rather than a shared one guarded by a lock.
type viterShard struct {
	colorSum  []fPixel
	weightSum []float64
	errorSum  float64
	log       logBuffer
}

// newViterShard borrows colorSum from the fPixel pool (pool.go) instead
// of allocating: one Voronoi pass can run hundreds of shards across
// repeated findBestPalette trials, and this is the hot per-trial
// allocation pool.go exists to avoid. weightSum stays a plain []float64
// since pool.go only pools []float32/[]fPixel and a per-call []float64
// of length <=256 is negligible next to colorSum's []fPixel churn.
func newViterShard(n int) *viterShard {
	return &viterShard{
		colorSum:  getFPixelSlice(n),
		weightSum: make([]float64, n),
	}
}

// release returns s's pooled buffers. Must only be called once the
// caller has finished reading s (i.e. after merging it into totals).
func (s *viterShard) release() {
	putFPixelSlice(s.colorSum)
}

// voronoiIteration runs one pass of weighted K-means refinement: every
// histogram entry is assigned to its nearest (alpha-gated) current
// palette entry via nm, then each non-fixed palette entry is moved to the
// weighted mean color of everything assigned to it. Returns the
// resulting mean squared error of the assignment that was just computed
// (before the move), matching palette_error semantics in the original
// source: error of the *old* centers against their assigned points.
//
// Each goroutine batch writes its progress into its own viterShard's
// logBuffer rather than calling log directly, so concurrent batches never
// interleave writes into a shared LogSink; the buffers are drained into
// log in index order once every batch has joined.
func voronoiIteration(hist *Histogram, cm *Colormap, nm *nearestMap, minOpaqueVal float32, log LogSink) float64 {
	items := hist.items
	n := len(items)
	if n == 0 {
		return 0
	}

	k := cm.Len()
	shardCount := NumWorkers()
	if shardCount < 1 {
		shardCount = 1
	}
	if shardCount > n {
		shardCount = n
	}
	shards := make([]*viterShard, shardCount)

	if shouldParallelize(n) {
		batchSize := (n + shardCount - 1) / shardCount
		runBatches(n, func(lo, hi int) {
			shardIdx := lo / batchSize
			if shardIdx >= shardCount {
				shardIdx = shardCount - 1
			}
			shard := newViterShard(k)
			shards[shardIdx] = shard
			accumulate(items[lo:hi], nm, minOpaqueVal, shard)
			shard.log.logf("voronoi shard %d: %d items", shardIdx, hi-lo)
		})
	} else {
		shard := newViterShard(k)
		accumulate(items, nm, minOpaqueVal, shard)
		shard.log.logf("voronoi shard 0: %d items", n)
		shards[0] = shard
	}

	totalColor := make([]fPixel, k)
	totalWeight := make([]float64, k)
	var totalError, totalWeightAll float64
	for _, s := range shards {
		if s == nil {
			continue
		}
		s.log.drainInto(log)
		for i := 0; i < k; i++ {
			totalColor[i].r += s.colorSum[i].r
			totalColor[i].g += s.colorSum[i].g
			totalColor[i].b += s.colorSum[i].b
			totalColor[i].a += s.colorSum[i].a
			totalWeight[i] += s.weightSum[i]
		}
		totalError += s.errorSum
		s.release()
	}
	for i := 0; i < k; i++ {
		totalWeightAll += totalWeight[i]
	}

	for i := range cm.palette {
		if cm.palette[i].fixed || totalWeight[i] <= 0 {
			continue
		}
		w := float32(totalWeight[i])
		cm.palette[i].acolor = fPixel{
			r: totalColor[i].r / w,
			g: totalColor[i].g / w,
			b: totalColor[i].b / w,
			a: totalColor[i].a / w,
		}
		cm.palette[i].popularity = totalWeight[i]
	}

	if totalWeightAll <= 0 {
		return 0
	}
	return totalError / totalWeightAll
}

func accumulate(items []histItem, nm *nearestMap, minOpaqueVal float32, shard *viterShard) {
	for _, it := range items {
		idx, dist := nm.search(it.color, minOpaqueVal)
		if idx < 0 {
			continue
		}
		w := float64(it.adjustedWeight)
		shard.colorSum[idx].r += it.color.r * it.adjustedWeight
		shard.colorSum[idx].g += it.color.g * it.adjustedWeight
		shard.colorSum[idx].b += it.color.b * it.adjustedWeight
		shard.colorSum[idx].a += it.color.a * it.adjustedWeight
		shard.weightSum[idx] += w
		shard.errorSum += w * float64(dist)
	}
}
