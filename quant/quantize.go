package quant

import "sort"

// Result owns a finished, sorted Colormap plus everything needed to
// remap pixels against it: the gamma LUT it was built with and a
// spatial accelerator over its entries.
type Result struct {
	attr     *Attr
	lut      *gammaLUT
	colormap *Colormap
	nearest  *nearestMap
	Stats    Stats
}

// Palette returns the final 8-bit RGBA palette, in final index order.
func (r *Result) Palette() []RGBAPixel {
	out := make([]RGBAPixel, r.colormap.Len())
	for i := range out {
		out[i] = r.colormap.Entry(r.lut, r.attr.OutputGamma, i)
	}
	return out
}

// Quantize runs the full pipeline against img under attr: optional IE6
// alpha workaround and contrast-map preprocessing, histogram
// construction, median-cut search with Voronoi refinement via the
// feedback controller, extra Voronoi passes up to attr.VoronoiIterations,
// and a final quality gate. Mirrors pngquant_quantize's control flow
// in the original source, including its fast path (skip search entirely
// when the image already has few enough distinct colors) and its
// hopeless-abort check partway through the extra iterations.
func Quantize(img *Image, attr *Attr) (*Result, error) {
	attr.Log.Logf("quantizing %dx%d image to %d colors on %s", img.width, img.height, attr.MaxColors, cpuSummary())
	lut := newGammaLUT(attr.Gamma)

	if attr.MinOpaqueVal < 1.0 {
		img.applyIE6Workaround(lut, attr.MinOpaqueVal)
	}
	if attr.UseContrastMaps && img.width >= 4 && img.height >= 4 {
		buildContrastMaps(img, lut)
	}

	hist, err := buildHistogram(img, lut, attr.MaxHistogramEntries, attr.MinPosterization)
	if err != nil {
		return nil, err
	}
	if len(hist.items) == 0 {
		return nil, ErrValueOutOfRange
	}

	var cm *Colormap
	var mse float64

	if len(hist.items) <= attr.MaxColors && attr.TargetMSE == 0 {
		attr.Log.Logf("histogram already fits in %d colors, skipping median-cut search", attr.MaxColors)
		cm = newColormap(len(hist.items))
		for i, it := range hist.items {
			cm.palette[i] = colormapItem{acolor: it.color, popularity: float64(it.perceptualWeight)}
		}
		nm := buildNearest(cm)
		mse = voronoiIteration(hist, cm, nm, attr.MinOpaqueVal, attr.Log)
	} else {
		cm, mse = findBestPalette(hist, attr)
		if cm == nil {
			return nil, errQualityTooLow(maxDiff)
		}
	}

	// When findBestPalette skipped refinement entirely (FeedbackLoopTrials
	// <= 0), mse is the unmeasured sentinel -1. If a real MaxMSE bound is
	// in force, one extra Voronoi pass is still needed to measure it,
	// matching the original source's "otherwise total error is never
	// calculated and MSE limit won't work" forced iteration.
	iterations := attr.VoronoiIterations
	if iterations == 0 && mse < 0 && attr.MaxMSE < maxDiff {
		iterations = 1
	}

	nm := buildNearest(cm)
	for i := 0; i < iterations; i++ {
		newMSE := voronoiIteration(hist, cm, nm, attr.MinOpaqueVal, attr.Log)
		improvement := mse - newMSE
		mse = newMSE
		if improvement >= 0 && improvement < attr.IterationLimit {
			break
		}
		if mse > attr.MaxMSE*3.0 {
			attr.Log.Logf("voronoi refinement looks hopeless at iteration %d (mse=%.6f), stopping early", i, mse)
			break
		}
		nm = buildNearest(cm)
	}

	sortPalette(cm, attr.LastIndexTransparent)

	if mse > attr.MaxMSE {
		return nil, errQualityTooLow(mse)
	}

	return &Result{
		attr:     attr,
		lut:      lut,
		colormap: cm,
		nearest:  buildNearest(cm),
		Stats:    newStats(cm.Len(), mse),
	}, nil
}

// Remap assigns every pixel of img a palette index from r, writing one
// byte per pixel into out (which must be at least Width*Height bytes),
// optionally applying Floyd-Steinberg dithering. r's DitherLevel is
// purely the on/off gate for dithering (matching the original source's
// `dither_level == 0` branch); the per-pixel diffusion strength always
// comes from img's dither map, or the fixed fallbackDitherLevel when
// none exists. May be called more than once against the same Result
// (e.g. once plain and once dithered, or against several same-sized
// images sharing one palette) since nothing here mutates r itself aside
// from lazily caching img's dither map. When the Attr that produced r
// enabled the dither map (speed<=5) and none exists yet, a measurement
// pass builds it first (writing its own indices into out) so dithering
// concentrates on high-error regions away from edges and noise instead
// of low-error flat fills, and
// so the dithered pass can reuse those indices under the
// distance-to-closest-other-color tolerance rather than re-searching
// every pixel.
func (r *Result) Remap(img *Image, dither bool, out []byte) (Stats, error) {
	want := img.width * img.height
	if len(out) < want {
		return Stats{}, ErrBufferTooSmall
	}
	out = out[:want]

	var mse float64
	if dither && r.attr.DitherLevel > 0 {
		remappingError := r.Stats.MSE
		outputImageIsRemapped := false
		if r.attr.UseDitherMap && img.ditherMap == nil {
			remappingError = measureAndBuildDitherMap(img, r.lut, r.colormap, r.nearest, r.attr.MinOpaqueVal, out)
			outputImageIsRemapped = true
		}
		maxDitherError := maxf(float32(remappingError)*2.4, 16.0/256.0)
		mse = remapToPaletteFloyd(img, r.lut, r.colormap, r.nearest, r.attr.MinOpaqueVal, maxDitherError, outputImageIsRemapped, out)
	} else {
		mse = remapToPalette(img, r.lut, r.colormap, r.nearest, r.attr.MinOpaqueVal, out)
	}

	return newStats(r.colormap.Len(), mse), nil
}

// sortPalette shrinks the tRNS chunk a caller would need to write: every
// entry that isn't fully opaque is grouped at the front (so a tRNS chunk
// can stop after num_transparent entries), each group individually
// sorted by ascending popularity (slightly more compressible PNG output
// per the original source's comment), mirroring sort_palette/
// compare_popularity. If lastIndexTransparent is set and at least one
// entry is fully transparent (alpha < 1/256), the first such entry is
// moved to the final index instead and everything else sorted ascending
// by popularity around it — matching the original's own early-return
// special case; lastIndexTransparent has no effect when no entry is
// fully transparent, falling through to the grouping behavior above,
// exactly as the original does.
func sortPalette(cm *Colormap, lastIndexTransparent bool) {
	items := cm.palette
	n := len(items)
	byPopularityAsc := func(s []colormapItem) func(i, j int) bool {
		return func(i, j int) bool { return s[i].popularity < s[j].popularity }
	}

	if lastIndexTransparent {
		for i := 0; i < n; i++ {
			if items[i].acolor.a < 1.0/256.0 {
				last := n - 1
				items[i], items[last] = items[last], items[i]
				rest := items[:last]
				sort.SliceStable(rest, byPopularityAsc(rest))
				return
			}
		}
	}

	numTransparent := 0
	for i := 0; i < n; i++ {
		if items[i].acolor.a < 255.0/256.0 {
			if i != numTransparent {
				items[numTransparent], items[i] = items[i], items[numTransparent]
				i--
			}
			numTransparent++
		}
	}

	transparent := items[:numTransparent]
	opaque := items[numTransparent:]
	sort.SliceStable(transparent, byPopularityAsc(transparent))
	sort.SliceStable(opaque, byPopularityAsc(opaque))
}
