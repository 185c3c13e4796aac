package quant

import "math/rand"

// remapSeed seeds the two Floyd-Steinberg error rows' initial noise so
// repeated runs over the same image and palette are byte-for-byte
// reproducible, matching the original source's fixed srand(12345).
const remapSeed = 12345

// fallbackDitherLevel is the per-pixel error-diffusion strength used
// when the image has no dither map (use_dither_map disabled), matching the original source's dither_map ? ... :
// 15.f/16.f fallback.
const fallbackDitherLevel = 15.0 / 16.0

// remapToPalette assigns every pixel its nearest palette index with no
// error diffusion, writing indices into out (row-major, one byte per
// pixel) and returning the resulting mean squared error.
func remapToPalette(img *Image, lut *gammaLUT, cm *Colormap, nm *nearestMap, minOpaqueVal float32, out []byte) float64 {
	cols, rows := img.width, img.height
	rowError := make([]float64, rows)
	remapRows := func(lo, hi int) {
		for row := lo; row < hi; row++ {
			for col := 0; col < cols; col++ {
				px := lut.toF(img.pixelAt(row, col))
				idx, dist := nm.search(px, minOpaqueVal)
				out[row*cols+col] = byte(idx)
				rowError[row] += float64(dist)
			}
		}
	}
	if shouldParallelize(cols * rows) {
		runBatches(rows, remapRows)
	} else {
		remapRows(0, rows)
	}
	var totalError float64
	for _, e := range rowError {
		totalError += e
	}
	return totalError / float64(cols*rows)
}

// measureAndBuildDitherMap runs one non-dithered pass, writing its
// indices into out (so a later dithered pass run with
// outputImageIsRemapped=true can reuse them under the tolerance rule)
// while also recording per-pixel error. That error map is then folded
// together with the edge map (img.edges, built by buildContrastMaps)
// into img.ditherMap as (error / largest error) * edges: low-error
// regions get little or no dithering so solid fills stay solid, and so
// do edges and noisy areas (where img.edges is near 0); full strength
// is reached only where the error is highest and img.edges is 1. Only called when the options request
// it (speed<=5, i.e. Attr.UseDitherMap) and no dither map exists yet.
// Returns the pass's mean squared error, for the caller to feed into
// max_dither_error.
func measureAndBuildDitherMap(img *Image, lut *gammaLUT, cm *Colormap, nm *nearestMap, minOpaqueVal float32, out []byte) float64 {
	cols, rows := img.width, img.height
	errMap := getFloat32Slice(cols * rows)
	defer putFloat32Slice(errMap)

	var totalError float64
	var maxErr float32
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			px := lut.toF(img.pixelAt(row, col))
			idx, dist := nm.search(px, minOpaqueVal)
			out[row*cols+col] = byte(idx)
			errMap[row*cols+col] = dist
			totalError += float64(dist)
			if dist > maxErr {
				maxErr = dist
			}
		}
	}

	ditherMap := make([]float32, cols*rows)
	for i := range ditherMap {
		e := float32(0)
		if maxErr > 0 {
			e = errMap[i] / maxErr
		}
		edgeFactor := float32(1)
		if img.edges != nil {
			edgeFactor = img.edges[i]
		}
		ditherMap[i] = clamp01(e * edgeFactor)
	}
	img.ditherMap = ditherMap

	return totalError / float64(cols*rows)
}

// ditheredPixel computes the error-adjusted color to search the palette
// against: the carried error thisErr scaled by ditherLevel, added to px
// under a single ratio shared across all four components (so clipping
// darkens/lightens rather than shifting hue), following
// get_dithered_pixel in the original source. If the scaled error is
// implausibly large, the ratio is further damped by 0.8; if it is
// negligible, dithering is skipped for this pixel entirely.
func ditheredPixel(ditherLevel, maxDitherError float32, thisErr, px fPixel) fPixel {
	sr := thisErr.r * ditherLevel
	sg := thisErr.g * ditherLevel
	sb := thisErr.b * ditherLevel
	sa := thisErr.a * ditherLevel

	ratio := componentRatio(px.r, sr)
	ratio = minf(ratio, componentRatio(px.g, sg))
	ratio = minf(ratio, componentRatio(px.b, sb))
	ratio = minf(ratio, componentRatio(px.a, sa))

	ditherErr := sr*sr + sg*sg + sb*sb + sa*sa
	if ditherErr > maxDitherError {
		ratio *= 0.8
	} else if ditherErr < 2.0/256.0/256.0 {
		return px
	}

	if ratio > 1.0 {
		ratio = 1.0
	}
	if ratio < 0 {
		ratio = 0
	}

	return fPixel{
		r: px.r + sr*ratio,
		g: px.g + sg*ratio,
		b: px.b + sb*ratio,
		a: px.a + sa*ratio,
	}
}

// componentRatio is the largest r such that v + r*s stays in [0,1]:
// 1.0 when s is zero (no constraint), v/-s when s pulls v downward,
// (1-v)/s when s pushes v upward.
func componentRatio(v, s float32) float32 {
	if s < 0 {
		return v / -s
	}
	if s > 0 {
		return (1.0 - v) / s
	}
	return 1.0
}

// remapToPaletteFloyd performs Floyd-Steinberg error-diffusion remapping:
// a zig-zag scan (left-to-right on even rows, right-to-left on odd rows,
// matching the original source's row-direction alternation so errors
// always propagate into not-yet-visited pixels) with two live error rows
// swapped at the end of each scanline. Per-pixel dither strength comes
// from img.ditherMap when present, else the fixed fallbackDitherLevel;
// attr-level DitherLevel is purely the on/off gate the caller already
// applied before calling this function, not a per-pixel multiplier. When
// outputImageIsRemapped is true, out already holds a previous pass's
// indices (from measureAndBuildDitherMap) and a palette entry whose
// tolerance isn't exceeded keeps its earlier index rather than being
// re-searched, per closestOtherColorDistances/tolerance below.
// Returns the resulting mean squared error.
func remapToPaletteFloyd(img *Image, lut *gammaLUT, cm *Colormap, nm *nearestMap, minOpaqueVal, maxDitherError float32, outputImageIsRemapped bool, out []byte) float64 {
	cols, rows := img.width, img.height

	var tolerance []float32
	if outputImageIsRemapped {
		tolerance = make([]float32, cm.Len())
		dists := closestOtherColorDistances(cm)
		for i, d := range dists {
			tolerance[i] = d / 4.0
		}
	}

	thisErr := getFPixelSlice(cols + 2)
	nextErr := getFPixelSlice(cols + 2)
	defer putFPixelSlice(thisErr)
	defer putFPixelSlice(nextErr)

	rng := rand.New(rand.NewSource(remapSeed))
	for i := range thisErr {
		thisErr[i] = fPixel{
			r: (rng.Float32() - 0.5) / 255.0,
			g: (rng.Float32() - 0.5) / 255.0,
			b: (rng.Float32() - 0.5) / 255.0,
			a: (rng.Float32() - 0.5) / 255.0,
		}
	}

	var totalError float64
	fsDirection := true

	for row := 0; row < rows; row++ {
		for i := range nextErr {
			nextErr[i] = fPixel{}
		}

		dir := 1
		if !fsDirection {
			dir = -1
		}

		for xi := 0; xi < cols; xi++ {
			col := xi
			if !fsDirection {
				col = cols - 1 - xi
			}

			ditherLevel := fallbackDitherLevel
			if img.ditherMap != nil {
				ditherLevel = img.ditherMap[row*cols+col]
			}

			px := lut.toF(img.pixelAt(row, col))
			spx := ditheredPixel(ditherLevel, maxDitherError, thisErr[col+1], px)

			currInd := int(out[row*cols+col])
			var idx int
			if outputImageIsRemapped && colordifference(cm.palette[currInd].acolor, spx) < tolerance[currInd] {
				idx = currInd
			} else {
				idx, _ = nm.search(spx, minOpaqueVal)
			}
			out[row*cols+col] = byte(idx)

			chosen := cm.palette[idx].acolor
			totalError += float64(colordifference(spx, chosen))
			ed := fPixel{r: spx.r - chosen.r, g: spx.g - chosen.g, b: spx.b - chosen.b, a: spx.a - chosen.a}

			if ed.r*ed.r+ed.g*ed.g+ed.b*ed.b+ed.a*ed.a > maxDitherError {
				ditherLevel *= 0.75
			}

			colorimp := (3.0 + chosen.a) / 4.0 * ditherLevel
			ed.r *= colorimp
			ed.g *= colorimp
			ed.b *= colorimp
			ed.a *= ditherLevel

			thisErr[col+1+dir].r += ed.r * 7.0 / 16.0
			thisErr[col+1+dir].g += ed.g * 7.0 / 16.0
			thisErr[col+1+dir].b += ed.b * 7.0 / 16.0
			thisErr[col+1+dir].a += ed.a * 7.0 / 16.0

			nextErr[col+1-dir].r += ed.r * 3.0 / 16.0
			nextErr[col+1-dir].g += ed.g * 3.0 / 16.0
			nextErr[col+1-dir].b += ed.b * 3.0 / 16.0
			nextErr[col+1-dir].a += ed.a * 3.0 / 16.0

			nextErr[col+1].r += ed.r * 5.0 / 16.0
			nextErr[col+1].g += ed.g * 5.0 / 16.0
			nextErr[col+1].b += ed.b * 5.0 / 16.0
			nextErr[col+1].a += ed.a * 5.0 / 16.0

			nextErr[col+1+dir].r += ed.r * 1.0 / 16.0
			nextErr[col+1+dir].g += ed.g * 1.0 / 16.0
			nextErr[col+1+dir].b += ed.b * 1.0 / 16.0
			nextErr[col+1+dir].a += ed.a * 1.0 / 16.0
		}

		thisErr, nextErr = nextErr, thisErr
		fsDirection = !fsDirection
	}
	return totalError / float64(cols*rows)
}
