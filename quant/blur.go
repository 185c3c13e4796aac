package quant

// Morphology and blur primitives over width x height float32 maps,
// hand-rolled in the teacher's tight bounds-clamped inner-loop style
// (byte-indexed, no per-pixel allocation) rather than pulled from a
// general imaging library: no third-party 3x3 min/max primitive appears
// anywhere in the retrieved example pack, and importing one only for
// this would add a dependency with no other use in this engine.

// dilate3x3 writes, for every pixel, the max over its 3x3 neighborhood
// (clamped at the border) into dst.
func dilate3x3(src, dst []float32, cols, rows int) {
	for y := 0; y < rows; y++ {
		y0, y1 := clampRow(y-1, rows), clampRow(y+1, rows)
		for x := 0; x < cols; x++ {
			x0, x1 := clampCol(x-1, cols), clampCol(x+1, cols)
			m := src[y*cols+x]
			m = maxf(m, src[y0*cols+x0])
			m = maxf(m, src[y0*cols+x])
			m = maxf(m, src[y0*cols+x1])
			m = maxf(m, src[y*cols+x0])
			m = maxf(m, src[y*cols+x1])
			m = maxf(m, src[y1*cols+x0])
			m = maxf(m, src[y1*cols+x])
			m = maxf(m, src[y1*cols+x1])
			dst[y*cols+x] = m
		}
	}
}

// erode3x3 writes, for every pixel, the min over its 3x3 neighborhood
// (clamped at the border) into dst.
func erode3x3(src, dst []float32, cols, rows int) {
	for y := 0; y < rows; y++ {
		y0, y1 := clampRow(y-1, rows), clampRow(y+1, rows)
		for x := 0; x < cols; x++ {
			x0, x1 := clampCol(x-1, cols), clampCol(x+1, cols)
			m := src[y*cols+x]
			m = minf(m, src[y0*cols+x0])
			m = minf(m, src[y0*cols+x])
			m = minf(m, src[y0*cols+x1])
			m = minf(m, src[y*cols+x0])
			m = minf(m, src[y*cols+x1])
			m = minf(m, src[y1*cols+x0])
			m = minf(m, src[y1*cols+x])
			m = minf(m, src[y1*cols+x1])
			dst[y*cols+x] = m
		}
	}
}

// boxBlur3 applies a separable box blur of the given radius: a
// horizontal pass src->tmp followed by a vertical pass tmp->dst.
func boxBlur3(src, tmp, dst []float32, cols, rows, radius int) {
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sum := float32(0)
			n := 0
			for dx := -radius; dx <= radius; dx++ {
				cx := clampCol(x+dx, cols)
				sum += src[y*cols+cx]
				n++
			}
			tmp[y*cols+x] = sum / float32(n)
		}
	}
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			sum := float32(0)
			n := 0
			for dy := -radius; dy <= radius; dy++ {
				cy := clampRow(y+dy, rows)
				sum += tmp[cy*cols+x]
				n++
			}
			dst[y*cols+x] = sum / float32(n)
		}
	}
}

func clampRow(y, rows int) int {
	if y < 0 {
		return 0
	}
	if y >= rows {
		return rows - 1
	}
	return y
}

func clampCol(x, cols int) int {
	if x < 0 {
		return 0
	}
	if x >= cols {
		return cols - 1
	}
	return x
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func absf(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// buildContrastMaps fills img.noise (1=flat, 0=noisy, edges excluded so
// anti-aliasing is preserved) and img.edges (1=flat, 0=edge) from the
// RGBA raster, only ever called when width>=4 and height>=4.
func buildContrastMaps(img *Image, lut *gammaLUT) {
	cols, rows := img.width, img.height
	noise := make([]float32, cols*rows)
	edges := make([]float32, cols*rows)
	tmp := make([]float32, cols*rows)

	for j := 0; j < rows; j++ {
		curr := lut.toF(img.pixelAt(j, 0))
		next := curr
		for i := 0; i < cols; i++ {
			prev := curr
			curr = next
			next = lut.toF(img.pixelAt(j, minInt(cols-1, i+1)))

			a := absf(prev.a + next.a - curr.a*2)
			r := absf(prev.r + next.r - curr.r*2)
			g := absf(prev.g + next.g - curr.g*2)
			b := absf(prev.b + next.b - curr.b*2)

			prevl := lut.toF(img.pixelAt(minInt(rows-1, j+1), i))
			var nextlRow int
			if j > 1 {
				nextlRow = j - 1
			} else {
				nextlRow = 0
			}
			nextl := lut.toF(img.pixelAt(nextlRow, i))

			a1 := absf(prevl.a + nextl.a - curr.a*2)
			r1 := absf(prevl.r + nextl.r - curr.r*2)
			g1 := absf(prevl.g + nextl.g - curr.g*2)
			b1 := absf(prevl.b + nextl.b - curr.b*2)

			horiz := maxf(maxf(a, r), maxf(g, b))
			vert := maxf(maxf(a1, r1), maxf(g1, b1))
			edge := maxf(horiz, vert)
			z := edge - absf(horiz-vert)*0.5
			z = 1 - maxf(z, minf(horiz, vert))
			z *= z
			z *= z

			noise[j*cols+i] = z
			edges[j*cols+i] = 1 - edge
		}
	}

	// noise: dilate, dilate, blur(radius 3), dilate, erode, erode, erode
	dilate3x3(noise, tmp, cols, rows)
	dilate3x3(tmp, noise, cols, rows)
	boxBlur3(noise, tmp, noise, cols, rows, 3)
	dilate3x3(noise, tmp, cols, rows)
	erode3x3(tmp, noise, cols, rows)
	erode3x3(noise, tmp, cols, rows)
	erode3x3(tmp, noise, cols, rows)

	// edges: erode, dilate, then elementwise min(noise, edges)
	erode3x3(edges, tmp, cols, rows)
	dilate3x3(tmp, edges, cols, rows)
	for i := range edges {
		edges[i] = minf(noise[i], edges[i])
	}

	img.noise = noise
	img.edges = edges
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
