package quant

// colormapItem is one palette entry: its perceptual color, its
// popularity (summed histogram weight, used for the final sort), and
// whether refinement is allowed to move it.
type colormapItem struct {
	acolor     fPixel
	popularity float64
	fixed      bool
}

// Colormap is an ordered set of 1-256 entries produced by median-cut and
// refined by Voronoi iteration.
type Colormap struct {
	palette []colormapItem
}

func newColormap(n int) *Colormap {
	return &Colormap{palette: make([]colormapItem, n)}
}

func (m *Colormap) Len() int { return len(m.palette) }

// Fix marks index i as not to be altered by Voronoi refinement or the
// feedback controller's reject-and-reweight path, mirroring
// liq_image_add_fixed_color in the original C source.
func (m *Colormap) Fix(i int) {
	if i >= 0 && i < len(m.palette) {
		m.palette[i].fixed = true
	}
}

func (m *Colormap) duplicate() *Colormap {
	cp := &Colormap{palette: make([]colormapItem, len(m.palette))}
	copy(cp.palette, m.palette)
	return cp
}

// Entry returns a copy of the i-th palette entry as 8-bit RGBA, rounded
// with the given output gamma.
func (m *Colormap) Entry(lut *gammaLUT, outputGamma float64, i int) RGBAPixel {
	return lut.toRGB(outputGamma, m.palette[i].acolor)
}
