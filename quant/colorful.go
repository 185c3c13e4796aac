package quant

import "github.com/lucasb-eyer/go-colorful"

// ToColorful exposes r's final, already-rounded 8-bit palette (the same
// values Palette() returns) as go-colorful colors, letting a caller
// already working in that ecosystem reuse its distance metrics,
// blending, and named-color lookup on the result instead of only
// getting raw RGBAPixel bytes back.
func (r *Result) ToColorful() []colorful.Color {
	palette := r.Palette()
	out := make([]colorful.Color, len(palette))
	for i, px := range palette {
		out[i] = colorful.Color{
			R: float64(px.R) / 255.0,
			G: float64(px.G) / 255.0,
			B: float64(px.B) / 255.0,
		}
	}
	return out
}

// AddFixedColorful appends c as a new fixed (never moved by Voronoi
// refinement or the feedback controller's reject-and-reweight path)
// palette entry, for callers building a colormap around a caller-chosen
// "brand" color supplied as a go-colorful value. c is gamma-expanded and
// alpha-premultiplied through lut exactly as every other pixel is via
// toF, so it behaves identically to any other entry to every distance
// computation downstream.
func (m *Colormap) AddFixedColorful(lut *gammaLUT, c colorful.Color, alpha float32) {
	m.palette = append(m.palette, colormapItem{
		acolor: lut.toF(RGBAPixel{
			R: clampByte(c.R),
			G: clampByte(c.G),
			B: clampByte(c.B),
			A: clampByte(float64(alpha)),
		}),
		fixed: true,
	})
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
