package quant

import "math"

// maxDiff is the largest representable colordifference value, used as a
// sentinel for "infinitely far" in nearest-search and quality checks.
const maxDiff = 1e20

// RGBAPixel is an 8-bit sRGB-ish pixel as it appears in the caller's
// input/output buffers.
type RGBAPixel struct {
	R, G, B, A uint8
}

// fPixel is a pixel in the perceptually weighted linear space every
// distance computation in this package operates in: gamma-expanded RGB,
// premultiplied by an alpha-derived weight, alpha passed through
// linearly. Components are in [0,1] after conversion.
type fPixel struct {
	r, g, b, a float32
}

// colordifference is the sum of squared differences across all four
// components of two f_pixels: symmetric, non-negative, zero iff
// identical.
func colordifference(a, b fPixel) float32 {
	dr := a.r - b.r
	dg := a.g - b.g
	db := a.b - b.b
	da := a.a - b.a
	return dr*dr + dg*dg + db*db + da*da
}

// gammaLUT caches the 256-entry gamma expansion table for one gamma
// value. It is rebuilt only when the configured gamma changes and is
// never shared across goroutines without the caller treating it as
// read-only (it is, once built).
type gammaLUT struct {
	gamma float64
	table [256]float32
}

func newGammaLUT(gamma float64) *gammaLUT {
	lut := &gammaLUT{}
	lut.setGamma(gamma)
	return lut
}

func (lut *gammaLUT) setGamma(gamma float64) {
	if gamma <= 0 {
		gamma = 0.45455
	}
	if lut.gamma == gamma {
		return
	}
	lut.gamma = gamma
	invGamma := 1.0 / gamma
	for i := 0; i < 256; i++ {
		lut.table[i] = float32(math.Pow(float64(i)/255.0, invGamma))
	}
}

// toF expands an 8-bit pixel into the perceptual linear space, weighting
// the chromatic channels by alpha so that a fully transparent pixel
// contributes nothing to colordifference regardless of its RGB value.
func (lut *gammaLUT) toF(px RGBAPixel) fPixel {
	a := float32(px.A) / 255.0
	return fPixel{
		r: lut.table[px.R] * a,
		g: lut.table[px.G] * a,
		b: lut.table[px.B] * a,
		a: a,
	}
}

// toRGB is the inverse of toF: unweight by alpha, gamma-compress, round
// to 8-bit. gamma here is the *output* gamma, which may differ from the
// gamma used by toF on the input side.
func (lut *gammaLUT) toRGB(gamma float64, fpx fPixel) RGBAPixel {
	a := clamp01(fpx.a)
	var r, g, b float32
	if a > 1.0/256.0 {
		r = clamp01(fpx.r / a)
		g = clamp01(fpx.g / a)
		b = clamp01(fpx.b / a)
	}
	return RGBAPixel{
		R: gammaCompress(r, gamma),
		G: gammaCompress(g, gamma),
		B: gammaCompress(b, gamma),
		A: uint8(math.Round(float64(a) * 255)),
	}
}

func gammaCompress(v float32, gamma float64) uint8 {
	if v <= 0 {
		return 0
	}
	c := math.Pow(float64(v), gamma)
	if c > 1 {
		c = 1
	}
	return uint8(math.Round(c * 255))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampF64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// qualityToMSE converts a 0-100 quality score into a target MSE, curve
// fudged to be roughly similar to libjpeg's quality scale.
func qualityToMSE(quality int) float64 {
	if quality == 0 {
		return maxDiff
	}
	return 2.5 / math.Pow(210.0+float64(quality), 1.2) * (100.1 - float64(quality)) / 100.0
}
