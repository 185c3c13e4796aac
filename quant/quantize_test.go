package quant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeRGBA(w, h int, fill func(x, y int) RGBAPixel) []byte {
	buf := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := fill(x, y)
			o := (y*w + x) * 4
			buf[o], buf[o+1], buf[o+2], buf[o+3] = px.R, px.G, px.B, px.A
		}
	}
	return buf
}

func TestQuantizeSolidColorYieldsOneColor(t *testing.T) {
	buf := makeRGBA(16, 16, func(x, y int) RGBAPixel { return RGBAPixel{40, 120, 200, 255} })
	img, err := NewImage(buf, 16, 16, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	result, err := Quantize(img, attr)
	require.NoError(t, err)
	require.Equal(t, 1, result.Stats.PaletteSize)
}

func TestQuantizeCheckerboardYieldsTwoColors(t *testing.T) {
	buf := makeRGBA(16, 16, func(x, y int) RGBAPixel {
		if (x+y)%2 == 0 {
			return RGBAPixel{0, 0, 0, 255}
		}
		return RGBAPixel{255, 255, 255, 255}
	})
	img, err := NewImage(buf, 16, 16, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	result, err := Quantize(img, attr)
	require.NoError(t, err)
	require.Equal(t, 2, result.Stats.PaletteSize)
}

func TestQuantizeGradientRespectsMaxColors(t *testing.T) {
	buf := makeRGBA(64, 1, func(x, y int) RGBAPixel {
		v := uint8(x * 255 / 63)
		return RGBAPixel{v, v, v, 255}
	})
	img, err := NewImage(buf, 64, 1, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	require.NoError(t, attr.SetMaxColors(16))
	result, err := Quantize(img, attr)
	require.NoError(t, err)
	require.LessOrEqual(t, result.Stats.PaletteSize, 16)

	out := make([]byte, 64*1)
	stats, err := result.Remap(img, false, out)
	require.NoError(t, err)
	require.LessOrEqual(t, stats.PaletteSize, 16)
	for _, idx := range out {
		require.Less(t, int(idx), result.Stats.PaletteSize)
	}
}

func TestQuantizeGradientWithDitheringStaysInPaletteBounds(t *testing.T) {
	buf := makeRGBA(64, 1, func(x, y int) RGBAPixel {
		v := uint8(x * 255 / 63)
		return RGBAPixel{v, v, v, 255}
	})
	img, err := NewImage(buf, 64, 1, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	require.NoError(t, attr.SetMaxColors(16))
	require.NoError(t, attr.SetDitherLevel(1.0))
	result, err := Quantize(img, attr)
	require.NoError(t, err)

	out := make([]byte, 64)
	_, err = result.Remap(img, true, out)
	require.NoError(t, err)
	for _, idx := range out {
		require.Less(t, int(idx), result.Stats.PaletteSize)
	}
}

func TestQuantizeFullyTransparentImageYieldsOneColor(t *testing.T) {
	buf := makeRGBA(8, 8, func(x, y int) RGBAPixel { return RGBAPixel{0, 0, 0, 0} })
	img, err := NewImage(buf, 8, 8, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	result, err := Quantize(img, attr)
	require.NoError(t, err)
	require.Equal(t, 1, result.Stats.PaletteSize)
}

func TestQuantizeQualityFloorRejectsNoisyImageWithTooFewColors(t *testing.T) {
	buf := makeRGBA(32, 32, func(x, y int) RGBAPixel {
		// Pseudo-random-looking high-frequency noise, deterministic.
		v := uint8((x*37 + y*59) % 256)
		return RGBAPixel{v, byte(255 - v), byte(v / 2), 255}
	})
	img, err := NewImage(buf, 32, 32, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	require.NoError(t, attr.SetMaxColors(2))
	require.NoError(t, attr.SetQuality(95, 100))

	_, err = Quantize(img, attr)
	require.Error(t, err)
	qerr, ok := err.(*QuantizeError)
	require.True(t, ok)
	require.Equal(t, StatusQualityTooLow, qerr.Status)
}

func TestQuantizeLastIndexTransparentPlacesTransparentEntryLast(t *testing.T) {
	buf := makeRGBA(4, 4, func(x, y int) RGBAPixel {
		if x < 2 {
			return RGBAPixel{255, 0, 0, 255}
		}
		return RGBAPixel{0, 0, 0, 0}
	})
	img, err := NewImage(buf, 4, 4, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	attr.SetLastIndexTransparent(true)
	result, err := Quantize(img, attr)
	require.NoError(t, err)

	palette := result.Palette()
	require.Equal(t, uint8(0), palette[len(palette)-1].A)
}

func TestRemapRejectsUndersizedBuffer(t *testing.T) {
	buf := makeRGBA(4, 4, func(x, y int) RGBAPixel { return RGBAPixel{1, 2, 3, 255} })
	img, err := NewImage(buf, 4, 4, 0.45455, OwnershipBorrow)
	require.NoError(t, err)

	attr := NewAttr()
	result, err := Quantize(img, attr)
	require.NoError(t, err)

	out := make([]byte, 4)
	_, err = result.Remap(img, false, out)
	require.Error(t, err)
}
