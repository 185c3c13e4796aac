package quant

// Ownership controls whether NewImage copies the caller's RGBA buffer or
// borrows it. Resolves spec.md's open question about
// liq_image_create_rgba_rows's overloaded ownership-flags variants with a
// single explicit flag instead of two constructors.
type Ownership int

const (
	// OwnershipBorrow keeps a reference to the caller's slice; the IE6
	// alpha workaround (if triggered) mutates it in place. The caller
	// must not touch the buffer again until the Image is discarded.
	OwnershipBorrow Ownership = iota
	// OwnershipCopy duplicates the buffer on entry; the caller's slice
	// is left untouched.
	OwnershipCopy
)

// Image is the RGBA raster plus derived importance maps feeding the
// rest of the pipeline. The noise map lives from preprocess until the
// histogram is built; edges lives until remap, where it is read to build
// the separate ditherMap slice.
type Image struct {
	width, height int
	gamma         float64
	rgba          []byte // row-major, 4 bytes/pixel, len == width*height*4

	noise     []float32
	edges     []float32
	ditherMap []float32

	modified bool
}

// NewImage wraps an RGBA buffer (row-major, 4 bytes per pixel) for
// quantization. gamma is the input gamma in (0,1]; 0 selects the default
// 0.45455 (1/2.2).
func NewImage(rgba []byte, width, height int, gamma float64, own Ownership) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrValueOutOfRange
	}
	want := width * height * 4
	if len(rgba) < want {
		return nil, ErrValueOutOfRange
	}
	if gamma < 0 || gamma > 1.0 {
		return nil, ErrValueOutOfRange
	}
	if gamma == 0 {
		gamma = 0.45455
	}
	buf := rgba[:want]
	if own == OwnershipCopy {
		cp := make([]byte, want)
		copy(cp, buf)
		buf = cp
	}
	return &Image{width: width, height: height, gamma: gamma, rgba: buf}, nil
}

func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

func (img *Image) pixelAt(row, col int) RGBAPixel {
	o := (row*img.width + col) * 4
	return RGBAPixel{img.rgba[o], img.rgba[o+1], img.rgba[o+2], img.rgba[o+3]}
}

func (img *Image) rowPixels(row int) []byte {
	start := row * img.width * 4
	return img.rgba[start : start+img.width*4]
}

// applyIE6Workaround raises the opacity of nearly-opaque pixels so IE6's
// all-or-nothing alpha threshold doesn't clip them to fully transparent.
// alpha in almostOpaque..min_opaque_val is stretched linearly onto
// almostOpaque..1.0 (values above that clamp to 1.0);
// grounded on modify_alpha in the original C source. Guarded against
// minOpaqueVal <= 0, which would otherwise divide by zero.
func (img *Image) applyIE6Workaround(lut *gammaLUT, minOpaqueVal float32) {
	if minOpaqueVal > 254.0/255.0 || minOpaqueVal <= 0 {
		return
	}
	almostOpaque := minOpaqueVal * 169.0 / 256.0
	almostOpaqueInt := uint8(almostOpaque * 255.0)

	for row := 0; row < img.height; row++ {
		for col := 0; col < img.width; col++ {
			srcPx := img.pixelAt(row, col)
			if srcPx.A < almostOpaqueInt {
				continue
			}
			px := lut.toF(srcPx)
			al := almostOpaque + (px.a-almostOpaque)*(1-almostOpaque)/(minOpaqueVal-almostOpaque)
			if al > 1 {
				al = 1
			}
			px.a = al
			newPx := lut.toRGB(img.gamma, px)
			img.rgba[(row*img.width+col)*4+3] = newPx.A
		}
	}
	img.modified = true
}
