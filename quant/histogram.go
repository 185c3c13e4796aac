package quant

import "sort"

// histItem is one distinct (posterized) color observed in the image:
// its perceptual color, its invariant importance (perceptualWeight), and
// the weight the feedback controller is allowed to mutate
// (adjustedWeight).
type histItem struct {
	color            fPixel
	perceptualWeight float32
	adjustedWeight   float32
}

// Histogram is the weighted color population the rest of the pipeline
// quantizes. Size is capped by maxHistogramEntries; built from a hash
// table keyed by posterized color, retried with higher ignorebits on
// overflow.
type Histogram struct {
	items []histItem
}

type histBucket struct {
	representative RGBAPixel
	weight         float32
}

// buildHistogram hashes every pixel of img into a weighted color bucket,
// accumulating img.noise[row*cols+col] (or 1.0 if no importance map was
// built) as each bucket's weight. Distinct-key overflow beyond maxEntries
// retries with ignorebits incremented, which strips one more low bit from
// each channel and therefore coarsens the key space; by ignorebits=7
// only 16 distinct keys per channel combination remain, guaranteeing
// termination.
func buildHistogram(img *Image, lut *gammaLUT, maxEntries, ignorebitsFloor int) (*Histogram, error) {
	if err := checkHistogramBudget(maxEntries); err != nil {
		return nil, err
	}

	ignorebits := ignorebitsFloor
	if ignorebits < 0 {
		ignorebits = 0
	}

	var table map[uint32]*histBucket
	for {
		table = make(map[uint32]*histBucket, maxEntries)
		mask := uint8(0xFF << ignorebits)
		overflowed := false

	rows:
		for row := 0; row < img.height && !overflowed; row++ {
			for col := 0; col < img.width; col++ {
				px := img.pixelAt(row, col)
				key := quantizeKey(px, mask)

				weight := float32(1.0)
				if img.noise != nil {
					weight = img.noise[row*img.width+col]
				}

				b := table[key]
				if b == nil {
					if len(table) >= maxEntries {
						overflowed = true
						break rows
					}
					b = &histBucket{representative: maskPixel(px, mask)}
					table[key] = b
				}
				b.weight += weight
			}
		}

		if !overflowed || ignorebits >= 7 {
			break
		}
		ignorebits++
	}

	keys := make([]uint32, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	const small = 1.0 / 1024.0
	items := make([]histItem, 0, len(table))
	for _, k := range keys {
		b := table[k]
		w := b.weight * (1 + small)
		items = append(items, histItem{
			color:            lut.toF(b.representative),
			perceptualWeight: w,
			adjustedWeight:   w,
		})
	}
	return &Histogram{items: items}, nil
}

func quantizeKey(px RGBAPixel, mask uint8) uint32 {
	r := px.R & mask
	g := px.G & mask
	b := px.B & mask
	a := px.A & mask
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
}

func maskPixel(px RGBAPixel, mask uint8) RGBAPixel {
	return RGBAPixel{px.R & mask, px.G & mask, px.B & mask, px.A & mask}
}
