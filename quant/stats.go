package quant

// mseToMetric rescales an internal mean squared error (computed in the
// 0-1 gamma-expanded, alpha-weighted color space) into the 0-65536-ish
// "per channel, 8-bit" scale the original source reports to callers, so
// a Result's reported error is comparable across different output gammas.
func mseToMetric(mse float64) float64 {
	return mse * 65536.0 / 6.0
}

// Stats summarizes one completed quantization, returned alongside the
// Result so callers can log or threshold on it without recomputing
// anything.
type Stats struct {
	PaletteSize int
	MSE         float64
	MSEMetric   float64
	Quality     int
}

func newStats(paletteSize int, mse float64) Stats {
	return Stats{
		PaletteSize: paletteSize,
		MSE:         mse,
		MSEMetric:   mseToMetric(mse),
		Quality:     qualityAsPercent(mse),
	}
}
