package quant

import "math"

// Attr holds every tunable of the quantization pipeline. Unlike the
// teacher's Options (a plain value struct), most fields here are derived
// from a single Speed knob via SetSpeed, the same way liq_set_speed
// derives iteration counts and thresholds from one 1-10 dial in the
// original source, so callers normally touch only MaxColors, Quality,
// Speed and DitherLevel and leave the rest at their computed defaults.
type Attr struct {
	MaxColors            int
	MinOpaqueVal         float32
	LastIndexTransparent bool

	TargetMSE float64
	MaxMSE    float64

	Speed                int
	VoronoiIterations    int
	IterationLimit       float64
	FeedbackLoopTrials   int
	MaxHistogramEntries  int
	MinPosterization     int
	UseContrastMaps      bool
	UseDitherMap         bool

	Gamma       float64
	OutputGamma float64
	DitherLevel float32

	Log LogSink
}

// NewAttr returns an Attr with the original source's documented
// liq_attr_create defaults: 256 colors, fully opaque threshold, no MSE
// target (TargetMSE 0), no quality floor (MaxMSE maxDiff), and speed 3.
func NewAttr() *Attr {
	a := &Attr{
		MaxColors:    256,
		MinOpaqueVal: 1,
		TargetMSE:    0,
		MaxMSE:       maxDiff,
		Gamma:        0.45455,
		OutputGamma:  0.45455,
		DitherLevel:  1.0,
		Log:          NopLogSink{},
	}
	a.SetSpeed(3)
	return a
}

// SetMaxColors sets the palette size ceiling, 2-256.
func (a *Attr) SetMaxColors(n int) error {
	if n < 2 || n > 256 {
		return ErrValueOutOfRange
	}
	a.MaxColors = n
	return nil
}

// SetQuality converts a 0-100 min/max quality pair into the target and
// max MSE thresholds the feedback controller and final quality gate use.
func (a *Attr) SetQuality(minQuality, maxQuality int) error {
	if minQuality < 0 || maxQuality > 100 || minQuality > maxQuality {
		return ErrValueOutOfRange
	}
	a.TargetMSE = qualityToMSE(maxQuality)
	a.MaxMSE = qualityToMSE(minQuality)
	return nil
}

// SetMinOpacity sets the alpha threshold, in [0,1], at or above which a
// pixel is treated as opaque for palette-matching purposes.
func (a *Attr) SetMinOpacity(v float32) error {
	if v < 0 || v > 1 {
		return ErrValueOutOfRange
	}
	a.MinOpaqueVal = v
	return nil
}

func (a *Attr) SetLastIndexTransparent(v bool) {
	a.LastIndexTransparent = v
}

// SetGamma sets the assumed input gamma, in (0,1].
func (a *Attr) SetGamma(g float64) error {
	if g <= 0 || g > 1 {
		return ErrValueOutOfRange
	}
	a.Gamma = g
	return nil
}

func (a *Attr) SetOutputGamma(g float64) error {
	if g <= 0 || g > 1 {
		return ErrValueOutOfRange
	}
	a.OutputGamma = g
	return nil
}

// SetDitherLevel sets the dithering gate, 0 to 1: 0 makes Remap skip
// Floyd-Steinberg dithering, any value above 0 enables it. The value does
// not scale the per-pixel diffusion strength, which comes from the
// image's dither map or the fixed fallbackDitherLevel.
func (a *Attr) SetDitherLevel(v float32) error {
	if v < 0 || v > 1 {
		return ErrValueOutOfRange
	}
	a.DitherLevel = v
	return nil
}

func (a *Attr) SetMinPosterization(bits int) error {
	if bits < 0 || bits > 4 {
		return ErrValueOutOfRange
	}
	a.MinPosterization = bits
	return nil
}

// SetSpeed derives every internal tuning knob from a single 1 (thorough,
// slow) to 10 (fast, approximate) dial, transcribed from liq_set_speed:
// higher speed means fewer Voronoi iterations, a looser (larger)
// iteration_limit,
// fewer feedback-loop trials, a smaller histogram cap, and speed 8+
// forces a minimum 1-bit posterization while speed 6+ drops the
// dither-map refinement pass and speed 8+ drops the contrast maps too.
func (a *Attr) SetSpeed(speed int) error {
	if speed < 1 || speed > 10 {
		return ErrValueOutOfRange
	}
	a.Speed = speed

	iterations := maxInt(8-speed, 0)
	iterations += iterations * iterations / 2
	a.VoronoiIterations = iterations

	a.IterationLimit = 1.0 / float64(int64(1)<<uint(23-speed))
	a.FeedbackLoopTrials = maxInt(56-9*speed, 0)
	a.MaxHistogramEntries = (1 << 17) + (1<<18)*(10-speed)

	a.MinPosterization = 0
	if speed >= 8 {
		a.MinPosterization = 1
	}
	a.UseContrastMaps = speed <= 7
	a.UseDitherMap = speed <= 5
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// qualityAsPercent is a reporting helper mirroring the original source's
// habit of surfacing the achieved MSE back to callers as a 0-100 score.
func qualityAsPercent(mse float64) int {
	if mse <= 0 {
		return 100
	}
	q := 100.0 - math.Sqrt(mse/2.0)*32.0
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}
	return int(q)
}
