package quant

import "math"

// findBestPalette repeatedly builds a candidate palette by median-cut,
// refines it one Voronoi step, and either accepts it or, on rejection,
// moves every histogram item's adjusted weight halfway back toward its
// perceptual weight before trying again; no step here raises the weight
// of the colors a candidate matched worst. This
// is the search loop find_best_palette in the original source runs around
// mediancut()+viter(); the accept/reject arithmetic below (overshoot
// growth, reweighting toward the running average, and the trial-budget
// decrements) is transcribed from it directly rather than redesigned,
// since it is exactly what makes repeated median-cut trials converge
// instead of oscillating.
// findBestPalette returns (colormap, -1) without running any Voronoi
// refinement at all when attr.FeedbackLoopTrials <= 0 to begin with
// (speed 10's "skip the iteration" path): the caller is expected to
// treat a negative error as "not yet measured", matching the original
// source's unset palette_error == -1 convention and its forced single
// extra Voronoi pass when a max_mse bound still needs checking.
func findBestPalette(hist *Histogram, attr *Attr) (*Colormap, float64) {
	targetMSE := math.Min(attr.TargetMSE, attr.MaxMSE)
	maxColors := attr.MaxColors

	// leastError is the best (accepted) total error seen so far, used for
	// the accept/reject comparison; it starts at the "nothing accepted
	// yet" sentinel. stopFloor is the separate, much smaller floor fed
	// into mediancut's stop-variance threshold: it starts at zero so the
	// very first trial is free to split all the way down to maxColors,
	// and only tightens (to leastError) once a palette has actually been
	// accepted, so later trials stop refining once they reach a quality
	// already achieved. Collapsing both onto one "leastError" variable
	// would make the first trial's threshold maxDiff*1.2 and stop
	// median-cut after a single box every time.
	leastError := maxDiff
	stopFloor := 0.0
	trialsRemaining := attr.FeedbackLoopTrials
	targetMSEOvershoot := 1.0
	if trialsRemaining > 0 {
		targetMSEOvershoot = 1.05
	}

	var best *Colormap
	for {
		stopVariance := math.Max(math.Max(90.0/65536.0, targetMSE*targetMSEOvershoot), stopFloor) * 1.2
		candidate := mediancut(hist, maxColors, stopVariance)
		if candidate.Len() == 0 {
			break
		}

		if trialsRemaining <= 0 {
			// Matches the original's `if (feedback_loop_trials <= 0)
			// return newmap;`: accept the raw median-cut output with no
			// refinement and no measured error.
			return candidate, -1
		}

		nm := buildNearest(candidate)
		totalError := voronoiIteration(hist, candidate, nm, attr.MinOpaqueVal, attr.Log)

		accept := best == nil || totalError < leastError || (totalError <= targetMSE && candidate.Len() < maxColors)
		if accept {
			leastError = totalError
			stopFloor = totalError
			best = candidate
			targetMSEOvershoot = math.Min(targetMSEOvershoot*1.25, targetMSE/math.Max(totalError, 1e-9))
			trialsRemaining--
		} else {
			for i := range hist.items {
				hist.items[i].adjustedWeight = (hist.items[i].perceptualWeight + hist.items[i].adjustedWeight) / 2
			}
			targetMSEOvershoot = 1.0
			trialsRemaining -= 6
			if totalError > leastError*4 {
				trialsRemaining -= 3
			}
		}

		if trialsRemaining <= 0 {
			break
		}
	}

	return best, leastError
}
