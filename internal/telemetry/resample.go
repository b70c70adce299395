package telemetry

import (
	"math"
	"time"

	"gonum.org/v1/gonum/interp"
)

// EpochSeconds converts a time series to elapsed seconds since the Unix
// epoch. Interpolants are keyed on these floats for numerical stability.
func EpochSeconds(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = float64(t.UnixNano()) / float64(time.Second)
	}
	return out
}

// Resample evaluates a piecewise-linear interpolant built on (xs, ys)
// at every target. When extrapolate is true, targets outside the source
// domain are extended along the edge segment's slope; otherwise they yield
// NaN. Non-increasing xs entries and NaN ordinates are dropped before
// fitting; fewer than two usable knots yields all-NaN output.
func Resample(xs, ys, targets []float64, extrapolate bool) []float64 {
	out := make([]float64, len(targets))

	fx, fy := usableKnots(xs, ys)
	if len(fx) < 2 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(fx, fy); err != nil {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	lo, hi := fx[0], fx[len(fx)-1]
	n := len(fx)
	for i, x := range targets {
		switch {
		case x < lo:
			if !extrapolate {
				out[i] = math.NaN()
				continue
			}
			slope := (fy[1] - fy[0]) / (fx[1] - fx[0])
			out[i] = fy[0] + slope*(x-lo)
		case x > hi:
			if !extrapolate {
				out[i] = math.NaN()
				continue
			}
			slope := (fy[n-1] - fy[n-2]) / (fx[n-1] - fx[n-2])
			out[i] = fy[n-1] + slope*(x-hi)
		default:
			out[i] = pl.Predict(x)
		}
	}
	return out
}

// usableKnots filters (xs, ys) down to strictly increasing abscissae with
// finite ordinates.
func usableKnots(xs, ys []float64) ([]float64, []float64) {
	fx := make([]float64, 0, len(xs))
	fy := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		if len(fx) > 0 && xs[i] <= fx[len(fx)-1] {
			continue
		}
		fx = append(fx, xs[i])
		fy = append(fy, ys[i])
	}
	return fx, fy
}

// nanMin returns the smallest finite value, or NaN if none.
func nanMin(s []float64) float64 {
	min := math.NaN()
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}

// nanCumSum accumulates s treating NaN as zero, in place on a copy.
func nanCumSum(s []float64) []float64 {
	out := make([]float64, len(s))
	acc := 0.0
	for i, v := range s {
		if !math.IsNaN(v) {
			acc += v
		}
		out[i] = acc
	}
	return out
}

// rollingAbsMax computes a trailing w-sample maximum of |s|. Positions with
// fewer than w preceding samples are NaN.
func rollingAbsMax(s []float64, w int) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		max := math.Inf(-1)
		for j := i - w + 1; j <= i; j++ {
			if v := math.Abs(s[j]); v > max {
				max = v
			}
		}
		out[i] = max
	}
	return out
}

// nanSlice returns a slice of n NaNs.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
