package telemetry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// savgol is a Savitzky-Golay smoother: a least-squares polynomial fit over a
// sliding window, reduced to a fixed convolution kernel for interior points.
// Edge points are smoothed by fitting the polynomial to the first/last full
// window and evaluating it in place, matching the usual "interp" edge mode.
type savgol struct {
	window int
	order  int
	kernel []float64
}

// newSavgol computes the smoothing kernel for the given window length (odd)
// and polynomial order.
func newSavgol(window, order int) (*savgol, error) {
	if window%2 == 0 || window < 3 {
		return nil, fmt.Errorf("savgol: window must be odd and >= 3, got %d", window)
	}
	if order >= window {
		return nil, fmt.Errorf("savgol: order %d too high for window %d", order, window)
	}

	half := window / 2

	// Vandermonde design matrix over positions -half..half.
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	// The smoothed centre value is the constant term of the local fit:
	// kernel_i = sum_k p_k * x_i^k with (AtA) p = e0.
	var ata mat.Dense
	ata.Mul(a.T(), a)
	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)
	var p mat.VecDense
	if err := p.SolveVec(&ata, e0); err != nil {
		return nil, fmt.Errorf("savgol: %w", err)
	}

	kernel := make([]float64, window)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for k := 0; k <= order; k++ {
			kernel[i] += p.AtVec(k) * v
			v *= x
		}
	}
	return &savgol{window: window, order: order, kernel: kernel}, nil
}

// Apply returns the smoothed copy of src. Inputs shorter than the window are
// smoothed with the largest odd window that fits; inputs too short for the
// polynomial order are returned unchanged.
func (s *savgol) Apply(src []float64) []float64 {
	n := len(src)
	if n < s.window {
		w := n
		if w%2 == 0 {
			w--
		}
		if w <= s.order+1 {
			return append([]float64(nil), src...)
		}
		shrunk, err := newSavgol(w, s.order)
		if err != nil {
			return append([]float64(nil), src...)
		}
		return shrunk.Apply(src)
	}

	half := s.window / 2
	out := make([]float64, n)

	for i := half; i < n-half; i++ {
		var acc float64
		for k, c := range s.kernel {
			acc += c * src[i-half+k]
		}
		out[i] = acc
	}

	// Edges: evaluate a least-squares polynomial fitted to the boundary
	// window at the uncovered positions.
	head := s.fitWindow(src[:s.window])
	for i := 0; i < half; i++ {
		out[i] = polyEval(head, float64(i-half))
	}
	tail := s.fitWindow(src[n-s.window:])
	for i := n - half; i < n; i++ {
		out[i] = polyEval(tail, float64(i-(n-1-half)))
	}
	return out
}

// fitWindow fits the smoother's polynomial to one window of samples and
// returns its coefficients, centred on the window middle.
func (s *savgol) fitWindow(win []float64) []float64 {
	half := len(win) / 2
	a := mat.NewDense(len(win), s.order+1, nil)
	b := mat.NewVecDense(len(win), nil)
	for i := range win {
		x := float64(i - half)
		v := 1.0
		for j := 0; j <= s.order; j++ {
			a.Set(i, j, v)
			v *= x
		}
		b.SetVec(i, win[i])
	}
	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		// Degenerate window; fall back to the raw values by fitting a
		// constant at the centre.
		c := make([]float64, s.order+1)
		c[0] = win[half]
		return c
	}
	out := make([]float64, s.order+1)
	for j := 0; j <= s.order; j++ {
		out[j] = coef.AtVec(j)
	}
	return out
}

func polyEval(coef []float64, x float64) float64 {
	acc := 0.0
	v := 1.0
	for _, c := range coef {
		acc += c * v
		v *= x
	}
	return acc
}
