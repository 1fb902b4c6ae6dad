package histo

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Ratio is a bin-by-bin quotient of two 1D histograms, with propagated
// uncertainties. Bins where the denominator is empty hold NaN.
//
// Ratio implements plotter.XYer and plotter.YErrorer.
type Ratio struct {
	X, Y, Err []float64
}

func (r *Ratio) Len() int { return len(r.X) }

func (r *Ratio) XY(i int) (float64, float64) { return r.X[i], r.Y[i] }

func (r *Ratio) YError(i int) (float64, float64) { return r.Err[i], r.Err[i] }

// Finite drops the NaN bins.
func (r *Ratio) Finite() *Ratio {
	out := &Ratio{}
	for i, y := range r.Y {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		out.X = append(out.X, r.X[i])
		out.Y = append(out.Y, y)
		out.Err = append(out.Err, r.Err[i])
	}
	return out
}

// Divide returns h/den.
func (h *Histogram) Divide(den *Histogram) (*Ratio, error) {
	if err := h.compatible(den); err != nil {
		return nil, err
	}
	return quotient(h.h1, den.h1)
}

// RelativeDifference returns (h-den)/den.
func (h *Histogram) RelativeDifference(den *Histogram) (*Ratio, error) {
	if err := h.compatible(den); err != nil {
		return nil, err
	}
	return quotient(hbook.SubH1D(h.h1, den.h1), den.h1)
}

func (h *Histogram) compatible(den *Histogram) error {
	if h.Dim() != 1 || den.Dim() != 1 {
		return fmt.Errorf("histo: ratio needs two 1D histograms (got %q and %q)", h.Name(), den.Name())
	}
	num, ref := h.h1, den.h1
	if num.Len() != ref.Len() || num.XMin() != ref.XMin() || num.XMax() != ref.XMax() {
		return fmt.Errorf("histo: %q and %q have different binnings", h.Name(), den.Name())
	}
	return nil
}

func quotient(num, den *hbook.H1D) (*Ratio, error) {
	s, err := hbook.DivideH1D(num, den, hbook.DivReplaceNaNs(math.NaN()))
	if err != nil {
		return nil, fmt.Errorf("histo: %w", err)
	}

	r := &Ratio{
		X:   make([]float64, s.Len()),
		Y:   make([]float64, s.Len()),
		Err: make([]float64, s.Len()),
	}
	for i, pt := range s.Points() {
		r.X[i], r.Y[i], r.Err[i] = pt.X, pt.Y, math.Abs(pt.ErrY.Max)

		// an empty numerator with a nonzero error is a bin where the two
		// histograms agree: the quotient is 0, not undefined.
		nb, db := num.Binning.Bins[i], den.Binning.Bins[i]
		if math.IsNaN(pt.Y) && db.SumW() != 0 {
			r.Y[i] = 0
			r.Err[i] = nb.ErrW() / math.Abs(db.SumW())
		}
		if math.IsNaN(r.Y[i]) {
			r.Err[i] = math.NaN()
		}
	}
	return r, nil
}
