package treedraw

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/hcaltrigger/hcalplot/config"
	"github.com/hcaltrigger/hcalplot/histo"
)

// Binning is a regular binning of one axis.
type Binning struct {
	N        int
	Min, Max float64
}

func (b Binning) index(v float64) int {
	if math.IsNaN(v) || v < b.Min || v >= b.Max {
		return -1
	}
	i := int(float64(b.N) * (v - b.Min) / (b.Max - b.Min))
	if i >= b.N {
		return -1
	}
	return i
}

// clamp restricts the 1-based inclusive range [first, last] to the axis and
// returns it 0-based.
func (b Binning) clamp(first, last int) (int, int) {
	return max(first, 1) - 1, min(last, b.N) - 1
}

// NDHist is a dense 1, 2 or 3 dimensional histogram of in-range entries.
type NDHist struct {
	axes  []Binning
	n     []int64
	sumw  []float64
	sumw2 []float64
}

// NewNDHist returns an empty histogram; len(axes) is its dimension.
func NewNDHist(axes ...Binning) (*NDHist, error) {
	if len(axes) < 1 || len(axes) > 3 {
		return nil, fmt.Errorf("treedraw: invalid histogram dimension %d", len(axes))
	}
	n := 1
	for i, ax := range axes {
		if ax.N <= 0 || ax.Max <= ax.Min {
			return nil, fmt.Errorf("treedraw: invalid binning for axis #%d: %+v", i, ax)
		}
		n *= ax.N
	}
	return &NDHist{
		axes:  axes,
		n:     make([]int64, n),
		sumw:  make([]float64, n),
		sumw2: make([]float64, n),
	}, nil
}

func newNDHistFrom(spec config.DrawSpec, dim int) (*NDHist, error) {
	axes := []Binning{
		{N: spec.XBins, Min: spec.XMin, Max: spec.XMax},
		{N: spec.YBins, Min: spec.YMin, Max: spec.YMax},
		{N: spec.ZBins, Min: spec.ZMin, Max: spec.ZMax},
	}
	if dim < 1 || dim > len(axes) {
		return nil, fmt.Errorf("treedraw: %q: invalid dimension %d", spec.Basename, dim)
	}
	h, err := NewNDHist(axes[:dim]...)
	if err != nil {
		return nil, fmt.Errorf("treedraw: %q: %w", spec.Basename, err)
	}
	return h, nil
}

// Dim returns the number of axes.
func (h *NDHist) Dim() int { return len(h.axes) }

func (h *NDHist) offset(idx ...int) int {
	o := 0
	for i := len(idx) - 1; i >= 0; i-- {
		o = o*h.axes[i].N + idx[i]
	}
	return o
}

// Fill adds an entry at x (one value per axis, in x, y, z order). Entries
// outside the axes are dropped.
func (h *NDHist) Fill(w float64, x ...float64) {
	idx := make([]int, len(h.axes))
	for i, ax := range h.axes {
		idx[i] = ax.index(x[i])
		if idx[i] < 0 {
			return
		}
	}
	o := h.offset(idx...)
	h.n[o]++
	h.sumw[o] += w
	h.sumw2[o] += w * w
}

// SumW returns the sum of weights of the bin at 0-based indices idx.
func (h *NDHist) SumW(idx ...int) float64 { return h.sumw[h.offset(idx...)] }

// Entries returns the sum of weights over all bins.
func (h *NDHist) Entries() float64 {
	var sum float64
	for _, v := range h.sumw {
		sum += v
	}
	return sum
}

// Project restricts the axis of p to its bin range and sums the other axes
// out. A 2D histogram yields the 1D distribution along the other axis; a 3D
// histogram yields the 2D distribution of the two remaining axes, in x, y, z
// order.
func (h *NDHist) Project(p Projection) (*NDHist, error) {
	cut := int(p.Axis - 'X')
	if h.Dim() < 2 || cut >= h.Dim() {
		return nil, fmt.Errorf("treedraw: cannot project %dD histogram along %c", h.Dim(), p.Axis)
	}

	var keep []int
	for i := range h.axes {
		if i != cut {
			keep = append(keep, i)
		}
	}
	axes := make([]Binning, len(keep))
	for i, k := range keep {
		axes[i] = h.axes[k]
	}
	out, err := NewNDHist(axes...)
	if err != nil {
		return nil, err
	}

	first, last := h.axes[cut].clamp(p.First, p.Last)
	idx := make([]int, h.Dim())
	sub := make([]int, len(keep))
	h.each(idx, 0, func() {
		if idx[cut] < first || idx[cut] > last {
			return
		}
		for i, k := range keep {
			sub[i] = idx[k]
		}
		src, dst := h.offset(idx...), out.offset(sub...)
		out.n[dst] += h.n[src]
		out.sumw[dst] += h.sumw[src]
		out.sumw2[dst] += h.sumw2[src]
	})
	return out, nil
}

func (h *NDHist) each(idx []int, axis int, fct func()) {
	if axis == len(idx) {
		fct()
		return
	}
	for i := 0; i < h.axes[axis].N; i++ {
		idx[axis] = i
		h.each(idx, axis+1, fct)
	}
}

func (h *NDHist) moments(o int) histo.Moments {
	return histo.Moments{N: h.n[o], SumW: h.sumw[o], SumW2: h.sumw2[o]}
}

// Hbook converts a 1D or 2D histogram, named name.
func (h *NDHist) Hbook(name string) (any, error) {
	switch h.Dim() {
	case 1:
		ax := h.axes[0]
		out := hbook.NewH1D(ax.N, ax.Min, ax.Max)
		for i := 0; i < ax.N; i++ {
			histo.AddBin1D(out, i, h.moments(i))
		}
		out.Annotation()["name"] = name
		return out, nil
	case 2:
		ax, ay := h.axes[0], h.axes[1]
		out := hbook.NewH2D(ax.N, ax.Min, ax.Max, ay.N, ay.Min, ay.Max)
		for i := 0; i < ax.N; i++ {
			for j := 0; j < ay.N; j++ {
				histo.AddBin2D(out, i, j, h.moments(h.offset(i, j)))
			}
		}
		out.Annotation()["name"] = name
		return out, nil
	}
	return nil, fmt.Errorf("treedraw: cannot store a %dD histogram", h.Dim())
}
