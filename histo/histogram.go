// Package histo wraps one histogram extracted from a ROOT file together with
// the cosmetics it is drawn with.
package histo

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/config"
)

var (
	ErrOpen     = errors.New("histo: could not open file")
	ErrNotFound = errors.New("histo: histogram not found")
	ErrKind     = errors.New("histo: unsupported histogram type")
)

// Axis holds the text settings of one axis. Sizes are fractions of the
// canvas height.
type Axis struct {
	Title       string
	TitleSize   float64
	LabelSize   float64
	TitleOffset float64
	Min, Max    *float64
}

// Cosmetics is how the histogram content is drawn.
type Cosmetics struct {
	LineColor   color.Color
	LineWidth   vg.Length
	Dashes      []vg.Length
	MarkerColor color.Color
	Marker      draw.GlyphDrawer
	MarkerSize  vg.Length
	FillColor   color.Color

	// Draw and LegendDraw are the category's draw options.
	Draw       string
	LegendDraw string
	Legend     string
}

// Histogram is a 1D or 2D histogram bound to one category. A nil *Histogram
// is inert: Good reports false and every other method does nothing.
type Histogram struct {
	name string
	h1   *hbook.H1D
	h2   *hbook.H2D

	X, Y, Z Axis
	Style   Cosmetics
}

// New1D wraps an existing 1D histogram.
func New1D(name string, h *hbook.H1D) *Histogram {
	h.Annotation()["name"] = name
	return &Histogram{name: name, h1: h}
}

// New2D wraps an existing 2D histogram.
func New2D(name string, h *hbook.H2D) *Histogram {
	h.Annotation()["name"] = name
	return &Histogram{name: name, h2: h}
}

// Load extracts the histogram name from the ROOT file fname. The file is
// closed before returning; the histogram does not depend on it.
func Load(fname, name string) (*Histogram, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrOpen, fname, err)
	}
	defer f.Close()

	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q in %q", ErrNotFound, name, fname)
	}

	switch o := obj.(type) {
	case rhist.H2:
		return New2D(name, rootcnv.H2D(o)), nil
	case rhist.H1:
		return New1D(name, rootcnv.H1D(o)), nil
	}
	return nil, fmt.Errorf("%w: %q in %q is a %s", ErrKind, name, fname, obj.Class())
}

func (h *Histogram) Good() bool {
	return h != nil && (h.h1 != nil || h.h2 != nil)
}

func (h *Histogram) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Dim is 1 or 2, and 0 for an inert histogram.
func (h *Histogram) Dim() int {
	switch {
	case !h.Good():
		return 0
	case h.h2 != nil:
		return 2
	}
	return 1
}

func (h *Histogram) H1D() *hbook.H1D {
	if h == nil {
		return nil
	}
	return h.h1
}

func (h *Histogram) H2D() *hbook.H2D {
	if h == nil {
		return nil
	}
	return h.h2
}

// Configure applies the axis and category settings. scale is the fraction
// of the canvas taken by the panel the histogram is drawn in: text sizes
// are divided by it so they come out the same on any panel. extraScale only
// stretches the vertical title offset.
func (h *Histogram) Configure(spec config.HistogramSpec, cat config.CategorySpec, style hcalplot.Style, scale, extraScale float64) error {
	if !h.Good() {
		return nil
	}
	if scale <= 0 {
		scale = 1
	}
	if extraScale <= 0 {
		extraScale = 1
	}

	h.X = Axis{
		Title:       spec.X.Title,
		TitleSize:   style.TitleSize / scale,
		LabelSize:   style.LabelSize / scale,
		TitleOffset: style.XTitleOffset,
		Min:         spec.X.Min,
		Max:         spec.X.Max,
	}
	h.Y = Axis{
		Title:       spec.Y.Title,
		TitleSize:   style.TitleSize / scale,
		LabelSize:   style.LabelSize / scale,
		TitleOffset: style.YTitleOffset * scale * extraScale,
		Min:         spec.Y.Min,
		Max:         spec.Y.Max,
	}
	h.Z = Axis{Title: spec.Z.Title, Min: spec.Z.Min, Max: spec.Z.Max}

	col, err := hcalplot.ParseColor(cat.Color)
	if err != nil {
		return fmt.Errorf("histo: category %q: %w", cat.Name, err)
	}
	lcol := col
	if cat.LColor != "" {
		lcol, err = hcalplot.ParseColor(cat.LColor)
		if err != nil {
			return fmt.Errorf("histo: category %q: %w", cat.Name, err)
		}
	}
	if lcol == nil {
		lcol = color.Black
	}

	h.Style = Cosmetics{
		LineColor:   lcol,
		LineWidth:   vg.Points(cat.LSize),
		Dashes:      hcalplot.LineDashes(cat.LStyle),
		MarkerColor: lcol,
		Marker:      hcalplot.MarkerGlyph(cat.MStyle),
		MarkerSize:  vg.Points(2 * cat.MSize),
		Draw:        cat.Draw,
		LegendDraw:  cat.LDraw,
		Legend:      cat.Legend,
	}
	if cat.Fill > 0 && col != nil && cat.FStyle != 0 {
		h.Style.FillColor = hcalplot.WithAlpha(col, cat.Fill)
	}

	if spec.X.Rebin > 1 {
		if err := h.RebinX(spec.X.Rebin); err != nil {
			return err
		}
	}
	if spec.Y.Rebin > 1 && h.h2 != nil {
		if err := h.RebinY(spec.Y.Rebin); err != nil {
			return err
		}
	}

	// titles are drawn as annotations, never from the histogram itself.
	if h.h1 != nil {
		delete(h.h1.Annotation(), "title")
	} else {
		delete(h.h2.Annotation(), "title")
	}
	return nil
}

// Scale multiplies every bin by fraction.
func (h *Histogram) Scale(fraction float64) {
	switch {
	case !h.Good():
	case h.h1 != nil:
		h.h1.Scale(fraction)
	default:
		ScaleH2D(h.h2, fraction)
	}
}

// Normalize scales the histogram to unit integral. An empty histogram is
// left alone.
func (h *Histogram) Normalize() {
	if integral := h.Integral(); integral != 0 {
		h.Scale(1 / integral)
	}
}

// Integral is the sum of the in-range bins; under- and overflows are not
// counted.
func (h *Histogram) Integral() float64 {
	var sum float64
	switch {
	case !h.Good():
	case h.h1 != nil:
		for _, bin := range h.h1.Binning.Bins {
			sum += bin.SumW()
		}
	default:
		grid := h.h2.GridXYZ()
		nx, ny := grid.Dims()
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				sum += grid.Z(i, j)
			}
		}
	}
	return sum
}

// Max is the largest bin content.
func (h *Histogram) Max() float64 {
	max := math.Inf(-1)
	h.eachValue(func(v float64) {
		max = math.Max(max, v)
	})
	if math.IsInf(max, -1) {
		return 0
	}
	return max
}

// MinPositive is the smallest strictly positive bin content, or 0.
func (h *Histogram) MinPositive() float64 {
	min := math.Inf(1)
	h.eachValue(func(v float64) {
		if v > 0 {
			min = math.Min(min, v)
		}
	})
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

func (h *Histogram) eachValue(fct func(v float64)) {
	switch {
	case !h.Good():
	case h.h1 != nil:
		for _, bin := range h.h1.Binning.Bins {
			fct(bin.SumW())
		}
	default:
		grid := h.h2.GridXYZ()
		nx, ny := grid.Dims()
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				fct(grid.Z(i, j))
			}
		}
	}
}

// Clone returns an independent copy named name, cosmetics included.
func (h *Histogram) Clone(name string) *Histogram {
	if !h.Good() {
		return nil
	}
	var c *Histogram
	if h.h1 != nil {
		c = New1D(name, rootcnv.H1D(rhist.NewH1DFrom(h.h1)))
	} else {
		c = New2D(name, rootcnv.H2D(rhist.NewH2DFrom(h.h2)))
	}
	c.X, c.Y, c.Z = h.X, h.Y, h.Z
	c.Style = h.Style
	return c
}

// RebinX merges groups of n adjacent bins along x. Trailing bins that do not
// fill a whole group are dropped.
func (h *Histogram) RebinX(n int) error {
	switch {
	case !h.Good() || n <= 1:
		return nil
	case h.h1 != nil:
		nbins := h.h1.Len() / n
		if nbins < 1 {
			return fmt.Errorf("histo: cannot rebin %d bins by %d", h.h1.Len(), n)
		}
		width := (h.h1.XMax() - h.h1.XMin()) / float64(h.h1.Len())
		xmin := h.h1.XMin()
		out := hbook.NewH1D(nbins, xmin, xmin+width*float64(nbins*n))
		for i, bin := range h.h1.Binning.Bins[:nbins*n] {
			addDist1D(&out.Binning.Bins[i/n].Dist, bin.Dist)
			addDist1D(&out.Binning.Dist, bin.Dist)
		}
		for i, d := range h.h1.Binning.Outflows {
			addDist1D(&out.Binning.Outflows[i], d)
			addDist1D(&out.Binning.Dist, d)
		}
		out.Annotation()["name"] = h.name
		h.h1 = out
		return nil
	}
	return h.rebin2D(n, 1)
}

// RebinY merges groups of n adjacent bins along y of a 2D histogram.
func (h *Histogram) RebinY(n int) error {
	if !h.Good() || n <= 1 || h.h2 == nil {
		return nil
	}
	return h.rebin2D(1, n)
}

func (h *Histogram) rebin2D(nx, ny int) error {
	grid := h.h2.GridXYZ()
	cols, rows := grid.Dims()
	outx, outy := cols/nx, rows/ny
	if outx < 1 || outy < 1 {
		return fmt.Errorf("histo: cannot rebin %dx%d bins by %dx%d", cols, rows, nx, ny)
	}
	xw := (h.h2.XMax() - h.h2.XMin()) / float64(cols)
	yw := (h.h2.YMax() - h.h2.YMin()) / float64(rows)
	out := hbook.NewH2D(
		outx, h.h2.XMin(), h.h2.XMin()+xw*float64(outx*nx),
		outy, h.h2.YMin(), h.h2.YMin()+yw*float64(outy*ny),
	)
	for i, bin := range h.h2.Binning.Bins {
		ix, iy := (i%cols)/nx, (i/cols)/ny
		if ix >= outx || iy >= outy {
			continue
		}
		addDist2D(&out.Binning.Bins[iy*outx+ix].Dist, bin.Dist)
		addDist2D(&out.Binning.Dist, bin.Dist)
	}
	out.Annotation()["name"] = h.name
	h.h2 = out
	return nil
}
