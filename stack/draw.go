package stack

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/histo"
)

// drawOption returns the draw option of a histogram; everything drawn after
// the first object on a panel is an overlay.
func drawOption(opt string, drewAlready bool) string {
	if opt == "" {
		opt = "HIST"
	}
	if drewAlready {
		opt += " SAME"
	}
	return opt
}

type drawMode struct {
	hist    bool
	errors  bool
	markers bool
}

func parseDrawOption(opt string) drawMode {
	opt = strings.ReplaceAll(strings.ToUpper(opt), "SAME", "")
	var m drawMode
	m.hist = strings.Contains(opt, "HIST")
	opt = strings.ReplaceAll(opt, "HIST", "")
	m.errors = strings.Contains(opt, "E")
	m.markers = strings.Contains(opt, "P")
	if !m.errors && !m.markers {
		m.hist = true
	}
	return m
}

// newH1D turns a configured histogram into a drawable one.
func newH1D(h *histo.Histogram, opt string, logY bool) *hplot.H1D {
	mode := parseDrawOption(opt)
	opts := []hplot.Options{hplot.WithLogY(logY)}
	if mode.errors {
		opts = append(opts, hplot.WithYErrBars(true))
	}

	hh := hplot.NewH1D(h.H1D(), opts...)
	hh.Infos.Style = hplot.HInfoNone
	hh.LineStyle.Color = h.Style.LineColor
	hh.LineStyle.Width = h.Style.LineWidth
	hh.LineStyle.Dashes = h.Style.Dashes
	hh.FillColor = nil
	if mode.hist {
		hh.FillColor = h.Style.FillColor
	} else {
		hh.LineStyle.Width = 0
	}
	if hh.LineStyle.Width == 0 {
		hh.LineStyle.Color = color.Transparent
	}
	if mode.markers {
		hh.GlyphStyle = draw.GlyphStyle{
			Color:  h.Style.MarkerColor,
			Radius: h.Style.MarkerSize,
			Shape:  h.Style.Marker,
		}
	}
	if hh.YErrs != nil {
		hh.YErrs.LineStyle.Color = h.Style.LineColor
	}
	return hh
}

// drawHistogram adds h to plt and registers it in the legend. It returns
// true: after it, anything else drawn on plt is an overlay.
func drawHistogram(plt *hplot.Plot, h *histo.Histogram, drewAlready, logY bool) bool {
	hh := newH1D(h, drawOption(h.Style.Draw, drewAlready), logY)
	plt.Add(hh)
	if h.Style.Legend != "" {
		plt.Legend.Add(h.Style.Legend, hh)
	}
	return true
}

// drawStack adds hs to plt as one stack, the first histogram at the bottom,
// and returns the number of legend entries it added.
func drawStack(plt *hplot.Plot, hs []*histo.Histogram, logY bool) int {
	if len(hs) == 0 {
		return 0
	}
	drawn := make([]*hplot.H1D, len(hs))
	for i, h := range hs {
		drawn[i] = newH1D(h, drawOption(h.Style.Draw, i > 0), logY)
	}
	plt.Add(hplot.NewHStack(drawn, hplot.WithLogY(logY)))

	n := 0
	for i, h := range hs {
		if h.Style.Legend != "" {
			plt.Legend.Add(h.Style.Legend, drawn[i])
			n++
		}
	}
	return n
}

// axisText applies the sizes of ax to a panel occupying the fraction panel
// of a canvas of height size.
func axisText(a *plot.Axis, ax histo.Axis, size vg.Length, panel float64) {
	a.Label.Text = ax.Title
	if ax.TitleSize > 0 {
		a.Label.TextStyle.Font.Size = vg.Length(ax.TitleSize*panel) * size
	}
	if ax.LabelSize > 0 {
		a.Tick.Label.Font.Size = vg.Length(ax.LabelSize*panel) * size
	}
	if pad := (ax.TitleOffset - 1) * ax.TitleSize * panel; pad > 0 {
		a.Label.Padding = vg.Length(pad) * size
	}
}

// axisScale switches a to a logarithmic scale whose lower end is at least
// floor, or to precise linear ticks.
func axisScale(a *plot.Axis, logScale bool, floor float64) {
	if logScale {
		a.Scale = hcalplot.LogScale{Floor: floor}
		a.Tick.Marker = hcalplot.LogTicks{Floor: floor}
		return
	}
	a.Tick.Marker = hcalplot.PreciseTicks{NSuggestedTicks: 5}
}

// logFloor is the lowest value shown on a logarithmic axis when the
// requested minimum is not positive.
func logFloor(min, minPositive float64) float64 {
	switch {
	case min > 0:
		return min
	case minPositive > 0:
		return minPositive / 2
	}
	return 1e-3
}

// ratioPoints draws the finite points of r with their error bars on plt.
func ratioPoints(plt *hplot.Plot, r *histo.Ratio, radius vg.Length) error {
	r = r.Finite()
	if r.Len() == 0 {
		return nil
	}
	pts, err := plotter.NewScatter(r)
	if err != nil {
		return fmt.Errorf("could not create ratio points: %w", err)
	}
	pts.GlyphStyle = draw.GlyphStyle{Color: color.Black, Radius: radius, Shape: draw.CircleGlyph{}}

	errs, err := plotter.NewYErrorBars(r)
	if err != nil {
		return fmt.Errorf("could not create ratio errors: %w", err)
	}
	errs.LineStyle.Color = color.Black
	errs.LineStyle.Width = vg.Points(1.5)
	errs.CapWidth = 0

	plt.Add(errs, pts)
	return nil
}

// zGrid hides empty bins of a heat map and optionally shows log10 of the
// content.
type zGrid struct {
	plotter.GridXYZ
	log bool
}

func (g zGrid) Z(c, r int) float64 {
	z := g.GridXYZ.Z(c, r)
	switch {
	case z == 0, g.log && z < 0:
		return math.NaN()
	case g.log:
		return math.Log10(z)
	}
	return z
}

func save(c vg.CanvasWriterTo, fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", fname, err)
	}
	defer f.Close()

	if _, err := c.WriteTo(f); err != nil {
		return fmt.Errorf("could not write %q: %w", fname, err)
	}
	return f.Close()
}
