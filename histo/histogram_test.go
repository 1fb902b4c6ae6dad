package histo

import (
	"errors"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/config"
)

func writeFile(t *testing.T, fname string, hists map[string]*hbook.H1D) {
	t.Helper()
	f, err := groot.Create(fname)
	if err != nil {
		t.Fatalf("could not create %q: %+v", fname, err)
	}
	for name, h := range hists {
		h.Annotation()["name"] = name
		if err := f.Put(name, rhist.NewH1DFrom(h)); err != nil {
			t.Fatalf("could not write %q: %+v", name, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("could not close %q: %+v", fname, err)
	}
}

func newH1D(values ...float64) *hbook.H1D {
	h := hbook.NewH1D(len(values), 0, float64(len(values)))
	for i, v := range values {
		if v != 0 {
			h.Fill(float64(i)+0.5, v)
		}
	}
	return h
}

func ptr(v float64) *float64 { return &v }

func TestLoadAndConfigure(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "cat.root")
	writeFile(t, fname, map[string]*hbook.H1D{
		"h": newH1D(1, 2, 3, 4, 0, 0, 1, 1, 1, 1),
	})

	h, err := Load(fname, "h")
	if err != nil {
		t.Fatalf("could not load: %+v", err)
	}
	if !h.Good() || h.Dim() != 1 {
		t.Fatalf("histogram should be a good 1D histogram")
	}

	spec := config.HistogramSpec{
		Name: "h",
		Dim:  1,
		X:    config.Axis{Title: "TP E_{T} [GeV]", Min: ptr(0), Max: ptr(8)},
		Y:    config.Axis{Title: "N_{TP}"},
	}
	cat := config.CategorySpec{
		Name:   "cat",
		Color:  "#5790FC",
		LStyle: 2,
		LSize:  3,
		MStyle: 24,
		MSize:  1,
		Fill:   0.5,
		FStyle: 1001,
		Draw:   "HIST",
		LDraw:  "F",
		Legend: "Category",
	}
	style := hcalplot.DefaultStyle()
	if err := h.Configure(spec, cat, style, 0.7, 1); err != nil {
		t.Fatalf("could not configure: %+v", err)
	}

	if h.X.Title != spec.X.Title || h.Y.Title != spec.Y.Title {
		t.Fatalf("invalid titles: %q %q", h.X.Title, h.Y.Title)
	}
	if got, want := h.X.TitleSize, style.TitleSize/0.7; math.Abs(got-want) > 1e-12 {
		t.Fatalf("invalid title size: got=%v, want=%v", got, want)
	}
	if got, want := h.Y.TitleOffset, style.YTitleOffset*0.7; math.Abs(got-want) > 1e-12 {
		t.Fatalf("invalid title offset: got=%v, want=%v", got, want)
	}
	want := color.NRGBA{R: 0x57, G: 0x90, B: 0xfc, A: 0xff}
	if h.Style.LineColor != want || h.Style.MarkerColor != want {
		t.Fatalf("invalid colours: %v %v", h.Style.LineColor, h.Style.MarkerColor)
	}
	if _, ok := h.Style.Marker.(draw.RingGlyph); !ok {
		t.Fatalf("invalid marker %T", h.Style.Marker)
	}
	if h.Style.LineWidth != vg.Points(3) || len(h.Style.Dashes) == 0 {
		t.Fatalf("invalid line: %v %v", h.Style.LineWidth, h.Style.Dashes)
	}
	if fill := h.Style.FillColor.(color.NRGBA); fill.A != 128 {
		t.Fatalf("invalid fill alpha %d", fill.A)
	}
	if h.X.Min == nil || *h.X.Max != 8 {
		t.Fatalf("invalid x range")
	}
	if got := h.Integral(); got != 14 {
		t.Fatalf("invalid integral %v", got)
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "cat.root")
	writeFile(t, fname, map[string]*hbook.H1D{"h": newH1D(1, 2)})

	for _, tc := range []struct {
		name  string
		fname string
		hname string
		want  error
	}{
		{"missing-file", filepath.Join(dir, "nope.root"), "h", ErrOpen},
		{"missing-histo", fname, "nope", ErrNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Load(tc.fname, tc.hname)
			if !errors.Is(err, tc.want) {
				t.Fatalf("invalid error: got=%v, want=%v", err, tc.want)
			}
			if h.Good() {
				t.Fatalf("histogram should not be good")
			}
			// an inert histogram accepts every call.
			if err := h.Configure(config.HistogramSpec{Dim: 1}, config.CategorySpec{Color: "#zz"}, hcalplot.DefaultStyle(), 1, 1); err != nil {
				t.Fatalf("configure on inert histogram: %+v", err)
			}
			h.Scale(2)
			h.Normalize()
			if h.Integral() != 0 || h.Max() != 0 || h.Clone("c") != nil {
				t.Fatalf("inert histogram should be empty")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	h := New1D("h", newH1D(1, 2, 3, 4))
	h.H1D().Fill(-1, 10) // underflow
	h.Normalize()
	if got := h.Integral(); math.Abs(got-1) > 1e-12 {
		t.Fatalf("invalid integral after normalization: %v", got)
	}

	empty := New1D("empty", hbook.NewH1D(4, 0, 4))
	empty.Normalize()
	if got := empty.Integral(); got != 0 {
		t.Fatalf("empty histogram was scaled: %v", got)
	}
	for _, bin := range empty.H1D().Binning.Bins {
		if math.IsNaN(bin.SumW()) {
			t.Fatalf("empty histogram has NaN bins")
		}
	}

	h2 := New2D("h2", hbook.NewH2D(2, 0, 2, 2, 0, 2))
	h2.H2D().Fill(0.5, 0.5, 3)
	h2.H2D().Fill(1.5, 1.5, 1)
	h2.Normalize()
	if got := h2.Integral(); math.Abs(got-1) > 1e-12 {
		t.Fatalf("invalid 2D integral after normalization: %v", got)
	}
}

func TestRelativeDifference(t *testing.T) {
	den := New1D("den", newH1D(10, 5, 0, 2))
	num := New1D("num", newH1D(12, 5, 3, 1))

	r, err := num.RelativeDifference(den)
	if err != nil {
		t.Fatalf("could not compute ratio: %+v", err)
	}
	want := []float64{0.2, 0, math.NaN(), -0.5}
	for i, w := range want {
		_, got := r.XY(i)
		switch {
		case math.IsNaN(w):
			if !math.IsNaN(got) {
				t.Fatalf("bin %d: expected NaN, got %v", i, got)
			}
		case math.Abs(got-w) > 1e-12:
			t.Fatalf("bin %d: got=%v, want=%v", i, got, w)
		}
	}
	// equal bins: 0 with the uncertainty of the difference.
	if got, want := r.Err[1], math.Sqrt(10)/5; math.Abs(got-want) > 1e-12 {
		t.Fatalf("invalid error on equal bins: got=%v, want=%v", got, want)
	}
	if !math.IsNaN(r.Err[2]) {
		t.Fatalf("error on an empty denominator should be NaN: %v", r.Err[2])
	}
	if got := r.Finite().Len(); got != 3 {
		t.Fatalf("invalid number of finite points: %d", got)
	}
	if x, _ := r.XY(0); x != 0.5 {
		t.Fatalf("invalid bin centre %v", x)
	}

	q, err := num.Divide(den)
	if err != nil {
		t.Fatalf("could not divide: %+v", err)
	}
	if _, y := q.XY(0); math.Abs(y-1.2) > 1e-12 {
		t.Fatalf("invalid quotient %v", y)
	}

	other := New1D("other", newH1D(1, 2, 3))
	if _, err := num.RelativeDifference(other); err == nil {
		t.Fatalf("expected a binning error")
	}
}

func TestRebinAndClone(t *testing.T) {
	h := New1D("h", newH1D(1, 2, 3, 4, 5))
	c := h.Clone("c")

	if err := h.RebinX(2); err != nil {
		t.Fatalf("could not rebin: %+v", err)
	}
	if got := h.H1D().Len(); got != 2 {
		t.Fatalf("invalid number of bins: %d", got)
	}
	for i, want := range []float64{3, 7} {
		if got := h.H1D().Binning.Bins[i].SumW(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("bin %d: got=%v, want=%v", i, got, want)
		}
	}
	if got := h.H1D().XMax(); got != 4 {
		t.Fatalf("invalid upper edge %v", got)
	}

	if c.Name() != "c" || c.H1D().Len() != 5 || c.Integral() != 15 {
		t.Fatalf("clone was modified by rebin: %d bins, integral %v", c.H1D().Len(), c.Integral())
	}
	c.Scale(2)
	if got := h.Integral(); math.Abs(got-10) > 1e-9 {
		t.Fatalf("scaling the clone changed the original: %v", got)
	}
}

func TestRebinKeepsWeights(t *testing.T) {
	h1 := hbook.NewH1D(4, 0, 4)
	h1.Fill(0.5, 1)
	h1.Fill(1.5, 3)
	h1.Fill(2.5, 2)
	h := New1D("h", h1)
	if err := h.RebinX(2); err != nil {
		t.Fatalf("could not rebin: %+v", err)
	}
	bin := h.H1D().Binning.Bins[0]
	if bin.SumW() != 4 || bin.SumW2() != 10 || bin.Entries() != 2 {
		t.Fatalf("invalid bin: sumw=%v sumw2=%v n=%d", bin.SumW(), bin.SumW2(), bin.Entries())
	}
	if got := h.H1D().SumW2(); got != 14 {
		t.Fatalf("invalid total sumw2 %v", got)
	}

	h2 := hbook.NewH2D(2, 0, 2, 2, 0, 2)
	h2.Fill(0.5, 0.5, 1)
	h2.Fill(0.5, 1.5, 3)
	h2.Fill(1.5, 0.5, 2)
	g := New2D("g", h2)
	if err := g.RebinY(2); err != nil {
		t.Fatalf("could not rebin: %+v", err)
	}
	if n := len(g.H2D().Binning.Bins); n != 2 {
		t.Fatalf("invalid number of bins %d", n)
	}
	b := g.H2D().Binning.Bins[0]
	if b.SumW() != 4 || b.SumW2() != 10 {
		t.Fatalf("invalid 2D bin: sumw=%v sumw2=%v", b.SumW(), b.SumW2())
	}

	ScaleH2D(g.H2D(), 0.5)
	if b := g.H2D().Binning.Bins[0]; b.SumW() != 2 || b.SumW2() != 2.5 {
		t.Fatalf("invalid scaled bin: sumw=%v sumw2=%v", b.SumW(), b.SumW2())
	}
}

func TestAddBins(t *testing.T) {
	h1 := hbook.NewH1D(2, 0, 2)
	AddBin1D(h1, 1, Moments{N: 2, SumW: 4, SumW2: 10})
	if bin := h1.Binning.Bins[1]; bin.SumW() != 4 || bin.SumW2() != 10 || bin.Entries() != 2 {
		t.Fatalf("invalid 1D bin: %+v", bin.Dist)
	}
	if h1.SumW() != 4 || h1.Entries() != 2 {
		t.Fatalf("invalid 1D totals: sumw=%v n=%d", h1.SumW(), h1.Entries())
	}

	a := hbook.NewH2D(2, 0, 2, 3, 0, 3)
	AddBin2D(a, 1, 2, Moments{N: 2, SumW: 4, SumW2: 10})
	if got := a.Binning.Bins[2*2+1]; got.SumW() != 4 || got.XMid() != 1.5 || got.YMid() != 2.5 {
		t.Fatalf("invalid 2D bin: sumw=%v at (%v, %v)", got.SumW(), got.XMid(), got.YMid())
	}

	b := hbook.NewH2D(2, 0, 2, 3, 0, 3)
	b.Fill(1.5, 2.5, 2)
	if err := AddH2D(a, b); err != nil {
		t.Fatalf("could not add: %+v", err)
	}
	if got := a.Binning.Bins[5]; got.SumW() != 6 || got.SumW2() != 14 || got.Entries() != 3 {
		t.Fatalf("invalid sum: sumw=%v sumw2=%v n=%d", got.SumW(), got.SumW2(), got.Entries())
	}
	if err := AddH2D(a, hbook.NewH2D(3, 0, 2, 3, 0, 3)); err == nil {
		t.Fatalf("expected a binning error")
	}
}
