package stack

import (
	"image/color"
	"math"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/config"
	"github.com/hcaltrigger/hcalplot/histo"
)

type category struct {
	spec config.CategorySpec
	h    *histo.Histogram
}

// plot1D draws the stack/overlay canvas of spec and returns the ratio shown
// in the lower panel, if any.
func (p *Plotter) plot1D(spec config.HistogramSpec) (*histo.Ratio, error) {
	var (
		l     = p.layout
		style = p.opts.Style
		size  = style.CanvasSize
	)

	// every category is read and normalised before anything is drawn: the
	// vertical range depends on the largest bin of all of them.
	var (
		cats   []category
		theMax float64
		minPos float64
	)
	for _, cat := range p.opts.Categories {
		h, err := p.load(spec, cat, l.Upper)
		if err != nil {
			return nil, err
		}
		if !h.Good() {
			continue
		}
		cats = append(cats, category{spec: cat, h: h})
		theMax = math.Max(theMax, h.Max())
		if v := h.MinPositive(); v > 0 && (minPos == 0 || v < minPos) {
			minPos = v
		}
	}
	if len(cats) == 0 {
		p.msg.Printf("WARNING: histogram %q: no category could be read, skipping", spec.Name)
		return nil, nil
	}

	theMin := 0.0
	if spec.Y.Min != nil {
		theMin = *spec.Y.Min
	}

	var (
		stacked  []*histo.Histogram
		overlays []*histo.Histogram
		num, den *histo.Histogram
	)
	for _, c := range cats {
		if c.spec.Stack {
			stacked = append(stacked, c.h)
			continue
		}
		overlays = append(overlays, c.h)
		switch c.spec.Ratio {
		case config.RatioNum:
			num = c.h
		case config.RatioDen:
			den = c.h
		}
	}

	var (
		rp  *hplot.RatioPlot
		top = hplot.New()
	)
	if l.Ratio {
		rp = hplot.NewRatioPlot()
		rp.Ratio = l.Lower
		top = rp.Top
	}

	// the frame: axis titles, scales and ranges, before any data.
	ref := cats[0].h
	axisText(&top.X, ref.X, size, l.Upper)
	axisText(&top.Y, ref.Y, size, l.Upper)
	axisScale(&top.X, spec.LogX, logFloor(ref.H1D().XMin(), 0))
	yFloor := logFloor(theMin, minPos)
	axisScale(&top.Y, spec.LogY, yFloor)

	drawStack(top, stacked, spec.LogY)
	drewAlready := len(stacked) > 0
	for _, h := range overlays {
		drewAlready = drawHistogram(top, h, drewAlready, spec.LogY)
	}

	box := l.Legend(len(cats))
	top.Legend.Top = true
	top.Legend.Left = false
	top.Legend.TextStyle.Font.Size = vg.Length(box.TextSize*l.Upper) * size
	top.Legend.XOffs = -vg.Length(0.02) * size
	top.Legend.YOffs = -vg.Length(0.02*l.Upper) * size
	top.Legend.Padding = vg.Length(style.LegendSpacing/2) * size

	xmin, xmax := ref.H1D().XMin(), ref.H1D().XMax()
	if spec.X.Min != nil {
		xmin = *spec.X.Min
	}
	if spec.X.Max != nil {
		xmax = *spec.X.Max
	}
	top.X.Min, top.X.Max = xmin, xmax

	top.Y.Min = theMin
	if spec.LogY && theMin <= 0 {
		top.Y.Min = yFloor
	}
	if spec.Y.Max != nil {
		top.Y.Max = *spec.Y.Max
	} else {
		top.Y.Max = l.Headroom(len(cats), theMin, theMax, spec.LogY)
	}

	var ratio *histo.Ratio
	if l.Ratio {
		top.X.Label.Text = ""
		top.X.Tick.Label.Font.Size = 0
		top.X.Tick.Label.Color = color.Transparent
		top.X.Tick.Length = 0

		bottom := rp.Bottom
		rAxis := histo.Axis{
			Title:       spec.Y.RTitle,
			TitleSize:   style.TitleSize * l.Scale,
			LabelSize:   style.LabelSize * l.Scale,
			TitleOffset: style.YTitleOffset / l.Scale,
		}
		xAxis := ref.X
		xAxis.TitleSize = style.TitleSize * l.Scale
		xAxis.LabelSize = style.LabelSize * l.Scale
		axisText(&bottom.X, xAxis, size, l.Lower)
		axisText(&bottom.Y, rAxis, size, l.Lower)
		axisScale(&bottom.X, spec.LogX, logFloor(xmin, 0))
		bottom.X.Min, bottom.X.Max = xmin, xmax
		bottom.Y.Min, bottom.Y.Max = style.RatioMin, style.RatioMax
		bottom.Y.Tick.Marker = hcalplot.RatioTicks{Major: 5, Minor: 5}

		grid := hplot.NewGrid()
		grid.Vertical.Color = nil
		bottom.Add(grid)

		switch {
		case num == nil || den == nil:
			p.msg.Printf("WARNING: histogram %q: ratio needs one readable \"num\" and one \"den\" category", spec.Name)
		default:
			r, err := num.RelativeDifference(den)
			if err != nil {
				p.msg.Printf("WARNING: %v", err)
				break
			}
			ratio = r
			if err := ratioPoints(bottom, r, vg.Length(1/l.Upper)*vg.Points(2)); err != nil {
				return nil, err
			}
		}
		// the ratio panel keeps its fixed window whatever the data.
		bottom.Y.Min, bottom.Y.Max = style.RatioMin, style.RatioMax
		bottom.X.Min, bottom.X.Max = xmin, xmax
	}

	c, err := draw.NewFormattedCanvas(size, size, p.opts.Format)
	if err != nil {
		return nil, err
	}
	dc := draw.New(c)
	pad := p.pad(dc)
	if rp != nil {
		rp.Draw(pad)
	} else {
		top.Draw(pad)
	}
	style.Watermark(dc, p.opts.Approval, p.opts.Year)

	if err := save(c, p.outputFile(spec.Name)); err != nil {
		return nil, err
	}
	p.msg.Printf("wrote %s", p.outputFile(spec.Name))
	return ratio, nil
}

// pad leaves room for the watermark above the panels and for the right
// margin.
func (p *Plotter) pad(dc draw.Canvas) draw.Canvas {
	w := dc.Max.X - dc.Min.X
	h := dc.Max.Y - dc.Min.Y
	style := p.opts.Style
	return draw.Crop(dc, 0, -vg.Length(style.RightMargin/2)*w, 0, -vg.Length(style.TopMargin)*h)
}
