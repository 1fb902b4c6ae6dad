package stack

import (
	"image/color"
	"math"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hcaltrigger/hcalplot/config"
	"github.com/hcaltrigger/hcalplot/histo"
)

// plot2D draws one heat map per readable category.
func (p *Plotter) plot2D(spec config.HistogramSpec) error {
	drawn := 0
	for _, cat := range p.opts.Categories {
		h, err := p.load(spec, cat, 1)
		if err != nil {
			return err
		}
		if !h.Good() {
			continue
		}
		if err := p.heatMap(spec, cat, h); err != nil {
			return err
		}
		drawn++
	}
	if drawn == 0 {
		p.msg.Printf("WARNING: histogram %q: no category could be read, skipping", spec.Name)
	}
	return nil
}

func (p *Plotter) heatMap(spec config.HistogramSpec, cat config.CategorySpec, h *histo.Histogram) error {
	var (
		style = p.opts.Style
		size  = style.CanvasSize
		h2    = h.H2D()
	)

	zmin, zmax := 0.0, h.Max()
	if spec.LogZ {
		zmin = h.MinPositive()
	}
	if spec.Z.Min != nil {
		zmin = *spec.Z.Min
	}
	if spec.Z.Max != nil {
		zmax = *spec.Z.Max
	}
	if spec.LogZ {
		zmin = logFloor(zmin, h.MinPositive())
		zmax = math.Max(zmax, zmin)
		zmin, zmax = math.Log10(zmin), math.Log10(zmax)
	}
	if zmax <= zmin {
		zmax = zmin + 1
	}

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(zmin)
	colorMap.SetMax(zmax)
	contours := style.Contours
	if contours <= 0 {
		contours = 255
	}
	heatMap := plotter.NewHeatMap(zGrid{GridXYZ: h2.GridXYZ(), log: spec.LogZ}, colorMap.Palette(contours))
	heatMap.Min = zmin
	heatMap.Max = zmax
	heatMap.NaN = color.Transparent

	plt := hplot.New()
	plt.Add(heatMap)
	axisText(&plt.X, h.X, size, 1)
	axisText(&plt.Y, h.Y, size, 1)
	axisScale(&plt.X, spec.LogX, logFloor(h2.XMin(), 0))
	axisScale(&plt.Y, spec.LogY, logFloor(h2.YMin(), 0))
	plt.X.Min, plt.X.Max = h2.XMin(), h2.XMax()
	plt.Y.Min, plt.Y.Max = h2.YMin(), h2.YMax()
	if spec.X.Min != nil {
		plt.X.Min = *spec.X.Min
	}
	if spec.X.Max != nil {
		plt.X.Max = *spec.X.Max
	}
	if spec.Y.Min != nil {
		plt.Y.Min = *spec.Y.Min
	}
	if spec.Y.Max != nil {
		plt.Y.Max = *spec.Y.Max
	}

	c, err := draw.NewFormattedCanvas(size, size, p.opts.Format)
	if err != nil {
		return err
	}
	dc := draw.New(c)
	pad := draw.Crop(dc, 0, 0, 0, -vg.Length(style.TopMargin)*size)
	barWidth := vg.Length(style.RightMargin) * size
	dc0 := draw.Crop(pad, 0, -barWidth, 0, 0)
	dc1 := draw.Crop(pad, size-barWidth, 0, 0, 0)

	plt.Draw(dc0)

	bar := plot.New()
	colorBar := &plotter.ColorBar{ColorMap: colorMap}
	colorBar.Vertical = true
	bar.Add(colorBar)
	bar.HideX()
	bar.Y.Padding = 0
	bar.Y.Label.Text = h.Z.Title
	bar.Y.Tick.Label.Font.Size = vg.Length(style.LabelSize*0.8) * size
	bar.Draw(dc1)

	style.Watermark(dc, p.opts.Approval, p.opts.Year)

	fname := p.outputFile(cat.Name + "_" + spec.Name)
	if err := save(c, fname); err != nil {
		return err
	}
	p.msg.Printf("wrote %s", fname)
	return nil
}
