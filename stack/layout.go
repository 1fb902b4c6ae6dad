package stack

import (
	"math"

	"github.com/hcaltrigger/hcalplot"
)

// Layout is the panel geometry of one canvas. All values are fractions of
// the canvas.
type Layout struct {
	Ratio bool

	// Upper and Lower are the heights of the two panels. Without a ratio
	// panel both are 1.
	Upper, Lower float64
	// Scale is Upper/Lower; it keeps text in the narrow ratio panel the same
	// size as in the upper one.
	Scale float64

	// Margins of the upper (or only) panel, then of the ratio panel.
	TopMargin, BottomMargin           float64
	LowerTopMargin, LowerBottomMargin float64
	LeftMargin, RightMargin           float64

	baseTopMargin, baseBotMargin float64

	legendTextSize, legendSpacing float64
}

// NewLayout splits the canvas when a ratio panel is requested. Margins are
// divided by their panel's height so they keep the same absolute thickness.
func NewLayout(style hcalplot.Style, ratio bool) Layout {
	l := Layout{
		Ratio:          ratio,
		Upper:          1,
		Lower:          1,
		Scale:          1,
		TopMargin:      style.TopMargin,
		BottomMargin:   style.BottomMargin,
		LeftMargin:     style.LeftMargin,
		RightMargin:    style.RightMargin,
		baseTopMargin:  style.TopMargin,
		baseBotMargin:  style.BottomMargin,
		legendTextSize: style.LegendTextSize,
		legendSpacing:  style.LegendSpacing,
	}
	if !ratio {
		return l
	}

	split := style.RatioSplit
	if split <= 0 || split >= 1 {
		split = 0.3
	}
	l.Upper = 1 - split
	l.Lower = split
	l.Scale = l.Upper / l.Lower
	l.TopMargin = style.TopMargin / l.Upper
	l.BottomMargin = 0
	l.LowerTopMargin = 0
	l.LowerBottomMargin = style.BottomMargin / l.Lower
	return l
}

// LegendBox is the legend rectangle in upper-panel coordinates.
type LegendBox struct {
	XMin, YMin, XMax, YMax float64
	TextSize               float64
}

// Legend places n entries in the upper right corner.
func (l Layout) Legend(n int) LegendBox {
	textSize := l.legendTextSize / l.Upper
	yMax := 1 - l.TopMargin - 0.02
	return LegendBox{
		XMin:     0.55,
		YMax:     yMax,
		XMax:     1 - l.RightMargin - 0.02,
		YMin:     yMax - float64(n)*(textSize+l.legendSpacing),
		TextSize: textSize,
	}
}

// headroomFactor is the extra room left above the legend.
const headroomFactor = 1.05

// Headroom returns the upper bound of the vertical axis that leaves room for
// a legend of n entries above data spanning [min, max].
//
// A logarithmic axis needs far more room than a linear one for the same
// fraction of the panel, hence the exponent grows with the number of decades
// when both bounds are nonzero.
func (l Layout) Headroom(n int, min, max float64, logY bool) float64 {
	box := l.Legend(n)
	yFrac := (1 - l.baseTopMargin - box.YMin) / (1 - l.baseTopMargin - l.baseBotMargin)

	power := 1.0
	if logY && max != 0 && min != 0 {
		power = math.Log10(max/min) * 3
	}

	free := 1 - yFrac
	if free <= 0 {
		// more legend entries than the panel can hold: the legend is
		// ignored.
		return (max - min) * headroomFactor
	}
	return (max - min) * math.Pow(free, -power) * headroomFactor
}
