package hcalplot

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Style holds every process-wide plotting default. It is built once by the
// command and handed to the plotter; nothing in it is mutated while drawing.
type Style struct {
	// CanvasSize is the edge of the square output canvas.
	CanvasSize vg.Length

	// Pad margins as fractions of the canvas, before any ratio split.
	TopMargin, BottomMargin, LeftMargin, RightMargin float64

	// RatioSplit is the fraction of the canvas given to the ratio panel.
	RatioSplit float64
	// RatioMin and RatioMax bound the ratio panel's vertical axis.
	RatioMin, RatioMax float64

	// Axis text sizes and title offsets as fractions of the canvas height.
	TitleSize, LabelSize float64
	XTitleOffset         float64
	YTitleOffset         float64

	// Legend text size and the spacing between entries.
	LegendTextSize float64
	LegendSpacing  float64

	Experiment string
	Energy     string

	// Contours is the number of colours in the 2D palette.
	Contours int
}

// DefaultStyle returns the style used for the trigger-primitive plots.
func DefaultStyle() Style {
	return Style{
		CanvasSize:     6 * vg.Inch,
		TopMargin:      0.06,
		BottomMargin:   0.12,
		LeftMargin:     0.15,
		RightMargin:    0.12,
		RatioSplit:     0.3,
		RatioMin:       -0.24,
		RatioMax:       0.24,
		TitleSize:      0.050,
		LabelSize:      0.045,
		XTitleOffset:   1.1,
		YTitleOffset:   1.5,
		LegendTextSize: 0.028,
		LegendSpacing:  0.015,
		Experiment:     "CMS",
		Energy:         "13.6 TeV",
		Contours:       255,
	}
}

// Approval is the approval status written next to the experiment label.
type Approval int

const (
	ApprovalNone Approval = iota
	ApprovalSupplementary
	ApprovalWIP
	ApprovalInternal
)

// ParseApproval matches the loose spellings accepted on the command line:
// anything containing "supp", "wip" or "int".
func ParseApproval(s string) Approval {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "supp"):
		return ApprovalSupplementary
	case strings.Contains(s, "wip"):
		return ApprovalWIP
	case strings.Contains(s, "int"):
		return ApprovalInternal
	}
	return ApprovalNone
}

func (a Approval) String() string {
	switch a {
	case ApprovalSupplementary:
		return "Supplementary"
	case ApprovalWIP:
		return "Work in Progress"
	case ApprovalInternal:
		return "internal"
	}
	return ""
}

// Watermark draws the experiment label, the approval status and the
// year/energy label along the top edge of c. The positions are fractions of
// the full canvas.
func (s Style) Watermark(c draw.Canvas, approval Approval, year string) {
	w := c.Max.X - c.Min.X
	h := c.Max.Y - c.Min.Y
	at := func(fx, fy float64) vg.Point {
		return vg.Point{X: c.Min.X + vg.Length(fx)*w, Y: c.Min.Y + vg.Length(fy)*h}
	}

	base := plot.New().Title.TextStyle
	base.XAlign = text.XLeft
	base.YAlign = text.YBottom

	mark := base
	mark.Font.Size = vg.Length(0.055) * h
	c.FillText(mark, at(s.LeftMargin, 1-(s.TopMargin-0.015)), s.Experiment)

	if label := approval.String(); label != "" {
		status := base
		status.Font.Size = vg.Length(0.040) * h
		c.FillText(status, at(s.LeftMargin+0.12, 1-(s.TopMargin-0.017)), label)
	}

	lumi := base
	lumi.Font.Size = vg.Length(0.040) * h
	lumi.XAlign = text.XRight
	c.FillText(lumi, at(1-s.RightMargin, 1-(s.TopMargin-0.017)), fmt.Sprintf("%s (%s)", year, s.Energy))
}

// ParseColor accepts "#rrggbb", "#rrggbbaa" or an SVG colour name.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return nil, fmt.Errorf("hcalplot: unknown colour %q", s)
		}
		return c, nil
	}

	hex := s[1:]
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("hcalplot: invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("hcalplot: invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// WithAlpha returns c with its opacity multiplied by alpha in [0,1].
func WithAlpha(c color.Color, alpha float64) color.Color {
	if c == nil {
		return nil
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(float64(n.A)*alpha + 0.5)
	return n
}

// LineDashes maps a line-style number to a dash pattern. Style 1 (and any
// unknown value) is solid.
func LineDashes(style int) []vg.Length {
	switch style {
	case 2:
		return []vg.Length{vg.Points(4), vg.Points(2)}
	case 3:
		return []vg.Length{vg.Points(1), vg.Points(2)}
	case 4:
		return []vg.Length{vg.Points(4), vg.Points(2), vg.Points(1), vg.Points(2)}
	case 7:
		return []vg.Length{vg.Points(6), vg.Points(3)}
	case 9:
		return []vg.Length{vg.Points(10), vg.Points(4)}
	}
	return nil
}

// MarkerGlyph maps a marker-style number to a glyph shape. Filled and open
// variants follow the usual numbering: 20-23 filled, 24-27 open.
func MarkerGlyph(style int) draw.GlyphDrawer {
	switch style {
	case 2:
		return draw.PlusGlyph{}
	case 5:
		return draw.CrossGlyph{}
	case 21:
		return draw.BoxGlyph{}
	case 22:
		return draw.PyramidGlyph{}
	case 24:
		return draw.RingGlyph{}
	case 25:
		return draw.SquareGlyph{}
	case 26:
		return draw.TriangleGlyph{}
	}
	return draw.CircleGlyph{}
}
