package histo

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
)

// Moments are the weight moments of one bin.
type Moments struct {
	N     int64
	SumW  float64
	SumW2 float64
}

func (m Moments) dist1D(x float64) hbook.Dist1D {
	var d hbook.Dist1D
	d.Dist = hbook.Dist0D{N: m.N, SumW: m.SumW, SumW2: m.SumW2}
	d.Stats.SumWX = m.SumW * x
	d.Stats.SumWX2 = m.SumW * x * x
	return d
}

// AddBin1D adds m to the in-range bin i of h, as if every entry sat at the
// bin centre.
func AddBin1D(h *hbook.H1D, i int, m Moments) {
	if m.N == 0 && m.SumW == 0 && m.SumW2 == 0 {
		return
	}
	bin := &h.Binning.Bins[i]
	d := m.dist1D(bin.XMid())
	addDist1D(&bin.Dist, d)
	addDist1D(&h.Binning.Dist, d)
}

// AddBin2D adds m to the in-range bin (ix, iy) of h, as if every entry sat
// at the bin centre.
func AddBin2D(h *hbook.H2D, ix, iy int, m Moments) {
	if m.N == 0 && m.SumW == 0 && m.SumW2 == 0 {
		return
	}
	bin := &h.Binning.Bins[iy*h.Binning.Nx+ix]
	x, y := bin.XMid(), bin.YMid()
	var d hbook.Dist2D
	d.X = m.dist1D(x)
	d.Y = m.dist1D(y)
	d.Stats.SumWXY = m.SumW * x * y
	addDist2D(&bin.Dist, d)
	addDist2D(&h.Binning.Dist, d)
}

// AddH2D adds src to dst bin by bin, outflows included.
func AddH2D(dst, src *hbook.H2D) error {
	a, b := &dst.Binning, &src.Binning
	if a.Nx != b.Nx || a.Ny != b.Ny || a.XRange != b.XRange || a.YRange != b.YRange {
		return fmt.Errorf("histo: incompatible 2D binnings")
	}
	for i := range a.Bins {
		addDist2D(&a.Bins[i].Dist, b.Bins[i].Dist)
	}
	for i := range a.Outflows {
		addDist2D(&a.Outflows[i], b.Outflows[i])
	}
	addDist2D(&a.Dist, b.Dist)
	return nil
}

// ScaleH2D multiplies every bin of h by f.
func ScaleH2D(h *hbook.H2D, f float64) {
	for i := range h.Binning.Bins {
		scaleDist2D(&h.Binning.Bins[i].Dist, f)
	}
	for i := range h.Binning.Outflows {
		scaleDist2D(&h.Binning.Outflows[i], f)
	}
	scaleDist2D(&h.Binning.Dist, f)
}

func addDist1D(dst *hbook.Dist1D, src hbook.Dist1D) {
	dst.Dist.N += src.Dist.N
	dst.Dist.SumW += src.Dist.SumW
	dst.Dist.SumW2 += src.Dist.SumW2
	dst.Stats.SumWX += src.Stats.SumWX
	dst.Stats.SumWX2 += src.Stats.SumWX2
}

func addDist2D(dst *hbook.Dist2D, src hbook.Dist2D) {
	addDist1D(&dst.X, src.X)
	addDist1D(&dst.Y, src.Y)
	dst.Stats.SumWXY += src.Stats.SumWXY
}

func scaleDist1D(d *hbook.Dist1D, f float64) {
	d.Dist.SumW *= f
	d.Dist.SumW2 *= f * f
	d.Stats.SumWX *= f
	d.Stats.SumWX2 *= f
}

func scaleDist2D(d *hbook.Dist2D, f float64) {
	scaleDist1D(&d.X, f)
	scaleDist1D(&d.Y, f)
	d.Stats.SumWXY *= f
}
