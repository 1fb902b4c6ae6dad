package hcalplot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks puts roughly NSuggestedTicks labelled ticks on a linear axis,
// with minor ticks between them.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks == 0 {
		t.NSuggestedTicks = 4
	}

	if max <= min {
		return plot.DefaultTicks{}.Ticks(min, max)
	}

	tens := math.Pow10(int(math.Floor(math.Log10(max - min))))
	n := (max - min) / tens
	for n < float64(t.NSuggestedTicks)-1 {
		tens /= 10
		n = (max - min) / tens
	}

	majorMult := int(n / float64(t.NSuggestedTicks-1))
	switch majorMult {
	case 7:
		majorMult = 6
	case 9:
		majorMult = 8
	}
	majorDelta := float64(majorMult) * tens
	val := math.Floor(min/majorDelta) * majorDelta
	var labels []float64
	for val <= max {
		if val >= min {
			labels = append(labels, val)
		}
		val += majorDelta
	}
	prec := int(math.Ceil(math.Log10(math.Abs(val))) - math.Floor(math.Log10(majorDelta)))
	var ticks []plot.Tick
	for _, v := range labels {
		vRounded := round(v, prec)
		ticks = append(ticks, plot.Tick{Value: vRounded, Label: formatFloatTick(vRounded, -1)})
	}
	minorDelta := majorDelta / 2
	switch majorMult {
	case 3, 6:
		minorDelta = majorDelta / 3
	case 5:
		minorDelta = majorDelta / 5
	}

	return appendMinor(ticks, min, max, minorDelta)
}

// RatioTicks reproduces a fixed division count on a narrow axis: Major
// labelled divisions rounded to a 1/2/5 step so that zero is always a tick,
// each split into Minor parts.
type RatioTicks struct {
	Major, Minor int
}

func (t RatioTicks) Ticks(min, max float64) []plot.Tick {
	if t.Major <= 0 {
		t.Major = 5
	}
	if t.Minor <= 0 {
		t.Minor = 5
	}
	if max <= min {
		return plot.DefaultTicks{}.Ticks(min, max)
	}

	step := niceStep((max - min) / float64(t.Major))
	var ticks []plot.Tick
	for i := math.Ceil(min/step - 1e-9); i*step <= max+1e-9*step; i++ {
		v := round(i*step, 6)
		ticks = append(ticks, plot.Tick{Value: v, Label: formatFloatTick(v, -1)})
	}
	return appendMinor(ticks, min, max, step/float64(t.Minor))
}

// LogTicks is plot.LogTicks that tolerates a non-positive lower bound by
// starting at Floor instead.
type LogTicks struct {
	Floor float64
}

func (t LogTicks) Ticks(min, max float64) []plot.Tick {
	min, max = t.clamp(min, max)
	return plot.LogTicks{Prec: -1}.Ticks(min, max)
}

func (t LogTicks) clamp(min, max float64) (float64, float64) {
	floor := t.Floor
	if floor <= 0 {
		floor = 1e-3
	}
	if min <= 0 {
		min = floor
	}
	if max <= min {
		max = min * 10
	}
	return min, max
}

// LogScale is plot.LogScale with the same clamping as LogTicks, so empty bins
// on a logarithmic axis do not abort the whole plot.
type LogScale struct {
	Floor float64
}

func (s LogScale) Normalize(min, max, x float64) float64 {
	min, max = LogTicks{Floor: s.Floor}.clamp(min, max)
	if x < min {
		x = min
	}
	return plot.LogScale{}.Normalize(min, max, x)
}

func appendMinor(ticks []plot.Tick, min, max, minorDelta float64) []plot.Tick {
	val := math.Floor(min/minorDelta) * minorDelta
	for val <= max {
		found := false
		for _, t := range ticks {
			if math.Abs(t.Value-val) < 1e-9*minorDelta {
				found = true
			}
		}
		if val >= min && val <= max && !found {
			ticks = append(ticks, plot.Tick{Value: val})
		}
		val += minorDelta
	}
	return ticks
}

func niceStep(raw float64) float64 {
	mag := math.Pow10(int(math.Floor(math.Log10(raw))))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*mag >= raw*(1-1e-9) {
			return m * mag
		}
	}
	return 10 * mag
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// Make sure zero is returned
		// without the negative bit set.
		return 0
	}
	// Fast path for positive precision on integers.
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}

	if x == 0 {
		return 0
	}

	return x / pow
}

func formatFloatTick(v float64, prec int) string {
	return strconv.FormatFloat(v, 'g', prec, 64)
}
