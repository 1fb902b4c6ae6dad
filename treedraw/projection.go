package treedraw

import (
	"fmt"
	"strconv"
	"strings"
)

// Projection restricts one axis of a histogram to a bin range and projects
// the remaining axes out into a new histogram.
type Projection struct {
	// Axis is 'X', 'Y' or 'Z'.
	Axis  byte
	Label string
	// First and Last are inclusive 1-based bin indices.
	First, Last int
	// Suffix is appended to Label in the output name; it is the bin index
	// for single-bin projections.
	Suffix string
}

// Name returns the name of the projected histogram.
func (p Projection) Name(basename string) string {
	return basename + "_" + p.Label + p.Suffix
}

// ParseProjection parses "axis;label;bins" strings such as "Z;HB;[1,16]",
// "Z;HF;(29,41]" or "Y;ieta;5". Spaces are ignored.
func ParseProjection(s string) (Projection, error) {
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), ";")
	if len(parts) != 3 {
		return Projection{}, fmt.Errorf("treedraw: projection %q: expected axis;label;bins", s)
	}

	axis := strings.ToUpper(parts[0])
	switch axis {
	case "X", "Y", "Z":
	default:
		return Projection{}, fmt.Errorf("treedraw: projection %q: invalid axis %q", s, parts[0])
	}

	first, last, suffix, err := ParseBinRange(parts[2])
	if err != nil {
		return Projection{}, fmt.Errorf("treedraw: projection %q: %w", s, err)
	}
	return Projection{
		Axis:   axis[0],
		Label:  parts[1],
		First:  first,
		Last:   last,
		Suffix: suffix,
	}, nil
}

// ParseBinRange parses a single bin index, or a bracketed range where a
// leading '(' excludes the first bin and a trailing ')' excludes the last.
// A single index is also returned as the label suffix.
func ParseBinRange(s string) (first, last int, suffix string, err error) {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		first, err = strconv.Atoi(s)
		if err != nil {
			return 0, 0, "", fmt.Errorf("invalid bin %q", s)
		}
		return first, first, s, nil
	}

	if len(lo) < 2 || len(hi) < 2 {
		return 0, 0, "", fmt.Errorf("invalid bin range %q", s)
	}
	lbra, rbra := lo[0], hi[len(hi)-1]
	if (lbra != '[' && lbra != '(') || (rbra != ']' && rbra != ')') {
		return 0, 0, "", fmt.Errorf("invalid bin range %q", s)
	}
	if first, err = strconv.Atoi(lo[1:]); err != nil {
		return 0, 0, "", fmt.Errorf("invalid bin range %q", s)
	}
	if last, err = strconv.Atoi(hi[:len(hi)-1]); err != nil {
		return 0, 0, "", fmt.Errorf("invalid bin range %q", s)
	}
	if lbra == '(' {
		first++
	}
	if rbra == ')' {
		last--
	}
	return first, last, "", nil
}
