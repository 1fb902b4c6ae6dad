package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTree is the tree drawn when neither the file nor the histogram names one.
const DefaultTree = "compare/tps"

// DrawSpec describes one histogram drawn from an event tree.
type DrawSpec struct {
	// Tree overrides DrawOptions.Tree for this histogram.
	Tree      string `yaml:"tree"`
	Basename  string `yaml:"basename"`
	Weight    string `yaml:"weight"`
	Selection string `yaml:"selection"`
	// Variable is "x", "y:x" or "z:y:x".
	Variable string `yaml:"variable"`

	XBins int     `yaml:"xbins"`
	XMin  float64 `yaml:"xmin"`
	XMax  float64 `yaml:"xmax"`
	YBins int     `yaml:"ybins"`
	YMin  float64 `yaml:"ymin"`
	YMax  float64 `yaml:"ymax"`
	ZBins int     `yaml:"zbins"`
	ZMin  float64 `yaml:"zmin"`
	ZMax  float64 `yaml:"zmax"`

	// Projections are "axis;label;bins" strings, e.g. "Z;HB;[1,16]".
	Projections []string `yaml:"projections"`
	// Slices generate single-bin projections.
	Slices []Slice `yaml:"slices"`
}

// Slice generates "axis;label;N" projections for N in [From, To] except Skip.
type Slice struct {
	Axis  string `yaml:"axis"`
	Label string `yaml:"label"`
	From  int    `yaml:"from"`
	To    int    `yaml:"to"`
	Skip  []int  `yaml:"skip"`
}

// AllProjections returns the explicit projections followed by the ones
// generated from Slices.
func (d DrawSpec) AllProjections() []string {
	projs := append([]string(nil), d.Projections...)
	for _, s := range d.Slices {
		for i := s.From; i <= s.To; i++ {
			if contains(s.Skip, i) {
				continue
			}
			projs = append(projs, fmt.Sprintf("%s;%s;%d", s.Axis, s.Label, i))
		}
	}
	return projs
}

// DrawOptions is the content of a tree-drawer sidecar file.
type DrawOptions struct {
	Tree       string     `yaml:"tree"`
	Histograms []DrawSpec `yaml:"histograms"`
	// Processes, when set, name sub-directories of the input directory that
	// are each merged into their own output file.
	Processes []string `yaml:"processes"`
}

// LoadDrawOptions reads a tree-drawer sidecar file.
func LoadDrawOptions(fname string) (DrawOptions, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return DrawOptions{}, fmt.Errorf("config: read %q: %w", fname, err)
	}
	opts, err := ParseDrawOptions(raw)
	if err != nil {
		return opts, fmt.Errorf("config: %q: %w", fname, err)
	}
	return opts, nil
}

// ParseDrawOptions decodes a tree-drawer sidecar document and fills in the
// defaults of every draw spec.
func ParseDrawOptions(raw []byte) (DrawOptions, error) {
	var opts DrawOptions
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("could not decode: %w", err)
	}
	if opts.Tree == "" {
		opts.Tree = DefaultTree
	}
	for i := range opts.Histograms {
		d := &opts.Histograms[i]
		if d.Basename == "" {
			return opts, fmt.Errorf("histogram #%d: missing basename", i)
		}
		if d.Variable == "" {
			return opts, fmt.Errorf("histogram %q: missing variable", d.Basename)
		}
		if d.Tree == "" {
			d.Tree = opts.Tree
		}
		if d.Weight == "" {
			d.Weight = "1.0"
		}
		if d.Selection == "" {
			d.Selection = "1==1"
		}
	}
	return opts, nil
}
