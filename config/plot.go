// Package config reads the YAML sidecar files that describe what the plotting
// and tree-drawing commands produce.
//
// Both files are edited by hand between runs. Every recognised key is a
// struct field here with a defined default, so a missing key is never an
// error; a malformed document is.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Axis configures one axis of a plotted histogram.
type Axis struct {
	Title string `yaml:"title"`
	// RTitle is the vertical title of the ratio panel (Y axis only).
	RTitle string `yaml:"rtitle"`
	// Rebin merges this many adjacent bins; 0 and 1 leave the binning alone.
	Rebin int `yaml:"rebin"`
	// Min and Max restrict the displayed range when set.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// HasRange reports whether a display range was requested.
func (a Axis) HasRange() bool {
	return a.Min != nil || a.Max != nil
}

// HistogramSpec describes one histogram to extract from every category file.
type HistogramSpec struct {
	Name string `yaml:"-"`
	Dim  int    `yaml:"dim"`
	LogX bool   `yaml:"logX"`
	LogY bool   `yaml:"logY"`
	LogZ bool   `yaml:"logZ"`
	X    Axis   `yaml:"X"`
	Y    Axis   `yaml:"Y"`
	Z    Axis   `yaml:"Z"`

	// Expand turns one entry into several: "{}" in the name is replaced by
	// each expansion value.
	Expand *Expansion `yaml:"expand"`
}

// Ratio tags.
const (
	RatioNum = "num"
	RatioDen = "den"
)

// CategorySpec is one input file with its drawing style.
type CategorySpec struct {
	Name string `yaml:"-"`
	// File is the input file name relative to the input directory. It
	// defaults to "<name>.root".
	File string `yaml:"file"`

	Stack  bool   `yaml:"stack"`
	Ratio  string `yaml:"ratio"`
	Legend string `yaml:"legend"`

	Color  string  `yaml:"color"`
	LColor string  `yaml:"lcolor"`
	LStyle int     `yaml:"lstyle"`
	LSize  float64 `yaml:"lsize"`
	MStyle int     `yaml:"mstyle"`
	MSize  float64 `yaml:"msize"`
	Fill   float64 `yaml:"fill"`
	FStyle int     `yaml:"fstyle"`

	// Draw is the draw option ("HIST", "E", "P", "COLZ"...), LDraw the
	// legend option ("F", "L", "P").
	Draw  string `yaml:"draw"`
	LDraw string `yaml:"ldraw"`
}

func defaultCategory(name string) CategorySpec {
	return CategorySpec{
		Name:   name,
		File:   name + ".root",
		LStyle: 1,
		LSize:  1,
		MStyle: 20,
		MSize:  1,
		FStyle: 1001,
		Draw:   "HIST",
		LDraw:  "F",
	}
}

// PlotOptions is the content of a plotter sidecar file. Both lists keep the
// order of the document.
type PlotOptions struct {
	Histograms []HistogramSpec
	Categories []CategorySpec
}

// Expansion generates labels: the explicit Labels first, then
// Prefix+N for N in [From, To] except Skip.
type Expansion struct {
	Labels []string `yaml:"labels"`
	Prefix string   `yaml:"prefix"`
	From   int      `yaml:"from"`
	To     int      `yaml:"to"`
	Skip   []int    `yaml:"skip"`
}

func (e Expansion) Values() []string {
	vals := append([]string(nil), e.Labels...)
	if e.From == 0 && e.To == 0 {
		return vals
	}
	for i := e.From; i <= e.To; i++ {
		if contains(e.Skip, i) {
			continue
		}
		vals = append(vals, e.Prefix+strconv.Itoa(i))
	}
	return vals
}

// LoadPlotOptions reads a plotter sidecar file.
func LoadPlotOptions(fname string) (PlotOptions, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return PlotOptions{}, fmt.Errorf("config: read %q: %w", fname, err)
	}
	opts, err := ParsePlotOptions(raw)
	if err != nil {
		return opts, fmt.Errorf("config: %q: %w", fname, err)
	}
	return opts, nil
}

// ParsePlotOptions decodes a plotter sidecar document.
func ParsePlotOptions(raw []byte) (PlotOptions, error) {
	var (
		opts PlotOptions
		doc  struct {
			Histograms yaml.Node `yaml:"histograms"`
			Categories yaml.Node `yaml:"categories"`
		}
	)
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return opts, fmt.Errorf("could not decode: %w", err)
	}

	err := eachEntry(&doc.Histograms, func(name string, node *yaml.Node) error {
		spec := HistogramSpec{Dim: 1}
		if err := node.Decode(&spec); err != nil {
			return fmt.Errorf("histogram %q: %w", name, err)
		}
		if spec.Dim < 1 || spec.Dim > 3 {
			return fmt.Errorf("histogram %q: invalid dim %d", name, spec.Dim)
		}
		if spec.Expand == nil || !strings.Contains(name, "{}") {
			spec.Name = name
			opts.Histograms = append(opts.Histograms, spec)
			return nil
		}
		for _, v := range spec.Expand.Values() {
			s := spec
			s.Name = strings.ReplaceAll(name, "{}", v)
			s.Expand = nil
			opts.Histograms = append(opts.Histograms, s)
		}
		return nil
	})
	if err != nil {
		return opts, err
	}

	err = eachEntry(&doc.Categories, func(name string, node *yaml.Node) error {
		cat := defaultCategory(name)
		if err := node.Decode(&cat); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		switch cat.Ratio {
		case "", RatioNum, RatioDen:
		default:
			return fmt.Errorf("category %q: invalid ratio tag %q", name, cat.Ratio)
		}
		cat.Name = name
		opts.Categories = append(opts.Categories, cat)
		return nil
	})
	return opts, err
}

// eachEntry walks a YAML mapping in document order. An absent node is an
// empty mapping.
func eachEntry(node *yaml.Node, fct func(name string, value *yaml.Node) error) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if err := fct(key.Value, value); err != nil {
			return err
		}
	}
	return nil
}

func contains(vs []int, v int) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
