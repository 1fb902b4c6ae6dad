// Package stack draws one canvas per requested histogram, combining the
// same histogram taken from every category file: overlaid or stacked, with
// an optional relative-difference panel, or one heat map per category for 2D
// histograms.
package stack

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/config"
	"github.com/hcaltrigger/hcalplot/histo"
)

// Options configures a Plotter.
type Options struct {
	Approval  hcalplot.Approval
	DoRatio   bool
	Normalize bool
	Year      string
	InPath    string
	OutPath   string
	// Format is the output file extension, "pdf" by default.
	Format string

	Histograms []config.HistogramSpec
	Categories []config.CategorySpec

	Style hcalplot.Style
	// Log receives warnings and progress; nil discards them.
	Log *log.Logger
}

// Plotter renders the histograms of Options.
type Plotter struct {
	opts   Options
	layout Layout
	msg    *log.Logger
}

// New prepares a plotter, creating the output directory if needed.
func New(opts Options) (*Plotter, error) {
	if opts.Format == "" {
		opts.Format = "pdf"
	}
	if opts.Style.CanvasSize == 0 {
		opts.Style = hcalplot.DefaultStyle()
	}
	msg := opts.Log
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	if err := os.MkdirAll(opts.OutPath, 0755); err != nil {
		return nil, fmt.Errorf("stack: could not create output directory: %w", err)
	}
	return &Plotter{
		opts:   opts,
		layout: NewLayout(opts.Style, opts.DoRatio),
		msg:    msg,
	}, nil
}

// MakePlots draws every histogram. A category that cannot be read is skipped
// for that histogram only; any other failure stops the run.
func (p *Plotter) MakePlots() error {
	for _, spec := range p.opts.Histograms {
		var err error
		switch spec.Dim {
		case 1:
			_, err = p.plot1D(spec)
		case 2:
			err = p.plot2D(spec)
		default:
			p.msg.Printf("WARNING: histogram %q: cannot draw %d dimensions", spec.Name, spec.Dim)
		}
		if err != nil {
			return fmt.Errorf("stack: histogram %q: %w", spec.Name, err)
		}
	}
	return nil
}

func (p *Plotter) inputFile(cat config.CategorySpec) string {
	return filepath.Join(p.opts.InPath, cat.File)
}

func (p *Plotter) outputFile(name string) string {
	return filepath.Join(p.opts.OutPath, name+"."+p.opts.Format)
}

// load extracts spec from the category's file and configures it for a panel
// of the given height fraction. Read failures are logged and return nil.
func (p *Plotter) load(spec config.HistogramSpec, cat config.CategorySpec, scale float64) (*histo.Histogram, error) {
	h, err := histo.Load(p.inputFile(cat), spec.Name)
	if err != nil {
		p.msg.Printf("WARNING: %v", err)
		return nil, nil
	}
	if h.Dim() != spec.Dim {
		p.msg.Printf("WARNING: %q in %q is %dD, expected %dD", spec.Name, p.inputFile(cat), h.Dim(), spec.Dim)
		return nil, nil
	}
	if err := h.Configure(spec, cat, p.opts.Style, scale, 1); err != nil {
		return nil, err
	}
	if p.opts.Normalize {
		h.Normalize()
	}
	return h, nil
}
