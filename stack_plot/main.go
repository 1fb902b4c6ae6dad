package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/config"
	"github.com/hcaltrigger/hcalplot/stack"
)

var (
	doRatio   = flag.Bool("doRatio", false, "draw the relative difference of the num and den categories")
	official  = flag.String("official", "int", "approval status: supp, wip, int or none")
	normalize = flag.Bool("normalize", false, "normalize every category to unit area")
	inPath    = flag.String("inpath", "", "directory holding the category ROOT files (required)")
	outPath   = flag.String("outpath", "", "directory receiving the plots (required)")
	year      = flag.String("year", "Run3", "year label")
	options   = flag.String("options", "plotter_aux.yaml", "histogram and category options file")
	format    = flag.String("format", "pdf", "output format: pdf, png, svg or eps")
	prof      = flag.String("profile", "", "write a profile: cpu, mem, block, mutex or trace")

	ratioWindow hcalplot.FloatArrayFlags
)

func init() {
	flag.Var(&ratioWindow, "ratiowindow", "lower then upper bound of the ratio panel (given twice)")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] -inpath <dir> -outpath <dir>

Draws every histogram of the options file, combining the same histogram
from the ROOT file of every category.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("stack_plot: ")
	log.SetFlags(0)

	flag.Usage = printUsage
	flag.Parse()
	if *inPath == "" || *outPath == "" || flag.NArg() != 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	opts, err := config.LoadPlotOptions(*options)
	if err != nil {
		log.Fatalf("could not load options: %+v", err)
	}

	style := hcalplot.DefaultStyle()
	switch len(ratioWindow.Array) {
	case 0:
	case 2:
		style.RatioMin, style.RatioMax = ratioWindow.Array[0], ratioWindow.Array[1]
	default:
		log.Fatalf("invalid ratio window %v: expected a lower and an upper bound", ratioWindow.Array)
	}

	stop, err := hcalplot.StartProfile(*prof, *outPath)
	if err != nil {
		log.Fatalf("could not start profiling: %+v", err)
	}

	p, err := stack.New(stack.Options{
		Approval:   hcalplot.ParseApproval(*official),
		DoRatio:    *doRatio,
		Normalize:  *normalize,
		Year:       *year,
		InPath:     *inPath,
		OutPath:    *outPath,
		Format:     *format,
		Histograms: opts.Histograms,
		Categories: opts.Categories,
		Style:      style,
		Log:        log.Default(),
	})
	if err != nil {
		log.Fatalf("could not create plotter: %+v", err)
	}

	err = p.MakePlots()
	stop()
	if err != nil {
		log.Fatalf("could not make plots: %+v", err)
	}
}
