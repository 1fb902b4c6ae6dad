package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/config"
	"github.com/hcaltrigger/hcalplot/treedraw"
)

var (
	inputDir  = flag.String("inputDir", "", "directory of the ntuples (required)")
	outputDir = flag.String("outputDir", "", "directory receiving the merged ROOT files (required)")
	tree      = flag.String("tree", "", "tree to draw, overriding the options file")
	year      = flag.String("year", "2024", "year label")
	options   = flag.String("options", "ttreeDrawer_aux.yaml", "histogram options file")
	workers   = flag.Int("j", treedraw.MaxWorkers, "maximum number of files drawn concurrently")
	tmpDir    = flag.String("tmp", "", "scratch directory; per-file outputs go to a unique sub-directory removed at the end (default: $TMPDIR/$USER)")
	prof      = flag.String("profile", "", "write a profile: cpu, mem, block, mutex or trace")
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] -inputDir <dir> -outputDir <dir>

Draws the histograms of the options file from every ROOT file of the input
directory and merges them into <outputDir>/<process>.root.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("ttree_draw: ")
	log.SetFlags(0)

	flag.Usage = printUsage
	flag.Parse()
	if *inputDir == "" || *outputDir == "" || flag.NArg() != 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	opts, err := config.LoadDrawOptions(*options)
	if err != nil {
		log.Fatalf("could not load options: %+v", err)
	}
	if *tree != "" {
		for i := range opts.Histograms {
			if opts.Histograms[i].Tree == opts.Tree {
				opts.Histograms[i].Tree = *tree
			}
		}
		opts.Tree = *tree
	}

	stop, err := hcalplot.StartProfile(*prof, ".")
	if err != nil {
		log.Fatalf("could not start profiling: %+v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Printf("drawing %d histograms for %s", len(opts.Histograms), *year)
	r := &treedraw.Runner{
		InputDir:   *inputDir,
		OutputDir:  *outputDir,
		TempDir:    *tmpDir,
		Tree:       opts.Tree,
		Histograms: opts.Histograms,
		Processes:  opts.Processes,
		Workers:    *workers,
		Log:        log.Default(),
	}
	res, err := r.Run(ctx)
	stop()
	if err != nil {
		log.Fatalf("could not draw histograms: %+v", err)
	}

	failed := 0
	for _, out := range res {
		log.Printf("%s: %d histograms from %d/%d files", out.Output, len(out.Names), len(out.Parts), len(out.Inputs))
		failed += len(out.Failed)
	}
	if failed > 0 {
		log.Fatalf("%d input files could not be drawn", failed)
	}
}
