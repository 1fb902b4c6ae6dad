package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/condor"
)

var (
	//go:embed skim_template.py
	skimTemplate string
	//go:embed merge_template.py
	mergeTemplate string
)

var (
	mode     = flag.String("mode", "skim", "configuration to generate: skim (one per file) or merge (all files)")
	tmplName = flag.String("template", "", "configuration template (default: the built-in one of the mode)")
	outDir   = flag.String("o", ".", "output directory")

	files hcalplot.StringArrayFlags
)

func init() {
	flag.Var(&files, "files", "input files, repeated or comma separated (required)")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] -files <file>[,<file>...]

Writes CMSSW configurations skimming each input file (skim_<i>.py) or merging
all of them (merge.py).

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("skim_config: ")
	log.SetFlags(0)

	flag.Usage = printUsage
	flag.Parse()
	if len(files.Array) == 0 || flag.NArg() != 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	var tmpl string
	switch *mode {
	case "skim":
		tmpl = skimTemplate
	case "merge":
		tmpl = mergeTemplate
	default:
		log.Fatalf("invalid mode %q", *mode)
	}
	if *tmplName != "" {
		raw, err := os.ReadFile(*tmplName)
		if err != nil {
			log.Fatalf("could not read template: %+v", err)
		}
		tmpl = string(raw)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("could not create output directory: %+v", err)
	}

	write := func(name, content string) {
		fname := filepath.Join(*outDir, name)
		if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
			log.Fatalf("could not write configuration: %+v", err)
		}
		log.Printf("wrote %s", fname)
	}

	switch *mode {
	case "skim":
		for i, f := range files.Array {
			write(fmt.Sprintf("skim_%d.py", i), condor.SkimConfig(tmpl, f))
		}
	case "merge":
		write("merge.py", condor.MergeConfig(tmpl, files.Array))
	}
}
