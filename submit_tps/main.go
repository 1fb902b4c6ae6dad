package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hcaltrigger/hcalplot"
	"github.com/hcaltrigger/hcalplot/condor"
)

var (
	submit    = flag.Bool("submit", false, "submit the jobs to condor")
	dataset   = flag.String("dataset", "/HcalNZS/*Run2024*/RAW*", "DAS dataset, may hold wildcards")
	tag       = flag.String("tag", "NULL", "unique tag of the output")
	era       = flag.String("era", "Run3", "era to use")
	globalTag = flag.String("globalTag", "140X_dataRun3_Prompt_v4", "global tag to use")
	l1TrgObjs = flag.String("l1TrgObjs", "", "sqlite file overriding the L1 trigger objects of the global tag")
	template  = flag.String("template", "", "analyzer configuration template (default: $CMSSW_BASE/src/Debug/HcalDebug/test/analyze_tps_template.py)")
	proxy     = flag.String("proxy", "", "grid proxy path (default: ~/private/grid_proxy.x509)")
	dest      = flag.String("dest", "", "condor output destination (default: the EOS HcalTrigger directory of $USER)")
	arch      = flag.String("arch", "el9_amd64_gcc12", "SCRAM architecture of the jobs")
	redir     = flag.String("redirector", "root://cms-xrd-global.cern.ch/", "xrootd redirector of the input files")

	runs = hcalplot.StringArrayFlags{Array: []string{"1"}}
)

func init() {
	flag.Var(&runs, "runs", "run(s) to process, repeated or comma separated")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options]

Prepares one condor job per file of the dataset and run(s), and submits them
with -submit. Must be run from a CMSSW environment.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("submit_tps: ")
	log.SetFlags(0)

	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	var (
		base    = os.Getenv("CMSSW_BASE")
		version = os.Getenv("CMSSW_VERSION")
		user    = os.Getenv("USER")
	)
	if base == "" || version == "" || user == "" {
		log.Fatal("CMSSW_BASE, CMSSW_VERSION and USER must be set")
	}

	ds, err := condor.ParseDataset(*dataset)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	ctx := context.Background()
	jobs, err := condor.Jobs(ctx, condor.DASClient{}, ds, runs.Array)
	if err != nil {
		log.Fatalf("could not list input files: %+v", err)
	}
	if len(jobs) == 0 {
		log.Fatalf("no input file for %s and runs %v", ds.Name, runs.Array)
	}
	log.Printf("%d files to process (simulation: %v)", len(jobs), ds.IsMC())

	hcalDir := filepath.Join(base, "src", "Debug", "HcalDebug")
	tmplName := *template
	if tmplName == "" {
		tmplName = filepath.Join(hcalDir, "test", "analyze_tps_template.py")
	}
	tmpl, err := os.ReadFile(tmplName)
	if err != nil {
		log.Fatalf("could not read configuration template: %+v", err)
	}

	home, _ := os.UserHomeDir()
	if *proxy == "" {
		*proxy = filepath.Join(home, "private", "grid_proxy.x509")
	}
	eos := filepath.Join("/eos/user", user[:1], user, "HcalTrigger")
	if *dest == "" {
		*dest = "root://eosuser.cern.ch//" + eos + "/"
	}
	outDir := filepath.Join(eos, *tag)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("could not create output directory: %+v", err)
	}

	task := condor.Task{
		WorkingDir:   filepath.Join(hcalDir, "condor", *tag+"_"+time.Now().Format("20060102_150405")),
		OutputDir:    "root://eosuser.cern.ch//" + outDir,
		CMSSWVersion: version,
		ScramArch:    *arch,
		L1TrgObjs:    *l1TrgObjs,
		ProxyPath:    *proxy,
		Destination:  *dest,
		Redirector:   *redir,
		Jobs:         jobs,
	}
	cfg := condor.RenderConfig(string(tmpl), condor.Params{
		Era:       *era,
		GlobalTag: *globalTag,
		L1TrgObjs: *l1TrgObjs,
		MC:        ds.IsMC(),
	})
	if err := task.Prepare(cfg, base); err != nil {
		log.Fatalf("could not prepare jobs: %+v", err)
	}
	log.Printf("jobs prepared in %s", task.WorkingDir)

	if !*submit {
		return
	}
	if err := task.Submit(ctx, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("could not submit jobs: %+v", err)
	}
}
