// Package treedraw fills histograms from the entries of event trees. Every
// input file is drawn by its own worker into a temporary file; the temporary
// files of a process are then merged into one output file.
package treedraw

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hcaltrigger/hcalplot/config"
)

// MaxWorkers bounds the number of files drawn concurrently.
const MaxWorkers = 8

// Runner draws histograms from every ROOT file of one or more process
// directories.
type Runner struct {
	// InputDir holds the ROOT files of one process, or one sub-directory per
	// entry of Processes.
	InputDir  string
	OutputDir string
	// TempDir receives a unique directory holding the per-file outputs,
	// removed by Run. It defaults to $TMPDIR/$USER.
	TempDir string
	// Tree is used by specs that do not name their own.
	Tree       string
	Histograms []config.DrawSpec
	Processes  []string
	// Workers defaults to MaxWorkers.
	Workers int

	Log *log.Logger
}

// Result describes the output of one process.
type Result struct {
	Process string
	Output  string
	Inputs  []string
	// Parts are the per-file outputs that were merged.
	Parts []string
	// Names are the histograms of Output.
	Names []string
	// Failed holds the inputs whose worker failed; they are missing from
	// Output.
	Failed map[string]error
}

func (r *Runner) msg() *log.Logger {
	if r.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Log
}

func (r *Runner) tree() string {
	if r.Tree == "" {
		return config.DefaultTree
	}
	return r.Tree
}

// Run draws and merges every process. The temporary directory is removed on
// return.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if len(r.Histograms) == 0 {
		return nil, fmt.Errorf("treedraw: no histogram to draw")
	}
	for _, spec := range r.Histograms {
		for _, s := range spec.AllProjections() {
			if _, err := ParseProjection(s); err != nil {
				return nil, err
			}
		}
	}

	stamp := time.Now().Format("20060102_150405")
	base := r.TempDir
	if base == "" {
		user := os.Getenv("USER")
		if user == "" {
			user = "hcalplot"
		}
		base = filepath.Join(os.TempDir(), user)
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("treedraw: could not create temporary directory: %w", err)
	}
	// only the run's own directory is removed, never base.
	tmp := filepath.Join(base, stamp+"_"+uuid.NewString()[:8])
	if err := os.Mkdir(tmp, 0755); err != nil {
		return nil, fmt.Errorf("treedraw: could not create temporary directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("treedraw: could not create output directory: %w", err)
	}

	type source struct{ process, dir string }
	var sources []source
	switch {
	case len(r.Processes) > 0:
		for _, proc := range r.Processes {
			sources = append(sources, source{proc, filepath.Join(r.InputDir, proc)})
		}
	default:
		sources = append(sources, source{processName(r.InputDir), r.InputDir})
	}

	var results []Result
	for _, src := range sources {
		res, err := r.runProcess(ctx, src.process, src.dir, tmp, stamp)
		if err != nil {
			return results, err
		}
		if res.Output != "" {
			results = append(results, res)
		}
	}
	return results, nil
}

// processName is the last element of a directory path.
func processName(dir string) string {
	elems := strings.FieldsFunc(filepath.ToSlash(dir), func(r rune) bool { return r == '/' })
	if len(elems) == 0 {
		return "output"
	}
	return elems[len(elems)-1]
}

func (r *Runner) runProcess(ctx context.Context, proc, dir, tmp, stamp string) (Result, error) {
	res := Result{Process: proc, Failed: make(map[string]error)}

	inputs, err := doublestar.FilepathGlob(filepath.Join(dir, "*.root"))
	if err != nil {
		return res, fmt.Errorf("treedraw: could not list %q: %w", dir, err)
	}
	sort.Strings(inputs)
	res.Inputs = inputs
	if len(inputs) == 0 {
		r.msg().Printf("WARNING: no ROOT file in %q, skipping process %q", dir, proc)
		return res, nil
	}

	workers := r.Workers
	if workers <= 0 {
		workers = MaxWorkers
	}
	r.msg().Printf("drawing %d files of %q with %d workers", len(inputs), proc, min(workers, len(inputs)))

	var (
		grp  errgroup.Group
		errs = make([]error, len(inputs))
	)
	grp.SetLimit(min(workers, len(inputs)))
	for i, input := range inputs {
		out := filepath.Join(tmp, fmt.Sprintf("%s_%s_%d.root", proc, stamp, i))
		grp.Go(func() error {
			errs[i] = r.processFile(ctx, input, out)
			if errs[i] != nil {
				os.Remove(out)
			}
			return nil
		})
	}
	_ = grp.Wait()
	if err := ctx.Err(); err != nil {
		return res, err
	}

	for i, err := range errs {
		if err != nil {
			res.Failed[inputs[i]] = err
			r.msg().Printf("WARNING: %q left out of the merge: %v", inputs[i], err)
		}
	}

	parts, err := doublestar.FilepathGlob(filepath.Join(tmp, proc+"_"+stamp+"_*.root"))
	if err != nil {
		return res, fmt.Errorf("treedraw: could not list %q: %w", tmp, err)
	}
	sort.Strings(parts)
	res.Parts = parts
	if len(parts) == 0 {
		return res, fmt.Errorf("treedraw: every file of %q failed", proc)
	}

	res.Output = filepath.Join(r.OutputDir, proc+".root")
	res.Names, err = Merge(res.Output, parts)
	if err != nil {
		return res, err
	}
	r.msg().Printf("merged %d files into %s", len(parts), res.Output)
	return res, nil
}
