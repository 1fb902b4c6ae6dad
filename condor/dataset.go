// Package condor prepares and submits HTCondor jobs running the trigger
// primitive analyzer on the files of a DAS dataset.
package condor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Querier answers DAS queries with one result per line.
type Querier interface {
	Query(ctx context.Context, query string) ([]string, error)
}

// DASClient queries DAS through the dasgoclient command.
type DASClient struct {
	// Command defaults to "dasgoclient".
	Command string
}

func (c DASClient) Query(ctx context.Context, query string) ([]string, error) {
	name := c.Command
	if name == "" {
		name = "dasgoclient"
	}
	cmd := exec.CommandContext(ctx, name, "--query="+query)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("condor: DAS query %q: %w", query, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// Dataset is a "/stream/config/tier" DAS dataset name whose elements may
// hold glob wildcards.
type Dataset struct {
	Name string
	elem [3]string
}

// ParseDataset splits a dataset name such as "/HcalNZS/*Run2024*/RAW*".
func ParseDataset(name string) (Dataset, error) {
	elems := strings.Split(name, "/")
	if len(elems) != 4 || elems[0] != "" {
		return Dataset{}, fmt.Errorf("condor: invalid dataset %q: expected /stream/config/tier", name)
	}
	ds := Dataset{Name: name}
	for i, e := range elems[1:] {
		if e == "" {
			return Dataset{}, fmt.Errorf("condor: invalid dataset %q: empty element", name)
		}
		if !doublestar.ValidatePattern(e) {
			return Dataset{}, fmt.Errorf("condor: invalid dataset %q: bad pattern %q", name, e)
		}
		ds.elem[i] = e
	}
	return ds, nil
}

// Wildcard reports whether the name needs to be resolved against DAS.
func (ds Dataset) Wildcard() bool {
	return strings.ContainsAny(ds.Name, "*?[{")
}

// IsMC reports whether the dataset holds simulated events.
func (ds Dataset) IsMC() bool {
	for _, tag := range []string{"GEN", "SIM", "_mc"} {
		if strings.Contains(ds.Name, tag) {
			return true
		}
	}
	return false
}

// Match reports whether the explicit dataset name matches ds element by
// element.
func (ds Dataset) Match(name string) bool {
	elems := strings.Split(name, "/")
	if len(elems) != 4 || elems[0] != "" {
		return false
	}
	for i, e := range elems[1:] {
		ok, err := doublestar.Match(ds.elem[i], e)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func runFilter(run string, mc bool) string {
	if mc || run == "" {
		return ""
	}
	return " run=" + run
}

// Resolve returns the first dataset known to DAS for run that matches ds.
func (ds Dataset) Resolve(ctx context.Context, q Querier, run string) (string, error) {
	if !ds.Wildcard() {
		return ds.Name, nil
	}
	names, err := q.Query(ctx, "dataset dataset="+ds.Name+runFilter(run, ds.IsMC()))
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if ds.Match(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("condor: no dataset matching %q for run %q", ds.Name, run)
}

// Job is one file to analyze.
type Job struct {
	Index int
	Run   string
	File  string
}

// Jobs lists the files of ds for every run, one job per file. Simulated
// datasets are not split by run and are queried once.
func Jobs(ctx context.Context, q Querier, ds Dataset, runs []string) ([]Job, error) {
	mc := ds.IsMC()
	if mc || len(runs) == 0 {
		runs = runs[:min(1, len(runs))]
		if len(runs) == 0 {
			runs = []string{"1"}
		}
	}

	var (
		jobs []Job
		seen = make(map[string]bool)
	)
	for _, run := range runs {
		name, err := ds.Resolve(ctx, q, run)
		if err != nil {
			return nil, err
		}
		files, err := q.Query(ctx, "file dataset="+name+runFilter(run, mc))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			jobs = append(jobs, Job{Index: len(jobs), Run: run, File: f})
		}
	}
	return jobs, nil
}
