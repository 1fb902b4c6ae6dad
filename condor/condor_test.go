package condor

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

type fakeDAS struct {
	answers map[string][]string
	queries []string
}

func (f *fakeDAS) Query(ctx context.Context, q string) ([]string, error) {
	f.queries = append(f.queries, q)
	ans, ok := f.answers[q]
	if !ok {
		return nil, errors.New("unexpected query")
	}
	return ans, nil
}

func TestDataset(t *testing.T) {
	ds, err := ParseDataset("/HcalNZS/*Run2024*/RAW*")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	if !ds.Wildcard() || ds.IsMC() {
		t.Fatalf("invalid flags for %q", ds.Name)
	}
	for _, tc := range []struct {
		name string
		want bool
	}{
		{"/HcalNZS/Run2024F-v1/RAW", true},
		{"/HcalNZS/Run2024F-v1/RAW-RECO", true},
		{"/HcalNZS/Run2023D-v1/RAW", false},
		{"/ZeroBias/Run2024F-v1/RAW", false},
		{"/HcalNZS/Run2024F-v1", false},
	} {
		if got := ds.Match(tc.name); got != tc.want {
			t.Fatalf("Match(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}

	mc, err := ParseDataset("/SinglePion/Run3Winter24-GEN-SIM-RAW/GEN-SIM-RAW")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	if mc.Wildcard() || !mc.IsMC() {
		t.Fatalf("invalid flags for %q", mc.Name)
	}

	for _, name := range []string{"HcalNZS/Run2024/RAW", "/HcalNZS//RAW", "/a/b/c/d", "/a/[b/c"} {
		if _, err := ParseDataset(name); err == nil {
			t.Fatalf("expected an error for %q", name)
		}
	}
}

func TestJobs(t *testing.T) {
	das := &fakeDAS{answers: map[string][]string{
		"dataset dataset=/HcalNZS/*Run2024*/RAW* run=386864": {
			"/HcalNZS/Run2023D-v1/RAW",
			"/HcalNZS/Run2024I-v1/RAW",
		},
		"dataset dataset=/HcalNZS/*Run2024*/RAW* run=386865": {
			"/HcalNZS/Run2024I-v1/RAW",
		},
		"file dataset=/HcalNZS/Run2024I-v1/RAW run=386864": {"/store/a.root", "/store/b.root"},
		"file dataset=/HcalNZS/Run2024I-v1/RAW run=386865": {"/store/b.root", "/store/c.root"},
	}}
	ds, err := ParseDataset("/HcalNZS/*Run2024*/RAW*")
	if err != nil {
		t.Fatal(err)
	}

	jobs, err := Jobs(context.Background(), das, ds, []string{"386864", "386865"})
	if err != nil {
		t.Fatalf("could not list jobs: %+v", err)
	}
	want := []Job{
		{Index: 0, Run: "386864", File: "/store/a.root"},
		{Index: 1, Run: "386864", File: "/store/b.root"},
		{Index: 2, Run: "386865", File: "/store/c.root"},
	}
	if !reflect.DeepEqual(jobs, want) {
		t.Fatalf("invalid jobs:\ngot= %+v\nwant=%+v", jobs, want)
	}

	if _, err := Jobs(context.Background(), das, ds, []string{"1"}); err == nil {
		t.Fatalf("expected an error for an unknown run")
	}
}

func TestJobsMC(t *testing.T) {
	name := "/SinglePion/Run3Winter24-GEN-SIM-RAW/GEN-SIM-RAW"
	das := &fakeDAS{answers: map[string][]string{
		"file dataset=" + name: {"/store/mc.root"},
	}}
	ds, err := ParseDataset(name)
	if err != nil {
		t.Fatal(err)
	}
	jobs, err := Jobs(context.Background(), das, ds, []string{"1", "2"})
	if err != nil {
		t.Fatalf("could not list jobs: %+v", err)
	}
	if len(jobs) != 1 || len(das.queries) != 1 {
		t.Fatalf("simulation should be queried once: jobs=%+v queries=%q", jobs, das.queries)
	}
}

const analyzerTemplate = `process = cms.Process("ANALYZE", __ERA__)
process.GlobalTag.globaltag = "__GLOBALTAG__"
overrides = "__OVERRIDE__"
process.hcalDigis.InputLabel = "rawDataCollector"
tps = cms.InputTag("__PACKEDTPTAG__", "", __PACKEDTPPROCESSNAME__)
luts = __GENLUTS__
files = ["__FILE__"]
`

func TestRenderConfig(t *testing.T) {
	data := RenderConfig(analyzerTemplate, Params{
		Era:       "Run3_2024",
		GlobalTag: "140X_dataRun3_Prompt_v4",
		L1TrgObjs: "/some/where/L1TriggerObjects.db",
	})
	for _, want := range []string{
		`cms.Process("ANALYZE", Run3_2024)`,
		`globaltag = "140X_dataRun3_Prompt_v4"`,
		`overrides = "Tag,HcalL1TriggerObjectsRcd,sqlite_file:L1TriggerObjects.db"`,
		"\nprocess.hcalDigis.InputLabel",
		`cms.InputTag("hcalDigis", "", processName)`,
		"luts = False",
		`files = ["__FILE__"]`,
	} {
		if !strings.Contains(data, want) {
			t.Fatalf("missing %q in:\n%s", want, data)
		}
	}

	mc := RenderConfig(analyzerTemplate, Params{Era: "Run3", GlobalTag: "gt", MC: true})
	for _, want := range []string{
		`overrides = ""`,
		"#process.hcalDigis.InputLabel",
		`cms.InputTag("simHcalTriggerPrimitiveDigis", "", "HLT")`,
		"luts = True",
	} {
		if !strings.Contains(mc, want) {
			t.Fatalf("missing %q in:\n%s", want, mc)
		}
	}
}

func TestSkimAndMergeConfig(t *testing.T) {
	skim := SkimConfig(`fileNames = cms.untracked.vstring("__FILE__")`, "/store/a.root")
	if skim != `fileNames = cms.untracked.vstring("/store/a.root")` {
		t.Fatalf("invalid skim configuration %q", skim)
	}

	tmpl := "vstring(\n    \"FILE1\",\n    \"FILE2\",\n)"
	got := MergeConfig(tmpl, []string{"a.root", "b.root", "c.root"})
	want := "vstring(\n    \"a.root\",\n    \"b.root\",\n    \"c.root\",\n)"
	if got != want {
		t.Fatalf("invalid merge configuration:\ngot= %q\nwant=%q", got, want)
	}
}

func newTask(dir string) Task {
	return Task{
		WorkingDir:   dir,
		OutputDir:    "root://eosuser.cern.ch///eos/user/j/jdoe/HcalTrigger/test",
		CMSSWVersion: "CMSSW_14_0_12",
		ScramArch:    "el9_amd64_gcc12",
		L1TrgObjs:    "",
		ProxyPath:    "/afs/cern.ch/user/j/jdoe/private/grid_proxy.x509",
		Destination:  "root://eosuser.cern.ch///eos/user/j/jdoe/HcalTrigger/",
		Redirector:   "root://cms-xrd-global.cern.ch/",
		Jobs: []Job{
			{Index: 0, Run: "386864", File: "/store/a.root"},
			{Index: 1, Run: "386865", File: "/store/b.root"},
		},
	}
}

func TestWriteScriptAndSubmit(t *testing.T) {
	task := newTask("/work/test_20240101_120000")
	task.L1TrgObjs = "/some/where/L1.db"

	script := new(bytes.Buffer)
	if err := task.WriteScript(script); err != nil {
		t.Fatalf("could not write script: %+v", err)
	}
	for _, want := range []string{
		"#!/bin/bash\n",
		"export SCRAM_ARCH=el9_amd64_gcc12\n",
		"eval `scramv1 project CMSSW CMSSW_14_0_12`\n",
		"tar -xf CMSSW_14_0_12.tar.xz\n",
		"mv analyze_tps.py CMSSW_14_0_12/src\nmv L1.db CMSSW_14_0_12/src\ncd CMSSW_14_0_12/src\n",
		"xrdcp -f analyze_tps.root root://eosuser.cern.ch///eos/user/j/jdoe/HcalTrigger/test/analyze_tps_$JOB.root",
	} {
		if !strings.Contains(script.String(), want) {
			t.Fatalf("missing %q in script:\n%s", want, script)
		}
	}

	submit := new(bytes.Buffer)
	if err := task.WriteSubmit(submit); err != nil {
		t.Fatalf("could not write submit description: %+v", err)
	}
	for _, want := range []string{
		"Executable            =  /work/test_20240101_120000/run_analyze_tps.sh\n",
		"output_destination    =  root://eosuser.cern.ch///eos/user/j/jdoe/HcalTrigger/\n",
		"Transfer_Input_Files  =  /work/test_20240101_120000/L1.db, /work/test_20240101_120000/analyze_tps.py, /work/test_20240101_120000/run_analyze_tps.sh, /work/test_20240101_120000/CMSSW_14_0_12.tar.xz\n",
		"Arguments = $(Proxy_path) 0 386864 root://cms-xrd-global.cern.ch//store/a.root\nQueue\n",
		"Arguments = $(Proxy_path) 1 386865 root://cms-xrd-global.cern.ch//store/b.root\nQueue\n",
	} {
		if !strings.Contains(submit.String(), want) {
			t.Fatalf("missing %q in submit description:\n%s", want, submit)
		}
	}
	if got := strings.Count(submit.String(), "Queue"); got != 2 {
		t.Fatalf("invalid number of queue statements: %d", got)
	}
}

func mkfile(t *testing.T, fname, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPrepare(t *testing.T) {
	var (
		top  = t.TempDir()
		base = filepath.Join(top, "CMSSW_14_0_12")
		work = filepath.Join(top, "work")
	)
	mkfile(t, filepath.Join(base, "src", "Debug", "HcalDebug", "plugins", "AnalyzeTP.cc"), "// analyzer")
	mkfile(t, filepath.Join(base, "src", "Debug", "HcalDebug", "plots", "h.pdf"), "pdf")
	mkfile(t, filepath.Join(base, "src", "Debug", "HcalDebug", "condor", "old", "x.jdl"), "jdl")
	mkfile(t, filepath.Join(base, "src", ".git", "HEAD"), "ref")
	mkfile(t, filepath.Join(base, "tmp", "obj.o"), "obj")
	mkfile(t, filepath.Join(base, "lib", "libA.so"), "lib")
	mkfile(t, filepath.Join(base, "cache", cacheTag), "Signature: 8a477f597d28d172789f06886806bc55")
	mkfile(t, filepath.Join(base, "cache", "blob"), "blob")

	task := newTask(work)
	if err := task.Prepare("config", base); err != nil {
		t.Fatalf("could not prepare task: %+v", err)
	}

	for _, name := range []string{ConfigName, ScriptName, SubmitName, task.Sandbox(), "logs"} {
		if _, err := os.Stat(filepath.Join(work, name)); err != nil {
			t.Fatalf("missing %q: %+v", name, err)
		}
	}
	fi, err := os.Stat(filepath.Join(work, ScriptName))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0100 == 0 {
		t.Fatalf("script is not executable: %v", fi.Mode())
	}

	f, err := os.Open(filepath.Join(work, task.Sandbox()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	xr, err := xz.NewReader(f)
	if err != nil {
		t.Fatalf("could not open xz stream: %+v", err)
	}
	tr := tar.NewReader(xr)

	var files []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("could not read archive: %+v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			files = append(files, hdr.Name)
		}
	}
	sort.Strings(files)
	want := []string{
		"CMSSW_14_0_12/lib/libA.so",
		"CMSSW_14_0_12/src/Debug/HcalDebug/plugins/AnalyzeTP.cc",
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("invalid sandbox content:\ngot= %q\nwant=%q", files, want)
	}
}
