package condor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

const (
	// ScriptName is the job steering script.
	ScriptName = "run_analyze_tps.sh"
	// SubmitName is the HTCondor submit description.
	SubmitName = "condorSubmit.jdl"
	// ConfigName is the analyzer configuration run by every job.
	ConfigName = "analyze_tps.py"
)

// Task is one submission: a working directory holding the steering script,
// the submit description, the analyzer configuration and the CMSSW sandbox.
type Task struct {
	WorkingDir string
	// OutputDir is the xrootd directory receiving analyze_tps_<job>.root.
	OutputDir    string
	CMSSWVersion string
	ScramArch    string
	// L1TrgObjs is the optional sqlite file shipped with the jobs.
	L1TrgObjs string
	// ProxyPath is the grid proxy forwarded to the jobs.
	ProxyPath string
	// Destination is the HTCondor output_destination.
	Destination string
	// Redirector prefixes the logical file names of the inputs.
	Redirector string
	Jobs       []Job
}

// Sandbox returns the name of the CMSSW area archive.
func (t Task) Sandbox() string { return t.CMSSWVersion + ".tar.xz" }

// L1File returns the base name of the L1 trigger objects file, if any.
func (t Task) L1File() string {
	if t.L1TrgObjs == "" {
		return ""
	}
	return filepath.Base(t.L1TrgObjs)
}

var scriptTmpl = template.Must(template.New("script").Parse(`#!/bin/bash

PROXY=$1
shift
JOB=$1
shift
RUN=$1
shift
FILE=$1

export X509_USER_PROXY=$PROXY
voms-proxy-info -all
voms-proxy-info -all -file $PROXY

sed -i "s#__FILE__#$FILE#g" {{.Config}}

export SCRAM_ARCH={{.T.ScramArch}}
source /cvmfs/cms.cern.ch/cmsset_default.sh
eval ` + "`scramv1 project CMSSW {{.T.CMSSWVersion}}`" + `

tar -xf {{.T.Sandbox}}
mv {{.Config}} {{.T.CMSSWVersion}}/src
{{- with .T.L1File}}
mv {{.}} {{$.T.CMSSWVersion}}/src
{{- end}}
cd {{.T.CMSSWVersion}}/src
scramv1 b ProjectRename
eval ` + "`scramv1 runtime -sh`" + `

cmsRun {{.Config}}

xrdcp -f analyze_tps.root {{.T.OutputDir}}/analyze_tps_$JOB.root 2>&1

cd ${_CONDOR_SCRATCH_DIR}
shopt -s extglob
rm -rf -- !(*_condor_*)
`))

var submitTmpl = template.Must(template.New("submit").Parse(`Executable            =  {{.T.WorkingDir}}/{{.Script}}
Universe              =  vanilla
Requirements          =  (OpSysAndVer =?= "AlmaLinux9")
Request_Memory        =  2 Gb
Request_Cpus          =  1
Output                =  {{.T.WorkingDir}}/logs/$(Cluster)_$(Process).stdout
Error                 =  {{.T.WorkingDir}}/logs/$(Cluster)_$(Process).stderr
Log                   =  {{.T.WorkingDir}}/logs/$(Cluster)_$(Process).log
+JobFlavour           =  "microcentury"
MY.SendCredential     =  true
when_to_transfer_output = on_success
{{- with .T.Destination}}
output_destination    =  {{.}}
{{- end}}
Proxy_path            =  {{.T.ProxyPath}}
Should_Transfer_Files =  YES
Transfer_Input_Files  =  {{range .Inputs}}{{.}}, {{end}}{{.T.WorkingDir}}/{{.T.Sandbox}}
{{range .T.Jobs}}
Arguments = $(Proxy_path) {{.Index}} {{.Run}} {{$.T.Redirector}}{{.File}}
Queue
{{end -}}
`))

// WriteScript writes the job steering script.
func (t Task) WriteScript(w io.Writer) error {
	return scriptTmpl.Execute(w, struct {
		T      Task
		Config string
	}{t, ConfigName})
}

// WriteSubmit writes the HTCondor submit description, one queue statement
// per job.
func (t Task) WriteSubmit(w io.Writer) error {
	var inputs []string
	if f := t.L1File(); f != "" {
		inputs = append(inputs, filepath.Join(t.WorkingDir, f))
	}
	inputs = append(inputs,
		filepath.Join(t.WorkingDir, ConfigName),
		filepath.Join(t.WorkingDir, ScriptName),
	)
	return submitTmpl.Execute(w, struct {
		T      Task
		Script string
		Inputs []string
	}{t, ScriptName, inputs})
}

// Prepare fills the working directory: analyzer configuration, steering
// script, submit description, L1 trigger objects and the sandbox of the
// CMSSW area at cmsswBase.
func (t Task) Prepare(config string, cmsswBase string) error {
	if err := os.MkdirAll(filepath.Join(t.WorkingDir, "logs"), 0755); err != nil {
		return fmt.Errorf("condor: could not create working directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(t.WorkingDir, ConfigName), []byte(config), 0644); err != nil {
		return fmt.Errorf("condor: could not write configuration: %w", err)
	}
	if err := t.writeFile(ScriptName, 0755, t.WriteScript); err != nil {
		return err
	}
	if err := t.writeFile(SubmitName, 0644, t.WriteSubmit); err != nil {
		return err
	}

	if t.L1TrgObjs != "" {
		raw, err := os.ReadFile(t.L1TrgObjs)
		if err != nil {
			return fmt.Errorf("condor: could not read L1 trigger objects: %w", err)
		}
		if err := os.WriteFile(filepath.Join(t.WorkingDir, t.L1File()), raw, 0644); err != nil {
			return fmt.Errorf("condor: could not copy L1 trigger objects: %w", err)
		}
	}

	if cmsswBase == "" {
		return nil
	}
	return t.writeFile(t.Sandbox(), 0644, func(w io.Writer) error {
		return WriteSandbox(w, cmsswBase)
	})
}

func (t Task) writeFile(name string, mode os.FileMode, write func(w io.Writer) error) error {
	fname := filepath.Join(t.WorkingDir, name)
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("condor: could not create %q: %w", fname, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("condor: could not write %q: %w", fname, err)
	}
	return f.Close()
}

// Submit hands the submit description of the task to condor_submit.
func (t Task) Submit(ctx context.Context, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, "condor_submit", filepath.Join(t.WorkingDir, SubmitName))
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("condor: condor_submit: %w", err)
	}
	return nil
}
