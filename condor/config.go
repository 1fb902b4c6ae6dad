package condor

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Params fill the placeholders of the analyzer configuration template.
type Params struct {
	Era       string
	GlobalTag string
	// L1TrgObjs is an optional sqlite file overriding the
	// HcalL1TriggerObjectsRcd of the global tag.
	L1TrgObjs string
	// MC selects the simulated collections and skips raw data unpacking.
	MC bool
}

// Override returns the conditions override of the L1 trigger objects, or
// the empty string.
func (p Params) Override() string {
	if p.L1TrgObjs == "" {
		return ""
	}
	// the file is shipped next to the configuration on the worker node.
	return "Tag,HcalL1TriggerObjectsRcd,sqlite_file:" + filepath.Base(p.L1TrgObjs)
}

func (p Params) replacer() *strings.Replacer {
	var (
		comment       = ""
		packedTPTag   = "hcalDigis"
		digisTag      = "hcalDigis"
		upgradeDigis1 = "hcalDigis"
		upgradeDigis2 = "hcalDigis"
		processName   = "processName"
		genLUTs       = "False"
	)
	if p.MC {
		comment = "#"
		packedTPTag = "simHcalTriggerPrimitiveDigis"
		digisTag = "simHcalUnsuppressedDigis"
		upgradeDigis1 = "simHcalUnsuppressedDigis:HBHEQIE11DigiCollection"
		upgradeDigis2 = "simHcalUnsuppressedDigis:HFQIE10DigiCollection"
		processName = `"HLT"`
		genLUTs = "True"
	}
	return strings.NewReplacer(
		"__ERA__", p.Era,
		"__GLOBALTAG__", p.GlobalTag,
		"__OVERRIDE__", p.Override(),
		"__DIGISTAG__", digisTag,
		"__UPGRADEDIGISTAG1__", upgradeDigis1,
		"__UPGRADEDIGISTAG2__", upgradeDigis2,
		"__PACKEDTPTAG__", packedTPTag,
		"__PACKEDTPPROCESSNAME__", processName,
		"__GENLUTS__", genLUTs,
		"process.hcalDigis", comment+"process.hcalDigis",
	)
}

// RenderConfig substitutes the placeholders of an analyzer configuration
// template. The input file placeholder "__FILE__" is left for the job.
func RenderConfig(tmpl string, p Params) string {
	return p.replacer().Replace(tmpl)
}

// SkimConfig fills the "__FILE__" placeholder of a skim configuration.
func SkimConfig(tmpl, file string) string {
	return strings.ReplaceAll(tmpl, "__FILE__", file)
}

var reFileLine = regexp.MustCompile(`^(\s*)"FILE\d+",?\s*$`)

// MergeConfig replaces the "FILE1", "FILE2", ... lines of a merge
// configuration with one line per file.
func MergeConfig(tmpl string, files []string) string {
	var (
		out  []string
		done bool
	)
	for _, line := range strings.Split(tmpl, "\n") {
		m := reFileLine.FindStringSubmatch(line)
		switch {
		case m == nil:
			out = append(out, line)
		case !done:
			for _, f := range files {
				out = append(out, m[1]+strconv.Quote(f)+",")
			}
			done = true
		}
	}
	return strings.Join(out, "\n")
}
