package hcalplot

import (
	"fmt"

	"github.com/pkg/profile"
)

// StartProfile starts the named profile ("cpu", "mem", "block", "mutex" or
// "trace") written under dir. The returned function stops it; with an empty
// mode nothing is profiled.
func StartProfile(mode, dir string) (stop func(), err error) {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "block":
		opt = profile.BlockProfile
	case "mutex":
		opt = profile.MutexProfile
	case "trace":
		opt = profile.TraceProfile
	default:
		return nil, fmt.Errorf("hcalplot: unknown profile %q", mode)
	}
	p := profile.Start(opt, profile.ProfilePath(dir), profile.NoShutdownHook)
	return p.Stop, nil
}
