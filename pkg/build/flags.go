// SPDX-License-Identifier: MIT
//
// Package build carries the build metadata embedded at link time:
//
//	go build -ldflags "-X liveplot/pkg/build.buildName=liveplot \
//	  -X liveplot/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds without ldflags keep the placeholder values and the
// binary still runs; Initialize only reports what is missing.
package build

import (
	"errors"
	"fmt"
)

// Description is shown by the command line help.
const Description = "Realtime audio spectrum and procedural terrain visualizer"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the flags as a one-line version banner.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:    "liveplot",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize copies the ldflags variables into the build flags. Every flag that
// was provided is applied; the returned error lists the ones that were not.
func Initialize() error {
	var errs []error
	apply := func(dst *string, src, name string) {
		if src == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			return
		}
		*dst = src
	}

	apply(&buildFlags.Name, buildName, "BuildName")
	apply(&buildFlags.Time, buildTime, "BuildTime")
	apply(&buildFlags.Commit, buildCommit, "BuildCommit")
	apply(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information. Before Initialize, or
// in development builds, the placeholder values are returned.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
