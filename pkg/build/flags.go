// SPDX-License-Identifier: MIT
//
// Package build holds version metadata embedded at link time, for example:
//
//	go build -ldflags "-X audiostate/pkg/build.buildVersion=0.2.0 -X audiostate/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
package build

import (
	"errors"
	"fmt"
)

const (
	DefaultName        = "audiostate"
	DefaultDescription = "Breathing and emotional state analysis for live and recorded audio"
	unknown            = "unknown"
)

// Info describes the running binary.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Commit      string `json:"commit"`
	Version     string `json:"version"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = defaultInfo()
)

func defaultInfo() Info {
	return Info{
		Name:        DefaultName,
		Description: DefaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
}

// Initialize copies the linker-provided values into the build info. Missing
// values keep their defaults and are reported together in the returned
// error, so development builds can log the error and carry on.
func Initialize() error {
	info := defaultInfo()
	var errs []error
	set := func(dst *string, v, flag string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = v
	}
	set(&info.Name, buildName, "BuildName")
	set(&info.Time, buildTime, "BuildTime")
	set(&info.Commit, buildCommit, "BuildCommit")
	set(&info.Version, buildVersion, "BuildVersion")

	buildInfo = info
	return errors.Join(errs...)
}

// Get returns the current build information.
func Get() Info {
	return buildInfo
}
