// Package version reports build metadata for the unitconv binary.
//
// Release builds inject the version, commit and date with -ldflags:
//
//	-X github.com/convertkit/unitconv/internal/version.version=v1.2.0
//
// Builds without ldflags fall back to the module and VCS data that the Go
// toolchain embeds in the binary.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"

	"github.com/convertkit/unitconv/internal/rates"
)

var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`

	// RatesSchema is the snapshot schemaVersion written by this build.
	RatesSchema string `json:"ratesSchema"`
}

// GetInfo returns the metadata of the running binary.
func GetInfo() Info {
	info := Info{
		Version:     version,
		GitCommit:   gitCommit,
		BuildDate:   buildDate,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		RatesSchema: rates.SchemaVersion,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fillFromBuildInfo(bi)
	}

	info.GitCommit = shortCommit(info.GitCommit)

	return info
}

// fillFromBuildInfo replaces placeholder values with the data embedded by
// the toolchain. Values injected by ldflags win.
func (i *Info) fillFromBuildInfo(bi *debug.BuildInfo) {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "none" {
				i.GitCommit = s.Value
			}
		case "vcs.time":
			if i.BuildDate == "unknown" {
				i.BuildDate = s.Value
			}
		}
	}
}

// Semver parses Version. "dev" is not a valid version.
func (i Info) Semver() (*semver.Version, error) {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", i.Version, err)
	}

	return v, nil
}

// IsRelease reports whether Version is a semantic version without a
// prerelease suffix. Pseudo-versions such as v0.0.0-20240101-abcdef count
// as prereleases.
func (i Info) IsRelease() bool {
	v, err := i.Semver()
	return err == nil && v.Prerelease() == ""
}

func (i Info) String() string {
	return fmt.Sprintf("unitconv %s (commit: %s, built: %s, %s %s, rates schema %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform, i.RatesSchema)
}

// JSON returns the info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
