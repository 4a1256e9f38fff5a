// Package version reports the version of the module.
package version

import (
	"errors"
	"os"
	"runtime/debug"
)

const (
	modulePath = "github.com/anoideaopen/mirror"
	envVersion = "MIRROR_VERSION"
	devel      = "(devel)"
)

// ErrNoBuildInfo is returned when the binary carries no build information.
var ErrNoBuildInfo = errors.New("build information is not available")

// BuildInfo returns the build information of the running binary.
func BuildInfo() (*debug.BuildInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return nil, ErrNoBuildInfo
	}

	return bi, nil
}

// Version returns MIRROR_VERSION when set, else the version of the module
// recorded in the build information, else "(devel)".
func Version() string {
	if v := os.Getenv(envVersion); v != "" {
		return v
	}

	bi, err := BuildInfo()
	if err != nil {
		return devel
	}

	return moduleVersion(bi)
}

func moduleVersion(bi *debug.BuildInfo) string {
	if bi.Main.Path == modulePath && bi.Main.Version != "" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path == modulePath && dep.Version != "" {
			return dep.Version
		}
	}

	return devel
}
