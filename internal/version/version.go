// Package version holds this build's release identity.
package version

import "github.com/blang/semver/v4"

const (
	Name        = "uksat"
	ReleaseType = "beta"
)

// Version is the current release, paralleling the uksat_VERSIONNAME
// macro of the source implementation.
var Version = semver.MustParse("0.2.0-beta")

// String returns "uksat 0.2.0-beta".
func String() string {
	return Name + " " + Version.String()
}
