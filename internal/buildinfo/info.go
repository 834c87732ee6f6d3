// Package buildinfo carries release metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/cleared-dev/bursar/internal/buildinfo.Version=v0.3.0" ./cmd/bursar
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for `bursar --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
