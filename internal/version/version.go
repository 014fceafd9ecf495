// Package version provides build-time version information.
//
// Set at build time via:
//
//	go build -ldflags "-X github.com/mfateev/ptygw/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

// Release is the semantic version of the gateway.
const Release = "0.3.0"

// GitCommit is the short git commit hash, set at build time via ldflags.
var GitCommit = "dev"

// Version returns "<release>+<commit>".
func Version() string {
	return Release + "+" + GitCommit
}
