// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/annoview/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/annoview/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/annoview/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Protocol is the document API version spoken by this build. Client and
// server refuse to talk across versions.
const Protocol = "1"

// ProtocolHeader carries [Protocol] on every API request and response.
const ProtocolHeader = "X-Annoview-Protocol"

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\nprotocol: %s", Version, Commit, Date, Protocol)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\nprotocol: %s\n", Version, Commit, Date, Protocol)
}
