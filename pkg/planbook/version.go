// Package planbook carries build metadata for the planbook module.
package planbook

// Version is the release version, overridable at link time with
// -ldflags "-X github.com/mesh-intelligence/planbook/pkg/planbook.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/planbook"
