package cmdutil

import (
	"context"

	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/docker"
	"github.com/schmitthub/slipway/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Working directory commands operate on (defaults to the process cwd)
	WorkDir string
	Debug   bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	// IO streams for input/output (for testability)
	IOStreams *iostreams.IOStreams

	// Dependency providers (closures wired by factory constructor)
	Client      func(context.Context) (*docker.Client, error)
	CloseClient func()

	Config func() (*config.Config, error)

	BuildKitEnabled func(context.Context) (bool, error)
}
