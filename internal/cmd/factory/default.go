package factory

import (
	"context"
	"os"
	"sync"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/docker"
	"github.com/schmitthub/slipway/internal/docker/buildkit"
	"github.com/schmitthub/slipway/internal/iostreams"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (internal/slipway/cmd.go).
// Tests should NOT import this package — construct &cmdutil.Factory{} directly.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()

	// Auto-detect color support
	if ios.IsOutputTTY() {
		// Respect NO_COLOR environment variable
		if os.Getenv("NO_COLOR") != "" {
			ios.SetColorEnabled(false)
		}
	} else {
		ios.SetColorEnabled(false)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	f := &cmdutil.Factory{
		WorkDir:   wd,
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	// --- Lazy dependency closures ---

	// Docker client
	var (
		clientOnce sync.Once
		client     *docker.Client
		clientErr  error
	)
	f.Client = func(ctx context.Context) (*docker.Client, error) {
		clientOnce.Do(func() {
			client, clientErr = docker.NewClient(ctx)
			if clientErr == nil {
				client.BuildKitImageBuilder = buildkit.NewImageBuilder(client.APIClient)
			}
		})
		return client, clientErr
	}
	f.CloseClient = func() {
		if client != nil {
			client.Close()
		}
	}

	// Config
	var (
		configOnce sync.Once
		configData *config.Config
		configErr  error
	)
	f.Config = func() (*config.Config, error) {
		configOnce.Do(func() {
			configData, configErr = config.NewLoader().LoadOrDefault()
		})
		return configData, configErr
	}

	// BuildKitEnabled — detects BuildKit support from env var or daemon ping
	f.BuildKitEnabled = func(ctx context.Context) (bool, error) {
		client, err := f.Client(ctx)
		if err != nil {
			return false, err
		}
		return docker.BuildKitEnabled(ctx, client.APIClient)
	}

	return f
}
