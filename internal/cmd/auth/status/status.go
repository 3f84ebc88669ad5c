// Package status provides the auth status command.
package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/schmitthub/slipway/internal/keyring"
	"github.com/spf13/cobra"
)

// StatusOptions holds options for the auth status command.
type StatusOptions struct {
	IOStreams *iostreams.IOStreams

	Registry string // --registry (empty = Docker Hub)

	// Lookup fetches the stored credential record; tests swap in a fake.
	Lookup func(registry string) (*keyring.RegistryCredential, error)
}

// NewCmdStatus creates the auth status command.
func NewCmdStatus(f *cmdutil.Factory, runF func(context.Context, *StatusOptions) error) *cobra.Command {
	opts := &StatusOptions{
		IOStreams: f.IOStreams,
		Lookup:    keyring.LookupRegistry,
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether registry credentials are stored",
		Long: `Reports whether the OS keychain holds credentials for a registry.
No network calls are made; the registry is not contacted.

Exits non-zero when no credentials are stored.`,
		Example: `  # Check the Docker Hub entry
  slipway auth status

  # Check a specific registry
  slipway auth status --registry ghcr.io`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return statusRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry host (default: Docker Hub)")

	return cmd
}

func statusRun(_ context.Context, opts *StatusOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()
	registry := registryDisplay(opts.Registry)

	cred, err := opts.Lookup(opts.Registry)
	if errors.Is(err, keyring.ErrNotFound) {
		fmt.Fprintf(ios.ErrOut, "%s No credentials stored for %s\n", cs.FailureIcon(), registry)
		fmt.Fprintf(ios.ErrOut, "  Run 'slipway auth login' to store some.\n")
		return cmdutil.SilentError
	}
	if err != nil {
		return fmt.Errorf("reading the keychain: %w", err)
	}

	fmt.Fprintf(ios.ErrOut, "%s Credentials stored for %s as %s\n",
		cs.SuccessIcon(), registry, cs.Bold(cred.Username))
	return nil
}

func registryDisplay(registry string) string {
	if registry == "" {
		return keyring.DefaultRegistryKey
	}
	return registry
}
