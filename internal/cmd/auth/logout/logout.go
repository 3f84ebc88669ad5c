// Package logout provides the auth logout command.
package logout

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/schmitthub/slipway/internal/keyring"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/schmitthub/slipway/internal/prompter"
	"github.com/spf13/cobra"
)

// LogoutOptions holds options for the auth logout command.
type LogoutOptions struct {
	IOStreams *iostreams.IOStreams
	Prompter  *prompter.Prompter

	Registry string // --registry (empty = Docker Hub)

	// Erase removes the credential record; tests swap in a fake.
	Erase func(registry string) error
}

// NewCmdLogout creates the auth logout command.
func NewCmdLogout(f *cmdutil.Factory, runF func(context.Context, *LogoutOptions) error) *cobra.Command {
	opts := &LogoutOptions{
		IOStreams: f.IOStreams,
		Prompter:  prompter.NewPrompter(f.IOStreams),
		Erase:     keyring.EraseRegistry,
	}

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove registry credentials from the OS keychain",
		Example: `  # Remove the Docker Hub entry
  slipway auth logout

  # Remove the entry for a specific registry
  slipway auth logout --registry ghcr.io`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return logoutRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry host (default: Docker Hub)")

	return cmd
}

func logoutRun(_ context.Context, opts *LogoutOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()
	registry := registryDisplay(opts.Registry)

	if ios.IsInteractive() {
		ok, err := opts.Prompter.Confirm(fmt.Sprintf("Remove stored credentials for %s?", registry), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(ios.ErrOut, "Keeping credentials for %s\n", registry)
			return nil
		}
	}

	err := opts.Erase(opts.Registry)
	if errors.Is(err, keyring.ErrNotFound) {
		// The desired state already holds.
		fmt.Fprintf(ios.ErrOut, "%s No stored credentials for %s\n", cs.WarningIcon(), registry)
		return nil
	}
	if err != nil {
		return fmt.Errorf("removing credentials from the keychain: %w", err)
	}

	logger.Info().Str("registry", registry).Msg("registry credentials removed")
	fmt.Fprintf(ios.ErrOut, "%s Removed credentials for %s\n", cs.SuccessIcon(), registry)
	return nil
}

func registryDisplay(registry string) string {
	if registry == "" {
		return keyring.DefaultRegistryKey
	}
	return registry
}
