// Package auth groups the registry credential commands. Credentials live in
// the OS keychain and are read back by 'slipway release --keychain'.
package auth

import (
	"github.com/schmitthub/slipway/internal/cmd/auth/login"
	"github.com/schmitthub/slipway/internal/cmd/auth/logout"
	"github.com/schmitthub/slipway/internal/cmd/auth/status"
	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdAuth creates the auth command.
func NewCmdAuth(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage registry credentials in the OS keychain",
		Long: `Store, remove, and inspect the registry credentials that
'slipway release --keychain' uses for pushing images.

Credentials are kept per registry host; when no --registry is given,
commands operate on the Docker Hub entry.`,
	}

	cmd.AddCommand(login.NewCmdLogin(f, nil))
	cmd.AddCommand(logout.NewCmdLogout(f, nil))
	cmd.AddCommand(status.NewCmdStatus(f, nil))

	return cmd
}
