// Package configcmd groups the user-level configuration commands.
package configcmd

import (
	"github.com/schmitthub/slipway/internal/cmd/configcmd/get"
	"github.com/schmitthub/slipway/internal/cmd/configcmd/list"
	"github.com/schmitthub/slipway/internal/cmd/configcmd/path"
	"github.com/schmitthub/slipway/internal/cmd/configcmd/set"
	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdConfig creates the config command.
func NewCmdConfig(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage slipway configuration",
		Long: `Read and write the user-level configuration file.

Values set here are defaults; command-line flags always win over them.`,
	}

	cmd.AddCommand(get.NewCmdGet(f, nil))
	cmd.AddCommand(set.NewCmdSet(f, nil))
	cmd.AddCommand(list.NewCmdList(f, nil))
	cmd.AddCommand(path.NewCmdPath(f, nil))

	return cmd
}
