// Package path provides the config path command.
package path

import (
	"context"
	"fmt"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/spf13/cobra"
)

// PathOptions holds options for the config path command.
type PathOptions struct {
	IOStreams *iostreams.IOStreams

	// ConfigPath returns the config file location; tests swap in a fake.
	ConfigPath func() string
}

// NewCmdPath creates the config path command.
func NewCmdPath(f *cmdutil.Factory, runF func(context.Context, *PathOptions) error) *cobra.Command {
	opts := &PathOptions{
		IOStreams: f.IOStreams,
		ConfigPath: func() string {
			return config.NewLoader().ConfigPath()
		},
	}

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return pathRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func pathRun(_ context.Context, opts *PathOptions) error {
	fmt.Fprintln(opts.IOStreams.Out, opts.ConfigPath())
	return nil
}
