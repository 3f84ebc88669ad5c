// Package list provides the config list command.
package list

import (
	"context"
	"fmt"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/spf13/cobra"
)

// ListOptions holds options for the config list command.
type ListOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
}

// NewCmdList creates the config list command.
func NewCmdList(f *cmdutil.Factory, runF func(context.Context, *ListOptions) error) *cobra.Command {
	opts := &ListOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print every configuration key and its current value",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return listRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func listRun(_ context.Context, opts *ListOptions) error {
	cfg, err := opts.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	for _, opt := range config.Options() {
		value, err := cfg.Value(opt.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(opts.IOStreams.Out, "%s=%s\n", opt.Key, value)
	}
	return nil
}
