// Package get provides the config get command.
package get

import (
	"context"
	"fmt"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/spf13/cobra"
)

// GetOptions holds options for the config get command.
type GetOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)

	Key string
}

// NewCmdGet creates the config get command.
func NewCmdGet(f *cmdutil.Factory, runF func(context.Context, *GetOptions) error) *cobra.Command {
	opts := &GetOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
	}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a configuration key",
		Example: `  slipway config get registry
  slipway config get dockerfile`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Key = args[0]

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return getRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func getRun(_ context.Context, opts *GetOptions) error {
	cfg, err := opts.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	value, err := cfg.Value(opts.Key)
	if err != nil {
		return err
	}

	fmt.Fprintln(opts.IOStreams.Out, value)
	return nil
}
