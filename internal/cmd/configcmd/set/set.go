// Package set provides the config set command.
package set

import (
	"context"
	"fmt"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/spf13/cobra"
)

// SetOptions holds options for the config set command.
type SetOptions struct {
	IOStreams *iostreams.IOStreams

	Key   string
	Value string

	// Write persists the key; tests swap in a fake.
	Write func(key, value string) error
}

// NewCmdSet creates the config set command.
func NewCmdSet(f *cmdutil.Factory, runF func(context.Context, *SetOptions) error) *cobra.Command {
	opts := &SetOptions{
		IOStreams: f.IOStreams,
		Write: func(key, value string) error {
			return config.NewLoader().Set(key, value)
		},
	}

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a configuration key",
		Long: `Writes a key to the user-level configuration file, creating the
file when it does not exist. Other keys are preserved.`,
		Example: `  slipway config set registry ghcr.io
  slipway config set dockerfile build/Dockerfile
  slipway config set buildkit true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Key = args[0]
			opts.Value = args[1]

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return setRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func setRun(_ context.Context, opts *SetOptions) error {
	if err := opts.Write(opts.Key, opts.Value); err != nil {
		return err
	}

	logger.Debug().Str("key", opts.Key).Msg("configuration key written")

	cs := opts.IOStreams.ColorScheme()
	fmt.Fprintf(opts.IOStreams.ErrOut, "%s Set %s\n", cs.SuccessIcon(), opts.Key)
	return nil
}
