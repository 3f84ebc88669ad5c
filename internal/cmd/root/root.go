// Package root builds the slipway command tree.
package root

import (
	authcmd "github.com/schmitthub/slipway/internal/cmd/auth"
	"github.com/schmitthub/slipway/internal/cmd/configcmd"
	releasecmd "github.com/schmitthub/slipway/internal/cmd/release"
	versioncmd "github.com/schmitthub/slipway/internal/cmd/version"
	"github.com/schmitthub/slipway/internal/cmdutil"
	internalconfig "github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/spf13/cobra"
)

// NewCmdRoot creates the root command for the slipway CLI.
func NewCmdRoot(f *cmdutil.Factory, version, buildDate string) (*cobra.Command, error) {
	var debug bool

	cmd := &cobra.Command{
		Use:   "slipway",
		Short: "Release Docker images straight from Git context",
		Long: `Slipway builds, tags, and pushes Docker images, taking the build
context, image name, and version from a Git repository instead of flags.

Quick start:
  slipway release                  # Release the repository in the current directory
  slipway release --auto-version   # Tag with the patch bump of the highest semver tag
  slipway release --repo URL       # Clone, build, and push without a local checkout
  slipway auth login               # Store registry credentials in the OS keychain`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, buildDate),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f.Debug = debug

			initializeLogger(debug)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", debug).
				Msg("slipway starting")

			return nil
		},
		Version: f.Version,
	}

	// Flag parse failures are usage errors; Main() maps them to exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cmdutil.FlagErrorWrap(err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "Enable debug logging")

	// Version template
	cmd.SetVersionTemplate(versioncmd.Format(version, buildDate) + "\n")

	cmd.AddCommand(releasecmd.NewCmdRelease(f, nil))
	cmd.AddCommand(authcmd.NewCmdAuth(f))
	cmd.AddCommand(configcmd.NewCmdConfig(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f, version, buildDate))

	return cmd, nil
}

// initializeLogger sets up the logger, mirroring to the configured log file
// when one is set. Falls back to console-only logging on any error.
func initializeLogger(debug bool) {
	cfg, err := internalconfig.NewLoader().LoadOrDefault()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to load configuration")
		return
	}

	if cfg.LogFile == "" {
		logger.Init(debug)
		return
	}

	if err := logger.InitWithFile(debug, cfg.LogFile); err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
