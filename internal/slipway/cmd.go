// Package slipway wires the CLI entry point: factory construction, root
// command execution, and the mapping from errors to exit codes.
package slipway

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/schmitthub/slipway/internal/cmd/factory"
	"github.com/schmitthub/slipway/internal/cmd/root"
	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/schmitthub/slipway/internal/update"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = ""
)

const (
	exitOK     = 0
	exitError  = 1
	exitUsage  = 2
	exitCancel = 4
)

// updateRepo is the GitHub repository polled for new releases.
const updateRepo = "schmitthub/slipway"

// Main is the entry point for the slipway CLI.
// It initializes the Factory, creates the root command, executes it, and
// maps the outcome to an exit code: 0 success, 1 runtime error, 2 usage
// error, 4 cancellation.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	defer f.CloseClient()

	updateChan := startUpdateCheck(f.IOStreams)

	rootCmd, err := root.NewCmdRoot(f, Version, BuildDate)
	if err != nil {
		fmt.Fprintf(f.IOStreams.ErrOut, "Error: failed to initialize: %v\n", err)
		return exitError
	}

	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		return handleExecuteError(f.IOStreams, cmd, err)
	}

	printUpdateNotification(f.IOStreams, <-updateChan)
	return exitOK
}

// startUpdateCheck polls GitHub for a newer release in the background while
// the command runs. The returned channel yields exactly one value; nil means
// no notification. The check is skipped entirely when stderr is not a
// terminal, since that is the only place the notification would be printed.
func startUpdateCheck(ios *iostreams.IOStreams) <-chan *update.CheckResult {
	ch := make(chan *update.CheckResult, 1)
	if !ios.IsStderrTTY() {
		ch <- nil
		return ch
	}
	go func() {
		stateFilePath := filepath.Join(config.Dir(), "state.yml")
		result, err := update.CheckForUpdate(context.Background(), stateFilePath, Version, updateRepo)
		if err != nil {
			logger.Debug().Err(err).Msg("update check failed")
			ch <- nil
			return
		}
		ch <- result
	}()
	return ch
}

// printUpdateNotification announces a newer release on stderr. Nothing is
// printed for a nil result or when stderr is not a terminal.
func printUpdateNotification(ios *iostreams.IOStreams, result *update.CheckResult) {
	if result == nil || !ios.IsStderrTTY() {
		return
	}

	cs := ios.ColorScheme()
	fmt.Fprintf(ios.ErrOut, "\n%s %s → %s\n",
		cs.Yellow("A new release of slipway is available:"),
		cs.Cyan(result.CurrentVersion),
		cs.Cyan(result.LatestVersion))
	fmt.Fprintln(ios.ErrOut, "To upgrade:")
	fmt.Fprintln(ios.ErrOut, "  brew upgrade slipway")
	fmt.Fprintln(ios.ErrOut, "  curl -fsSL https://raw.githubusercontent.com/schmitthub/slipway/main/install.sh | sh")
	fmt.Fprintf(ios.ErrOut, "%s\n\n", cs.Muted(result.ReleaseURL))
}

// handleExecuteError renders the error and picks the exit code. The root
// command silences cobra's own printing, so all rendering happens here.
func handleExecuteError(ios *iostreams.IOStreams, cmd *cobra.Command, err error) int {
	if cmdutil.IsUserCancellation(err) {
		// Terminate the ^C line so the shell prompt starts clean.
		fmt.Fprintln(ios.ErrOut)
		return exitCancel
	}

	if errors.Is(err, cmdutil.SilentError) {
		return exitError
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintf(ios.ErrOut, "Error: %s\n\n", flagErr.Error())
		fmt.Fprint(ios.ErrOut, cmd.UsageString())
		return exitUsage
	}

	cmdutil.HandleError(ios, err)
	cmdutil.PrintHelpHint(ios, cmd.CommandPath())
	return exitError
}
