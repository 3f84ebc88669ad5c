// Package login provides the auth login command.
package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/schmitthub/slipway/internal/keyring"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/schmitthub/slipway/internal/prompter"
	"github.com/spf13/cobra"
)

// LoginOptions holds options for the auth login command.
type LoginOptions struct {
	IOStreams *iostreams.IOStreams
	Prompter  *prompter.Prompter

	Registry      string // --registry (empty = Docker Hub)
	Username      string // -u, --username
	Password      string // -p, --password
	PasswordStdin bool   // --password-stdin

	// Store writes the credential record; tests swap in a fake.
	Store func(registry string, cred keyring.RegistryCredential) error
}

// NewCmdLogin creates the auth login command.
func NewCmdLogin(f *cmdutil.Factory, runF func(context.Context, *LoginOptions) error) *cobra.Command {
	opts := &LoginOptions{
		IOStreams: f.IOStreams,
		Prompter:  prompter.NewPrompter(f.IOStreams),
		Store:     keyring.StoreRegistry,
	}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store registry credentials in the OS keychain",
		Long: `Stores a registry username and password (or access token) in the
OS keychain for later use by 'slipway release --keychain'.

Nothing is sent to the registry; the credentials are validated only
when a release pushes with them.`,
		Example: `  # Prompt for username and password on the terminal
  slipway auth login

  # Store Docker Hub credentials, reading the token from stdin
  echo "$DOCKER_TOKEN" | slipway auth login --username bob --password-stdin

  # Store credentials for GitHub Container Registry
  slipway auth login --registry ghcr.io --username bob --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Password != "" && opts.PasswordStdin {
				return cmdutil.FlagErrorf("--password and --password-stdin cannot be combined")
			}
			// Missing values are prompted for on a terminal; otherwise
			// they must arrive via flags.
			if !opts.IOStreams.IsInteractive() {
				if opts.Username == "" {
					return cmdutil.FlagErrorf("--username is required when not running interactively")
				}
				if opts.Password == "" && !opts.PasswordStdin {
					return cmdutil.FlagErrorf("a password is required, pass --password or --password-stdin")
				}
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return loginRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry host (default: Docker Hub)")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "Registry username")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Registry password or access token")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func loginRun(_ context.Context, opts *LoginOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	username := opts.Username
	if username == "" {
		var err error
		username, err = opts.Prompter.String(prompter.PromptConfig{
			Message:  "Username",
			Required: true,
		})
		if err != nil {
			return err
		}
	}

	password := opts.Password
	switch {
	case opts.PasswordStdin:
		data, err := io.ReadAll(ios.In)
		if err != nil {
			return fmt.Errorf("reading password from stdin: %w", err)
		}
		password = strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return errors.New("no password provided on stdin")
		}
	case password == "":
		var err error
		password, err = opts.Prompter.Password("Password")
		if err != nil {
			return err
		}
	}

	cred := keyring.RegistryCredential{
		Username: username,
		Password: password,
	}
	if err := opts.Store(opts.Registry, cred); err != nil {
		return fmt.Errorf("storing credentials in the keychain: %w", err)
	}

	registry := registryDisplay(opts.Registry)
	logger.Info().
		Str("registry", registry).
		Str("username", username).
		Msg("registry credentials stored")

	fmt.Fprintf(ios.ErrOut, "%s Stored credentials for %s on %s\n",
		cs.SuccessIcon(), cs.Bold(username), registry)
	return nil
}

func registryDisplay(registry string) string {
	if registry == "" {
		return keyring.DefaultRegistryKey
	}
	return registry
}
