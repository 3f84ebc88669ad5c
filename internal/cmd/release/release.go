// Package release provides the release command: build, tag, and push a
// Docker image from a local or freshly cloned Git repository.
package release

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/docker"
	"github.com/schmitthub/slipway/internal/git"
	"github.com/schmitthub/slipway/internal/imageref"
	"github.com/schmitthub/slipway/internal/iostreams"
	"github.com/schmitthub/slipway/internal/keyring"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/schmitthub/slipway/internal/release"
	"github.com/schmitthub/slipway/internal/signals"
	"github.com/spf13/cobra"
)

// ReleaseOptions contains the options for the release command.
type ReleaseOptions struct {
	IOStreams       *iostreams.IOStreams
	Config          func() (*config.Config, error)
	Client          func(context.Context) (*docker.Client, error)
	BuildKitEnabled func(context.Context) (bool, error)
	WorkDir         string

	RepoURL     string   // --repo (remote URL; empty = detect local repository)
	Branch      string   // -b, --branch (remote clone branch)
	Image       string   // --image (explicit namespace/repo)
	Tag         string   // -t, --tag
	AutoVersion bool     // --auto-version (bump patch from highest semver tag)
	Dockerfile  string   // -f, --dockerfile (empty = config value)
	BuildArgs   []string // --build-arg KEY=VALUE
	Username    string   // --username
	Password    string   // --password
	UseKeychain bool     // --keychain (use credentials stored by 'slipway auth login')
	Registry    string   // --registry (empty = config value, then Docker Hub)
	BuildKit    bool     // --buildkit
	BuildKitSet bool     // whether --buildkit was given explicitly
	Labels      []string // --label KEY=VALUE
	NoCache     bool     // --no-cache
	Pull        bool     // --pull
	DryRun      bool     // --dry-run
	JSON        bool     // --json
	Quiet       bool     // -q, --quiet
}

// NewCmdRelease creates the release command.
func NewCmdRelease(f *cmdutil.Factory, runF func(context.Context, *ReleaseOptions) error) *cobra.Command {
	opts := &ReleaseOptions{
		IOStreams:       f.IOStreams,
		Config:          f.Config,
		Client:          f.Client,
		BuildKitEnabled: f.BuildKitEnabled,
		WorkDir:         f.WorkDir,
	}

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Build, tag, and push a Docker image release",
		Long: `Runs the full image release pipeline: resolve the Git context,
build the image, tag it, and push it to a registry.

Without --repo the current directory must be inside a Git repository,
which becomes the build context. With --repo the repository is cloned
into a temporary directory that is always removed afterwards, even
when the release fails.

The image name defaults to owner/repo parsed from the Git remote URL;
override it with --image or the 'image' config key. The tag comes from
--tag, or from --auto-version, which bumps the patch of the highest
semver tag in the repository (v0.1.0 when it has none).

Registry credentials are taken from --username/--password, the
DOCKER_USERNAME/DOCKER_PASSWORD environment variables, or the OS
keychain (--keychain, after 'slipway auth login'). With no credentials
the push relies on the Docker daemon's existing session.`,
		Example: `  # Release the repository in the current directory as owner/repo:latest
  slipway release

  # Release a remote repository without a local checkout
  slipway release --repo git@github.com:acme/widget.git --branch release

  # Bump the patch version from the highest existing semver tag
  slipway release --auto-version

  # Push to GitHub Container Registry with stored credentials
  slipway release --registry ghcr.io --keychain

  # Resolve everything but skip the Docker work
  slipway release --dry-run

  # Machine-readable result
  slipway release --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.BuildKitSet = cmd.Flags().Changed("buildkit")

			if opts.JSON && opts.Quiet {
				return cmdutil.FlagErrorf("--json and --quiet cannot be combined")
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return releaseRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.RepoURL, "repo", "", "Remote repository URL to clone as the build context")
	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "main", "Branch to clone with --repo")
	cmd.Flags().StringVar(&opts.Image, "image", "", "Image name (namespace/repo), overrides remote inference")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "latest", "Image tag")
	cmd.Flags().BoolVar(&opts.AutoVersion, "auto-version", false, "Tag with the patch bump of the highest semver Git tag")
	cmd.Flags().StringVarP(&opts.Dockerfile, "dockerfile", "f", "", "Path to the Dockerfile, relative to the context root (default \"Dockerfile\")")
	cmd.Flags().StringArrayVar(&opts.BuildArgs, "build-arg", nil, "Set build-time variables (format: KEY=VALUE)")
	cmd.Flags().StringVar(&opts.Username, "username", "", "Registry username (env: DOCKER_USERNAME)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Registry password or token (env: DOCKER_PASSWORD)")
	cmd.Flags().BoolVar(&opts.UseKeychain, "keychain", false, "Use credentials stored by 'slipway auth login'")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry host (default: Docker Hub)")
	cmd.Flags().BoolVar(&opts.BuildKit, "buildkit", false, "Build with BuildKit (env: DOCKER_BUILDKIT)")
	cmd.Flags().StringArrayVar(&opts.Labels, "label", nil, "Set extra image labels (format: KEY=VALUE)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Do not use cache when building the image")
	cmd.Flags().BoolVar(&opts.Pull, "pull", false, "Always attempt to pull a newer version of the base image")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Resolve the release plan but skip all Docker operations")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output the release result as JSON")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress status output, print only the pushed reference")

	return cmd
}

func releaseRun(ctx context.Context, opts *ReleaseOptions) error {
	ctx, cancel := signals.SetupSignalContext(ctx)
	defer cancel()

	ios := opts.IOStreams
	cs := ios.ColorScheme()

	cfg, err := opts.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flag > config > built-in default
	image := opts.Image
	imageSource := imageref.SourceExplicit
	if image == "" && cfg.Image != "" {
		image = cfg.Image
		imageSource = imageref.SourceConfig
	}
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = cfg.Dockerfile
	}
	registry := opts.Registry
	if registry == "" {
		registry = cfg.Registry
	}

	buildArgs := parseBuildArgs(opts.BuildArgs)
	labels, invalid := parseKeyValuePairs(opts.Labels)
	if len(invalid) > 0 {
		logger.Warn().
			Strs("invalid_labels", invalid).
			Msg("labels without '=' were ignored, use format KEY=VALUE")
		cmdutil.PrintStatus(ios, opts.Quiet, "%s Ignoring malformed labels (use KEY=VALUE): %s",
			cs.WarningIcon(), strings.Join(invalid, ", "))
	}

	useBuildKit, err := resolveBuildKit(ctx, opts, cfg)
	if err != nil {
		return err
	}

	// --dry-run never touches the daemon, so don't connect for it.
	var client *docker.Client
	if !opts.DryRun {
		err := ios.RunWithProgress("Connecting to Docker", func() error {
			var connErr error
			client, connErr = opts.Client(ctx)
			return connErr
		})
		if err != nil {
			return err
		}
	}

	buildOutput := releaseOutput(ios, opts)

	pipeline := release.NewPipeline(client)
	result, err := pipeline.Run(ctx, release.Options{
		RepoURL:        opts.RepoURL,
		Branch:         opts.Branch,
		WorkDir:        opts.WorkDir,
		Image:          image,
		ImageSource:    imageSource,
		Tag:            opts.Tag,
		AutoVersion:    opts.AutoVersion,
		Registry:       registry,
		Username:       opts.Username,
		Password:       opts.Password,
		UseKeychain:    opts.UseKeychain,
		Dockerfile:     dockerfile,
		BuildArgs:      buildArgs,
		Labels:         labels,
		NoCache:        opts.NoCache,
		Pull:           opts.Pull,
		UseBuildKit:    useBuildKit,
		DryRun:         opts.DryRun,
		Output:         buildOutput,
		LookupEnv:      os.LookupEnv,
		LookupKeychain: keyring.LookupRegistry,
	})
	if err != nil {
		return err
	}

	return printResult(ios, opts, result)
}

// resolveBuildKit decides the build backend: an explicit --buildkit wins,
// then the config key, then environment/daemon detection. Detection needs a
// daemon connection, so a dry run with no explicit preference stays classic.
func resolveBuildKit(ctx context.Context, opts *ReleaseOptions, cfg *config.Config) (bool, error) {
	switch {
	case opts.BuildKitSet:
		return opts.BuildKit, nil
	case cfg.BuildKit:
		return true, nil
	case opts.DryRun:
		return false, nil
	}

	enabled, err := opts.BuildKitEnabled(ctx)
	if err != nil {
		return false, err
	}
	return enabled, nil
}

// releaseOutput picks the writer for the raw daemon build/push stream.
// Machine modes discard it; human runs get it on stderr so stdout stays
// reserved for the final reference or JSON.
func releaseOutput(ios *iostreams.IOStreams, opts *ReleaseOptions) io.Writer {
	if opts.Quiet || opts.JSON {
		return nil
	}
	return ios.ErrOut
}

type releaseView struct {
	RunID          string `json:"run_id"`
	Reference      string `json:"reference"`
	Source         string `json:"source"`
	RemoteURL      string `json:"remote_url,omitempty"`
	ImageID        string `json:"image_id,omitempty"`
	Digest         string `json:"digest,omitempty"`
	Size           int64  `json:"size,omitempty"`
	Duration       string `json:"duration"`
	Pushed         bool   `json:"pushed"`
	LoginPerformed bool   `json:"login_performed"`
	DryRun         bool   `json:"dry_run,omitempty"`
}

func printResult(ios *iostreams.IOStreams, opts *ReleaseOptions, result *release.Result) error {
	if opts.JSON {
		return cmdutil.OutputJSON(ios, releaseView{
			RunID:          result.RunID,
			Reference:      result.Reference.String(),
			Source:         string(result.SourceKind),
			RemoteURL:      result.RemoteURL,
			ImageID:        result.ImageID,
			Digest:         result.Digest,
			Size:           result.Size,
			Duration:       result.Duration.Round(time.Millisecond).String(),
			Pushed:         result.Pushed,
			LoginPerformed: result.LoginPerformed,
			DryRun:         result.DryRun,
		})
	}

	if opts.Quiet {
		fmt.Fprintln(ios.Out, result.Reference.String())
		return nil
	}

	cs := ios.ColorScheme()

	if result.DryRun {
		fmt.Fprintf(ios.ErrOut, "%s Dry run complete, no Docker operations performed\n", cs.SuccessIcon())
		fmt.Fprintf(ios.ErrOut, "  Reference: %s\n", cs.Bold(result.Reference.String()))
		fmt.Fprintf(ios.ErrOut, "  Source:    %s\n", describeSource(result))
		if result.LoginRequired {
			fmt.Fprintf(ios.ErrOut, "  Login:     required, credentials resolved\n")
		} else {
			fmt.Fprintf(ios.ErrOut, "  Login:     not required, using the daemon's session\n")
		}
		return nil
	}

	fmt.Fprintf(ios.ErrOut, "%s Released %s\n", cs.SuccessIcon(), cs.Bold(result.Reference.String()))
	if result.ImageID != "" {
		fmt.Fprintf(ios.ErrOut, "  Image ID: %s\n", shortImageID(result.ImageID))
	}
	if result.Digest != "" {
		fmt.Fprintf(ios.ErrOut, "  Digest:   %s\n", result.Digest)
	}
	if result.Size > 0 {
		fmt.Fprintf(ios.ErrOut, "  Size:     %s\n", units.HumanSize(float64(result.Size)))
	}
	fmt.Fprintf(ios.ErrOut, "  Duration: %s\n", units.HumanDuration(result.Duration))
	return nil
}

func describeSource(result *release.Result) string {
	if result.SourceKind == git.SourceRemote {
		return fmt.Sprintf("clone of %s", result.RemoteURL)
	}
	if result.RemoteURL != "" {
		return fmt.Sprintf("local repository (%s)", result.RemoteURL)
	}
	return "local repository"
}

// shortImageID trims a sha256-prefixed image ID to the 12-character form
// the Docker CLI prints.
func shortImageID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// parseBuildArgs parses KEY=VALUE build arguments into a map.
// A bare KEY maps to nil, which the daemon fills from its environment.
func parseBuildArgs(args []string) map[string]*string {
	if len(args) == 0 {
		return nil
	}
	result := make(map[string]*string)
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) == 2 {
			value := parts[1]
			result[parts[0]] = &value
		} else if len(parts) == 1 {
			result[parts[0]] = nil
		}
	}
	return result
}

// parseKeyValuePairs parses KEY=VALUE pairs into a string map and returns
// the pairs that had no '=' for the caller to warn about.
func parseKeyValuePairs(pairs []string) (map[string]string, []string) {
	if len(pairs) == 0 {
		return nil, nil
	}
	result := make(map[string]string)
	var invalid []string
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			invalid = append(invalid, pair)
		}
	}
	return result, invalid
}
