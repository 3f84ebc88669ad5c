// Package release orchestrates the image release sequence: resolve the build
// source, the image reference, and the registry credentials, then build, tag,
// log in, and push through one Docker client.
//
// The sequence is strictly ordered and short-circuits on the first failure.
// Nothing is retried. A remote source's temporary directory is removed on
// every exit path; that removal never overrides the pipeline's own outcome.
package release

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/registry"
	"github.com/google/uuid"

	"github.com/schmitthub/slipway/internal/credentials"
	"github.com/schmitthub/slipway/internal/docker"
	"github.com/schmitthub/slipway/internal/git"
	"github.com/schmitthub/slipway/internal/imageref"
	"github.com/schmitthub/slipway/internal/keyring"
	"github.com/schmitthub/slipway/internal/logger"
	"github.com/schmitthub/slipway/internal/semver"
)

// ErrMissingImageName is returned when no image name was supplied and none
// can be inferred because the repository has no remote.
var ErrMissingImageName = errors.New("no image name: pass one explicitly or add a git remote to infer it from")

// Pipeline runs releases against one Docker client.
type Pipeline struct {
	client *docker.Client
}

// NewPipeline creates a Pipeline using the given client for every Docker
// operation.
func NewPipeline(client *docker.Client) *Pipeline {
	return &Pipeline{client: client}
}

// Options are the fully resolved inputs for one release. Flag/config
// precedence is settled by the caller; the pipeline treats every field as
// final.
type Options struct {
	// RepoURL selects remote mode: the repository is cloned into a temporary
	// directory that is removed when the run finishes. Empty means detect a
	// local repository from WorkDir.
	RepoURL string
	// Branch to clone in remote mode. Ignored for local sources.
	Branch string
	// WorkDir is where local detection starts. Defaults to the process
	// working directory.
	WorkDir string

	// Image is the explicit namespace/repo name. Empty means infer it from
	// the source's remote URL.
	Image string
	// ImageSource records where a non-empty Image came from (explicit flag
	// or config default) for status output. Defaults to explicit.
	ImageSource imageref.Source
	// Tag is the image tag, used verbatim unless AutoVersion is set.
	Tag string
	// AutoVersion replaces Tag with the patch bump of the highest release
	// tag in the source repository (v0.1.0 when it has none).
	AutoVersion bool
	// Registry is the registry host, empty for Docker Hub.
	Registry string

	Username    string
	Password    string
	UseKeychain bool

	// Dockerfile is the path of the Dockerfile relative to the context root.
	Dockerfile string
	BuildArgs  map[string]*string
	// Labels are extra image labels; they win over the generated source
	// labels on conflict.
	Labels  map[string]string
	NoCache bool
	Pull    bool
	// UseBuildKit routes the build through the BuildKit builder when the
	// client has one wired.
	UseBuildKit bool

	// DryRun resolves the source, reference, and credentials for real
	// (including a remote clone and its cleanup) but skips every Docker
	// operation.
	DryRun bool

	// Output receives the raw build output stream. Nil discards it.
	Output io.Writer

	// LookupEnv and LookupKeychain are injected into credential resolution.
	// Nil selects the process environment and the OS keychain.
	LookupEnv      func(string) (string, bool)
	LookupKeychain func(registry string) (*keyring.RegistryCredential, error)
}

// Result reports what one release run did.
type Result struct {
	RunID      string
	Reference  imageref.Reference
	SourceKind git.SourceKind
	RemoteURL  string

	ImageID  string
	Digest   string // content digest reported by the registry, may be empty
	Size     int64  // image size in bytes, 0 when inspection failed
	Duration time.Duration

	Pushed         bool
	LoginRequired  bool // credentials resolved to a full identity
	LoginPerformed bool
	DryRun         bool
}

// Run executes the release sequence and returns a Result only when every
// step succeeded (or, for a dry run, when resolution succeeded). A failure
// downstream of a successful step fails the whole run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	if opts.Dockerfile == "" {
		opts.Dockerfile = "Dockerfile"
	}

	src, err := git.ResolveSource(ctx, git.ResolveOptions{
		RepoURL: opts.RepoURL,
		Branch:  opts.Branch,
		WorkDir: opts.WorkDir,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Cleanup(); err != nil {
			logger.Warn().Err(err).Str("run_id", runID).Msg("temporary source cleanup failed")
		}
	}()

	logger.Info().
		Str("run_id", runID).
		Str("kind", string(src.Kind)).
		Str("dir", src.Dir).
		Msg("build source resolved")

	mgr, err := src.Open()
	if err != nil {
		return nil, err
	}

	ref, err := resolveReference(mgr, src, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("run_id", runID).
		Str("reference", ref.String()).
		Str("name_source", string(ref.Source)).
		Msg("image reference resolved")

	creds, loginRequired, err := credentials.Resolve(credentials.Options{
		Username:       opts.Username,
		Password:       opts.Password,
		Registry:       opts.Registry,
		UseKeychain:    opts.UseKeychain,
		LookupEnv:      opts.LookupEnv,
		LookupKeychain: opts.LookupKeychain,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("run_id", runID).
		Bool("login_required", loginRequired).
		Msg("credentials resolved")

	result := &Result{
		RunID:         runID,
		Reference:     ref,
		SourceKind:    src.Kind,
		RemoteURL:     src.RemoteURL,
		LoginRequired: loginRequired,
	}

	if opts.DryRun {
		result.DryRun = true
		result.Duration = time.Since(start)
		return result, nil
	}

	if err := checkDockerfile(src.Dir, opts.Dockerfile); err != nil {
		return nil, err
	}

	imageID, err := p.build(ctx, src, mgr, ref, opts)
	if err != nil {
		return nil, err
	}
	result.ImageID = imageID

	if err := p.client.Tag(ctx, imageID, ref.String()); err != nil {
		return nil, err
	}

	auth := registry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Password,
		ServerAddress: creds.Registry,
	}
	if loginRequired {
		status, err := p.client.Login(ctx, auth)
		if err != nil {
			return nil, err
		}
		result.LoginPerformed = true
		logger.Info().Str("run_id", runID).Str("status", status).Msg("registry login")
	}

	digest, err := p.client.Push(ctx, ref.String(), auth)
	if err != nil {
		return nil, err
	}
	result.Pushed = true
	result.Digest = digest

	if size, err := p.client.ImageSize(ctx, ref.String()); err != nil {
		logger.Debug().Err(err).Str("run_id", runID).Msg("image size unavailable")
	} else {
		result.Size = size
	}

	result.Duration = time.Since(start)
	logger.Info().
		Str("run_id", runID).
		Str("reference", ref.String()).
		Str("digest", digest).
		Dur("duration", result.Duration).
		Msg("release complete")
	return result, nil
}

// resolveReference settles the image name, tag, and registry for this run.
// The name comes from the options or is inferred from the source's remote;
// the tag comes from the options or from auto-versioning over the source's
// git tags.
func resolveReference(mgr *git.GitManager, src *git.Source, opts Options) (imageref.Reference, error) {
	ref := imageref.Reference{Registry: opts.Registry}

	if opts.Image != "" {
		if err := imageref.ValidateName(opts.Image); err != nil {
			return imageref.Reference{}, err
		}
		ref.Name = opts.Image
		ref.Source = opts.ImageSource
		if ref.Source == "" {
			ref.Source = imageref.SourceExplicit
		}
	} else {
		if src.RemoteURL == "" {
			return imageref.Reference{}, ErrMissingImageName
		}
		name, err := imageref.InferName(src.RemoteURL)
		if err != nil {
			return imageref.Reference{}, err
		}
		ref.Name = name
		ref.Source = imageref.SourceInferred
	}

	if opts.AutoVersion {
		tags, err := mgr.Tags()
		if err != nil {
			return imageref.Reference{}, err
		}
		next, err := semver.NextRelease(tags)
		if err != nil {
			return imageref.Reference{}, err
		}
		ref.Tag = next.String()
	} else {
		if err := imageref.ValidateTag(opts.Tag); err != nil {
			return imageref.Reference{}, err
		}
		ref.Tag = opts.Tag
	}

	return ref, nil
}

// checkDockerfile verifies the Dockerfile exists under the context root
// before any daemon round-trip.
func checkDockerfile(contextDir, dockerfile string) error {
	path := filepath.Join(contextDir, dockerfile)
	if _, err := os.Stat(path); err != nil {
		return docker.ErrDockerfileNotFound(dockerfile, err)
	}
	return nil
}

// build runs the image build with the resolved reference as its tag and
// returns the built image ID.
func (p *Pipeline) build(ctx context.Context, src *git.Source, mgr *git.GitManager, ref imageref.Reference, opts Options) (string, error) {
	revision, err := mgr.HeadSHA()
	if err != nil {
		// A repository with no commits still builds; it just loses the
		// revision label.
		logger.Debug().Err(err).Msg("revision unavailable for image labels")
		revision = ""
	}
	labels := docker.MergeLabels(
		docker.ReleaseLabels(src.RemoteURL, revision, ref.Tag),
		opts.Labels,
	)

	imageID, err := p.client.Build(ctx, docker.BuildOptions{
		ContextDir:  src.Dir,
		Dockerfile:  opts.Dockerfile,
		Tags:        []string{ref.String()},
		BuildArgs:   opts.BuildArgs,
		Labels:      labels,
		NoCache:     opts.NoCache,
		Pull:        opts.Pull,
		UseBuildKit: opts.UseBuildKit,
		Output:      opts.Output,
	})
	if err != nil {
		return "", err
	}
	if imageID == "" {
		return "", docker.ErrImageBuildFailed(errors.New("build completed but no image ID was reported"))
	}
	return imageID, nil
}
