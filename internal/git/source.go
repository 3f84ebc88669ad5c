package git

import (
	"context"
	"errors"
	"fmt"
	"os"

	gogit "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
)

// SourceKind distinguishes a detected local working tree from a temporary clone.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// Source is the build source resolved for one release invocation.
// A remote source owns a temporary directory that Cleanup removes; every
// consumer switches on Kind rather than probing fields.
type Source struct {
	Kind      SourceKind
	Dir       string // build context root
	RemoteURL string // empty only for a local source with no remote configured
	Branch    string // empty for a local source on a detached HEAD

	temp bool // Dir is a temporary directory owned by this source
}

// CloneError reports a failed repository clone.
type CloneError struct {
	URL    string
	Branch string
	Err    error
}

func (e *CloneError) Error() string {
	if e.Branch == "" {
		return fmt.Sprintf("cloning %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("cloning %s at branch %s: %v", e.URL, e.Branch, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// ResolveOptions controls build source resolution.
type ResolveOptions struct {
	// RepoURL, when set, selects remote mode: the repository is cloned into
	// a fresh temporary directory. When empty, WorkDir must be inside a git
	// repository.
	RepoURL string

	// Branch is checked out in remote mode. Empty clones the remote's
	// default branch.
	Branch string

	// WorkDir is where local detection starts. Defaults to the process
	// working directory.
	WorkDir string
}

// ResolveSource produces the build source for a release invocation.
//
// Remote mode clones RepoURL at Branch into a temporary directory and
// returns a *CloneError on failure; the temporary directory never outlives
// the error. Local mode walks up from WorkDir; a missing repository is
// ErrNotRepository, while a missing origin remote only leaves RemoteURL
// empty.
func ResolveSource(ctx context.Context, opts ResolveOptions) (*Source, error) {
	if opts.RepoURL != "" {
		return cloneSource(ctx, opts.RepoURL, opts.Branch)
	}
	return localSource(opts.WorkDir)
}

func localSource(workDir string) (*Source, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		workDir = wd
	}

	mgr, err := NewGitManager(workDir)
	if err != nil {
		return nil, err
	}

	src := &Source{
		Kind: SourceLocal,
		Dir:  mgr.RepoRoot(),
	}

	remoteURL, err := mgr.RemoteURL()
	switch {
	case err == nil:
		src.RemoteURL = remoteURL
	case errors.Is(err, ErrNoRemote):
		// Tolerated: an explicit image name can still be supplied.
	default:
		return nil, err
	}

	branch, err := mgr.GetCurrentBranch()
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, err
	}
	src.Branch = branch

	return src, nil
}

func cloneSource(ctx context.Context, url, branch string) (*Source, error) {
	tempDir, err := os.MkdirTemp("", "slipway-src-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary clone directory: %w", err)
	}

	cloneOpts := &gogit.CloneOptions{
		URL:          url,
		SingleBranch: true,
		Tags:         gogit.AllTags,
	}
	if branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	if _, err := gogit.PlainCloneContext(ctx, tempDir, cloneOpts); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, &CloneError{URL: url, Branch: branch, Err: err}
	}

	return &Source{
		Kind:      SourceRemote,
		Dir:       tempDir,
		RemoteURL: url,
		Branch:    branch,
		temp:      true,
	}, nil
}

// Open opens the repository at the source directory for tag listing and
// HEAD inspection. Works uniformly for both kinds.
func (s *Source) Open() (*GitManager, error) {
	return NewGitManager(s.Dir)
}

// Cleanup removes the temporary clone directory of a remote source. It is a
// no-op for local sources and safe to call more than once.
func (s *Source) Cleanup() error {
	if !s.temp || s.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("removing temporary directory %s: %w", s.Dir, err)
	}
	s.temp = false
	return nil
}
