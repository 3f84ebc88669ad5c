// Package git provides the Git operations behind a release: local
// repository detection, remote and branch inspection, tag listing, and
// temporary clones.
//
// This is a Tier 1 (Leaf) package in the slipway architecture:
//   - It imports ONLY stdlib and go-git packages
//   - It does NOT import any internal packages
//   - Configuration is passed as parameters, not via config package imports
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
)

// defaultRemote is the remote consulted for URL inference.
const defaultRemote = "origin"

var (
	// ErrNotRepository is returned when the path is not inside a git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrNoRemote is returned when the repository has no origin remote.
	// Callers treat this as soft: it blocks image name inference, nothing else.
	ErrNoRemote = errors.New("no remote configured")
)

// GitManager is the facade for read operations on an opened repository.
type GitManager struct {
	repo     *gogit.Repository
	repoRoot string
}

// NewGitManager opens the git repository containing the given path.
// It walks up the directory tree to find the repository root.
//
// Returns ErrNotRepository (wrapped) if path is not inside a git repository.
func NewGitManager(path string) (*GitManager, error) {
	// PlainOpenWithOptions with DetectDotGit walks up to find the repo
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	// Get the repository root from the worktree filesystem
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	return &GitManager{
		repo:     repo,
		repoRoot: wt.Filesystem.Root(),
	}, nil
}

// NewGitManagerWithRepo creates a GitManager from an existing go-git Repository.
// This is primarily used for testing with in-memory repositories.
// The repoRoot parameter should be the logical root directory (can be a fake path for testing).
func NewGitManagerWithRepo(repo *gogit.Repository, repoRoot string) *GitManager {
	return &GitManager{
		repo:     repo,
		repoRoot: repoRoot,
	}
}

// Repository returns the underlying go-git Repository.
func (g *GitManager) Repository() *gogit.Repository {
	return g.repo
}

// RepoRoot returns the root directory of the git repository.
func (g *GitManager) RepoRoot() string {
	return g.repoRoot
}

// GetCurrentBranch returns the current branch name of the repository.
// Returns empty string and no error for detached HEAD state.
func (g *GitManager) GetCurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}

	if head.Name() == plumbing.HEAD {
		// Detached HEAD
		return "", nil
	}

	return head.Name().Short(), nil
}

// RemoteURL returns the fetch URL of the origin remote.
// Returns ErrNoRemote (wrapped) when the remote is missing or has no URL.
func (g *GitManager) RemoteURL() (string, error) {
	remote, err := g.repo.Remote(defaultRemote)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNoRemote, defaultRemote)
		}
		return "", fmt.Errorf("reading remote %s: %w", defaultRemote, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: remote %s has no URL", ErrNoRemote, defaultRemote)
	}
	return urls[0], nil
}

// Tags returns the short names of all tags in the repository, in storage
// iteration order.
func (g *GitManager) Tags() ([]string, error) {
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// HeadSHA returns the full hash of the current HEAD commit.
func (g *GitManager) HeadSHA() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	return head.Hash().String(), nil
}
