// Package gittest provides test utilities for the git package.
package gittest

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	gogit "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/schmitthub/slipway/internal/git"
	"github.com/stretchr/testify/require"
)

// signature returns the deterministic author used for fixture commits.
func signature() *object.Signature {
	return &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Now(),
	}
}

// InMemoryGitManager wraps *git.GitManager with test-only accessors.
// The underlying repository uses in-memory storage (memfs).
type InMemoryGitManager struct {
	*git.GitManager
	repo *gogit.Repository
}

// NewInMemoryGitManager creates a GitManager backed by in-memory storage.
// The repoRoot is a logical path (not a real filesystem path) used for
// path construction in tests.
//
// The repository is seeded with an initial commit so HEAD exists.
func NewInMemoryGitManager(t *testing.T, repoRoot string) *InMemoryGitManager {
	t.Helper()

	// Use memfs for both .git storage and worktree
	dotGitFS := memfs.New()
	worktreeFS := memfs.New()

	// Create storage using filesystem.NewStorage wrapping memfs
	// This gives filesystem semantics with in-memory speed
	storer := filesystem.NewStorage(dotGitFS, cache.NewObjectLRUDefault())

	// Initialize the repository with the in-memory worktree
	repo, err := gogit.Init(storer, gogit.WithWorkTree(worktreeFS))
	require.NoError(t, err, "failed to init in-memory repo")

	// Get the worktree to create a file and commit
	wt, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	// Create a README file so we have something to commit
	readme, err := worktreeFS.Create("README.md")
	require.NoError(t, err, "failed to create README")
	_, err = readme.Write([]byte("# Test Repository\n"))
	require.NoError(t, err, "failed to write README")
	err = readme.Close()
	require.NoError(t, err, "failed to close README")

	// Stage and commit
	_, err = wt.Add("README.md")
	require.NoError(t, err, "failed to add README")

	_, err = wt.Commit("Initial commit", &gogit.CommitOptions{
		Author: signature(),
	})
	require.NoError(t, err, "failed to create initial commit")

	mgr := git.NewGitManagerWithRepo(repo, repoRoot)

	return &InMemoryGitManager{
		GitManager: mgr,
		repo:       repo,
	}
}

// Repository returns the underlying go-git Repository for test assertions.
func (m *InMemoryGitManager) Repository() *gogit.Repository {
	return m.repo
}

// Tag creates a lightweight tag at the current HEAD.
func (m *InMemoryGitManager) Tag(t *testing.T, name string) {
	t.Helper()

	head, err := m.repo.Head()
	require.NoError(t, err, "failed to get HEAD")
	_, err = m.repo.CreateTag(name, head.Hash(), nil)
	require.NoError(t, err, "failed to create tag %s", name)
}

// SetRemote configures the origin remote with the given URL.
func (m *InMemoryGitManager) SetRemote(t *testing.T, url string) {
	t.Helper()

	_, err := m.repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	require.NoError(t, err, "failed to create origin remote")
}

// CheckoutBranch switches HEAD to the named branch, creating it at the
// current HEAD when it does not exist yet.
func (m *InMemoryGitManager) CheckoutBranch(t *testing.T, name string) {
	t.Helper()

	wt, err := m.repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	branchRef := plumbing.NewBranchReferenceName(name)
	_, refErr := m.repo.Reference(branchRef, true)
	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: branchRef,
		Create: refErr != nil,
	})
	require.NoError(t, err, "failed to checkout branch %s", name)
}

// Detach puts the repository into detached HEAD state at the current commit.
func (m *InMemoryGitManager) Detach(t *testing.T) {
	t.Helper()

	head, err := m.repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	wt, err := m.repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = wt.Checkout(&gogit.CheckoutOptions{Hash: head.Hash()})
	require.NoError(t, err, "failed to detach HEAD")
}
