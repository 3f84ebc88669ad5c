package gittest

import (
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/stretchr/testify/require"
)

// OnDiskRepo is a real repository under a test temp directory, for tests
// that exercise repository detection and cloning. The directory is removed
// by the testing framework.
type OnDiskRepo struct {
	Dir  string
	repo *gogit.Repository
}

// NewOnDiskRepo creates an on-disk repository seeded with an initial commit
// on the "main" branch.
func NewOnDiskRepo(t *testing.T) *OnDiskRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err, "failed to init on-disk repo")

	r := &OnDiskRepo{Dir: dir, repo: repo}
	r.CommitFile(t, "README.md", "# Test Repository\n")
	r.CheckoutBranch(t, "main")
	return r
}

// Repository returns the underlying go-git Repository for test assertions.
func (r *OnDiskRepo) Repository() *gogit.Repository {
	return r.repo
}

// CommitFile writes a file into the working tree and commits it, returning
// the new commit hash.
func (r *OnDiskRepo) CommitFile(t *testing.T, name, content string) plumbing.Hash {
	t.Helper()

	err := os.WriteFile(filepath.Join(r.Dir, name), []byte(content), 0o644)
	require.NoError(t, err, "failed to write %s", name)

	wt, err := r.repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	_, err = wt.Add(name)
	require.NoError(t, err, "failed to add %s", name)

	hash, err := wt.Commit("Add "+name, &gogit.CommitOptions{
		Author: signature(),
	})
	require.NoError(t, err, "failed to commit %s", name)
	return hash
}

// Tag creates a lightweight tag at the current HEAD.
func (r *OnDiskRepo) Tag(t *testing.T, name string) {
	t.Helper()

	head, err := r.repo.Head()
	require.NoError(t, err, "failed to get HEAD")
	_, err = r.repo.CreateTag(name, head.Hash(), nil)
	require.NoError(t, err, "failed to create tag %s", name)
}

// SetRemote configures the origin remote with the given URL.
func (r *OnDiskRepo) SetRemote(t *testing.T, url string) {
	t.Helper()

	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	require.NoError(t, err, "failed to create origin remote")
}

// CheckoutBranch switches HEAD to the named branch, creating it at the
// current HEAD when it does not exist yet.
func (r *OnDiskRepo) CheckoutBranch(t *testing.T, name string) {
	t.Helper()

	wt, err := r.repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	branchRef := plumbing.NewBranchReferenceName(name)
	_, refErr := r.repo.Reference(branchRef, true)
	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: branchRef,
		Create: refErr != nil,
	})
	require.NoError(t, err, "failed to checkout branch %s", name)
}

// Detach puts the repository into detached HEAD state at the current commit.
func (r *OnDiskRepo) Detach(t *testing.T) {
	t.Helper()

	head, err := r.repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	wt, err := r.repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = wt.Checkout(&gogit.CheckoutOptions{Hash: head.Hash()})
	require.NoError(t, err, "failed to detach HEAD")
}
