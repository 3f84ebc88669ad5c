package git_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/schmitthub/slipway/internal/git"
	"github.com/schmitthub/slipway/internal/git/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSourceLocal(t *testing.T) {
	repo := gittest.NewOnDiskRepo(t)
	repo.SetRemote(t, "git@github.com:acme/widget.git")

	src, err := git.ResolveSource(context.Background(), git.ResolveOptions{WorkDir: repo.Dir})
	require.NoError(t, err)

	assert.Equal(t, git.SourceLocal, src.Kind)
	assert.Equal(t, "git@github.com:acme/widget.git", src.RemoteURL)
	assert.Equal(t, "main", src.Branch)

	_, err = os.Stat(filepath.Join(src.Dir, "README.md"))
	assert.NoError(t, err)

	// Local sources never remove anything.
	require.NoError(t, src.Cleanup())
	_, err = os.Stat(filepath.Join(src.Dir, "README.md"))
	assert.NoError(t, err)
}

func TestResolveSourceLocalWithoutRemote(t *testing.T) {
	repo := gittest.NewOnDiskRepo(t)

	src, err := git.ResolveSource(context.Background(), git.ResolveOptions{WorkDir: repo.Dir})
	require.NoError(t, err)

	assert.Equal(t, git.SourceLocal, src.Kind)
	assert.Empty(t, src.RemoteURL)
}

func TestResolveSourceLocalDetached(t *testing.T) {
	repo := gittest.NewOnDiskRepo(t)
	repo.Detach(t)

	src, err := git.ResolveSource(context.Background(), git.ResolveOptions{WorkDir: repo.Dir})
	require.NoError(t, err)
	assert.Empty(t, src.Branch)
}

func TestResolveSourceNotARepository(t *testing.T) {
	_, err := git.ResolveSource(context.Background(), git.ResolveOptions{WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrNotRepository)
}

func TestResolveSourceRemote(t *testing.T) {
	upstream := gittest.NewOnDiskRepo(t)
	upstream.Tag(t, "v1.0.0")

	src, err := git.ResolveSource(context.Background(), git.ResolveOptions{
		RepoURL: upstream.Dir,
		Branch:  "main",
	})
	require.NoError(t, err)

	assert.Equal(t, git.SourceRemote, src.Kind)
	assert.Equal(t, upstream.Dir, src.RemoteURL)
	assert.Equal(t, "main", src.Branch)
	assert.NotEqual(t, upstream.Dir, src.Dir)

	_, err = os.Stat(filepath.Join(src.Dir, "README.md"))
	require.NoError(t, err)

	// Tags travel with the clone so auto-versioning works on it.
	mgr, err := src.Open()
	require.NoError(t, err)
	tags, err := mgr.Tags()
	require.NoError(t, err)
	assert.Contains(t, tags, "v1.0.0")

	require.NoError(t, src.Cleanup())
	_, err = os.Stat(src.Dir)
	assert.True(t, os.IsNotExist(err))

	// Cleanup is idempotent.
	require.NoError(t, src.Cleanup())
}

func TestResolveSourceRemoteBadBranch(t *testing.T) {
	upstream := gittest.NewOnDiskRepo(t)

	leftover := tempSourceDirs(t)

	_, err := git.ResolveSource(context.Background(), git.ResolveOptions{
		RepoURL: upstream.Dir,
		Branch:  "does-not-exist",
	})
	require.Error(t, err)

	var cloneErr *git.CloneError
	require.True(t, errors.As(err, &cloneErr))
	assert.Equal(t, upstream.Dir, cloneErr.URL)
	assert.Equal(t, "does-not-exist", cloneErr.Branch)

	// The failed clone's temporary directory is gone.
	assert.ElementsMatch(t, leftover, tempSourceDirs(t))
}

func TestResolveSourceRemoteBadURL(t *testing.T) {
	_, err := git.ResolveSource(context.Background(), git.ResolveOptions{
		RepoURL: filepath.Join(t.TempDir(), "missing"),
	})
	require.Error(t, err)

	var cloneErr *git.CloneError
	assert.True(t, errors.As(err, &cloneErr))
}

// tempSourceDirs lists the slipway clone directories currently in the
// system temp directory.
func tempSourceDirs(t *testing.T) []string {
	t.Helper()
	dirs, err := filepath.Glob(filepath.Join(os.TempDir(), "slipway-src-*"))
	require.NoError(t, err)
	return dirs
}
