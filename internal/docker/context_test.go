package docker

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContextFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// readTarEntries returns the file entries of the archive keyed by name.
// Directory entries are recorded with empty content.
func readTarEntries(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	entries := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag == tar.TypeReg {
			data, err := io.ReadAll(tr)
			require.NoError(t, err)
			entries[hdr.Name] = string(data)
		} else {
			entries[hdr.Name] = ""
		}
	}
	return entries
}

func TestCreateBuildContext_IncludesFiles(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "Dockerfile", "FROM alpine\n")
	writeContextFile(t, dir, "main.go", "package main\n")
	writeContextFile(t, dir, "web/static/app.css", "body {}\n")

	r, err := CreateBuildContext(dir, "Dockerfile")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Equal(t, "FROM alpine\n", entries["Dockerfile"])
	assert.Equal(t, "package main\n", entries["main.go"])
	assert.Equal(t, "body {}\n", entries["web/static/app.css"])
	assert.Contains(t, entries, "web")
	assert.Contains(t, entries, "web/static")
}

func TestCreateBuildContext_SkipsGitDir(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "Dockerfile", "FROM alpine\n")
	writeContextFile(t, dir, ".git/HEAD", "ref: refs/heads/main\n")
	writeContextFile(t, dir, ".git/objects/aa/bb", "blob")

	r, err := CreateBuildContext(dir, "Dockerfile")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Contains(t, entries, "Dockerfile")
	assert.NotContains(t, entries, ".git")
	assert.NotContains(t, entries, ".git/HEAD")
	assert.NotContains(t, entries, ".git/objects/aa/bb")
}

func TestCreateBuildContext_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "Dockerfile", "FROM alpine\n")
	writeContextFile(t, dir, "real.txt", "real\n")
	if err := os.Symlink(filepath.Join(dir, "real.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	r, err := CreateBuildContext(dir, "Dockerfile")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Contains(t, entries, "real.txt")
	assert.NotContains(t, entries, "link.txt")
}

func TestCreateBuildContext_DockerignoreExcludes(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "Dockerfile", "FROM alpine\n")
	writeContextFile(t, dir, ".dockerignore", "*.log\nnode_modules\n")
	writeContextFile(t, dir, "app.log", "noise\n")
	writeContextFile(t, dir, "main.go", "package main\n")
	writeContextFile(t, dir, "node_modules/left-pad/index.js", "module.exports = {}\n")

	r, err := CreateBuildContext(dir, "Dockerfile")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Contains(t, entries, "main.go")
	assert.NotContains(t, entries, "app.log")
	assert.NotContains(t, entries, "node_modules")
	assert.NotContains(t, entries, "node_modules/left-pad/index.js")
}

func TestCreateBuildContext_DockerignoreKeepsDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "Dockerfile", "FROM alpine\n")
	writeContextFile(t, dir, ".dockerignore", "*\n")
	writeContextFile(t, dir, "main.go", "package main\n")

	r, err := CreateBuildContext(dir, "Dockerfile")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Contains(t, entries, "Dockerfile")
	assert.Contains(t, entries, ".dockerignore")
	assert.NotContains(t, entries, "main.go")
}

func TestCreateBuildContext_DockerignoreExclusionPatterns(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "Dockerfile", "FROM alpine\n")
	writeContextFile(t, dir, ".dockerignore", "dist/*\n!dist/keep.txt\n")
	writeContextFile(t, dir, "dist/keep.txt", "keep\n")
	writeContextFile(t, dir, "dist/drop.txt", "drop\n")

	r, err := CreateBuildContext(dir, "Dockerfile")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Equal(t, "keep\n", entries["dist/keep.txt"])
	assert.NotContains(t, entries, "dist/drop.txt")
}

func TestCreateBuildContext_CustomDockerfileName(t *testing.T) {
	dir := t.TempDir()
	writeContextFile(t, dir, "build/Dockerfile.release", "FROM alpine\n")
	writeContextFile(t, dir, ".dockerignore", "build\n")

	r, err := CreateBuildContext(dir, "build/Dockerfile.release")
	require.NoError(t, err)

	entries := readTarEntries(t, r)
	assert.Contains(t, entries, "build/Dockerfile.release")
}

func TestCreateBuildContext_MissingDir(t *testing.T) {
	_, err := CreateBuildContext(filepath.Join(t.TempDir(), "nope"), "Dockerfile")
	require.Error(t, err)
}
