package docker

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

const dockerignoreName = ".dockerignore"

// CreateBuildContext creates a tar archive of dir for the classic build
// endpoint. Exclusions are read from a .dockerignore file at the root of dir
// when one exists. The Dockerfile named by dockerfilePath (relative to dir)
// and the .dockerignore file itself are always included so the daemon can
// complete the build even when a pattern would exclude them.
func CreateBuildContext(dir, dockerfilePath string) (io.Reader, error) {
	pm, err := loadIgnorePatterns(dir)
	if err != nil {
		return nil, err
	}

	keep := map[string]bool{
		filepath.ToSlash(filepath.Clean(dockerfilePath)): true,
		dockerignoreName: true,
	}

	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)

	// Walk the directory using WalkDir (does not follow symlinks)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		// Skip root directory
		if relPath == "." {
			return nil
		}

		// Tar entries and ignore patterns both use forward slashes.
		name := filepath.ToSlash(relPath)

		// Skip .git directory
		if name == ".git" || strings.HasPrefix(name, ".git/") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks produce broken entries in tar archives
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if pm != nil && !keep[name] {
			matched, err := pm.MatchesOrParentMatches(name)
			if err != nil {
				return fmt.Errorf("failed to match %s against %s: %w", name, dockerignoreName, err)
			}
			if matched {
				// Still descend into an excluded directory when a ! pattern
				// could re-include one of its children, or when an always-kept
				// file lives under it.
				if d.IsDir() && !pm.Exclusions() && !keepUnder(name, keep) {
					return filepath.SkipDir
				}
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			_, err = io.Copy(tw, file)
			file.Close()
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}

	return buf, nil
}

// keepUnder reports whether any always-kept path lives under dir.
func keepUnder(dir string, keep map[string]bool) bool {
	for k := range keep {
		if strings.HasPrefix(k, dir+"/") {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads .dockerignore from dir. A missing or empty file
// yields a nil matcher, meaning no exclusions.
func loadIgnorePatterns(dir string) (*patternmatcher.PatternMatcher, error) {
	f, err := os.Open(filepath.Join(dir, dockerignoreName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", dockerignoreName, err)
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dockerignoreName, err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid %s patterns: %w", dockerignoreName, err)
	}
	return pm, nil
}
