package buildkit

import (
	"fmt"
	"path/filepath"
	"strings"

	bkclient "github.com/moby/buildkit/client"
	"github.com/tonistiigi/fsutil"

	"github.com/schmitthub/slipway/internal/docker"
)

// toSolveOpt converts BuildOptions to a BuildKit SolveOpt.
// Labels are passed as FrontendAttrs with the "label:" prefix.
func toSolveOpt(opts docker.BuildOptions) (bkclient.SolveOpt, error) {
	attrs := make(map[string]string)

	// Dockerfile filename (relative to context)
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	attrs["filename"] = filepath.ToSlash(dockerfile)

	// Build args
	for k, v := range opts.BuildArgs {
		if v != nil {
			attrs["build-arg:"+k] = *v
		}
	}

	// Labels
	for k, v := range opts.Labels {
		attrs["label:"+k] = v
	}

	// No cache
	if opts.NoCache {
		attrs["no-cache"] = ""
	}

	// Pull policy
	if opts.Pull {
		attrs["image-resolve-mode"] = "pull"
	}

	// Local mounts: the context doubles as the dockerfile directory since the
	// dockerfile path is kept relative to the context root.
	contextDir, err := filepath.Abs(opts.ContextDir)
	if err != nil {
		return bkclient.SolveOpt{}, fmt.Errorf("buildkit: resolve context dir: %w", err)
	}

	contextFS, err := fsutil.NewFS(contextDir)
	if err != nil {
		return bkclient.SolveOpt{}, fmt.Errorf("buildkit: create context fs: %w", err)
	}

	dockerfileFS, err := fsutil.NewFS(contextDir)
	if err != nil {
		return bkclient.SolveOpt{}, fmt.Errorf("buildkit: create dockerfile fs: %w", err)
	}

	// Export entry: build to the local Docker image store
	exportAttrs := map[string]string{
		"push": "false",
	}
	if len(opts.Tags) > 0 {
		exportAttrs["name"] = strings.Join(opts.Tags, ",")
	}

	return bkclient.SolveOpt{
		Frontend:      "dockerfile.v0",
		FrontendAttrs: attrs,
		LocalMounts: map[string]fsutil.FS{
			"context":    contextFS,
			"dockerfile": dockerfileFS,
		},
		Exports: []bkclient.ExportEntry{{
			Type:  "image",
			Attrs: exportAttrs,
		}},
	}, nil
}
