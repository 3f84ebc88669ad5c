package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"

	"github.com/schmitthub/slipway/internal/logger"
)

// BuildOptions describes a single image build.
type BuildOptions struct {
	// ContextDir is the build context root.
	ContextDir string

	// Dockerfile is the Dockerfile path relative to ContextDir.
	Dockerfile string

	// Tags are the references applied to the built image.
	Tags []string

	// BuildArgs are passed to ARG instructions in the Dockerfile.
	BuildArgs map[string]*string

	// Labels are applied to the built image.
	Labels map[string]string

	// NoCache disables the layer cache.
	NoCache bool

	// Pull always attempts a newer version of base images.
	Pull bool

	// UseBuildKit routes the build through the BuildKit solver when the
	// client has a BuildKitImageBuilder wired.
	UseBuildKit bool

	// Output receives the human-readable build progress when non-nil.
	Output io.Writer
}

// Build builds an image from opts.ContextDir and returns its image ID.
func (c *Client) Build(ctx context.Context, opts BuildOptions) (string, error) {
	if opts.UseBuildKit && c.BuildKitImageBuilder != nil {
		return c.buildWithBuildKit(ctx, opts)
	}
	return c.buildClassic(ctx, opts)
}

func (c *Client) buildClassic(ctx context.Context, opts BuildOptions) (string, error) {
	buildCtx, err := CreateBuildContext(opts.ContextDir, opts.Dockerfile)
	if err != nil {
		return "", ErrImageBuildFailed(err)
	}

	logger.Debug().
		Str("context", opts.ContextDir).
		Str("dockerfile", opts.Dockerfile).
		Strs("tags", opts.Tags).
		Msg("starting image build")

	resp, err := c.APIClient.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       opts.Tags,
		Dockerfile: filepath.ToSlash(opts.Dockerfile),
		BuildArgs:  opts.BuildArgs,
		Labels:     opts.Labels,
		NoCache:    opts.NoCache,
		PullParent: opts.Pull,
		Remove:     true,
	})
	if err != nil {
		return "", ErrImageBuildFailed(err)
	}
	defer resp.Body.Close()

	imageID, err := c.processBuildOutput(resp.Body, opts.Output)
	if err != nil {
		return "", ErrImageBuildFailed(err)
	}

	if imageID == "" {
		return c.lookupImageID(ctx, opts.Tags)
	}
	return imageID, nil
}

func (c *Client) buildWithBuildKit(ctx context.Context, opts BuildOptions) (string, error) {
	logger.Debug().
		Str("context", opts.ContextDir).
		Strs("tags", opts.Tags).
		Msg("starting BuildKit image build")

	if err := c.BuildKitImageBuilder(ctx, opts); err != nil {
		return "", ErrImageBuildFailed(err)
	}
	return c.lookupImageID(ctx, opts.Tags)
}

// lookupImageID resolves the image ID behind the first build tag. Used when
// the build stream carried no aux result, which is the case for BuildKit
// builds and some older daemons.
func (c *Client) lookupImageID(ctx context.Context, tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	info, err := c.APIClient.ImageInspect(ctx, tags[0])
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", ErrImageNotFound(tags[0], err)
		}
		return "", ErrImageInspectFailed(tags[0], err)
	}
	return info.ID, nil
}

// buildEvent represents a single JSON event from the build output stream.
type buildEvent struct {
	Stream      string `json:"stream,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorDetail struct {
		Message string `json:"message,omitempty"`
	} `json:"errorDetail"`
	Aux json.RawMessage `json:"aux,omitempty"`
}

// buildResult mirrors the aux payload emitted by the classic builder once an
// image has been committed.
type buildResult struct {
	ID string `json:"ID"`
}

var successfullyBuiltRe = regexp.MustCompile(`^Successfully built ([0-9a-f]+)`)

// processBuildOutput consumes the build event stream, echoing progress to out
// when set, and returns the built image ID if the stream reported one.
func (c *Client) processBuildOutput(reader io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(reader)
	var imageID string
	var parseErrors int

	for scanner.Scan() {
		var event buildEvent

		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			parseErrors++
			logger.Debug().
				Err(err).
				Str("raw", string(scanner.Bytes())).
				Msg("failed to parse build output event")
			// After many consecutive failures, consider this an error condition
			if parseErrors > 10 {
				return "", fmt.Errorf("build output stream appears corrupted: %d consecutive parse failures", parseErrors)
			}
			continue
		}
		parseErrors = 0 // Reset on successful parse

		if event.Error != "" {
			return "", fmt.Errorf("build error: %s", event.Error)
		}

		if event.ErrorDetail.Message != "" {
			return "", fmt.Errorf("build error: %s", event.ErrorDetail.Message)
		}

		if len(event.Aux) > 0 {
			var result buildResult
			if err := json.Unmarshal(event.Aux, &result); err == nil && result.ID != "" {
				imageID = result.ID
			}
		}

		if event.Stream != "" {
			if out != nil {
				fmt.Fprint(out, event.Stream)
			}
			if trimmed := strings.TrimSpace(event.Stream); trimmed != "" {
				// The aux result carries the full sha256 ID; the stream line
				// only a short one. Prefer the aux form when both appear.
				if imageID == "" {
					if m := successfullyBuiltRe.FindStringSubmatch(trimmed); m != nil {
						imageID = m[1]
					}
				}
				logger.Debug().Msg(trimmed)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading build output: %w", err)
	}

	logger.Debug().Msg("image build complete")
	return imageID, nil
}
