package docker

import (
	"context"

	cerrdefs "github.com/containerd/errdefs"

	"github.com/schmitthub/slipway/internal/logger"
)

// Tag applies target as an additional reference to the source image.
func (c *Client) Tag(ctx context.Context, source, target string) error {
	if err := c.APIClient.ImageTag(ctx, source, target); err != nil {
		return ErrImageTagFailed(source, target, err)
	}
	logger.Debug().
		Str("source", source).
		Str("target", target).
		Msg("tagged image")
	return nil
}

// ImageSize returns the virtual size in bytes of the named image.
func (c *Client) ImageSize(ctx context.Context, ref string) (int64, error) {
	info, err := c.APIClient.ImageInspect(ctx, ref)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return 0, ErrImageNotFound(ref, err)
		}
		return 0, ErrImageInspectFailed(ref, err)
	}
	return info.Size, nil
}
