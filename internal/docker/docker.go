// Package docker wraps the Docker Engine API client with the operations a
// release needs: build an image from a tarred context, tag it, authenticate
// against a registry, and push. Every failure is returned as a *Error carrying
// the operation name and remediation steps for the command layer to render.
package docker

import (
	"context"
	"io"
	"net"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"

	"github.com/schmitthub/slipway/internal/logger"
)

// APIClient is the subset of the Docker SDK client used by this package.
// Tests substitute a dockertest.FakeAPIClient; production code passes the
// real *client.Client constructed by NewClient.
type APIClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	DialHijack(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error)
	Close() error
}

// Client provides release-oriented image operations on top of the Docker API.
type Client struct {
	// APIClient performs the underlying Engine API calls.
	APIClient APIClient

	// BuildKitImageBuilder, when set, handles builds that request BuildKit.
	// It is wired by the command factory from the buildkit subpackage so
	// that the heavy BuildKit dependencies stay out of this package.
	BuildKitImageBuilder func(ctx context.Context, opts BuildOptions) error
}

// NewClient connects to the Docker daemon using the standard environment
// configuration (DOCKER_HOST, DOCKER_API_VERSION, etc.) and verifies the
// daemon is reachable before returning.
func NewClient(ctx context.Context) (*Client, error) {
	api, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, ErrDockerNotRunning(err)
	}

	c := &Client{APIClient: api}
	if err := c.HealthCheck(ctx); err != nil {
		api.Close()
		return nil, err
	}

	logger.Debug().Msg("docker client initialized")
	return c, nil
}

// NewFromAPIClient wraps an existing API client without a connectivity check.
// Intended for tests that inject a fake.
func NewFromAPIClient(api APIClient) *Client {
	return &Client{APIClient: api}
}

// HealthCheck verifies the Docker daemon is responding.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.APIClient.Ping(ctx); err != nil {
		return ErrDockerNotRunning(err)
	}
	return nil
}

// Close releases the underlying API client connection.
func (c *Client) Close() error {
	return c.APIClient.Close()
}
