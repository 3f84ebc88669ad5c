// Package buildkit provides BuildKit client connectivity for docker.Client.
//
// This subpackage imports moby/buildkit and its transitive dependencies (gRPC,
// protobuf, containerd, opentelemetry). The parent docker package never
// imports it; the command factory wires NewImageBuilder onto
// Client.BuildKitImageBuilder so classic builds do not pay this cost.
//
// Usage:
//
//	client, _ := docker.NewClient(ctx)
//	client.BuildKitImageBuilder = buildkit.NewImageBuilder(client.APIClient)
package buildkit

import (
	"context"
	"fmt"
	"net"

	bkclient "github.com/moby/buildkit/client"
)

// DockerDialer abstracts the DialHijack capability on the Docker SDK client.
// docker.APIClient satisfies this interface.
type DockerDialer interface {
	DialHijack(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error)
}

// NewBuildKitClient creates a BuildKit client connected to Docker's embedded
// buildkitd via the /grpc and /session hijack endpoints. This is the same
// connection pattern used by docker/buildx internally.
//
// The caller is responsible for calling Close() on the returned client.
func NewBuildKitClient(ctx context.Context, apiClient DockerDialer) (*bkclient.Client, error) {
	c, err := bkclient.New(ctx, "",
		bkclient.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return apiClient.DialHijack(ctx, "/grpc", "h2c", nil)
		}),
		bkclient.WithSessionDialer(func(ctx context.Context, proto string, meta map[string][]string) (net.Conn, error) {
			return apiClient.DialHijack(ctx, "/session", proto, meta)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("buildkit: failed to create client: %w", err)
	}
	return c, nil
}
