package buildkit

import (
	"context"
	"fmt"

	bkclient "github.com/moby/buildkit/client"

	"github.com/schmitthub/slipway/internal/docker"
)

// NewImageBuilder returns a closure that builds images using BuildKit's Solve
// API. The closure is intended to be set on Client.BuildKitImageBuilder.
//
// Each invocation creates a fresh BuildKit client connection via DialHijack,
// runs Solve, and closes the connection. The closure receives already-merged
// tags and labels from the release pipeline.
func NewImageBuilder(apiClient DockerDialer) func(context.Context, docker.BuildOptions) error {
	return func(ctx context.Context, opts docker.BuildOptions) error {
		bkClient, err := NewBuildKitClient(ctx, apiClient)
		if err != nil {
			return fmt.Errorf("buildkit: connect: %w", err)
		}
		defer bkClient.Close()

		solveOpt, err := toSolveOpt(opts)
		if err != nil {
			return err
		}

		statusCh := make(chan *bkclient.SolveStatus)
		go drainProgress(statusCh, opts.Output)

		_, err = bkClient.Solve(ctx, nil, solveOpt, statusCh)
		if err != nil {
			return fmt.Errorf("buildkit: solve: %w", err)
		}
		return nil
	}
}
