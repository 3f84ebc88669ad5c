package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/stretchr/testify/require"
)

// fakePinger implements the Pinger interface for testing.
type fakePinger struct {
	ping types.Ping
	err  error
}

func (f *fakePinger) Ping(_ context.Context) (types.Ping, error) {
	return f.ping, f.err
}

func TestBuildKitEnabled_EnvEnables(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "1")

	// The pinger must not be consulted when the env var decides.
	p := &fakePinger{err: errors.New("daemon down")}

	enabled, err := BuildKitEnabled(context.Background(), p)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestBuildKitEnabled_EnvDisables(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "false")

	p := &fakePinger{ping: types.Ping{BuilderVersion: build.BuilderBuildKit}}

	enabled, err := BuildKitEnabled(context.Background(), p)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestBuildKitEnabled_EnvInvalid(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "banana")

	enabled, err := BuildKitEnabled(context.Background(), &fakePinger{})
	require.Error(t, err)
	require.False(t, enabled)
	require.Contains(t, err.Error(), "DOCKER_BUILDKIT environment variable expects boolean value")
}

func TestBuildKitEnabled_DaemonPrefersBuildKit(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "")

	p := &fakePinger{
		ping: types.Ping{
			BuilderVersion: build.BuilderBuildKit,
			OSType:         "linux",
		},
	}

	enabled, err := BuildKitEnabled(context.Background(), p)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestBuildKitEnabled_DaemonPrefersClassic(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "")

	p := &fakePinger{
		ping: types.Ping{
			BuilderVersion: build.BuilderV1,
			OSType:         "linux",
		},
	}

	enabled, err := BuildKitEnabled(context.Background(), p)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestBuildKitEnabled_PingError(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "")

	p := &fakePinger{err: errors.New("cannot connect")}

	_, err := BuildKitEnabled(context.Background(), p)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to ping Docker daemon")
}
