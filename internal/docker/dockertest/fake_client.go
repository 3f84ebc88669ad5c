// Package dockertest provides test doubles for internal/docker.Client.
//
// FakeAPIClient implements docker.APIClient with the function-field pattern
// (Docker CLI convention). FakeClient composes it into a real *docker.Client,
// so build-stream parsing, error wrapping, and fallback lookups execute real
// code rather than a mock of the docker layer.
//
// Usage:
//
//	fake := dockertest.NewFakeClient()
//	fake.FakeAPI.ImagePushFn = func(...) { ... }
//	id, err := fake.Client.Build(ctx, opts)
//
//	fake.AssertCalled(t, "ImageBuild")
package dockertest

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"

	"github.com/schmitthub/slipway/internal/docker"
)

// FakeAPIClient is a test double for docker.APIClient. Each SDK method the
// docker package calls has a corresponding Fn field. If the field is set, the
// fake delegates to it and records the call. If the field is nil, the call
// panics with "not implemented: MethodName".
type FakeAPIClient struct {
	// mu protects Calls from concurrent access.
	mu sync.Mutex

	// Calls records the method names invoked on this fake, in order.
	Calls []string

	PingFn          func(ctx context.Context) (types.Ping, error)
	ImageBuildFn    func(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImageTagFn      func(ctx context.Context, source, target string) error
	ImageInspectFn  func(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImagePushFn     func(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	RegistryLoginFn func(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	DialHijackFn    func(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error)
	CloseFn         func() error
}

// record appends a method name to the call log (thread-safe).
func (f *FakeAPIClient) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

// notImplemented panics with a descriptive message for unset function fields.
func notImplemented(method string) {
	panic(fmt.Sprintf("not implemented: %s, set %sFn on FakeAPIClient", method, method))
}

// Reset clears the Calls log.
func (f *FakeAPIClient) Reset() {
	f.mu.Lock()
	f.Calls = nil
	f.mu.Unlock()
}

func (f *FakeAPIClient) Ping(ctx context.Context) (types.Ping, error) {
	if f.PingFn == nil {
		notImplemented("Ping")
	}
	f.record("Ping")
	return f.PingFn(ctx)
}

func (f *FakeAPIClient) ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	if f.ImageBuildFn == nil {
		notImplemented("ImageBuild")
	}
	f.record("ImageBuild")
	return f.ImageBuildFn(ctx, buildContext, options)
}

func (f *FakeAPIClient) ImageTag(ctx context.Context, source, target string) error {
	if f.ImageTagFn == nil {
		notImplemented("ImageTag")
	}
	f.record("ImageTag")
	return f.ImageTagFn(ctx, source, target)
}

func (f *FakeAPIClient) ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error) {
	if f.ImageInspectFn == nil {
		notImplemented("ImageInspect")
	}
	f.record("ImageInspect")
	return f.ImageInspectFn(ctx, imageID, opts...)
}

func (f *FakeAPIClient) ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error) {
	if f.ImagePushFn == nil {
		notImplemented("ImagePush")
	}
	f.record("ImagePush")
	return f.ImagePushFn(ctx, ref, options)
}

func (f *FakeAPIClient) RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error) {
	if f.RegistryLoginFn == nil {
		notImplemented("RegistryLogin")
	}
	f.record("RegistryLogin")
	return f.RegistryLoginFn(ctx, auth)
}

func (f *FakeAPIClient) DialHijack(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error) {
	if f.DialHijackFn == nil {
		notImplemented("DialHijack")
	}
	f.record("DialHijack")
	return f.DialHijackFn(ctx, url, proto, meta)
}

func (f *FakeAPIClient) Close() error {
	if f.CloseFn == nil {
		notImplemented("Close")
	}
	f.record("Close")
	return f.CloseFn()
}

// FakeClient wraps a real *docker.Client backed by a FakeAPIClient.
// Configure behavior via FakeAPI's Fn fields; pass Client to code under test.
type FakeClient struct {
	// Client is the real *docker.Client to inject into command Options.
	Client *docker.Client

	// FakeAPI is the underlying function-field fake. Set Fn fields here
	// to control what the Docker SDK "returns" for each operation.
	FakeAPI *FakeAPIClient
}

// NewFakeClient constructs a FakeClient whose defaults make the whole
// release path succeed: builds return FakeImageID, pushes report FakeDigest,
// and logins succeed.
func NewFakeClient() *FakeClient {
	fakeAPI := NewFakeAPIClient()
	return &FakeClient{
		Client:  docker.NewFromAPIClient(fakeAPI),
		FakeAPI: fakeAPI,
	}
}
