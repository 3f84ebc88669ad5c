package dockertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"slices"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
)

// Fixture values returned by the default fake implementations.
const (
	// FakeImageID is the image ID reported by default builds and inspects.
	FakeImageID = "sha256:4e2b4a1c71606b3bcc67ed3ba23cb7ef4845b5e7399de869f3c8d95a39f63201"

	// FakeDigest is the content digest reported by default pushes.
	FakeDigest = "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	// FakeImageSize is the image size in bytes reported by default inspects.
	FakeImageSize int64 = 124_780_544
)

// NewFakeAPIClient constructs a fake with defaults that make every operation
// succeed: Ping reports a healthy Linux daemon preferring the classic
// builder, builds stream a successful legacy build ending in FakeImageID,
// pushes report FakeDigest, and logins succeed.
func NewFakeAPIClient() *FakeAPIClient {
	f := &FakeAPIClient{}

	f.PingFn = func(_ context.Context) (types.Ping, error) {
		return types.Ping{APIVersion: "1.47", OSType: "linux"}, nil
	}

	f.ImageBuildFn = func(_ context.Context, _ io.Reader, _ build.ImageBuildOptions) (build.ImageBuildResponse, error) {
		return build.ImageBuildResponse{Body: BuildSuccessBody(FakeImageID), OSType: "linux"}, nil
	}

	f.ImageTagFn = func(_ context.Context, _, _ string) error {
		return nil
	}

	f.ImageInspectFn = func(_ context.Context, _ string, _ ...client.ImageInspectOption) (image.InspectResponse, error) {
		return image.InspectResponse{ID: FakeImageID, Size: FakeImageSize}, nil
	}

	f.ImagePushFn = func(_ context.Context, _ string, _ image.PushOptions) (io.ReadCloser, error) {
		return PushSuccessBody(FakeDigest), nil
	}

	f.RegistryLoginFn = func(_ context.Context, _ registry.AuthConfig) (registry.AuthenticateOKBody, error) {
		return registry.AuthenticateOKBody{Status: "Login Succeeded"}, nil
	}

	f.CloseFn = func() error {
		return nil
	}

	return f
}

// jsonLines encodes each value as one JSON line, matching the daemon's
// progress stream framing.
func jsonLines(values ...any) io.ReadCloser {
	var buf bytes.Buffer
	for _, v := range values {
		data, _ := json.Marshal(v)
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return io.NopCloser(&buf)
}

// BuildSuccessBody returns a legacy build stream that ends with an aux
// result carrying imageID.
func BuildSuccessBody(imageID string) io.ReadCloser {
	return jsonLines(
		map[string]any{"stream": "Step 1/2 : FROM alpine\n"},
		map[string]any{"stream": " ---> a1b2c3d4e5f6\n"},
		map[string]any{"stream": "Step 2/2 : COPY . /app\n"},
		map[string]any{"stream": "Successfully built a1b2c3d4e5f6\n"},
		map[string]any{"aux": map[string]any{"ID": imageID}},
	)
}

// BuildErrorBody returns a build stream that fails with the given daemon
// error message.
func BuildErrorBody(message string) io.ReadCloser {
	return jsonLines(
		map[string]any{"stream": "Step 1/2 : FROM alpine\n"},
		map[string]any{
			"error":       message,
			"errorDetail": map[string]any{"message": message},
		},
	)
}

// PushSuccessBody returns a push stream that ends with an aux result
// carrying digest.
func PushSuccessBody(digest string) io.ReadCloser {
	return jsonLines(
		map[string]any{"status": "The push refers to repository [docker.io/library/fake]"},
		map[string]any{"status": "Pushed", "id": "a1b2c3d4e5f6"},
		map[string]any{"aux": map[string]any{"Tag": "latest", "Digest": digest, "Size": 1529}},
	)
}

// PushErrorBody returns a push stream that fails with the given daemon
// error message.
func PushErrorBody(message string) io.ReadCloser {
	return jsonLines(
		map[string]any{"status": "The push refers to repository [docker.io/library/fake]"},
		map[string]any{
			"error":       message,
			"errorDetail": map[string]any{"message": message},
		},
	)
}

// AssertCalled fails the test if the given method was not called on the fake.
func AssertCalled(t *testing.T, fake *FakeAPIClient, method string) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !slices.Contains(fake.Calls, method) {
		t.Errorf("expected %s to be called, but it was not; calls: %v", method, fake.Calls)
	}
}

// AssertNotCalled fails the test if the given method was called on the fake.
func AssertNotCalled(t *testing.T, fake *FakeAPIClient, method string) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if slices.Contains(fake.Calls, method) {
		t.Errorf("expected %s to NOT be called, but it was; calls: %v", method, fake.Calls)
	}
}

// AssertCalledN fails the test if the given method was not called exactly n times.
func AssertCalledN(t *testing.T, fake *FakeAPIClient, method string, n int) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	count := 0
	for _, c := range fake.Calls {
		if c == method {
			count++
		}
	}
	if count != n {
		t.Errorf("expected %s to be called %d times, but was called %d times; calls: %v", method, n, count, fake.Calls)
	}
}

// AssertCalled asserts that the given method was called on the fake API.
func (f *FakeClient) AssertCalled(t *testing.T, method string) {
	t.Helper()
	AssertCalled(t, f.FakeAPI, method)
}

// AssertNotCalled asserts that the given method was never called.
func (f *FakeClient) AssertNotCalled(t *testing.T, method string) {
	t.Helper()
	AssertNotCalled(t, f.FakeAPI, method)
}

// AssertCalledN asserts that the given method was called exactly n times.
func (f *FakeClient) AssertCalledN(t *testing.T, method string, n int) {
	t.Helper()
	AssertCalledN(t, f.FakeAPI, method, n)
}

// Reset clears the call recording log.
func (f *FakeClient) Reset() {
	f.FakeAPI.Reset()
}

// SetupBuildError configures builds to fail with a daemon error message.
func (f *FakeClient) SetupBuildError(message string) {
	f.FakeAPI.ImageBuildFn = func(_ context.Context, _ io.Reader, _ build.ImageBuildOptions) (build.ImageBuildResponse, error) {
		return build.ImageBuildResponse{Body: BuildErrorBody(message), OSType: "linux"}, nil
	}
}

// SetupPushError configures pushes to fail with a daemon error message.
func (f *FakeClient) SetupPushError(message string) {
	f.FakeAPI.ImagePushFn = func(_ context.Context, _ string, _ image.PushOptions) (io.ReadCloser, error) {
		return PushErrorBody(message), nil
	}
}

// SetupLoginError configures registry logins to fail with err.
func (f *FakeClient) SetupLoginError(err error) {
	f.FakeAPI.RegistryLoginFn = func(_ context.Context, _ registry.AuthConfig) (registry.AuthenticateOKBody, error) {
		return registry.AuthenticateOKBody{}, err
	}
}
