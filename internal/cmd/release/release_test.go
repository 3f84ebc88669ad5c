package release

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/config"
	"github.com/schmitthub/slipway/internal/docker"
	"github.com/schmitthub/slipway/internal/docker/dockertest"
	"github.com/schmitthub/slipway/internal/git/gittest"
	"github.com/schmitthub/slipway/internal/iostreams"
)

func TestNewCmdRelease(t *testing.T) {
	f := &cmdutil.Factory{}
	cmd := NewCmdRelease(f, nil)

	require.Equal(t, "release", cmd.Use)
	require.NotEmpty(t, cmd.Short)
	require.NotEmpty(t, cmd.Long)
	require.NotEmpty(t, cmd.Example)
	require.NotNil(t, cmd.RunE)
}

func TestCmd_Flags(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		shorthand string
		defValue  string
	}{
		{"repo flag", "repo", "", ""},
		{"branch flag", "branch", "b", "main"},
		{"image flag", "image", "", ""},
		{"tag flag", "tag", "t", "latest"},
		{"auto-version flag", "auto-version", "", "false"},
		{"dockerfile flag", "dockerfile", "f", ""},
		{"build-arg flag", "build-arg", "", "[]"},
		{"username flag", "username", "", ""},
		{"password flag", "password", "", ""},
		{"keychain flag", "keychain", "", "false"},
		{"registry flag", "registry", "", ""},
		{"buildkit flag", "buildkit", "", "false"},
		{"label flag", "label", "", "[]"},
		{"no-cache flag", "no-cache", "", "false"},
		{"pull flag", "pull", "", "false"},
		{"dry-run flag", "dry-run", "", "false"},
		{"json flag", "json", "", "false"},
		{"quiet flag", "quiet", "q", "false"},
	}

	f := &cmdutil.Factory{}
	cmd := NewCmdRelease(f, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag, "flag --%s should exist", tt.flag)

			if tt.shorthand != "" {
				require.Equal(t, tt.shorthand, flag.Shorthand,
					"flag --%s should have shorthand -%s", tt.flag, tt.shorthand)
			}

			require.Equal(t, tt.defValue, flag.DefValue,
				"flag --%s should have default value %q", tt.flag, tt.defValue)
		})
	}
}

func TestCmd_FlagParsing(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "no flags", args: []string{}},
		{name: "repo flag", args: []string{"--repo", "git@github.com:acme/widget.git"}},
		{name: "branch short flag", args: []string{"-b", "release"}},
		{name: "image and tag", args: []string{"--image", "acme/widget", "-t", "v1.0.0"}},
		{name: "auto-version", args: []string{"--auto-version"}},
		{name: "dockerfile short flag", args: []string{"-f", "build/Dockerfile"}},
		{name: "build-arg repeated", args: []string{"--build-arg", "A=1", "--build-arg", "B=2"}},
		{name: "credentials", args: []string{"--username", "bob", "--password", "hunter2"}},
		{name: "keychain", args: []string{"--keychain"}},
		{name: "registry", args: []string{"--registry", "ghcr.io"}},
		{name: "buildkit", args: []string{"--buildkit"}},
		{name: "labels", args: []string{"--label", "team=infra"}},
		{name: "build passthrough", args: []string{"--no-cache", "--pull"}},
		{name: "dry run", args: []string{"--dry-run"}},
		{name: "json", args: []string{"--json"}},
		{name: "quiet short flag", args: []string{"-q"}},
		{name: "combined", args: []string{"--repo", "https://github.com/acme/widget.git", "-b", "main", "--auto-version", "--dry-run"}},
		{name: "json and quiet conflict", args: []string{"--json", "--quiet"}, wantErr: true},
		{name: "positional args rejected", args: []string{"extra"}, wantErr: true},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &cmdutil.Factory{}
			var gotOpts *ReleaseOptions
			cmd := NewCmdRelease(f, func(_ context.Context, opts *ReleaseOptions) error {
				gotOpts = opts
				return nil
			})

			cmd.SetArgs(tt.args)
			cmd.SetIn(&bytes.Buffer{})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			_, err := cmd.ExecuteC()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NotNil(t, gotOpts)
			}
		})
	}
}

func TestCmd_FlagValuePropagation(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, opts *ReleaseOptions)
	}{
		{
			name: "repo and branch",
			args: []string{"--repo", "git@github.com:acme/widget.git", "-b", "release"},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.Equal(t, "git@github.com:acme/widget.git", opts.RepoURL)
				require.Equal(t, "release", opts.Branch)
			},
		},
		{
			name: "defaults",
			args: []string{},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.Equal(t, "main", opts.Branch)
				require.Equal(t, "latest", opts.Tag)
				require.Empty(t, opts.Dockerfile)
				require.False(t, opts.BuildKitSet)
			},
		},
		{
			name: "image name and tag",
			args: []string{"--image", "acme/widget", "-t", "v2.0.0"},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.Equal(t, "acme/widget", opts.Image)
				require.Equal(t, "v2.0.0", opts.Tag)
			},
		},
		{
			name: "build args and labels",
			args: []string{"--build-arg", "VERSION=1.0", "--label", "team=infra", "--label", "env=prod"},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.Equal(t, []string{"VERSION=1.0"}, opts.BuildArgs)
				require.Equal(t, []string{"team=infra", "env=prod"}, opts.Labels)
			},
		},
		{
			name: "buildkit explicitly enabled",
			args: []string{"--buildkit"},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.True(t, opts.BuildKit)
				require.True(t, opts.BuildKitSet)
			},
		},
		{
			name: "buildkit explicitly disabled",
			args: []string{"--buildkit=false"},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.False(t, opts.BuildKit)
				require.True(t, opts.BuildKitSet)
			},
		},
		{
			name: "credential flags",
			args: []string{"--username", "bob", "--password", "hunter2", "--registry", "ghcr.io", "--keychain"},
			verify: func(t *testing.T, opts *ReleaseOptions) {
				require.Equal(t, "bob", opts.Username)
				require.Equal(t, "hunter2", opts.Password)
				require.Equal(t, "ghcr.io", opts.Registry)
				require.True(t, opts.UseKeychain)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &cmdutil.Factory{}
			var gotOpts *ReleaseOptions
			cmd := NewCmdRelease(f, func(_ context.Context, opts *ReleaseOptions) error {
				gotOpts = opts
				return nil
			})

			cmd.SetArgs(tt.args)
			cmd.SetIn(&bytes.Buffer{})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			_, err := cmd.ExecuteC()
			require.NoError(t, err)
			require.NotNil(t, gotOpts)
			tt.verify(t, gotOpts)
		})
	}
}

func TestParseBuildArgs(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		expect map[string]*string
	}{
		{
			name:   "empty args",
			input:  nil,
			expect: nil,
		},
		{
			name:  "single key-value",
			input: []string{"KEY=value"},
			expect: map[string]*string{
				"KEY": strPtr("value"),
			},
		},
		{
			name:  "value with equals sign",
			input: []string{"KEY=val=ue"},
			expect: map[string]*string{
				"KEY": strPtr("val=ue"),
			},
		},
		{
			name:  "key without value uses nil (env passthrough)",
			input: []string{"KEY"},
			expect: map[string]*string{
				"KEY": nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseBuildArgs(tt.input)

			if tt.expect == nil {
				require.Nil(t, result)
				return
			}

			require.Equal(t, len(tt.expect), len(result))
			for k, v := range tt.expect {
				resultVal, ok := result[k]
				require.True(t, ok, "key %q should exist", k)
				if v == nil {
					require.Nil(t, resultVal)
				} else {
					require.Equal(t, *v, *resultVal)
				}
			}
		})
	}
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name          string
		input         []string
		expect        map[string]string
		expectInvalid []string
	}{
		{
			name:   "empty pairs",
			input:  nil,
			expect: nil,
		},
		{
			name:   "single pair",
			input:  []string{"key=value"},
			expect: map[string]string{"key": "value"},
		},
		{
			name:          "key without value is invalid",
			input:         []string{"key"},
			expect:        map[string]string{},
			expectInvalid: []string{"key"},
		},
		{
			name:          "mixed valid and invalid",
			input:         []string{"a=b", "bad", "c=d"},
			expect:        map[string]string{"a": "b", "c": "d"},
			expectInvalid: []string{"bad"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, invalid := parseKeyValuePairs(tt.input)

			if tt.expect == nil {
				require.Nil(t, result)
				require.Nil(t, invalid)
				return
			}

			require.Equal(t, tt.expect, result)
			require.Equal(t, tt.expectInvalid, invalid)
		})
	}
}

// releaseTestEnv bundles the fixtures a releaseRun test needs: a repository
// with a committed Dockerfile and remote, a fake Docker client, and options
// wired the way the factory would wire them.
func releaseTestEnv(t *testing.T) (*ReleaseOptions, *dockertest.FakeClient, *iostreams.TestIOStreams) {
	t.Helper()
	t.Setenv("DOCKER_USERNAME", "")
	t.Setenv("DOCKER_PASSWORD", "")

	repo := gittest.NewOnDiskRepo(t)
	repo.CommitFile(t, "Dockerfile", "FROM alpine:3.20\n")
	repo.SetRemote(t, "git@github.com:acme/widget.git")

	fc := dockertest.NewFakeClient()
	tios := iostreams.NewTestIOStreams()

	opts := &ReleaseOptions{
		IOStreams: tios.IOStreams,
		Config: func() (*config.Config, error) {
			return config.DefaultConfig(), nil
		},
		Client: func(context.Context) (*docker.Client, error) {
			return fc.Client, nil
		},
		BuildKitEnabled: func(context.Context) (bool, error) {
			return false, nil
		},
		WorkDir: repo.Dir,
		Branch:  "main",
		Tag:     "latest",
	}
	return opts, fc, tios
}

func TestReleaseRun_QuietPrintsReference(t *testing.T) {
	opts, fc, tios := releaseTestEnv(t)
	opts.Quiet = true

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "acme/widget:latest\n", tios.OutBuf.String())
	fc.AssertCalled(t, "ImagePush")
}

func TestReleaseRun_StatusOutput(t *testing.T) {
	opts, _, tios := releaseTestEnv(t)

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	assert.Empty(t, tios.OutBuf.String(), "human status goes to stderr, stdout stays clean")
	assert.Contains(t, tios.ErrBuf.String(), "Released acme/widget:latest")
	assert.Contains(t, tios.ErrBuf.String(), "Image ID:")
	assert.Contains(t, tios.ErrBuf.String(), "Duration:")
}

func TestReleaseRun_JSONOutput(t *testing.T) {
	opts, _, tios := releaseTestEnv(t)
	opts.JSON = true

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	var view struct {
		RunID     string `json:"run_id"`
		Reference string `json:"reference"`
		Source    string `json:"source"`
		RemoteURL string `json:"remote_url"`
		ImageID   string `json:"image_id"`
		Pushed    bool   `json:"pushed"`
	}
	require.NoError(t, json.Unmarshal(tios.OutBuf.Bytes(), &view))

	assert.NotEmpty(t, view.RunID)
	assert.Equal(t, "acme/widget:latest", view.Reference)
	assert.Equal(t, "local", view.Source)
	assert.Equal(t, "git@github.com:acme/widget.git", view.RemoteURL)
	assert.Equal(t, dockertest.FakeImageID, view.ImageID)
	assert.True(t, view.Pushed)
}

func TestReleaseRun_DryRunSkipsDocker(t *testing.T) {
	opts, _, tios := releaseTestEnv(t)
	opts.DryRun = true
	opts.Client = func(context.Context) (*docker.Client, error) {
		t.Error("dry run must not connect to Docker")
		return nil, errors.New("unreachable")
	}
	opts.BuildKitEnabled = func(context.Context) (bool, error) {
		t.Error("dry run must not probe the daemon for BuildKit")
		return false, errors.New("unreachable")
	}

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	assert.Contains(t, tios.ErrBuf.String(), "Dry run complete")
	assert.Contains(t, tios.ErrBuf.String(), "acme/widget:latest")
}

func TestReleaseRun_ConfigImageUsed(t *testing.T) {
	opts, _, tios := releaseTestEnv(t)
	opts.Quiet = true
	opts.Config = func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.Image = "acme/fixed"
		return cfg, nil
	}

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "acme/fixed:latest\n", tios.OutBuf.String())
}

func TestReleaseRun_FlagImageBeatsConfig(t *testing.T) {
	opts, _, tios := releaseTestEnv(t)
	opts.Quiet = true
	opts.Image = "acme/explicit"
	opts.Config = func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.Image = "acme/fixed"
		return cfg, nil
	}

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "acme/explicit:latest\n", tios.OutBuf.String())
}

func TestReleaseRun_ConfigBuildKit(t *testing.T) {
	opts, fc, _ := releaseTestEnv(t)
	opts.Quiet = true
	opts.Config = func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.BuildKit = true
		return cfg, nil
	}

	buildKitUsed := false
	fc.Client.BuildKitImageBuilder = func(context.Context, docker.BuildOptions) error {
		buildKitUsed = true
		return nil
	}

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, buildKitUsed, "config buildkit=true should route the build through BuildKit")
}

func TestReleaseRun_FlagDisablesConfigBuildKit(t *testing.T) {
	opts, fc, _ := releaseTestEnv(t)
	opts.Quiet = true
	opts.BuildKit = false
	opts.BuildKitSet = true
	opts.Config = func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.BuildKit = true
		return cfg, nil
	}

	fc.Client.BuildKitImageBuilder = func(context.Context, docker.BuildOptions) error {
		t.Error("--buildkit=false must win over the config key")
		return nil
	}

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)
	fc.AssertCalled(t, "ImageBuild")
}

func TestReleaseRun_MalformedLabelWarned(t *testing.T) {
	opts, _, tios := releaseTestEnv(t)
	opts.Labels = []string{"team=infra", "oops"}

	err := releaseRun(context.Background(), opts)
	require.NoError(t, err)

	assert.Contains(t, tios.ErrBuf.String(), "Ignoring malformed labels")
	assert.Contains(t, tios.ErrBuf.String(), "oops")
}

func TestReleaseRun_ClientErrorPropagates(t *testing.T) {
	opts, _, _ := releaseTestEnv(t)
	connErr := docker.ErrDockerNotRunning(errors.New("dial unix: no such file"))
	opts.Client = func(context.Context) (*docker.Client, error) {
		return nil, connErr
	}

	err := releaseRun(context.Background(), opts)
	require.Error(t, err)

	var dockerErr *docker.Error
	require.ErrorAs(t, err, &dockerErr)
	assert.Equal(t, "connect", dockerErr.Op)
}

func strPtr(s string) *string { return &s }
