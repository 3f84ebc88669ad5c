package path

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/iostreams"
)

func TestNewCmdPath(t *testing.T) {
	f := &cmdutil.Factory{}
	cmd := NewCmdPath(f, nil)

	require.Equal(t, "path", cmd.Use)
	require.NotEmpty(t, cmd.Short)
	require.NotNil(t, cmd.RunE)
}

func TestPathRun(t *testing.T) {
	tios := iostreams.NewTestIOStreams()
	opts := &PathOptions{
		IOStreams:  tios.IOStreams,
		ConfigPath: func() string { return "/home/bob/.config/slipway/config.yml" },
	}

	err := pathRun(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "/home/bob/.config/slipway/config.yml\n", tios.OutBuf.String())
}
