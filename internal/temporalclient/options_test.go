package temporalclient

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the default profile lookup at an empty directory.
func isolateConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TEMPORAL_PROFILE", "")
}

func TestLoadClientOptions_Overrides(t *testing.T) {
	isolateConfig(t)
	t.Setenv("TEMPORAL_ADDRESS", "temporal.example:7233")
	t.Setenv("TEMPORAL_NAMESPACE", "from-env")

	opts, err := LoadClientOptions(Overrides{Namespace: "ptygw", Identity: "worker-1"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, "temporal.example:7233", opts.HostPort)
	assert.Equal(t, "ptygw", opts.Namespace)
	assert.Equal(t, "worker-1", opts.Identity)
	assert.NotNil(t, opts.Logger)
}

func TestLoadClientOptions_HostPortOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("TEMPORAL_ADDRESS", "temporal.example:7233")

	opts, err := LoadClientOptions(Overrides{HostPort: "localhost:7233"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost:7233", opts.HostPort)
	assert.Nil(t, opts.Logger)
}
