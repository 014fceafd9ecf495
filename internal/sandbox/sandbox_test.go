package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeOff, false},
		{"off", ModeOff, false},
		{"full-access", ModeOff, false},
		{"read-only", ModeReadOnly, false},
		{"read_only", ModeReadOnly, false},
		{"workspace-write", ModeWorkspaceWrite, false},
		{"workspace_write", ModeWorkspaceWrite, false},
		{"jail", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_Restricted(t *testing.T) {
	assert.False(t, Policy{}.Restricted())
	assert.False(t, Policy{Mode: ModeOff}.Restricted())
	assert.True(t, Policy{Mode: ModeReadOnly}.Restricted())
	assert.True(t, Policy{Mode: ModeWorkspaceWrite}.Restricted())
}

func TestNew_OffIsPassthrough(t *testing.T) {
	w, err := New(Policy{})
	require.NoError(t, err)
	assert.Equal(t, "off", w.Name())

	argv := []string{"ls", "-la"}
	out, err := w.Wrap(argv, "/tmp")
	require.NoError(t, err)
	assert.Equal(t, argv, out)

	out[0] = "changed"
	assert.Equal(t, "ls", argv[0])
}

func TestNew_InvalidMode(t *testing.T) {
	_, err := New(Policy{Mode: "jail"})
	assert.Error(t, err)
}

func TestBwrap_ReadOnly(t *testing.T) {
	b := &Bwrap{Policy: Policy{Mode: ModeReadOnly}}

	cmd, err := b.Wrap([]string{"ls", "-la"}, "/home/user")
	require.NoError(t, err)

	assert.Equal(t, "bwrap", cmd[0])
	assert.Contains(t, cmd, "--ro-bind")
	assert.Contains(t, cmd, "--unshare-pid")
	assert.Contains(t, cmd, "--unshare-net")
	assert.NotContains(t, cmd, "--bind")
	assert.Contains(t, cmd, "/home/user")
	assert.Equal(t, []string{"--", "ls", "-la"}, cmd[len(cmd)-3:])
}

func TestBwrap_WorkspaceWrite(t *testing.T) {
	b := &Bwrap{Policy: Policy{
		Mode:          ModeWorkspaceWrite,
		WritableRoots: []string{"/workspace", "/tmp/builds"},
		NetworkAccess: true,
	}}

	cmd, err := b.Wrap([]string{"npm", "test"}, "")
	require.NoError(t, err)

	binds := 0
	for _, arg := range cmd {
		if arg == "--bind" {
			binds++
		}
	}
	assert.Equal(t, 2, binds)
	assert.NotContains(t, cmd, "--unshare-net")
	assert.NotContains(t, cmd, "--chdir")
	assert.Equal(t, "bwrap:workspace-write", b.Name())
}

func TestBwrap_EmptyCommand(t *testing.T) {
	_, err := (&Bwrap{Policy: Policy{Mode: ModeReadOnly}}).Wrap(nil, "")
	assert.Error(t, err)
}
