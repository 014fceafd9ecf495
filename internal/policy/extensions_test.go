package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtensions_AllowCommand(t *testing.T) {
	ext, err := ParseExtensions("test.star", `allow_command("kubectl", "helm")`)
	require.NoError(t, err)
	assert.Equal(t, []string{"kubectl", "helm"}, ext.AllowedCommands)

	p := New(WithExtensions(ext))
	assert.True(t, p.IsAllowed("kubectl"))
	assert.True(t, p.IsAllowed("ls"))
}

func TestParseExtensions_ForbidPattern(t *testing.T) {
	source := `
forbid_pattern(r"--exec", name="exec flag")
forbid_pattern("^-o")
`
	ext, err := ParseExtensions("test.star", source)
	require.NoError(t, err)
	require.Len(t, ext.ForbiddenPatterns, 2)
	assert.Equal(t, "exec flag", ext.ForbiddenPatterns[0].Name)
	assert.Equal(t, "^-o", ext.ForbiddenPatterns[1].Name)

	p := New(WithExtensions(ext))
	_, err = p.ValidateArgs([]string{".", "--exec"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbiddenPattern))

	// Defaults still apply.
	_, err = p.ValidateArgs([]string{"a;b"})
	assert.Error(t, err)
}

func TestParseExtensions_InvalidRegexp(t *testing.T) {
	_, err := ParseExtensions("bad.star", `forbid_pattern("(")`)
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "bad.star", pe.File)
}

func TestParseExtensions_Errors(t *testing.T) {
	cases := []string{
		`allow_command()`,
		`allow_command(1)`,
		`allow_command("")`,
		`forbid_pattern("")`,
		`undefined_builtin("x")`,
		`allow_command(`,
	}
	for _, src := range cases {
		_, err := ParseExtensions("test.star", src)
		assert.Error(t, err, "source %q", src)
	}
}

func TestLoadExtensions_MissingFile(t *testing.T) {
	ext, err := LoadExtensions(filepath.Join(t.TempDir(), "nope.star"))
	require.NoError(t, err)
	assert.Nil(t, ext)

	ext, err = LoadExtensions("")
	require.NoError(t, err)
	assert.Nil(t, ext)
}

func TestLoadExtensions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.star")
	require.NoError(t, os.WriteFile(path, []byte(`allow_command("make")`), 0o644))

	ext, err := LoadExtensions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"make"}, ext.AllowedCommands)
}
