package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputs(t *testing.T) {
	inputs, err := parseInputs([]string{`my-app\r`, `\r`, `say "hi"\n`, `\x03`}, 250*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, inputs, 4)

	assert.Equal(t, "my-app\r", inputs[0].Send)
	assert.Equal(t, "\r", inputs[1].Send)
	assert.Equal(t, "say \"hi\"\n", inputs[2].Send)
	assert.Equal(t, "\x03", inputs[3].Send)
	assert.Equal(t, float64(250), inputs[0].Wait)
}

func TestParseInputs_BadEscape(t *testing.T) {
	_, err := parseInputs([]string{`\q`}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input 1")
}

func TestExitCodeError(t *testing.T) {
	assert.Equal(t, "exit status 124", (&exitCodeError{code: 124}).Error())
}
