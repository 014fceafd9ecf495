package cli

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mfateev/ptygw/internal/gateway"
	"github.com/mfateev/ptygw/internal/policy"
	"github.com/mfateev/ptygw/internal/ptysession"
)

func newTestRenderer() *Renderer {
	return NewRenderer(40, NoColorStyles())
}

func TestRenderResponse_Success(t *testing.T) {
	out := newTestRenderer().RenderResponse("git status", gateway.Response{
		Output:    "On branch main",
		Reason:    ptysession.ReasonNormal,
		SessionID: "0123456789abcdef",
		Duration:  1234 * time.Millisecond,
	})

	lines := strings.Split(out, "\n")
	assert.Equal(t, "• Ran git status", lines[0])
	assert.Equal(t, "  exit 0 · 1.23s · session 01234567", lines[1])
	assert.Equal(t, strings.Repeat("─", 40), lines[2])
	assert.Equal(t, "On branch main", lines[3])
}

func TestRenderResponse_NonZeroExit(t *testing.T) {
	out := newTestRenderer().RenderResponse("ls /nope", gateway.Response{ExitCode: 2, Output: "no such file", Truncated: true})
	assert.Contains(t, out, "  exit 2 · truncated\n")
}

func TestRenderResponse_Timeout(t *testing.T) {
	out := newTestRenderer().RenderResponse("cat", gateway.Response{
		ExitCode: ptysession.TimeoutExitCode,
		Reason:   ptysession.ReasonTimeout,
		Output:   ptysession.TimeoutMarker,
	})
	assert.Contains(t, out, "timed out (exit 124)")
	assert.Contains(t, out, "[TIMEOUT: Command exceeded time limit]")
}

func TestRenderResponse_Error(t *testing.T) {
	out := newTestRenderer().RenderResponse("rm -rf /", gateway.Response{Text: "Error: Command 'rm' is not in the allowed list", IsError: true})
	assert.Equal(t, "• Ran rm -rf /\n  Error: Command 'rm' is not in the allowed list\n", out)
}

func TestRenderPolicy(t *testing.T) {
	p := policy.New(policy.WithHomeDir("/home/dev"), policy.WithDenyDestructive(true))
	out := newTestRenderer().RenderPolicy(p)

	assert.Contains(t, out, "home: /home/dev\n")
	assert.Contains(t, out, "restrict_cwd_to_home: false\n")
	assert.Contains(t, out, "deny_destructive: true\n")
	assert.Regexp(t, `(?m)\bgit\b`, out)

	section := out[strings.Index(out, "allowed commands:\n"):strings.Index(out, "forbidden patterns:")]
	for _, line := range strings.Split(strings.TrimSuffix(section, "\n"), "\n")[1:] {
		assert.LessOrEqual(t, len(line), 40, line)
	}
}

func TestWrap(t *testing.T) {
	r := NewRenderer(12, NoColorStyles())
	assert.Equal(t, "  aa bb cc\n  dd\n", r.wrap([]string{"aa", "bb", "cc", "dd"}, "  "))
	assert.Equal(t, "", r.wrap(nil, "  "))
}

func TestDetectTerminal_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	assert.Equal(t, Terminal{}, DetectTerminal(f))
}
