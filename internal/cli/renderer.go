// Package cli renders gateway results and policy listings for a human at a
// terminal.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mfateev/ptygw/internal/gateway"
	"github.com/mfateev/ptygw/internal/policy"
	"github.com/mfateev/ptygw/internal/ptysession"
)

const defaultWidth = 80

// Terminal describes the stream output is written to.
type Terminal struct {
	IsTTY bool
	Cols  int
	Rows  int
}

// DetectTerminal reports whether f is a terminal and, if so, its size.
func DetectTerminal(f *os.File) Terminal {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return Terminal{}
	}
	t := Terminal{IsTTY: true}
	if w, h, err := term.GetSize(fd); err == nil {
		t.Cols, t.Rows = w, h
	}
	return t
}

// Renderer formats results for display.
type Renderer struct {
	width  int
	styles Styles
}

// NewRenderer creates a renderer. A width of zero means 80 columns.
func NewRenderer(width int, styles Styles) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	return &Renderer{width: width, styles: styles}
}

// RenderResponse renders the header, separator and transcript of one call.
// Error responses render the error text in place of a transcript.
func (r *Renderer) RenderResponse(command string, resp gateway.Response) string {
	var b strings.Builder

	b.WriteString(r.styles.Bullet.Render("•"))
	b.WriteString(" ")
	b.WriteString(r.styles.Verb.Render("Ran"))
	b.WriteString(" ")
	b.WriteString(r.styles.Command.Render(command))
	b.WriteString("\n")

	if resp.IsError {
		b.WriteString("  ")
		b.WriteString(r.styles.Error.Render(resp.Text))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("  ")
	b.WriteString(r.status(resp))
	if meta := r.meta(resp); meta != "" {
		b.WriteString(r.styles.Dim.Render(" · " + meta))
	}
	b.WriteString("\n")
	b.WriteString(r.styles.Separator.Render(strings.Repeat("─", r.width)))
	b.WriteString("\n")
	if resp.Output != "" {
		b.WriteString(resp.Output)
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) status(resp gateway.Response) string {
	switch {
	case resp.Reason == ptysession.ReasonTimeout:
		return r.styles.Timeout.Render(fmt.Sprintf("timed out (exit %d)", resp.ExitCode))
	case resp.ExitCode == 0:
		return r.styles.ExitOK.Render("exit 0")
	default:
		return r.styles.ExitFail.Render(fmt.Sprintf("exit %d", resp.ExitCode))
	}
}

func (r *Renderer) meta(resp gateway.Response) string {
	var parts []string
	if resp.Duration > 0 {
		parts = append(parts, resp.Duration.Round(10*time.Millisecond).String())
	}
	if resp.Truncated {
		parts = append(parts, "truncated")
	}
	if resp.SessionID != "" {
		id := resp.SessionID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, "session "+id)
	}
	return strings.Join(parts, " · ")
}

// RenderPolicy lists the effective policy.
func (r *Renderer) RenderPolicy(p *policy.Policy) string {
	var b strings.Builder
	label := func(s string) string { return r.styles.Label.Render(s) }

	fmt.Fprintf(&b, "%s %s\n", label("home:"), p.HomeDir())
	fmt.Fprintf(&b, "%s %t\n", label("restrict_cwd_to_home:"), p.RestrictCwdToHome())
	fmt.Fprintf(&b, "%s %t\n", label("deny_destructive:"), p.DenyDestructive())

	b.WriteString(label("allowed commands:"))
	b.WriteString("\n")
	b.WriteString(r.wrap(p.AllowedCommands(), "  "))

	b.WriteString(label("forbidden patterns:"))
	b.WriteString("\n")
	for _, pat := range p.ForbiddenPatterns() {
		fmt.Fprintf(&b, "  %s %s\n", pat.Name, r.styles.Dim.Render(pat.Regexp.String()))
	}
	return b.String()
}

// wrap joins words into lines no wider than the renderer.
func (r *Renderer) wrap(words []string, indent string) string {
	var b strings.Builder
	line := indent
	for _, w := range words {
		if len(line) > len(indent) && len(line)+1+len(w) > r.width {
			b.WriteString(line)
			b.WriteString("\n")
			line = indent
		}
		if len(line) > len(indent) {
			line += " "
		}
		line += w
	}
	if len(line) > len(indent) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
