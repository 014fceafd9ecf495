// Package execenv builds the environment handed to PTY children.
//
// The starting set comes from the gateway's own environment, optionally
// narrowed and filtered, after which the terminal variables are forced so
// that programs emit colored, full-featured output as if attached to a real
// terminal. The sanitizer removes the resulting escape sequences later.
package execenv

import (
	"os"
	"path"
	"sort"
	"strings"
)

// TerminalVars are set on every child and win over inherited values.
var TerminalVars = map[string]string{
	"TERM":        "xterm-256color",
	"FORCE_COLOR": "1",
	"COLORTERM":   "truecolor",
}

// Inherit selects the starting variable set.
type Inherit string

const (
	// InheritAll starts from the full parent environment (default).
	InheritAll Inherit = "all"
	// InheritCore keeps only HOME, PATH, USER and similar.
	InheritCore Inherit = "core"
	// InheritNone starts empty.
	InheritNone Inherit = "none"
)

var coreVars = map[string]bool{
	"HOME":     true,
	"LOGNAME":  true,
	"PATH":     true,
	"SHELL":    true,
	"USER":     true,
	"USERNAME": true,
	"TMPDIR":   true,
	"LANG":     true,
	"LC_ALL":   true,
}

var secretPatterns = []string{"*key*", "*secret*", "*token*", "*password*"}

// Policy configures how the child environment is derived.
type Policy struct {
	Inherit Inherit `yaml:"inherit"`
	// ExcludeSecrets drops *KEY*, *SECRET*, *TOKEN* and *PASSWORD* variables.
	ExcludeSecrets bool `yaml:"exclude_secrets"`
	// Exclude holds case-insensitive glob patterns of names to drop.
	Exclude []string `yaml:"exclude"`
	// Set is applied after filtering.
	Set map[string]string `yaml:"set"`
}

// Build derives the child environment from environ ("KEY=VALUE" entries).
// The result is sorted by name so spawned processes see a stable order.
func (p Policy) Build(environ []string) []string {
	env := make(map[string]string, len(environ)+len(TerminalVars))

	for _, entry := range environ {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		switch p.Inherit {
		case InheritNone:
			continue
		case InheritCore:
			if !coreVars[k] {
				continue
			}
		}
		if p.ExcludeSecrets && matchesAny(k, secretPatterns) {
			continue
		}
		if matchesAny(k, p.Exclude) {
			continue
		}
		env[k] = v
	}

	for k, v := range p.Set {
		env[k] = v
	}
	for k, v := range TerminalVars {
		env[k] = v
	}

	return toSlice(env)
}

// FromProcess is Build applied to os.Environ.
func (p Policy) FromProcess() []string {
	return p.Build(os.Environ())
}

func toSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// matchesAny reports whether name matches one of the glob patterns,
// ignoring case. Malformed patterns never match.
func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if ok, err := path.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}
