// Package policy decides which commands the gateway may run: a closed set of
// allowed base commands, an ordered list of forbidden substrings that are
// checked against the raw command and every argument, and a working-directory
// rule that keeps relative and traversing paths under the home directory.
//
// A Policy is built once at startup and never mutated afterwards, so it is
// safe to share between concurrent sessions.
package policy

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// DefaultAllowedCommands is the built-in whitelist of executable base names.
var DefaultAllowedCommands = []string{
	// System info
	"claude", "htop", "top", "ps", "df", "du", "free", "uname", "whoami", "id",
	"uptime", "hostname", "date", "cal", "env", "printenv",
	// File inspection
	"ls", "cat", "head", "tail", "less", "more", "file", "stat", "wc", "find",
	"grep", "awk", "sed", "sort", "uniq", "diff", "tree",
	// Development
	"git", "npm", "npx", "node", "python", "python3", "pip", "pip3",
	"cargo", "rustc", "go", "java", "javac", "mvn", "gradle",
	// Editors (version checks)
	"vim", "nvim", "nano", "code", "emacs",
	// Network
	"ping", "curl", "wget", "ssh", "scp", "rsync",
	// Containers
	"docker", "docker-compose", "podman",
	// System
	"systemctl", "journalctl", "which", "whereis", "type", "man", "help",
}

// Pattern is a named forbidden pattern.
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
}

// DefaultForbiddenPatterns are checked in order; the first match wins.
var DefaultForbiddenPatterns = []Pattern{
	{Name: "shell metacharacter", Regexp: regexp.MustCompile("[;&|`$(){}\\[\\]<>]")},
	{Name: "command substitution", Regexp: regexp.MustCompile(`\$\(`)},
	{Name: "backtick substitution", Regexp: regexp.MustCompile("`.*`")},
	{Name: "logical or", Regexp: regexp.MustCompile(`\|\|`)},
	{Name: "logical and", Regexp: regexp.MustCompile(`&&`)},
	{Name: "newline", Regexp: regexp.MustCompile(`\n`)},
	{Name: "carriage return", Regexp: regexp.MustCompile(`\r`)},
	{Name: "null byte", Regexp: regexp.MustCompile(`\x00`)},
}

// fallbackHome is used when neither an explicit home nor $HOME is available.
const fallbackHome = "/home"

// Policy is the immutable validation configuration.
type Policy struct {
	allowed           map[string]bool
	patterns          []Pattern
	homeDir           string
	workDir           string
	restrictCwdToHome bool
	denyDestructive   bool
}

// Option customizes a Policy at construction time.
type Option func(*Policy)

// WithHomeDir sets the directory relative and traversing paths must stay under.
func WithHomeDir(dir string) Option {
	return func(p *Policy) {
		if dir != "" {
			p.homeDir = filepath.Clean(dir)
		}
	}
}

// WithWorkingDir sets the directory relative paths are resolved against.
// Defaults to the process working directory at construction.
func WithWorkingDir(dir string) Option {
	return func(p *Policy) {
		if dir != "" {
			p.workDir = filepath.Clean(dir)
		}
	}
}

// WithRestrictCwdToHome also rejects absolute working directories outside home.
func WithRestrictCwdToHome(restrict bool) Option {
	return func(p *Policy) { p.restrictCwdToHome = restrict }
}

// WithDenyDestructive rejects destructive invocations of whitelisted tools
// (git reset, git push --force, rm -rf and similar).
func WithDenyDestructive(deny bool) Option {
	return func(p *Policy) { p.denyDestructive = deny }
}

// WithAllowedCommands replaces the default whitelist.
func WithAllowedCommands(names ...string) Option {
	return func(p *Policy) {
		p.allowed = make(map[string]bool, len(names))
		for _, n := range names {
			p.allowed[n] = true
		}
	}
}

// WithExtensions merges commands and patterns parsed from a policy file.
func WithExtensions(ext *Extensions) Option {
	return func(p *Policy) {
		if ext == nil {
			return
		}
		for _, n := range ext.AllowedCommands {
			p.allowed[n] = true
		}
		p.patterns = append(p.patterns, ext.ForbiddenPatterns...)
	}
}

// New builds a Policy from the defaults plus the given options.
func New(opts ...Option) *Policy {
	p := &Policy{
		allowed:  make(map[string]bool, len(DefaultAllowedCommands)),
		patterns: append([]Pattern(nil), DefaultForbiddenPatterns...),
		homeDir:  defaultHome(),
	}
	for _, n := range DefaultAllowedCommands {
		p.allowed[n] = true
	}
	if wd, err := os.Getwd(); err == nil {
		p.workDir = wd
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Clean(home)
	}
	return fallbackHome
}

// HomeDir returns the home directory the policy enforces.
func (p *Policy) HomeDir() string {
	return p.homeDir
}

// IsAllowed reports whether name is a whitelisted base command.
func (p *Policy) IsAllowed(name string) bool {
	return p.allowed[name]
}

// AllowedCommands returns the whitelist, sorted.
func (p *Policy) AllowedCommands() []string {
	names := make([]string, 0, len(p.allowed))
	for n := range p.allowed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ForbiddenPatterns returns a copy of the ordered pattern list.
func (p *Policy) ForbiddenPatterns() []Pattern {
	return append([]Pattern(nil), p.patterns...)
}

// RestrictCwdToHome reports whether working directories must lie under $HOME.
func (p *Policy) RestrictCwdToHome() bool { return p.restrictCwdToHome }

// DenyDestructive reports whether the destructive-command patterns are enforced.
func (p *Policy) DenyDestructive() bool { return p.denyDestructive }
