package policy

import (
	"path/filepath"
	"strings"

	"github.com/mfateev/ptygw/internal/command_safety"
)

// Validated is a request that passed every check. Program is the whitelisted
// base token; any further tokens of the raw command are prepended to Args.
type Validated struct {
	Program string
	Args    []string
	Cwd     string // "" means no override
}

// Argv returns the full argument vector, program first.
func (v Validated) Argv() []string {
	return append([]string{v.Program}, v.Args...)
}

// Validate runs the command, argument and working-directory checks in order
// and returns the first rejection.
func (p *Policy) Validate(command string, args []string, cwd string) (Validated, error) {
	if err := p.ValidateCommand(command); err != nil {
		return Validated{}, err
	}
	checked, err := p.ValidateArgs(args)
	if err != nil {
		return Validated{}, err
	}
	dir, err := p.ValidateCwd(cwd)
	if err != nil {
		return Validated{}, err
	}

	tokens := strings.Fields(command)
	v := Validated{
		Program: tokens[0],
		Args:    append(append([]string(nil), tokens[1:]...), checked...),
		Cwd:     dir,
	}

	if p.denyDestructive && command_safety.CommandMightBeDangerous(v.Argv()) {
		return Validated{}, newValidationError(KindDestructiveCommand,
			"Command '%s' is destructive and denied by policy", strings.Join(v.Argv(), " "))
	}
	return v, nil
}

// ValidateCommand checks the raw command string. The whitelist applies to the
// first whitespace-delimited token; forbidden patterns apply to the whole
// string so metacharacters anywhere are caught.
func (p *Policy) ValidateCommand(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return newValidationError(KindEmptyCommand, "Command cannot be empty")
	}

	base := strings.Fields(trimmed)[0]
	if !p.allowed[base] {
		sample := p.AllowedCommands()
		if len(sample) > 10 {
			sample = sample[:10]
		}
		return newValidationError(KindCommandNotAllowed,
			"Command '%s' is not in the allowed list. Allowed: %s...", base, strings.Join(sample, ", "))
	}

	if pat, ok := p.match(command); ok {
		return newValidationError(KindForbiddenPattern,
			"Command contains dangerous pattern: %s (%s)", pat.Name, pat.Regexp.String())
	}
	return nil
}

// ValidateArgs checks each argument independently. Arguments are returned
// verbatim: they reach the process without any shell in between.
func (p *Policy) ValidateArgs(args []string) ([]string, error) {
	for i, arg := range args {
		if pat, ok := p.match(arg); ok {
			err := newValidationError(KindForbiddenPattern,
				"Argument %d contains dangerous pattern: %s (%s)", i, pat.Name, pat.Regexp.String())
			err.Index = i
			return nil, err
		}
	}
	return args, nil
}

// ValidateCwd checks a working-directory override. An empty path means no
// override. Relative paths and paths with a parent segment are resolved and
// must land inside the home directory. Absolute paths are accepted as-is
// unless the policy restricts them to home.
func (p *Policy) ValidateCwd(cwd string) (string, error) {
	if cwd == "" {
		return "", nil
	}

	cleaned := filepath.Clean(cwd)
	if hasParentSegment(cleaned) || !filepath.IsAbs(cleaned) {
		resolved := cleaned
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(p.workDir, resolved)
		}
		if !within(resolved, p.homeDir) {
			return "", newValidationError(KindPathTraversal, "Path traversal detected: %s", cwd)
		}
		return resolved, nil
	}

	if p.restrictCwdToHome && !within(cleaned, p.homeDir) {
		return "", newValidationError(KindPathTraversal, "Path outside home directory: %s", cwd)
	}
	return cleaned, nil
}

func (p *Policy) match(s string) (Pattern, bool) {
	for _, pat := range p.patterns {
		if pat.Regexp.MatchString(s) {
			return pat, true
		}
	}
	return Pattern{}, false
}

func hasParentSegment(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
