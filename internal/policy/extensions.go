package policy

import (
	"fmt"
	"os"
	"regexp"

	"go.starlark.net/starlark"
)

// Extensions are additions to the built-in policy read from a Starlark file:
//
//	allow_command("kubectl", "helm")
//	forbid_pattern(r"--kubeconfig", name="kubeconfig override")
//
// Extensions can only widen the whitelist or add patterns; the default
// forbidden patterns always stay in effect.
type Extensions struct {
	AllowedCommands   []string
	ForbiddenPatterns []Pattern
}

// LoadExtensions reads and parses a policy file. A missing file yields nil
// extensions and no error.
func LoadExtensions(path string) (*Extensions, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return ParseExtensions(path, string(data))
}

// ParseExtensions evaluates a Starlark policy source.
func ParseExtensions(filename, source string) (*Extensions, error) {
	ext := &Extensions{}

	allowCommand := starlark.NewBuiltin("allow_command", func(
		thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: at least one command name required", fn.Name())
		}
		for i, v := range args {
			s, ok := starlark.AsString(v)
			if !ok {
				return nil, fmt.Errorf("%s: argument %d must be a string, got %s", fn.Name(), i, v.Type())
			}
			if s == "" {
				return nil, fmt.Errorf("%s: command name must not be empty", fn.Name())
			}
			ext.AllowedCommands = append(ext.AllowedCommands, s)
		}
		return starlark.None, nil
	})

	forbidPattern := starlark.NewBuiltin("forbid_pattern", func(
		thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var expr, name string
		if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
			"pattern", &expr,
			"name?", &name,
		); err != nil {
			return nil, err
		}
		if expr == "" {
			return nil, fmt.Errorf("%s: pattern must not be empty", fn.Name())
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		if name == "" {
			name = expr
		}
		ext.ForbiddenPatterns = append(ext.ForbiddenPatterns, Pattern{Name: name, Regexp: re})
		return starlark.None, nil
	})

	predeclared := starlark.StringDict{
		"allow_command":  allowCommand,
		"forbid_pattern": forbidPattern,
	}

	thread := &starlark.Thread{Name: filename}
	if _, err := starlark.ExecFile(thread, filename, source, predeclared); err != nil {
		pe := &ParseError{
			File:    filename,
			Message: fmt.Sprintf("starlark: %v", err),
			Cause:   err,
		}
		if evalErr, ok := err.(*starlark.EvalError); ok && len(evalErr.CallStack) > 0 {
			pe.Line = int(evalErr.CallStack.At(0).Pos.Line)
		}
		return nil, pe
	}
	return ext, nil
}
