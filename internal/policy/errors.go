package policy

import (
	"errors"
	"fmt"
)

// Kind classifies why a request was rejected.
type Kind int

const (
	KindEmptyCommand Kind = iota
	KindCommandNotAllowed
	KindForbiddenPattern
	KindPathTraversal
	KindDestructiveCommand
)

// Sentinels usable with errors.Is against a *ValidationError.
var (
	ErrEmptyCommand       = errors.New("empty command")
	ErrCommandNotAllowed  = errors.New("command not allowed")
	ErrForbiddenPattern   = errors.New("forbidden pattern")
	ErrPathTraversal      = errors.New("path traversal")
	ErrDestructiveCommand = errors.New("destructive command")
)

func (k Kind) sentinel() error {
	switch k {
	case KindEmptyCommand:
		return ErrEmptyCommand
	case KindCommandNotAllowed:
		return ErrCommandNotAllowed
	case KindForbiddenPattern:
		return ErrForbiddenPattern
	case KindPathTraversal:
		return ErrPathTraversal
	case KindDestructiveCommand:
		return ErrDestructiveCommand
	default:
		return nil
	}
}

// String returns the metric/log label for a Kind.
func (k Kind) String() string {
	switch k {
	case KindEmptyCommand:
		return "empty_command"
	case KindCommandNotAllowed:
		return "command_not_allowed"
	case KindForbiddenPattern:
		return "forbidden_pattern"
	case KindPathTraversal:
		return "path_traversal"
	case KindDestructiveCommand:
		return "destructive_command"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ValidationError is returned for any request the policy refuses. A request
// that fails validation never reaches process spawning.
type ValidationError struct {
	Kind    Kind
	Message string
	// Index is the offending argument position, or -1 when the error is not
	// about an argument.
	Index int
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches the sentinel for the error's Kind.
func (e *ValidationError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newValidationError(kind Kind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...), Index: -1}
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseError represents an error loading a policy extension file.
type ParseError struct {
	File    string
	Line    int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
