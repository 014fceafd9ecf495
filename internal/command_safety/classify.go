// Package command_safety classifies an argument vector by its effect on the
// host: read-only inspection, ordinary mutation, or destructive operations
// that discard data (git reset, forced pushes, container removal, ...).
//
// The gateway never interprets shell syntax, so every function here receives
// the exact argv that will be passed to the process.
package command_safety

import "path/filepath"

// Class is the effect classification of a command.
type Class int

const (
	// ClassReadOnly commands only inspect state.
	ClassReadOnly Class = iota
	// ClassMutating commands may change state but are not known to destroy it.
	ClassMutating
	// ClassDestructive commands are known to discard data or history.
	ClassDestructive
)

// String returns the label used in logs and metrics.
func (c Class) String() string {
	switch c {
	case ClassReadOnly:
		return "read_only"
	case ClassDestructive:
		return "destructive"
	default:
		return "mutating"
	}
}

// Classify returns the effect class of argv.
func Classify(argv []string) Class {
	switch {
	case CommandMightBeDangerous(argv):
		return ClassDestructive
	case IsKnownReadOnly(argv):
		return ClassReadOnly
	default:
		return ClassMutating
	}
}

func programName(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return filepath.Base(argv[0])
}

func containsAny(args []string, flags ...string) bool {
	for _, a := range args {
		for _, f := range flags {
			if a == f {
				return true
			}
		}
	}
	return false
}

// shortFlagGroupContains checks if a short-flag group like "-dv" contains the target char.
func shortFlagGroupContains(arg string, target byte) bool {
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}
	for i := 1; i < len(arg); i++ {
		if arg[i] == target {
			return true
		}
	}
	return false
}
