// Package sandbox optionally confines spawned commands with bubblewrap.
//
// Wrapping happens after validation: the policy always judges the command
// the caller asked for, and the sandbox only changes how it is launched.
package sandbox

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// Mode controls the level of filesystem restriction.
type Mode string

const (
	// ModeOff runs commands directly (default).
	ModeOff Mode = "off"
	// ModeReadOnly mounts the whole filesystem read-only with a private /tmp.
	ModeReadOnly Mode = "read-only"
	// ModeWorkspaceWrite is ModeReadOnly plus writable bind mounts.
	ModeWorkspaceWrite Mode = "workspace-write"
)

// ErrUnavailable is returned when a restricted mode is requested on a host
// without bubblewrap.
var ErrUnavailable = errors.New("sandbox: bwrap is not available on this host")

// ParseMode parses a configured mode. The empty string means ModeOff.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "off", "none", "full-access", "full_access":
		return ModeOff, nil
	case "read-only", "read_only":
		return ModeReadOnly, nil
	case "workspace-write", "workspace_write":
		return ModeWorkspaceWrite, nil
	default:
		return "", fmt.Errorf("invalid sandbox mode %q: must be off, read-only, or workspace-write", s)
	}
}

// Policy is the sandbox section of the gateway configuration.
type Policy struct {
	Mode          Mode     `yaml:"mode"`
	WritableRoots []string `yaml:"writable_roots"`
	NetworkAccess bool     `yaml:"network_access"`
}

// Restricted reports whether commands must be wrapped.
func (p Policy) Restricted() bool {
	return p.Mode != "" && p.Mode != ModeOff
}

// Wrapper turns a validated argv into the argv that is actually spawned.
type Wrapper interface {
	Wrap(argv []string, cwd string) ([]string, error)
	Name() string
}

// New returns the wrapper for policy. Restricted modes need bwrap.
func New(policy Policy) (Wrapper, error) {
	if !policy.Restricted() {
		return Passthrough{}, nil
	}
	if _, err := ParseMode(string(policy.Mode)); err != nil {
		return nil, err
	}
	if !bwrapAvailable() {
		return nil, ErrUnavailable
	}
	return &Bwrap{Policy: policy}, nil
}

func bwrapAvailable() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	_, err := exec.LookPath("bwrap")
	return err == nil
}

// Passthrough leaves commands unchanged.
type Passthrough struct{}

// Wrap returns a copy of argv.
func (Passthrough) Wrap(argv []string, _ string) ([]string, error) {
	return append([]string(nil), argv...), nil
}

// Name implements Wrapper.
func (Passthrough) Name() string { return string(ModeOff) }
