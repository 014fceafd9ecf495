package sandbox

import "fmt"

// Bwrap wraps commands with bubblewrap according to Policy.
type Bwrap struct {
	Policy Policy
}

// Name implements Wrapper.
func (b *Bwrap) Name() string { return "bwrap:" + string(b.Policy.Mode) }

// Wrap prefixes argv with the bwrap invocation for the policy.
func (b *Bwrap) Wrap(argv []string, cwd string) ([]string, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("sandbox: empty command")
	}

	cmd := []string{"bwrap",
		"--ro-bind", "/", "/",
		"--dev", "/dev",
		"--proc", "/proc",
		"--tmpfs", "/tmp",
	}

	switch b.Policy.Mode {
	case ModeReadOnly:
	case ModeWorkspaceWrite:
		for _, root := range b.Policy.WritableRoots {
			cmd = append(cmd, "--bind", root, root)
		}
	default:
		return nil, fmt.Errorf("sandbox: unsupported mode %q", b.Policy.Mode)
	}

	cmd = append(cmd, "--unshare-pid", "--die-with-parent")
	if !b.Policy.NetworkAccess {
		cmd = append(cmd, "--unshare-net")
	}
	if cwd != "" {
		cmd = append(cmd, "--chdir", cwd)
	}

	cmd = append(cmd, "--")
	return append(cmd, argv...), nil
}
