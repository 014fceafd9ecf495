package command_safety

import "strings"

// IsKnownReadOnly returns true if argv only inspects state.
func IsKnownReadOnly(argv []string) bool {
	if len(argv) == 0 {
		return false
	}
	if len(argv) == 2 && containsAny(argv[1:], "--version", "-V", "version", "--help", "-h") {
		return true
	}

	switch programName(argv) {
	case "cat", "head", "tail", "less", "more", "file", "stat", "wc", "grep",
		"diff", "tree", "ls", "ps", "df", "du", "free", "uname", "whoami", "id",
		"uptime", "hostname", "date", "cal", "env", "printenv", "which",
		"whereis", "type", "man", "help", "top", "htop", "journalctl":
		return true
	case "sort":
		return !hasOutputFlag(argv[1:], "-o", "--output")
	case "uniq":
		// A second positional operand is an output file.
		return countPositional(argv[1:]) < 2
	case "find":
		return !containsAny(argv[1:], "-exec", "-execdir", "-ok", "-okdir", "-delete",
			"-fls", "-fprint", "-fprint0", "-fprintf")
	case "sed":
		return sedIsReadOnly(argv)
	case "git":
		return gitIsReadOnly(argv)
	case "docker", "podman":
		return subcommandIn(argv, "ps", "images", "info", "logs", "inspect", "stats", "top", "version")
	case "npm":
		return subcommandIn(argv, "ls", "list", "view", "info", "outdated", "doctor", "config")
	case "systemctl":
		return subcommandIn(argv, "status", "is-active", "is-enabled", "is-failed", "list-units", "list-unit-files", "show", "cat")
	case "claude":
		return subcommandIn(argv, "doctor")
	default:
		return false
	}
}

func subcommandIn(argv []string, names ...string) bool {
	for _, a := range argv[1:] {
		if strings.HasPrefix(a, "-") {
			continue
		}
		return containsAny([]string{a}, names...)
	}
	return false
}

func countPositional(args []string) int {
	n := 0
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			n++
		}
	}
	return n
}

func hasOutputFlag(args []string, short, long string) bool {
	for _, a := range args {
		if a == short || a == long || strings.HasPrefix(a, long+"=") ||
			(strings.HasPrefix(a, short) && len(a) > len(short)) {
			return true
		}
	}
	return false
}

func gitIsReadOnly(argv []string) bool {
	// -c core.pager=... and friends can make git run arbitrary programs.
	for _, a := range argv[1:] {
		if a == "-c" || a == "--config-env" || strings.HasPrefix(a, "--config-env=") ||
			(strings.HasPrefix(a, "-c") && len(a) > 2) {
			return false
		}
	}

	idx, sub, found := FindGitSubcommand(argv, []string{"status", "log", "diff", "show", "branch", "blame", "rev-parse"})
	if !found {
		return false
	}
	rest := argv[idx+1:]
	for _, a := range rest {
		if a == "--output" || a == "--ext-diff" || a == "--textconv" || a == "--exec" ||
			strings.HasPrefix(a, "--output=") || strings.HasPrefix(a, "--exec=") {
			return false
		}
	}
	if sub == "branch" {
		return gitBranchIsListing(rest)
	}
	return true
}

func gitBranchIsListing(args []string) bool {
	if len(args) == 0 {
		return true
	}
	sawListing := false
	for _, a := range args {
		switch a {
		case "--list", "-l", "--show-current", "-a", "--all", "-r", "--remotes", "-v", "-vv", "--verbose":
			sawListing = true
		default:
			if !strings.HasPrefix(a, "--format=") {
				// Any other operand may create, rename or delete a branch.
				return false
			}
			sawListing = true
		}
	}
	return sawListing
}

// sedIsReadOnly accepts only `sed -n {N|M,N}p [file]`.
func sedIsReadOnly(argv []string) bool {
	if len(argv) < 3 || len(argv) > 4 || argv[1] != "-n" {
		return false
	}
	expr := argv[2]
	if !strings.HasSuffix(expr, "p") {
		return false
	}
	parts := strings.Split(strings.TrimSuffix(expr, "p"), ",")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
	}
	return true
}
