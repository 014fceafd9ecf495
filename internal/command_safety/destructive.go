package command_safety

import "strings"

// CommandMightBeDangerous returns true if argv is known to discard data.
func CommandMightBeDangerous(argv []string) bool {
	if len(argv) == 0 {
		return false
	}

	switch programName(argv) {
	case "git":
		return gitIsDestructive(argv)
	case "rm":
		return len(argv) > 1 && (argv[1] == "-f" || argv[1] == "-rf" || argv[1] == "-fr")
	case "docker", "podman":
		return containerIsDestructive(argv[1:])
	case "find":
		return containsAny(argv[1:], "-delete")
	default:
		return false
	}
}

// FindGitSubcommand finds the first matching git subcommand, skipping global
// options. In git the first non-option token is the subcommand; scanning stops
// there so branch names are never mistaken for subcommands.
func FindGitSubcommand(argv []string, subcommands []string) (idx int, name string, found bool) {
	if programName(argv) != "git" {
		return 0, "", false
	}

	skipNext := false
	for i := 1; i < len(argv); i++ {
		if skipNext {
			skipNext = false
			continue
		}
		arg := argv[i]

		if gitGlobalOptionHasInlineValue(arg) {
			continue
		}
		if gitGlobalOptionTakesValue(arg) {
			skipNext = true
			continue
		}
		if arg == "--" || strings.HasPrefix(arg, "-") {
			continue
		}

		for _, sub := range subcommands {
			if arg == sub {
				return i, arg, true
			}
		}
		return 0, "", false
	}
	return 0, "", false
}

func gitGlobalOptionTakesValue(arg string) bool {
	switch arg {
	case "-C", "-c", "--config-env", "--exec-path", "--git-dir", "--namespace", "--super-prefix", "--work-tree":
		return true
	}
	return false
}

func gitGlobalOptionHasInlineValue(arg string) bool {
	for _, prefix := range []string{"--config-env=", "--exec-path=", "--git-dir=", "--namespace=", "--super-prefix=", "--work-tree="} {
		if strings.HasPrefix(arg, prefix) {
			return true
		}
	}
	return (strings.HasPrefix(arg, "-C") || strings.HasPrefix(arg, "-c")) && len(arg) > 2
}

func gitIsDestructive(argv []string) bool {
	idx, sub, found := FindGitSubcommand(argv, []string{"reset", "rm", "branch", "push", "clean", "checkout", "restore"})
	if !found {
		return false
	}
	rest := argv[idx+1:]

	switch sub {
	case "reset", "rm":
		return true
	case "branch":
		for _, a := range rest {
			if a == "--delete" || strings.HasPrefix(a, "--delete=") ||
				shortFlagGroupContains(a, 'd') || shortFlagGroupContains(a, 'D') {
				return true
			}
		}
		return false
	case "push":
		for _, a := range rest {
			switch {
			case a == "--force", a == "--force-with-lease", a == "--force-if-includes", a == "--delete", a == "--mirror":
				return true
			case strings.HasPrefix(a, "--force-with-lease="), strings.HasPrefix(a, "--force-if-includes="), strings.HasPrefix(a, "--delete="):
				return true
			case shortFlagGroupContains(a, 'f'), shortFlagGroupContains(a, 'd'):
				return true
			case (strings.HasPrefix(a, "+") || strings.HasPrefix(a, ":")) && len(a) > 1:
				// +<refspec> forces, :<dst> deletes.
				return true
			}
		}
		return false
	case "clean":
		for _, a := range rest {
			if a == "--force" || strings.HasPrefix(a, "--force=") || shortFlagGroupContains(a, 'f') {
				return true
			}
		}
		return false
	case "checkout", "restore":
		// Discards working-tree changes.
		return containsAny(rest, "--", ".", "-f", "--force")
	}
	return false
}

func containerIsDestructive(args []string) bool {
	var words []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			words = append(words, a)
		}
	}
	if len(words) == 0 {
		return false
	}
	switch words[0] {
	case "rm", "rmi", "kill":
		return true
	case "system", "image", "container", "volume", "network", "builder":
		return len(words) > 1 && (words[1] == "prune" || words[1] == "rm")
	case "compose", "docker-compose":
		return len(words) > 1 && words[1] == "down" && containsAny(args, "-v", "--volumes")
	}
	return false
}
