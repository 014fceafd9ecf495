package execenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookup(env []string, key string) (string, bool) {
	for _, entry := range env {
		if len(entry) > len(key) && entry[:len(key)+1] == key+"=" {
			return entry[len(key)+1:], true
		}
	}
	return "", false
}

func TestBuild_ForcesTerminalVars(t *testing.T) {
	env := Policy{}.Build([]string{"PATH=/usr/bin", "TERM=dumb"})

	term, _ := lookup(env, "TERM")
	assert.Equal(t, "xterm-256color", term)
	fc, _ := lookup(env, "FORCE_COLOR")
	assert.Equal(t, "1", fc)
	ct, _ := lookup(env, "COLORTERM")
	assert.Equal(t, "truecolor", ct)
	p, _ := lookup(env, "PATH")
	assert.Equal(t, "/usr/bin", p)
}

func TestBuild_TerminalVarsBeatSet(t *testing.T) {
	env := Policy{Set: map[string]string{"TERM": "vt100", "EDITOR": "vi"}}.Build(nil)

	term, _ := lookup(env, "TERM")
	assert.Equal(t, "xterm-256color", term)
	editor, _ := lookup(env, "EDITOR")
	assert.Equal(t, "vi", editor)
}

func TestBuild_SortedAndDeterministic(t *testing.T) {
	environ := []string{"ZED=1", "ALPHA=2", "MIDDLE=3"}
	a := Policy{}.Build(environ)
	b := Policy{}.Build(environ)

	assert.Equal(t, a, b)
	assert.Equal(t, "ALPHA=2", a[0])
}

func TestBuild_InheritNone(t *testing.T) {
	env := Policy{Inherit: InheritNone}.Build([]string{"PATH=/usr/bin", "HOME=/home/u"})

	_, ok := lookup(env, "PATH")
	assert.False(t, ok)
	assert.Len(t, env, len(TerminalVars))
}

func TestBuild_InheritCore(t *testing.T) {
	env := Policy{Inherit: InheritCore}.Build([]string{"PATH=/usr/bin", "HOME=/home/u", "CUSTOM=x"})

	_, ok := lookup(env, "CUSTOM")
	assert.False(t, ok)
	home, _ := lookup(env, "HOME")
	assert.Equal(t, "/home/u", home)
}

func TestBuild_ExcludeSecrets(t *testing.T) {
	environ := []string{"PATH=/usr/bin", "API_KEY=s", "GITHUB_TOKEN=t", "db_password=p"}

	kept := Policy{}.Build(environ)
	_, ok := lookup(kept, "API_KEY")
	assert.True(t, ok)

	filtered := Policy{ExcludeSecrets: true}.Build(environ)
	for _, k := range []string{"API_KEY", "GITHUB_TOKEN", "db_password"} {
		_, ok := lookup(filtered, k)
		assert.False(t, ok, k)
	}
	_, ok = lookup(filtered, "PATH")
	assert.True(t, ok)
}

func TestBuild_CustomExcludeIsCaseInsensitive(t *testing.T) {
	env := Policy{Exclude: []string{"aws_*"}}.Build([]string{"AWS_REGION=x", "AWS_PROFILE=y", "HOME=/h"})

	_, ok := lookup(env, "AWS_REGION")
	assert.False(t, ok)
	_, ok = lookup(env, "AWS_PROFILE")
	assert.False(t, ok)
	_, ok = lookup(env, "HOME")
	assert.True(t, ok)
}

func TestBuild_SetReinsertsExcluded(t *testing.T) {
	env := Policy{ExcludeSecrets: true, Set: map[string]string{"API_KEY": "new"}}.Build([]string{"API_KEY=old"})

	v, _ := lookup(env, "API_KEY")
	assert.Equal(t, "new", v)
}

func TestBuild_SkipsMalformedEntries(t *testing.T) {
	env := Policy{}.Build([]string{"NOEQUALS", "=novalue", "OK=1"})

	_, ok := lookup(env, "OK")
	assert.True(t, ok)
	assert.Len(t, env, 1+len(TerminalVars))
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"*KEY*", "f?o"}

	assert.True(t, matchesAny("api_key", patterns))
	assert.True(t, matchesAny("FOO", patterns))
	assert.False(t, matchesAny("fooo", patterns))
	assert.False(t, matchesAny("PATH", patterns))
	assert.False(t, matchesAny("x", []string{"["}))
}
