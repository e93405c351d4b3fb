package expand

import (
	"io/fs"
	"reflect"
	"testing"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/parser"
	"goyash.dev/goyash/source"
)

// mapEnv is a minimal WriteEnviron backed by a map, for tests only.
type mapEnv map[string]Variable

func (m mapEnv) Get(name string) Variable { return m[name] }
func (m mapEnv) Each(fn func(string, Variable) bool) {
	for name, vr := range m {
		if !fn(name, vr) {
			return
		}
	}
}
func (m mapEnv) Set(name string, vr Variable) error {
	if !vr.IsSet() {
		delete(m, name)
		return nil
	}
	m[name] = vr
	return nil
}

// parseWord parses the second argument of "x <src>" and returns its Word.
func parseWord(t *testing.T, src string) ast.Word {
	t.Helper()
	code := source.NewCode([]byte("x "+src+"\n"), source.Origin{Kind: source.Stdin})
	stack := source.NewStack(code)
	file, err := parser.Parse(stack, "test", nil)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	call := file.Stmts[0].Cmd.(*ast.CallExpr)
	return call.Args[1]
}

func TestExpandLiteral(t *testing.T) {
	env := mapEnv{"FOO": {Set: true, Str: "bar"}}
	c := &Context{Env: env}
	word := parseWord(t, `$FOO`)
	if got := c.ExpandLiteral(word); got != "bar" {
		t.Fatalf("ExpandLiteral = %q, want %q", got, "bar")
	}
}

func TestExpandFieldsSplitting(t *testing.T) {
	env := mapEnv{"FOO": {Set: true, Str: "a  b c"}}
	c := &Context{Env: env, NoGlob: true}
	word := parseWord(t, `$FOO`)
	got := c.ExpandFields(word)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields = %q, want %q", got, want)
	}
}

func TestExpandFieldsQuotedPreservesWhitespace(t *testing.T) {
	env := mapEnv{"FOO": {Set: true, Str: "a  b"}}
	c := &Context{Env: env, NoGlob: true}
	word := parseWord(t, `"$FOO"`)
	got := c.ExpandFields(word)
	want := []string{"a  b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields = %q, want %q", got, want)
	}
}

func TestExpandFieldsPositionalAt(t *testing.T) {
	c := &Context{Env: mapEnv{}, Positional: []string{"a b", "c"}, NoGlob: true}
	word := parseWord(t, `"$@"`)
	got := c.ExpandFields(word)
	want := []string{"a b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields(\"$@\") = %q, want %q", got, want)
	}
}

func TestParamSwitchDefault(t *testing.T) {
	c := &Context{Env: mapEnv{}}
	word := parseWord(t, `${FOO:-bar}`)
	if got := c.ExpandLiteral(word); got != "bar" {
		t.Fatalf("ExpandLiteral = %q, want %q", got, "bar")
	}
}

func TestParamTrim(t *testing.T) {
	env := mapEnv{"FOO": {Set: true, Str: "foo.bar.go"}}
	c := &Context{Env: env}
	word := parseWord(t, `${FOO%.*}`)
	if got := c.ExpandLiteral(word); got != "foo.bar" {
		t.Fatalf("ExpandLiteral = %q, want %q", got, "foo.bar")
	}
	word = parseWord(t, `${FOO%%.*}`)
	if got := c.ExpandLiteral(word); got != "foo" {
		t.Fatalf("ExpandLiteral = %q, want %q", got, "foo")
	}
}

func TestArithmExpansion(t *testing.T) {
	c := &Context{Env: mapEnv{}}
	word := parseWord(t, `$((1 + 2 * 3))`)
	if got := c.ExpandLiteral(word); got != "7" {
		t.Fatalf("ExpandLiteral = %q, want %q", got, "7")
	}
}

func TestGlob(t *testing.T) {
	c := &Context{
		Env:    mapEnv{"PWD": {Set: true, Str: "/"}},
		NoGlob: false,
		ReadDir: func(string) ([]fs.DirEntry, error) {
			return []fs.DirEntry{
				mockFileInfo("a"),
				mockFileInfo("ab"),
				mockFileInfo(".hidden"),
			}, nil
		},
	}
	word := parseWord(t, `a*`)
	got := c.ExpandFields(word)
	want := []string{"a", "ab"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields(a*) = %q, want %q", got, want)
	}
}

func TestExpandTildeHome(t *testing.T) {
	env := mapEnv{"HOME": {Set: true, Str: "/home/bob"}}
	c := &Context{Env: env, NoGlob: true}
	word := parseWord(t, `~/foo`)
	got := c.ExpandFields(word)
	want := []string{"/home/bob/foo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields(~/foo) = %q, want %q", got, want)
	}
}

func TestExpandTildeTrimsDoubleSlash(t *testing.T) {
	env := mapEnv{"HOME": {Set: true, Str: "/home/bob/"}}
	c := &Context{Env: env, NoGlob: true}
	word := parseWord(t, `~/foo`)
	got := c.ExpandFields(word)
	want := []string{"/home/bob/foo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields(~/foo) = %q, want %q (trailing slash on HOME should be trimmed)", got, want)
	}
}

func TestExpandTildeUnsetHomeLeavesLiteral(t *testing.T) {
	c := &Context{Env: mapEnv{}, NoGlob: true}
	word := parseWord(t, `~/foo`)
	got := c.ExpandFields(word)
	want := []string{"~/foo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields(~/foo) with unset HOME = %q, want %q", got, want)
	}
}

func TestExpandTildeEmptyHomeYieldsZeroWidthField(t *testing.T) {
	env := mapEnv{"HOME": {Set: true, Str: ""}}
	c := &Context{Env: env, NoGlob: true}
	word := parseWord(t, `~`)
	got := c.ExpandFields(word)
	want := []string{""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandFields(~) with HOME=\"\" = %q, want %q (one empty field, not zero fields)", got, want)
	}
}

type mockFileInfo string

func (m mockFileInfo) Name() string               { return string(m) }
func (m mockFileInfo) IsDir() bool                 { return false }
func (m mockFileInfo) Type() fs.FileMode           { return 0 }
func (m mockFileInfo) Info() (fs.FileInfo, error)  { return nil, nil }
