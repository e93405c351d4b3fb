package expand

import (
	"reflect"
	"testing"
)

func TestListEnviron(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  []string
	}{
		{name: "Empty", pairs: nil, want: []string{}},
		{name: "Simple", pairs: []string{"A=b", "c="}, want: []string{"A=b", "c="}},
		{name: "MissingEqual", pairs: []string{"A=b", "invalid", "c="}, want: []string{"A=b", "c="}},
		{name: "DuplicateNames", pairs: []string{"A=b", "A=x", "c=", "c=y"}, want: []string{"A=x", "c=y"}},
		{name: "NoName", pairs: []string{"=b", "=c"}, want: []string{}},
		{name: "EmptyElements", pairs: []string{"A=b", "", "", "c="}, want: []string{"A=b", "c="}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotEnv := ListEnviron(tc.pairs...)
			got := []string(gotEnv.(listEnviron))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ListEnviron(%q) wanted %q, got %q", tc.pairs, tc.want, got)
			}
		})
	}
}

func TestListEnvironGet(t *testing.T) {
	env := ListEnviron("A=b", "FOO=bar")
	if got := env.Get("FOO"); !got.IsSet() || got.Str != "bar" {
		t.Fatalf("Get(FOO) = %+v", got)
	}
	if got := env.Get("MISSING"); got.IsSet() {
		t.Fatalf("Get(MISSING) = %+v, want unset", got)
	}
}

func TestFuncEnviron(t *testing.T) {
	env := FuncEnviron(func(name string) string {
		if name == "FOO" {
			return "bar"
		}
		return ""
	})
	if got := env.Get("FOO"); !got.IsSet() || got.Str != "bar" {
		t.Fatalf("Get(FOO) = %+v", got)
	}
	if got := env.Get("MISSING"); got.IsSet() {
		t.Fatalf("Get(MISSING) = %+v, want unset", got)
	}
}
