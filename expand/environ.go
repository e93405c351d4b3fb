package expand

import (
	"cmp"
	"slices"
	"strings"
)

// Environ is the base interface a shell environment exposes to the
// expansion pipeline: fetch a variable by name, and iterate over
// everything currently set.
type Environ interface {
	// Get retrieves a variable by name. Use Variable.IsSet to tell an
	// unset variable apart from one set to the empty string.
	Get(name string) Variable

	// Each calls fn once per currently set variable. Iteration stops
	// early if fn returns false. Each must forward exported variables,
	// since command execution needs them.
	Each(fn func(name string, vr Variable) bool)
}

// WriteEnviron extends Environ with mutation: assignment, export,
// readonly, and unset all go through Set.
type WriteEnviron interface {
	Environ
	// Set assigns name. If !vr.IsSet the variable is being unset;
	// otherwise its value and attributes are replaced by vr. Set
	// returns an error if name is empty or already readonly.
	Set(name string, vr Variable) error
}

// Variable is a shell variable's value and attributes. Shell arrays are
// out of scope, so a Variable holds at most one string.
type Variable struct {
	Set      bool
	Exported bool
	ReadOnly bool
	Str      string
}

// IsSet reports whether the variable has been assigned a value.
func (v Variable) IsSet() bool { return v.Set }

// String returns the variable's value, or the empty string if unset.
func (v Variable) String() string { return v.Str }

// FuncEnviron adapts a name-to-value lookup function into an Environ.
// An empty return value is treated as unset. The resulting Environ's
// Each is a no-op, since fn cannot be enumerated.
func FuncEnviron(fn func(string) string) Environ {
	return funcEnviron(fn)
}

type funcEnviron func(string) string

func (f funcEnviron) Get(name string) Variable {
	value := f(name)
	if value == "" {
		return Variable{}
	}
	return Variable{Set: true, Exported: true, Str: value}
}

func (f funcEnviron) Each(func(name string, vr Variable) bool) {}

// ListEnviron builds an Environ from "name=value" pairs, e.g. os.Environ().
// All resulting variables are exported. When a name appears more than
// once, the last pair wins.
func ListEnviron(pairs ...string) Environ {
	list := append([]string{}, pairs...)
	slices.SortStableFunc(list, func(a, b string) int {
		an, _, _ := strings.Cut(a, "=")
		bn, _, _ := strings.Cut(b, "=")
		return cmp.Compare(an, bn)
	})
	last := ""
	for i := 0; i < len(list); {
		name, _, ok := strings.Cut(list[i], "=")
		if name == "" || !ok {
			list = slices.Delete(list, i, i+1)
			continue
		}
		if last == name {
			list = slices.Delete(list, i-1, i)
			continue
		}
		last = name
		i++
	}
	return listEnviron(list)
}

type listEnviron []string

func (l listEnviron) Get(name string) Variable {
	prefix := name + "="
	i, ok := slices.BinarySearchFunc(l, name, func(pair, name string) int {
		n, _, _ := strings.Cut(pair, "=")
		return cmp.Compare(n, name)
	})
	if ok && strings.HasPrefix(l[i], prefix) {
		return Variable{Set: true, Exported: true, Str: l[i][len(prefix):]}
	}
	return Variable{}
}

func (l listEnviron) Each(fn func(name string, vr Variable) bool) {
	for _, pair := range l {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if !fn(name, Variable{Set: true, Exported: true, Str: value}) {
			return
		}
	}
}
