// Package interp implements the command executor: the component that
// walks a parsed program, drives word expansion and the System
// interface, and owns the mutable shell environment — variables,
// functions, aliases, options, traps, jobs, and the frame stack that
// break/continue/return resolve against.
package interp

import (
	"fmt"
	"sort"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/expand"
	"goyash.dev/goyash/source"
	"goyash.dev/goyash/system"
)

// Function is a named function definition: a shared, immutable body
// reference plus the bookkeeping a read-only function needs to report
// a precise redefinition error.
type Function struct {
	Body       *ast.Stmt
	ReadOnly   bool
	DefinedAt  source.Location
	ReadOnlyAt source.Location
}

// Alias is one glossary entry: name to replacement text, plus the
// "trailing blank" global flag that makes the *next* token also
// undergo alias substitution.
type Alias struct {
	Text   string
	Global bool
}

// scope is one level of the variable context stack: a plain map, plus
// a record of which names were declared read-only in this scope (and
// where), so Set can report a precisely located error.
type scope struct {
	vars       map[string]expand.Variable
	readonlyAt map[string]source.Location
}

func newScope() *scope {
	return &scope{vars: map[string]expand.Variable{}, readonlyAt: map[string]source.Location{}}
}

// Environment is the mutable, process-wide shell state: component G of
// the executor. It satisfies [expand.WriteEnviron] directly, so an
// *Environment can be used as an [expand.Context]'s Env without
// adaption.
type Environment struct {
	Sys system.System

	scopes    []*scope
	Functions map[string]*Function
	Aliases   map[string]Alias

	Options Options

	traps map[string]*Trap
	// parentTrap is a snapshot of the trap table a subshell's parent
	// held at the moment of forking, retained so that "trap -p" can
	// still report it for any condition this subshell has not itself
	// set or cleared, even though traps has already reset that
	// condition's actual (executable) disposition. nil at the top
	// level.
	parentTrap map[string]*Trap
	// trapOverridden marks which conditions this environment has
	// itself called SetTrap/ClearTrap on, so DisplayTrap knows when to
	// stop falling back to parentTrap.
	trapOverridden map[string]bool

	Jobs       []*Job
	currentJob int // index into Jobs of "%%"/"%+", or -1
	previousJob int

	frames []Frame

	Positional []string

	Umask       uint32
	Dir         string // $PWD
	OldDir      string // $OLDPWD
	LastAsyncPid int
	LastStatus   ExitStatus
	SubstStatus  ExitStatus
	LineNo       int

	// ShellPid backs "$$": the process ID of the shell itself, fixed
	// across subshells (POSIX has the subshell report the parent's
	// pid, not its own, for this parameter).
	ShellPid int
	// Name backs "$0": the shell's own invocation name, or the name
	// of the script/function currently executing when one has been
	// pushed onto the call stack.
	Name string

	// subshellDepth counts nested subshell entries, surfaced as the
	// read-only-by-convention $SHLVL-like bookkeeping components may
	// want; not itself a POSIX variable.
	subshellDepth int
}

// NewEnvironment returns a fresh top-level environment: one variable
// scope, POSIX-default options, and a System backend.
func NewEnvironment(sys system.System) *Environment {
	env := &Environment{
		Sys:        sys,
		scopes:     []*scope{newScope()},
		Functions:  map[string]*Function{},
		Aliases:    map[string]Alias{},
		traps:      map[string]*Trap{},
		currentJob: -1, previousJob: -1,
		Options:    NewOptions(),
		Umask: 0o022,
	}
	return env
}

// --- expand.Environ / expand.WriteEnviron ---

// Get implements expand.Environ: looks a variable up from the
// innermost scope outward.
func (env *Environment) Get(name string) expand.Variable {
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if vr, ok := env.scopes[i].vars[name]; ok {
			return vr
		}
	}
	return expand.Variable{}
}

// Each implements expand.Environ: visits the merged, innermost-wins
// view of every scope.
func (env *Environment) Each(fn func(name string, vr expand.Variable) bool) {
	seen := map[string]bool{}
	for i := len(env.scopes) - 1; i >= 0; i-- {
		names := make([]string, 0, len(env.scopes[i].vars))
		for name := range env.scopes[i].vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			if !fn(name, env.scopes[i].vars[name]) {
				return
			}
		}
	}
}

// ReadOnlyError reports an assignment to a read-only variable, citing
// the location where it was declared read-only.
type ReadOnlyError struct {
	Name       string
	ReadOnlyAt source.Location
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s: readonly variable (declared read-only at %s)", e.Name, e.ReadOnlyAt)
}

// Set implements expand.WriteEnviron: modifies an existing entry
// in place wherever it already lives in the scope stack, or creates
// it in the innermost scope if it doesn't exist anywhere yet. A
// Variable with !vr.IsSet() unsets name instead, per the interface's
// documented contract.
func (env *Environment) Set(name string, vr expand.Variable) error {
	if !vr.IsSet() {
		env.Unset(name)
		return nil
	}
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if old, ok := env.scopes[i].vars[name]; ok {
			if old.ReadOnly {
				return &ReadOnlyError{Name: name, ReadOnlyAt: env.scopes[i].readonlyAt[name]}
			}
			vr.ReadOnly = old.ReadOnly || vr.ReadOnly
			env.scopes[i].vars[name] = vr
			return nil
		}
	}
	env.scopes[len(env.scopes)-1].vars[name] = vr
	return nil
}

// SetLocal creates or replaces name in the innermost scope
// unconditionally, the way "local"/function-parameter binding works
// regardless of whether an outer scope already has the name.
func (env *Environment) SetLocal(name string, vr expand.Variable) error {
	top := env.scopes[len(env.scopes)-1]
	if old, ok := top.vars[name]; ok && old.ReadOnly {
		return &ReadOnlyError{Name: name, ReadOnlyAt: top.readonlyAt[name]}
	}
	top.vars[name] = vr
	return nil
}

// SetGlobal implements "typeset -g": sets name in the outermost scope,
// bypassing any local shadowing.
func (env *Environment) SetGlobal(name string, vr expand.Variable) error {
	bottom := env.scopes[0]
	if old, ok := bottom.vars[name]; ok && old.ReadOnly {
		return &ReadOnlyError{Name: name, ReadOnlyAt: bottom.readonlyAt[name]}
	}
	bottom.vars[name] = vr
	return nil
}

// SetReadOnly marks name read-only in whichever scope it already
// lives in (or the innermost scope if unset), recording where, for
// ReadOnlyError's diagnostic.
func (env *Environment) SetReadOnly(name string, at source.Location) {
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if vr, ok := env.scopes[i].vars[name]; ok {
			vr.ReadOnly = true
			env.scopes[i].vars[name] = vr
			env.scopes[i].readonlyAt[name] = at
			return
		}
	}
	top := env.scopes[len(env.scopes)-1]
	vr := expand.Variable{Set: true, ReadOnly: true}
	top.vars[name] = vr
	top.readonlyAt[name] = at
}

// Unset removes name from the innermost scope that has it. Per spec
// §4.G, when a name is both locally and globally defined, which
// entry(ies) "unset" removes is implementation-defined; this
// implementation unsets only the innermost (see DESIGN.md).
func (env *Environment) Unset(name string) {
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if _, ok := env.scopes[i].vars[name]; ok {
			delete(env.scopes[i].vars, name)
			delete(env.scopes[i].readonlyAt, name)
			return
		}
	}
}

// PushScope enters a new variable context, on function entry, a "."
// call with extra arguments, or a "typeset" local scope.
func (env *Environment) PushScope() { env.scopes = append(env.scopes, newScope()) }

// PopScope leaves the innermost variable context.
func (env *Environment) PopScope() {
	env.scopes = env.scopes[:len(env.scopes)-1]
}

// NamesByPrefix returns every visible variable name starting with
// prefix, used by "${!prefix@}"-style introspection and completion
// hooks.
func (env *Environment) NamesByPrefix(prefix string) []string {
	var names []string
	env.Each(func(name string, vr expand.Variable) bool {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

// --- functions ---

// FuncRedefinitionError reports an attempt to redefine a read-only
// function.
type FuncRedefinitionError struct {
	Name       string
	DefinedAt  source.Location
	ReadOnlyAt source.Location
}

func (e *FuncRedefinitionError) Error() string {
	return fmt.Sprintf("%s: readonly function (defined at %s, made read-only at %s)",
		e.Name, e.DefinedAt, e.ReadOnlyAt)
}

// DefineFunc installs a function definition, replacing any existing
// non-read-only function of the same name.
func (env *Environment) DefineFunc(name string, body *ast.Stmt, at source.Location) error {
	if old, ok := env.Functions[name]; ok && old.ReadOnly {
		return &FuncRedefinitionError{Name: name, DefinedAt: old.DefinedAt, ReadOnlyAt: old.ReadOnlyAt}
	}
	env.Functions[name] = &Function{Body: body, DefinedAt: at}
	return nil
}

// Sub returns a logical clone of env for a subshell: independent
// variable/function/alias/option state, an empty job list, and trap
// actions reset to default (Ignore preserved) per spec §4.K. The
// returned environment's System is shared, since subshells coordinate
// with the real OS via child processes, not shared memory.
func (env *Environment) Sub() *Environment {
	clone := &Environment{
		Sys:        env.Sys,
		scopes:     []*scope{cloneScope(env.flatten())},
		Functions:  map[string]*Function{},
		Aliases:    map[string]Alias{},
		traps:      map[string]*Trap{},
		currentJob: -1, previousJob: -1,
		Options:      env.Options,
		Umask:        env.Umask,
		Dir:          env.Dir,
		OldDir:       env.OldDir,
		LastStatus:   env.LastStatus,
		Positional:   append([]string(nil), env.Positional...),
		ShellPid:     env.ShellPid,
		Name:         env.Name,
		subshellDepth: env.subshellDepth + 1,
	}
	for name, fn := range env.Functions {
		f := *fn
		clone.Functions[name] = &f
	}
	for name, al := range env.Aliases {
		clone.Aliases[name] = al
	}
	clone.traps = env.cloneTrapsForSubshell()
	clone.parentTrap = env.snapshotTrapsForSubshell()
	return clone
}

func (env *Environment) flatten() *scope {
	merged := newScope()
	for _, s := range env.scopes {
		for name, vr := range s.vars {
			merged.vars[name] = vr
		}
		for name, at := range s.readonlyAt {
			merged.readonlyAt[name] = at
		}
	}
	return merged
}

func cloneScope(s *scope) *scope {
	out := newScope()
	for name, vr := range s.vars {
		out.vars[name] = vr
	}
	for name, at := range s.readonlyAt {
		out.readonlyAt[name] = at
	}
	return out
}

// SubshellDepth reports how many nested subshells (including "(...)",
// command substitutions, and async commands) led to this environment.
func (env *Environment) SubshellDepth() int { return env.subshellDepth }

// AliasLookup satisfies parser.AliasLookup: name-to-replacement-text
// resolution for command-start words, honoring the glossary but
// leaving cycle-breaking to the source stack's per-source
// no-substitute set (see source.Stack).
func (env *Environment) AliasLookup(name string) (string, bool) {
	al, ok := env.Aliases[name]
	if !ok {
		return "", false
	}
	return al.Text, true
}
