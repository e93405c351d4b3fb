package interp

import "goyash.dev/goyash/source"

// TrapAction is what a condition's trap does when it fires.
type TrapAction int

const (
	// TrapDefault restores the condition's original disposition (the
	// inherited handler, or termination for a signal).
	TrapDefault TrapAction = iota
	// TrapIgnore discards the condition silently.
	TrapIgnore
	// TrapRun executes the attached command list.
	TrapRun
)

// Trap is one condition's handler: EXIT, ERR, DEBUG, or a signal name
// such as INT or TERM.
type Trap struct {
	Action TrapAction
	Body   string // the trap's shell command text, when Action == TrapRun
	Origin source.Location
}

// untrappable are the two signals POSIX forbids a shell from ever
// catching, ignoring, or resetting.
var untrappable = map[string]bool{"KILL": true, "STOP": true}

// CanTrap reports whether cond (a signal name, or EXIT/ERR/DEBUG) may
// be given a trap action at all.
func CanTrap(cond string) bool { return !untrappable[cond] }

// SetTrap installs a trap action for cond. Callers are responsible
// for rejecting KILL/STOP beforehand via CanTrap, and for the
// interactive-shell auto-ignore policy applied at shell startup
// (interactiveIgnored).
func (env *Environment) SetTrap(cond string, t Trap) {
	if env.traps == nil {
		env.traps = map[string]*Trap{}
	}
	env.traps[cond] = &t
	env.markTrapOverridden(cond)
}

// Trap returns the condition's current trap action, and whether one is
// set (as opposed to the implicit TrapDefault of an unconfigured
// condition). This is the behavioral view: what actually fires when
// cond occurs, already reflecting the subshell trap-reset policy
// (TrapRun reset to TrapDefault, TrapIgnore preserved). Use
// DisplayTrap for "trap -p"'s reporting view, which differs in a
// subshell that has not yet overridden cond.
func (env *Environment) Trap(cond string) (Trap, bool) {
	t, ok := env.traps[cond]
	if !ok {
		return Trap{}, false
	}
	return *t, true
}

// ClearTrap removes cond's explicit trap, reverting to TrapDefault.
func (env *Environment) ClearTrap(cond string) {
	delete(env.traps, cond)
	env.markTrapOverridden(cond)
}

func (env *Environment) markTrapOverridden(cond string) {
	if env.trapOverridden == nil {
		env.trapOverridden = map[string]bool{}
	}
	env.trapOverridden[cond] = true
}

// TrapConditions returns every condition with an explicit trap
// configured in this environment itself. The "trap" listing uses
// DisplayTrapConditions instead, which also covers inherited traps.
func (env *Environment) TrapConditions() []string {
	names := make([]string, 0, len(env.traps))
	for name := range env.traps {
		names = append(names, name)
	}
	return names
}

// DisplayTrap returns cond's trap the way "trap -p" should report it:
// this environment's own action if it has set or cleared cond itself,
// otherwise the parent shell's action at the point this subshell was
// entered, even though that action may no longer be the one that
// actually fires (a TrapRun a subshell inherited without touching is
// reset to TrapDefault for execution, but still reads back as the
// parent's command text until the subshell traps that condition
// itself). At the top level, with no parentTrap snapshot, this is
// identical to Trap.
func (env *Environment) DisplayTrap(cond string) (Trap, bool) {
	if !env.trapOverridden[cond] {
		if t, ok := env.parentTrap[cond]; ok {
			return *t, true
		}
	}
	return env.Trap(cond)
}

// DisplayTrapConditions returns every condition DisplayTrap would
// report a non-default action for, for "trap -p" with no arguments.
func (env *Environment) DisplayTrapConditions() []string {
	seen := map[string]bool{}
	var names []string
	for cond := range env.traps {
		if !seen[cond] {
			seen[cond] = true
			names = append(names, cond)
		}
	}
	for cond := range env.parentTrap {
		if env.trapOverridden[cond] || seen[cond] {
			continue
		}
		seen[cond] = true
		names = append(names, cond)
	}
	return names
}

// interactiveIgnored lists the job-control stop signals that
// ApplyInteractiveDefaults ignores when monitor mode is on, so that
// job control, not the shell process itself, reacts to them. SIGINT
// and SIGQUIT are not in the list, and no code ignores them
// automatically.
var interactiveIgnored = []string{"TSTP", "TTIN", "TTOU"}

// ApplyInteractiveDefaults installs the interactive-shell default
// trap dispositions (spec §4.K): TERM/INT/QUIT default to their usual
// behavior, but when monitor mode (job control) is on, the
// job-control stop signals are ignored by the shell itself so that
// only its foreground job receives them.
func (env *Environment) ApplyInteractiveDefaults() {
	if !env.Options.Get("monitor") {
		return
	}
	for _, cond := range interactiveIgnored {
		if _, ok := env.traps[cond]; !ok {
			env.SetTrap(cond, Trap{Action: TrapIgnore})
		}
	}
}

// cloneTrapsForSubshell implements the subshell trap-reset policy:
// every explicit TrapRun action is reset to TrapDefault, but
// TrapIgnore actions are preserved, since a subshell that inherited
// "ignore" for a signal must keep ignoring it even though it can no
// longer run the parent's trap commands.
func (env *Environment) cloneTrapsForSubshell() map[string]*Trap {
	out := map[string]*Trap{}
	for cond, t := range env.traps {
		if t.Action == TrapIgnore {
			clone := *t
			out[cond] = &clone
		}
	}
	return out
}

// snapshotTrapsForSubshell returns the full logical trap table this
// environment would report via DisplayTrap right now — its own traps
// layered over whatever it inherited from its own parent — for a new
// subshell's parentTrap. This is what lets "trap" in a subshell that
// has not yet modified traps itself print the grandparent's original
// TrapRun actions too, not just its immediate parent's post-reset
// view.
func (env *Environment) snapshotTrapsForSubshell() map[string]*Trap {
	out := map[string]*Trap{}
	for cond, t := range env.parentTrap {
		if env.trapOverridden[cond] {
			continue
		}
		clone := *t
		out[cond] = &clone
	}
	for cond, t := range env.traps {
		clone := *t
		out[cond] = &clone
	}
	return out
}
