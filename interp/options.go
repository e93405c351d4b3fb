package interp

// optSpec describes one named option: its set -o long name, its set
// short flag (0 if it has none), and its default state.
type optSpec struct {
	flag    byte
	name    string
	initial bool
}

// optsTable lists every option "set -o"/"set +o" and the matching
// short flags understand, sorted alphabetically by name. This is the
// full set named by the command-line surface: allexport, clobber,
// cmdline, errexit, exec, glob, hashondefinition, ignoreeof,
// interactive, log, login, monitor, notify, pipefail, posixlycorrect,
// stdin, unset, verbose, vi, xtrace.
var optsTable = [...]optSpec{
	{'a', "allexport", false},
	{0, "clobber", true},
	{'c', "cmdline", false},
	{'e', "errexit", false},
	{0, "exec", true},
	{'f', "glob", true},
	{0, "hashondefinition", true},
	{0, "ignoreeof", false},
	{'i', "interactive", false},
	{0, "log", true},
	{0, "login", false},
	{'m', "monitor", false},
	{'b', "notify", false},
	{0, "pipefail", false},
	{0, "posixlycorrect", false},
	{'s', "stdin", false},
	{'u', "unset", true},
	{'v', "verbose", false},
	{'n', "vi", false},
	{'x', "xtrace", false},
}

func optIndex(name string) int {
	for i, o := range &optsTable {
		if o.name == name {
			return i
		}
	}
	return -1
}

func optIndexByFlag(flag byte) int {
	for i, o := range &optsTable {
		if o.flag == flag {
			return i
		}
	}
	return -1
}

// Options is the shell's named-option bit vector (spec §6.4),
// indexed through optIndex/optIndexByFlag rather than by field name
// so that adding an option never requires touching every call site.
type Options [len(optsTable)]bool

// NewOptions returns the table's documented defaults. "clobber",
// "exec", "glob", "hashondefinition", "log", and "unset" default on;
// every other option defaults off.
func NewOptions() Options {
	var o Options
	for i, spec := range &optsTable {
		o[i] = spec.initial
	}
	return o
}

// Get reports a named option's current state; false if name isn't a
// recognized option.
func (o Options) Get(name string) bool {
	if i := optIndex(name); i >= 0 {
		return o[i]
	}
	return false
}

// Set changes a named option's state, returning false if name isn't
// recognized.
func (o *Options) Set(name string, on bool) bool {
	i := optIndex(name)
	if i < 0 {
		return false
	}
	o[i] = on
	return true
}

// GetFlag and SetFlag are the short-flag equivalents of Get/Set, used
// by "set -eu"-style combined flag parsing.
func (o Options) GetFlag(flag byte) (bool, bool) {
	i := optIndexByFlag(flag)
	if i < 0 {
		return false, false
	}
	return o[i], true
}

func (o *Options) SetFlag(flag byte, on bool) bool {
	i := optIndexByFlag(flag)
	if i < 0 {
		return false
	}
	o[i] = on
	return true
}

// Names returns every option name in table order, for "set -o"
// without arguments.
func (o Options) Names() []string {
	names := make([]string, len(optsTable))
	for i, spec := range &optsTable {
		names[i] = spec.name
	}
	return names
}
