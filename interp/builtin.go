package interp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"goyash.dev/goyash/expand"
	"goyash.dev/goyash/source"
	"goyash.dev/goyash/system"
)

// BuiltinClass is one of the four command-search categories spec §4.I
// assigns a built-in: it governs whether a same-named function can
// shadow it, whether its leading assignments persist past the
// command, and whether an error inside it is fatal to a non-
// interactive shell.
type BuiltinClass int

const (
	// ClassSpecial builtins are found before PATH and can never be
	// overridden by a function; their assignments persist, and an
	// error inside one exits a non-interactive shell.
	ClassSpecial BuiltinClass = iota
	// ClassMandatory builtins are found before PATH but yield to a
	// same-named function.
	ClassMandatory
	// ClassElective builtins behave like Mandatory; the distinction is
	// only that POSIX doesn't require every conforming shell to ship
	// them.
	ClassElective
	// ClassSubstitutive builtins run like ClassMandatory ones: the
	// executor does not check whether an external command of the same
	// name exists on PATH.
	ClassSubstitutive
)

// Builtin is a registered command name's implementation.
type Builtin struct {
	Class BuiltinClass
	Run   func(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert)
}

// classifyBuiltin reports the command-search classification of name,
// used by the executor to decide whether a redirection error on it is
// fatal (special builtins are) and whether a function may shadow it.
// A name that isn't a builtin at all classifies as ClassSubstitutive,
// the class with the weakest command-search priority, so a caller
// that only checks "== ClassSpecial" treats it correctly as ordinary.
func classifyBuiltin(name string) BuiltinClass {
	b, ok := builtins[name]
	if !ok {
		return ClassSubstitutive
	}
	return b.Class
}

// lookupBuiltin returns the builtin registered under name, if any.
func lookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

var builtins map[string]Builtin

func init() {
	builtins = map[string]Builtin{
		":":        {Class: ClassSpecial, Run: builtinColon},
		"true":     {Class: ClassMandatory, Run: builtinColon},
		"false":    {Class: ClassMandatory, Run: builtinFalse},
		"exit":     {Class: ClassSpecial, Run: builtinExit},
		"return":   {Class: ClassSpecial, Run: builtinReturn},
		"break":    {Class: ClassSpecial, Run: builtinBreak},
		"continue": {Class: ClassSpecial, Run: builtinContinue},
		"shift":    {Class: ClassSpecial, Run: builtinShift},
		"export":   {Class: ClassSpecial, Run: builtinExport},
		"readonly": {Class: ClassSpecial, Run: builtinReadonly},
		"unset":    {Class: ClassSpecial, Run: builtinUnset},
		"set":      {Class: ClassSpecial, Run: builtinSet},
		"eval":     {Class: ClassSpecial, Run: builtinEval},
		"exec":     {Class: ClassSpecial, Run: builtinExec},
		"times":    {Class: ClassSpecial, Run: builtinTimes},
		".":        {Class: ClassSpecial, Run: builtinDot},
		"trap":     {Class: ClassSpecial, Run: builtinTrap},
		"cd":       {Class: ClassMandatory, Run: builtinCd},
		"pwd":      {Class: ClassMandatory, Run: builtinPwd},
		"umask":    {Class: ClassMandatory, Run: builtinUmask},
		"wait":     {Class: ClassMandatory, Run: builtinWait},
		"command":  {Class: ClassMandatory, Run: builtinCommand},
		"type":     {Class: ClassMandatory, Run: builtinType},
		"read":     {Class: ClassMandatory, Run: builtinRead},
		"alias":    {Class: ClassElective, Run: builtinAlias},
		"unalias":  {Class: ClassElective, Run: builtinUnalias},
		"jobs":     {Class: ClassElective, Run: builtinJobs},
		"fg":       {Class: ClassElective, Run: builtinFg},
		"bg":       {Class: ClassElective, Run: builtinBg},
		"kill":     {Class: ClassElective, Run: builtinKill},
		"echo":     {Class: ClassSubstitutive, Run: builtinEcho},
	}
}

func builtinColon(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	return NewExitStatus(0), nil
}

func builtinFalse(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	return NewExitStatus(1), nil
}

func parseOptionalStatus(r *Runner, args []string) ExitStatus {
	if len(args) == 0 {
		return r.Env.LastStatus
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return NewExitStatus(255)
	}
	return NewExitStatus(uint8(n))
}

func builtinExit(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	status := parseOptionalStatus(r, args)
	return status, &Divert{Kind: DivertExit, Status: status}
}

func builtinReturn(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	status := parseOptionalStatus(r, args)
	return status, &Divert{Kind: DivertReturn, Status: status}
}

func parseDivertLevel(args []string) int {
	if len(args) == 0 {
		return 1
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func builtinBreak(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if !r.Env.loopFrameBeforeBoundary() {
		r.errf("break: not in a loop\n")
		return NewExitStatus(1), nil
	}
	level := parseDivertLevel(args)
	return NewExitStatus(0), &Divert{Kind: DivertBreak, Level: level}
}

func builtinContinue(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if !r.Env.loopFrameBeforeBoundary() {
		r.errf("continue: not in a loop\n")
		return NewExitStatus(1), nil
	}
	level := parseDivertLevel(args)
	return NewExitStatus(0), &Divert{Kind: DivertContinue, Level: level}
}

func builtinShift(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	n := 1
	if len(args) > 0 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 0 {
			r.errf("shift: %s: bad number\n", args[0])
			return NewExitStatus(1), nil
		}
	}
	if n > len(r.Env.Positional) {
		r.errf("shift: shift count out of range\n")
		return NewExitStatus(1), nil
	}
	r.Env.Positional = r.Env.Positional[n:]
	return NewExitStatus(0), nil
}

func splitAssignOrName(arg string) (name, value string, hasValue bool) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:], true
	}
	return arg, "", false
}

func builtinExport(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 {
		var names []string
		r.Env.Each(func(name string, vr expand.Variable) bool {
			if vr.Exported {
				names = append(names, name)
			}
			return true
		})
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.Stdout, "export %s=%s\n", name, r.Env.Get(name).Str)
		}
		return NewExitStatus(0), nil
	}
	for _, arg := range args {
		name, value, hasValue := splitAssignOrName(arg)
		vr := r.Env.Get(name)
		vr.Set = true
		vr.Exported = true
		if hasValue {
			vr.Str = value
		}
		if err := r.Env.Set(name, vr); err != nil {
			r.errf("export: %v\n", err)
			return NewExitStatus(1), nil
		}
	}
	return NewExitStatus(0), nil
}

func builtinReadonly(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	for _, arg := range args {
		name, value, hasValue := splitAssignOrName(arg)
		if hasValue {
			if err := r.Env.Set(name, expand.Variable{Set: true, Str: value}); err != nil {
				r.errf("readonly: %v\n", err)
				return NewExitStatus(1), nil
			}
		}
		r.Env.SetReadOnly(name, source.Location{})
	}
	return NewExitStatus(0), nil
}

func builtinUnset(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	funcMode := false
	rest := args
	if len(rest) > 0 && rest[0] == "-f" {
		funcMode = true
		rest = rest[1:]
	} else if len(rest) > 0 && rest[0] == "-v" {
		rest = rest[1:]
	}
	for _, name := range rest {
		if funcMode {
			delete(r.Env.Functions, name)
			continue
		}
		r.Env.Unset(name)
	}
	return NewExitStatus(0), nil
}

func builtinSet(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if (arg == "-o" || arg == "+o") && i+1 < len(args) {
			if !r.Env.Options.Set(args[i+1], arg[0] == '-') {
				r.errf("set: %s: unknown option\n", args[i+1])
				return NewExitStatus(1), nil
			}
			i += 2
			continue
		}
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			break
		}
		on := arg[0] == '-'
		for _, flag := range arg[1:] {
			if !r.Env.Options.SetFlag(byte(flag), on) {
				r.errf("set: %c: unknown option\n", flag)
				return NewExitStatus(1), nil
			}
		}
		i++
	}
	if i < len(args) {
		r.Env.Positional = args[i:]
	}
	return NewExitStatus(0), nil
}

func builtinEval(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if trapParser == nil {
		return NewExitStatus(0), nil
	}
	src := strings.Join(args, " ")
	stmts, err := trapParser(src)
	if err != nil {
		r.errf("eval: %v\n", err)
		return NewExitStatus(2), nil
	}
	return r.stmts(ctx, stmts)
}

func builtinExec(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 {
		return NewExitStatus(0), nil
	}
	status, div := r.callExternal(ctx, args[0], args[1:])
	if div != nil {
		return status, div
	}
	return status, &Divert{Kind: DivertExit, Status: status}
}

func builtinTimes(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	fmt.Fprintf(r.Stdout, "0m0.000s 0m0.000s\n0m0.000s 0m0.000s\n")
	return NewExitStatus(0), nil
}

func builtinDot(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 {
		r.errf(".: missing file operand\n")
		return NewExitStatus(2), nil
	}
	if trapParser == nil {
		return NewExitStatus(0), nil
	}
	f, err := r.Env.Sys.Open(ctx, r.absPath(args[0]), 0, 0)
	if err != nil {
		r.errf(".: %s: %v\n", args[0], err)
		return NewExitStatus(1), nil
	}
	defer f.Close()
	var buf strings.Builder
	buf.ReadFrom(f)
	stmts, err := trapParser(buf.String())
	if err != nil {
		r.errf(".: %v\n", err)
		return NewExitStatus(2), nil
	}

	oldPositional := r.Env.Positional
	if len(args) > 1 {
		r.Env.Positional = args[1:]
	}
	pop := r.Env.pushFrame(Frame{Kind: FrameDotScript, Name: args[0]})
	defer func() {
		pop()
		r.Env.Positional = oldPositional
	}()
	status, div := r.stmts(ctx, stmts)
	if div != nil && div.Kind == DivertReturn {
		return div.Status, nil
	}
	return status, div
}

func builtinTrap(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-p") {
		for _, cond := range r.Env.DisplayTrapConditions() {
			t, _ := r.Env.DisplayTrap(cond)
			switch t.Action {
			case TrapIgnore:
				fmt.Fprintf(r.Stdout, "trap -- '' %s\n", cond)
			case TrapRun:
				fmt.Fprintf(r.Stdout, "trap -- %q %s\n", t.Body, cond)
			}
		}
		return NewExitStatus(0), nil
	}
	action := args[0]
	for _, cond := range args[1:] {
		if !CanTrap(cond) {
			r.errf("trap: %s: cannot trap\n", cond)
			return NewExitStatus(1), nil
		}
		switch action {
		case "-":
			r.Env.ClearTrap(cond)
		case "":
			r.Env.SetTrap(cond, Trap{Action: TrapIgnore})
		default:
			r.Env.SetTrap(cond, Trap{Action: TrapRun, Body: action})
		}
	}
	return NewExitStatus(0), nil
}

// builtinCd follows the exit-status convention documented for "cd"'s
// redirection/resolution failures, since POSIX leaves the exact values
// unspecified: 4 for a missing $HOME or $OLDPWD, 3 when a ".."
// component in the target walks over a directory that doesn't exist,
// 2 for any other chdir failure.
func builtinCd(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	dir := r.Env.Get("HOME")
	target := dir.Str
	if len(args) > 0 {
		target = args[0]
		if target == "-" {
			if r.Env.OldDir == "" {
				r.errf("cd: OLDPWD not set\n")
				return NewExitStatus(4), nil
			}
			target = r.Env.OldDir
			fmt.Fprintln(r.Stdout, target)
		}
	} else if !dir.Set {
		r.errf("cd: HOME not set\n")
		return NewExitStatus(4), nil
	}
	crossesMissingParent := strings.Contains(target, "..")
	if !strings.HasPrefix(target, "/") {
		target = r.absPath(target)
	}
	if _, err := r.Env.Sys.Stat(ctx, target, true); err != nil {
		r.errf("cd: %s: %v\n", target, err)
		if crossesMissingParent {
			return NewExitStatus(3), nil
		}
		return NewExitStatus(2), nil
	}
	r.Env.OldDir = r.Env.Dir
	r.Env.Dir = target
	r.Env.Set("OLDPWD", expand.Variable{Set: true, Exported: true, Str: r.Env.OldDir})
	r.Env.Set("PWD", expand.Variable{Set: true, Exported: true, Str: target})
	return NewExitStatus(0), nil
}

func builtinPwd(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	fmt.Fprintln(r.Stdout, r.Env.Dir)
	return NewExitStatus(0), nil
}

func builtinUmask(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 {
		fmt.Fprintf(r.Stdout, "%04o\n", r.Env.Umask)
		return NewExitStatus(0), nil
	}
	n, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		r.errf("umask: %s: bad mask\n", args[0])
		return NewExitStatus(1), nil
	}
	r.Env.Umask = uint32(n)
	return NewExitStatus(0), nil
}

func builtinWait(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 {
		var status ExitStatus
		for _, j := range r.Env.Jobs {
			status = j.Status
		}
		r.Env.RemoveDoneJobs()
		return status, nil
	}
	var last ExitStatus
	for _, spec := range args {
		j, err := jobBySpecOrPid(r.Env, spec)
		if err != nil {
			r.errf("wait: %v\n", err)
			return NewExitStatus(127), nil
		}
		last = j.Status
	}
	r.Env.RemoveDoneJobs()
	return last, nil
}

func builtinCommand(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	mode := ""
	rest := args
	for len(rest) > 0 && strings.HasPrefix(rest[0], "-") && rest[0] != "-" {
		switch rest[0] {
		case "-v":
			mode = "v"
		case "-V":
			mode = "V"
		}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return NewExitStatus(0), nil
	}
	if mode != "" {
		return builtinCommandDescribe(ctx, r, rest, mode)
	}
	if b, ok := lookupBuiltin(rest[0]); ok {
		return b.Run(ctx, r, rest[1:])
	}
	return r.callExternal(ctx, rest[0], rest[1:])
}

// builtinCommandDescribe implements "command -v"/"command -V": report
// how each name resolves without running it. A slash-containing name
// found via stat prints the absolute path LookPathDir resolved it to;
// prints nothing and fails otherwise, the same as an unresolved name.
func builtinCommandDescribe(ctx context.Context, r *Runner, names []string, mode string) (ExitStatus, *Divert) {
	status := NewExitStatus(0)
	for _, name := range names {
		_, builtin := lookupBuiltin(name)
		switch {
		case r.Env.Functions[name] != nil:
			if mode == "V" {
				fmt.Fprintf(r.Stdout, "%s is a function\n", name)
			} else {
				fmt.Fprintln(r.Stdout, name)
			}
		case builtin:
			if mode == "V" {
				fmt.Fprintf(r.Stdout, "%s is a shell builtin\n", name)
			} else {
				fmt.Fprintln(r.Stdout, name)
			}
		default:
			path, err := system.LookPathDir(ctx, r.Env.Sys, r.Env.Dir, r.envPath(), name)
			if err != nil {
				if mode == "V" {
					r.errf("command: %s: not found\n", name)
				}
				status = NewExitStatus(1)
				continue
			}
			if mode == "V" {
				fmt.Fprintf(r.Stdout, "%s is %s\n", name, path)
			} else {
				fmt.Fprintln(r.Stdout, path)
			}
		}
	}
	return status, nil
}

func builtinType(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	status := NewExitStatus(0)
	for _, name := range args {
		switch {
		case r.Env.Functions[name] != nil:
			fmt.Fprintf(r.Stdout, "%s is a function\n", name)
		default:
			if _, ok := lookupBuiltin(name); ok {
				fmt.Fprintf(r.Stdout, "%s is a shell builtin\n", name)
				continue
			}
			path, err := system.LookPathDir(ctx, r.Env.Sys, r.Env.Dir, r.envPath(), name)
			if err != nil {
				r.errf("type: %s: not found\n", name)
				status = NewExitStatus(1)
				continue
			}
			fmt.Fprintf(r.Stdout, "%s is %s\n", name, path)
		}
	}
	return status, nil
}

func builtinRead(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	delim := byte('\n')
	if len(args) >= 2 && args[0] == "-d" {
		delim = 0
		if args[1] != "" {
			delim = args[1][0]
		}
		args = args[2:]
	}
	if len(args) == 0 {
		return NewExitStatus(2), nil
	}
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Stdin.Read(buf)
		if n > 0 {
			if buf[0] == delim {
				break
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if line.Len() == 0 {
				return NewExitStatus(1), nil
			}
			break
		}
	}
	ifs := r.Env.Get("IFS").Str
	if !r.Env.Get("IFS").Set {
		ifs = " \t\n"
	}
	fields := strings.FieldsFunc(line.String(), func(ru rune) bool {
		return strings.ContainsRune(ifs, ru)
	})
	for i, name := range args {
		value := ""
		if i < len(fields) {
			if i == len(args)-1 {
				value = strings.Join(fields[i:], " ")
			} else {
				value = fields[i]
			}
		}
		r.Env.Set(name, expand.Variable{Set: true, Str: value})
	}
	return NewExitStatus(0), nil
}

func builtinAlias(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	if len(args) == 0 {
		var names []string
		for name := range r.Env.Aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.Stdout, "alias %s=%q\n", name, r.Env.Aliases[name].Text)
		}
		return NewExitStatus(0), nil
	}
	for _, arg := range args {
		name, value, hasValue := splitAssignOrName(arg)
		if !hasValue {
			a, ok := r.Env.Aliases[name]
			if !ok {
				r.errf("alias: %s: not found\n", name)
				return NewExitStatus(1), nil
			}
			fmt.Fprintf(r.Stdout, "alias %s=%q\n", name, a.Text)
			continue
		}
		r.Env.Aliases[name] = Alias{Text: value}
	}
	return NewExitStatus(0), nil
}

func builtinUnalias(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	for _, name := range args {
		delete(r.Env.Aliases, name)
	}
	return NewExitStatus(0), nil
}

func builtinJobs(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	for _, j := range r.Env.Jobs {
		fmt.Fprintf(r.Stdout, "[%d]  %s  %s\n", j.ID, j.State, j.Name)
	}
	return NewExitStatus(0), nil
}

func builtinFg(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	j, err := jobFromArgOrCurrent(r, args)
	if err != nil {
		r.errf("fg: %v\n", err)
		return NewExitStatus(1), nil
	}
	fmt.Fprintf(r.Stdout, "%s\n", j.Name)
	status, err := r.Env.Foreground(j)
	if err != nil {
		r.errf("fg: %v\n", err)
		return NewExitStatus(1), nil
	}
	return status, nil
}

func builtinBg(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	j, err := jobFromArgOrCurrent(r, args)
	if err != nil {
		r.errf("bg: %v\n", err)
		return NewExitStatus(1), nil
	}
	if err := r.Env.Background(j); err != nil {
		r.errf("bg: %v\n", err)
		return NewExitStatus(1), nil
	}
	fmt.Fprintf(r.Stdout, "[%d] %s\n", j.ID, j.Name)
	return NewExitStatus(0), nil
}

// jobBySpecOrPid resolves a "wait" argument, which POSIX allows to be
// either a "%spec" job ID or a bare PID (what "$!" expands to).
func jobBySpecOrPid(env *Environment, spec string) (*Job, error) {
	if strings.HasPrefix(spec, "%") {
		return env.JobByIDSpec(spec)
	}
	if pid, err := strconv.Atoi(spec); err == nil {
		return env.JobByPid(pid)
	}
	return env.JobByIDSpec(spec)
}

func jobFromArgOrCurrent(r *Runner, args []string) (*Job, error) {
	if len(args) > 0 {
		return r.Env.JobByIDSpec(args[0])
	}
	if j := r.Env.CurrentJob(); j != nil {
		return j, nil
	}
	return nil, fmt.Errorf("no current job")
}

func builtinKill(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	sig := system.SIGTERM
	rest := args
	if len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
		sig = system.Signal(strings.TrimPrefix(rest[0], "-"))
		rest = rest[1:]
	}
	for _, target := range rest {
		if strings.HasPrefix(target, "%") {
			j, err := r.Env.JobByIDSpec(target)
			if err != nil {
				r.errf("kill: %v\n", err)
				return NewExitStatus(1), nil
			}
			if err := r.Env.Sys.SignalGroup(j.Pgid, sig); err != nil {
				r.errf("kill: %v\n", err)
				return NewExitStatus(1), nil
			}
			continue
		}
		pid, err := strconv.Atoi(target)
		if err != nil {
			r.errf("kill: %s: arguments must be process or job IDs\n", target)
			return NewExitStatus(1), nil
		}
		if err := r.Env.Sys.SignalProcess(pid, sig); err != nil {
			r.errf("kill: %v\n", err)
			return NewExitStatus(1), nil
		}
	}
	return NewExitStatus(0), nil
}

func builtinEcho(ctx context.Context, r *Runner, args []string) (ExitStatus, *Divert) {
	fmt.Fprintln(r.Stdout, strings.Join(args, " "))
	return NewExitStatus(0), nil
}

// signalNumber maps a portable signal name to its conventional POSIX
// signal number, the encoding ExitStatus.Signal and "$?" (128+n) use.
// Numbers follow the common Linux/x86 assignment; ports to other
// signal numberings would need a platform-specific table here.
var signalNumbers = map[system.Signal]int{
	system.SIGHUP: 1, system.SIGINT: 2, system.SIGQUIT: 3,
	system.SIGKILL: 9, system.SIGPIPE: 13, system.SIGALRM: 14,
	system.SIGTERM: 15, system.SIGUSR1: 10, system.SIGUSR2: 12,
	system.SIGCHLD: 17, system.SIGCONT: 18, system.SIGSTOP: 19,
	system.SIGTSTP: 20, system.SIGTTIN: 21, system.SIGTTOU: 22,
}

func signalNumber(sig system.Signal) int {
	if n, ok := signalNumbers[sig]; ok {
		return n
	}
	return 0
}
