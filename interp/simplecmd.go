package interp

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/expand"
	"goyash.dev/goyash/system"
	"goyash.dev/goyash/token"
)

// applyRedirects opens every redirect's target and swaps it into
// r.Stdin/Stdout/Stderr, returning a func that restores the prior
// streams and closes whatever was opened. Only file descriptors
// 0 (stdin), 1 (stdout), and 2 (stderr) are supported targets, the
// same restriction the System interface's ProcAttr imposes on a
// started process's own stdio.
func (r *Runner) applyRedirects(ctx context.Context, redirs []*ast.Redirect) (func(), error) {
	if len(redirs) == 0 {
		return func() {}, nil
	}
	oldIn, oldOut, oldErr := r.Stdin, r.Stdout, r.Stderr
	var opened []io.Closer
	restore := func() {
		r.Stdin, r.Stdout, r.Stderr = oldIn, oldOut, oldErr
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i].Close()
		}
	}

	for _, rd := range redirs {
		if err := r.applyRedirect(ctx, rd, &opened); err != nil {
			restore()
			return func() {}, err
		}
	}
	return restore, nil
}

func (r *Runner) applyRedirect(ctx context.Context, rd *ast.Redirect, opened *[]io.Closer) error {
	fd := 1
	if rd.N != nil {
		fmt.Sscanf(rd.N.Value, "%d", &fd)
	} else if op := token.RedirOperator(rd.Op); op == token.LSS || op == token.RDRINOUT ||
		op == token.DPLIN || op == token.SHL || op == token.DHEREDOC || op == token.WHEREDOC {
		fd = 0
	}
	if fd < 0 || fd > 2 {
		return fmt.Errorf("%d: unsupported file descriptor", fd)
	}

	ec := r.exec(ctx)
	switch token.RedirOperator(rd.Op) {
	case token.SHL, token.DHEREDOC:
		body := ec.ExpandLiteral(rd.Hdoc)
		if rd.HdocStripTabs {
			body = stripHeredocTabs(body)
		}
		r.Stdin = strings.NewReader(body)
		return nil
	case token.WHEREDOC:
		text := ec.ExpandLiteral(rd.Word)
		r.Stdin = strings.NewReader(text + "\n")
		return nil
	case token.DPLOUT, token.DPLIN:
		target := rd.Word.Lit()
		if target == "-" {
			r.closeFd(fd)
			return nil
		}
		var n int
		if _, err := fmt.Sscanf(target, "%d", &n); err != nil {
			return fmt.Errorf("%s: bad file descriptor duplication target", target)
		}
		if n < 0 || n > 2 {
			return fmt.Errorf("%d: unsupported file descriptor", n)
		}
		r.dupFd(fd, n)
		return nil
	}

	path := ec.ExpandLiteral(rd.Word)
	flag, perm := redirectFlags(token.RedirOperator(rd.Op))
	f, err := r.Env.Sys.Open(ctx, r.absPath(path), flag, perm)
	if err != nil {
		return err
	}
	*opened = append(*opened, f)
	r.setFd(fd, f)
	return nil
}

func stripHeredocTabs(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, "\t")
	}
	return strings.Join(lines, "\n")
}

func redirectFlags(op token.RedirOperator) (int, fs.FileMode) {
	switch op {
	case token.GTR, token.CLBOUT:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, 0o644
	case token.SHR:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, 0o644
	case token.LSS:
		return os.O_RDONLY, 0
	case token.RDRINOUT:
		return os.O_RDWR | os.O_CREATE, 0o644
	default:
		return os.O_RDONLY, 0
	}
}

// setFd, dupFd, and closeFd give file-descriptor-number access to the
// three streams this executor threads through redirections: only 0, 1,
// and 2 are backed by a stream, so any other target number is rejected
// rather than silently ignored.
func (r *Runner) setFd(n int, f system.File) {
	switch n {
	case 0:
		r.Stdin = f
	case 1:
		r.Stdout = f
	case 2:
		r.Stderr = f
	}
}

// dupFd makes fd n an alias of dst's current stream (e.g. "2>&1" is
// dupFd(2, 1)): for output fds (1, 2) this copies the io.Writer; for
// input fds (0) the io.Reader. Duplicating a stream onto itself, or
// between incompatible directions, is a no-op.
func (r *Runner) dupFd(n, dst int) {
	streamOf := func(fd int) any {
		switch fd {
		case 0:
			return r.Stdin
		case 1:
			return r.Stdout
		case 2:
			return r.Stderr
		}
		return nil
	}
	src := streamOf(dst)
	switch n {
	case 0:
		if rd, ok := src.(io.Reader); ok {
			r.Stdin = rd
		}
	case 1:
		if w, ok := src.(io.Writer); ok {
			r.Stdout = w
		}
	case 2:
		if w, ok := src.(io.Writer); ok {
			r.Stderr = w
		}
	}
}

func (r *Runner) closeFd(n int) {
	switch n {
	case 0:
		r.Stdin = strings.NewReader("")
	case 1:
		r.Stdout = io.Discard
	case 2:
		r.Stderr = io.Discard
	}
}

func (r *Runner) absPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	if r.Env.Dir == "" {
		return path
	}
	return strings.TrimSuffix(r.Env.Dir, "/") + "/" + path
}

// applyAssigns expands and installs a simple command's leading
// assignments. persist reports whether the bindings should survive
// past the command (true for a bare "FOO=bar" statement; false for
// the assignments prefixing another command). It returns no undo
// list; callers that restore the bindings afterward use
// applyAssignsRestorable and restoreAssigns instead.
func (r *Runner) applyAssigns(assigns []*ast.Assign, persist bool) error {
	_, err := r.applyAssignsRestorable(assigns, persist)
	return err
}

type savedAssign struct {
	name string
	prev expand.Variable
	had  bool
}

func (r *Runner) applyAssignsRestorable(assigns []*ast.Assign, persist bool) ([]savedAssign, error) {
	var saved []savedAssign
	for _, as := range assigns {
		name := as.Name.Value
		if !persist {
			prev := r.Env.Get(name)
			saved = append(saved, savedAssign{name: name, prev: prev, had: prev.IsSet()})
		}
		ec := r.exec(context.Background())
		value, ok := recoverExpand(r, func() string { return ec.ExpandLiteral(as.Value) })
		if !ok {
			return saved, fmt.Errorf("%s: assignment expansion failed", name)
		}
		vr := expand.Variable{Set: true, Str: value}
		if as.Append {
			prev := r.Env.Get(name)
			vr.Str = prev.Str + value
		}
		if !persist {
			vr.Exported = true
		}
		if err := r.Env.Set(name, vr); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

func (r *Runner) restoreAssigns(saved []savedAssign) {
	for _, s := range saved {
		if s.had {
			r.Env.Set(s.name, s.prev)
		} else {
			r.Env.Unset(s.name)
		}
	}
}

// simpleCommand implements the executor's simple-command procedure
// (spec §4.H): expand the command words, apply any leading
// assignments, classify the command (function, builtin, or external),
// and run it. When the words expand to zero fields (e.g. a command
// word that is an unquoted, empty variable expansion), only the
// assignments run, and the statement's own exit status becomes
// whatever the last command substitution during expansion reported
// (0 if there was none), per the "no fields" rule.
func (r *Runner) simpleCommand(ctx context.Context, call *ast.CallExpr, assigns []*ast.Assign) (ExitStatus, *Divert) {
	r.Env.SubstStatus = NewExitStatus(0)
	ec := r.exec(ctx)
	fields, ok := recoverExpand(r, func() []string { return ec.ExpandFields(call.Args...) })
	if !ok {
		return NewExitStatus(1), nil
	}

	if len(fields) == 0 {
		if err := r.applyAssigns(assigns, true); err != nil {
			r.errf("%v\n", err)
			return NewExitStatus(1), nil
		}
		return r.Env.SubstStatus, nil
	}

	saved, err := r.applyAssignsRestorable(assigns, false)
	if err != nil {
		r.errf("%v\n", err)
		return NewExitStatus(1), nil
	}
	defer r.restoreAssigns(saved)

	r.trace(fields[0], fields[1:])
	return r.call(ctx, fields[0], fields[1:])
}

// call classifies and runs a command name: a special builtin (never
// shadowed by a function), then a shell function, then a regular
// builtin, then an external program found via PATH search.
func (r *Runner) call(ctx context.Context, name string, args []string) (ExitStatus, *Divert) {
	if classifyBuiltin(name) == ClassSpecial {
		b, _ := lookupBuiltin(name)
		return b.Run(ctx, r, args)
	}
	if fn, ok := r.Env.Functions[name]; ok {
		return r.callFunc(ctx, fn, name, args)
	}
	if b, ok := lookupBuiltin(name); ok {
		return b.Run(ctx, r, args)
	}
	return r.callExternal(ctx, name, args)
}

func (r *Runner) callFunc(ctx context.Context, fn *Function, name string, args []string) (ExitStatus, *Divert) {
	oldPositional := r.Env.Positional
	r.Env.Positional = args
	r.Env.PushScope()
	pop := r.Env.pushFrame(Frame{Kind: FrameFunction, Name: name})
	defer func() {
		pop()
		r.Env.PopScope()
		r.Env.Positional = oldPositional
	}()

	status, div := r.stmt(ctx, fn.Body)
	if div != nil && div.Kind == DivertReturn {
		return div.Status, nil
	}
	return status, div
}

func (r *Runner) callExternal(ctx context.Context, name string, args []string) (ExitStatus, *Divert) {
	path, err := system.LookPathDir(ctx, r.Env.Sys, r.Env.Dir, r.envPath(), name)
	if err != nil {
		r.errf("%s: command not found\n", name)
		return NewExitStatus(127), nil
	}

	env := r.processEnv()
	proc, err := r.Env.Sys.StartProcess(ctx, system.ProcAttr{
		Path:   path,
		Args:   append([]string{name}, args...),
		Env:    env,
		Dir:    r.Env.Dir,
		Stdin:  r.Stdin,
		Stdout: r.Stdout,
		Stderr: r.Stderr,
	})
	if err != nil {
		r.errf("%s: %v\n", name, err)
		return NewExitStatus(126), nil
	}
	if r.onProcStart != nil {
		r.onProcStart(proc.Pid())
	}
	wait, err := proc.Wait()
	if err != nil {
		r.errf("%s: %v\n", name, err)
		return NewExitStatus(1), nil
	}
	switch {
	case wait.Signaled:
		return Signaled(signalNumber(wait.Signal)), nil
	case wait.Exited:
		return NewExitStatus(uint8(wait.ExitCode)), nil
	default:
		return NewExitStatus(0), nil
	}
}

func (r *Runner) envPath() string {
	return r.Env.Get("PATH").Str
}

func (r *Runner) processEnv() []string {
	var out []string
	r.Env.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported {
			out = append(out, name+"="+vr.Str)
		}
		return true
	})
	return out
}
