package interp

import (
	"bytes"
	"context"
	"os"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/expand"
)

// expandPanic carries an expansion-time error up to the nearest
// recoverExpand call. The OnError callback this package installs on
// every expand.Context panics with one, so each expansion failure is
// funnelled through that single recovery point. Without a callback,
// expand.Context panics with the bare error instead.
type expandPanic struct{ err error }

// exec builds an expand.Context wired to r's environment: Get/Set
// resolve through r.Env, command substitution recurses into a
// subshell Runner, and directory reads go through the System backend
// so expansion behaves identically against the virtual filesystem.
func (r *Runner) exec(ctx context.Context) *expand.Context {
	return &expand.Context{
		Env:        r.Env,
		Positional: r.Env.Positional,
		LastStatus: int(r.Env.LastStatus.Code()),
		ShellPid:   r.Env.ShellPid,
		BgPid:      r.Env.LastAsyncPid,
		Name:       r.Env.Name,
		NoGlob:     !r.Env.Options.Get("glob"),
		Subshell: func(stmts []*ast.Stmt) string {
			return r.captureSubshell(ctx, stmts)
		},
		ReadDir: func(dir string) ([]os.DirEntry, error) {
			return r.Env.Sys.ReadDir(ctx, dir)
		},
		OnError: func(err error) { panic(expandPanic{err}) },
	}
}

// captureSubshell runs stmts in a cloned environment with stdout
// captured to a buffer, trailing newlines trimmed, implementing
// command substitution's "$(...)" semantics.
func (r *Runner) captureSubshell(ctx context.Context, stmts []*ast.Stmt) string {
	var buf bytes.Buffer
	sub := &Runner{Env: r.Env.Sub(), Stdin: r.Stdin, Stdout: &buf, Stderr: r.Stderr}
	status, div := sub.stmts(ctx, stmts)
	if div != nil {
		status = div.Status
	}
	r.Env.SubstStatus = status
	return trimTrailingNewlines(buf.String())
}

func trimTrailingNewlines(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '\n' {
		i--
	}
	return s[:i]
}

// recoverExpand runs fn, converting any expandPanic it raises into a
// reported error (via errf) and a fallback zero value, so a single
// malformed expansion degrades one command's result rather than
// crashing the whole interpreter.
func recoverExpand[T any](r *Runner, fn func() T) (result T, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ep, isExpandPanic := rec.(expandPanic)
			if !isExpandPanic {
				panic(rec)
			}
			r.errf("%v\n", ep.err)
			ok = false
			return
		}
	}()
	return fn(), true
}
