package interp

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/expand"
	"goyash.dev/goyash/token"
)

// Runner is the executor (component H): it walks a parsed program,
// driving word expansion and the Environment's System backend, and
// threads Divert values back up through return/break/continue/exit.
type Runner struct {
	Env *Environment

	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// onProcStart, when set, is notified with the PID of every
	// external process this Runner starts. runBackground uses it to
	// populate a job's Pgid and "$!" as soon as the process exists,
	// rather than only once it has finished.
	onProcStart func(pid int)
}

// NewRunner returns a Runner over env, defaulting stdio to the
// process's own standard streams.
func NewRunner(env *Environment) *Runner {
	return &Runner{Env: env, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *Runner) errf(format string, args ...any) {
	fmt.Fprintf(r.Stderr, format, args...)
}

// Run executes an entire program, returning its exit status. An
// "exit" Divert (whether from the program itself or an EXIT trap)
// stops the walk; any other Divert reaching the top level is a
// programming error in a well-formed parse (e.g. "break" outside a
// loop is rejected earlier, during dispatch) and is treated as a
// no-op fallthrough.
func (r *Runner) Run(ctx context.Context, file *ast.File) ExitStatus {
	status, div := r.stmts(ctx, file.Stmts)
	r.runExitTrap(ctx)
	if div != nil && div.Kind == DivertExit {
		return div.Status
	}
	return status
}

// RunStmts executes a statement list with no Exit-trap handling of
// its own, for a caller (the read-eval loop) that drives a session
// across many separately-parsed chunks and runs the Exit trap itself,
// once, via RunExitTrap when the session actually ends.
func (r *Runner) RunStmts(ctx context.Context, sts []*ast.Stmt) (ExitStatus, *Divert) {
	return r.stmts(ctx, sts)
}

// RunExitTrap runs the EXIT trap if one is configured, same as the
// implicit call Run makes at the end of a whole-program run.
func (r *Runner) RunExitTrap(ctx context.Context) {
	r.runExitTrap(ctx)
}

func (r *Runner) runExitTrap(ctx context.Context) {
	t, ok := r.Env.Trap("EXIT")
	if !ok || t.Action != TrapRun {
		return
	}
	r.Env.ClearTrap("EXIT")
	r.runTrapBody(ctx, "EXIT", t.Body)
}

func (r *Runner) runTrapBody(ctx context.Context, cond, body string) {
	prog, err := parseTrapBody(body)
	if err != nil {
		r.errf("trap %s: %v\n", cond, err)
		return
	}
	pop := r.Env.pushFrame(Frame{Kind: FrameTrap, Name: cond})
	defer pop()
	r.stmts(ctx, prog)
}

// trapParser is set by the shell package (which owns the
// lexer/parser wiring) via SetTrapParser. Until it is, source text
// can't be re-parsed: runTrapBody reports "no parser configured",
// and "eval" and "." return status 0 without running anything.
var trapParser func(src string) ([]*ast.Stmt, error)

// SetTrapParser installs the parser callback runTrapBody uses to turn
// a trap's source text back into statements. Kept out of this
// package's own import graph to avoid interp depending on lexer/parser.
func SetTrapParser(fn func(src string) ([]*ast.Stmt, error)) { trapParser = fn }

func parseTrapBody(body string) ([]*ast.Stmt, error) {
	if trapParser == nil {
		return nil, fmt.Errorf("no parser configured")
	}
	return trapParser(body)
}

// stmts runs a statement list in order, stopping early on any
// non-nil Divert or, under "errexit", the first failing statement.
func (r *Runner) stmts(ctx context.Context, sts []*ast.Stmt) (ExitStatus, *Divert) {
	var status ExitStatus
	for _, st := range sts {
		var div *Divert
		status, div = r.stmt(ctx, st)
		if div != nil {
			return status, div
		}
		if r.Env.Options.Get("errexit") && !status.Success() {
			return status, &Divert{Kind: DivertExit, Status: status}
		}
	}
	return status, nil
}

// stmt runs one statement: redirections are set up here (common to
// every command kind), the statement's Command is dispatched, and
// finally negation and the "&" background marker are applied.
func (r *Runner) stmt(ctx context.Context, st *ast.Stmt) (ExitStatus, *Divert) {
	if st.Background {
		return r.runBackground(ctx, st)
	}

	restoreFds, err := r.applyRedirects(ctx, st.Redirs)
	if err != nil {
		return r.redirectError(st, err)
	}
	defer restoreFds()

	status, div := r.runCommandOrSimple(ctx, st)

	r.Env.LastStatus = status
	if st.Negated {
		if status.Success() {
			status = NewExitStatus(1)
		} else {
			status = NewExitStatus(0)
		}
		r.Env.LastStatus = status
	}
	return status, div
}

// runCommandOrSimple dispatches a statement's command, or — if it has
// none but carries assignments (a bare "FOO=bar" statement) —
// performs just the persistent assignment.
func (r *Runner) runCommandOrSimple(ctx context.Context, st *ast.Stmt) (ExitStatus, *Divert) {
	if st.Cmd == nil {
		if err := r.applyAssigns(st.Assigns, true); err != nil {
			r.errf("%v\n", err)
			status := NewExitStatus(1)
			if !r.Env.Options.Get("interactive") {
				return status, &Divert{Kind: DivertExit, Status: status}
			}
			return status, nil
		}
		return NewExitStatus(0), nil
	}
	return r.cmd(ctx, st.Cmd, st.Assigns)
}

func (r *Runner) redirectError(st *ast.Stmt, err error) (ExitStatus, *Divert) {
	r.errf("%v\n", err)
	if isSpecialBuiltinStmt(st) {
		return NewExitStatus(1), &Divert{Kind: DivertExit, Status: NewExitStatus(1)}
	}
	return NewExitStatus(1), nil
}

func isSpecialBuiltinStmt(st *ast.Stmt) bool {
	call, ok := st.Cmd.(*ast.CallExpr)
	if !ok || len(call.Args) == 0 {
		return false
	}
	return classifyBuiltin(call.Args[0].Lit()) == ClassSpecial
}

// runBackground starts a statement asynchronously in a subshell-like
// clone, recorded as a job, without blocking the caller.
func (r *Runner) runBackground(ctx context.Context, st *ast.Stmt) (ExitStatus, *Divert) {
	sub := r.Env.Sub()
	subRunner := &Runner{Env: sub, Stdin: r.Stdin, Stdout: r.Stdout, Stderr: r.Stderr}
	async := *st
	async.Background = false

	job := r.Env.AddJob(&Job{Name: stmtSourceText(st), State: JobRunning})
	subRunner.onProcStart = func(pid int) {
		job.Pgid = pid
		r.Env.LastAsyncPid = pid
	}
	go func() {
		status, _ := subRunner.stmt(ctx, &async)
		job.Status = status
		job.State = JobDone
	}()

	return NewExitStatus(0), nil
}

// stmtSourceText is a best-effort label for "jobs" output; exact
// source reproduction belongs to the printer package.
func stmtSourceText(st *ast.Stmt) string {
	if call, ok := st.Cmd.(*ast.CallExpr); ok && len(call.Args) > 0 {
		return call.Args[0].Lit()
	}
	return "..."
}

// cmd dispatches one Command node.
func (r *Runner) cmd(ctx context.Context, c ast.Command, assigns []*ast.Assign) (ExitStatus, *Divert) {
	switch x := c.(type) {
	case *ast.CallExpr:
		return r.simpleCommand(ctx, x, assigns)
	case *ast.BinaryCmd:
		return r.binaryCmd(ctx, x)
	case *ast.Block:
		return r.stmts(ctx, x.Stmts)
	case *ast.Subshell:
		return r.subshell(ctx, x.Stmts)
	case *ast.IfClause:
		return r.ifClause(ctx, x)
	case *ast.WhileClause:
		return r.whileClause(ctx, x)
	case *ast.ForClause:
		return r.forClause(ctx, x)
	case *ast.CaseClause:
		return r.caseClause(ctx, x)
	case *ast.FuncDecl:
		name := x.Name.Value
		if err := r.Env.DefineFunc(name, x.Body, x.Position); err != nil {
			r.errf("%v\n", err)
			return NewExitStatus(1), nil
		}
		return NewExitStatus(0), nil
	default:
		r.errf("unsupported command node %T\n", c)
		return NewExitStatus(2), nil
	}
}

// binaryCmd dispatches a BinaryCmd: "|" is a (possibly multi-stage)
// pipeline, "&&"/"||" are short-circuiting and-or connectives.
func (r *Runner) binaryCmd(ctx context.Context, b *ast.BinaryCmd) (ExitStatus, *Divert) {
	switch token.Token(b.Op) {
	case token.OR:
		return r.pipeline(ctx, collectPipeline(b))
	case token.LAND:
		status, div := r.stmt(ctx, b.X)
		if div != nil || !status.Success() {
			return status, div
		}
		return r.stmt(ctx, b.Y)
	case token.LOR:
		status, div := r.stmt(ctx, b.X)
		if div != nil || status.Success() {
			return status, div
		}
		return r.stmt(ctx, b.Y)
	default:
		r.errf("unsupported connective %v\n", b.Op)
		return NewExitStatus(2), nil
	}
}

// collectPipeline flattens a chain of "|" BinaryCmds into its stages,
// left to right. The parser nests such a chain to the left ("a | b | c"
// parses as BinaryCmd{BinaryCmd{a, b}, c}); a "|" operand on either
// side is followed unless it is negated or carries redirections.
func collectPipeline(b *ast.BinaryCmd) []*ast.Stmt {
	var stages []*ast.Stmt
	if prev, ok := b.X.Cmd.(*ast.BinaryCmd); ok && token.Token(prev.Op) == token.OR &&
		!b.X.Negated && len(b.X.Redirs) == 0 {
		stages = collectPipeline(prev)
	} else {
		stages = []*ast.Stmt{b.X}
	}
	if next, ok := b.Y.Cmd.(*ast.BinaryCmd); ok && token.Token(next.Op) == token.OR &&
		!b.Y.Negated && len(b.Y.Redirs) == 0 {
		stages = append(stages, collectPipeline(next)...)
	} else {
		stages = append(stages, b.Y)
	}
	return stages
}

// pipeline runs every stage concurrently, connecting each stage's
// stdout to the next stage's stdin, and reports the last stage's exit
// status — or, under "pipefail", the rightmost nonzero status.
func (r *Runner) pipeline(ctx context.Context, stages []*ast.Stmt) (ExitStatus, *Divert) {
	if len(stages) == 1 {
		return r.stmt(ctx, stages[0])
	}

	n := len(stages)
	readers := make([]*io.PipeReader, n-1)
	writers := make([]*io.PipeWriter, n-1)
	for i := range readers {
		readers[i], writers[i] = io.Pipe()
	}

	statuses := make([]ExitStatus, n)
	diverts := make([]*Divert, n)

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range stages {
		i, st := i, st
		stageRunner := &Runner{Env: r.Env, Stdout: r.Stdout, Stderr: r.Stderr, Stdin: r.Stdin}
		if i > 0 {
			stageRunner.Stdin = readers[i-1]
		}
		if i < n-1 {
			stageRunner.Stdout = writers[i]
		}
		g.Go(func() error {
			statuses[i], diverts[i] = stageRunner.stmt(gctx, st)
			if i < n-1 {
				writers[i].Close()
			}
			if i > 0 {
				readers[i-1].Close()
			}
			return nil
		})
	}
	g.Wait()

	status := statuses[n-1]
	if r.Env.Options.Get("pipefail") {
		for i := n - 1; i >= 0; i-- {
			if !statuses[i].Success() {
				status = statuses[i]
				break
			}
		}
	}
	for _, d := range diverts {
		if d != nil {
			return status, d
		}
	}
	return status, nil
}

// subshell runs sts in a cloned environment: variable, function, and
// directory changes don't escape back to the parent.
func (r *Runner) subshell(ctx context.Context, sts []*ast.Stmt) (ExitStatus, *Divert) {
	sub := &Runner{Env: r.Env.Sub(), Stdin: r.Stdin, Stdout: r.Stdout, Stderr: r.Stderr}
	pop := sub.Env.pushFrame(Frame{Kind: FrameSubshell})
	defer pop()
	status, div := sub.stmts(ctx, sts)
	if div != nil && div.Kind == DivertExit {
		return div.Status, nil
	}
	return status, nil
}

func (r *Runner) ifClause(ctx context.Context, c *ast.IfClause) (ExitStatus, *Divert) {
	status, div := r.stmts(ctx, c.CondStmts)
	if div != nil {
		return status, div
	}
	if status.Success() {
		return r.stmts(ctx, c.ThenStmts)
	}
	for _, elif := range c.Elifs {
		status, div = r.stmts(ctx, elif.CondStmts)
		if div != nil {
			return status, div
		}
		if status.Success() {
			return r.stmts(ctx, elif.ThenStmts)
		}
	}
	if c.ElseStmts != nil {
		return r.stmts(ctx, c.ElseStmts)
	}
	return NewExitStatus(0), nil
}

func (r *Runner) whileClause(ctx context.Context, w *ast.WhileClause) (ExitStatus, *Divert) {
	pop := r.Env.pushFrame(Frame{Kind: FrameLoop})
	defer pop()
	status := NewExitStatus(0)
	for {
		condStatus, div := r.stmts(ctx, w.CondStmts)
		if div != nil {
			return condStatus, div
		}
		if condStatus.Success() == w.Until {
			break
		}
		var bodyDiv *Divert
		status, bodyDiv = r.stmts(ctx, w.DoStmts)
		if bodyDiv != nil {
			stop, out, ok := resolveLoopDivert(bodyDiv)
			if !ok {
				return status, bodyDiv
			}
			if stop {
				return out, nil
			}
		}
	}
	return status, nil
}

func (r *Runner) forClause(ctx context.Context, f *ast.ForClause) (ExitStatus, *Divert) {
	pop := r.Env.pushFrame(Frame{Kind: FrameLoop})
	defer pop()

	ec := r.exec(ctx)
	var values []string
	if !f.HasIn {
		values = append([]string(nil), r.Env.Positional...)
	} else {
		values = ec.ExpandFields(f.Items...)
	}

	status := NewExitStatus(0)
	for _, v := range values {
		r.Env.Set(f.Name.Value, expand.Variable{Set: true, Str: v})
		var div *Divert
		status, div = r.stmts(ctx, f.DoStmts)
		if div != nil {
			stop, out, ok := resolveLoopDivert(div)
			if !ok {
				return status, div
			}
			if stop {
				return out, nil
			}
		}
	}
	return status, nil
}

// resolveLoopDivert interprets a Divert produced inside a loop body.
// ok is false when div isn't Break/Continue, or is one destined for a
// further-out loop frame, and must keep propagating outward; in the
// latter case div.Level is decremented in place first, so each
// enclosing loop frame it passes through peels one level off, and the
// loop frame it's finally meant for sees Level <= 1. For Break/
// Continue at level <= 1, ok is true and stop reports whether the
// loop itself should end (Break) or just this iteration (Continue).
func resolveLoopDivert(div *Divert) (stop bool, status ExitStatus, ok bool) {
	switch div.Kind {
	case DivertBreak:
		if div.Level <= 1 {
			return true, div.Status, true
		}
		div.Level--
		return false, div.Status, false
	case DivertContinue:
		if div.Level <= 1 {
			return false, div.Status, true
		}
		div.Level--
		return false, div.Status, false
	default:
		return false, div.Status, false
	}
}

func (r *Runner) caseClause(ctx context.Context, c *ast.CaseClause) (ExitStatus, *Divert) {
	ec := r.exec(ctx)
	subject := ec.ExpandLiteral(c.Word)

	status := NewExitStatus(0)
	fallingThrough := false
	for i, item := range c.Items {
		matched := fallingThrough
		if !matched {
			for _, pat := range item.Patterns {
				if matchCasePattern(ec, pat, subject) {
					matched = true
					break
				}
			}
		}
		if !matched {
			fallingThrough = false
			continue
		}
		var div *Divert
		status, div = r.stmts(ctx, item.Stmts)
		if div != nil {
			return status, div
		}
		switch token.CaseOperator(item.Op) {
		case token.DSEMICOLON:
			return status, nil
		case token.SEMIFALL:
			fallingThrough = true
		case token.DSEMIFALL:
			// Resume matching subsequent branches' patterns instead of
			// unconditionally running the next one.
			fallingThrough = false
			if i+1 < len(c.Items) {
				continue
			}
			return status, nil
		}
	}
	return status, nil
}

func matchCasePattern(ec *expand.Context, pat ast.Word, subject string) bool {
	glob := ec.ExpandPattern(pat)
	return patternMatches(glob, subject)
}
