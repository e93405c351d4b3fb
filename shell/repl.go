// Package shell implements the read-eval loop (component L): it
// drives repeated parse-then-execute cycles over an input source,
// wiring the lexer/parser packages (kept out of interp's own import
// graph to avoid a dependency cycle) to an interp.Runner.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/interp"
	"goyash.dev/goyash/parser"
	"goyash.dev/goyash/source"
)

// Shell pairs a Runner with the stdout writer given to New; it keeps
// no input state between calls.
type Shell struct {
	Runner *interp.Runner
	Stdout io.Writer
}

// New returns a Shell over env, wiring env's trap bodies to be
// re-parsed through this package's Parse so "trap"/"eval" work
// without interp importing lexer/parser directly.
func New(env *interp.Environment, stdin io.Reader, stdout, stderr io.Writer) *Shell {
	interp.SetTrapParser(func(src string) ([]*ast.Stmt, error) {
		file, err := parseSource(env, src, "eval")
		if err != nil {
			return nil, err
		}
		return file.Stmts, nil
	})
	r := &interp.Runner{Env: env, Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return &Shell{Runner: r, Stdout: stdout}
}

func parseSource(env *interp.Environment, src, name string) (*ast.File, error) {
	code := source.NewCode([]byte(src), source.Origin{Kind: source.Eval, Name: name})
	stack := source.NewStack(code)
	return parser.Parse(stack, name, env.AliasLookup)
}

// RunString parses and executes src as a single, complete program
// (the "-c" command-line form and ". file"/"eval" bodies) and returns
// its exit status.
func (sh *Shell) RunString(ctx context.Context, src, name string) interp.ExitStatus {
	file, err := parseSource(sh.Runner.Env, src, name)
	if err != nil {
		fmt.Fprintln(sh.Runner.Stderr, err)
		return interp.NewExitStatus(2)
	}
	return sh.Runner.Run(ctx, file)
}

// RunReader parses and executes every statement of r as one program,
// the non-interactive file/stdin-redirected-from-a-pipe form.
func (sh *Shell) RunReader(ctx context.Context, r io.Reader, name string) interp.ExitStatus {
	buf, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintln(sh.Runner.Stderr, err)
		return interp.NewExitStatus(1)
	}
	return sh.RunString(ctx, string(buf), name)
}

// RunInteractive drives the line-at-a-time read-eval loop spec §4.L
// describes for a terminal session: each line is appended to the
// current command's buffer and reparsed; a syntax error that could
// still be fixed by more input (an open quote, a dangling "&&" or
// "|") prompts with PS2 ("> ") instead of
// failing, while any other syntax error discards the line and resumes
// at PS1 ("$ ").
func (sh *Shell) RunInteractive(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	in := bufio.NewReader(stdin)
	var pending string
	for {
		if pending == "" {
			fmt.Fprint(stdout, sh.prompt1())
		} else {
			fmt.Fprint(stdout, sh.prompt2())
		}
		line, err := in.ReadString('\n')
		if line == "" && err != nil {
			sh.Runner.RunExitTrap(ctx)
			return nil
		}
		pending += line

		file, perr := parseSource(sh.Runner.Env, pending, "")
		if perr != nil {
			if incompleteInput(pending) {
				continue
			}
			fmt.Fprintln(stdout, perr)
			pending = ""
			continue
		}
		pending = ""
		status, div := sh.Runner.RunStmts(ctx, file.Stmts)
		sh.Runner.Env.LastStatus = status
		if div != nil && div.Kind == interp.DivertExit {
			sh.Runner.RunExitTrap(ctx)
			return nil
		}
		if err != nil {
			sh.Runner.RunExitTrap(ctx)
			return nil
		}
	}
}

// incompleteInput is a best-effort heuristic for "this parse failure
// might be fixed by reading one more line": an odd number of quote
// characters, or a trailing line-continuation/connective. It does not
// attempt to track here-doc delimiters across lines; an unterminated
// here-doc will instead surface as a syntax error on EOF, same as a
// non-interactive parse.
func incompleteInput(s string) bool {
	singles, doubles := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			singles++
		case '"':
			if i == 0 || s[i-1] != '\\' {
				doubles++
			}
		}
	}
	if singles%2 != 0 || doubles%2 != 0 {
		return true
	}
	t := strings.TrimRight(s, " \t\n")
	return strings.HasSuffix(t, "&&") || strings.HasSuffix(t, "|") || strings.HasSuffix(t, "\\")
}

func (sh *Shell) prompt1() string {
	if ps1 := sh.Runner.Env.Get("PS1"); ps1.Set {
		return ps1.Str
	}
	return "$ "
}

func (sh *Shell) prompt2() string {
	if ps2 := sh.Runner.Env.Get("PS2"); ps2.Set {
		return ps2.Str
	}
	return "> "
}

// IsTerminal reports whether f is a terminal, for deciding between
// the interactive and piped-stdin read-eval loops.
func IsTerminal(env *interp.Environment, f *os.File) bool {
	return env.Sys.IsTerminal(f.Fd())
}
