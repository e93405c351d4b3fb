// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package printer renders a parsed program back to shell source text.
// It exists to support the round-trip property a shell grammar should
// hold: parse, print, and reparse should yield an equivalent tree.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/token"
)

// Config controls how the printing of an AST node will behave.
type Config struct {
	Spaces int // 0 (default) for tabs, >0 for number of spaces
}

// Fprint pretty-prints f to w using the default Config.
func Fprint(w io.Writer, f *ast.File) error {
	return Config{}.Fprint(w, f)
}

// Fprint pretty-prints f to w.
func (c Config) Fprint(w io.Writer, f *ast.File) error {
	p := &printer{bw: bufio.NewWriter(w), c: c}
	p.stmtList(f.Stmts)
	return p.bw.Flush()
}

type printer struct {
	bw *bufio.Writer
	c  Config

	level        int
	pendingHdocs []*ast.Redirect
}

func (p *printer) indentString() string {
	if p.c.Spaces > 0 {
		return strings.Repeat(" ", p.level*p.c.Spaces)
	}
	return strings.Repeat("\t", p.level)
}

// stmtList prints one statement per line at the current indent level,
// flushing any heredoc bodies a line's redirects queued before moving
// on to the next line — the same "body follows the newline that ends
// its opening line" rule a shell reader applies.
func (p *printer) stmtList(stmts []*ast.Stmt) {
	for _, s := range stmts {
		p.bw.WriteString(p.indentString())
		p.stmt(s)
		p.bw.WriteByte('\n')
		p.flushHdocs()
	}
}

func (p *printer) flushHdocs() {
	for _, r := range p.pendingHdocs {
		body := wordLit(r.Hdoc)
		p.bw.WriteString(body)
		if len(body) == 0 || body[len(body)-1] != '\n' {
			p.bw.WriteByte('\n')
		}
		p.bw.WriteString(wordLit(r.Word))
		p.bw.WriteByte('\n')
	}
	p.pendingHdocs = nil
}

func (p *printer) stmt(s *ast.Stmt) {
	for i, a := range s.Assigns {
		if i > 0 {
			p.bw.WriteByte(' ')
		}
		p.assign(a)
	}
	if len(s.Assigns) > 0 && s.Cmd != nil {
		p.bw.WriteByte(' ')
	}
	if s.Negated {
		p.bw.WriteString("! ")
	}
	if s.Cmd != nil {
		p.command(s.Cmd)
	}
	for _, r := range s.Redirs {
		p.bw.WriteByte(' ')
		p.redirect(r)
	}
	if s.Background {
		p.bw.WriteString(" &")
	}
}

// stmtInline prints a statement with no leading indent or trailing
// newline, for pipeline/and-or chains that stay on one line.
func (p *printer) stmtInline(s *ast.Stmt) {
	p.stmt(s)
}

func (p *printer) assign(a *ast.Assign) {
	p.bw.WriteString(a.Name.Value)
	if a.Append {
		p.bw.WriteString("+=")
	} else {
		p.bw.WriteByte('=')
	}
	p.word(a.Value)
}

func (p *printer) redirect(r *ast.Redirect) {
	if r.N != nil {
		p.bw.WriteString(r.N.Value)
	}
	p.bw.WriteString(token.Token(r.Op).String())
	p.word(r.Word)
	switch r.Op {
	case token.SHL, token.DHEREDOC:
		p.pendingHdocs = append(p.pendingHdocs, r)
	}
}

func (p *printer) command(cmd ast.Command) {
	switch x := cmd.(type) {
	case *ast.CallExpr:
		p.callExpr(x)
	case *ast.BinaryCmd:
		p.binaryCmd(x)
	case *ast.Subshell:
		p.subshell(x)
	case *ast.Block:
		p.block(x)
	case *ast.IfClause:
		p.ifClause(x)
	case *ast.WhileClause:
		p.whileClause(x)
	case *ast.ForClause:
		p.forClause(x)
	case *ast.CaseClause:
		p.caseClause(x)
	case *ast.FuncDecl:
		p.funcDecl(x)
	default:
		panic(fmt.Sprintf("printer: unhandled command %T", x))
	}
}

func (p *printer) callExpr(c *ast.CallExpr) {
	for i, w := range c.Args {
		if i > 0 {
			p.bw.WriteByte(' ')
		}
		p.word(w)
	}
}

// binaryCmd prints a pipeline or and-or connective inline, recursing
// into any nested binary command on either side rather than breaking
// across lines: "a | b && c" round-trips as one statement either way.
func (p *printer) binaryCmd(b *ast.BinaryCmd) {
	p.stmtInline(b.X)
	p.bw.WriteByte(' ')
	p.bw.WriteString(token.Token(b.Op).String())
	p.bw.WriteByte(' ')
	p.stmtInline(b.Y)
}

func (p *printer) subshell(s *ast.Subshell) {
	p.bw.WriteString("(\n")
	p.level++
	p.stmtList(s.Stmts)
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteByte(')')
}

func (p *printer) block(b *ast.Block) {
	p.bw.WriteString("{\n")
	p.level++
	p.stmtList(b.Stmts)
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteByte('}')
}

func (p *printer) ifClause(c *ast.IfClause) {
	p.bw.WriteString("if\n")
	p.level++
	p.stmtList(c.CondStmts)
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("then\n")
	p.level++
	p.stmtList(c.ThenStmts)
	p.level--
	for _, elif := range c.Elifs {
		p.bw.WriteString(p.indentString())
		p.bw.WriteString("elif\n")
		p.level++
		p.stmtList(elif.CondStmts)
		p.level--
		p.bw.WriteString(p.indentString())
		p.bw.WriteString("then\n")
		p.level++
		p.stmtList(elif.ThenStmts)
		p.level--
	}
	if len(c.ElseStmts) > 0 {
		p.bw.WriteString(p.indentString())
		p.bw.WriteString("else\n")
		p.level++
		p.stmtList(c.ElseStmts)
		p.level--
	}
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("fi")
}

func (p *printer) whileClause(w *ast.WhileClause) {
	if w.Until {
		p.bw.WriteString("until\n")
	} else {
		p.bw.WriteString("while\n")
	}
	p.level++
	p.stmtList(w.CondStmts)
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("do\n")
	p.level++
	p.stmtList(w.DoStmts)
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("done")
}

func (p *printer) forClause(f *ast.ForClause) {
	p.bw.WriteString("for ")
	p.bw.WriteString(f.Name.Value)
	if f.HasIn {
		p.bw.WriteString(" in")
		for _, w := range f.Items {
			p.bw.WriteByte(' ')
			p.word(w)
		}
	}
	p.bw.WriteString("\n")
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("do\n")
	p.level++
	p.stmtList(f.DoStmts)
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("done")
}

func (p *printer) caseClause(c *ast.CaseClause) {
	p.bw.WriteString("case ")
	p.word(c.Word)
	p.bw.WriteString(" in\n")
	p.level++
	for _, item := range c.Items {
		p.bw.WriteString(p.indentString())
		for i, pat := range item.Patterns {
			if i > 0 {
				p.bw.WriteByte('|')
			}
			p.word(pat)
		}
		p.bw.WriteString(")\n")
		p.level++
		p.stmtList(item.Stmts)
		p.level--
		p.bw.WriteString(p.indentString())
		p.bw.WriteString(token.Token(item.Op).String())
		p.bw.WriteByte('\n')
	}
	p.level--
	p.bw.WriteString(p.indentString())
	p.bw.WriteString("esac")
}

func (p *printer) funcDecl(f *ast.FuncDecl) {
	if f.BashStyle {
		p.bw.WriteString("function ")
		p.bw.WriteString(f.Name.Value)
		p.bw.WriteString(" ")
	} else {
		p.bw.WriteString(f.Name.Value)
		p.bw.WriteString("() ")
	}
	p.command(f.Body.Cmd)
}

// word prints a Word exactly as wordParts would reconstruct it: each
// part either contributes literal text directly, or re-adds its own
// syntax (quotes, "$", braces) around its contents.
func (p *printer) word(w ast.Word) {
	for _, part := range w.Parts {
		p.wordPart(part)
	}
}

func (p *printer) wordPart(part ast.WordPart) {
	switch x := part.(type) {
	case *ast.Lit:
		p.bw.WriteString(x.Value)
	case *ast.SglQuoted:
		if x.Dollar {
			p.bw.WriteString("$'")
		} else {
			p.bw.WriteByte('\'')
		}
		p.bw.WriteString(x.Value)
		p.bw.WriteByte('\'')
	case *ast.DblQuoted:
		p.bw.WriteByte('"')
		for _, inner := range x.Parts {
			p.wordPart(inner)
		}
		p.bw.WriteByte('"')
	case *ast.ParamExp:
		p.paramExp(x)
	case *ast.CmdSubst:
		p.cmdSubst(x)
	case *ast.ArithmExp:
		p.bw.WriteString("$((")
		p.arithmExpr(x.X)
		p.bw.WriteString("))")
	default:
		panic(fmt.Sprintf("printer: unhandled word part %T", x))
	}
}

func (p *printer) paramExp(pe *ast.ParamExp) {
	if pe.Short {
		p.bw.WriteByte('$')
		p.bw.WriteString(pe.Param.Value)
		return
	}
	p.bw.WriteString("${")
	if pe.Length {
		p.bw.WriteByte('#')
	}
	p.bw.WriteString(pe.Param.Value)
	switch {
	case pe.Switch != nil:
		p.bw.WriteString(token.Token(pe.Switch.Op).String())
		p.word(pe.Switch.Word)
	case pe.Trim != nil:
		p.bw.WriteString(token.Token(pe.Trim.Op).String())
		p.word(pe.Trim.Word)
	}
	p.bw.WriteByte('}')
}

func (p *printer) cmdSubst(cs *ast.CmdSubst) {
	if cs.Backquotes {
		p.bw.WriteByte('`')
		p.inlineStmts(cs.Stmts)
		p.bw.WriteByte('`')
		return
	}
	p.bw.WriteString("$(")
	p.inlineStmts(cs.Stmts)
	p.bw.WriteByte(')')
}

// inlineStmts renders a statement list as a single-line, ";"-joined
// command sequence, the form command substitution's contents take
// inside a word instead of the indented multi-line block form.
func (p *printer) inlineStmts(stmts []*ast.Stmt) {
	for i, s := range stmts {
		if i > 0 {
			p.bw.WriteString("; ")
		}
		p.stmtInline(s)
	}
}

func (p *printer) arithmExpr(x ast.ArithmExpr) {
	switch a := x.(type) {
	case *ast.BinaryArithm:
		p.arithmExpr(a.X)
		p.bw.WriteByte(' ')
		p.bw.WriteString(a.Op.String())
		p.bw.WriteByte(' ')
		p.arithmExpr(a.Y)
	case *ast.UnaryArithm:
		if a.Post {
			p.arithmExpr(a.X)
			p.bw.WriteString(a.Op.String())
		} else {
			p.bw.WriteString(a.Op.String())
			p.arithmExpr(a.X)
		}
	case *ast.TernaryArithm:
		p.arithmExpr(a.Cond)
		p.bw.WriteString(" ? ")
		p.arithmExpr(a.Then)
		p.bw.WriteString(" : ")
		p.arithmExpr(a.Else)
	case *ast.ParenArithm:
		p.bw.WriteByte('(')
		p.arithmExpr(a.X)
		p.bw.WriteByte(')')
	case *ast.WordArithm:
		p.word(a.W)
	default:
		panic(fmt.Sprintf("printer: unhandled arithmetic node %T", a))
	}
}

// wordLit returns a heredoc word's raw text. The parser always builds
// heredoc bodies and delimiters from a single *ast.Lit part, so this
// sidesteps the general word-printing quoting rules, which don't apply
// to a heredoc's own syntax.
func wordLit(w ast.Word) string {
	if len(w.Parts) != 1 {
		return ""
	}
	l, ok := w.Parts[0].(*ast.Lit)
	if !ok {
		return ""
	}
	return l.Value
}
