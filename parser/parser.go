// Package parser implements the POSIX shell grammar: a recursive-descent
// parser that pulls Lexemes from a lexer.Lexer and assembles them into
// the ast package's node types. Where the input is context-sensitive
// (which bytes end a token depends on whether we're inside quotes, a
// parameter expansion, or an arithmetic expansion) the parser drives the
// lexer's Mode stack directly, so lexing and parsing stay two
// cooperating types instead of being fused into one.
package parser

import (
	"fmt"
	"strings"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/lexer"
	"goyash.dev/goyash/source"
	"goyash.dev/goyash/token"
)

// AliasLookup resolves a command-start word to its alias replacement
// text, if any. The parser consults it only for the first word of a
// simple command, and only once per source frame (lexer.Lexer's
// source.Stack tracks which names have already been substituted along
// the current alias chain, breaking recursive aliases).
type AliasLookup func(name string) (text string, ok bool)

// Parser turns a token stream into an *ast.File.
type Parser struct {
	lx  *lexer.Lexer
	cur lexer.Lexeme

	aliases AliasLookup

	// interleavedRedirs collects redirections parsed in the middle of a
	// simple command's argument list (e.g. `echo foo >log bar`), which
	// attach to the enclosing Stmt rather than the CallExpr.
	interleavedRedirs []*ast.Redirect

	// pendingHeredocs collects every heredoc Redirect parsed so far,
	// paired with the lexer's staging slot for its body. The lexer fills
	// each slot in as it crosses the newline that ends the heredoc's
	// introducing line, so a single pass at the end of Parse copies every
	// body into its Redirect.
	pendingHeredocs []pendingLink

	err error
}

// New creates a Parser reading from stack.
func New(stack *source.Stack, aliases AliasLookup) *Parser {
	p := &Parser{lx: lexer.New(stack), aliases: aliases}
	p.next()
	return p
}

// Err returns the first error encountered, if any.
func (p *Parser) Err() error { return p.err }

func (p *Parser) errorf(format string, args ...any) {
	if p.err == nil {
		p.err = &source.Report{Primary: p.cur.Pos, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *Parser) errAt(loc source.Location, format string, args ...any) {
	if p.err == nil {
		p.err = &source.Report{Primary: loc, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *Parser) next() {
	p.cur = p.lx.Next()
	if err := p.lx.Err(); err != nil && p.err == nil {
		p.err = err
	}
}

func (p *Parser) stopped() bool { return p.err != nil || p.cur.Tok == token.EOF }

// Parse reads a complete program from stack.
func Parse(stack *source.Stack, name string, aliases AliasLookup) (*ast.File, error) {
	p := New(stack, aliases)
	stmts := p.stmtList()
	p.resolveHeredocs()
	if p.err != nil {
		return nil, p.err
	}
	return &ast.File{Name: name, Stmts: stmts}, nil
}

// ---- reserved words and literal recognition ----

// litWord reports the literal spelling of cur if it is an unquoted,
// unexpanded word (LITWORD), and whether cur is one at all.
func (p *Parser) litWord() (string, bool) {
	if p.cur.Tok == token.LITWORD {
		return p.cur.Val, true
	}
	return "", false
}

func (p *Parser) atRsrv(kw string) bool {
	s, ok := p.litWord()
	return ok && s == kw
}

func (p *Parser) gotRsrv(kw string) bool {
	if p.atRsrv(kw) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) gotTok(t token.Token) bool {
	if p.cur.Tok == t {
		p.next()
		return true
	}
	return false
}

// ---- statement lists ----

// stmtList parses statements until EOF or a reserved word/token in stop.
func (p *Parser) stmtList(stop ...string) []*ast.Stmt {
	var stmts []*ast.Stmt
	for !p.stopped() {
		for p.cur.Tok == token.SEMICOLON {
			p.next()
		}
		if p.stopped() || p.atAnyRsrv(stop) {
			break
		}
		s := p.stmt()
		if s == nil {
			break
		}
		stmts = append(stmts, s)
		// A trailing `&` is consumed by stmt() itself (it marks the
		// statement as backgrounded); here we only need to consume an
		// explicit `;` separator before looping for the next statement.
		if !s.Background && !p.gotTok(token.SEMICOLON) && !p.cur.NewLine && !p.atAnyRsrv(stop) && !p.stopped() {
			break
		}
	}
	return stmts
}

func (p *Parser) atAnyRsrv(stop []string) bool {
	s, ok := p.litWord()
	if !ok {
		return false
	}
	for _, kw := range stop {
		if s == kw {
			return true
		}
	}
	return false
}

// stmtListUntil parses statements until tok is seen as the current
// token (not consumed), used for $(...), (...), and { ... }.
func (p *Parser) stmtListUntil(tok token.Token) []*ast.Stmt {
	var stmts []*ast.Stmt
	for !p.stopped() && p.cur.Tok != tok {
		for p.cur.Tok == token.SEMICOLON {
			p.next()
		}
		if p.stopped() || p.cur.Tok == tok {
			break
		}
		s := p.stmt()
		if s == nil {
			break
		}
		stmts = append(stmts, s)
		p.gotTok(token.SEMICOLON)
	}
	return stmts
}

// ---- a single statement: assigns, compound/simple command, redirs,
// background, negation ----

func (p *Parser) stmt() *ast.Stmt {
	pos := p.cur.Pos
	negated := false
	for p.cur.Tok == token.NOT {
		negated = true
		p.next()
	}

	s := &ast.Stmt{Position: pos}

	cmd, assigns, redirs := p.commandOrAssigns()
	s.Assigns = assigns
	s.Redirs = append(s.Redirs, redirs...)
	s.Cmd = cmd

	// Trailing redirections after a compound command, e.g. `{ ..; } >log`.
	for {
		r := p.maybeRedirect()
		if r == nil {
			break
		}
		s.Redirs = append(s.Redirs, r)
	}

	s.Negated = negated
	if cmd == nil && len(s.Assigns) == 0 && len(s.Redirs) == 0 {
		if !negated {
			return nil
		}
	}

	andOr := p.andOrTail(s)
	andOr.EndPos = p.cur.Pos
	return andOr
}

// andOrTail builds the pipeline/and-or chain starting with first, and
// marks Background if the chain ends in an unconsumed `&`.
func (p *Parser) andOrTail(first *ast.Stmt) *ast.Stmt {
	left := p.pipelineTail(first)
	for p.cur.Tok == token.LAND || p.cur.Tok == token.LOR {
		op := p.cur.Tok
		opPos := p.cur.Pos
		p.next()
		for p.cur.NewLine {
			// allow the right operand on the following line
			break
		}
		right := p.stmt()
		if right == nil {
			p.errAt(opPos, "%s must be followed by a statement", op)
			return left
		}
		bc := &ast.BinaryCmd{OpPos: opPos, Op: token.BinCmdOperator(op), X: left, Y: right}
		left = &ast.Stmt{Position: left.Pos(), Cmd: bc, EndPos: right.End()}
	}
	return left
}

// pipelineTail builds a `|` chain starting with first.
func (p *Parser) pipelineTail(first *ast.Stmt) *ast.Stmt {
	left := first
	for p.cur.Tok == token.OR {
		opPos := p.cur.Pos
		p.next()
		right := p.stmt0()
		if right == nil {
			p.errAt(opPos, "%s must be followed by a statement", token.OR)
			return left
		}
		bc := &ast.BinaryCmd{OpPos: opPos, Op: token.BinCmdOperator(token.OR), X: left, Y: right}
		left = &ast.Stmt{Position: left.Pos(), Cmd: bc, EndPos: right.End()}
	}
	if p.gotTok(token.AND) {
		markBackground(left)
	}
	return left
}

func markBackground(s *ast.Stmt) {
	s.Background = true
}

// stmt0 parses one command (no and-or/pipeline recursion), used as the
// right-hand operand of `|`.
func (p *Parser) stmt0() *ast.Stmt {
	pos := p.cur.Pos
	negated := false
	for p.cur.Tok == token.NOT {
		negated = true
		p.next()
	}
	cmd, assigns, redirs := p.commandOrAssigns()
	s := &ast.Stmt{Position: pos, Cmd: cmd, Assigns: assigns, Redirs: redirs, Negated: negated}
	for {
		r := p.maybeRedirect()
		if r == nil {
			break
		}
		s.Redirs = append(s.Redirs, r)
	}
	s.EndPos = p.cur.Pos
	return s
}

// commandOrAssigns parses leading redirections and assignment words,
// then (if anything but a simple command follows) the command itself.
func (p *Parser) commandOrAssigns() (ast.Command, []*ast.Assign, []*ast.Redirect) {
	var assigns []*ast.Assign
	var redirs []*ast.Redirect
	for {
		if r := p.maybeRedirect(); r != nil {
			redirs = append(redirs, r)
			continue
		}
		if a := p.maybeAssign(); a != nil {
			assigns = append(assigns, a)
			continue
		}
		break
	}
	if p.stopped() || p.atCommandStop() {
		return nil, assigns, redirs
	}
	p.interleavedRedirs = p.interleavedRedirs[:0]
	cmd := p.command()
	redirs = append(redirs, p.interleavedRedirs...)
	p.interleavedRedirs = p.interleavedRedirs[:0]
	return cmd, assigns, redirs
}

func (p *Parser) atCommandStop() bool {
	switch p.cur.Tok {
	case token.SEMICOLON, token.NEWLINE, token.AND, token.OR, token.LAND, token.LOR,
		token.RPAREN, token.RBRACE, token.EOF,
		token.DSEMICOLON, token.SEMIFALL, token.DSEMIFALL:
		return true
	}
	return p.atAnyRsrv([]string{"then", "elif", "else", "fi", "do", "done", "esac"})
}

// maybeAssign consumes `name=word` at the current position if it parses
// as one, otherwise leaves the parser untouched and returns nil.
func (p *Parser) maybeAssign() *ast.Assign {
	s, ok := p.litWord()
	if !ok || !validAssignName(s) {
		return nil
	}
	eq := indexAssign(s)
	if eq < 0 {
		return nil
	}
	append_ := false
	name := s[:eq]
	if name != "" && name[len(name)-1] == '+' {
		append_ = true
		name = name[:len(name)-1]
	}
	namePos := p.cur.Pos
	p.next()
	val := p.wordFromRemainder(s[eq+1:], namePos)
	return &ast.Assign{
		Append: append_,
		Name:   &ast.Lit{ValuePos: namePos, ValueEnd: namePos, Value: name},
		Value:  val,
	}
}

// wordFromRemainder builds the Value word of an assignment: the bytes
// after `=` in the LITWORD the lexer already produced, plus any further
// word parts that immediately follow without space (quotes, expansions).
func (p *Parser) wordFromRemainder(rest string, pos source.Location) ast.Word {
	var w ast.Word
	if rest != "" {
		w.Parts = append(w.Parts, &ast.Lit{ValuePos: pos, ValueEnd: p.cur.Pos, Value: rest})
	}
	for !p.cur.Spaced && !p.cur.NewLine && p.wordPartStart() {
		w.Parts = append(w.Parts, p.wordPart())
	}
	return w
}

func indexAssign(s string) int {
	for i, c := range s {
		if c == '=' {
			return i
		}
		if !(c == '_' || c == '+' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return -1
		}
	}
	return -1
}

func validAssignName(s string) bool {
	eq := indexAssign(s)
	if eq <= 0 {
		return false
	}
	name := s[:eq]
	if name[len(name)-1] == '+' {
		name = name[:len(name)-1]
	}
	if name == "" {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	return true
}

// ---- redirections ----

var redirOps = map[token.Token]bool{
	token.LSS: true, token.GTR: true, token.SHL: true, token.SHR: true,
	token.RDRINOUT: true, token.DPLIN: true, token.DPLOUT: true,
	token.CLBOUT: true, token.DHEREDOC: true, token.WHEREDOC: true,
}

func (p *Parser) maybeRedirect() *ast.Redirect {
	var n *ast.Lit
	// A bare digit immediately followed (no space) by a redirect operator
	// names that operator's target file descriptor, e.g. the "2" in
	// "2>err.log".
	if s, ok := p.litWord(); ok && isAllDigits(s) {
		pos := p.cur.Pos
		save := p.cur
		mark := p.lx.Mark()
		p.next()
		if redirOps[p.cur.Tok] && !p.cur.Spaced {
			n = &ast.Lit{ValuePos: pos, ValueEnd: pos, Value: s}
		} else {
			p.lx.Reset(mark)
			p.cur = save
			return nil
		}
	}
	if !redirOps[p.cur.Tok] {
		return nil
	}
	op := p.cur.Tok
	opPos := p.cur.Pos
	p.next()

	if op == token.DHEREDOC || op == token.SHL {
		return p.heredocRedirect(op, opPos, n)
	}

	word := p.word()
	if word.Parts == nil {
		p.errAt(opPos, "%s must be followed by a word", op)
	}
	return &ast.Redirect{OpPos: opPos, Op: token.RedirOperator(op), N: n, Word: word}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (p *Parser) heredocRedirect(op token.Token, opPos source.Location, n *ast.Lit) *ast.Redirect {
	p.lx.PushMode(lexerHeredocWordMode)
	p.next()
	delimPos := p.cur.Pos
	delim, quoted := p.unquoteHeredocWord()
	p.lx.PopMode()
	p.next()

	h := &lexer.PendingHeredoc{Delim: delim, StripTabs: op == token.DHEREDOC, Quoted: quoted}
	p.lx.QueueHeredoc(h)

	r := &ast.Redirect{
		OpPos:         opPos,
		Op:            token.RedirOperator(op),
		N:             n,
		Word:          ast.Word{Parts: []ast.WordPart{&ast.Lit{ValuePos: delimPos, ValueEnd: delimPos, Value: delim}}},
		HdocStripTabs: op == token.DHEREDOC,
		HdocQuoted:    quoted,
	}
	p.pendingHeredocs = append(p.pendingHeredocs, pendingLink{redirect: r, pending: h})
	return r
}

// unquoteHeredocWord returns the delimiter literal the lexer produced
// for the heredoc-word mode. The lexer has already removed any quote
// marks without recording them, so the quoted result is always false
// and a quoted delimiter does not turn off expansion of the body.
func (p *Parser) unquoteHeredocWord() (string, bool) {
	if p.cur.Tok == token.LITWORD {
		val := p.cur.Val
		return val, false
	}
	return "", false
}

// pendingLink ties a Redirect node to the PendingHeredoc the lexer will
// fill in once the body is staged at end-of-line.
type pendingLink struct {
	redirect *ast.Redirect
	pending  *lexer.PendingHeredoc
}

// resolveHeredocs copies staged bodies from the lexer's pending list
// into their Redirect nodes. Parse calls it once, after the whole
// statement list has been read.
func (p *Parser) resolveHeredocs() {
	for _, link := range p.pendingHeredocs {
		link.redirect.Hdoc = ast.Word{Parts: []ast.WordPart{&ast.Lit{Value: link.pending.Body}}}
	}
	p.pendingHeredocs = p.pendingHeredocs[:0]
}

const lexerHeredocWordMode = lexer.HereDocWord

// ---- words and word parts ----

func (p *Parser) wordPartStart() bool {
	switch p.cur.Tok {
	case token.LIT, token.LITWORD, token.SQUOTE, token.DQUOTE, token.BQUOTE,
		token.DOLLAR, token.DOLLBR, token.DOLLPR, token.DOLLDP, token.DOLSQ:
		return true
	}
	return false
}

func (p *Parser) word() ast.Word {
	var w ast.Word
	if !p.wordPartStart() {
		return w
	}
	for {
		w.Parts = append(w.Parts, p.wordPart())
		if p.stopped() || p.cur.Spaced || p.cur.NewLine || !p.wordPartStart() {
			break
		}
	}
	return w
}

func (p *Parser) wordPart() ast.WordPart {
	switch p.cur.Tok {
	case token.LIT, token.LITWORD:
		lit := &ast.Lit{ValuePos: p.cur.Pos, Value: p.cur.Val}
		p.next()
		lit.ValueEnd = p.cur.Pos
		return lit
	case token.SQUOTE:
		return p.singleQuoted()
	case token.DOLSQ:
		return p.dollarSingleQuoted()
	case token.DQUOTE:
		return p.doubleQuoted()
	case token.BQUOTE:
		return p.cmdSubst(true)
	case token.DOLLAR:
		return p.dollarExp()
	case token.DOLLBR:
		return p.paramExp()
	case token.DOLLPR:
		return p.cmdSubst(false)
	case token.DOLLDP:
		return p.arithmExpOuter()
	default:
		p.errorf("unexpected token %s in word", p.cur.Tok)
		pos := p.cur.Pos
		p.next()
		return &ast.Lit{ValuePos: pos, ValueEnd: pos}
	}
}

func (p *Parser) singleQuoted() *ast.SglQuoted {
	pos := p.cur.Pos
	p.lx.PushMode(lexer.SingleQuoted)
	p.next()
	var val string
	if p.cur.Tok == token.LITWORD {
		val = p.cur.Val
		p.next()
	}
	end := p.cur.Pos
	p.lx.PopMode()
	p.next()
	return &ast.SglQuoted{Position: pos, EndPos: end, Value: val}
}

func (p *Parser) dollarSingleQuoted() *ast.SglQuoted {
	pos := p.cur.Pos
	p.lx.PushMode(lexer.DollarSingleQuoted)
	p.next()
	var val string
	if p.cur.Tok == token.LITWORD {
		val = p.cur.Val
		p.next()
	}
	end := p.cur.Pos
	p.lx.PopMode()
	p.next()
	return &ast.SglQuoted{Position: pos, EndPos: end, Dollar: true, Value: val}
}

func (p *Parser) doubleQuoted() *ast.DblQuoted {
	pos := p.cur.Pos
	p.lx.PushMode(lexer.DoubleQuoted)
	p.next()
	var parts []ast.WordPart
loop:
	for {
		switch p.cur.Tok {
		case token.DQUOTE:
			break loop
		case token.EOF:
			p.errorf("reached EOF without a closing quote")
			break loop
		case token.LIT, token.LITWORD:
			lit := &ast.Lit{ValuePos: p.cur.Pos, Value: p.cur.Val}
			p.next()
			lit.ValueEnd = p.cur.Pos
			parts = append(parts, lit)
		case token.BQUOTE:
			parts = append(parts, p.cmdSubst(true))
		case token.DOLLAR:
			parts = append(parts, p.dollarExp())
		case token.DOLLBR:
			parts = append(parts, p.paramExp())
		case token.DOLLPR:
			parts = append(parts, p.cmdSubst(false))
		case token.DOLLDP:
			parts = append(parts, p.arithmExpOuter())
		default:
			p.errorf("unexpected token %s in a double-quoted string", p.cur.Tok)
			break loop
		}
	}
	end := p.cur.Pos
	p.lx.PopMode()
	p.next()
	return &ast.DblQuoted{Position: pos, EndPos: end, Parts: parts}
}

// dollarExp parses `$` followed by a bare name/special parameter
// (`$foo`, `$1`, `$?`, `$$`, ...) without braces.
func (p *Parser) dollarExp() ast.WordPart {
	pos := p.cur.Pos
	p.next()
	name, end := p.bareParamName()
	if name == "" {
		// A lone `$` with nothing recognizable after it is just a
		// literal dollar sign.
		return &ast.Lit{ValuePos: pos, ValueEnd: pos, Value: "$"}
	}
	return &ast.ParamExp{
		Dollar: pos, Rbrace: end, Short: true,
		Param: ast.Lit{ValuePos: pos, ValueEnd: end, Value: name},
	}
}

// bareParamName consumes a short parameter name directly out of the
// current LIT/LITWORD token (a name, positional digit, or special
// parameter character), without brace delimiters.
func (p *Parser) bareParamName() (string, source.Location) {
	s, ok := p.litWord()
	if !ok {
		if p.cur.Tok == token.LIT {
			s = p.cur.Val
		} else {
			return "", p.cur.Pos
		}
	}
	if s == "" {
		return "", p.cur.Pos
	}
	n := 0
	switch c := s[0]; {
	case c >= '0' && c <= '9':
		n = 1
	case isNameStart(c):
		n = 1
		for n < len(s) && isNameCont(s[n]) {
			n++
		}
	case c == '?' || c == '$' || c == '!' || c == '#' || c == '@' || c == '*' || c == '-':
		n = 1
	default:
		return "", p.cur.Pos
	}
	name := s[:n]
	rest := s[n:]
	pos := p.cur.Pos
	if rest == "" {
		p.next()
	} else {
		// Consumed only part of the literal; the remainder continues the
		// surrounding word as a fresh literal in place of the current one.
		p.cur.Val = rest
		p.cur.Tok = litKindFor(rest)
	}
	return name, pos
}

func litKindFor(s string) token.Token {
	for _, c := range s {
		if c == '$' || c == '`' || c == '\'' || c == '"' {
			return token.LIT
		}
	}
	return token.LITWORD
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameCont(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// paramExp parses `${...}`.
func (p *Parser) paramExp() *ast.ParamExp {
	dollar := p.cur.Pos
	p.lx.PushMode(lexer.ParamExpOff)
	p.next()

	pe := &ast.ParamExp{Dollar: dollar}

	if p.cur.Tok == token.HASH {
		lenPos := p.cur.Pos
		p.next()
		if p.cur.Tok == token.RBRACE {
			// `${#}` names the parameter literally called "#" (the
			// count of positional parameters), not a length operator.
			pe.Param = ast.Lit{ValuePos: lenPos, ValueEnd: lenPos, Value: "#"}
		} else {
			pe.Length = true
			p.paramName(pe)
		}
	} else {
		p.paramName(pe)
	}

	if p.cur.Tok != token.RBRACE && !pe.Length {
		p.paramModifier(pe)
	}

	pe.Rbrace = p.cur.Pos
	if !p.gotTok(token.RBRACE) {
		p.errorf("reached %s without a closing brace for parameter expansion", p.cur.Tok)
	}
	p.lx.PopMode()
	p.next()
	return pe
}

func (p *Parser) paramName(pe *ast.ParamExp) {
	pos := p.cur.Pos
	name, ok := p.litWord()
	if !ok {
		p.errorf("parameter expansion requires a name")
		pe.Param = ast.Lit{ValuePos: pos, ValueEnd: pos}
		return
	}
	p.next()
	pe.Param = ast.Lit{ValuePos: pos, ValueEnd: p.cur.Pos, Value: name}
}

var switchOps = map[token.Token]bool{
	token.SUB: true, token.CSUB: true, token.ADD: true, token.CADD: true,
	token.ASSIGN: true, token.CASSIGN: true, token.QUEST: true, token.CQUEST: true,
}

var trimOps = map[token.Token]bool{
	token.HASH: true, token.DHASH: true, token.REM: true, token.DREM: true,
}

func (p *Parser) paramModifier(pe *ast.ParamExp) {
	op := p.cur.Tok
	switch {
	case switchOps[op]:
		p.lx.PushMode(lexer.ParamExpSwitch)
		p.reenterParamBody()
		word := p.wordInParamBody()
		p.lx.PopMode()
		pe.Switch = &ast.Switch{Op: token.ParExpOperator(op), Word: word}
	case trimOps[op]:
		p.lx.PushMode(lexer.ParamExpTrim)
		p.reenterParamBody()
		word := p.wordInParamBody()
		p.lx.PopMode()
		pe.Trim = &ast.Trim{Op: token.ParExpOperator(op), Word: word}
	default:
		p.errorf("unexpected token %s in parameter expansion", op)
	}
}

// reenterParamBody re-reads the current position under the new lexer
// Mode just pushed, since the operator token itself was already
// consumed under the previous mode.
func (p *Parser) reenterParamBody() {
	p.next()
}

// wordInParamBody assembles a word from the parameter-expansion body
// grammar, which recognizes the same expansion starts as a normal word
// plus a plain literal run terminated by the closing brace.
func (p *Parser) wordInParamBody() ast.Word {
	var w ast.Word
	for {
		switch p.cur.Tok {
		case token.RBRACE, token.EOF:
			return w
		case token.LIT, token.LITWORD:
			lit := &ast.Lit{ValuePos: p.cur.Pos, Value: p.cur.Val}
			p.next()
			lit.ValueEnd = p.cur.Pos
			w.Parts = append(w.Parts, lit)
		case token.BQUOTE:
			w.Parts = append(w.Parts, p.cmdSubst(true))
		case token.DOLLAR:
			w.Parts = append(w.Parts, p.dollarExp())
		case token.DOLLBR:
			w.Parts = append(w.Parts, p.paramExp())
		case token.DOLLPR:
			w.Parts = append(w.Parts, p.cmdSubst(false))
		case token.DOLLDP:
			w.Parts = append(w.Parts, p.arithmExpOuter())
		default:
			return w
		}
	}
}

// cmdSubst parses `$(...)` or the backquoted form, switching the lexer
// back to Normal mode to parse a nested statement list.
func (p *Parser) cmdSubst(backquotes bool) *ast.CmdSubst {
	left := p.cur.Pos
	p.lx.PushMode(lexer.Normal)
	p.next()

	stop := token.RPAREN
	if backquotes {
		stop = token.BQUOTE
	}
	stmts := p.stmtListUntil(stop)

	right := p.cur.Pos
	if !p.gotTok(stop) {
		p.errorf("reached %s without a closing %s for command substitution", p.cur.Tok, stop)
	}
	p.lx.PopMode()
	p.next()
	return &ast.CmdSubst{Left: left, Right: right, Backquotes: backquotes, Stmts: stmts}
}

// arithmExpOuter parses `$((...))`. The lexer commits to the `$((`
// token the instant it sees it, even though the text that follows may
// turn out to be a command list rather than an arithmetic expression
// (e.g. `$((cmd; other))`). So this speculatively parses the body as
// arithmetic first; if that fails before the closing `))`, it rewinds
// to the mark taken right after `$((` and reparses the same text as a
// parenthesized command list, i.e. as if it had read `$(` followed by
// an already-open `(`.
func (p *Parser) arithmExpOuter() ast.WordPart {
	left := p.cur.Pos
	hadErr := p.err != nil
	p.lx.PushMode(lexer.Arithm)
	mark := p.lx.Mark()
	save := p.cur
	p.next()
	x := p.arithmExpr(0)
	right := p.cur.Pos
	ok := p.gotTok(token.RPAREN)
	p.lx.PopMode()

	if ok && (hadErr || p.err == nil) {
		p.next()
		return &ast.ArithmExp{Left: left, Right: right, X: x}
	}

	if !hadErr {
		p.err = nil
	}
	p.lx.ClearErr()
	p.lx.Reset(mark)
	p.cur = save
	return p.arithmFallbackCmdSubst(left)
}

// arithmFallbackCmdSubst parses the body of a `$((...))` that failed to
// parse as arithmetic, as the command-substitution form `$( (...) )`
// would: the lexer already consumed both opening parens as the `$((`
// token, so this manually parses one implicit subshell's statements,
// consumes the matching `)` for it, then requires a second `)` to close
// the outer command substitution.
func (p *Parser) arithmFallbackCmdSubst(left source.Location) *ast.CmdSubst {
	p.lx.PushMode(lexer.Normal)
	p.next()

	lparen := left
	stmts := p.stmtListUntil(token.RPAREN)
	rparen := p.cur.Pos
	if !p.gotTok(token.RPAREN) {
		p.errorf("reached %s without a closing %s for arithmetic expansion", p.cur.Tok, token.RPAREN)
	}
	sub := &ast.Subshell{Lparen: lparen, Rparen: rparen, Stmts: stmts}
	subStmt := &ast.Stmt{Position: lparen, EndPos: rparen, Cmd: sub}

	right := p.cur.Pos
	if !p.gotTok(token.RPAREN) {
		p.errorf("reached %s without a closing %s for command substitution", p.cur.Tok, token.RPAREN)
	}
	p.lx.PopMode()
	p.next()
	return &ast.CmdSubst{Left: left, Right: right, Stmts: []*ast.Stmt{subStmt}}
}

// ---- arithmetic expressions: precedence-climbing over token.Token ----

var arithmBinPrec = map[token.Token]int{
	token.COMMA: 1,
	token.ASSIGN: 2, token.ADDASSGN: 2, token.SUBASSGN: 2, token.MULASSGN: 2,
	token.QUOASSGN: 2, token.REMASSGN: 2, token.ANDASSGN: 2, token.ORASSGN: 2,
	token.XORASSGN: 2, token.SHLASSGN: 2, token.SHRASSGN: 2,
	token.LOR: 4, token.LAND: 5,
	token.OR: 6, token.XOR: 7, token.AND: 8,
	token.EQL: 9, token.NEQ: 9,
	token.LSS: 10, token.GTR: 10, token.LEQ: 10, token.GEQ: 10,
	token.SHL: 11, token.SHR: 11,
	token.ADD: 12, token.SUB: 12,
	token.MUL: 13, token.QUO: 13, token.REM: 13,
}

var rightAssoc = map[token.Token]bool{
	token.ASSIGN: true, token.ADDASSGN: true, token.SUBASSGN: true, token.MULASSGN: true,
	token.QUOASSGN: true, token.REMASSGN: true, token.ANDASSGN: true, token.ORASSGN: true,
	token.XORASSGN: true, token.SHLASSGN: true, token.SHRASSGN: true,
}

func (p *Parser) arithmExpr(minPrec int) ast.ArithmExpr {
	x := p.arithmUnary()
	for {
		if p.cur.Tok == token.QUEST {
			if minPrec > 3 {
				return x
			}
			x = p.arithmTernary(x)
			continue
		}
		prec, ok := arithmBinPrec[p.cur.Tok]
		if !ok || prec < minPrec {
			return x
		}
		op := p.cur.Tok
		opPos := p.cur.Pos
		p.next()
		nextMin := prec + 1
		if rightAssoc[op] {
			nextMin = prec
		}
		y := p.arithmExpr(nextMin)
		x = &ast.BinaryArithm{OpPos: opPos, Op: op, X: x, Y: y}
	}
}

func (p *Parser) arithmTernary(cond ast.ArithmExpr) ast.ArithmExpr {
	p.next() // consume ?
	then := p.arithmExpr(4)
	if !p.gotTok(token.COLON) {
		p.errorf("ternary operator missing %s", token.COLON)
	}
	els := p.arithmExpr(3)
	return &ast.TernaryArithm{Cond: cond, Then: then, Else: els}
}

var arithmUnaryOps = map[token.Token]bool{
	token.ADD: true, token.SUB: true, token.NOT: true, token.BNOT: true,
	token.INC: true, token.DEC: true,
}

func (p *Parser) arithmUnary() ast.ArithmExpr {
	if arithmUnaryOps[p.cur.Tok] {
		op := p.cur.Tok
		pos := p.cur.Pos
		p.next()
		x := p.arithmUnary()
		return &ast.UnaryArithm{OpPos: pos, Op: op, X: x}
	}
	x := p.arithmPrimary()
	for p.cur.Tok == token.INC || p.cur.Tok == token.DEC {
		op := p.cur.Tok
		pos := p.cur.Pos
		p.next()
		x = &ast.UnaryArithm{OpPos: pos, EndPos: p.cur.Pos, Op: op, Post: true, X: x}
	}
	return x
}

func (p *Parser) arithmPrimary() ast.ArithmExpr {
	switch p.cur.Tok {
	case token.LPAREN:
		lp := p.cur.Pos
		p.next()
		x := p.arithmExpr(0)
		rp := p.cur.Pos
		if !p.gotTok(token.RPAREN) {
			p.errorf("reached %s without a matching %s", p.cur.Tok, token.RPAREN)
		}
		return &ast.ParenArithm{Lparen: lp, Rparen: rp, X: x}
	case token.LIT, token.LITWORD:
		pos := p.cur.Pos
		val := p.cur.Val
		p.next()
		return &ast.WordArithm{W: ast.Word{Parts: []ast.WordPart{
			&ast.Lit{ValuePos: pos, ValueEnd: p.cur.Pos, Value: val},
		}}}
	case token.DOLLAR:
		return &ast.WordArithm{W: ast.Word{Parts: []ast.WordPart{p.dollarExp()}}}
	case token.DOLLBR:
		return &ast.WordArithm{W: ast.Word{Parts: []ast.WordPart{p.paramExp()}}}
	case token.DOLLPR:
		return &ast.WordArithm{W: ast.Word{Parts: []ast.WordPart{p.cmdSubst(false)}}}
	case token.DOLLDP:
		return &ast.WordArithm{W: ast.Word{Parts: []ast.WordPart{p.arithmExpOuter()}}}
	default:
		p.errorf("unexpected token %s in arithmetic expression", p.cur.Tok)
		pos := p.cur.Pos
		p.next()
		return &ast.WordArithm{W: ast.Word{Parts: []ast.WordPart{&ast.Lit{ValuePos: pos, ValueEnd: pos}}}}
	}
}

// ---- commands ----

// substituteAliases looks up cur's spelling in the glossary right
// before it is used as a command-start word. A hit pushes the
// replacement text as a new Alias source and restarts tokenization
// there. Only when the replacement ends in a blank is the first word
// of the replacement text itself looked up again, and so on; the word
// that follows the alias name in the original input is not
// substituted. The
// lexer's source stack tracks which names have already been
// substituted along the current chain, so an alias whose replacement
// contains its own name doesn't recurse forever.
func (p *Parser) substituteAliases() {
	for p.aliases != nil && p.cur.Tok == token.LITWORD {
		name := p.cur.Val
		if p.lx.WasSubstituted(name) {
			return
		}
		text, ok := p.aliases(name)
		if !ok {
			return
		}
		p.lx.MarkSubstituted(name)
		code := source.NewCode([]byte(text), source.Origin{Kind: source.Alias, Name: name})
		p.lx.PushSource(code)
		p.next()
		if !strings.HasSuffix(text, " ") && !strings.HasSuffix(text, "\t") {
			return
		}
	}
}

// command dispatches to a compound command or a simple command
// depending on the reserved word (if any) at the current position,
// after first giving substituteAliases a chance to rewrite cur.
func (p *Parser) command() ast.Command {
	p.substituteAliases()
	if p.cur.Tok == token.LBRACE {
		return p.block()
	}
	if p.cur.Tok == token.LPAREN {
		return p.subshell()
	}
	if s, ok := p.litWord(); ok {
		switch s {
		case "if":
			return p.ifClause()
		case "while":
			return p.whileClause(false)
		case "until":
			return p.whileClause(true)
		case "for":
			return p.forClause()
		case "case":
			return p.caseClause()
		}
		if fd := p.maybeFuncDecl(); fd != nil {
			return fd
		}
	}
	return p.simpleCommand()
}

// maybeFuncDecl recognizes `name() body`, the POSIX function-definition
// form, without committing the lexer position if it isn't one: only a
// LITWORD immediately followed (no space) by `(` then `)` qualifies.
func (p *Parser) maybeFuncDecl() *ast.FuncDecl {
	name, ok := p.litWord()
	if !ok || !validFuncName(name) {
		return nil
	}
	pos := p.cur.Pos
	savedCur := p.cur
	mark := p.lx.Mark()
	markCode := p.lx.Loc().Code
	p.next()
	if p.cur.Spaced || p.cur.Tok != token.LPAREN {
		if p.lx.Loc().Code != markCode {
			// The lookahead ran off the end of an alias replacement and
			// popped its frame; push it back before rewinding.
			p.lx.PushSource(markCode)
		}
		p.lx.Reset(mark)
		p.cur = savedCur
		return nil
	}
	p.next() // consume (
	if p.cur.Tok != token.RPAREN {
		p.errorf("function definitions require an empty parameter list")
	}
	p.next() // consume )
	body := p.stmt()
	if body == nil {
		p.errorf("function %q must be followed by a body", name)
	}
	return &ast.FuncDecl{
		Position: pos,
		Name:     ast.Lit{ValuePos: pos, ValueEnd: pos, Value: name},
		Body:     body,
	}
}

func validFuncName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameCont(s[i]) {
			return false
		}
	}
	return true
}

func (p *Parser) simpleCommand() *ast.CallExpr {
	var args []ast.Word
	for p.wordPartStart() {
		args = append(args, p.word())
		for {
			if r := p.maybeRedirect(); r != nil {
				// Redirections interleaved among arguments attach to the
				// enclosing Stmt, not the CallExpr; since maybeRedirect
				// already consumed it, stash it for the caller to collect.
				p.interleavedRedirs = append(p.interleavedRedirs, r)
				continue
			}
			break
		}
	}
	if len(args) == 0 {
		return nil
	}
	return &ast.CallExpr{Args: args}
}

func (p *Parser) block() *ast.Block {
	lbrace := p.cur.Pos
	p.next()
	stmts := p.stmtListUntil(token.RBRACE)
	rbrace := p.cur.Pos
	if !p.gotTok(token.RBRACE) {
		p.errorf("reached %s without a closing %s", p.cur.Tok, token.RBRACE)
	}
	return &ast.Block{Lbrace: lbrace, Rbrace: rbrace, Stmts: stmts}
}

func (p *Parser) subshell() *ast.Subshell {
	lparen := p.cur.Pos
	p.lx.PushMode(lexer.Normal)
	p.next()
	stmts := p.stmtListUntil(token.RPAREN)
	rparen := p.cur.Pos
	if p.cur.Tok != token.RPAREN {
		p.errorf("reached %s without a closing %s", p.cur.Tok, token.RPAREN)
	}
	p.lx.PopMode()
	p.next()
	return &ast.Subshell{Lparen: lparen, Rparen: rparen, Stmts: stmts}
}

func (p *Parser) ifClause() *ast.IfClause {
	ifPos := p.cur.Pos
	p.next()
	c := &ast.IfClause{If: ifPos}
	c.CondStmts = p.stmtList("then")
	if !p.gotRsrv("then") {
		p.errorf("%q must be followed by %q", "if", "then")
	}
	c.ThenStmts = p.stmtList("elif", "else", "fi")
	for p.atRsrv("elif") {
		elifPos := p.cur.Pos
		p.next()
		el := &ast.Elif{Elif: elifPos}
		el.CondStmts = p.stmtList("then")
		if !p.gotRsrv("then") {
			p.errorf("%q must be followed by %q", "elif", "then")
		}
		el.ThenStmts = p.stmtList("elif", "else", "fi")
		c.Elifs = append(c.Elifs, el)
	}
	if p.gotRsrv("else") {
		c.ElseStmts = p.stmtList("fi")
	}
	c.Fi = p.cur.Pos
	if !p.gotRsrv("fi") {
		p.errorf("%q statement must end with %q", "if", "fi")
	}
	return c
}

func (p *Parser) whileClause(until bool) *ast.WhileClause {
	kw := p.cur.Pos
	p.next()
	w := &ast.WhileClause{Keyword: kw, Until: until}
	w.CondStmts = p.stmtList("do")
	if !p.gotRsrv("do") {
		name := "while"
		if until {
			name = "until"
		}
		p.errorf("%q must be followed by %q", name, "do")
	}
	w.DoStmts = p.stmtList("done")
	w.Done = p.cur.Pos
	if !p.gotRsrv("done") {
		p.errorf("loop must end with %q", "done")
	}
	return w
}

func (p *Parser) forClause() *ast.ForClause {
	forPos := p.cur.Pos
	p.next()
	f := &ast.ForClause{For: forPos}
	name, ok := p.litWord()
	if !ok || !validFuncName(name) {
		p.errorf("%q must be followed by a name", "for")
	} else {
		namePos := p.cur.Pos
		p.next()
		f.Name = ast.Lit{ValuePos: namePos, ValueEnd: namePos, Value: name}
	}
	p.gotTok(token.SEMICOLON)
	if p.atRsrv("in") {
		f.HasIn = true
		p.next()
		for p.wordPartStart() && !p.cur.NewLine {
			f.Items = append(f.Items, p.word())
		}
		p.gotTok(token.SEMICOLON)
	}
	if !p.gotRsrv("do") {
		p.errorf("%q must be followed by %q", "for", "do")
	}
	f.DoStmts = p.stmtList("done")
	f.Done = p.cur.Pos
	if !p.gotRsrv("done") {
		p.errorf("loop must end with %q", "done")
	}
	return f
}

func (p *Parser) caseClause() *ast.CaseClause {
	casePos := p.cur.Pos
	p.next()
	c := &ast.CaseClause{Case: casePos}
	c.Word = p.word()
	if !p.gotRsrv("in") {
		p.errorf("%q must be followed by %q", "case", "in")
	}
	for !p.stopped() && !p.atRsrv("esac") {
		p.gotTok(token.LPAREN)
		item := &ast.CaseItem{}
		item.Patterns = append(item.Patterns, p.word())
		for p.cur.Tok == token.OR {
			p.next()
			item.Patterns = append(item.Patterns, p.word())
		}
		if !p.gotTok(token.RPAREN) {
			p.errorf("%s must follow the pattern list in a case item", token.RPAREN)
		}
		item.Stmts = p.stmtList("esac")
		item.OpPos = p.cur.Pos
		switch p.cur.Tok {
		case token.DSEMICOLON:
			item.Op = token.CaseOperator(token.DSEMICOLON)
			p.next()
		case token.SEMIFALL:
			item.Op = token.CaseOperator(token.SEMIFALL)
			p.next()
		case token.DSEMIFALL:
			item.Op = token.CaseOperator(token.DSEMIFALL)
			p.next()
		default:
			item.Op = token.CaseOperator(token.DSEMICOLON)
		}
		c.Items = append(c.Items, item)
	}
	c.Esac = p.cur.Pos
	if !p.gotRsrv("esac") {
		p.errorf("%q statement must end with %q", "case", "esac")
	}
	return c
}
