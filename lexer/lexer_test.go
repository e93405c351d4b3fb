package lexer_test

import (
	"testing"

	"goyash.dev/goyash/lexer"
	"goyash.dev/goyash/source"
	"goyash.dev/goyash/token"
)

func newLexer(src string) *lexer.Lexer {
	code := source.NewCode([]byte(src), source.Origin{Kind: source.Stdin})
	return lexer.New(source.NewStack(code))
}

func lexAll(l *lexer.Lexer) []lexer.Lexeme {
	var out []lexer.Lexeme
	for {
		lx := l.Next()
		out = append(out, lx)
		if lx.Tok == token.EOF {
			return out
		}
	}
}

func TestLexWordsAndOperators(t *testing.T) {
	lxs := lexAll(newLexer("echo foo | bar && baz\n"))

	want := []token.Token{
		token.LITWORD, token.LITWORD, token.OR, token.LITWORD,
		token.LAND, token.LITWORD, token.EOF,
	}
	if len(lxs) != len(want) {
		t.Fatalf("got %d lexemes, want %d: %+v", len(lxs), len(want), lxs)
	}
	for i, lx := range lxs {
		if lx.Tok != want[i] {
			t.Errorf("lexeme %d: tok = %v, want %v", i, lx.Tok, want[i])
		}
	}

	if got, want := lxs[0].Val, "echo"; got != want {
		t.Errorf("lexeme 0: Val = %q, want %q", got, want)
	}
	if got, want := lxs[1].Val, "foo"; got != want {
		t.Errorf("lexeme 1: Val = %q, want %q", got, want)
	}
}

func TestLexCommentSkipped(t *testing.T) {
	lxs := lexAll(newLexer("echo hi # trailing comment\n"))
	if len(lxs) != 3 {
		t.Fatalf("got %d lexemes, want 3 (echo, hi, EOF): %+v", len(lxs), lxs)
	}
	if lxs[2].Tok != token.EOF {
		t.Errorf("last lexeme = %v, want EOF", lxs[2].Tok)
	}
}

func TestLexSpacedAndNewLine(t *testing.T) {
	lxs := lexAll(newLexer("echo\nfoo bar"))
	// echo, foo, bar, EOF
	if len(lxs) != 4 {
		t.Fatalf("got %d lexemes, want 4: %+v", len(lxs), lxs)
	}
	if !lxs[1].NewLine {
		t.Error("lexeme for \"foo\" should have NewLine set, a newline preceded it")
	}
	if !lxs[2].Spaced {
		t.Error("lexeme for \"bar\" should have Spaced set, a blank preceded it")
	}
	if lxs[2].NewLine {
		t.Error("lexeme for \"bar\" should not have NewLine set, no newline directly preceded it")
	}
}

func TestLexRedirectOperators(t *testing.T) {
	lxs := lexAll(newLexer("cmd >out 2>&1 <in <<EOF"))
	var got []token.Token
	for _, lx := range lxs {
		got = append(got, lx.Tok)
	}
	want := []token.Token{
		token.LITWORD, token.GTR, token.LITWORD,
		token.LITWORD, token.DPLOUT, token.LITWORD,
		token.LSS, token.LITWORD,
		token.SHL,
	}
	if len(got) < len(want) {
		t.Fatalf("got %d lexemes, want at least %d: %+v", len(got), len(want), got)
	}
	for i, tok := range want {
		if got[i] != tok {
			t.Errorf("lexeme %d: tok = %v, want %v", i, got[i], tok)
		}
	}
}

func TestLexDoubleSemicolonAndFallthrough(t *testing.T) {
	lxs := lexAll(newLexer(";; ;& ;;&"))
	want := []token.Token{token.DSEMICOLON, token.SEMIFALL, token.DSEMIFALL, token.EOF}
	if len(lxs) != len(want) {
		t.Fatalf("got %d lexemes, want %d: %+v", len(lxs), len(want), lxs)
	}
	for i, lx := range lxs {
		if lx.Tok != want[i] {
			t.Errorf("lexeme %d: tok = %v, want %v", i, lx.Tok, want[i])
		}
	}
}

func TestLexSingleQuoted(t *testing.T) {
	l := newLexer("'hello world'")
	first := l.Next()
	if first.Tok != token.SQUOTE {
		t.Fatalf("first token = %v, want SQUOTE", first.Tok)
	}
	l.PushMode(lexer.SingleQuoted)
	body := l.Next()
	if body.Val != "hello world" {
		t.Errorf("quoted body = %q, want %q", body.Val, "hello world")
	}
}

func TestMarkReset(t *testing.T) {
	l := newLexer("foo bar")
	mark := l.Mark()
	first := l.Next()
	if first.Val != "foo" {
		t.Fatalf("first = %q, want foo", first.Val)
	}
	l.Reset(mark)
	again := l.Next()
	if again.Val != "foo" {
		t.Errorf("after Reset, Next() = %q, want foo again", again.Val)
	}
}
