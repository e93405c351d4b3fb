package parser_test

import (
	"strings"
	"testing"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/parser"
	"goyash.dev/goyash/source"
)

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	code := source.NewCode([]byte(src), source.Origin{Kind: source.Stdin})
	file, err := parser.Parse(source.NewStack(code), "test", nil)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return file
}

func firstCall(t *testing.T, file *ast.File) *ast.CallExpr {
	t.Helper()
	if len(file.Stmts) == 0 {
		t.Fatal("no statements parsed")
	}
	call, ok := file.Stmts[0].Cmd.(*ast.CallExpr)
	if !ok {
		t.Fatalf("first statement's Cmd is %T, want *ast.CallExpr", file.Stmts[0].Cmd)
	}
	return call
}

func TestParseSimpleCommand(t *testing.T) {
	file := mustParse(t, "echo foo bar\n")
	call := firstCall(t, file)
	if len(call.Args) != 3 {
		t.Fatalf("got %d args, want 3", len(call.Args))
	}
	for i, want := range []string{"echo", "foo", "bar"} {
		if got := call.Args[i].Lit(); got != want {
			t.Errorf("arg %d = %q, want %q", i, got, want)
		}
	}
}

func TestParseUnterminatedStringIsError(t *testing.T) {
	code := source.NewCode([]byte(`echo "unterminated`), source.Origin{Kind: source.Stdin})
	_, err := parser.Parse(source.NewStack(code), "test", nil)
	if err == nil {
		t.Fatal("Parse of an unterminated double-quoted string succeeded, want an error")
	}
}

func TestParseUnterminatedIfIsError(t *testing.T) {
	code := source.NewCode([]byte("if true; then echo a\n"), source.Origin{Kind: source.Stdin})
	_, err := parser.Parse(source.NewStack(code), "test", nil)
	if err == nil {
		t.Fatal("Parse of an if clause missing \"fi\" succeeded, want an error")
	}
}

func TestParseAliasSubstitution(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "ll" {
			return "ls -l", true
		}
		return "", false
	}
	code := source.NewCode([]byte("ll /tmp\n"), source.Origin{Kind: source.Stdin})
	file, err := parser.Parse(source.NewStack(code), "test", lookup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call := firstCall(t, file)
	var words []string
	for _, w := range call.Args {
		words = append(words, w.Lit())
	}
	if got, want := strings.Join(words, " "), "ls -l /tmp"; got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestParseAliasRecursionGuard(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "ll" {
			return "ll -extra", true
		}
		return "", false
	}
	code := source.NewCode([]byte("ll\n"), source.Origin{Kind: source.Stdin})
	file, err := parser.Parse(source.NewStack(code), "test", lookup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call := firstCall(t, file)
	var words []string
	for _, w := range call.Args {
		words = append(words, w.Lit())
	}
	got := strings.Join(words, " ")
	if got != "ll -extra" {
		t.Errorf("args = %q, want %q (the second \"ll\" must not re-expand)", got, "ll -extra")
	}
}

func TestParseForWithoutInList(t *testing.T) {
	file := mustParse(t, "for f; do echo \"$f\"; done\n")
	clause, ok := file.Stmts[0].Cmd.(*ast.ForClause)
	if !ok {
		t.Fatalf("Cmd is %T, want *ast.ForClause", file.Stmts[0].Cmd)
	}
	if clause.HasIn {
		t.Error("HasIn = true for \"for f; do ...\", want false")
	}
}

func TestParseCaseClauseAlternatives(t *testing.T) {
	file := mustParse(t, "case $x in a|b) echo ab ;; *) echo other ;; esac\n")
	clause, ok := file.Stmts[0].Cmd.(*ast.CaseClause)
	if !ok {
		t.Fatalf("Cmd is %T, want *ast.CaseClause", file.Stmts[0].Cmd)
	}
	if len(clause.Items) != 2 {
		t.Fatalf("got %d case items, want 2", len(clause.Items))
	}
	if len(clause.Items[0].Patterns) != 2 {
		t.Errorf("first case item has %d patterns, want 2 (a|b)", len(clause.Items[0].Patterns))
	}
}

func TestParseBinaryCmdNesting(t *testing.T) {
	file := mustParse(t, "foo && bar || baz\n")
	top, ok := file.Stmts[0].Cmd.(*ast.BinaryCmd)
	if !ok {
		t.Fatalf("Cmd is %T, want *ast.BinaryCmd", file.Stmts[0].Cmd)
	}
	if top.Y == nil || top.X == nil {
		t.Fatal("BinaryCmd missing X or Y")
	}
}
