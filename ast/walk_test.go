package ast

import (
	"testing"

	"goyash.dev/goyash/source"
)

func TestWalkVisitsEveryStmt(t *testing.T) {
	lit := func(v string) Word { return Word{Parts: []WordPart{&Lit{Value: v}}} }

	file := &File{Stmts: []*Stmt{
		{Cmd: &CallExpr{Args: []Word{lit("echo"), lit("a")}}},
		{Cmd: &CallExpr{Args: []Word{lit("echo"), lit("b")}}},
	}}

	var stmts int
	var calls int
	var v Visitor
	v = walkerFunc(func(n Node) Visitor {
		switch n.(type) {
		case *Stmt:
			stmts++
		case *CallExpr:
			calls++
		}
		return v
	})
	Walk(v, file)

	if stmts != 2 {
		t.Errorf("visited %d *Stmt nodes, want 2", stmts)
	}
	if calls != 2 {
		t.Errorf("visited %d *CallExpr nodes, want 2", calls)
	}
}

// walkerFunc adapts a plain function to the Visitor interface.
type walkerFunc func(Node) Visitor

func (f walkerFunc) Visit(n Node) Visitor { return f(n) }

func TestWordPos(t *testing.T) {
	code := source.NewCode([]byte("echo"), source.Origin{Kind: source.Stdin})
	lit := &Lit{ValuePos: source.Location{Code: code, Offset: 0}, ValueEnd: source.Location{Code: code, Offset: 4}, Value: "echo"}
	w := Word{Parts: []WordPart{lit}}

	if w.Pos() != lit.ValuePos {
		t.Errorf("Word.Pos() = %v, want %v", w.Pos(), lit.ValuePos)
	}

	var empty Word
	if empty.Pos() != (source.Location{}) {
		t.Errorf("empty Word.Pos() = %v, want zero Location", empty.Pos())
	}
}
