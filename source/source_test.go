package source

import "testing"

func TestCodePosition(t *testing.T) {
	code := NewCode([]byte("abc\ndef\nghi"), Origin{Kind: File, Path: "t.sh"})
	code.NoteLine(4)
	code.NoteLine(8)

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 1, 1},
		{3, 1, 4},
		{4, 2, 1},
		{7, 2, 4},
		{8, 3, 1},
		{10, 3, 3},
	}
	for _, tt := range tests {
		p := code.Position(tt.offset)
		if p.Line != tt.line || p.Column != tt.col {
			t.Errorf("Position(%d) = {Line:%d Column:%d}, want {Line:%d Column:%d}",
				tt.offset, p.Line, p.Column, tt.line, tt.col)
		}
	}
}

func TestLocationString(t *testing.T) {
	code := NewCode([]byte("echo\nhi\n"), Origin{Kind: File, Path: "script.sh"})
	code.NoteLine(5)
	loc := Location{Code: code, Offset: 5}
	if got, want := loc.String(), "script.sh:2:1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	var zero Location
	if got, want := zero.String(), "<unknown>"; got != want {
		t.Errorf("String() of zero Location = %q, want %q", got, want)
	}
}

func TestLocationStringFallsBackToKind(t *testing.T) {
	code := NewCode([]byte("x"), Origin{Kind: Eval})
	loc := Location{Code: code, Offset: 0}
	if got, want := loc.String(), "eval:1:1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStackPushPop(t *testing.T) {
	root := NewCode([]byte("root"), Origin{Kind: Stdin})
	s := NewStack(root)
	if s.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", s.Depth())
	}

	s.Advance(2)
	if _, pos := s.Current(); pos != 2 {
		t.Fatalf("Current() pos = %d, want 2", pos)
	}

	alias := NewCode([]byte("ll"), Origin{Kind: Alias, Name: "ll"})
	s.Push(alias)
	if s.Depth() != 2 {
		t.Fatalf("Depth() after Push = %d, want 2", s.Depth())
	}
	code, pos := s.Current()
	if code != alias || pos != 0 {
		t.Fatalf("Current() after Push = (%v, %d), want (alias, 0)", code, pos)
	}

	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("Depth() after Pop = %d, want 1", s.Depth())
	}
	code, pos = s.Current()
	if code != root || pos != 2 {
		t.Fatalf("Current() after Pop = (%v, %d), want (root, 2)", code, pos)
	}

	// Popping the last frame is a no-op.
	s.Pop()
	if s.Depth() != 1 {
		t.Errorf("Depth() after popping root = %d, want 1 (root never pops)", s.Depth())
	}
}

func TestStackAliasRecursionGuard(t *testing.T) {
	root := NewCode([]byte(""), Origin{Kind: Stdin})
	s := NewStack(root)
	s.MarkSubstituted("ll")

	alias := NewCode([]byte("ls -l"), Origin{Kind: Alias, Name: "ll"})
	s.Push(alias)

	if !s.WasSubstituted("ll") {
		t.Error("WasSubstituted(\"ll\") = false, want true across the alias frame chain")
	}
	if s.WasSubstituted("other") {
		t.Error("WasSubstituted(\"other\") = true, want false")
	}
}

func TestAtEOF(t *testing.T) {
	code := NewCode([]byte("ab"), Origin{Kind: Stdin})
	s := NewStack(code)
	if s.AtEOF() {
		t.Fatal("AtEOF() = true at start, want false")
	}
	s.Advance(2)
	if !s.AtEOF() {
		t.Error("AtEOF() = false after consuming all bytes, want true")
	}
}
