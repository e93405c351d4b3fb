package printer_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"goyash.dev/goyash/ast"
	"goyash.dev/goyash/parser"
	"goyash.dev/goyash/printer"
	"goyash.dev/goyash/source"
)

// ignorePositions treats every source.Location as equal to every other,
// since the whole point of this comparison is that the reprinted source
// is semantically equivalent, not byte-for-byte identical: it never
// occupies the same offsets as the original.
var ignorePositions = cmp.Comparer(func(a, b source.Location) bool { return true })

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	code := source.NewCode([]byte(src), source.Origin{Kind: source.Eval, Name: "test"})
	stack := source.NewStack(code)
	file, err := parser.Parse(stack, "test", nil)
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	return file
}

// TestRoundTrip checks the parse-print-reparse equivalence property: a
// program printed back to text and parsed again must yield a tree with
// the same shape and literal values, independent of source positions.
func TestRoundTrip(t *testing.T) {
	tests := []string{
		"echo foo bar\n",
		"echo \"$foo\" 'bar'\n",
		"a=1 b=2 cmd\n",
		"foo | bar | baz\n",
		"foo && bar || baz\n",
		"if true; then echo a; elif false; then echo b; else echo c; fi\n",
		"while read line; do echo \"$line\"; done\n",
		"until false; do echo x; done\n",
		"for f in a b c; do echo \"$f\"; done\n",
		"for f; do echo \"$f\"; done\n",
		"case $x in a) echo a ;; b|c) echo bc ;; *) echo other ;; esac\n",
		"(echo sub)\n",
		"{ echo block; }\n",
		"foo() { echo body; }\n",
		"echo $((1 + 2 * 3))\n",
		"cmd > out 2>&1 < in\n",
		"cmd <<EOF\nhello\nEOF\n",
	}

	for _, src := range tests {
		src := src
		t.Run(src, func(t *testing.T) {
			first := parse(t, src)

			var buf strings.Builder
			if err := printer.Fprint(&buf, first); err != nil {
				t.Fatalf("Fprint: %v", err)
			}

			second := parse(t, buf.String())

			if diff := cmp.Diff(first, second, ignorePositions); diff != "" {
				t.Errorf("re-parsed tree differs after printing (-first +second):\n%s\nprinted source:\n%s", diff, buf.String())
			}
		})
	}
}
