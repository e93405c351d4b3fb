//go:build unix

package system

import (
	"testing"

	"github.com/creack/pty"
)

// TestRealIsTerminal exercises the real backend's IsTerminal against an
// actual pseudo-terminal, since the virtual backend only fakes the bit
// a test sets with SetTerminal.
func TestRealIsTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer ptmx.Close()
	defer tty.Close()

	sys := Real()
	if !sys.IsTerminal(tty.Fd()) {
		t.Fatalf("IsTerminal(tty) = false, want true")
	}
	if sys.IsTerminal(0xdeadbeef) {
		t.Fatalf("IsTerminal(bogus fd) = true, want false")
	}
}
