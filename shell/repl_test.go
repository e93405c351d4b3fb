package shell_test

import (
	"context"
	"strings"
	"testing"

	"goyash.dev/goyash/expand"
	"goyash.dev/goyash/interp"
	"goyash.dev/goyash/shell"
	"goyash.dev/goyash/system"
)

func newShell(t *testing.T) (*shell.Shell, *strings.Builder, *strings.Builder) {
	t.Helper()
	sys := system.NewVirtual()
	env := interp.NewEnvironment(sys)
	env.Dir = "/"
	env.Set("PATH", expand.Variable{Set: true, Exported: true, Str: "/bin"})
	var stdout, stderr strings.Builder
	sh := shell.New(env, strings.NewReader(""), &stdout, &stderr)
	return sh, &stdout, &stderr
}

func TestRunReader(t *testing.T) {
	sh, out, _ := newShell(t)
	status := sh.RunReader(context.Background(), strings.NewReader("echo one\necho two\n"), "script")
	if !status.Success() {
		t.Fatalf("status = %v, want success", status)
	}
	if out.String() != "one\ntwo\n" {
		t.Errorf("stdout = %q, want %q", out.String(), "one\ntwo\n")
	}
}

func TestRunInteractivePromptsAndRuns(t *testing.T) {
	sh, out, _ := newShell(t)
	err := sh.RunInteractive(context.Background(), strings.NewReader("echo hi\n"), out)
	if err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if !strings.Contains(out.String(), "$ ") {
		t.Errorf("output %q missing PS1 prompt", out.String())
	}
	if !strings.Contains(out.String(), "hi\n") {
		t.Errorf("output %q missing command output", out.String())
	}
}

func TestRunInteractiveContinuesOnOpenQuote(t *testing.T) {
	sh, out, _ := newShell(t)
	input := "echo \"hello\nworld\"\n"
	err := sh.RunInteractive(context.Background(), strings.NewReader(input), out)
	if err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if !strings.Contains(out.String(), "> ") {
		t.Errorf("output %q missing PS2 continuation prompt", out.String())
	}
	if !strings.Contains(out.String(), "hello\nworld\n") {
		t.Errorf("output %q missing joined command output", out.String())
	}
}

func TestRunInteractiveRunsExitTrapOnEOF(t *testing.T) {
	sh, out, _ := newShell(t)
	input := "trap 'echo bye' EXIT\necho hi\n"
	err := sh.RunInteractive(context.Background(), strings.NewReader(input), out)
	if err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if !strings.HasSuffix(out.String(), "bye\n") {
		t.Errorf("output %q should end with the EXIT trap's output", out.String())
	}
}
