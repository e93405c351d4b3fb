package interp_test

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

func run(t *testing.T, src string) (stdout, stderr string, status interp.ExitStatus) {
	t.Helper()
	sh, out, errOut := newShell(t)
	status = sh.RunString(context.Background(), src, "test")
	return out.String(), errOut.String(), status
}

func TestSimpleCommand(t *testing.T) {
	out, _, status := run(t, "echo hello world")
	if out != "hello world\n" {
		t.Errorf("stdout = %q, want %q", out, "hello world\n")
	}
	if !status.Success() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestExitStatus(t *testing.T) {
	_, _, status := run(t, "false")
	if status.Code() != 1 {
		t.Errorf("status.Code() = %d, want 1", status.Code())
	}
}

func TestPipeline(t *testing.T) {
	out, _, status := run(t, `echo hi | { read x; echo "got $x"; }`)
	if out != "got hi\n" {
		t.Errorf("stdout = %q, want %q", out, "got hi\n")
	}
	if !status.Success() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestAndOr(t *testing.T) {
	out, _, status := run(t, "true && echo yes || echo no")
	if out != "yes\n" {
		t.Errorf("stdout = %q, want %q", out, "yes\n")
	}
	if !status.Success() {
		t.Errorf("status = %v, want success", status)
	}

	out, _, status = run(t, "false && echo yes || echo no")
	if out != "no\n" {
		t.Errorf("stdout = %q, want %q", out, "no\n")
	}
	if !status.Success() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestIfClause(t *testing.T) {
	out, _, _ := run(t, "if true; then echo then-branch; else echo else-branch; fi")
	if out != "then-branch\n" {
		t.Errorf("stdout = %q, want %q", out, "then-branch\n")
	}

	out, _, _ = run(t, "if false; then echo then-branch; else echo else-branch; fi")
	if out != "else-branch\n" {
		t.Errorf("stdout = %q, want %q", out, "else-branch\n")
	}
}

func TestForLoop(t *testing.T) {
	out, _, _ := run(t, `for x in a b c; do echo "$x"; done`)
	if out != "a\nb\nc\n" {
		t.Errorf("stdout = %q, want %q", out, "a\nb\nc\n")
	}
}

func TestVariableExpansion(t *testing.T) {
	out, _, _ := run(t, `x=hello; echo "$x world"`)
	if out != "hello world\n" {
		t.Errorf("stdout = %q, want %q", out, "hello world\n")
	}
}

func TestPositionalAt(t *testing.T) {
	sh, out, _ := newShell(t)
	sh.Runner.Env.Positional = nil
	status := sh.RunString(context.Background(), `for a in "$@"; do echo "$a"; done`, "test")
	if !status.Success() {
		t.Fatalf("status = %v, want success", status)
	}
	if out.String() != "" {
		t.Errorf(`"$@" with no positional parameters produced output %q, want none`, out.String())
	}
}

func TestXtrace(t *testing.T) {
	out, errOut, _ := run(t, "set -x; echo hi")
	if out != "hi\n" {
		t.Errorf("stdout = %q, want %q", out, "hi\n")
	}
	if !strings.Contains(errOut, "+ echo hi") {
		t.Errorf("stderr = %q, want it to contain %q", errOut, "+ echo hi")
	}
}

func TestCaseClause(t *testing.T) {
	out, _, _ := run(t, "x=b; case $x in a) echo A ;; b|c) echo BC ;; *) echo other ;; esac")
	if out != "BC\n" {
		t.Errorf("stdout = %q, want %q", out, "BC\n")
	}
}

func TestSubshellIsolatesVariables(t *testing.T) {
	out, _, _ := run(t, `x=outer; (x=inner); echo "$x"`)
	if out != "outer\n" {
		t.Errorf("stdout = %q, want %q", out, "outer\n")
	}
}

func TestTrapPrintsParentMapInUntouchedSubshell(t *testing.T) {
	out, _, status := run(t, `trap 'echo bye' EXIT; ( trap -p )`)
	want := "trap -- \"echo bye\" EXIT\nbye\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
	if !status.Success() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestTrapSubshellOverrideHidesParentMap(t *testing.T) {
	out, _, status := run(t, `trap 'echo bye' EXIT; ( trap 'echo subshell' EXIT; trap -p )`)
	want := "trap -- \"echo subshell\" EXIT\nbye\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
	if !status.Success() {
		t.Errorf("status = %v, want success", status)
	}
}

func TestSpecialParameters(t *testing.T) {
	sh, out, _ := newShell(t)
	sh.Runner.Env.ShellPid = 4242
	sh.Runner.Env.Name = "goyash"
	status := sh.RunString(context.Background(), `false; echo "$? $0"`, "test")
	if !status.Success() {
		t.Fatalf("status = %v, want success", status)
	}
	if out.String() != "1 goyash\n" {
		t.Errorf("stdout = %q, want %q", out.String(), "1 goyash\n")
	}
}

func TestCdExitStatuses(t *testing.T) {
	sh, _, _ := newShell(t)
	sh.Runner.Env.Unset("HOME")
	if status := sh.RunString(context.Background(), "cd", "test"); status.Code() != 4 {
		t.Errorf("cd with no $HOME: status = %d, want 4", status.Code())
	}

	sh, _, _ = newShell(t)
	if status := sh.RunString(context.Background(), "cd -", "test"); status.Code() != 4 {
		t.Errorf("cd - with no $OLDPWD: status = %d, want 4", status.Code())
	}

	sh, _, _ = newShell(t)
	if status := sh.RunString(context.Background(), "cd /does/not/exist", "test"); status.Code() != 2 {
		t.Errorf("cd into a missing directory: status = %d, want 2", status.Code())
	}

	sh, _, _ = newShell(t)
	if status := sh.RunString(context.Background(), "cd /does/not/../exist", "test"); status.Code() != 3 {
		t.Errorf("cd through a missing \"..\" parent: status = %d, want 3", status.Code())
	}
}

func TestCommandDashV(t *testing.T) {
	out, _, status := run(t, "command -v echo")
	if !status.Success() {
		t.Fatalf("status = %v, want success", status)
	}
	if out != "echo\n" {
		t.Errorf("stdout = %q, want %q", out, "echo\n")
	}

	_, _, status = run(t, "command -v does-not-exist")
	if status.Success() {
		t.Error("command -v of an unresolvable name should fail")
	}
}
