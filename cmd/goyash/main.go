// goyash is a POSIX-style shell built on top of the interp package.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"goyash.dev/goyash/expand"
	"goyash.dev/goyash/fileutil"
	"goyash.dev/goyash/interp"
	"goyash.dev/goyash/shell"
	"goyash.dev/goyash/system"
)

var command = flag.String("c", "", "command to be executed")

func main() {
	os.Exit(main1())
}

// main1 returns the process exit code rather than calling os.Exit
// directly, so that testscript.RunMain can invoke it as a subcommand
// of the test binary.
func main1() int {
	flag.Parse()
	return int(runAll().Code())
}

func runAll() interp.ExitStatus {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := newEnvironment()
	sh := shell.New(env, os.Stdin, os.Stdout, os.Stderr)

	if *command != "" {
		return sh.RunString(ctx, *command, "")
	}
	if flag.NArg() == 0 {
		if shell.IsTerminal(env, os.Stdin) {
			if err := sh.RunInteractive(ctx, os.Stdin, os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return interp.NewExitStatus(1)
			}
			return env.LastStatus
		}
		return sh.RunReader(ctx, os.Stdin, "")
	}
	for _, path := range flag.Args() {
		if status := runPath(ctx, sh, path); !status.Success() {
			return status
		}
	}
	return env.LastStatus
}

func runPath(ctx context.Context, sh *shell.Shell, path string) interp.ExitStatus {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return interp.NewExitStatus(1)
	}
	defer f.Close()

	head := make([]byte, 256)
	n, _ := f.Read(head)
	if shellName := fileutil.Shebang(head[:n]); shellName != "" && shellName != "sh" {
		fmt.Fprintf(os.Stderr, "%s: warning: script declares #!%s, running as a POSIX shell anyway\n", path, shellName)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return interp.NewExitStatus(1)
	}
	return sh.RunReader(ctx, f, path)
}

// newEnvironment builds a top-level Environment seeded from the
// process's own environment variables and working directory, the
// starting state every other shell in this process tree inherits.
func newEnvironment() *interp.Environment {
	sys := system.Real()
	env := interp.NewEnvironment(sys)
	env.ShellPid = os.Getpid()
	env.Name = "goyash"

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env.Set(name, expand.Variable{Set: true, Exported: true, Str: value})
	}

	if wd, err := os.Getwd(); err == nil {
		env.Dir = wd
		env.Set("PWD", expand.Variable{Set: true, Exported: true, Str: wd})
	}
	return env
}
