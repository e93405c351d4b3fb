// Package system abstracts the operating-system primitives the
// interpreter needs: file access, process execution, and the
// terminal/process-group calls job control depends on. Two
// implementations exist: a real one backed by the OS, and a virtual
// one backed by in-memory state, so the interpreter and its tests
// never need a real kernel to exercise job control or redirections.
package system

import (
	"context"
	"io"
	"io/fs"
)

// File is what Open returns: a handle a redirection can read from,
// write to, and eventually close.
type File interface {
	io.Reader
	io.Writer
	io.Closer
}

// Signal identifies a POSIX signal by its portable name, not its
// platform-specific number, so callers never need a build-tagged
// signal table of their own.
type Signal string

const (
	SIGINT  Signal = "INT"
	SIGTERM Signal = "TERM"
	SIGKILL Signal = "KILL"
	SIGHUP  Signal = "HUP"
	SIGQUIT Signal = "QUIT"
	SIGSTOP Signal = "STOP"
	SIGCONT Signal = "CONT"
	SIGTSTP Signal = "TSTP"
	SIGTTIN Signal = "TTIN"
	SIGTTOU Signal = "TTOU"
	SIGCHLD Signal = "CHLD"
	SIGUSR1 Signal = "USR1"
	SIGUSR2 Signal = "USR2"
	SIGPIPE Signal = "PIPE"
	SIGALRM Signal = "ALRM"
)

// WaitStatus reports how a process ended: a plain exit code, or
// termination/stop by a signal.
type WaitStatus struct {
	Exited   bool
	ExitCode int
	Signaled bool
	Signal   Signal
	Stopped  bool
}

// ProcAttr describes a process to start.
type ProcAttr struct {
	Path       string
	Args       []string
	Env        []string
	Dir        string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	// Foreground, when true, puts the new process in its own process
	// group and (if the controlling terminal is known) hands it the
	// terminal via Tcsetpgrp, the way an interactive shell starts a
	// foreground pipeline.
	Foreground bool
	// Pgid joins an existing process group instead of starting a new
	// one; used to put every stage of a pipeline in the same group.
	Pgid int
}

// Process is a started, possibly still-running child process.
type Process interface {
	Pid() int
	Wait() (WaitStatus, error)
	Signal(sig Signal) error
}

// System is the full set of OS primitives the interpreter and its
// job-control layer need. Every blocking call takes a context so the
// interpreter can cancel it.
type System interface {
	// Filesystem
	Open(ctx context.Context, path string, flag int, perm fs.FileMode) (File, error)
	Stat(ctx context.Context, path string, followSymlinks bool) (fs.FileInfo, error)
	ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error)
	Mkfifo(path string, mode fs.FileMode) error
	Remove(path string) error
	Getwd() (string, error)

	// Users, for tilde expansion and the -O/-G test operators.
	UserHomeDir(username string) (string, error)
	CurrentUser() (uid, gid int, home string, err error)

	// Process execution.
	StartProcess(ctx context.Context, attr ProcAttr) (Process, error)

	// Terminal and process-group control, used by job control.
	IsTerminal(fd uintptr) bool
	Tcgetpgrp(fd uintptr) (int, error)
	Tcsetpgrp(fd uintptr, pgid int) error
	Setpgid(pid, pgid int) error
	Getpgid(pid int) (int, error)
	SignalProcess(pid int, sig Signal) error
	SignalGroup(pgid int, sig Signal) error
}
