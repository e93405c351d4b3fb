//go:build unix

package system

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Real returns the System backed by the actual operating system.
func Real() System { return realSystem{} }

type realSystem struct{}

func (realSystem) Open(_ context.Context, path string, flag int, perm fs.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (realSystem) Stat(_ context.Context, path string, followSymlinks bool) (fs.FileInfo, error) {
	if followSymlinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func (realSystem) ReadDir(_ context.Context, path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (realSystem) Mkfifo(path string, mode fs.FileMode) error {
	return unix.Mkfifo(path, uint32(mode))
}

func (realSystem) Remove(path string) error { return os.Remove(path) }

func (realSystem) Getwd() (string, error) { return os.Getwd() }

func (realSystem) UserHomeDir(username string) (string, error) {
	if username == "" {
		u, err := user.Current()
		if err != nil {
			return "", err
		}
		return u.HomeDir, nil
	}
	u, err := user.Lookup(username)
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

func (realSystem) CurrentUser() (uid, gid int, home string, err error) {
	u, err := user.Current()
	if err != nil {
		return 0, 0, "", err
	}
	uid, _ = strconv.Atoi(u.Uid)
	gid, _ = strconv.Atoi(u.Gid)
	return uid, gid, u.HomeDir, nil
}

func signum(sig Signal) syscall.Signal {
	switch sig {
	case SIGINT:
		return syscall.SIGINT
	case SIGTERM:
		return syscall.SIGTERM
	case SIGKILL:
		return syscall.SIGKILL
	case SIGHUP:
		return syscall.SIGHUP
	case SIGQUIT:
		return syscall.SIGQUIT
	case SIGSTOP:
		return syscall.SIGSTOP
	case SIGCONT:
		return syscall.SIGCONT
	case SIGTSTP:
		return syscall.SIGTSTP
	case SIGTTIN:
		return syscall.SIGTTIN
	case SIGTTOU:
		return syscall.SIGTTOU
	case SIGCHLD:
		return syscall.SIGCHLD
	case SIGUSR1:
		return syscall.SIGUSR1
	case SIGUSR2:
		return syscall.SIGUSR2
	case SIGPIPE:
		return syscall.SIGPIPE
	case SIGALRM:
		return syscall.SIGALRM
	default:
		return syscall.SIGTERM
	}
}

func signame(s syscall.Signal) Signal {
	switch s {
	case syscall.SIGINT:
		return SIGINT
	case syscall.SIGTERM:
		return SIGTERM
	case syscall.SIGKILL:
		return SIGKILL
	case syscall.SIGHUP:
		return SIGHUP
	case syscall.SIGQUIT:
		return SIGQUIT
	case syscall.SIGSTOP:
		return SIGSTOP
	case syscall.SIGCONT:
		return SIGCONT
	case syscall.SIGTSTP:
		return SIGTSTP
	case syscall.SIGTTIN:
		return SIGTTIN
	case syscall.SIGTTOU:
		return SIGTTOU
	case syscall.SIGCHLD:
		return SIGCHLD
	case syscall.SIGUSR1:
		return SIGUSR1
	case syscall.SIGUSR2:
		return SIGUSR2
	case syscall.SIGPIPE:
		return SIGPIPE
	case syscall.SIGALRM:
		return SIGALRM
	default:
		return Signal(s.String())
	}
}

type realProcess struct{ cmd *exec.Cmd }

func (p *realProcess) Pid() int { return p.cmd.Process.Pid }

func (p *realProcess) Wait() (WaitStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return WaitStatus{Exited: true, ExitCode: 0}, nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return WaitStatus{}, err
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return WaitStatus{Exited: true, ExitCode: exitErr.ExitCode()}, nil
	}
	if status.Signaled() {
		return WaitStatus{Signaled: true, Signal: signame(status.Signal())}, nil
	}
	return WaitStatus{Exited: true, ExitCode: status.ExitStatus()}, nil
}

func (p *realProcess) Signal(sig Signal) error {
	return syscall.Kill(-p.cmd.Process.Pid, signum(sig))
}

// StartProcess starts a child process, optionally in its own process
// group, and hands it the controlling terminal when it is meant to
// run in the foreground — the same two-step dance
// setpgid-then-tcsetpgrp an interactive shell performs before waiting
// on a foreground pipeline.
func (s realSystem) StartProcess(ctx context.Context, attr ProcAttr) (Process, error) {
	cmd := exec.CommandContext(ctx, attr.Path, attr.Args[1:]...)
	cmd.Args = attr.Args
	cmd.Env = attr.Env
	cmd.Dir = attr.Dir
	cmd.Stdin = attr.Stdin
	cmd.Stdout = attr.Stdout
	cmd.Stderr = attr.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: attr.Foreground || attr.Pgid != 0,
		Pgid:    attr.Pgid,
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	if attr.Foreground {
		pgid := cmd.Process.Pid
		if attr.Pgid != 0 {
			pgid = attr.Pgid
		}
		_ = unix.IoctlSetPointerInt(int(os.Stdin.Fd()), unix.TIOCSPGRP, pgid)
	}
	return &realProcess{cmd: cmd}, nil
}

func (realSystem) IsTerminal(fd uintptr) bool { return term.IsTerminal(int(fd)) }

func (realSystem) Tcgetpgrp(fd uintptr) (int, error) {
	return unix.IoctlGetInt(int(fd), unix.TIOCGPGRP)
}

func (realSystem) Tcsetpgrp(fd uintptr, pgid int) error {
	return unix.IoctlSetPointerInt(int(fd), unix.TIOCSPGRP, pgid)
}

func (realSystem) Setpgid(pid, pgid int) error {
	return syscall.Setpgid(pid, pgid)
}

func (realSystem) Getpgid(pid int) (int, error) {
	return syscall.Getpgid(pid)
}

func (realSystem) SignalProcess(pid int, sig Signal) error {
	return syscall.Kill(pid, signum(sig))
}

func (realSystem) SignalGroup(pgid int, sig Signal) error {
	return syscall.Kill(-pgid, signum(sig))
}
