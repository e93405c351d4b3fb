package system

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Virtual is an in-memory System: a virtual filesystem and a table of
// fake "executables" registered by path, so interpreter and
// job-control tests never need to fork a real process or touch real
// disk. It satisfies [System].
type Virtual struct {
	mu    sync.Mutex
	files map[string]*vnode
	procs map[string]ProcFunc
	users map[string]string // username (or "" for current) -> home dir
	wd    string

	pgid     int
	fgPgrp   int
	termFd   uintptr
	isTTY    bool
	nextPid  int
	groups   map[int][]int // pgid -> member pids, for SignalGroup
}

// ProcFunc is the body of a fake executable registered with
// [Virtual.Register]. It behaves like a tiny main function.
type ProcFunc func(ctx context.Context, args, env []string, stdin io.Reader, stdout, stderr io.Writer) WaitStatus

type vnode struct {
	dir      bool
	mode     fs.FileMode
	content  []byte
	modTime  time.Time
	children map[string]*vnode
}

// NewVirtual returns an empty virtual system rooted at "/", with a
// root directory and no registered executables.
func NewVirtual() *Virtual {
	return &Virtual{
		files:  map[string]*vnode{"/": {dir: true, mode: fs.ModeDir | 0o755, children: map[string]*vnode{}}},
		procs:  map[string]ProcFunc{},
		users:  map[string]string{"": "/home/user"},
		wd:     "/",
		nextPid: 1,
		groups: map[int][]int{},
	}
}

// Register installs a fake executable at path, so StartProcess can
// "run" it without forking anything real.
func (v *Virtual) Register(path string, fn ProcFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.procs[path] = fn
	v.put(path, &vnode{mode: 0o755})
}

// WriteFile creates or replaces a regular file's contents.
func (v *Virtual) WriteFile(path string, content []byte, mode fs.FileMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.put(path, &vnode{mode: mode, content: content, modTime: epoch})
}

// Mkdir creates a directory, including any missing parents.
func (v *Virtual) Mkdir(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.put(path, &vnode{dir: true, mode: fs.ModeDir | 0o755, children: map[string]*vnode{}})
}

// SetTerminal controls what IsTerminal reports for fd.
func (v *Virtual) SetTerminal(fd uintptr, isTTY bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.termFd, v.isTTY = fd, isTTY
}

var epoch = time.Unix(0, 0)

func clean(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	parts := strings.Split(path, "/")
	var out []string
	for _, p := range parts {
		switch p {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, p)
		}
	}
	return "/" + strings.Join(out, "/")
}

// put must be called with v.mu held.
func (v *Virtual) put(path string, n *vnode) {
	path = clean(path)
	dir, name := parentDir(path)
	v.mkdirAll(dir)
	parent := v.files[dir]
	if parent.children == nil {
		parent.children = map[string]*vnode{}
	}
	parent.children[name] = n
	v.files[path] = n
}

// mkdirAll must be called with v.mu held.
func (v *Virtual) mkdirAll(path string) {
	path = clean(path)
	if _, ok := v.files[path]; ok {
		return
	}
	if path == "/" {
		v.files["/"] = &vnode{dir: true, mode: fs.ModeDir | 0o755, children: map[string]*vnode{}}
		return
	}
	dir, name := parentDir(path)
	v.mkdirAll(dir)
	parent := v.files[dir]
	n := &vnode{dir: true, mode: fs.ModeDir | 0o755, children: map[string]*vnode{}}
	parent.children[name] = n
	v.files[path] = n
}

func parentDir(path string) (dir, name string) {
	path = clean(path)
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/", path[i+1:]
	}
	return path[:i], path[i+1:]
}

type vfileInfo struct {
	name string
	n    *vnode
}

func (fi vfileInfo) Name() string { return fi.name }
func (fi vfileInfo) Size() int64  { return int64(len(fi.n.content)) }
func (fi vfileInfo) Mode() fs.FileMode {
	if fi.n.dir {
		return fi.n.mode | fs.ModeDir
	}
	return fi.n.mode
}
func (fi vfileInfo) ModTime() time.Time { return fi.n.modTime }
func (fi vfileInfo) IsDir() bool        { return fi.n.dir }
func (fi vfileInfo) Sys() any           { return nil }

type vdirEntry struct{ vfileInfo }

func (e vdirEntry) Type() fs.FileMode          { return e.Mode().Type() }
func (e vdirEntry) Info() (fs.FileInfo, error) { return e.vfileInfo, nil }

type vfile struct {
	*strings.Reader
	buf  *[]byte
	node *vnode
}

func (f *vfile) Write(p []byte) (int, error) {
	*f.buf = append(*f.buf, p...)
	f.node.content = *f.buf
	return len(p), nil
}
func (f *vfile) Close() error { return nil }

func (v *Virtual) Open(_ context.Context, path string, flag int, perm fs.FileMode) (File, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = clean(path)
	n, ok := v.files[path]
	if !ok {
		if flag&os.O_CREATE == 0 {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		n = &vnode{mode: perm, modTime: epoch}
		v.put(path, n)
	}
	if flag&os.O_TRUNC != 0 {
		n.content = nil
	}
	buf := append([]byte(nil), n.content...)
	return &vfile{Reader: strings.NewReader(string(buf)), buf: &n.content, node: n}, nil
}

func (v *Virtual) Stat(_ context.Context, path string, _ bool) (fs.FileInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = clean(path)
	n, ok := v.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	_, name := parentDir(path)
	if path == "/" {
		name = "/"
	}
	return vfileInfo{name: name, n: n}, nil
}

func (v *Virtual) ReadDir(_ context.Context, path string) ([]fs.DirEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = clean(path)
	n, ok := v.files[path]
	if !ok || !n.dir {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
	}
	entries := make([]fs.DirEntry, 0, len(n.children))
	for name, child := range n.children {
		entries = append(entries, vdirEntry{vfileInfo{name: name, n: child}})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (v *Virtual) Mkfifo(path string, mode fs.FileMode) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.put(path, &vnode{mode: mode | fs.ModeNamedPipe, modTime: epoch})
	return nil
}

func (v *Virtual) Remove(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = clean(path)
	if _, ok := v.files[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	dir, name := parentDir(path)
	delete(v.files[dir].children, name)
	delete(v.files, path)
	return nil
}

func (v *Virtual) Getwd() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wd, nil
}

func (v *Virtual) UserHomeDir(username string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	home, ok := v.users[username]
	if !ok {
		return "", fmt.Errorf("user: unknown user %s", username)
	}
	return home, nil
}

func (v *Virtual) CurrentUser() (uid, gid int, home string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return 1000, 1000, v.users[""], nil
}

type virtualProcess struct {
	pid    int
	status WaitStatus
	done   chan struct{}
}

func (p *virtualProcess) Pid() int { return p.pid }

func (p *virtualProcess) Wait() (WaitStatus, error) {
	<-p.done
	return p.status, nil
}

func (p *virtualProcess) Signal(sig Signal) error {
	switch sig {
	case SIGKILL, SIGTERM, SIGINT:
		select {
		case <-p.done:
		default:
			p.status = WaitStatus{Signaled: true, Signal: sig}
			close(p.done)
		}
	}
	return nil
}

// StartProcess looks up a registered [ProcFunc] for attr.Path and runs
// it on a goroutine, faking the fork/exec/wait lifecycle.
func (v *Virtual) StartProcess(ctx context.Context, attr ProcAttr) (Process, error) {
	v.mu.Lock()
	fn, ok := v.procs[attr.Path]
	pid := v.nextPid
	v.nextPid++
	pgid := pid
	if attr.Pgid != 0 {
		pgid = attr.Pgid
	}
	v.groups[pgid] = append(v.groups[pgid], pid)
	v.mu.Unlock()
	if !ok {
		return nil, &fs.PathError{Op: "exec", Path: attr.Path, Err: fs.ErrNotExist}
	}
	p := &virtualProcess{pid: pid, done: make(chan struct{})}
	go func() {
		status := fn(ctx, attr.Args, attr.Env, attr.Stdin, attr.Stdout, attr.Stderr)
		select {
		case <-p.done:
		default:
			p.status = status
			close(p.done)
		}
	}()
	return p, nil
}

func (v *Virtual) IsTerminal(fd uintptr) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isTTY && fd == v.termFd
}

func (v *Virtual) Tcgetpgrp(uintptr) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fgPgrp, nil
}

func (v *Virtual) Tcsetpgrp(_ uintptr, pgid int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fgPgrp = pgid
	return nil
}

func (v *Virtual) Setpgid(pid, pgid int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pgid == 0 {
		pgid = pid
	}
	v.groups[pgid] = append(v.groups[pgid], pid)
	return nil
}

func (v *Virtual) Getpgid(pid int) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for pgid, members := range v.groups {
		for _, m := range members {
			if m == pid {
				return pgid, nil
			}
		}
	}
	return 0, fmt.Errorf("getpgid: no such process %d", pid)
}

func (v *Virtual) SignalProcess(pid int, sig Signal) error {
	return nil // the virtual backend tracks processes via Process.Signal, not by pid lookup
}

func (v *Virtual) SignalGroup(pgid int, sig Signal) error {
	return nil
}

var _ System = (*Virtual)(nil)
