package system

import (
	"bytes"
	"context"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestVirtualFilesystem(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	v := NewVirtual()
	v.WriteFile("/tmp/greeting", []byte("hi"), 0o644)

	info, err := v.Stat(ctx, "/tmp/greeting", true)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Name(), qt.Equals, "greeting")
	c.Assert(info.Size(), qt.Equals, int64(2))

	entries, err := v.ReadDir(ctx, "/tmp")
	c.Assert(err, qt.IsNil)
	c.Assert(len(entries), qt.Equals, 1)
	c.Assert(entries[0].Name(), qt.Equals, "greeting")

	f, err := v.Open(ctx, "/tmp/greeting", 0, 0)
	c.Assert(err, qt.IsNil)
	got, err := io.ReadAll(f)
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "hi")
}

func TestVirtualStartProcess(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	v := NewVirtual()
	v.Register("/bin/echo", func(_ context.Context, args, _ []string, _ io.Reader, stdout, _ io.Writer) WaitStatus {
		for i, a := range args[1:] {
			if i > 0 {
				stdout.Write([]byte(" "))
			}
			stdout.Write([]byte(a))
		}
		stdout.Write([]byte("\n"))
		return WaitStatus{Exited: true, ExitCode: 0}
	})

	var out bytes.Buffer
	proc, err := v.StartProcess(ctx, ProcAttr{Path: "/bin/echo", Args: []string{"echo", "hello", "world"}, Stdout: &out})
	c.Assert(err, qt.IsNil)
	status, err := proc.Wait()
	c.Assert(err, qt.IsNil)
	c.Assert(status.Exited, qt.IsTrue)
	c.Assert(status.ExitCode, qt.Equals, 0)
	c.Assert(out.String(), qt.Equals, "hello world\n")
}

func TestLookPathDir(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	v := NewVirtual()
	v.Register("/usr/bin/ls", func(context.Context, []string, []string, io.Reader, io.Writer, io.Writer) WaitStatus {
		return WaitStatus{Exited: true}
	})

	path, err := LookPathDir(ctx, v, "/", "/usr/bin:/bin", "ls")
	c.Assert(err, qt.IsNil)
	c.Assert(path, qt.Equals, "/usr/bin/ls")

	_, err = LookPathDir(ctx, v, "/", "/usr/bin:/bin", "missing")
	c.Assert(err, qt.Not(qt.IsNil))
}
