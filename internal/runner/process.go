package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
)

//go:generate mockgen -destination=mocks/mock_launcher.go -package=mocks . Launcher

// ExecResult is what came back from one launched process.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Launcher starts a process for an invocation and supervises it until it
// exits or the context deadline fires, whichever comes first.
type Launcher interface {
	Launch(ctx context.Context, inv Invocation) (ExecResult, error)
}

// maxCapturedOutput bounds each captured stream; scripts can be chatty
// and the output is only ever logged.
const maxCapturedOutput = 64 * 1024

// execLauncher launches real OS processes. Each child gets its own
// process group so a timeout can take out its descendants too.
type execLauncher struct{}

// NewExecLauncher returns the production Launcher.
func NewExecLauncher() Launcher {
	return execLauncher{}
}

func (execLauncher) Launch(ctx context.Context, inv Invocation) (ExecResult, error) {
	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	setProcessGroup(cmd)

	stdout := newBoundedBuffer(maxCapturedOutput)
	stderr := newBoundedBuffer(maxCapturedOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return ExecResult{ExitCode: -1}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		// Deadline or cancellation: take down the whole process tree,
		// then reap. Partial output is kept for logging only.
		killProcessGroup(cmd)
		<-done
		return ExecResult{
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		}, ctx.Err()
	case err := <-done:
		res := ExecResult{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				res.ExitCode = exitErr.ExitCode()
				return res, nil
			}
			res.ExitCode = -1
			return res, err
		}
		return res, nil
	}
}

// boundedBuffer captures at most max bytes and silently drops the rest.
type boundedBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newBoundedBuffer(max int) *boundedBuffer {
	return &boundedBuffer{max: max}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
