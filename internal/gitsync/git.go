package gitsync

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// outputLimit caps captured subprocess output; porcelain output past
	// this point is noise, not signal.
	outputLimit = 1 << 20

	// Config-lock contention is retried with linear backoff. Anything
	// else fails immediately.
	lockAttempts   = 5
	lockRetryDelay = 200 * time.Millisecond
)

// gitRunner shells out to the external git client. Every invocation runs
// under a hard deadline so a hung remote surfaces as an ordinary error.
type gitRunner struct {
	timeout time.Duration
}

// ensureGit checks that git is available on PATH.
func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}

// run executes git with the given args in dir, capturing combined output
// up to outputLimit bytes.
func (g *gitRunner) run(ctx context.Context, dir string, args ...string) (string, error) {
	timeout := g.timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	buf := &cappedBuffer{limit: outputLimit}
	cmd.Stdout = buf
	cmd.Stderr = buf

	err := cmd.Run()
	out := strings.TrimSpace(buf.String())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return out, fmt.Errorf("git %s timed out after %s", args[0], timeout)
		}
		return out, fmt.Errorf("git %s: %w\n%s", args[0], err, out)
	}
	return out, nil
}

// runRetry behaves like run but retries config-lock contention, the one
// transient failure retried at this layer.
func (g *gitRunner) runRetry(ctx context.Context, dir string, args ...string) (string, error) {
	var out string
	var err error
	for attempt := 1; attempt <= lockAttempts; attempt++ {
		out, err = g.run(ctx, dir, args...)
		if err == nil || !strings.Contains(err.Error(), "could not lock config file") {
			return out, err
		}
		select {
		case <-time.After(time.Duration(attempt) * lockRetryDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return out, err
}

// cappedBuffer accumulates writes up to limit bytes and silently drops
// the rest.
type cappedBuffer struct {
	buf   []byte
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if remaining := b.limit - len(b.buf); remaining > 0 {
		if len(p) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return string(b.buf) }
