package shell

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testOptions returns options for a clean, non-interactive-config bash.
// Tests that need a real shell are skipped when bash is not installed.
func testOptions(t *testing.T) Options {
	t.Helper()

	path, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}

	return Options{
		ShellPath: path,
		ShellArgs: []string{"--norc", "--noprofile"},
		Timeout:   5 * time.Second,
		KillGrace: 100 * time.Millisecond,
		Logger:    zaptest.NewLogger(t),
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()

	s, err := NewSession(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeProcess is a Process with no shell behind it; tests feed its chunk
// queue directly.
func fakeProcess() *Process {
	return &Process{
		chunks: make(chan []byte, chunkQueue),
		eof:    make(chan struct{}),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
}

func waitClosed(t *testing.T, ch <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatalf("channel not closed within %s", d)
	}
}
