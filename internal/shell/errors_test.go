package shell

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindSpawn, "spawn"},
		{KindWrite, "write"},
		{KindTimeout, "timeout"},
		{KindProcessDied, "process_died"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestErrorIsSentinelAndCause(t *testing.T) {
	cause := errors.New("input/output error")
	err := newError(KindWrite, "write", "sess_1", cause)

	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrProcessDied)
	assert.Equal(t, "shell write sess_1: shell rejected input: input/output error", err.Error())
}

func TestErrorWithoutCause(t *testing.T) {
	err := newError(KindTimeout, "run", "", nil)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "shell run: timed out waiting for command output", err.Error())
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("tool call: %w", newError(KindProcessDied, "run", "sess_1", ErrSessionClosed))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindProcessDied, kind)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, ok = KindOf(context.Canceled)
	assert.False(t, ok)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(newError(KindSpawn, "spawn", "", nil)))
	assert.True(t, IsRetryable(newError(KindWrite, "write", "", nil)))
	assert.True(t, IsRetryable(newError(KindTimeout, "run", "", nil)))
	assert.True(t, IsRetryable(newError(KindProcessDied, "run", "", nil)))
	assert.False(t, IsRetryable(errors.New("other")))
	assert.False(t, IsRetryable(nil))
}
