package shell

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodexArg/terminal-singleton/internal/monitoring"
	"github.com/kodexArg/terminal-singleton/internal/resilience"
)

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	r := NewRegistry(opts)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistryStartsAbsent(t *testing.T) {
	r := NewRegistry(Options{})

	assert.Equal(t, StateAbsent, r.State())
	assert.Nil(t, r.Current())
	assert.NoError(t, r.Close())
}

func TestRegistryGetIsIdempotent(t *testing.T) {
	r := newTestRegistry(t, testOptions(t))
	ctx := context.Background()

	first, err := r.Get(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		s, err := r.Get(ctx)
		require.NoError(t, err)
		assert.Same(t, first, s)
		assert.Equal(t, first.PID(), s.PID())
	}
	assert.Equal(t, StatePresent, r.State())
	assert.Same(t, first, r.Current())
}

func TestRegistryRespawnsDeadShell(t *testing.T) {
	opts := testOptions(t)
	opts.Metrics = monitoring.NewMetrics()
	r := newTestRegistry(t, opts)
	ctx := context.Background()

	old, err := r.Get(ctx)
	require.NoError(t, err)
	_, err = old.Run(ctx, "export MARK=old")
	require.NoError(t, err)

	require.NoError(t, syscall.Kill(old.PID(), syscall.SIGKILL))
	waitClosed(t, old.Done(), 2*time.Second)

	fresh, err := r.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.NotEqual(t, old.PID(), fresh.PID())

	out, err := fresh.Run(ctx, "echo ${MARK:-unset}")
	require.NoError(t, err)
	assert.Equal(t, "unset", out)

	// a reference held across the respawn is inert
	_, err = old.Run(ctx, "echo hi")
	assert.ErrorIs(t, err, ErrProcessDied)

	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Respawns.WithLabelValues("died")))
	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.SessionsSpawned))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.SessionsActive))
}

func TestRegistryRecoversFromTimeout(t *testing.T) {
	opts := testOptions(t)
	opts.Timeout = 300 * time.Millisecond
	opts.Metrics = monitoring.NewMetrics()
	r := newTestRegistry(t, opts)
	ctx := context.Background()

	s, err := r.Get(ctx)
	require.NoError(t, err)

	_, err = s.Run(ctx, "sleep 5")
	require.ErrorIs(t, err, ErrTimeout)

	fresh, err := r.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s, fresh)

	out, err := fresh.Run(ctx, "echo fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", out)
	assert.Equal(t, "", s.LastOutput())

	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Respawns.WithLabelValues("suspect")))
}

func TestRegistryCloseThenReuse(t *testing.T) {
	r := newTestRegistry(t, testOptions(t))
	ctx := context.Background()

	s, err := r.Get(ctx)
	require.NoError(t, err)
	_, err = s.Run(ctx, "export FOO=bar")
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, StateAbsent, r.State())
	assert.False(t, s.Alive())

	fresh, err := r.Get(ctx)
	require.NoError(t, err)
	out, err := fresh.Run(ctx, "echo ${FOO:-unset}")
	require.NoError(t, err)
	assert.Equal(t, "unset", out)
}

func TestRegistrySpawnFailureOpensBreaker(t *testing.T) {
	opts := Options{
		ShellPath:             "/nonexistent/bin/shell",
		SpawnFailureThreshold: 2,
		SpawnCooldown:         time.Minute,
		Metrics:               monitoring.NewMetrics(),
	}
	r := newTestRegistry(t, opts)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.Get(ctx)
		require.ErrorIs(t, err, ErrSpawn)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}

	_, err := r.Get(ctx)
	assert.ErrorIs(t, err, ErrSpawn)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.False(t, IsRetryable(err))

	assert.Equal(t, StateAbsent, r.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.SpawnErrors))
}

func TestRegistryCanceledSpawnDoesNotTripBreaker(t *testing.T) {
	opts := testOptions(t)
	opts.SpawnFailureThreshold = 1
	opts.SettleDelay = time.Second
	r := newTestRegistry(t, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrSpawn)
	assert.Equal(t, StateAbsent, r.State())

	s, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Alive())
}

func TestRegistryThrottlesRespawns(t *testing.T) {
	opts := testOptions(t)
	opts.SpawnRate = 1
	opts.SpawnBurst = 1
	r := newTestRegistry(t, opts)
	ctx := context.Background()

	s, err := r.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	start := time.Now()
	_, err = r.Get(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestRegistryThrottleHonorsContext(t *testing.T) {
	opts := testOptions(t)
	opts.SpawnRate = 0.01
	opts.SpawnBurst = 1
	r := newTestRegistry(t, opts)

	s, err := r.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = r.Get(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSpawn)
}

func TestRegistryConcurrentGetSpawnsOnce(t *testing.T) {
	opts := testOptions(t)
	opts.Metrics = monitoring.NewMetrics()
	r := newTestRegistry(t, opts)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	sessions := make([]*Session, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], errs[i] = r.Get(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.SessionsSpawned))
}
