package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kodexArg/terminal-singleton/internal/resilience"
)

// State is the registry's view of its session.
type State int

const (
	// StateAbsent: no session, the next Get spawns one.
	StateAbsent State = iota
	// StatePresent: a session exists. It may have died since the last
	// check; Get finds out and respawns.
	StatePresent
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Registry hands out the single shared Session, replacing it when its
// shell has died or was left suspect by a timed out command.
//
// Callers receive a shared reference. A reference cached across a respawn
// points at an inert session whose Run fails with a process-died error.
type Registry struct {
	opts    Options
	logger  *zap.Logger
	breaker *resilience.Breaker
	limiter *rate.Limiter

	mu      sync.Mutex
	current *Session
}

// NewRegistry creates an empty registry. No shell is spawned until Get.
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	logger := opts.Logger.Named("registry")

	limit := rate.Limit(opts.SpawnRate)
	if opts.SpawnRate < 0 {
		limit = rate.Inf
	}

	return &Registry{
		opts:    opts,
		logger:  logger,
		limiter: rate.NewLimiter(limit, opts.SpawnBurst),
		breaker: resilience.New("spawn", resilience.Settings{
			Threshold: opts.SpawnFailureThreshold,
			Cooldown:  opts.SpawnCooldown,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Spawn breaker changed state",
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
	}
}

// Get returns the live session, spawning one when Absent or when the
// current session is dead or suspect. The check-then-spawn sequence runs
// under the registry lock, so concurrent callers never spawn twice.
func (r *Registry) Get(ctx context.Context) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.current; s != nil {
		reason := ""
		switch {
		case s.Suspect():
			reason = "suspect"
		case !s.Alive():
			reason = "died"
		default:
			return s, nil
		}

		r.logger.Info("Replacing shell session",
			zap.String("session_id", s.ID().String()),
			zap.Int("pid", s.PID()),
			zap.String("reason", reason))
		if err := s.Close(); err != nil {
			r.logger.Warn("Old session did not terminate cleanly",
				zap.String("session_id", s.ID().String()),
				zap.Error(err))
		}
		r.current = nil
		r.opts.Metrics.IncRespawns(reason)
	}

	return r.spawn(ctx)
}

// spawn performs the Absent -> Present transition. Caller holds r.mu.
func (r *Registry) spawn(ctx context.Context) (*Session, error) {
	// A command that keeps killing its shell must not turn into a fork loop.
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("shell spawn: %w", err)
	}
	if err := r.breaker.Allow(); err != nil {
		return nil, newError(KindSpawn, "spawn", "", err)
	}

	s, err := NewSession(ctx, r.opts)
	if err != nil {
		// A canceled caller says nothing about the shell.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.breaker.Abandon()
		} else {
			r.breaker.Failure()
		}
		return nil, err
	}
	r.breaker.Success()

	r.current = s
	return s, nil
}

// Current returns the session without checking liveness or spawning.
// It is nil when the registry is Absent.
func (r *Registry) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// State reports Absent or Present.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return StateAbsent
	}
	return StatePresent
}

// Close terminates the current session and returns the registry to Absent.
// It is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	s := r.current
	r.current = nil
	r.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}
