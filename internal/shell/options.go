package shell

import (
	"time"

	"go.uber.org/zap"

	"github.com/kodexArg/terminal-singleton/internal/monitoring"
)

// Defaults applied by Options when a field is left zero.
const (
	DefaultShellPath             = "/bin/bash"
	DefaultTimeout               = 30 * time.Second
	DefaultSettleDelay           = 50 * time.Millisecond
	DefaultKillGrace             = 250 * time.Millisecond
	DefaultLogLimit              = 1 << 20
	DefaultSpawnFailureThreshold = 3
	DefaultSpawnCooldown         = 5 * time.Second
	DefaultSpawnRate             = 1.0
	DefaultSpawnBurst            = 3
)

// Options configures how sessions spawn and how long they wait.
type Options struct {
	// ShellPath is the interactive shell executable.
	ShellPath string
	// ShellArgs are passed to the shell, e.g. "--norc" or "-f".
	ShellArgs []string
	// Dir is the initial working directory; empty inherits ours.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to our environment.
	Env []string

	// Timeout bounds every wait for a command's marker.
	Timeout time.Duration
	// SettleDelay is slept between spawn and the first write.
	SettleDelay time.Duration
	// KillGrace is how long Close waits for "exit" before killing.
	KillGrace time.Duration

	// LogLimit caps the retained full log in bytes. Negative means unbounded.
	LogLimit int

	// SpawnFailureThreshold consecutive spawn failures open the registry's
	// breaker for SpawnCooldown.
	SpawnFailureThreshold uint32
	SpawnCooldown         time.Duration

	// SpawnRate bounds sustained spawns per second after SpawnBurst quick
	// ones. Negative means unlimited.
	SpawnRate  float64
	SpawnBurst int

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

func (o Options) withDefaults() Options {
	if o.ShellPath == "" {
		o.ShellPath = DefaultShellPath
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	} else if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.KillGrace <= 0 {
		o.KillGrace = DefaultKillGrace
	}
	if o.LogLimit == 0 {
		o.LogLimit = DefaultLogLimit
	}
	if o.SpawnFailureThreshold == 0 {
		o.SpawnFailureThreshold = DefaultSpawnFailureThreshold
	}
	if o.SpawnCooldown <= 0 {
		o.SpawnCooldown = DefaultSpawnCooldown
	}
	if o.SpawnRate == 0 {
		o.SpawnRate = DefaultSpawnRate
	}
	if o.SpawnBurst <= 0 {
		o.SpawnBurst = DefaultSpawnBurst
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
