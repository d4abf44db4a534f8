/*
Package resilience provides the circuit breaker that guards shell spawning.

A shell path that cannot be executed fails every spawn. Without a guard,
each registry access would retry the fork/exec and the pty allocation.
The breaker opens after a run of consecutive failures and fails fast until
a cooldown has passed, then lets a single probe through.

# Usage

	breaker := resilience.New("spawn", resilience.Settings{
		Threshold: 3,
		Cooldown:  5 * time.Second,
	})

	if err := breaker.Allow(); err != nil {
		return err // resilience.ErrCircuitOpen
	}
	sess, err := spawn()
	if err != nil {
		breaker.Failure()
		return err
	}
	breaker.Success()

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[success]-> Closed
	                                                        |
	                                                   [failure]
	                                                        v
	                                                      Open
*/
package resilience
