// Package simkernel is the minimal simulated preemptive kernel SPEC_FULL.md
// adds so the core is runnable end to end: a virtual cycle clock, a
// periodic-task driver, and a cycle-stepped dispatch loop that calls
// sched.Scheduler exactly the way a real host kernel would. It stands in
// for the external collaborator spec.md §1 calls out of scope ("the
// underlying preemptive kernel... the target-board hardware-abstraction
// layer"), built only as far as the end-to-end scenarios of spec.md §8
// require.
package simkernel

import "sync"

// VirtualClock is a monotonic cycle counter advanced only by the
// Kernel's dispatch loop — there is no wall-clock dependency, so
// scenarios are fully deterministic and reproducible. One cycle is
// defined to equal one millisecond, matching the millisecond units
// spec.md §6's CSV schema fixes; this is a simplifying assumption of
// the simulator.
//
// Now is also called from telemetry/metrics goroutines polling
// Kernel.Snapshot concurrently with the dispatch loop's own Advance
// calls (see cmd/rtmonitor), so the counter carries its own small lock
// rather than assuming single-goroutine access like the rest of
// simkernel's per-task bookkeeping does.
type VirtualClock struct {
	mu    sync.Mutex
	cycle int64
}

// Now satisfies sched.Clock.
func (c *VirtualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

// Advance moves the clock forward by delta cycles (always 1, in the
// Kernel's dispatch loop, but exposed for tests that want to fast-forward
// past idle stretches).
func (c *VirtualClock) Advance(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycle += delta
}
