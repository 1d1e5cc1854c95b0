// Package sched ties rtparam, policy and rtstats into the one exclusive
// scheduler object: it owns the ready set, implements the re-keying
// protocol of spec.md §4.2, exposes the RT Parameter API of spec.md §4.3,
// dispatches the five accounting hooks of spec.md §4.4, and presents the
// single cmp(a, b) function a host kernel would call (spec.md §6).
package sched

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rtsched/rtsched/policy"
	"github.com/rtsched/rtsched/rtstats"
)

// Clock supplies the monotonic cycle counter the scheduler and
// statistics subsystem stamp events with. Production callers wire this
// to the host kernel's cycle counter; simkernel provides a virtual one
// for deterministic tests.
type Clock interface {
	Now() int64
}

// ErrUnknownThread is returned by any operation naming a thread the
// scheduler never created (spec.md §7: "Invalid thread reference...
// rejected at the syscall boundary; returns failure without side
// effect").
var ErrUnknownThread = errors.New("sched: unknown thread")

// entry is one thread's full scheduler-owned state: its policy-engine
// view and its statistics block. Both fields are owned exclusively by
// this thread and mutated only while Scheduler.mu is held.
type entry struct {
	thread *policy.Thread
	stats  *rtstats.Block
	ready  bool // true iff currently a member of the ready set
	idx    int  // position within Scheduler.ready, maintained on swap/remove

	// hasActivation/hasReady record whether LastActivation/LastReady
	// have ever been stamped, so the first response/waiting sample of a
	// thread's life is skipped rather than computed against a zero
	// instant (spec.md's ordering guarantee only promises activation
	// precedes ready precedes the first switch-in; it says nothing
	// about cycle zero).
	hasActivation bool
	hasReady      bool
}

// Scheduler is the core object: one policy, one statistics
// configuration, one exclusion lock, guarding one ready set and the
// per-thread RT parameter/statistics blocks of every thread it knows
// about.
type Scheduler struct {
	mu sync.Mutex // the global scheduler exclusion primitive of spec.md §5

	policy   policy.Policy
	statsCfg rtstats.Config
	clock    Clock
	threads  map[string]*entry
	ready    []*entry
	nextSeq  uint64

	// running is the last thread dispatched via OnContextSwitchIn. It is
	// not cleared by OnContextSwitchOut, so the next OnContextSwitchIn
	// call can still identify prev and test prev.ready to detect a
	// preemption (spec.md §4.4: "if prev was ready but unselected,
	// prev.preemptions++").
	running *entry
}

// New constructs a Scheduler using the given policy, statistics
// configuration, and cycle-counter source.
func New(p policy.Policy, cfg rtstats.Config, clock Clock) *Scheduler {
	return &Scheduler{
		policy:   p,
		statsCfg: cfg,
		clock:    clock,
		threads:  make(map[string]*entry),
	}
}

// PolicyName reports which comparator this scheduler was built with.
func (s *Scheduler) PolicyName() string { return s.policy.Name() }

// CreateThread registers a new thread with a zero-initialized RT
// parameter block and statistics block (spec.md §3: "RT parameter block
// is zero-initialized at thread create"). The core never creates or
// destroys kernel threads itself; this just attaches the RT state the
// rest of the package needs.
func (s *Scheduler) CreateThread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.threads[id]; exists {
		return
	}
	s.threads[id] = &entry{
		thread: &policy.Thread{ID: id},
		stats:  rtstats.New(s.statsCfg),
		idx:    -1,
	}
}

// DestroyThread discards a thread's RT state (spec.md §3: "discarded with
// the thread"). Removes it from the ready set first if resident.
func (s *Scheduler) DestroyThread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.threads[id]
	if !ok {
		return
	}
	if e.ready {
		s.removeReadyLocked(e)
	}
	delete(s.threads, id)
}

func (s *Scheduler) lookup(id string) (*entry, error) {
	e, ok := s.threads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownThread, id)
	}
	return e, nil
}
