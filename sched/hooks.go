package sched

import "github.com/rtsched/rtsched/rtstats"

// This file dispatches the five RT Statistics Subsystem hooks of spec.md
// §4.4 and maintains ready-set membership to match the state machine
// spec.md draws for one thread's statistics across a job:
//
//	idle -activation-> active -ready-> ready -ctx_in-> running -ctx_out(!completed)-> ready
//	                                                    running -ctx_out(completed)-> idle
//
// OnReady is the insertion point into the ready set; OnContextSwitchIn
// removes the dispatched thread from it; OnContextSwitchOut reinserts it
// (the running-to-ready loop) unless completed, in which case the thread
// goes idle and is not reinserted.

// OnActivation marks the start of a new job (spec.md §4.4).
func (s *Scheduler) OnActivation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.stats.OnActivation(s.clock.Now())
	e.hasActivation = true
	return nil
}

// OnReady marks the thread ready (after blocking or activation) and adds
// it to the ready set the policy engine orders.
func (s *Scheduler) OnReady(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.stats.OnReady(s.clock.Now())
	e.hasReady = true
	s.insertReadyLocked(e)
	return nil
}

// OnContextSwitchIn records the dispatcher selecting id to run. It
// removes id from the ready set (running threads are not ready) and, if
// the previously-running thread is still marked ready (meaning the
// caller already reinserted it via a prior OnContextSwitchOut(prev,
// false) call rather than letting it complete or block), counts that as
// a preemption of prev. Returns the ID of the previously running thread,
// or "" if none.
func (s *Scheduler) OnContextSwitchIn(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	prev := s.running
	var prevID string
	if prev != nil {
		prevID = prev.thread.ID
		if prev != e && prev.ready {
			prev.stats.OnPreempted()
		}
	}

	if e.ready {
		s.removeReadyLocked(e)
	}
	e.stats.OnContextSwitchIn(now, e.hasReady)
	s.running = e
	return prevID, nil
}

// OnContextSwitchOut records the dispatcher descheduling id. completed is
// true only at job completion; otherwise the thread returns to the
// ready set (the running-to-ready loop of the state diagram above).
func (s *Scheduler) OnContextSwitchOut(id string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	e.stats.OnContextSwitchOut(now, completed, e.hasActivation)
	if completed {
		e.hasActivation = false
		e.hasReady = false
	} else {
		s.insertReadyLocked(e)
	}
	return nil
}

// OnDeadlineMiss records a detected miss of the thread's current
// deadline. There is no scheduler action on a miss (spec.md §7:
// best-effort continuation).
func (s *Scheduler) OnDeadlineMiss(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.stats.OnDeadlineMiss()
	return nil
}

// StatsGet copies the thread's statistics block out under the scheduler
// exclusion lock (spec.md §3).
func (s *Scheduler) StatsGet(id string) (rtstats.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return rtstats.Block{}, err
	}
	return e.stats.Snapshot(), nil
}

// StatsReset zeroes the thread's statistics block under the scheduler
// exclusion lock.
func (s *Scheduler) StatsReset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.stats.Reset()
	return nil
}
