package sched

// insertReadyLocked adds e to the ready set, stamping it with the next
// insertion-order sequence number (the host kernel FIFO tie-break every
// policy falls back to). Caller must hold s.mu.
func (s *Scheduler) insertReadyLocked(e *entry) {
	if e.ready {
		return
	}
	e.thread.SetSeq(s.nextSeq)
	s.nextSeq++
	e.idx = len(s.ready)
	s.ready = append(s.ready, e)
	e.ready = true
}

// removeReadyLocked removes e from the ready set via swap-with-last, the
// simple O(1)-removal / O(N)-scan structure spec.md §9 licenses for small
// N ("for small N, a linear ordered list"). Caller must hold s.mu.
func (s *Scheduler) removeReadyLocked(e *entry) {
	if !e.ready {
		return
	}
	last := len(s.ready) - 1
	s.ready[e.idx] = s.ready[last]
	s.ready[e.idx].idx = e.idx
	s.ready[last] = nil
	s.ready = s.ready[:last]
	e.ready = false
	e.idx = -1
}

// rekeyLocked implements the key-mutation protocol of spec.md §4.2:
// remove (if resident), apply mutate, reinsert (if it was resident).
// This is the only way any setter may change a field the comparator
// reads; in-place key mutation while resident is never attempted.
func (s *Scheduler) rekeyLocked(e *entry, mutate func()) {
	wasReady := e.ready
	if wasReady {
		s.removeReadyLocked(e)
	}
	mutate()
	if wasReady {
		s.insertReadyLocked(e)
	}
}

// PickNext returns the ID of the ready thread the configured policy
// prefers, or "" if the ready set is empty (the kernel idles — spec.md
// §4.2's empty-ready-set edge case, handled by the host kernel, not the
// comparator). It performs the linear min-scan spec.md §9 recommends as
// always-correct for policies whose keys drift between decisions (PFS,
// LLF, WSRT): the ready set's sort order, if any, is never trusted
// between dispatches.
func (s *Scheduler) PickNext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ready) == 0 {
		return ""
	}
	best := s.ready[0]
	for _, e := range s.ready[1:] {
		if s.policy.Less(e.thread, best.thread) {
			best = e
		}
	}
	return best.thread.ID
}

// Cmp exposes the single policy-engine function a host kernel calls
// (spec.md §6: "Exactly one function: cmp(a, b) -> {LESS, GREATER}").
// Returns -1 if a precedes b, +1 otherwise; there is no EQUAL, matching
// the spec (ties are resolved inside the comparator's own tie-break
// chain, down to insertion order).
func (s *Scheduler) Cmp(a, b string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ea, err := s.lookup(a)
	if err != nil {
		return 0, err
	}
	eb, err := s.lookup(b)
	if err != nil {
		return 0, err
	}
	if s.policy.Less(ea.thread, eb.thread) {
		return -1, nil
	}
	return 1, nil
}
