package sched

// This file implements the RT Parameter API of spec.md §4.1/§4.3. Every
// setter re-keys the ready set if the target is currently resident,
// exactly per the key-mutation protocol of spec.md §4.2.

// WeightSet writes Weight. Zero is accepted and stored verbatim; every
// comparator that divides by weight treats a stored zero as 1
// (rtparam.EffectiveWeight), never this setter.
func (s *Scheduler) WeightSet(id string, w int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.rekeyLocked(e, func() { e.thread.Params.Weight = w })
	return nil
}

// WeightGet reads the stored Weight (not the effective, floor-of-1 value
// a comparator would use).
func (s *Scheduler) WeightGet(id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.thread.Params.Weight, nil
}

// ExecTimeSet writes ExecTime. A future SetDeadline call resets TimeLeft
// to whatever ExecTime holds at that moment.
func (s *Scheduler) ExecTimeSet(id string, c int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.rekeyLocked(e, func() { e.thread.Params.ExecTime = c })
	return nil
}

// ExecTimeGet reads ExecTime.
func (s *Scheduler) ExecTimeGet(id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.thread.Params.ExecTime, nil
}

// TimeLeftSet writes TimeLeft directly, re-keying if resident.
// Applications call this at activation (or rely on SetDeadline's
// implicit reset). The kernel's usage-tracking path does not use this
// setter: Tick decrements TimeLeft itself, without re-keying.
func (s *Scheduler) TimeLeftSet(id string, t int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.rekeyLocked(e, func() { e.thread.Params.TimeLeft = t })
	return nil
}

// TimeLeftGet reads TimeLeft.
func (s *Scheduler) TimeLeftGet(id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.thread.Params.TimeLeft, nil
}

// SetDeadline sets deadline(t) = now + delta (cycles) and resets
// time_left(t) = exec_time(t), re-keying if resident (spec.md §4.3).
func (s *Scheduler) SetDeadline(id string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	s.rekeyLocked(e, func() {
		e.thread.Params.Deadline = now + delta
		e.thread.Params.TimeLeft = e.thread.Params.ExecTime
	})
	return nil
}

// SetAbsoluteDeadline sets deadline(t) = t (absolute cycles), resetting
// time_left the same way. Periodic tasks use this to advance by period
// without drift: SetAbsoluteDeadline(self, priorDeadline + period).
func (s *Scheduler) SetAbsoluteDeadline(id string, t int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.rekeyLocked(e, func() {
		e.thread.Params.Deadline = t
		e.thread.Params.TimeLeft = e.thread.Params.ExecTime
	})
	return nil
}

// RTConfig is the documented convenience call. It runs
// ExecTimeSet(thread, execTime), WeightSet(thread, weight) and then
// SetDeadline(thread, period), in that order, so the deadline reset
// leaves TimeLeft equal to the new execTime.
func (s *Scheduler) RTConfig(id string, period, execTime, weight int64) error {
	if err := s.ExecTimeSet(id, execTime); err != nil {
		return err
	}
	if err := s.WeightSet(id, weight); err != nil {
		return err
	}
	return s.SetDeadline(id, period)
}

// Deadline reads the stored deadline, for callers implementing periodic
// advance via SetAbsoluteDeadline(self, priorDeadline+period).
func (s *Scheduler) Deadline(id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.thread.Params.Deadline, nil
}
