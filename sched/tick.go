package sched

// Tick is the kernel's thread-runtime-usage tracking path: it advances a
// running thread's consumed execution by delta cycles, decrementing
// TimeLeft and accruing VirtualRuntime. Unlike the app-facing RT
// Parameter API setters, this does NOT remove/reinsert the thread in the
// ready set — it isn't resident there while running anyway — and even
// for policies that read TimeLeft or VirtualRuntime while the thread is
// ready again later, spec.md's key-mutation protocol treats this as
// monotonic drift the comparator simply recomputes at the next dispatch
// decision (spec.md §4.2 case 3, generalized by §9's design notes to
// WSRT and LLF's dynamic keys, not just PFS's).
func (s *Scheduler) Tick(id string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.thread.Params.TimeLeft -= delta
	e.thread.VirtualRuntime += delta
	return nil
}
