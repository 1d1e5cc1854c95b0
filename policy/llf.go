package policy

// LLF (Least-Laxity-First): key(t) = deadline(t) - time_left(t) (laxity —
// how much slack before the job must run continuously to meet its
// deadline). Tie-break: deadline, then insertion order. Laxity drifts as
// time_left decrements, so — like WSRT — this must be recomputed fresh at
// every dispatch decision rather than relying on a stale sort order.
// Requires deadline and the host kernel's thread-runtime-usage tracking.
type LLF struct{}

func (LLF) Name() string { return "LLF" }

func (LLF) Less(a, b *Thread) bool {
	la := a.Params.Deadline - a.Params.TimeLeft
	lb := b.Params.Deadline - b.Params.TimeLeft
	if la != lb {
		return la < lb
	}
	return tiebreakDeadline(a, b)
}
