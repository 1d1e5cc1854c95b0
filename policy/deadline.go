package policy

// DeadlineOnly is the baseline: key(t) = deadline(t), tie-broken by host
// kernel FIFO (insertion order). Requires only that deadline be set.
type DeadlineOnly struct{}

func (DeadlineOnly) Name() string { return "DEADLINE_ONLY" }

func (DeadlineOnly) Less(a, b *Thread) bool {
	if a.Params.Deadline != b.Params.Deadline {
		return a.Params.Deadline < b.Params.Deadline
	}
	return a.seq < b.seq
}
