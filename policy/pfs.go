package policy

import "github.com/rtsched/rtsched/rtparam"

// PFS (Proportional-Fair): key(t) = accumulated_runtime(t) /
// max(weight(t), 1) — the virtual runtime. Tie-break: deadline, then
// insertion order. Accumulated runtime only grows, so PFS tolerates the
// drift spec.md §4.2 describes ("the key drifts monotonically between
// decisions; PFS accepts this drift and recomputes at every decision
// point") better than LLF's laxity, which can move in either direction.
type PFS struct{}

func (PFS) Name() string { return "PFS" }

func (PFS) Less(a, b *Thread) bool {
	ka := a.VirtualRuntime / rtparam.EffectiveWeight(a.Params.Weight)
	kb := b.VirtualRuntime / rtparam.EffectiveWeight(b.Params.Weight)
	if ka != kb {
		return ka < kb
	}
	return tiebreakDeadline(a, b)
}
