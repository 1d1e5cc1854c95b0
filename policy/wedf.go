package policy

import "github.com/rtsched/rtsched/rtparam"

// WeightedEDF: key(t) = deadline(t) / max(weight(t), 1), truncated integer
// division. Tie-break: deadline, then insertion order. Requires deadline
// and weight to be meaningful.
type WeightedEDF struct{}

func (WeightedEDF) Name() string { return "MOD_EDF" }

func (WeightedEDF) Less(a, b *Thread) bool {
	ka := a.Params.Deadline / rtparam.EffectiveWeight(a.Params.Weight)
	kb := b.Params.Deadline / rtparam.EffectiveWeight(b.Params.Weight)
	if ka != kb {
		return ka < kb
	}
	return tiebreakDeadline(a, b)
}
