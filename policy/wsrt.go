package policy

import "github.com/rtsched/rtsched/rtparam"

// WSRT (Weighted-Shortest-Remaining-Time): key(t) = time_left(t) /
// max(weight(t), 1). Tie-break: deadline, then insertion order. time_left
// drifts as the kernel's usage-tracking path decrements it between
// dispatch decisions — see sched.Scheduler.PickNext, which recomputes
// this comparator fresh at every decision rather than trusting any
// previously-sorted order. Requires the host kernel's thread-runtime-
// usage tracking enabled (spec.md §6 dependency gate); this module takes
// time_left as given and does not itself decrement it.
type WSRT struct{}

func (WSRT) Name() string { return "WSRT" }

func (WSRT) Less(a, b *Thread) bool {
	ka := a.Params.TimeLeft / rtparam.EffectiveWeight(a.Params.Weight)
	kb := b.Params.TimeLeft / rtparam.EffectiveWeight(b.Params.Weight)
	if ka != kb {
		return ka < kb
	}
	return tiebreakDeadline(a, b)
}
