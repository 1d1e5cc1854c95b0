// Package policy implements the Scheduler Policy Engine: six comparators,
// each a total strict-weak order over ready threads. The host kernel (or,
// here, sched.Scheduler standing in for it) delegates "pick next" to
// whichever one is selected; exactly one is active per Scheduler instance,
// mirroring the build-time mutual exclusion of the original spec.
package policy

import (
	"fmt"

	"github.com/rtsched/rtsched/rtparam"
)

// Thread is the policy engine's view of a ready thread: its RT parameters
// plus two more keys. VirtualRuntime is read only by PFS. seq is the host
// kernel's insertion-order secondary key, used as the final tie-break by
// every comparator.
type Thread struct {
	ID     string
	Params rtparam.Block

	// VirtualRuntime is PFS's accumulated-runtime input. It drifts
	// monotonically between dispatch decisions as the kernel's
	// usage-tracking path runs the thread; PFS recomputes its key fresh
	// at every decision rather than assuming the ready set stays sorted.
	VirtualRuntime int64

	seq uint64
}

// SetSeq stamps the thread with its ready-queue insertion order. Only
// sched.Scheduler calls this, at the moment a thread becomes ready.
func (t *Thread) SetSeq(n uint64) { t.seq = n }

// Seq returns the insertion-order tie-break key.
func (t *Thread) Seq() uint64 { return t.seq }

// Policy is a total ordering over ready threads: cmp(a, b) in spec terms.
// Less(a, b) true means "a precedes b" — a is preferred by the host
// kernel's pick-minimum rule. Implementations must never return true for
// both Less(a,b) and Less(b,a); ties are broken deterministically so the
// order is a strict weak order over any set of threads.
type Policy interface {
	Name() string
	Less(a, b *Thread) bool
}

// Select returns the comparator named by the build-time policy selection
// of spec.md §6 (DEADLINE_ONLY | MOD_EDF | WSRT | RMS | LLF | PFS).
func Select(name string) (Policy, error) {
	switch name {
	case "DEADLINE_ONLY":
		return DeadlineOnly{}, nil
	case "MOD_EDF":
		return WeightedEDF{}, nil
	case "RMS":
		return RMS{}, nil
	case "WSRT":
		return WSRT{}, nil
	case "LLF":
		return LLF{}, nil
	case "PFS":
		return PFS{}, nil
	default:
		return nil, fmt.Errorf("policy: unknown policy %q", name)
	}
}

// tiebreakDeadline is the documented secondary key shared by every
// weighted/dynamic policy: earlier deadline wins, then insertion order.
func tiebreakDeadline(a, b *Thread) bool {
	if a.Params.Deadline != b.Params.Deadline {
		return a.Params.Deadline < b.Params.Deadline
	}
	return a.seq < b.seq
}
