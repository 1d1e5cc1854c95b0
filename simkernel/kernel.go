package simkernel

import (
	"fmt"

	"github.com/rtsched/rtsched/csvreport"
	"github.com/rtsched/rtsched/policy"
	"github.com/rtsched/rtsched/rtstats"
	"github.com/rtsched/rtsched/sched"
)

// Kernel is the cycle-stepped dispatch loop: each cycle it releases any
// task whose period boundary has arrived, asks the Scheduler's policy
// engine for the thread to run next, applies the context-switch hooks
// for any change of running thread, advances the running thread's
// execution by one cycle, and reports deadline misses and completions.
//
// This is deliberately a fixed-resolution tick loop rather than a
// real-time goroutine-per-task simulation: spec.md's core makes no
// promise about wall-clock fidelity, and a tick loop keeps the end-to-end
// scenarios of spec.md §8 deterministic and fast to run.
type Kernel struct {
	Sched *sched.Scheduler
	Clock *VirtualClock

	tasks     []*Task
	taskIndex map[string]*Task
	current   string // ID of the thread dispatched last cycle, "" if none

	// OnRow, if set, is called once per completed activation with the
	// CSV row spec.md §6 fixes the format of.
	OnRow func(csvreport.Row)
}

// NewKernel builds a Kernel around a freshly constructed Scheduler using
// p as its comparator and cfg as its statistics gating.
func NewKernel(p policy.Policy, cfg rtstats.Config) *Kernel {
	clock := &VirtualClock{}
	return &Kernel{
		Sched:     sched.New(p, cfg, clock),
		Clock:     clock,
		taskIndex: make(map[string]*Task),
	}
}

// Register adds a periodic task, creating its thread and leaving it
// unreleased until cycle 0 of Run.
func (k *Kernel) Register(t *Task) {
	k.Sched.CreateThread(t.ID)
	t.nextRelease = 0
	k.tasks = append(k.tasks, t)
	k.taskIndex[t.ID] = t
}

// Run steps the kernel forward totalCycles times.
func (k *Kernel) Run(totalCycles int64) error {
	for c := int64(0); c < totalCycles; c++ {
		k.Clock.Advance(1)
		now := k.Clock.Now()

		if err := k.release(now); err != nil {
			return err
		}
		k.reportMisses(now)
		if err := k.dispatch(now); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kernel) release(now int64) error {
	for _, t := range k.tasks {
		if t.MaxActivations > 0 && t.activation >= t.MaxActivations {
			continue
		}
		if now < t.nextRelease {
			continue
		}
		if t.activation > 0 && !t.missReported && t.workDone < t.ExecTime {
			// The previous job's deadline is this release instant and it
			// has not finished: count the miss before the job is replaced.
			t.missReported = true
			k.Sched.OnDeadlineMiss(t.ID)
		}
		if t.activation == 0 {
			if err := k.Sched.RTConfig(t.ID, t.Period, t.ExecTime, t.Weight); err != nil {
				return fmt.Errorf("simkernel: register %s: %w", t.ID, err)
			}
		} else if err := k.Sched.SetAbsoluteDeadline(t.ID, t.activeDead+t.Period); err != nil {
			return fmt.Errorf("simkernel: advance %s: %w", t.ID, err)
		}
		deadline, err := k.Sched.Deadline(t.ID)
		if err != nil {
			return err
		}
		t.activeDead = deadline
		t.workDone = 0
		t.missReported = false
		t.activation++
		t.nextRelease = now + t.Period

		if err := k.Sched.OnActivation(t.ID); err != nil {
			return err
		}
		if err := k.Sched.OnReady(t.ID); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kernel) reportMisses(now int64) {
	for _, t := range k.tasks {
		if t.activation == 0 || t.missReported {
			continue
		}
		if t.workDone >= t.ExecTime {
			continue // already completed this activation
		}
		if now > t.activeDead {
			t.missReported = true
			k.Sched.OnDeadlineMiss(t.ID)
		}
	}
}

func (k *Kernel) dispatch(now int64) error {
	next := k.Sched.PickNext()

	// The running thread is not in the ready set, so PickNext never
	// returns it; it keeps the CPU unless the picked thread precedes it.
	if k.current != "" && next != k.current {
		if next == "" {
			next = k.current
		} else if c, err := k.Sched.Cmp(k.current, next); err != nil {
			return err
		} else if c < 0 {
			next = k.current
		}
	}

	if next != k.current {
		if k.current != "" {
			if err := k.Sched.OnContextSwitchOut(k.current, false); err != nil {
				return err
			}
		}
		if next != "" {
			if _, err := k.Sched.OnContextSwitchIn(next); err != nil {
				return err
			}
		}
		k.current = next
	}

	if next == "" {
		return nil
	}

	if err := k.Sched.Tick(next, 1); err != nil {
		return err
	}
	t := k.taskIndex[next]
	t.workDone++

	if t.workDone >= t.ExecTime {
		if err := k.Sched.OnContextSwitchOut(next, true); err != nil {
			return err
		}
		k.current = ""
		k.emitRow(t, now)
	}
	return nil
}

func (k *Kernel) emitRow(t *Task, completion int64) {
	if k.OnRow == nil {
		return
	}
	release := t.activeDead - t.Period
	k.OnRow(csvreport.Row{
		TimestampMS:   completion,
		TaskID:        taskNumericID(t.ID),
		Activation:    t.activation,
		ResponseMS:    completion - release,
		DeadlineMetMS: t.activeDead,
		CompletionMS:  completion,
		PeriodMS:      t.Period,
		DeadlineMS:    t.Period,
		Weight:        int(t.Weight),
	})
}

// taskNumericID extracts a stable small integer from task IDs formatted
// "t<N>" for the fixed 1..N task_id column of spec.md §6; any other ID
// format reports 0.
func taskNumericID(id string) int {
	var n int
	if _, err := fmt.Sscanf(id, "t%d", &n); err == nil {
		return n
	}
	return 0
}

// Snapshot implements telemetry.Source: the current cycle plus every
// registered task's statistics block.
func (k *Kernel) Snapshot() (int64, map[string]rtstats.Block) {
	out := make(map[string]rtstats.Block, len(k.tasks))
	for _, t := range k.tasks {
		if b, err := k.Sched.StatsGet(t.ID); err == nil {
			out[t.ID] = b
		}
	}
	return k.Clock.Now(), out
}
