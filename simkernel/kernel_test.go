package simkernel

import (
	"testing"

	"github.com/rtsched/rtsched/policy"
	"github.com/rtsched/rtsched/rtstats"
)

func mustPolicy(t *testing.T, name string) policy.Policy {
	t.Helper()
	p, err := policy.Select(name)
	if err != nil {
		t.Fatalf("policy.Select(%q): %v", name, err)
	}
	return p
}

// Scenario 1: schedulable set under plain deadline.
func TestSchedulableSetUnderPlainDeadline(t *testing.T) {
	k := NewKernel(mustPolicy(t, "DEADLINE_ONLY"), rtstats.Config{})
	k.Register(&Task{ID: "t1", Period: 500, ExecTime: 340, MaxActivations: 5})
	k.Register(&Task{ID: "t2", Period: 500, ExecTime: 150, MaxActivations: 5})

	if err := k.Run(2500); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"t1", "t2"} {
		stats, err := k.Sched.StatsGet(id)
		if err != nil {
			t.Fatal(err)
		}
		if stats.Completions != 5 {
			t.Errorf("%s: Completions = %d, want 5", id, stats.Completions)
		}
		if stats.DeadlineMisses != 0 {
			t.Errorf("%s: DeadlineMisses = %d, want 0 (utilization 0.98 is schedulable)", id, stats.DeadlineMisses)
		}
	}
}

// Scenario 2: under overload, weighted EDF gives the heaviest-weight
// task a miss ratio no worse than every lighter task's.
func TestOverloadWeightedEDFProtectsHeavyWeight(t *testing.T) {
	type spec struct {
		util   float64
		weight int64
	}
	specs := []spec{
		{0.35, 2}, {0.30, 1}, {0.25, 3}, {0.20, 1}, {0.175, 1},
	}
	const period = int64(1000)
	const heaviest = 2 // index of the weight=3 task

	k := NewKernel(mustPolicy(t, "MOD_EDF"), rtstats.Config{})
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = overloadTaskID(i)
		k.Register(&Task{
			ID:       ids[i],
			Period:   period,
			ExecTime: int64(s.util * float64(period)),
			Weight:   s.weight,
		})
	}

	if err := k.Run(10_000); err != nil {
		t.Fatal(err)
	}

	heavy, err := k.Sched.StatsGet(ids[heaviest])
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range ids {
		if i == heaviest {
			continue
		}
		light, err := k.Sched.StatsGet(id)
		if err != nil {
			t.Fatal(err)
		}
		if heavy.MissRatio() > light.MissRatio() {
			t.Errorf("weight=3 task miss ratio %.3f exceeds weight=%d task's %.3f, want the heavier-weight task protected",
				heavy.MissRatio(), specs[i].weight, light.MissRatio())
		}
	}
}

func overloadTaskID(i int) string { return "wt" + string(rune('0'+i)) }

// Scenario 3: proportional fairness under PFS. Each task's execution
// time equals its period, so the three always compete for the CPU and
// the runtime each one gets is decided by PFS's weighted shares.
func TestProportionalFairnessUnderPFS(t *testing.T) {
	k := NewKernel(mustPolicy(t, "PFS"), rtstats.Config{})
	weights := []int64{1, 2, 4}
	ids := []string{"p1", "p2", "p3"}
	for i, id := range ids {
		k.Register(&Task{ID: id, Period: 30, ExecTime: 30, Weight: weights[i]})
	}

	if err := k.Run(3000); err != nil {
		t.Fatal(err)
	}

	runtimes := make([]float64, len(ids))
	for i, id := range ids {
		e, err := k.Sched.StatsGet(id)
		if err != nil {
			t.Fatal(err)
		}
		runtimes[i] = float64(e.Execution.Total)
	}

	base := runtimes[0] / float64(weights[0])
	for i := range ids {
		ratio := runtimes[i] / float64(weights[i])
		dev := (ratio - base) / base
		if dev < -0.05 || dev > 0.05 {
			t.Errorf("task %s: runtime/weight ratio deviates %.1f%% from task 0's, want within 5%%", ids[i], dev*100)
		}
	}
}

// Scenario 4: RMS orders completions shorter-exec-time-first.
func TestRMSShorterFirst(t *testing.T) {
	k := NewKernel(mustPolicy(t, "RMS"), rtstats.Config{})
	execTimes := map[string]int64{"short": 10, "mid": 50, "long": 100}
	ids := []string{"short", "mid", "long"}
	for _, id := range ids {
		k.Register(&Task{ID: id, Period: 1000, ExecTime: execTimes[id], MaxActivations: 1})
	}

	completions := map[string]int64{}
	for c := int64(1); c <= 1000 && len(completions) < len(ids); c++ {
		if err := k.Run(1); err != nil {
			t.Fatal(err)
		}
		for _, id := range ids {
			if _, done := completions[id]; done {
				continue
			}
			e, err := k.Sched.StatsGet(id)
			if err != nil {
				t.Fatal(err)
			}
			if e.Completions == 1 {
				completions[id] = c
			}
		}
	}

	if !(completions["short"] < completions["mid"] && completions["mid"] < completions["long"]) {
		t.Errorf("completion cycles short=%d mid=%d long=%d, want strictly increasing", completions["short"], completions["mid"], completions["long"])
	}
}

// Scenario 5: LLF dispatches in order of least laxity.
func TestLeastLaxityPreference(t *testing.T) {
	threads := []struct {
		id       string
		deadline int64
		timeLeft int64
	}{
		{"a", 100, 95},  // laxity 5
		{"b", 200, 150}, // laxity 50
		{"c", 300, 200}, // laxity 100
	}

	s := NewKernel(mustPolicy(t, "LLF"), rtstats.Config{}).Sched
	for _, th := range threads {
		s.CreateThread(th.id)
		s.ExecTimeSet(th.id, th.timeLeft)
		s.SetAbsoluteDeadline(th.id, th.deadline)
		s.TimeLeftSet(th.id, th.timeLeft)
		s.OnReady(th.id)
	}

	for _, want := range []string{"a", "b", "c"} {
		got := s.PickNext()
		if got != want {
			t.Fatalf("PickNext() = %q, want %q", got, want)
		}
		s.OnContextSwitchIn(got)
		s.OnContextSwitchOut(got, true)
	}
}

// Scenario 6: jitter reporting stays tight on a quiet simulator.
func TestJitterReportingBounds(t *testing.T) {
	k := NewKernel(mustPolicy(t, "DEADLINE_ONLY"), rtstats.Config{Detailed: true})
	k.Register(&Task{ID: "solo", Period: 100, ExecTime: 20, MaxActivations: 50})

	if err := k.Run(5000); err != nil {
		t.Fatal(err)
	}

	stats, err := k.Sched.StatsGet("solo")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Activations != 50 {
		t.Errorf("Activations = %d, want 50", stats.Activations)
	}
	if stats.DeadlineMisses != 0 {
		t.Errorf("DeadlineMisses = %d, want 0", stats.DeadlineMisses)
	}
	if j := stats.Response.Jitter(); j > 5 {
		t.Errorf("response jitter = %d, want <= 5 on a quiet simulator with no contention", j)
	}
}
