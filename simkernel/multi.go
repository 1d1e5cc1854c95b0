package simkernel

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rtsched/rtsched/policy"
	"github.com/rtsched/rtsched/rtstats"
)

// Scenario is a reusable task-set builder: each policy comparison run
// gets its own fresh Kernel and Task values, since both carry
// per-run mutable state.
type Scenario func() []*Task

// ComparisonResult is one policy's outcome from RunComparison.
type ComparisonResult struct {
	Policy string
	Cycles int64
	Stats  map[string]rtstats.Block
}

// RunComparison runs the same scenario under every named policy
// concurrently and returns each one's final statistics snapshot,
// grounded in the teacher's errgroup-fanned-out reconciliation sweeps
// (itskum47-FluxForge/control_plane/reconciler.go) generalized here from
// "one goroutine per cluster" to "one goroutine per policy".
func RunComparison(ctx context.Context, policies []string, scenario Scenario, cfg rtstats.Config, totalCycles int64) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, len(policies))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range policies {
		i, name := i, name
		g.Go(func() error {
			p, err := policy.Select(name)
			if err != nil {
				return err
			}
			k := NewKernel(p, cfg)
			for _, t := range scenario() {
				k.Register(t)
			}
			if err := k.Run(totalCycles); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			_, stats := k.Snapshot()
			results[i] = ComparisonResult{Policy: name, Cycles: totalCycles, Stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
