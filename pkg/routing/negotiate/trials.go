package negotiate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/astar"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
)

// TrialSummary is the outcome of one shuffled-order trial.
type TrialSummary struct {
	Seed      uint64  `json:"seed"`
	Failures  int     `json:"failures"`
	Overflow  int     `json:"overflow"`
	Length    float64 `json:"length"`
	Rounds    int     `json:"rounds"`
	Converged bool    `json:"converged"`
}

// TrialResult holds the winning run and every trial's summary, sorted by
// seed.
type TrialResult struct {
	Best   *Result        `json:"best"`
	Seed   uint64         `json:"seed"`
	Trials []TrialSummary `json:"trials"`
}

// RunTrials runs one negotiation per seed, each on its own clone of g with
// a shuffled net order, and commits the best trial's grid to g, leaving it
// as a single run with that seed would. Trials run in
// parallel; the choice does not depend on scheduling. The best trial has
// the fewest failed nets, then the lowest overflow, then the shortest
// total length, then the lowest seed.
func RunTrials(ctx context.Context, g *grid.Grid, nets []routing.Net, cfg *Config, seeds []uint64) (*TrialResult, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("negotiate: no trial seeds: %w", routing.ErrInvalidConfig)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateNets(g, nets); err != nil {
		return nil, err
	}

	type trial struct {
		seed uint64
		board *grid.Grid
		res  *Result
		err  error
	}
	trials := make([]trial, len(seeds))

	var wg sync.WaitGroup
	sem := make(chan struct{}, astar.DefaultWorkers())
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed uint64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			c := *cfg
			c.Order = OrderShuffled
			c.Seed = seed
			tg := g.Clone()
			r, err := NewRouter(tg, &c)
			if err != nil {
				trials[i] = trial{seed: seed, err: err}
				return
			}
			res, err := r.Run(ctx, nets, nil)
			trials[i] = trial{seed: seed, board: tg, res: res, err: err}
		}(i, seed)
	}
	wg.Wait()

	out := &TrialResult{}
	var best *trial
	for i := range trials {
		t := &trials[i]
		if t.err != nil {
			return nil, t.err
		}
		out.Trials = append(out.Trials, summarize(t.seed, t.res))
		if best == nil || better(t.seed, t.res, best.seed, best.res) {
			best = t
		}
	}
	sort.Slice(out.Trials, func(a, b int) bool { return out.Trials[a].Seed < out.Trials[b].Seed })

	if err := g.CopyFrom(best.board); err != nil {
		return nil, err
	}
	out.Best = best.res
	out.Seed = best.seed
	routing.Opsf("trials: %d run, seed %d wins with %d failures, overflow %d",
		len(seeds), best.seed, len(best.res.Failures), best.res.Stats.Overflow)
	return out, nil
}

func summarize(seed uint64, r *Result) TrialSummary {
	return TrialSummary{
		Seed:      seed,
		Failures:  len(r.Failures),
		Overflow:  r.Stats.Overflow,
		Length:    r.Stats.TotalLength,
		Rounds:    r.Rounds,
		Converged: r.Converged,
	}
}

func better(sa uint64, a *Result, sb uint64, b *Result) bool {
	if len(a.Failures) != len(b.Failures) {
		return len(a.Failures) < len(b.Failures)
	}
	if a.Stats.Overflow != b.Stats.Overflow {
		return a.Stats.Overflow < b.Stats.Overflow
	}
	if a.Stats.TotalLength != b.Stats.TotalLength {
		return a.Stats.TotalLength < b.Stats.TotalLength
	}
	return sa < sb
}
