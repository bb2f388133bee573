// Package session runs one routing job: settings are resolved into design
// rules and a router config, the problem is laid onto a fresh grid and the
// negotiation runs once, or once per seed when several seeds are given.
package session

import (
	"context"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceRoute/internal/config"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

// Job is a problem plus the settings to route it with. Nil Settings means
// defaults.
type Job struct {
	Problem  *pcb.Problem
	Rules    rules.DesignRules
	Settings *config.RouterConfig
	Progress chan<- negotiate.Progress
}

// Outcome is what a job produced. Grid holds the committed routes.
type Outcome struct {
	Result *negotiate.Result
	Trials *negotiate.TrialResult
	Grid   *grid.Grid
	Rules  rules.DesignRules
	Config negotiate.Config
}

// Resolve turns settings into validated rules and router config.
func Resolve(base rules.DesignRules, s *config.RouterConfig) (rules.DesignRules, *negotiate.Config, []uint64, error) {
	r := base
	cfg := negotiate.DefaultConfig()
	if s == nil {
		if err := r.Validate(); err != nil {
			return r, nil, nil, err
		}
		return r, cfg, nil, nil
	}
	if err := s.ApplyRules(&r); err != nil {
		return r, nil, nil, err
	}
	if err := r.Validate(); err != nil {
		return r, nil, nil, err
	}
	if err := s.Apply(cfg); err != nil {
		return r, nil, nil, err
	}
	return r, cfg, s.Seeds, nil
}

// Run executes the job.
func Run(ctx context.Context, job Job) (*Outcome, error) {
	if job.Problem == nil {
		return nil, fmt.Errorf("session: no problem: %w", routing.ErrInvalidNet)
	}
	r, cfg, seeds, err := Resolve(job.Rules, job.Settings)
	if err != nil {
		return nil, err
	}
	g, err := job.Problem.NewGrid(r)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Grid: g, Rules: r}

	if len(seeds) > 1 {
		tr, err := negotiate.RunTrials(ctx, g, job.Problem.Nets, cfg, seeds)
		if err != nil {
			return nil, err
		}
		out.Trials, out.Result, out.Config = tr, tr.Best, *cfg
		return out, nil
	}

	router, err := negotiate.NewRouter(g, cfg)
	if err != nil {
		return nil, err
	}
	res, err := router.Run(ctx, job.Problem.Nets, job.Progress)
	if err != nil {
		return nil, err
	}
	out.Result, out.Config = res, *cfg
	return out, nil
}
