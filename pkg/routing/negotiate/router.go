// Package negotiate drives the pathfinder over every net of a board in
// PathFinder-style rip-up-and-reroute rounds.
//
// Each round routes every net against the current costs with sharing
// enabled, so nets may temporarily overlap. Cells claimed by more than one
// net count as overflow. While overflow remains, overused cells gain
// history cost, all routes are ripped up, the present-usage factor grows,
// and the next round starts. The loop stops at zero overflow or after
// MaxRounds with the overflow reported.
//
// With a fixed net order the loop is deterministic: identical nets, rules
// and config give identical routes and identical grid occupancy.
package negotiate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/astar"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/engine"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
)

// Progress reports the state of a run.
type Progress struct {
	Phase    string // "round", "net", "done"
	Round    int    // Current round (0-based)
	Index    int    // Position of the current net in this round's order
	Total    int    // Number of nets
	Net      int    // Net id being routed
	Overflow int    // Overflow at the end of the previous round
}

// Stats aggregates a run.
type Stats struct {
	NetsRouted  int     `json:"nets_routed"`
	NetsTotal   int     `json:"nets_total"`
	Vias        int     `json:"vias"`
	TotalLength float64 `json:"total_length"`
	Overflow    int     `json:"overflow"`
}

// Failure describes a net left unrouted.
type Failure struct {
	Net    int                   `json:"net"`
	Name   string                `json:"name,omitempty"`
	Reason routing.FailureReason `json:"reason"`
}

// Result is the outcome of a run. Routes are in the order the nets were
// given, one per net; routed copper is left marked on the grid.
type Result struct {
	SessionID       string                `json:"session_id"`
	Routes          []routing.RouteResult `json:"routes"`
	Rounds          int                   `json:"rounds"`
	Converged       bool                  `json:"converged"`
	Cancelled       bool                  `json:"cancelled,omitempty"`
	OverflowHistory []int                 `json:"overflow_history"`
	Stats           Stats                 `json:"stats"`
	Failures        []Failure             `json:"failures,omitempty"`
	// Conflicts lists nets whose copper still overlaps another net's when
	// the loop stopped without converging.
	Conflicts []int `json:"conflicts,omitempty"`
}

// Router runs negotiation sessions on one grid.
type Router struct {
	g   *grid.Grid
	cfg *Config
	eng engine.Engine
}

// NewRouter validates cfg (nil means DefaultConfig) and selects the
// engine backend once.
func NewRouter(g *grid.Grid, cfg *Config) (*Router, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Router{
		g:   g,
		cfg: cfg,
		eng: engine.New(cfg.Backend, g, cfg.searchOptions()...),
	}, nil
}

// Engine returns the engine the router routes with.
func (r *Router) Engine() engine.Engine { return r.eng }

// ValidateNets checks every net before any grid state is touched:
// at least two terminals, and every terminal inside the grid on existing
// layers.
func ValidateNets(g *grid.Grid, nets []routing.Net) error {
	seen := make(map[int]bool, len(nets))
	for _, n := range nets {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("negotiate: %w", err)
		}
		if seen[n.ID] {
			return fmt.Errorf("negotiate: duplicate net id %d: %w", n.ID, routing.ErrInvalidNet)
		}
		seen[n.ID] = true
		for i, t := range n.Terminals {
			if _, _, err := g.WorldToGridChecked(t.Pos); err != nil {
				return fmt.Errorf("negotiate: net %d (%s) terminal %d: %w", n.ID, n.Name, i, err)
			}
			for _, l := range t.Layers {
				if l >= g.Layers() {
					return fmt.Errorf("negotiate: net %d (%s) terminal %d: layer %d of %d: %w",
						n.ID, n.Name, i, l, g.Layers(), routing.ErrOutOfRange)
				}
			}
		}
	}
	return nil
}

// Run routes nets until overflow reaches zero or MaxRounds is hit. A
// failing net is not an error; errors are returned only for invalid input.
//
// The context is checked between nets. When it is cancelled the run stops
// before the next net and returns the partial result with Cancelled set;
// a search already in progress always completes. progress may be nil;
// updates are dropped when the channel is full.
func (r *Router) Run(ctx context.Context, nets []routing.Net, progress chan<- Progress) (*Result, error) {
	if err := ValidateNets(r.g, nets); err != nil {
		return nil, err
	}

	conns := make([][]connection, len(nets))
	for i, n := range nets {
		conns[i] = decompose(n)
	}

	res := &Result{
		SessionID: uuid.NewString(),
		Routes:    make([]routing.RouteResult, len(nets)),
	}
	for i, n := range nets {
		res.Routes[i] = routing.Failed(n.ID, routing.FailureNotAttempted)
	}

	r.g.BeginSession()
	pf := r.cfg.PresentFactor
	routing.Opsf("session %s: %d nets, %d connections, backend %s",
		res.SessionID, len(nets), countConns(conns), r.eng.Name())

	for round := 0; round < r.cfg.MaxRounds; round++ {
		res.Rounds = round + 1
		r.g.ResetUsage()
		send(progress, Progress{Phase: "round", Round: round, Total: len(nets), Overflow: lastOverflow(res)})

		order := r.cfg.Order.sequence(nets, r.cfg.Seed, round)
		for pos, i := range order {
			select {
			case <-ctx.Done():
				routing.Opsf("session %s: cancelled in round %d before net %d", res.SessionID, round, nets[i].ID)
				for _, j := range order[pos:] {
					res.Routes[j] = routing.Failed(nets[j].ID, routing.FailureCancelled)
				}
				res.Cancelled = true
				r.finish(res, nets)
				return res, nil
			default:
			}

			send(progress, Progress{Phase: "net", Round: round, Index: pos, Total: len(nets), Net: nets[i].ID})
			res.Routes[i] = r.routeNet(nets[i], conns[i], pf)
		}

		overflow := r.g.TotalOverflow()
		res.OverflowHistory = append(res.OverflowHistory, overflow)
		routing.Opsf("session %s: round %d overflow %d, pf %.3g", res.SessionID, round, overflow, pf)

		if overflow == 0 {
			res.Converged = true
			break
		}
		if round == r.cfg.MaxRounds-1 {
			break
		}

		r.g.UpdateHistoryCosts(r.cfg.HistoryIncrement)
		for _, rr := range res.Routes {
			r.eng.UnmarkRoute(rr)
		}
		pf *= r.cfg.PresentFactorGrowth
	}

	r.finish(res, nets)
	send(progress, Progress{Phase: "done", Round: res.Rounds - 1, Total: len(nets), Overflow: res.Stats.Overflow})
	return res, nil
}

// routeNet routes every connection of a net, marking each as it goes so
// later connections can run along earlier ones. If any connection fails
// the whole net is ripped up again and reported failed.
func (r *Router) routeNet(n routing.Net, conns []connection, pf float64) routing.RouteResult {
	out := routing.RouteResult{Net: n.ID, Success: true}
	for _, c := range conns {
		cr := r.eng.Route(astar.Request{
			Net:           n.ID,
			Start:         c.a,
			Goal:          c.b,
			Sharing:       true,
			Negotiated:    true,
			PresentFactor: pf,
		})
		if !cr.Success {
			r.eng.UnmarkRoute(out)
			routing.Diagf("net %d (%s): %v after %d expansions", n.ID, n.Name, cr.Failure, cr.Expanded)
			failed := routing.Failed(n.ID, cr.Failure)
			failed.Expanded = out.Expanded + cr.Expanded
			return failed
		}
		r.eng.MarkRoute(cr)
		out = out.Merge(cr)
	}

	for _, idx := range r.g.RouteCells(out) {
		r.g.IncrementUsageAt(idx)
	}
	return out
}

func (r *Router) finish(res *Result, nets []routing.Net) {
	res.Stats = Stats{NetsTotal: len(nets), Overflow: r.g.TotalOverflow()}
	res.Failures = nil
	res.Conflicts = nil
	for i, rr := range res.Routes {
		if !rr.Success {
			res.Failures = append(res.Failures, Failure{Net: nets[i].ID, Name: nets[i].Name, Reason: rr.Failure})
			continue
		}
		res.Stats.NetsRouted++
		res.Stats.Vias += len(rr.Vias)
		res.Stats.TotalLength += rr.Length()

		if res.Stats.Overflow > 0 {
			for _, idx := range r.g.RouteCells(rr) {
				if r.g.CellAt(idx).Usage > 1 {
					res.Conflicts = append(res.Conflicts, rr.Net)
					break
				}
			}
		}
	}
	routing.Opsf("session %s: routed %d/%d nets in %d round(s), %d vias, length %.2fmm, overflow %d",
		res.SessionID, res.Stats.NetsRouted, res.Stats.NetsTotal, res.Rounds,
		res.Stats.Vias, res.Stats.TotalLength, res.Stats.Overflow)
}

func send(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
	}
}

func lastOverflow(res *Result) int {
	if len(res.OverflowHistory) == 0 {
		return 0
	}
	return res.OverflowHistory[len(res.OverflowHistory)-1]
}

func countConns(conns [][]connection) int {
	n := 0
	for _, c := range conns {
		n += len(c)
	}
	return n
}
