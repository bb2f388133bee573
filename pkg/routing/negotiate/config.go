package negotiate

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/astar"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/engine"
)

// Config controls the negotiation loop.
type Config struct {
	// Convergence
	MaxRounds           int     // Rounds before giving up with overflow (default: 30)
	PresentFactor       float64 // Weight of this round's usage in the step cost (default: 1)
	PresentFactorGrowth float64 // Multiplier applied to PresentFactor after each round (default: 2)
	HistoryIncrement    float64 // History added to each overused cell per round (default: 1)

	// Net ordering
	Order Order  // Order nets are routed in each round (default: priority)
	Seed  uint64 // Seed for OrderShuffled; always caller supplied

	// Search
	Diagonal        bool    // Allow 45 degree moves (default: true)
	HeuristicWeight float64 // >1 trades optimality for speed (default: 1)
	IterationFactor int     // Expansion budget per search, times grid cells (default: 4)

	Backend engine.Backend // Engine implementation (default: reference)
}

// DefaultConfig returns a Config with sensible defaults for most boards.
func DefaultConfig() *Config {
	return &Config{
		MaxRounds:           30,
		PresentFactor:       1,
		PresentFactorGrowth: 2,
		HistoryIncrement:    1,
		Order:               OrderPriority,
		Diagonal:            true,
		HeuristicWeight:     1,
		IterationFactor:     astar.DefaultIterationFactor,
		Backend:             engine.BackendReference,
	}
}

// Validate checks the configuration. Zero values for the order, backend
// and iteration factor are replaced by their defaults.
func (c *Config) Validate() error {
	if c.MaxRounds < 1 {
		return fmt.Errorf("negotiate: max rounds must be at least 1, got %d: %w", c.MaxRounds, routing.ErrInvalidConfig)
	}
	if c.PresentFactor < 0 {
		return fmt.Errorf("negotiate: present factor must be non-negative, got %g: %w", c.PresentFactor, routing.ErrInvalidConfig)
	}
	if c.PresentFactorGrowth < 1 {
		return fmt.Errorf("negotiate: present factor growth must be at least 1, got %g: %w", c.PresentFactorGrowth, routing.ErrInvalidConfig)
	}
	if !(c.HistoryIncrement > 0) {
		return fmt.Errorf("negotiate: history increment must be positive, got %g: %w", c.HistoryIncrement, routing.ErrInvalidConfig)
	}
	if c.HeuristicWeight < 1 {
		return fmt.Errorf("negotiate: heuristic weight must be at least 1, got %g: %w", c.HeuristicWeight, routing.ErrInvalidConfig)
	}

	if c.IterationFactor < 1 {
		c.IterationFactor = astar.DefaultIterationFactor
	}
	if c.Order == "" {
		c.Order = OrderPriority
	}
	if _, err := ParseOrder(string(c.Order)); err != nil {
		return err
	}
	if c.Backend == "" {
		c.Backend = engine.BackendReference
	}
	return nil
}

func (c *Config) searchOptions() []astar.Option {
	return []astar.Option{
		astar.WithDiagonal(c.Diagonal),
		astar.WithHeuristicWeight(c.HeuristicWeight),
		astar.WithIterationFactor(c.IterationFactor),
	}
}

// ParseOrder maps a policy name onto an Order.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderPriority, OrderComplexity, OrderDeclared, OrderShuffled:
		return o, nil
	}
	return "", fmt.Errorf("negotiate: unknown net order %q: %w", s, routing.ErrInvalidConfig)
}
