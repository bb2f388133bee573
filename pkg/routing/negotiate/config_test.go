package negotiate

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/engine"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.MaxRounds)
	assert.Equal(t, OrderPriority, cfg.Order)
	assert.Equal(t, engine.BackendReference, cfg.Backend)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"zero rounds":        func(c *Config) { c.MaxRounds = 0 },
		"negative pf":        func(c *Config) { c.PresentFactor = -1 },
		"shrinking pf":       func(c *Config) { c.PresentFactorGrowth = 0.5 },
		"zero history":       func(c *Config) { c.HistoryIncrement = 0 },
		"weight below one":   func(c *Config) { c.HeuristicWeight = 0.5 },
		"unknown order name": func(c *Config) { c.Order = "alphabetical" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), routing.ErrInvalidConfig)
		})
	}
}

func TestConfigValidateFillsDefaults(t *testing.T) {
	cfg := &Config{MaxRounds: 5, PresentFactorGrowth: 1, HistoryIncrement: 1, HeuristicWeight: 1}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, OrderPriority, cfg.Order)
	assert.Equal(t, engine.BackendReference, cfg.Backend)
	assert.Equal(t, 4, cfg.IterationFactor)
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{
		"priority":     OrderPriority,
		" Complexity ": OrderComplexity,
		"DECLARED":     OrderDeclared,
		"shuffled":     OrderShuffled,
	} {
		got, err := ParseOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseOrder("random")
	assert.ErrorIs(t, err, routing.ErrInvalidConfig)
}

func orderNets() []routing.Net {
	return []routing.Net{
		{ID: 4, Priority: 0, Terminals: []routing.Terminal{term(0, 0, 0), term(5, 5, 0)}},
		{ID: 2, Priority: 3, Terminals: []routing.Terminal{term(0, 0, 0), term(1, 1, 0)}},
		{ID: 3, Priority: 3, Terminals: []routing.Terminal{term(0, 0, 0), term(8, 0, 0)}},
		{ID: 1, Priority: 1, Terminals: []routing.Terminal{term(0, 0, 0), term(2, 0, 0)}},
	}
}

func TestOrderSequence(t *testing.T) {
	nets := orderNets()
	assert.Equal(t, []int{1, 2, 3, 0}, OrderPriority.sequence(nets, 0, 0))
	assert.Equal(t, []int{3, 1, 2, 0}, OrderComplexity.sequence(nets, 0, 0))
	assert.Equal(t, []int{0, 1, 2, 3}, OrderDeclared.sequence(nets, 0, 0))
}

func TestOrderShuffledIsSeeded(t *testing.T) {
	nets := make([]routing.Net, 12)
	for i := range nets {
		nets[i].ID = i
	}
	a := OrderShuffled.sequence(nets, 42, 3)
	b := OrderShuffled.sequence(nets, 42, 3)
	assert.Equal(t, a, b)

	sorted := append([]int(nil), a...)
	sort.Ints(sorted)
	assert.Equal(t, OrderDeclared.sequence(nets, 0, 0), sorted, "not a permutation")
}
