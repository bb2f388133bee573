package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/engine"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "router.json", `{
		"max_rounds": 12,
		"order": "complexity",
		"seeds": [7, 8],
		"diagonal": false,
		"backend": "accelerated",
		"rules": {"trace_width": 0.2, "via_cost": 20}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	nc := negotiate.DefaultConfig()
	require.NoError(t, cfg.Apply(nc))
	assert.Equal(t, 12, nc.MaxRounds)
	assert.Equal(t, negotiate.OrderComplexity, nc.Order)
	assert.Equal(t, uint64(7), nc.Seed)
	assert.False(t, nc.Diagonal)
	assert.Equal(t, engine.BackendAccelerated, nc.Backend)
	// untouched keys keep their defaults
	assert.Equal(t, negotiate.DefaultConfig().PresentFactor, nc.PresentFactor)

	r := rules.Default()
	require.NoError(t, cfg.ApplyRules(&r))
	assert.Equal(t, 0.2, r.TraceWidth)
	assert.Equal(t, 20.0, r.ViaCost)
	assert.Equal(t, rules.Default().Resolution, r.Resolution)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]struct {
		name, content string
	}{
		"wrong extension": {"router.yaml", `{}`},
		"unknown key":     {"router.json", `{"max_round": 3}`},
		"bad order":       {"router.json", `{"order": "alphabetical"}`},
		"zero rounds":     {"router.json", `{"max_rounds": 0}`},
		"unknown rule":    {"router.json", `{"rules": {"trace_colour": 1}}`},
		"invalid rule":    {"router.json", `{"rules": {"resolution": -1}}`},
		"not json":        {"router.json", `max_rounds = 3`},
		"too large":       {"router.json", `{"seeds": [` + strings.Repeat("1,", MaxFileSize/2) + `1]}`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.name, tt.content))
			assert.ErrorIs(t, err, routing.ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	rounds := 9
	growth := 1.5
	in := &RouterConfig{MaxRounds: &rounds, PresentFactorGrowth: &growth, Seeds: []uint64{1}}

	path := filepath.Join(t.TempDir(), "nested", "router.json")
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEmptyConfigIsValid(t *testing.T) {
	cfg, err := Decode([]byte(`{}`))
	require.NoError(t, err)

	r := rules.Default()
	require.NoError(t, cfg.ApplyRules(&r))
	assert.Equal(t, rules.Default(), r)
}
