// Package config loads the router settings file: a JSON document whose
// keys overlay the negotiation defaults and the design rules. Absent keys
// keep their defaults.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/engine"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

// MaxFileSize caps the settings file.
const MaxFileSize = 1 << 20

// RouterConfig is the settings file. Pointer fields distinguish "absent"
// from zero.
type RouterConfig struct {
	MaxRounds           *int     `json:"max_rounds,omitempty"`
	PresentFactor       *float64 `json:"present_factor,omitempty"`
	PresentFactorGrowth *float64 `json:"present_factor_growth,omitempty"`
	HistoryIncrement    *float64 `json:"history_increment,omitempty"`
	Order               *string  `json:"order,omitempty"`
	Seeds               []uint64 `json:"seeds,omitempty"`
	Diagonal            *bool    `json:"diagonal,omitempty"`
	HeuristicWeight     *float64 `json:"heuristic_weight,omitempty"`
	IterationFactor     *int     `json:"iteration_factor,omitempty"`
	Backend             *string  `json:"backend,omitempty"`

	// Rules overrides design rules by their JSON name, e.g. "trace_width".
	Rules map[string]float64 `json:"rules,omitempty"`
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	var dir string
	if appData := os.Getenv("APPDATA"); appData != "" {
		// Windows: %APPDATA%\OpenTraceRoute
		dir = filepath.Join(appData, "OpenTraceRoute")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		// Linux/macOS: ~/.config/opentraceroute
		dir = filepath.Join(home, ".config", "opentraceroute")
	}
	return filepath.Join(dir, "router.json"), nil
}

// Load reads and validates a settings file.
func Load(path string) (*RouterConfig, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
		return nil, fmt.Errorf("config: %s: expected a .json file: %w", path, routing.ErrInvalidConfig)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("config: %s: larger than %d bytes: %w", path, MaxFileSize, routing.ErrInvalidConfig)
	}

	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads the per-user file, returning an empty config when it
// does not exist.
func LoadDefault() (*RouterConfig, error) {
	path, err := DefaultPath()
	if err != nil {
		return &RouterConfig{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &RouterConfig{}, nil
	}
	return Load(path)
}

// Decode parses and validates a settings document. Unknown keys are
// rejected.
func Decode(data []byte) (*RouterConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg RouterConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", routing.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *RouterConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings by applying them to the defaults.
func (c *RouterConfig) Validate() error {
	nc := negotiate.DefaultConfig()
	if err := c.Apply(nc); err != nil {
		return err
	}
	r := rules.Default()
	return c.ApplyRules(&r)
}

// Apply overlays the settings onto cfg and validates the result.
func (c *RouterConfig) Apply(cfg *negotiate.Config) error {
	if c.MaxRounds != nil {
		cfg.MaxRounds = *c.MaxRounds
	}
	if c.PresentFactor != nil {
		cfg.PresentFactor = *c.PresentFactor
	}
	if c.PresentFactorGrowth != nil {
		cfg.PresentFactorGrowth = *c.PresentFactorGrowth
	}
	if c.HistoryIncrement != nil {
		cfg.HistoryIncrement = *c.HistoryIncrement
	}
	if c.Order != nil {
		o, err := negotiate.ParseOrder(*c.Order)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg.Order = o
	}
	if len(c.Seeds) > 0 {
		cfg.Seed = c.Seeds[0]
	}
	if c.Diagonal != nil {
		cfg.Diagonal = *c.Diagonal
	}
	if c.HeuristicWeight != nil {
		cfg.HeuristicWeight = *c.HeuristicWeight
	}
	if c.IterationFactor != nil {
		cfg.IterationFactor = *c.IterationFactor
	}
	if c.Backend != nil {
		cfg.Backend = engine.ParseBackend(*c.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ApplyRules overlays the rule overrides onto r and validates the result.
func (c *RouterConfig) ApplyRules(r *rules.DesignRules) error {
	if len(c.Rules) == 0 {
		return nil
	}

	// Round-trip through the rules' own JSON names.
	var fields map[string]any
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for k, v := range c.Rules {
		if _, ok := fields[k]; !ok {
			return fmt.Errorf("config: unknown rule %q: %w", k, routing.ErrInvalidConfig)
		}
		fields[k] = v
	}
	if data, err = json.Marshal(fields); err != nil {
		return err
	}

	var out rules.DesignRules
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("config: %w: %w", routing.ErrInvalidConfig, err)
	}
	*r = out
	return nil
}
