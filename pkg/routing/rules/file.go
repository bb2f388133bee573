package rules

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// RulesLexer tokenizes .rules files:
//
//	# fab house minimums
//	trace_width     0.2 mm;
//	trace_clearance 8 mil;
//	via_cost        12;
var RulesLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},
	{Name: "Real", Pattern: `[-+]?[0-9]*\.[0-9]+([eE][-+]?[0-9]+)?`},
	{Name: "Integer", Pattern: `[-+]?[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Semicolon", Pattern: `;`},
})

// File is a parsed .rules file.
type File struct {
	Entries []*Entry `@@*`
}

// Entry is one `key value [unit];` statement.
type Entry struct {
	Pos   lexer.Position
	Key   string  `@Ident`
	Value float64 `@( Real | Integer )`
	Unit  string  `@Ident? Semicolon`
}

var fileParser = participle.MustBuild[File](
	participle.Lexer(RulesLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// mm per unit
var units = map[string]float64{
	"":    1,
	"mm":  1,
	"um":  0.001,
	"mil": 0.0254,
	"in":  25.4,
}

type field struct {
	dimension bool
	set       func(r *DesignRules, v float64)
}

var fields = map[string]field{
	"trace_width":          {true, func(r *DesignRules, v float64) { r.TraceWidth = v }},
	"trace_clearance":      {true, func(r *DesignRules, v float64) { r.TraceClearance = v }},
	"via_drill":            {true, func(r *DesignRules, v float64) { r.ViaDrill = v }},
	"via_diameter":         {true, func(r *DesignRules, v float64) { r.ViaDiameter = v }},
	"via_clearance":        {true, func(r *DesignRules, v float64) { r.ViaClearance = v }},
	"resolution":           {true, func(r *DesignRules, v float64) { r.Resolution = v }},
	"straight_cost":        {false, func(r *DesignRules, v float64) { r.StraightCost = v }},
	"turn_cost":            {false, func(r *DesignRules, v float64) { r.TurnCost = v }},
	"via_cost":             {false, func(r *DesignRules, v float64) { r.ViaCost = v }},
	"congestion_threshold": {false, func(r *DesignRules, v float64) { r.CongestionThreshold = v }},
	"congestion_penalty":   {false, func(r *DesignRules, v float64) { r.CongestionPenalty = v }},
}

// Parse reads a .rules file and overlays its entries onto base. Keys not
// present in the file keep base's value. The merged rules are validated.
func Parse(r io.Reader, base DesignRules) (DesignRules, error) {
	f, err := fileParser.Parse("", r)
	if err != nil {
		return base, fmt.Errorf("rules: parse error: %w", err)
	}
	return f.Apply(base)
}

// ParseString is Parse over an in-memory document.
func ParseString(s string, base DesignRules) (DesignRules, error) {
	return Parse(strings.NewReader(s), base)
}

// ParseFile loads a .rules file from disk.
func ParseFile(path string, base DesignRules) (DesignRules, error) {
	file, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("rules: failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file, base)
}

// Apply overlays the entries onto base and validates the result.
func (f *File) Apply(base DesignRules) (DesignRules, error) {
	out := base
	for _, e := range f.Entries {
		fd, ok := fields[e.Key]
		if !ok {
			return base, fmt.Errorf("rules: %s: unknown key %q: %w", e.Pos, e.Key, routing.ErrInvalidRules)
		}
		scale, ok := units[e.Unit]
		if !ok {
			return base, fmt.Errorf("rules: %s: unknown unit %q: %w", e.Pos, e.Unit, routing.ErrInvalidRules)
		}
		if !fd.dimension && e.Unit != "" {
			return base, fmt.Errorf("rules: %s: %s takes no unit: %w", e.Pos, e.Key, routing.ErrInvalidRules)
		}
		fd.set(&out, e.Value*scale)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
