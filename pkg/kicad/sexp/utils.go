package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
)

// FindNode returns the first child list of s whose head is key.
// Example: FindNode(pad, "at") finds (at 100 50).
func FindNode(s kicadsexp.Sexp, key string) (*kicadsexp.List, bool) {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return nil, false
	}
	for _, item := range l.Items() {
		if kicadsexp.Head(item) == key {
			return item.(*kicadsexp.List), true
		}
	}
	return nil, false
}

// FindAllNodes returns every child list of s whose head is key.
func FindAllNodes(s kicadsexp.Sexp, key string) []*kicadsexp.List {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return nil
	}
	var out []*kicadsexp.List
	for _, item := range l.Items() {
		if kicadsexp.Head(item) == key {
			out = append(out, item.(*kicadsexp.List))
		}
	}
	return out
}

// GetString extracts the atom at index, quoted or not. Index 0 is the key.
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return "", fmt.Errorf("expected list, got leaf")
	}
	item := l.Get(index)
	if item == nil {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, l.Len())
	}
	if !item.IsLeaf() {
		return "", fmt.Errorf("expected atom at index %d, got list", index)
	}
	return kicadsexp.Atom(item), nil
}

// GetFloat extracts a float at index.
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q at index %d", str, index)
	}
	return v, nil
}

// GetInt extracts an integer at index.
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q at index %d", str, index)
	}
	return v, nil
}

// GetPosition reads an (at x y [angle]) node.
func GetPosition(s kicadsexp.Sexp) (PositionAngle, error) {
	var pa PositionAngle
	x, err := GetFloat(s, 1)
	if err != nil {
		return pa, fmt.Errorf("x: %w", err)
	}
	y, err := GetFloat(s, 2)
	if err != nil {
		return pa, fmt.Errorf("y: %w", err)
	}
	pa.X, pa.Y = x, y
	if angle, err := GetFloat(s, 3); err == nil {
		pa.Angle = Angle(angle)
	}
	return pa, nil
}

// GetPositionXY reads a (start x y) style node.
func GetPositionXY(s kicadsexp.Sexp) (Position, error) {
	pa, err := GetPosition(s)
	return pa.Position, err
}

// GetStrings returns every atom after the key.
// Example: GetStrings((layers "F.Cu" "B.Cu")) returns [F.Cu B.Cu].
func GetStrings(s kicadsexp.Sexp) []string {
	l, ok := s.(*kicadsexp.List)
	if !ok || l.Len() == 0 {
		return nil
	}
	var out []string
	for _, item := range l.Items()[1:] {
		if item.IsLeaf() {
			out = append(out, kicadsexp.Atom(item))
		}
	}
	return out
}

// HasSymbol reports whether s contains the bare atom symbol.
// Example: HasSymbol((via blind (at 1 2)), "blind").
func HasSymbol(s kicadsexp.Sexp, symbol string) bool {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return false
	}
	for _, item := range l.Items() {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == symbol {
			return true
		}
	}
	return false
}
