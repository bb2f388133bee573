// Package kicadsexp provides a lightweight streaming S-expression parser
// and writer for KiCad board files. Unlike general-purpose sexp libraries,
// it handles arbitrarily large files by streaming, and it remembers which
// atoms were quoted so boards can be written back the way KiCad expects.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp represents an S-expression node: an atom or a list.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// String returns the source representation
	String() string
}

// Symbol is an unquoted atom (identifier, keyword or number).
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) String() string { return string(s) }

// Quoted is an atom that appeared in double quotes, stored unescaped.
type Quoted string

func (q Quoted) IsLeaf() bool   { return true }
func (q Quoted) String() string { return quote(string(q)) }

// List represents a list of S-expressions.
type List struct {
	elements []Sexp
}

// NewList builds a list from its elements.
func NewList(elems ...Sexp) *List {
	return &List{elements: elems}
}

func (l *List) IsLeaf() bool { return false }

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range l.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Get returns the element at the given index, nil when out of range.
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

// Len returns the number of elements in the list.
func (l *List) Len() int {
	return len(l.elements)
}

// Items returns the elements. The slice is shared with the list.
func (l *List) Items() []Sexp {
	return l.elements
}

// Append adds elements to the end of the list.
func (l *List) Append(elems ...Sexp) {
	l.elements = append(l.elements, elems...)
}

// Head returns the first atom of a list as a string, "" when the list is
// empty or starts with a sublist.
func Head(s Sexp) string {
	l, ok := s.(*List)
	if !ok || l.Len() == 0 {
		return ""
	}
	return Atom(l.elements[0])
}

// Atom returns the text of an atom, quoted or not, and "" for lists.
func Atom(s Sexp) string {
	switch v := s.(type) {
	case Symbol:
		return string(v)
	case Quoted:
		return string(v)
	}
	return ""
}

// Parse parses every top-level S-expression from r.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses S-expressions from a string.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
