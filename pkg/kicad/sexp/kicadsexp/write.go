package kicadsexp

import (
	"bufio"
	"io"
	"strings"
)

// Write formats s the way KiCad does: a list holding sublists puts each
// sublist on its own line, indented by two spaces per level; lists of atoms
// stay on one line.
func Write(w io.Writer, s Sexp) error {
	bw := bufio.NewWriter(w)
	write(bw, s, 0)
	bw.WriteByte('\n')
	return bw.Flush()
}

func write(w *bufio.Writer, s Sexp, depth int) {
	l, ok := s.(*List)
	if !ok {
		w.WriteString(s.String())
		return
	}

	w.WriteByte('(')
	nested := false
	for i, elem := range l.elements {
		if _, isList := elem.(*List); isList && i > 0 {
			nested = true
			w.WriteByte('\n')
			w.WriteString(strings.Repeat("  ", depth+1))
		} else if i > 0 {
			w.WriteByte(' ')
		}
		write(w, elem, depth+1)
	}
	if nested {
		w.WriteByte('\n')
		w.WriteString(strings.Repeat("  ", depth))
	}
	w.WriteByte(')')
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
