// notation_print.go - Note pretty-printer

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
notation_print.go is the inverse of notation_parser.go's note_head/
dur_mods grammar: Note.String() renders a single note back to text such
that ParseMusic(note.String()) reproduces an equivalent note (modulo
whitespace and sticky state, which is a parser-wide property, not a
per-note one), per spec.md §8's round-trip testable property. It is not
used anywhere on the synthesis hot path - only by tests and any tooling
that wants to echo back what was parsed.
*/

package main

import (
	"strconv"
	"strings"
)

// tupletMarker is the inverse of tupletCodes in notation_parser.go.
var tupletMarker = map[int]byte{
	3: 't', 5: 'q', 6: 'x', 7: 's', 9: 'n',
}

// String renders n back to LilyPond-style note text.
func (n Note) String() string {
	var b strings.Builder

	if n.IsRest() {
		b.WriteByte('r')
	} else {
		b.WriteByte(n.Letter)
		if n.AccidentalOffset > 0 {
			b.WriteString(strings.Repeat("s", n.AccidentalOffset))
		} else if n.AccidentalOffset < 0 {
			b.WriteString(strings.Repeat("f", -n.AccidentalOffset))
		}
		if n.OctaveShift > 0 {
			b.WriteString(strings.Repeat("'", n.OctaveShift))
		} else if n.OctaveShift < 0 {
			b.WriteString(strings.Repeat(",", -n.OctaveShift))
		}
	}

	if n.Duration != 0 {
		b.WriteString(strconv.Itoa(n.Duration))
	}
	if n.Dotted {
		b.WriteByte('.')
	}
	if marker, ok := tupletMarker[n.Tuplet]; ok {
		b.WriteByte(marker)
	}
	return b.String()
}
