// notation_parser.go - LilyPond-style music notation parser

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
notation_parser.go scans the compact text grammar described in spec.md
§4.4 into an ordered []Note. It never reports an error: a byte it
cannot make sense of simply ends parsing, and everything understood
before that point is kept (the "longest understood prefix" rule). A
note or chord with a bad numeric duration is dropped and scanning
resumes after it, rather than aborting the whole parse; an oversize
chord keeps its first maxChordSize members. An unterminated instrument
bracket or chord ends parsing, like any other byte the scanner cannot
use.

Two pieces of sticky state carry across tokens: lastDuration (the most
recently seen valid power-of-two duration, seeded at 4) and
currentInstrument (replaced by each [name] token). Neither the dotted
flag nor the tuplet code is sticky - both apply only to the token that
carries them.
*/

package main

import "strings"

// Note is the parser's per-token output: one playable pitch (or rest)
// with its duration/articulation modifiers and the instrument in effect
// when it was parsed.
type Note struct {
	Letter            byte // 'a'..'g', or 0 for a rest
	AccidentalOffset  int  // accumulated ±1 per s/f
	OctaveShift       int  // accumulated ±1 per '/,
	Duration          int  // denominator: 1,2,4,8,16,32,64,128
	Dotted            bool
	Tuplet            int // 0,3,5,6,7,9
	ChordID           int // 0 for a standalone note
	Instrument        Instrument
}

// IsRest reports whether this note is a rest (carries no pitch).
func (n Note) IsRest() bool { return n.Letter == 0 }

// validDurations is the set of denominators a numeric duration literal
// may name; anything else is an invalid literal per spec.md §4.4.
var validDurations = map[int]bool{
	1: true, 2: true, 4: true, 8: true, 16: true, 32: true, 64: true, 128: true,
}

// tupletCodes maps the five tuplet-marker bytes to their tuplet code.
var tupletCodes = map[byte]int{
	't': 3, 'q': 5, 'x': 6, 's': 7, 'n': 9,
}

const (
	maxInstrumentNameLen = 31
	maxChordSize         = 8
)

type notationParser struct {
	src               string
	pos               int
	lastDuration      int
	currentInstrument Instrument
	nextChordID       int
	notes             []Note
}

// ParseMusic tokenizes music text into an ordered []Note per spec.md
// §4.4. It never returns an error: parsing stops at the first byte it
// cannot interpret as whitespace, an instrument token, a chord, or a
// note, and everything parsed up to that point is returned.
func ParseMusic(src string) []Note {
	p := &notationParser{src: src, lastDuration: 4, currentInstrument: defaultInstrument}
	p.run()
	return p.notes
}

func (p *notationParser) run() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case isSpace(c):
			p.pos++
		case c == '[':
			if !p.parseInstrument() {
				return
			}
		case c == '<':
			if !p.parseChord() {
				return
			}
		case c == 'r' || isNoteLetter(c):
			p.parseNote()
		default:
			// Unrecognized byte: stop. Already-parsed notes are kept.
			return
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNoteLetter(c byte) bool {
	return c >= 'a' && c <= 'g'
}

// parseInstrument consumes a '[name]' token and replaces
// currentInstrument for all subsequent notes. Returns false if the
// bracket is never closed (unterminated - parsing ends here).
func (p *notationParser) parseInstrument() bool {
	start := p.pos + 1
	end := strings.IndexByte(p.src[start:], ']')
	if end < 0 {
		return false // missing ']' terminator: stop parsing
	}
	name := p.src[start : start+end]
	if len(name) > maxInstrumentNameLen {
		name = name[:maxInstrumentNameLen]
	}
	p.currentInstrument = lookupInstrument(name)
	p.pos = start + end + 1
	return true
}

// parseChord consumes '<' (ws? note_head)* ws? '>' dur_mods?, assigning
// every member the same fresh chord id and the single shared duration
// token that follows '>'. A chord whose duration literal is invalid is
// dropped as a whole. Returns false if '>' is never found.
func (p *notationParser) parseChord() bool {
	p.pos++ // consume '<'
	var heads []noteHead
	for {
		for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
			p.pos++
		}
		if p.pos >= len(p.src) {
			return false // unterminated chord
		}
		if p.src[p.pos] == '>' {
			break
		}
		if p.src[p.pos] != 'r' && !isNoteLetter(p.src[p.pos]) {
			return false // unexpected byte inside chord
		}
		heads = append(heads, p.parseNoteHead())
	}
	p.pos++ // consume '>'
	duration, dotted, tuplet, ok := p.parseDurModsChecked()
	if !ok {
		return true // invalid duration literal: every member is dropped
	}

	if len(heads) > maxChordSize {
		heads = heads[:maxChordSize] // surplus members silently dropped
	}
	if len(heads) == 0 {
		return true
	}
	chordID := p.nextChordID + 1
	p.nextChordID = chordID
	for _, h := range heads {
		p.notes = append(p.notes, Note{
			Letter:           h.letter,
			AccidentalOffset: h.accidental,
			OctaveShift:      h.octave,
			Duration:         duration,
			Dotted:           dotted,
			Tuplet:           tuplet,
			ChordID:          chordID,
			Instrument:       p.currentInstrument,
		})
	}
	return true
}

// parseNote consumes note_head dur_mods? and appends one standalone
// Note (ChordID 0), unless the duration literal was invalid, in which
// case the note is dropped per spec.md §4.4.
func (p *notationParser) parseNote() {
	h := p.parseNoteHead()
	duration, dotted, tuplet, ok := p.parseDurModsChecked()
	if !ok {
		return
	}
	p.notes = append(p.notes, Note{
		Letter:           h.letter,
		AccidentalOffset: h.accidental,
		OctaveShift:      h.octave,
		Duration:         duration,
		Dotted:           dotted,
		Tuplet:           tuplet,
		Instrument:       p.currentInstrument,
	})
}

// noteHead is the pitch portion of a note, before duration modifiers.
type noteHead struct {
	letter     byte // 0 for rest
	accidental int
	octave     int
}

// parseNoteHead consumes 'r' | (letter accidentals? octaves?). Per
// spec.md §8's commutativity property, accidental (s/f) and octave
// ('/,) marks may appear interleaved in any order directly after the
// letter; any other byte, or the end of input, stops the scan.
func (p *notationParser) parseNoteHead() noteHead {
	c := p.src[p.pos]
	p.pos++
	if c == 'r' {
		return noteHead{}
	}
	h := noteHead{letter: c}
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case 's':
			h.accidental++
			p.pos++
		case 'f':
			h.accidental--
			p.pos++
		case '\'':
			h.octave++
			p.pos++
		case ',':
			h.octave--
			p.pos++
		default:
			return h
		}
	}
	return h
}

// parseDurMods consumes digits? '.'? tuplet? and always returns a
// duration, falling back to lastDuration on an invalid literal.
func (p *notationParser) parseDurMods() (duration int, dotted bool, tuplet int) {
	duration, dotted, tuplet, _ = p.parseDurModsChecked()
	return
}

// parseDurModsChecked consumes digits? '.'? tuplet?. ok is false only
// when a numeric literal was present but not a valid power-of-two
// duration (1,2,4,8,16,32,64,128) - the caller must drop the note.
func (p *notationParser) parseDurModsChecked() (duration int, dotted bool, tuplet int, ok bool) {
	digitsStart := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	hasDigits := p.pos > digitsStart

	duration = p.lastDuration
	ok = true
	if hasDigits {
		n := 0
		for i := digitsStart; i < p.pos; i++ {
			n = n*10 + int(p.src[i]-'0')
		}
		if !validDurations[n] {
			ok = false
		} else {
			duration = n
			p.lastDuration = n
		}
	}

	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		dotted = true
		p.pos++
	}

	if p.pos < len(p.src) {
		if code, isTuplet := tupletCodes[p.src[p.pos]]; isTuplet {
			tuplet = code
			p.pos++
		}
	}
	return
}
