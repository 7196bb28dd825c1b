// music_theory.go - Key signatures, temperaments, and pitch-to-frequency derivation

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

package main

import (
	"math"
	"strings"
)

// ------------------------------------------------------------------------------
// Letter-Name Semitone Offsets
// ------------------------------------------------------------------------------
// letterSemitone maps a natural letter name to its semitone offset from C
// within one octave: c=0 d=2 e=4 f=5 g=7 a=9 b=11.
var letterSemitone = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// letterOrder is the fixed C,D,E,F,G,A,B ordering used to index
// KeySignature.Accidentals.
var letterOrder = [7]byte{'c', 'd', 'e', 'f', 'g', 'a', 'b'}

const restSemitone = -1 // Sentinel absolute semitone for rests / invalid notes

// ------------------------------------------------------------------------------
// KeySignature
// ------------------------------------------------------------------------------

// KeySignature names a major/minor key pair and the per-letter
// accidental it implies when a note of that letter carries no explicit
// accidental of its own. Accidentals is indexed by position in
// letterOrder (C,D,E,F,G,A,B), values in {-1,0,+1}.
type KeySignature struct {
	Name        string
	Accidentals [7]int
}

// accidentalFor returns the key's implied accidental for a letter, or 0
// if the letter is not in letterOrder (never happens for valid input).
func (k KeySignature) accidentalFor(letter byte) int {
	for i, l := range letterOrder {
		if l == letter {
			return k.Accidentals[i]
		}
	}
	return 0
}

// keySignatures is the flat list of the 15 major/minor key pairs; each
// major key and its relative minor share one entry since they share
// accidentals and, per spec.md §4.2, a tonic.
var keySignatures = []KeySignature{
	{"C major / A minor", [7]int{0, 0, 0, 0, 0, 0, 0}},
	{"G major / E minor", [7]int{0, 0, 0, 1, 0, 0, 0}},
	{"D major / B minor", [7]int{1, 0, 0, 1, 0, 0, 0}},
	{"A major / F# minor", [7]int{1, 0, 0, 1, 1, 0, 0}},
	{"E major / C# minor", [7]int{1, 1, 0, 1, 1, 0, 0}},
	{"B major / G# minor", [7]int{1, 1, 0, 1, 1, 1, 0}},
	{"F# major / D# minor", [7]int{1, 1, 1, 1, 1, 1, 0}},
	{"C# major / A# minor", [7]int{1, 1, 1, 1, 1, 1, 1}},
	{"F major / D minor", [7]int{0, 0, 0, 0, 0, 0, -1}},
	{"Bb major / G minor", [7]int{0, 0, -1, 0, 0, 0, -1}},
	{"Eb major / C minor", [7]int{0, 0, -1, 0, 0, -1, -1}},
	{"Ab major / F minor", [7]int{0, -1, -1, 0, 0, -1, -1}},
	{"Db major / Bb minor", [7]int{0, -1, -1, 0, -1, -1, -1}},
	{"Gb major / Eb minor", [7]int{-1, -1, -1, 0, -1, -1, -1}},
	{"Cb major / Ab minor", [7]int{-1, -1, -1, -1, -1, -1, -1}},
}

// keyTonicSemitone gives each key's tonic as a semitone offset from C,
// in the same order as keySignatures, used by calculateKeyTransposition.
var keyTonicSemitone = []int{0, 7, 2, 9, 4, 11, 6, 1, 5, 10, 3, 8, 1, 6, 11}

// CMajor is the default key used when the parser/compiler is given none.
var CMajor = keySignatures[0]

// calculateKeyTransposition returns the semitone shift between the
// tonics of two keys, per spec.md §4.2.
func calculateKeyTransposition(from, to KeySignature) int {
	fromIdx, toIdx := keyIndex(from), keyIndex(to)
	return keyTonicSemitone[toIdx] - keyTonicSemitone[fromIdx]
}

func keyIndex(k KeySignature) int {
	for i := range keySignatures {
		if keySignatures[i].Name == k.Name {
			return i
		}
	}
	return 0
}

// LookupKeySignature resolves a key by a case-insensitive match against
// either half of its Name ("C major", "a minor", or the full "C major /
// A minor" all resolve the same entry). An unrecognized name falls back
// to CMajor, matching the registry lookup pattern instruments.go uses
// for unknown instrument names - no error channel for a CLI convenience
// lookup like this one.
func LookupKeySignature(name string) KeySignature {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CMajor
	}
	for _, k := range keySignatures {
		if strings.ToLower(k.Name) == name {
			return k
		}
		for _, half := range strings.Split(k.Name, "/") {
			if strings.TrimSpace(strings.ToLower(half)) == name {
				return k
			}
		}
	}
	return CMajor
}

// ------------------------------------------------------------------------------
// Temperament
// ------------------------------------------------------------------------------

// TemperamentKind tags which frequency function a Temperament computes,
// dispatched in the hot path via a switch rather than an indirect call
// (see spec.md §9 on function pointers vs tagged variants).
type TemperamentKind int

const (
	TemperamentEqual TemperamentKind = iota
	TemperamentWerckmeisterIII
)

// Temperament is a named, pure absolute-semitone-to-Hz function.
type Temperament struct {
	Name string
	Kind TemperamentKind
}

var EqualTemperament = Temperament{Name: "equal", Kind: TemperamentEqual}
var WerckmeisterIII = Temperament{Name: "werckmeister3", Kind: TemperamentWerckmeisterIII}

// c0Hz is the equal-temperament reference: A4=440Hz implies
// C0 = 440 / 2^(57/12) = 16.351597831287414 Hz.
const c0Hz = 16.351597831287414

// c4Hz is the Werckmeister III reference pitch.
const c4Hz = 261.626

// werckmeisterIIIRatios is the fixed 12-entry chromatic ratio table
// from spec.md §6, indexed by chromatic position relative to C4.
var werckmeisterIIIRatios = [12]float64{
	1.0000000, 1.0535686, 1.1174011, 1.1852459, 1.2533331, 1.3333333,
	1.4062500, 1.4953488, 1.5802469, 1.6735537, 1.7777778, 1.8877551,
}

// computeFrequency returns the Hz value a temperament assigns to an
// absolute semitone. Only the rest sentinel (restSemitone) returns 0 -
// a legitimately low but valid pitch (e.g. several octaves below C0)
// still gets a real, if very low, frequency per spec.md §4.2.
func computeFrequency(t Temperament, absoluteSemitone int) float64 {
	if absoluteSemitone == restSemitone {
		return 0
	}
	switch t.Kind {
	case TemperamentWerckmeisterIII:
		// Floor division/modulo (not Go's truncating / and %) so a
		// negative absoluteSemitone still lands chromatic in [0,12).
		octave := int(math.Floor(float64(absoluteSemitone) / 12.0))
		chromatic := absoluteSemitone - octave*12
		// absoluteSemitone is 0 at C0; Werckmeister's reference is C4
		// (absoluteSemitone 48), four octaves higher.
		return c4Hz * werckmeisterIIIRatios[chromatic] * math.Pow(2, float64(octave-4))
	default: // TemperamentEqual
		return c0Hz * math.Pow(2, float64(absoluteSemitone)/12.0)
	}
}

// ------------------------------------------------------------------------------
// Pitch → absolute semitone → frequency
// ------------------------------------------------------------------------------

// noteToAbsoluteSemitone implements spec.md §4.2's formula:
//
//	(octaveShift+4)·12 + letterToSemitone + keyAccidental + noteAccidental + transpose
//
// Rests (letter == 0) return restSemitone and never generate a
// frequency.
func noteToAbsoluteSemitone(letter byte, noteAccidental, octaveShift int, key KeySignature, transpose int) int {
	if letter == 0 {
		return restSemitone
	}
	base, ok := letterSemitone[letter]
	if !ok {
		return restSemitone
	}
	keyAcc := key.accidentalFor(letter)
	return (octaveShift+4)*12 + base + keyAcc + noteAccidental + transpose
}

// noteToFrequency computes Hz for a note, guarded to 0 only for rests
// or an unrecognized letter (the restSemitone sentinel) per spec.md
// §4.2 - a real note that happens to land on a very low semitone still
// gets its actual frequency, not 0.
func noteToFrequency(letter byte, noteAccidental, octaveShift int, key KeySignature, transpose int, t Temperament) float64 {
	semitone := noteToAbsoluteSemitone(letter, noteAccidental, octaveShift, key, transpose)
	if semitone == restSemitone {
		return 0
	}
	return computeFrequency(t, semitone)
}
