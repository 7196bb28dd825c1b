// fixedpoint.go - Q1.31 fixed-point arithmetic and the synthesis sine table

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
fixedpoint.go implements the single numeric format used anywhere on the
synthesis hot path: Q1.31 signed fixed point, one sign bit and 31
fractional bits, representing the closed-open range [-1, +1).

0x7FFFFFFF represents the value nearest +1 that Q1.31 can hold;
0x80000000 represents exactly -1. All multiplications widen to a 64-bit
signed intermediate and shift right by 31 bits before truncating back to
int32 - this is the only place rounding error can enter a Q1.31
multiply, and it is always a single right shift, never a divide.

The sine table has exactly SINE_TABLE_SIZE (1024) entries computed once
in init() using floating point; nothing past that point ever touches
float again. Lookup indexes into the table with the top 10 bits of a
32-bit phase accumulator, so a full table cycle corresponds to one full
revolution of the accumulator's wraparound.
*/

package main

import "math"

// ------------------------------------------------------------------------------
// Q1.31 Fixed-Point Constants
// ------------------------------------------------------------------------------
const (
	q31One     int32 = 0x7FFFFFFF // Largest representable Q1.31 value (≈ +1.0)
	q31MinusOne int32 = -0x80000000 // Smallest representable Q1.31 value (exactly -1.0)
	q31FracBits       = 31
)

// ------------------------------------------------------------------------------
// Sine Table Constants
// ------------------------------------------------------------------------------
const (
	sineTableSize = 1024         // Entries in the Q1.31 sine LUT
	sineTableMask = sineTableSize - 1
	phaseToIndexShift = 22 // (phase >> 22) & sineTableMask selects an entry
)

// sineTable holds Q1.31 sine values for phase [0, 2π), initialized once in
// init() below. Entry i = round(sin(2π·i/sineTableSize) · 0x7FFFFFFF).
var sineTable [sineTableSize]int32

func init() {
	for i := 0; i < sineTableSize; i++ {
		angle := 2 * math.Pi * float64(i) / float64(sineTableSize)
		sineTable[i] = int32(math.Round(math.Sin(angle) * float64(q31One)))
	}
}

// sineLookup returns the Q1.31 sine value for a 32-bit DDS phase
// accumulator. The top 10 bits of phase select a table entry; the
// accumulator's unsigned wraparound at 2^32 is the oscillator's period.
//
//go:nosplit
func sineLookup(phase uint32) int32 {
	return sineTable[(phase>>phaseToIndexShift)&sineTableMask]
}

// q31Mul multiplies two Q1.31 values, widening to a 64-bit intermediate
// before shifting back down. This is the only arithmetic primitive used
// to combine amplitudes, envelope levels, and volume scales.
//
//go:nosplit
func q31Mul(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> q31FracBits)
}

// q31FromFloat converts a float64 in [-1, 1] to Q1.31. Used only at
// compile time (event precomputation and table initialization), never on
// the synthesis hot path.
func q31FromFloat(v float64) int32 {
	if v > 1 {
		v = 1
	}
	if v <= -1 {
		return q31MinusOne
	}
	scaled := math.Round(v * float64(q31One))
	if scaled > float64(q31One) {
		scaled = float64(q31One)
	}
	if scaled < float64(q31MinusOne) {
		scaled = float64(q31MinusOne)
	}
	return int32(scaled)
}

// q31ToS16 converts a Q1.31 mixed sample to signed 16-bit PCM by a
// further right-shift of 16 bits. Saturation is the caller's
// responsibility via pre-scaled volume headroom (§4.5); this step is a
// plain wrapping truncation, matching the spec's documented behavior.
//
//go:nosplit
func q31ToS16(sample int32) int16 {
	return int16(sample >> 16)
}
