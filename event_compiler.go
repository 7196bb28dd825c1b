// event_compiler.go - Compiles parsed notes into a chronologically ordered event vector

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
event_compiler.go turns a []Note, plus the performance parameters (sample
rate, tempo, key, temperament, transposition, base volume), into a
sorted []Event ready for the sequencer. All fixed-point precomputation
happens here, once, so the synthesis hot path never touches a float.

Timing walks the note sequence left to right, tracking one running
sample counter. Chord members share a start sample because the counter
only advances after the LAST member of a chord group; everything else
(including rests, and notes dropped for zero/negative frequency)
advances it immediately.
*/

package main

import (
	"math"
	"sort"
)

// AUDIBLE_THRESHOLD is the Q1.31 floor below which a non-ADSR event's
// envelope level (or an ADSR event fully released) is considered
// inaudible and evicted. See DESIGN.md for why this spec adopts the
// lower of the two values found in the reference.
const audibleThreshold int32 = 0x00001000

// volumeHeadroom is the Q1.31 ceiling a compiled event's volume_scale
// is computed against - 1/8 of q31One, so one full-scale voice peaks
// at about 4096 in S16 and up to 8 such voices can mix without S16
// wraparound.
const volumeHeadroom = 0x10000000

// Reference ADSR timings (milliseconds), overridable per instrument in
// a future revision; for now every ADSR event gets these.
const (
	adsrAttackMS  = 50.0
	adsrDecayMS   = 200.0
	adsrReleaseMS = 500.0
	adsrMinReleaseMS = 20.0
	adsrSustainFrac  = 0.6
)

// pluckTimeConstantSeconds is the exponential decay time constant used
// to derive a Pluck instrument's per-sample decay multiplier.
const pluckTimeConstantSeconds = 0.2

// articulationFactor shortens a note's sounding duration relative to
// its full metric value - the reference melody path's tenuto-like 0.9.
const articulationFactor = 0.9

// EnvelopePhase tags an ADSR event's current phase.
type EnvelopePhase int

const (
	PhaseAttack EnvelopePhase = iota
	PhaseDecay
	PhaseSustain
	PhaseRelease
)

// EnvelopeState is the tagged-variant runtime envelope (spec.md §3):
// ADSR and Pluck fields share one struct, selected by Kind, to avoid
// an interface/function-pointer indirection on the hot path.
type EnvelopeState struct {
	Kind EnvelopeKind

	// ADSR fields
	AttackSamples     uint32
	DecaySamples      uint32
	ReleaseSamples    uint32
	MinReleaseSamples uint32
	SustainLevel      int32
	ReleaseStartLevel int32
	ReleaseCoeff      int32 // computed lazily on first release sample
	Phase             EnvelopePhase

	// Pluck fields
	DecayMultiplier int32

	// Shared
	CurrentLevel int32
}

// Partial is one DDS oscillator within an Event: a phase accumulator,
// its fixed increment, and a Q1.31 amplitude.
type Partial struct {
	PhaseAccum     uint32
	PhaseIncrement uint32
	Amplitude      int32
}

// Event is one compiled, schedulable sound: immutable timing/volume
// fields plus the mutable oscillator/envelope state the sequencer
// advances sample by sample.
type Event struct {
	StartSample     uint32
	DurationSamples uint32
	ReleaseSample   uint32
	Instrument      Instrument
	VolumeScale     int32
	Envelope        EnvelopeState
	Partials        [maxPartials]Partial
	NumPartials     int
}

// tupletRatio returns the time-scaling ratio for a tuplet code, per
// spec.md §4.4. Code 9 is left at 1 per the Open Question resolution
// in DESIGN.md.
func tupletRatio(code int) float64 {
	switch code {
	case 3:
		return 2.0 / 3.0
	case 5:
		return 4.0 / 5.0
	case 6:
		return 4.0 / 6.0
	case 7:
		return 4.0 / 7.0
	default: // 0, 9, or anything unrecognized
		return 1.0
	}
}

// rawDurationSamples computes a note's untruncated duration in samples
// before articulation is applied, per spec.md §4.5.
func rawDurationSamples(n Note, samplesPerBeat float64) float64 {
	raw := samplesPerBeat * 4.0 / float64(n.Duration)
	if n.Dotted {
		raw *= 1.5
	}
	raw *= tupletRatio(n.Tuplet)
	return raw
}

// newADSREnvelope builds the runtime ADSR state using the reference
// parameter values from spec.md §4.5.
func newADSREnvelope(sampleRate int) EnvelopeState {
	sr := float64(sampleRate)
	return EnvelopeState{
		Kind:              EnvelopeADSR,
		AttackSamples:     uint32(math.Round(sr * adsrAttackMS / 1000.0)),
		DecaySamples:      uint32(math.Round(sr * adsrDecayMS / 1000.0)),
		ReleaseSamples:    uint32(math.Round(sr * adsrReleaseMS / 1000.0)),
		MinReleaseSamples: uint32(math.Round(sr * adsrMinReleaseMS / 1000.0)),
		SustainLevel:      q31FromFloat(adsrSustainFrac),
		CurrentLevel:      audibleThreshold,
		Phase:             PhaseAttack,
	}
}

// newPluckEnvelope builds the runtime Pluck state: an exponential decay
// multiplier chosen so the amplitude falls to 1/e over
// pluckTimeConstantSeconds, starting at full scale.
func newPluckEnvelope(sampleRate int) EnvelopeState {
	samples := float64(sampleRate) * pluckTimeConstantSeconds
	mult := math.Exp(-1.0 / samples)
	return EnvelopeState{
		Kind:            EnvelopePluck,
		DecayMultiplier: q31FromFloat(mult),
		CurrentLevel:    q31One,
	}
}

// newEnvelope dispatches on the instrument's envelope tag.
func newEnvelope(kind EnvelopeKind, sampleRate int) EnvelopeState {
	if kind == EnvelopePluck {
		return newPluckEnvelope(sampleRate)
	}
	return newADSREnvelope(sampleRate)
}

// chordAttenuation returns 1/sqrt(N) for a chord of size N, or 1 for a
// standalone note (chordID == 0).
func chordAttenuation(chordID int, chordSize map[int]int) float64 {
	if chordID <= 0 {
		return 1.0
	}
	n := chordSize[chordID]
	if n <= 0 {
		return 1.0
	}
	return 1.0 / math.Sqrt(float64(n))
}

// CompileVoice turns one parsed note sequence into a chronologically
// ordered []Event, per spec.md §4.5. The returned slice is NOT yet
// merged with other voices or sorted against them - call MergeVoices
// to combine multiple compiled voices.
func CompileVoice(notes []Note, sampleRate int, bpm float64, key KeySignature, temperament Temperament, transpose int, baseVolume float64) []Event {
	samplesPerBeat := 60.0 * float64(sampleRate) / bpm

	chordSize := make(map[int]int)
	for _, n := range notes {
		if n.ChordID > 0 {
			chordSize[n.ChordID]++
		}
	}

	var events []Event
	currentSample := uint32(0)

	for i, n := range notes {
		raw := rawDurationSamples(n, samplesPerBeat)
		startSample := currentSample
		nextIsChordMate := n.ChordID > 0 && i+1 < len(notes) && notes[i+1].ChordID == n.ChordID

		if n.IsRest() {
			currentSample += uint32(math.Round(raw))
			continue
		}

		freq := noteToFrequency(n.Letter, n.AccidentalOffset, n.OctaveShift, key, transpose, temperament)
		if freq > 0 {
			events = append(events, compileEvent(n, startSample, raw, freq, sampleRate, baseVolume, chordAttenuation(n.ChordID, chordSize)))
		}

		if !nextIsChordMate {
			currentSample += uint32(math.Round(raw))
		}
	}

	sort.SliceStable(events, func(a, b int) bool {
		return events[a].StartSample < events[b].StartSample
	})
	return events
}

// compileEvent builds one Event for a non-rest note with a positive
// frequency: duration/release timing, volume scale, envelope state,
// and one Partial per instrument harmonic.
func compileEvent(n Note, startSample uint32, raw, freq float64, sampleRate int, baseVolume, attenuation float64) Event {
	durationSamples := uint32(math.Round(raw * articulationFactor))

	ev := Event{
		StartSample:     startSample,
		DurationSamples: durationSamples,
		ReleaseSample:   startSample + durationSamples,
		Instrument:      n.Instrument,
		VolumeScale:     int32(math.Round(baseVolume * attenuation * volumeHeadroom)),
		Envelope:        newEnvelope(n.Instrument.Envelope, sampleRate),
		NumPartials:     n.Instrument.PartialCount,
	}
	if ev.NumPartials < 1 {
		ev.NumPartials = 1
	}
	if ev.NumPartials > maxPartials {
		ev.NumPartials = maxPartials
	}
	for p := 0; p < ev.NumPartials; p++ {
		partialFreq := freq * n.Instrument.HarmonicRatio[p]
		phaseInc := uint32(math.Floor(partialFreq / float64(sampleRate) * 4294967296.0))
		ev.Partials[p] = Partial{
			PhaseIncrement: phaseInc,
			Amplitude:      q31FromFloat(n.Instrument.Amplitude[p]),
		}
	}
	return ev
}

// MergeVoices combines independently compiled voices into one
// chronologically ordered event vector, per spec.md §4.5's "multi-voice
// pieces are realized by ... merging the sorted arrays" and the Open
// Question resolution in DESIGN.md (stable sort, ties preserve voice
// emission order).
func MergeVoices(voices ...[]Event) []Event {
	var merged []Event
	for _, v := range voices {
		merged = append(merged, v...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].StartSample < merged[b].StartSample
	})
	return merged
}
