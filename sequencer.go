// sequencer.go - Pull-model real-time sample generation

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
sequencer.go is the hard real-time hot path: SequencerState.Callback is
invoked by an external audio driver whenever it needs more samples. It
never allocates, never blocks, and never reports an error - the only
signal it gives the driver is its continue/stop return value.

Per sample, in order: activate any events whose start has arrived, mix
every active event's contribution into a 32-bit accumulator truncated
to S16, evict active events whose envelope has fallen silent, advance
the sample clock. All state touched here - phase accumulators, envelope
levels - was allocated once at compile time by event_compiler.go.
*/

package main

import (
	"math"
	"sync/atomic"
)

// MAX_SIMULTANEOUS_EVENTS bounds the active-voice set. A newly eligible
// event found with the set already full is silently dropped - bounded
// starvation, not an error.
const maxSimultaneousEvents = 32

// SequencerState owns a compiled, time-sorted event array and walks it
// sample by sample. Active-event slots are non-owning indices into
// Events, valid for the sequencer's whole lifetime because Events is
// never resized during playback.
//
// CurrentSampleIndex and Completed are read from outside the callback
// (a driver/TUI goroutine polling transport state) while the callback
// itself runs on the audio backend's own goroutine - per spec.md §5,
// nothing else may touch sequencer state while the callback runs, so
// these two fields are atomics rather than plain fields, following the
// same pattern audio_backend_oto.go uses for its cross-goroutine source
// pointer. Every other field is callback-owned only.
type SequencerState struct {
	Events             []Event
	SampleRate         int
	CurrentSampleIndex atomic.Uint64
	NextEventIndex     uint64
	ActiveEvents       [maxSimultaneousEvents]int
	ActiveCount        int
	Completed          atomic.Bool
}

// NewSequencer builds a SequencerState over an already-sorted event
// array (see CompileVoice / MergeVoices).
func NewSequencer(events []Event, sampleRate int) *SequencerState {
	return &SequencerState{Events: events, SampleRate: sampleRate}
}

// Callback fills buffer with len(buffer) mono S16 samples and reports
// whether the driver should call again. It returns false (stop) exactly
// once, when the active set is empty and every event has been consumed;
// the driver must never invoke Callback again after that.
func (s *SequencerState) Callback(buffer []int16) bool {
	for i := range buffer {
		s.activate()
		buffer[i] = s.mix()
		s.evict()
		s.CurrentSampleIndex.Add(1)
	}
	if s.ActiveCount == 0 && s.NextEventIndex >= uint64(len(s.Events)) {
		s.Completed.Store(true)
		return false
	}
	return true
}

// activate moves every event whose start has arrived into the active
// set. An event found when the active set is already full is dropped
// silently (spec.md §4.6/§7: bounded starvation, not an error).
func (s *SequencerState) activate() {
	currentSampleIndex := s.CurrentSampleIndex.Load()
	for s.NextEventIndex < uint64(len(s.Events)) &&
		s.Events[s.NextEventIndex].StartSample <= uint32(currentSampleIndex) {
		if s.ActiveCount < maxSimultaneousEvents {
			s.ActiveEvents[s.ActiveCount] = int(s.NextEventIndex)
			s.ActiveCount++
		}
		s.NextEventIndex++
	}
}

// mix sums every active event's contribution into a 32-bit accumulator
// and truncates it to S16. The truncation wraps rather than saturates;
// event_compiler.go's volume headroom is what keeps this in range for
// the documented voice counts.
func (s *SequencerState) mix() int16 {
	var accum int32
	currentSampleIndex := s.CurrentSampleIndex.Load()
	for i := 0; i < s.ActiveCount; i++ {
		accum += generateEventSample(&s.Events[s.ActiveEvents[i]], currentSampleIndex)
	}
	return int16(accum)
}

// evict walks the active set back-to-front, swap-removing any event
// whose envelope has gone silent.
func (s *SequencerState) evict() {
	for i := s.ActiveCount - 1; i >= 0; i-- {
		ev := &s.Events[s.ActiveEvents[i]]
		if shouldEvict(ev) {
			s.ActiveCount--
			s.ActiveEvents[i] = s.ActiveEvents[s.ActiveCount]
		}
	}
}

// shouldEvict implements spec.md §4.6's eviction test: an ADSR event is
// evicted once it has fully released; any other envelope kind is
// evicted once its level drops below the audible floor.
func shouldEvict(ev *Event) bool {
	if ev.Envelope.Kind == EnvelopeADSR {
		return ev.Envelope.Phase == PhaseRelease && ev.Envelope.CurrentLevel == 0
	}
	return ev.Envelope.CurrentLevel < audibleThreshold
}

// generateEventSample produces one event's contribution for the
// current sample: advance its envelope, sum its partials' oscillator
// output, then apply envelope and volume scaling. The result is a
// Q1.31 value already shifted down to S16 magnitude (kept in an int32
// so the caller can sum several before a final truncation).
//
//go:nosplit
func generateEventSample(ev *Event, currentSampleIndex uint64) int32 {
	// ev.StartSample is always <= currentSampleIndex for an active event.
	samplesSinceStart := uint32(currentSampleIndex) - ev.StartSample
	samplesUntilRelease := int64(ev.ReleaseSample) - int64(currentSampleIndex)

	envLevel := updateEnvelope(&ev.Envelope, samplesSinceStart, samplesUntilRelease)

	var eventSample int32
	for p := 0; p < ev.NumPartials; p++ {
		partial := &ev.Partials[p]
		osc := sineLookup(partial.PhaseAccum)
		eventSample += q31Mul(osc, partial.Amplitude)
		partial.PhaseAccum += partial.PhaseIncrement
	}

	sample := q31Mul(eventSample, envLevel)
	sample = q31Mul(sample, ev.VolumeScale)
	return int32(q31ToS16(sample))
}

// updateEnvelope advances ev's envelope by one sample and returns its
// new Q1.31 level, dispatching on Kind per spec.md §9 (tagged variant,
// not a function pointer).
func updateEnvelope(env *EnvelopeState, samplesSinceStart uint32, samplesUntilRelease int64) int32 {
	if env.Kind == EnvelopePluck {
		env.CurrentLevel = q31Mul(env.CurrentLevel, env.DecayMultiplier)
		return env.CurrentLevel
	}
	return updateADSR(env, samplesSinceStart, samplesUntilRelease)
}

// updateADSR implements spec.md §4.6's ADSR algorithm: release takes
// priority over the other three phases, and is entered exactly once by
// capturing the release-start level and computing the release
// coefficient the first sample samples_until_release drops to zero.
func updateADSR(env *EnvelopeState, samplesSinceStart uint32, samplesUntilRelease int64) int32 {
	switch {
	case samplesUntilRelease <= 0:
		if env.Phase != PhaseRelease {
			env.ReleaseStartLevel = env.CurrentLevel
			env.Phase = PhaseRelease
			t := env.ReleaseSamples
			if env.MinReleaseSamples > t {
				t = env.MinReleaseSamples
			}
			env.ReleaseCoeff = computeReleaseCoeff(t)
		}
		env.CurrentLevel = q31Mul(env.CurrentLevel, env.ReleaseCoeff)
		if env.CurrentLevel < audibleThreshold/4 {
			env.CurrentLevel = 0
		}
	case samplesSinceStart < env.AttackSamples:
		env.Phase = PhaseAttack
		env.CurrentLevel = linearRampQ31(audibleThreshold, q31One, int64(samplesSinceStart), int64(env.AttackSamples))
	case samplesSinceStart < env.AttackSamples+env.DecaySamples:
		env.Phase = PhaseDecay
		intoDecay := int64(samplesSinceStart) - int64(env.AttackSamples)
		env.CurrentLevel = linearRampQ31(q31One, env.SustainLevel, intoDecay, int64(env.DecaySamples))
	default:
		env.Phase = PhaseSustain
		env.CurrentLevel = env.SustainLevel
	}
	return env.CurrentLevel
}

// linearRampQ31 interpolates linearly from from to to over span
// samples, at position pos, using only integer arithmetic (a 64-bit
// intermediate avoids overflow for the Q1.31 range over any realistic
// span).
//
//go:nosplit
func linearRampQ31(from, to int32, pos, span int64) int32 {
	if span <= 0 {
		return to
	}
	delta := int64(to) - int64(from)
	return int32(int64(from) + delta*pos/span)
}

// computeReleaseCoeff derives the per-sample multiplier that decays an
// ADSR event's level to silence over T samples, per spec.md §4.5's
// exp(-ln((1+r)/r)/T) formula with r = 1e-5. This is the one place the
// hot path touches floating point, and it runs at most once per event
// (the first sample of its release phase), never per sample.
func computeReleaseCoeff(t uint32) int32 {
	const r = 1e-5
	tf := float64(t)
	if tf <= 0 {
		tf = 1
	}
	coeff := math.Exp(-math.Log((1+r)/r) / tf)
	return q31FromFloat(coeff)
}
