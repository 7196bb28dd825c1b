// sequencer_test.go - Tests for the pull-model sequencer callback

package main

import "testing"

func TestSequencer_EmptyEventsStopsImmediately(t *testing.T) {
	seq := NewSequencer(nil, 44100)
	buf := make([]int16, 16)
	keepGoing := seq.Callback(buf)
	if keepGoing {
		t.Error("Callback should return false immediately for an empty event list")
	}
	if !seq.Completed.Load() {
		t.Error("Completed should be true after draining an empty event list")
	}
	for i, s := range buf {
		if s != 0 {
			t.Errorf("buffer[%d] = %d, want 0 (no events to mix)", i, s)
		}
	}
}

func TestSequencer_ActivatesAtStartSample(t *testing.T) {
	notes := ParseMusic("c4")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 1.0)
	seq := NewSequencer(events, 44100)
	if seq.ActiveCount != 0 {
		t.Fatalf("ActiveCount before any Callback = %d, want 0", seq.ActiveCount)
	}
	buf := make([]int16, 1)
	seq.Callback(buf)
	if seq.ActiveCount != 1 {
		t.Errorf("ActiveCount after first sample = %d, want 1 (event starts at sample 0)", seq.ActiveCount)
	}
}

func TestSequencer_ProducesNonZeroOutput(t *testing.T) {
	notes := ParseMusic("c4")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 1.0)
	seq := NewSequencer(events, 44100)
	buf := make([]int16, 4096)
	seq.Callback(buf)
	sawNonZero := false
	for _, s := range buf {
		if s != 0 {
			sawNonZero = true
			break
		}
	}
	if !sawNonZero {
		t.Error("expected at least one nonzero sample from a sounding note")
	}
}

func TestSequencer_RunsToCompletion(t *testing.T) {
	notes := ParseMusic("c4")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 1.0)
	seq := NewSequencer(events, 44100)
	buf := make([]int16, 512)
	iterations := 0
	for seq.Callback(buf) {
		iterations++
		if iterations > 100000 {
			t.Fatal("sequencer never completed a single short note")
		}
	}
	if !seq.Completed.Load() {
		t.Error("Completed should be true once Callback returns false")
	}
	if seq.ActiveCount != 0 {
		t.Errorf("ActiveCount at completion = %d, want 0", seq.ActiveCount)
	}
}

func TestSequencer_MaxSimultaneousEventsBound(t *testing.T) {
	// Build more than maxSimultaneousEvents events all starting at sample 0
	// (a chord larger than the parser itself would ever produce, built
	// directly against the sequencer's own bound rather than the parser's
	// smaller maxChordSize).
	var events []Event
	for i := 0; i < maxSimultaneousEvents+5; i++ {
		ev := Event{
			StartSample:     0,
			DurationSamples: 44100,
			ReleaseSample:   44100,
			Instrument:      defaultInstrument,
			VolumeScale:     q31FromFloat(0.1),
			Envelope:        newADSREnvelope(44100),
			NumPartials:     1,
		}
		ev.Partials[0] = Partial{PhaseIncrement: 1000, Amplitude: q31One}
		events = append(events, ev)
	}
	seq := NewSequencer(events, 44100)
	buf := make([]int16, 1)
	seq.Callback(buf)
	if seq.ActiveCount != maxSimultaneousEvents {
		t.Errorf("ActiveCount = %d, want bounded at %d", seq.ActiveCount, maxSimultaneousEvents)
	}
}

func TestLinearRampQ31(t *testing.T) {
	if got := linearRampQ31(0, q31One, 0, 100); got != 0 {
		t.Errorf("ramp at pos 0 = %d, want 0", got)
	}
	if got := linearRampQ31(0, q31One, 100, 100); got != q31One {
		t.Errorf("ramp at pos==span = %d, want %d", got, q31One)
	}
	mid := linearRampQ31(0, 1000, 50, 100)
	if mid != 500 {
		t.Errorf("ramp at half span = %d, want 500", mid)
	}
}

func TestLinearRampQ31_ZeroSpanReturnsTarget(t *testing.T) {
	if got := linearRampQ31(0, q31One, 0, 0); got != q31One {
		t.Errorf("zero-span ramp = %d, want target %d", got, q31One)
	}
}

func TestShouldEvict_ADSR(t *testing.T) {
	ev := &Event{Envelope: EnvelopeState{Kind: EnvelopeADSR, Phase: PhaseRelease, CurrentLevel: 0}}
	if !shouldEvict(ev) {
		t.Error("fully released ADSR event should be evicted")
	}
	ev.Envelope.CurrentLevel = 1000
	if shouldEvict(ev) {
		t.Error("ADSR event still above zero in release should not be evicted")
	}
	ev.Envelope.Phase = PhaseSustain
	if shouldEvict(ev) {
		t.Error("sustaining ADSR event should never be evicted regardless of level")
	}
}

func TestShouldEvict_Pluck(t *testing.T) {
	ev := &Event{Envelope: EnvelopeState{Kind: EnvelopePluck, CurrentLevel: audibleThreshold - 1}}
	if !shouldEvict(ev) {
		t.Error("pluck event below audible threshold should be evicted")
	}
	ev.Envelope.CurrentLevel = audibleThreshold + 1
	if shouldEvict(ev) {
		t.Error("pluck event above audible threshold should not be evicted")
	}
}

func TestComputeReleaseCoeff_DecaysTowardZero(t *testing.T) {
	const samples uint32 = 1000
	coeff := computeReleaseCoeff(samples)
	if coeff <= 0 || coeff >= q31One {
		t.Errorf("release coeff = %d, want strictly between 0 and q31One", coeff)
	}
	// By construction, level(T)/level(0) ~= r/(1+r) with r=1e-5: a steep
	// drop, though not all the way to the audible floor in exactly T
	// samples (the audible floor is reached a little later, which is why
	// the engine keeps multiplying past T rather than hard-stopping there).
	level := q31One
	for i := uint32(0); i < samples; i++ {
		level = q31Mul(level, coeff)
	}
	if ratio := float64(level) / float64(q31One); ratio > 0.001 {
		t.Errorf("level/initial after T samples = %f, want a steep (~1e-5) drop", ratio)
	}
	// Continuing to apply the coefficient drives it the rest of the way
	// below the audible floor.
	for i := 0; i < int(samples); i++ {
		level = q31Mul(level, coeff)
	}
	if level >= audibleThreshold {
		t.Errorf("level after 2T samples = %d, want below audible threshold %d", level, audibleThreshold)
	}
}
