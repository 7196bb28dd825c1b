// event_compiler_test.go - Tests for the notes-to-events compiler

package main

import (
	"math"
	"testing"
)

func TestTupletRatio(t *testing.T) {
	cases := []struct {
		code int
		want float64
	}{
		{0, 1.0},
		{3, 2.0 / 3.0},
		{5, 4.0 / 5.0},
		{6, 4.0 / 6.0},
		{7, 4.0 / 7.0},
		{9, 1.0}, // unspecified per the Open Question resolution
	}
	for _, c := range cases {
		if got := tupletRatio(c.code); got != c.want {
			t.Errorf("tupletRatio(%d) = %f, want %f", c.code, got, c.want)
		}
	}
}

func TestCompileVoice_Scale(t *testing.T) {
	notes := ParseMusic("c4 d e f g a b c'2")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 0.8)
	if len(events) != 8 {
		t.Fatalf("got %d events, want 8", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].StartSample < events[i-1].StartSample {
			t.Fatalf("events not chronologically ordered at index %d", i)
		}
	}
	// At 120 BPM, a quarter note is exactly one beat: samplesPerBeat =
	// 60*44100/120 = 22050, scaled by articulationFactor (0.9) for its
	// sounding duration, but the START of note 2 is unaffected by
	// articulation - it begins exactly one full beat after note 1.
	wantSecondStart := uint32(22050)
	if events[1].StartSample != wantSecondStart {
		t.Errorf("second event start = %d, want %d", events[1].StartSample, wantSecondStart)
	}
}

func TestCompileVoice_Chord(t *testing.T) {
	notes := ParseMusic("<c e g>2")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 1.0)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, ev := range events {
		if ev.StartSample != 0 {
			t.Errorf("chord member start = %d, want 0 (all share a start sample)", ev.StartSample)
		}
	}
	// 1/sqrt(3) attenuation should be reflected identically across all
	// three members (same base volume, same chord size).
	for i := 1; i < len(events); i++ {
		if events[i].VolumeScale != events[0].VolumeScale {
			t.Errorf("chord member %d volume scale = %d, want %d (uniform attenuation)", i, events[i].VolumeScale, events[0].VolumeScale)
		}
	}
	wantScale := int32(math.Round(1.0 / math.Sqrt(3) * volumeHeadroom))
	diff := int64(events[0].VolumeScale) - int64(wantScale)
	if diff < -1 || diff > 1 {
		t.Errorf("chord volume scale = %d, want ~%d", events[0].VolumeScale, wantScale)
	}
}

func TestCompileVoice_RestThenNote(t *testing.T) {
	notes := ParseMusic("r2 c4")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 0.8)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (rest produces no event)", len(events))
	}
	// A half-note rest at 120 BPM is 2 beats: 2*22050 = 44100 samples.
	if events[0].StartSample != 44100 {
		t.Errorf("note-after-rest start = %d, want 44100", events[0].StartSample)
	}
}

func TestCompileVoice_InstrumentPartials(t *testing.T) {
	notes := ParseMusic("[pluck square] c4")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 0.8)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].NumPartials != 3 {
		t.Errorf("pluck square event NumPartials = %d, want 3", events[0].NumPartials)
	}
	if events[0].Envelope.Kind != EnvelopePluck {
		t.Errorf("pluck square event envelope kind = %v, want EnvelopePluck", events[0].Envelope.Kind)
	}
	// Partial 1 should run at 3x the fundamental's phase increment (ratio 3).
	fundamentalInc := events[0].Partials[0].PhaseIncrement
	thirdHarmonicInc := events[0].Partials[1].PhaseIncrement
	ratio := float64(thirdHarmonicInc) / float64(fundamentalInc)
	if ratio < 2.99 || ratio > 3.01 {
		t.Errorf("third partial/fundamental phase increment ratio = %f, want ~3", ratio)
	}
}

func TestCompileVoice_EmptyNotesYieldsNoEvents(t *testing.T) {
	events := CompileVoice(nil, 44100, 120, CMajor, EqualTemperament, 0, 0.8)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestCompileVoice_SemitoneFortyEight(t *testing.T) {
	notes := ParseMusic("c4")
	events := CompileVoice(notes, 44100, 120, CMajor, EqualTemperament, 0, 1.0)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := uint32(math.Floor(261.6255653 / 44100.0 * 4294967296.0))
	got := events[0].Partials[0].PhaseIncrement
	diff := int64(got) - int64(want)
	if diff < -2 || diff > 2 {
		t.Errorf("phase increment = %d, want ~%d (261.6255653 Hz at 44100Hz)", got, want)
	}
}

func TestMergeVoices_StableSort(t *testing.T) {
	voiceA := []Event{{StartSample: 0, DurationSamples: 1}, {StartSample: 100}}
	voiceB := []Event{{StartSample: 0, DurationSamples: 2}, {StartSample: 50}}
	merged := MergeVoices(voiceA, voiceB)
	if len(merged) != 4 {
		t.Fatalf("got %d merged events, want 4", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].StartSample < merged[i-1].StartSample {
			t.Fatalf("merged events not chronologically ordered at %d", i)
		}
	}
	// Both StartSample-0 events are voiceA[0] then voiceB[0]: stable sort
	// preserves voiceA's earlier emission before voiceB's.
	if merged[0].StartSample != 0 || merged[1].StartSample != 0 {
		t.Fatalf("expected two StartSample-0 events first, got %+v", merged[:2])
	}
	if merged[0].DurationSamples != 1 || merged[1].DurationSamples != 2 {
		t.Errorf("tied events = %+v, want voiceA's before voiceB's", merged[:2])
	}
}
