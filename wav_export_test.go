// wav_export_test.go - Tests for offline WAV rendering

package main

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWAVWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w := NewWAVWriter(&buf, 44100)
	if err := w.WriteHeader(200); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	data := buf.Bytes()
	if len(data) != 44 {
		t.Fatalf("header length = %d, want 44", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		t.Errorf("missing RIFF tag, got %q", data[0:4])
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("missing WAVE tag, got %q", data[8:12])
	}
	if string(data[12:16]) != "fmt " {
		t.Errorf("missing fmt tag, got %q", data[12:16])
	}
	numChannels := binary.LittleEndian.Uint16(data[22:24])
	if numChannels != 1 {
		t.Errorf("numChannels = %d, want 1 (mono)", numChannels)
	}
	bitsPerSample := binary.LittleEndian.Uint16(data[34:36])
	if bitsPerSample != 16 {
		t.Errorf("bitsPerSample = %d, want 16", bitsPerSample)
	}
	if string(data[36:40]) != "data" {
		t.Errorf("missing data tag, got %q", data[36:40])
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if dataSize != 200 {
		t.Errorf("data chunk size = %d, want 200", dataSize)
	}
}

func TestWAVWriter_Samples(t *testing.T) {
	var buf bytes.Buffer
	w := NewWAVWriter(&buf, 44100)
	samples := []int16{1, -1, 32767, -32768, 0}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatalf("WriteSamples failed: %v", err)
	}
	if buf.Len() != len(samples)*2 {
		t.Fatalf("wrote %d bytes, want %d", buf.Len(), len(samples)*2)
	}
	if w.dataWritten != len(samples)*2 {
		t.Errorf("dataWritten = %d, want %d", w.dataWritten, len(samples)*2)
	}
}

func TestExportWAV_ShortSong(t *testing.T) {
	notes := ParseMusic("c4")
	events := CompileVoice(notes, 44100, 240, CMajor, EqualTemperament, 0, 1.0)
	seq := NewSequencer(events, 44100)

	var buf bytes.Buffer
	if err := ExportWAV(seq, &buf, 44100*5); err != nil {
		t.Fatalf("ExportWAV failed: %v", err)
	}
	if buf.Len() < 44 {
		t.Fatalf("exported file too small: %d bytes", buf.Len())
	}
	if string(buf.Bytes()[0:4]) != "RIFF" {
		t.Error("exported file should start with RIFF header")
	}
	if !seq.Completed.Load() {
		t.Error("a short song should drain to completion within the 5-second cap")
	}
}

func TestExportWAV_RespectsMaxSamples(t *testing.T) {
	// A note long enough that it won't finish inside the cap (a whole
	// note at 1 BPM runs for millions of samples) should be truncated at
	// maxSamples rather than growing unbounded.
	notes := ParseMusic("c1")
	events := CompileVoice(notes, 44100, 1, CMajor, EqualTemperament, 0, 1.0)
	seq := NewSequencer(events, 44100)

	var buf bytes.Buffer
	maxSamples := 1000
	if err := ExportWAV(seq, &buf, maxSamples); err != nil {
		t.Fatalf("ExportWAV failed: %v", err)
	}
	dataSize := binary.LittleEndian.Uint32(buf.Bytes()[40:44])
	if int(dataSize) != maxSamples*2 {
		t.Errorf("exported data size = %d bytes, want %d (maxSamples cap)", dataSize, maxSamples*2)
	}
}
