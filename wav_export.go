// wav_export.go - Offline WAV rendering of a compiled song

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"io"
)

// WAVWriter writes a mono 16-bit PCM WAV file. Unlike the streaming
// float-sample writers elsewhere in this codebase's ancestry, samples
// here are already S16 - the sequencer never produces anything else -
// so there is no clamp-and-convert step, only a direct little-endian
// write.
type WAVWriter struct {
	writer      io.Writer
	sampleRate  int
	dataWritten int
}

// NewWAVWriter creates a mono WAV writer over w.
func NewWAVWriter(w io.Writer, sampleRate int) *WAVWriter {
	return &WAVWriter{writer: w, sampleRate: sampleRate}
}

// WriteHeader writes the RIFF/WAVE/fmt/data chunk headers for a mono
// 16-bit PCM stream of dataSize bytes.
func (w *WAVWriter) WriteHeader(dataSize int) error {
	if _, err := w.writer.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w.writer, binary.LittleEndian, uint32(dataSize+36)); err != nil {
		return err
	}
	if _, err := w.writer.Write([]byte("WAVE")); err != nil {
		return err
	}

	if _, err := w.writer.Write([]byte("fmt ")); err != nil {
		return err
	}
	binary.Write(w.writer, binary.LittleEndian, uint32(16)) // chunk size
	binary.Write(w.writer, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(w.writer, binary.LittleEndian, uint16(1))  // mono
	binary.Write(w.writer, binary.LittleEndian, uint32(w.sampleRate))
	byteRate := w.sampleRate * 2
	binary.Write(w.writer, binary.LittleEndian, uint32(byteRate))
	binary.Write(w.writer, binary.LittleEndian, uint16(2))  // block align
	binary.Write(w.writer, binary.LittleEndian, uint16(16)) // bits per sample

	if _, err := w.writer.Write([]byte("data")); err != nil {
		return err
	}
	return binary.Write(w.writer, binary.LittleEndian, uint32(dataSize))
}

// WriteSamples writes a chunk of S16 samples as raw little-endian PCM.
func (w *WAVWriter) WriteSamples(samples []int16) error {
	for _, s := range samples {
		if err := binary.Write(w.writer, binary.LittleEndian, s); err != nil {
			return err
		}
		w.dataWritten += 2
	}
	return nil
}

// wavExportChunkFrames is the buffer size ExportWAV pulls from the
// sequencer per iteration.
const wavExportChunkFrames = 4096

// ExportWAV drains seq to completion (i.e. until Callback returns
// false) and writes every sample it produces as a mono 16-bit PCM WAV
// file. maxSamples bounds how far it will run if a song is somehow
// never-ending (0 means unbounded).
func ExportWAV(seq *SequencerState, writer io.Writer, maxSamples int) error {
	// WAV needs the data size up front; render into memory first, then
	// write header + data. A streaming two-pass writer (seek back and
	// patch sizes) would avoid holding the whole render in memory, but
	// compiled songs in this engine's domain are short enough that the
	// simpler approach is the right tradeoff.
	var rendered []int16
	buffer := make([]int16, wavExportChunkFrames)
	for {
		keepGoing := seq.Callback(buffer)
		rendered = append(rendered, buffer...)
		if !keepGoing {
			break
		}
		if maxSamples > 0 && len(rendered) >= maxSamples {
			break
		}
	}
	if maxSamples > 0 && len(rendered) > maxSamples {
		rendered = rendered[:maxSamples]
	}

	w := NewWAVWriter(writer, seq.SampleRate)
	if err := w.WriteHeader(len(rendered) * 2); err != nil {
		return err
	}
	return w.WriteSamples(rendered)
}
