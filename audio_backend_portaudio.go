//go:build !headless

// audio_backend_portaudio.go - PortAudio output backend

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
audio_backend_portaudio.go is a second realtime backend alongside oto,
built on github.com/gordonklaus/portaudio. It exists so a build can
pick whichever of the two underlying native libraries is actually
available on the host, the same "pick a backend at build/run time" role
audio_backend_oto.go and audio_backend_alsa.go already play.

PortAudio's stream callback pulls int16 frames directly, so Init just
opens a mono S16 output stream whose callback is this driver's own
streamCallback, which in turn pulls from the SampleSource - no
intermediate buffer beyond the one PortAudio hands the callback.
*/

package main

import "github.com/gordonklaus/portaudio"

// PortAudioDriver plays a SampleSource through a PortAudio mono S16
// output stream.
type PortAudioDriver struct {
	stream *portaudio.Stream
	source SampleSource
}

func NewPortAudioDriver() *PortAudioDriver {
	return &PortAudioDriver{}
}

func init() {
	registerDriver("portaudio", func() AudioDriver { return NewPortAudioDriver() })
}

// Init implements AudioDriver.
func (d *PortAudioDriver) Init(sampleRate int, source SampleSource) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	d.source = source

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), 0, d.streamCallback)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	d.stream = stream
	return nil
}

// streamCallback is PortAudio's pull callback: it asks the sequencer to
// fill out directly, matching spec.md §6's callback shape one-for-one.
func (d *PortAudioDriver) streamCallback(out []int16) {
	if d.source == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	if !d.source.Callback(out) {
		// Playback has completed: later callbacks produce silence.
		d.source = nil
	}
}

// Play implements AudioDriver.
func (d *PortAudioDriver) Play() {
	if d.stream != nil {
		d.stream.Start()
	}
}

// Stop implements AudioDriver.
func (d *PortAudioDriver) Stop() {
	if d.stream != nil {
		d.stream.Stop()
	}
}

// Resume implements AudioDriver.
func (d *PortAudioDriver) Resume() {
	d.Play()
}

// Cleanup implements AudioDriver.
func (d *PortAudioDriver) Cleanup() {
	if d.stream != nil {
		d.stream.Close()
		d.stream = nil
	}
	portaudio.Terminate()
}
