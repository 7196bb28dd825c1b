// audio_driver.go - Audio backend contract

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

package main

// SampleSource is the callback contract the core's sequencer offers to
// a driver, per spec.md §6: a driver asks for a buffer of mono S16
// samples and is told whether to call again.
type SampleSource interface {
	// Callback fills buffer and returns true to keep playing, false
	// once playback has completed (the source must never be called
	// again after a false return).
	Callback(buffer []int16) bool
}

// AudioDriver is the seam between the core and a concrete playback
// backend (oto, ALSA, portaudio, or a no-op headless stub). It mirrors
// spec.md §6's driver operations: init/play/stop/resume/cleanup. Go's
// built-in error interface supplies the spec's separate strerror(code)
// for free, so no strerror method exists here.
type AudioDriver interface {
	// Init opens the backend at the given sample rate and wires source
	// as the sample producer. It does not start playback.
	Init(sampleRate int, source SampleSource) error
	// Play starts (or re-arms) the backend's output stream.
	Play()
	// Stop pauses the backend's output stream without releasing its
	// resources; Resume can restart it.
	Stop()
	// Resume restarts output after Stop.
	Resume()
	// Cleanup releases every resource Init acquired. The driver must
	// not be reused after Cleanup.
	Cleanup()
}

// driverFactories is a build-tag-aware registry: each backend file
// registers itself from init() if (and only if) it was compiled into
// this build, so selecting an unavailable backend (e.g. "alsa" on a
// non-Linux build) is a runtime error rather than a link failure.
var driverFactories = map[string]func() AudioDriver{}

// registerDriver is called from each backend file's init().
func registerDriver(name string, factory func() AudioDriver) {
	driverFactories[name] = factory
}
