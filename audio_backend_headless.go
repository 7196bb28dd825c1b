//go:build headless

// audio_backend_headless.go - no-op AudioDriver for headless builds/tests

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

package main

// HeadlessDriver satisfies AudioDriver without touching any real audio
// device - used for headless builds and for exercising the core engine
// in tests/CI where no sound hardware exists.
type HeadlessDriver struct {
	source SampleSource
	playing bool
}

func NewHeadlessDriver() *HeadlessDriver {
	return &HeadlessDriver{}
}

func init() {
	registerDriver("headless", func() AudioDriver { return NewHeadlessDriver() })
}

func (d *HeadlessDriver) Init(sampleRate int, source SampleSource) error {
	d.source = source
	return nil
}

func (d *HeadlessDriver) Play()    { d.playing = true }
func (d *HeadlessDriver) Stop()    { d.playing = false }
func (d *HeadlessDriver) Resume()  { d.playing = true }
func (d *HeadlessDriver) Cleanup() { d.playing = false }
