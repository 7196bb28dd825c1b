//go:build !headless

// audio_backend_oto.go - oto v3 audio output backend

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
audio_backend_oto.go implements AudioDriver on top of
github.com/ebitengine/oto/v3, the cross-platform backend oto already
used for float32 output elsewhere in this codebase's ancestry. This
driver instead asks oto for signed 16-bit mono, matching the format the
core sequencer already produces (spec.md §6), so Read does nothing but
call the source into a reused int16 scratch buffer and copy it
little-endian into oto's byte buffer - no format conversion.
*/

package main

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoDriver plays a SampleSource through oto's S16 mono output.
type OtoDriver struct {
	ctx     *oto.Context
	player  *oto.Player
	source  atomic.Pointer[SampleSource]
	samples []int16 // reused scratch buffer for one Read call
	started bool
	mutex   sync.Mutex
}

func NewOtoDriver() *OtoDriver {
	return &OtoDriver{}
}

func init() {
	registerDriver("oto", func() AudioDriver { return NewOtoDriver() })
}

// Init implements AudioDriver.
func (d *OtoDriver) Init(sampleRate int, source SampleSource) error {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return err
	}
	<-ready

	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ctx = ctx
	d.source.Store(&source)
	d.player = ctx.NewPlayer(d)
	return nil
}

// Read implements io.Reader for oto's player. It is the realtime hot
// path: no allocation once samples has grown to the requested size.
func (d *OtoDriver) Read(p []byte) (n int, err error) {
	srcPtr := d.source.Load()
	if srcPtr == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	src := *srcPtr

	numSamples := len(p) / 2
	if len(d.samples) < numSamples {
		d.samples = make([]int16, numSamples)
	}
	buf := d.samples[:numSamples]
	if !src.Callback(buf) {
		// Playback has completed: later Reads produce silence instead of
		// calling the source again.
		d.source.Store(nil)
	}

	for i, s := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return len(p), nil
}

// Play implements AudioDriver.
func (d *OtoDriver) Play() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.started && d.player != nil {
		d.player.Play()
		d.started = true
	}
}

// Stop implements AudioDriver.
func (d *OtoDriver) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.started && d.player != nil {
		d.player.Pause()
		d.started = false
	}
}

// Resume implements AudioDriver.
func (d *OtoDriver) Resume() {
	d.Play()
}

// Cleanup implements AudioDriver.
func (d *OtoDriver) Cleanup() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
	d.started = false
}
