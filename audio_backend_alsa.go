//go:build !headless && linux

// audio_backend_alsa.go - ALSA audio output backend

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

/*
audio_backend_alsa.go implements AudioDriver directly against ALSA's
snd_pcm_* C API via cgo, the same low-level route used elsewhere in
this codebase's ancestry for its float32 chip output - only the PCM
format changes, from SND_PCM_FORMAT_FLOAT to SND_PCM_FORMAT_S16_LE,
matching the S16 mono the core sequencer produces (spec.md §6).

ALSA's snd_pcm_writei is a blocking push call, not a pull callback like
oto's Read, so this driver runs its own feeder goroutine: pull a buffer
from the SampleSource, block writing it to ALSA, repeat until the
source signals stop.
*/

package main

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_S16_LE);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, 1);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, short* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// alsaFeederFrames is the chunk size the feeder goroutine requests from
// the SampleSource per write, 100ms at 44100Hz.
const alsaFeederFrames = 4410

// ALSADriver plays a SampleSource through ALSA's S16 mono PCM device.
type ALSADriver struct {
	handle  *C.snd_pcm_t
	source  SampleSource
	samples []int16
	playing bool
	done    chan struct{}
	mutex   sync.Mutex
}

func NewALSADriver() *ALSADriver {
	return &ALSADriver{}
}

func init() {
	registerDriver("alsa", func() AudioDriver { return NewALSADriver() })
}

// Init implements AudioDriver.
func (ad *ALSADriver) Init(sampleRate int, source SampleSource) error {
	var cerr C.int
	handle := C.openPCM(C.CString("default"), &cerr)
	if cerr < 0 {
		return fmt.Errorf("alsa: open PCM device: %s", C.GoString(C.snd_strerror(cerr)))
	}
	if cerr = C.setupPCM(handle, C.uint(sampleRate)); cerr < 0 {
		C.closePCM(handle)
		return fmt.Errorf("alsa: setup PCM: %s", C.GoString(C.snd_strerror(cerr)))
	}

	ad.handle = handle
	ad.source = source
	ad.samples = make([]int16, alsaFeederFrames)
	return nil
}

// Play implements AudioDriver: starts the feeder goroutine.
func (ad *ALSADriver) Play() {
	ad.mutex.Lock()
	defer ad.mutex.Unlock()
	if ad.playing || ad.handle == nil {
		return
	}
	ad.playing = true
	ad.done = make(chan struct{})
	go ad.feed(ad.done)
}

func (ad *ALSADriver) feed(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		keepGoing := ad.source.Callback(ad.samples)
		ad.write(ad.samples)
		if !keepGoing {
			return
		}
	}
}

func (ad *ALSADriver) write(samples []int16) {
	frames := C.writePCM(ad.handle, (*C.short)(unsafe.Pointer(&samples[0])), C.int(len(samples)))
	if frames < 0 && frames == -C.EPIPE {
		C.snd_pcm_prepare(ad.handle)
		C.writePCM(ad.handle, (*C.short)(unsafe.Pointer(&samples[0])), C.int(len(samples)))
	}
}

// Stop implements AudioDriver.
func (ad *ALSADriver) Stop() {
	ad.mutex.Lock()
	defer ad.mutex.Unlock()
	if ad.playing {
		close(ad.done)
		ad.playing = false
	}
}

// Resume implements AudioDriver.
func (ad *ALSADriver) Resume() {
	ad.Play()
}

// Cleanup implements AudioDriver.
func (ad *ALSADriver) Cleanup() {
	ad.Stop()
	ad.mutex.Lock()
	defer ad.mutex.Unlock()
	if ad.handle != nil {
		C.closePCM(ad.handle)
		ad.handle = nil
	}
}
