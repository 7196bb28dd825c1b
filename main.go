// main.go - lilysynth entry point

/*
(c) 2026 lilysynth contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func main() {
	sampleRate := pflag.IntP("rate", "r", 44100, "sample rate in Hz")
	bpm := pflag.Float64P("bpm", "b", 120, "tempo in beats per minute")
	volume := pflag.Float64P("volume", "V", 0.8, "base volume, 0..1")
	keyName := pflag.String("key", "C major", "key signature, e.g. \"G major\" or \"E minor\"")
	temperamentName := pflag.String("temperament", "equal", "equal|werckmeister3")
	backendName := pflag.String("backend", "oto", "oto|alsa|portaudio|headless")
	filePath := pflag.StringP("file", "f", "", "read music text from a file instead of the positional argument")
	exportPath := pflag.StringP("export", "o", "", "render to a WAV file instead of playing live")
	exportSeconds := pflag.Float64("export-seconds", 10, "duration to render when --export is set")
	noTUI := pflag.Bool("no-tui", false, "skip the terminal player and just run the backend")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lilysynth [options] 'music text'\n       lilysynth [options] --file song.ly\n\nParses and plays (or exports) LilyPond-style music notation.\n\nOptions:\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	musicText, err := loadMusicText(*filePath)
	if err != nil {
		logger.Error("reading music file failed", "file", *filePath, "err", err)
		os.Exit(1)
	}
	if musicText == "" {
		if pflag.NArg() != 1 {
			pflag.Usage()
			os.Exit(1)
		}
		musicText = pflag.Arg(0)
	}

	temperament := EqualTemperament
	if *temperamentName == "werckmeister3" {
		temperament = WerckmeisterIII
	}
	key := LookupKeySignature(*keyName)

	notes := ParseMusic(musicText)
	logger.Debug("parsed notes", "count", len(notes))

	events := CompileVoice(notes, *sampleRate, *bpm, key, temperament, 0, *volume)
	logger.Info("compiled song", "events", len(events))

	seq := NewSequencer(events, *sampleRate)

	if *exportPath != "" {
		if err := exportToFile(seq, *exportPath, *sampleRate, *exportSeconds); err != nil {
			logger.Error("export failed", "err", err)
			os.Exit(1)
		}
		logger.Info("exported", "path", *exportPath)
		return
	}

	driver, err := newDriver(*backendName)
	if err != nil {
		logger.Error("backend unavailable", "backend", *backendName, "err", err)
		os.Exit(1)
	}
	if err := driver.Init(*sampleRate, seq); err != nil {
		logger.Error("driver init failed", "err", err)
		os.Exit(1)
	}
	defer driver.Cleanup()
	driver.Play()

	if *noTUI {
		waitForCompletion(seq)
		return
	}

	model := newPlayerModel(notes, seq, driver)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		logger.Error("tui error", "err", err)
		os.Exit(1)
	}
}

// loadMusicText reads music notation from path per SPEC_FULL.md §10.3's
// "either a music string or an input file" input surface. An empty
// path yields an empty string, telling the caller to fall back to the
// positional argument instead.
func loadMusicText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// newDriver selects an AudioDriver by name from the backends actually
// compiled into this build (see audio_driver.go's driverFactories),
// per spec.md §6's driver operations being a concern external to the
// core engine.
func newDriver(name string) (AudioDriver, error) {
	factory, ok := driverFactories[name]
	if !ok {
		return nil, fmt.Errorf("backend %q not available in this build", name)
	}
	return factory(), nil
}

// exportToFile renders seq to a WAV file at path, bounded to
// exportSeconds of audio in case the compiled song never completes.
func exportToFile(seq *SequencerState, path string, sampleRate int, exportSeconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	maxSamples := int(exportSeconds * float64(sampleRate))
	return ExportWAV(seq, f, maxSamples)
}

// waitForCompletion polls the sequencer's own source of truth
// (Completed) rather than the driver, matching the spec's stop signal
// being owned by the sequencer.
func waitForCompletion(seq *SequencerState) {
	for !seq.Completed.Load() {
		time.Sleep(50 * time.Millisecond)
	}
}
