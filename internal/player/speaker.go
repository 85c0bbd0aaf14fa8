package player

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const DefaultSampleRate = beep.SampleRate(44100)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func decoderFor(src string) (decodeFunc, error) {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".mp3":
		return mp3.Decode, nil
	case ".wav":
		return func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(rc)
		}, nil
	case ".ogg", ".oga":
		return vorbis.Decode, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(src))
}

// Speaker plays local media files on the host's sound device.
type Speaker struct {
	fs   afero.Fs
	root string
	rate beep.SampleRate

	mu      sync.Mutex
	current beep.StreamSeekCloser
}

// NewSpeaker initialises the sound device. Sources are resolved relative to root.
func NewSpeaker(fs afero.Fs, root string, rate beep.SampleRate) (*Speaker, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to initialise speaker: %w", err)
	}
	log.Info().Int("sample_rate", int(rate)).Str("root", root).Msg("speaker initialised")
	return &Speaker{fs: fs, root: root, rate: rate}, nil
}

func (s *Speaker) path(src string) string {
	if filepath.IsAbs(src) || s.root == "" {
		return src
	}
	return filepath.Join(s.root, src)
}

// Play decodes src and starts it from the beginning. It returns once playback has
// started; the previous cue is cut.
func (s *Speaker) Play(src string) error {
	decode, err := decoderFor(src)
	if err != nil {
		return err
	}
	f, err := s.fs.Open(s.path(src))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	streamer, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != s.rate {
		stream = beep.Resample(4, format.SampleRate, s.rate, streamer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.current = streamer
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		log.Debug().Str("src", src).Msg("audio cue finished")
	})))
	return nil
}

func (s *Speaker) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Speaker) stopLocked() error {
	speaker.Clear()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

// Close releases the sound device.
func (s *Speaker) Close() {
	_ = s.Stop()
	speaker.Close()
}
