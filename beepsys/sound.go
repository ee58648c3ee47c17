package beepsys

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/rosshoyt/audioengine/audio"
)

// sound is a fully decoded in-memory audio resource.
type sound struct {
	path     string
	mode     audio.SoundMode
	format   beep.Format
	buffer   *beep.Buffer
	released bool
}

// CreateSound opens and decodes the file at path. The decoder is
// picked by file extension; decode errors surface as-is so callers see
// the format library's diagnostics.
func (s *System) CreateSound(path string, mode audio.SoundMode) (audio.Sound, error) {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		return nil, ErrNotInitialized
	}
	return s.decodeFile(path, mode)
}

func (s *System) decodeFile(path string, mode audio.SoundMode) (*sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	streamer.Close()

	return &sound{
		path:   path,
		mode:   mode,
		format: format,
		buffer: buffer,
	}, nil
}

// Length returns the decoded duration.
func (snd *sound) Length() (time.Duration, error) {
	if snd.released {
		return 0, ErrSoundReleased
	}
	return snd.format.SampleRate.D(snd.buffer.Len()), nil
}

// Release drops the sample buffer. Playing channels keep their own
// streamer into the old buffer and drain normally.
func (snd *sound) Release() error {
	if snd.released {
		return ErrSoundReleased
	}
	snd.released = true
	snd.buffer = nil
	return nil
}
