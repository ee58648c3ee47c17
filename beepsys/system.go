package beepsys

import (
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/rosshoyt/audioengine/audio"
)

// resampleQuality is the beep resampler quality used for sample-rate
// conversion and pitch shifting.
const resampleQuality = 4

// Option configures a System.
type Option func(*System)

// WithLogger replaces the system's diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithoutDevice makes the system run silent without trying to open an
// output device. Useful for headless hosts and tests.
func WithoutDevice() Option {
	return func(s *System) { s.noDevice = true }
}

// System implements audio.System on gopxl/beep.
type System struct {
	mu       sync.Mutex // registries and lifecycle
	streamMu sync.Mutex // streamer state when no device pulls samples
	logger   *log.Logger

	sampleRate  beep.SampleRate
	maxChannels int

	mixer  *beep.Mixer
	clock  *dspClock
	master *effects.Volume

	masterVol float64
	muted     bool

	listener listenerState

	channels map[*channel]struct{}
	banks    map[string]*bank
	events   map[string]*eventDescription

	noDevice    bool
	device      bool
	initialized bool
}

// New creates an unopened system; audio.Engine calls Init through the
// middleware boundary.
func New(opts ...Option) *System {
	s := &System{
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "beepsys"}),
		masterVol: 1.0,
		channels:  make(map[*channel]struct{}),
		banks:     make(map[string]*bank),
		events:    make(map[string]*eventDescription),
		listener:  defaultListener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init opens the output device and starts the master chain. When the
// device cannot be opened the system logs it and runs silent.
func (s *System) Init(sampleRate int, bufferSize time.Duration, maxChannels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if bufferSize <= 0 {
		bufferSize = 100 * time.Millisecond
	}
	s.sampleRate = beep.SampleRate(sampleRate)
	s.maxChannels = maxChannels
	s.mixer = &beep.Mixer{}
	s.clock = &dspClock{s: s.mixer}
	s.master = &effects.Volume{Streamer: s.clock, Base: 2, Volume: 0}
	s.applyMasterLocked()

	if !s.noDevice {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(bufferSize)); err != nil {
			s.logger.Warn("no audio device, running silent", "err", err)
		} else {
			s.device = true
			speaker.Play(s.master)
		}
	}
	s.initialized = true
	return nil
}

// Update reaps finished channels. Streaming itself is driven by the
// device, not by this call.
func (s *System) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	unlock := s.lockStream()
	for ch := range s.channels {
		if ch.stopped || ch.auto.drained {
			delete(s.channels, ch)
		}
	}
	unlock()
	return nil
}

// Close silences and drops every streamer. The device stays open for a
// later Init; beep's speaker has no teardown call.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	unlock := s.lockStream()
	for ch := range s.channels {
		ch.ctrl.Streamer = nil
		ch.stopped = true
	}
	s.mixer.Clear()
	unlock()
	if s.device {
		speaker.Clear()
	}
	s.channels = make(map[*channel]struct{})
	s.banks = make(map[string]*bank)
	s.events = make(map[string]*eventDescription)
	s.initialized = false
	s.device = false
	return nil
}

// PlaySound creates a playback channel for a loaded sound.
func (s *System) PlaySound(snd audio.Sound, paused bool) (audio.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	src, ok := snd.(*sound)
	if !ok {
		return nil, ErrForeignHandle
	}
	if src.released {
		return nil, ErrSoundReleased
	}

	unlock := s.lockStream()
	for ch := range s.channels {
		if ch.stopped || ch.auto.drained {
			delete(s.channels, ch)
		}
	}
	unlock()
	if s.maxChannels > 0 && len(s.channels) >= s.maxChannels {
		return nil, ErrTooManyChannels
	}

	ch := s.newChannel(src, paused, 0)
	s.channels[ch] = struct{}{}
	return ch, nil
}

// SetListener updates the listener transform and re-derives the
// attenuation and pan of every live spatial channel.
func (s *System) SetListener(pos, forward, up audio.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = listenerState{pos: pos, forward: forward, up: up}
	if !s.initialized {
		return nil
	}
	unlock := s.lockStream()
	defer unlock()
	for ch := range s.channels {
		ch.applySpatialLocked()
	}
	return nil
}

// SetMasterMute silences the master output group.
func (s *System) SetMasterMute(mute bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = mute
	if !s.initialized {
		return nil
	}
	unlock := s.lockStream()
	defer unlock()
	s.applyMasterLocked()
	return nil
}

// SetMasterVolume sets the master output gain.
func (s *System) SetMasterVolume(vol float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vol < 0 {
		vol = 0
	}
	s.masterVol = vol
	if !s.initialized {
		return nil
	}
	unlock := s.lockStream()
	defer unlock()
	s.applyMasterLocked()
	return nil
}

// applyMasterLocked maps linear master gain onto the exponential
// volume stage. Zero gain and mute both flip the Silent switch.
func (s *System) applyMasterLocked() {
	if s.master == nil {
		return
	}
	if s.muted || s.masterVol == 0 {
		s.master.Silent = true
		return
	}
	s.master.Silent = false
	s.master.Volume = math.Log2(s.masterVol)
}

// lockStream guards live streamer state. With a device attached the
// speaker lock excludes the render goroutine; without one nothing
// pulls samples and a local mutex suffices.
func (s *System) lockStream() func() {
	if s.device {
		speaker.Lock()
		return speaker.Unlock
	}
	s.streamMu.Lock()
	return s.streamMu.Unlock
}

// dspClock counts samples pulled through the master chain, giving the
// sample-accurate timestamps fade points are scheduled against.
type dspClock struct {
	s beep.Streamer
	n atomic.Uint64
}

func (c *dspClock) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.s.Stream(samples)
	c.n.Add(uint64(n))
	return n, ok
}

func (c *dspClock) Err() error { return c.s.Err() }

func (c *dspClock) now() uint64 { return c.n.Load() }
