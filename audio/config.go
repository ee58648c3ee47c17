package audio

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls engine initialization.
type Config struct {
	// Enabled false starts the engine muted.
	Enabled bool `env:"AUDIOENGINE_ENABLED" envDefault:"true"`

	// SampleRate of the output device, in Hz.
	SampleRate int `env:"AUDIOENGINE_SAMPLE_RATE" envDefault:"44100"`

	// BufferDuration sets device buffer size; larger is safer, smaller
	// is lower latency.
	BufferDuration time.Duration `env:"AUDIOENGINE_BUFFER" envDefault:"100ms"`

	// MaxChannels caps concurrently playing voices.
	MaxChannels int `env:"AUDIOENGINE_MAX_CHANNELS" envDefault:"1024"`

	// MasterVolume is the linear master gain in [0, 1].
	MasterVolume float64 `env:"AUDIOENGINE_MASTER_VOLUME" envDefault:"1.0"`

	// DistanceFactor is engine units per meter (feet = 3.28,
	// centimeters = 100). Applied to 3D sound positions.
	DistanceFactor float64 `env:"AUDIOENGINE_DISTANCE_FACTOR" envDefault:"1.0"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		SampleRate:     44100,
		BufferDuration: 100 * time.Millisecond,
		MaxChannels:    1024,
		MasterVolume:   1.0,
		DistanceFactor: 1.0,
	}
}

// LoadConfig reads configuration from AUDIOENGINE_* environment
// variables, falling back to defaults for anything unset or invalid.
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return DefaultConfig(), err
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.BufferDuration <= 0 {
		c.BufferDuration = 100 * time.Millisecond
	}
	if c.MaxChannels <= 0 {
		c.MaxChannels = 1024
	}
	c.MasterVolume = clamp01(c.MasterVolume)
	if c.DistanceFactor <= 0 {
		c.DistanceFactor = 1.0
	}
}
