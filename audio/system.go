package audio

import "time"

// SoundMode carries the decode-time properties of a sound.
type SoundMode struct {
	Loop    bool
	Spatial bool

	// Attenuation rolloff range, used only when Spatial is set.
	MinDistance float64
	MaxDistance float64
}

// System is the audio middleware boundary. The engine forwards every
// operation through it and owns all handles it returns. Package
// beepsys provides the production implementation.
type System interface {
	// Init acquires the underlying audio device. Called exactly once
	// per engine lifecycle; a second call is a no-op.
	Init(sampleRate int, bufferSize time.Duration, maxChannels int) error

	// Update advances the middleware's internal scheduling (streaming,
	// fades, event callbacks). Must be called once per tick.
	Update() error

	// Close releases the device and every outstanding handle.
	Close() error

	// CreateSound decodes the file at path and returns a playable
	// sound handle.
	CreateSound(path string, mode SoundMode) (Sound, error)

	// PlaySound creates a playback channel for a loaded sound,
	// optionally starting it paused so attributes can be applied
	// before any audio renders.
	PlaySound(snd Sound, paused bool) (Channel, error)

	// LoadBank loads a soundbank file and registers its events.
	LoadBank(path string) (Bank, error)

	// Event looks up a named event across all loaded banks.
	Event(name string) (EventDescription, error)

	SetListener(pos, forward, up Vector) error
	SetMasterMute(mute bool) error
	SetMasterVolume(vol float64) error
}

// Sound is a loaded, decoded audio resource.
type Sound interface {
	Length() (time.Duration, error)
	Release() error
}

// Channel is an active playback voice.
type Channel interface {
	SetPaused(paused bool) error
	Stop() error
	SetVolume(vol float64) error
	SetPosition(pos Vector) error
	SetReverbMix(wet float64) error

	// DSPClock returns the current sample-count timestamp used to
	// schedule fade points.
	DSPClock() (uint64, error)

	// AddFadePoint schedules a volume automation point at an absolute
	// DSP clock value. Between points the level is interpolated
	// linearly and multiplied with the channel volume.
	AddFadePoint(clock uint64, vol float64) error

	IsPlaying() (bool, error)
}

// Bank is a loaded soundbank.
type Bank interface {
	Path() string
	Unload() error
}

// EventDescription is a named, parameterized playback unit defined in
// a bank.
type EventDescription interface {
	CreateInstance() (EventInstance, error)
}

// EventInstance is one live playback of an event definition.
type EventInstance interface {
	Start() error
	Stop(allowFadeOut bool) error
	SetParameter(name string, value float64) error
	SetVolume(vol float64) error
	IsPlaying() (bool, error)
	Release() error
}
