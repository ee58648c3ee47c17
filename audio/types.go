package audio

// Default SoundInfo values, applied by NewSoundInfo.
const (
	// DefaultVolume is the initial linear gain of a new sound.
	DefaultVolume = 1.0

	// DefaultMinDistance and DefaultMaxDistance bound the attenuation
	// rolloff range of a positional sound, in engine units.
	DefaultMinDistance = 0.5
	DefaultMaxDistance = 5000.0
)

// InstantFadeSamples is the fade length at or below which
// UpdateLoopVolume sets the volume immediately instead of scheduling
// fade points on the channel's DSP clock.
const InstantFadeSamples = 64

// SoundID identifies a loaded sound in the engine's caches.
// It defaults to the sound's file path but callers may assign their own.
type SoundID string

// Vector is a position or direction in 3D space, in engine units.
type Vector struct {
	X, Y, Z float64
}

// SoundInfo describes one loadable sound. It is a pure input
// descriptor: the engine never reads playback state back from it, and
// caller-held copies do not track engine-side state. Query the engine
// (SoundIsLoaded, SoundIsPlaying, LoopVolume) instead.
type SoundInfo struct {
	// ID is the cache identity. Empty means "use Path".
	ID SoundID

	// Path is the audio file to load (.wav, .mp3, .ogg, .flac).
	Path string

	// Loop makes playback repeat until StopSound. Only looping sounds
	// have their channel tracked; one-shots are fire-and-forget.
	Loop bool

	// Is3D enables positional playback using Position and the
	// min/max attenuation distances.
	Is3D bool

	Position Vector

	// Volume is the linear playback gain in [0, 1].
	Volume float64

	// ReverbWet is the reverb send level in [0, 1]. Zero disables it.
	ReverbWet float64

	// MinDistance and MaxDistance bound the 3D attenuation rolloff.
	MinDistance float64
	MaxDistance float64
}

// NewSoundInfo returns a descriptor for path with default volume and
// rolloff distances. Adjust fields before passing it to LoadSound.
func NewSoundInfo(path string) SoundInfo {
	return SoundInfo{
		ID:          SoundID(path),
		Path:        path,
		Volume:      DefaultVolume,
		MinDistance: DefaultMinDistance,
		MaxDistance: DefaultMaxDistance,
	}
}

// Key returns the cache identity the engine will file this sound
// under: ID when set, otherwise Path.
func (si SoundInfo) Key() SoundID {
	if si.ID != "" {
		return si.ID
	}
	return SoundID(si.Path)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
