package beepsys

import (
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/rosshoyt/audioengine/audio"
)

// channel is one active playback voice: a streamer chain of volume
// automation, stereo pan and a pause/stop control, registered with the
// master mixer.
type channel struct {
	sys  *System
	mode audio.SoundMode

	auto      *automation
	resampler *beep.Resampler // nil unless pitch control was requested
	baseRatio float64
	pan       *effects.Pan
	ctrl      *beep.Ctrl

	pos       audio.Vector
	reverbWet float64
	stopped   bool
}

// newChannel builds the streamer chain for src and adds it to the
// mixer. pitch > 0 forces a resampler stage so the ratio can be
// changed while playing; otherwise a fixed-rate conversion is inserted
// only when the file and device rates differ. Callers hold s.mu.
func (s *System) newChannel(src *sound, paused bool, pitch float64) *channel {
	var st beep.Streamer
	base := src.buffer.Streamer(0, src.buffer.Len())
	if src.mode.Loop {
		st = beep.Loop(-1, base)
	} else {
		st = base
	}

	ch := &channel{sys: s, mode: src.mode}
	if pitch > 0 {
		ch.baseRatio = float64(src.format.SampleRate) / float64(s.sampleRate)
		ch.resampler = beep.ResampleRatio(resampleQuality, ch.baseRatio*pitch, st)
		st = ch.resampler
	} else if src.format.SampleRate != s.sampleRate {
		st = beep.Resample(resampleQuality, src.format.SampleRate, s.sampleRate, st)
	}

	ch.auto = &automation{s: st, clock: s.clock, gain: 1, spatial: 1, level: 1}
	ch.pan = &effects.Pan{Streamer: ch.auto}
	ch.ctrl = &beep.Ctrl{Streamer: ch.pan, Paused: paused}

	unlock := s.lockStream()
	s.mixer.Add(ch.ctrl)
	unlock()
	return ch
}

func (ch *channel) SetPaused(paused bool) error {
	unlock := ch.sys.lockStream()
	defer unlock()
	if ch.stopped {
		return ErrChannelStopped
	}
	ch.ctrl.Paused = paused
	return nil
}

// Stop detaches the channel from the mixer. Idempotent.
func (ch *channel) Stop() error {
	unlock := ch.sys.lockStream()
	defer unlock()
	ch.stopLocked()
	return nil
}

func (ch *channel) stopLocked() {
	if ch.stopped {
		return
	}
	// A nil streamer makes the mixer drop this entry on the next pull.
	ch.ctrl.Streamer = nil
	ch.stopped = true
}

func (ch *channel) SetVolume(vol float64) error {
	unlock := ch.sys.lockStream()
	defer unlock()
	if ch.stopped {
		return ErrChannelStopped
	}
	if vol < 0 {
		vol = 0
	}
	ch.auto.gain = vol
	return nil
}

func (ch *channel) SetPosition(pos audio.Vector) error {
	unlock := ch.sys.lockStream()
	defer unlock()
	if ch.stopped {
		return ErrChannelStopped
	}
	ch.pos = pos
	ch.applySpatialLocked()
	return nil
}

// SetReverbMix records the reverb send level. This backend does not
// render reverb.
func (ch *channel) SetReverbMix(wet float64) error {
	unlock := ch.sys.lockStream()
	defer unlock()
	if ch.stopped {
		return ErrChannelStopped
	}
	ch.reverbWet = wet
	return nil
}

func (ch *channel) DSPClock() (uint64, error) {
	return ch.sys.clock.now(), nil
}

func (ch *channel) AddFadePoint(clock uint64, vol float64) error {
	unlock := ch.sys.lockStream()
	defer unlock()
	if ch.stopped {
		return ErrChannelStopped
	}
	ch.auto.addPoint(clock, vol)
	return nil
}

// IsPlaying reports whether the channel still renders. Paused channels
// count as playing; stopped and fully drained ones do not.
func (ch *channel) IsPlaying() (bool, error) {
	unlock := ch.sys.lockStream()
	defer unlock()
	return !ch.stopped && !ch.auto.drained, nil
}

// setPitchLocked retargets the live resampler. No-op for channels
// created without pitch control.
func (ch *channel) setPitchLocked(pitch float64) {
	if ch.resampler == nil || pitch <= 0 {
		return
	}
	ch.resampler.SetRatio(ch.baseRatio * pitch)
}

func (ch *channel) setPanLocked(p float64) {
	if p < -1 {
		p = -1
	} else if p > 1 {
		p = 1
	}
	ch.pan.Pan = p
}

// applySpatialLocked derives attenuation and pan from the listener
// transform. Non-spatial channels are untouched.
func (ch *channel) applySpatialLocked() {
	if !ch.mode.Spatial {
		return
	}
	l := ch.sys.listener
	ch.auto.spatial = attenuate(l.pos, ch.pos, ch.mode.MinDistance, ch.mode.MaxDistance)
	ch.setPanLocked(panFor(l, ch.pos))
}

// fadeOutLocked ramps the automation level to zero over n samples and
// marks the channel to stop once it gets there.
func (ch *channel) fadeOutLocked(n uint64) {
	now := ch.sys.clock.now()
	ch.auto.addPoint(now, ch.auto.levelAt(now))
	ch.auto.addPoint(now+n, 0)
	ch.auto.stopAtZero = true
}

// fadePoint is one volume automation point on the DSP clock.
type fadePoint struct {
	clock uint64
	vol   float64
}

// automation scales samples by channel gain, spatial attenuation and a
// piecewise-linear fade envelope evaluated on the DSP clock. All state
// is guarded by the stream lock.
type automation struct {
	s     beep.Streamer
	clock *dspClock

	gain    float64
	spatial float64

	// level holds the envelope value after the last passed fade point;
	// points holds pending automation sorted by clock.
	level  float64
	points []fadePoint

	stopAtZero bool
	drained    bool
}

func (a *automation) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.s.Stream(samples)
	if n > 0 {
		start := a.clock.now()
		g := a.gain * a.spatial
		if len(a.points) == 0 {
			v := g * a.level
			for i := 0; i < n; i++ {
				samples[i][0] *= v
				samples[i][1] *= v
			}
		} else {
			for i := 0; i < n; i++ {
				v := g * a.levelAt(start+uint64(i))
				samples[i][0] *= v
				samples[i][1] *= v
			}
			a.prune(start + uint64(n))
		}
	}
	if a.stopAtZero && len(a.points) == 0 && a.level == 0 {
		ok = false
	}
	if !ok {
		a.drained = true
	}
	return n, ok
}

func (a *automation) Err() error {
	if a.s == nil {
		return nil
	}
	return a.s.Err()
}

// addPoint inserts a fade point keeping the slice sorted by clock.
func (a *automation) addPoint(clock uint64, vol float64) {
	if vol < 0 {
		vol = 0
	}
	p := fadePoint{clock: clock, vol: vol}
	i := len(a.points)
	for i > 0 && a.points[i-1].clock > clock {
		i--
	}
	a.points = append(a.points, fadePoint{})
	copy(a.points[i+1:], a.points[i:])
	a.points[i] = p
}

// levelAt evaluates the envelope at clock t: held level before the
// first pending point, linear interpolation between points, final
// value after the last.
func (a *automation) levelAt(t uint64) float64 {
	if len(a.points) == 0 {
		return a.level
	}
	if t <= a.points[0].clock {
		return a.points[0].vol
	}
	for i := 1; i < len(a.points); i++ {
		p0, p1 := a.points[i-1], a.points[i]
		if t < p1.clock {
			span := float64(p1.clock - p0.clock)
			if span == 0 {
				return p1.vol
			}
			frac := float64(t-p0.clock) / span
			return p0.vol + (p1.vol-p0.vol)*frac
		}
	}
	return a.points[len(a.points)-1].vol
}

// prune folds fully passed points into level, keeping the start of the
// active segment for interpolation.
func (a *automation) prune(t uint64) {
	for len(a.points) > 0 {
		last := len(a.points) == 1
		if !last && t < a.points[1].clock {
			return
		}
		if last && t < a.points[0].clock {
			return
		}
		a.level = a.points[0].vol
		a.points = a.points[1:]
	}
}
