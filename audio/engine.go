package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Default listener transform.
var (
	defaultListenerPos     = Vector{0, 0, -1}
	defaultListenerForward = Vector{0, 0, 1}
	defaultListenerUp      = Vector{0, 1, 0}
)

// loopChannel tracks the playback channel of a looping sound together
// with its authoritative current volume, which fades are computed from.
type loopChannel struct {
	ch     Channel
	volume float64
}

// Engine owns all middleware handles and serves every playback
// operation. Construct exactly one per process with NewEngine, call
// Init before use and Update once per tick.
type Engine struct {
	mu     sync.Mutex
	sys    System
	cfg    *Config
	logger *log.Logger

	sounds     *handleCache[SoundID, Sound]
	loops      *handleCache[SoundID, *loopChannel]
	banks      *handleCache[string, Bank]
	eventDescs *handleCache[string, EventDescription]
	events     *handleCache[string, EventInstance]

	listenerPos     Vector
	listenerForward Vector
	listenerUp      Vector

	muted       bool
	initialized bool
}

// NewEngine creates an engine on the given middleware. A nil cfg uses
// DefaultConfig.
func NewEngine(sys System, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.normalize()
	return &Engine{
		sys:        sys,
		cfg:        cfg,
		logger:     log.NewWithOptions(os.Stderr, log.Options{Prefix: "audio"}),
		sounds:     newHandleCache[SoundID, Sound](),
		loops:      newHandleCache[SoundID, *loopChannel](),
		banks:      newHandleCache[string, Bank](),
		eventDescs: newHandleCache[string, EventDescription](),
		events:     newHandleCache[string, EventInstance](),

		listenerPos:     defaultListenerPos,
		listenerForward: defaultListenerForward,
		listenerUp:      defaultListenerUp,
	}
}

// SetLogger replaces the engine's diagnostic logger.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Init acquires the audio device and applies the default listener
// transform and master volume. A second call is a no-op.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}
	if err := e.sys.Init(e.cfg.SampleRate, e.cfg.BufferDuration, e.cfg.MaxChannels); err != nil {
		return e.sysErr("Init", "", "Init", err)
	}
	e.initialized = true

	ck := e.check("Init", "")
	ck.do("SetListener", e.sys.SetListener(e.listenerPos, e.listenerForward, e.listenerUp))
	ck.do("SetMasterVolume", e.sys.SetMasterVolume(e.cfg.MasterVolume))
	if !e.cfg.Enabled {
		e.muted = true
		ck.do("SetMasterMute", e.sys.SetMasterMute(true))
	}
	return ck.err
}

// Close stops every tracked loop, releases all handles and shuts the
// middleware down. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}
	ck := e.check("Close", "")
	for _, lc := range e.loops.drain() {
		ck.do("Stop", lc.ch.Stop())
	}
	for _, inst := range e.events.drain() {
		ck.do("Release", inst.Release())
	}
	e.eventDescs.drain()
	for _, b := range e.banks.drain() {
		ck.do("Unload", b.Unload())
	}
	for _, snd := range e.sounds.drain() {
		ck.do("Release", snd.Release())
	}
	ck.do("Close", e.sys.Close())
	e.initialized = false
	return ck.err
}

// Update drives the middleware's internal scheduling. Call once per
// application tick.
func (e *Engine) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return e.precondition("Update", "", ErrNotInitialized)
	}
	if err := e.sys.Update(); err != nil {
		return e.sysErr("Update", "", "Update", err)
	}
	return nil
}

// LoadSound decodes info's file and caches the sound under its
// identity. Loading an already cached identity is a no-op that still
// reports success.
func (e *Engine) LoadSound(info SoundInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return e.precondition("LoadSound", info.Key(), ErrNotInitialized)
	}
	key := info.Key()
	if _, ok := e.sounds.lookup(key); ok {
		e.logger.Debug("sound already loaded", "id", key)
		return nil
	}
	mode := SoundMode{
		Loop:        info.Loop,
		Spatial:     info.Is3D,
		MinDistance: info.MinDistance * e.cfg.DistanceFactor,
		MaxDistance: info.MaxDistance * e.cfg.DistanceFactor,
	}
	snd, err := e.sys.CreateSound(info.Path, mode)
	if err != nil {
		return e.sysErr("LoadSound", key, "CreateSound", err)
	}
	e.sounds.insert(key, snd)
	e.logger.Debug("loaded sound", "id", key, "path", info.Path)
	return nil
}

// UnloadSound releases a cached sound. It refuses to unload a sound
// that still has an active loop; stop it first.
func (e *Engine) UnloadSound(id SoundID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.loops.lookup(id); ok {
		return e.precondition("UnloadSound", id, ErrLoopActive)
	}
	snd, ok := e.sounds.release(id)
	if !ok {
		return e.precondition("UnloadSound", id, ErrSoundNotLoaded)
	}
	if err := snd.Release(); err != nil {
		return e.sysErr("UnloadSound", id, "Release", err)
	}
	return nil
}

// PlaySound starts playback of a previously loaded sound. The channel
// is created paused, position/volume/reverb are applied, looping
// channels are tracked for later control, then playback is unpaused.
// Playing an unloaded sound is a reported no-op.
func (e *Engine) PlaySound(info SoundInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := info.Key()
	if !e.initialized {
		return e.precondition("PlaySound", key, ErrNotInitialized)
	}
	snd, ok := e.sounds.lookup(key)
	if !ok {
		return e.precondition("PlaySound", key, ErrSoundNotLoaded)
	}

	ch, err := e.sys.PlaySound(snd, true)
	if err != nil {
		return e.sysErr("PlaySound", key, "PlaySound", err)
	}
	vol := clamp01(info.Volume)

	ck := e.check("PlaySound", key)
	if info.Is3D {
		ck.do("SetPosition", ch.SetPosition(e.scale(info.Position)))
	}
	ck.do("SetVolume", ch.SetVolume(vol))
	if info.ReverbWet > 0 {
		ck.do("SetReverbMix", ch.SetReverbMix(clamp01(info.ReverbWet)))
	}
	if info.Loop {
		e.loops.insert(key, &loopChannel{ch: ch, volume: vol})
	}
	ck.do("SetPaused", ch.SetPaused(false))
	return ck.err
}

// StopSound stops a tracked looping sound and drops it from the
// playing-channel cache. Stopping anything else is a reported no-op.
func (e *Engine) StopSound(id SoundID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lc, ok := e.loops.release(id)
	if !ok {
		return e.precondition("StopSound", id, ErrLoopNotPlaying)
	}
	if err := lc.ch.Stop(); err != nil {
		return e.sysErr("StopSound", id, "Stop", err)
	}
	return nil
}

// UpdateLoopVolume changes the volume of a playing loop. Fade lengths
// of at most InstantFadeSamples apply immediately; longer fades are
// scheduled as two fade points bracketing the channel's current DSP
// clock. When fading up, the channel volume is set to the target
// immediately and the fade points ramp the automation level to full
// volume instead of the target; this asymmetry matches long-standing
// observed behavior and is kept deliberately.
func (e *Engine) UpdateLoopVolume(id SoundID, newVolume float64, fadeSamples int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lc, ok := e.loops.lookup(id)
	if !ok {
		return e.precondition("UpdateLoopVolume", id, ErrLoopNotPlaying)
	}
	newVolume = clamp01(newVolume)
	ck := e.check("UpdateLoopVolume", id)

	if fadeSamples <= InstantFadeSamples {
		ck.do("SetVolume", lc.ch.SetVolume(newVolume))
		lc.volume = newVolume
		return ck.err
	}

	clock, err := lc.ch.DSPClock()
	if err != nil {
		return e.sysErr("UpdateLoopVolume", id, "DSPClock", err)
	}
	fadeUp := newVolume > lc.volume
	target := newVolume
	if fadeUp {
		target = 1.0
		ck.do("SetVolume", lc.ch.SetVolume(newVolume))
	}
	ck.do("AddFadePoint", lc.ch.AddFadePoint(clock, lc.volume))
	ck.do("AddFadePoint", lc.ch.AddFadePoint(clock+uint64(fadeSamples), target))
	lc.volume = newVolume
	return ck.err
}

// UpdateSoundPosition re-applies the 3D attributes of a tracked
// playing loop.
func (e *Engine) UpdateSoundPosition(id SoundID, pos Vector) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lc, ok := e.loops.lookup(id)
	if !ok {
		return e.precondition("UpdateSoundPosition", id, ErrLoopNotPlaying)
	}
	if err := lc.ch.SetPosition(e.scale(pos)); err != nil {
		return e.sysErr("UpdateSoundPosition", id, "SetPosition", err)
	}
	return nil
}

// SoundIsLoaded reports whether id is in the sound cache.
func (e *Engine) SoundIsLoaded(id SoundID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sounds.lookup(id)
	return ok
}

// SoundIsPlaying reports whether id is a tracked playing loop.
func (e *Engine) SoundIsPlaying(id SoundID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.loops.lookup(id)
	return ok
}

// LoopVolume returns the authoritative current volume of a tracked
// loop and whether one exists for id.
func (e *Engine) LoopVolume(id SoundID) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lc, ok := e.loops.lookup(id)
	if !ok {
		return 0, false
	}
	return lc.volume, true
}

// SoundLength returns the decoded length of a cached sound, or 0 when
// id is not cached.
func (e *Engine) SoundLength(id SoundID) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, ok := e.sounds.lookup(id)
	if !ok {
		return 0
	}
	d, err := snd.Length()
	if err != nil {
		e.sysErr("SoundLength", id, "Length", err)
		return 0
	}
	return d
}

// SetListenerPosition sets the listener's position, forward and up
// vectors unconditionally.
func (e *Engine) SetListenerPosition(pos, forward, up Vector) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listenerPos, e.listenerForward, e.listenerUp = pos, forward, up
	if !e.initialized {
		return e.precondition("SetListenerPosition", "", ErrNotInitialized)
	}
	if err := e.sys.SetListener(pos, forward, up); err != nil {
		return e.sysErr("SetListenerPosition", "", "SetListener", err)
	}
	return nil
}

// MuteAll mutes the master output group.
func (e *Engine) MuteAll() error { return e.setMuted(true) }

// UnmuteAll unmutes the master output group.
func (e *Engine) UnmuteAll() error { return e.setMuted(false) }

// IsMuted reports the process-wide mute flag.
func (e *Engine) IsMuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// SetMasterVolume sets the master output gain, clamped to [0, 1].
func (e *Engine) SetMasterVolume(vol float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	vol = clamp01(vol)
	e.cfg.MasterVolume = vol
	if !e.initialized {
		return e.precondition("SetMasterVolume", "", ErrNotInitialized)
	}
	if err := e.sys.SetMasterVolume(vol); err != nil {
		return e.sysErr("SetMasterVolume", "", "SetMasterVolume", err)
	}
	return nil
}

func (e *Engine) setMuted(muted bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.muted = muted
	if !e.initialized {
		return e.precondition("SetMuted", "", ErrNotInitialized)
	}
	if err := e.sys.SetMasterMute(muted); err != nil {
		return e.sysErr("SetMuted", "", "SetMasterMute", err)
	}
	return nil
}

func (e *Engine) scale(pos Vector) Vector {
	f := e.cfg.DistanceFactor
	return Vector{pos.X * f, pos.Y * f, pos.Z * f}
}

// precondition logs a cache misuse and returns its sentinel wrapped
// with the operation name.
func (e *Engine) precondition(op string, id any, err error) error {
	e.logger.Warn("precondition not met", "op", op, "id", id, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

// sysErr logs a failed middleware call and returns it typed.
func (e *Engine) sysErr(op string, id any, call string, err error) error {
	e.logger.Error("audio system call failed", "op", op, "call", call, "id", id, "err", err)
	return &SystemError{Op: op, Call: call, Err: err}
}

// check accumulates middleware failures within one operation: each is
// logged, execution continues, and the first is returned to the
// caller.
func (e *Engine) check(op string, id any) *callCheck {
	return &callCheck{e: e, op: op, id: id}
}

type callCheck struct {
	e   *Engine
	op  string
	id  any
	err error
}

func (c *callCheck) do(call string, err error) {
	if err == nil {
		return
	}
	serr := c.e.sysErr(c.op, c.id, call, err)
	if c.err == nil {
		c.err = serr
	}
}
