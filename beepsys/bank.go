package beepsys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rosshoyt/audioengine/audio"
)

// Parameter targets: the channel property an event parameter drives.
const (
	ParamTargetVolume = "volume" // value normalized to [0,1] over [min,max], multiplies gain
	ParamTargetPitch  = "pitch"  // value clamped to [min,max], used as playback ratio
	ParamTargetPan    = "pan"    // value clamped to [min,max] and [-1,1]
)

// stopFadeSamples is the fade-out length applied when an event is
// stopped with allowFadeOut.
const stopFadeSamples = 4096

// Manifest is the on-disk soundbank format: a JSON document listing
// event definitions backed by audio files relative to the manifest.
// cmd/bankpack generates these.
type Manifest struct {
	Name   string     `json:"name"`
	Events []EventDef `json:"events"`
}

// EventDef defines one named, parameterized playback unit.
type EventDef struct {
	Name       string     `json:"name"`
	File       string     `json:"file"`
	Volume     float64    `json:"volume,omitempty"` // base gain, default 1
	Pitch      float64    `json:"pitch,omitempty"`  // base ratio, default 1
	Loop       bool       `json:"loop,omitempty"`
	LengthMS   int64      `json:"lengthMs,omitempty"` // informational, from bankpack probing
	Parameters []ParamDef `json:"parameters,omitempty"`
}

// ParamDef declares a named parameter and the channel property it
// drives.
type ParamDef struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Target  string  `json:"target"`
}

type bank struct {
	sys      *System
	path     string
	dir      string
	name     string
	events   []*eventDescription
	unloaded bool
}

// LoadBank parses a bank manifest and registers its events. Event
// names must be globally unique across loaded banks.
func (s *System) LoadBank(path string) (audio.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("beepsys: parse bank %s: %w", path, err)
	}

	b := &bank{sys: s, path: path, dir: filepath.Dir(path), name: m.Name}
	for _, def := range m.Events {
		if def.Name == "" || def.File == "" {
			return nil, fmt.Errorf("beepsys: bank %s: event needs name and file", path)
		}
		if _, ok := s.events[def.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEvent, def.Name)
		}
		if def.Volume == 0 {
			def.Volume = 1
		}
		if def.Pitch == 0 {
			def.Pitch = 1
		}
		for _, p := range def.Parameters {
			switch p.Target {
			case ParamTargetVolume, ParamTargetPitch, ParamTargetPan:
			default:
				return nil, fmt.Errorf("beepsys: bank %s: event %s: unknown parameter target %q",
					path, def.Name, p.Target)
			}
			if p.Max < p.Min {
				return nil, fmt.Errorf("beepsys: bank %s: event %s: parameter %s: max < min",
					path, def.Name, p.Name)
			}
		}
		b.events = append(b.events, &eventDescription{sys: s, bank: b, def: def})
	}
	for _, desc := range b.events {
		s.events[desc.def.Name] = desc
	}
	s.banks[path] = b
	s.logger.Debug("loaded bank", "path", path, "events", len(b.events))
	return b, nil
}

// Event looks a named event up across all loaded banks.
func (s *System) Event(name string) (audio.EventDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	desc, ok := s.events[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrEventNotFound)
	}
	return desc, nil
}

func (b *bank) Path() string { return b.path }

// Unload stops the bank's live instances and deregisters its events.
func (b *bank) Unload() error {
	s := b.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.unloaded {
		return nil
	}
	for _, desc := range b.events {
		for _, inst := range desc.instances {
			inst.stopNowLocked()
			inst.released = true
		}
		desc.instances = nil
		delete(s.events, desc.def.Name)
	}
	delete(s.banks, b.path)
	b.unloaded = true
	return nil
}

// eventDescription is a registered event definition, decoding its
// audio file lazily on first instantiation.
type eventDescription struct {
	sys       *System
	bank      *bank
	def       EventDef
	snd       *sound
	instances []*eventInstance
}

func (d *eventDescription) CreateInstance() (audio.EventInstance, error) {
	s := d.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.bank.unloaded {
		return nil, fmt.Errorf("%q: %w", d.def.Name, ErrEventNotFound)
	}
	if d.snd == nil {
		snd, err := s.decodeFile(filepath.Join(d.bank.dir, d.def.File), audio.SoundMode{Loop: d.def.Loop})
		if err != nil {
			return nil, err
		}
		d.snd = snd
	}
	inst := &eventInstance{
		sys:    s,
		desc:   d,
		volume: d.def.Volume,
		pitch:  d.def.Pitch,
		params: make(map[string]float64, len(d.def.Parameters)),
	}
	for _, p := range d.def.Parameters {
		inst.params[p.Name] = p.Default
	}
	d.instances = append(d.instances, inst)
	return inst, nil
}

// eventInstance is one live playback of an event definition.
type eventInstance struct {
	sys      *System
	desc     *eventDescription
	ch       *channel
	volume   float64
	pitch    float64
	params   map[string]float64
	released bool
}

// Start begins playback, restarting from the beginning when already
// playing.
func (inst *eventInstance) Start() error {
	s := inst.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.released {
		return ErrInstanceReleased
	}
	if !s.initialized {
		return ErrNotInitialized
	}
	inst.stopNowLocked()
	if s.maxChannels > 0 && len(s.channels) >= s.maxChannels {
		return ErrTooManyChannels
	}
	inst.ch = s.newChannel(inst.desc.snd, false, inst.pitch)
	s.channels[inst.ch] = struct{}{}
	inst.applyLocked()
	return nil
}

// Stop halts playback, optionally ramping down over a short fade.
func (inst *eventInstance) Stop(allowFadeOut bool) error {
	s := inst.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.released {
		return ErrInstanceReleased
	}
	if inst.ch == nil || inst.ch.stopped {
		return nil
	}
	if allowFadeOut {
		unlock := s.lockStream()
		inst.ch.fadeOutLocked(stopFadeSamples)
		unlock()
		return nil
	}
	inst.stopNowLocked()
	return nil
}

func (inst *eventInstance) stopNowLocked() {
	if inst.ch == nil {
		return
	}
	unlock := inst.sys.lockStream()
	inst.ch.stopLocked()
	unlock()
	inst.ch = nil
}

// SetParameter updates a declared parameter, retargeting the live
// channel when playing.
func (inst *eventInstance) SetParameter(name string, value float64) error {
	s := inst.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.released {
		return ErrInstanceReleased
	}
	if _, ok := inst.params[name]; !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownParameter)
	}
	inst.params[name] = value
	inst.applyLocked()
	return nil
}

// SetVolume sets the instance's base gain.
func (inst *eventInstance) SetVolume(vol float64) error {
	s := inst.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.released {
		return ErrInstanceReleased
	}
	if vol < 0 {
		vol = 0
	}
	inst.volume = vol
	inst.applyLocked()
	return nil
}

func (inst *eventInstance) IsPlaying() (bool, error) {
	s := inst.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.ch == nil {
		return false, nil
	}
	return inst.ch.IsPlaying()
}

// Release stops playback immediately and invalidates the instance.
func (inst *eventInstance) Release() error {
	s := inst.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.released {
		return nil
	}
	inst.stopNowLocked()
	inst.released = true
	d := inst.desc
	for i, other := range d.instances {
		if other == inst {
			d.instances = append(d.instances[:i], d.instances[i+1:]...)
			break
		}
	}
	return nil
}

// applyLocked folds base volume/pitch and parameter mappings into the
// live channel. Volume parameters multiply; the last pitch or pan
// parameter wins. Callers hold sys.mu.
func (inst *eventInstance) applyLocked() {
	if inst.ch == nil || inst.ch.stopped {
		return
	}
	gain := inst.volume
	pitch := inst.pitch
	pan := 0.0
	hasPan := false
	for _, p := range inst.desc.def.Parameters {
		v := inst.params[p.Name]
		switch p.Target {
		case ParamTargetVolume:
			gain *= normalize(v, p.Min, p.Max)
		case ParamTargetPitch:
			pitch = clampRange(v, p.Min, p.Max)
		case ParamTargetPan:
			pan = clampRange(v, p.Min, p.Max)
			hasPan = true
		}
	}
	unlock := inst.sys.lockStream()
	defer unlock()
	if gain < 0 {
		gain = 0
	}
	inst.ch.auto.gain = gain
	inst.ch.setPitchLocked(pitch)
	if hasPan {
		inst.ch.setPanLocked(pan)
	}
}

func normalize(v, min, max float64) float64 {
	if max <= min {
		return 1
	}
	n := (v - min) / (max - min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
