package audio

import (
	"fmt"
	"time"
)

// fadePointCall records one AddFadePoint invocation.
type fadePointCall struct {
	clock uint64
	vol   float64
}

// mockSystem is a recording System implementation. Tests inspect the
// handles it hands out and can force any call to fail via failOn.
type mockSystem struct {
	failOn map[string]error

	initialized bool
	closed      bool
	updates     int
	sampleRate  int
	maxChannels int

	createCalls int
	sounds      []*mockSound
	channels    []*mockChannel

	loadBankCalls int
	banks         []*mockBank
	eventDescs    map[string]*mockEventDesc

	listenerPos     Vector
	listenerForward Vector
	listenerUp      Vector
	listenerSets    int

	muted     bool
	masterVol float64

	clock       uint64
	soundLength time.Duration
}

func newMockSystem() *mockSystem {
	return &mockSystem{
		failOn:      make(map[string]error),
		eventDescs:  make(map[string]*mockEventDesc),
		soundLength: 1500 * time.Millisecond,
	}
}

func (m *mockSystem) fail(name string) error { return m.failOn[name] }

// addEvent registers an event description so Event(name) succeeds.
func (m *mockSystem) addEvent(name string) *mockEventDesc {
	desc := &mockEventDesc{sys: m, name: name}
	m.eventDescs[name] = desc
	return desc
}

func (m *mockSystem) Init(sampleRate int, bufferSize time.Duration, maxChannels int) error {
	if err := m.fail("Init"); err != nil {
		return err
	}
	m.initialized = true
	m.sampleRate = sampleRate
	m.maxChannels = maxChannels
	return nil
}

func (m *mockSystem) Update() error {
	if err := m.fail("Update"); err != nil {
		return err
	}
	m.updates++
	return nil
}

func (m *mockSystem) Close() error {
	if err := m.fail("Close"); err != nil {
		return err
	}
	m.closed = true
	m.initialized = false
	return nil
}

func (m *mockSystem) CreateSound(path string, mode SoundMode) (Sound, error) {
	m.createCalls++
	if err := m.fail("CreateSound"); err != nil {
		return nil, err
	}
	snd := &mockSound{path: path, mode: mode, length: m.soundLength}
	m.sounds = append(m.sounds, snd)
	return snd, nil
}

func (m *mockSystem) PlaySound(snd Sound, paused bool) (Channel, error) {
	if err := m.fail("PlaySound"); err != nil {
		return nil, err
	}
	ch := &mockChannel{sys: m, snd: snd.(*mockSound), paused: paused, playing: true}
	m.channels = append(m.channels, ch)
	return ch, nil
}

func (m *mockSystem) LoadBank(path string) (Bank, error) {
	m.loadBankCalls++
	if err := m.fail("LoadBank"); err != nil {
		return nil, err
	}
	b := &mockBank{path: path}
	m.banks = append(m.banks, b)
	return b, nil
}

func (m *mockSystem) Event(name string) (EventDescription, error) {
	if err := m.fail("Event"); err != nil {
		return nil, err
	}
	desc, ok := m.eventDescs[name]
	if !ok {
		return nil, fmt.Errorf("event %q not found", name)
	}
	return desc, nil
}

func (m *mockSystem) SetListener(pos, forward, up Vector) error {
	if err := m.fail("SetListener"); err != nil {
		return err
	}
	m.listenerPos, m.listenerForward, m.listenerUp = pos, forward, up
	m.listenerSets++
	return nil
}

func (m *mockSystem) SetMasterMute(mute bool) error {
	if err := m.fail("SetMasterMute"); err != nil {
		return err
	}
	m.muted = mute
	return nil
}

func (m *mockSystem) SetMasterVolume(vol float64) error {
	if err := m.fail("SetMasterVolume"); err != nil {
		return err
	}
	m.masterVol = vol
	return nil
}

type mockSound struct {
	path     string
	mode     SoundMode
	length   time.Duration
	released bool
}

func (s *mockSound) Length() (time.Duration, error) { return s.length, nil }

func (s *mockSound) Release() error {
	s.released = true
	return nil
}

type mockChannel struct {
	sys *mockSystem
	snd *mockSound

	paused  bool
	playing bool
	stopped bool

	volumes   []float64
	fades     []fadePointCall
	positions []Vector
	reverbs   []float64
}

func (c *mockChannel) SetPaused(paused bool) error {
	if err := c.sys.fail("Channel.SetPaused"); err != nil {
		return err
	}
	c.paused = paused
	return nil
}

func (c *mockChannel) Stop() error {
	if err := c.sys.fail("Channel.Stop"); err != nil {
		return err
	}
	c.stopped = true
	c.playing = false
	return nil
}

func (c *mockChannel) SetVolume(vol float64) error {
	if err := c.sys.fail("Channel.SetVolume"); err != nil {
		return err
	}
	c.volumes = append(c.volumes, vol)
	return nil
}

func (c *mockChannel) SetPosition(pos Vector) error {
	if err := c.sys.fail("Channel.SetPosition"); err != nil {
		return err
	}
	c.positions = append(c.positions, pos)
	return nil
}

func (c *mockChannel) SetReverbMix(wet float64) error {
	if err := c.sys.fail("Channel.SetReverbMix"); err != nil {
		return err
	}
	c.reverbs = append(c.reverbs, wet)
	return nil
}

func (c *mockChannel) DSPClock() (uint64, error) {
	if err := c.sys.fail("Channel.DSPClock"); err != nil {
		return 0, err
	}
	return c.sys.clock, nil
}

func (c *mockChannel) AddFadePoint(clock uint64, vol float64) error {
	if err := c.sys.fail("Channel.AddFadePoint"); err != nil {
		return err
	}
	c.fades = append(c.fades, fadePointCall{clock: clock, vol: vol})
	return nil
}

func (c *mockChannel) IsPlaying() (bool, error) { return c.playing, nil }

type mockBank struct {
	path     string
	unloaded bool
}

func (b *mockBank) Path() string { return b.path }

func (b *mockBank) Unload() error {
	b.unloaded = true
	return nil
}

type mockEventDesc struct {
	sys       *mockSystem
	name      string
	instances []*mockEventInstance
}

func (d *mockEventDesc) CreateInstance() (EventInstance, error) {
	if err := d.sys.fail("CreateInstance"); err != nil {
		return nil, err
	}
	inst := &mockEventInstance{sys: d.sys, params: make(map[string]float64)}
	d.instances = append(d.instances, inst)
	return inst, nil
}

type mockEventInstance struct {
	sys *mockSystem

	params   map[string]float64
	volumes  []float64
	starts   int
	stops    []bool
	playing  bool
	released bool
}

func (i *mockEventInstance) Start() error {
	if err := i.sys.fail("Instance.Start"); err != nil {
		return err
	}
	i.starts++
	i.playing = true
	return nil
}

func (i *mockEventInstance) Stop(allowFadeOut bool) error {
	if err := i.sys.fail("Instance.Stop"); err != nil {
		return err
	}
	i.stops = append(i.stops, allowFadeOut)
	i.playing = false
	return nil
}

func (i *mockEventInstance) SetParameter(name string, value float64) error {
	if err := i.sys.fail("Instance.SetParameter"); err != nil {
		return err
	}
	i.params[name] = value
	return nil
}

func (i *mockEventInstance) SetVolume(vol float64) error {
	if err := i.sys.fail("Instance.SetVolume"); err != nil {
		return err
	}
	i.volumes = append(i.volumes, vol)
	return nil
}

func (i *mockEventInstance) IsPlaying() (bool, error) {
	if err := i.sys.fail("Instance.IsPlaying"); err != nil {
		return false, err
	}
	return i.playing, nil
}

func (i *mockEventInstance) Release() error {
	i.released = true
	i.playing = false
	return nil
}
