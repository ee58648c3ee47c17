package beepsys

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeBank writes a manifest plus one wav file per event and returns
// the manifest path.
func writeBank(t *testing.T, dir string, m Manifest) string {
	t.Helper()
	for _, def := range m.Events {
		if def.File != "" {
			writeWAV(t, dir, def.File, 44100, 1000)
		}
	}
	raw, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, m.Name+".bank.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBankAndEventLookup(t *testing.T) {
	s, dir := newTestSystem(t, 16)
	path := writeBank(t, dir, Manifest{
		Name: "combat",
		Events: []EventDef{
			{Name: "event:/shot", File: "shot.wav"},
			{Name: "event:/blast", File: "blast.wav", Volume: 0.6},
		},
	})

	b, err := s.LoadBank(path)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if b.Path() != path {
		t.Errorf("Path = %q, want %q", b.Path(), path)
	}
	if _, err := s.Event("event:/shot"); err != nil {
		t.Errorf("Event lookup: %v", err)
	}
	if _, err := s.Event("event:/nothing"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown event err = %v, want ErrEventNotFound", err)
	}
}

func TestLoadBankValidation(t *testing.T) {
	s, dir := newTestSystem(t, 16)

	// Event with no file.
	bad := writeBank(t, dir, Manifest{Name: "bad", Events: []EventDef{{Name: "event:/x"}}})
	if _, err := s.LoadBank(bad); err == nil {
		t.Error("event without file accepted")
	}

	// Unknown parameter target.
	bad2 := writeBank(t, dir, Manifest{Name: "bad2", Events: []EventDef{{
		Name: "event:/y", File: "y.wav",
		Parameters: []ParamDef{{Name: "p", Target: "reverb"}},
	}}})
	if _, err := s.LoadBank(bad2); err == nil {
		t.Error("unknown parameter target accepted")
	}

	// Inverted parameter range.
	bad3 := writeBank(t, dir, Manifest{Name: "bad3", Events: []EventDef{{
		Name: "event:/z", File: "z.wav",
		Parameters: []ParamDef{{Name: "p", Min: 2, Max: 1, Target: ParamTargetVolume}},
	}}})
	if _, err := s.LoadBank(bad3); err == nil {
		t.Error("inverted parameter range accepted")
	}
}

func TestLoadBankDuplicateEvent(t *testing.T) {
	s, dir := newTestSystem(t, 16)
	first := writeBank(t, dir, Manifest{Name: "one", Events: []EventDef{{Name: "event:/dup", File: "a.wav"}}})
	if _, err := s.LoadBank(first); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	second := writeBank(t, dir, Manifest{Name: "two", Events: []EventDef{{Name: "event:/dup", File: "b.wav"}}})
	if _, err := s.LoadBank(second); !errors.Is(err, ErrDuplicateEvent) {
		t.Errorf("err = %v, want ErrDuplicateEvent", err)
	}
}

func TestEventInstanceLifecycle(t *testing.T) {
	s, dir := newTestSystem(t, 16)
	path := writeBank(t, dir, Manifest{
		Name: "engine",
		Events: []EventDef{{
			Name: "event:/engine", File: "engine.wav", Volume: 0.8, Loop: true,
			Parameters: []ParamDef{
				{Name: "intensity", Min: 0, Max: 2, Default: 1, Target: ParamTargetVolume},
			},
		}},
	})
	if _, err := s.LoadBank(path); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	desc, err := s.Event("event:/engine")
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	inst, err := desc.CreateInstance()
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	if playing, _ := inst.IsPlaying(); playing {
		t.Error("instance playing before Start")
	}
	if err := inst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if playing, _ := inst.IsPlaying(); !playing {
		t.Error("instance not playing after Start")
	}

	// Base volume times the normalized default parameter value:
	// 0.8 * normalize(1, 0, 2) = 0.4.
	ei := inst.(*eventInstance)
	if got := ei.ch.auto.gain; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("gain = %v, want 0.4", got)
	}

	if err := inst.SetParameter("intensity", 2); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if got := ei.ch.auto.gain; math.Abs(got-0.8) > 1e-9 {
		t.Errorf("gain after parameter = %v, want 0.8", got)
	}
	if err := inst.SetParameter("nothing", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("unknown parameter err = %v, want ErrUnknownParameter", err)
	}

	if err := inst.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if got := ei.ch.auto.gain; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("gain after SetVolume = %v, want 0.5", got)
	}

	if err := inst.Stop(false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if playing, _ := inst.IsPlaying(); playing {
		t.Error("instance playing after Stop")
	}

	// Restart works and Release invalidates for good.
	if err := inst.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := inst.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := inst.Start(); !errors.Is(err, ErrInstanceReleased) {
		t.Errorf("Start after release err = %v, want ErrInstanceReleased", err)
	}
}

func TestEventStopWithFadeOut(t *testing.T) {
	s, dir := newTestSystem(t, 16)
	path := writeBank(t, dir, Manifest{
		Name:   "music",
		Events: []EventDef{{Name: "event:/music", File: "music.wav", Loop: true}},
	})
	if _, err := s.LoadBank(path); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	desc, _ := s.Event("event:/music")
	inst, err := desc.CreateInstance()
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if err := inst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := inst.Stop(true); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// The channel is still attached and ramping toward zero.
	ei := inst.(*eventInstance)
	if ei.ch == nil || ei.ch.stopped {
		t.Fatal("fade-out stop detached the channel immediately")
	}
	if !ei.ch.auto.stopAtZero {
		t.Error("stopAtZero not armed")
	}
	if len(ei.ch.auto.points) != 2 {
		t.Errorf("fade points = %v, want 2", ei.ch.auto.points)
	}

	// Rendering past the fade drains the channel.
	buf := make([][2]float64, stopFadeSamples+512)
	s.master.Stream(buf)
	s.master.Stream(buf[:512])
	if playing, _ := inst.IsPlaying(); playing {
		t.Error("instance still playing after fade completed")
	}
}

func TestEventPitchParameterUsesResampler(t *testing.T) {
	s, dir := newTestSystem(t, 16)
	path := writeBank(t, dir, Manifest{
		Name: "siren",
		Events: []EventDef{{
			Name: "event:/siren", File: "siren.wav", Loop: true,
			Parameters: []ParamDef{
				{Name: "speed", Min: 0.5, Max: 2, Default: 1, Target: ParamTargetPitch},
			},
		}},
	})
	if _, err := s.LoadBank(path); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	desc, _ := s.Event("event:/siren")
	inst, err := desc.CreateInstance()
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if err := inst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ei := inst.(*eventInstance)
	if ei.ch.resampler == nil {
		t.Fatal("pitched event channel has no resampler")
	}
	if got := ei.ch.resampler.Ratio(); math.Abs(got-ei.ch.baseRatio) > 1e-9 {
		t.Errorf("ratio = %v, want base %v", got, ei.ch.baseRatio)
	}
	if err := inst.SetParameter("speed", 2); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if got := ei.ch.resampler.Ratio(); math.Abs(got-2*ei.ch.baseRatio) > 1e-9 {
		t.Errorf("ratio = %v, want %v", got, 2*ei.ch.baseRatio)
	}
	// Out-of-range values clamp to the declared bounds.
	if err := inst.SetParameter("speed", 10); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if got := ei.ch.resampler.Ratio(); math.Abs(got-2*ei.ch.baseRatio) > 1e-9 {
		t.Errorf("clamped ratio = %v, want %v", got, 2*ei.ch.baseRatio)
	}
}

func TestBankUnload(t *testing.T) {
	s, dir := newTestSystem(t, 16)
	path := writeBank(t, dir, Manifest{
		Name:   "ui",
		Events: []EventDef{{Name: "event:/click", File: "click.wav"}},
	})
	b, err := s.LoadBank(path)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	desc, _ := s.Event("event:/click")
	inst, err := desc.CreateInstance()
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if err := inst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := b.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if _, err := s.Event("event:/click"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("event survives unload: %v", err)
	}
	if playing, _ := inst.IsPlaying(); playing {
		t.Error("instance playing after bank unload")
	}
	if err := inst.Start(); !errors.Is(err, ErrInstanceReleased) {
		t.Errorf("Start after unload err = %v, want ErrInstanceReleased", err)
	}
	if _, err := desc.CreateInstance(); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("CreateInstance after unload err = %v, want ErrEventNotFound", err)
	}
	// Unload again is a no-op.
	if err := b.Unload(); err != nil {
		t.Fatalf("second Unload: %v", err)
	}
}
