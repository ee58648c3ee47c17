package audio

// LoadBank loads a soundbank file and caches it by path. Reloading a
// cached path is a no-op that still reports success.
func (e *Engine) LoadBank(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return e.precondition("LoadBank", path, ErrNotInitialized)
	}
	if _, ok := e.banks.lookup(path); ok {
		e.logger.Debug("bank already loaded", "path", path)
		return nil
	}
	bank, err := e.sys.LoadBank(path)
	if err != nil {
		return e.sysErr("LoadBank", path, "LoadBank", err)
	}
	e.banks.insert(path, bank)
	e.logger.Debug("loaded bank", "path", path)
	return nil
}

// LoadEvent instantiates the named event and applies initial parameter
// values. Exactly one instance exists per event name; loading a name
// twice is a no-op that still reports success. The event's bank must
// have been loaded first, otherwise the middleware lookup fails and is
// reported through the normal error path.
func (e *Engine) LoadEvent(name string, params map[string]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return e.precondition("LoadEvent", name, ErrNotInitialized)
	}
	if _, ok := e.events.lookup(name); ok {
		e.logger.Debug("event already loaded", "event", name)
		return nil
	}
	desc, err := e.sys.Event(name)
	if err != nil {
		return e.sysErr("LoadEvent", name, "Event", err)
	}
	inst, err := desc.CreateInstance()
	if err != nil {
		return e.sysErr("LoadEvent", name, "CreateInstance", err)
	}
	ck := e.check("LoadEvent", name)
	for p, v := range params {
		ck.do("SetParameter", inst.SetParameter(p, v))
	}
	e.eventDescs.insert(name, desc)
	e.events.insert(name, inst)
	e.logger.Debug("loaded event", "event", name)
	return ck.err
}

// SetEventParameter sets a named parameter on an instantiated event.
func (e *Engine) SetEventParameter(name, param string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.events.lookup(name)
	if !ok {
		return e.precondition("SetEventParameter", name, ErrEventNotLoaded)
	}
	if err := inst.SetParameter(param, value); err != nil {
		return e.sysErr("SetEventParameter", name, "SetParameter", err)
	}
	return nil
}

// PlayEvent starts the single instance of the named event.
func (e *Engine) PlayEvent(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.events.lookup(name)
	if !ok {
		return e.precondition("PlayEvent", name, ErrEventNotLoaded)
	}
	if err := inst.Start(); err != nil {
		return e.sysErr("PlayEvent", name, "Start", err)
	}
	return nil
}

// StopEvent stops the named event's instance, allowing its authored
// fade-out to complete.
func (e *Engine) StopEvent(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.events.lookup(name)
	if !ok {
		return e.precondition("StopEvent", name, ErrEventNotLoaded)
	}
	if err := inst.Stop(true); err != nil {
		return e.sysErr("StopEvent", name, "Stop", err)
	}
	return nil
}

// SetEventVolume sets the event instance volume, clamped to [0, 1].
func (e *Engine) SetEventVolume(name string, vol float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.events.lookup(name)
	if !ok {
		return e.precondition("SetEventVolume", name, ErrEventNotLoaded)
	}
	if err := inst.SetVolume(clamp01(vol)); err != nil {
		return e.sysErr("SetEventVolume", name, "SetVolume", err)
	}
	return nil
}

// EventIsPlaying reports whether the named event's instance is
// currently playing. Unknown or failed lookups report false.
func (e *Engine) EventIsPlaying(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.events.lookup(name)
	if !ok {
		return false
	}
	playing, err := inst.IsPlaying()
	if err != nil {
		e.sysErr("EventIsPlaying", name, "IsPlaying", err)
		return false
	}
	return playing
}
