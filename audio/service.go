package audio

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Service wraps Engine as a lifecycle service. It degrades gracefully:
// when no audio device is available the service marks itself disabled
// instead of failing startup, and Engine() returns nil.
type Service struct {
	sys      System
	logger   *log.Logger
	engine   *Engine
	disabled atomic.Bool
}

// NewService creates an audio service on the given middleware.
func NewService(sys System) *Service {
	return &Service{sys: sys}
}

// SetLogger routes engine diagnostics to logger. Call before the
// service is started.
func (s *Service) SetLogger(logger *log.Logger) {
	s.logger = logger
	if s.engine != nil {
		s.engine.SetLogger(logger)
	}
}

// Name implements service.Service.
func (s *Service) Name() string { return "audio" }

// Dependencies implements service.Service.
func (s *Service) Dependencies() []string { return nil }

// Init implements service.Service. Configuration comes from the
// AUDIOENGINE_* environment; args[0] may optionally carry a bool initial
// mute state overriding it.
func (s *Service) Init(args ...any) error {
	cfg, err := LoadConfig()
	if err != nil {
		cfg = DefaultConfig()
	}
	if len(args) > 0 {
		if muted, ok := args[0].(bool); ok {
			cfg.Enabled = !muted
		}
	}
	s.engine = NewEngine(s.sys, cfg)
	if s.logger != nil {
		s.engine.SetLogger(s.logger)
	}
	return nil
}

// Start implements service.Service. Device acquisition failure sets
// the disabled flag; it is not an error.
func (s *Service) Start() error {
	if s.engine == nil {
		s.disabled.Store(true)
		return nil
	}
	if err := s.engine.Init(); err != nil {
		s.disabled.Store(true)
		s.engine = nil
		return nil
	}
	return nil
}

// Stop implements service.Service.
func (s *Service) Stop() error {
	if s.engine != nil {
		s.engine.Close()
	}
	return nil
}

// IsDisabled returns true if audio is unavailable.
func (s *Service) IsDisabled() bool {
	return s.disabled.Load()
}

// Engine returns the running engine, or nil when disabled.
func (s *Service) Engine() *Engine {
	if s.disabled.Load() {
		return nil
	}
	return s.engine
}
