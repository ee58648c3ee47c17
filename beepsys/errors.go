package beepsys

import "errors"

// Sentinel errors
var (
	ErrNotInitialized    = errors.New("beepsys: system not initialized")
	ErrUnsupportedFormat = errors.New("beepsys: unsupported audio file format")
	ErrForeignHandle     = errors.New("beepsys: handle was not created by this system")
	ErrTooManyChannels   = errors.New("beepsys: channel limit reached")
	ErrChannelStopped    = errors.New("beepsys: channel already stopped")
	ErrSoundReleased     = errors.New("beepsys: sound already released")
	ErrEventNotFound     = errors.New("beepsys: event not found in any loaded bank")
	ErrDuplicateEvent    = errors.New("beepsys: event name already registered by another bank")
	ErrUnknownParameter  = errors.New("beepsys: parameter not declared by event")
	ErrInstanceReleased  = errors.New("beepsys: event instance already released")
)
