package audio

import (
	"errors"
	"fmt"
)

// Precondition errors. These report a misuse of the engine's caches,
// not a middleware failure, and are logged-and-returned like every
// other failure.
var (
	ErrNotInitialized = errors.New("audio: engine not initialized")
	ErrSoundNotLoaded = errors.New("audio: sound not loaded")
	ErrLoopNotPlaying = errors.New("audio: sound is not an actively playing loop")
	ErrLoopActive     = errors.New("audio: sound has an active loop")
	ErrEventNotLoaded = errors.New("audio: event not loaded")
)

// SystemError wraps a failed middleware call. Op names the engine
// operation and call that failed.
type SystemError struct {
	Op   string
	Call string
	Err  error
}

func (e *SystemError) Error() string {
	if e.Call != "" {
		return fmt.Sprintf("audio: %s: %s: %v", e.Op, e.Call, e.Err)
	}
	return fmt.Sprintf("audio: %s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }
