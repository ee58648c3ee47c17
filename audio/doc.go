// Package audio implements a game audio engine: it owns all middleware
// resource handles (sounds, playback channels, banks, event instances)
// in identity-keyed caches and exposes a small API to load, play, stop,
// reposition and volume-fade sounds and bank events.
//
// The engine talks to the underlying audio middleware exclusively
// through the System interface, so the production backend (package
// beepsys) can be swapped for a test double. Every middleware call is
// checked; failures are logged and returned as typed errors, never
// fatal.
//
// All methods must be called from a single goroutine, and Update must
// be called once per application tick to drive the middleware's
// internal scheduling.
package audio
