// Package beepsys implements the audio.System middleware boundary on
// top of gopxl/beep and its speaker package.
//
// Sounds are decoded eagerly into memory buffers (wav, mp3, ogg and
// flac). Playback channels are beep streamer chains: a volume
// automation stage (channel gain, distance attenuation and fade-point
// envelope evaluated against a sample-accurate DSP clock), a stereo
// pan stage and a pause/stop control, mixed into a single master
// output.
//
// Banks are JSON manifests describing named events backed by audio
// files; cmd/bankpack generates them. Reverb send levels are accepted
// and recorded but not rendered by this backend.
//
// When no output device can be opened the system runs silent: every
// operation succeeds, nothing renders, and the DSP clock does not
// advance. This keeps games playable on machines without audio.
package beepsys
