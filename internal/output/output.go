// Package output negotiates an audio stream and drives the synth callback
// from it.
package output

import (
	"errors"
)

var (
	ErrUnknownBackend = errors.New("unknown audio backend")
	ErrNoDevice       = errors.New("no matching audio device")
)

// Synth is the realtime callback: fill out, interleaved with the given
// channel count, at sampleRate. It must not block.
type Synth interface {
	Play(sampleRate uint32, channels int, out []float32)
}

// Device identifies one playback endpoint of a backend.
type Device struct {
	ID      string
	Name    string
	Default bool
}

// StreamConfig is what the manager asks a backend for. Zero fields mean
// "backend default".
type StreamConfig struct {
	Device       *Device
	SampleRate   int
	Channels     int
	BufferFrames int
}

// Negotiated is what the backend actually opened.
type Negotiated struct {
	SampleRate   uint32
	Channels     int
	BufferFrames int
}

// Stream is an open, running output stream.
type Stream interface {
	Config() Negotiated
	Close() error
}

// Backend opens streams on one audio API.
type Backend interface {
	Name() string
	Devices() ([]Device, error)
	// Open starts a stream that calls synth. onError is invoked
	// asynchronously on device failure; the stream is not restarted.
	Open(cfg StreamConfig, synth Synth, onError func(msg string)) (Stream, error)
	Close() error
}
