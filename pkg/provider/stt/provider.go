// Package stt defines the provider interfaces for Speech-to-Text backends.
//
// Two capabilities exist. Provider performs batch transcription of a complete
// recorded utterance — this is what take recording uses, with a different
// model tier per practice mode. StreamProvider opens a live session that
// accepts raw PCM audio frames and emits two streams of Transcript values:
// low-latency partials for driving the sentence synchronizer and
// authoritative finals for take creation.
//
// Implementations must be safe for concurrent use. Audio input and transcript
// output channels are goroutine-safe by construction.
package stt

import (
	"context"
	"errors"

	"github.com/rostralabs/rostra/pkg/types"
)

// ErrEmptyResult is returned by Transcribe when the provider produced no
// recognisable text for the supplied audio.
var ErrEmptyResult = errors.New("stt: transcription produced no text")

// TranscribeConfig carries per-request hints for batch transcription.
type TranscribeConfig struct {
	// ModelID selects a specific model within the provider (e.g., "scribe_v1",
	// "nova-3"). An empty value uses the provider default.
	ModelID string

	// Language is the BCP-47 language tag for recognition (e.g., "ko", "en-US").
	// An empty string lets the provider auto-detect the language, if supported.
	Language string

	// SampleRate is the audio sample rate in Hz for raw PCM payloads. Providers
	// that accept container formats (webm, wav) may ignore it.
	SampleRate int
}

// Provider is the abstraction over a batch transcription backend.
type Provider interface {
	// Transcribe submits a complete recorded utterance and returns the
	// recognised transcript. Returns ErrEmptyResult (possibly wrapped) when the
	// provider recognised nothing.
	Transcribe(ctx context.Context, audio []byte, cfg TranscribeConfig) (types.Transcript, error)
}

// StreamConfig describes the audio format and recognition hints for a new
// live-listening session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. Common value: 16000.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most STT
	// providers). Implementors may downmix stereo internally.
	Channels int

	// Language is the BCP-47 language tag for recognition.
	Language string
}

// SessionHandle represents an open STT streaming session. It is an interface
// so that test code can provide mock implementations without requiring a live
// provider connection.
//
// Callers must call Close when the session is no longer needed. Failing to do
// so may leak goroutines and network connections inside the provider
// implementation. All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes to the provider for
	// transcription. The chunk should match the SampleRate, Channels, and
	// bit-depth agreed in StreamConfig. Calling SendAudio after Close returns
	// an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel that emits low-latency interim
	// Transcript values as the provider makes preliminary guesses. These drive
	// the live sentence highlight but must not be stored as takes.
	// The channel is closed when the session ends.
	Partials() <-chan types.Transcript

	// Finals returns a read-only channel that emits authoritative Transcript
	// values once the provider has committed to a recognition result. These are
	// the values that become takes.
	// The channel is closed when the session ends.
	Finals() <-chan types.Transcript

	// Close terminates the session, flushes any pending audio, and releases all
	// associated resources. After Close returns, the Partials and Finals
	// channels will be closed. Calling Close more than once is safe and
	// returns nil.
	//
	// Close cancels future result delivery only — any transcription request
	// already dispatched by the provider may still complete server-side.
	Close() error
}

// StreamProvider is the abstraction over a streaming transcription backend.
type StreamProvider interface {
	// StartStream opens a live transcription session. The returned handle is
	// ready to accept audio immediately.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
