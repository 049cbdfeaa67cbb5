// Package rostra defines the shared types used across all Rostra packages.
//
// These types form the lingua franca between the transcription providers, the
// alignment engine, and the rehearsal session layer. They are intentionally
// minimal — each package defines its own domain types, but cross-cutting data
// structures live here to avoid circular imports.
package types

import "time"

// Transcript represents a speech-to-text result from an STT provider.
// Both partial (interim) and final transcripts use this type.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial (interim) transcript.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). May be zero if the
	// provider does not report confidence.
	Confidence float64

	// Words contains per-word detail when available (Deepgram).
	// May be nil for providers that don't support word-level output.
	Words []WordDetail

	// ModelID identifies which transcription model produced this result.
	ModelID string

	// Timestamp marks when the utterance started, relative to session start.
	Timestamp time.Duration

	// Duration is the length of the utterance.
	Duration time.Duration
}

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// PartialResult is one event of a live-listening transcript stream as consumed
// by the sentence synchronizer. Text carries the full accumulated transcript
// so far, not a delta.
//
// Sequence increases monotonically within one stream. Consumers keep the
// highest sequence seen and discard stale out-of-order deliveries.
type PartialResult struct {
	// Text is the full accumulated transcript of the stream so far.
	Text string

	// IsFinal marks the last event of an utterance.
	IsFinal bool

	// Sequence is the monotonically increasing event number within the stream.
	Sequence uint64
}
