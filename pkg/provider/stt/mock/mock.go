// Package mock provides test doubles for the stt.Provider and
// stt.StreamProvider interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/rostralabs/rostra/pkg/provider/stt"
	"github.com/rostralabs/rostra/pkg/types"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Audio is the payload passed to Transcribe.
	Audio []byte
	// Cfg is the TranscribeConfig passed to Transcribe.
	Cfg stt.TranscribeConfig
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe.
	TranscribeResult types.Transcript

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeCalls records every invocation of Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (types.Transcript, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Audio: audio, Cfg: cfg})
	result, err := p.TranscribeResult, p.TranscribeErr
	p.mu.Unlock()

	if err != nil {
		return types.Transcript{}, err
	}
	return result, nil
}

// StreamProvider is a mock implementation of stt.StreamProvider. Each call to
// StartStream returns a fresh Session whose channels the test can feed.
type StreamProvider struct {
	mu sync.Mutex

	// StartErr, if non-nil, is returned as the error from StartStream.
	StartErr error

	// Sessions records every session handed out, in order.
	Sessions []*Session
}

// Compile-time assertion that StreamProvider satisfies stt.StreamProvider.
var _ stt.StreamProvider = (*StreamProvider)(nil)

// StartStream implements stt.StreamProvider.
func (p *StreamProvider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.StartErr != nil {
		return nil, p.StartErr
	}

	s := NewSession()
	p.Sessions = append(p.Sessions, s)
	return s, nil
}

// Session is a mock stt.SessionHandle. Tests feed transcripts with
// EmitPartial/EmitFinal and inspect audio delivered via SendAudio.
type Session struct {
	mu     sync.Mutex
	audio  [][]byte
	closed bool

	partials chan types.Transcript
	finals   chan types.Transcript
}

// Compile-time assertion that Session satisfies stt.SessionHandle.
var _ stt.SessionHandle = (*Session)(nil)

// NewSession returns a ready-to-use mock session with buffered channels.
func NewSession() *Session {
	return &Session{
		partials: make(chan types.Transcript, 64),
		finals:   make(chan types.Transcript, 64),
	}
}

// SendAudio implements stt.SessionHandle.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return context.Canceled
	}
	s.audio = append(s.audio, chunk)
	return nil
}

// Partials implements stt.SessionHandle.
func (s *Session) Partials() <-chan types.Transcript { return s.partials }

// Finals implements stt.SessionHandle.
func (s *Session) Finals() <-chan types.Transcript { return s.finals }

// Close implements stt.SessionHandle. It closes both output channels.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.partials)
		close(s.finals)
	}
	return nil
}

// EmitPartial delivers an interim transcript to the session's consumers.
func (s *Session) EmitPartial(t types.Transcript) {
	t.IsFinal = false
	s.partials <- t
}

// EmitFinal delivers an authoritative transcript to the session's consumers.
func (s *Session) EmitFinal(t types.Transcript) {
	t.IsFinal = true
	s.finals <- t
}

// Audio returns a snapshot of all chunks delivered via SendAudio.
func (s *Session) Audio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.audio))
	copy(out, s.audio)
	return out
}
