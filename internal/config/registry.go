package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rostralabs/rostra/pkg/provider/llm"
	"github.com/rostralabs/rostra/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	llm    map[string]func(ProviderEntry) (llm.Provider, error)
	stt    map[string]func(ProviderEntry) (stt.Provider, error)
	stream map[string]func(ProviderEntry) (stt.StreamProvider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:    make(map[string]func(ProviderEntry) (llm.Provider, error)),
		stt:    make(map[string]func(ProviderEntry) (stt.Provider, error)),
		stream: make(map[string]func(ProviderEntry) (stt.StreamProvider, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterSTT registers a batch STT provider factory under name.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterStream registers a streaming STT provider factory under name.
func (r *Registry) RegisterStream(name string, factory func(ProviderEntry) (stt.StreamProvider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stream[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSTT instantiates a batch STT provider using the factory registered
// under entry.Name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateStream instantiates a streaming STT provider using the factory
// registered under entry.Name.
func (r *Registry) CreateStream(entry ProviderEntry) (stt.StreamProvider, error) {
	r.mu.RLock()
	factory, ok := r.stream[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt.live/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
