package presentation

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when no presentation with the
// requested id exists.
var ErrNotFound = errors.New("presentation not found")

// Store persists presentation metadata snapshots. Large payloads (audio,
// source documents) are never stored here; they live with the file
// collaborator and only their references are part of the snapshot.
//
// Save is an upsert: every committed mutation writes the whole presentation
// back. All implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces the snapshot for p.ID.
	Save(ctx context.Context, p Presentation) error

	// Get retrieves a presentation by id.
	// Returns [ErrNotFound] when no presentation with that id exists.
	Get(ctx context.Context, id string) (Presentation, error)

	// List returns all presentations. Result order is not guaranteed.
	List(ctx context.Context) ([]Presentation, error)

	// Delete removes a presentation and everything it contains.
	// Returns [ErrNotFound] when no presentation with that id exists.
	Delete(ctx context.Context, id string) error
}
