package resume

import (
	"context"
	"errors"
)

// ErrNotFound reports that no document exists for the given id. A document
// that exists but has no embedding yet is NOT this error; its profile is
// returned with a nil Embedding.
var ErrNotFound = errors.New("document not found")

// Profile is the semantic content derived from one uploaded document.
type Profile struct {
	ID   string
	Text string
	// Embedding is nil until the one-shot background task has computed it.
	// Once set it is never mutated.
	Embedding []float64
}

// Store provides read access to resume profiles.
type Store interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
}
