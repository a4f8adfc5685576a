package embedding

import (
	"context"
	"errors"
)

// Dimensions is the fixed length of every vector produced by an Embedder.
const Dimensions = 768

// ErrUnavailable reports that the embedding service could not produce a
// vector. Callers decide whether that aborts the request or just drops one
// item; the client itself never retries.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder turns a piece of text into a fixed-length semantic vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
