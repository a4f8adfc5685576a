package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func newTestCohere(t *testing.T, handler http.HandlerFunc) (*Cohere, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewCohere("test-key", "", zap.NewNop())
	client.APIURL = server.URL

	return client, server
}

func vectorResponse(t *testing.T, w http.ResponseWriter, vector []float64) {
	t.Helper()

	var resp embedResponse
	resp.Embeddings.Float = [][]float64{vector}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestEmbedTruncatesInput(t *testing.T) {
	var submitted string
	client, _ := newTestCohere(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		submitted = req.Texts[0]
		vectorResponse(t, w, make([]float64, Dimensions))
	})

	if _, err := client.Embed(context.Background(), strings.Repeat("a", inputRuneLimit+500)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := utf8.RuneCountInString(submitted); got != inputRuneLimit {
		t.Fatalf("expected submitted text of %d runes, got %d", inputRuneLimit, got)
	}
}

func TestEmbedShortInputUnchanged(t *testing.T) {
	var submitted string
	client, _ := newTestCohere(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		submitted = req.Texts[0]
		vectorResponse(t, w, make([]float64, Dimensions))
	})

	text := "short resume text"
	if _, err := client.Embed(context.Background(), text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if submitted != text {
		t.Fatalf("expected text submitted unchanged, got %q", submitted)
	}
}

func TestEmbedTruncatesVectorToDimensions(t *testing.T) {
	wide := make([]float64, 1024)
	for i := range wide {
		wide[i] = float64(i)
	}

	client, _ := newTestCohere(t, func(w http.ResponseWriter, _ *http.Request) {
		vectorResponse(t, w, wide)
	})

	vector, err := client.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vector) != Dimensions {
		t.Fatalf("expected %d dimensions, got %d", Dimensions, len(vector))
	}

	if vector[Dimensions-1] != float64(Dimensions-1) {
		t.Fatalf("expected leading values preserved, got %v", vector[Dimensions-1])
	}
}

func TestEmbedPadsShortVector(t *testing.T) {
	client, _ := newTestCohere(t, func(w http.ResponseWriter, _ *http.Request) {
		vectorResponse(t, w, []float64{1, 2, 3})
	})

	vector, err := client.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vector) != Dimensions {
		t.Fatalf("expected %d dimensions, got %d", Dimensions, len(vector))
	}

	if vector[0] != 1 || vector[3] != 0 {
		t.Fatalf("expected padded vector, got head %v", vector[:4])
	}
}

func TestEmbedBadStatus(t *testing.T) {
	client, _ := newTestCohere(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Embed(context.Background(), "text"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmbedMalformedResponse(t *testing.T) {
	client, _ := newTestCohere(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	})

	if _, err := client.Embed(context.Background(), "text"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmbedEmptyEmbeddings(t *testing.T) {
	client, _ := newTestCohere(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"embeddings":{"float":[]}}`))
	})

	if _, err := client.Embed(context.Background(), "text"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmbedTransportError(t *testing.T) {
	client, server := newTestCohere(t, func(w http.ResponseWriter, _ *http.Request) {})
	server.Close()

	if _, err := client.Embed(context.Background(), "text"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
