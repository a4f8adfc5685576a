package title

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/avoronin/cvmatch/internal/ai"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
	lastParams ai.Params
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, params ai.Params) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastParams = params
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type memoryCache struct {
	entries map[string]string
	sets    int
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key, value string) {
	c.sets++
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = value
}

func TestExtractCleansReply(t *testing.T) {
	cases := []struct {
		name     string
		response string
		expected string
	}{
		{"plain", "Data Analyst", "Data Analyst"},
		{"quoted", `"Software Engineer"`, "Software Engineer"},
		{"single quoted", "'Product Manager'", "Product Manager"},
		{"multiline", "Data Analyst\nBecause the CV mentions SQL.", "Data Analyst"},
		{"filler prefix with colon", "Based on the CV, the best title is: Data Engineer", "Data Engineer"},
		{"the prefix with colon", "The most relevant title: Backend Developer", "Backend Developer"},
		{"surrounding whitespace", "  DevOps Engineer  ", "DevOps Engineer"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubGenerator{response: tc.response}
			extractor := NewExtractor(stub, nil, zap.NewNop())

			if got := extractor.Extract(context.Background(), "doc-1", "resume text"); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	stub := &stubGenerator{response: "Data Analyst"}
	extractor := NewExtractor(stub, nil, zap.NewNop())

	first := extractor.Extract(context.Background(), "doc-1", "resume text")
	second := extractor.Extract(context.Background(), "doc-1", "resume text")

	if first != second {
		t.Fatalf("expected identical output across calls, got %q then %q", first, second)
	}

	if stub.lastParams.Temperature != temperature {
		t.Fatalf("expected near-deterministic temperature %v, got %v", temperature, stub.lastParams.Temperature)
	}
}

func TestExtractFallbackOnError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("rate limited")}
	extractor := NewExtractor(stub, nil, zap.NewNop())

	if got := extractor.Extract(context.Background(), "doc-1", "resume text"); got != Fallback {
		t.Fatalf("expected fallback %q, got %q", Fallback, got)
	}
}

func TestExtractRejectsLongReply(t *testing.T) {
	stub := &stubGenerator{response: strings.Repeat("x", maxTitleRunes)}
	extractor := NewExtractor(stub, nil, zap.NewNop())

	if got := extractor.Extract(context.Background(), "doc-1", "resume text"); got != Fallback {
		t.Fatalf("expected fallback for %d-rune reply, got %q", maxTitleRunes, got)
	}
}

func TestExtractRejectsEmptyReply(t *testing.T) {
	stub := &stubGenerator{response: `""`}
	extractor := NewExtractor(stub, nil, zap.NewNop())

	if got := extractor.Extract(context.Background(), "doc-1", "resume text"); got != Fallback {
		t.Fatalf("expected fallback for empty reply, got %q", got)
	}
}

func TestExtractTruncatesResumeInPrompt(t *testing.T) {
	stub := &stubGenerator{response: "Data Analyst"}
	extractor := NewExtractor(stub, nil, zap.NewNop())

	resume := strings.Repeat("r", resumeRuneLimit+1000)
	extractor.Extract(context.Background(), "doc-1", resume)

	if strings.Contains(stub.lastPrompt, resume) {
		t.Fatalf("expected resume text truncated in prompt")
	}

	if !strings.Contains(stub.lastPrompt, strings.Repeat("r", resumeRuneLimit)) {
		t.Fatalf("expected first %d runes of resume in prompt", resumeRuneLimit)
	}

	// The prompt shell itself is small; the bulk must be the capped resume.
	if utf8.RuneCountInString(stub.lastPrompt) > resumeRuneLimit+1000 {
		t.Fatalf("prompt longer than expected: %d runes", utf8.RuneCountInString(stub.lastPrompt))
	}
}

func TestExtractUsesCache(t *testing.T) {
	cache := &memoryCache{entries: map[string]string{"doc-1": "Data Engineer"}}
	stub := &stubGenerator{response: "Data Analyst"}
	extractor := NewExtractor(stub, cache, zap.NewNop())

	if got := extractor.Extract(context.Background(), "doc-1", "resume text"); got != "Data Engineer" {
		t.Fatalf("expected cached query, got %q", got)
	}

	if stub.calls != 0 {
		t.Fatalf("expected no generation call on cache hit, got %d", stub.calls)
	}
}

func TestExtractStoresSuccessInCache(t *testing.T) {
	cache := &memoryCache{}
	stub := &stubGenerator{response: "Data Analyst"}
	extractor := NewExtractor(stub, cache, zap.NewNop())

	extractor.Extract(context.Background(), "doc-1", "resume text")

	if cache.entries["doc-1"] != "Data Analyst" {
		t.Fatalf("expected query cached, got %v", cache.entries)
	}
}

func TestExtractDoesNotCacheFallback(t *testing.T) {
	cache := &memoryCache{}
	stub := &stubGenerator{err: errors.New("boom")}
	extractor := NewExtractor(stub, cache, zap.NewNop())

	extractor.Extract(context.Background(), "doc-1", "resume text")

	if cache.sets != 0 {
		t.Fatalf("expected fallback not cached, got %d sets", cache.sets)
	}
}
