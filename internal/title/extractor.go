package title

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/avoronin/cvmatch/internal/ai"
	"github.com/avoronin/cvmatch/internal/logger"

	"go.uber.org/zap"
)

// Fallback is returned whenever a usable title cannot be extracted. The
// pipeline proceeds with it as a degraded search term instead of failing.
const Fallback = "general"

const (
	// resumeRuneLimit caps the resume text included in the prompt. Enough
	// signal to infer a role; more context degrades determinism and cost.
	resumeRuneLimit = 3000
	// maxTitleRunes rejects replies that are too long to be a title.
	maxTitleRunes = 50

	maxTokens   = 20
	temperature = 0.1
)

//go:embed prompt.md
var promptTemplate string

// Cache stores extracted queries keyed by document id so repeated matching
// requests for the same resume skip the generation call.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Extractor derives a short job-search query from resume text.
type Extractor struct {
	generator ai.Generator
	cache     Cache
	logger    *zap.Logger
}

// NewExtractor creates an Extractor. cache may be nil.
func NewExtractor(generator ai.Generator, cache Cache, logger *zap.Logger) *Extractor {
	return &Extractor{
		generator: generator,
		cache:     cache,
		logger:    logger,
	}
}

// Extract returns a 2-4 word search query for the resume. It never fails:
// any generation or validation problem yields Fallback.
func (e *Extractor) Extract(ctx context.Context, docID, resumeText string) string {
	if e.cache != nil && docID != "" {
		if query, ok := e.cache.Get(ctx, docID); ok {
			e.logger.Debug("search query served from cache",
				zap.String("document_id", docID),
				zap.String("query", query),
			)
			return query
		}
	}

	prompt := buildPrompt(resumeText)

	raw, err := e.generator.Generate(ctx, prompt, ai.Params{
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		e.logger.Warn("title extraction failed, falling back",
			zap.String("document_id", docID),
			zap.String("fallback", Fallback),
			zap.Error(err),
		)
		return Fallback
	}

	query, ok := clean(raw)
	if !ok {
		e.logger.Warn("title extraction returned unusable reply, falling back",
			zap.String("document_id", docID),
			zap.String("reply_preview", logger.TruncateForLog(raw, 80)),
			zap.String("fallback", Fallback),
		)
		return Fallback
	}

	if e.cache != nil && docID != "" {
		e.cache.Set(ctx, docID, query)
	}

	e.logger.Info("extracted search query",
		zap.String("document_id", docID),
		zap.String("query", query),
	)

	return query
}

func buildPrompt(resumeText string) string {
	runes := []rune(resumeText)
	if len(runes) > resumeRuneLimit {
		resumeText = string(runes[:resumeRuneLimit])
	}

	return strings.ReplaceAll(promptTemplate, "{{RESUME_TEXT}}", resumeText)
}

// clean normalizes a model reply into a search query: first line only,
// surrounding quotes removed, filler prefixes stripped. Replies that end up
// empty or at maxTitleRunes and beyond are rejected.
func clean(raw string) (string, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), `"'`))

	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "based on") || strings.HasPrefix(lower, "the ") || strings.HasPrefix(lower, "a ") {
		if idx := strings.LastIndex(line, ":"); idx != -1 {
			line = strings.TrimSpace(line[idx+1:])
		}
	}

	if line == "" || utf8.RuneCountInString(line) >= maxTitleRunes {
		return "", false
	}

	return line, true
}
