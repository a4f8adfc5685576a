package matching

import (
	"context"
	"fmt"

	"github.com/avoronin/cvmatch/internal/jobboard"
	"github.com/avoronin/cvmatch/internal/resume"

	"go.uber.org/zap"
)

// QueryExtractor derives a search query from resume text. Implementations
// must not fail; a degraded constant query is an acceptable result.
type QueryExtractor interface {
	Extract(ctx context.Context, docID, resumeText string) string
}

// Pipeline composes the full matching flow: load profile, extract query,
// search boards, rank by similarity. It is stateless across requests.
type Pipeline struct {
	store     resume.Store
	extractor QueryExtractor
	searcher  jobboard.Searcher
	ranker    *Ranker
	logger    *zap.Logger
}

func NewPipeline(store resume.Store, extractor QueryExtractor, searcher jobboard.Searcher, ranker *Ranker, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		extractor: extractor,
		searcher:  searcher,
		ranker:    ranker,
		logger:    logger,
	}
}

// Match runs the pipeline for one request. The only aborting conditions are
// a missing document (resume.ErrNotFound), a resume without an embedding
// (ErrEmbeddingPending) and total search failure (jobboard.ErrUnavailable);
// everything else degrades into the result. Every external dependency gets
// exactly one attempt.
func (p *Pipeline) Match(ctx context.Context, req Request) (*Result, error) {
	profile, err := p.store.GetProfile(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("get resume profile: %w", err)
	}

	// Precondition: checked before any network call is made.
	if len(profile.Embedding) == 0 {
		return nil, ErrEmbeddingPending
	}

	query := p.extractor.Extract(ctx, profile.ID, profile.Text)

	postings, err := p.searcher.Search(ctx, jobboard.SearchParams{
		Query:      query,
		Location:   req.Location,
		Results:    req.Results,
		RemoteOnly: req.RemoteOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("search postings: %w", err)
	}

	if len(postings) == 0 {
		p.logger.Info("no postings found",
			zap.String("document_id", req.DocumentID),
			zap.String("query", query),
		)
		return &Result{Query: query, Matches: []RankedMatch{}}, nil
	}

	matches := p.ranker.Rank(ctx, profile.Embedding, postings)

	p.logger.Info("matching completed",
		zap.String("document_id", req.DocumentID),
		zap.String("query", query),
		zap.Int("fetched", len(postings)),
		zap.Int("ranked", len(matches)),
	)

	return &Result{
		Query:        query,
		TotalFetched: len(postings),
		Matches:      matches,
	}, nil
}
