package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/avoronin/cvmatch/internal/embedding"
	"github.com/avoronin/cvmatch/internal/jobboard"

	"go.uber.org/zap"
)

const (
	// descriptionRuneLimit caps the description in ranked output.
	descriptionRuneLimit = 500
	truncationMark       = "..."
)

// Ranker scores postings against a resume embedding and orders them by
// cosine similarity.
type Ranker struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

func NewRanker(embedder embedding.Embedder, logger *zap.Logger) *Ranker {
	return &Ranker{embedder: embedder, logger: logger}
}

// Rank embeds each posting and returns the survivors sorted by similarity,
// highest first. Postings whose embedding fails, or whose vector has zero
// magnitude, are dropped rather than failing the whole operation. Embedding
// calls run one at a time to stay under the service's rate limit.
func (r *Ranker) Rank(ctx context.Context, resumeVector []float64, postings []jobboard.Posting) []RankedMatch {
	matches := make([]RankedMatch, 0, len(postings))

	for _, posting := range postings {
		composite := fmt.Sprintf("%s at %s. %s", posting.Title, posting.Company, posting.Description)

		vector, err := r.embedder.Embed(ctx, composite)
		if err != nil {
			r.logger.Warn("skipping posting, embedding failed",
				zap.String("posting_id", posting.ID),
				zap.Error(err),
			)
			continue
		}

		score, ok := cosine(resumeVector, vector)
		if !ok {
			r.logger.Warn("skipping posting, similarity undefined",
				zap.String("posting_id", posting.ID),
			)
			continue
		}

		posting.Description = truncateDescription(posting.Description)

		matches = append(matches, RankedMatch{
			Posting:         posting,
			SimilarityScore: roundScore(score),
		})
	}

	// Stable: tied scores keep their source order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})

	return matches
}

// cosine returns the signed similarity in [-1, 1]. A zero-magnitude or
// mismatched vector makes the similarity undefined; real embeddings never
// produce either, so ok=false signals an upstream defect.
func cosine(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionRuneLimit {
		return s
	}
	return string(runes[:descriptionRuneLimit]) + truncationMark
}
