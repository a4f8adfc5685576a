package matching

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/avoronin/cvmatch/internal/jobboard"
)

// ErrEmbeddingPending reports that the resume exists but its embedding has
// not been computed yet. The caller should wait for the background task
// instead of retrying the match.
var ErrEmbeddingPending = errors.New("resume embedding not generated yet")

// Request describes one matching invocation.
type Request struct {
	DocumentID string
	Location   string
	Results    int
	RemoteOnly bool
}

// RankedMatch is a posting annotated with its similarity to the resume.
type RankedMatch struct {
	jobboard.Posting
	SimilarityScore float64 `json:"similarity_score"`
}

// Result is the response envelope for one matching request. TotalFetched
// counts postings retrieved before ranking; matches may be shorter when
// individual postings were dropped.
type Result struct {
	Query        string        `json:"query"`
	TotalFetched int           `json:"total_jobs_fetched"`
	Matches      []RankedMatch `json:"matches"`
}

// DumpToTmpFile writes the result to a temporary JSON file and returns its name.
func (r *Result) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
