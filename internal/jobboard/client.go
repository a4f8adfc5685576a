package jobboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// ErrUnavailable reports that no configured board could be reached. Partial
// board failures are tolerated and never produce this error.
var ErrUnavailable = errors.New("job search sources unavailable")

// DefaultBoards is the board set queried when none are configured.
var DefaultBoards = []string{"indeed", "linkedin", "glassdoor", "zip_recruiter"}

// Searcher retrieves job postings for one search query.
type Searcher interface {
	Search(ctx context.Context, params SearchParams) ([]Posting, error)
}

// Client talks to a JobSpy-style scraping bridge, one request per board.
// Board scraping is slow; the generous timeout covers a single board, and
// callers are expected to run Search off the request-serving path.
type Client struct {
	HTTPClient *http.Client
	APIURL     string
	Boards     []string

	logger *zap.Logger
}

// New creates a Client for the bridge at apiURL. boards may be nil to use
// DefaultBoards.
func New(apiURL string, boards []string, logger *zap.Logger) *Client {
	if len(boards) == 0 {
		boards = DefaultBoards
	}

	return &Client{
		APIURL: apiURL,
		Boards: boards,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type searchRequest struct {
	SearchTerm    string `json:"searchTerm"`
	Location      string `json:"location"`
	ResultsWanted int    `json:"resultsWanted"`
	IsRemote      bool   `json:"isRemote"`
	SiteName      string `json:"siteName"`
}

type searchResponse struct {
	Count int   `json:"count"`
	Jobs  []any `json:"jobs"`
}

// Search queries every configured board and merges the results in board
// order. Boards that fail are skipped; only when all of them fail does the
// call return ErrUnavailable.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Posting, error) {
	params = params.withDefaults()

	merged := make([]Posting, 0, params.Results)
	failed := 0

	for _, board := range c.Boards {
		postings, err := c.searchBoard(ctx, board, params)
		if err != nil {
			failed++
			c.logger.Warn("job board search failed",
				zap.String("board", board),
				zap.String("query", params.Query),
				zap.Error(err),
			)
			continue
		}

		merged = append(merged, postings...)
	}

	if failed == len(c.Boards) {
		return nil, fmt.Errorf("%w: all %d boards failed", ErrUnavailable, failed)
	}

	c.logger.Info("job search completed",
		zap.String("query", params.Query),
		zap.Int("postings", len(merged)),
		zap.Int("failed_boards", failed),
	)

	return merged, nil
}

func (c *Client) searchBoard(ctx context.Context, board string, params SearchParams) ([]Posting, error) {
	payload := searchRequest{
		SearchTerm:    params.Query,
		Location:      params.Location,
		ResultsWanted: params.Results,
		IsRemote:      params.RemoteOnly,
		SiteName:      board,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	raws, err := decodeRawPostings(parsed.Jobs)
	if err != nil {
		return nil, err
	}

	postings := make([]Posting, 0, len(raws))
	for _, raw := range raws {
		postings = append(postings, raw.normalize())
	}

	return postings, nil
}

// decodeRawPostings maps the bridge's loosely-typed job records onto
// rawPosting. Numeric salary fields arrive as numbers or strings depending
// on the board, so decoding is weakly typed.
func decodeRawPostings(items []any) ([]*rawPosting, error) {
	var raws []*rawPosting

	cfg := &mapstructure.DecoderConfig{
		Result:           &raws,
		TagName:          "json",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build posting decoder: %w", err)
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode postings: %w", err)
	}

	return raws, nil
}
