package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL             = "https://api.cohere.com/v1/embed"
	defaultCohereModel = "embed-english-v3.0"
	// inputRuneLimit caps the text sent to the API. Longer inputs do not
	// improve match quality for this use case.
	inputRuneLimit = 8000
)

// Cohere calls the Cohere embed API. The model returns 1024-dimension
// vectors which are truncated to Dimensions for storage compatibility.
type Cohere struct {
	HTTPClient *http.Client
	APIURL     string

	apiKey string
	model  string
	logger *zap.Logger
}

// NewCohere creates a client for the Cohere embed endpoint.
func NewCohere(apiKey, model string, logger *zap.Logger) *Cohere {
	if model == "" {
		model = defaultCohereModel
	}

	return &Cohere{
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

type embedRequest struct {
	Texts          []string `json:"texts"`
	Model          string   `json:"model"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	Embeddings struct {
		Float [][]float64 `json:"float"`
	} `json:"embeddings"`
}

// Embed submits the text (capped at the first 8000 runes) and returns a
// Dimensions-length vector. Exactly one attempt is made; any transport
// error, non-success status, or malformed body yields ErrUnavailable.
func (c *Cohere) Embed(ctx context.Context, text string) ([]float64, error) {
	payload := embedRequest{
		Texts:          []string{capRunes(text, inputRuneLimit)},
		Model:          c.model,
		InputType:      "search_document",
		EmbeddingTypes: []string{"float"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bad status: %s", ErrUnavailable, resp.Status)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if len(parsed.Embeddings.Float) == 0 {
		return nil, fmt.Errorf("%w: response contains no embeddings", ErrUnavailable)
	}

	vector := parsed.Embeddings.Float[0]
	if len(vector) > Dimensions {
		vector = vector[:Dimensions]
	}

	if len(vector) < Dimensions {
		c.logger.Warn("embedding shorter than expected, padding with zeros",
			zap.Int("got", len(vector)),
			zap.Int("want", Dimensions),
		)
		padded := make([]float64, Dimensions)
		copy(padded, vector)
		vector = padded
	}

	return vector, nil
}

func capRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
