// Package classifier provides a client for the local 3-class news sentiment
// model served over HTTP.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const classifyBatchSize = 32

// Prediction is a classified article text. SentimentRaw is the continuous
// score P(positive) - P(negative) in [-1, +1].
type Prediction struct {
	SentimentRaw        float64
	SentimentLabel      string
	SentimentConfidence float64
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Results []classProbs `json:"results"`
}

type classProbs struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// Client calls the local sentiment model service. Availability is probed once
// on first use and cached for the lifetime of the client.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger

	probeOnce sync.Once
	available bool
}

// NewClient creates a classifier client for the given service URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 120 * time.Second},
		baseURL: baseURL,
		log:     log.With().Str("client", "classifier").Logger(),
	}
}

// Available reports whether the model service answers its health endpoint.
// The probe runs once; later calls return the cached result.
func (c *Client) Available(ctx context.Context) bool {
	c.probeOnce.Do(func() {
		if c.baseURL == "" {
			return
		}
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn().Err(err).Msg("classifier service unavailable")
			return
		}
		resp.Body.Close()
		c.available = resp.StatusCode == http.StatusOK
		if c.available {
			c.log.Info().Str("url", c.baseURL).Msg("classifier service ready")
		}
	})
	return c.available
}

// ClassifyBatch scores article texts and returns one prediction per input,
// preserving order. Requests are chunked to keep the model payload bounded.
func (c *Client) ClassifyBatch(ctx context.Context, texts []string) ([]Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	predictions := make([]Prediction, 0, len(texts))
	for start := 0; start < len(texts); start += classifyBatchSize {
		end := start + classifyBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		chunk, err := c.classify(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, chunk...)
	}
	return predictions, nil
}

func (c *Client) classify(ctx context.Context, texts []string) ([]Prediction, error) {
	payload, err := json.Marshal(classifyRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(body.Results) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d results for %d texts", len(body.Results), len(texts))
	}

	predictions := make([]Prediction, len(body.Results))
	for i, probs := range body.Results {
		predictions[i] = toPrediction(probs)
	}
	return predictions, nil
}

func toPrediction(p classProbs) Prediction {
	label := "neutral"
	confidence := p.Neutral
	if p.Positive > confidence {
		label, confidence = "positive", p.Positive
	}
	if p.Negative > confidence {
		label, confidence = "negative", p.Negative
	}

	raw := p.Positive - p.Negative
	raw = math.Max(-1, math.Min(raw, 1))

	return Prediction{
		SentimentRaw:        math.Round(raw*10000) / 10000,
		SentimentLabel:      label,
		SentimentConfidence: math.Round(confidence*1000) / 1000,
	}
}
