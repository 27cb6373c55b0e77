package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPrediction(t *testing.T) {
	p := toPrediction(classProbs{Negative: 0.05, Neutral: 0.15, Positive: 0.80})
	assert.Equal(t, "positive", p.SentimentLabel)
	assert.Equal(t, 0.8, p.SentimentConfidence)
	assert.Equal(t, 0.75, p.SentimentRaw)

	p = toPrediction(classProbs{Negative: 0.70, Neutral: 0.20, Positive: 0.10})
	assert.Equal(t, "negative", p.SentimentLabel)
	assert.Equal(t, -0.6, p.SentimentRaw)

	p = toPrediction(classProbs{Negative: 0.25, Neutral: 0.50, Positive: 0.25})
	assert.Equal(t, "neutral", p.SentimentLabel)
	assert.Equal(t, 0.0, p.SentimentRaw)
}

func TestClassifyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := classifyResponse{Results: make([]classProbs, len(req.Texts))}
		for i := range req.Texts {
			resp.Results[i] = classProbs{Negative: 0.1, Neutral: 0.2, Positive: 0.7}
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())

	// 40 texts crosses one chunk boundary.
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "기사 본문"
	}

	preds, err := c.ClassifyBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, preds, 40)
	assert.Equal(t, "positive", preds[0].SentimentLabel)
	assert.Equal(t, 0.6, preds[39].SentimentRaw)
}

func TestClassifyBatchEmpty(t *testing.T) {
	c := NewClient("http://localhost:0", zerolog.Nop())
	preds, err := c.ClassifyBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, preds)
}

func TestClassifyBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(classifyResponse{}))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	_, err := c.ClassifyBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestAvailableProbesOnce(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	assert.True(t, c.Available(context.Background()))
	assert.True(t, c.Available(context.Background()))
	assert.Equal(t, 1, hits)
}

func TestAvailableEmptyURL(t *testing.T) {
	c := NewClient("", zerolog.Nop())
	assert.False(t, c.Available(context.Background()))
}
