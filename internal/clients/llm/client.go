// Package llm provides the Anthropic-backed sentiment escalation client.
// Low-confidence classifier results are re-scored here, either one call at a
// time or through the message batches API for larger sets.
package llm

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const maxResponseTokens = 200

// Result is a parsed sentiment verdict. SentimentRaw is the label polarity
// scaled by the model's stated confidence.
type Result struct {
	SentimentRaw        float64
	SentimentLabel      string
	SentimentConfidence float64
}

// BatchRequest is one article to score through the batches API. ID must be
// unique within the batch; results are keyed by it.
type BatchRequest struct {
	ID     string
	Text   string
	Ticker string
}

// Client wraps the Anthropic API for sentiment scoring.
type Client struct {
	client anthropic.Client
	model  string
	apiKey string
	log    zerolog.Logger
}

// NewClient creates an LLM client. An empty API key yields a client whose
// Configured method returns false; callers should then skip escalation.
func NewClient(apiKey, model string, log zerolog.Logger) *Client {
	return &Client{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(5),
		),
		model:  model,
		apiKey: apiKey,
		log:    log.With().Str("client", "llm").Logger(),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ScoreSentiment scores a single article text synchronously.
func (c *Client) ScoreSentiment(ctx context.Context, text, ticker string) (*Result, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(text, ticker))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sentiment message failed: %w", err)
	}

	result := parseResponse(messageText(resp))
	return &result, nil
}

// ScoreSentimentBatch submits the requests through the message batches API,
// polls until the batch ends, and returns results keyed by request ID.
// When the poll ceiling is hit the batch is abandoned and the partial map
// (empty in that case) is returned without error; callers fall back to their
// stage-1 scores.
func (c *Client) ScoreSentimentBatch(ctx context.Context, reqs []BatchRequest, pollInterval, maxWait time.Duration) (map[string]Result, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	batchReqs := make([]anthropic.MessageBatchNewParamsRequest, len(reqs))
	for i, r := range reqs {
		batchReqs[i] = anthropic.MessageBatchNewParamsRequest{
			CustomID: r.ID,
			Params: anthropic.MessageBatchNewParamsRequestParams{
				Model:     anthropic.Model(c.model),
				MaxTokens: maxResponseTokens,
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(r.Text, r.Ticker))),
				},
			},
		}
	}

	batch, err := c.client.Messages.Batches.New(ctx, anthropic.MessageBatchNewParams{Requests: batchReqs})
	if err != nil {
		return nil, fmt.Errorf("batch submit failed: %w", err)
	}
	c.log.Info().Str("batch_id", batch.ID).Int("requests", len(reqs)).Msg("sentiment batch submitted")

	deadline := time.Now().Add(maxWait)
	for batch.ProcessingStatus != anthropic.MessageBatchProcessingStatusEnded {
		if time.Now().After(deadline) {
			c.log.Warn().Str("batch_id", batch.ID).Dur("max_wait", maxWait).Msg("sentiment batch timed out")
			return map[string]Result{}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		batch, err = c.client.Messages.Batches.Get(ctx, batch.ID)
		if err != nil {
			return nil, fmt.Errorf("batch poll failed: %w", err)
		}
		c.log.Debug().
			Str("batch_id", batch.ID).
			Int64("processing", batch.RequestCounts.Processing).
			Int64("succeeded", batch.RequestCounts.Succeeded).
			Int64("errored", batch.RequestCounts.Errored).
			Msg("sentiment batch progress")
	}

	c.log.Info().
		Str("batch_id", batch.ID).
		Int64("succeeded", batch.RequestCounts.Succeeded).
		Int64("errored", batch.RequestCounts.Errored).
		Int64("canceled", batch.RequestCounts.Canceled).
		Int64("expired", batch.RequestCounts.Expired).
		Msg("sentiment batch ended")

	results := make(map[string]Result)
	stream := c.client.Messages.Batches.ResultsStreaming(ctx, batch.ID)
	for stream.Next() {
		item := stream.Current()
		if item.Result.Type != "succeeded" {
			c.log.Warn().Str("custom_id", item.CustomID).Str("result", string(item.Result.Type)).Msg("batch item not succeeded")
			continue
		}
		results[item.CustomID] = parseResponse(messageContentText(item.Result.Message.Content))
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("batch results stream failed: %w", err)
	}

	return results, nil
}

func buildPrompt(text, ticker string) string {
	text = truncateRunes(text, 500)
	return fmt.Sprintf(`주식 종목 %s에 대한 다음 뉴스 기사의 감성을 분석해주세요.

기사: %s

다음 형식으로만 응답해주세요:
sentiment: [positive/neutral/negative]
score: [0.0~1.0 사이의 확신도]
reason: [한 줄 이유]`, ticker, text)
}

// parseResponse reads the strict "sentiment:/score:" reply format. Anything
// unparseable falls back to neutral with confidence 0.5.
func parseResponse(text string) Result {
	label := "neutral"
	confidence := 0.5

	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(line, "sentiment:"):
			val := strings.TrimSpace(strings.TrimPrefix(line, "sentiment:"))
			switch {
			case strings.Contains(val, "positive"):
				label = "positive"
			case strings.Contains(val, "negative"):
				label = "negative"
			default:
				label = "neutral"
			}
		case strings.HasPrefix(line, "score:"):
			if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "score:")), 64); err == nil {
				confidence = v
			}
		}
	}

	polarity := 0.0
	switch label {
	case "positive":
		polarity = 1.0
	case "negative":
		polarity = -1.0
	}

	return Result{
		SentimentRaw:        math.Round(polarity*confidence*10000) / 10000,
		SentimentLabel:      label,
		SentimentConfidence: math.Round(confidence*1000) / 1000,
	}
}

func messageText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	return messageContentText(msg.Content)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func messageContentText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
