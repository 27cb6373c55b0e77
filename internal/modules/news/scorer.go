package news

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/clients/classifier"
	"github.com/whaleback/whaleback/internal/clients/llm"
)

const (
	// Below this many escalations the batches API overhead is not worth it.
	batchAPIThreshold = 20

	batchPollInterval = 10 * time.Second
	batchMaxWait      = 30 * time.Minute

	escalateConcurrency = 5
)

// Scorer runs the two-stage sentiment pipeline over collected articles.
type Scorer struct {
	classifier *classifier.Client
	llm        *llm.Client

	confidenceThreshold float64
	batchMode           bool
	escalationCap       int

	log zerolog.Logger
}

// NewScorer creates an article scorer. confidenceThreshold is the stage-1
// confidence below which articles escalate to the LLM; escalationCap bounds
// how many may escalate per call (0 = unlimited).
func NewScorer(cls *classifier.Client, llmClient *llm.Client, confidenceThreshold float64, batchMode bool, escalationCap int, log zerolog.Logger) *Scorer {
	return &Scorer{
		classifier:          cls,
		llm:                 llmClient,
		confidenceThreshold: confidenceThreshold,
		batchMode:           batchMode,
		escalationCap:       escalationCap,
		log:                 log.With().Str("component", "news_scorer").Logger(),
	}
}

// ScoreArticles fills the sentiment fields of every article. Pre-scored
// articles (rule-based disclosures) pass through untouched. Stage 1 scores
// everything with the local classifier; stage 2 escalates low-confidence
// results to the LLM. When both stages fail an article, it keeps a neutral
// fallback verdict so aggregation never sees unscored input.
func (s *Scorer) ScoreArticles(ctx context.Context, articles []Article) []Article {
	if len(articles) == 0 {
		return nil
	}

	var preScored, pending []Article
	for _, a := range articles {
		if a.Scored() {
			preScored = append(preScored, a)
		} else if a.Text() != "" {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return preScored
	}

	// Stage 1: local classifier over all pending texts in one batch.
	predictions := make([]*classifier.Prediction, len(pending))
	if s.classifier != nil && s.classifier.Available(ctx) {
		texts := make([]string, len(pending))
		for i, a := range pending {
			texts[i] = a.Text()
		}
		preds, err := s.classifier.ClassifyBatch(ctx, texts)
		if err != nil {
			s.log.Warn().Err(err).Msg("classifier batch failed")
		} else {
			for i := range preds {
				predictions[i] = &preds[i]
			}
		}
	}

	// Stage 2: split confident results from escalation candidates.
	var escalate []int
	for i := range pending {
		pred := predictions[i]
		if pred != nil && pred.SentimentConfidence >= s.confidenceThreshold {
			applyPrediction(&pending[i], pred)
			continue
		}
		escalate = append(escalate, i)
	}

	if len(escalate) > 0 && s.llm != nil && s.llm.Configured() {
		escalate = s.capEscalation(pending, predictions, escalate)
		s.escalateLLM(ctx, pending, predictions, escalate)
	} else {
		for _, i := range escalate {
			applyStage1OrNeutral(&pending[i], predictions[i])
		}
	}

	return append(preScored, pending...)
}

// capEscalation trims the escalation set to the configured cap, keeping the
// lowest-confidence articles, which gain the most from a second opinion.
// Overflow articles keep their stage-1 verdict.
func (s *Scorer) capEscalation(pending []Article, predictions []*classifier.Prediction, escalate []int) []int {
	if s.escalationCap <= 0 || len(escalate) <= s.escalationCap {
		return escalate
	}

	s.log.Info().Int("pending", len(escalate)).Int("cap", s.escalationCap).Msg("capping LLM escalation")

	sort.SliceStable(escalate, func(a, b int) bool {
		return stage1Confidence(predictions[escalate[a]]) < stage1Confidence(predictions[escalate[b]])
	})
	for _, i := range escalate[s.escalationCap:] {
		applyStage1OrNeutral(&pending[i], predictions[i])
	}
	return escalate[:s.escalationCap]
}

func (s *Scorer) escalateLLM(ctx context.Context, pending []Article, predictions []*classifier.Prediction, escalate []int) {
	results := make(map[int]llm.Result)

	if s.batchMode && len(escalate) >= batchAPIThreshold {
		reqs := make([]llm.BatchRequest, len(escalate))
		idMap := make(map[string]int, len(escalate))
		for n, i := range escalate {
			id := fmt.Sprintf("s%d", i)
			idMap[id] = i
			reqs[n] = llm.BatchRequest{ID: id, Text: pending[i].Text(), Ticker: pending[i].Ticker}
		}

		batchResults, err := s.llm.ScoreSentimentBatch(ctx, reqs, batchPollInterval, batchMaxWait)
		if err != nil {
			s.log.Warn().Err(err).Msg("batch escalation failed, falling back to concurrent calls")
		} else {
			for id, res := range batchResults {
				results[idMap[id]] = res
			}
			s.log.Info().Int("succeeded", len(results)).Int("requested", len(escalate)).Msg("batch escalation done")
		}
	}

	// Concurrent path for small sets and batch leftovers.
	var remaining []int
	for _, i := range escalate {
		if _, ok := results[i]; !ok {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) > 0 {
		s.log.Info().Int("count", len(remaining)).Msg("concurrent LLM escalation")

		var mu sync.Mutex
		var wg sync.WaitGroup
		sem := make(chan struct{}, escalateConcurrency)

		for _, i := range remaining {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				res, err := s.llm.ScoreSentiment(ctx, pending[i].Text(), pending[i].Ticker)
				if err != nil {
					s.log.Warn().Err(err).Str("ticker", pending[i].Ticker).Msg("LLM escalation failed")
					return
				}
				mu.Lock()
				results[i] = *res
				mu.Unlock()
			}(i)
		}
		wg.Wait()
	}

	for _, i := range escalate {
		if res, ok := results[i]; ok {
			applyLLMResult(&pending[i], res)
		} else {
			applyStage1OrNeutral(&pending[i], predictions[i])
		}
	}
}

func stage1Confidence(pred *classifier.Prediction) float64 {
	if pred == nil {
		return 0
	}
	return pred.SentimentConfidence
}

func applyPrediction(a *Article, pred *classifier.Prediction) {
	method := "bert"
	a.SentimentRaw = &pred.SentimentRaw
	a.SentimentLabel = &pred.SentimentLabel
	a.SentimentConfidence = &pred.SentimentConfidence
	a.ScoringMethod = &method
}

func applyLLMResult(a *Article, res llm.Result) {
	method := "llm"
	a.SentimentRaw = &res.SentimentRaw
	a.SentimentLabel = &res.SentimentLabel
	a.SentimentConfidence = &res.SentimentConfidence
	a.ScoringMethod = &method
}

func applyStage1OrNeutral(a *Article, pred *classifier.Prediction) {
	if pred != nil {
		applyPrediction(a, pred)
		return
	}
	raw, conf := 0.0, 0.0
	label, method := "neutral", "fallback"
	a.SentimentRaw = &raw
	a.SentimentLabel = &label
	a.SentimentConfidence = &conf
	a.ScoringMethod = &method
}
