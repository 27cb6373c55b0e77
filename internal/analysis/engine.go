// Package analysis orchestrates the daily batch: per-ticker axis
// computation, cross-ticker passes, news sentiment, Monte Carlo simulation,
// composite synthesis, and snapshot persistence.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/clients/classifier"
	"github.com/whaleback/whaleback/internal/clients/dart"
	"github.com/whaleback/whaleback/internal/clients/llm"
	"github.com/whaleback/whaleback/internal/clients/naver"
	"github.com/whaleback/whaleback/internal/config"
	"github.com/whaleback/whaleback/internal/market"
	"github.com/whaleback/whaleback/internal/modules/composite"
	"github.com/whaleback/whaleback/internal/modules/flow"
	"github.com/whaleback/whaleback/internal/modules/news"
	"github.com/whaleback/whaleback/internal/modules/quant"
	"github.com/whaleback/whaleback/internal/modules/risk"
	"github.com/whaleback/whaleback/internal/modules/sectorflow"
	"github.com/whaleback/whaleback/internal/modules/simulation"
	"github.com/whaleback/whaleback/internal/modules/technical"
	"github.com/whaleback/whaleback/internal/modules/trend"
	"github.com/whaleback/whaleback/internal/modules/whale"
)

const progressInterval = 200

// Engine runs the daily analysis batch over the active stock universe.
type Engine struct {
	cfg *config.Config

	market *market.Repository

	quantRepo      *quant.Repository
	whaleRepo      *whale.Repository
	trendRepo      *trend.Repository
	flowRepo       *flow.Repository
	technicalRepo  *technical.Repository
	riskRepo       *risk.Repository
	compositeRepo  *composite.Repository
	simulationRepo *simulation.Repository
	sectorFlowRepo *sectorflow.Repository
	newsRepo       *news.Repository

	collector *news.Collector
	scorer    *news.Scorer

	log zerolog.Logger
}

// NewEngine wires the engine with every repository and, when news analysis
// is enabled, the collection and scoring clients.
func NewEngine(cfg *config.Config, db *sqlx.DB, log zerolog.Logger) *Engine {
	e := &Engine{
		cfg:            cfg,
		market:         market.NewRepository(db, log),
		quantRepo:      quant.NewRepository(db, log),
		whaleRepo:      whale.NewRepository(db, log),
		trendRepo:      trend.NewRepository(db, log),
		flowRepo:       flow.NewRepository(db, log),
		technicalRepo:  technical.NewRepository(db, log),
		riskRepo:       risk.NewRepository(db, log),
		compositeRepo:  composite.NewRepository(db, log),
		simulationRepo: simulation.NewRepository(db, log),
		sectorFlowRepo: sectorflow.NewRepository(db, log),
		newsRepo:       news.NewRepository(db, log),
		log:            log.With().Str("component", "analysis_engine").Logger(),
	}

	if cfg.News.Enabled {
		naverClient := naver.NewClient(cfg.News.NaverClientID, cfg.News.NaverClientSecret, log)
		dartClient := dart.NewClient(cfg.News.DartAPIKey, log)
		e.collector = news.NewCollector(naverClient, dartClient, cfg.News.LookbackDays, log)
		e.scorer = news.NewScorer(
			classifier.NewClient(cfg.News.ClassifierURL, log),
			llm.NewClient(cfg.News.AnthropicAPIKey, cfg.News.AnthropicModel, log),
			cfg.News.ConfidenceThreshold,
			cfg.News.LLMBatchMode,
			cfg.News.EscalationCap,
			log,
		)
	}

	return e
}

// ComputeAnalysis runs the full batch for one trading date and returns the
// number of snapshots written per category. Per-ticker and per-category
// failures are logged and skipped; only universe-level failures abort.
func (e *Engine) ComputeAnalysis(ctx context.Context, targetDate time.Time) (map[string]int, error) {
	started := time.Now()
	log := e.log.With().
		Str("run_id", uuid.NewString()[:8]).
		Str("trade_date", targetDate.Format("2006-01-02")).
		Logger()

	stocks, err := e.market.ActiveStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active stocks: %w", err)
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no active stocks for %s", targetDate.Format("2006-01-02"))
	}

	names := make(map[string]string, len(stocks))
	for _, s := range stocks {
		names[s.Ticker] = s.Name
	}

	sectorMap, err := e.market.SectorMap(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sector map unavailable, sector passes degraded")
		sectorMap = map[string]string{}
	}

	medians := e.loadSectorMedians(ctx, log, targetDate, sectorMap)
	indexCloses := e.loadIndexCloses(ctx, log, targetDate)

	log.Info().Int("tickers", len(stocks)).Int("sectors", len(medians)).Msg("starting analysis batch")

	// Phase 1: per-ticker axis computation.
	results := make([]*tickerResult, 0, len(stocks))
	for i, s := range stocks {
		results = append(results, e.computeTicker(ctx, log, s.Ticker, targetDate, sectorMap, medians, indexCloses[market.IndexKOSPI]))
		if (i+1)%progressInterval == 0 {
			log.Info().Int("done", i+1).Int("total", len(stocks)).Msg("per-ticker progress")
		}
	}

	// Phase 2: news sentiment.
	sentiments := e.runNewsPhase(ctx, log, targetDate, names)

	// Phase 3: Monte Carlo simulation.
	simSnapshots := e.runSimulations(ctx, log, targetDate, results, sentiments.adjustments)

	// Phase 4: cross-ticker passes.
	fillRSPercentiles(trendSnapshots(results))

	sectorFlows := sectorflow.ComputeSectorFlows(
		sectorMap,
		investorData(results),
		tradingValues(results),
		e.cfg.WhaleLookbackDays,
	)
	bonuses := sectorFlowBonuses(sectorFlows, sectorMap)

	// Phase 5: composite synthesis.
	compositeSnapshots := e.buildComposites(targetDate, results, simSnapshots, bonuses, sentiments.scores)

	// Phase 6: persistence.
	out := &batchOutput{
		results:     results,
		composites:  compositeSnapshots,
		simulations: simSnapshots,
		sectorFlows: sectorFlowSnapshots(targetDate, sectorFlows),
		news:        sentiments,
	}
	counts := e.persist(ctx, log, out)

	log.Info().
		Dur("elapsed", time.Since(started)).
		Int("quant", counts["quant"]).
		Int("whale", counts["whale"]).
		Int("trend", counts["trend"]).
		Int("flow", counts["flow"]).
		Int("technical", counts["technical"]).
		Int("risk", counts["risk"]).
		Int("composite", counts["composite"]).
		Int("simulation", counts["simulation"]).
		Int("sector_flow", counts["sector_flow"]).
		Int("news_sentiment", counts["news_sentiment"]).
		Msg("analysis batch complete")

	return counts, nil
}

// loadSectorMedians builds the per-sector PBR/PER medians from the
// fundamentals cross-section at the target date.
func (e *Engine) loadSectorMedians(ctx context.Context, log zerolog.Logger, targetDate time.Time, sectorMap map[string]string) map[string]quant.SectorMedians {
	funds, err := e.market.FundamentalCrossSection(ctx, targetDate)
	if err != nil {
		log.Warn().Err(err).Msg("fundamentals cross-section unavailable, sector medians skipped")
		return map[string]quant.SectorMedians{}
	}
	return computeSectorMedians(funds, sectorMap)
}

// loadIndexCloses loads the benchmark index histories over the relative
// strength window. Returned series are oldest first.
func (e *Engine) loadIndexCloses(ctx context.Context, log zerolog.Logger, targetDate time.Time) map[string][]indexPoint {
	closes := make(map[string][]indexPoint, 2)
	from := targetDate.AddDate(0, 0, -2*rsWindowDays)

	for _, code := range []string{market.IndexKOSPI, market.IndexKOSDAQ} {
		bars, err := e.market.IndexHistory(ctx, code, from, targetDate)
		if err != nil {
			log.Warn().Err(err).Str("index", code).Msg("index history unavailable")
			continue
		}
		points := make([]indexPoint, 0, len(bars))
		for _, b := range bars {
			points = append(points, indexPoint{date: b.TradeDate.Format(dateLayout), close: b.Close})
		}
		closes[code] = points
	}
	return closes
}

func trendSnapshots(results []*tickerResult) []*trend.Snapshot {
	var snaps []*trend.Snapshot
	for _, r := range results {
		if r.trend != nil {
			snaps = append(snaps, r.trend)
		}
	}
	return snaps
}

func investorData(results []*tickerResult) map[string][]market.InvestorFlow {
	data := make(map[string][]market.InvestorFlow)
	for _, r := range results {
		if len(r.investorRows) > 0 {
			data[r.ticker] = r.investorRows
		}
	}
	return data
}

func tradingValues(results []*tickerResult) map[string]float64 {
	values := make(map[string]float64)
	for _, r := range results {
		if r.avgTradingValue > 0 {
			values[r.ticker] = r.avgTradingValue
		}
	}
	return values
}

func sectorFlowSnapshots(targetDate time.Time, flows []sectorflow.Flow) []sectorflow.Snapshot {
	snaps := make([]sectorflow.Snapshot, 0, len(flows))
	for _, f := range flows {
		snaps = append(snaps, sectorflow.NewSnapshot(targetDate, f))
	}
	return snaps
}

// buildComposites synthesises the composite score for every ticker that has
// at least one of the value, flow, or momentum axes.
func (e *Engine) buildComposites(targetDate time.Time, results []*tickerResult, sims []simulation.Snapshot, bonuses map[string]float64, sentScores map[string]float64) []composite.Snapshot {
	simByTicker := make(map[string]*simulation.Snapshot, len(sims))
	for i := range sims {
		simByTicker[sims[i].Ticker] = &sims[i]
	}

	var snaps []composite.Snapshot
	for _, r := range results {
		if r.quant == nil && r.whale == nil && r.trend == nil {
			continue
		}

		var quantIn *composite.QuantInput
		if r.quant != nil {
			quantIn = &composite.QuantInput{
				FScore:       r.quant.FScore,
				SafetyMargin: r.quant.SafetyMargin,
			}
			if r.quant.DataCompleteness != nil {
				quantIn.DataCompleteness = *r.quant.DataCompleteness
			}
		}
		var whaleIn *composite.WhaleInput
		if r.whale != nil {
			whaleIn = &composite.WhaleInput{WhaleScore: r.whale.WhaleScore}
		}
		var trendIn *composite.TrendInput
		if r.trend != nil {
			trendIn = &composite.TrendInput{RSPercentile: r.trend.RSPercentile}
		}
		var simIn *composite.SimulationInput
		if sim, ok := simByTicker[r.ticker]; ok {
			simIn = &composite.SimulationInput{SimulationScore: sim.SimulationScore}
		}
		var sentIn *composite.SentimentInput
		if score, ok := sentScores[r.ticker]; ok {
			s := score
			sentIn = &composite.SentimentInput{SentimentScore: &s}
		}

		score := composite.ComputeScore(quantIn, whaleIn, trendIn, simIn, bonuses[r.ticker], nil, sentIn)
		conf := composite.DetectConfluence(score.ValueScore, score.FlowScore, score.MomentumScore, score.ForecastScore)
		tier := composite.ClassifyCompositeScore(score.CompositeScore)

		snaps = append(snaps, composite.NewSnapshot(targetDate, r.ticker, score, conf, tier))
	}
	return snaps
}
