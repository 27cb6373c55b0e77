package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/analysis"
	"github.com/whaleback/whaleback/internal/market"
)

// analysisJobTimeout bounds one batch run; news collection plus the Monte
// Carlo phase over the full universe stays well under this.
const analysisJobTimeout = 4 * time.Hour

// AnalysisJob runs the daily batch for the most recent trading date.
type AnalysisJob struct {
	engine *analysis.Engine
	market *market.Repository
	log    zerolog.Logger
}

// NewAnalysisJob creates the daily analysis job.
func NewAnalysisJob(engine *analysis.Engine, marketRepo *market.Repository, log zerolog.Logger) *AnalysisJob {
	return &AnalysisJob{
		engine: engine,
		market: marketRepo,
		log:    log.With().Str("job", "daily_analysis").Logger(),
	}
}

// Name implements Job.
func (j *AnalysisJob) Name() string { return "daily_analysis" }

// Run resolves the latest trading date and computes the full batch for it.
// Running after a day without data (holiday) recomputes the prior session,
// which the upserts make idempotent.
func (j *AnalysisJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), analysisJobTimeout)
	defer cancel()

	tradeDate, err := j.market.LatestTradingDate(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to resolve latest trading date: %w", err)
	}
	if tradeDate == nil {
		return fmt.Errorf("no trading data available")
	}

	_, err = j.engine.ComputeAnalysis(ctx, *tradeDate)
	return err
}
