package analysis

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/modules/composite"
	"github.com/whaleback/whaleback/internal/modules/flow"
	"github.com/whaleback/whaleback/internal/modules/quant"
	"github.com/whaleback/whaleback/internal/modules/risk"
	"github.com/whaleback/whaleback/internal/modules/sectorflow"
	"github.com/whaleback/whaleback/internal/modules/simulation"
	"github.com/whaleback/whaleback/internal/modules/technical"
	"github.com/whaleback/whaleback/internal/modules/trend"
	"github.com/whaleback/whaleback/internal/modules/whale"
)

// batchOutput is everything the batch produced, ready to persist.
type batchOutput struct {
	results     []*tickerResult
	composites  []composite.Snapshot
	simulations []simulation.Snapshot
	sectorFlows []sectorflow.Snapshot
	news        *newsOutcome
}

// persist writes every snapshot category. A failing category is logged and
// skipped so one bad table never loses the rest of the batch.
func (e *Engine) persist(ctx context.Context, log zerolog.Logger, out *batchOutput) map[string]int {
	counts := make(map[string]int)

	write := func(category string, count int, err error) {
		if err != nil {
			log.Error().Err(err).Str("category", category).Msg("snapshot persistence failed")
		}
		counts[category] = count
	}

	var quants []quant.Snapshot
	var whales []whale.Snapshot
	var trends []trend.Snapshot
	var flows []flow.Snapshot
	var technicals []technical.Snapshot
	var risks []risk.Snapshot
	for _, r := range out.results {
		if r.quant != nil {
			quants = append(quants, *r.quant)
		}
		if r.whale != nil {
			whales = append(whales, *r.whale)
		}
		if r.trend != nil {
			trends = append(trends, *r.trend)
		}
		if r.flow != nil {
			flows = append(flows, *r.flow)
		}
		if r.technical != nil {
			technicals = append(technicals, *r.technical)
		}
		if r.risk != nil {
			risks = append(risks, *r.risk)
		}
	}

	n, err := e.quantRepo.Upsert(ctx, quants)
	write("quant", n, err)
	n, err = e.whaleRepo.Upsert(ctx, whales)
	write("whale", n, err)
	n, err = e.trendRepo.Upsert(ctx, trends)
	write("trend", n, err)
	n, err = e.flowRepo.Upsert(ctx, flows)
	write("flow", n, err)
	n, err = e.technicalRepo.Upsert(ctx, technicals)
	write("technical", n, err)
	n, err = e.riskRepo.Upsert(ctx, risks)
	write("risk", n, err)
	n, err = e.compositeRepo.Upsert(ctx, out.composites)
	write("composite", n, err)
	n, err = e.simulationRepo.Upsert(ctx, out.simulations)
	write("simulation", n, err)
	n, err = e.sectorFlowRepo.Upsert(ctx, out.sectorFlows)
	write("sector_flow", n, err)

	n, err = e.newsRepo.UpsertSnapshots(ctx, out.news.snapshots)
	write("news_sentiment", n, err)
	if _, err := e.newsRepo.UpsertArticles(ctx, out.news.articles); err != nil {
		log.Error().Err(err).Msg("article persistence failed")
	}

	return counts
}
