package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/modules/sentiment"
	"github.com/whaleback/whaleback/internal/modules/simulation"
	"github.com/whaleback/whaleback/internal/work"
)

// simInput is one ticker's simulation job.
type simInput struct {
	ticker string
	closes []float64
	adj    *sentiment.Adjustments
}

// runSimulations runs the Monte Carlo ensemble for every ticker with enough
// history, in parallel over the configured worker count. Tickers with active
// news coverage run with sentiment-adjusted model parameters.
func (e *Engine) runSimulations(ctx context.Context, log zerolog.Logger, targetDate time.Time, results []*tickerResult, adjustments map[string]sentiment.Adjustments) []simulation.Snapshot {
	simCfg := e.cfg.Simulation

	var inputs []simInput
	skipped := 0
	for _, r := range results {
		if len(r.closes400) < simCfg.MinHistoryDays {
			skipped++
			continue
		}
		in := simInput{ticker: r.ticker, closes: r.closes400}
		if adj, ok := adjustments[r.ticker]; ok {
			a := adj
			in.adj = &a
		}
		inputs = append(inputs, in)
	}

	outs := work.Map(ctx, simCfg.Workers, inputs, func(_ context.Context, in simInput) *simulation.Snapshot {
		res := simulation.RunMonteCarlo(in.closes, simulation.Options{
			NumSimulations: simCfg.NumPaths,
			Ticker:         in.ticker,
			MaxSigma:       simCfg.MaxSigma,
			MinHistoryDays: simCfg.MinHistoryDays,
			Heston: simulation.HestonParams{
				Kappa: simCfg.HestonKappa,
				Theta: simCfg.HestonTheta,
				Xi:    simCfg.HestonXi,
				Rho:   simCfg.HestonRho,
			},
			Merton: simulation.MertonParams{
				Lam:    simCfg.MertonLambda,
				MuJ:    simCfg.MertonMuJ,
				SigmaJ: simCfg.MertonSigmaJ,
			},
			Adjustments: in.adj,
		})
		if res == nil {
			return nil
		}
		snap, err := simulation.NewSnapshot(targetDate, in.ticker, res, in.adj != nil)
		if err != nil {
			log.Warn().Err(err).Str("ticker", in.ticker).Msg("simulation snapshot build failed")
			return nil
		}
		return &snap
	})

	snaps := make([]simulation.Snapshot, 0, len(outs))
	failed := 0
	for _, s := range outs {
		if s == nil {
			failed++
			continue
		}
		snaps = append(snaps, *s)
	}

	log.Info().
		Int("succeeded", len(snaps)).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("adjusted", len(adjustments)).
		Msg("simulations complete")
	return snaps
}
