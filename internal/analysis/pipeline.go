package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/market"
	"github.com/whaleback/whaleback/internal/modules/flow"
	"github.com/whaleback/whaleback/internal/modules/quant"
	"github.com/whaleback/whaleback/internal/modules/risk"
	"github.com/whaleback/whaleback/internal/modules/technical"
	"github.com/whaleback/whaleback/internal/modules/trend"
	"github.com/whaleback/whaleback/internal/modules/whale"
)

const (
	dateLayout = "2006-01-02"

	// Calendar-day lookups; the windows are doubled so that weekends and
	// holidays still leave enough trading days.
	priceWindowDays = 400
	rsWindowDays    = 60
	flowWindowDays  = 60

	// Thresholds below which a series is too short to analyse.
	minTrendBars  = 5
	minSeriesBars = 20

	// Volume comparison for the F-Score turnover criterion.
	volumeBars    = 40
	minVolumeBars = 20

	fundamentalsLagDays = 365
)

// indexPoint is one benchmark close keyed by formatted trade date.
type indexPoint struct {
	date  string
	close float64
}

// tickerResult accumulates every per-ticker outcome of phase 1. Nil
// snapshots mean the stage had no data or failed.
type tickerResult struct {
	ticker string

	quant     *quant.Snapshot
	whale     *whale.Snapshot
	trend     *trend.Snapshot
	flow      *flow.Snapshot
	technical *technical.Snapshot
	risk      *risk.Snapshot

	// Carried forward into the simulation and sector flow phases.
	closes400       []float64
	investorRows    []market.InvestorFlow
	avgTradingValue float64
}

// computeTicker runs every phase-1 stage for one ticker. Stage failures are
// logged and leave that axis nil; the remaining stages still run.
func (e *Engine) computeTicker(ctx context.Context, log zerolog.Logger, ticker string, targetDate time.Time, sectorMap map[string]string, medians map[string]quant.SectorMedians, kospi []indexPoint) *tickerResult {
	res := &tickerResult{ticker: ticker}

	bars, err := e.market.PriceHistory(ctx, ticker, targetDate.AddDate(0, 0, -priceWindowDays), targetDate)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("price history load failed")
	}
	res.closes400 = closes(bars)

	var med *quant.SectorMedians
	if m, ok := medians[sectorMap[ticker]]; ok {
		med = &m
	}
	if res.quant, err = e.computeQuant(ctx, ticker, targetDate, med, bars); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("quant stage failed")
	}

	if res.whale, res.investorRows, res.avgTradingValue, err = e.computeWhale(ctx, ticker, targetDate); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("whale stage failed")
	}

	res.trend = computeTrend(ticker, targetDate, bars, kospi, sectorMap)

	if res.flow, err = e.computeFlow(ctx, ticker, targetDate); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("flow stage failed")
	}

	res.technical = computeTechnical(ticker, targetDate, res.closes400)
	res.risk = computeRisk(ticker, targetDate, bars, kospi)

	return res
}

// computeQuant evaluates the valuation axis. Requires fundamentals at the
// exact target date; the year-over-year comparison uses the latest
// fundamentals at least a year older.
func (e *Engine) computeQuant(ctx context.Context, ticker string, targetDate time.Time, med *quant.SectorMedians, bars []market.OhlcvBar) (*quant.Snapshot, error) {
	fund, err := e.market.FundamentalAt(ctx, ticker, targetDate)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, nil
	}

	prev, err := e.market.LatestFundamentalBefore(ctx, ticker, targetDate.AddDate(0, 0, -fundamentalsLagDays))
	if err != nil {
		return nil, err
	}

	rim := quant.ComputeRIM(fund.BPS, fund.ROE, e.cfg.RiskFreeRate, e.cfg.EquityRiskPremium, 0)
	margin := quant.ComputeSafetyMargin(rim.RIMValue, closeAt(bars, targetDate))

	var prevInputs *quant.FScoreInputs
	if prev != nil {
		prevInputs = fscoreInputs(prev)
	}
	volCurrent, volPrevious := recentVolumes(bars)
	fscore := quant.ComputeFScore(fscoreInputs(fund), prevInputs, med, volCurrent, volPrevious)
	grade := quant.ComputeGrade(fscore.TotalScore, margin.SafetyMarginPct, fscore.DataCompleteness)

	detail, err := json.Marshal(fscore)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fscore detail: %w", err)
	}

	total := fscore.TotalScore
	completeness := fscore.DataCompleteness
	return &quant.Snapshot{
		TradeDate:        targetDate,
		Ticker:           ticker,
		RIMValue:         rim.RIMValue,
		SafetyMargin:     margin.SafetyMarginPct,
		FScore:           &total,
		FScoreDetail:     types.JSONText(detail),
		InvestmentGrade:  &grade,
		DataCompleteness: &completeness,
	}, nil
}

// computeWhale evaluates the institutional flow axis and returns the
// investor window so the sector flow pass can reuse it.
func (e *Engine) computeWhale(ctx context.Context, ticker string, targetDate time.Time) (*whale.Snapshot, []market.InvestorFlow, float64, error) {
	lookback := e.cfg.WhaleLookbackDays
	from := targetDate.AddDate(0, 0, -2*lookback)

	rows, err := e.market.InvestorHistory(ctx, ticker, from, targetDate)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(rows) == 0 {
		return nil, nil, 0, nil
	}

	avg, err := e.market.AvgTradingValue(ctx, ticker, from, targetDate)
	if err != nil {
		return nil, rows, 0, err
	}

	snap := whale.NewSnapshot(targetDate, ticker, whale.ComputeScore(rows, avg, lookback))
	return &snap, rows, avg, nil
}

// computeTrend evaluates relative strength against KOSPI over the 20 and 60
// bar windows. The percentile is filled by the cross-ticker pass.
func computeTrend(ticker string, targetDate time.Time, bars []market.OhlcvBar, kospi []indexPoint, sectorMap map[string]string) *trend.Snapshot {
	from := targetDate.AddDate(0, 0, -2*rsWindowDays)

	var stockCloses []float64
	var dates []string
	for _, b := range bars {
		if b.TradeDate.Before(from) {
			continue
		}
		stockCloses = append(stockCloses, float64(b.Close))
		dates = append(dates, b.TradeDate.Format(dateLayout))
	}
	if len(stockCloses) < minTrendBars {
		return nil
	}

	alignedStock, alignedIndex, alignedDates := alignToIndex(stockCloses, dates, kospi)
	if len(alignedStock) < minTrendBars {
		return nil
	}

	snap := &trend.Snapshot{
		TradeDate: targetDate,
		Ticker:    ticker,
	}
	// Each RS window needs a full window of aligned history; a shorter
	// series would dress up a few bars as a 20d or 60d reading.
	if len(alignedStock) >= 20 {
		rs20 := trend.ComputeRelativeStrength(tailFloats(alignedStock, 20), tailFloats(alignedIndex, 20), tailStrings(alignedDates, 20))
		snap.RSVsKospi20d = rs20.CurrentRS
	}
	if len(alignedStock) >= 60 {
		rs60 := trend.ComputeRelativeStrength(tailFloats(alignedStock, 60), tailFloats(alignedIndex, 60), tailStrings(alignedDates, 60))
		snap.RSVsKospi60d = rs60.CurrentRS
	}
	if sector, ok := sectorMap[ticker]; ok && sector != "" {
		snap.Sector = &sector
	}
	return snap
}

// computeFlow evaluates the retail flow axis over a 60 trading day window.
func (e *Engine) computeFlow(ctx context.Context, ticker string, targetDate time.Time) (*flow.Snapshot, error) {
	from := targetDate.AddDate(0, 0, -2*flowWindowDays)

	rows, err := e.market.InvestorHistory(ctx, ticker, from, targetDate)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	avg, err := e.market.AvgTradingValue(ctx, ticker, from, targetDate)
	if err != nil {
		return nil, err
	}

	retail := flow.ComputeRetailContrarian(rows, avg, 20)
	divergence := flow.ComputeSmartDumbDivergence(rows, avg, 20)
	shift := flow.ComputeFlowMomentumShift(rows, 5, 60)

	snap := flow.NewSnapshot(targetDate, ticker, retail, divergence, shift)
	return &snap, nil
}

func computeTechnical(ticker string, targetDate time.Time, prices []float64) *technical.Snapshot {
	if len(prices) < minSeriesBars {
		return nil
	}
	snap := technical.NewSnapshot(targetDate, ticker,
		technical.ComputeDisparity(prices),
		technical.ComputeBollinger(prices),
		technical.ComputeMACD(prices))
	return &snap
}

func computeRisk(ticker string, targetDate time.Time, bars []market.OhlcvBar, kospi []indexPoint) *risk.Snapshot {
	prices := closes(bars)
	if len(prices) < minSeriesBars {
		return nil
	}

	dates := make([]string, len(bars))
	for i, b := range bars {
		dates[i] = b.TradeDate.Format(dateLayout)
	}
	alignedStock, alignedIndex, _ := alignToIndex(prices, dates, kospi)

	snap := risk.NewSnapshot(targetDate, ticker,
		risk.ComputeVolatility(prices),
		risk.ComputeBeta(alignedStock, alignedIndex),
		risk.ComputeMaxDrawdown(prices))
	return &snap
}

// alignToIndex keeps only the dates present in both series, preserving
// order. Index bars without a matching stock bar are dropped and vice versa.
func alignToIndex(stockCloses []float64, dates []string, index []indexPoint) (stock, idx []float64, aligned []string) {
	byDate := make(map[string]float64, len(index))
	for _, p := range index {
		byDate[p.date] = p.close
	}
	for i, d := range dates {
		if v, ok := byDate[d]; ok {
			stock = append(stock, stockCloses[i])
			idx = append(idx, v)
			aligned = append(aligned, d)
		}
	}
	return stock, idx, aligned
}

func closes(bars []market.OhlcvBar) []float64 {
	prices := make([]float64, len(bars))
	for i, b := range bars {
		prices[i] = float64(b.Close)
	}
	return prices
}

// closeAt returns the close at the exact trade date, or 0 when the ticker
// did not trade that day.
func closeAt(bars []market.OhlcvBar, date time.Time) int64 {
	target := date.Format(dateLayout)
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].TradeDate.Format(dateLayout) == target {
			return bars[i].Close
		}
	}
	return 0
}

// recentVolumes returns the latest volume and, when the window is deep
// enough to compare, the volume 40 bars earlier.
func recentVolumes(bars []market.OhlcvBar) (current, previous *int64) {
	if len(bars) == 0 {
		return nil, nil
	}
	window := bars
	if len(window) > volumeBars {
		window = window[len(window)-volumeBars:]
	}
	current = &window[len(window)-1].Volume
	if len(window) > minVolumeBars {
		previous = &window[0].Volume
	}
	return current, previous
}

func fscoreInputs(f *market.Fundamental) *quant.FScoreInputs {
	return &quant.FScoreInputs{
		BPS: f.BPS,
		PER: f.PER,
		PBR: f.PBR,
		EPS: f.EPS,
		Div: f.Div,
		ROE: f.ROE,
	}
}

func tailFloats(v []float64, n int) []float64 {
	if len(v) > n {
		return v[len(v)-n:]
	}
	return v
}

func tailStrings(v []string, n int) []string {
	if len(v) > n {
		return v[len(v)-n:]
	}
	return v
}
