// Package sectorflow aggregates investor flows to the sector level to
// surface sector-wide accumulation and distribution by whale class.
package sectorflow

import (
	"math"
	"sort"

	"github.com/whaleback/whaleback/internal/market"
)

// WhaleTypes are the investor classes aggregated per sector.
var WhaleTypes = []string{
	"institution_net",
	"foreign_net",
	"pension_net",
	"private_equity_net",
	"other_corp_net",
}

// WhaleTypeLabels map investor classes to display labels.
var WhaleTypeLabels = map[string]string{
	"institution_net":    "기관",
	"foreign_net":        "외국인",
	"pension_net":        "연기금",
	"private_equity_net": "사모펀드",
	"other_corp_net":     "기타법인",
}

// Flow is one (sector, investor_type) aggregation result.
type Flow struct {
	Sector       string  `json:"sector"`
	InvestorType string  `json:"investor_type"`
	NetPurchase  int64   `json:"net_purchase"`
	Intensity    float64 `json:"intensity"`
	Consistency  float64 `json:"consistency"`
	Signal       string  `json:"signal"`
	Trend5d      int64   `json:"trend_5d"`
	Trend20d     int64   `json:"trend_20d"`
	StockCount   int     `json:"stock_count"`
}

// ComputeSectorFlows groups tickers by sector and aggregates each whale
// class's daily net flows across the sector.
//
// Intensity is the average daily net against the sector's pooled trading
// value, capped at 1. Consistency is the share of sector-net-buy days.
// Trend5d sums the last five daily flows; Trend20d is the full window.
func ComputeSectorFlows(sectorMap map[string]string, investorData map[string][]market.InvestorFlow, tradingValues map[string]float64, lookbackDays int) []Flow {
	sectorTickers := make(map[string][]string)
	for ticker, sector := range sectorMap {
		if sector == "" {
			continue
		}
		if _, ok := investorData[ticker]; ok {
			sectorTickers[sector] = append(sectorTickers[sector], ticker)
		}
	}

	sectors := make([]string, 0, len(sectorTickers))
	for sector := range sectorTickers {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	var results []Flow
	for _, sector := range sectors {
		tickers := sectorTickers[sector]
		stockCount := len(tickers)

		sectorTradingValue := 0.0
		for _, t := range tickers {
			sectorTradingValue += tradingValues[t]
		}

		for _, whaleType := range WhaleTypes {
			daily := make(map[string]int64)
			for _, ticker := range tickers {
				rows := sortByDate(investorData[ticker])
				if lookbackDays > 0 && len(rows) > lookbackDays {
					rows = rows[len(rows)-lookbackDays:]
				}
				for i := range rows {
					if v, ok := rows[i].Net(whaleType); ok {
						daily[rows[i].TradeDate.Format("2006-01-02")] += v
					}
				}
			}

			if len(daily) == 0 {
				results = append(results, Flow{
					Sector:       sector,
					InvestorType: whaleType,
					Signal:       "neutral",
					StockCount:   stockCount,
				})
				continue
			}

			dates := make([]string, 0, len(daily))
			for d := range daily {
				dates = append(dates, d)
			}
			sort.Strings(dates)

			flows := make([]int64, len(dates))
			var netPurchase int64
			buyDays := 0
			for i, d := range dates {
				flows[i] = daily[d]
				netPurchase += daily[d]
				if daily[d] > 0 {
					buyDays++
				}
			}
			totalDays := len(flows)
			consistency := float64(buyDays) / float64(totalDays)

			intensity := 0.0
			if sectorTradingValue > 0 {
				avgDailyNet := math.Abs(float64(netPurchase)) / float64(totalDays)
				intensity = math.Min(avgDailyNet/sectorTradingValue, 1.0)
			}

			trend5d := netPurchase
			if len(flows) >= 5 {
				trend5d = 0
				for _, f := range flows[len(flows)-5:] {
					trend5d += f
				}
			}

			results = append(results, Flow{
				Sector:       sector,
				InvestorType: whaleType,
				NetPurchase:  netPurchase,
				Intensity:    round4(intensity),
				Consistency:  round2(consistency),
				Signal:       classifySignal(consistency, intensity, netPurchase),
				Trend5d:      trend5d,
				Trend20d:     netPurchase,
				StockCount:   stockCount,
			})
		}
	}
	return results
}

func classifySignal(consistency, intensity float64, netPurchase int64) string {
	switch {
	case netPurchase > 0 && consistency >= 0.7 && intensity >= 0.3:
		return "strong_accumulation"
	case netPurchase > 0 && consistency >= 0.5:
		return "mild_accumulation"
	case netPurchase < 0 && consistency <= 0.3:
		return "distribution"
	default:
		return "neutral"
	}
}

func sortByDate(flows []market.InvestorFlow) []market.InvestorFlow {
	out := make([]market.InvestorFlow, len(flows))
	copy(out, flows)
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
