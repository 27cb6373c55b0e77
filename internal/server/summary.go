package server

import (
	"math"
	"net/http"
	"sort"

	"github.com/whaleback/whaleback/internal/modules/composite"
)

const topSectorCount = 5

// MarketSummary is the aggregate view over one day's composite cross-section.
type MarketSummary struct {
	TradeDate    string          `json:"trade_date"`
	TickerCount  int             `json:"ticker_count"`
	SignalCounts map[string]int  `json:"signal_counts"`
	Breadth      float64         `json:"breadth"`
	AvgComposite *float64        `json:"avg_composite"`
	TopSectors   []SectorAverage `json:"top_sectors"`
}

// SectorAverage is one sector's average composite score.
type SectorAverage struct {
	Sector       string  `json:"sector"`
	AvgComposite float64 `json:"avg_composite"`
	TickerCount  int     `json:"ticker_count"`
}

func (s *Server) handleMarketSummary(w http.ResponseWriter, r *http.Request) {
	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}

	rows, err := s.compositeRepo.ListByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load composite cross-section")
		return
	}
	if len(rows) == 0 {
		s.notFound(w, "no composite snapshots")
		return
	}

	sectorMap, err := s.market.SectorMap(r.Context())
	if err != nil {
		s.log.Warn().Err(err).Msg("sector map unavailable, summary omits sectors")
		sectorMap = map[string]string{}
	}

	summary := buildMarketSummary(rows, sectorMap)
	summary.TradeDate = date.Format("2006-01-02")
	s.writeData(w, summary)
}

// buildMarketSummary folds one day's composite snapshots into signal band
// counts, market breadth (share of scores at or above 50), the cross-section
// average, and the top sectors by average composite.
func buildMarketSummary(rows []composite.Snapshot, sectorMap map[string]string) MarketSummary {
	summary := MarketSummary{
		TickerCount:  len(rows),
		SignalCounts: make(map[string]int),
	}

	var sum float64
	scored := 0
	advancing := 0
	sectorSums := make(map[string]float64)
	sectorCounts := make(map[string]int)

	for _, row := range rows {
		summary.SignalCounts[composite.ClassifySignal(row.CompositeScore)]++
		if row.CompositeScore == nil {
			continue
		}
		scored++
		sum += *row.CompositeScore
		if *row.CompositeScore >= 50 {
			advancing++
		}
		if sector := sectorMap[row.Ticker]; sector != "" {
			sectorSums[sector] += *row.CompositeScore
			sectorCounts[sector]++
		}
	}

	if scored > 0 {
		avg := math.Round(sum/float64(scored)*100) / 100
		summary.AvgComposite = &avg
		summary.Breadth = math.Round(float64(advancing)/float64(scored)*10000) / 10000
	}

	sectors := make([]SectorAverage, 0, len(sectorSums))
	for sector, total := range sectorSums {
		sectors = append(sectors, SectorAverage{
			Sector:       sector,
			AvgComposite: math.Round(total/float64(sectorCounts[sector])*100) / 100,
			TickerCount:  sectorCounts[sector],
		})
	}
	sort.Slice(sectors, func(a, b int) bool {
		if sectors[a].AvgComposite != sectors[b].AvgComposite {
			return sectors[a].AvgComposite > sectors[b].AvgComposite
		}
		return sectors[a].Sector < sectors[b].Sector
	})
	if len(sectors) > topSectorCount {
		sectors = sectors[:topSectorCount]
	}
	summary.TopSectors = sectors

	return summary
}
