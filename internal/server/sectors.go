package server

import (
	"net/http"
	"sort"

	"github.com/whaleback/whaleback/internal/modules/trend"
)

// SectorRanking is one sector aggregated over the latest trend cross-section,
// ordered by average RS percentile.
type SectorRanking struct {
	Sector       string   `json:"sector"`
	StockCount   int      `json:"stock_count"`
	AvgRSPctile  *float64 `json:"avg_rs_percentile"`
	AvgRS20d     *float64 `json:"avg_rs_20d"`
	MomentumRank int      `json:"momentum_rank"`
}

func (s *Server) handleSectorRanking(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.latestTrendRows(w, r)
	if !ok {
		return
	}
	s.writeData(w, buildSectorRanking(rows))
}

func (s *Server) handleSectorRotation(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.latestTrendRows(w, r)
	if !ok {
		return
	}

	ranking := buildSectorRanking(rows)
	sectors := make([]trend.SectorRotation, 0, len(ranking))
	for _, item := range ranking {
		rot := trend.SectorRotation{
			Sector:     item.Sector,
			AvgRS20d:   item.AvgRS20d,
			StockCount: item.StockCount,
		}
		// RS change relative to the benchmark baseline of 1.0.
		if item.AvgRS20d != nil {
			change := *item.AvgRS20d - 1.0
			rot.AvgRSChange = &change
		}
		sectors = append(sectors, rot)
	}
	s.writeData(w, trend.ClassifySectorRotation(sectors))
}

func (s *Server) latestTrendRows(w http.ResponseWriter, r *http.Request) ([]trend.Snapshot, bool) {
	date, err := s.latestTradeDate(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to resolve trading date")
		return nil, false
	}
	if date == nil {
		s.notFound(w, "no trading data")
		return nil, false
	}
	rows, err := s.trendRepo.ListByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load trend cross-section")
		return nil, false
	}
	return rows, true
}

// buildSectorRanking groups trend snapshots by sector and ranks sectors by
// average RS percentile descending. Rows without a sector are skipped.
func buildSectorRanking(rows []trend.Snapshot) []SectorRanking {
	type acc struct {
		count     int
		pctileSum float64
		pctileN   int
		rs20Sum   float64
		rs20N     int
	}
	bySector := make(map[string]*acc)
	for _, row := range rows {
		if row.Sector == nil || *row.Sector == "" {
			continue
		}
		a := bySector[*row.Sector]
		if a == nil {
			a = &acc{}
			bySector[*row.Sector] = a
		}
		a.count++
		if row.RSPercentile != nil {
			a.pctileSum += float64(*row.RSPercentile)
			a.pctileN++
		}
		if row.RSVsKospi20d != nil {
			a.rs20Sum += *row.RSVsKospi20d
			a.rs20N++
		}
	}

	ranking := make([]SectorRanking, 0, len(bySector))
	for sector, a := range bySector {
		item := SectorRanking{Sector: sector, StockCount: a.count}
		if a.pctileN > 0 {
			avg := a.pctileSum / float64(a.pctileN)
			item.AvgRSPctile = &avg
		}
		if a.rs20N > 0 {
			avg := a.rs20Sum / float64(a.rs20N)
			item.AvgRS20d = &avg
		}
		ranking = append(ranking, item)
	}

	sort.Slice(ranking, func(i, j int) bool {
		a, b := ranking[i].AvgRSPctile, ranking[j].AvgRSPctile
		switch {
		case a == nil && b == nil:
			return ranking[i].Sector < ranking[j].Sector
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		default:
			return ranking[i].Sector < ranking[j].Sector
		}
	})
	for i := range ranking {
		ranking[i].MomentumRank = i + 1
	}
	return ranking
}
