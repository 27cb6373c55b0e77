package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPriceDays    = 90
	defaultInvestorDays = 30
	defaultTopLimit     = 20
	maxTopLimit         = 100
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeData(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) notFound(w http.ResponseWriter, msg string) {
	s.writeError(w, http.StatusNotFound, msg)
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.log.Error().Err(err).Msg(msg)
	s.writeError(w, http.StatusInternalServerError, msg)
}

func queryInt(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// latestTradeDate resolves the most recent trading date, or nil when the
// database holds no price data yet.
func (s *Server) latestTradeDate(ctx context.Context) (*time.Time, error) {
	return s.market.LatestTradingDate(ctx, time.Now())
}

func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.market.ActiveStocks(r.Context())
	if err != nil {
		s.internalError(w, err, "failed to list stocks")
		return
	}
	s.writeData(w, stocks)
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	stock, err := s.market.Stock(r.Context(), ticker)
	if err != nil {
		s.internalError(w, err, "failed to load stock")
		return
	}
	if stock == nil {
		s.notFound(w, "unknown ticker")
		return
	}

	detail := map[string]any{"stock": stock}
	now := time.Now()
	if bars, err := s.market.PriceHistory(r.Context(), ticker, now.AddDate(0, 0, -30), now); err == nil && len(bars) > 0 {
		last := bars[len(bars)-1]
		detail["last_close"] = last.Close
		detail["last_trade_date"] = last.TradeDate.Format("2006-01-02")
	}
	s.writeData(w, detail)
}

func (s *Server) handleStockPrices(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	days := queryInt(r, "days", defaultPriceDays, 1000)

	now := time.Now()
	bars, err := s.market.PriceHistory(r.Context(), ticker, now.AddDate(0, 0, -days), now)
	if err != nil {
		s.internalError(w, err, "failed to load price history")
		return
	}
	s.writeData(w, bars)
}

func (s *Server) handleStockInvestors(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	days := queryInt(r, "days", defaultInvestorDays, 365)

	now := time.Now()
	rows, err := s.market.InvestorHistory(r.Context(), ticker, now.AddDate(0, 0, -days), now)
	if err != nil {
		s.internalError(w, err, "failed to load investor history")
		return
	}
	s.writeData(w, rows)
}

func (s *Server) handleQuant(w http.ResponseWriter, r *http.Request) {
	snap, err := s.quantRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load quant snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no quant snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleQuantRankings(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTopLimit, maxTopLimit)

	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}
	rows, err := s.quantRepo.ListByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load quant rankings")
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.writeData(w, rows)
}

func (s *Server) handleWhale(w http.ResponseWriter, r *http.Request) {
	snap, err := s.whaleRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load whale snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no whale snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleWhaleTop(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTopLimit, maxTopLimit)

	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}
	rows, err := s.whaleRepo.ListByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load whale top")
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.writeData(w, rows)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	snap, err := s.trendRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load trend snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no trend snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	snap, err := s.flowRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load flow snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no flow snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	snap, err := s.technicalRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load technical snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no technical snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	snap, err := s.riskRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load risk snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no risk snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	snap, err := s.compositeRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load composite snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no composite snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleCompositeRankings(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTopLimit, maxTopLimit)

	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}
	rows, err := s.compositeRepo.TopByDate(r.Context(), *date, limit)
	if err != nil {
		s.internalError(w, err, "failed to load composite rankings")
		return
	}
	s.writeData(w, rows)
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	snap, err := s.simulationRepo.GetLatest(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.internalError(w, err, "failed to load simulation snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no simulation snapshot")
		return
	}
	s.writeData(w, snap)
}

func (s *Server) handleSimulationTop(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTopLimit, maxTopLimit)

	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}
	rows, err := s.simulationRepo.ListByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load simulation top")
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.writeData(w, rows)
}

func (s *Server) handleSectorFlowOverview(w http.ResponseWriter, r *http.Request) {
	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}
	rows, err := s.sectorFlowRepo.ListByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load sector flows")
		return
	}
	s.writeData(w, rows)
}

func (s *Server) handleSectorFlowBySector(w http.ResponseWriter, r *http.Request) {
	sector := chi.URLParam(r, "sector")
	limit := queryInt(r, "limit", defaultTopLimit, maxTopLimit)

	rows, err := s.sectorFlowRepo.ListBySector(r.Context(), sector, limit)
	if err != nil {
		s.internalError(w, err, "failed to load sector flow history")
		return
	}
	if len(rows) == 0 {
		s.notFound(w, "unknown sector")
		return
	}
	s.writeData(w, rows)
}

func (s *Server) handleNewsSentiment(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	snap, err := s.newsRepo.GetLatestSnapshot(r.Context(), ticker)
	if err != nil {
		s.internalError(w, err, "failed to load news snapshot")
		return
	}
	if snap == nil {
		s.notFound(w, "no news snapshot")
		return
	}

	articles, err := s.newsRepo.ListArticles(r.Context(), ticker, defaultTopLimit)
	if err != nil {
		s.internalError(w, err, "failed to load articles")
		return
	}
	s.writeData(w, map[string]any{"snapshot": snap, "articles": articles})
}

func (s *Server) handleNewsTop(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTopLimit, maxTopLimit)

	date, err := s.latestTradeDate(r.Context())
	if err != nil || date == nil {
		s.notFound(w, "no trading data")
		return
	}
	rows, err := s.newsRepo.ListSnapshotsByDate(r.Context(), *date)
	if err != nil {
		s.internalError(w, err, "failed to load news top")
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.writeData(w, rows)
}
