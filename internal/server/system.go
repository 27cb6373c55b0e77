package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "up"
	if err := s.db.PingContext(r.Context()); err != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"status":   map[string]string{"up": "healthy", "down": "degraded"}[dbStatus],
		"database": dbStatus,
		"service":  "whaleback",
	})
}

// handlePipelineStatus reports the freshness of the analysis pipeline and
// host resource usage.
func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"goroutines": runtime.NumGoroutine(),
	}

	if date, err := s.latestTradeDate(r.Context()); err == nil && date != nil {
		status["latest_trading_date"] = date.Format("2006-01-02")

		if rows, err := s.compositeRepo.ListByDate(r.Context(), *date); err == nil {
			status["composite_snapshots"] = len(rows)
		}
		if rows, err := s.newsRepo.ListSnapshotsByDate(r.Context(), *date); err == nil {
			status["news_snapshots"] = len(rows)
		}
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status["cpu_percent"] = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		status["ram_percent"] = memStat.UsedPercent
	}

	s.writeData(w, status)
}
