// Package main is the entry point for the Whaleback analysis engine: the
// daily batch scheduler plus the HTTP read API over its snapshots. Passing
// -analyze=YYYY-MM-DD runs one batch for that date and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/analysis"
	"github.com/whaleback/whaleback/internal/config"
	"github.com/whaleback/whaleback/internal/database"
	"github.com/whaleback/whaleback/internal/market"
	"github.com/whaleback/whaleback/internal/scheduler"
	"github.com/whaleback/whaleback/internal/server"
	"github.com/whaleback/whaleback/pkg/logger"
)

func main() {
	analyzeDate := flag.String("analyze", "", "run one analysis batch for YYYY-MM-DD and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	db, err := database.New(database.Config{
		URL:     cfg.DatabaseURL(),
		MaxOpen: cfg.DBMaxOpen,
		MaxIdle: cfg.DBMaxIdle,
		Name:    cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	engine := analysis.NewEngine(cfg, db.Conn(), log)

	if *analyzeDate != "" {
		runOnce(engine, *analyzeDate, log)
		return
	}

	sched, err := scheduler.New(cfg.Timezone, log)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler init failed")
	}
	job := scheduler.NewAnalysisJob(engine, market.NewRepository(db.Conn(), log), log)
	if err := sched.AddJob(scheduler.DailyAt(cfg.AnalysisScheduleHour, cfg.AnalysisScheduleMinute), job); err != nil {
		log.Fatal().Err(err).Msg("job registration failed")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(cfg, db.Conn(), log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

// runOnce executes a single batch for an explicit trade date.
func runOnce(engine *analysis.Engine, date string, log zerolog.Logger) {
	targetDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		log.Fatal().Err(err).Str("date", date).Msg("invalid -analyze date, expected YYYY-MM-DD")
	}

	counts, err := engine.ComputeAnalysis(context.Background(), targetDate)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis batch failed")
	}
	log.Info().Interface("counts", counts).Msg("analysis batch finished")
}
