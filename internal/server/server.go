// Package server provides the HTTP read API over the analysis snapshots.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/whaleback/whaleback/internal/config"
	"github.com/whaleback/whaleback/internal/market"
	"github.com/whaleback/whaleback/internal/modules/composite"
	"github.com/whaleback/whaleback/internal/modules/flow"
	"github.com/whaleback/whaleback/internal/modules/news"
	"github.com/whaleback/whaleback/internal/modules/quant"
	"github.com/whaleback/whaleback/internal/modules/risk"
	"github.com/whaleback/whaleback/internal/modules/sectorflow"
	"github.com/whaleback/whaleback/internal/modules/simulation"
	"github.com/whaleback/whaleback/internal/modules/technical"
	"github.com/whaleback/whaleback/internal/modules/trend"
	"github.com/whaleback/whaleback/internal/modules/whale"
)

// Server is the HTTP read API over snapshot repositories.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    *config.Config
	db     *sqlx.DB
	log    zerolog.Logger

	cache *Cache

	market         *market.Repository
	quantRepo      *quant.Repository
	whaleRepo      *whale.Repository
	trendRepo      *trend.Repository
	flowRepo       *flow.Repository
	technicalRepo  *technical.Repository
	riskRepo       *risk.Repository
	compositeRepo  *composite.Repository
	simulationRepo *simulation.Repository
	sectorFlowRepo *sectorflow.Repository
	newsRepo       *news.Repository
}

// New creates the HTTP server with all routes registered.
func New(cfg *config.Config, db *sqlx.DB, log zerolog.Logger) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		cfg:            cfg,
		db:             db,
		log:            log.With().Str("component", "server").Logger(),
		cache:          NewCache(time.Duration(cfg.CacheTTLSec) * time.Second),
		market:         market.NewRepository(db, log),
		quantRepo:      quant.NewRepository(db, log),
		whaleRepo:      whale.NewRepository(db, log),
		trendRepo:      trend.NewRepository(db, log),
		flowRepo:       flow.NewRepository(db, log),
		technicalRepo:  technical.NewRepository(db, log),
		riskRepo:       risk.NewRepository(db, log),
		compositeRepo:  composite.NewRepository(db, log),
		simulationRepo: simulation.NewRepository(db, log),
		sectorFlowRepo: sectorflow.NewRepository(db, log),
		newsRepo:       news.NewRepository(db, log),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/health/pipeline", s.handlePipelineStatus)

		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", s.cached(s.handleListStocks))
			r.Get("/{ticker}", s.cached(s.handleStockDetail))
			r.Get("/{ticker}/price", s.cached(s.handleStockPrices))
			r.Get("/{ticker}/investors", s.cached(s.handleStockInvestors))
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Route("/quant", func(r chi.Router) {
				r.Get("/valuation/{ticker}", s.cached(s.handleQuant))
				r.Get("/rankings", s.cached(s.handleQuantRankings))
			})
			r.Route("/whale", func(r chi.Router) {
				r.Get("/score/{ticker}", s.cached(s.handleWhale))
				r.Get("/top", s.cached(s.handleWhaleTop))
			})
			r.Route("/trend", func(r chi.Router) {
				r.Get("/relative-strength/{ticker}", s.cached(s.handleTrend))
				r.Get("/sector-ranking", s.cached(s.handleSectorRanking))
				r.Get("/sector-rotation", s.cached(s.handleSectorRotation))
				r.Get("/flow/{ticker}", s.cached(s.handleFlow))
			})
			r.Get("/technical/{ticker}", s.cached(s.handleTechnical))
			r.Get("/risk/{ticker}", s.cached(s.handleRisk))
			r.Route("/composite", func(r chi.Router) {
				r.Get("/score/{ticker}", s.cached(s.handleComposite))
				r.Get("/rankings", s.cached(s.handleCompositeRankings))
			})
			r.Route("/simulation", func(r chi.Router) {
				r.Get("/top", s.cached(s.handleSimulationTop))
				r.Get("/{ticker}", s.cached(s.handleSimulation))
			})
			r.Route("/sector-flow", func(r chi.Router) {
				r.Get("/overview", s.cached(s.handleSectorFlowOverview))
				r.Get("/sector/{sector}", s.cached(s.handleSectorFlowBySector))
			})
			r.Route("/news-sentiment", func(r chi.Router) {
				r.Get("/top", s.cached(s.handleNewsTop))
				r.Get("/{ticker}", s.cached(s.handleNewsSentiment))
			})
			r.Get("/market-summary", s.cached(s.handleMarketSummary))
		})
	})
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
