// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBMaxOpen  int
	DBMaxIdle  int

	// API server
	APIHost     string
	APIPort     int
	CORSOrigins []string
	CacheTTLSec int

	// Logging
	LogLevel  string
	LogPretty bool

	// Scheduler
	AnalysisScheduleHour   int
	AnalysisScheduleMinute int
	Timezone               string

	// Analysis parameters
	RiskFreeRate      float64
	EquityRiskPremium float64
	WhaleLookbackDays int

	// Monte Carlo simulation
	Simulation SimulationConfig

	// News sentiment
	News NewsConfig
}

// SimulationConfig holds Monte-Carlo simulation parameters
type SimulationConfig struct {
	NumPaths       int
	MinHistoryDays int
	MaxSigma       float64
	Workers        int

	GARCHP int
	GARCHQ int

	HestonKappa float64
	HestonTheta float64
	HestonXi    float64
	HestonRho   float64

	MertonLambda float64
	MertonMuJ    float64
	MertonSigmaJ float64
}

// NewsConfig holds news collection and sentiment scoring parameters
type NewsConfig struct {
	Enabled           bool
	NaverClientID     string
	NaverClientSecret string
	DartAPIKey        string
	ClassifierURL     string
	AnthropicAPIKey   string
	AnthropicModel    string

	LookbackDays        int
	HalfLifeDays        float64
	MinArticles         int
	ConfidenceThreshold float64
	LLMBatchMode        bool
	EscalationCap       int

	SentimentAlpha    float64
	SentimentBeta     float64
	SentimentDelta    float64
	SentimentGammaLam float64
	SentimentGammaMu  float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("WB_DB_HOST", "localhost"),
		DBPort:     getEnvAsInt("WB_DB_PORT", 5432),
		DBName:     getEnv("WB_DB_NAME", "whaleback"),
		DBUser:     getEnv("WB_DB_USER", "whaleback"),
		DBPassword: getEnv("WB_DB_PASSWORD", "changeme"),
		DBMaxOpen:  getEnvAsInt("WB_DB_MAX_OPEN", 15),
		DBMaxIdle:  getEnvAsInt("WB_DB_MAX_IDLE", 5),

		APIHost:     getEnv("WB_API_HOST", "0.0.0.0"),
		APIPort:     getEnvAsInt("WB_API_PORT", 8000),
		CORSOrigins: getEnvAsSlice("WB_CORS_ORIGINS", []string{"http://localhost:3000"}),
		CacheTTLSec: getEnvAsInt("WB_CACHE_TTL", 300),

		LogLevel:  getEnv("WB_LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("WB_LOG_PRETTY", false),

		AnalysisScheduleHour:   getEnvAsInt("WB_ANALYSIS_SCHEDULE_HOUR", 19),
		AnalysisScheduleMinute: getEnvAsInt("WB_ANALYSIS_SCHEDULE_MINUTE", 0),
		Timezone:               getEnv("WB_TIMEZONE", "Asia/Seoul"),

		RiskFreeRate:      getEnvAsFloat("WB_RISK_FREE_RATE", 0.035),
		EquityRiskPremium: getEnvAsFloat("WB_EQUITY_RISK_PREMIUM", 0.065),
		WhaleLookbackDays: getEnvAsInt("WB_WHALE_LOOKBACK_DAYS", 20),

		Simulation: SimulationConfig{
			NumPaths:       getEnvAsInt("WB_SIMULATION_NUM_PATHS", 10000),
			MinHistoryDays: getEnvAsInt("WB_SIMULATION_MIN_HISTORY_DAYS", 60),
			MaxSigma:       getEnvAsFloat("WB_SIMULATION_MAX_SIGMA", 1.50),
			Workers:        getEnvAsInt("WB_SIMULATION_WORKERS", 4),
			GARCHP:         getEnvAsInt("WB_GARCH_P", 1),
			GARCHQ:         getEnvAsInt("WB_GARCH_Q", 1),
			HestonKappa:    getEnvAsFloat("WB_HESTON_KAPPA", 2.0),
			HestonTheta:    getEnvAsFloat("WB_HESTON_THETA", 0.04),
			HestonXi:       getEnvAsFloat("WB_HESTON_XI", 0.3),
			HestonRho:      getEnvAsFloat("WB_HESTON_RHO", -0.7),
			MertonLambda:   getEnvAsFloat("WB_MERTON_LAMBDA", 0.1),
			MertonMuJ:      getEnvAsFloat("WB_MERTON_MU_J", -0.02),
			MertonSigmaJ:   getEnvAsFloat("WB_MERTON_SIGMA_J", 0.05),
		},

		News: NewsConfig{
			Enabled:             getEnvAsBool("WB_NEWS_ENABLED", false),
			NaverClientID:       getEnv("WB_NAVER_CLIENT_ID", ""),
			NaverClientSecret:   getEnv("WB_NAVER_CLIENT_SECRET", ""),
			DartAPIKey:          getEnv("WB_DART_API_KEY", ""),
			ClassifierURL:       getEnv("WB_CLASSIFIER_URL", "http://localhost:8501"),
			AnthropicAPIKey:     getEnv("WB_ANTHROPIC_API_KEY", ""),
			AnthropicModel:      getEnv("WB_ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			LookbackDays:        getEnvAsInt("WB_NEWS_LOOKBACK_DAYS", 14),
			HalfLifeDays:        getEnvAsFloat("WB_NEWS_HALF_LIFE_DAYS", 3.0),
			MinArticles:         getEnvAsInt("WB_NEWS_MIN_ARTICLES", 2),
			ConfidenceThreshold: getEnvAsFloat("WB_NEWS_CONFIDENCE_THRESHOLD", 0.70),
			LLMBatchMode:        getEnvAsBool("WB_NEWS_LLM_BATCH_MODE", true),
			EscalationCap:       getEnvAsInt("WB_NEWS_ESCALATION_CAP", 100),
			SentimentAlpha:      getEnvAsFloat("WB_SENTIMENT_ALPHA", 0.08),
			SentimentBeta:       getEnvAsFloat("WB_SENTIMENT_BETA", 0.15),
			SentimentDelta:      getEnvAsFloat("WB_SENTIMENT_DELTA", 0.50),
			SentimentGammaLam:   getEnvAsFloat("WB_SENTIMENT_GAMMA_LAM", 1.50),
			SentimentGammaMu:    getEnvAsFloat("WB_SENTIMENT_GAMMA_MU", 0.03),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabaseURL builds the Postgres connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword)
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DBName == "" || c.DBUser == "" {
		return fmt.Errorf("database name and user are required")
	}
	if c.WhaleLookbackDays <= 0 {
		return fmt.Errorf("whale lookback days must be positive, got %d", c.WhaleLookbackDays)
	}
	if c.Simulation.NumPaths <= 0 {
		return fmt.Errorf("simulation path count must be positive, got %d", c.Simulation.NumPaths)
	}
	if c.Simulation.MaxSigma <= 0 {
		return fmt.Errorf("simulation max sigma must be positive, got %f", c.Simulation.MaxSigma)
	}
	if c.News.Enabled && c.News.NaverClientID == "" && c.News.DartAPIKey == "" {
		return fmt.Errorf("news stage enabled but no news source credentials configured")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
