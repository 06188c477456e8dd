// Package config implements C10: the mutable tunables shared by C3/C4/C6,
// loaded from environment variables at boot and hot-reloadable through the
// read API, with a pretty-JSON config.json as the persisted form (spec §6).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/scoring"
)

// Config holds connection-level settings loaded once at startup.
type Config struct {
	TradeFeedURL     string
	OrderbookFeedURL string
	TickerRESTURL    string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	HTTPPortRangeLow  int
	HTTPPortRangeHigh int

	ConfigFile             string
	ManualTradesFile       string
	ManualTradesEquityFile string
	StarsHistoryFile       string

	App *AppConfig
}

// Tunables is the plain-data, JSON-serializable view of AppConfig. It
// mirrors the fixed constants spec.md names so an operator can retune the
// engine without a rebuild. FlowShortWindowSec, FlowLongWindowSec,
// PriceWindowSec, AnomalyRecencySec and OrderbookStaleSec are stored and
// reported only: the store uses fixed 60s/300s/300s windows, a 600s
// anomaly recency and a 10s book staleness bound regardless of them.
type Tunables struct {
	WeightsSnapshot scoring.Snapshot `json:"weights"`

	WhaleNotionalFloor  float64 `json:"whale_notional_floor"`
	WhaleEwmaMultiplier float64 `json:"whale_ewma_multiplier"`
	FlowShortWindowSec  float64 `json:"flow_short_window_sec"`
	FlowLongWindowSec   float64 `json:"flow_long_window_sec"`
	PriceWindowSec      float64 `json:"price_window_sec"`
	AnomalyRecencySec   float64 `json:"anomaly_recency_sec"`
	OrderbookStaleSec   float64 `json:"orderbook_stale_sec"`

	TradeWorkerPairsPerConn int `json:"trade_worker_pairs_per_conn"`
	TradeWorkerStaggerMs    int `json:"trade_worker_stagger_ms"`
	ReconnectDelaySec       int `json:"reconnect_delay_sec"`
	TickerPollIntervalSec   int `json:"ticker_poll_interval_sec"`
	TickerChunkSize         int `json:"ticker_chunk_size"`
	TickerChunkDelayMs      int `json:"ticker_chunk_delay_ms"`

	EvaluatorIntervalSec   int     `json:"evaluator_interval_sec"`
	EvaluatorHorizonSec    float64 `json:"evaluator_horizon_sec"`
	MaintenanceIntervalSec int     `json:"maintenance_interval_sec"`
	TradeStateEvictHours   float64 `json:"trade_state_evict_hours"`
	CandleResetHours       float64 `json:"candle_reset_hours"`
	OrderbookEvictSec      float64 `json:"orderbook_evict_sec"`
	RecentAnomClearHours   float64 `json:"recent_anom_clear_hours"`
}

// DefaultTunables returns the spec-mandated defaults.
func DefaultTunables() Tunables {
	return Tunables{
		WeightsSnapshot: scoring.DefaultWeights().Snapshot(),

		WhaleNotionalFloor:  5000,
		WhaleEwmaMultiplier: 2.5,
		FlowShortWindowSec:  60,
		FlowLongWindowSec:   300,
		PriceWindowSec:      300,
		AnomalyRecencySec:   600,
		OrderbookStaleSec:   10,

		TradeWorkerPairsPerConn: 20,
		TradeWorkerStaggerMs:    500,
		ReconnectDelaySec:       5,
		TickerPollIntervalSec:   20,
		TickerChunkSize:         20,
		TickerChunkDelayMs:      500,

		EvaluatorIntervalSec:   60,
		EvaluatorHorizonSec:    300,
		MaintenanceIntervalSec: 600,
		TradeStateEvictHours:   12,
		CandleResetHours:       24,
		OrderbookEvictSec:      60,
		RecentAnomClearHours:   5,
	}
}

// AppConfig is the live, hot-reloadable tunable set (C10). Weights is the
// single source of truth for scoring weights (see SPEC_FULL.md's Open
// Question decision): it is never replaced wholesale so the analytics
// engine's pointer to it stays valid across a POST /api/config.
type AppConfig struct {
	mu   sync.RWMutex
	data Tunables

	Weights *scoring.Weights
}

// NewAppConfig wraps a Tunables value (and a fresh Weights, seeded from the
// snapshot) into a live AppConfig.
func NewAppConfig(t Tunables) *AppConfig {
	w := scoring.DefaultWeights()
	if t.WeightsSnapshot != (scoring.Snapshot{}) {
		w = &scoring.Weights{
			Flow: t.WeightsSnapshot.Flow, Price: t.WeightsSnapshot.Price,
			Whale: t.WeightsSnapshot.Whale, Volume: t.WeightsSnapshot.Volume,
			Anomaly: t.WeightsSnapshot.Anomaly, Trend: t.WeightsSnapshot.Trend,
		}
	}
	return &AppConfig{data: t, Weights: w}
}

// DefaultAppConfig returns a live AppConfig set to spec defaults.
func DefaultAppConfig() *AppConfig {
	return NewAppConfig(DefaultTunables())
}

// Snapshot returns a JSON-serializable copy of the current tunables, with
// the live weights folded in.
func (a *AppConfig) Snapshot() Tunables {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := a.data
	out.WeightsSnapshot = a.Weights.Snapshot()
	return out
}

// Get returns a copy of the current tunables (without refreshing the
// weights snapshot); used by hot paths in C2/C3/C4.
func (a *AppConfig) Get() Tunables {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data
}

// Apply replaces every tunable, including weights (applied in place via
// SetAll so the analytics engine's pointer to Weights stays live), used by
// POST /api/config.
func (a *AppConfig) Apply(t Tunables) {
	a.mu.Lock()
	a.data = t
	a.mu.Unlock()
	a.Weights.SetAll(t.WeightsSnapshot)
}

// LoadFromEnv loads connection settings from the environment (and an
// optional .env file), then loads or creates the persisted AppConfig.
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	cfg := &Config{
		TradeFeedURL:     getEnvOrDefault("TRADE_FEED_URL", "wss://ws.exchange.example/v2"),
		OrderbookFeedURL: getEnvOrDefault("ORDERBOOK_FEED_URL", "wss://ws.exchange.example/v2"),
		TickerRESTURL:    getEnvOrDefault("TICKER_REST_URL", "https://api.exchange.example/0/public/Ticker"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		HTTPPortRangeLow:  getEnvInt("HTTP_PORT_LOW", 8080),
		HTTPPortRangeHigh: getEnvInt("HTTP_PORT_HIGH", 8090),

		ConfigFile:             getEnvOrDefault("CONFIG_FILE", "config.json"),
		ManualTradesFile:       getEnvOrDefault("MANUAL_TRADES_FILE", "manual_trades.json"),
		ManualTradesEquityFile: getEnvOrDefault("MANUAL_TRADES_EQUITY_FILE", "manual_trades_equity.json"),
		StarsHistoryFile:       getEnvOrDefault("STARS_HISTORY_FILE", "stars_history.json"),
	}

	app, err := LoadAppConfig(cfg.ConfigFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.ConfigFile).Msg("falling back to default app config")
		app = DefaultAppConfig()
	}
	cfg.App = app
	return cfg
}

// LoadAppConfig reads a persisted config.json. A missing file yields the
// defaults; a malformed file returns an error, and LoadFromEnv then falls
// back to defaults (spec §7 "configuration/parse of persisted files").
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAppConfig(), nil
		}
		return nil, err
	}
	var decoded Tunables
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewAppConfig(decoded), nil
}

// Save persists the AppConfig as pretty JSON.
func (c *Config) Save() error {
	snap := c.App.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.ConfigFile, data, 0o644)
}

// Reset restores tunable defaults in place (the live *scoring.Weights
// pointer is reset via SetAll rather than replaced) and persists it.
func (c *Config) Reset() error {
	c.App.Apply(DefaultTunables())
	return c.Save()
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out int
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return def
	}
	return out
}
