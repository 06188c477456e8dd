// Package api implements the HTTP transport for C8's read-only analytics
// views, C9's paper ledger, and C10's config store (spec §6).
package api

import (
	"compress/gzip"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/cache"
	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/paper"
	"github.com/whaleradar/whaleradar/readapi"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

// snapshotCacheTTL bounds how long a computed snapshot/top10/heatmap
// response may be served from cache (SPEC_FULL.md domain stack: short TTL;
// a cache miss or disabled Redis falls back to direct computation).
const snapshotCacheTTL = 2 * time.Second

// Server wires the read-only aggregation layer, the paper ledger and the
// config store behind one HTTP mux.
type Server struct {
	Store    *store.Store
	Bus      *signalbus.Bus
	Config   *config.Config
	Ledger   *paper.Ledger
	Stars    *readapi.StarsTracker
	Cache    *cache.RedisClient

	httpSrv *http.Server
}

// New creates a Server over the given shared components.
func New(s *store.Store, bus *signalbus.Bus, cfg *config.Config, ledger *paper.Ledger, stars *readapi.StarsTracker, rc *cache.RedisClient) *Server {
	return &Server{Store: s, Bus: bus, Config: cfg, Ledger: ledger, Stars: stars, Cache: rc}
}

// Start binds the first free localhost port in [low, high] and serves
// until ctx is cancelled. It returns a fatal error (spec §7 "fatal
// startup") if no port in the range is free.
func (s *Server) Start(ctx context.Context, low, high int) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := s.gzipMiddleware(s.corsMiddleware(s.loggingMiddleware(mux)))

	listener, addr, err := listenFirstFree(low, high)
	if err != nil {
		return fmt.Errorf("bind http port in [%d,%d]: %w", low, high, err)
	}

	s.httpSrv = &http.Server{Handler: handler}
	log.Info().Str("addr", addr).Msg("http server listening")

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(listener) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func listenFirstFree(low, high int) (net.Listener, string, error) {
	for port := low; port <= high; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		if l, err := net.Listen("tcp", addr); err == nil {
			return l, addr, nil
		}
	}
	return nil, "", fmt.Errorf("no free port in range")
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", s.handleDashboard)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/signals", s.handleSignals)
	mux.HandleFunc("GET /api/top10", s.handleTop10)
	mux.HandleFunc("GET /api/heatmap", s.handleHeatmap)
	mux.HandleFunc("GET /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/stars_history", s.handleStarsHistory)
	mux.HandleFunc("GET /api/news", s.handleNews)

	mux.HandleFunc("GET /api/manual_trades", s.handleManualTrades)
	mux.HandleFunc("GET /api/manual_equity", s.handleManualEquity)
	mux.HandleFunc("POST /api/manual_trade", s.handleOpenManualTrade)
	mux.HandleFunc("DELETE /api/manual_trade", s.handleCloseManualTrade)

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handlePostConfig)
	mux.HandleFunc("POST /api/config/reset", s.handleResetConfig)
}

// Middleware

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("http request")
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	return g.writer.Write(data)
}

func (s *Server) gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, writer: gz}, r)
	})
}
