package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/paper"
	"github.com/whaleradar/whaleradar/readapi"
	"github.com/whaleradar/whaleradar/signalbus"
	"github.com/whaleradar/whaleradar/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	s := store.New()
	bus := signalbus.New()
	cfg := &config.Config{
		ConfigFile:             filepath.Join(dir, "config.json"),
		ManualTradesFile:       filepath.Join(dir, "manual_trades.json"),
		ManualTradesEquityFile: filepath.Join(dir, "manual_trades_equity.json"),
		App:                    config.DefaultAppConfig(),
	}
	ledger := paper.New(s, cfg.ManualTradesFile, cfg.ManualTradesEquityFile)
	stars := readapi.NewStarsTracker(filepath.Join(dir, "stars.json"))
	return New(s, bus, cfg, ledger, stars, nil)
}

func TestHandleDashboard_ServesHTMLAtRoot(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/stats")
}

func TestHandleStats_ReturnsEmptyArrayWithNoData(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	srv.handleStats(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleOpenAndCloseManualTrade_RoundTrips(t *testing.T) {
	srv := newTestServer(t)
	entry := srv.Store.GetOrInsertDefault("BTC/USD")
	entry.With(func(e *store.Entry) { e.Candle.Update(50000, 1000) })

	body := bytes.NewBufferString(`{"pair":"BTC/USD","sl_pct":5,"tp_pct":10,"fee_pct":0.1,"manual_amount":1000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/manual_trade", body)
	rec := httptest.NewRecorder()
	srv.handleOpenManualTrade(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	closeReq := httptest.NewRequest(http.MethodDelete, "/api/manual_trade", bytes.NewBufferString(`{"pair":"BTC/USD"}`))
	closeRec := httptest.NewRecorder()
	srv.handleCloseManualTrade(closeRec, closeReq)
	assert.Equal(t, http.StatusOK, closeRec.Code)
}

func TestHandleOpenManualTrade_RejectsMissingPrice(t *testing.T) {
	srv := newTestServer(t)
	body := bytes.NewBufferString(`{"pair":"ETH/USD","sl_pct":5,"tp_pct":10,"fee_pct":0.1,"manual_amount":1000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/manual_trade", body)
	rec := httptest.NewRecorder()
	srv.handleOpenManualTrade(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHandleGetConfig_ReturnsDefaults(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	srv.handleGetConfig(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "whale_notional_floor")
}

func TestHandleResetConfig_PersistsAndSucceeds(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/config/reset", nil)
	rec := httptest.NewRecorder()
	srv.handleResetConfig(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := os.Stat(srv.Config.ConfigFile)
	assert.NoError(t, err)
}

func TestListenFirstFree_BindsWithinRange(t *testing.T) {
	l, addr, err := listenFirstFree(18080, 18090)
	require.NoError(t, err)
	defer l.Close()
	assert.Contains(t, addr, "127.0.0.1:")
}
