package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/whaleradar/whaleradar/analytics"
	"github.com/whaleradar/whaleradar/pairkey"
)

// tickerResponse is the REST ticker payload shape: per-pair last price (c),
// 24h volume (v) and today's open (o), all wire-encoded as decimal strings
// (spec §3 "Inbound data").
type tickerResponse struct {
	Error  []string                  `json:"error"`
	Result map[string]tickerEntryRaw `json:"result"`
}

type tickerEntryRaw struct {
	Last [2]string `json:"c"`
	Vol  [2]string `json:"v"`
	Open string    `json:"o"`
}

// TickerPoller periodically pulls ticker snapshots for every tracked pair
// and feeds them into C4 (spec §4.2 "REST ticker poller").
type TickerPoller struct {
	RESTURL      string
	Pairs        []string // wire-format pair names
	Engine       *analytics.Engine
	Interval     time.Duration
	ChunkSize    int
	ChunkDelay   time.Duration
	HTTPClient   *http.Client
}

// Run blocks until ctx is canceled, polling every Interval.
func (p *TickerPoller) Run(ctx context.Context) error {
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		p.pollOnce(ctx, client)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *TickerPoller) pollOnce(ctx context.Context, client *http.Client) {
	for i := 0; i < len(p.Pairs); i += p.ChunkSize {
		end := i + p.ChunkSize
		if end > len(p.Pairs) {
			end = len(p.Pairs)
		}
		chunk := p.Pairs[i:end]

		if err := p.pollChunk(ctx, client, chunk); err != nil {
			// Silently skipped per spec §4.2/§7; next cycle retries.
			log.Debug().Err(err).Int("chunk_size", len(chunk)).Msg("ticker chunk poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.ChunkDelay):
		}
	}
}

func (p *TickerPoller) pollChunk(ctx context.Context, client *http.Client, wirePairs []string) error {
	reqURL := p.RESTURL + "?pair=" + url.QueryEscape(strings.Join(wirePairs, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var decoded tickerResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode ticker response: %w", err)
	}
	if len(decoded.Error) > 0 {
		return fmt.Errorf("ticker API error: %v", decoded.Error)
	}

	now := float64(time.Now().Unix())
	for wirePair, raw := range decoded.Result {
		in, ok := parseTickerEntry(wirePair, raw, now)
		if !ok {
			continue
		}
		p.Engine.OnTicker(in)
	}
	return nil
}

func parseTickerEntry(wirePair string, raw tickerEntryRaw, now float64) (analytics.TickerInput, bool) {
	last, err := decimal.NewFromString(raw.Last[0])
	if err != nil {
		return analytics.TickerInput{}, false
	}
	vol24h, err := decimal.NewFromString(raw.Vol[1])
	if err != nil {
		return analytics.TickerInput{}, false
	}
	open, err := decimal.NewFromString(raw.Open)
	if err != nil {
		return analytics.TickerInput{}, false
	}
	return analytics.TickerInput{
		Pair:    pairkey.Normalize(wirePair),
		Last:    last.InexactFloat64(),
		Vol24h:  vol24h.InexactFloat64(),
		Open24h: open.InexactFloat64(),
		TS:      now,
	}, true
}
