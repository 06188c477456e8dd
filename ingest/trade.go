package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/whaleradar/whaleradar/analytics"
	"github.com/whaleradar/whaleradar/pairkey"
	"github.com/whaleradar/whaleradar/store"
)

// subscribeMsg is the exchange's generic channel-subscribe request.
type subscribeMsg struct {
	Event        string       `json:"event"`
	Pair         []string     `json:"pair"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Name string `json:"name"`
}

// TradeWorker owns one WebSocket connection subscribed to a shard of pairs
// (~20, per spec §4.2) and feeds every trade into the analytics engine in
// wire order.
type TradeWorker struct {
	ID            int
	URL           string
	Pairs         []string // wire-format pair names
	Engine        *analytics.Engine
	ReconnectWait time.Duration
}

// Run blocks until ctx is canceled, reconnecting on any read/connect
// failure after ReconnectWait.
func (w *TradeWorker) Run(ctx context.Context) error {
	name := fmt.Sprintf("trade-worker-%d", w.ID)
	return runWithReconnect(ctx, name, w.ReconnectWait, func(ctx context.Context) error {
		return w.session(ctx, name)
	})
}

func (w *TradeWorker) session(ctx context.Context, name string) error {
	c := newWSClient(w.URL)
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	if err := c.WriteJSON(subscribeMsg{Event: "subscribe", Pair: w.Pairs, Subscription: subscription{Name: "trade"}}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.StartPing(30 * time.Second)
	log.Info().Str("worker", name).Int("pairs", len(w.Pairs)).Msg("trade worker subscribed")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var frame []json.RawMessage
		if err := c.ReadJSON(&frame); err != nil {
			return err
		}
		w.handleFrame(frame)
	}
}

// handleFrame decodes one trade channel frame: [channelID, trades, "trade",
// pair]. Decode errors skip the sample silently, per spec §7.
func (w *TradeWorker) handleFrame(frame []json.RawMessage) {
	if len(frame) != 4 {
		return // control/heartbeat frames, not a trade update
	}
	var channelName string
	if err := json.Unmarshal(frame[2], &channelName); err != nil || channelName != "trade" {
		return
	}
	var wirePair string
	if err := json.Unmarshal(frame[3], &wirePair); err != nil {
		return
	}
	var rows [][]string
	if err := json.Unmarshal(frame[1], &rows); err != nil {
		return
	}

	pair := pairkey.Normalize(wirePair)
	for _, row := range rows {
		in, ok := parseTradeRow(pair, row)
		if !ok {
			continue
		}
		w.Engine.OnTrade(in)
	}
}

// parseTradeRow decodes one [price, volume, time, side, orderType, misc]
// row using decimal.Decimal for the wire's string-encoded numbers, per
// SPEC_FULL.md's domain-stack note on avoiding a bare float parse of a
// string.
func parseTradeRow(pair string, row []string) (analytics.TradeInput, bool) {
	if len(row) < 4 {
		return analytics.TradeInput{}, false
	}
	price, err := decimal.NewFromString(row[0])
	if err != nil {
		return analytics.TradeInput{}, false
	}
	volume, err := decimal.NewFromString(row[1])
	if err != nil {
		return analytics.TradeInput{}, false
	}
	ts, err := decimal.NewFromString(row[2])
	if err != nil {
		return analytics.TradeInput{}, false
	}
	side := store.DirBuy
	if row[3] == "s" {
		side = store.DirSell
	}
	return analytics.TradeInput{
		Pair:   pair,
		Price:  price.InexactFloat64(),
		Volume: volume.InexactFloat64(),
		Side:   side,
		TS:     ts.InexactFloat64(),
	}, true
}
