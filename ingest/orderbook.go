package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/whaleradar/whaleradar/pairkey"
	"github.com/whaleradar/whaleradar/store"
)

// OrderbookWorker owns one WebSocket connection subscribed to depth-10 book
// updates for a shard of pairs and replaces each pair's top-of-book
// snapshot atomically on every message (spec §4.2: "no differential
// bookkeeping").
type OrderbookWorker struct {
	ID            int
	URL           string
	Pairs         []string
	Store         *store.Store
	ReconnectWait time.Duration
}

func (w *OrderbookWorker) Run(ctx context.Context) error {
	name := fmt.Sprintf("orderbook-worker-%d", w.ID)
	return runWithReconnect(ctx, name, w.ReconnectWait, func(ctx context.Context) error {
		return w.session(ctx, name)
	})
}

func (w *OrderbookWorker) session(ctx context.Context, name string) error {
	c := newWSClient(w.URL)
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	if err := c.WriteJSON(subscribeMsg{Event: "subscribe", Pair: w.Pairs, Subscription: subscription{Name: "book-10"}}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.StartPing(30 * time.Second)

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

type bookLevels struct {
	Asks    [][]string `json:"as"`
	Bids    [][]string `json:"bs"`
	AsksUpd [][]string `json:"a"`
	BidsUpd [][]string `json:"b"`
}

// handleFrame decodes one book channel frame: [channelID, levels, channel,
// pair]. Both snapshot ("as"/"bs") and update ("a"/"b") shapes replace
// each side the frame carries wholesale (a side the frame omits keeps its
// previous levels), consistent with the no-diffing contract.
func (w *OrderbookWorker) handleFrame(frame []json.RawMessage) {
	if len(frame) != 4 {
		return
	}
	var wirePair string
	if err := json.Unmarshal(frame[3], &wirePair); err != nil {
		return
	}
	var lv bookLevels
	if err := json.Unmarshal(frame[1], &lv); err != nil {
		return
	}

	asks := lv.Asks
	if asks == nil {
		asks = lv.AsksUpd
	}
	bids := lv.Bids
	if bids == nil {
		bids = lv.BidsUpd
	}
	if len(asks) == 0 && len(bids) == 0 {
		return
	}

	pair := pairkey.Normalize(wirePair)
	bidLevels := parseLevels(bids, true)
	askLevels := parseLevels(asks, false)

	entry := w.Store.GetOrInsertDefault(pair)
	entry.With(func(entry *store.Entry) {
		if len(bidLevels) > 0 {
			entry.Orderbook.Bids = bidLevels
		}
		if len(askLevels) > 0 {
			entry.Orderbook.Asks = askLevels
		}
		entry.Orderbook.Timestamp = float64(time.Now().Unix())
	})
}

// parseLevels decodes [price, volume, time] rows into BookLevels, capped at
// the top 10 and sorted descending (bids) or ascending (asks) by price.
func parseLevels(rows [][]string, descending bool) []store.BookLevel {
	out := make([]store.BookLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		price, err := decimal.NewFromString(row[0])
		if err != nil {
			continue
		}
		volume, err := decimal.NewFromString(row[1])
		if err != nil {
			continue
		}
		out = append(out, store.BookLevel{Price: price.InexactFloat64(), Volume: volume.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
