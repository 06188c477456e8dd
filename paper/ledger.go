// Package paper implements C9: a thin paper-trading ledger keyed off the
// engine's own prices, driven entirely by explicit API calls.
package paper

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/whaleradar/whaleradar/store"
)

// InitialBalance seeds a fresh ledger; spec §4.9 does not name a specific
// starting balance, so a round paper-trading default is used.
const InitialBalance = 10000.0

// MaxEquityPoints bounds the equity curve (spec §4.9 "capped at 365
// points"); capacity errors here are a silent drop-oldest, per spec §7.
const MaxEquityPoints = 365

// Position is an open paper trade.
type Position struct {
	Pair       string  `json:"pair"`
	Entry      float64 `json:"entry"`
	Size       float64 `json:"size"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	FeePct     float64 `json:"fee_pct"`
	OpenedTS   float64 `json:"opened_ts"`
}

// Trade is a closed position, retained for the manual-trades history.
type Trade struct {
	Pair     string  `json:"pair"`
	Entry    float64 `json:"entry"`
	Exit     float64 `json:"exit"`
	Size     float64 `json:"size"`
	PnL      float64 `json:"pnl"`
	Fee      float64 `json:"fee"`
	Net      float64 `json:"net"`
	OpenedTS float64 `json:"opened_ts"`
	ClosedTS float64 `json:"closed_ts"`
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	TS      float64 `json:"ts"`
	Balance float64 `json:"balance"`
}

// persistedState is the on-disk shape of manual_trades.json.
type persistedState struct {
	Balance        float64    `json:"balance"`
	InitialBalance float64    `json:"initial_balance"`
	Positions      []Position `json:"positions"`
	Trades         []Trade    `json:"trades"`
}

// Ledger is the paper-trading book: at most one open position per pair,
// closed-trade history and an equity curve, guarded by a single mutex
// (spec §5 "Shared-resource policy").
type Ledger struct {
	mu sync.Mutex

	Balance        float64
	InitialBalance float64
	Positions      map[string]*Position
	Trades         []Trade
	Equity         []EquityPoint

	store            *store.Store
	tradesFile       string
	equityFile       string
}

// New creates a ledger backed by store for price lookups and persisted to
// tradesFile/equityFile.
func New(s *store.Store, tradesFile, equityFile string) *Ledger {
	return &Ledger{
		Balance:        InitialBalance,
		InitialBalance: InitialBalance,
		Positions:      make(map[string]*Position),
		store:          s,
		tradesFile:     tradesFile,
		equityFile:     equityFile,
	}
}

// Load restores a ledger's trades/positions from tradesFile and its equity
// curve from equityFile, falling back to fresh defaults on any read error
// (spec §7 "configuration/parse of persisted files").
func Load(s *store.Store, tradesFile, equityFile string) *Ledger {
	l := New(s, tradesFile, equityFile)

	if data, err := os.ReadFile(tradesFile); err == nil {
		var ps persistedState
		if err := json.Unmarshal(data, &ps); err == nil {
			l.Balance = ps.Balance
			l.InitialBalance = ps.InitialBalance
			l.Trades = ps.Trades
			for i := range ps.Positions {
				p := ps.Positions[i]
				l.Positions[p.Pair] = &p
			}
		}
	}
	if data, err := os.ReadFile(equityFile); err == nil {
		var eq []EquityPoint
		if err := json.Unmarshal(data, &eq); err == nil {
			l.Equity = eq
		}
	}
	return l
}

// Open opens a new position in pair, refusing if one is already open or
// the current close price is unavailable (spec §4.9).
func (l *Ledger) Open(pair string, slPct, tpPct, feePct, amount float64) error {
	price, ok := l.currentClose(pair)
	if !ok || price <= 0 {
		return fmt.Errorf("no current price for %s", pair)
	}

	l.mu.Lock()
	if _, exists := l.Positions[pair]; exists {
		l.mu.Unlock()
		return fmt.Errorf("position already open for %s", pair)
	}

	l.Positions[pair] = &Position{
		Pair:       pair,
		Entry:      price,
		Size:       amount / price,
		StopLoss:   price * (1 - slPct/100),
		TakeProfit: price * (1 + tpPct/100),
		FeePct:     feePct,
		OpenedTS:   nowSeconds(),
	}
	state, equity := l.snapshotForPersistLocked()
	l.mu.Unlock()

	l.persist(state, equity)
	return nil
}

// Close closes the open position in pair against the current close price,
// realizing PnL into the ledger balance and equity curve.
func (l *Ledger) Close(pair string) error {
	price, ok := l.currentClose(pair)
	if !ok || price <= 0 {
		return fmt.Errorf("no current price for %s", pair)
	}

	l.mu.Lock()
	pos, exists := l.Positions[pair]
	if !exists {
		l.mu.Unlock()
		return fmt.Errorf("no open position for %s", pair)
	}

	pnl := (price - pos.Entry) * pos.Size
	fee := absFloat(pnl) * pos.FeePct / 100
	net := pnl - fee

	l.Balance += net
	delete(l.Positions, pair)

	now := nowSeconds()
	l.Trades = append(l.Trades, Trade{
		Pair: pair, Entry: pos.Entry, Exit: price, Size: pos.Size,
		PnL: pnl, Fee: fee, Net: net, OpenedTS: pos.OpenedTS, ClosedTS: now,
	})
	l.appendEquityLocked(now)
	state, equity := l.snapshotForPersistLocked()
	l.mu.Unlock()

	l.persist(state, equity)
	return nil
}

// Snapshot returns a consistent read-only view for the read APIs.
func (l *Ledger) Snapshot() (balance, initialBalance float64, positions []Position, trades []Trade, equity []EquityPoint) {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions = make([]Position, 0, len(l.Positions))
	for _, p := range l.Positions {
		positions = append(positions, *p)
	}
	trades = append(trades, l.Trades...)
	equity = append(equity, l.Equity...)
	return l.Balance, l.InitialBalance, positions, trades, equity
}

func (l *Ledger) currentClose(pair string) (float64, bool) {
	entry, ok := l.store.Get(pair)
	if !ok {
		return 0, false
	}
	candle := entry.Snapshot().Candle
	if !candle.Opened() {
		return 0, false
	}
	return candle.Close, true
}

// appendEquityLocked appends one equity sample, dropping the oldest on
// overflow (spec §4.9/§7 "capacity" errors are a silent drop-oldest).
func (l *Ledger) appendEquityLocked(ts float64) {
	l.Equity = append(l.Equity, EquityPoint{TS: ts, Balance: l.Balance})
	if len(l.Equity) > MaxEquityPoints {
		l.Equity = l.Equity[len(l.Equity)-MaxEquityPoints:]
	}
}

// snapshotForPersistLocked clones the state to be persisted. Must be
// called with l.mu held; the clone lets the actual file I/O happen after
// the lock is released (spec §5 "persistence happens after releasing the
// lock against a cloned snapshot").
func (l *Ledger) snapshotForPersistLocked() (persistedState, []EquityPoint) {
	state := persistedState{
		Balance:        l.Balance,
		InitialBalance: l.InitialBalance,
		Trades:         append([]Trade{}, l.Trades...),
	}
	for _, p := range l.Positions {
		state.Positions = append(state.Positions, *p)
	}
	equity := append([]EquityPoint{}, l.Equity...)
	return state, equity
}

// persist writes both files from a snapshot taken under lock; callers must
// not hold l.mu while calling this.
func (l *Ledger) persist(state persistedState, equity []EquityPoint) {
	if data, err := json.MarshalIndent(state, "", "  "); err == nil {
		_ = os.WriteFile(l.tradesFile, data, 0o644)
	}
	if data, err := json.MarshalIndent(equity, "", "  "); err == nil {
		_ = os.WriteFile(l.equityFile, data, 0o644)
	}
}

func nowSeconds() float64 {
	return float64(time.Now().Unix())
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
