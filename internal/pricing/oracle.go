package pricing

import (
	"context"
	"time"
)

// Snapshot is an immutable view of collateral unit prices at a point in
// time. Callers get their own copy of the table; mutating it does not
// affect other holders.
type Snapshot struct {
	prices map[string]float64
	asOf   time.Time
}

func NewSnapshot(prices map[string]float64, asOf time.Time) Snapshot {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return Snapshot{prices: cp, asOf: asOf}
}

// Price returns the unit price for symbol, or ok=false if the asset is
// not quoted.
func (s Snapshot) Price(symbol string) (float64, bool) {
	p, ok := s.prices[symbol]
	return p, ok
}

func (s Snapshot) AsOf() time.Time { return s.asOf }

// Prices returns a copy of the full table, for read-only API responses.
func (s Snapshot) Prices() map[string]float64 {
	cp := make(map[string]float64, len(s.prices))
	for k, v := range s.prices {
		cp[k] = v
	}
	return cp
}

// Oracle supplies price snapshots. Implementations may serve stale data;
// the ledger treats whatever snapshot it gets as authoritative for the
// duration of one operation.
type Oracle interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// StaticOracle quotes a fixed table. Stands in for a live feed in
// development and tests.
type StaticOracle struct {
	prices map[string]float64
}

func NewStaticOracle(prices map[string]float64) *StaticOracle {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &StaticOracle{prices: cp}
}

func (o *StaticOracle) Snapshot(_ context.Context) (Snapshot, error) {
	return NewSnapshot(o.prices, time.Now().UTC()), nil
}

// DefaultPrices is the development price table (USD per unit).
func DefaultPrices() map[string]float64 {
	return map[string]float64{
		"BTC":   43250,
		"ETH":   2540,
		"BNB":   315,
		"ADA":   0.85,
		"SOL":   65.50,
		"MATIC": 0.92,
		"DOT":   7.20,
		"LINK":  14.80,
	}
}
