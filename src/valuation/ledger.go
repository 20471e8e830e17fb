package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	Holder string  `json:"representative"`
	Party  string  `json:"party"`
	Ticker string  `json:"ticker"`
	Sector string  `json:"sector"`
	Value  float64 `json:"current_value"`
}

type PositionPoint struct {
	Date   time.Time `json:"transaction_date"`
	Holder string    `json:"representative"`
	Ticker string    `json:"ticker"`
	Value  float64   `json:"stock_value"`
}

type PartyExposure struct {
	Party string  `json:"party"`
	Value float64 `json:"position_value"`
}

type positionKey struct {
	holder string
	ticker string
}

type holderDay struct {
	holder string
	day    time.Time
}

type seriesRow struct {
	key   positionKey
	day   time.Time
	stock decimal.Decimal
}

// PositionLedger keeps the running signed value of every (holder, ticker)
// pair. The scan is computed once; current positions and series both read it.
type PositionLedger struct {
	snap   *Snapshot
	rows   []seriesRow
	totals map[holderDay]decimal.Decimal
	finals map[positionKey]decimal.Decimal
	keys   []positionKey
}

func NewPositionLedger(snap *Snapshot, resolver *Resolver) *PositionLedger {
	l := &PositionLedger{
		snap:   snap,
		totals: map[holderDay]decimal.Decimal{},
		finals: map[positionKey]decimal.Decimal{},
	}
	rowIndex := map[holderDay]map[string]int{}
	running := map[string]decimal.Decimal{}

	for _, t := range snap.trades {
		if t.Ticker == "" {
			continue
		}
		value := decimal.NewFromFloat(resolver.SignedValue(t.Direction, t.Bucket))
		key := positionKey{holder: t.Holder, ticker: t.Ticker}

		current, seen := l.finals[key]
		if !seen {
			l.keys = append(l.keys, key)
		}
		current = current.Add(value)
		l.finals[key] = current

		total := running[t.Holder].Add(value)
		running[t.Holder] = total
		hd := holderDay{holder: t.Holder, day: t.Date}
		l.totals[hd] = total

		// Same-day trades collapse into one point holding the end-of-day value.
		byTicker, ok := rowIndex[hd]
		if !ok {
			byTicker = map[string]int{}
			rowIndex[hd] = byTicker
		}
		if i, ok := byTicker[t.Ticker]; ok {
			l.rows[i].stock = current
			continue
		}
		byTicker[t.Ticker] = len(l.rows)
		l.rows = append(l.rows, seriesRow{key: key, day: t.Date, stock: current})
	}

	sort.SliceStable(l.rows, func(i, j int) bool {
		a, b := l.rows[i], l.rows[j]
		if a.key.holder != b.key.holder {
			return a.key.holder < b.key.holder
		}
		return a.day.Before(b.day)
	})
	return l
}

// CurrentPositions returns the open positions of holder (every holder when
// empty), largest first. Positions whose running value is not positive are
// considered closed.
func (l *PositionLedger) CurrentPositions(holder string) []Position {
	return l.positions(func(k positionKey) bool { return matches(holder, k.holder) })
}

// InstrumentPositions returns the open positions held in ticker across holders.
func (l *PositionLedger) InstrumentPositions(ticker string) []Position {
	return l.positions(func(k positionKey) bool { return matches(ticker, k.ticker) })
}

func (l *PositionLedger) positions(keep func(positionKey) bool) []Position {
	out := []Position{}
	for _, k := range l.keys {
		if !keep(k) {
			continue
		}
		v := l.finals[k]
		if !v.IsPositive() {
			continue
		}
		out = append(out, Position{
			Holder: k.holder,
			Party:  l.snap.Party(k.holder),
			Ticker: k.ticker,
			Sector: l.snap.Sector(k.ticker),
			Value:  v.InexactFloat64(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		if out[i].Holder != out[j].Holder {
			return out[i].Holder < out[j].Holder
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// PositionSeries returns one point per (holder, ticker, date) with the value
// accumulated through the end of that date.
func (l *PositionLedger) PositionSeries(holder string) []PositionPoint {
	out := []PositionPoint{}
	for _, r := range l.rows {
		if !matches(holder, r.key.holder) {
			continue
		}
		out = append(out, PositionPoint{
			Date:   r.day,
			Holder: r.key.holder,
			Ticker: r.key.ticker,
			Value:  r.stock.InexactFloat64(),
		})
	}
	return out
}

// PartyDistribution sums the open positions in ticker by the holders' party.
func (l *PositionLedger) PartyDistribution(ticker string) []PartyExposure {
	sums := map[string]decimal.Decimal{}
	var parties []string
	for _, k := range l.keys {
		if !matches(ticker, k.ticker) {
			continue
		}
		v := l.finals[k]
		if !v.IsPositive() {
			continue
		}
		party := l.snap.Party(k.holder)
		if _, ok := sums[party]; !ok {
			parties = append(parties, party)
		}
		sums[party] = sums[party].Add(v)
	}

	out := make([]PartyExposure, 0, len(parties))
	for _, p := range parties {
		out = append(out, PartyExposure{Party: p, Value: sums[p].InexactFloat64()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Party < out[j].Party
	})
	return out
}
