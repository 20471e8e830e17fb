package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type HolderOverview struct {
	Holder            string `json:"representative"`
	Party             string `json:"party"`
	TotalTrades       int    `json:"total_trades"`
	UniqueInstruments int    `json:"unique_stocks"`
	YearsActive       int    `json:"years_active"`
	Purchases         int    `json:"total_purchases"`
	Sales             int    `json:"total_sales"`
	UniqueSectors     int    `json:"unique_sectors"`
}

type SectorExposure struct {
	Holder           string `json:"representative"`
	Sector           string `json:"sector"`
	TransactionCount int    `json:"transaction_count"`
}

type InstrumentOverview struct {
	Ticker         string   `json:"ticker"`
	TotalTrades    int      `json:"total_trades"`
	ActiveHolders  int      `json:"active_representatives"`
	AvgHoldingDays *float64 `json:"avg_holding_days"`
	TotalVolume    *float64 `json:"total_volume"`
}

type DailyActivity struct {
	Date      time.Time `json:"transaction_date"`
	Trades    int       `json:"trades"`
	Purchases int       `json:"purchases"`
	Sales     int       `json:"sales"`
}

type TimelineEntry struct {
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"transaction_date"`
	Type           Direction `json:"type"`
	Holder         string    `json:"representative"`
	Party          string    `json:"party"`
	Amount         string    `json:"amount"`
	EstimatedValue float64   `json:"estimated_value"`
	PriceAtTrade   *float64  `json:"price_at_trade"`
	Sector         string    `json:"sector"`
}

// TimelineFilter narrows a timeline. Zero fields do not filter.
type TimelineFilter struct {
	Holder string
	Ticker string
	Start  *time.Time
	End    *time.Time
}

// Summarizer computes descriptive aggregates over a snapshot.
type Summarizer struct {
	snap     *Snapshot
	resolver *Resolver
	now      func() time.Time
}

func NewSummarizer(snap *Snapshot, resolver *Resolver, now func() time.Time) *Summarizer {
	if now == nil {
		now = time.Now
	}
	return &Summarizer{snap: snap, resolver: resolver, now: now}
}

type holderAcc struct {
	trades    int
	purchases int
	sales     int
	minYear   int
	maxYear   int
	tickers   map[string]struct{}
	sectors   map[string]struct{}
}

// Overview returns one row per holder (or only holder when set), ordered by name.
func (s *Summarizer) Overview(holder string) []HolderOverview {
	accs := map[string]*holderAcc{}
	for _, t := range s.snap.trades {
		if !matches(holder, t.Holder) {
			continue
		}
		acc, ok := accs[t.Holder]
		if !ok {
			acc = &holderAcc{
				minYear: t.Date.Year(),
				maxYear: t.Date.Year(),
				tickers: map[string]struct{}{},
				sectors: map[string]struct{}{},
			}
			accs[t.Holder] = acc
		}
		acc.trades++
		switch t.Direction {
		case Purchase:
			acc.purchases++
		case Sale:
			acc.sales++
		}
		if y := t.Date.Year(); y < acc.minYear {
			acc.minYear = y
		} else if y > acc.maxYear {
			acc.maxYear = y
		}
		if t.Ticker != "" {
			acc.tickers[t.Ticker] = struct{}{}
		}
		acc.sectors[s.snap.Sector(t.Ticker)] = struct{}{}
	}

	out := make([]HolderOverview, 0, len(accs))
	for h, acc := range accs {
		out = append(out, HolderOverview{
			Holder:            h,
			Party:             s.snap.Party(h),
			TotalTrades:       acc.trades,
			UniqueInstruments: len(acc.tickers),
			YearsActive:       acc.maxYear - acc.minYear + 1,
			Purchases:         acc.purchases,
			Sales:             acc.sales,
			UniqueSectors:     len(acc.sectors),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Holder < out[j].Holder })
	return out
}

// SectorBreakdown counts trades per sector, most traded first.
func (s *Summarizer) SectorBreakdown(holder string) []SectorExposure {
	type key struct{ holder, sector string }
	counts := map[key]int{}
	for _, t := range s.snap.trades {
		if !matches(holder, t.Holder) {
			continue
		}
		counts[key{holder: t.Holder, sector: s.snap.Sector(t.Ticker)}]++
	}

	out := make([]SectorExposure, 0, len(counts))
	for k, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, SectorExposure{Holder: k.holder, Sector: k.sector, TransactionCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionCount != out[j].TransactionCount {
			return out[i].TransactionCount > out[j].TransactionCount
		}
		if out[i].Holder != out[j].Holder {
			return out[i].Holder < out[j].Holder
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

type instrumentAcc struct {
	trades    int
	holders   map[string]struct{}
	purchases map[string][]time.Time
	sales     map[string][]time.Time
	volume    decimal.Decimal
	volumeN   int
}

// InstrumentOverview summarises trading in ticker (every ticker when empty).
// Holding days pair each purchase with the same holder's next sale; volume is
// the estimated value divided by the closing price on the purchase date.
func (s *Summarizer) InstrumentOverview(ticker string) []InstrumentOverview {
	accs := map[string]*instrumentAcc{}
	for _, t := range s.snap.trades {
		if t.Ticker == "" || !matches(ticker, t.Ticker) {
			continue
		}
		acc, ok := accs[t.Ticker]
		if !ok {
			acc = &instrumentAcc{
				holders:   map[string]struct{}{},
				purchases: map[string][]time.Time{},
				sales:     map[string][]time.Time{},
			}
			accs[t.Ticker] = acc
		}
		acc.trades++
		acc.holders[t.Holder] = struct{}{}
		switch t.Direction {
		case Purchase:
			acc.purchases[t.Holder] = append(acc.purchases[t.Holder], t.Date)
			if price, ok := s.snap.Close(t.Ticker, t.Date); ok && price > 0 {
				estimate := decimal.NewFromFloat(s.resolver.Estimate(t.Bucket))
				acc.volume = acc.volume.Add(estimate.Div(decimal.NewFromFloat(price)))
				acc.volumeN++
			}
		case Sale:
			acc.sales[t.Holder] = append(acc.sales[t.Holder], t.Date)
		}
	}

	asOf := s.now()
	out := make([]InstrumentOverview, 0, len(accs))
	for tk, acc := range accs {
		row := InstrumentOverview{
			Ticker:        tk,
			TotalTrades:   acc.trades,
			ActiveHolders: len(acc.holders),
		}
		total, n := 0, 0
		for h, purchases := range acc.purchases {
			for _, d := range HoldingDays(purchases, acc.sales[h], asOf) {
				total += d
				n++
			}
		}
		if n > 0 {
			avg := float64(total) / float64(n)
			row.AvgHoldingDays = &avg
		}
		if acc.volumeN > 0 {
			vol := acc.volume.InexactFloat64()
			row.TotalVolume = &vol
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// DailyActivity counts trades per date, optionally narrowed to a holder and a ticker.
func (s *Summarizer) DailyActivity(holder, ticker string) []DailyActivity {
	out := []DailyActivity{}
	for _, t := range s.snap.trades {
		if !matches(holder, t.Holder) || !matches(ticker, t.Ticker) {
			continue
		}
		if n := len(out); n == 0 || !out[n-1].Date.Equal(t.Date) {
			out = append(out, DailyActivity{Date: t.Date})
		}
		a := &out[len(out)-1]
		a.Trades++
		switch t.Direction {
		case Purchase:
			a.Purchases++
		case Sale:
			a.Sales++
		}
	}
	return out
}

// Timeline lists the trades matching f in date order with the closing price
// on the trade date when one is known.
func (s *Summarizer) Timeline(f TimelineFilter) []TimelineEntry {
	out := []TimelineEntry{}
	for _, t := range s.snap.trades {
		if !matches(f.Holder, t.Holder) || !matches(f.Ticker, t.Ticker) {
			continue
		}
		if f.Start != nil && t.Date.Before(Day(*f.Start)) {
			continue
		}
		if f.End != nil && t.Date.After(Day(*f.End)) {
			continue
		}
		e := TimelineEntry{
			Ticker:         t.Ticker,
			Date:           t.Date,
			Type:           t.Direction,
			Holder:         t.Holder,
			Party:          t.Party,
			Amount:         t.Bucket,
			EstimatedValue: s.resolver.Estimate(t.Bucket),
			Sector:         s.snap.Sector(t.Ticker),
		}
		if price, ok := s.snap.Close(t.Ticker, t.Date); ok && t.Ticker != "" {
			p := price
			e.PriceAtTrade = &p
		}
		out = append(out, e)
	}
	return out
}
