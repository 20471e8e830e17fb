package valuation

import (
	"sort"
	"strings"
	"time"
)

// UnknownSector is attached to instruments without issuer metadata.
const UnknownSector = "Unknown"

// Trade is a disclosed transaction as consumed by the engine.
type Trade struct {
	Seq       int64
	Holder    string
	Party     string
	Ticker    string
	Date      time.Time
	Direction Direction
	Bucket    string
}

type PricePoint struct {
	Ticker string
	Date   time.Time
	Close  float64
}

type priceKey struct {
	ticker string
	day    time.Time
}

// Snapshot is an immutable view of trades, closing prices and sectors.
// Trades are kept ordered by date and, within a date, by ingestion sequence.
type Snapshot struct {
	trades  []Trade
	prices  map[priceKey]float64
	sectors map[string]string
	parties map[string]string
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeTicker trims the symbol and maps the feed's placeholders to blank.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "--" || t == "N/A" {
		return ""
	}
	return t
}

func NewSnapshot(trades []Trade, prices []PricePoint, sectors map[string]string) *Snapshot {
	s := &Snapshot{
		trades:  make([]Trade, len(trades)),
		prices:  make(map[priceKey]float64, len(prices)),
		sectors: make(map[string]string, len(sectors)),
		parties: map[string]string{},
	}
	for i, t := range trades {
		t.Date = Day(t.Date)
		t.Ticker = NormalizeTicker(t.Ticker)
		s.trades[i] = t
		if t.Party > s.parties[t.Holder] {
			s.parties[t.Holder] = t.Party
		}
	}
	sort.SliceStable(s.trades, func(i, j int) bool {
		a, b := s.trades[i], s.trades[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})
	for _, p := range prices {
		s.prices[priceKey{ticker: NormalizeTicker(p.Ticker), day: Day(p.Date)}] = p.Close
	}
	for ticker, sector := range sectors {
		if strings.TrimSpace(sector) == "" {
			continue
		}
		s.sectors[NormalizeTicker(ticker)] = sector
	}
	return s
}

// Trades returns the ordered trades. Callers must not modify the slice.
func (s *Snapshot) Trades() []Trade {
	return s.trades
}

func (s *Snapshot) Len() int {
	return len(s.trades)
}

// Sector returns the issuer sector for ticker, or UnknownSector.
func (s *Snapshot) Sector(ticker string) string {
	if sector, ok := s.sectors[ticker]; ok {
		return sector
	}
	return UnknownSector
}

// Party returns the holder's party label.
func (s *Snapshot) Party(holder string) string {
	return s.parties[holder]
}

// Close returns the closing price for ticker on the given day.
func (s *Snapshot) Close(ticker string, day time.Time) (float64, bool) {
	v, ok := s.prices[priceKey{ticker: ticker, day: Day(day)}]
	return v, ok
}

// Holders returns the distinct holders in name order.
func (s *Snapshot) Holders() []string {
	seen := map[string]struct{}{}
	var holders []string
	for _, t := range s.trades {
		if _, ok := seen[t.Holder]; ok {
			continue
		}
		seen[t.Holder] = struct{}{}
		holders = append(holders, t.Holder)
	}
	sort.Strings(holders)
	return holders
}

// PartitionByHolder splits the snapshot into one snapshot per holder, ordered
// by holder name. Partitions share price and sector lookups.
func (s *Snapshot) PartitionByHolder() []*Snapshot {
	groups := map[string][]Trade{}
	for _, t := range s.trades {
		groups[t.Holder] = append(groups[t.Holder], t)
	}
	holders := make([]string, 0, len(groups))
	for h := range groups {
		holders = append(holders, h)
	}
	sort.Strings(holders)

	parts := make([]*Snapshot, 0, len(holders))
	for _, h := range holders {
		parts = append(parts, &Snapshot{
			trades:  groups[h],
			prices:  s.prices,
			sectors: s.sectors,
			parties: map[string]string{h: s.parties[h]},
		})
	}
	return parts
}

func matches(filter, value string) bool {
	return filter == "" || filter == value
}
