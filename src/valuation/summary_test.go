package valuation_test

import (
	"testing"
	"time"

	"housetrades/src/valuation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(day string) func() time.Time {
	return func() time.Time { return date(day).Add(15 * time.Hour) }
}

func TestOverview(t *testing.T) {
	t.Run("single trade is active for one year", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2023-05-01", valuation.Purchase, valuation.Bucket1KTo15K)
		s := valuation.NewSummarizer(b.snapshot(nil, nil), valuation.NewResolver(nil), nil)

		overview := s.Overview("A")
		require.Len(t, overview, 1)
		assert.Equal(t, 1, overview[0].YearsActive)
		assert.Equal(t, 1, overview[0].TotalTrades)
		assert.Equal(t, 1, overview[0].Purchases)
		assert.Equal(t, 0, overview[0].Sales)
	})

	t.Run("counts across years and sectors", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2020-12-31", valuation.Purchase, valuation.Bucket1KTo15K).
			add("A", "XYZ", "2021-01-01", valuation.Sale, valuation.Bucket1KTo15K).
			add("A", "ABC", "2022-06-01", valuation.Exchange, valuation.Bucket1KTo15K).
			add("A", "", "2022-06-02", valuation.Purchase, valuation.Bucket1KTo15K).
			add("B", "ABC", "2022-06-02", valuation.Purchase, valuation.Bucket1KTo15K)
		sectors := map[string]string{"XYZ": "Technology", "ABC": "Energy"}
		s := valuation.NewSummarizer(b.snapshot(nil, sectors), valuation.NewResolver(nil), nil)

		overview := s.Overview("")
		require.Len(t, overview, 2)
		a := overview[0]
		assert.Equal(t, "A", a.Holder)
		assert.Equal(t, "Democrat", a.Party)
		assert.Equal(t, 4, a.TotalTrades)
		assert.Equal(t, 2, a.UniqueInstruments)
		assert.Equal(t, 3, a.YearsActive)
		assert.Equal(t, 2, a.Purchases)
		assert.Equal(t, 1, a.Sales)
		assert.Equal(t, 3, a.UniqueSectors, "Technology, Energy and Unknown")
		assert.Equal(t, "B", overview[1].Holder)
	})

	t.Run("unknown holder is empty", func(t *testing.T) {
		s := valuation.NewSummarizer(valuation.NewSnapshot(nil, nil, nil), valuation.NewResolver(nil), nil)
		assert.NotNil(t, s.Overview("nobody"))
		assert.Empty(t, s.Overview("nobody"))
	})
}

func TestSectorBreakdown(t *testing.T) {
	b := &tradeBuilder{}
	b.add("A", "XYZ", "2023-01-02", valuation.Purchase, valuation.Bucket1KTo15K).
		add("A", "XYZ", "2023-01-03", valuation.Sale, valuation.Bucket1KTo15K).
		add("A", "QQQ", "2023-01-03", valuation.Purchase, valuation.Bucket1KTo15K).
		add("A", "ABC", "2023-01-04", valuation.Purchase, valuation.Bucket1KTo15K).
		add("A", "", "2023-01-04", valuation.Purchase, valuation.Bucket1KTo15K)
	sectors := map[string]string{"XYZ": "Technology", "ABC": "Energy", "QQQ": ""}
	s := valuation.NewSummarizer(b.snapshot(nil, sectors), valuation.NewResolver(nil), nil)

	breakdown := s.SectorBreakdown("A")
	require.Len(t, breakdown, 3)
	assert.Equal(t, valuation.SectorExposure{Holder: "A", Sector: "Technology", TransactionCount: 2}, breakdown[0])
	assert.Equal(t, valuation.SectorExposure{Holder: "A", Sector: valuation.UnknownSector, TransactionCount: 2}, breakdown[1])
	assert.Equal(t, valuation.SectorExposure{Holder: "A", Sector: "Energy", TransactionCount: 1}, breakdown[2])

	overview := s.Overview("A")
	require.Len(t, overview, 1)
	assert.Equal(t, len(breakdown), overview[0].UniqueSectors)
}

func TestInstrumentOverview(t *testing.T) {
	t.Run("purchase paired with later sale", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2023-01-01", valuation.Purchase, valuation.Bucket1KTo15K).
			add("A", "XYZ", "2023-01-31", valuation.Sale, valuation.Bucket1KTo15K)
		prices := []valuation.PricePoint{{Ticker: "XYZ", Date: date("2023-01-01"), Close: 100}}
		s := valuation.NewSummarizer(b.snapshot(prices, nil), valuation.NewResolver(nil), fixedClock("2024-01-01"))

		overview := s.InstrumentOverview("XYZ")
		require.Len(t, overview, 1)
		o := overview[0]
		assert.Equal(t, 2, o.TotalTrades)
		assert.Equal(t, 1, o.ActiveHolders)
		require.NotNil(t, o.AvgHoldingDays)
		assert.Equal(t, 30.0, *o.AvgHoldingDays)
		require.NotNil(t, o.TotalVolume)
		assert.InDelta(t, 80.005, *o.TotalVolume, 1e-9)
	})

	t.Run("unsold purchase is held through today", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2023-01-01", valuation.Purchase, valuation.Bucket1KTo15K).
			add("B", "XYZ", "2023-01-10", valuation.Sale, valuation.Bucket1KTo15K)
		s := valuation.NewSummarizer(b.snapshot(nil, nil), valuation.NewResolver(nil), fixedClock("2023-03-02"))

		o := s.InstrumentOverview("XYZ")[0]
		require.NotNil(t, o.AvgHoldingDays)
		assert.Equal(t, 60.0, *o.AvgHoldingDays, "another holder's sale does not close the position")
		assert.Equal(t, 2, o.ActiveHolders)
	})

	t.Run("missing price excludes volume but counts the trade", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2023-01-01", valuation.Purchase, valuation.Bucket15KTo50K)
		s := valuation.NewSummarizer(b.snapshot(nil, nil), valuation.NewResolver(nil), fixedClock("2023-01-11"))

		o := s.InstrumentOverview("XYZ")[0]
		assert.Equal(t, 1, o.TotalTrades)
		assert.Nil(t, o.TotalVolume)
		require.NotNil(t, o.AvgHoldingDays)
		assert.Equal(t, 10.0, *o.AvgHoldingDays)
	})

	t.Run("volume sums only priced purchases", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2023-01-01", valuation.Purchase, valuation.BucketUnder1K).
			add("A", "XYZ", "2023-01-02", valuation.Purchase, valuation.BucketUnder1K).
			add("A", "XYZ", "2023-01-03", valuation.Purchase, valuation.BucketUnder1K).
			add("A", "XYZ", "2023-01-04", valuation.Sale, valuation.BucketUnder1K)
		prices := []valuation.PricePoint{
			{Ticker: "XYZ", Date: date("2023-01-01"), Close: 10},
			{Ticker: "XYZ", Date: date("2023-01-02"), Close: 0},
			{Ticker: "XYZ", Date: date("2023-01-04"), Close: 50},
		}
		s := valuation.NewSummarizer(b.snapshot(prices, nil), valuation.NewResolver(nil), nil)

		o := s.InstrumentOverview("XYZ")[0]
		require.NotNil(t, o.TotalVolume)
		assert.Equal(t, 50.0, *o.TotalVolume)
		require.NotNil(t, o.AvgHoldingDays)
		assert.Equal(t, 2.0, *o.AvgHoldingDays)
	})

	t.Run("no purchases leaves averages empty", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "XYZ", "2023-01-01", valuation.Sale, valuation.BucketUnder1K)
		s := valuation.NewSummarizer(b.snapshot(nil, nil), valuation.NewResolver(nil), nil)

		o := s.InstrumentOverview("XYZ")[0]
		assert.Nil(t, o.AvgHoldingDays)
		assert.Nil(t, o.TotalVolume)
	})

	t.Run("blank tickers are excluded", func(t *testing.T) {
		b := &tradeBuilder{}
		b.add("A", "", "2023-01-01", valuation.Purchase, valuation.BucketUnder1K)
		s := valuation.NewSummarizer(b.snapshot(nil, nil), valuation.NewResolver(nil), nil)
		assert.Empty(t, s.InstrumentOverview(""))
	})
}

func TestDailyActivityAndTimeline(t *testing.T) {
	b := &tradeBuilder{}
	b.add("A", "XYZ", "2023-01-02", valuation.Purchase, valuation.Bucket1KTo15K).
		add("B", "XYZ", "2023-01-02", valuation.Sale, valuation.Bucket15KTo50K).
		add("A", "ABC", "2023-01-05", valuation.Exchange, valuation.BucketUnder1K).
		add("A", "XYZ", "2023-01-09", valuation.Purchase, "bogus")
	prices := []valuation.PricePoint{{Ticker: "XYZ", Date: date("2023-01-02"), Close: 12.5}}
	s := valuation.NewSummarizer(b.snapshot(prices, map[string]string{"XYZ": "Technology"}), valuation.NewResolver(nil), nil)

	t.Run("daily activity", func(t *testing.T) {
		activity := s.DailyActivity("", "XYZ")
		require.Len(t, activity, 2)
		assert.Equal(t, valuation.DailyActivity{Date: date("2023-01-02"), Trades: 2, Purchases: 1, Sales: 1}, activity[0])
		assert.Equal(t, 1, activity[1].Trades)

		assert.Len(t, s.DailyActivity("A", ""), 3)
	})

	t.Run("timeline with date range", func(t *testing.T) {
		start, end := date("2023-01-02"), date("2023-01-05")
		timeline := s.Timeline(valuation.TimelineFilter{Start: &start, End: &end})
		require.Len(t, timeline, 3)
		require.NotNil(t, timeline[0].PriceAtTrade)
		assert.Equal(t, 12.5, *timeline[0].PriceAtTrade)
		assert.Equal(t, 8000.5, timeline[0].EstimatedValue)
		assert.Equal(t, "Technology", timeline[0].Sector)
		assert.Nil(t, timeline[2].PriceAtTrade)
		assert.Equal(t, valuation.UnknownSector, timeline[2].Sector)
	})

	t.Run("timeline by ticker keeps unknown buckets at zero", func(t *testing.T) {
		timeline := s.Timeline(valuation.TimelineFilter{Ticker: "XYZ", Holder: "A"})
		require.Len(t, timeline, 2)
		assert.Equal(t, 0.0, timeline[1].EstimatedValue)
	})
}

func TestAnalysisIsIdempotent(t *testing.T) {
	b := &tradeBuilder{}
	b.add("A", "XYZ", "2023-01-02", valuation.Purchase, valuation.Bucket15KTo50K).
		add("A", "ABC", "2023-01-02", valuation.Purchase, valuation.Bucket1KTo15K).
		add("B", "XYZ", "2023-02-02", valuation.Purchase, valuation.Bucket100KTo250K).
		add("A", "XYZ", "2023-03-02", valuation.Sale, valuation.Bucket1KTo15K).
		add("B", "XYZ", "2023-04-02", valuation.Sale, valuation.Bucket100KTo250K)
	snap := b.snapshot([]valuation.PricePoint{{Ticker: "XYZ", Date: date("2023-01-02"), Close: 3}}, nil)
	engine := valuation.NewEngine(nil, fixedClock("2024-01-01"))

	first, second := engine.Analyze(snap), engine.Analyze(snap)
	assert.Equal(t, first.Ledger().CurrentPositions(""), second.Ledger().CurrentPositions(""))
	assert.Equal(t, first.Ledger().PositionSeries(""), second.Ledger().PositionSeries(""))
	assert.Equal(t, first.Portfolio().PortfolioSeries(""), second.Portfolio().PortfolioSeries(""))
	assert.Equal(t, first.Summary().Overview(""), second.Summary().Overview(""))
	assert.Equal(t, first.Summary().SectorBreakdown(""), second.Summary().SectorBreakdown(""))
	assert.Equal(t, first.Summary().InstrumentOverview(""), second.Summary().InstrumentOverview(""))
}

func TestAnalysisBuildsViewsOnDemand(t *testing.T) {
	b := &tradeBuilder{}
	b.add("A", "XYZ", "2023-01-02", valuation.Purchase, "$1,000,001 +").
		add("A", "XYZ", "2023-01-05", valuation.Purchase, valuation.Bucket1KTo15K)
	snap := b.snapshot(nil, nil)

	unknown := 0
	engine := valuation.NewEngine(valuation.NewResolver(func(string) { unknown++ }), fixedClock("2024-01-01"))
	analysis := engine.Analyze(snap)

	overview := analysis.Summary().Overview("A")
	require.Len(t, overview, 1)
	assert.Equal(t, 2, overview[0].TotalTrades)
	assert.Zero(t, unknown, "overview does not value amounts")

	assert.Same(t, analysis.Ledger(), analysis.Ledger())
	assert.Same(t, analysis.Summary(), analysis.Summary())
	assert.Equal(t, 1, unknown, "the ledger scan values each trade once")

	positions := analysis.Portfolio().PortfolioSeries("A")
	require.Len(t, positions, 2)
	assert.Equal(t, 8000.5, positions[1].TotalPortfolioValue)
	assert.Equal(t, 1, unknown)
}

func TestPartitionByHolder(t *testing.T) {
	b := &tradeBuilder{}
	b.add("B", "XYZ", "2023-01-02", valuation.Purchase, valuation.Bucket15KTo50K).
		add("A", "ABC", "2023-01-03", valuation.Purchase, valuation.Bucket1KTo15K).
		add("B", "ABC", "2023-01-04", valuation.Sale, valuation.Bucket1KTo15K)
	snap := b.snapshot(nil, map[string]string{"XYZ": "Technology"})

	parts := snap.PartitionByHolder()
	require.Len(t, parts, 2)
	assert.Equal(t, []string{"A"}, parts[0].Holders())
	assert.Equal(t, 2, parts[1].Len())
	assert.Equal(t, "Technology", parts[1].Sector("XYZ"))
	assert.Equal(t, []string{"A", "B"}, snap.Holders())
}
