package services_test

import (
	"context"
	"testing"
	"time"

	"housetrades/src/models"
	"housetrades/src/services"
	"housetrades/src/utils"
	"housetrades/src/valuation"

	"github.com/prometheus/client_golang/prometheus/testutil"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureStore() *store {
	return &store{
		transactions: []models.Transaction{
			{Seq: 1, TransactionDate: day("2023-01-10"), Ticker: "AAPL", Type: "purchase", Amount: "$15,001 - $50,000", Representative: "Alice", Party: "Democrat"},
			{Seq: 2, TransactionDate: day("2023-01-10"), Ticker: "AAPL", Type: "purchase", Amount: "$15,001 - $50,000", Representative: "Alice", Party: "Democrat"},
			{Seq: 3, TransactionDate: day("2023-01-15"), Ticker: "MSFT", Type: "purchase", Amount: "$1,001 - $15,000", Representative: "Alice", Party: "Democrat"},
			{Seq: 4, TransactionDate: day("2023-02-09"), Ticker: "AAPL", Type: "sale", Amount: "$1,001 - $15,000", Representative: "Alice", Party: "Democrat"},
			{Seq: 5, TransactionDate: day("2023-03-01"), Ticker: "AAPL", Type: "purchase", Amount: "$50,001 - $100,000", Representative: "Bob", Party: "Republican"},
			{Seq: 6, TransactionDate: day("2023-03-02"), Ticker: "", Type: "purchase", Amount: "$1,001 - $15,000", Representative: "Bob", Party: "Republican"},
		},
		prices: []models.DailyPrice{
			{Ticker: "AAPL", Date: day("2023-01-10"), Close: floatPtr(130)},
			{Ticker: "AAPL", Date: day("2023-03-01"), Close: nil},
		},
		securities: []models.Security{
			{Ticker: "AAPL", Sector: strPtr("Technology")},
		},
		representatives: []models.Representative{
			{ID: 1, Name: "Alice", Party: "Democrat"},
			{ID: 2, Name: "Bob", Party: "Republican"},
		},
	}
}

func newDashboard(st *store, conn *fakeConn) (*services.DashboardService, *utils.Metrics) {
	metrics := utils.NewMetrics()
	logger := quietLogger()
	now := func() time.Time { return day("2023-03-31") }
	engine := valuation.NewEngine(services.NewBucketResolver(logger), now)
	svc := services.NewDashboardService(conn, st.repositories(), engine, metrics, logger)
	svc.RetryDelay = time.Millisecond
	return svc, metrics
}

func TestDashboardRepresentativeViews(t *testing.T) {
	svc, _ := newDashboard(newFixtureStore(), &fakeConn{})
	ctx := context.Background()

	t.Run("current positions of one holder", func(t *testing.T) {
		positions, err := svc.CurrentPositions(ctx, "Alice")
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Equal(t, "AAPL", positions[0].Ticker)
		assert.Equal(t, 57000.5, positions[0].Value)
		assert.Equal(t, "Technology", positions[0].Sector)
		assert.Equal(t, "MSFT", positions[1].Ticker)
		assert.Equal(t, valuation.UnknownSector, positions[1].Sector)
	})

	t.Run("current positions across holders", func(t *testing.T) {
		positions, err := svc.CurrentPositions(ctx, "")
		require.NoError(t, err)
		require.Len(t, positions, 3)
		assert.Equal(t, "Bob", positions[0].Holder)
		assert.Equal(t, 75000.5, positions[0].Value)
	})

	t.Run("portfolio value keeps partition consistency", func(t *testing.T) {
		rows, err := svc.PortfolioValue(ctx, "Alice")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 65001.0, rows[0].TotalPortfolioValue)
		assert.Equal(t, 73001.5, rows[1].TotalPortfolioValue)
		assert.Equal(t, 57000.5, rows[2].StockValue)
		assert.Equal(t, 65001.0, rows[2].TotalPortfolioValue)
	})

	t.Run("unfiltered portfolio equals the per holder results", func(t *testing.T) {
		all, err := svc.PortfolioValue(ctx, "")
		require.NoError(t, err)
		alice, err := svc.PortfolioValue(ctx, "Alice")
		require.NoError(t, err)
		bob, err := svc.PortfolioValue(ctx, "Bob")
		require.NoError(t, err)
		assert.Equal(t, append(alice, bob...), all)
	})

	t.Run("overview", func(t *testing.T) {
		rows, err := svc.RepresentativeOverview(ctx, "")
		require.NoError(t, err)
		require.Len(t, rows, 2)

		alice := rows[0]
		assert.Equal(t, "Alice", alice.Holder)
		assert.Equal(t, "Democrat", alice.Party)
		assert.Equal(t, 4, alice.TotalTrades)
		assert.Equal(t, 2, alice.UniqueInstruments)
		assert.Equal(t, 3, alice.Purchases)
		assert.Equal(t, 1, alice.Sales)
		assert.Equal(t, 1, alice.YearsActive)
		assert.Equal(t, 2, alice.UniqueSectors)

		bob := rows[1]
		assert.Equal(t, 2, bob.TotalTrades)
		assert.Equal(t, 1, bob.UniqueInstruments)
	})

	t.Run("sector analysis", func(t *testing.T) {
		rows, err := svc.SectorAnalysis(ctx, "Alice")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Technology", rows[0].Sector)
		assert.Equal(t, 3, rows[0].TransactionCount)
	})

	t.Run("unknown holder gives an empty slice", func(t *testing.T) {
		rows, err := svc.CurrentPositions(ctx, "Nobody")
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("daily activity", func(t *testing.T) {
		rows, err := svc.DailyActivity(ctx, "Alice", "")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 2, rows[0].Trades)
		assert.Equal(t, 1, rows[2].Sales)
	})
}

func TestDashboardStockViews(t *testing.T) {
	svc, _ := newDashboard(newFixtureStore(), &fakeConn{})
	ctx := context.Background()

	t.Run("stock overview", func(t *testing.T) {
		rows, err := svc.StockOverview(ctx, "aapl")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		row := rows[0]
		assert.Equal(t, "AAPL", row.Ticker)
		assert.Equal(t, 4, row.TotalTrades)
		assert.Equal(t, 2, row.ActiveHolders)
		require.NotNil(t, row.AvgHoldingDays)
		assert.Equal(t, 30.0, *row.AvgHoldingDays)
		require.NotNil(t, row.TotalVolume)
		assert.InDelta(t, 65001.0/130, *row.TotalVolume, 1e-9)
	})

	t.Run("stock positions and party distribution", func(t *testing.T) {
		positions, err := svc.StockPositions(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Equal(t, "Republican", positions[0].Party)

		parties, err := svc.PartyDistribution(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, parties, 2)
		assert.Equal(t, "Republican", parties[0].Party)
		assert.Equal(t, 75000.5, parties[0].Value)
		assert.Equal(t, "Democrat", parties[1].Party)
		assert.Equal(t, 57000.5, parties[1].Value)
	})

	t.Run("trading timeline within dates", func(t *testing.T) {
		start, end := day("2023-02-01"), day("2023-03-01")
		rows, err := svc.TradingTimeline(ctx, &start, &end)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, valuation.Sale, rows[0].Type)
		assert.Equal(t, "Bob", rows[1].Holder)
		assert.Nil(t, rows[1].PriceAtTrade)
	})

	t.Run("stock timeline carries the price at trade", func(t *testing.T) {
		rows, err := svc.StockTradingTimeline(ctx, "AAPL")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		require.NotNil(t, rows[0].PriceAtTrade)
		assert.Equal(t, 130.0, *rows[0].PriceAtTrade)
		assert.Equal(t, 32500.5, rows[0].EstimatedValue)
	})

	t.Run("lookups", func(t *testing.T) {
		tickers, err := svc.AllTickers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

		withPrices, err := svc.StocksWithPrices(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL"}, withPrices)

		prices, err := svc.StockPrices(ctx, "aapl")
		require.NoError(t, err)
		assert.Len(t, prices, 2)

		reps, err := svc.AllRepresentatives(ctx)
		require.NoError(t, err)
		assert.Len(t, reps, 2)
	})
}

func TestDashboardConnectionHandling(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy connection is probed once and never reconnected", func(t *testing.T) {
		conn := &fakeConn{}
		svc, _ := newDashboard(newFixtureStore(), conn)
		_, err := svc.CurrentPositions(ctx, "Alice")
		require.NoError(t, err)
		assert.Equal(t, 1, conn.pings)
		assert.Equal(t, 0, conn.reconnects)
	})

	t.Run("failed probe reconnects before the call", func(t *testing.T) {
		conn := &fakeConn{pingErr: errUnavailable}
		svc, _ := newDashboard(newFixtureStore(), conn)
		positions, err := svc.CurrentPositions(ctx, "Alice")
		require.NoError(t, err)
		assert.Len(t, positions, 2)
		assert.Equal(t, 1, conn.reconnects)
	})

	t.Run("failed call is retried once after reconnecting", func(t *testing.T) {
		st := newFixtureStore()
		st.failures = 1
		conn := &fakeConn{}
		svc, metrics := newDashboard(st, conn)

		positions, err := svc.CurrentPositions(ctx, "Alice")
		require.NoError(t, err)
		assert.Len(t, positions, 2)
		assert.Equal(t, 1, conn.reconnects)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueryRetries.WithLabelValues("CurrentPositions")))
	})

	t.Run("second failure returns an empty result and the error", func(t *testing.T) {
		st := newFixtureStore()
		st.failures = 100
		conn := &fakeConn{}
		svc, metrics := newDashboard(st, conn)

		positions, err := svc.CurrentPositions(ctx, "Alice")
		require.Error(t, err)
		assert.ErrorIs(t, err, errUnavailable)
		assert.NotNil(t, positions)
		assert.Empty(t, positions)
		assert.Equal(t, 2, st.reads)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueryFailures.WithLabelValues("CurrentPositions")))
	})

	t.Run("failed reconnect on retry ends the call", func(t *testing.T) {
		st := newFixtureStore()
		st.failures = 1
		conn := &fakeConn{reconnectErr: errUnavailable}
		svc, _ := newDashboard(st, conn)

		tickers, err := svc.AllTickers(ctx)
		require.Error(t, err)
		assert.Equal(t, []string{}, tickers)
		assert.Equal(t, 1, st.reads)
	})
}

func TestBucketResolverLogsEachUnknownLabelOnce(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	resolver := services.NewBucketResolver(logger)

	assert.Equal(t, 0.0, resolver.Estimate("Spouse/DC"))
	assert.Equal(t, 0.0, resolver.Estimate("Spouse/DC"))
	assert.Equal(t, 8000.5, resolver.Estimate("$1,001 - $15,000"))

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Spouse/DC", hook.LastEntry().Data["label"])
}
