package services

import (
	"context"
	"sync"
	"time"

	"housetrades/src/database"
	"housetrades/src/models"
	"housetrades/src/repositories"
	"housetrades/src/valuation"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("housetrades/services")

// Repositories groups the stores shared by the services.
type Repositories struct {
	Transactions    repositories.TransactionRepository
	Prices          repositories.PriceRepository
	Securities      repositories.SecurityRepository
	Representatives repositories.RepresentativeRepository
	IngestionRuns   repositories.IngestionRunRepository
}

func NewRepositories(db database.DBTX) Repositories {
	return Repositories{
		Transactions:    repositories.NewTransactionRepository(db),
		Prices:          repositories.NewPriceRepository(db),
		Securities:      repositories.NewSecurityRepository(db),
		Representatives: repositories.NewRepresentativeRepository(db),
		IngestionRuns:   repositories.NewIngestionRunRepository(db),
	}
}

// NewBucketResolver returns a resolver that logs each distinct unknown amount
// label once. Unknown labels are counted per record by the transactions
// ingestion, not here.
func NewBucketResolver(logger *logrus.Logger) *valuation.Resolver {
	var seen sync.Map
	return valuation.NewResolver(func(label string) {
		if _, loaded := seen.LoadOrStore(label, struct{}{}); !loaded && logger != nil {
			logger.WithFields(logrus.Fields{"label": label}).Warning("Unknown amount bucket valued at zero")
		}
	})
}

// snapshotOptions selects what loadSnapshot reads besides the trades.
type snapshotOptions struct {
	holder string
	ticker string
	start  *time.Time
	end    *time.Time
	prices bool
}

// loadSnapshot reads the trades matching opts and the sector table, and the
// closing prices of the traded tickers when opts.prices is set.
func loadSnapshot(ctx context.Context, repos Repositories, opts snapshotOptions) (*valuation.Snapshot, error) {
	txs, err := repos.Transactions.List(ctx, repositories.TransactionFilter{
		Representative: opts.holder,
		Ticker:         opts.ticker,
		StartDate:      opts.start,
		EndDate:        opts.end,
	})
	if err != nil {
		return nil, err
	}
	sectors, err := repos.Securities.GetSectors(ctx)
	if err != nil {
		return nil, err
	}

	var prices []valuation.PricePoint
	if opts.prices && len(txs) > 0 {
		var tickers []string
		if opts.holder != "" || opts.ticker != "" || opts.start != nil || opts.end != nil {
			tickers = tradedTickers(txs)
		}
		closes, err := repos.Prices.ListCloses(ctx, tickers)
		if err != nil {
			return nil, err
		}
		prices = toPricePoints(closes)
	}

	return valuation.NewSnapshot(toTrades(txs), prices, sectors), nil
}

func toTrades(txs []models.Transaction) []valuation.Trade {
	trades := make([]valuation.Trade, 0, len(txs))
	for _, t := range txs {
		trades = append(trades, valuation.Trade{
			Seq:       t.Seq,
			Holder:    t.Representative,
			Party:     t.Party,
			Ticker:    t.Ticker,
			Date:      t.TransactionDate,
			Direction: valuation.ParseDirection(t.Type),
			Bucket:    t.Amount,
		})
	}
	return trades
}

func toPricePoints(prices []models.DailyPrice) []valuation.PricePoint {
	points := make([]valuation.PricePoint, 0, len(prices))
	for _, p := range prices {
		if p.Close == nil {
			continue
		}
		points = append(points, valuation.PricePoint{Ticker: p.Ticker, Date: p.Date, Close: *p.Close})
	}
	return points
}

func tradedTickers(txs []models.Transaction) []string {
	seen := map[string]struct{}{}
	tickers := []string{}
	for _, t := range txs {
		ticker := valuation.NormalizeTicker(t.Ticker)
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		tickers = append(tickers, ticker)
	}
	return tickers
}
