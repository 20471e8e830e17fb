package repositories

import (
	"context"

	"housetrades/src/database"
	"housetrades/src/models"

	"github.com/jackc/pgx/v5"
)

type PriceRepository interface {
	ListByTicker(ctx context.Context, ticker string) ([]models.DailyPrice, error)
	ListCloses(ctx context.Context, tickers []string) ([]models.DailyPrice, error)
	ReplaceForTicker(ctx context.Context, ticker string, prices []models.DailyPrice) (int64, error)
}

type priceRepo struct {
	db database.DBTX
}

func NewPriceRepository(db database.DBTX) PriceRepository {
	return &priceRepo{db: db}
}

func (r *priceRepo) ListByTicker(ctx context.Context, ticker string) ([]models.DailyPrice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker, date, open, high, low, close, volume
		FROM daily_prices
		WHERE ticker = $1
		ORDER BY date`, ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []models.DailyPrice
	for rows.Next() {
		var p models.DailyPrice
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// ListCloses returns the non-null closing prices of tickers, or of every
// ticker when tickers is nil.
func (r *priceRepo) ListCloses(ctx context.Context, tickers []string) ([]models.DailyPrice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker, date, close
		FROM daily_prices
		WHERE close IS NOT NULL
		AND ($1::text[] IS NULL OR ticker = ANY($1::text[]))
		ORDER BY ticker, date`, tickers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []models.DailyPrice
	for rows.Next() {
		var p models.DailyPrice
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Close); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// ReplaceForTicker deletes the stored history of ticker and writes prices in
// one database transaction.
func (r *priceRepo) ReplaceForTicker(ctx context.Context, ticker string, prices []models.DailyPrice) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM daily_prices WHERE ticker = $1", ticker); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, []any{ticker, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume})
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"daily_prices"},
		[]string{"ticker", "date", "open", "high", "low", "close", "volume"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}
