package repositories

import (
	"context"

	"housetrades/src/database"
	"housetrades/src/models"

	"github.com/jackc/pgx/v5"
)

type SecurityRepository interface {
	List(ctx context.Context, tickers []string) ([]models.Security, error)
	GetSectors(ctx context.Context) (map[string]string, error)
	Replace(ctx context.Context, securities []models.Security) (int64, error)
}

type securityRepo struct {
	db database.DBTX
}

func NewSecurityRepository(db database.DBTX) SecurityRepository {
	return &securityRepo{db: db}
}

func (r *securityRepo) List(ctx context.Context, tickers []string) ([]models.Security, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker, company_name, sector, industry, country, market_cap, description, website, exchange,
			currency, last_updated_date
		FROM stocks
		WHERE ($1::text[] IS NULL OR ticker = ANY($1::text[]))
		ORDER BY ticker`, tickers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var securities []models.Security
	for rows.Next() {
		var s models.Security
		if err := rows.Scan(&s.Ticker, &s.CompanyName, &s.Sector, &s.Industry, &s.Country, &s.MarketCap,
			&s.Description, &s.Website, &s.Exchange, &s.Currency, &s.LastUpdatedDate); err != nil {
			return nil, err
		}
		securities = append(securities, s)
	}
	return securities, rows.Err()
}

// GetSectors maps every ticker with a known sector to that sector.
func (r *securityRepo) GetSectors(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker, sector
		FROM stocks
		WHERE sector IS NOT NULL AND sector <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sectors := map[string]string{}
	for rows.Next() {
		var ticker, sector string
		if err := rows.Scan(&ticker, &sector); err != nil {
			return nil, err
		}
		sectors[ticker] = sector
	}
	return sectors, rows.Err()
}

// Replace overwrites the metadata of the given tickers.
func (r *securityRepo) Replace(ctx context.Context, securities []models.Security) (int64, error) {
	if len(securities) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tickers := make([]string, 0, len(securities))
	rows := make([][]any, 0, len(securities))
	for _, s := range securities {
		tickers = append(tickers, s.Ticker)
		rows = append(rows, []any{s.Ticker, s.CompanyName, s.Sector, s.Industry, s.Country, s.MarketCap,
			s.Description, s.Website, s.Exchange, s.Currency, s.LastUpdatedDate})
	}

	if _, err := tx.Exec(ctx, "DELETE FROM stocks WHERE ticker = ANY($1)", tickers); err != nil {
		return 0, err
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"stocks"},
		[]string{"ticker", "company_name", "sector", "industry", "country", "market_cap", "description",
			"website", "exchange", "currency", "last_updated_date"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}
