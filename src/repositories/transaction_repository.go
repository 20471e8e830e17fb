package repositories

import (
	"context"
	"time"

	"housetrades/src/database"
	"housetrades/src/models"

	"github.com/jackc/pgx/v5"
)

// TransactionFilter narrows a transaction listing. Empty fields match everything.
type TransactionFilter struct {
	Representative string
	Ticker         string
	StartDate      *time.Time
	EndDate        *time.Time
}

type TransactionRepository interface {
	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	ListTickers(ctx context.Context) ([]string, error)
	ListTickersWithPrices(ctx context.Context) ([]string, error)
	GetDateRange(ctx context.Context) (*time.Time, *time.Time, error)
	ReplaceAll(ctx context.Context, transactions []models.Transaction, tx pgx.Tx) (int64, error)
}

type transactionRepo struct {
	db database.DBTX
}

func NewTransactionRepository(db database.DBTX) TransactionRepository {
	return &transactionRepo{db: db}
}

var transactionColumns = []string{
	"seq", "disclosure_year", "disclosure_date", "transaction_date", "owner", "ticker", "asset_description",
	"type", "amount", "representative", "district", "state", "party", "ptr_link", "cap_gains_over_200_usd",
	"industry", "sector", "ingestion_run_id",
}

func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, seq, disclosure_year, disclosure_date, transaction_date, owner, ticker, asset_description,
			type, amount, representative, district, state, party, ptr_link, cap_gains_over_200_usd, industry, sector
		FROM transactions
		WHERE ($1 = '' OR representative = $1)
		AND ($2 = '' OR ticker = $2)
		AND ($3::date IS NULL OR transaction_date >= $3::date)
		AND ($4::date IS NULL OR transaction_date <= $4::date)
		ORDER BY transaction_date, seq`,
		filter.Representative, filter.Ticker, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Seq, &t.DisclosureYear, &t.DisclosureDate, &t.TransactionDate, &t.Owner,
			&t.Ticker, &t.AssetDescription, &t.Type, &t.Amount, &t.Representative, &t.District, &t.State,
			&t.Party, &t.PtrLink, &t.CapGainsOver200USD, &t.Industry, &t.Sector); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *transactionRepo) ListTickers(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, `
		SELECT DISTINCT ticker
		FROM transactions
		WHERE ticker <> ''
		ORDER BY ticker`)
}

func (r *transactionRepo) ListTickersWithPrices(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, `
		SELECT DISTINCT t.ticker
		FROM transactions t
		WHERE t.ticker <> ''
		AND EXISTS (SELECT 1 FROM daily_prices p WHERE p.ticker = t.ticker)
		ORDER BY t.ticker`)
}

func (r *transactionRepo) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// GetDateRange returns the first and last trade dates, both nil when the table is empty.
func (r *transactionRepo) GetDateRange(ctx context.Context) (*time.Time, *time.Time, error) {
	var minDate, maxDate *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT MIN(transaction_date), MAX(transaction_date)
		FROM transactions
	`).Scan(&minDate, &maxDate)
	if err != nil {
		return nil, nil, err
	}
	return minDate, maxDate, nil
}

// ReplaceAll swaps the whole table for transactions. When tx is nil the
// replace runs in its own database transaction.
func (r *transactionRepo) ReplaceAll(ctx context.Context, transactions []models.Transaction, tx pgx.Tx) (int64, error) {
	var err error
	if tx == nil {
		tx, err = r.db.Begin(ctx)
		if err != nil {
			return 0, err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		var n int64
		n, err = r.replace(ctx, tx, transactions)
		if err != nil {
			return 0, err
		}
		err = tx.Commit(ctx)
		return n, err
	}

	return r.replace(ctx, tx, transactions)
}

func (r *transactionRepo) replace(ctx context.Context, tx pgx.Tx, transactions []models.Transaction) (int64, error) {
	if _, err := tx.Exec(ctx, "TRUNCATE TABLE transactions"); err != nil {
		return 0, err
	}
	rows := make([][]any, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, []any{
			t.Seq, t.DisclosureYear, t.DisclosureDate, t.TransactionDate, t.Owner, t.Ticker, t.AssetDescription,
			t.Type, t.Amount, t.Representative, t.District, t.State, t.Party, t.PtrLink, t.CapGainsOver200USD,
			t.Industry, t.Sector, t.IngestionRunID,
		})
	}
	return tx.CopyFrom(ctx, pgx.Identifier{"transactions"}, transactionColumns, pgx.CopyFromRows(rows))
}
