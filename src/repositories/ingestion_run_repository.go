package repositories

import (
	"context"
	"errors"
	"time"

	"housetrades/src/database"
	"housetrades/src/models"
	"housetrades/src/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IngestionRunRepository interface {
	Start(ctx context.Context, kind string) (*models.IngestionRun, error)
	Finish(ctx context.Context, run *models.IngestionRun) error
	ListRecent(ctx context.Context, limit int) ([]models.IngestionRun, error)
	GetLast(ctx context.Context, kind string) (*models.IngestionRun, error)
}

type ingestionRunRepo struct {
	db database.DBTX
}

func NewIngestionRunRepository(db database.DBTX) IngestionRunRepository {
	return &ingestionRunRepo{db: db}
}

// Start records a new run in the running state.
func (r *ingestionRunRepo) Start(ctx context.Context, kind string) (*models.IngestionRun, error) {
	run := &models.IngestionRun{
		ID:            uuid.New(),
		Kind:          kind,
		Status:        utils.IngestionStatusRunning,
		StartedAt:     time.Now().UTC(),
		FailedTickers: []string{},
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO ingestion_runs (id, kind, status, started_at)
		VALUES ($1, $2, $3, $4)`,
		run.ID, run.Kind, run.Status, run.StartedAt)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stores the outcome of run and stamps its finish time.
func (r *ingestionRunRepo) Finish(ctx context.Context, run *models.IngestionRun) error {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if run.FailedTickers == nil {
		run.FailedTickers = []string{}
	}
	_, err := r.db.Exec(ctx, `
		UPDATE ingestion_runs
		SET status = $2, finished_at = $3, records = $4, failed_tickers = $5, error = $6
		WHERE id = $1`,
		run.ID, run.Status, run.FinishedAt, run.Records, run.FailedTickers, run.Error)
	return err
}

func (r *ingestionRunRepo) ListRecent(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, status, started_at, finished_at, records, failed_tickers, error
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.IngestionRun
	for rows.Next() {
		var run models.IngestionRun
		if err := rows.Scan(&run.ID, &run.Kind, &run.Status, &run.StartedAt, &run.FinishedAt, &run.Records,
			&run.FailedTickers, &run.Error); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetLast returns the latest run of kind, or nil when there is none.
func (r *ingestionRunRepo) GetLast(ctx context.Context, kind string) (*models.IngestionRun, error) {
	var run models.IngestionRun
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, status, started_at, finished_at, records, failed_tickers, error
		FROM ingestion_runs
		WHERE kind = $1
		ORDER BY started_at DESC
		LIMIT 1
	`, kind).Scan(&run.ID, &run.Kind, &run.Status, &run.StartedAt, &run.FinishedAt, &run.Records,
		&run.FailedTickers, &run.Error)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
