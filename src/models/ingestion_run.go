package models

import (
	"time"

	"github.com/google/uuid"
)

type IngestionRun struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Kind          string     `db:"kind" json:"kind"`
	Status        string     `db:"status" json:"status"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	FinishedAt    *time.Time `db:"finished_at" json:"finished_at"`
	Records       int        `db:"records" json:"records"`
	FailedTickers []string   `db:"failed_tickers" json:"failed_tickers"`
	Error         *string    `db:"error" json:"error"`
}
