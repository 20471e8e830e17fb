package schemas

import (
	"time"

	"housetrades/src/models"
)

// IngestionResponse is returned by the ingestion trigger endpoint.
type IngestionResponse struct {
	Kind  string                `json:"kind"`
	Runs  []models.IngestionRun `json:"runs"`
	Error string                `json:"error,omitempty"`
}

// ScheduleResponse describes one scheduled ingestion.
type ScheduleResponse struct {
	Kind string    `json:"kind"`
	Cron string    `json:"cron"`
	Next time.Time `json:"next_run"`
}
