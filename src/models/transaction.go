package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one disclosed trade as stored after ingestion. Seq keeps the
// order of the source feed and breaks ties between trades on the same date.
type Transaction struct {
	ID                 int64      `db:"id"`
	Seq                int64      `db:"seq"`
	DisclosureYear     int        `db:"disclosure_year"`
	DisclosureDate     *time.Time `db:"disclosure_date"`
	TransactionDate    time.Time  `db:"transaction_date"`
	Owner              string     `db:"owner"`
	Ticker             string     `db:"ticker"`
	AssetDescription   string     `db:"asset_description"`
	Type               string     `db:"type"`
	Amount             string     `db:"amount"`
	Representative     string     `db:"representative"`
	District           string     `db:"district"`
	State              string     `db:"state"`
	Party              string     `db:"party"`
	PtrLink            string     `db:"ptr_link"`
	CapGainsOver200USD bool       `db:"cap_gains_over_200_usd"`
	Industry           string     `db:"industry"`
	Sector             string     `db:"sector"`
	IngestionRunID     uuid.UUID  `db:"ingestion_run_id"`
	CreatedAt          time.Time  `db:"created_at"`
}
