package models

import "time"

// Security holds issuer metadata for a ticker.
type Security struct {
	Ticker          string     `db:"ticker" json:"ticker"`
	CompanyName     *string    `db:"company_name" json:"company_name"`
	Sector          *string    `db:"sector" json:"sector"`
	Industry        *string    `db:"industry" json:"industry"`
	Country         *string    `db:"country" json:"country"`
	MarketCap       *int64     `db:"market_cap" json:"market_cap"`
	Description     *string    `db:"description" json:"description"`
	Website         *string    `db:"website" json:"website"`
	Exchange        *string    `db:"exchange" json:"exchange"`
	Currency        *string    `db:"currency" json:"currency"`
	LastUpdatedDate *time.Time `db:"last_updated_date" json:"last_updated_date"`
}
