package models

import "time"

type DailyPrice struct {
	Ticker string    `db:"ticker" json:"ticker"`
	Date   time.Time `db:"date" json:"date"`
	Open   *float64  `db:"open" json:"open"`
	High   *float64  `db:"high" json:"high"`
	Low    *float64  `db:"low" json:"low"`
	Close  *float64  `db:"close" json:"close"`
	Volume *int64    `db:"volume" json:"volume"`
}
