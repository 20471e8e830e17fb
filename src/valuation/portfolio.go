package valuation

import "time"

type PortfolioPoint struct {
	Date                time.Time `json:"transaction_date"`
	Holder              string    `json:"representative"`
	Ticker              string    `json:"ticker"`
	StockValue          float64   `json:"stock_value"`
	TotalPortfolioValue float64   `json:"total_portfolio_value"`
}

// PortfolioAggregator derives per-holder running totals from the same scan
// the ledger uses, so both series agree on the ordering of same-day trades.
type PortfolioAggregator struct {
	ledger *PositionLedger
}

func NewPortfolioAggregator(ledger *PositionLedger) *PortfolioAggregator {
	return &PortfolioAggregator{ledger: ledger}
}

// PortfolioSeries returns the ledger series of holder, each point carrying the
// holder's total portfolio value at the end of its date.
func (a *PortfolioAggregator) PortfolioSeries(holder string) []PortfolioPoint {
	out := []PortfolioPoint{}
	for _, r := range a.ledger.rows {
		if !matches(holder, r.key.holder) {
			continue
		}
		total := a.ledger.totals[holderDay{holder: r.key.holder, day: r.day}]
		out = append(out, PortfolioPoint{
			Date:                r.day,
			Holder:              r.key.holder,
			Ticker:              r.key.ticker,
			StockValue:          r.stock.InexactFloat64(),
			TotalPortfolioValue: total.InexactFloat64(),
		})
	}
	return out
}
