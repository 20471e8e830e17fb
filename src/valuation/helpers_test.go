package valuation_test

import (
	"time"

	"housetrades/src/valuation"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type tradeBuilder struct {
	seq    int64
	trades []valuation.Trade
}

func (b *tradeBuilder) add(holder, ticker, day string, dir valuation.Direction, bucket string) *tradeBuilder {
	b.seq++
	b.trades = append(b.trades, valuation.Trade{
		Seq:       b.seq,
		Holder:    holder,
		Party:     "Democrat",
		Ticker:    ticker,
		Date:      date(day),
		Direction: dir,
		Bucket:    bucket,
	})
	return b
}

func (b *tradeBuilder) snapshot(prices []valuation.PricePoint, sectors map[string]string) *valuation.Snapshot {
	return valuation.NewSnapshot(b.trades, prices, sectors)
}
