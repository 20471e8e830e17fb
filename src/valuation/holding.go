package valuation

import "time"

const day = 24 * time.Hour

// HoldingDays pairs every purchase with the earliest sale strictly after it
// and returns the number of days each purchase was held. Purchases without a
// later sale are held through asOf. Both slices must be sorted ascending;
// sales are not consumed, so several purchases may pair with the same sale.
func HoldingDays(purchases, sales []time.Time, asOf time.Time) []int {
	out := make([]int, 0, len(purchases))
	today := Day(asOf)
	j := 0
	for _, p := range purchases {
		p = Day(p)
		for j < len(sales) && !Day(sales[j]).After(p) {
			j++
		}
		end := today
		if j < len(sales) {
			end = Day(sales[j])
		}
		out = append(out, int(end.Sub(p)/day))
	}
	return out
}
