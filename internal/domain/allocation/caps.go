package allocation

import (
	"github.com/cardwise/cardwise-api/internal/domain/card"
)

// periodsPerYear normalizes a cap's reset period for annual math.
func periodsPerYear(p card.CapPeriod) int64 {
	switch p {
	case card.PeriodMonth:
		return 12
	case card.PeriodQuarter:
		return 4
	default:
		return 1
	}
}

// AnnualCapacityDollars converts a cap into the total bonus-eligible
// dollars it allows over a full year: a $1,500/quarter cap contributes
// $6,000 of annual capacity. The second return is false when the cap
// has no amount, i.e. unlimited.
func AnnualCapacityDollars(c card.Cap) (int64, bool) {
	if c.AmountDollars == nil {
		return 0, false
	}
	return *c.AmountDollars * periodsPerYear(c.Period), true
}
