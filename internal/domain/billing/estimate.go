package billing

import (
	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

// LedgerEntry is one dated ledger transaction. Positive amounts are
// charges, negative amounts are credits or payments.
type LedgerEntry struct {
	Date        dates.Date `json:"date"`
	AmountCents int64      `json:"amount_cents"`
}

// StatementEstimate approximates the balance as of the last statement
// close. IsEstimate is always true: this is derived from the ledger,
// not reported by the issuer.
type StatementEstimate struct {
	BalanceCents          int64 `json:"balance_cents"`
	PostCloseChargesCents int64 `json:"post_close_charges_cents"`
	PostCloseCreditsCents int64 `json:"post_close_credits_cents"`
	PostCloseChargeCount  int   `json:"post_close_charge_count"`
	PostCloseCreditCount  int   `json:"post_close_credit_count"`
	IsEstimate            bool  `json:"is_estimate"`
}

// EstimateStatementBalance backs post-close activity out of the
// current balance. Entries dated exactly on the close date belong to
// the statement and are not counted as post-close.
func EstimateStatementBalance(currentBalanceCents int64, entries []LedgerEntry, lastClose dates.Date) StatementEstimate {
	est := StatementEstimate{IsEstimate: true}

	for _, e := range entries {
		if !e.Date.After(lastClose) {
			continue
		}
		if e.AmountCents > 0 {
			est.PostCloseChargesCents += e.AmountCents
			est.PostCloseChargeCount++
		} else if e.AmountCents < 0 {
			est.PostCloseCreditsCents += -e.AmountCents
			est.PostCloseCreditCount++
		}
	}

	est.BalanceCents = currentBalanceCents - est.PostCloseChargesCents + est.PostCloseCreditsCents
	return est
}
