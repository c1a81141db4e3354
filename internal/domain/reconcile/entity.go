package reconcile

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

// CreditCycle is how often a statement credit resets.
type CreditCycle string

const (
	CycleMonthly        CreditCycle = "monthly"
	CycleQuarterly      CreditCycle = "quarterly"
	CycleSemiannual     CreditCycle = "semiannual"
	CycleAnnual         CreditCycle = "annual"
	CycleCardmemberYear CreditCycle = "cardmember_year"
)

// Credit is an expected recurring (or one-time) statement credit on a
// card. Exactly one of ValueCents and Quantity is set: dollar-based
// credits track remaining value, quantity-based ones a unit count.
// BrandName and MerchantPatterns are the matching hints.
type Credit struct {
	ID               int64       `db:"id" json:"id"`
	CardID           int64       `db:"card_id" json:"card_id"`
	Name             string      `db:"name" json:"name"`
	Cycle            CreditCycle `db:"cycle" json:"cycle"`
	ValueCents       *int64      `db:"value_cents" json:"value_cents,omitempty"`
	Quantity         *int        `db:"quantity" json:"quantity,omitempty"`
	BrandName        string      `db:"brand_name" json:"brand_name"`
	MerchantPatterns []string    `db:"-" json:"merchant_patterns"`
}

// PeriodStart returns the first day of the credit's current reset
// period relative to asOf. Cardmember-year credits are tracked on the
// calendar year; the card anniversary is not visible to the matcher.
func (c Credit) PeriodStart(asOf dates.Date) dates.Date {
	switch c.Cycle {
	case CycleMonthly:
		return dates.Date{Year: asOf.Year, Month: asOf.Month, Day: 1}
	case CycleQuarterly:
		month := ((asOf.Month-1)/3)*3 + 1
		return dates.Date{Year: asOf.Year, Month: month, Day: 1}
	case CycleSemiannual:
		month := 1
		if asOf.Month > 6 {
			month = 7
		}
		return dates.Date{Year: asOf.Year, Month: month, Day: 1}
	default:
		return dates.Date{Year: asOf.Year, Month: 1, Day: 1}
	}
}

// PeriodEnd returns the use-it-or-lose-it deadline of the current
// period. Credits with earlier deadlines are matched first.
func (c Credit) PeriodEnd(asOf dates.Date) dates.Date {
	switch c.Cycle {
	case CycleMonthly:
		return c.PeriodStart(asOf).AddMonths(1).AddDays(-1)
	case CycleQuarterly:
		return c.PeriodStart(asOf).AddMonths(3).AddDays(-1)
	case CycleSemiannual:
		return c.PeriodStart(asOf).AddMonths(6).AddDays(-1)
	default:
		return dates.Date{Year: asOf.Year, Month: 12, Day: 31}
	}
}

// Transaction is a bank-synced ledger row. Positive amounts are
// charges, negative amounts are credits, refunds or payments. The
// reconciliation state lives in MatchedCreditID and Dismissed; the
// bank-sync job owns everything else. PlayerNumber tags which
// household member made the charge and passes through untouched.
type Transaction struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	UserID              uuid.UUID  `db:"user_id" json:"user_id"`
	LinkedAccountID     uuid.UUID  `db:"linked_account_id" json:"linked_account_id"`
	CardID              *int64     `db:"card_id" json:"card_id,omitempty"`
	Name                string     `db:"name" json:"name"`
	OriginalDescription *string    `db:"original_description" json:"original_description,omitempty"`
	Date                dates.Date `db:"-" json:"date"`
	AmountCents         int64      `db:"amount_cents" json:"amount_cents"`
	Pending             bool       `db:"pending" json:"pending"`
	Dismissed           bool       `db:"dismissed" json:"dismissed"`
	MatchedCreditID     *int64     `db:"matched_credit_id" json:"matched_credit_id,omitempty"`
	PlayerNumber        int        `db:"player_number" json:"player_number"`
}

// Description prefers the raw bank description over the aggregator's
// cleaned name; the raw text usually carries the merchant hints.
func (t Transaction) Description() string {
	if t.OriginalDescription != nil && strings.TrimSpace(*t.OriginalDescription) != "" {
		return *t.OriginalDescription
	}
	return t.Name
}

// ExclusionPattern auto-dismisses any transaction whose name contains
// it, case-insensitively.
type ExclusionPattern struct {
	ID      int64  `db:"id" json:"id"`
	Pattern string `db:"pattern" json:"pattern"`
}

// Summary is the per-batch reconciliation outcome. Errors carries
// per-transaction failures; the batch itself always completes.
type Summary struct {
	Matched   int      `json:"matched"`
	Clawbacks int      `json:"clawbacks"`
	Errors    []string `json:"errors"`
}

// Mutations is the set of state changes to persist after a run.
type Mutations struct {
	Dismiss []uuid.UUID
	Match   map[uuid.UUID]int64
	Unmatch []uuid.UUID
}

// Empty reports whether the run changed nothing.
func (m Mutations) Empty() bool {
	return len(m.Dismiss) == 0 && len(m.Match) == 0 && len(m.Unmatch) == 0
}

// Result bundles the summary with the mutations that produced it.
type Result struct {
	Summary   Summary
	Mutations Mutations
}
