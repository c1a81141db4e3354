package reconcile

import (
	"testing"

	"github.com/google/uuid"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

func cents(v int64) *int64 { return &v }
func qty(v int) *int       { return &v }
func creditRef(v int64) *int64 {
	return &v
}

var asOf = dates.MustParse("2026-06-15")

func charge(name string, amountCents int64, date string) Transaction {
	return Transaction{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Name:        name,
		Date:        dates.MustParse(date),
		AmountCents: amountCents,
	}
}

func TestChargeMatchesCreditByPattern(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"grubhub"}},
	}
	tx := charge("GRUBHUB ORDER 12345", 900, "2026-06-03")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{tx})

	if res.Summary.Matched != 1 {
		t.Fatalf("expected one match, got %+v", res.Summary)
	}
	if res.Mutations.Match[tx.ID] != 1 {
		t.Fatalf("expected tx matched to credit 1, got %+v", res.Mutations.Match)
	}
}

func TestBrandSimilarityMatchesNoisyDescription(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Streaming Credit", Cycle: CycleMonthly, ValueCents: cents(2000), BrandName: "Clear Plus"},
	}
	tx := charge("CLEARPLUS", 1500, "2026-06-03")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{tx})

	if res.Summary.Matched != 1 {
		t.Fatalf("expected fuzzy brand match, got %+v", res.Summary)
	}
}

func TestExclusionPatternDismisses(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"payment"}},
	}
	patterns := []ExclusionPattern{{ID: 1, Pattern: "autopay payment"}}
	tx := charge("AUTOPAY PAYMENT RECEIVED", 500, "2026-06-03")

	res := NewMatcher(credits, patterns, asOf).Run([]Transaction{tx})

	if res.Summary.Matched != 0 {
		t.Fatalf("excluded transaction must not match, got %+v", res.Summary)
	}
	if len(res.Mutations.Dismiss) != 1 || res.Mutations.Dismiss[0] != tx.ID {
		t.Fatalf("expected dismissal of %s, got %+v", tx.ID, res.Mutations.Dismiss)
	}
}

func TestPendingAndRefundsAreSkipped(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(5000), MerchantPatterns: []string{"grubhub"}},
	}
	pending := charge("GRUBHUB ORDER", 900, "2026-06-03")
	pending.Pending = true
	refund := charge("GRUBHUB REFUND", -900, "2026-06-04")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{pending, refund})

	if res.Summary.Matched != 0 || !res.Mutations.Empty() {
		t.Fatalf("pending/refund rows must be untouched, got %+v", res)
	}
}

func TestValueCapacityIsRespected(t *testing.T) {
	// $20 monthly credit: a $15 charge fits, a second does not.
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(2000), MerchantPatterns: []string{"grubhub"}},
	}
	first := charge("GRUBHUB ORDER A", 1500, "2026-06-03")
	second := charge("GRUBHUB ORDER B", 1500, "2026-06-10")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{first, second})

	if res.Summary.Matched != 1 {
		t.Fatalf("expected exactly one match, got %+v", res.Summary)
	}
	if _, ok := res.Mutations.Match[first.ID]; !ok {
		t.Fatalf("the earlier charge should win, got %+v", res.Mutations.Match)
	}
}

func TestQuantityCreditConsumesUnits(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Lounge Pass", Cycle: CycleAnnual, Quantity: qty(2), MerchantPatterns: []string{"lounge"}},
	}
	txs := []Transaction{
		charge("AIRPORT LOUNGE A", 3900, "2026-02-01"),
		charge("AIRPORT LOUNGE B", 4500, "2026-04-01"),
		charge("AIRPORT LOUNGE C", 4100, "2026-05-01"),
	}

	res := NewMatcher(credits, nil, asOf).Run(txs)

	if res.Summary.Matched != 2 {
		t.Fatalf("quantity 2 allows two matches, got %+v", res.Summary)
	}
}

func TestEarlierDeadlineWins(t *testing.T) {
	// Both credits cover the charge; the monthly one expires first.
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Annual Dining", Cycle: CycleAnnual, ValueCents: cents(10000), MerchantPatterns: []string{"grubhub"}},
		{ID: 2, CardID: 10, Name: "Monthly Dining", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"grubhub"}},
	}
	tx := charge("GRUBHUB ORDER", 900, "2026-06-03")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{tx})

	if res.Mutations.Match[tx.ID] != 2 {
		t.Fatalf("expected the monthly credit, got %+v", res.Mutations.Match)
	}
}

func TestCardScopedChargeSkipsOtherCards(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"grubhub"}},
	}
	otherCard := int64(99)
	tx := charge("GRUBHUB ORDER", 900, "2026-06-03")
	tx.CardID = &otherCard

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{tx})

	if res.Summary.Matched != 0 {
		t.Fatalf("charge on another card must not match, got %+v", res.Summary)
	}
}

func TestRerunOverSettledStateIsNoOp(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"grubhub"}},
	}
	tx := charge("GRUBHUB ORDER", 900, "2026-06-03")
	tx.MatchedCreditID = creditRef(1)

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{tx})

	if res.Summary.Matched != 0 || !res.Mutations.Empty() {
		t.Fatalf("rerun must change nothing, got %+v", res)
	}
}

func TestClawbackUnwindsMatchAndFreesCapacity(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"grubhub"}},
	}
	matched := charge("GRUBHUB ORDER", 900, "2026-06-03")
	matched.MatchedCreditID = creditRef(1)
	refund := charge("GRUBHUB ORDER", -900, "2026-06-08")
	fresh := charge("GRUBHUB ORDER NEW", 900, "2026-06-10")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{matched, refund, fresh})

	if res.Summary.Clawbacks != 1 {
		t.Fatalf("expected one clawback, got %+v", res.Summary)
	}
	if len(res.Mutations.Unmatch) != 1 || res.Mutations.Unmatch[0] != matched.ID {
		t.Fatalf("expected unmatch of the charged row, got %+v", res.Mutations.Unmatch)
	}
	if len(res.Mutations.Dismiss) != 2 {
		t.Fatalf("expected charge and refund dismissed, got %+v", res.Mutations.Dismiss)
	}
	// The freed capacity goes to the fresh charge in the same run.
	if res.Mutations.Match[fresh.ID] != 1 || res.Summary.Matched != 1 {
		t.Fatalf("freed capacity should serve the new charge, got %+v", res)
	}
}

func TestClawbackIgnoresOldOrDissimilarRefunds(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleAnnual, ValueCents: cents(100000), MerchantPatterns: []string{"grubhub"}},
	}
	matched := charge("GRUBHUB ORDER", 900, "2026-01-03")
	matched.MatchedCreditID = creditRef(1)
	lateRefund := charge("GRUBHUB ORDER", -900, "2026-06-10")
	otherRefund := charge("HARDWARE STORE RETURN", -900, "2026-01-10")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{matched, lateRefund, otherRefund})

	if res.Summary.Clawbacks != 0 {
		t.Fatalf("neither refund qualifies, got %+v", res.Summary)
	}
}

func TestUnknownMatchedCreditIsReported(t *testing.T) {
	tx := charge("GRUBHUB ORDER", 900, "2026-06-03")
	tx.MatchedCreditID = creditRef(42)

	res := NewMatcher(nil, nil, asOf).Run([]Transaction{tx})

	if len(res.Summary.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", res.Summary.Errors)
	}
}

func TestMisconfiguredCreditIsReportedNotMatched(t *testing.T) {
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Broken Credit", Cycle: CycleMonthly, MerchantPatterns: []string{"grubhub"}},
	}
	tx := charge("GRUBHUB ORDER", 900, "2026-06-03")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{tx})

	if res.Summary.Matched != 0 || len(res.Summary.Errors) != 1 {
		t.Fatalf("expected skip with error, got %+v", res.Summary)
	}
}

func TestPlayerNumberDoesNotAffectMatching(t *testing.T) {
	// Household member tagging is carried on the row but plays no part
	// in reconciliation: charges from different members share credits.
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(2000), MerchantPatterns: []string{"grubhub"}},
	}
	primary := charge("GRUBHUB ORDER A", 900, "2026-06-03")
	primary.PlayerNumber = 1
	partner := charge("GRUBHUB ORDER B", 900, "2026-06-05")
	partner.PlayerNumber = 2

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{primary, partner})

	if res.Summary.Matched != 2 {
		t.Fatalf("both members' charges should match, got %+v", res.Summary)
	}
}

func TestConsumptionOutsidePeriodDoesNotCount(t *testing.T) {
	// A match from May doesn't drain the June allowance.
	credits := []Credit{
		{ID: 1, CardID: 10, Name: "Dining Credit", Cycle: CycleMonthly, ValueCents: cents(1000), MerchantPatterns: []string{"grubhub"}},
	}
	old := charge("GRUBHUB ORDER", 1000, "2026-05-20")
	old.MatchedCreditID = creditRef(1)
	fresh := charge("GRUBHUB ORDER", 1000, "2026-06-10")

	res := NewMatcher(credits, nil, asOf).Run([]Transaction{old, fresh})

	if res.Mutations.Match[fresh.ID] != 1 {
		t.Fatalf("June allowance should be untouched, got %+v", res.Mutations.Match)
	}
}
