package billing

import (
	"reflect"
	"testing"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

func TestEstimateBacksOutPostCloseCharge(t *testing.T) {
	// Statement close 2024-03-15, balance $500.00, one post-close
	// charge of $50.00 → statement balance $450.00.
	got := EstimateStatementBalance(50000, []LedgerEntry{
		{Date: dates.MustParse("2024-03-20"), AmountCents: 5000},
	}, dates.MustParse("2024-03-15"))

	if got.BalanceCents != 45000 {
		t.Fatalf("expected 45000, got %d", got.BalanceCents)
	}
	if got.PostCloseChargeCount != 1 || got.PostCloseChargesCents != 5000 {
		t.Fatalf("bad charge breakdown: %+v", got)
	}
	if !got.IsEstimate {
		t.Fatal("estimate must be flagged as such")
	}
}

func TestEstimateExcludesCloseDateTransactions(t *testing.T) {
	got := EstimateStatementBalance(50000, []LedgerEntry{
		{Date: dates.MustParse("2024-03-15"), AmountCents: 9999},  // on close: in statement
		{Date: dates.MustParse("2024-03-16"), AmountCents: 1000},  // after close
		{Date: dates.MustParse("2024-03-18"), AmountCents: -2500}, // post-close credit
	}, dates.MustParse("2024-03-15"))

	if got.PostCloseChargesCents != 1000 || got.PostCloseChargeCount != 1 {
		t.Fatalf("close-date charge leaked into post-close: %+v", got)
	}
	if got.PostCloseCreditsCents != 2500 || got.PostCloseCreditCount != 1 {
		t.Fatalf("bad credit breakdown: %+v", got)
	}
	if got.BalanceCents != 50000-1000+2500 {
		t.Fatalf("expected %d, got %d", 50000-1000+2500, got.BalanceCents)
	}
}

func TestEstimateIsPure(t *testing.T) {
	entries := []LedgerEntry{
		{Date: dates.MustParse("2024-03-20"), AmountCents: 5000},
		{Date: dates.MustParse("2024-03-21"), AmountCents: -700},
	}
	closeDate := dates.MustParse("2024-03-15")

	a := EstimateStatementBalance(12345, entries, closeDate)
	b := EstimateStatementBalance(12345, entries, closeDate)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("estimator is not idempotent: %+v vs %+v", a, b)
	}
}

func TestEstimateWithNoEntries(t *testing.T) {
	got := EstimateStatementBalance(7000, nil, dates.MustParse("2024-03-15"))
	if got.BalanceCents != 7000 || got.PostCloseChargeCount != 0 || got.PostCloseCreditCount != 0 {
		t.Fatalf("empty ledger must be a no-op: %+v", got)
	}
}
