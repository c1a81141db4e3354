package billing

import (
	"errors"
	"testing"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

func intPtr(v int) *int { return &v }

func TestSameDayFormula(t *testing.T) {
	got, err := ComputeCycle(
		CycleFormula{Kind: FormulaSameDay, GraceDays: 25},
		CycleInput{CloseDay: intPtr(15), AsOf: dates.MustParse("2024-03-20")},
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.LastStatementClose.String() != "2024-03-15" {
		t.Fatalf("last close: got %s", got.LastStatementClose)
	}
	if got.NextStatementClose.String() != "2024-04-15" {
		t.Fatalf("next close: got %s", got.NextStatementClose)
	}
	if got.NextPaymentDue.String() != "2024-05-10" {
		t.Fatalf("due: got %s", got.NextPaymentDue)
	}
}

func TestSameDayOnCloseDateCountsAsLast(t *testing.T) {
	got, err := ComputeCycle(
		CycleFormula{Kind: FormulaSameDay, GraceDays: 21},
		CycleInput{CloseDay: intPtr(15), AsOf: dates.MustParse("2024-03-15")},
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.LastStatementClose.String() != "2024-03-15" {
		t.Fatalf("close today must be the last close, got %s", got.LastStatementClose)
	}
	if got.NextStatementClose.String() != "2024-04-15" {
		t.Fatalf("next close: got %s", got.NextStatementClose)
	}
}

func TestSameDayClampsShortMonths(t *testing.T) {
	got, err := ComputeCycle(
		CycleFormula{Kind: FormulaSameDay, GraceDays: 25},
		CycleInput{CloseDay: intPtr(31), AsOf: dates.MustParse("2024-02-10")},
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.LastStatementClose.String() != "2024-01-31" {
		t.Fatalf("last close: got %s", got.LastStatementClose)
	}
	if got.NextStatementClose.String() != "2024-02-29" {
		t.Fatalf("expected leap-February clamp, got %s", got.NextStatementClose)
	}
}

func TestSameDayWithoutCloseDayIsConfigurationError(t *testing.T) {
	_, err := ComputeCycle(
		CycleFormula{Kind: FormulaSameDay, GraceDays: 25},
		CycleInput{AsOf: dates.MustParse("2024-03-20")},
	)
	if !errors.Is(err, ErrMissingCloseDay) {
		t.Fatalf("expected ErrMissingCloseDay, got %v", err)
	}
}

func TestAnniversaryOffsetFormula(t *testing.T) {
	got, err := ComputeCycle(
		CycleFormula{Kind: FormulaAnniversaryOffset, OffsetDays: 3, GraceDays: 21},
		CycleInput{OpenedOn: dates.MustParse("2021-06-10"), AsOf: dates.MustParse("2024-03-20")},
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.LastStatementClose.String() != "2024-03-13" {
		t.Fatalf("last close: got %s", got.LastStatementClose)
	}
	if got.NextStatementClose.String() != "2024-04-13" {
		t.Fatalf("next close: got %s", got.NextStatementClose)
	}
	if got.NextPaymentDue.String() != "2024-05-04" {
		t.Fatalf("due: got %s", got.NextPaymentDue)
	}
}

func TestAnniversaryOffsetHonorsExplicitOverride(t *testing.T) {
	got, err := ComputeCycle(
		CycleFormula{Kind: FormulaAnniversaryOffset, OffsetDays: 3, GraceDays: 21},
		CycleInput{OpenedOn: dates.MustParse("2021-06-10"), CloseDay: intPtr(1), AsOf: dates.MustParse("2024-03-20")},
	)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.LastStatementClose.String() != "2024-03-01" {
		t.Fatalf("override ignored: got %s", got.LastStatementClose)
	}
}

func TestAnniversaryOffsetWithoutAnchors(t *testing.T) {
	_, err := ComputeCycle(
		CycleFormula{Kind: FormulaAnniversaryOffset, OffsetDays: 3},
		CycleInput{AsOf: dates.MustParse("2024-03-20")},
	)
	if !errors.Is(err, ErrMissingOpenDate) {
		t.Fatalf("expected ErrMissingOpenDate, got %v", err)
	}
}

func TestUnknownFormula(t *testing.T) {
	_, err := ComputeCycle(CycleFormula{Kind: "lunar"}, CycleInput{AsOf: dates.MustParse("2024-03-20")})
	if !errors.Is(err, ErrUnknownFormula) {
		t.Fatalf("expected ErrUnknownFormula, got %v", err)
	}
}
