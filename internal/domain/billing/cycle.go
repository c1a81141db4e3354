package billing

import (
	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

// FormulaKind tags how an issuer computes its statement-close day.
type FormulaKind string

const (
	// FormulaSameDay closes on the same configured day each month. The
	// close day must be supplied explicitly.
	FormulaSameDay FormulaKind = "same_day"
	// FormulaAnniversaryOffset closes a fixed number of days after the
	// account-open day-of-month each month.
	FormulaAnniversaryOffset FormulaKind = "anniversary_offset"
)

// CycleFormula is an issuer-specific description of the billing cycle:
// how the close day is derived and how long after close payment is due.
type CycleFormula struct {
	Kind       FormulaKind `json:"kind"`
	GraceDays  int         `json:"grace_days"`
	OffsetDays int         `json:"offset_days"`
}

// RequiresCloseDay reports whether the formula needs an explicit
// statement-close day from card settings.
func (f CycleFormula) RequiresCloseDay() bool {
	return f.Kind == FormulaSameDay
}

// CycleInput carries the per-card anchor data.
type CycleInput struct {
	OpenedOn dates.Date // account open date; anchors anniversary formulas
	CloseDay *int       // explicit close day override, when configured
	AsOf     dates.Date // "today"; zero means the current date
}

// CycleDates is the computed billing cycle.
type CycleDates struct {
	LastStatementClose dates.Date `json:"last_statement_close"`
	NextStatementClose dates.Date `json:"next_statement_close"`
	NextPaymentDue     dates.Date `json:"next_payment_due"`
}

// ComputeCycle resolves the most recent close on or before AsOf, the
// next close after it, and the next payment due date. All arithmetic
// is calendar-day math on wall-clock dates.
func ComputeCycle(f CycleFormula, in CycleInput) (CycleDates, error) {
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = dates.Today()
	}

	closeFor, err := closeDayFunc(f, in)
	if err != nil {
		return CycleDates{}, err
	}

	// Close dates are monthly; scanning the neighboring months around
	// asOf is enough to bracket it even with day offsets applied.
	var last, next dates.Date
	for delta := -2; delta <= 2; delta++ {
		anchor := dates.Date{Year: asOf.Year, Month: asOf.Month, Day: 1}.AddMonths(delta)
		closeDate := closeFor(anchor.Year, anchor.Month)
		if !closeDate.After(asOf) {
			if last.IsZero() || closeDate.After(last) {
				last = closeDate
			}
		} else if next.IsZero() || closeDate.Before(next) {
			next = closeDate
		}
	}

	return CycleDates{
		LastStatementClose: last,
		NextStatementClose: next,
		NextPaymentDue:     next.AddDays(f.GraceDays),
	}, nil
}

// closeDayFunc returns the close date for a given (year, month) under
// the formula, or a configuration error when anchors are missing.
func closeDayFunc(f CycleFormula, in CycleInput) (func(year, month int) dates.Date, error) {
	switch f.Kind {
	case FormulaSameDay:
		if in.CloseDay == nil {
			return nil, ErrMissingCloseDay
		}
		day := *in.CloseDay
		return func(year, month int) dates.Date {
			return dates.ClampDay(year, month, day)
		}, nil

	case FormulaAnniversaryOffset:
		if in.CloseDay != nil {
			// An explicit override beats the derived anniversary day.
			day := *in.CloseDay
			return func(year, month int) dates.Date {
				return dates.ClampDay(year, month, day)
			}, nil
		}
		if in.OpenedOn.IsZero() {
			return nil, ErrMissingOpenDate
		}
		openDay := in.OpenedOn.Day
		offset := f.OffsetDays
		return func(year, month int) dates.Date {
			return dates.ClampDay(year, month, openDay).AddDays(offset)
		}, nil
	}

	return nil, ErrUnknownFormula
}
