package billing

import "errors"

var (
	// ErrMissingCloseDay is returned when a formula requires an explicit
	// statement-close day and none is configured. Guessing a close day
	// would silently produce wrong due dates.
	ErrMissingCloseDay = errors.New("billing formula requires an explicit close day")

	// ErrUnknownFormula is returned for an unrecognized formula kind
	ErrUnknownFormula = errors.New("unknown billing cycle formula")

	// ErrMissingOpenDate is returned when an anniversary formula has no
	// account-open date to anchor on
	ErrMissingOpenDate = errors.New("billing formula requires the account open date")
)
