package category

import "errors"

var (
	// ErrNotFound is returned when a category id or slug doesn't resolve
	ErrNotFound = errors.New("category not found")

	// ErrUnknownParent is returned when a parent_id references a missing category
	ErrUnknownParent = errors.New("category parent not found")

	// ErrForestCycle is returned when a category is its own ancestor
	ErrForestCycle = errors.New("category parent cycle")

	// ErrForestTooDeep is returned when a grandparent chain is detected
	ErrForestTooDeep = errors.New("category forest deeper than two levels")

	ErrInternal = errors.New("internal error")
)
