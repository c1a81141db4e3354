package billing

import (
	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

type cycleRequest struct {
	Kind       string     `json:"kind" validate:"required,cycle_formula"`
	GraceDays  int        `json:"grace_days" validate:"gte=0,lte=60"`
	OffsetDays int        `json:"offset_days" validate:"gte=0,lte=31"`
	OpenedOn   dates.Date `json:"opened_on"`
	CloseDay   *int       `json:"close_day" validate:"omitempty,gte=1,lte=31"`
	AsOf       dates.Date `json:"as_of"`
}

type estimateRequest struct {
	CurrentBalanceCents int64         `json:"current_balance_cents"`
	LastStatementClose  dates.Date    `json:"last_statement_close" validate:"required"`
	Entries             []LedgerEntry `json:"entries"`
}
