package billing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardwise/cardwise-api/internal/pkg/response"
	"github.com/cardwise/cardwise-api/internal/pkg/validator"
)

// Handler exposes the cycle calculator and the statement estimator.
// Both are pure calculations over the request payload; card settings
// live with the caller.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) ComputeCycle(w http.ResponseWriter, r *http.Request) {
	var req cycleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	cycle, err := ComputeCycle(
		CycleFormula{Kind: FormulaKind(req.Kind), GraceDays: req.GraceDays, OffsetDays: req.OffsetDays},
		CycleInput{OpenedOn: req.OpenedOn, CloseDay: req.CloseDay, AsOf: req.AsOf},
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCloseDay):
			response.UnprocessableEntity(w, "same_day formula requires a close_day")
		case errors.Is(err, ErrMissingOpenDate):
			response.UnprocessableEntity(w, "anniversary_offset formula requires opened_on or close_day")
		case errors.Is(err, ErrUnknownFormula):
			response.UnprocessableEntity(w, "unknown cycle formula")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, cycle)
}

func (h *Handler) EstimateStatement(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	estimate := EstimateStatementBalance(req.CurrentBalanceCents, req.Entries, req.LastStatementClose)
	response.OK(w, estimate)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/cycle", h.ComputeCycle)
	r.Post("/statement-estimate", h.EstimateStatement)
	return r
}
