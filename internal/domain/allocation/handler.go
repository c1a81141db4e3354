package allocation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/middleware"
	"github.com/cardwise/cardwise-api/internal/pkg/response"
	"github.com/cardwise/cardwise-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

type reportRequest struct {
	Spends []spendInput `json:"spends" validate:"required,min=1,dive"`
}

type spendInput struct {
	CategorySlug  string `json:"category_slug" validate:"required"`
	AnnualDollars int64  `json:"annual_dollars" validate:"gte=0"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) BuildReport(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req reportRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	spends := make([]SpendItem, 0, len(req.Spends))
	for _, s := range req.Spends {
		spends = append(spends, SpendItem{CategorySlug: s.CategorySlug, AnnualDollars: s.AnnualDollars})
	}

	report, err := h.svc.BuildReport(r.Context(), userID, spends)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to build allocation report")
		response.InternalError(w)
		return
	}

	response.OK(w, report)
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/report", h.BuildReport)
	return r
}
