package rates

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
	"github.com/cardwise/cardwise-api/internal/middleware"
	"github.com/cardwise/cardwise-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CardRate handles GET /cards/{cardID}/rate?category=slug.
func (h *Handler) CardRate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid card id")
		return
	}

	slug := r.URL.Query().Get("category")
	if slug == "" {
		response.BadRequest(w, "category query parameter is required")
		return
	}

	rate, err := h.svc.CardRate(r.Context(), userID, cardID, slug)
	if err != nil {
		switch {
		case errors.Is(err, card.ErrCardNotFound):
			response.NotFound(w, "card not found in wallet")
		case errors.Is(err, category.ErrNotFound):
			response.NotFound(w, "unknown category")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to resolve rate")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, rate)
}
