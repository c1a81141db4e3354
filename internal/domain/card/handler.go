package card

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cardwise/cardwise-api/internal/middleware"
	"github.com/cardwise/cardwise-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type walletCardResponse struct {
	ID              int64           `json:"id"`
	IssuerID        int64           `json:"issuer_id"`
	Name            string          `json:"name"`
	DefaultEarnRate decimal.Decimal `json:"default_earn_rate"`
	CurrencyKind    string          `json:"currency_kind"`
	CentsPerUnit    decimal.Decimal `json:"cents_per_unit"`
}

// ListWallet returns the user's cards with their reward currencies.
func (h *Handler) ListWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wallet, err := h.svc.LoadWallet(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to load wallet")
		response.InternalError(w)
		return
	}

	cards := make([]walletCardResponse, 0, len(wallet.Cards))
	for _, c := range wallet.Cards {
		item := walletCardResponse{
			ID:              c.ID,
			IssuerID:        c.IssuerID,
			Name:            c.Name,
			DefaultEarnRate: c.DefaultEarnRate,
		}
		if currency, ok := wallet.Currencies[c.CurrencyID]; ok {
			item.CurrencyKind = currency.Kind
			item.CentsPerUnit = currency.CentsPerUnit
		}
		cards = append(cards, item)
	}

	response.OK(w, map[string]interface{}{"cards": cards})
}
