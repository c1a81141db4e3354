package card

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository reads card reference data: the wallet itself, earning
// rules, currencies, caps and the user's preference/selection rows.
// All of it is read-only to the engines; writes happen in the admin
// CRUD surface.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]Card, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cards := make([]Card, 0)
	err := r.db.SelectContext(ctx2, &cards, `
		SELECT c.id, c.issuer_id, c.name, c.default_earn_rate, c.currency_id
		FROM cards c
		JOIN user_cards uc ON uc.card_id = c.id
		WHERE uc.user_id = $1
		ORDER BY c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list user cards", ErrInternal)
	}

	return cards, nil
}

func (r *Repository) ListRulesForCards(ctx context.Context, cardIDs []int64) ([]EarningRule, error) {
	if len(cardIDs) == 0 {
		return []EarningRule{}, nil
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rules := make([]EarningRule, 0)
	err := r.db.SelectContext(ctx2, &rules, `
		SELECT id, card_id, category_id, rate, booking_method, brand_name
		FROM earning_rules
		WHERE card_id = ANY($1)
		ORDER BY card_id, category_id
	`, pq.Array(cardIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: list earning rules", ErrInternal)
	}

	return rules, nil
}

func (r *Repository) ListCurrencies(ctx context.Context) ([]RewardCurrency, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	currencies := make([]RewardCurrency, 0)
	err := r.db.SelectContext(ctx2, &currencies, `
		SELECT id, kind, cents_per_unit
		FROM reward_currencies
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list reward currencies", ErrInternal)
	}

	return currencies, nil
}

func (r *Repository) ListCapsForCards(ctx context.Context, cardIDs []int64) ([]Cap, error) {
	if len(cardIDs) == 0 {
		return []Cap{}, nil
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	caps := make([]Cap, 0)
	err := r.db.SelectContext(ctx2, &caps, `
		SELECT id, card_id, kind, amount_dollars, period
		FROM caps
		WHERE card_id = ANY($1)
		ORDER BY id
	`, pq.Array(cardIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: list caps", ErrInternal)
	}
	if len(caps) == 0 {
		return caps, nil
	}

	capIDs := make([]int64, 0, len(caps))
	for _, c := range caps {
		capIDs = append(capIDs, c.ID)
	}

	type capCategory struct {
		CapID      int64 `db:"cap_id"`
		CategoryID int64 `db:"category_id"`
	}
	links := make([]capCategory, 0)
	err = r.db.SelectContext(ctx2, &links, `
		SELECT cap_id, category_id
		FROM cap_categories
		WHERE cap_id = ANY($1)
	`, pq.Array(capIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: list cap categories", ErrInternal)
	}

	byCap := make(map[int64][]int64, len(caps))
	for _, l := range links {
		byCap[l.CapID] = append(byCap[l.CapID], l.CategoryID)
	}
	for i := range caps {
		caps[i].CategoryIDs = byCap[caps[i].ID]
	}

	return caps, nil
}

func (r *Repository) ListSelections(ctx context.Context, userID uuid.UUID) ([]CapSelection, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	selections := make([]CapSelection, 0)
	err := r.db.SelectContext(ctx2, &selections, `
		SELECT user_id, cap_id, category_id
		FROM user_cap_selections
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list cap selections", ErrInternal)
	}

	return selections, nil
}

func (r *Repository) ListPreferences(ctx context.Context, userID uuid.UUID) ([]TravelPreference, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	preferences := make([]TravelPreference, 0)
	err := r.db.SelectContext(ctx2, &preferences, `
		SELECT user_id, category_slug, preference_type, brand_name, portal_issuer_id
		FROM travel_preferences
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list travel preferences", ErrInternal)
	}

	return preferences, nil
}
