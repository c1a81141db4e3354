package card

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingMethod is the channel an earning rule applies to.
type BookingMethod string

const (
	BookingAny    BookingMethod = "any"
	BookingPortal BookingMethod = "portal"
	BookingBrand  BookingMethod = "brand"
)

// PreferenceType is how the user prefers to book a travel subcategory.
type PreferenceType string

const (
	PreferenceDirect PreferenceType = "direct"
	PreferenceBrand  PreferenceType = "brand"
	PreferencePortal PreferenceType = "portal"
)

// CapKind distinguishes how a cap restricts bonus spend.
type CapKind string

const (
	// CapCategory restricts bonus spend in the cap's listed categories.
	CapCategory CapKind = "category"
	// CapSelectedCategory grants the bonus only in the one category the
	// cardholder has nominated.
	CapSelectedCategory CapKind = "selected_category"
	// CapOverall restricts total bonus spend on the card.
	CapOverall CapKind = "overall"
)

// CapPeriod is a cap's reset period.
type CapPeriod string

const (
	PeriodMonth   CapPeriod = "month"
	PeriodQuarter CapPeriod = "quarter"
	PeriodYear    CapPeriod = "year"
)

// Card is a credit card in a user's wallet.
type Card struct {
	ID              int64           `db:"id" json:"id"`
	IssuerID        int64           `db:"issuer_id" json:"issuer_id"`
	Name            string          `db:"name" json:"name"`
	DefaultEarnRate decimal.Decimal `db:"default_earn_rate" json:"default_earn_rate"`
	CurrencyID      int64           `db:"currency_id" json:"currency_id"`
}

// EarningRule is a category-specific earning rate on a card. At most
// one rule per (card, category) should use the any channel.
type EarningRule struct {
	ID         int64           `db:"id" json:"id"`
	CardID     int64           `db:"card_id" json:"card_id"`
	CategoryID int64           `db:"category_id" json:"category_id"`
	Rate       decimal.Decimal `db:"rate" json:"rate"`
	Method     BookingMethod   `db:"booking_method" json:"booking_method"`
	BrandName  *string         `db:"brand_name" json:"brand_name,omitempty"`
}

// RewardCurrency carries the resolved cents-per-unit value. Template
// and user overrides are applied upstream; the engines only ever see
// the final number.
type RewardCurrency struct {
	ID           int64           `db:"id" json:"id"`
	Kind         string          `db:"kind" json:"kind"`
	CentsPerUnit decimal.Decimal `db:"cents_per_unit" json:"cents_per_unit"`
}

// TravelPreference is a user's booking preference for one travel
// subcategory slug.
type TravelPreference struct {
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	CategorySlug   string         `db:"category_slug" json:"category_slug"`
	Type           PreferenceType `db:"preference_type" json:"preference_type"`
	BrandName      *string        `db:"brand_name" json:"brand_name,omitempty"`
	PortalIssuerID *int64         `db:"portal_issuer_id" json:"portal_issuer_id,omitempty"`
}

// Cap limits the dollars of spend that earn a bonus rate. A nil
// AmountDollars means unlimited.
type Cap struct {
	ID            int64     `db:"id" json:"id"`
	CardID        int64     `db:"card_id" json:"card_id"`
	Kind          CapKind   `db:"kind" json:"kind"`
	AmountDollars *int64    `db:"amount_dollars" json:"amount_dollars,omitempty"`
	Period        CapPeriod `db:"period" json:"period"`
	CategoryIDs   []int64   `db:"-" json:"category_ids"`
}

// CoversCategory reports whether the cap restricts the given category.
// Overall caps cover everything.
func (c Cap) CoversCategory(categoryID int64) bool {
	if c.Kind == CapOverall {
		return true
	}
	for _, id := range c.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// CapSelection records which category the cardholder nominated for a
// selected-category cap.
type CapSelection struct {
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	CapID      int64     `db:"cap_id" json:"cap_id"`
	CategoryID int64     `db:"category_id" json:"category_id"`
}

// Wallet is the full reference snapshot for one user's cards, fetched
// once per computation.
type Wallet struct {
	Cards       []Card                   `json:"cards"`
	Rules       []EarningRule            `json:"rules"`
	Currencies  map[int64]RewardCurrency `json:"currencies"`
	Caps        []Cap                    `json:"caps"`
	Selections  []CapSelection           `json:"selections"`
	Preferences []TravelPreference       `json:"preferences"`
}

// RulesForCard returns the earning rules on one card.
func (w *Wallet) RulesForCard(cardID int64) []EarningRule {
	rules := make([]EarningRule, 0, 4)
	for _, r := range w.Rules {
		if r.CardID == cardID {
			rules = append(rules, r)
		}
	}
	return rules
}

// SelectedCategory returns the nominated category for a
// selected-category cap, if the user has made a choice.
func (w *Wallet) SelectedCategory(capID int64) (int64, bool) {
	for _, s := range w.Selections {
		if s.CapID == capID {
			return s.CategoryID, true
		}
	}
	return 0, false
}

// PreferenceFor returns the user's travel preference for a slug.
func (w *Wallet) PreferenceFor(slug string) (TravelPreference, bool) {
	for _, p := range w.Preferences {
		if p.CategorySlug == slug {
			return p, true
		}
	}
	return TravelPreference{}, false
}
