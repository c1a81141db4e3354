package rates

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
)

// Query is one effective-rate resolution: a card, a category, and the
// user's wallet snapshot (rules and travel preferences).
type Query struct {
	Card     card.Card
	Category category.Category
	Wallet   *card.Wallet
	Index    *category.Index
}

// strategy is one step in the resolution chain. ok is false when the
// step has no answer and the next step should be tried.
type strategy interface {
	resolve(q Query, pref *card.TravelPreference) (decimal.Decimal, bool)
}

// Resolver computes the effective earning rate for a (card, category)
// pair. Resolution is an ordered chain: a rule on the category itself,
// then a rule on its parent (one level only), then the card's default
// rate.
type Resolver struct {
	chain []strategy
}

func NewResolver() *Resolver {
	return &Resolver{chain: []strategy{
		categoryRuleStep{},
		parentRuleStep{},
		defaultRateStep{},
	}}
}

// EffectiveRate resolves the rate for q. It always produces a value;
// missing rules and unconfigured preferences degrade to the default
// rate, never to an error.
func (r *Resolver) EffectiveRate(q Query) decimal.Decimal {
	pref := preferenceFor(q)
	for _, step := range r.chain {
		if rate, ok := step.resolve(q, pref); ok {
			return rate
		}
	}
	return q.Card.DefaultEarnRate
}

// preferenceFor returns the user's travel preference for the queried
// category, or nil. Only travel subcategories carry a preference;
// everything else books direct by definition.
func preferenceFor(q Query) *card.TravelPreference {
	if !q.Category.IsTravelSubcategory() {
		return nil
	}
	pref, ok := q.Wallet.PreferenceFor(q.Category.Slug)
	if !ok {
		return nil
	}
	return &pref
}

type categoryRuleStep struct{}

func (categoryRuleStep) resolve(q Query, pref *card.TravelPreference) (decimal.Decimal, bool) {
	return bestRate(q, q.Category.ID, pref)
}

type parentRuleStep struct{}

func (parentRuleStep) resolve(q Query, pref *card.TravelPreference) (decimal.Decimal, bool) {
	if q.Index == nil {
		return decimal.Zero, false
	}
	parent, ok := q.Index.Parent(q.Category)
	if !ok {
		return decimal.Zero, false
	}
	// One level only: the parent's own parent is never consulted.
	return bestRate(q, parent.ID, pref)
}

type defaultRateStep struct{}

func (defaultRateStep) resolve(q Query, _ *card.TravelPreference) (decimal.Decimal, bool) {
	return q.Card.DefaultEarnRate, true
}

// bestRate filters the card's rules for categoryID by booking-channel
// compatibility and returns the maximum surviving rate.
func bestRate(q Query, categoryID int64, pref *card.TravelPreference) (decimal.Decimal, bool) {
	best := decimal.Zero
	found := false

	for _, rule := range q.Wallet.RulesForCard(q.Card.ID) {
		if rule.CategoryID != categoryID {
			continue
		}
		if !channelEligible(rule, q.Card, pref) {
			continue
		}
		if !found || rule.Rate.GreaterThan(best) {
			best = rule.Rate
			found = true
		}
	}

	return best, found
}

// channelEligible applies the booking-channel rules. Without a
// preference (or with a direct one) only any-channel rules count:
// preferential brand/portal rates stay locked until the user opts in.
func channelEligible(rule card.EarningRule, c card.Card, pref *card.TravelPreference) bool {
	if rule.Method == card.BookingAny {
		return true
	}
	if pref == nil || pref.Type == card.PreferenceDirect {
		return false
	}

	switch pref.Type {
	case card.PreferenceBrand:
		return rule.Method == card.BookingBrand &&
			rule.BrandName != nil && pref.BrandName != nil &&
			strings.EqualFold(*rule.BrandName, *pref.BrandName)
	case card.PreferencePortal:
		return rule.Method == card.BookingPortal &&
			pref.PortalIssuerID != nil && c.IssuerID == *pref.PortalIssuerID
	}

	return false
}
