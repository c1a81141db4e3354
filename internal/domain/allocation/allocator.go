package allocation

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
	"github.com/cardwise/cardwise-api/internal/domain/rates"
)

// SpendItem is the user's stated annual spend in one category.
type SpendItem struct {
	CategorySlug  string `json:"category"`
	AnnualDollars int64  `json:"annual_dollars"`
}

// Assignment is one slice of the allocation: these dollars of this
// category go on this card at this rate.
type Assignment struct {
	CategorySlug string          `json:"category"`
	CardID       int64           `json:"card_id"`
	CardName     string          `json:"card_name"`
	Dollars      int64           `json:"dollars"`
	Rate         decimal.Decimal `json:"rate"`
	ValueCents   decimal.Decimal `json:"value_cents"`
}

// Report is the allocator's output: the value-maximizing assignment of
// annual spend to the wallet, with the per-slice breakdown for display.
type Report struct {
	TotalValueCents decimal.Decimal `json:"total_value_cents"`
	Assignments     []Assignment    `json:"assignments"`
}

// Allocator greedily assigns spend to cards by value per dollar,
// honoring cap capacity and spilling overflow to the next-best option.
type Allocator struct {
	resolver *rates.Resolver
}

func NewAllocator(resolver *rates.Resolver) *Allocator {
	return &Allocator{resolver: resolver}
}

// candidate is one (card, rate) option for a category. capIDs point at
// shared capacity buckets when the rate is bonus spend under caps; a
// card can stack a category cap with an overall cap, and the bonus is
// bounded by whichever has less left.
type candidate struct {
	card          card.Card
	rate          decimal.Decimal
	valuePerCents decimal.Decimal // cents earned per dollar of spend
	capIDs        []int64
}

// Allocate computes the report for one wallet snapshot. Categories
// with no eligible cards contribute zero value; they never fail the
// whole computation.
func (a *Allocator) Allocate(wallet *card.Wallet, index *category.Index, spends []SpendItem) Report {
	report := Report{TotalValueCents: decimal.Zero, Assignments: make([]Assignment, 0, len(spends))}

	// Capacity buckets are shared across categories: an overall cap
	// drained by groceries has less left for gas.
	capRemaining := make(map[int64]int64, len(wallet.Caps))
	for _, c := range wallet.Caps {
		if dollars, limited := AnnualCapacityDollars(c); limited {
			capRemaining[c.ID] = dollars
		}
	}

	for _, spend := range spends {
		if spend.AnnualDollars <= 0 {
			continue
		}
		cat, ok := index.BySlug(spend.CategorySlug)
		if !ok {
			log.Warn().Str("category", spend.CategorySlug).Msg("allocation spend references unknown category")
			continue
		}

		candidates := a.candidatesFor(wallet, index, cat)
		remaining := spend.AnnualDollars

		for _, cand := range candidates {
			if remaining <= 0 {
				break
			}

			take := remaining
			if len(cand.capIDs) > 0 {
				capacity := minCapacity(capRemaining, cand.capIDs)
				if capacity <= 0 {
					continue
				}
				if take > capacity {
					take = capacity
				}
				// Every covering bucket drains: spend under a category
				// cap also counts against the card's overall cap.
				for _, id := range cand.capIDs {
					capRemaining[id] -= take
				}
			}
			remaining -= take

			value := decimal.NewFromInt(take).Mul(cand.valuePerCents)
			report.TotalValueCents = report.TotalValueCents.Add(value)
			report.Assignments = append(report.Assignments, Assignment{
				CategorySlug: cat.Slug,
				CardID:       cand.card.ID,
				CardName:     cand.card.Name,
				Dollars:      take,
				Rate:         cand.rate,
				ValueCents:   value,
			})
		}
	}

	return report
}

// candidatesFor ranks the wallet's options for one category by value
// per dollar. A capped card contributes two options: bonus spend up to
// the cap, and unlimited spend at its default rate.
func (a *Allocator) candidatesFor(wallet *card.Wallet, index *category.Index, cat category.Category) []candidate {
	candidates := make([]candidate, 0, len(wallet.Cards)*2)

	for _, c := range wallet.Cards {
		currency, ok := wallet.Currencies[c.CurrencyID]
		if !ok {
			log.Warn().Int64("card_id", c.ID).Int64("currency_id", c.CurrencyID).Msg("skipping card with missing reward currency")
			continue
		}

		rate := a.resolver.EffectiveRate(rates.Query{Card: c, Category: cat, Wallet: wallet, Index: index})
		capIDs, defaultOnly := restrictingCaps(wallet, c, cat)

		switch {
		case defaultOnly:
			// Covered by a selected-category cap the user pointed at a
			// different category: only the default rate applies here.
			candidates = append(candidates, candidate{
				card:          c,
				rate:          c.DefaultEarnRate,
				valuePerCents: c.DefaultEarnRate.Mul(currency.CentsPerUnit),
			})

		case len(capIDs) == 0 || !rate.GreaterThan(c.DefaultEarnRate):
			// Uncapped, or the caps only limit bonus earn and there is
			// no bonus to cap at the default rate.
			candidates = append(candidates, candidate{
				card:          c,
				rate:          rate,
				valuePerCents: rate.Mul(currency.CentsPerUnit),
			})

		default:
			candidates = append(candidates, candidate{
				card:          c,
				rate:          rate,
				valuePerCents: rate.Mul(currency.CentsPerUnit),
				capIDs:        capIDs,
			})
			// Overflow lands back on the same card at its default rate
			// when nothing better remains.
			candidates = append(candidates, candidate{
				card:          c,
				rate:          c.DefaultEarnRate,
				valuePerCents: c.DefaultEarnRate.Mul(currency.CentsPerUnit),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].valuePerCents.GreaterThan(candidates[j].valuePerCents)
	})

	return candidates
}

// restrictingCaps collects every limited cap governing bonus spend for
// (card, category): a category cap and an overall cap can both cover
// the same spend. defaultOnly is true when a selected-category cap
// covers the category but the user nominated a different one, so the
// category only earns the default rate.
func restrictingCaps(wallet *card.Wallet, c card.Card, cat category.Category) (capIDs []int64, defaultOnly bool) {
	for _, cp := range wallet.Caps {
		if cp.CardID != c.ID || !cp.CoversCategory(cat.ID) {
			continue
		}

		if cp.Kind == card.CapSelectedCategory {
			selected, chosen := wallet.SelectedCategory(cp.ID)
			if !chosen || selected != cat.ID {
				return nil, true
			}
		}

		// Null cap amount: unlimited bonus spend, no bucket needed.
		if _, limited := AnnualCapacityDollars(cp); limited {
			capIDs = append(capIDs, cp.ID)
		}
	}
	return capIDs, false
}

// minCapacity is the tightest remaining capacity across the buckets.
func minCapacity(capRemaining map[int64]int64, capIDs []int64) int64 {
	min := capRemaining[capIDs[0]]
	for _, id := range capIDs[1:] {
		if capRemaining[id] < min {
			min = capRemaining[id]
		}
	}
	return min
}
