package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

// Clawback tolerances: the refund must exactly offset the charge,
// post within this many days of it, and clear the merchant-similarity
// floor shared with hint matching.
const (
	clawbackWindowDays = 90
	merchantSimilarity = 0.6
)

// Matcher reconciles one user's transaction batch against their credit
// catalog. It is a pure computation over the snapshot; persistence of
// the resulting mutations is the caller's job. Running it twice over
// the same (already persisted) state is a no-op.
type Matcher struct {
	credits  map[int64]Credit
	ordered  []Credit
	patterns []ExclusionPattern
	asOf     dates.Date
}

func NewMatcher(credits []Credit, patterns []ExclusionPattern, asOf dates.Date) *Matcher {
	byID := make(map[int64]Credit, len(credits))
	for _, c := range credits {
		byID[c.ID] = c
	}

	// Use-it-or-lose-it ordering: earliest period deadline first.
	ordered := make([]Credit, len(credits))
	copy(ordered, credits)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].PeriodEnd(asOf), ordered[j].PeriodEnd(asOf)
		if cmp := a.Compare(b); cmp != 0 {
			return cmp < 0
		}
		return ordered[i].ID < ordered[j].ID
	})

	return &Matcher{credits: byID, ordered: ordered, patterns: patterns, asOf: asOf}
}

// Run executes the three passes: consumption accounting for existing
// matches, clawback detection, then matching of new transactions.
func (m *Matcher) Run(txs []Transaction) Result {
	res := Result{Mutations: Mutations{Match: make(map[uuid.UUID]int64)}}

	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if cmp := sorted[i].Date.Compare(sorted[j].Date); cmp != 0 {
			return cmp < 0
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	consumedCents := make(map[int64]int64)
	consumedQty := make(map[int64]int)

	// Pass 1: account for matches already on the books this period.
	for _, tx := range sorted {
		if tx.MatchedCreditID == nil || tx.Dismissed {
			continue
		}
		credit, ok := m.credits[*tx.MatchedCreditID]
		if !ok {
			res.Summary.Errors = append(res.Summary.Errors,
				fmt.Sprintf("transaction %s references unknown credit %d", tx.ID, *tx.MatchedCreditID))
			continue
		}
		if m.inCurrentPeriod(credit, tx.Date) {
			consumedCents[credit.ID] += tx.AmountCents
			consumedQty[credit.ID]++
		}
	}

	// Pass 2: clawbacks. A previously matched charge with an exact
	// offsetting refund from the same merchant loses its match; both
	// rows are dismissed so reruns can't rematch or recount them.
	usedRefund := make(map[uuid.UUID]bool)
	clawedBack := make(map[uuid.UUID]bool)
	for _, tx := range sorted {
		if tx.MatchedCreditID == nil || tx.Dismissed || tx.AmountCents <= 0 {
			continue
		}
		credit, ok := m.credits[*tx.MatchedCreditID]
		if !ok {
			continue // already reported in pass 1
		}

		for _, refund := range sorted {
			if !isRefundOf(tx, refund) || usedRefund[refund.ID] {
				continue
			}

			res.Summary.Clawbacks++
			res.Mutations.Unmatch = append(res.Mutations.Unmatch, tx.ID)
			res.Mutations.Dismiss = append(res.Mutations.Dismiss, tx.ID, refund.ID)
			usedRefund[refund.ID] = true
			clawedBack[tx.ID] = true

			if m.inCurrentPeriod(credit, tx.Date) {
				consumedCents[credit.ID] -= tx.AmountCents
				consumedQty[credit.ID]--
			}
			break
		}
	}

	// Pass 3: match the rest.
	dismissedNow := make(map[uuid.UUID]bool, len(res.Mutations.Dismiss))
	for _, id := range res.Mutations.Dismiss {
		dismissedNow[id] = true
	}

	for _, tx := range sorted {
		if tx.Dismissed || tx.Pending || tx.MatchedCreditID != nil {
			continue
		}
		if dismissedNow[tx.ID] || usedRefund[tx.ID] || clawedBack[tx.ID] {
			continue
		}

		if m.excluded(tx.Name) {
			res.Mutations.Dismiss = append(res.Mutations.Dismiss, tx.ID)
			dismissedNow[tx.ID] = true
			continue
		}

		// Only posted charges consume credits; refunds and payments
		// are handled by the clawback pass.
		if tx.AmountCents <= 0 {
			continue
		}

		for _, credit := range m.ordered {
			if tx.CardID != nil && credit.CardID != *tx.CardID {
				continue
			}
			if !hintMatches(credit, tx.Description()) {
				continue
			}

			ok, reason := hasCapacity(credit, consumedCents[credit.ID], consumedQty[credit.ID], tx.AmountCents)
			if reason != "" {
				res.Summary.Errors = append(res.Summary.Errors, reason)
				continue
			}
			if !ok {
				continue
			}

			res.Mutations.Match[tx.ID] = credit.ID
			res.Summary.Matched++
			consumedCents[credit.ID] += tx.AmountCents
			consumedQty[credit.ID]++
			break
		}
	}

	return res
}

func (m *Matcher) inCurrentPeriod(c Credit, d dates.Date) bool {
	return !d.Before(c.PeriodStart(m.asOf)) && !d.After(c.PeriodEnd(m.asOf))
}

func (m *Matcher) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range m.patterns {
		if p.Pattern != "" && strings.Contains(lower, strings.ToLower(p.Pattern)) {
			return true
		}
	}
	return false
}

// isRefundOf checks the clawback tolerances between a matched charge
// and a candidate reversal.
func isRefundOf(charge, refund Transaction) bool {
	if refund.AmountCents != -charge.AmountCents {
		return false
	}
	if refund.Pending || refund.Dismissed || refund.MatchedCreditID != nil {
		return false
	}
	if charge.CardID != nil && refund.CardID != nil && *charge.CardID != *refund.CardID {
		return false
	}
	if refund.Date.Before(charge.Date) {
		return false
	}
	if dates.DaysBetween(charge.Date, refund.Date) > clawbackWindowDays {
		return false
	}
	return similarMerchant(charge.Description(), refund.Description())
}

// hasCapacity checks the credit's remaining quantity or value for the
// current period. reason is non-empty for malformed catalog rows.
func hasCapacity(c Credit, usedCents int64, usedQty int, amountCents int64) (bool, string) {
	switch {
	case c.Quantity != nil:
		return usedQty < *c.Quantity, ""
	case c.ValueCents != nil:
		return usedCents+amountCents <= *c.ValueCents, ""
	default:
		return false, fmt.Sprintf("credit %d has neither value nor quantity configured", c.ID)
	}
}

// hintMatches applies the credit's merchant patterns and brand name to
// the transaction description.
func hintMatches(c Credit, desc string) bool {
	lower := strings.ToLower(desc)
	for _, p := range c.MerchantPatterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	if c.BrandName == "" {
		return false
	}
	if strings.Contains(lower, strings.ToLower(c.BrandName)) {
		return true
	}
	return similarity(desc, c.BrandName) >= merchantSimilarity
}

// similarMerchant compares two raw descriptions the way duplicate
// detection does: containment either way, or normalized edit distance.
func similarMerchant(a, b string) bool {
	ua, ub := strings.ToUpper(a), strings.ToUpper(b)
	if ua == "" || ub == "" {
		return false
	}
	if strings.Contains(ua, ub) || strings.Contains(ub, ua) {
		return true
	}
	return similarity(a, b) >= merchantSimilarity
}

// similarity is 1 minus the normalized levenshtein distance over the
// uppercased strings.
func similarity(a, b string) float64 {
	ua, ub := strings.ToUpper(a), strings.ToUpper(b)
	longest := len(ua)
	if len(ub) > longest {
		longest = len(ub)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(ua, ub)
	return 1 - float64(dist)/float64(longest)
}
