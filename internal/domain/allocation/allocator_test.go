package allocation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
	"github.com/cardwise/cardwise-api/internal/domain/rates"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func amount(v int64) *int64        { return &v }

func testIndex(t *testing.T) *category.Index {
	t.Helper()
	idx, err := category.NewIndex([]category.Category{
		{ID: 1, Slug: "dining", Name: "Dining"},
		{ID: 2, Slug: "office-supply", Name: "Office Supply"},
		{ID: 3, Slug: "groceries", Name: "Groceries"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	return idx
}

func cashback() map[int64]card.RewardCurrency {
	return map[int64]card.RewardCurrency{
		1: {ID: 1, Kind: "cash_back", CentsPerUnit: dec("1")},
	}
}

func TestAllCategorySpendGoesToBonusCard(t *testing.T) {
	// Default 1x card with a 4x any-channel dining rule and no cap:
	// all $2,000 of dining lands there at 4x.
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{{ID: 10, Name: "Dine Card", DefaultEarnRate: dec("1"), CurrencyID: 1}},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 1, Rate: dec("4"), Method: card.BookingAny},
		},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 2000},
	})

	if len(report.Assignments) != 1 {
		t.Fatalf("expected one assignment, got %+v", report.Assignments)
	}
	a := report.Assignments[0]
	if a.Dollars != 2000 || !a.Rate.Equal(dec("4")) {
		t.Fatalf("bad assignment: %+v", a)
	}
	if !report.TotalValueCents.Equal(dec("8000")) {
		t.Fatalf("expected 8000 value cents, got %s", report.TotalValueCents)
	}
}

func TestSelectedCategoryCapSplitsAtCapacity(t *testing.T) {
	// $300/quarter selected-category cap with office-supply nominated:
	// $1,200 of annual capacity earns 5x, the rest falls back to the
	// same card's default rate.
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{{ID: 10, Name: "Select Card", DefaultEarnRate: dec("1"), CurrencyID: 1}},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 2, Rate: dec("5"), Method: card.BookingAny},
		},
		Caps: []card.Cap{
			{ID: 100, CardID: 10, Kind: card.CapSelectedCategory, AmountDollars: amount(300), Period: card.PeriodQuarter, CategoryIDs: []int64{2, 3}},
		},
		Selections: []card.CapSelection{{CapID: 100, CategoryID: 2}},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "office-supply", AnnualDollars: 2000},
	})

	if len(report.Assignments) != 2 {
		t.Fatalf("expected bonus + overflow assignments, got %+v", report.Assignments)
	}
	bonus, overflow := report.Assignments[0], report.Assignments[1]
	if bonus.Dollars != 1200 || !bonus.Rate.Equal(dec("5")) {
		t.Fatalf("bad bonus slice: %+v", bonus)
	}
	if overflow.Dollars != 800 || !overflow.Rate.Equal(dec("1")) {
		t.Fatalf("bad overflow slice: %+v", overflow)
	}
	// 1200*5 + 800*1
	if !report.TotalValueCents.Equal(dec("6800")) {
		t.Fatalf("expected 6800 value cents, got %s", report.TotalValueCents)
	}
}

func TestUnselectedCategoryEarnsDefaultOnly(t *testing.T) {
	// The user nominated office-supply; groceries sits on the same cap
	// and therefore earns the default rate, uncapped.
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{{ID: 10, Name: "Select Card", DefaultEarnRate: dec("1"), CurrencyID: 1}},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 3, Rate: dec("5"), Method: card.BookingAny},
		},
		Caps: []card.Cap{
			{ID: 100, CardID: 10, Kind: card.CapSelectedCategory, AmountDollars: amount(300), Period: card.PeriodQuarter, CategoryIDs: []int64{2, 3}},
		},
		Selections: []card.CapSelection{{CapID: 100, CategoryID: 2}},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "groceries", AnnualDollars: 1000},
	})

	if len(report.Assignments) != 1 {
		t.Fatalf("expected one assignment, got %+v", report.Assignments)
	}
	if !report.Assignments[0].Rate.Equal(dec("1")) || report.Assignments[0].Dollars != 1000 {
		t.Fatalf("expected default-rate assignment, got %+v", report.Assignments[0])
	}
}

func TestOverflowSpillsToNextBestCard(t *testing.T) {
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{
			{ID: 10, Name: "Bonus Card", DefaultEarnRate: dec("1"), CurrencyID: 1},
			{ID: 11, Name: "Flat Card", DefaultEarnRate: dec("2"), CurrencyID: 1},
		},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 1, Rate: dec("5"), Method: card.BookingAny},
		},
		Caps: []card.Cap{
			{ID: 100, CardID: 10, Kind: card.CapCategory, AmountDollars: amount(1000), Period: card.PeriodYear, CategoryIDs: []int64{1}},
		},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 1500},
	})

	if len(report.Assignments) != 2 {
		t.Fatalf("expected two assignments, got %+v", report.Assignments)
	}
	first, second := report.Assignments[0], report.Assignments[1]
	if first.CardID != 10 || first.Dollars != 1000 || !first.Rate.Equal(dec("5")) {
		t.Fatalf("bad capped slice: %+v", first)
	}
	// The flat 2x card beats the bonus card's 1x default for overflow.
	if second.CardID != 11 || second.Dollars != 500 || !second.Rate.Equal(dec("2")) {
		t.Fatalf("bad overflow slice: %+v", second)
	}
}

func TestOverallCapIsSharedAcrossCategories(t *testing.T) {
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{{ID: 10, Name: "Everything Card", DefaultEarnRate: dec("1"), CurrencyID: 1}},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 1, Rate: dec("3"), Method: card.BookingAny},
			{CardID: 10, CategoryID: 3, Rate: dec("3"), Method: card.BookingAny},
		},
		Caps: []card.Cap{
			{ID: 100, CardID: 10, Kind: card.CapOverall, AmountDollars: amount(1000), Period: card.PeriodYear},
		},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 800},
		{CategorySlug: "groceries", AnnualDollars: 800},
	})

	var bonusDollars int64
	for _, a := range report.Assignments {
		if a.Rate.Equal(dec("3")) {
			bonusDollars += a.Dollars
		}
	}
	if bonusDollars != 1000 {
		t.Fatalf("overall cap leaked: %d bonus dollars, want 1000", bonusDollars)
	}
}

func TestStackedCapsBoundByTightestBucket(t *testing.T) {
	// A $1,000/yr dining cap stacked with a $500/yr overall cap: bonus
	// spend stops at the overall cap, the rest earns the default rate.
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{{ID: 10, Name: "Stacked Card", DefaultEarnRate: dec("1"), CurrencyID: 1}},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 1, Rate: dec("5"), Method: card.BookingAny},
		},
		Caps: []card.Cap{
			{ID: 100, CardID: 10, Kind: card.CapCategory, AmountDollars: amount(1000), Period: card.PeriodYear, CategoryIDs: []int64{1}},
			{ID: 101, CardID: 10, Kind: card.CapOverall, AmountDollars: amount(500), Period: card.PeriodYear},
		},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 2000},
	})

	var bonusDollars, totalDollars int64
	for _, a := range report.Assignments {
		totalDollars += a.Dollars
		if a.Rate.Equal(dec("5")) {
			bonusDollars += a.Dollars
		}
	}
	if bonusDollars != 500 {
		t.Fatalf("expected 500 bonus dollars under the overall cap, got %d", bonusDollars)
	}
	if totalDollars != 2000 {
		t.Fatalf("assigned %d dollars for 2000 of spend", totalDollars)
	}
	// 500*5 + 1500*1
	if !report.TotalValueCents.Equal(dec("4000")) {
		t.Fatalf("expected 4000 value cents, got %s", report.TotalValueCents)
	}
}

func TestCurrencyValueDrivesRanking(t *testing.T) {
	// 3x at 1.5¢/point beats 4x at 1.0¢ cash back.
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{
			{ID: 10, Name: "Cash Card", DefaultEarnRate: dec("1"), CurrencyID: 1},
			{ID: 11, Name: "Points Card", DefaultEarnRate: dec("1"), CurrencyID: 2},
		},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 1, Rate: dec("4"), Method: card.BookingAny},
			{CardID: 11, CategoryID: 1, Rate: dec("3"), Method: card.BookingAny},
		},
		Currencies: map[int64]card.RewardCurrency{
			1: {ID: 1, Kind: "cash_back", CentsPerUnit: dec("1")},
			2: {ID: 2, Kind: "points", CentsPerUnit: dec("1.5")},
		},
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 100},
	})

	if len(report.Assignments) != 1 || report.Assignments[0].CardID != 11 {
		t.Fatalf("expected the points card to win, got %+v", report.Assignments)
	}
	if !report.TotalValueCents.Equal(dec("450")) {
		t.Fatalf("expected 450 value cents, got %s", report.TotalValueCents)
	}
}

func TestEmptyWalletYieldsZero(t *testing.T) {
	idx := testIndex(t)
	report := NewAllocator(rates.NewResolver()).Allocate(&card.Wallet{Currencies: cashback()}, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 5000},
	})
	if !report.TotalValueCents.IsZero() || len(report.Assignments) != 0 {
		t.Fatalf("empty wallet must yield zero, got %+v", report)
	}
}

func TestAssignedDollarsNeverExceedSpend(t *testing.T) {
	idx := testIndex(t)
	wallet := &card.Wallet{
		Cards: []card.Card{
			{ID: 10, Name: "A", DefaultEarnRate: dec("1"), CurrencyID: 1},
			{ID: 11, Name: "B", DefaultEarnRate: dec("1.5"), CurrencyID: 1},
		},
		Rules: []card.EarningRule{
			{CardID: 10, CategoryID: 1, Rate: dec("4"), Method: card.BookingAny},
		},
		Caps: []card.Cap{
			{ID: 100, CardID: 10, Kind: card.CapCategory, AmountDollars: amount(200), Period: card.PeriodMonth, CategoryIDs: []int64{1}},
		},
		Currencies: cashback(),
	}

	report := NewAllocator(rates.NewResolver()).Allocate(wallet, idx, []SpendItem{
		{CategorySlug: "dining", AnnualDollars: 3000},
	})

	var total int64
	for _, a := range report.Assignments {
		total += a.Dollars
	}
	if total != 3000 {
		t.Fatalf("assigned %d dollars for 3000 of spend", total)
	}
}
