package card

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/pkg/refcache"
)

const currenciesCacheKey = "refdata:reward_currencies"

type walletRepo interface {
	ListCardsByUser(ctx context.Context, userID uuid.UUID) ([]Card, error)
	ListRulesForCards(ctx context.Context, cardIDs []int64) ([]EarningRule, error)
	ListCurrencies(ctx context.Context) ([]RewardCurrency, error)
	ListCapsForCards(ctx context.Context, cardIDs []int64) ([]Cap, error)
	ListSelections(ctx context.Context, userID uuid.UUID) ([]CapSelection, error)
	ListPreferences(ctx context.Context, userID uuid.UUID) ([]TravelPreference, error)
}

// Service assembles per-user wallet snapshots. Currencies are shared
// reference data and go through the cache; everything else is small
// and user-scoped, fetched just in time.
type Service struct {
	repo  walletRepo
	cache *refcache.Cache
}

func NewService(repo walletRepo, cache *refcache.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// LoadWallet fetches the full card snapshot for one user.
func (s *Service) LoadWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	cards, err := s.repo.ListCardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cardIDs := make([]int64, 0, len(cards))
	for _, c := range cards {
		cardIDs = append(cardIDs, c.ID)
	}

	rules, err := s.repo.ListRulesForCards(ctx, cardIDs)
	if err != nil {
		return nil, err
	}

	caps, err := s.repo.ListCapsForCards(ctx, cardIDs)
	if err != nil {
		return nil, err
	}

	selections, err := s.repo.ListSelections(ctx, userID)
	if err != nil {
		return nil, err
	}

	preferences, err := s.repo.ListPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	currencies, err := s.Currencies(ctx)
	if err != nil {
		return nil, err
	}

	// A card pointing at a deleted currency is a data-integrity
	// problem: log and keep going, callers degrade to zero value.
	for _, c := range cards {
		if _, ok := currencies[c.CurrencyID]; !ok {
			log.Warn().Int64("card_id", c.ID).Int64("currency_id", c.CurrencyID).Msg("card references missing reward currency")
		}
	}

	return &Wallet{
		Cards:       cards,
		Rules:       rules,
		Currencies:  currencies,
		Caps:        caps,
		Selections:  selections,
		Preferences: preferences,
	}, nil
}

// Currencies returns the reward currency table keyed by id.
func (s *Service) Currencies(ctx context.Context) (map[int64]RewardCurrency, error) {
	var list []RewardCurrency
	err := s.cache.GetJSON(ctx, currenciesCacheKey, &list, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListCurrencies(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load reward currencies: %w", err)
	}

	currencies := make(map[int64]RewardCurrency, len(list))
	for _, c := range list {
		currencies[c.ID] = c
	}
	return currencies, nil
}

// InvalidateCurrencies drops the cached currency table after a
// point-value settings change.
func (s *Service) InvalidateCurrencies(ctx context.Context) {
	s.cache.Invalidate(ctx, currenciesCacheKey)
}
