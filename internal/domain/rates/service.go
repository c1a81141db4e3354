package rates

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
)

type walletLoader interface {
	LoadWallet(ctx context.Context, userID uuid.UUID) (*card.Wallet, error)
}

type categoryIndexer interface {
	LoadIndex(ctx context.Context) (*category.Index, error)
}

// CardRate is one resolved (card, category) rate.
type CardRate struct {
	CardID       int64           `json:"card_id"`
	CardName     string          `json:"card_name"`
	CategorySlug string          `json:"category_slug"`
	Rate         decimal.Decimal `json:"rate"`
}

// Service resolves effective rates against a just-in-time snapshot of
// the user's wallet and the category forest.
type Service struct {
	cards      walletLoader
	categories categoryIndexer
	resolver   *Resolver
}

func NewService(cards walletLoader, categories categoryIndexer, resolver *Resolver) *Service {
	return &Service{cards: cards, categories: categories, resolver: resolver}
}

// CardRate resolves the effective rate for one of the user's cards in
// the given category.
func (s *Service) CardRate(ctx context.Context, userID uuid.UUID, cardID int64, slug string) (*CardRate, error) {
	index, err := s.categories.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	cat, ok := index.BySlug(slug)
	if !ok {
		return nil, category.ErrNotFound
	}

	wallet, err := s.cards.LoadWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var target *card.Card
	for i := range wallet.Cards {
		if wallet.Cards[i].ID == cardID {
			target = &wallet.Cards[i]
			break
		}
	}
	if target == nil {
		return nil, card.ErrCardNotFound
	}

	rate := s.resolver.EffectiveRate(Query{
		Card:     *target,
		Category: cat,
		Wallet:   wallet,
		Index:    index,
	})

	return &CardRate{
		CardID:       target.ID,
		CardName:     target.Name,
		CategorySlug: cat.Slug,
		Rate:         rate,
	}, nil
}
