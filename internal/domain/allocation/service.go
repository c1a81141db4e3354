package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
)

type walletLoader interface {
	LoadWallet(ctx context.Context, userID uuid.UUID) (*card.Wallet, error)
}

type categoryIndexer interface {
	LoadIndex(ctx context.Context) (*category.Index, error)
}

// Service runs the allocator over a just-in-time snapshot of one
// user's wallet and the category forest.
type Service struct {
	cards      walletLoader
	categories categoryIndexer
	allocator  *Allocator
}

func NewService(cards walletLoader, categories categoryIndexer, allocator *Allocator) *Service {
	return &Service{cards: cards, categories: categories, allocator: allocator}
}

// BuildReport assembles the snapshot and computes the allocation.
func (s *Service) BuildReport(ctx context.Context, userID uuid.UUID, spends []SpendItem) (*Report, error) {
	wallet, err := s.cards.LoadWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	index, err := s.categories.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}

	report := s.allocator.Allocate(wallet, index, spends)

	log.Info().
		Str("user_id", userID.String()).
		Int("categories", len(spends)).
		Int("assignments", len(report.Assignments)).
		Str("total_value_cents", report.TotalValueCents.String()).
		Msg("allocation report built")

	return &report, nil
}
