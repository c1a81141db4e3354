package reconcile

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
	"github.com/cardwise/cardwise-api/internal/pkg/refcache"
)

const (
	creditsCacheKey    = "refdata:credits"
	exclusionsCacheKey = "refdata:exclusion_patterns"
)

// Store is the persistence surface the reconciliation engine needs.
type Store interface {
	TransactionsForUser(ctx context.Context, userID uuid.UUID) ([]Transaction, error)
	ListCredits(ctx context.Context) ([]Credit, error)
	ListExclusionPatterns(ctx context.Context) ([]ExclusionPattern, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	Apply(ctx context.Context, userID uuid.UUID, m Mutations) error
}

// Service runs reconciliation batches: it snapshots the credit catalog
// and one user's ledger, lets the matcher decide, then persists the
// mutations.
type Service struct {
	store Store
	cache *refcache.Cache
	now   func() dates.Date
}

func NewService(store Store, cache *refcache.Cache) *Service {
	return &Service{store: store, cache: cache, now: dates.Today}
}

func (s *Service) credits(ctx context.Context) ([]Credit, error) {
	var credits []Credit
	err := s.cache.GetJSON(ctx, creditsCacheKey, &credits, func(ctx context.Context) (interface{}, error) {
		return s.store.ListCredits(ctx)
	})
	if err != nil {
		return nil, err
	}
	return credits, nil
}

func (s *Service) exclusions(ctx context.Context) ([]ExclusionPattern, error) {
	var patterns []ExclusionPattern
	err := s.cache.GetJSON(ctx, exclusionsCacheKey, &patterns, func(ctx context.Context) (interface{}, error) {
		return s.store.ListExclusionPatterns(ctx)
	})
	if err != nil {
		return nil, err
	}
	return patterns, nil
}

// Invalidate drops the cached catalog. Called by the admin CRUD
// collaborator after credit or pattern writes.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, creditsCacheKey, exclusionsCacheKey)
}

// Rematch reconciles one user's full ledger and persists the outcome.
// Safe to call repeatedly; a rerun over settled state changes nothing.
func (s *Service) Rematch(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	credits, err := s.credits(ctx)
	if err != nil {
		return nil, err
	}
	patterns, err := s.exclusions(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.TransactionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := NewMatcher(credits, patterns, s.now()).Run(txs)

	if err := s.store.Apply(ctx, userID, res.Mutations); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("transactions", len(txs)).
		Int("matched", res.Summary.Matched).
		Int("clawbacks", res.Summary.Clawbacks).
		Int("errors", len(res.Summary.Errors)).
		Msg("reconciliation run complete")

	return &res.Summary, nil
}

// RematchAll runs Rematch for every user with transactions, fanned out
// over a bounded worker pool. Per-user failures are logged and counted;
// the batch keeps going.
func (s *Service) RematchAll(ctx context.Context, workers int) (Summary, error) {
	if workers < 1 {
		workers = 1
	}

	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu    sync.Mutex
		total Summary
		wg    sync.WaitGroup
	)
	jobs := make(chan uuid.UUID)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				summary, err := s.Rematch(ctx, userID)
				mu.Lock()
				if err != nil {
					log.Error().Err(err).Str("user_id", userID.String()).Msg("rematch failed")
					total.Errors = append(total.Errors, "user "+userID.String()+": "+err.Error())
				} else {
					total.Matched += summary.Matched
					total.Clawbacks += summary.Clawbacks
					total.Errors = append(total.Errors, summary.Errors...)
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range userIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	log.Info().
		Int("users", len(userIDs)).
		Int("matched", total.Matched).
		Int("clawbacks", total.Clawbacks).
		Int("errors", len(total.Errors)).
		Msg("batch rematch complete")

	return total, nil
}
