package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cardwise/cardwise-api/internal/pkg/dates"
)

const queryTimeout = 3 * time.Second

// Repository reads the credit catalog and transaction ledger and
// persists reconciliation outcomes. The bank-sync job owns transaction
// rows; this layer only ever touches dismissed and matched_credit_id.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type transactionRow struct {
	Transaction
	RawDate string `db:"date"`
}

func (r *Repository) TransactionsForUser(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows := make([]transactionRow, 0)
	err := r.db.SelectContext(ctx2, &rows, `
		SELECT id, user_id, linked_account_id, card_id, name, original_description,
		       to_char(date, 'YYYY-MM-DD') AS date,
		       amount_cents, pending, dismissed, matched_credit_id, player_number
		FROM transactions
		WHERE user_id = $1
		ORDER BY date, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	txs := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		d, err := dates.Parse(row.RawDate)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %s has malformed date %q", ErrInternal, row.ID, row.RawDate)
		}
		tx := row.Transaction
		tx.Date = d
		txs = append(txs, tx)
	}

	return txs, nil
}

func (r *Repository) ListCredits(ctx context.Context) ([]Credit, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	credits := make([]Credit, 0)
	err := r.db.SelectContext(ctx2, &credits, `
		SELECT id, card_id, name, cycle, value_cents, quantity, brand_name
		FROM credits
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list credits", ErrInternal)
	}
	if len(credits) == 0 {
		return credits, nil
	}

	creditIDs := make([]int64, 0, len(credits))
	for _, c := range credits {
		creditIDs = append(creditIDs, c.ID)
	}

	type patternRow struct {
		CreditID int64  `db:"credit_id"`
		Pattern  string `db:"pattern"`
	}
	patterns := make([]patternRow, 0)
	err = r.db.SelectContext(ctx2, &patterns, `
		SELECT credit_id, pattern
		FROM credit_merchant_patterns
		WHERE credit_id = ANY($1)
		ORDER BY credit_id, pattern
	`, pq.Array(creditIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: list merchant patterns", ErrInternal)
	}

	byCredit := make(map[int64][]string, len(credits))
	for _, p := range patterns {
		byCredit[p.CreditID] = append(byCredit[p.CreditID], p.Pattern)
	}
	for i := range credits {
		credits[i].MerchantPatterns = byCredit[credits[i].ID]
	}

	return credits, nil
}

func (r *Repository) ListExclusionPatterns(ctx context.Context) ([]ExclusionPattern, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	patterns := make([]ExclusionPattern, 0)
	err := r.db.SelectContext(ctx2, &patterns, `
		SELECT id, pattern
		FROM exclusion_patterns
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list exclusion patterns", ErrInternal)
	}

	return patterns, nil
}

// ListUserIDs returns every user with at least one synced transaction,
// for the batch rematch job.
func (r *Repository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ids := make([]uuid.UUID, 0)
	err := r.db.SelectContext(ctx2, &ids, `
		SELECT DISTINCT user_id
		FROM transactions
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users", ErrInternal)
	}

	return ids, nil
}

// Apply persists a run's mutations in a single transaction so a
// half-applied batch can never be observed.
func (r *Repository) Apply(ctx context.Context, userID uuid.UUID, m Mutations) error {
	if m.Empty() {
		return nil
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, nil)
	if err != nil {
		return fmt.Errorf("%w: begin apply", ErrInternal)
	}
	defer tx.Rollback()

	if len(m.Unmatch) > 0 {
		_, err = tx.ExecContext(ctx2, `
			UPDATE transactions
			SET matched_credit_id = NULL
			WHERE user_id = $1 AND id = ANY($2)
		`, userID, pq.Array(m.Unmatch))
		if err != nil {
			return fmt.Errorf("%w: unmatch transactions", ErrInternal)
		}
	}

	for txID, creditID := range m.Match {
		_, err = tx.ExecContext(ctx2, `
			UPDATE transactions
			SET matched_credit_id = $3
			WHERE user_id = $1 AND id = $2
		`, userID, txID, creditID)
		if err != nil {
			return fmt.Errorf("%w: match transaction", ErrInternal)
		}
	}

	if len(m.Dismiss) > 0 {
		_, err = tx.ExecContext(ctx2, `
			UPDATE transactions
			SET dismissed = TRUE
			WHERE user_id = $1 AND id = ANY($2)
		`, userID, pq.Array(m.Dismiss))
		if err != nil {
			return fmt.Errorf("%w: dismiss transactions", ErrInternal)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit apply", ErrInternal)
	}

	return nil
}
