package repository

import (
	"context"
	"fmt"

	"marketplace-reviews/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Review      ReviewRepository
	Fingerprint FingerprintRepository
	Listing     ListingRepository
	User        UserRepository

	// Tx runs a function against transaction-scoped repositories. Writes that
	// must commit or roll back together go through here.
	Tx TxRunner
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(r *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newQuerierRepository(db, log)
	repo.Tx = &pgxTxRunner{db: db, log: log}
	return repo
}

func newQuerierRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Review:      NewReviewRepository(q, log),
		Fingerprint: NewFingerprintRepository(q, log),
		Listing:     NewListingRepository(q, log),
		User:        NewUserRepository(q, log),
	}
}

type pgxTxRunner struct {
	db  database.PgxIface
	log *zap.Logger
}

// WithinTx opens a transaction, hands fn repositories bound to it, and commits
// only when fn returns nil. Any error rolls every statement back.
func (t *pgxTxRunner) WithinTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after a successful commit

	if err := fn(newQuerierRepository(tx, t.log)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
