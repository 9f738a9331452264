package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

func NewPGStore(db *pgxpool.Pool, lockTimeout time.Duration) *PGStore {
	return &PGStore{db: db, lockTimeout: lockTimeout}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (s *PGStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *PGStore) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx)

	if s.lockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return classify(err)
		}
	}

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Savepoint(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	if err := fn(ctx, &pgTx{tx: nested}); err != nil {
		if rbErr := nested.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, classify(rbErr))
		}
		return err
	}
	return classify(nested.Commit(ctx))
}

var _ Store = (*PGStore)(nil)
var _ Tx = (*pgTx)(nil)
