package repositories

import (
	"context"
	"errors"
	"fmt"

	"bizmanager/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of *pgxpool.Pool the repositories use. pgxmock's
// pool satisfies it as well.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise.
func withTx(ctx context.Context, db Database, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return models.NewPersistenceError("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.NewPersistenceError("commit transaction", err)
	}
	return nil
}

// expectOneRow turns a zero-rows-affected write into a persistence failure.
func expectOneRow(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return models.NewPersistenceError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewPersistenceError(op+": no rows affected", nil)
	}
	return nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError(what + " not found")
	}
	return models.NewPersistenceError("load "+what, err)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
