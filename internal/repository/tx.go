package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txAttempts bounds how often a transaction aborted by a serialization failure or a
// deadlock is run.
const txAttempts = 3

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	return runInTxWithOptions(ctx, db, pgx.TxOptions{}, fn)
}

// runInTxWithOptions commits when fn returns nil and rolls back otherwise. fn may run
// more than once, so it must not have side effects outside the transaction.
func runInTxWithOptions(ctx context.Context, db *pgxpool.Pool, txOptions pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	var err error

	for range txAttempts {
		err = pgx.BeginTxFunc(ctx, db, txOptions, fn)
		if !retryable(err) {
			return err
		}
	}

	return err
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
