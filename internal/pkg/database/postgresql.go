package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	*pgxpool.Pool
}

func NewPostgreSQLDB(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)

	if err != nil {
		return nil, err
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type txKey struct{}

// TxManager runs a function inside a database transaction. *DB is the
// production implementation; services depend on this interface so their
// transactional paths can be driven without a live pool.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithTxRetry(ctx context.Context, fn func(ctx context.Context) error) error
}

func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, db, fn)
}

func (db *DB) WithTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTxRetry(ctx, db, fn)
}

// ErrTxConflict is returned when a transaction keeps failing on write
// conflicts after all retries are spent.
var ErrTxConflict = errors.New("transaction conflict, please retry")

// WithTransaction executes fn inside a database transaction. The transaction
// is stored in the context so repositories going through QuerierFrom run
// against it.
func WithTransaction(ctx context.Context, db *DB, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const txMaxRetries = 3

// WithTxRetry runs fn in a transaction, retrying a bounded number of times
// when the database reports a serialization failure or deadlock. Any other
// error surfaces immediately.
func WithTxRetry(ctx context.Context, db *DB, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < txMaxRetries; attempt++ {
		err = WithTransaction(ctx, db, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		slog.Warn("retrying conflicting transaction", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("%w: %v", ErrTxConflict, err)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// QuerierFrom returns the transaction bound to ctx, or the pool.
// Used in repositories to support both transactional and non-transactional operations.
func QuerierFrom(ctx context.Context, db *DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}
