package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const retryBackoff = 25 * time.Millisecond

// retryable reports whether err is a serialization failure or deadlock that
// is worth running the transaction again for.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1213: deadlock found, 1205: lock wait timeout
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-retryable error or
// the retry budget is spent, in which case ErrConflict is returned.
func (s *gormStore) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		s.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("transaction conflicted, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
}
