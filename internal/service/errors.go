package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrOfferNotFound  = errors.New("offer not found")
	ErrOfferNotActive = errors.New("offer not active")
	ErrOfferExpired   = errors.New("offer expired")
	ErrOfferFull      = errors.New("offer full")
	ErrDuplicateClaim = errors.New("user already claimed this offer")
	ErrNotCheckedIn   = errors.New("user not checked in at venue")

	ErrTokenNotFound   = errors.New("token not found")
	ErrClaimExpired    = errors.New("claim expired")
	ErrAlreadyRedeemed = errors.New("claim already redeemed")

	ErrVenueNotFound = errors.New("venue not found")
	ErrInvalidInput  = errors.New("invalid input")

	ErrTokenSpaceExhausted = errors.New("token space exhausted for venue")

	// ErrTransient wraps retryable storage failures so callers can
	// distinguish "try again" from the permanent taxonomy above.
	ErrTransient = errors.New("transient storage failure")
)

const (
	txRetryAttempts = 3
	txRetryBackoff  = 25 * time.Millisecond
)

// retryablePgCode reports whether a postgres error code indicates a
// lock-conflict the caller may safely retry: serialization failure,
// deadlock, or lock-not-available.
func retryablePgCode(code string) bool {
	switch code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

func isRetryable(err error) bool {
	if errors.Is(err, errTokenCollision) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && retryablePgCode(pgErr.Code)
}

// withTxRetry runs fn, retrying a bounded number of times on transient
// lock-conflict errors. Permanent rejections pass through untouched; an
// exhausted retry budget surfaces as ErrTransient.
func withTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < txRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(txRetryBackoff << attempt):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return errors.Join(ErrTransient, lastErr)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
