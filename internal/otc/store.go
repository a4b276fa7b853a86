// Package otc implements the one-time code registry that gates account
// verification. Codes are short-lived, single-use, and keyed by an identity
// string (an email or a phone number). Issuing a code unconditionally
// replaces any live code for the key; verification consumes the entry
// atomically.
package otc

import (
	"context"
	"time"
)

// Store persists code entries.
//
// Error contract (sentinel errors, per store boundary convention):
//   - CompareAndDelete returns ErrNotFound when no entry exists for key,
//     ErrExpired when the entry's deadline has passed (the entry is deleted
//     on this check), ErrMismatch when the supplied code differs (the entry
//     is kept so the caller may retry), and nil on success (entry deleted).
//
// The compare-and-delete must be atomic with respect to concurrent verify
// calls for the same key: a code is consumed at most once.
type Store interface {
	// Put stores code under key with the given deadline, replacing any
	// existing entry.
	Put(ctx context.Context, key, code string, expiresAt time.Time) error
	// CompareAndDelete atomically verifies and consumes the entry for key.
	CompareAndDelete(ctx context.Context, key, code string) error
}
