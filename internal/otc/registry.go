package otc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"graminsetu/internal/platform/metrics"
	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/requestcontext"
)

// Registry issues and verifies one-time codes against a backing store.
// There is no throttling here; rate limiting belongs to an outer layer
// if it is ever added.
type Registry struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry constructs a registry over the given store.
func NewRegistry(store Store, ttl time.Duration, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("code store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("code ttl must be positive")
	}
	r := &Registry{store: store, ttl: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Issue generates a fresh 6-digit code for key, replacing any live code.
// The returned code is handed to the notification layer; it is never
// exposed through the API.
func (r *Registry) Issue(ctx context.Context, key string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	expiresAt := requestcontext.Now(ctx).Add(r.ttl)
	if err := r.store.Put(ctx, key, code, expiresAt); err != nil {
		return "", err
	}
	r.metrics.IncCodesIssued()
	return code, nil
}

// Verify consumes the code for key. Exactly one of four outcomes:
// nil (consumed), ErrNotFound, ErrExpired (entry deleted), ErrMismatch
// (entry kept for retry). A second verify after success reports ErrNotFound.
func (r *Registry) Verify(ctx context.Context, key, code string) error {
	err := r.store.CompareAndDelete(ctx, key, code)
	switch {
	case err == nil:
		r.metrics.IncCodesVerified("ok")
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		r.metrics.IncCodesVerified("not_found")
	case errors.Is(err, sentinel.ErrExpired):
		r.metrics.IncCodesVerified("expired")
	case errors.Is(err, sentinel.ErrMismatch):
		r.metrics.IncCodesVerified("mismatch")
	default:
		r.metrics.IncCodesVerified("error")
	}
	return err
}

// generateCode returns a uniformly random 6-digit numeric code (100000 to
// 999999), from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
