// Package service implements the session lifecycle: issuing opaque tokens, resolving them to a
// user with sliding last-used tracking, and lazy expiry.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/TobiasDeBruijn/invoicex/internal/obs"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/security"
	"github.com/TobiasDeBruijn/invoicex/internal/session/domain"
	sessionrepo "github.com/TobiasDeBruijn/invoicex/internal/session/repository"
)

// DefaultTTL is the lifetime of a new session.
const DefaultTTL = 30 * 24 * time.Hour

// Manager issues, resolves, and removes sessions. It keeps no state besides its dependencies
// and is safe for concurrent use.
type Manager struct {
	repo    sessionrepo.Repository
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *obs.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger for expired-session cleanup and touch failures. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records session creations and resolution outcomes. Nil disables them.
func WithMetrics(metrics *obs.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager returns a Manager persisting to repo.
func NewManager(repo sessionrepo.Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create issues a new session for userID.
func (m *Manager) Create(ctx context.Context, userID string) (*domain.Session, error) {
	now := m.now().UTC()
	s := &domain.Session{
		ID:         newToken(),
		UserID:     userID,
		ExpiresAt:  now.Add(m.ttl),
		LastUsedAt: now,
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	m.metrics.SessionCreated()
	return s, nil
}

// Resolve returns the session for token. An unknown or expired token is apperr.ErrUnauthorized;
// an expired session is deleted on the way out. On success the last-used time is advanced on a
// best-effort basis.
func (m *Manager) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		m.metrics.SessionResolution(obs.SessionMissing)
		return nil, fmt.Errorf("%w: missing session token", apperr.ErrUnauthorized)
	}
	s, err := m.repo.GetByID(ctx, token)
	if err != nil {
		return nil, err
	}
	if s == nil {
		m.metrics.SessionResolution(obs.SessionMissing)
		return nil, fmt.Errorf("%w: invalid session", apperr.ErrUnauthorized)
	}
	now := m.now().UTC()
	if s.Expired(now) {
		m.metrics.SessionResolution(obs.SessionExpired)
		if err := m.repo.Delete(ctx, s.ID); err != nil {
			m.logger.WarnContext(ctx, "session: failed to delete expired session",
				"session", security.Fingerprint(s.ID), "error", err)
		}
		return nil, fmt.Errorf("%w: session expired", apperr.ErrUnauthorized)
	}
	if err := m.repo.UpdateLastUsed(ctx, s.ID, now); err != nil {
		m.logger.WarnContext(ctx, "session: failed to update last used",
			"session", security.Fingerprint(s.ID), "error", err)
	} else {
		s.LastUsedAt = now
	}
	m.metrics.SessionResolution(obs.SessionResolved)
	return s, nil
}

// Remove deletes the session. Removing an absent session is not an error.
func (m *Manager) Remove(ctx context.Context, token string) error {
	return m.repo.Delete(ctx, token)
}

// ListForUser returns every session owned by userID, including ones that expired but were never resolved.
func (m *Manager) ListForUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	return m.repo.ListByUser(ctx, userID)
}

// RemoveAll deletes every session owned by userID.
func (m *Manager) RemoveAll(ctx context.Context, userID string) error {
	return m.repo.DeleteAllByUser(ctx, userID)
}

// newToken returns the user-session prefix followed by 128 bits of randomness.
func newToken() string {
	return domain.TokenPrefix + rand.Text()
}
