package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/TobiasDeBruijn/invoicex/internal/obs"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/session/domain"
)

// mockSessionRepo implements sessionrepo.Repository in memory.
type mockSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	updateErr error
	deleteErr error
	deletes   int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: map[string]*domain.Session{}}
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *mockSessionRepo) UpdateLastUsed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if s, ok := m.sessions[id]; ok {
		s.LastUsedAt = at
	}
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *mockSessionRepo, *fakeClock) {
	repo := newMockSessionRepo()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewManager(repo, WithClock(clock.Now)), repo, clock
}

func TestCreate(t *testing.T) {
	m, repo, clock := newTestManager()
	s, err := m.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(s.ID, domain.TokenPrefix) {
		t.Errorf("token %q does not start with %q", s.ID, domain.TokenPrefix)
	}
	if len(s.ID) < len(domain.TokenPrefix)+26 {
		t.Errorf("token %q is too short", s.ID)
	}
	if !s.ExpiresAt.Equal(clock.Now().Add(30 * 24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now+30d", s.ExpiresAt)
	}
	if !s.LastUsedAt.Equal(clock.Now()) {
		t.Errorf("LastUsedAt = %v, want now", s.LastUsedAt)
	}
	if _, ok := repo.sessions[s.ID]; !ok {
		t.Error("session was not persisted")
	}
}

func TestCreate_TokensAreUnique(t *testing.T) {
	m, _, _ := newTestManager()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s, err := m.Create(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate token %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	m, repo, clock := newTestManager()
	s, _ := m.Create(context.Background(), "user-1")

	clock.Advance(time.Hour)
	got, err := m.Resolve(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
	if !repo.sessions[s.ID].LastUsedAt.Equal(clock.Now()) {
		t.Errorf("stored LastUsedAt = %v, want %v", repo.sessions[s.ID].LastUsedAt, clock.Now())
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Error("resolving must not extend the absolute expiry")
	}
}

func TestResolve_Unknown(t *testing.T) {
	m, _, _ := newTestManager()
	for _, token := range []string{"", "US_doesnotexist"} {
		if _, err := m.Resolve(context.Background(), token); !errors.Is(err, apperr.ErrUnauthorized) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnauthorized", token, err)
		}
	}
}

func TestResolve_ExpiredDeletesAndStaysUnauthorized(t *testing.T) {
	m, repo, clock := newTestManager()
	s, _ := m.Create(context.Background(), "user-1")

	clock.Advance(30*24*time.Hour + time.Second)
	if _, err := m.Resolve(context.Background(), s.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("first Resolve error = %v, want ErrUnauthorized", err)
	}
	if _, ok := repo.sessions[s.ID]; ok {
		t.Fatal("expired session should have been deleted")
	}
	if _, err := m.Resolve(context.Background(), s.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("second Resolve error = %v, want ErrUnauthorized", err)
	}
}

func TestResolve_AtExpiryBoundaryIsValid(t *testing.T) {
	m, _, clock := newTestManager()
	s, _ := m.Create(context.Background(), "user-1")
	clock.Advance(30 * 24 * time.Hour)
	if _, err := m.Resolve(context.Background(), s.ID); err != nil {
		t.Fatalf("Resolve at exactly expiresAt: %v", err)
	}
}

func TestResolve_ExpiredDeleteFailureStillUnauthorized(t *testing.T) {
	m, repo, clock := newTestManager()
	s, _ := m.Create(context.Background(), "user-1")
	repo.deleteErr = errors.New("db down")
	clock.Advance(31 * 24 * time.Hour)
	if _, err := m.Resolve(context.Background(), s.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("Resolve error = %v, want ErrUnauthorized", err)
	}
	if repo.deletes != 1 {
		t.Errorf("deletes = %d, want 1", repo.deletes)
	}
}

func TestResolve_LastUsedUpdateIsBestEffort(t *testing.T) {
	m, repo, _ := newTestManager()
	s, _ := m.Create(context.Background(), "user-1")
	repo.updateErr = errors.New("db down")
	got, err := m.Resolve(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Resolve should succeed when last-used update fails: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
}

func TestRemove_Idempotent(t *testing.T) {
	m, _, _ := newTestManager()
	s, _ := m.Create(context.Background(), "user-1")
	for i := 0; i < 2; i++ {
		if err := m.Remove(context.Background(), s.ID); err != nil {
			t.Fatalf("Remove #%d: %v", i+1, err)
		}
	}
	if _, err := m.Resolve(context.Background(), s.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("Resolve after Remove error = %v, want ErrUnauthorized", err)
	}
}

func TestListForUserAndRemoveAll(t *testing.T) {
	m, _, _ := newTestManager()
	for i := 0; i < 3; i++ {
		if _, err := m.Create(context.Background(), "user-1"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other, _ := m.Create(context.Background(), "user-2")

	list, err := m.ListForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(ListForUser) = %d, want 3", len(list))
	}

	if err := m.RemoveAll(context.Background(), "user-1"); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	list, _ = m.ListForUser(context.Background(), "user-1")
	if len(list) != 0 {
		t.Errorf("len(ListForUser) after RemoveAll = %d, want 0", len(list))
	}
	if _, err := m.Resolve(context.Background(), other.ID); err != nil {
		t.Errorf("other user's session should survive RemoveAll: %v", err)
	}
}

func TestWithMetrics_CountsCreateAndResolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := obs.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m := NewManager(newMockSessionRepo(), WithMetrics(metrics))
	s, err := m.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Resolve(context.Background(), s.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, _ = m.Resolve(context.Background(), "US_missing")

	expected := `
# HELP invoicex_session_resolutions_total Session token resolutions by outcome.
# TYPE invoicex_session_resolutions_total counter
invoicex_session_resolutions_total{outcome="missing"} 1
invoicex_session_resolutions_total{outcome="resolved"} 1
# HELP invoicex_sessions_created_total Sessions issued.
# TYPE invoicex_sessions_created_total counter
invoicex_sessions_created_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"invoicex_session_resolutions_total", "invoicex_sessions_created_total"); err != nil {
		t.Error(err)
	}
}

func TestWithLogger_ReceivesTouchFailure(t *testing.T) {
	var buf bytes.Buffer
	repo := newMockSessionRepo()
	m := NewManager(repo, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))), WithLogger(nil))
	s, err := m.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.updateErr = errors.New("db down")
	if _, err := m.Resolve(context.Background(), s.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(buf.String(), "failed to update last used") {
		t.Errorf("log = %q, want the touch failure", buf.String())
	}
}
