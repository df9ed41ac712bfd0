package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/authz"
	membershipdomain "github.com/TobiasDeBruijn/invoicex/internal/membership/domain"
	membershiprepo "github.com/TobiasDeBruijn/invoicex/internal/membership/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
	"github.com/TobiasDeBruijn/invoicex/internal/server/interceptors"
	userdomain "github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

// mockStore implements the parts of membershiprepo.Repository the org server uses.
// Calling anything else panics on the nil embedded interface.
type mockStore struct {
	membershiprepo.Repository
	orgs        map[string]*domain.Org
	memberships map[string]*membershipdomain.Membership
	createErr   error
	removed     []string
}

func newMockStore() *mockStore {
	return &mockStore{orgs: map[string]*domain.Org{}, memberships: map[string]*membershipdomain.Membership{}}
}

func (m *mockStore) CreateOrg(ctx context.Context, org *domain.Org, creatorID string) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *org
	m.orgs[org.ID] = &cp
	m.memberships[org.ID+":"+creatorID] = &membershipdomain.Membership{OrgID: org.ID, UserID: creatorID, IsAdmin: true, Scopes: scope.Full()}
	return nil
}

func (m *mockStore) GetOrg(ctx context.Context, orgID string) (*domain.Org, error) {
	o, ok := m.orgs[orgID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) UpdateOrg(ctx context.Context, org *domain.Org) error {
	if _, ok := m.orgs[org.ID]; !ok {
		return fmt.Errorf("%w: org", apperr.ErrNotFound)
	}
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *mockStore) RemoveOrg(ctx context.Context, orgID string) error {
	delete(m.orgs, orgID)
	for k, mem := range m.memberships {
		if mem.OrgID == orgID {
			delete(m.memberships, k)
		}
	}
	m.removed = append(m.removed, orgID)
	return nil
}

func (m *mockStore) ListOrgsForUser(ctx context.Context, userID string) ([]*domain.Org, error) {
	var out []*domain.Org
	for _, mem := range m.memberships {
		if mem.UserID == userID {
			if o, ok := m.orgs[mem.OrgID]; ok {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (m *mockStore) GetMembership(ctx context.Context, orgID, userID string) (*membershipdomain.Membership, error) {
	mem, ok := m.memberships[orgID+":"+userID]
	if !ok {
		return nil, nil
	}
	cp := *mem
	return &cp, nil
}

func (m *mockStore) ListUsers(ctx context.Context, orgID string) ([]*membershipdomain.Member, error) {
	var out []*membershipdomain.Member
	for _, mem := range m.memberships {
		if mem.OrgID == orgID {
			out = append(out, &membershipdomain.Member{
				User: &userdomain.User{ID: mem.UserID}, IsAdmin: mem.IsAdmin, Scopes: mem.Scopes,
			})
		}
	}
	return out, nil
}

func (m *mockStore) addMember(orgID, userID string, scopes scope.Set) {
	m.memberships[orgID+":"+userID] = &membershipdomain.Membership{OrgID: orgID, UserID: userID, Scopes: scopes}
}

func newTestServer() (*Server, *mockStore) {
	store := newMockStore()
	srv := NewServer(store, authz.NewGate(store, nil, nil, nil))
	srv.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return srv, store
}

func as(userID string) context.Context {
	return interceptors.WithIdentity(context.Background(), userID, "US_"+userID)
}

func TestCreateOrg(t *testing.T) {
	srv, store := newTestServer()
	resp, err := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "  Acme  "})
	if err != nil {
		t.Fatalf("CreateOrg: %v", err)
	}
	if resp.Org.Id == "" || resp.Org.Name != "Acme" {
		t.Errorf("CreateOrg = %+v", resp.Org)
	}
	m := store.memberships[resp.Org.Id+":u1"]
	if m == nil || !m.IsAdmin || m.Scopes != scope.Full() {
		t.Errorf("creator membership = %+v, want admin with full catalog", m)
	}

	got, err := srv.GetOrg(as("u1"), &apiv1.GetOrgRequest{OrgId: resp.Org.Id})
	if err != nil {
		t.Fatalf("GetOrg: %v", err)
	}
	if len(got.Users) != 1 || !got.Users[0].IsOrgAdmin {
		t.Errorf("GetOrg users = %+v", got.Users)
	}
	for _, f := range got.Users[0].Scopes {
		if !f.Enabled {
			t.Errorf("creator flag %s disabled", f.Name)
		}
	}
}

func TestCreateOrg_Errors(t *testing.T) {
	srv, store := newTestServer()
	if _, err := srv.CreateOrg(context.Background(), &apiv1.CreateOrgRequest{Name: "Acme"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("unauthenticated error = %v, want ErrUnauthorized", err)
	}
	if _, err := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: " "}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("blank name error = %v, want ErrBadRequest", err)
	}
	if _, err := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: strings.Repeat("x", 200)}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("long name error = %v, want ErrBadRequest", err)
	}
	store.createErr = errors.New("db down")
	if _, err := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "Acme"}); !errors.Is(err, store.createErr) {
		t.Errorf("store error = %v, want passthrough", err)
	}
}

func TestGetOrg_UnknownIsUnauthorized(t *testing.T) {
	srv, _ := newTestServer()
	if _, err := srv.GetOrg(as("u1"), &apiv1.GetOrgRequest{OrgId: "ghost"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("GetOrg error = %v, want ErrUnauthorized", err)
	}
}

func TestGetOrg_NonMemberIsForbidden(t *testing.T) {
	srv, _ := newTestServer()
	resp, _ := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "Acme"})
	if _, err := srv.GetOrg(as("u2"), &apiv1.GetOrgRequest{OrgId: resp.Org.Id}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("GetOrg error = %v, want ErrForbidden", err)
	}
}

func TestListOrgs_FiltersByGetOrg(t *testing.T) {
	srv, store := newTestServer()
	a, _ := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "Acme"})
	b, _ := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "Globex"})
	store.addMember(a.Org.Id, "u2", scope.NewSet(scope.Defaults()...))
	store.addMember(b.Org.Id, "u2", scope.NewSet(scope.GetProduct))

	resp, err := srv.ListOrgs(as("u2"), &apiv1.ListOrgsRequest{})
	if err != nil {
		t.Fatalf("ListOrgs: %v", err)
	}
	if len(resp.Orgs) != 1 || resp.Orgs[0].Id != a.Org.Id {
		t.Errorf("ListOrgs = %+v, want only %s", resp.Orgs, a.Org.Id)
	}

	resp, err = srv.ListOrgs(as("u1"), &apiv1.ListOrgsRequest{})
	if err != nil {
		t.Fatalf("ListOrgs: %v", err)
	}
	if len(resp.Orgs) != 2 {
		t.Errorf("creator sees %d orgs, want 2", len(resp.Orgs))
	}
}

func TestUpdateOrg(t *testing.T) {
	srv, store := newTestServer()
	created, _ := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "Acme"})
	orgID := created.Org.Id
	store.addMember(orgID, "u2", scope.NewSet(scope.Defaults()...))

	if _, err := srv.UpdateOrg(as("u2"), &apiv1.UpdateOrgRequest{OrgId: orgID, Name: "Hijacked"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("member UpdateOrg error = %v, want ErrForbidden", err)
	}
	if _, err := srv.UpdateOrg(as("u1"), &apiv1.UpdateOrgRequest{OrgId: orgID, Name: ""}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("blank name error = %v, want ErrBadRequest", err)
	}
	resp, err := srv.UpdateOrg(as("u1"), &apiv1.UpdateOrgRequest{OrgId: orgID, Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("UpdateOrg: %v", err)
	}
	if resp.Org.Name != "Acme Corp" || store.orgs[orgID].Name != "Acme Corp" {
		t.Errorf("UpdateOrg = %+v, stored %+v", resp.Org, store.orgs[orgID])
	}
}

func TestRemoveOrg(t *testing.T) {
	srv, store := newTestServer()
	created, _ := srv.CreateOrg(as("u1"), &apiv1.CreateOrgRequest{Name: "Acme"})
	orgID := created.Org.Id
	store.addMember(orgID, "u2", scope.NewSet(scope.Defaults()...).With(scope.RemoveOrg))
	store.addMember(orgID, "u3", scope.NewSet(scope.Defaults()...))

	if _, err := srv.RemoveOrg(as("u3"), &apiv1.RemoveOrgRequest{OrgId: orgID}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("RemoveOrg without scope error = %v, want ErrForbidden", err)
	}
	if _, err := srv.RemoveOrg(as("u2"), &apiv1.RemoveOrgRequest{OrgId: orgID}); err != nil {
		t.Fatalf("RemoveOrg with explicit grant: %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != orgID {
		t.Errorf("removed = %v", store.removed)
	}
	if _, err := srv.GetOrg(as("u1"), &apiv1.GetOrgRequest{OrgId: orgID}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("GetOrg after removal error = %v, want ErrUnauthorized", err)
	}
}
