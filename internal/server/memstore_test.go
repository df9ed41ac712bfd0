package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	auditdomain "github.com/TobiasDeBruijn/invoicex/internal/audit/domain"
	identitydomain "github.com/TobiasDeBruijn/invoicex/internal/identity/domain"
	membershipdomain "github.com/TobiasDeBruijn/invoicex/internal/membership/domain"
	orgdomain "github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	productdomain "github.com/TobiasDeBruijn/invoicex/internal/product/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
	sessiondomain "github.com/TobiasDeBruijn/invoicex/internal/session/domain"
	userdomain "github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

// memStore is an in-memory stand-in for every Postgres repository the server wires.
// Methods are grouped by the repository interface they satisfy through the view types below.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*userdomain.User
	identities  map[string]*identitydomain.Identity // keyed by user id
	sessions    map[string]*sessiondomain.Session
	orgs        map[string]*orgdomain.Org
	memberships map[string]*membershipdomain.Membership // keyed by org id + "/" + user id
	products    map[string]*productdomain.Product
	audit       []*auditdomain.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*userdomain.User{},
		identities:  map[string]*identitydomain.Identity{},
		sessions:    map[string]*sessiondomain.Session{},
		orgs:        map[string]*orgdomain.Org{},
		memberships: map[string]*membershipdomain.Membership{},
		products:    map[string]*productdomain.Product{},
	}
}

func memberKey(orgID, userID string) string { return orgID + "/" + userID }

func (s *memStore) auditActions(orgID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.audit {
		if e.OrgID == orgID {
			out = append(out, e.Action)
		}
	}
	return out
}

// memUsers implements the user repository.
type memUsers struct{ *memStore }

func (r memUsers) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u == nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r memUsers) Create(_ context.Context, u *userdomain.User, ident *identitydomain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
	}
	c := *u
	r.users[u.ID] = &c
	i := *ident
	r.identities[u.ID] = &i
	return nil
}

func (r memUsers) SetEmailVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u == nil {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	u.EmailVerified = true
	return nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	delete(r.identities, id)
	for k, sess := range r.sessions {
		if sess.UserID == id {
			delete(r.sessions, k)
		}
	}
	for k, m := range r.memberships {
		if m.UserID == id {
			delete(r.memberships, k)
		}
	}
	return nil
}

// memIdentities implements the identity repository.
type memIdentities struct{ *memStore }

func (r memIdentities) GetByUserAndProvider(_ context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.identities[userID]
	if i == nil || i.Provider != provider {
		return nil, nil
	}
	c := *i
	return &c, nil
}

// memSessions implements the session repository.
type memSessions struct{ *memStore }

func (r memSessions) GetByID(_ context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.sessions[id]
	if sess == nil {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (r memSessions) ListByUser(_ context.Context, userID string) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*sessiondomain.Session
	for _, sess := range r.sessions {
		if sess.UserID == userID {
			c := *sess
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memSessions) Create(_ context.Context, sess *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *sess
	r.sessions[sess.ID] = &c
	return nil
}

func (r memSessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r memSessions) DeleteAllByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, sess := range r.sessions {
		if sess.UserID == userID {
			delete(r.sessions, k)
		}
	}
	return nil
}

func (r memSessions) UpdateLastUsed(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess := r.sessions[id]; sess != nil {
		sess.LastUsedAt = at
	}
	return nil
}

// memMemberships implements the membership repository.
type memMemberships struct{ *memStore }

func (r memMemberships) CreateOrg(_ context.Context, org *orgdomain.Org, creatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *org
	r.orgs[org.ID] = &c
	r.memberships[memberKey(org.ID, creatorID)] = &membershipdomain.Membership{
		OrgID: org.ID, UserID: creatorID, IsAdmin: true, Scopes: scope.Full(), CreatedAt: org.CreatedAt,
	}
	return nil
}

func (r memMemberships) GetOrg(_ context.Context, orgID string) (*orgdomain.Org, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org := r.orgs[orgID]
	if org == nil {
		return nil, nil
	}
	c := *org
	return &c, nil
}

func (r memMemberships) UpdateOrg(_ context.Context, org *orgdomain.Org) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.orgs[org.ID] == nil {
		return fmt.Errorf("%w: organization", apperr.ErrNotFound)
	}
	c := *org
	r.orgs[org.ID] = &c
	return nil
}

func (r memMemberships) RemoveOrg(_ context.Context, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.orgs[orgID] == nil {
		return fmt.Errorf("%w: organization", apperr.ErrNotFound)
	}
	delete(r.orgs, orgID)
	for k, m := range r.memberships {
		if m.OrgID == orgID {
			delete(r.memberships, k)
		}
	}
	return nil
}

func (r memMemberships) ListOrgsForUser(_ context.Context, userID string) ([]*orgdomain.Org, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*orgdomain.Org
	for _, m := range r.memberships {
		if m.UserID == userID {
			if org := r.orgs[m.OrgID]; org != nil {
				c := *org
				out = append(out, &c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMemberships) AddUser(_ context.Context, orgID, userID string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey(orgID, userID)
	if r.memberships[key] != nil {
		return fmt.Errorf("%w: already a member", apperr.ErrConflict)
	}
	r.memberships[key] = &membershipdomain.Membership{
		OrgID: orgID, UserID: userID, IsAdmin: isAdmin, Scopes: membershipdomain.InitialScopes(isAdmin),
	}
	return nil
}

func (r memMemberships) RemoveUser(_ context.Context, orgID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.memberships, memberKey(orgID, userID))
	return nil
}

func (r memMemberships) GetMembership(_ context.Context, orgID, userID string) (*membershipdomain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.memberships[memberKey(orgID, userID)]
	if m == nil {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r memMemberships) ListUsers(_ context.Context, orgID string) ([]*membershipdomain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*membershipdomain.Member
	for _, m := range r.memberships {
		if m.OrgID != orgID {
			continue
		}
		u := r.users[m.UserID]
		if u == nil {
			return nil, fmt.Errorf("%w: missing user %s", apperr.ErrInvalidState, m.UserID)
		}
		c := *u
		out = append(out, &membershipdomain.Member{User: &c, IsAdmin: m.IsAdmin, Scopes: m.Scopes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out, nil
}

func (r memMemberships) SetScope(ctx context.Context, orgID, userID string, s scope.Scope, enabled bool) error {
	return r.SetScopes(ctx, orgID, userID, []membershipdomain.ScopeChange{{Scope: s, Enabled: enabled}})
}

func (r memMemberships) SetScopes(_ context.Context, orgID, userID string, changes []membershipdomain.ScopeChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.memberships[memberKey(orgID, userID)]
	if m == nil {
		return fmt.Errorf("%w: membership", apperr.ErrNotFound)
	}
	for _, c := range changes {
		if c.Enabled {
			m.Scopes = m.Scopes.With(c.Scope)
		} else {
			m.Scopes = m.Scopes.Without(c.Scope)
		}
	}
	return nil
}

func (r memMemberships) ListScopes(_ context.Context, orgID, userID string) (scope.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.memberships[memberKey(orgID, userID)]
	if m == nil {
		return 0, nil
	}
	return m.Scopes, nil
}

// memProducts implements the product repository.
type memProducts struct{ *memStore }

func (r memProducts) GetByID(_ context.Context, id string) (*productdomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[id]
	if p == nil {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r memProducts) ListByOrg(_ context.Context, orgID string) ([]*productdomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*productdomain.Product
	for _, p := range r.products {
		if p.OrgID == orgID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) Create(_ context.Context, p *productdomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *p
	r.products[p.ID] = &c
	return nil
}

func (r memProducts) Update(_ context.Context, p *productdomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products[p.ID] == nil {
		return fmt.Errorf("%w: product", apperr.ErrNotFound)
	}
	c := *p
	r.products[p.ID] = &c
	return nil
}

func (r memProducts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products[id] == nil {
		return fmt.Errorf("%w: product", apperr.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// memAudit implements the audit repository.
type memAudit struct{ *memStore }

func (r memAudit) Create(_ context.Context, e *auditdomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *e
	r.audit = append(r.audit, &c)
	return nil
}
