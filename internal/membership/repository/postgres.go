package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TobiasDeBruijn/invoicex/internal/db"
	"github.com/TobiasDeBruijn/invoicex/internal/membership/domain"
	orgdomain "github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
	userdomain "github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository returns a membership store that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgresRepository) CreateOrg(ctx context.Context, org *orgdomain.Org, creatorID string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`insert into orgs (id, name, created_at) values ($1, $2, $3)`,
			org.ID, org.Name, org.CreatedAt,
		); err != nil {
			return db.MapError(err, "org")
		}
		if err := insertMembership(ctx, tx, org.ID, creatorID, true, org.CreatedAt); err != nil {
			return err
		}
		return grant(ctx, tx, org.ID, creatorID, scope.Full())
	})
}

// GetOrg returns the org for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrg(ctx context.Context, orgID string) (*orgdomain.Org, error) {
	var o orgdomain.Org
	err := r.db.QueryRowContext(ctx, `select id, name, created_at from orgs where id = $1`, orgID).
		Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) UpdateOrg(ctx context.Context, org *orgdomain.Org) error {
	res, err := r.db.ExecContext(ctx, `update orgs set name = $2 where id = $1`, org.ID, org.Name)
	if err != nil {
		return err
	}
	return requireRow(res, "org")
}

func (r *PostgresRepository) RemoveOrg(ctx context.Context, orgID string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `delete from org_membership_scopes where org_id = $1`, orgID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `delete from org_memberships where org_id = $1`, orgID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `delete from orgs where id = $1`, orgID)
		if err != nil {
			return err
		}
		return requireRow(res, "org")
	})
}

func (r *PostgresRepository) ListOrgsForUser(ctx context.Context, userID string) ([]*orgdomain.Org, error) {
	rows, err := r.db.QueryContext(ctx,
		`select o.id, o.name, o.created_at from orgs o
		 join org_memberships m on m.org_id = o.id
		 where m.user_id = $1 order by o.created_at, o.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*orgdomain.Org
	for rows.Next() {
		var o orgdomain.Org
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) AddUser(ctx context.Context, orgID, userID string, isAdmin bool) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertMembership(ctx, tx, orgID, userID, isAdmin, r.now().UTC()); err != nil {
			return err
		}
		return grant(ctx, tx, orgID, userID, domain.InitialScopes(isAdmin))
	})
}

func (r *PostgresRepository) RemoveUser(ctx context.Context, orgID, userID string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`delete from org_membership_scopes where org_id = $1 and user_id = $2`, orgID, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `delete from org_memberships where org_id = $1 and user_id = $2`, orgID, userID)
		return err
	})
}

// GetMembership returns the membership for (org, user), or nil if not found.
func (r *PostgresRepository) GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error) {
	m := domain.Membership{OrgID: orgID, UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`select is_admin, created_at from org_memberships where org_id = $1 and user_id = $2`, orgID, userID).
		Scan(&m.IsAdmin, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Scopes, err = r.ListScopes(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListUsers returns every member of the org with its explicit grants. A membership whose user row
// is missing is apperr.ErrInvalidState.
func (r *PostgresRepository) ListUsers(ctx context.Context, orgID string) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`select m.user_id, m.is_admin, u.name, u.email, u.email_verified, u.created_at
		 from org_memberships m left join users u on u.id = m.user_id
		 where m.org_id = $1 order by m.created_at, m.user_id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Member
	byUser := map[string]*domain.Member{}
	for rows.Next() {
		var (
			userID    string
			isAdmin   bool
			name      sql.NullString
			email     sql.NullString
			verified  sql.NullBool
			createdAt sql.NullTime
		)
		if err := rows.Scan(&userID, &isAdmin, &name, &email, &verified, &createdAt); err != nil {
			return nil, err
		}
		if !name.Valid {
			return nil, fmt.Errorf("%w: membership in org %s references missing user %s", apperr.ErrInvalidState, orgID, userID)
		}
		m := &domain.Member{
			User: &userdomain.User{
				ID: userID, Name: name.String, Email: email.String,
				EmailVerified: verified.Bool, CreatedAt: createdAt.Time,
			},
			IsAdmin: isAdmin,
		}
		out = append(out, m)
		byUser[userID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scopeRows, err := r.db.QueryContext(ctx,
		`select user_id, scope_name from org_membership_scopes where org_id = $1`, orgID)
	if err != nil {
		return nil, err
	}
	defer scopeRows.Close()
	for scopeRows.Next() {
		var userID, name string
		if err := scopeRows.Scan(&userID, &name); err != nil {
			return nil, err
		}
		s, err := parseStored(name)
		if err != nil {
			return nil, err
		}
		if m, ok := byUser[userID]; ok {
			m.Scopes = m.Scopes.With(s)
		}
	}
	return out, scopeRows.Err()
}

func (r *PostgresRepository) SetScope(ctx context.Context, orgID, userID string, s scope.Scope, enabled bool) error {
	return setScope(ctx, r.db, orgID, userID, s, enabled)
}

func (r *PostgresRepository) SetScopes(ctx context.Context, orgID, userID string, changes []domain.ScopeChange) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range changes {
			if err := setScope(ctx, tx, orgID, userID, c.Scope, c.Enabled); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) ListScopes(ctx context.Context, orgID, userID string) (scope.Set, error) {
	rows, err := r.db.QueryContext(ctx,
		`select scope_name from org_membership_scopes where org_id = $1 and user_id = $2`, orgID, userID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var set scope.Set
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, err
		}
		s, err := parseStored(name)
		if err != nil {
			return 0, err
		}
		set = set.With(s)
	}
	return set, rows.Err()
}

func setScope(ctx context.Context, ex execer, orgID, userID string, s scope.Scope, enabled bool) error {
	if !s.Valid() {
		return fmt.Errorf("%w: invalid scope %d", apperr.ErrBadRequest, s)
	}
	if enabled {
		_, err := ex.ExecContext(ctx,
			`insert into org_membership_scopes (org_id, user_id, scope_name) values ($1, $2, $3)
			 on conflict do nothing`, orgID, userID, s.String())
		return db.MapError(err, "membership")
	}
	_, err := ex.ExecContext(ctx,
		`delete from org_membership_scopes where org_id = $1 and user_id = $2 and scope_name = $3`,
		orgID, userID, s.String())
	return err
}

func insertMembership(ctx context.Context, ex execer, orgID, userID string, isAdmin bool, at time.Time) error {
	_, err := ex.ExecContext(ctx,
		`insert into org_memberships (org_id, user_id, is_admin, created_at) values ($1, $2, $3, $4)`,
		orgID, userID, isAdmin, at)
	return db.MapError(err, "membership")
}

func grant(ctx context.Context, ex execer, orgID, userID string, set scope.Set) error {
	for _, s := range set.Slice() {
		if _, err := ex.ExecContext(ctx,
			`insert into org_membership_scopes (org_id, user_id, scope_name) values ($1, $2, $3)`,
			orgID, userID, s.String(),
		); err != nil {
			return db.MapError(err, "scope grant")
		}
	}
	return nil
}

// parseStored parses a scope name read back from storage. An unknown name means the row
// predates a catalog change and is reported as an integrity violation, not a bad request.
func parseStored(name string) (scope.Scope, error) {
	s, err := scope.Parse(name)
	if err != nil {
		return 0, fmt.Errorf("%w: stored scope %q is not in the catalog", apperr.ErrInvalidState, name)
	}
	return s, nil
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return nil
}
