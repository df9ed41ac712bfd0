package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TobiasDeBruijn/invoicex/internal/db"
	identitydomain "github.com/TobiasDeBruijn/invoicex/internal/identity/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `select id, name, email, email_verified, created_at from users where id = $1`, id)
}

// GetByEmail returns the user with the given (normalized) email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `select id, name, email, email_verified, created_at from users where email = $1`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts the user and its identity in one transaction. A duplicate email is apperr.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User, ident *identitydomain.Identity) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`insert into users (id, name, email, email_verified, created_at) values ($1, $2, $3, $4, $5)`,
			u.ID, u.Name, u.Email, u.EmailVerified, u.CreatedAt,
		); err != nil {
			return db.MapError(err, "user")
		}
		if ident == nil {
			return nil
		}
		hash := sql.NullString{String: ident.PasswordHash, Valid: ident.PasswordHash != ""}
		if _, err := tx.ExecContext(ctx,
			`insert into identities (id, user_id, provider, provider_id, password_hash, created_at) values ($1, $2, $3, $4, $5, $6)`,
			ident.ID, ident.UserID, string(ident.Provider), ident.ProviderID, hash, ident.CreatedAt,
		); err != nil {
			return db.MapError(err, "identity")
		}
		return nil
	})
}

// SetEmailVerified marks the user's email as verified. Unknown users are apperr.ErrNotFound.
func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `update users set email_verified = true where id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// Delete removes the user and cascades sessions, scope grants, memberships, and identities
// in one transaction. Unknown users are apperr.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`delete from sessions where user_id = $1`,
			`delete from org_membership_scopes where user_id = $1`,
			`delete from org_memberships where user_id = $1`,
			`delete from identities where user_id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `delete from users where id = $1`, id)
		if err != nil {
			return err
		}
		return requireRow(res, id)
	})
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %q", apperr.ErrNotFound, id)
	}
	return nil
}
