package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TobiasDeBruijn/invoicex/internal/db"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/product/domain"
)

var _ Repository = (*PostgresRepository)(nil)

const productColumns = `id, org_id, name, description, product_code, price_per_unit, tax_percentage, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a product repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the product for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `select `+productColumns+` from products where id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`select `+productColumns+` from products where org_id = $1 order by created_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`insert into products (`+productColumns+`) values ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.OrgID, p.Name, nullString(p.Description), nullString(p.ProductCode),
		p.PricePerUnit, nullFloat(p.TaxPercentage), p.CreatedAt,
	)
	return db.MapError(err, "product")
}

func (r *PostgresRepository) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`update products set name = $2, description = $3, product_code = $4, price_per_unit = $5, tax_percentage = $6
		 where id = $1`,
		p.ID, p.Name, nullString(p.Description), nullString(p.ProductCode), p.PricePerUnit, nullFloat(p.TaxPercentage),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p           domain.Product
		description sql.NullString
		code        sql.NullString
		tax         sql.NullFloat64
	)
	if err := s.Scan(&p.ID, &p.OrgID, &p.Name, &description, &code, &p.PricePerUnit, &tax, &p.CreatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if code.Valid {
		p.ProductCode = &code.String
	}
	if tax.Valid {
		p.TaxPercentage = &tax.Float64
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: product", apperr.ErrNotFound)
	}
	return nil
}
