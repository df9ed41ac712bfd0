package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Product is a billable item owned by one organization.
type Product struct {
	ID            string
	OrgID         string
	Name          string
	Description   *string
	ProductCode   *string
	PricePerUnit  float64
	TaxPercentage *float64
	CreatedAt     time.Time
}

// Validate validates the product for persistence. Returns an error describing the first validation failure.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Name) > 256 {
		return errors.New("name must be at most 256 characters")
	}
	if math.IsNaN(p.PricePerUnit) || math.IsInf(p.PricePerUnit, 0) || p.PricePerUnit < 0 {
		return errors.New("price_per_unit must be a non-negative number")
	}
	if t := p.TaxPercentage; t != nil && (math.IsNaN(*t) || *t < 0 || *t > 100) {
		return errors.New("tax_percentage must be between 0 and 100")
	}
	return nil
}
