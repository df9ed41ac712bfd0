package domain

import (
	"errors"
	"strings"
	"time"
)

// Org is a tenant boundary. It owns memberships and products.
type Org struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	name := strings.TrimSpace(o.Name)
	if name == "" {
		return errors.New("name is required")
	}
	if len(name) > 128 {
		return errors.New("name must be at most 128 characters")
	}
	o.Name = name
	return nil
}
