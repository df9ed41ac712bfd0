// Package scope is the fixed catalog of organization permission identifiers.
//
// The catalog is a constant table: every Scope constant has exactly one entry, scopes are
// either granted to every member (ClassDefault) or only to org admins (ClassAdminOnly),
// and names are matched exactly and case-sensitively.
package scope

import (
	"fmt"

	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
)

// ErrUnknownScope is returned by Parse when the name matches no catalog entry.
var ErrUnknownScope = fmt.Errorf("%w: unknown scope", apperr.ErrBadRequest)

// Scope identifies one permission within an organization.
type Scope uint8

const (
	GetOrg Scope = iota
	UpdateOrg
	RemoveOrg
	OrgUserManagement
	GetProduct
	CreateProduct
	UpdateProduct
	RemoveProduct

	numScopes
)

// Class is the grant classification of a scope.
type Class uint8

const (
	// ClassDefault scopes are granted to every member.
	ClassDefault Class = iota + 1
	// ClassAdminOnly scopes are granted automatically only to org admins.
	ClassAdminOnly
)

func (c Class) String() string {
	switch c {
	case ClassDefault:
		return "default"
	case ClassAdminOnly:
		return "admin-only"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

type entry struct {
	name        string
	class       Class
	description string
}

var catalog = [...]entry{
	GetOrg:            {"GetOrg", ClassDefault, "View the organization and its members"},
	UpdateOrg:         {"UpdateOrg", ClassAdminOnly, "Update the organization's details"},
	RemoveOrg:         {"RemoveOrg", ClassAdminOnly, "Delete the organization"},
	OrgUserManagement: {"OrgUserManagement", ClassAdminOnly, "Add and remove members and manage their scopes"},
	GetProduct:        {"GetProduct", ClassDefault, "View the organization's products"},
	CreateProduct:     {"CreateProduct", ClassAdminOnly, "Create products"},
	UpdateProduct:     {"UpdateProduct", ClassAdminOnly, "Update products"},
	RemoveProduct:     {"RemoveProduct", ClassAdminOnly, "Delete products"},
}

// Fails to compile unless the table has exactly one row per Scope constant.
var _ = [1]struct{}{}[len(catalog)-int(numScopes)]

var (
	all       []Scope
	defaults  []Scope
	adminOnly []Scope
	byName    = make(map[string]Scope, len(catalog))
)

func init() {
	for i, e := range catalog {
		s := Scope(i)
		if e.name == "" || e.class == 0 {
			panic(fmt.Sprintf("scope: catalog entry %d is incomplete", i))
		}
		if _, dup := byName[e.name]; dup {
			panic(fmt.Sprintf("scope: duplicate catalog name %q", e.name))
		}
		byName[e.name] = s
		all = append(all, s)
		if e.class == ClassAdminOnly {
			adminOnly = append(adminOnly, s)
		} else {
			defaults = append(defaults, s)
		}
	}
}

// All returns every scope in catalog order.
func All() []Scope { return append([]Scope(nil), all...) }

// Defaults returns the scopes granted to every member, in catalog order.
func Defaults() []Scope { return append([]Scope(nil), defaults...) }

// AdminOnly returns the scopes granted automatically only to admins, in catalog order.
func AdminOnly() []Scope { return append([]Scope(nil), adminOnly...) }

// Parse returns the scope whose canonical name is exactly name.
func Parse(name string) (Scope, error) {
	s, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownScope, name)
	}
	return s, nil
}

// Valid reports whether s is a catalog entry.
func (s Scope) Valid() bool { return s < numScopes }

// String returns the canonical name.
func (s Scope) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scope(%d)", uint8(s))
	}
	return catalog[s].name
}

// Class returns the grant classification of s.
func (s Scope) Class() Class {
	if !s.Valid() {
		return 0
	}
	return catalog[s].class
}

// Description returns the human readable description of s.
func (s Scope) Description() string {
	if !s.Valid() {
		return ""
	}
	return catalog[s].description
}
