package scope

import "strings"

// Set is an immutable set of scopes. The zero value is the empty set.
type Set uint64

// NewSet returns the set holding scopes. Invalid scopes are ignored.
func NewSet(scopes ...Scope) Set {
	var set Set
	for _, s := range scopes {
		set = set.With(s)
	}
	return set
}

// Full returns the set of every catalog scope.
func Full() Set { return NewSet(all...) }

// Has reports whether s is in the set.
func (set Set) Has(s Scope) bool {
	return s.Valid() && set&(1<<s) != 0
}

// With returns the set with s added.
func (set Set) With(s Scope) Set {
	if !s.Valid() {
		return set
	}
	return set | 1<<s
}

// Without returns the set with s removed.
func (set Set) Without(s Scope) Set {
	if !s.Valid() {
		return set
	}
	return set &^ (1 << s)
}

// Union returns the scopes in either set.
func (set Set) Union(other Set) Set { return set | other }

// Len returns the number of scopes in the set.
func (set Set) Len() int {
	n := 0
	for _, s := range all {
		if set.Has(s) {
			n++
		}
	}
	return n
}

// Slice returns the members in catalog order.
func (set Set) Slice() []Scope {
	out := make([]Scope, 0, len(all))
	for _, s := range all {
		if set.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Names returns the canonical names of the members in catalog order.
func (set Set) Names() []string {
	members := set.Slice()
	out := make([]string, len(members))
	for i, s := range members {
		out[i] = s.String()
	}
	return out
}

func (set Set) String() string {
	return "{" + strings.Join(set.Names(), ",") + "}"
}
