package domain

import "sort"

// PermissionSet is an immutable set of permission tokens.
type PermissionSet struct {
	tokens map[string]struct{}
}

func NewPermissionSet(tokens ...string) PermissionSet {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return PermissionSet{tokens: set}
}

func (s PermissionSet) Has(token string) bool {
	_, ok := s.tokens[token]
	return ok
}

func (s PermissionSet) HasAny(tokens ...string) bool {
	for _, t := range tokens {
		if s.Has(t) {
			return true
		}
	}
	return false
}

func (s PermissionSet) Len() int { return len(s.tokens) }

// List returns the tokens sorted.
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Snapshot is the state of the permission store at one point in time. It is
// never modified after being published.
type Snapshot struct {
	Identity    *Identity
	Permissions PermissionSet
	Loading     bool
}

// LoadingSnapshot is the state before any fetch has completed.
func LoadingSnapshot() Snapshot {
	return Snapshot{Permissions: NewPermissionSet(), Loading: true}
}

// EmptySnapshot is the fail-closed state after a failed or credential-less fetch.
func EmptySnapshot() Snapshot {
	return Snapshot{Permissions: NewPermissionSet()}
}

func (s Snapshot) Role() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Ready reports whether the snapshot can grant anything at all.
func (s Snapshot) Ready() bool {
	return !s.Loading && s.Role() != ""
}
