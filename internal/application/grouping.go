package application

import (
	"sort"

	"taller-access/internal/domain"
)

// GroupByModule partitions a permission catalog by module. Groups and the
// tokens inside them keep first-appearance order; duplicates are dropped.
func GroupByModule(catalog []string) []domain.ModuleGroup {
	index := map[string]int{}
	seen := map[string]struct{}{}
	var groups []domain.ModuleGroup
	for _, token := range catalog {
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		module := domain.ModuleOf(token)
		i, ok := index[module]
		if !ok {
			i = len(groups)
			index[module] = i
			groups = append(groups, domain.ModuleGroup{Module: module})
		}
		groups[i].Permissions = append(groups[i].Permissions, token)
	}
	return groups
}

func findGroup(groups []domain.ModuleGroup, module string) (domain.ModuleGroup, bool) {
	for _, g := range groups {
		if g.Module == module {
			return g, true
		}
	}
	return domain.ModuleGroup{}, false
}

// Selection is an immutable set of selected permission tokens.
type Selection struct {
	set domain.PermissionSet
}

func NewSelection(tokens ...string) Selection {
	return Selection{set: domain.NewPermissionSet(tokens...)}
}

func (s Selection) Has(token string) bool { return s.set.Has(token) }

func (s Selection) Len() int { return s.set.Len() }

func (s Selection) Tokens() []string { return s.set.List() }

// SelectModule returns the union of s and every token of group.
func (s Selection) SelectModule(group domain.ModuleGroup) Selection {
	tokens := append(s.set.List(), group.Permissions...)
	return NewSelection(tokens...)
}

// DeselectModule returns s without any token of group.
func (s Selection) DeselectModule(group domain.ModuleGroup) Selection {
	drop := domain.NewPermissionSet(group.Permissions...)
	kept := make([]string, 0, s.set.Len())
	for _, t := range s.set.List() {
		if !drop.Has(t) {
			kept = append(kept, t)
		}
	}
	return NewSelection(kept...)
}

func (s Selection) Toggle(token string) Selection {
	if s.Has(token) {
		return s.DeselectModule(domain.ModuleGroup{Permissions: []string{token}})
	}
	return NewSelection(append(s.set.List(), token)...)
}

// ToggleModule selects the whole group unless it is already fully checked, in
// which case it clears it.
func (s Selection) ToggleModule(group domain.ModuleGroup) Selection {
	if s.Summarize(group).State == domain.GroupChecked {
		return s.DeselectModule(group)
	}
	return s.SelectModule(group)
}

func (s Selection) Summarize(group domain.ModuleGroup) domain.ModuleSelection {
	selected := make([]string, 0, len(group.Permissions))
	var nonCanonical []string
	for _, t := range group.Permissions {
		if s.Has(t) {
			selected = append(selected, t)
		}
		if !domain.IsCanonical(t) {
			nonCanonical = append(nonCanonical, t)
		}
	}
	sort.Strings(selected)
	return domain.ModuleSelection{
		Module:       group.Module,
		Permissions:  group.Permissions,
		Selected:     selected,
		Total:        len(group.Permissions),
		State:        domain.GroupStateFor(len(selected), len(group.Permissions)),
		NonCanonical: nonCanonical,
	}
}

func (s Selection) SummarizeAll(groups []domain.ModuleGroup) []domain.ModuleSelection {
	out := make([]domain.ModuleSelection, 0, len(groups))
	for _, g := range groups {
		out = append(out, s.Summarize(g))
	}
	return out
}
