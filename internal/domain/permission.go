package domain

import "strings"

// Canonical actions. Module-level visibility only considers these four.
const (
	ActionView   = "ver"
	ActionCreate = "crear"
	ActionEdit   = "editar"
	ActionDelete = "eliminar"
)

// OtherModule collects tokens that carry no module prefix.
const OtherModule = "otros"

const separator = ":"

// CanonicalActions returns the actions consulted for module access, in a fresh slice.
func CanonicalActions() []string {
	return []string{ActionView, ActionCreate, ActionEdit, ActionDelete}
}

// Token builds the "<module>:<action>" form of a permission.
func Token(module, action string) string {
	return module + separator + action
}

// Permission is a parsed permission token: either Scoped or Legacy.
type Permission interface {
	String() string
	permission()
}

// Scoped is a token of the form "<module>:<action>". The action keeps any
// further colons verbatim.
type Scoped struct {
	Module string
	Action string
}

func (p Scoped) String() string { return Token(p.Module, p.Action) }
func (Scoped) permission()       {}

// Legacy is a token with no usable module prefix.
type Legacy struct {
	Raw string
}

func (p Legacy) String() string { return p.Raw }
func (Legacy) permission()       {}

// ParsePermission splits token on its first colon. Tokens without a colon, or
// with an empty module part, are Legacy.
func ParsePermission(token string) Permission {
	module, action, found := strings.Cut(token, separator)
	if !found || module == "" {
		return Legacy{Raw: token}
	}
	return Scoped{Module: module, Action: action}
}

// ModuleOf returns the grouping module of a token.
func ModuleOf(token string) string {
	switch p := ParsePermission(token).(type) {
	case Scoped:
		return p.Module
	case Legacy:
		return OtherModule
	default:
		return OtherModule
	}
}

// IsCanonical reports whether token participates in module-level visibility.
func IsCanonical(token string) bool {
	p, ok := ParsePermission(token).(Scoped)
	if !ok {
		return false
	}
	switch p.Action {
	case ActionView, ActionCreate, ActionEdit, ActionDelete:
		return true
	}
	return false
}
