package application

import "taller-access/internal/domain"

type ViewSource interface {
	View() View
}

// Gate decides which UI affordances are rendered. It keeps no state; each
// call evaluates against one snapshot taken at call time.
type Gate struct {
	source ViewSource
}

func NewGate(source ViewSource) Gate {
	return Gate{source: source}
}

func (g Gate) Allows(token string) bool {
	return g.source.View().HasPermission(token)
}

func (g Gate) AllowsAny(tokens ...string) bool {
	return g.source.View().HasAnyPermission(tokens...)
}

func (g Gate) ModuleVisible(module string) bool {
	return g.source.View().CanAccessModule(module)
}

func (g Gate) FilterMenu(items []domain.MenuItem) []domain.MenuItem {
	return FilterMenu(g.source.View(), items)
}

// FilterMenu keeps the items that are always visible or whose module the view
// can access. Input order is preserved.
func FilterMenu(v View, items []domain.MenuItem) []domain.MenuItem {
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if item.AlwaysVisible || v.CanAccessModule(item.Module) {
			out = append(out, item)
		}
	}
	return out
}
