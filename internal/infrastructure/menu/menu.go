package menu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"taller-access/internal/domain"
)

type file struct {
	Items []domain.MenuItem `yaml:"items"`
}

// Default is the sidebar used when no menu file is configured.
func Default() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: "dashboard", Label: "Inicio", Path: "/", AlwaysVisible: true},
		{ID: "empleados", Label: "Empleados", Path: "/empleados", Module: "empleados"},
		{ID: "clientes", Label: "Clientes", Path: "/clientes", Module: "clientes"},
		{ID: "motos", Label: "Motos", Path: "/motos", Module: "motos"},
		{ID: "diagnosticos", Label: "Diagnósticos", Path: "/diagnosticos", Module: "diagnosticos"},
		{ID: "proformas", Label: "Proformas", Path: "/proformas", Module: "proformas"},
		{ID: "horarios", Label: "Horarios", Path: "/horarios", Module: "horarios"},
		{ID: "ordenes_trabajo", Label: "Órdenes de trabajo", Path: "/ordenes-trabajo", Module: "ordenes_trabajo"},
		{ID: "comisiones", Label: "Comisiones", Path: "/comisiones", Module: "comisiones"},
		{ID: "herramientas", Label: "Herramientas", Path: "/herramientas", Module: "herramientas"},
		{ID: "usuarios", Label: "Usuarios", Path: "/usuarios", Module: "usuarios"},
		{ID: "roles", Label: "Roles y permisos", Path: "/roles", Module: "roles"},
		{ID: "auditoria", Label: "Auditoría", Path: "/auditoria", Module: "auditoria"},
		{ID: "perfil", Label: "Mi perfil", Path: "/perfil", AlwaysVisible: true},
	}
}

// Load reads a menu file, or returns Default when path is empty.
func Load(path string) ([]domain.MenuItem, error) {
	if path == "" {
		return Default(), nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu %s: %w", path, err)
	}
	return Parse(contents)
}

func Parse(contents []byte) ([]domain.MenuItem, error) {
	var f file
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return nil, fmt.Errorf("%w: menu: %v", domain.ErrInvalidInput, err)
	}
	if err := validate(f.Items); err != nil {
		return nil, err
	}
	return f.Items, nil
}

func validate(items []domain.MenuItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: menu has no items", domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: menu item %d has no id", domain.ErrInvalidInput, i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate menu item %q", domain.ErrInvalidInput, item.ID)
		}
		seen[item.ID] = struct{}{}
		if !item.AlwaysVisible && item.Module == "" {
			return fmt.Errorf("%w: menu item %q needs a module or always_visible", domain.ErrInvalidInput, item.ID)
		}
	}
	return nil
}
