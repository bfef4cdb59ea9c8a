package domain

import "time"

type Identity struct {
	UserID     string         `json:"user_id"`
	Username   string         `json:"username"`
	Email      string         `json:"email"`
	Role       string         `json:"role"`
	EmployeeCI string         `json:"empleado_ci,omitempty"`
	Employee   map[string]any `json:"empleado,omitempty"`
}

// IdentityGrant is what the backend answers for the authenticated credential.
type IdentityGrant struct {
	Identity    Identity
	Permissions []string
}

type Credential struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type MenuItem struct {
	ID            string `json:"id" yaml:"id"`
	Label         string `json:"label" yaml:"label"`
	Path          string `json:"path" yaml:"path"`
	Module        string `json:"module,omitempty" yaml:"module"`
	AlwaysVisible bool   `json:"always_visible,omitempty" yaml:"always_visible"`
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
