package ports

import (
	"context"

	"taller-access/internal/domain"
)

type IdentitySource interface {
	FetchIdentity(ctx context.Context, token string) (domain.IdentityGrant, error)
}

type CredentialStore interface {
	Current() (domain.Credential, bool)
	Set(cred domain.Credential)
	Clear()
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Credential, error)
}

type RoleRepository interface {
	GetByID(ctx context.Context, roleID string) (domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	UpdatePermissions(ctx context.Context, role domain.Role) error
}

type PermissionCatalog interface {
	List(ctx context.Context) ([]domain.CatalogEntry, error)
}

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}
