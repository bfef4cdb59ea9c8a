package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"taller-access/internal/domain"
	"taller-access/internal/ports"
)

type Authenticator interface {
	OnAuthenticated(ctx context.Context) domain.Snapshot
	Reset()
}

type SessionService struct {
	creds    ports.CredentialStore
	verifier ports.TokenVerifier
	store    Authenticator
	logger   ports.Logger
}

func NewSessionService(creds ports.CredentialStore, verifier ports.TokenVerifier, store Authenticator, logger ports.Logger) *SessionService {
	return &SessionService{creds: creds, verifier: verifier, store: store, logger: logger}
}

const bearerPrefix = "Bearer "

// Login stores the credential handed over by the login screen and reloads
// permissions for it.
func (s *SessionService) Login(ctx context.Context, token string) (domain.Snapshot, error) {
	token = strings.TrimSpace(token)
	if len(token) >= len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		token = strings.TrimSpace(token[len(bearerPrefix):])
	}
	if token == "" {
		return domain.Snapshot{}, domain.ErrInvalidInput
	}
	cred, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Info(ctx, "credential rejected at login", "error", err)
		return domain.Snapshot{}, err
	}
	s.creds.Set(cred)
	snap := s.store.OnAuthenticated(ctx)
	s.logger.Info(ctx, "session established", "subject", cred.Subject, "role", snap.Role())
	return snap, nil
}

func (s *SessionService) Logout(ctx context.Context) {
	s.creds.Clear()
	s.store.Reset()
	s.logger.Info(ctx, "session closed")
}

// RoleDraft is a role together with the grouped catalog and the selection
// state of each module.
type RoleDraft struct {
	Role    domain.Role              `json:"role"`
	Modules []domain.ModuleSelection `json:"modules"`
}

type RoleEditorService struct {
	roles   ports.RoleRepository
	catalog ports.PermissionCatalog
	logger  ports.Logger
}

func NewRoleEditorService(roles ports.RoleRepository, catalog ports.PermissionCatalog, logger ports.Logger) *RoleEditorService {
	return &RoleEditorService{roles: roles, catalog: catalog, logger: logger}
}

func (s *RoleEditorService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleEditorService) Load(ctx context.Context, roleID string) (RoleDraft, error) {
	role, groups, err := s.load(ctx, roleID)
	if err != nil {
		return RoleDraft{}, err
	}
	return draft(role, groups, NewSelection(role.Permissions...)), nil
}

func (s *RoleEditorService) SelectModule(ctx context.Context, roleID, module string) (RoleDraft, error) {
	return s.editModule(ctx, roleID, module, Selection.SelectModule)
}

func (s *RoleEditorService) DeselectModule(ctx context.Context, roleID, module string) (RoleDraft, error) {
	return s.editModule(ctx, roleID, module, Selection.DeselectModule)
}

// SetPermissions replaces the permissions of a role. Every token must exist in
// the catalog.
func (s *RoleEditorService) SetPermissions(ctx context.Context, roleID string, tokens []string) (RoleDraft, error) {
	role, groups, err := s.load(ctx, roleID)
	if err != nil {
		return RoleDraft{}, err
	}
	if err := requireCataloged(groups, tokens...); err != nil {
		return RoleDraft{}, err
	}
	return s.save(ctx, role, groups, NewSelection(tokens...))
}

// TogglePermission flips a single catalog permission on the role.
func (s *RoleEditorService) TogglePermission(ctx context.Context, roleID, token string) (RoleDraft, error) {
	if token == "" {
		return RoleDraft{}, domain.ErrInvalidInput
	}
	role, groups, err := s.load(ctx, roleID)
	if err != nil {
		return RoleDraft{}, err
	}
	if err := requireCataloged(groups, token); err != nil {
		return RoleDraft{}, err
	}
	return s.save(ctx, role, groups, NewSelection(role.Permissions...).Toggle(token))
}

// ToggleModule is the module checkbox: a fully checked module is cleared,
// anything else gets every permission of the module.
func (s *RoleEditorService) ToggleModule(ctx context.Context, roleID, module string) (RoleDraft, error) {
	return s.editModule(ctx, roleID, module, Selection.ToggleModule)
}

func requireCataloged(groups []domain.ModuleGroup, tokens ...string) error {
	known := map[string]struct{}{}
	for _, g := range groups {
		for _, t := range g.Permissions {
			known[t] = struct{}{}
		}
	}
	for _, t := range tokens {
		if _, ok := known[t]; !ok {
			return fmt.Errorf("%w: unknown permission %q", domain.ErrInvalidInput, t)
		}
	}
	return nil
}

func (s *RoleEditorService) editModule(ctx context.Context, roleID, module string, edit func(Selection, domain.ModuleGroup) Selection) (RoleDraft, error) {
	if module == "" {
		return RoleDraft{}, domain.ErrInvalidInput
	}
	role, groups, err := s.load(ctx, roleID)
	if err != nil {
		return RoleDraft{}, err
	}
	group, ok := findGroup(groups, module)
	if !ok {
		return RoleDraft{}, fmt.Errorf("%w: module %q", domain.ErrNotFound, module)
	}
	return s.save(ctx, role, groups, edit(NewSelection(role.Permissions...), group))
}

func (s *RoleEditorService) save(ctx context.Context, role domain.Role, groups []domain.ModuleGroup, sel Selection) (RoleDraft, error) {
	role.Permissions = sel.Tokens()
	role.UpdatedAt = time.Now().UTC()
	if err := s.roles.UpdatePermissions(ctx, role); err != nil {
		return RoleDraft{}, err
	}
	s.logger.Info(ctx, "role permissions updated", "role_id", role.ID, "count", len(role.Permissions))
	return draft(role, groups, sel), nil
}

func (s *RoleEditorService) load(ctx context.Context, roleID string) (domain.Role, []domain.ModuleGroup, error) {
	if roleID == "" {
		return domain.Role{}, nil, domain.ErrInvalidInput
	}
	var (
		role    domain.Role
		entries []domain.CatalogEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		role, err = s.roles.GetByID(gctx, roleID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.catalog.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Role{}, nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return role, GroupByModule(names), nil
}

func draft(role domain.Role, groups []domain.ModuleGroup, sel Selection) RoleDraft {
	role.Permissions = sel.Tokens()
	return RoleDraft{Role: role, Modules: sel.SummarizeAll(groups)}
}
