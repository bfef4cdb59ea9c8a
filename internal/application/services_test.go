package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"taller-access/internal/domain"
)

type roleRepoMock struct{ mock.Mock }

func (m *roleRepoMock) GetByID(ctx context.Context, roleID string) (domain.Role, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).(domain.Role), args.Error(1)
}

func (m *roleRepoMock) List(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *roleRepoMock) UpdatePermissions(ctx context.Context, role domain.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

type catalogMock struct{ mock.Mock }

func (m *catalogMock) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CatalogEntry), args.Error(1)
}

type verifierMock struct{ mock.Mock }

func (m *verifierMock) Verify(ctx context.Context, token string) (domain.Credential, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Credential), args.Error(1)
}

type authenticatorMock struct{ mock.Mock }

func (m *authenticatorMock) OnAuthenticated(ctx context.Context) domain.Snapshot {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot)
}

func (m *authenticatorMock) Reset() { m.Called() }

func catalogEntries(names ...string) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(names))
	for _, n := range names {
		out = append(out, domain.CatalogEntry{ID: n, Name: n})
	}
	return out
}

func newEditor(role domain.Role) (*RoleEditorService, *roleRepoMock) {
	roles := new(roleRepoMock)
	catalog := new(catalogMock)
	roles.On("GetByID", mock.Anything, role.ID).Return(role, nil)
	catalog.On("List", mock.Anything).Return(catalogEntries("clientes:ver", "clientes:crear", "clientes:eliminar", "roles:ver", "legacy_perm"), nil)
	return NewRoleEditorService(roles, catalog, nopLogger{}), roles
}

func moduleState(d RoleDraft, module string) domain.ModuleSelection {
	for _, m := range d.Modules {
		if m.Module == module {
			return m
		}
	}
	return domain.ModuleSelection{}
}

func TestRoleEditorService_Load(t *testing.T) {
	svc, _ := newEditor(domain.Role{ID: "r1", Name: "Recepcionista", Permissions: []string{"clientes:ver", "clientes:crear"}})

	d, err := svc.Load(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, d.Modules, 3)
	assert.Equal(t, domain.GroupIndeterminate, moduleState(d, "clientes").State)
	assert.Equal(t, domain.GroupUnchecked, moduleState(d, "roles").State)
	assert.Equal(t, 1, moduleState(d, domain.OtherModule).Total)
}

func TestRoleEditorService_SelectThenDeselectModule(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1", Permissions: []string{"clientes:ver", "clientes:crear", "roles:ver"}})
	roles.On("UpdatePermissions", mock.Anything, mock.MatchedBy(func(r domain.Role) bool {
		return r.ID == "r1" && len(r.Permissions) == 4 && !r.UpdatedAt.IsZero()
	})).Return(nil).Once()

	d, err := svc.SelectModule(context.Background(), "r1", "clientes")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupChecked, moduleState(d, "clientes").State)
	assert.Equal(t, []string{"clientes:crear", "clientes:eliminar", "clientes:ver", "roles:ver"}, d.Role.Permissions)

	roles.On("UpdatePermissions", mock.Anything, mock.MatchedBy(func(r domain.Role) bool {
		return r.ID == "r1" && len(r.Permissions) == 1 && r.Permissions[0] == "roles:ver"
	})).Return(nil).Once()

	d, err = svc.DeselectModule(context.Background(), "r1", "clientes")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupUnchecked, moduleState(d, "clientes").State)
	roles.AssertExpectations(t)
}

func TestRoleEditorService_UnknownModule(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1"})

	_, err := svc.SelectModule(context.Background(), "r1", "inventario")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	roles.AssertNotCalled(t, "UpdatePermissions", mock.Anything, mock.Anything)
}

func TestRoleEditorService_SetPermissionsRejectsUnknownTokens(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1"})

	_, err := svc.SetPermissions(context.Background(), "r1", []string{"clientes:ver", "no:existe"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	roles.AssertNotCalled(t, "UpdatePermissions", mock.Anything, mock.Anything)
}

func TestRoleEditorService_SetPermissions(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1", Permissions: []string{"roles:ver"}})
	roles.On("UpdatePermissions", mock.Anything, mock.Anything).Return(nil).Once()

	d, err := svc.SetPermissions(context.Background(), "r1", []string{"legacy_perm", "clientes:ver"})
	require.NoError(t, err)
	assert.Equal(t, []string{"clientes:ver", "legacy_perm"}, d.Role.Permissions)
	assert.Equal(t, domain.GroupChecked, moduleState(d, domain.OtherModule).State)
}

func TestRoleEditorService_PropagatesRepositoryErrors(t *testing.T) {
	roles := new(roleRepoMock)
	catalog := new(catalogMock)
	expectedErr := errors.New("db down")
	roles.On("GetByID", mock.Anything, "r1").Return(domain.Role{}, expectedErr)
	catalog.On("List", mock.Anything).Return([]domain.CatalogEntry{}, nil)
	svc := NewRoleEditorService(roles, catalog, nopLogger{})

	_, err := svc.Load(context.Background(), "r1")
	assert.ErrorIs(t, err, expectedErr)
}

func TestRoleEditorService_InvalidInput(t *testing.T) {
	svc := NewRoleEditorService(new(roleRepoMock), new(catalogMock), nopLogger{})

	_, err := svc.Load(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.SelectModule(context.Background(), "r1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_Login(t *testing.T) {
	creds := &memCreds{}
	verifier := new(verifierMock)
	store := new(authenticatorMock)
	cred := domain.Credential{Token: "abc", Subject: "u1"}
	verifier.On("Verify", mock.Anything, "abc").Return(cred, nil)
	store.On("OnAuthenticated", mock.Anything).Return(domain.Snapshot{Identity: &domain.Identity{Role: "Recepcionista"}})
	svc := NewSessionService(creds, verifier, store, nopLogger{})

	snap, err := svc.Login(context.Background(), "Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "Recepcionista", snap.Role())
	got, ok := creds.Current()
	require.True(t, ok)
	assert.Equal(t, cred, got)
	store.AssertExpectations(t)
}

func TestSessionService_LoginRejected(t *testing.T) {
	creds := &memCreds{}
	verifier := new(verifierMock)
	store := new(authenticatorMock)
	verifier.On("Verify", mock.Anything, "bad").Return(domain.Credential{}, domain.ErrUnauthorized)
	svc := NewSessionService(creds, verifier, store, nopLogger{})

	_, err := svc.Login(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, ok := creds.Current()
	assert.False(t, ok)
	store.AssertNotCalled(t, "OnAuthenticated", mock.Anything)

	_, err = svc.Login(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_Logout(t *testing.T) {
	creds := credsWith("abc")
	store := new(authenticatorMock)
	store.On("Reset").Return()
	svc := NewSessionService(creds, new(verifierMock), store, nopLogger{})

	svc.Logout(context.Background())
	_, ok := creds.Current()
	assert.False(t, ok)
	store.AssertExpectations(t)
}

func TestRoleEditorService_TogglePermission(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1", Permissions: []string{"clientes:ver"}})
	roles.On("UpdatePermissions", mock.Anything, mock.MatchedBy(func(r domain.Role) bool {
		return len(r.Permissions) == 2
	})).Return(nil).Once()

	d, err := svc.TogglePermission(context.Background(), "r1", "roles:ver")
	require.NoError(t, err)
	assert.Equal(t, []string{"clientes:ver", "roles:ver"}, d.Role.Permissions)
	assert.Equal(t, domain.GroupChecked, moduleState(d, "roles").State)
	roles.AssertExpectations(t)
}

func TestRoleEditorService_TogglePermissionOff(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1", Permissions: []string{"clientes:ver", "clientes:crear"}})
	roles.On("UpdatePermissions", mock.Anything, mock.Anything).Return(nil).Once()

	d, err := svc.TogglePermission(context.Background(), "r1", "clientes:ver")
	require.NoError(t, err)
	assert.Equal(t, []string{"clientes:crear"}, d.Role.Permissions)
	assert.Equal(t, domain.GroupIndeterminate, moduleState(d, "clientes").State)
}

func TestRoleEditorService_TogglePermissionRejectsUnknownToken(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1"})

	_, err := svc.TogglePermission(context.Background(), "r1", "inventario:ver")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.TogglePermission(context.Background(), "r1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	roles.AssertNotCalled(t, "UpdatePermissions", mock.Anything, mock.Anything)
}

func TestRoleEditorService_ToggleModule(t *testing.T) {
	svc, roles := newEditor(domain.Role{ID: "r1", Permissions: []string{"clientes:ver", "clientes:crear", "clientes:eliminar"}})
	roles.On("UpdatePermissions", mock.Anything, mock.Anything).Return(nil).Once()

	d, err := svc.ToggleModule(context.Background(), "r1", "clientes")
	require.NoError(t, err)
	assert.Empty(t, d.Role.Permissions)
	assert.Equal(t, domain.GroupUnchecked, moduleState(d, "clientes").State)
}

func TestSessionService_LoginKeepsTokensThatStartWithBearer(t *testing.T) {
	creds := &memCreds{}
	verifier := new(verifierMock)
	store := new(authenticatorMock)
	verifier.On("Verify", mock.Anything, "BearerTok123").Return(domain.Credential{Token: "BearerTok123"}, nil).Once()
	verifier.On("Verify", mock.Anything, "xyz").Return(domain.Credential{Token: "xyz"}, nil).Once()
	store.On("OnAuthenticated", mock.Anything).Return(domain.EmptySnapshot())
	svc := NewSessionService(creds, verifier, store, nopLogger{})

	_, err := svc.Login(context.Background(), "BearerTok123")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "bearer   xyz")
	require.NoError(t, err)
	verifier.AssertExpectations(t)
}
