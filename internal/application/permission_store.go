package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"taller-access/internal/domain"
	"taller-access/internal/ports"
)

const DefaultAdminRole = "Administrador"

// View answers capability queries against a single snapshot. It is safe to
// keep across calls; it never observes later fetches.
type View struct {
	snap      domain.Snapshot
	adminRole string
}

func NewView(snap domain.Snapshot, adminRole string) View {
	return View{snap: snap, adminRole: adminRole}
}

func (v View) Snapshot() domain.Snapshot { return v.snap }

func (v View) IsAdmin() bool {
	return v.snap.Ready() && v.snap.Role() == v.adminRole
}

func (v View) HasRole(name string) bool {
	return v.snap.Ready() && v.snap.Role() == name
}

func (v View) HasAnyRole(names ...string) bool {
	for _, name := range names {
		if v.HasRole(name) {
			return true
		}
	}
	return false
}

func (v View) HasPermission(token string) bool {
	if !v.snap.Ready() {
		return false
	}
	if v.IsAdmin() {
		return true
	}
	return v.snap.Permissions.Has(token)
}

func (v View) HasAnyPermission(tokens ...string) bool {
	if !v.snap.Ready() {
		return false
	}
	if v.IsAdmin() {
		return true
	}
	return v.snap.Permissions.HasAny(tokens...)
}

func (v View) CanAccessModule(module string) bool {
	if v.IsAdmin() {
		return true
	}
	actions := domain.CanonicalActions()
	tokens := make([]string, 0, len(actions))
	for _, action := range actions {
		tokens = append(tokens, domain.Token(module, action))
	}
	return v.HasAnyPermission(tokens...)
}

// PermissionStore holds the process-wide permission snapshot. Refetch and
// Reset are the only writers; every query reads the latest published snapshot
// without blocking.
type PermissionStore struct {
	source    ports.IdentitySource
	creds     ports.CredentialStore
	logger    ports.Logger
	adminRole string
	now       func() time.Time

	current atomic.Pointer[domain.Snapshot]
	issued  atomic.Uint64

	mu      sync.Mutex
	applied uint64
}

type StoreOption func(*PermissionStore)

func WithAdminRole(role string) StoreOption {
	return func(s *PermissionStore) {
		if role != "" {
			s.adminRole = role
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *PermissionStore) { s.now = now }
}

func NewPermissionStore(source ports.IdentitySource, creds ports.CredentialStore, logger ports.Logger, opts ...StoreOption) *PermissionStore {
	s := &PermissionStore{
		source:    source,
		creds:     creds,
		logger:    logger,
		adminRole: DefaultAdminRole,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	initial := domain.LoadingSnapshot()
	s.current.Store(&initial)
	return s
}

func (s *PermissionStore) AdminRole() string { return s.adminRole }

func (s *PermissionStore) View() View {
	return NewView(*s.current.Load(), s.adminRole)
}

func (s *PermissionStore) Snapshot() domain.Snapshot { return *s.current.Load() }

func (s *PermissionStore) IsAdmin() bool                      { return s.View().IsAdmin() }
func (s *PermissionStore) HasRole(name string) bool           { return s.View().HasRole(name) }
func (s *PermissionStore) HasAnyRole(names ...string) bool    { return s.View().HasAnyRole(names...) }
func (s *PermissionStore) HasPermission(token string) bool    { return s.View().HasPermission(token) }
func (s *PermissionStore) HasAnyPermission(t ...string) bool  { return s.View().HasAnyPermission(t...) }
func (s *PermissionStore) CanAccessModule(module string) bool { return s.View().CanAccessModule(module) }

// Refetch loads the identity and permissions for the stored credential and
// publishes the result. Failures publish an empty snapshot and are only
// logged. A response is dropped when a newer Refetch or a Reset has already
// been applied. The returned snapshot is the one current after this call.
func (s *PermissionStore) Refetch(ctx context.Context) domain.Snapshot {
	seq := s.issued.Add(1)
	next := s.load(ctx)
	if !s.apply(seq, next) {
		s.logger.Debug(ctx, "discarded stale permission response", "sequence", seq)
	}
	return s.Snapshot()
}

// OnAuthenticated is called by the login flow once a new credential is stored.
func (s *PermissionStore) OnAuthenticated(ctx context.Context) domain.Snapshot {
	return s.Refetch(ctx)
}

// Reset returns the store to its start-up state and invalidates any fetch
// still in flight.
func (s *PermissionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = s.issued.Add(1)
	initial := domain.LoadingSnapshot()
	s.current.Store(&initial)
}

func (s *PermissionStore) apply(seq uint64, next domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return false
	}
	s.applied = seq
	s.current.Store(&next)
	return true
}

func (s *PermissionStore) load(ctx context.Context) domain.Snapshot {
	cred, ok := s.creds.Current()
	if !ok || cred.Token == "" {
		s.logger.Info(ctx, "no credential stored, permissions empty")
		return domain.EmptySnapshot()
	}
	if cred.Expired(s.now()) {
		s.creds.Clear()
		s.logger.Info(ctx, "credential expired, permissions empty", "expires_at", cred.ExpiresAt)
		return domain.EmptySnapshot()
	}
	grant, err := s.source.FetchIdentity(ctx, cred.Token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.creds.Clear()
			s.logger.Info(ctx, "credential rejected by backend, permissions empty")
			return domain.EmptySnapshot()
		}
		s.logger.Warn(ctx, "permission fetch failed", "error", err)
		return domain.EmptySnapshot()
	}
	identity := grant.Identity
	return domain.Snapshot{
		Identity:    &identity,
		Permissions: domain.NewPermissionSet(grant.Permissions...),
	}
}
