package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"taller-access/internal/domain"
)

type Mode string

const (
	ModeNone Mode = "none"
	ModeJWKS Mode = "jwks"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeJWKS:
		return ModeJWKS, nil
	default:
		return "", fmt.Errorf("%w: auth mode %q", domain.ErrInvalidInput, value)
	}
}

// CredentialStore keeps the bearer credential of the current session.
type CredentialStore struct {
	mu   sync.RWMutex
	cred *domain.Credential
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Current() (domain.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return domain.Credential{}, false
	}
	return *s.cred, true
}

func (s *CredentialStore) Set(cred domain.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
}

func (s *CredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
}

// PassthroughVerifier accepts any non-empty token; the backend stays the
// authority. JWT claims are read without verification to learn the expiry.
type PassthroughVerifier struct{}

func (PassthroughVerifier) Verify(_ context.Context, token string) (domain.Credential, error) {
	if token == "" {
		return domain.Credential{}, domain.ErrInvalidInput
	}
	return ParseCredential(token), nil
}

// ParseCredential reads sub and exp from a JWT without checking its signature.
// Opaque tokens yield a credential that never expires locally.
func ParseCredential(token string) domain.Credential {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.Credential{Token: token}
	}
	return credentialFromClaims(token, claims)
}

func credentialFromClaims(token string, claims jwt.MapClaims) domain.Credential {
	cred := domain.Credential{Token: token}
	if sub, err := claims.GetSubject(); err == nil {
		cred.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cred.ExpiresAt = exp.Time
	}
	return cred
}
