package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taller-access/internal/infrastructure/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BACKEND_URL", "PORT", "LOG_LEVEL", "AUTH_MODE", "JWKS_URL", "BACKEND_IDENTITY_PATH",
		"BACKEND_TIMEOUT", "ADMIN_ROLE", "MENU_FILE", "TABLE_NAME", "AWS_REGION"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://backend.local/api")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/auth/me", cfg.BackendIdentityPath)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "Administrador", cfg.AdminRole)
	assert.Equal(t, auth.ModeNone, cfg.mode())
	assert.False(t, cfg.roleEditorEnabled())
}

func TestLoadConfig_RequiresBackendURL(t *testing.T) {
	clearEnv(t)

	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("BACKEND_URL", " ")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_JWKSNeedsURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("AUTH_MODE", "jwks")

	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("JWKS_URL", "https://issuer.local/.well-known/jwks.json")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, auth.ModeJWKS, cfg.mode())
}

func TestLoadConfig_RejectsUnknownAuthMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("AUTH_MODE", "cognito")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RoleEditorStorage(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("TABLE_NAME", "taller-rbac")

	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("AWS_REGION", "us-east-1")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.roleEditorEnabled())
}
