package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "studynotes.db", cfg.DBPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderLocal, cfg.AuthProvider)
	assert.Equal(t, []string{"admin123@gmail.com"}, cfg.AdminEmails)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SQLITE_DB", "/tmp/notes.db")
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_EMAILS", "a@example.com,b@example.com")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/notes.db", cfg.DBPath)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoad_FirebaseNeedsAPIKey(t *testing.T) {
	t.Setenv("AUTH_PROVIDER", "firebase")
	t.Setenv("FIREBASE_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("FIREBASE_API_KEY", "key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderFirebase, cfg.AuthProvider)
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := NewForTesting()
	cfg.AuthProvider = "ldap"
	assert.Error(t, cfg.Validate())
}

func TestRequireSession(t *testing.T) {
	cfg := NewForTesting()
	assert.NoError(t, cfg.RequireSession())

	cfg.SessionSecret = ""
	assert.EqualError(t, cfg.RequireSession(), "SESSION_SECRET environment variable not set")
}
