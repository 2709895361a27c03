package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/nopass/pkg/idx"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "nopass.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func createUser(t *testing.T, s *sqlite.Store, username string, active bool) domain.User {
	t.Helper()
	u := domain.User{
		ID:        idx.New().String(),
		Username:  username,
		Email:     username + "@example.com",
		Active:    active,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func newGate(s *sqlite.Store, cfg Config) *AuthenticationGate {
	return &AuthenticationGate{
		Store:  s,
		Config: cfg,
		Now:    func() time.Time { return t0 },
	}
}
