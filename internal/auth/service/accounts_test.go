package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := &AccountService{Store: s}

	u, err := svc.CreateUser(ctx, "  alice ", "alice@example.com", true)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.True(t, u.Active)

	_, err = svc.CreateUser(ctx, "alice", "", true)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = svc.CreateUser(ctx, "   ", "", true)
	require.ErrorIs(t, err, ErrInvalidUsername)

	u, err = svc.SetActive(ctx, "alice", false)
	require.NoError(t, err)
	require.False(t, u.Active)

	got, err := svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	_, err = svc.SetActive(ctx, "nobody", true)
	require.ErrorIs(t, err, store.ErrNotFound)
}
