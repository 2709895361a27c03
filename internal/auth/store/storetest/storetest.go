// Package storetest holds behaviour checks shared by every store driver.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/pkg/cryptox"
	"github.com/aussiebroadwan/nopass/pkg/idx"
	"github.com/stretchr/testify/require"
)

// NewUser returns an active user with a fresh id.
func NewUser(username string) domain.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.User{
		ID:        idx.New().String(),
		Username:  username,
		Email:     username + "@example.com",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewLoginCode returns a record for userID with its hash filled in.
func NewLoginCode(t *testing.T, userID string, issuedAt time.Time) domain.LoginCode {
	t.Helper()
	code, err := cryptox.GenerateHexCode(32)
	require.NoError(t, err)
	return domain.LoginCode{
		ID:       idx.New().String(),
		UserID:   userID,
		Code:     code,
		CodeHash: cryptox.FingerprintToken(code),
		IssuedAt: issuedAt.UTC().Truncate(time.Millisecond),
	}
}

// Run exercises s against the store contract. s must be freshly migrated.
func Run(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		u := NewUser("alice")
		require.NoError(t, s.Users().CreateUser(ctx, u))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Username, got.Username)
		require.Equal(t, u.Email, got.Email)
		require.True(t, got.Active)
		require.True(t, u.CreatedAt.Equal(got.CreatedAt))

		got, err = s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		_, err = s.Users().GetUserByUsername(ctx, "ALICE")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Users().CreateUser(ctx, NewUser("alice")), store.ErrAlreadyExists)

		require.NoError(t, s.Users().SetUserActive(ctx, u.ID, false))
		got, err = s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.Active)

		require.ErrorIs(t, s.Users().SetUserActive(ctx, "missing", true), store.ErrNotFound)
		_, err = s.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("login codes", func(t *testing.T) {
		u := NewUser("bob")
		require.NoError(t, s.Users().CreateUser(ctx, u))

		issued := time.Now().UTC()
		c := NewLoginCode(t, u.ID, issued)
		c.RedirectTarget = "/secrets/"
		require.NoError(t, s.LoginCodes().CreateLoginCode(ctx, c))

		got, err := s.LoginCodes().GetLoginCode(ctx, u.ID, c.CodeHash)
		require.NoError(t, err)
		require.Equal(t, c.ID, got.ID)
		require.Equal(t, "/secrets/", got.RedirectTarget)
		require.Empty(t, got.Code, "plaintext code must not be persisted")
		require.True(t, c.IssuedAt.Equal(got.IssuedAt))

		_, err = s.LoginCodes().GetLoginCode(ctx, "someone-else", c.CodeHash)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.LoginCodes().ConsumeLoginCode(ctx, c.ID))
		require.ErrorIs(t, s.LoginCodes().ConsumeLoginCode(ctx, c.ID), store.ErrNotFound)
		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, c.CodeHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent consume has one winner", func(t *testing.T) {
		u := NewUser("carol")
		require.NoError(t, s.Users().CreateUser(ctx, u))
		c := NewLoginCode(t, u.ID, time.Now())
		require.NoError(t, s.LoginCodes().CreateLoginCode(ctx, c))

		const n = 16
		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.LoginCodes().ConsumeLoginCode(ctx, c.ID) == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		require.EqualValues(t, 1, wins.Load())
	})

	t.Run("bulk deletes", func(t *testing.T) {
		u := NewUser("dave")
		require.NoError(t, s.Users().CreateUser(ctx, u))

		now := time.Now().UTC()
		old := NewLoginCode(t, u.ID, now.Add(-time.Hour))
		fresh := NewLoginCode(t, u.ID, now)
		require.NoError(t, s.LoginCodes().CreateLoginCode(ctx, old))
		require.NoError(t, s.LoginCodes().CreateLoginCode(ctx, fresh))

		n, err := s.LoginCodes().DeleteLoginCodesIssuedBefore(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(1))

		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, old.CodeHash)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, fresh.CodeHash)
		require.NoError(t, err)

		require.NoError(t, s.LoginCodes().DeleteUserLoginCodes(ctx, u.ID))
		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, fresh.CodeHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("transactions", func(t *testing.T) {
		u := NewUser("erin")
		require.NoError(t, s.Users().CreateUser(ctx, u))
		c := NewLoginCode(t, u.ID, time.Now())

		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.LoginCodes().CreateLoginCode(ctx, c); err != nil {
				return err
			}
			return store.ErrNotFound
		})
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, c.CodeHash)
		require.ErrorIs(t, err, store.ErrNotFound, "rolled back insert must not be visible")

		require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
			return tx.LoginCodes().CreateLoginCode(ctx, c)
		}))
		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, c.CodeHash)
		require.NoError(t, err)
	})
}
