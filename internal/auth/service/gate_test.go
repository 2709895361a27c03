package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/pkg/cryptox"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(ctx context.Context, user domain.User, code domain.LoginCode) error {
	return m.Called(ctx, user, code).Error(0)
}

func TestIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("active user gets a stored code", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "alice", true)

		rec, ok, err := g.Issue(ctx, u, "")
		require.NoError(t, err)
		require.True(t, ok)
		require.Regexp(t, hexCode, rec.Code)
		require.Equal(t, u.ID, rec.UserID)
		require.NotEqual(t, rec.ID, rec.Code, "storage key and secret are distinct")
		require.Equal(t, t0, rec.IssuedAt)
		require.Equal(t, t0.Add(DefaultLoginCodeTimeout), g.Policy().ExpiresAt(rec.IssuedAt))

		stored, err := s.LoginCodes().GetLoginCode(ctx, u.ID, cryptox.FingerprintToken(rec.Code))
		require.NoError(t, err)
		require.Equal(t, rec.ID, stored.ID)
	})

	t.Run("issue time is kept at millisecond precision", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		g.Now = func() time.Time { return t0.Add(time.Millisecond + 999*time.Microsecond) }
		u := createUser(t, s, "alice", true)

		rec, ok, err := g.Issue(ctx, u, "")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, t0.Add(time.Millisecond), rec.IssuedAt)

		stored, err := s.LoginCodes().GetLoginCode(ctx, u.ID, cryptox.FingerprintToken(rec.Code))
		require.NoError(t, err)
		require.Equal(t, rec.IssuedAt, stored.IssuedAt)

		expiry := t0.Add(time.Millisecond + DefaultLoginCodeTimeout)
		ok, err = g.Check(ctx, u.ID, rec.Code, expiry.Add(-time.Nanosecond))
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = g.Check(ctx, u.ID, rec.Code, expiry)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("numeric mode", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, Config{NumericCodes: true})
		u := createUser(t, s, "alice", true)

		rec, ok, err := g.Issue(ctx, u, "")
		require.NoError(t, err)
		require.True(t, ok)
		require.Regexp(t, numericCode, rec.Code)
	})

	t.Run("inactive user is refused and nothing is stored", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "bob", false)

		rec, ok, err := g.Issue(ctx, u, "/secrets/")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, rec.ID)

		n, err := s.LoginCodes().DeleteLoginCodesIssuedBefore(ctx, t0.Add(time.Hour))
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("permissive policy keeps prior codes", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "alice", true)

		first, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)
		second, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)

		_, ok, err := g.Verify(ctx, u.ID, first.Code, t0)
		require.NoError(t, err)
		require.True(t, ok)
		_, ok, err = g.Verify(ctx, u.ID, second.Code, t0)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("invalidating policy keeps only the newest code", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, Config{InvalidatePriorCodes: true})
		u := createUser(t, s, "alice", true)

		first, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)
		second, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)

		_, ok, err := g.Verify(ctx, u.ID, first.Code, t0)
		require.NoError(t, err)
		require.False(t, ok)
		_, ok, err = g.Verify(ctx, u.ID, second.Code, t0)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("redeems once", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "alice", true)
		rec, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)

		r, ok, err := g.Verify(ctx, u.ID, rec.Code, t0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, u.ID, r.User.ID)
		require.Equal(t, u.Username, r.User.Username)

		r, ok, err = g.Verify(ctx, u.ID, rec.Code, t0)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, Redemption{}, r)
	})

	t.Run("expiry boundary", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, Config{LoginCodeTimeout: 300 * time.Second})
		u := createUser(t, s, "alice", true)
		rec, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)

		_, ok, err := g.Verify(ctx, u.ID, rec.Code, t0.Add(301*time.Second))
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = g.Verify(ctx, u.ID, rec.Code, t0.Add(300*time.Second))
		require.NoError(t, err)
		require.False(t, ok, "now == expiresAt is expired")

		// An expired check leaves the record in place but it is never valid again
		// once time has passed, so use a fresh code for the success case.
		rec, _, err = g.Issue(ctx, u, "")
		require.NoError(t, err)
		_, ok, err = g.Verify(ctx, u.ID, rec.Code, t0.Add(299*time.Second))
		require.NoError(t, err)
		require.True(t, ok)

		_, err = s.LoginCodes().GetLoginCode(ctx, u.ID, cryptox.FingerprintToken(rec.Code))
		require.ErrorIs(t, err, store.ErrNotFound, "redeemed record is deleted")
	})

	t.Run("redirect target is carried through", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "alice", true)
		rec, _, err := g.Issue(ctx, u, "/secrets/")
		require.NoError(t, err)
		require.Equal(t, "/secrets/", rec.RedirectTarget)

		r, ok, err := g.Verify(ctx, u.ID, rec.Code, t0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "/secrets/", r.RedirectTarget)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		alice := createUser(t, s, "alice", true)
		bob := createUser(t, s, "bob", true)
		rec, _, err := g.Issue(ctx, alice, "")
		require.NoError(t, err)
		unissued, err := GenerateCode(false)
		require.NoError(t, err)

		cases := map[string]struct {
			userID string
			code   string
			now    time.Time
		}{
			"unissued code": {alice.ID, unissued, t0},
			"wrong owner":   {bob.ID, rec.Code, t0},
			"unknown user":  {"01HZZZZZZZZZZZZZZZZZZZZZZZ", rec.Code, t0},
			"expired":       {alice.ID, rec.Code, t0.Add(time.Hour)},
			"case folded":   {alice.ID, upper(rec.Code), t0},
			"empty":         {alice.ID, "", t0},
		}
		for name, c := range cases {
			t.Run(name, func(t *testing.T) {
				r, ok, err := g.Verify(ctx, c.userID, c.code, c.now)
				require.NoError(t, err)
				require.False(t, ok)
				require.Equal(t, Redemption{}, r)
			})
		}
	})

	t.Run("inactive at redemption time", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "alice", true)
		rec, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)
		require.NoError(t, s.Users().SetUserActive(ctx, u.ID, false))

		_, ok, err := g.Verify(ctx, u.ID, rec.Code, t0)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("concurrent redemption has exactly one winner", func(t *testing.T) {
		s := newTestStore(t)
		g := newGate(s, DefaultConfig())
		u := createUser(t, s, "alice", true)
		rec, _, err := g.Issue(ctx, u, "")
		require.NoError(t, err)

		const n = 20
		var (
			wg       sync.WaitGroup
			wins     atomic.Int32
			failures atomic.Int32
			faults   atomic.Int32
		)
		start := make(chan struct{})
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, ok, err := g.Verify(ctx, u.ID, rec.Code, t0)
				switch {
				case err != nil:
					faults.Add(1)
				case ok:
					wins.Add(1)
				default:
					failures.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 0, faults.Load())
		require.EqualValues(t, 1, wins.Load())
		require.EqualValues(t, n-1, failures.Load())
	})
}

func TestRedemptionEngineReasons(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newGate(s, DefaultConfig())
	active := createUser(t, s, "alice", true)
	rec, _, err := g.Issue(ctx, active, "")
	require.NoError(t, err)

	e := &RedemptionEngine{Store: s, Policy: ExpiryPolicy{Timeout: DefaultLoginCodeTimeout}}

	_, err = e.Consume(ctx, "missing", rec.Code, t0)
	require.ErrorIs(t, err, ErrRedemptionFailed)
	require.ErrorIs(t, err, ErrUnknownAccount)

	_, err = e.Consume(ctx, active.ID, "nope", t0)
	require.ErrorIs(t, err, ErrCodeNotFound)

	_, err = e.Consume(ctx, active.ID, rec.Code, t0.Add(DefaultLoginCodeTimeout))
	require.ErrorIs(t, err, ErrCodeExpired)

	_, _, err = e.Check(ctx, active.ID, rec.Code, t0)
	require.NoError(t, err, "check does not consume")

	r, err := e.Consume(ctx, active.ID, rec.Code, t0)
	require.NoError(t, err)
	require.Equal(t, active.ID, r.User.ID)

	_, err = e.Consume(ctx, active.ID, rec.Code, t0)
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCheckDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := newGate(s, DefaultConfig())
	u := createUser(t, s, "alice", true)
	rec, _, err := g.Issue(ctx, u, "")
	require.NoError(t, err)

	for range 3 {
		ok, err := g.Check(ctx, u.ID, rec.Code, t0)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := g.Check(ctx, u.ID, rec.Code, t0.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = g.Verify(ctx, u.ID, rec.Code, t0)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRequestCode(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to active user", func(t *testing.T) {
		s := newTestStore(t)
		u := createUser(t, s, "alice", true)
		d := &mockDeliverer{}
		d.On("Deliver", mock.Anything, mock.MatchedBy(func(got domain.User) bool {
			return got.ID == u.ID
		}), mock.MatchedBy(func(c domain.LoginCode) bool {
			return c.UserID == u.ID && c.RedirectTarget == "/next/" && c.Code != ""
		})).Return(nil).Once()

		g := newGate(s, DefaultConfig())
		g.Deliverer = d

		rec, err := g.RequestCode(ctx, "alice", "/next/")
		require.NoError(t, err)
		require.NotEmpty(t, rec.Code)
		d.AssertExpectations(t)
	})

	t.Run("unknown and inactive accounts", func(t *testing.T) {
		s := newTestStore(t)
		createUser(t, s, "bob", false)
		d := &mockDeliverer{}
		g := newGate(s, DefaultConfig())
		g.Deliverer = d

		_, err := g.RequestCode(ctx, "nobody", "")
		require.ErrorIs(t, err, ErrUnknownAccount)

		_, err = g.RequestCode(ctx, "Bob", "")
		require.ErrorIs(t, err, ErrUnknownAccount, "usernames are case-sensitive")

		_, err = g.RequestCode(ctx, "bob", "")
		require.ErrorIs(t, err, ErrAccountInactive)

		d.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delivery failure is not returned", func(t *testing.T) {
		s := newTestStore(t)
		createUser(t, s, "alice", true)
		d := &mockDeliverer{}
		d.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
		g := newGate(s, DefaultConfig())
		g.Deliverer = d

		rec, err := g.RequestCode(ctx, "alice", "")
		require.NoError(t, err)

		_, ok, err := g.Verify(ctx, rec.UserID, rec.Code, t0)
		require.NoError(t, err)
		require.True(t, ok, "code stays redeemable even if delivery failed")
	})
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
