package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/pkg/cryptox"
)

var (
	// ErrRedemptionFailed wraps every expected redemption failure. Callers
	// outside this package should only ever see this one.
	ErrRedemptionFailed = errors.New("redemption_failed")

	// Reasons, joined with ErrRedemptionFailed and only used for logging.
	ErrUnknownAccount  = errors.New("unknown account")
	ErrCodeNotFound    = errors.New("code not found")
	ErrCodeExpired     = errors.New("code expired")
	ErrAccountInactive = errors.New("account inactive")
	ErrConcurrencyLost = errors.New("code already redeemed")
)

// Redemption is the result of a successful redemption.
type Redemption struct {
	User           domain.User
	RedirectTarget string
}

// RedemptionEngine turns a (user id, code) pair into a principal, consuming
// the code exactly once.
type RedemptionEngine struct {
	Store  store.Store
	Policy ExpiryPolicy
}

func redemptionFailed(reason error) error {
	return fmt.Errorf("%w: %w", ErrRedemptionFailed, reason)
}

// Check runs every redemption check without consuming the code.
func (e *RedemptionEngine) Check(ctx context.Context, userID, code string, now time.Time) (domain.User, domain.LoginCode, error) {
	user, err := e.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.LoginCode{}, redemptionFailed(ErrUnknownAccount)
		}
		return domain.User{}, domain.LoginCode{}, err
	}

	record, err := e.Store.LoginCodes().GetLoginCode(ctx, user.ID, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.LoginCode{}, redemptionFailed(ErrCodeNotFound)
		}
		return domain.User{}, domain.LoginCode{}, err
	}

	// Expired records stay in place; housekeeping removes them.
	if e.Policy.IsExpired(e.Policy.ExpiresAt(record.IssuedAt), now) {
		return domain.User{}, domain.LoginCode{}, redemptionFailed(ErrCodeExpired)
	}

	if !user.Active {
		return domain.User{}, domain.LoginCode{}, redemptionFailed(ErrAccountInactive)
	}

	return user, record, nil
}

// Consume redeems code for userID at now. The delete is guarded by its
// affected row count, so of several concurrent callers at most one succeeds
// and the rest get ErrConcurrencyLost.
func (e *RedemptionEngine) Consume(ctx context.Context, userID, code string, now time.Time) (Redemption, error) {
	user, record, err := e.Check(ctx, userID, code, now)
	if err != nil {
		return Redemption{}, err
	}

	if err := e.Store.LoginCodes().ConsumeLoginCode(ctx, record.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Redemption{}, redemptionFailed(ErrConcurrencyLost)
		}
		return Redemption{}, err
	}

	return Redemption{User: user, RedirectTarget: record.RedirectTarget}, nil
}
