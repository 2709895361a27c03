package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/pkg/cryptox"
	"github.com/aussiebroadwan/nopass/pkg/idx"
	"github.com/aussiebroadwan/nopass/pkg/slogx"
)

// Deliverer sends an issued code to its owner out of band.
type Deliverer interface {
	Deliver(ctx context.Context, user domain.User, code domain.LoginCode) error
}

// AuthenticationGate issues login codes and turns redeemed codes into
// principals.
type AuthenticationGate struct {
	Store     store.Store
	Config    Config
	Deliverer Deliverer

	// Now is the clock used for issuance. Defaults to time.Now.
	Now func() time.Time
}

func (g *AuthenticationGate) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *AuthenticationGate) engine() *RedemptionEngine {
	return &RedemptionEngine{Store: g.Store, Policy: g.Policy()}
}

// Policy is the expiry policy derived from the configured timeout.
func (g *AuthenticationGate) Policy() ExpiryPolicy {
	return ExpiryPolicy{Timeout: g.Config.timeout()}
}

// Issue creates a login code for user. It returns ok=false and creates
// nothing when the account is inactive. The returned record carries the
// plaintext Code; only its hash is stored.
func (g *AuthenticationGate) Issue(ctx context.Context, user domain.User, redirectTarget string) (domain.LoginCode, bool, error) {
	if !user.Active {
		return domain.LoginCode{}, false, nil
	}

	code, err := GenerateCode(g.Config.NumericCodes)
	if err != nil {
		return domain.LoginCode{}, false, err
	}

	// Millisecond precision is the coarsest any store keeps, so every
	// driver reads back the same expiry.
	issuedAt := g.now().Truncate(time.Millisecond)
	record := domain.LoginCode{
		ID:             idx.NewAt(issuedAt).String(),
		UserID:         user.ID,
		Code:           code,
		CodeHash:       cryptox.FingerprintToken(code),
		RedirectTarget: redirectTarget,
		IssuedAt:       issuedAt,
	}

	if g.Config.InvalidatePriorCodes {
		err = g.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.LoginCodes().DeleteUserLoginCodes(ctx, user.ID); err != nil {
				return err
			}
			return tx.LoginCodes().CreateLoginCode(ctx, record)
		})
	} else {
		err = g.Store.LoginCodes().CreateLoginCode(ctx, record)
	}
	if err != nil {
		return domain.LoginCode{}, false, err
	}

	slogx.FromContext(ctx).Info("login code issued",
		slog.String("user_id", user.ID),
		slog.String("code_id", record.ID),
	)
	return record, true, nil
}

// Verify redeems code for userID at now. Every expected failure collapses to
// ok=false; err is only set for store faults.
func (g *AuthenticationGate) Verify(ctx context.Context, userID, code string, now time.Time) (Redemption, bool, error) {
	r, err := g.engine().Consume(ctx, userID, code, now)
	if err != nil {
		if errors.Is(err, ErrRedemptionFailed) {
			logRedemptionFailure(ctx, userID, err)
			return Redemption{}, false, nil
		}
		return Redemption{}, false, err
	}

	slogx.FromContext(ctx).Info("login code redeemed", slog.String("user_id", userID))
	return r, true, nil
}

// Check reports whether code would currently redeem for userID, without
// consuming it.
func (g *AuthenticationGate) Check(ctx context.Context, userID, code string, now time.Time) (bool, error) {
	_, _, err := g.engine().Check(ctx, userID, code, now)
	if err != nil {
		if errors.Is(err, ErrRedemptionFailed) {
			logRedemptionFailure(ctx, userID, err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func logRedemptionFailure(ctx context.Context, userID string, err error) {
	slogx.FromContext(ctx).Warn("login code rejected",
		slog.String("user_id", userID),
		slog.String("reason", err.Error()),
	)
}

// RequestCode looks the account up by username, issues a code and hands it to
// the Deliverer. Unlike redemption this step may reveal that an account is
// unknown (ErrUnknownAccount) or inactive (ErrAccountInactive). Delivery
// failures are logged and not returned.
func (g *AuthenticationGate) RequestCode(ctx context.Context, username, redirectTarget string) (domain.LoginCode, error) {
	log := slogx.FromContext(ctx)

	user, err := g.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginCode{}, ErrUnknownAccount
		}
		return domain.LoginCode{}, err
	}

	record, ok, err := g.Issue(ctx, user, redirectTarget)
	if err != nil {
		return domain.LoginCode{}, err
	}
	if !ok {
		return domain.LoginCode{}, ErrAccountInactive
	}

	if g.Deliverer != nil {
		if err := g.Deliverer.Deliver(ctx, user, record); err != nil {
			log.Error("login code delivery failed",
				slog.String("user_id", user.ID),
				"error", err,
			)
		}
	}

	return record, nil
}
