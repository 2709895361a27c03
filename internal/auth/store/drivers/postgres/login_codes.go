package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
)

type loginCodesRepo struct {
	q querier
}

func (r *loginCodesRepo) CreateLoginCode(ctx context.Context, c domain.LoginCode) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO login_codes (id, user_id, code_hash, redirect_target, issued_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.CodeHash, c.RedirectTarget, c.IssuedAt)
	return mapConstraint(err)
}

func (r *loginCodesRepo) GetLoginCode(ctx context.Context, userID, codeHash string) (domain.LoginCode, error) {
	var c domain.LoginCode
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, code_hash, redirect_target, issued_at
		FROM login_codes
		WHERE user_id = $1 AND code_hash = $2`, userID, codeHash).
		Scan(&c.ID, &c.UserID, &c.CodeHash, &c.RedirectTarget, &c.IssuedAt)
	if err != nil {
		return domain.LoginCode{}, mapNotFound(err)
	}
	return c, nil
}

// ConsumeLoginCode relies on the row lock taken by DELETE: a concurrent
// delete of the same row waits, then affects zero rows.
func (r *loginCodesRepo) ConsumeLoginCode(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM login_codes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *loginCodesRepo) DeleteUserLoginCodes(ctx context.Context, userID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM login_codes WHERE user_id = $1`, userID)
	return err
}

func (r *loginCodesRepo) DeleteLoginCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM login_codes WHERE issued_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
