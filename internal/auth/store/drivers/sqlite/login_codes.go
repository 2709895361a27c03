package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
)

type loginCodesRepo struct {
	q dbtx
}

func (r *loginCodesRepo) CreateLoginCode(ctx context.Context, c domain.LoginCode) error {
	_, err := r.q.ExecContext(ctx, createLoginCode,
		c.ID, c.UserID, c.CodeHash, c.RedirectTarget, toUnix(c.IssuedAt),
	)
	return mapConstraint(err)
}

func (r *loginCodesRepo) GetLoginCode(ctx context.Context, userID, codeHash string) (domain.LoginCode, error) {
	var (
		c      domain.LoginCode
		issued int64
	)
	err := r.q.QueryRowContext(ctx, getLoginCode, userID, codeHash).
		Scan(&c.ID, &c.UserID, &c.CodeHash, &c.RedirectTarget, &issued)
	if err != nil {
		return domain.LoginCode{}, mapNotFound(err)
	}
	c.IssuedAt = fromUnix(issued)
	return c, nil
}

// ConsumeLoginCode is a single DELETE; SQLite serialises writers so only one
// caller can observe an affected row.
func (r *loginCodesRepo) ConsumeLoginCode(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, consumeLoginCode, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *loginCodesRepo) DeleteUserLoginCodes(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, deleteUserLoginCodes, userID)
	return err
}

func (r *loginCodesRepo) DeleteLoginCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, deleteLoginCodesIssuedBefore, toUnix(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ store.LoginCodes = (*loginCodesRepo)(nil)
