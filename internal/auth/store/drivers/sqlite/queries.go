package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repos work in and out of
// a transaction.
type dbtx interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

const (
	getUserByID = `SELECT id, username, email, active, created_at, updated_at
FROM users WHERE id = ?`

	getUserByUsername = `SELECT id, username, email, active, created_at, updated_at
FROM users WHERE username = ?`

	createUser = `INSERT INTO users (id, username, email, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	setUserActive = `UPDATE users SET active = ?, updated_at = ? WHERE id = ?`

	createLoginCode = `INSERT INTO login_codes (id, user_id, code_hash, redirect_target, issued_at)
VALUES (?, ?, ?, ?, ?)`

	getLoginCode = `SELECT id, user_id, code_hash, redirect_target, issued_at
FROM login_codes WHERE user_id = ? AND code_hash = ?`

	consumeLoginCode = `DELETE FROM login_codes WHERE id = ?`

	deleteUserLoginCodes = `DELETE FROM login_codes WHERE user_id = ?`

	deleteLoginCodesIssuedBefore = `DELETE FROM login_codes WHERE issued_at < ?`
)

func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }
