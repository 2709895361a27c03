package mongo

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"go.mongodb.org/mongo-driver/mongo"
)

var errNestedTx = errors.New("mongo: nested transactions are not supported")

type txStore struct {
	ctx  context.Context
	sess mongo.Session
	db   *mongo.Database
	done bool
}

func (t *txStore) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(t.ctx)
	return t.sess.CommitTransaction(t.ctx)
}

func (t *txStore) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(t.ctx)
	return t.sess.AbortTransaction(t.ctx)
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errNestedTx
}

func (t *txStore) Users() store.Users {
	return &usersRepo{c: t.db.Collection(usersCollection), sess: t.sess}
}

func (t *txStore) LoginCodes() store.LoginCodes {
	return &loginCodesRepo{c: t.db.Collection(loginCodesCollection), sess: t.sess}
}
