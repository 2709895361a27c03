package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type loginCodeDoc struct {
	ID       string    `bson:"_id"`
	UserID   string    `bson:"uid"`
	Hash     string    `bson:"hash"`
	Redirect string    `bson:"redirect"`
	IssuedAt time.Time `bson:"iat"`
}

type loginCodesRepo struct {
	c    *mongo.Collection
	sess mongo.Session
}

func (r *loginCodesRepo) CreateLoginCode(ctx context.Context, c domain.LoginCode) error {
	_, err := r.c.InsertOne(bind(ctx, r.sess), loginCodeDoc{
		ID:       c.ID,
		UserID:   c.UserID,
		Hash:     c.CodeHash,
		Redirect: c.RedirectTarget,
		IssuedAt: c.IssuedAt,
	})
	return mapConstraint(err)
}

func (r *loginCodesRepo) GetLoginCode(ctx context.Context, userID, codeHash string) (domain.LoginCode, error) {
	var d loginCodeDoc
	err := r.c.FindOne(bind(ctx, r.sess), bson.M{"uid": userID, "hash": codeHash}).Decode(&d)
	if err != nil {
		return domain.LoginCode{}, mapNotFound(err)
	}
	return domain.LoginCode{
		ID:             d.ID,
		UserID:         d.UserID,
		CodeHash:       d.Hash,
		RedirectTarget: d.Redirect,
		IssuedAt:       d.IssuedAt,
	}, nil
}

// ConsumeLoginCode deletes by _id; single document deletes are atomic so
// only one caller sees DeletedCount == 1.
func (r *loginCodesRepo) ConsumeLoginCode(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(bind(ctx, r.sess), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *loginCodesRepo) DeleteUserLoginCodes(ctx context.Context, userID string) error {
	_, err := r.c.DeleteMany(bind(ctx, r.sess), bson.M{"uid": userID})
	return err
}

func (r *loginCodesRepo) DeleteLoginCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.c.DeleteMany(bind(ctx, r.sess), bson.M{"iat": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
