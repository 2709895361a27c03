package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID       string    `bson:"_id"`
	Username string    `bson:"username"`
	Email    string    `bson:"email"`
	Active   bool      `bson:"active"`
	Created  time.Time `bson:"c"`
	Updated  time.Time `bson:"u"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		Active:    d.Active,
		CreatedAt: d.Created,
		UpdatedAt: d.Updated,
	}
}

type usersRepo struct {
	c    *mongo.Collection
	sess mongo.Session
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var d userDoc
	if err := r.c.FindOne(bind(ctx, r.sess), filter).Decode(&d); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return d.toDomain(), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.c.InsertOne(bind(ctx, r.sess), userDoc{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Active:   u.Active,
		Created:  u.CreatedAt,
		Updated:  u.UpdatedAt,
	})
	return mapConstraint(err)
}

func (r *usersRepo) SetUserActive(ctx context.Context, userID string, active bool) error {
	res, err := r.c.UpdateOne(bind(ctx, r.sess),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"active": active, "u": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
