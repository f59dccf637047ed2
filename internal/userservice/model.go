package userservice

import (
	"context"
	"errors"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateIdentity = errors.New("duplicate oauth identity")

func newUserModel(db *mongo.Database) *UserModel {
	return &UserModel{coll: db.Collection(common.UsersCollection)}
}

// EnsureIndexes creates the unique index that makes sign-in idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(common.UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "oauthProviderId", Value: 1}, {Key: "oauthProvider", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (m *UserModel) insert(ctx context.Context, u *User) error {
	res, err := m.coll.InsertOne(ctx, u)
	if err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			return ErrDuplicateIdentity
		default:
			return err
		}
	}

	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *UserModel) findOne(ctx context.Context, q bson.M) (*User, error) {
	var u User
	err := m.coll.FindOne(ctx, q).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *UserModel) getUserByProvider(ctx context.Context, provider Provider, providerID string) (*User, error) {
	return m.findOne(ctx, bson.M{"oauthProvider": provider, "oauthProviderId": providerID, "isDeleted": false})
}

func (m *UserModel) getUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]User, error) {
	cur, err := m.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "isDeleted": false})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}
