package postservice

import (
	"context"
	"errors"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newPostModel(db *mongo.Database) *PostModel {
	return &PostModel{coll: db.Collection(common.PostsCollection)}
}

// EnsureIndexes creates the indexes list queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(common.PostsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postNumber", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "author._id", Value: 1}}},
	})
	return err
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.ID != nil {
		q["_id"] = *f.ID
	}
	if f.Author != nil {
		q["author._id"] = *f.Author
	}
	if f.MinPostNumber != nil {
		q["postNumber"] = bson.M{"$gte": *f.MinPostNumber}
	}
	if !f.IncludeDeleted {
		q["isDeleted"] = false
	}

	return q
}

func (m *PostModel) insert(ctx context.Context, post *Post) error {
	res, err := m.coll.InsertOne(ctx, post)
	if err != nil {
		return err
	}

	post.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *PostModel) findOne(ctx context.Context, q bson.M) (*Post, error) {
	var post Post
	err := m.coll.FindOne(ctx, q).Decode(&post)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *PostModel) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]Post, error) {
	cur, err := m.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := []Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// update applies set to the document matching q and returns the updated document.
func (m *PostModel) update(ctx context.Context, q bson.M, set bson.M) (*Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post Post
	err := m.coll.FindOneAndUpdate(ctx, q, bson.M{"$set": set}, opts).Decode(&post)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *PostModel) delete(ctx context.Context, q bson.M) (*Post, error) {
	var post Post
	err := m.coll.FindOneAndDelete(ctx, q).Decode(&post)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}
