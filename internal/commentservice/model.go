package commentservice

import (
	"context"
	"errors"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newCommentModel(db *mongo.Database) *CommentModel {
	return &CommentModel{coll: db.Collection(common.CommentsCollection)}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(common.CommentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post._id", Value: 1}, {Key: "superComment._id", Value: 1}, {Key: "commentNumber", Value: 1}}},
		{Keys: bson.D{{Key: "commenter._id", Value: 1}}},
	})
	return err
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.ID != nil {
		q["_id"] = *f.ID
	}
	if f.Post != nil {
		q["post._id"] = *f.Post
	}
	switch {
	case f.SuperComment != nil:
		q["superComment._id"] = *f.SuperComment
	case f.TopLevelOnly:
		q["superComment"] = nil
	}
	if f.Commenter != nil {
		q["commenter._id"] = *f.Commenter
	}
	if f.MinCommentNumber != nil {
		q["commentNumber"] = bson.M{"$gte": *f.MinCommentNumber}
	}
	if !f.IncludeDeleted {
		q["isDeleted"] = false
	}

	return q
}

func (m *CommentModel) insert(ctx context.Context, c *Comment) error {
	res, err := m.coll.InsertOne(ctx, c)
	if err != nil {
		return err
	}

	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *CommentModel) findOne(ctx context.Context, q bson.M) (*Comment, error) {
	var c Comment
	err := m.coll.FindOne(ctx, q).Decode(&c)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

func (m *CommentModel) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]Comment, error) {
	cur, err := m.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	comments := []Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (m *CommentModel) update(ctx context.Context, q bson.M, set bson.M) (*Comment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c Comment
	err := m.coll.FindOneAndUpdate(ctx, q, bson.M{"$set": set}, opts).Decode(&c)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

func (m *CommentModel) count(ctx context.Context, q bson.M) (int64, error) {
	return m.coll.CountDocuments(ctx, q)
}
