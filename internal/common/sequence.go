package common

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequencer hands out per-name counters. Each Next is a single atomic
// find-and-update on one counter document, so concurrent callers never share a value.
type Sequencer struct {
	coll *mongo.Collection
}

func NewSequencer(db *mongo.Database) *Sequencer {
	return &Sequencer{coll: db.Collection(CountersCollection)}
}

func (s *Sequencer) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if mongo.IsDuplicateKeyError(err) {
		// two upserts raced to create the counter; the loser retries as a plain update
		err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	}
	if err != nil {
		return 0, err
	}

	return counter.Seq, nil
}
