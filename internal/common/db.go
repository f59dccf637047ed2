package common

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	CountersCollection = "counters"
)

// NewDB connects to MongoDB and returns a handle to the named database.
func NewDB(uri, name string, maxPoolSize uint64, maxIdleTime time.Duration) (*mongo.Database, error) {
	client, err := connectDB(uri, maxPoolSize, maxIdleTime)
	if err != nil {
		return nil, err
	}

	return client.Database(name), nil
}

// connectDB connects to the server and pings it before returning the client
func connectDB(uri string, maxPoolSize uint64, maxIdleTime time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetMaxConnIdleTime(maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// CloseDB disconnects the client behind the database handle.
func CloseDB(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return db.Client().Disconnect(ctx)
}
