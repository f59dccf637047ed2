package feed

import (
	"context"

	"github.com/sushihentaime/inkpost/internal/commentservice"
	"github.com/sushihentaime/inkpost/internal/postservice"
	"github.com/sushihentaime/inkpost/internal/userservice"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostReader interface {
	Find(ctx context.Context, f postservice.Filter) (*postservice.Post, error)
	List(ctx context.Context, f postservice.Filter, o postservice.ListOptions) ([]postservice.Post, error)
}

type CommentReader interface {
	Find(ctx context.Context, f commentservice.Filter) (*commentservice.Comment, error)
	List(ctx context.Context, f commentservice.Filter, o commentservice.ListOptions) ([]commentservice.Comment, error)
}

type UserFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*userservice.User, error)
}

// Feed serves the read paths and fills in usernames, which are never stored
// next to the references.
type Feed struct {
	posts    PostReader
	comments CommentReader
	users    UserFinder
}

// PostPage asks for up to postservice.PostsPageSize live posts whose postNumber
// is at least Cursor, skipping Offset of them.
type PostPage struct {
	Cursor int64
	Offset int64
	Author *primitive.ObjectID
}

// CommentPage pages through top-level comments, or the replies to SuperComment
// when it is set. At least one of Post and Commenter narrows the listing; with
// Commenter alone a user's comments are listed across posts.
type CommentPage struct {
	Post         *primitive.ObjectID
	Commenter    *primitive.ObjectID
	SuperComment *primitive.ObjectID
	Cursor       int64
	Offset       int64
}
