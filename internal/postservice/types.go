package postservice

import (
	"log/slog"

	"github.com/sushihentaime/inkpost/internal/blobstore"
	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const PostsPageSize = 10

type Post struct {
	common.Base `bson:",inline"`
	PostNumber  int64          `bson:"postNumber" json:"postNumber"`
	Title       string         `bson:"title" json:"title"`
	Author      common.UserRef `bson:"author" json:"author"`
	// ContentsKey is the blob key of the HTML body. Contents holds the body itself
	// and is only filled by single-post reads.
	ContentsKey string         `bson:"contents" json:"-"`
	Contents    string         `bson:"-" json:"contents,omitempty"`
	Thumbnail   common.Image   `bson:"thumbnail" json:"thumbnail"`
	Images      []common.Image `bson:"images" json:"images"`
}

// Filter selects posts. Nil fields are ignored. Soft-deleted posts only match
// when IncludeDeleted is set.
type Filter struct {
	ID             *primitive.ObjectID
	Author         *primitive.ObjectID
	MinPostNumber  *int64
	IncludeDeleted bool
}

// Patch lists the fields an update may change. Nil fields are left untouched.
type Patch struct {
	Title    *string
	Contents *string
	Images   *[]common.Image
}

// Sort picks the order List returns posts in. The zero value is SortOldest.
type Sort int

const (
	SortOldest Sort = iota
	SortNewest
	SortTitle
)

func (s Sort) order() (bson.D, bool) {
	switch s {
	case SortOldest:
		return bson.D{{Key: "postNumber", Value: 1}, {Key: "_id", Value: 1}}, true
	case SortNewest:
		return bson.D{{Key: "postNumber", Value: -1}, {Key: "_id", Value: -1}}, true
	case SortTitle:
		return bson.D{{Key: "title", Value: 1}, {Key: "postNumber", Value: 1}}, true
	}
	return nil, false
}

type ListOptions struct {
	Sort  Sort
	Limit int64
	Skip  int64
	// Fields restricts the projection. The body field can never be requested.
	Fields []string
}

type CreatePostRequest struct {
	Title    string             `json:"title"`
	Contents string             `json:"contents"`
	Images   []common.Image     `json:"images"`
	Author   primitive.ObjectID `json:"-"`
}

type PostModel struct {
	coll *mongo.Collection
}

type PostService struct {
	m        *PostModel
	blobs    blobstore.Store
	seq      *common.Sequencer
	producer common.MessageProducer
	logger   *slog.Logger
}
