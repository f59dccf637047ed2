package commentservice

import (
	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CommentsPageSize = 20

type PostRef struct {
	ID primitive.ObjectID `bson:"_id" json:"_id"`
}

type CommentRef struct {
	ID primitive.ObjectID `bson:"_id" json:"_id"`
}

type Comment struct {
	common.Base   `bson:",inline"`
	CommentNumber int64           `bson:"commentNumber" json:"commentNumber"`
	Contents      string          `bson:"contents" json:"contents"`
	Commenter     common.UserRef  `bson:"commenter" json:"commenter"`
	Post          PostRef         `bson:"post" json:"post"`
	SuperComment  *CommentRef     `bson:"superComment" json:"superComment"`
	Mention       *common.UserRef `bson:"mention" json:"mention"`
	// SubCommentsCount is computed on read and only set on top-level comments.
	SubCommentsCount *int64 `bson:"-" json:"subCommentsCount,omitempty"`
}

func (c *Comment) IsTopLevel() bool {
	return c.SuperComment == nil
}

// Filter selects comments. TopLevelOnly matches comments without a superComment
// and is ignored when SuperComment is set.
type Filter struct {
	ID               *primitive.ObjectID
	Post             *primitive.ObjectID
	SuperComment     *primitive.ObjectID
	TopLevelOnly     bool
	Commenter        *primitive.ObjectID
	MinCommentNumber *int64
	IncludeDeleted   bool
}

type Patch struct {
	Contents *string
}

// Sort picks the order List returns comments in. The zero value is SortOldest.
type Sort int

const (
	SortOldest Sort = iota
	SortNewest
)

func (s Sort) order() (bson.D, bool) {
	switch s {
	case SortOldest:
		return bson.D{{Key: "commentNumber", Value: 1}, {Key: "_id", Value: 1}}, true
	case SortNewest:
		return bson.D{{Key: "commentNumber", Value: -1}, {Key: "_id", Value: -1}}, true
	}
	return nil, false
}

type ListOptions struct {
	Sort  Sort
	Limit int64
	Skip  int64
}

type CreateCommentRequest struct {
	Contents     string              `json:"contents"`
	Post         primitive.ObjectID  `json:"post"`
	SuperComment *primitive.ObjectID `json:"superComment"`
	Mention      *primitive.ObjectID `json:"mention"`
	Commenter    primitive.ObjectID  `json:"-"`
}

type CommentModel struct {
	coll *mongo.Collection
}

type CommentService struct {
	m   *CommentModel
	seq *common.Sequencer
}
