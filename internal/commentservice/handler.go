package commentservice

import (
	"context"
	"errors"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewCommentService(db *mongo.Database) *CommentService {
	return &CommentService{
		m:   newCommentModel(db),
		seq: common.NewSequencer(db),
	}
}

// Find returns the comment matching f. Top-level comments come with their reply count.
func (s *CommentService) Find(ctx context.Context, f Filter) (*Comment, error) {
	c, err := s.m.findOne(ctx, f.query())
	if err != nil {
		return nil, err
	}

	if err := s.attachSubCommentsCount(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *CommentService) List(ctx context.Context, f Filter, o ListOptions) ([]Comment, error) {
	sort, ok := o.Sort.order()
	if !ok {
		v := common.NewValidator()
		v.AddError("sort", "must be a known sort order")
		return nil, v.ValidationError()
	}

	if o.Limit < 1 {
		o.Limit = CommentsPageSize
	}

	if o.Skip < 0 {
		o.Skip = 0
	}

	opts := options.Find().
		SetSort(sort).
		SetLimit(o.Limit).
		SetSkip(o.Skip)

	comments, err := s.m.find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}

	for i := range comments {
		if err := s.attachSubCommentsCount(ctx, &comments[i]); err != nil {
			return nil, err
		}
	}

	return comments, nil
}

// Create numbers the comment within its scope: the top-level comments of a post, or
// the replies to one comment. A reply must target a live top-level comment of the same post.
func (s *CommentService) Create(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	contents := common.SanitizeHTML(req.Contents)

	v := common.NewValidator()
	validateContents(v, contents)
	validateID(v, req.Post, "post")
	validateID(v, req.Commenter, "commenter")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c := &Comment{
		Contents:  contents,
		Commenter: common.UserRef{ID: req.Commenter},
		Post:      PostRef{ID: req.Post},
	}

	if req.SuperComment != nil {
		parent, err := s.m.findOne(ctx, Filter{ID: req.SuperComment}.query())
		if err != nil {
			if errors.Is(err, common.ErrRecordNotFound) {
				v.AddError("superComment", "must reference an existing comment")
				return nil, v.ValidationError()
			}
			return nil, err
		}

		v.Check(parent.Post.ID == req.Post, "superComment", "must belong to the same post")
		v.Check(parent.IsTopLevel(), "superComment", "must be a top-level comment")
		if !v.Valid() {
			return nil, v.ValidationError()
		}

		c.SuperComment = &CommentRef{ID: parent.ID}
	}

	if req.Mention != nil {
		c.Mention = &common.UserRef{ID: *req.Mention}
	}

	n, err := s.seq.Next(ctx, scopeSequence(req.Post, req.SuperComment))
	if err != nil {
		return nil, err
	}

	c.CommentNumber = n
	c.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.m.insert(ctx, c); err != nil {
		return nil, err
	}

	if c.IsTopLevel() {
		zero := int64(0)
		c.SubCommentsCount = &zero
	}

	return c, nil
}

func (s *CommentService) Update(ctx context.Context, f Filter, p Patch) (*Comment, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}

	v := common.NewValidator()
	if p.Contents != nil {
		contents := common.SanitizeHTML(*p.Contents)
		validateContents(v, contents)
		set["contents"] = contents
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	f.IncludeDeleted = false
	c, err := s.m.update(ctx, f.query(), set)
	if err != nil {
		return nil, err
	}

	if err := s.attachSubCommentsCount(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *CommentService) SoftDelete(ctx context.Context, f Filter) (*Comment, error) {
	f.IncludeDeleted = false
	now := time.Now().UTC()

	return s.m.update(ctx, f.query(), bson.M{
		"isDeleted": true,
		"deletedAt": now,
		"updatedAt": now,
	})
}

// CountInScope counts the comments matching f. Deleted comments are never counted.
func (s *CommentService) CountInScope(ctx context.Context, f Filter) (int64, error) {
	f.IncludeDeleted = false
	return s.m.count(ctx, f.query())
}

func (s *CommentService) attachSubCommentsCount(ctx context.Context, c *Comment) error {
	if !c.IsTopLevel() {
		return nil
	}

	n, err := s.CountInScope(ctx, Filter{SuperComment: &c.ID})
	if err != nil {
		return err
	}

	c.SubCommentsCount = &n
	return nil
}

func scopeSequence(post primitive.ObjectID, superComment *primitive.ObjectID) string {
	if superComment == nil {
		return "comments:" + post.Hex() + ":root"
	}
	return "comments:" + post.Hex() + ":" + superComment.Hex()
}
