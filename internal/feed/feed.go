package feed

import (
	"context"
	"strconv"

	"github.com/sushihentaime/inkpost/internal/commentservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/postservice"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewFeed(posts PostReader, comments CommentReader, users UserFinder) *Feed {
	return &Feed{posts: posts, comments: comments, users: users}
}

// ParseCursor reads a cursor or offset query value. Anything that is not a
// non-negative integer becomes 0.
func ParseCursor(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func (f *Feed) FindPost(ctx context.Context, id primitive.ObjectID) (*postservice.Post, error) {
	post, err := f.posts.Find(ctx, postservice.Filter{ID: &id})
	if err != nil {
		return nil, err
	}

	names, err := usernames(ctx, newUsernameLoader(f.users), []primitive.ObjectID{post.Author.ID})
	if err != nil {
		return nil, err
	}
	post.Author.Username = names[post.Author.ID]

	return post, nil
}

func (f *Feed) ListPosts(ctx context.Context, page PostPage) ([]postservice.Post, error) {
	cursor := clamp(page.Cursor)
	posts, err := f.posts.List(ctx, postservice.Filter{MinPostNumber: &cursor, Author: page.Author}, postservice.ListOptions{
		Limit: postservice.PostsPageSize,
		Skip:  clamp(page.Offset),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.Author.ID)
	}

	names, err := usernames(ctx, newUsernameLoader(f.users), ids)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		posts[i].Author.Username = names[posts[i].Author.ID]
	}

	return posts, nil
}

func (f *Feed) FindComment(ctx context.Context, id primitive.ObjectID) (*commentservice.Comment, error) {
	c, err := f.comments.Find(ctx, commentservice.Filter{ID: &id})
	if err != nil {
		return nil, err
	}

	comments := []commentservice.Comment{*c}
	if err := f.fillCommentUsernames(ctx, comments); err != nil {
		return nil, err
	}

	return &comments[0], nil
}

func (f *Feed) ListComments(ctx context.Context, page CommentPage) ([]commentservice.Comment, error) {
	v := common.NewValidator()
	v.Check(page.Post != nil || page.Commenter != nil, "post", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	cursor := clamp(page.Cursor)
	filter := commentservice.Filter{
		Post:             page.Post,
		Commenter:        page.Commenter,
		SuperComment:     page.SuperComment,
		TopLevelOnly:     page.SuperComment == nil,
		MinCommentNumber: &cursor,
	}

	comments, err := f.comments.List(ctx, filter, commentservice.ListOptions{
		Limit: commentservice.CommentsPageSize,
		Skip:  clamp(page.Offset),
	})
	if err != nil {
		return nil, err
	}

	if err := f.fillCommentUsernames(ctx, comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (f *Feed) fillCommentUsernames(ctx context.Context, comments []commentservice.Comment) error {
	ids := make([]primitive.ObjectID, 0, 2*len(comments))
	for _, c := range comments {
		ids = append(ids, c.Commenter.ID)
		if c.Mention != nil {
			ids = append(ids, c.Mention.ID)
		}
	}

	names, err := usernames(ctx, newUsernameLoader(f.users), ids)
	if err != nil {
		return err
	}

	for i := range comments {
		comments[i].Commenter.Username = names[comments[i].Commenter.ID]
		if m := comments[i].Mention; m != nil {
			m.Username = names[m.ID]
		}
	}

	return nil
}
