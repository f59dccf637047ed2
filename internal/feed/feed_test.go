package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkpost/internal/commentservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/postservice"
	"github.com/sushihentaime/inkpost/internal/userservice"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockPosts struct {
	mock.Mock
}

func (m *mockPosts) Find(ctx context.Context, f postservice.Filter) (*postservice.Post, error) {
	args := m.Called(f)
	p, _ := args.Get(0).(*postservice.Post)
	return p, args.Error(1)
}

func (m *mockPosts) List(ctx context.Context, f postservice.Filter, o postservice.ListOptions) ([]postservice.Post, error) {
	args := m.Called(f, o)
	p, _ := args.Get(0).([]postservice.Post)
	return p, args.Error(1)
}

type mockComments struct {
	mock.Mock
}

func (m *mockComments) Find(ctx context.Context, f commentservice.Filter) (*commentservice.Comment, error) {
	args := m.Called(f)
	c, _ := args.Get(0).(*commentservice.Comment)
	return c, args.Error(1)
}

func (m *mockComments) List(ctx context.Context, f commentservice.Filter, o commentservice.ListOptions) ([]commentservice.Comment, error) {
	args := m.Called(f, o)
	c, _ := args.Get(0).([]commentservice.Comment)
	return c, args.Error(1)
}

// countingUsers records how many batches were requested.
type countingUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*userservice.User
	calls [][]primitive.ObjectID
	err   error
}

func (c *countingUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*userservice.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, ids)
	if c.err != nil {
		return nil, c.err
	}

	out := map[primitive.ObjectID]*userservice.User{}
	for _, id := range ids {
		if u, ok := c.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func newUsers(names ...string) (*countingUsers, []primitive.ObjectID) {
	u := &countingUsers{users: map[primitive.ObjectID]*userservice.User{}}
	var ids []primitive.ObjectID
	for _, name := range names {
		id := primitive.NewObjectID()
		u.users[id] = &userservice.User{Base: common.Base{ID: id}, Username: name}
		ids = append(ids, id)
	}
	return u, ids
}

func TestParseCursor(t *testing.T) {
	testCases := []struct {
		in   string
		want int64
	}{
		{in: "", want: 0},
		{in: "12", want: 12},
		{in: "-3", want: 0},
		{in: "abc", want: 0},
		{in: "1.5", want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCursor(tc.in))
		})
	}
}

func TestFindPost(t *testing.T) {
	users, ids := newUsers("alice")
	posts := new(mockPosts)
	f := NewFeed(posts, new(mockComments), users)

	postID := primitive.NewObjectID()
	posts.On("Find", postservice.Filter{ID: &postID}).
		Return(&postservice.Post{Title: "T", Author: common.UserRef{ID: ids[0]}}, nil)

	post, err := f.FindPost(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, "alice", post.Author.Username)

	missing := primitive.NewObjectID()
	posts.On("Find", postservice.Filter{ID: &missing}).Return(nil, common.ErrRecordNotFound)
	_, err = f.FindPost(context.Background(), missing)
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestListPosts(t *testing.T) {
	users, ids := newUsers("alice", "bob")
	ghost := primitive.NewObjectID()
	posts := new(mockPosts)
	f := NewFeed(posts, new(mockComments), users)

	cursor := int64(0)
	posts.On("List", postservice.Filter{MinPostNumber: &cursor}, postservice.ListOptions{Limit: postservice.PostsPageSize, Skip: 0}).
		Return([]postservice.Post{
			{Author: common.UserRef{ID: ids[0]}},
			{Author: common.UserRef{ID: ids[1]}},
			{Author: common.UserRef{ID: ids[0]}},
			{Author: common.UserRef{ID: ghost}},
		}, nil)

	list, err := f.ListPosts(context.Background(), PostPage{Cursor: -5, Offset: -1})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "alice", list[0].Author.Username)
	assert.Equal(t, "bob", list[1].Author.Username)
	assert.Equal(t, "alice", list[2].Author.Username)
	assert.Empty(t, list[3].Author.Username)

	require.Len(t, users.calls, 1)
	assert.Len(t, users.calls[0], 3)
	posts.AssertExpectations(t)
}

func TestListComments(t *testing.T) {
	users, ids := newUsers("alice", "bob")
	comments := new(mockComments)
	f := NewFeed(new(mockPosts), comments, users)
	post := primitive.NewObjectID()
	one := int64(1)
	count := int64(2)

	comments.On("List", commentservice.Filter{Post: &post, TopLevelOnly: true, MinCommentNumber: &one}, commentservice.ListOptions{Limit: commentservice.CommentsPageSize, Skip: 3}).
		Return([]commentservice.Comment{
			{Commenter: common.UserRef{ID: ids[0]}, SubCommentsCount: &count},
			{Commenter: common.UserRef{ID: ids[1]}, Mention: &common.UserRef{ID: ids[0]}},
		}, nil)

	list, err := f.ListComments(context.Background(), CommentPage{Post: &post, Cursor: 1, Offset: 3})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Commenter.Username)
	assert.Equal(t, "bob", list[1].Commenter.Username)
	assert.Equal(t, "alice", list[1].Mention.Username)
	assert.Equal(t, int64(2), *list[0].SubCommentsCount)
	assert.Len(t, users.calls, 1)

	_, err = f.ListComments(context.Background(), CommentPage{})
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"post": "must be provided"}}, err)
}

func TestListComments_Replies(t *testing.T) {
	users, ids := newUsers("alice")
	comments := new(mockComments)
	f := NewFeed(new(mockPosts), comments, users)
	post := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	zero := int64(0)

	comments.On("List", commentservice.Filter{Post: &post, SuperComment: &parent, MinCommentNumber: &zero}, commentservice.ListOptions{Limit: commentservice.CommentsPageSize}).
		Return([]commentservice.Comment{{Commenter: common.UserRef{ID: ids[0]}, SuperComment: &commentservice.CommentRef{ID: parent}}}, nil)

	list, err := f.ListComments(context.Background(), CommentPage{Post: &post, SuperComment: &parent})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Commenter.Username)
}

func TestListComments_ByCommenter(t *testing.T) {
	users, ids := newUsers("alice")
	comments := new(mockComments)
	f := NewFeed(new(mockPosts), comments, users)
	zero := int64(0)

	comments.On("List", commentservice.Filter{Commenter: &ids[0], TopLevelOnly: true, MinCommentNumber: &zero}, commentservice.ListOptions{Limit: commentservice.CommentsPageSize}).
		Return([]commentservice.Comment{
			{Commenter: common.UserRef{ID: ids[0]}, Post: commentservice.PostRef{ID: primitive.NewObjectID()}},
			{Commenter: common.UserRef{ID: ids[0]}, Post: commentservice.PostRef{ID: primitive.NewObjectID()}},
		}, nil)

	list, err := f.ListComments(context.Background(), CommentPage{Commenter: &ids[0]})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEqual(t, list[0].Post.ID, list[1].Post.ID)
	assert.Equal(t, "alice", list[0].Commenter.Username)
	assert.Equal(t, "alice", list[1].Commenter.Username)
	comments.AssertExpectations(t)
}

func TestFindComment_UserLookupFails(t *testing.T) {
	users, ids := newUsers("alice")
	users.err = errors.New("db down")
	comments := new(mockComments)
	f := NewFeed(new(mockPosts), comments, users)
	id := primitive.NewObjectID()

	comments.On("Find", commentservice.Filter{ID: &id}).Return(&commentservice.Comment{Commenter: common.UserRef{ID: ids[0]}}, nil)

	_, err := f.FindComment(context.Background(), id)
	assert.EqualError(t, err, "db down")
}
