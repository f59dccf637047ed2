package authz

import (
	"context"
	"errors"

	"github.com/sushihentaime/inkpost/internal/commentservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/imageservice"
	"github.com/sushihentaime/inkpost/internal/postservice"
	"github.com/sushihentaime/inkpost/internal/userservice"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gate resolves callers from their access token and only lets owners mutate posts
// and comments. A resource that does not exist and one owned by someone else both
// produce common.ErrForbidden.
type Gate struct {
	users    *userservice.UserService
	posts    *postservice.PostService
	comments *commentservice.CommentService
	images   *imageservice.ImageService
}

func NewGate(users *userservice.UserService, posts *postservice.PostService, comments *commentservice.CommentService, images *imageservice.ImageService) *Gate {
	return &Gate{users: users, posts: posts, comments: comments, images: images}
}

// IdentityFromCredential verifies an access token and checks that its user still exists.
func (g *Gate) IdentityFromCredential(ctx context.Context, token string) (common.UserRef, error) {
	if token == "" {
		return common.UserRef{}, common.ErrUnauthenticated
	}

	id, err := g.users.VerifyAccessToken(token)
	if err != nil {
		return common.UserRef{}, err
	}

	u, err := g.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return common.UserRef{}, common.ErrForbidden
		}
		return common.UserRef{}, err
	}

	return common.UserRef{ID: u.ID, Username: u.Username}, nil
}

func (g *Gate) CreatePost(ctx context.Context, token string, req *postservice.CreatePostRequest, thumbnail *common.File) (*postservice.Post, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	req.Author = caller.ID
	return g.posts.Create(ctx, req, thumbnail)
}

func (g *Gate) UpdatePost(ctx context.Context, token string, id primitive.ObjectID, p postservice.Patch, thumbnail *common.File) (*postservice.Post, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	post, err := g.posts.Update(ctx, postservice.Filter{ID: &id, Author: &caller.ID}, p, thumbnail)
	if err != nil {
		return nil, forbidden(err)
	}

	return post, nil
}

// DeletePost soft deletes a post of the caller.
func (g *Gate) DeletePost(ctx context.Context, token string, id primitive.ObjectID) (*postservice.Post, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	post, err := g.posts.SoftDelete(ctx, postservice.Filter{ID: &id, Author: &caller.ID})
	if err != nil {
		return nil, forbidden(err)
	}

	return post, nil
}

// UploadImage stores a freestanding image under the caller's id.
func (g *Gate) UploadImage(ctx context.Context, token string, f *common.File) (*common.Image, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	return g.images.Upload(ctx, f, caller.ID.Hex())
}

// CreateComment comments on a live post as the caller.
func (g *Gate) CreateComment(ctx context.Context, token string, req *commentservice.CreateCommentRequest) (*commentservice.Comment, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	exists, err := g.postExists(ctx, postservice.Filter{ID: &req.Post})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.ErrForbidden
	}

	req.Commenter = caller.ID
	return g.comments.Create(ctx, req)
}

func (g *Gate) UpdateComment(ctx context.Context, token string, id primitive.ObjectID, p commentservice.Patch) (*commentservice.Comment, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	c, err := g.comments.Update(ctx, commentservice.Filter{ID: &id, Commenter: &caller.ID}, p)
	if err != nil {
		return nil, forbidden(err)
	}

	return c, nil
}

// DeleteComment soft deletes a comment written by the caller, or any comment on a
// post the caller wrote.
func (g *Gate) DeleteComment(ctx context.Context, token string, id primitive.ObjectID) (*commentservice.Comment, error) {
	caller, err := g.IdentityFromCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	target, err := g.comments.Find(ctx, commentservice.Filter{ID: &id})
	if err != nil {
		return nil, forbidden(err)
	}

	if target.Commenter.ID != caller.ID {
		// moderation: the post's author may remove comments on it
		moderator, err := g.postExists(ctx, postservice.Filter{ID: &target.Post.ID, Author: &caller.ID, IncludeDeleted: true})
		if err != nil {
			return nil, err
		}
		if !moderator {
			return nil, common.ErrForbidden
		}
	}

	c, err := g.comments.SoftDelete(ctx, commentservice.Filter{ID: &id})
	if err != nil {
		return nil, forbidden(err)
	}

	return c, nil
}

// postExists checks for a matching post without reading its body.
func (g *Gate) postExists(ctx context.Context, f postservice.Filter) (bool, error) {
	posts, err := g.posts.List(ctx, f, postservice.ListOptions{Fields: []string{"_id"}, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(posts) == 1, nil
}

// forbidden hides whether a missing resource exists at all.
func forbidden(err error) error {
	if errors.Is(err, common.ErrRecordNotFound) {
		return common.ErrForbidden
	}
	return err
}
