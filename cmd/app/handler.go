package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sushihentaime/inkpost/internal/commentservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/feed"
	"github.com/sushihentaime/inkpost/internal/postservice"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

const refreshTokenCookie = "refreshToken"

type signinRequest struct {
	OAuthServer string `json:"oauthServer"`
	AccessToken string `json:"accessToken"`
	ID          string `json:"id"`
}

func (app *application) signinHandler(w http.ResponseWriter, r *http.Request) {
	var input signinRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	res, err := app.userService.SignIn(r.Context(), userservice.Provider(input.OAuthServer), input.AccessToken, input.ID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.setRefreshTokenCookie(w, res.RefreshToken, int(userservice.RefreshTokenTime.Seconds()))

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}

	err = app.writeJSON(w, status, envelope{"user": res.User, "accessToken": res.AccessToken}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) signoutHandler(w http.ResponseWriter, r *http.Request) {
	app.setRefreshTokenCookie(w, "", -1)

	err := app.writeJSON(w, http.StatusOK, envelope{"message": "signed out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) setRefreshTokenCookie(w http.ResponseWriter, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if app.config.isProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, cookie)
}

func (app *application) readRefreshToken(r *http.Request) string {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (app *application) accessTokenHandler(w http.ResponseWriter, r *http.Request) {
	token, err := app.userService.RefreshAccessToken(r.Context(), app.readRefreshToken(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"accessToken": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) signedInUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := app.userService.SignedInUser(r.Context(), app.readRefreshToken(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": common.UserRef{ID: user.ID, Username: user.Username}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	cursor, offset := app.readCursorParams(r)

	author, err := app.readOptionalIDQuery(r, "author")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	posts, err := app.feed.ListPosts(r.Context(), feed.PostPage{Cursor: cursor, Offset: offset, Author: author})
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	post, err := app.feed.FindPost(r.Context(), id)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readImagesField decodes the JSON array sent in the images form field.
func (app *application) readImagesField(r *http.Request) (*[]common.Image, error) {
	raw, ok := app.readFormValue(r, "images")
	if !ok {
		return nil, nil
	}

	var images []common.Image
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, errors.New("images must be a JSON array")
	}
	return &images, nil
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseMultipart(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	images, err := app.readImagesField(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	thumbnail, err := app.readFormFile(r, "thumbnail")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	req := &postservice.CreatePostRequest{}
	req.Title, _ = app.readFormValue(r, "title")
	req.Contents, _ = app.readFormValue(r, "contents")
	if images != nil {
		req.Images = *images
	}

	post, err := app.gate.CreatePost(r.Context(), app.getTokenContext(r), req, thumbnail)
	if err != nil {
		var upstream *common.UpstreamError
		if post == nil || !errors.As(err, &upstream) {
			app.serviceErrorResponse(w, r, err)
			return
		}

		// the post exists without its body or thumbnail; the client can PATCH them in
		app.logError(r, err)
		err = app.writeJSON(w, http.StatusCreated, envelope{"post": post, "warning": "the post was saved but its contents or thumbnail could not be stored"}, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.parseMultipart(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var patch postservice.Patch

	patch.Images, err = app.readImagesField(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	thumbnail, err := app.readFormFile(r, "thumbnail")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if title, ok := app.readFormValue(r, "title"); ok {
		patch.Title = &title
	}
	if contents, ok := app.readFormValue(r, "contents"); ok {
		patch.Contents = &contents
	}

	post, err := app.gate.UpdatePost(r.Context(), app.getTokenContext(r), id, patch, thumbnail)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	_, err = app.gate.DeletePost(r.Context(), app.getTokenContext(r), id)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// purgePostHandler removes a post and its blobs for good, deleted or not.
func (app *application) purgePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	_, err = app.postService.HardDelete(r.Context(), postservice.Filter{ID: &id})
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post purged"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseMultipart(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	file, err := app.readFormFile(r, "image")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	image, err := app.gate.UploadImage(r.Context(), app.getTokenContext(r), file)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"image": image}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	cursor, offset := app.readCursorParams(r)

	post, err := app.readOptionalIDQuery(r, "postId")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	commenter, err := app.readOptionalIDQuery(r, "commenterId")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if post == nil && commenter == nil {
		app.failedValidationErrorResponse(w, r, map[string]string{"postId": "must be provided unless commenterId is"})
		return
	}

	superComment, err := app.readOptionalIDQuery(r, "superCommentId")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	comments, err := app.feed.ListComments(r.Context(), feed.CommentPage{
		Post:         post,
		Commenter:    commenter,
		SuperComment: superComment,
		Cursor:       cursor,
		Offset:       offset,
	})
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	var input commentservice.CreateCommentRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.gate.CreateComment(r.Context(), app.getTokenContext(r), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type updateCommentRequest struct {
	Contents *string `json:"contents"`
}

func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	var input updateCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if input.Contents == nil {
		app.failedValidationErrorResponse(w, r, map[string]string{"contents": "must be provided"})
		return
	}

	comment, err := app.gate.UpdateComment(r.Context(), app.getTokenContext(r), id, commentservice.Patch{Contents: input.Contents})
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	_, err = app.gate.DeleteComment(r.Context(), app.getTokenContext(r), id)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
