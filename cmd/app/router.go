package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// users
	router.HandlerFunc(http.MethodPost, "/v1/signin", app.signinHandler)
	router.HandlerFunc(http.MethodPost, "/v1/signout", app.signoutHandler)
	router.HandlerFunc(http.MethodGet, "/v1/accessToken", app.accessTokenHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/signedInUser", app.signedInUserHandler)

	// posts
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:id", app.getPostHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireAuthUser(app.createPostHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id", app.requireAuthUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.requireAuthUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/posts/:id", app.requireAdmin(app.purgePostHandler))

	// images
	router.HandlerFunc(http.MethodPost, "/v1/images", app.requireAuthUser(app.uploadImageHandler))

	// comments
	router.HandlerFunc(http.MethodGet, "/v1/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/comments", app.requireAuthUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.requireAuthUser(app.updateCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireAuthUser(app.deleteCommentHandler))

	return app.recoverPanic(app.logRequest(app.rateLimit(app.authenticate(router))))
}
