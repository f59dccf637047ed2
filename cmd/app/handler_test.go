package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkpost/internal/blobstore"
)

func TestHealthCheckHandler(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.send(t, http.MethodGet, "/v1/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
}

func TestSigninFlow(t *testing.T) {
	app, _, producer := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
	}{
		{
			name:       "fake provider",
			payload:    signinRequest{OAuthServer: "fake"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "fake provider again",
			payload:    signinRequest{OAuthServer: "fake"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unsupported provider",
			payload:    signinRequest{OAuthServer: "myspace"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "provider not enabled",
			payload:    signinRequest{OAuthServer: "google", ID: "id-token"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown field",
			payload:    map[string]string{"oauthServer": "fake", "password": "x"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, _ := ts.send(t, http.MethodPost, "/v1/signin", "", tc.payload)
			assert.Equal(t, tc.wantStatus, status)
		})
	}

	assert.Equal(t, 1, producer.Len())
}

func TestRefreshCookieEndpoints(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, id, cookie := ts.signin(t, "alice")
	assert.True(t, cookie.HttpOnly)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/accessToken", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	status, _, body := ts.do(t, req, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["accessToken"])

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/v1/users/signedInUser", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	status, _, body = ts.do(t, req, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"_id": id, "username": "alice"}, body["user"])

	status, _, _ = ts.send(t, http.MethodGet, "/v1/accessToken", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	res, err := ts.Client().Post(ts.URL+"/v1/signout", "application/json", nil)
	require.NoError(t, err)
	var cleared *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == refreshTokenCookie {
			cleared = c
		}
	}
	status, _, _ = readResponse(t, res)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestPostLifecycle(t *testing.T) {
	app, blobs, producer := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	alice, aliceID, _ := ts.signin(t, "alice")
	bob, _, _ := ts.signin(t, "bob")

	// upload an image to reference from the post
	status, _, body := ts.sendMultipart(t, http.MethodPost, "/v1/images", alice, nil,
		&upload{field: "image", filename: "inline.png", contentType: "image/png", data: []byte("png")})
	require.Equal(t, http.StatusCreated, status)
	image := body["image"].(map[string]any)
	images, err := json.Marshal([]any{image})
	require.NoError(t, err)

	status, _, body = ts.sendMultipart(t, http.MethodPost, "/v1/posts", alice,
		map[string]string{"title": "Hello", "contents": "<p>hi</p><script>x()</script>", "images": string(images)},
		&upload{field: "thumbnail", filename: "thumb.jpg", contentType: "image/jpeg", data: []byte("jpg")})
	require.Equal(t, http.StatusCreated, status)
	post := body["post"].(map[string]any)
	postID := post["_id"].(string)
	assert.Equal(t, "<p>hi</p>", post["contents"])
	assert.Equal(t, float64(1), post["postNumber"])
	assert.True(t, blobs.Has(blobstore.ContentsKey(postID)))
	assert.True(t, blobs.Has(blobstore.ThumbnailKey(postID, "thumb.jpg")))

	status, _, body = ts.send(t, http.MethodGet, "/v1/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, status)
	post = body["post"].(map[string]any)
	assert.Equal(t, "<p>hi</p>", post["contents"])
	assert.Equal(t, map[string]any{"_id": aliceID, "username": "alice"}, post["author"])

	status, _, body = ts.send(t, http.MethodGet, "/v1/posts?cursor=0&offset=0", "", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["posts"].([]any)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0].(map[string]any), "contents")

	testCases := []struct {
		name       string
		token      string
		fields     map[string]string
		wantStatus int
	}{
		{name: "anonymous", token: "", fields: map[string]string{"title": "x"}, wantStatus: http.StatusUnauthorized},
		{name: "not the author", token: bob, fields: map[string]string{"title": "x"}, wantStatus: http.StatusForbidden},
		{name: "blank title", token: alice, fields: map[string]string{"title": " "}, wantStatus: http.StatusUnprocessableEntity},
		{name: "author", token: alice, fields: map[string]string{"title": "Hello again"}, wantStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, _ := ts.sendMultipart(t, http.MethodPatch, "/v1/posts/"+postID, tc.token, tc.fields, nil)
			assert.Equal(t, tc.wantStatus, status)
		})
	}

	status, _, _ = ts.send(t, http.MethodDelete, "/v1/posts/"+postID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = ts.send(t, http.MethodDelete, "/v1/posts/"+postID, alice, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.send(t, http.MethodGet, "/v1/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.True(t, blobs.Has(blobstore.ContentsKey(postID)))

	// hard delete needs the admin key and reaches soft deleted posts
	status, _, _ = ts.send(t, http.MethodDelete, "/v1/admin/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/admin/posts/"+postID, nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Key", "admin-secret")
	status, _, _ = ts.do(t, req, "")
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, blobs.Has(blobstore.ContentsKey(postID)))
	assert.False(t, blobs.Has(blobstore.ThumbnailKey(postID, "thumb.jpg")))
	assert.Equal(t, 2, producer.Len())
}

func TestCreatePost_BadInput(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	alice, _, _ := ts.signin(t, "alice")

	status, _, _ := ts.send(t, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "json"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = ts.sendMultipart(t, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "T", "images": "{"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, body := ts.sendMultipart(t, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "T"},
		&upload{field: "thumbnail", filename: "notes.txt", contentType: "text/plain", data: []byte("x")})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "contentType")

	status, _, _ = ts.send(t, http.MethodGet, "/v1/posts/not-an-id", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = ts.sendMultipart(t, http.MethodPost, "/v1/posts", "not-a-token", map[string]string{"title": "T"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCommentLifecycle(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	alice, _, _ := ts.signin(t, "alice")
	bob, bobID, _ := ts.signin(t, "bob")
	carol, _, _ := ts.signin(t, "carol")

	status, _, body := ts.sendMultipart(t, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "Post", "contents": "<p>c</p>"}, nil)
	require.Equal(t, http.StatusCreated, status)
	postID := body["post"].(map[string]any)["_id"].(string)

	status, _, body = ts.send(t, http.MethodPost, "/v1/comments", bob, map[string]any{"contents": "first", "post": postID})
	require.Equal(t, http.StatusCreated, status)
	top := body["comment"].(map[string]any)
	topID := top["_id"].(string)
	assert.Equal(t, float64(1), top["commentNumber"])

	status, _, body = ts.send(t, http.MethodPost, "/v1/comments", carol, map[string]any{"contents": "reply", "post": postID, "superComment": topID, "mention": bobID})
	require.Equal(t, http.StatusCreated, status)
	replyID := body["comment"].(map[string]any)["_id"].(string)

	status, _, body = ts.send(t, http.MethodGet, "/v1/comments?postId="+postID, "", nil)
	require.Equal(t, http.StatusOK, status)
	comments := body["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, float64(1), comments[0].(map[string]any)["subCommentsCount"])
	assert.Equal(t, "bob", comments[0].(map[string]any)["commenter"].(map[string]any)["username"])

	status, _, body = ts.send(t, http.MethodGet, "/v1/comments?postId="+postID+"&superCommentId="+topID, "", nil)
	require.Equal(t, http.StatusOK, status)
	replies := body["comments"].([]any)
	require.Len(t, replies, 1)
	assert.Equal(t, "bob", replies[0].(map[string]any)["mention"].(map[string]any)["username"])

	status, _, body = ts.sendMultipart(t, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "Other", "contents": "<p>d</p>"}, nil)
	require.Equal(t, http.StatusCreated, status)
	otherID := body["post"].(map[string]any)["_id"].(string)

	status, _, _ = ts.send(t, http.MethodPost, "/v1/comments", bob, map[string]any{"contents": "second", "post": otherID})
	require.Equal(t, http.StatusCreated, status)

	status, _, body = ts.send(t, http.MethodGet, "/v1/comments?commenterId="+bobID, "", nil)
	require.Equal(t, http.StatusOK, status)
	mine := body["comments"].([]any)
	require.Len(t, mine, 2)
	var posts []string
	for _, c := range mine {
		assert.Equal(t, "bob", c.(map[string]any)["commenter"].(map[string]any)["username"])
		posts = append(posts, c.(map[string]any)["post"].(map[string]any)["_id"].(string))
	}
	assert.ElementsMatch(t, []string{postID, otherID}, posts)

	status, _, _ = ts.send(t, http.MethodGet, "/v1/comments", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = ts.send(t, http.MethodGet, "/v1/comments?commenterId=nope", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = ts.send(t, http.MethodPut, "/v1/comments/"+topID, carol, map[string]any{"contents": "hijack"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _, body = ts.send(t, http.MethodPut, "/v1/comments/"+topID, bob, map[string]any{"contents": "edited"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", body["comment"].(map[string]any)["contents"])

	status, _, _ = ts.send(t, http.MethodPut, "/v1/comments/"+topID, bob, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = ts.send(t, http.MethodDelete, "/v1/comments/"+replyID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// the post author moderates comments on their post
	status, _, _ = ts.send(t, http.MethodDelete, "/v1/comments/"+replyID, alice, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, body = ts.send(t, http.MethodGet, "/v1/comments?postId="+postID+"&superCommentId="+topID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["comments"])
}
