package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkpost/internal/blobstore"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

// namedResolver signs in one account per access token.
type namedResolver struct{}

func (namedResolver) Resolve(ctx context.Context, accessToken, _ string) (*userservice.Identity, error) {
	return &userservice.Identity{ProviderID: accessToken, Email: accessToken + "@example.com", Username: accessToken}, nil
}

func newTestApplication(t *testing.T) (*application, *blobstore.Memory, *common.RecordingProducer) {
	db := common.TestDB(t)
	require.NoError(t, ensureIndexes(db))

	cfg := &Config{
		Environment: "development",
		Version:     "test",
		AdminKey:    "admin-secret",
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tokens, err := userservice.NewTokens("access-secret", "refresh-secret")
	require.NoError(t, err)

	resolvers := map[userservice.Provider]userservice.Resolver{
		userservice.ProviderFake:     userservice.FakeResolver{},
		userservice.ProviderFacebook: namedResolver{},
	}

	blobs := blobstore.NewMemory("https://cdn.example.com")
	producer := &common.RecordingProducer{}

	return newApplication(cfg, logger, db, producer, blobs, tokens, resolvers), blobs, producer
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var envelope envelope
	require.NoError(t, json.Unmarshal(responseBody, &envelope))

	return res.StatusCode, res.Header, envelope
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) (int, http.Header, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	require.NoError(t, err)

	return readResponse(t, res)
}

func (ts *testServer) send(t *testing.T, method, path, token string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return ts.do(t, req, token)
}

type upload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func (ts *testServer) sendMultipart(t *testing.T, method, path, token string, fields map[string]string, file *upload) (int, http.Header, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return ts.do(t, req, token)
}

// signin signs name in through the facebook resolver and returns its access
// token, user id and refresh cookie.
func (ts *testServer) signin(t *testing.T, name string) (string, string, *http.Cookie) {
	jsonPayload, err := json.Marshal(signinRequest{OAuthServer: "facebook", AccessToken: name})
	require.NoError(t, err)

	res, err := ts.Client().Post(ts.URL+"/v1/signin", "application/json", bytes.NewReader(jsonPayload))
	require.NoError(t, err)

	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == refreshTokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	status, _, body := readResponse(t, res)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, status)

	user := body["user"].(map[string]any)
	return body["accessToken"].(string), user["_id"].(string), cookie
}
