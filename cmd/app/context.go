package main

import (
	"context"
	"net/http"
)

type contextKey string

const tokenContextKey = contextKey("token")

func (app *application) createTokenContext(r *http.Request, token string) *http.Request {
	ctx := context.WithValue(r.Context(), tokenContextKey, token)
	return r.WithContext(ctx)
}

// getTokenContext returns the bearer token of the request, or "" for anonymous callers.
func (app *application) getTokenContext(r *http.Request) string {
	token, ok := r.Context().Value(tokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
