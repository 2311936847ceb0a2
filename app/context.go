package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/inkpost/internal/userservice"
)

type contextKey int

const (
	actorContextKey contextKey = iota
	requestIDContextKey
)

func (app *application) withActor(r *http.Request, actor *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), actorContextKey, actor)
	return r.WithContext(ctx)
}

// currentActor returns the authenticated user, or the anonymous user when
// the request never went through authenticate.
func (app *application) currentActor(r *http.Request) *userservice.User {
	actor, ok := r.Context().Value(actorContextKey).(*userservice.User)
	if !ok || actor == nil {
		return &userservice.AnonymousUser
	}
	return actor
}

func withRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
