package main

import (
	"context"
	"net/http"

	"goomer/internal/auth"
)

type identityKey string

const identityCtx identityKey = "identity"

func withIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityCtx, id)
}

// getIdentityFromContext returns nil outside AuthTokenMiddleware.
func getIdentityFromContext(r *http.Request) *auth.Identity {
	if id, ok := r.Context().Value(identityCtx).(*auth.Identity); ok {
		return id
	}
	return nil
}
