package matrix

import (
	"context"
	"net/http"
	"strings"

	"voicesvc/internal/pkg/errs"
	"voicesvc/internal/pkg/resp"
)

type contextKey string

// ContextPrincipalKey is the request context key holding the verified Principal.
const ContextPrincipalKey contextKey = "matrix_principal"

// Verifier resolves a bearer token to a Principal.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (Principal, bool)
}

// AuthRecorder observes the outcome of each verification attempt.
type AuthRecorder interface {
	RecordAuth(ctx context.Context, success bool)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It reports false if the header is absent, uses another scheme, or carries an empty token.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

// RequireIdentity rejects requests that do not carry a token the homeserver vouches for.
// A missing or malformed header yields ErrMissingAuthHeader and never reaches the
// homeserver; a rejected token or an unreachable homeserver both yield
// ErrInvalidIdentityToken. On success the Principal is stored in the request context.
// recorder may be nil.
func RequireIdentity(v Verifier, recorder AuthRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				resp.RespondError(w, r, errs.NewError(errs.ErrMissingAuthHeader))
				return
			}

			principal, ok := v.Verify(r.Context(), token)
			if recorder != nil {
				recorder.RecordAuth(r.Context(), ok)
			}
			if !ok {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidIdentityToken))
				return
			}

			ctx := context.WithValue(r.Context(), ContextPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the Principal stored by RequireIdentity.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(ContextPrincipalKey).(Principal)
	if !ok || principal == "" {
		return "", false
	}
	return principal, true
}
