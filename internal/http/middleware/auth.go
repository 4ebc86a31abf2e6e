package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
)

// ErrorHandlerFunc writes err as an API error response.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// Authenticate resolves the bearer token to a principal and stores it in the
// request context. Requests without a valid session get 401.
func Authenticate(a Authenticator, onError ErrorHandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				onError(w, r, apperr.UnauthenticatedErr)
				return
			}

			principal, err := a.Authenticate(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), principal)))
		})
	}
}

// RequirePermission rejects principals lacking perm with 403.
func RequirePermission(perm auth.Permission, onError ErrorHandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.FromContext(r.Context())
			if !ok {
				onError(w, r, apperr.UnauthenticatedErr)
				return
			}
			if !principal.Can(perm) {
				onError(w, r, apperr.PermissionDeniedErr.WithMsg("missing permission %s", perm))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
