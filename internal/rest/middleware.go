package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/taksyapp/tasks-api/internal"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	tokenKey
)

//TokenVerifier parses and validates a presented bearer token.
type TokenVerifier interface {
	Verify(token string) (internal.Principal, error)
}

//RevocationChecker reports whether a token was denylisted by a logout.
type RevocationChecker interface {
	Revoked(ctx context.Context, token string) (bool, error)
}

//Authenticator rejects requests without a valid "Authorization: Bearer" token and
//loads the principal into the request context.
func Authenticator(tokens TokenVerifier, revoked RevocationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				renderErrorResponse(r.Context(), w, "not authenticated",
					internal.NewErrorf(internal.ErrorCodeUnauthenticated, "missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				renderErrorResponse(r.Context(), w, "not authenticated",
					internal.NewErrorf(internal.ErrorCodeUnauthenticated, "invalid authorization header"))
				return
			}

			token := parts[1]

			principal, err := tokens.Verify(token)
			if err != nil {
				renderErrorResponse(r.Context(), w, "not authenticated", err)
				return
			}

			if revoked != nil {
				isRevoked, err := revoked.Revoked(r.Context(), token)
				if err != nil {
					renderErrorResponse(r.Context(), w, "internal error", err)
					return
				}
				if isRevoked {
					renderErrorResponse(r.Context(), w, "not authenticated",
						internal.NewErrorf(internal.ErrorCodeUnauthenticated, "token revoked"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			ctx = context.WithValue(ctx, tokenKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

//PrincipalFromContext returns the authenticated principal, the zero value when the
//request never went through the Authenticator.
func PrincipalFromContext(ctx context.Context) internal.Principal {
	principal, _ := ctx.Value(principalKey).(internal.Principal)
	return principal
}

//TokenFromContext returns the raw bearer token of the request.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
