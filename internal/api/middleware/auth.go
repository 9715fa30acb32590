package middleware

import (
	"context"
	"net/http"
	"strings"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userCtxKey contextKey = "user"

// TokenAuthenticator resolves a bearer token to a live user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Authenticator rejects requests without a valid bearer token for an
// existing user and stores that user in the request context.
func Authenticator(auth TokenAuthenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				common.RespondWithDomainError(w, r, log, err)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				common.RespondWithDomainError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return "", common.ErrMissingCredentials
	}
	token := jwtauth.TokenFromHeader(r)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", common.ErrMissingCredentials
	}
	return token, nil
}

// AdminOnly must run after Authenticator.
func AdminOnly(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if !security.IsAdmin(security.IdentityOf(user)) {
				common.RespondWithDomainError(w, r, log, common.Errorf("admin access required: %w", common.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok && user != nil
}
