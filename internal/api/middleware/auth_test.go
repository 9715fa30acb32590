package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/domain/model"
	"bookshelf_api/internal/domain/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenAuth mirrors AuthService.Authenticate over the memory store.
type tokenAuth struct {
	tokens *security.TokenManager
	users  repository.UserRepository
}

func (a tokenAuth) Authenticate(ctx context.Context, token string) (*model.User, error) {
	id, err := a.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.FindByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrUnauthorized
	}
	return user, err
}

type failingAuth struct{}

func (failingAuth) Authenticate(context.Context, string) (*model.User, error) {
	return nil, errors.New("db down")
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.ID))
	})
}

func setup(t *testing.T) (func(http.Handler) http.Handler, *security.TokenManager, *repository.MemoryUserRepository) {
	t.Helper()
	log, _ := test.NewNullLogger()
	users := repository.NewMemoryUserRepository()
	require.NoError(t, users.Create(context.Background(), &model.User{ID: "u1", Username: "alice", Email: "alice@x.com", Role: model.RoleUser}))
	require.NoError(t, users.Create(context.Background(), &model.User{ID: "u2", Username: "root", Email: "root@x.com", Role: model.RoleAdmin}))
	tokens := security.NewTokenManager([]byte("middleware-secret"), time.Hour)
	return Authenticator(tokenAuth{tokens: tokens, users: users}, log), tokens, users
}

func do(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestAuthenticatorAcceptsValidToken(t *testing.T) {
	mw, tokens, _ := setup(t)
	token, err := tokens.GenerateToken("u1")
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + token, "bearer " + token} {
		rec := do(mw(okHandler(t)), header)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", rec.Body.String())
	}
}

func TestAuthenticatorMissingOrMalformedHeader(t *testing.T) {
	mw, tokens, _ := setup(t)
	token, err := tokens.GenerateToken("u1")
	require.NoError(t, err)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "Token " + token, "BearerX" + token, "Bearer a b"} {
		rec := do(mw(okHandler(t)), header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Equal(t, common.CodeMissingCredentials, errorCode(t, rec), "header %q", header)
	}
}

func TestAuthenticatorInvalidAndExpiredTokens(t *testing.T) {
	mw, _, _ := setup(t)

	forged, err := security.NewTokenManager([]byte("other"), time.Hour).GenerateToken("u1")
	require.NoError(t, err)
	rec := do(mw(okHandler(t)), "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.CodeInvalidToken, errorCode(t, rec))

	past := time.Now().Add(-48 * time.Hour)
	expired, err := security.NewTokenManager([]byte("middleware-secret"), time.Hour,
		security.WithClock(func() time.Time { return past })).GenerateToken("u1")
	require.NoError(t, err)
	rec = do(mw(okHandler(t)), "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.CodeExpiredToken, errorCode(t, rec))
}

func TestAuthenticatorRejectsDeletedUser(t *testing.T) {
	mw, tokens, users := setup(t)
	token, err := tokens.GenerateToken("u1")
	require.NoError(t, err)
	require.NoError(t, users.Delete(context.Background(), "u1"))

	rec := do(mw(okHandler(t)), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.CodeUnauthorized, errorCode(t, rec))
}

func TestAuthenticatorStoreFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	mw := Authenticator(failingAuth{}, log)

	rec := do(mw(okHandler(t)), "Bearer abc.def.ghi")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
	assert.Len(t, hook.Entries, 1)
}

func TestAdminOnly(t *testing.T) {
	log, _ := test.NewNullLogger()
	mw, tokens, _ := setup(t)
	h := mw(AdminOnly(log)(okHandler(t)))

	userToken, err := tokens.GenerateToken("u1")
	require.NoError(t, err)
	rec := do(h, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, common.CodeForbidden, errorCode(t, rec))

	adminToken, err := tokens.GenerateToken("u2")
	require.NoError(t, err)
	rec = do(h, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Without an authenticated user in context the gate denies.
	rec = do(AdminOnly(log)(okHandler(t)), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
