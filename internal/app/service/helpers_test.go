package service

import (
	"context"
	"testing"
	"time"

	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/domain/model"
	"bookshelf_api/internal/domain/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	users  *repository.MemoryUserRepository
	books  *repository.MemoryBookRepository
	tokens *security.TokenManager
	auth   *AuthService
	user   *UserService
	book   *BookService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	users := repository.NewMemoryUserRepository()
	books := repository.NewMemoryBookRepository(users)
	tokens := security.NewTokenManager([]byte("service-test-secret"), 24*time.Hour)
	return &fixture{
		users:  users,
		books:  books,
		tokens: tokens,
		auth:   NewAuthService(users, tokens, log),
		user:   NewUserService(users),
		book:   NewBookService(books, nil, log),
	}
}

func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	resp, err := f.auth.Signup(context.Background(), SignupRequest{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return resp.User
}

func (f *fixture) makeAdmin(t *testing.T, username string) *model.User {
	t.Helper()
	u := f.register(t, username)
	require.NoError(t, f.users.Delete(context.Background(), u.ID))
	u.Role = model.RoleAdmin
	u.HashedPassword = "unused"
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool { return &b }
