package validator

import (
	"strings"
	"testing"
	"time"

	"bookshelf_api/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type bookPatch struct {
	Title *string  `json:"title" validate:"omitempty,notblank,max=5"`
	Year  *int     `json:"publication_year" validate:"omitempty,min=1000,notfuture"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(signup{Username: "alice_1", Email: "alice@x.com", Password: "secret1"}))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Username: "a!", Email: "nope", Password: ""})

	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, map[string]string{
		"username": "must be at least 3 characters",
		"email":    "must be a valid email address",
		"password": "is required",
	}, fields(t, err))
}

func TestStructUsernameCharset(t *testing.T) {
	err := Struct(signup{Username: "bad name", Email: "a@x.com", Password: "secret1"})
	assert.Equal(t, "may only contain letters, numbers and underscores", fields(t, err)["username"])
}

func TestStructPointerFields(t *testing.T) {
	assert.NoError(t, Struct(bookPatch{}))

	blank, long := "  ", "toolong"
	assert.Equal(t, "is required", fields(t, Struct(bookPatch{Title: &blank}))["title"])
	assert.Equal(t, "must be at most 5 characters", fields(t, Struct(bookPatch{Title: &long}))["title"])

	old, zero, negative := 999, 0, -1.0
	assert.Equal(t, "must be at least 1000", fields(t, Struct(bookPatch{Year: &old}))["publication_year"])
	assert.Contains(t, fields(t, Struct(bookPatch{Year: &zero})), "publication_year")
	assert.Equal(t, "must be greater than or equal to 0", fields(t, Struct(bookPatch{Price: &negative}))["price"])

	free := 0.0
	assert.NoError(t, Struct(bookPatch{Price: &free}))
}

func TestNotFutureUsesClock(t *testing.T) {
	v := newValidate(func() time.Time { return time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC) })

	ok, future := 2020, 2021
	assert.NoError(t, check(v, bookPatch{Year: &ok}))
	assert.Equal(t, "must not be in the future", fields(t, check(v, bookPatch{Year: &future}))["publication_year"])
}

func TestMaxBytesCountsBytes(t *testing.T) {
	// 40 runes, 80 bytes.
	err := Struct(signup{Username: "alice", Email: "alice@x.com", Password: strings.Repeat("é", 40)})
	assert.Equal(t, map[string]string{"password": "must be at most 72 bytes"}, fields(t, err))

	assert.NoError(t, Struct(signup{Username: "alice", Email: "alice@x.com", Password: strings.Repeat("é", 36)}))
}
