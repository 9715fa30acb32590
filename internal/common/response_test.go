package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithDomainErrorHidesInternalDetail(t *testing.T) {
	log, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)

	RespondWithDomainError(rec, req, log, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, CodeInternal, body.Code)
	assert.Equal(t, ErrInternalServer.Error(), body.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data[logrus.ErrorKey].(error).Error(), "connection refused")
}

func TestRespondWithDomainErrorValidationDetails(t *testing.T) {
	log, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", nil)

	RespondWithDomainError(rec, req, log, NewValidationError(map[string]string{"title": "is required"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, CodeValidation, body.Code)
	assert.Equal(t, map[string]string{"title": "is required"}, body.Details)
	assert.Empty(t, hook.Entries)
}

func TestRespondWithDomainErrorNotFoundIsGeneric(t *testing.T) {
	log, _ := test.NewNullLogger()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/x", nil)

	RespondWithDomainError(rec, req, log, fmt.Errorf("pgBookRepository.FindByID: %w", ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrNotFound.Error(), decodeError(t, rec).Error)
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}
