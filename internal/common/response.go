package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, category, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message, Code: category})
}

// RespondWithDomainError writes the category and message for err. Anything
// that maps to a 500 is logged in full and answered with a generic message.
func RespondWithDomainError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status, category := classify(err)
	if status >= http.StatusInternalServerError {
		log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		RespondWithJSON(w, status, ErrorResponse{Error: ErrInternalServer.Error(), Code: category})
		return
	}

	resp := ErrorResponse{Error: publicMessage(err), Code: category}
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Fields
	}
	RespondWithJSON(w, status, resp)
}

// publicMessage strips wrapping context down to the sentinel the client
// can act on, keeping conflict and validation detail.
func publicMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return ErrValidation.Error()
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBadRequest):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrMissingCredentials):
		return ErrMissingCredentials.Error()
	case errors.Is(err, ErrExpiredToken):
		return ErrExpiredToken.Error()
	case errors.Is(err, ErrInvalidToken):
		return ErrInvalidToken.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrForbidden):
		return err.Error()
	case IsUniqueViolation(err):
		return ErrConflict.Error()
	}
	return err.Error()
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response", "code": "internal_error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
