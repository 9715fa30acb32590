package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bookshelf_api/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body. Malformed
// payloads are reported as ErrBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty: %w", common.ErrBadRequest)
		}
		return fmt.Errorf("invalid request payload: %w", common.ErrBadRequest)
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object: %w", common.ErrBadRequest)
	}
	return nil
}

// queryInt returns 0 when the parameter is absent.
func queryInt(r *http.Request, name string, fields map[string]string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fields[name] = "must be an integer"
		return 0
	}
	return v
}

// queryBool returns nil when the parameter is absent.
func queryBool(r *http.Request, name string, fields map[string]string) *bool {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		fields[name] = "must be true or false"
		return nil
	}
	return &v
}
