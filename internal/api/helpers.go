package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mathrush/engine/internal/errors"
	"github.com/mathrush/engine/internal/identity"
	"github.com/mathrush/engine/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Default().Error("failed to encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// An empty body decodes to the zero value.
		if err == io.EOF {
			return nil
		}
		return errors.NewInvalidArgumentError("body", "malformed JSON request body")
	}
	return nil
}

func urlParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidArgumentError(name, "must be a positive integer")
	}
	return id, nil
}

// caller returns the request's resolved identity. identityMiddleware
// guarantees it is present on every route that reaches a handler.
func caller(r *http.Request) identity.Caller {
	c, _ := identity.FromContext(r.Context())
	return c
}
