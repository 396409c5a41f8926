package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/internal/ctxlog"
	"github.com/geal-ai/radialinterp/internal/encode"
)

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("bad request")

// decodeJSON decodes the request body into dest with strict field handling.
func decodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON payload", errBadRequest)
	}
	return nil
}

// respond writes v as JSON, or msgpack when the client asks for it.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	format := encode.FromAccept(r.Header.Get("Accept"))
	w.Header().Set("Content-Type", encode.ContentType(format))
	w.WriteHeader(status)
	if err := encode.Write(w, format, v, false); err != nil {
		ctxlog.FromContext(r.Context()).Warn("failed to write response", "err", err)
	}
}

// fail maps err to a status and writes {"error": "..."}.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := ctxlog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	respond(w, r, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, radialinterp.ErrInvalidParameter),
		errors.Is(err, radialinterp.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, radialinterp.ErrOutOfDomain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
