// Package http is the HTTP transport: request decoding, the response
// envelope, and translation of domain errors to statuses.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	pkgerrors "healthfirst/pkg/errors"
)

// envelope is the uniform response shape. Exactly one of Data and Errors is
// set depending on Success.
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       any                 `json:"data,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	RetryAfter int                 `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError serializes a domain error. Unrecognized errors are logged and
// collapsed to a generic 500 so internals never reach the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	domainErr, ok := pkgerrors.As(err)
	if !ok {
		logger.Error("unhandled error in transport", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Message: "An unexpected error occurred",
		})
		return
	}

	status := pkgerrors.ToHTTPStatus(domainErr.Code)
	if status == http.StatusInternalServerError {
		logger.Error("internal error in transport", "error", err)
	}
	if domainErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(domainErr.RetryAfter))
	}
	writeJSON(w, status, envelope{
		Success:    false,
		Message:    domainErr.Message,
		Errors:     domainErr.Fields,
		RetryAfter: domainErr.RetryAfter,
	})
}

// decode parses a JSON body into dst, rejecting unknown or malformed
// payloads uniformly.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "Request body is not valid JSON")
	}
	return nil
}
