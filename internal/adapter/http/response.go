package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// Error is the wire form of a typed failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope wraps every JSON response.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func success(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID(r)})
}

func created(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID(r)})
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID(r)})
}

// errorKinds maps domain error kinds to HTTP statuses and stable codes.
var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{domain.ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
	{domain.ErrInvalidBucket, http.StatusBadRequest, "INVALID_BUCKET"},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
	{domain.ErrPolicyViolation, http.StatusForbidden, "POLICY_VIOLATION"},
	{domain.ErrAlreadyCompleted, http.StatusConflict, "ALREADY_COMPLETED"},
	{domain.ErrNotCompleted, http.StatusConflict, "NOT_COMPLETED"},
	{domain.ErrAlreadyProcessed, http.StatusConflict, "ALREADY_PROCESSED"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
}

// failDomain translates a service error into a typed failure response.
func failDomain(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			fail(w, r, k.status, k.code, err.Error())
			return
		}
	}
	slog.Error("internal error", "err", err, "path", r.URL.Path, "requestId", requestID(r))
	fail(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
}
