package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"eigend/internal/catalog"
	"eigend/internal/download"
	"eigend/internal/manager"
	"eigend/internal/store"
	"eigend/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case catalog.IsInvalidID(err):
		return http.StatusBadRequest
	case catalog.IsModelNotFound(err), store.IsNotFound(err):
		return http.StatusNotFound
	case catalog.IsPolicy(err), catalog.IsNotDownloaded(err), download.IsAlreadyDownloading(err):
		return http.StatusConflict
	case manager.IsSpawnFailed(err), manager.IsStartupTimeout(err), manager.IsExitedEarly(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// rejectReason labels 409 responses in the rejections metric.
func rejectReason(err error) string {
	switch {
	case catalog.IsActiveModel(err):
		return "active_model"
	case catalog.IsPolicy(err):
		return "policy"
	case catalog.IsNotDownloaded(err):
		return "not_downloaded"
	case download.IsAlreadyDownloading(err):
		return "already_downloading"
	default:
		return ""
	}
}

// writeError writes err with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusConflict {
		IncrementRejection(rejectReason(err))
	}
	writeJSONError(w, status, err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}
