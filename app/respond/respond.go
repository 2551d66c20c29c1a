// Package respond writes JSON responses for the HTTP handlers.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Failure maps err to a status, logs it and writes msg.
// An unreachable data source is 503, anything else 500.
func Failure(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	if errors.Is(err, query.ErrDataUnavailable) {
		status = http.StatusServiceUnavailable
	}
	zap.L().Error(msg,
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))
	Error(w, status, msg)
}
