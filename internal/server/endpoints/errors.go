package endpoints

import (
	"errors"
	"net/http"

	"github.com/jackzampolin/reader/internal/books"
	"github.com/jackzampolin/reader/internal/pagecache"
	"github.com/jackzampolin/reader/internal/progress"
	"github.com/jackzampolin/reader/internal/reader"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// retryAfterSeconds is sent with 503 responses for transient failures.
const retryAfterSeconds = "5"

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reader.ErrBookNotFound),
		errors.Is(err, books.ErrNotFound),
		errors.Is(err, progress.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pagecache.ErrInvalidWindow),
		errors.Is(err, books.ErrInvalidArchive):
		return http.StatusBadRequest
	case reader.Retryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status statusFor picks. Server
// errors are logged; transient ones carry Retry-After.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", retryAfterSeconds)
		svcctx.LoggerFrom(r.Context()).Warn("request failed, retryable",
			"method", r.Method, "path", r.URL.Path, "error", err)
	case http.StatusInternalServerError:
		svcctx.LoggerFrom(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}
