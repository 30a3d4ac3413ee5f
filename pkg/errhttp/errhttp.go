// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/supplytrack/pkg/httpx"
	"github.com/ghuser/supplytrack/pkg/logger"
	"github.com/ghuser/supplytrack/pkg/telemetry"
	itemdomain "github.com/ghuser/supplytrack/services/item/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	httpx.JSONError(w, mapErrorToStatus(err), err.Error())
}

// Writer writes error responses for one process. In production the message
// of a 5xx response is replaced by the status text. Server errors are
// logged and reported to Sentry.
type Writer struct {
	production bool
	log        logger.Logger
}

// NewWriter returns a Writer. log may be nil.
func NewWriter(production bool, log logger.Logger) *Writer {
	if log == nil {
		log = logger.Discard()
	}
	return &Writer{production: production, log: log}
}

// WriteError writes err as a JSON error response for request r.
func (wr *Writer) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		wr.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		telemetry.CaptureError(r.Context(), err)
	}
	httpx.JSONError(w, status, httpx.SafeError(err, status, wr.production))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, itemdomain.ErrItemNotFound),
		errors.Is(err, itemdomain.ErrEventNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, itemdomain.ErrInvalidItemName),
		errors.Is(err, itemdomain.ErrInvalidEvent):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
