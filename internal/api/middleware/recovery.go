package middleware

import (
	"log/slog"
	"net/http"

	"github.com/panda19/prisonscore/internal/api/apierr"
	"github.com/panda19/prisonscore/internal/middleware"
)

// Recovery turns handler panics into a JSON INTERNAL_ERROR carrying the
// request id. It must sit inside middleware.Logging for the id to be set.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalErrorForRequest(middleware.RequestID(r.Context())))
	})
}
