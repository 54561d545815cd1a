package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bolivarlabs/consulta-gateway/internal/domain"
)

// WriteJSON serializes v as the response body. HTML escaping is off so
// accented characters in messages go out readable rather than escaped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("encoding response failed", slog.String("error", err.Error()))
	}
}

// RecoverMiddleware converts panics into a generic 500 envelope. The
// panic value is logged server-side and never echoed to the caller.
func RecoverMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			defer func() {
				if rec := recover(); rec != nil {
					requestID, _ := r.Context().Value(RequestIDKey).(string)
					logger.Error("panic recovered",
						slog.String("request_id", requestID),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
					)
					WriteJSON(w, http.StatusInternalServerError, &domain.Envelope{
						Error:           "Error interno del servidor",
						Errors:          "Internal server error",
						Timestamp:       time.Now().Format(time.RFC3339Nano),
						ExecutionTimeMs: time.Since(start).Milliseconds(),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
