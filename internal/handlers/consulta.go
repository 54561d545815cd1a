// Package handlers binds the dispatch pipeline to the HTTP surface.
package handlers

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bolivarlabs/consulta-gateway/internal/dispatch"
	"github.com/bolivarlabs/consulta-gateway/internal/domain"
	"github.com/bolivarlabs/consulta-gateway/internal/server"
)

// Handler serves every route of the API.
type Handler struct {
	svc         *dispatch.Service
	environment string
	logger      *slog.Logger
	startedAt   time.Time
}

// New creates the handler set.
func New(svc *dispatch.Service, environment string, logger *slog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		environment: environment,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// Routes mounts every endpoint on the router. The plate-only endpoint is
// mounted only when the vehicle capability is enabled.
func (h *Handler) Routes(r *chi.Mux) {
	r.Post("/api/v1/clientes/consultar", h.Consultar)
	r.Get("/api/v1/clientes/consultar", h.ConsultarGET)
	r.Get("/api/v1/health", h.Health)
	r.Get("/api/v1/info", h.Info)
	r.Get("/", h.Root)

	for _, kind := range h.svc.Capabilities() {
		if kind == domain.KindVehicle {
			r.Post("/api/v1/vehiculos/consultar", h.ConsultarVehiculo)
		}
	}

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
}

// Consultar is the unified POST endpoint: the body is classified by the
// detector and dispatched to the matching upstream query.
func (h *Handler) Consultar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !isJSONRequest(r) {
		server.WriteJSON(w, http.StatusBadRequest, earlyFailure(
			"Content-Type debe ser application/json",
			"Invalid content type",
			start,
		))
		return
	}

	// An empty object is decodable and falls through to detection,
	// which rejects it naming both accepted shapes.
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		server.AddError(r.Context(), err)
		server.WriteJSON(w, http.StatusBadRequest, earlyFailure(
			"Body JSON vacío o inválido",
			"Empty or invalid JSON body",
			start,
		))
		return
	}

	status, env := h.svc.Consultar(r.Context(), payload, start)
	server.AddLogField(r.Context(), "tipo_consulta", string(env.TipoConsulta))
	server.WriteJSON(w, status, env)
}

// ConsultarGET applies the same classification to URL query parameters.
func (h *Handler) ConsultarGET(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	payload := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}

	status, env := h.svc.Consultar(r.Context(), payload, start)
	server.AddLogField(r.Context(), "tipo_consulta", string(env.TipoConsulta))
	server.WriteJSON(w, status, env)
}

// ConsultarVehiculo is the single-purpose plate endpoint; it accepts
// only {"placa": ...} and bypasses detection.
func (h *Handler) ConsultarVehiculo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !isJSONRequest(r) {
		server.WriteJSON(w, http.StatusBadRequest, earlyFailure(
			"Content-Type debe ser application/json",
			"Invalid content type",
			start,
		))
		return
	}

	var body struct {
		Placa string `json:"placa"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		server.AddError(r.Context(), err)
		server.WriteJSON(w, http.StatusBadRequest, earlyFailure(
			"Body JSON vacío o inválido",
			"Empty or invalid JSON body",
			start,
		))
		return
	}

	status, env := h.svc.ConsultarVehiculo(r.Context(), body.Placa, start)
	server.AddLogField(r.Context(), "placa", env.Placa)
	server.WriteJSON(w, status, env)
}

// isJSONRequest reports whether the declared media type is exactly
// application/json, ignoring parameters such as charset. Prefix
// matching would also admit types like application/json-seq.
func isJSONRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// earlyFailure shapes rejections that happen before detection. Timing
// metadata is present even on these paths.
func earlyFailure(message, errors string, start time.Time) *domain.Envelope {
	return &domain.Envelope{
		Error:           message,
		Errors:          errors,
		Timestamp:       time.Now().Format(time.RFC3339Nano),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}
