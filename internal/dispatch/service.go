// Package dispatch routes classified requests to the upstream client
// and shapes every outcome into the uniform response envelope.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bolivarlabs/consulta-gateway/internal/detect"
	"github.com/bolivarlabs/consulta-gateway/internal/domain"
	"github.com/bolivarlabs/consulta-gateway/internal/validate"
)

// DetectionHint explains both accepted input shapes; returned whenever
// classification fails.
const DetectionHint = "No se pudo detectar el tipo de consulta. Envíe 'tipoDocumento' y 'numeroDocumento' para cliente, o 'placa' para vehículo"

// Option configures the service.
type Option func(*Service)

// WithPlatePolicy selects the plate validation policy.
func WithPlatePolicy(policy validate.PlatePolicy) Option {
	return func(s *Service) { s.platePolicy = policy }
}

// WithCapabilities restricts the query kinds the service accepts. The
// default accepts both kinds; a plate-only deployment passes only
// domain.KindVehicle.
func WithCapabilities(kinds ...domain.QueryKind) Option {
	return func(s *Service) {
		s.capabilities = make(map[domain.QueryKind]bool, len(kinds))
		for _, k := range kinds {
			s.capabilities[k] = true
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service is the per-request pipeline: detect, validate, query, shape.
// It holds no mutable state; one instance serves all requests.
type Service struct {
	client       domain.Client
	platePolicy  validate.PlatePolicy
	capabilities map[domain.QueryKind]bool
	logger       *slog.Logger
}

// New creates a service around an upstream client.
func New(client domain.Client, opts ...Option) *Service {
	s := &Service{
		client:      client,
		platePolicy: validate.PolicyStrict,
		capabilities: map[domain.QueryKind]bool{
			domain.KindVehicle:  true,
			domain.KindCustomer: true,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capabilities reports the enabled query kinds, for the health and info
// endpoints.
func (s *Service) Capabilities() []domain.QueryKind {
	kinds := make([]domain.QueryKind, 0, 2)
	for _, k := range []domain.QueryKind{domain.KindVehicle, domain.KindCustomer} {
		if s.capabilities[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Consultar classifies a raw payload and runs the full pipeline.
// It always returns an HTTP status and a complete envelope.
func (s *Service) Consultar(ctx context.Context, payload map[string]any, start time.Time) (int, *domain.Envelope) {
	kind, params := detect.Detect(payload)

	if kind == domain.KindUnrecognized {
		return http.StatusBadRequest, s.failure(DetectionHint, "Unable to detect query type", start)
	}

	if !s.capabilities[kind] {
		env := s.failure(
			"El tipo de consulta '"+string(kind)+"' no está habilitado en este servicio",
			"Query kind not enabled",
			start,
		).WithParams(kind, params)
		return http.StatusBadRequest, env
	}

	s.logger.InfoContext(ctx, "query classified", slog.String("tipo_consulta", string(kind)))

	return s.dispatch(ctx, kind, params, start)
}

// ConsultarVehiculo serves the single-purpose plate endpoint, bypassing
// detection entirely.
func (s *Service) ConsultarVehiculo(ctx context.Context, placa string, start time.Time) (int, *domain.Envelope) {
	params := domain.Params{Placa: detect.Normalize(placa)}
	return s.dispatch(ctx, domain.KindVehicle, params, start)
}

func (s *Service) dispatch(ctx context.Context, kind domain.QueryKind, params domain.Params, start time.Time) (int, *domain.Envelope) {
	if err := s.validateParams(kind, params); err != nil {
		env := s.failure(err.Error(), err.Error(), start).WithParams(kind, params)
		return http.StatusBadRequest, env
	}

	result, err := s.client.Query(ctx, kind, params)
	if err != nil {
		// The transport detail stays in the logs; callers get the
		// generic message only.
		s.logger.ErrorContext(ctx, "upstream query failed",
			slog.String("tipo_consulta", string(kind)),
			slog.String("error", err.Error()),
		)
		env := s.failure(fetchErrorMessage(kind), fetchErrorSlot(kind), start).WithParams(kind, params)
		return http.StatusInternalServerError, env
	}

	if !hasResults(kind, result.Data) {
		env := (&domain.Envelope{
			Success:         true,
			Message:         notFoundMessage(kind),
			Timestamp:       timestamp(),
			ExecutionTimeMs: elapsedMs(start),
		}).WithParams(kind, params)
		return http.StatusNotFound, env
	}

	env := (&domain.Envelope{
		Success:         true,
		Timestamp:       timestamp(),
		Data:            result.Data,
		Errors:          result.Errors,
		ExecutionTimeMs: elapsedMs(start),
	}).WithParams(kind, params)
	return http.StatusOK, env
}

func (s *Service) validateParams(kind domain.QueryKind, params domain.Params) error {
	if kind == domain.KindVehicle {
		return validate.Plate(s.platePolicy, params.Placa)
	}
	return validate.Document(params.TipoDocumento, params.NumeroDocumento)
}

// failure builds a success=false envelope with timing metadata.
func (s *Service) failure(message, errors string, start time.Time) *domain.Envelope {
	return &domain.Envelope{
		Error:           message,
		Errors:          errors,
		Timestamp:       timestamp(),
		ExecutionTimeMs: elapsedMs(start),
	}
}

// hasResults reports whether the kind-specific result collection inside
// the upstream data document is non-empty. An empty collection is a
// successful "nothing matched" outcome, not an error.
func hasResults(kind domain.QueryKind, data map[string]any) bool {
	if data == nil {
		return false
	}

	switch kind {
	case domain.KindVehicle:
		v, ok := data["vehiculos"]
		if !ok || v == nil {
			return false
		}
		if list, isList := v.([]any); isList {
			return len(list) > 0
		}
		return true
	case domain.KindCustomer:
		c, ok := data["cliente"]
		if !ok || c == nil {
			return false
		}
		if obj, isObj := c.(map[string]any); isObj {
			return len(obj) > 0
		}
		return true
	}
	return false
}

func fetchErrorMessage(kind domain.QueryKind) string {
	if kind == domain.KindVehicle {
		return "Error interno al consultar el vehículo"
	}
	return "Error interno al consultar el cliente"
}

func fetchErrorSlot(kind domain.QueryKind) string {
	if kind == domain.KindVehicle {
		return "Internal server error - Unable to fetch vehicle data"
	}
	return "Internal server error - Unable to fetch client data"
}

func notFoundMessage(kind domain.QueryKind) string {
	if kind == domain.KindVehicle {
		return "No se encontraron datos para el vehículo especificado"
	}
	return "No se encontraron datos para el cliente especificado"
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
