package handlers

import (
	"net/http"
	"time"

	"github.com/bolivarlabs/consulta-gateway/internal/domain"
	"github.com/bolivarlabs/consulta-gateway/internal/server"
	"github.com/bolivarlabs/consulta-gateway/internal/validate"
)

const (
	serviceName    = "Consulta Unificada API"
	serviceVersion = "3.0.0"
)

var availableEndpoints = []string{
	"POST /api/v1/clientes/consultar",
	"GET /api/v1/clientes/consultar",
	"POST /api/v1/vehiculos/consultar",
	"GET /api/v1/health",
	"GET /api/v1/info",
	"GET /",
}

func (h *Handler) features() []string {
	features := []string{"deteccion_automatica"}
	for _, kind := range h.svc.Capabilities() {
		switch kind {
		case domain.KindVehicle:
			features = append(features, "consulta_vehiculos")
		case domain.KindCustomer:
			features = append(features, "consulta_clientes")
		}
	}
	return features
}

// Health returns static service metadata; no upstream call is made.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     serviceName,
		"version":     serviceVersion,
		"timestamp":   time.Now().Format(time.RFC3339Nano),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"environment": h.environment,
		"features":    h.features(),
	})
}

// Info documents the supported input shapes with example payloads.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": "API unificada para consultar información de clientes por documento y vehículos por placa con detección automática",
		"endpoints": map[string]string{
			"POST /api/v1/clientes/consultar":  "Consultar datos con detección automática",
			"GET /api/v1/clientes/consultar":   "Consultar datos por parámetros",
			"POST /api/v1/vehiculos/consultar": "Consultar vehículo por placa",
			"GET /api/v1/health":               "Verificación de salud del servicio",
			"GET /api/v1/info":                 "Información de la API",
		},
		"usage": map[string]any{
			"cliente": map[string]any{
				"method": "POST",
				"url":    "/api/v1/clientes/consultar",
				"body": map[string]string{
					"tipoDocumento":   "CC",
					"numeroDocumento": "1234567890",
				},
			},
			"vehiculo": map[string]any{
				"method": "POST",
				"url":    "/api/v1/clientes/consultar",
				"body": map[string]string{
					"placa": "ABC123",
				},
			},
		},
		"valid_document_types": validate.DocumentTypes,
		"examples": map[string]string{
			"curl_cliente":  `curl -X POST http://localhost:8080/api/v1/clientes/consultar -H 'Content-Type: application/json' -d '{"tipoDocumento": "CC", "numeroDocumento": "1234567890"}'`,
			"curl_vehiculo": `curl -X POST http://localhost:8080/api/v1/clientes/consultar -H 'Content-Type: application/json' -d '{"placa": "ABC123"}'`,
			"get_cliente":   `curl 'http://localhost:8080/api/v1/clientes/consultar?tipoDocumento=CC&numeroDocumento=1234567890'`,
			"get_vehiculo":  `curl 'http://localhost:8080/api/v1/clientes/consultar?placa=ABC123'`,
		},
		"timestamp": time.Now().Format(time.RFC3339Nano),
	})
}

// Root is the landing payload pointing at the real endpoints.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       serviceName,
		"version":       serviceVersion,
		"documentation": "/api/v1/info",
		"health_check":  "/api/v1/health",
		"main_endpoint": "/api/v1/clientes/consultar",
		"features":      h.features(),
	})
}

// NotFound lists the available endpoints in an envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusNotFound, map[string]any{
		"success":             false,
		"error":               "Endpoint no encontrado",
		"timestamp":           time.Now().Format(time.RFC3339Nano),
		"available_endpoints": availableEndpoints,
		"errors":              "Not found",
	})
}

// MethodNotAllowed rejects wrong methods on known routes.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{
		"success":   false,
		"error":     "Método no permitido",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"errors":    "Method not allowed",
	})
}
