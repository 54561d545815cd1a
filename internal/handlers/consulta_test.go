package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bolivarlabs/consulta-gateway/internal/dispatch"
	"github.com/bolivarlabs/consulta-gateway/internal/domain"
)

type fakeClient struct {
	result *domain.QueryResult
	err    error
}

func (f *fakeClient) Query(ctx context.Context, kind domain.QueryKind, params domain.Params) (*domain.QueryResult, error) {
	return f.result, f.err
}

func newTestRouter(client domain.Client, opts ...dispatch.Option) *chi.Mux {
	logger := slog.New(slog.DiscardHandler)
	svc := dispatch.New(client, append(opts, dispatch.WithLogger(logger))...)
	r := chi.NewRouter()
	New(svc, "test", logger).Routes(r)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestConsultarPOSTVehicleFound(t *testing.T) {
	client := &fakeClient{
		result: &domain.QueryResult{
			Data: map[string]any{"vehiculos": []any{map[string]any{"placa": "ABC123"}}},
		},
	}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`{"placa": "abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("success = false, want true")
	}
	if body["placa"] != "ABC123" {
		t.Errorf("placa = %v, want ABC123", body["placa"])
	}
	if body["data"] == nil {
		t.Error("data = nil, want upstream payload")
	}
	if _, ok := body["execution_time_ms"]; !ok {
		t.Error("execution_time_ms missing")
	}
}

func TestConsultarPOSTVehicleNotFound(t *testing.T) {
	client := &fakeClient{
		result: &domain.QueryResult{Data: map[string]any{"vehiculos": []any{}}},
	}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`{"placa": "zzz999"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("success = false, want true: no data found is not an error")
	}
	if body["data"] != nil {
		t.Errorf("data = %v, want null", body["data"])
	}
}

func TestConsultarPOSTEmptyObject(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["errors"] == nil {
		t.Error("errors = nil, want populated")
	}
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "placa") || !strings.Contains(msg, "tipoDocumento") {
		t.Errorf("error = %q, want both supported shapes mentioned", msg)
	}
}

func TestConsultarPOSTWrongContentType(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`placa=abc123`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["errors"] != "Invalid content type" {
		t.Errorf("errors = %v, want Invalid content type", body["errors"])
	}
}

func TestConsultarPOSTContentTypeMatching(t *testing.T) {
	client := &fakeClient{
		result: &domain.QueryResult{
			Data: map[string]any{"vehiculos": []any{map[string]any{"placa": "ABC123"}}},
		},
	}
	router := newTestRouter(client)

	tests := []struct {
		name        string
		contentType string
		wantStatus  int
	}{
		{"bare json", "application/json", http.StatusOK},
		{"json with charset", "application/json; charset=utf-8", http.StatusOK},
		{"json-seq rejected", "application/json-seq", http.StatusBadRequest},
		{"missing content type", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
				strings.NewReader(`{"placa": "abc123"}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d\n%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestConsultarPOSTMalformedJSON(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`{"placa": `))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["errors"] != "Empty or invalid JSON body" {
		t.Errorf("errors = %v, want Empty or invalid JSON body", body["errors"])
	}
}

func TestConsultarPOSTUpstreamFailure(t *testing.T) {
	client := &fakeClient{err: domain.ErrUpstreamAuth}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`{"placa": "abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Error("success = true, want false")
	}
	if strings.Contains(rec.Body.String(), "token exchange") {
		t.Error("internal error text leaked to caller")
	}
}

func TestConsultarGETQueryParams(t *testing.T) {
	client := &fakeClient{
		result: &domain.QueryResult{
			Data: map[string]any{"cliente": map[string]any{"nombreCompleto": "X"}},
		},
	}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/clientes/consultar?tipoDocumento=CC&numeroDocumento=123456", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["tipo_consulta"] != "cliente" {
		t.Errorf("tipo_consulta = %v, want cliente", body["tipo_consulta"])
	}
}

func TestConsultarGETNoParams(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clientes/consultar", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConsultarVehiculoEndpoint(t *testing.T) {
	client := &fakeClient{
		result: &domain.QueryResult{
			Data: map[string]any{"vehiculos": []any{map[string]any{"placa": "ABC123"}}},
		},
	}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehiculos/consultar",
		strings.NewReader(`{"placa": "abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
}

func TestVehiculoEndpointAbsentWithoutCapability(t *testing.T) {
	router := newTestRouter(&fakeClient{}, dispatch.WithCapabilities(domain.KindCustomer))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehiculos/consultar",
		strings.NewReader(`{"placa": "abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unmounted endpoint", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["environment"] != "test" {
		t.Errorf("environment = %v, want test", body["environment"])
	}
}

func TestInfoListsDocumentTypes(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NIT") {
		t.Error("info payload missing document type set")
	}
}

func TestRoot(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["documentation"] != "/api/v1/info" {
		t.Errorf("documentation = %v", body["documentation"])
	}
}

func TestNotFoundListsEndpoints(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	endpoints, ok := body["available_endpoints"].([]any)
	if !ok || len(endpoints) == 0 {
		t.Errorf("available_endpoints = %v, want populated list", body["available_endpoints"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/clientes/consultar", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["errors"] != "Method not allowed" {
		t.Errorf("errors = %v", body["errors"])
	}
}

func TestResponseIsUTF8JSON(t *testing.T) {
	router := newTestRouter(&fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clientes/consultar",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	// Accented characters in messages go out unescaped.
	if strings.Contains(rec.Body.String(), `\u00`) {
		t.Errorf("body contains escaped non-ASCII: %s", rec.Body.String())
	}
}
