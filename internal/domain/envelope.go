package domain

// Envelope is the uniform JSON response wrapper returned by every
// endpoint. Data and Errors are always present in the serialized form,
// even when null, so callers can rely on the shape. The identifying
// parameter fields are flattened and echoed back whenever they were
// parsed, including on validation failures.
type Envelope struct {
	Success         bool      `json:"success"`
	Error           string    `json:"error,omitempty"`
	Message         string    `json:"message,omitempty"`
	Timestamp       string    `json:"timestamp"`
	TipoConsulta    QueryKind `json:"tipo_consulta,omitempty"`
	Placa           string    `json:"placa,omitempty"`
	TipoDocumento   string    `json:"tipo_documento,omitempty"`
	NumeroDocumento string    `json:"numero_documento,omitempty"`
	Data            any       `json:"data"`
	Errors          any       `json:"errors"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
}

// WithParams echoes the identifying params for the given kind into the
// envelope and returns it for chaining.
func (e *Envelope) WithParams(kind QueryKind, params Params) *Envelope {
	e.TipoConsulta = kind
	switch kind {
	case KindVehicle:
		e.Placa = params.Placa
	case KindCustomer:
		e.TipoDocumento = params.TipoDocumento
		e.NumeroDocumento = params.NumeroDocumento
	}
	return e
}
