// Package domain holds the canonical types shared by the detector,
// validator, dispatcher and upstream client.
package domain

import (
	"context"
	"errors"
)

// QueryKind identifies which upstream query a request maps to.
type QueryKind string

const (
	KindVehicle  QueryKind = "vehiculo"
	KindCustomer QueryKind = "cliente"
	// KindUnrecognized means no classification rule matched.
	KindUnrecognized QueryKind = ""
)

// Params carries the identifying parameters extracted from a request.
// Exactly one group is populated, matching the detected kind.
type Params struct {
	Placa           string
	TipoDocumento   string
	NumeroDocumento string
}

// QueryResult is the normalized outcome of a successful upstream call.
// Errors carries the upstream GraphQL errors field verbatim; its presence
// does not mark the call as failed.
type QueryResult struct {
	Data   map[string]any
	Errors any
}

// Client is the upstream collaborator: token acquisition plus a single
// GraphQL call. Implementations must honor ctx deadlines.
type Client interface {
	Query(ctx context.Context, kind QueryKind, params Params) (*QueryResult, error)
}

// Sentinel errors for the upstream failure taxonomy. Both map to a 500
// envelope; the distinction is for logs only.
var (
	ErrUpstreamAuth      = errors.New("upstream token exchange failed")
	ErrUpstreamTransport = errors.New("upstream query transport failed")
)
