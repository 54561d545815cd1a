// Package detect classifies a loosely-structured request payload into
// one of the recognized query kinds and extracts normalized parameters.
package detect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bolivarlabs/consulta-gateway/internal/domain"
)

// Payload keys recognized by the explicit classification rules.
const (
	keyPlaca           = "placa"
	keyTipoDocumento   = "tipoDocumento"
	keyNumeroDocumento = "numeroDocumento"
)

// DefaultDocumentType is assumed when the single-value heuristic
// classifies a bare digit string as a customer document.
const DefaultDocumentType = "CC"

var (
	// Colombian plate shapes: AAA123, AAA12, AAA12B, plus the older
	// 2-3 letter / 2-4 digit variants used by motorcycles and trailers.
	platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{2,3}[A-Z]?$|^[A-Z]{2,3}[0-9]{2,4}$`)

	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Normalize trims surrounding whitespace and uppercases. It is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Detect classifies payload into exactly one query kind. Precedence,
// first match wins:
//
//  1. a "placa" key present classifies as vehicle, unconditionally,
//     even when the document pair is also present;
//  2. both "tipoDocumento" and "numeroDocumento" classify as customer;
//  3. a single-key payload falls back to value-shape heuristics: a
//     plate-like value is a vehicle, an all-digit value of at least six
//     characters is a customer document with type defaulted to CC;
//  4. anything else is unrecognized.
func Detect(payload map[string]any) (domain.QueryKind, domain.Params) {
	if v, ok := payload[keyPlaca]; ok {
		return domain.KindVehicle, domain.Params{Placa: Normalize(stringify(v))}
	}

	tipo, okTipo := payload[keyTipoDocumento]
	numero, okNumero := payload[keyNumeroDocumento]
	if okTipo && okNumero {
		return domain.KindCustomer, domain.Params{
			TipoDocumento:   Normalize(stringify(tipo)),
			NumeroDocumento: strings.TrimSpace(stringify(numero)),
		}
	}

	if len(payload) == 1 {
		for _, v := range payload {
			value := Normalize(stringify(v))
			switch {
			case platePattern.MatchString(value):
				return domain.KindVehicle, domain.Params{Placa: value}
			case len(value) >= 6 && digitsPattern.MatchString(value):
				return domain.KindCustomer, domain.Params{
					TipoDocumento:   DefaultDocumentType,
					NumeroDocumento: value,
				}
			}
		}
	}

	return domain.KindUnrecognized, domain.Params{}
}

// stringify renders a decoded JSON value the way it was written by the
// caller. Document numbers frequently arrive as JSON numbers; rendering
// a float64 with %v would produce scientific notation.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return ""
	}
}
