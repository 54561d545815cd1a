// Package validate holds the syntactic parameter checks applied after
// detection. Validation never touches the network; a nil error means
// the parameters are safe to send upstream.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// PlatePolicy names one of the two plate length policies inherited from
// the service variants. The unified service shipped the strict bound;
// the plate-only service shipped the lenient one. Which is authoritative
// is an open product question, so both are selectable per deployment.
type PlatePolicy string

const (
	// PolicyStrict accepts 6-7 alphanumeric characters.
	PolicyStrict PlatePolicy = "strict"
	// PolicyLenient accepts any 3-10 character value.
	PolicyLenient PlatePolicy = "lenient"
)

// DocumentTypes is the closed set of accepted identity document types.
var DocumentTypes = []string{"CC", "CE", "NIT", "PP", "TI", "RC", "CD"}

var strictPlatePattern = regexp.MustCompile(`^[A-Z0-9]{6,7}$`)

// Plate checks a normalized plate against the given policy.
func Plate(policy PlatePolicy, placa string) error {
	if placa == "" {
		return errors.New("la placa es requerida")
	}

	switch policy {
	case PolicyLenient:
		if len(placa) < 3 || len(placa) > 10 {
			return errors.New("la placa debe tener entre 3 y 10 caracteres")
		}
	default:
		if len(placa) < 6 || len(placa) > 7 {
			return errors.New("la placa debe tener entre 6 y 7 caracteres")
		}
		if !strictPlatePattern.MatchString(placa) {
			return errors.New("la placa debe contener solo letras y números")
		}
	}

	return nil
}

// Document checks a document type/number pair. The type must belong to
// DocumentTypes and the number must be 3-20 characters after trimming.
func Document(tipo, numero string) error {
	if tipo == "" {
		return errors.New("el tipo de documento es requerido")
	}
	if numero == "" {
		return errors.New("el número de documento es requerido")
	}

	valid := false
	for _, t := range DocumentTypes {
		if tipo == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("tipo de documento no válido. Tipos válidos: %s", strings.Join(DocumentTypes, ", "))
	}

	if len(numero) < 3 {
		return errors.New("el número de documento debe tener al menos 3 caracteres")
	}
	if len(numero) > 20 {
		return errors.New("el número de documento no puede tener más de 20 caracteres")
	}

	return nil
}
