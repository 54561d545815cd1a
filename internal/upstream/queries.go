package upstream

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/bolivarlabs/consulta-gateway/internal/domain"
)

// The provider's schema is an external contract; these documents request
// the attribute set the downstream consumers rely on. The numeroDocumento
// argument is sent unquoted, matching what the provider accepts.

const vehicleQuery = `
query Vehiculos {
    vehiculos(placa: %q) {
        placa
        origenRegistro
        fechaRegistro
        organismoTransito
        prenda
        limitacion
        modelo
        color
        marca
        linea
        numeroMotor
        numeroChasis
        vin
        cilindraje
        numeroPasajeros
        codigoFasecolda
        claseVehiculo
        servicio
        uso
        tipo
        blindaje
        polizas {
            codigoRamoEmision
            nombreRamoEmision
            codigoProducto
            nombreProducto
            tipoDocumentoTomador
            numeroDocumentoTomador
            tipoDocumentoAsegurado
            numeroDocumentoAsegurado
            numeroPoliza
            fechaInicioPoliza
            fechaFinPoliza
            primaTotal
            valorAsegurado
            estadoPoliza
            claveAgente
            codigoCanal
            rol
            pk
        }
        siniestros {
            numeroSiniestro
            estadoSiniestro
            fechaSiniestro
            fechaAviso
            numeroPoliza
            codigoRamoEmision
            nombreRamoEmision
            descripcionCausa
            descripcionSiniestro
            coberturasAfectadas
            totalIncurridoBolivar
            totalLiquidadoBolivar
        }
        riesgoEnPolizas {
            placa
            numeroPoliza
            numeroSecuenciaPoliza
            codigoFasecolda
            codigoRiesgo
            valorAsegurado
            limiteRcUna
            limiteRcDos
            limiteDanos
            fechaProceso
        }
    }
}
`

const customerQuery = `
query Cliente {
    cliente(cliente: { tipoDocumento: %q, numeroDocumento: %s }) {
        tipoDocumento
        numeroDocumento
        tipoPersona
        nombreEmpresa
        estadoCliente
        nombreCompleto
        portafolioVigente {
            codigoRamoEmision
            nombreRamoEmision
            codigoProducto
            nombreProducto
            tipoDocumentoTomador
            numeroDocumentoTomador
            tipoDocumentoAsegurado
            numeroDocumentoAsegurado
            numeroPoliza
            fechaInicioPoliza
            fechaFinPoliza
            primaTotal
            valorAsegurado
            estadoPoliza
            claveAgente
            codigoCanal
            rol
            pk
        }
        demografica {
            sexo
            fechaNacimiento
            estratoSocial
            nacionalidad
            direccion
            municipio
            departamento
            edad
        }
        siniestros {
            numeroSiniestro
            estadoSiniestro
            fechaSiniestro
            fechaAviso
            numeroPoliza
            codigoRamoEmision
            nombreRamoEmision
            descripcionCausa
            descripcionSiniestro
            coberturasAfectadas
            totalIncurridoBolivar
            totalLiquidadoBolivar
        }
    }
}
`

// buildQuery renders the GraphQL document for a classified request and
// parse-checks it before it goes on the wire. Parameter values are
// caller-supplied, so a value that survives validation but breaks the
// document syntax is rejected here rather than bounced off the provider.
func buildQuery(kind domain.QueryKind, params domain.Params) (string, error) {
	var doc string
	switch kind {
	case domain.KindVehicle:
		doc = fmt.Sprintf(vehicleQuery, params.Placa)
	case domain.KindCustomer:
		doc = fmt.Sprintf(customerQuery, params.TipoDocumento, params.NumeroDocumento)
	default:
		return "", fmt.Errorf("unsupported query kind %q", kind)
	}

	if _, err := parser.ParseQuery(&ast.Source{Input: doc}); err != nil {
		return "", fmt.Errorf("invalid graphql document: %w", err)
	}

	return doc, nil
}
