// Package facturacion contiene los casos de uso del ciclo de emisión de
// comprobantes electrónicos: creación, firma y envío al SRI, anulación y
// administración de catálogos.
package facturacion

import (
	"context"

	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"
)

// TxRunner ejecuta una función con los repos del ciclo de emisión atados a una
// misma transacción. Se usa para asignar secuencial y persistir el comprobante
// atómicamente.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		comprobantes repository.ComprobanteRepository,
		secuenciales repository.SecuencialRepository,
	) error) error
}

// Firmador firma el XML de un comprobante con el certificado del emisor.
type Firmador interface {
	Firmar(xmlComprobante []byte) ([]byte, error)
}

// ClienteSRI puerto de salida hacia los dos WS del SRI. La implementación
// concreta usa SOAP; para tests se inyecta un doble.
type ClienteSRI interface {
	EnviarComprobante(ctx context.Context, xmlFirmado []byte) (*infrasri.RespuestaRecepcion, error)
	ConsultarAutorizacion(ctx context.Context, claveAcceso string) (*infrasri.RespuestaAutorizacion, error)
}

// AlmacenArtefactos cola durable de XML firmados pendientes de autorización.
type AlmacenArtefactos interface {
	Encolar(claveAcceso string, xmlFirmado []byte) error
	Archivar(claveAcceso string) error
	Descartar(claveAcceso string) error
}

// GeneradorRIDE produce la representación impresa de un comprobante autorizado.
type GeneradorRIDE interface {
	GenerarRIDE(ctx context.Context, c *entity.Comprobante) ([]byte, error)
}
