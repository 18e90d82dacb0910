package comprobante

import (
	"errors"
	"fmt"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/sri"
)

// ErrComprobanteInvalido agrupa errores de validación de un comprobante.
var ErrComprobanteInvalido = errors.New("comprobante inválido para el SRI")

// Validar valida un comprobante poblado antes de cualquier transición o
// llamada externa: identificaciones, clave de acceso, campos por versión.
// Los totales se validan por separado en el paquete calculo.
func Validar(c *entity.Comprobante) error {
	if c == nil {
		return fmt.Errorf("%w: comprobante nulo", ErrComprobanteInvalido)
	}
	var errs []error

	if err := sri.ValidarRUC(c.RUCEmisor); err != nil {
		errs = append(errs, fmt.Errorf("emisor: %w", err))
	}
	if err := sri.ValidarIdentificacion(c.ContraparteTipoID, c.ContraparteIdentificacion); err != nil {
		errs = append(errs, fmt.Errorf("contraparte: %w", err))
	}
	if c.ClaveAcceso != "" {
		if err := sri.VerificarClaveAcceso(c.ClaveAcceso); err != nil {
			errs = append(errs, err)
		}
	}
	// La guía de remisión transporta mercadería ya facturada: no lleva líneas
	// con montos propios.
	if len(c.Detalles) == 0 && c.TipoComprobante != sri.TipoGuiaRemision {
		errs = append(errs, fmt.Errorf("%w: el comprobante debe tener al menos un detalle", domain.ErrEntradaInvalida))
	}
	if err := ValidarCampos(c); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrComprobanteInvalido}, errs...)...)
	}
	return nil
}
