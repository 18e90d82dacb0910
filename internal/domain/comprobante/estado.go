// Package comprobante contiene las reglas de dominio del ciclo de vida y de
// versión de esquema de los comprobantes electrónicos SRI.
package comprobante

import (
	"fmt"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
)

// transiciones es la tabla cerrada de transiciones válidas. Cualquier par que
// no figure aquí se rechaza; no hay estados de texto libre.
var transiciones = map[entity.Estado][]entity.Estado{
	entity.EstadoCreado:     {entity.EstadoFirmado, entity.EstadoAnulado},
	entity.EstadoFirmado:    {entity.EstadoEnviado},
	entity.EstadoEnviado:    {entity.EstadoAutorizado, entity.EstadoRechazado},
	entity.EstadoAutorizado: {entity.EstadoAnulado}, // anulación posterior a la autorización
	entity.EstadoRechazado:  {},
	entity.EstadoAnulado:    {},
}

// PuedeTransicionar reporta si el paso desde → hacia figura en la tabla.
func PuedeTransicionar(desde, hacia entity.Estado) bool {
	for _, e := range transiciones[desde] {
		if e == hacia {
			return true
		}
	}
	return false
}

// ValidarTransicion retorna ErrTransicionInvalida con detalle si el paso no es válido.
func ValidarTransicion(desde, hacia entity.Estado) error {
	if !PuedeTransicionar(desde, hacia) {
		return fmt.Errorf("%w: %s → %s", domain.ErrTransicionInvalida, desde, hacia)
	}
	return nil
}

// PuedeAnular regla de negocio de anulación: solo desde CREADO o AUTORIZADO.
func PuedeAnular(estado entity.Estado) bool {
	return estado == entity.EstadoCreado || estado == entity.EstadoAutorizado
}

// LongitudMinimaMotivoAnulacion caracteres mínimos del motivo de anulación.
const LongitudMinimaMotivoAnulacion = 10

// ValidarAnulacion comprueba estado, motivo y usuario antes de anular.
func ValidarAnulacion(estado entity.Estado, motivo, usuario string) error {
	if !PuedeAnular(estado) {
		return fmt.Errorf("%w: no se puede anular desde %s", domain.ErrTransicionInvalida, estado)
	}
	if len(motivo) < LongitudMinimaMotivoAnulacion {
		return fmt.Errorf("%w: el motivo de anulación requiere al menos %d caracteres",
			domain.ErrEntradaInvalida, LongitudMinimaMotivoAnulacion)
	}
	if usuario == "" {
		return fmt.Errorf("%w: la anulación requiere un usuario", domain.ErrEntradaInvalida)
	}
	return nil
}
