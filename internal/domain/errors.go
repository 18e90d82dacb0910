package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrDuplicado           = errors.New("recurso duplicado")
	ErrEntradaInvalida     = errors.New("entrada inválida")
	ErrNoAutorizado        = errors.New("no autorizado")
	ErrAccesoDenegado      = errors.New("acceso denegado")
	ErrVersionNoSoportada  = errors.New("versión de esquema no soportada")
	ErrDescuentoInvalido   = errors.New("descuento inválido")
	ErrTransicionInvalida  = errors.New("transición de estado inválida")
	ErrSecuencialInvalido  = errors.New("secuencial inválido")
	ErrCalculoNoSoportado  = errors.New("tipo de cálculo de tarifa no soportado")
	ErrReglaElegibilidad   = errors.New("regla de elegibilidad de retención no cumplida")
	ErrFalloPermanente     = errors.New("fallo permanente: se agotaron los reintentos")
)

// ErrorCatalogo indica un fallo de integridad en el catálogo de tarifas:
// ninguna tarifa activa para el código/fecha, o más de una (ambigüedad).
// No es corregible por el usuario; se reporta como fallo 5xx.
type ErrorCatalogo struct {
	CodigoImpuesto string
	CodigoTarifa   string
	Fecha          string
	Coincidencias  int
}

func (e *ErrorCatalogo) Error() string {
	if e.Coincidencias == 0 {
		return fmt.Sprintf("catálogo: ninguna tarifa activa para impuesto %s código %s en %s",
			e.CodigoImpuesto, e.CodigoTarifa, e.Fecha)
	}
	return fmt.Sprintf("catálogo: %d tarifas activas para impuesto %s código %s en %s (ambigüedad)",
		e.Coincidencias, e.CodigoImpuesto, e.CodigoTarifa, e.Fecha)
}

// DescuadreError indica que un valor declarado no coincide con el calculado
// más allá de la tolerancia de 0.01. Nunca se corrige en silencio.
type DescuadreError struct {
	Campo     string
	Declarado decimal.Decimal
	Calculado decimal.Decimal
}

func (e *DescuadreError) Error() string {
	return fmt.Sprintf("descuadre en %s: declarado %s, calculado %s",
		e.Campo, e.Declarado.StringFixed(2), e.Calculado.StringFixed(2))
}

// ErrorTransitorioSRI marca fallos recuperables del WS del SRI (timeout, red,
// 5xx). El orquestador los absorbe en la contabilidad de reintentos.
type ErrorTransitorioSRI struct {
	Operacion string
	Causa     error
}

func (e *ErrorTransitorioSRI) Error() string {
	return fmt.Sprintf("sri %s: fallo transitorio: %v", e.Operacion, e.Causa)
}

func (e *ErrorTransitorioSRI) Unwrap() error { return e.Causa }

// EsTransitorio reporta si err (o su cadena) es un ErrorTransitorioSRI.
func EsTransitorio(err error) bool {
	var t *ErrorTransitorioSRI
	return errors.As(err, &t)
}
