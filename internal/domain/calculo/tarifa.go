// Package calculo implementa el motor de cálculo de impuestos y retenciones:
// totales por línea y por comprobante, comparación declarado-vs-calculado con
// tolerancia de un centavo, y elegibilidad de retenciones.
package calculo

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
)

// Tolerancia máxima entre un valor declarado y el calculado: un centavo.
var Tolerancia = decimal.RequireFromString("0.01")

// DentroDeTolerancia reporta si |a − b| < 0.01.
func DentroDeTolerancia(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerancia)
}

// CalcularTarifa aplica una tarifa del catálogo a una base imponible.
// Determinista y pura: mismos insumos, mismo resultado redondeado.
//
//	PORCENTAJE → round(base × pct/100, 2)
//	ESPECIFICO → round(valorEspecifico, 2)
//	MIXTO      → round(base × pct/100 + valorEspecifico, 2)
func CalcularTarifa(t *entity.Tarifa, base decimal.Decimal) (decimal.Decimal, error) {
	switch t.TipoCalculo {
	case entity.CalculoPorcentaje:
		return base.Mul(t.Porcentaje).Div(decimal.NewFromInt(100)).Round(2), nil
	case entity.CalculoEspecifico:
		return t.ValorEspecifico.Round(2), nil
	case entity.CalculoMixto:
		return base.Mul(t.Porcentaje).Div(decimal.NewFromInt(100)).Add(t.ValorEspecifico).Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrCalculoNoSoportado, t.TipoCalculo)
	}
}
