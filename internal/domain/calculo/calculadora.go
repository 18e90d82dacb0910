package calculo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/sri"
)

// Calculadora valida y deriva los totales de un comprobante contra el catálogo
// de tarifas. Los valores declarados nunca se corrigen en silencio: un
// descuadre mayor a la tolerancia se reporta con ambos valores.
type Calculadora struct {
	catalogo *CatalogoTarifas
}

// NewCalculadora construye la calculadora.
func NewCalculadora(catalogo *CatalogoTarifas) *Calculadora {
	return &Calculadora{catalogo: catalogo}
}

// ComputarLinea recalcula el total y los impuestos declarados de una línea.
//
//	subtotal  = cantidad × precioUnitario
//	total     = subtotal − descuento (0 ≤ descuento ≤ subtotal)
//
// Cada impuesto declarado se recalcula vía catálogo y se compara contra el
// valor declarado con tolerancia de un centavo.
func (cal *Calculadora) ComputarLinea(ctx context.Context, d *entity.Detalle, fecha time.Time, categoriaProducto string) error {
	subtotal := d.Cantidad.Mul(d.PrecioUnitario)
	if d.Descuento.IsNegative() || d.Descuento.GreaterThan(subtotal) {
		return fmt.Errorf("%w: línea %d: descuento %s fuera de [0, %s]",
			domain.ErrDescuentoInvalido, d.NumeroLinea, d.Descuento.StringFixed(2), subtotal.StringFixed(2))
	}
	total := subtotal.Sub(d.Descuento).Round(2)
	if !DentroDeTolerancia(d.PrecioTotalSinImpuesto, total) {
		return &domain.DescuadreError{
			Campo:     fmt.Sprintf("detalle[%d].precioTotalSinImpuesto", d.NumeroLinea),
			Declarado: d.PrecioTotalSinImpuesto,
			Calculado: total,
		}
	}

	for _, imp := range d.Impuestos {
		calculado, err := cal.computarImpuesto(ctx, imp, fecha, categoriaProducto)
		if err != nil {
			return err
		}
		if !DentroDeTolerancia(imp.Valor, calculado) {
			return &domain.DescuadreError{
				Campo:     fmt.Sprintf("detalle[%d].impuesto[%s/%s].valor", d.NumeroLinea, imp.CodigoImpuesto, imp.CodigoTarifa),
				Declarado: imp.Valor,
				Calculado: calculado,
			}
		}
	}
	return nil
}

func (cal *Calculadora) computarImpuesto(ctx context.Context, imp *entity.ImpuestoDetalle, fecha time.Time, categoria string) (decimal.Decimal, error) {
	var tarifa *entity.Tarifa
	var err error
	if imp.CodigoImpuesto == sri.ImpuestoIVA {
		tarifa, err = cal.catalogo.BuscarIVA(ctx, imp.CodigoTarifa, categoria, fecha)
	} else {
		tarifa, err = cal.catalogo.Buscar(ctx, imp.CodigoImpuesto, imp.CodigoTarifa, fecha)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return CalcularTarifa(tarifa, imp.BaseImponible)
}

// ValidarTotales comprueba que los totales declarados del comprobante cuadren
// con la suma de sus líneas e impuestos, dentro de la tolerancia. Acumula
// todos los descuadres en lugar de cortar en el primero.
func (cal *Calculadora) ValidarTotales(c *entity.Comprobante) error {
	var sumaLineas, sumaDescuentos, sumaImpuestos decimal.Decimal
	for _, d := range c.Detalles {
		sumaLineas = sumaLineas.Add(d.PrecioTotalSinImpuesto)
		sumaDescuentos = sumaDescuentos.Add(d.Descuento)
		for _, imp := range d.Impuestos {
			sumaImpuestos = sumaImpuestos.Add(imp.Valor)
		}
	}
	sumaLineas = sumaLineas.Round(2)
	sumaDescuentos = sumaDescuentos.Round(2)
	sumaImpuestos = sumaImpuestos.Round(2)

	var errs []error
	if !DentroDeTolerancia(c.TotalSinImpuestos, sumaLineas) {
		errs = append(errs, &domain.DescuadreError{Campo: "totalSinImpuestos", Declarado: c.TotalSinImpuestos, Calculado: sumaLineas})
	}
	if !DentroDeTolerancia(c.TotalDescuento, sumaDescuentos) {
		errs = append(errs, &domain.DescuadreError{Campo: "totalDescuento", Declarado: c.TotalDescuento, Calculado: sumaDescuentos})
	}
	if !DentroDeTolerancia(c.TotalImpuestos, sumaImpuestos) {
		errs = append(errs, &domain.DescuadreError{Campo: "totalImpuestos", Declarado: c.TotalImpuestos, Calculado: sumaImpuestos})
	}
	importe := sumaLineas.Add(sumaImpuestos)
	if !DentroDeTolerancia(c.ImporteTotal, importe) {
		errs = append(errs, &domain.DescuadreError{Campo: "importeTotal", Declarado: c.ImporteTotal, Calculado: importe})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TotalesPorImpuesto agrupa los impuestos de las líneas por código de impuesto
// (IVA, ICE, IRBPNR), para los resúmenes del comprobante.
func TotalesPorImpuesto(c *entity.Comprobante) map[string]decimal.Decimal {
	totales := make(map[string]decimal.Decimal)
	for _, d := range c.Detalles {
		for _, imp := range d.Impuestos {
			totales[imp.CodigoImpuesto] = totales[imp.CodigoImpuesto].Add(imp.Valor)
		}
	}
	for codigo, total := range totales {
		totales[codigo] = total.Round(2)
	}
	return totales
}
