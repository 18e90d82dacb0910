package calculo

import (
	"context"
	"fmt"
	"time"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/sri"
)

// CatalogoTarifas servicio de consulta del catálogo con resolución de
// ambigüedades: exactamente una tarifa vigente por (impuesto, código, fecha).
// Cero o varias coincidencias son un fallo de integridad de datos, no se adivina.
type CatalogoTarifas struct {
	repo repository.TarifaRepository
}

// NewCatalogoTarifas construye el servicio sobre el repositorio inyectado.
// No hay catálogo global mutable: el estado vive en la base de datos.
func NewCatalogoTarifas(repo repository.TarifaRepository) *CatalogoTarifas {
	return &CatalogoTarifas{repo: repo}
}

// Buscar devuelve la única tarifa activa vigente en la fecha.
func (c *CatalogoTarifas) Buscar(ctx context.Context, codigoImpuesto, codigoTarifa string, fecha time.Time) (*entity.Tarifa, error) {
	vigentes, err := c.repo.BuscarVigentes(ctx, codigoImpuesto, codigoTarifa, fecha)
	if err != nil {
		return nil, fmt.Errorf("catálogo de tarifas: %w", err)
	}
	if len(vigentes) != 1 {
		return nil, &domain.ErrorCatalogo{
			CodigoImpuesto: codigoImpuesto,
			CodigoTarifa:   codigoTarifa,
			Fecha:          fecha.Format("2006-01-02"),
			Coincidencias:  len(vigentes),
		}
	}
	return vigentes[0], nil
}

// BuscarIVA resuelve la tarifa de IVA aplicable considerando las sobrecargas
// por categoría de producto: si la fecha cae en la ventana especial de la
// categoría, su porcentaje reemplaza al del código genérico.
func (c *CatalogoTarifas) BuscarIVA(ctx context.Context, codigoTarifa, categoriaProducto string, fecha time.Time) (*entity.Tarifa, error) {
	generica, err := c.Buscar(ctx, sri.ImpuestoIVA, codigoTarifa, fecha)
	if err != nil {
		return nil, err
	}
	if categoriaProducto == "" {
		return generica, nil
	}
	sobrecarga, err := c.repo.CategoriaVigente(ctx, categoriaProducto, fecha)
	if err != nil {
		return nil, fmt.Errorf("catálogo de categorías: %w", err)
	}
	if sobrecarga == nil {
		return generica, nil
	}
	ajustada := *generica
	ajustada.Porcentaje = sobrecarga.Porcentaje
	return &ajustada, nil
}
