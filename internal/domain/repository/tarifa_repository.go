package repository

import (
	"context"
	"time"

	"github.com/facturaec/sri-core/internal/domain/entity"
)

// TarifaRepository catálogo de tarifas de impuestos, versionado en el tiempo.
type TarifaRepository interface {
	Crear(ctx context.Context, t *entity.Tarifa) error
	GetByID(ctx context.Context, id string) (*entity.Tarifa, error)

	// BuscarVigentes devuelve las tarifas activas cuya ventana de vigencia
	// contiene la fecha. El llamador decide qué hacer si hay cero o varias.
	BuscarVigentes(ctx context.Context, codigoImpuesto, codigoTarifa string, fecha time.Time) ([]*entity.Tarifa, error)

	// CategoriaVigente devuelve la sobrecarga por categoría de producto
	// aplicable en la fecha, o nil si no hay.
	CategoriaVigente(ctx context.Context, categoria string, fecha time.Time) (*entity.CategoriaTarifa, error)

	// ReemplazarTarifa cierra la vigencia de la tarifa anterior, inserta la
	// nueva y registra el historial, todo en una transacción.
	ReemplazarTarifa(ctx context.Context, anteriorID string, nueva *entity.Tarifa, historial *entity.HistorialTarifa) error
}

// RetencionRepository catálogo de códigos de retención.
type RetencionRepository interface {
	Crear(ctx context.Context, c *entity.CodigoRetencion) error
	GetByCodigo(ctx context.Context, codigoImpuesto, codigo string) (*entity.CodigoRetencion, error)

	// BuscarVigentes filtra por código, tipo de contribuyente y régimen.
	// Filas con tipo o régimen vacío aplican a cualquiera.
	BuscarVigentes(ctx context.Context, codigoImpuesto, codigo, tipoContribuyente, regimen string, fecha time.Time) ([]*entity.CodigoRetencion, error)
}
