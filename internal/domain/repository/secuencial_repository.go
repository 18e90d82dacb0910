package repository

import (
	"context"

	"github.com/facturaec/sri-core/internal/domain/entity"
)

// SecuencialRepository asignación de secuenciales por punto de emisión.
type SecuencialRepository interface {
	// Siguiente incrementa y devuelve el secuencial para la clave
	// (emisor, establecimiento, punto, tipo). La implementación serializa el
	// read-increment-write (bloqueo por fila); llamadas concurrentes sobre la
	// misma clave nunca devuelven duplicados.
	Siguiente(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string) (int64, error)

	Actual(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string) (*entity.Secuencial, error)

	// Ajustar fija el contador a un valor mayor y registra el ajuste
	// (append-only) en la misma transacción. Bajar el contador se rechaza.
	Ajustar(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string, nuevoValor int64, justificacion, actor string) error

	Ajustes(ctx context.Context, secuencialID string) ([]*entity.AjusteSecuencial, error)
}

// EmisorRepository persistencia de emisores.
type EmisorRepository interface {
	Crear(ctx context.Context, e *entity.Emisor) error
	GetByID(ctx context.Context, id string) (*entity.Emisor, error)
	GetByRUC(ctx context.Context, ruc string) (*entity.Emisor, error)
}
