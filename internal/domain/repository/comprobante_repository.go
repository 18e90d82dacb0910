// Package repository define los puertos de persistencia del dominio.
package repository

import (
	"context"
	"time"

	"github.com/facturaec/sri-core/internal/domain/entity"
)

// ComprobanteRepository persistencia del agregado Comprobante.
type ComprobanteRepository interface {
	// Crear persiste cabecera, detalles e impuestos, más la entrada inicial
	// del historial, en una sola transacción.
	Crear(ctx context.Context, c *entity.Comprobante, historial *entity.HistorialEstado) error

	GetByID(ctx context.Context, id string) (*entity.Comprobante, error)
	GetByClaveAcceso(ctx context.Context, claveAcceso string) (*entity.Comprobante, error)

	// ActualizarEstado actualiza el estado y el bookkeeping de reintentos del
	// comprobante y añade la entrada de historial en la misma transacción:
	// ambos se confirman o ninguno.
	ActualizarEstado(ctx context.Context, c *entity.Comprobante, historial *entity.HistorialEstado) error

	// Historial devuelve las transiciones en orden cronológico.
	Historial(ctx context.Context, comprobanteID string) ([]*entity.HistorialEstado, error)

	// ListarPendientes devuelve comprobantes en estado intermedio marcados
	// para reenvío cuyo próximo reintento ya venció.
	ListarPendientes(ctx context.Context, antesDe time.Time, limite int) ([]*entity.Comprobante, error)
}
