package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturaec/sri-core/internal/application/facturacion"
	"github.com/facturaec/sri-core/internal/domain/repository"
)

// Ensure TxRunner implements facturacion.TxRunner.
var _ facturacion.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Es el camino para operaciones que cruzan agregados, como
// asignar secuencial y persistir el comprobante: o se confirman las dos cosas
// o ninguna (el secuencial asignado se libera con el rollback).
func (r *TxRunner) Run(ctx context.Context, fn func(
	comprobantes repository.ComprobanteRepository,
	secuenciales repository.SecuencialRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	comprobantes := NewComprobanteRepository(tx)
	secuenciales := NewSecuencialRepository(tx)

	if err := fn(comprobantes, secuenciales); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
