package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
)

var _ repository.SecuencialRepository = (*SecuencialRepo)(nil)

// SecuencialRepo implementa SecuencialRepository sobre PostgreSQL. La
// serialización de Siguiente se apoya en el bloqueo de fila del UPDATE: dos
// llamadas concurrentes sobre la misma clave se ordenan y nunca ven el mismo
// valor.
type SecuencialRepo struct {
	db DB
}

// NewSecuencialRepository construye el repositorio. Pasar pool o tx.
func NewSecuencialRepository(db DB) *SecuencialRepo {
	return &SecuencialRepo{db: db}
}

// Siguiente incrementa y devuelve el secuencial para la clave
// (emisor, establecimiento, punto de emisión, tipo de comprobante). La fila se
// crea en 1 si no existe. Si el llamador está dentro de una transacción, el
// bloqueo de fila se retiene hasta el commit y un rollback libera el valor.
func (r *SecuencialRepo) Siguiente(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string) (int64, error) {
	const q = `
		INSERT INTO secuenciales (id, emisor_id, establecimiento, punto_emision, tipo_comprobante, actual, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, now())
		ON CONFLICT (emisor_id, establecimiento, punto_emision, tipo_comprobante)
		DO UPDATE SET actual = secuenciales.actual + 1, updated_at = now()
		RETURNING actual`
	var actual int64
	err := r.db.QueryRow(ctx, q, uuid.New().String(), emisorID, establecimiento, puntoEmision, tipoComprobante).Scan(&actual)
	if err != nil {
		return 0, fmt.Errorf("asignar secuencial: %w", err)
	}
	return actual, nil
}

// Actual devuelve el contador sin incrementarlo.
func (r *SecuencialRepo) Actual(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string) (*entity.Secuencial, error) {
	const q = `
		SELECT id, emisor_id, establecimiento, punto_emision, tipo_comprobante, actual, updated_at
		FROM secuenciales
		WHERE emisor_id = $1 AND establecimiento = $2 AND punto_emision = $3 AND tipo_comprobante = $4`
	var s entity.Secuencial
	err := r.db.QueryRow(ctx, q, emisorID, establecimiento, puntoEmision, tipoComprobante).Scan(
		&s.ID, &s.EmisorID, &s.Establecimiento, &s.PuntoEmision, &s.TipoComprobante, &s.Actual, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get secuencial: %w", err)
	}
	return &s, nil
}

// Ajustar fija el contador a un valor mayor y registra el ajuste append-only
// en la misma transacción. Bajar el contador se rechaza: reutilizar un
// secuencial ya emitido rompería la unicidad de las claves de acceso.
func (r *SecuencialRepo) Ajustar(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string, nuevoValor int64, justificacion, actor string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const bloquear = `
		SELECT id, actual FROM secuenciales
		WHERE emisor_id = $1 AND establecimiento = $2 AND punto_emision = $3 AND tipo_comprobante = $4
		FOR UPDATE`
	var id string
	var actual int64
	err = tx.QueryRow(ctx, bloquear, emisorID, establecimiento, puntoEmision, tipoComprobante).Scan(&id, &actual)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("bloquear secuencial: %w", err)
	}
	if nuevoValor <= actual {
		return fmt.Errorf("ajustar de %d a %d: %w", actual, nuevoValor, domain.ErrSecuencialInvalido)
	}

	const actualizar = `UPDATE secuenciales SET actual = $2, updated_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, actualizar, id, nuevoValor); err != nil {
		return fmt.Errorf("update secuencial: %w", err)
	}

	const auditar = `
		INSERT INTO ajustes_secuencial (id, secuencial_id, valor_anterior, valor_nuevo, justificacion, actor, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.Exec(ctx, auditar,
		uuid.New().String(), id, actual, nuevoValor, justificacion, actor, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert ajuste de secuencial: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ajustes devuelve los ajustes manuales del contador en orden cronológico.
func (r *SecuencialRepo) Ajustes(ctx context.Context, secuencialID string) ([]*entity.AjusteSecuencial, error) {
	const q = `
		SELECT id, secuencial_id, valor_anterior, valor_nuevo, justificacion, actor, fecha
		FROM ajustes_secuencial
		WHERE secuencial_id = $1
		ORDER BY fecha, id`
	rows, err := r.db.Query(ctx, q, secuencialID)
	if err != nil {
		return nil, fmt.Errorf("list ajustes: %w", err)
	}
	defer rows.Close()
	var list []*entity.AjusteSecuencial
	for rows.Next() {
		var a entity.AjusteSecuencial
		if err := rows.Scan(&a.ID, &a.SecuencialID, &a.ValorAnterior, &a.ValorNuevo,
			&a.Justificacion, &a.Actor, &a.Fecha); err != nil {
			return nil, fmt.Errorf("scan ajuste: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
