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

var _ repository.TarifaRepository = (*TarifaRepo)(nil)

// TarifaRepo implementa TarifaRepository sobre PostgreSQL.
type TarifaRepo struct {
	db DB
}

// NewTarifaRepository construye el repositorio. Pasar pool o tx.
func NewTarifaRepository(db DB) *TarifaRepo {
	return &TarifaRepo{db: db}
}

const columnasTarifa = `
	id, codigo_impuesto, codigo_tarifa, descripcion, tipo_calculo,
	porcentaje, valor_especifico, vigencia_desde, vigencia_hasta, activa,
	created_at, updated_at`

func (r *TarifaRepo) Crear(ctx context.Context, t *entity.Tarifa) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO tarifas (
			id, codigo_impuesto, codigo_tarifa, descripcion, tipo_calculo,
			porcentaje, valor_especifico, vigencia_desde, vigencia_hasta, activa,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`
	_, err := r.db.Exec(ctx, q,
		t.ID, t.CodigoImpuesto, t.CodigoTarifa, t.Descripcion, string(t.TipoCalculo),
		t.Porcentaje, t.ValorEspecifico, t.VigenciaDesde, t.VigenciaHasta, t.Activa,
	)
	if err != nil {
		return fmt.Errorf("insert tarifa: %w", err)
	}
	return nil
}

func (r *TarifaRepo) GetByID(ctx context.Context, id string) (*entity.Tarifa, error) {
	q := `SELECT ` + columnasTarifa + ` FROM tarifas WHERE id = $1`
	t, err := scanTarifa(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tarifa: %w", err)
	}
	return t, nil
}

// BuscarVigentes devuelve las tarifas activas cuya ventana de vigencia
// contiene la fecha. El llamador decide qué hacer con cero o varias filas.
func (r *TarifaRepo) BuscarVigentes(ctx context.Context, codigoImpuesto, codigoTarifa string, fecha time.Time) ([]*entity.Tarifa, error) {
	q := `SELECT ` + columnasTarifa + `
		FROM tarifas
		WHERE codigo_impuesto = $1
		  AND codigo_tarifa   = $2
		  AND activa
		  AND vigencia_desde <= $3
		  AND (vigencia_hasta IS NULL OR vigencia_hasta >= $3)
		ORDER BY vigencia_desde DESC`
	rows, err := r.db.Query(ctx, q, codigoImpuesto, codigoTarifa, fecha)
	if err != nil {
		return nil, fmt.Errorf("buscar tarifas vigentes: %w", err)
	}
	defer rows.Close()
	var list []*entity.Tarifa
	for rows.Next() {
		t, err := scanTarifa(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tarifa: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// CategoriaVigente devuelve la sobrecarga por categoría de producto aplicable
// en la fecha, o nil si no hay ninguna.
func (r *TarifaRepo) CategoriaVigente(ctx context.Context, categoria string, fecha time.Time) (*entity.CategoriaTarifa, error) {
	const q = `
		SELECT id, categoria, porcentaje, vigencia_desde, vigencia_hasta, activa
		FROM categoria_tarifas
		WHERE categoria = $1
		  AND activa
		  AND vigencia_desde <= $2
		  AND vigencia_hasta >= $2
		ORDER BY vigencia_desde DESC
		LIMIT 1`
	var c entity.CategoriaTarifa
	err := r.db.QueryRow(ctx, q, categoria, fecha).Scan(
		&c.ID, &c.Categoria, &c.Porcentaje, &c.VigenciaDesde, &c.VigenciaHasta, &c.Activa,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get categoria vigente: %w", err)
	}
	return &c, nil
}

// ReemplazarTarifa cierra la vigencia de la tarifa anterior, inserta la nueva
// y registra el cambio en el historial, todo en una transacción.
func (r *TarifaRepo) ReemplazarTarifa(ctx context.Context, anteriorID string, nueva *entity.Tarifa, historial *entity.HistorialTarifa) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// La tarifa anterior no se muta ni borra: solo se cierra su vigencia un
	// instante antes de que arranque la nueva. El cierre va pegado al arranque
	// para que cualquier fecha de emisión del día de cambio caiga en una de
	// las dos ventanas.
	cierre := nueva.VigenciaDesde.Add(-time.Second)
	const cerrar = `
		UPDATE tarifas SET vigencia_hasta = $2, updated_at = now()
		WHERE id = $1 AND (vigencia_hasta IS NULL OR vigencia_hasta > $2)`
	tag, err := tx.Exec(ctx, cerrar, anteriorID, cierre)
	if err != nil {
		return fmt.Errorf("cerrar vigencia de tarifa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tarifa anterior %s: %w", anteriorID, domain.ErrNotFound)
	}

	if nueva.ID == "" {
		nueva.ID = uuid.New().String()
	}
	const insertar = `
		INSERT INTO tarifas (
			id, codigo_impuesto, codigo_tarifa, descripcion, tipo_calculo,
			porcentaje, valor_especifico, vigencia_desde, vigencia_hasta, activa,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`
	_, err = tx.Exec(ctx, insertar,
		nueva.ID, nueva.CodigoImpuesto, nueva.CodigoTarifa, nueva.Descripcion, string(nueva.TipoCalculo),
		nueva.Porcentaje, nueva.ValorEspecifico, nueva.VigenciaDesde, nueva.VigenciaHasta, nueva.Activa,
	)
	if err != nil {
		return fmt.Errorf("insert tarifa nueva: %w", err)
	}

	if historial.ID == "" {
		historial.ID = uuid.New().String()
	}
	if historial.Fecha.IsZero() {
		historial.Fecha = time.Now()
	}
	historial.TarifaAnteriorID = anteriorID
	historial.TarifaNuevaID = nueva.ID
	const auditar = `
		INSERT INTO historial_tarifas (
			id, tarifa_anterior_id, tarifa_nueva_id, porcentaje_anterior, porcentaje_nuevo,
			motivo, actor, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.Exec(ctx, auditar,
		historial.ID, historial.TarifaAnteriorID, historial.TarifaNuevaID,
		historial.PorcentajeAnterior, historial.PorcentajeNuevo,
		historial.Motivo, historial.Actor, historial.Fecha,
	)
	if err != nil {
		return fmt.Errorf("insert historial de tarifa: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanTarifa(row pgxScanner) (*entity.Tarifa, error) {
	var t entity.Tarifa
	err := row.Scan(
		&t.ID, &t.CodigoImpuesto, &t.CodigoTarifa, &t.Descripcion, &t.TipoCalculo,
		&t.Porcentaje, &t.ValorEspecifico, &t.VigenciaDesde, &t.VigenciaHasta, &t.Activa,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
