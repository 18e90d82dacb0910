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

var _ repository.RetencionRepository = (*RetencionRepo)(nil)

// RetencionRepo implementa RetencionRepository sobre PostgreSQL. Las reglas de
// elegibilidad viven en su propia tabla y se cargan junto con el código.
type RetencionRepo struct {
	db DB
}

// NewRetencionRepository construye el repositorio. Pasar pool o tx.
func NewRetencionRepository(db DB) *RetencionRepo {
	return &RetencionRepo{db: db}
}

const columnasRetencion = `
	id, codigo_impuesto, codigo, descripcion, porcentaje,
	COALESCE(tipo_contribuyente, ''), COALESCE(regimen, ''),
	vigencia_desde, vigencia_hasta, activa, created_at, updated_at`

func (r *RetencionRepo) Crear(ctx context.Context, c *entity.CodigoRetencion) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO codigos_retencion (
			id, codigo_impuesto, codigo, descripcion, porcentaje,
			tipo_contribuyente, regimen, vigencia_desde, vigencia_hasta, activa,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`
	_, err = tx.Exec(ctx, q,
		c.ID, c.CodigoImpuesto, c.Codigo, c.Descripcion, c.Porcentaje,
		nullIfEmpty(c.TipoContribuyente), nullIfEmpty(c.Regimen),
		c.VigenciaDesde, c.VigenciaHasta, c.Activa,
	)
	if err != nil {
		return fmt.Errorf("insert codigo de retencion: %w", err)
	}

	const insRegla = `
		INSERT INTO reglas_elegibilidad (id, codigo_retencion_id, campo, operador, valor, valores)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, regla := range c.Reglas {
		if regla.ID == "" {
			regla.ID = uuid.New().String()
		}
		regla.CodigoRetencionID = c.ID
		_, err := tx.Exec(ctx, insRegla,
			regla.ID, regla.CodigoRetencionID, regla.Campo, regla.Operador,
			nullIfEmpty(regla.Valor), regla.Valores,
		)
		if err != nil {
			return fmt.Errorf("insert regla de elegibilidad: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RetencionRepo) GetByCodigo(ctx context.Context, codigoImpuesto, codigo string) (*entity.CodigoRetencion, error) {
	q := `SELECT ` + columnasRetencion + `
		FROM codigos_retencion
		WHERE codigo_impuesto = $1 AND codigo = $2
		ORDER BY vigencia_desde DESC
		LIMIT 1`
	c, err := scanRetencion(r.db.QueryRow(ctx, q, codigoImpuesto, codigo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get codigo de retencion: %w", err)
	}
	if err := r.cargarReglas(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BuscarVigentes filtra por código, tipo de contribuyente y régimen. Las filas
// con tipo o régimen NULL aplican a cualquiera.
func (r *RetencionRepo) BuscarVigentes(ctx context.Context, codigoImpuesto, codigo, tipoContribuyente, regimen string, fecha time.Time) ([]*entity.CodigoRetencion, error) {
	q := `SELECT ` + columnasRetencion + `
		FROM codigos_retencion
		WHERE codigo_impuesto = $1
		  AND codigo          = $2
		  AND (tipo_contribuyente IS NULL OR tipo_contribuyente = $3)
		  AND (regimen IS NULL OR regimen = $4)
		  AND activa
		  AND vigencia_desde <= $5
		  AND (vigencia_hasta IS NULL OR vigencia_hasta >= $5)
		ORDER BY vigencia_desde DESC`
	rows, err := r.db.Query(ctx, q, codigoImpuesto, codigo, tipoContribuyente, regimen, fecha)
	if err != nil {
		return nil, fmt.Errorf("buscar retenciones vigentes: %w", err)
	}
	defer rows.Close()
	var list []*entity.CodigoRetencion
	for rows.Next() {
		c, err := scanRetencion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan codigo de retencion: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range list {
		if err := r.cargarReglas(ctx, c); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *RetencionRepo) cargarReglas(ctx context.Context, c *entity.CodigoRetencion) error {
	const q = `
		SELECT id, codigo_retencion_id, campo, operador, COALESCE(valor, ''), COALESCE(valores, '{}')
		FROM reglas_elegibilidad
		WHERE codigo_retencion_id = $1
		ORDER BY campo`
	rows, err := r.db.Query(ctx, q, c.ID)
	if err != nil {
		return fmt.Errorf("list reglas de elegibilidad: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var regla entity.ReglaElegibilidad
		if err := rows.Scan(&regla.ID, &regla.CodigoRetencionID, &regla.Campo, &regla.Operador,
			&regla.Valor, &regla.Valores); err != nil {
			return fmt.Errorf("scan regla: %w", err)
		}
		c.Reglas = append(c.Reglas, &regla)
	}
	return rows.Err()
}

func scanRetencion(row pgxScanner) (*entity.CodigoRetencion, error) {
	var c entity.CodigoRetencion
	err := row.Scan(
		&c.ID, &c.CodigoImpuesto, &c.Codigo, &c.Descripcion, &c.Porcentaje,
		&c.TipoContribuyente, &c.Regimen,
		&c.VigenciaDesde, &c.VigenciaHasta, &c.Activa, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
