package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
)

var _ repository.EmisorRepository = (*EmisorRepo)(nil)

// EmisorRepo implementa EmisorRepository sobre PostgreSQL.
type EmisorRepo struct {
	q Querier
}

// NewEmisorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmisorRepository(q Querier) *EmisorRepo {
	return &EmisorRepo{q: q}
}

const columnasEmisor = `
	id, ruc, razon_social, COALESCE(nombre_comercial, ''), direccion_matriz,
	COALESCE(contribuyente_especial, ''), obligado_contabilidad, regimen, ambiente,
	COALESCE(certificado_path, ''), COALESCE(certificado_password, ''),
	created_at, updated_at`

func (r *EmisorRepo) Crear(ctx context.Context, e *entity.Emisor) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO emisores (
			id, ruc, razon_social, nombre_comercial, direccion_matriz,
			contribuyente_especial, obligado_contabilidad, regimen, ambiente,
			certificado_path, certificado_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`
	_, err := r.q.Exec(ctx, q,
		e.ID, e.RUC, e.RazonSocial, nullIfEmpty(e.NombreComercial), e.DireccionMatriz,
		nullIfEmpty(e.ContribuyenteEspecial), e.ObligadoContabilidad, e.Regimen, e.Ambiente,
		nullIfEmpty(e.CertificadoPath), nullIfEmpty(e.CertificadoPassword),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("RUC ya registrado: %w", domain.ErrDuplicado)
		}
		return fmt.Errorf("insert emisor: %w", err)
	}
	return nil
}

func (r *EmisorRepo) GetByID(ctx context.Context, id string) (*entity.Emisor, error) {
	return r.getBy(ctx, "id", id)
}

func (r *EmisorRepo) GetByRUC(ctx context.Context, ruc string) (*entity.Emisor, error) {
	return r.getBy(ctx, "ruc", ruc)
}

func (r *EmisorRepo) getBy(ctx context.Context, columna, valor string) (*entity.Emisor, error) {
	q := `SELECT ` + columnasEmisor + ` FROM emisores WHERE ` + columna + ` = $1`
	var e entity.Emisor
	err := r.q.QueryRow(ctx, q, valor).Scan(
		&e.ID, &e.RUC, &e.RazonSocial, &e.NombreComercial, &e.DireccionMatriz,
		&e.ContribuyenteEspecial, &e.ObligadoContabilidad, &e.Regimen, &e.Ambiente,
		&e.CertificadoPath, &e.CertificadoPassword,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get emisor: %w", err)
	}
	return &e, nil
}
