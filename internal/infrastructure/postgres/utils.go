package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier abstrae *pgxpool.Pool y pgx.Tx para que los repos funcionen igual
// dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB es un Querier que además abre transacciones. Lo satisfacen *pgxpool.Pool
// y pgx.Tx (este último anida con savepoints), así los métodos atómicos de los
// repos funcionan igual sueltos o dentro de una transacción mayor.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pgxScanner abstrae pgx.Row y pgx.Rows para reutilizar los helpers de scan.
type pgxScanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
