package facturacion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/internal/application/facturacion"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
)

type rideFalso struct{ pdf []byte }

func (r *rideFalso) GenerarRIDE(_ context.Context, _ *entity.Comprobante) ([]byte, error) {
	return r.pdf, nil
}

func TestConsultaHistorialProyectaLasEntradas(t *testing.T) {
	c := facturaEnEstado(entity.EstadoCreado)
	repo := nuevoRepoFalso(c)
	repo.historial = append(repo.historial,
		&entity.HistorialEstado{
			ComprobanteID:  c.ID,
			EstadoAnterior: entity.EstadoCreado,
			EstadoNuevo:    entity.EstadoFirmado,
			Fecha:          time.Date(2024, 8, 23, 10, 0, 0, 0, time.UTC),
			Actor:          "sistema",
		},
		&entity.HistorialEstado{
			ComprobanteID:  c.ID,
			EstadoAnterior: entity.EstadoFirmado,
			EstadoNuevo:    entity.EstadoFirmado,
			Fecha:          time.Date(2024, 8, 23, 10, 5, 0, 0, time.UTC),
			Actor:          "sistema",
			Reintento:      1,
			Errores:        []entity.ErrorSRI{{Codigo: "TRANSITORIO", Mensaje: "timeout", Severidad: "ERROR"}},
		},
	)
	uc := facturacion.NewConsultaComprobanteUseCase(repo, &rideFalso{})

	entradas, err := uc.Historial(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, entradas, 2)

	assert.Equal(t, string(entity.EstadoCreado), entradas[0].EstadoAnterior)
	assert.Equal(t, string(entity.EstadoFirmado), entradas[0].EstadoNuevo)
	assert.Equal(t, "sistema", entradas[0].Actor)

	assert.Equal(t, 1, entradas[1].Reintento)
	require.Len(t, entradas[1].Errores, 1)
	assert.Equal(t, "TRANSITORIO", entradas[1].Errores[0].Codigo)
}

func TestConsultaPorClaveYPorID(t *testing.T) {
	c := facturaEnEstado(entity.EstadoAutorizado)
	uc := facturacion.NewConsultaComprobanteUseCase(nuevoRepoFalso(c), &rideFalso{})

	porID, err := uc.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ClaveAcceso, porID.ClaveAcceso)

	porClave, err := uc.GetByClaveAcceso(context.Background(), c.ClaveAcceso)
	require.NoError(t, err)
	assert.Equal(t, c.ID, porClave.ID)

	_, err = uc.GetByID(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
