package catalogo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/internal/application/catalogo"
	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/logger"
	"github.com/facturaec/sri-core/pkg/sri"
)

type tarifaAdminRepoFalso struct {
	porID      map[string]*entity.Tarifa
	reemplazos []*entity.HistorialTarifa
}

func (r *tarifaAdminRepoFalso) Crear(context.Context, *entity.Tarifa) error { return nil }

func (r *tarifaAdminRepoFalso) GetByID(_ context.Context, id string) (*entity.Tarifa, error) {
	t, ok := r.porID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *tarifaAdminRepoFalso) BuscarVigentes(_ context.Context, codigoImpuesto, codigoTarifa string, fecha time.Time) ([]*entity.Tarifa, error) {
	var out []*entity.Tarifa
	for _, t := range r.porID {
		if t.CodigoImpuesto == codigoImpuesto && t.CodigoTarifa == codigoTarifa && t.VigenteEn(fecha) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *tarifaAdminRepoFalso) CategoriaVigente(context.Context, string, time.Time) (*entity.CategoriaTarifa, error) {
	return nil, nil
}

func (r *tarifaAdminRepoFalso) ReemplazarTarifa(_ context.Context, anteriorID string, nueva *entity.Tarifa, h *entity.HistorialTarifa) error {
	anterior := r.porID[anteriorID]
	cierre := nueva.VigenciaDesde.Add(-time.Second)
	anterior.VigenciaHasta = &cierre
	nueva.ID = "tarifa-nueva"
	r.porID[nueva.ID] = nueva
	r.reemplazos = append(r.reemplazos, h)
	return nil
}

func tarifaIVA12() *entity.Tarifa {
	return &entity.Tarifa{
		ID:             "iva-12",
		CodigoImpuesto: sri.ImpuestoIVA,
		CodigoTarifa:   sri.TarifaIVAGeneral,
		Descripcion:    "IVA tarifa general",
		TipoCalculo:    entity.CalculoPorcentaje,
		Porcentaje:     decimal.NewFromInt(12),
		VigenciaDesde:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Activa:         true,
	}
}

func solicitudCambioIVA15() dto.CambiarTarifaRequest {
	return dto.CambiarTarifaRequest{
		TarifaAnteriorID: "iva-12",
		Porcentaje:       decimal.NewFromInt(15),
		TipoCalculo:      string(entity.CalculoPorcentaje),
		VigenciaDesde:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Motivo:           "Decreto Ejecutivo 198",
		Actor:            "admin@empresa.ec",
	}
}

func montarTarifaAdmin() (*catalogo.TarifaAdminUseCase, *tarifaAdminRepoFalso) {
	repo := &tarifaAdminRepoFalso{porID: map[string]*entity.Tarifa{"iva-12": tarifaIVA12()}}
	return catalogo.NewTarifaAdminUseCase(repo, logger.New(logger.Config{Level: "error"})), repo
}

func TestCambiarTarifa(t *testing.T) {
	uc, repo := montarTarifaAdmin()

	resp, err := uc.CambiarTarifa(context.Background(), solicitudCambioIVA15())
	require.NoError(t, err)

	assert.Equal(t, sri.ImpuestoIVA, resp.CodigoImpuesto, "hereda los códigos de la anterior")
	assert.Equal(t, sri.TarifaIVAGeneral, resp.CodigoTarifa)
	assert.Equal(t, "IVA tarifa general", resp.Descripcion, "hereda la descripción si no se da otra")
	assert.True(t, resp.Porcentaje.Equal(decimal.NewFromInt(15)))

	require.Len(t, repo.reemplazos, 1)
	h := repo.reemplazos[0]
	assert.Equal(t, "iva-12", h.TarifaAnteriorID)
	assert.True(t, h.PorcentajeAnterior.Equal(decimal.NewFromInt(12)))
	assert.True(t, h.PorcentajeNuevo.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "admin@empresa.ec", h.Actor)
}

func TestCambiarTarifaPreservaLaHistoria(t *testing.T) {
	uc, _ := montarTarifaAdmin()

	_, err := uc.CambiarTarifa(context.Background(), solicitudCambioIVA15())
	require.NoError(t, err)

	// Una fecha anterior al cambio sigue resolviendo la tarifa vieja; una
	// posterior resuelve la nueva.
	antes, err := uc.Vigentes(context.Background(), sri.ImpuestoIVA, sri.TarifaIVAGeneral,
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, antes, 1)
	assert.True(t, antes[0].Porcentaje.Equal(decimal.NewFromInt(12)))

	despues, err := uc.Vigentes(context.Background(), sri.ImpuestoIVA, sri.TarifaIVAGeneral,
		time.Date(2024, 8, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, despues, 1)
	assert.True(t, despues[0].Porcentaje.Equal(decimal.NewFromInt(15)))
}

func TestCambiarTarifaSinHuecoEnElDiaDeCambio(t *testing.T) {
	uc, _ := montarTarifaAdmin()

	_, err := uc.CambiarTarifa(context.Background(), solicitudCambioIVA15())
	require.NoError(t, err)

	// Un comprobante emitido a media tarde del último día de la tarifa vieja
	// todavía resuelve el 12 %: las ventanas quedan pegadas, sin hueco.
	vispera, err := uc.Vigentes(context.Background(), sri.ImpuestoIVA, sri.TarifaIVAGeneral,
		time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, vispera, 1)
	assert.True(t, vispera[0].Porcentaje.Equal(decimal.NewFromInt(12)))

	arranque, err := uc.Vigentes(context.Background(), sri.ImpuestoIVA, sri.TarifaIVAGeneral,
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, arranque, 1)
	assert.True(t, arranque[0].Porcentaje.Equal(decimal.NewFromInt(15)))
}

func TestCambiarTarifaVigenciaNoPosterior(t *testing.T) {
	uc, _ := montarTarifaAdmin()

	in := solicitudCambioIVA15()
	in.VigenciaDesde = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := uc.CambiarTarifa(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
}

func TestCambiarTarifaValidaEntrada(t *testing.T) {
	uc, _ := montarTarifaAdmin()

	casos := []struct {
		nombre string
		mutar  func(*dto.CambiarTarifaRequest)
	}{
		{"sin tarifa anterior", func(in *dto.CambiarTarifaRequest) { in.TarifaAnteriorID = "" }},
		{"sin motivo", func(in *dto.CambiarTarifaRequest) { in.Motivo = "" }},
		{"sin actor", func(in *dto.CambiarTarifaRequest) { in.Actor = "" }},
		{"sin vigencia", func(in *dto.CambiarTarifaRequest) { in.VigenciaDesde = time.Time{} }},
		{"tipo de cálculo desconocido", func(in *dto.CambiarTarifaRequest) { in.TipoCalculo = "LINEAL" }},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			in := solicitudCambioIVA15()
			tc.mutar(&in)
			_, err := uc.CambiarTarifa(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
		})
	}
}

func TestCambiarTarifaAnteriorInexistente(t *testing.T) {
	uc, _ := montarTarifaAdmin()

	in := solicitudCambioIVA15()
	in.TarifaAnteriorID = "no-existe"

	_, err := uc.CambiarTarifa(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
