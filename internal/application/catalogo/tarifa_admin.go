// Package catalogo casos de uso administrativos sobre los catálogos
// versionados en el tiempo: tarifas de impuestos y códigos de retención.
package catalogo

import (
	"context"
	"fmt"
	"time"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/logger"
)

// TarifaAdminUseCase administración del catálogo de tarifas. Los cambios
// nunca mutan filas vigentes: cierran la vigencia de la anterior e insertan
// la nueva, con su registro de auditoría en la misma transacción.
type TarifaAdminUseCase struct {
	tarifas repository.TarifaRepository
	log     *logger.Logger
}

// NewTarifaAdminUseCase construye el caso de uso.
func NewTarifaAdminUseCase(tarifas repository.TarifaRepository, log *logger.Logger) *TarifaAdminUseCase {
	return &TarifaAdminUseCase{tarifas: tarifas, log: log}
}

// CambiarTarifa reemplaza una tarifa por una nueva a partir de VigenciaDesde.
// Los comprobantes con fecha de emisión anterior siguen resolviendo contra la
// fila cerrada.
func (uc *TarifaAdminUseCase) CambiarTarifa(ctx context.Context, in dto.CambiarTarifaRequest) (*dto.TarifaResponse, error) {
	if in.TarifaAnteriorID == "" {
		return nil, fmt.Errorf("%w: tarifa_anterior_id es requerido", domain.ErrEntradaInvalida)
	}
	if in.Motivo == "" || in.Actor == "" {
		return nil, fmt.Errorf("%w: motivo y actor son requeridos", domain.ErrEntradaInvalida)
	}
	if in.VigenciaDesde.IsZero() {
		return nil, fmt.Errorf("%w: vigencia_desde es requerida", domain.ErrEntradaInvalida)
	}

	tipo := entity.TipoCalculo(in.TipoCalculo)
	switch tipo {
	case entity.CalculoPorcentaje, entity.CalculoEspecifico, entity.CalculoMixto:
	default:
		return nil, fmt.Errorf("%w: tipo de cálculo %q", domain.ErrEntradaInvalida, in.TipoCalculo)
	}

	anterior, err := uc.tarifas.GetByID(ctx, in.TarifaAnteriorID)
	if err != nil {
		return nil, fmt.Errorf("tarifa anterior %s: %w", in.TarifaAnteriorID, err)
	}
	if !in.VigenciaDesde.After(anterior.VigenciaDesde) {
		return nil, fmt.Errorf("%w: la nueva vigencia debe ser posterior a %s",
			domain.ErrEntradaInvalida, anterior.VigenciaDesde.Format("2006-01-02"))
	}

	nueva := &entity.Tarifa{
		CodigoImpuesto:  anterior.CodigoImpuesto,
		CodigoTarifa:    anterior.CodigoTarifa,
		Descripcion:     in.Descripcion,
		TipoCalculo:     tipo,
		Porcentaje:      in.Porcentaje,
		ValorEspecifico: in.ValorEspecifico,
		VigenciaDesde:   in.VigenciaDesde,
		Activa:          true,
	}
	if nueva.Descripcion == "" {
		nueva.Descripcion = anterior.Descripcion
	}

	historial := &entity.HistorialTarifa{
		TarifaAnteriorID:   anterior.ID,
		PorcentajeAnterior: anterior.Porcentaje,
		PorcentajeNuevo:    nueva.Porcentaje,
		Motivo:             in.Motivo,
		Actor:              in.Actor,
		Fecha:              time.Now(),
	}

	if err := uc.tarifas.ReemplazarTarifa(ctx, anterior.ID, nueva, historial); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("codigo_impuesto", nueva.CodigoImpuesto).
		Str("codigo_tarifa", nueva.CodigoTarifa).
		Str("porcentaje_anterior", anterior.Porcentaje.String()).
		Str("porcentaje_nuevo", nueva.Porcentaje.String()).
		Str("actor", in.Actor).
		Msg("tarifa reemplazada")

	return dto.NewTarifaResponse(nueva), nil
}

// Vigentes devuelve las tarifas del par de códigos vigentes en la fecha.
func (uc *TarifaAdminUseCase) Vigentes(ctx context.Context, codigoImpuesto, codigoTarifa string, fecha time.Time) ([]dto.TarifaResponse, error) {
	tarifas, err := uc.tarifas.BuscarVigentes(ctx, codigoImpuesto, codigoTarifa, fecha)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TarifaResponse, 0, len(tarifas))
	for _, t := range tarifas {
		out = append(out, *dto.NewTarifaResponse(t))
	}
	return out, nil
}
