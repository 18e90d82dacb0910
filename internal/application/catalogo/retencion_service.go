package catalogo

import (
	"context"
	"fmt"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/calculo"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
)

// RetencionUseCase resolución y cálculo de retenciones contra el catálogo
// vigente en la fecha de la solicitud.
type RetencionUseCase struct {
	retenciones repository.RetencionRepository
}

// NewRetencionUseCase construye el caso de uso.
func NewRetencionUseCase(retenciones repository.RetencionRepository) *RetencionUseCase {
	return &RetencionUseCase{retenciones: retenciones}
}

// Calcular resuelve el código de retención aplicable al contribuyente en la
// fecha dada, valida elegibilidad y devuelve el valor retenido. Ningún código
// vigente o una regla no cumplida rechazan la solicitud.
func (uc *RetencionUseCase) Calcular(ctx context.Context, in dto.CalcularRetencionRequest) (*dto.CalcularRetencionResponse, error) {
	if in.Codigo == "" || in.CodigoImpuesto == "" {
		return nil, fmt.Errorf("%w: codigo_impuesto y codigo son requeridos", domain.ErrEntradaInvalida)
	}
	if in.BaseImponible.IsNegative() {
		return nil, fmt.Errorf("%w: base imponible negativa", domain.ErrEntradaInvalida)
	}

	codigo, err := uc.resolver(ctx, in)
	if err != nil {
		return nil, err
	}

	solicitud := &calculo.SolicitudRetencion{
		TipoContribuyente: in.TipoContribuyente,
		Regimen:           in.Regimen,
		BaseImponible:     in.BaseImponible,
		Campos:            in.Campos,
	}
	if err := calculo.ValidarElegibilidad(codigo, solicitud); err != nil {
		return nil, err
	}

	return &dto.CalcularRetencionResponse{
		Codigo:        codigo.Codigo,
		Descripcion:   codigo.Descripcion,
		Porcentaje:    codigo.Porcentaje,
		BaseImponible: in.BaseImponible,
		ValorRetenido: calculo.CalcularRetencion(codigo, in.BaseImponible),
	}, nil
}

// resolver elige la fila del catálogo: la más específica cuando hay varias
// vigentes (tipo de contribuyente y régimen explícitos pesan más que el
// comodín vacío).
func (uc *RetencionUseCase) resolver(ctx context.Context, in dto.CalcularRetencionRequest) (*entity.CodigoRetencion, error) {
	vigentes, err := uc.retenciones.BuscarVigentes(ctx, in.CodigoImpuesto, in.Codigo, in.TipoContribuyente, in.Regimen, in.Fecha)
	if err != nil {
		return nil, err
	}
	if len(vigentes) == 0 {
		return nil, fmt.Errorf("%w: código de retención %s/%s sin vigencia en %s",
			domain.ErrNotFound, in.CodigoImpuesto, in.Codigo, in.Fecha.Format("2006-01-02"))
	}

	mejor := vigentes[0]
	mejorPuntaje := especificidad(mejor)
	for _, c := range vigentes[1:] {
		if p := especificidad(c); p > mejorPuntaje {
			mejor, mejorPuntaje = c, p
		}
	}
	return mejor, nil
}

func especificidad(c *entity.CodigoRetencion) int {
	puntaje := 0
	if c.TipoContribuyente != "" {
		puntaje += 2
	}
	if c.Regimen != "" {
		puntaje++
	}
	return puntaje
}
