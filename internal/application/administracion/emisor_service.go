// Package administracion casos de uso de soporte: alta de emisores y
// administración manual de los contadores de secuenciales.
package administracion

import (
	"context"
	"fmt"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/logger"
	"github.com/facturaec/sri-core/pkg/sri"
)

// EmisorUseCase alta y consulta de emisores.
type EmisorUseCase struct {
	emisores repository.EmisorRepository
	log      *logger.Logger
}

// NewEmisorUseCase construye el caso de uso.
func NewEmisorUseCase(emisores repository.EmisorRepository, log *logger.Logger) *EmisorUseCase {
	return &EmisorUseCase{emisores: emisores, log: log}
}

// Crear registra un emisor tras validar su RUC con el dígito verificador.
func (uc *EmisorUseCase) Crear(ctx context.Context, in dto.EmisorRequest) (*dto.EmisorResponse, error) {
	if err := sri.ValidarRUC(in.RUC); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntradaInvalida, err)
	}
	if in.RazonSocial == "" || in.DireccionMatriz == "" {
		return nil, fmt.Errorf("%w: razón social y dirección matriz son requeridas", domain.ErrEntradaInvalida)
	}
	if in.Ambiente != sri.AmbientePruebas && in.Ambiente != sri.AmbienteProduccion {
		return nil, fmt.Errorf("%w: ambiente %q", domain.ErrEntradaInvalida, in.Ambiente)
	}

	e := &entity.Emisor{
		RUC:                   in.RUC,
		RazonSocial:           in.RazonSocial,
		NombreComercial:       in.NombreComercial,
		DireccionMatriz:       in.DireccionMatriz,
		ContribuyenteEspecial: in.ContribuyenteEspecial,
		ObligadoContabilidad:  in.ObligadoContabilidad,
		Regimen:               in.Regimen,
		Ambiente:              in.Ambiente,
	}
	if err := uc.emisores.Crear(ctx, e); err != nil {
		return nil, err
	}

	uc.log.Info().Str("ruc", e.RUC).Str("razon_social", e.RazonSocial).Msg("emisor registrado")
	return dto.NewEmisorResponse(e), nil
}

// GetByID devuelve el emisor.
func (uc *EmisorUseCase) GetByID(ctx context.Context, id string) (*dto.EmisorResponse, error) {
	e, err := uc.emisores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewEmisorResponse(e), nil
}

// GetByRUC devuelve el emisor identificado por su RUC.
func (uc *EmisorUseCase) GetByRUC(ctx context.Context, ruc string) (*dto.EmisorResponse, error) {
	e, err := uc.emisores.GetByRUC(ctx, ruc)
	if err != nil {
		return nil, err
	}
	return dto.NewEmisorResponse(e), nil
}
