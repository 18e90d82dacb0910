package facturacion

import (
	"context"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain/repository"
)

// ConsultaComprobanteUseCase consultas de solo lectura sobre el agregado.
type ConsultaComprobanteUseCase struct {
	comprobantes repository.ComprobanteRepository
	ride         GeneradorRIDE
}

// NewConsultaComprobanteUseCase construye el caso de uso.
func NewConsultaComprobanteUseCase(comprobantes repository.ComprobanteRepository, ride GeneradorRIDE) *ConsultaComprobanteUseCase {
	return &ConsultaComprobanteUseCase{comprobantes: comprobantes, ride: ride}
}

// GetByID devuelve el comprobante con sus detalles.
func (uc *ConsultaComprobanteUseCase) GetByID(ctx context.Context, id string) (*dto.ComprobanteResponse, error) {
	c, err := uc.comprobantes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewComprobanteResponse(c), nil
}

// GetByClaveAcceso devuelve el comprobante identificado por su clave de acceso.
func (uc *ConsultaComprobanteUseCase) GetByClaveAcceso(ctx context.Context, claveAcceso string) (*dto.ComprobanteResponse, error) {
	c, err := uc.comprobantes.GetByClaveAcceso(ctx, claveAcceso)
	if err != nil {
		return nil, err
	}
	return dto.NewComprobanteResponse(c), nil
}

// Historial devuelve las transiciones del comprobante en orden cronológico.
func (uc *ConsultaComprobanteUseCase) Historial(ctx context.Context, id string) ([]dto.HistorialResponse, error) {
	entradas, err := uc.comprobantes.Historial(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistorialResponse, 0, len(entradas))
	for _, h := range entradas {
		out = append(out, *dto.NewHistorialResponse(h))
	}
	return out, nil
}

// GenerarRIDE genera la representación impresa del comprobante en PDF.
func (uc *ConsultaComprobanteUseCase) GenerarRIDE(ctx context.Context, id string) ([]byte, error) {
	c, err := uc.comprobantes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.ride.GenerarRIDE(ctx, c)
}
