package administracion

import (
	"context"
	"fmt"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/logger"
)

// SecuencialUseCase consulta y ajuste manual de los contadores de
// secuenciales. La asignación normal ocurre dentro de la emisión; aquí solo
// entra la operación administrativa (migraciones, contingencias en papel).
type SecuencialUseCase struct {
	secuenciales repository.SecuencialRepository
	log          *logger.Logger
}

// NewSecuencialUseCase construye el caso de uso.
func NewSecuencialUseCase(secuenciales repository.SecuencialRepository, log *logger.Logger) *SecuencialUseCase {
	return &SecuencialUseCase{secuenciales: secuenciales, log: log}
}

// Actual devuelve el estado del contador para la clave dada.
func (uc *SecuencialUseCase) Actual(ctx context.Context, emisorID, establecimiento, puntoEmision, tipoComprobante string) (*dto.SecuencialResponse, error) {
	s, err := uc.secuenciales.Actual(ctx, emisorID, establecimiento, puntoEmision, tipoComprobante)
	if err != nil {
		return nil, err
	}
	return dto.NewSecuencialResponse(s), nil
}

// Ajustar sube el contador a un valor mayor, con justificación y actor
// obligatorios. La bajada del contador la rechaza el repositorio.
func (uc *SecuencialUseCase) Ajustar(ctx context.Context, in dto.AjustarSecuencialRequest) error {
	if in.Justificacion == "" || in.Actor == "" {
		return fmt.Errorf("%w: justificación y actor son requeridos", domain.ErrEntradaInvalida)
	}
	if in.NuevoValor <= 0 {
		return fmt.Errorf("%w: el nuevo valor debe ser positivo", domain.ErrSecuencialInvalido)
	}

	if err := uc.secuenciales.Ajustar(ctx, in.EmisorID, in.Establecimiento, in.PuntoEmision,
		in.TipoComprobante, in.NuevoValor, in.Justificacion, in.Actor); err != nil {
		return err
	}

	uc.log.Info().
		Str("emisor_id", in.EmisorID).
		Str("serie", in.Establecimiento+"-"+in.PuntoEmision).
		Str("tipo", in.TipoComprobante).
		Int64("nuevo_valor", in.NuevoValor).
		Str("actor", in.Actor).
		Msg("secuencial ajustado")
	return nil
}

// Ajustes devuelve el historial de ajustes manuales del contador.
func (uc *SecuencialUseCase) Ajustes(ctx context.Context, secuencialID string) ([]*entity.AjusteSecuencial, error) {
	return uc.secuenciales.Ajustes(ctx, secuencialID)
}
