package facturacion

import (
	"context"
	"time"

	"github.com/facturaec/sri-core/internal/application/dto"
	domcomprobante "github.com/facturaec/sri-core/internal/domain/comprobante"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/logger"
)

// AnularComprobanteUseCase anulación explícita de un comprobante. Solo se
// admite desde CREADO (aún no enviado) o AUTORIZADO (anulación posterior,
// que además exige el trámite en línea ante el SRI, fuera de este motor).
type AnularComprobanteUseCase struct {
	comprobantes repository.ComprobanteRepository
	artefactos   AlmacenArtefactos
	log          *logger.Logger
}

// NewAnularComprobanteUseCase construye el caso de uso.
func NewAnularComprobanteUseCase(
	comprobantes repository.ComprobanteRepository,
	artefactos AlmacenArtefactos,
	log *logger.Logger,
) *AnularComprobanteUseCase {
	return &AnularComprobanteUseCase{
		comprobantes: comprobantes,
		artefactos:   artefactos,
		log:          log,
	}
}

// Anular valida el motivo y el usuario, transiciona a ANULADO y retira el
// artefacto de la cola de pendientes si seguía ahí.
func (uc *AnularComprobanteUseCase) Anular(ctx context.Context, id string, in dto.AnularComprobanteRequest) (*dto.ComprobanteResponse, error) {
	c, err := uc.comprobantes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := domcomprobante.ValidarAnulacion(c.Estado, in.Motivo, in.Usuario); err != nil {
		return nil, err
	}

	anterior := c.Estado
	c.Estado = entity.EstadoAnulado
	c.MotivoAnulacion = in.Motivo
	c.AnuladoPor = in.Usuario
	c.RequiereReenvio = false
	c.ProximoReintento = nil

	if err := uc.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
		ComprobanteID:  c.ID,
		EstadoAnterior: anterior,
		EstadoNuevo:    entity.EstadoAnulado,
		Fecha:          time.Now(),
		Actor:          in.Usuario,
	}); err != nil {
		return nil, err
	}

	if err := uc.artefactos.Descartar(c.ClaveAcceso); err != nil {
		uc.log.Warn().Err(err).Str("clave_acceso", c.ClaveAcceso).Msg("no se pudo descartar el artefacto del anulado")
	}

	uc.log.Info().
		Str("clave_acceso", c.ClaveAcceso).
		Str("usuario", in.Usuario).
		Msg("comprobante anulado")

	return dto.NewComprobanteResponse(c), nil
}
