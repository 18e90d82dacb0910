package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facturaec/sri-core/internal/application/catalogo"
	"github.com/facturaec/sri-core/internal/application/dto"
)

// TarifaHandler administración del catálogo de tarifas (protegido).
type TarifaHandler struct {
	uc *catalogo.TarifaAdminUseCase
}

// NewTarifaHandler construye el handler.
func NewTarifaHandler(uc *catalogo.TarifaAdminUseCase) *TarifaHandler {
	return &TarifaHandler{uc: uc}
}

// Cambiar reemplaza una tarifa: cierra la vigencia de la anterior e inserta
// la nueva con su registro de auditoría.
// POST /api/tarifas/cambiar
func (h *TarifaHandler) Cambiar(c *fiber.Ctx) error {
	var in dto.CambiarTarifaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in.Actor = actorODefecto(c, in.Actor)
	resp, err := h.uc.CambiarTarifa(c.Context(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Vigentes lista las tarifas vigentes para un par de códigos en una fecha
// (query param fecha=YYYY-MM-DD, hoy por defecto).
// GET /api/tarifas/:codigoImpuesto/:codigoTarifa
func (h *TarifaHandler) Vigentes(c *fiber.Ctx) error {
	fecha := time.Now()
	if f := c.Query("fecha"); f != "" {
		parsed, err := time.Parse("2006-01-02", f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha inválida, formato YYYY-MM-DD"})
		}
		fecha = parsed
	}
	resp, err := h.uc.Vigentes(c.Context(), c.Params("codigoImpuesto"), c.Params("codigoTarifa"), fecha)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

func actorODefecto(c *fiber.Ctx, actor string) string {
	if actor != "" {
		return actor
	}
	return GetUserID(c)
}
