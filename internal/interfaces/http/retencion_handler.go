package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facturaec/sri-core/internal/application/catalogo"
	"github.com/facturaec/sri-core/internal/application/dto"
)

// RetencionHandler cálculo de retenciones contra el catálogo (protegido).
type RetencionHandler struct {
	uc *catalogo.RetencionUseCase
}

// NewRetencionHandler construye el handler.
func NewRetencionHandler(uc *catalogo.RetencionUseCase) *RetencionHandler {
	return &RetencionHandler{uc: uc}
}

// Calcular resuelve el código de retención vigente, valida elegibilidad y
// devuelve el valor retenido.
// POST /api/retenciones/calcular
func (h *RetencionHandler) Calcular(c *fiber.Ctx) error {
	var in dto.CalcularRetencionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Fecha.IsZero() {
		in.Fecha = time.Now()
	}
	resp, err := h.uc.Calcular(c.Context(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}
