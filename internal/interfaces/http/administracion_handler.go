package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturaec/sri-core/internal/application/administracion"
	"github.com/facturaec/sri-core/internal/application/dto"
)

// EmisorHandler alta y consulta de emisores (protegido).
type EmisorHandler struct {
	uc *administracion.EmisorUseCase
}

// NewEmisorHandler construye el handler.
func NewEmisorHandler(uc *administracion.EmisorUseCase) *EmisorHandler {
	return &EmisorHandler{uc: uc}
}

// Create registra un emisor.
// POST /api/emisores
func (h *EmisorHandler) Create(c *fiber.Ctx) error {
	var in dto.EmisorRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.Crear(c.Context(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetByID obtiene un emisor.
// GET /api/emisores/:id
func (h *EmisorHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	resp, err := h.uc.GetByID(c.Context(), id)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// GetByRUC obtiene un emisor por su RUC.
// GET /api/emisores/ruc/:ruc
func (h *EmisorHandler) GetByRUC(c *fiber.Ctx) error {
	resp, err := h.uc.GetByRUC(c.Context(), c.Params("ruc"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// SecuencialHandler consulta y ajuste manual de secuenciales (protegido).
type SecuencialHandler struct {
	uc *administracion.SecuencialUseCase
}

// NewSecuencialHandler construye el handler.
func NewSecuencialHandler(uc *administracion.SecuencialUseCase) *SecuencialHandler {
	return &SecuencialHandler{uc: uc}
}

// Actual devuelve el estado del contador.
// GET /api/secuenciales/:emisorID/:establecimiento/:puntoEmision/:tipo
func (h *SecuencialHandler) Actual(c *fiber.Ctx) error {
	resp, err := h.uc.Actual(c.Context(),
		c.Params("emisorID"), c.Params("establecimiento"), c.Params("puntoEmision"), c.Params("tipo"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Ajustar sube el contador con justificación y actor obligatorios.
// POST /api/secuenciales/ajustar
func (h *SecuencialHandler) Ajustar(c *fiber.Ctx) error {
	var in dto.AjustarSecuencialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in.Actor = actorODefecto(c, in.Actor)
	if err := h.uc.Ajustar(c.Context(), in); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
