package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/application/facturacion"
)

// ComprobanteHandler maneja las peticiones HTTP del ciclo de vida de
// comprobantes (protegido).
type ComprobanteHandler struct {
	crear       *facturacion.CrearComprobanteUseCase
	consulta    *facturacion.ConsultaComprobanteUseCase
	anular      *facturacion.AnularComprobanteUseCase
	orquestador *facturacion.OrquestadorSRI
}

// NewComprobanteHandler construye el handler.
func NewComprobanteHandler(
	crear *facturacion.CrearComprobanteUseCase,
	consulta *facturacion.ConsultaComprobanteUseCase,
	anular *facturacion.AnularComprobanteUseCase,
	orquestador *facturacion.OrquestadorSRI,
) *ComprobanteHandler {
	return &ComprobanteHandler{crear: crear, consulta: consulta, anular: anular, orquestador: orquestador}
}

// Create emite un comprobante: asigna secuencial y clave de acceso y lo
// persiste en estado CREADO.
// POST /api/comprobantes
func (h *ComprobanteHandler) Create(c *fiber.Ctx) error {
	var in dto.CrearComprobanteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.crear.Crear(c.Context(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetByID obtiene el comprobante con sus detalles.
// GET /api/comprobantes/:id
func (h *ComprobanteHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	resp, err := h.consulta.GetByID(c.Context(), id)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// GetByClaveAcceso obtiene el comprobante por su clave de acceso.
// GET /api/comprobantes/clave/:claveAcceso
func (h *ComprobanteHandler) GetByClaveAcceso(c *fiber.Ctx) error {
	clave := c.Params("claveAcceso")
	if len(clave) != 49 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "clave de acceso de 49 dígitos requerida"})
	}
	resp, err := h.consulta.GetByClaveAcceso(c.Context(), clave)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Historial devuelve las transiciones del comprobante en orden cronológico.
// GET /api/comprobantes/:id/historial
func (h *ComprobanteHandler) Historial(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	resp, err := h.consulta.Historial(c.Context(), id)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Procesar avanza el comprobante un paso del ciclo de emisión (firma, envío
// o consulta de autorización según su estado).
// POST /api/comprobantes/:id/procesar
func (h *ComprobanteHandler) Procesar(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	if err := h.orquestador.Procesar(c.Context(), id); err != nil {
		return responderError(c, err)
	}
	resp, err := h.consulta.GetByID(c.Context(), id)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Reprocesar reanuda un comprobante varado reseteando su contador de reintentos.
// POST /api/comprobantes/:id/reprocesar
func (h *ComprobanteHandler) Reprocesar(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	if err := h.orquestador.Reprocesar(c.Context(), id, GetUserID(c)); err != nil {
		return responderError(c, err)
	}
	resp, err := h.consulta.GetByID(c.Context(), id)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// Anular anula el comprobante con motivo y usuario auditables.
// POST /api/comprobantes/:id/anular
func (h *ComprobanteHandler) Anular(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.AnularComprobanteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Usuario == "" {
		in.Usuario = GetUserID(c)
	}
	resp, err := h.anular.Anular(c.Context(), id, in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resp)
}

// RIDE genera la representación impresa del comprobante en PDF.
// GET /api/comprobantes/:id/ride
func (h *ComprobanteHandler) RIDE(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	pdf, err := h.consulta.GenerarRIDE(c.Context(), id)
	if err != nil {
		return responderError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="ride-`+id+`.pdf"`)
	return c.Send(pdf)
}
