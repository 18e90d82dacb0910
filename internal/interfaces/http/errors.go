package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
)

// responderError traduce los errores del dominio a respuestas HTTP. Los
// sentinelas se mapean por errors.Is; los tipos estructurados (descuadre,
// catálogo) por errors.As para exponer el detalle.
func responderError(c *fiber.Ctx, err error) error {
	var descuadre *domain.DescuadreError
	if errors.As(err, &descuadre) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "DESCUADRE", Message: descuadre.Error(),
		})
	}
	var catalogo *domain.ErrorCatalogo
	if errors.As(err, &catalogo) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "CATALOGO", Message: catalogo.Error(),
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicado):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICADO", Message: err.Error()})
	case errors.Is(err, domain.ErrEntradaInvalida),
		errors.Is(err, domain.ErrVersionNoSoportada),
		errors.Is(err, domain.ErrDescuentoInvalido),
		errors.Is(err, domain.ErrSecuencialInvalido):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrTransicionInvalida):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TRANSICION_INVALIDA", Message: err.Error()})
	case errors.Is(err, domain.ErrReglaElegibilidad):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_ELEGIBLE", Message: err.Error()})
	case errors.Is(err, domain.ErrNoAutorizado):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrAccesoDenegado):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrFalloPermanente):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "FALLO_PERMANENTE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
