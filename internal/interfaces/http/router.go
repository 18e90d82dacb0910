package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturaec/sri-core/internal/application/administracion"
	"github.com/facturaec/sri-core/internal/application/catalogo"
	"github.com/facturaec/sri-core/internal/application/facturacion"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CrearComprobante    *facturacion.CrearComprobanteUseCase
	ConsultaComprobante *facturacion.ConsultaComprobanteUseCase
	AnularComprobante   *facturacion.AnularComprobanteUseCase
	Orquestador         *facturacion.OrquestadorSRI
	TarifaAdmin         *catalogo.TarifaAdminUseCase
	Retencion           *catalogo.RetencionUseCase
	Emisor              *administracion.EmisorUseCase
	Secuencial          *administracion.SecuencialUseCase
	JWTSecret           string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Comprobantes: ciclo de vida completo
	comprobantes := protected.Group("/comprobantes")
	comprobanteHandler := NewComprobanteHandler(deps.CrearComprobante, deps.ConsultaComprobante, deps.AnularComprobante, deps.Orquestador)
	comprobantes.Post("/", comprobanteHandler.Create)
	comprobantes.Get("/clave/:claveAcceso", comprobanteHandler.GetByClaveAcceso)
	comprobantes.Get("/:id", comprobanteHandler.GetByID)
	comprobantes.Get("/:id/historial", comprobanteHandler.Historial)
	comprobantes.Get("/:id/ride", comprobanteHandler.RIDE)
	comprobantes.Post("/:id/procesar", comprobanteHandler.Procesar)
	comprobantes.Post("/:id/reprocesar", comprobanteHandler.Reprocesar)
	comprobantes.Post("/:id/anular", comprobanteHandler.Anular)

	// Catálogo de tarifas (cambios solo para administradores)
	tarifas := protected.Group("/tarifas")
	tarifaHandler := NewTarifaHandler(deps.TarifaAdmin)
	tarifas.Post("/cambiar", RequireRole("admin"), tarifaHandler.Cambiar)
	tarifas.Get("/:codigoImpuesto/:codigoTarifa", tarifaHandler.Vigentes)

	// Retenciones
	retenciones := protected.Group("/retenciones")
	retencionHandler := NewRetencionHandler(deps.Retencion)
	retenciones.Post("/calcular", retencionHandler.Calcular)

	// Emisores
	emisores := protected.Group("/emisores")
	emisorHandler := NewEmisorHandler(deps.Emisor)
	emisores.Post("/", emisorHandler.Create)
	emisores.Get("/ruc/:ruc", emisorHandler.GetByRUC)
	emisores.Get("/:id", emisorHandler.GetByID)

	// Secuenciales
	secuenciales := protected.Group("/secuenciales")
	secuencialHandler := NewSecuencialHandler(deps.Secuencial)
	secuenciales.Post("/ajustar", RequireRole("admin"), secuencialHandler.Ajustar)
	secuenciales.Get("/:emisorID/:establecimiento/:puntoEmision/:tipo", secuencialHandler.Actual)
}
