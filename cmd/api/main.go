package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/facturaec/sri-core/internal/application/administracion"
	"github.com/facturaec/sri-core/internal/application/catalogo"
	"github.com/facturaec/sri-core/internal/application/facturacion"
	"github.com/facturaec/sri-core/internal/domain/calculo"
	"github.com/facturaec/sri-core/internal/infrastructure/cola"
	infrapdf "github.com/facturaec/sri-core/internal/infrastructure/pdf"
	"github.com/facturaec/sri-core/internal/infrastructure/postgres"
	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"
	"github.com/facturaec/sri-core/internal/infrastructure/sri/firmador"
	httpRouter "github.com/facturaec/sri-core/internal/interfaces/http"
	"github.com/facturaec/sri-core/pkg/config"
	"github.com/facturaec/sri-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ambiente_sri", cfg.SRI.Ambiente).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	comprobanteRepo := postgres.NewComprobanteRepository(pool)
	tarifaRepo := postgres.NewTarifaRepository(pool)
	retencionRepo := postgres.NewRetencionRepository(pool)
	secuencialRepo := postgres.NewSecuencialRepository(pool)
	emisorRepo := postgres.NewEmisorRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	calculadora := calculo.NewCalculadora(calculo.NewCatalogoTarifas(tarifaRepo))

	// Cola durable de XML firmados pendientes de envío.
	artefactos, err := cola.NewColaPendientes(cfg.Reconciliacion.DirPendientes, cfg.Reconciliacion.DirAutorizados)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializando cola de pendientes")
	}

	// Firma y cliente SRI: reales con certificado, simulados en local.
	var firma facturacion.Firmador
	var clienteSRI facturacion.ClienteSRI
	if cfg.SRI.Simulado {
		log.Warn().Msg("modo simulado: el WS del SRI no será invocado")
		firma = firmador.FirmaNula{}
		clienteSRI = infrasri.NewClienteSimulado()
	} else {
		cert, errCert := firmador.CargarP12(cfg.SRI.CertPath, cfg.SRI.CertPassword)
		if errCert != nil {
			log.Fatal().Err(errCert).Msg("cargando certificado de firma")
		}
		firma = firmador.NewServicioFirma(cert)
		clienteSRI = infrasri.NewClienteSOAP(cfg.SRI)
	}

	// OrquestadorSRI: ciclo XML → XAdES-BES → Recepción → Autorización → DB
	orquestador := facturacion.NewOrquestadorSRI(
		comprobanteRepo,
		infrasri.NewConstructorXML(),
		firma,
		clienteSRI,
		artefactos,
		cfg.SRI.BackoffBase,
		log,
	)

	crearUC := facturacion.NewCrearComprobanteUseCase(txRunner, emisorRepo, calculadora, log)
	consultaUC := facturacion.NewConsultaComprobanteUseCase(comprobanteRepo, infrapdf.NewGeneradorRIDE())
	anularUC := facturacion.NewAnularComprobanteUseCase(comprobanteRepo, artefactos, log)
	tarifaUC := catalogo.NewTarifaAdminUseCase(tarifaRepo, log)
	retencionUC := catalogo.NewRetencionUseCase(retencionRepo)
	emisorUC := administracion.NewEmisorUseCase(emisorRepo, log)
	secuencialUC := administracion.NewSecuencialUseCase(secuencialRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		CrearComprobante:    crearUC,
		ConsultaComprobante: consultaUC,
		AnularComprobante:   anularUC,
		Orquestador:         orquestador,
		TarifaAdmin:         tarifaUC,
		Retencion:           retencionUC,
		Emisor:              emisorUC,
		Secuencial:          secuencialUC,
		JWTSecret:           cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
