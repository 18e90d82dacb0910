// El reconciliador retoma periódicamente los comprobantes varados en estados
// intermedios y los empuja por el ciclo de emisión. Corre como proceso
// separado del API; un candado en Redis garantiza un solo barrido a la vez
// aunque haya varias réplicas.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facturaec/sri-core/internal/application/facturacion"
	"github.com/facturaec/sri-core/internal/application/reconciliacion"
	"github.com/facturaec/sri-core/internal/infrastructure/cola"
	"github.com/facturaec/sri-core/internal/infrastructure/postgres"
	"github.com/facturaec/sri-core/internal/infrastructure/redis"
	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"
	"github.com/facturaec/sri-core/internal/infrastructure/sri/firmador"
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
		Dur("intervalo", cfg.Reconciliacion.Intervalo).
		Int("lote", cfg.Reconciliacion.TamanoLote).
		Int("trabajadores", cfg.Reconciliacion.Trabajadores).
		Msg("iniciando reconciliador")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	comprobanteRepo := postgres.NewComprobanteRepository(pool)

	artefactos, err := cola.NewColaPendientes(cfg.Reconciliacion.DirPendientes, cfg.Reconciliacion.DirAutorizados)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializando cola de pendientes")
	}

	var firma facturacion.Firmador
	var clienteSRI facturacion.ClienteSRI
	var sonda reconciliacion.SondaSRI
	if cfg.SRI.Simulado {
		log.Warn().Msg("modo simulado: el WS del SRI no será invocado")
		firma = firmador.FirmaNula{}
		simulado := infrasri.NewClienteSimulado()
		clienteSRI, sonda = simulado, simulado
	} else {
		cert, errCert := firmador.CargarP12(cfg.SRI.CertPath, cfg.SRI.CertPassword)
		if errCert != nil {
			log.Fatal().Err(errCert).Msg("cargando certificado de firma")
		}
		firma = firmador.NewServicioFirma(cert)
		soap := infrasri.NewClienteSOAP(cfg.SRI)
		clienteSRI, sonda = soap, soap
	}

	orquestador := facturacion.NewOrquestadorSRI(
		comprobanteRepo,
		infrasri.NewConstructorXML(),
		firma,
		clienteSRI,
		artefactos,
		cfg.SRI.BackoffBase,
		log,
	)

	// TTL del candado: el doble del intervalo, para que un barrido largo no
	// pierda el candado a mitad de camino.
	candado, err := redis.NewLease(cfg.Redis.URL, "sri-core:reconciliacion", cfg.Reconciliacion.Intervalo*2)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer candado.Close()

	job := reconciliacion.NewJob(comprobanteRepo, orquestador, candado, sonda, cfg.Reconciliacion, log)

	ticker := time.NewTicker(cfg.Reconciliacion.Intervalo)
	defer ticker.Stop()

	// Primer barrido inmediato; los siguientes al ritmo del ticker.
	if err := job.Ejecutar(ctx); err != nil {
		log.Error().Err(err).Msg("barrido de reconciliación")
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("señal de apagado recibida, deteniendo reconciliador")
			os.Exit(0)
		case <-ticker.C:
			if err := job.Ejecutar(ctx); err != nil {
				log.Error().Err(err).Msg("barrido de reconciliación")
			}
		}
	}
}
