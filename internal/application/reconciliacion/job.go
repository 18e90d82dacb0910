// Package reconciliacion job periódico que retoma comprobantes varados en
// estados intermedios (firmados sin enviar, enviados sin resolver) y los
// empuja por el ciclo de emisión con un pool acotado de trabajadores.
package reconciliacion

import (
	"context"
	"sync"
	"time"

	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/config"
	"github.com/facturaec/sri-core/pkg/logger"
)

// Procesador avanza un comprobante un paso del ciclo de emisión.
type Procesador interface {
	ProcesarComprobante(ctx context.Context, c *entity.Comprobante) error
}

// Candado exclusión mutua entre instancias del job: una sola réplica ejecuta
// el barrido a la vez.
type Candado interface {
	Adquirir(ctx context.Context) (bool, error)
	Liberar(ctx context.Context) error
}

// SondaSRI comprueba si el WS del SRI responde antes de gastar el lote.
type SondaSRI interface {
	Disponible(ctx context.Context) bool
}

// Job barrido de reconciliación. Ejecutar corre un barrido completo; el
// binario del reconciliador lo invoca en cada tick.
type Job struct {
	comprobantes repository.ComprobanteRepository
	procesador   Procesador
	candado      Candado
	sonda        SondaSRI
	cfg          config.ReconciliacionConfig
	log          *logger.Logger
}

// NewJob construye el job.
func NewJob(
	comprobantes repository.ComprobanteRepository,
	procesador Procesador,
	candado Candado,
	sonda SondaSRI,
	cfg config.ReconciliacionConfig,
	log *logger.Logger,
) *Job {
	if cfg.TamanoLote <= 0 {
		cfg.TamanoLote = 50
	}
	if cfg.Trabajadores <= 0 {
		cfg.Trabajadores = 4
	}
	return &Job{
		comprobantes: comprobantes,
		procesador:   procesador,
		candado:      candado,
		sonda:        sonda,
		cfg:          cfg,
		log:          log,
	}
}

// Ejecutar corre un barrido: toma el candado distribuido, verifica que el WS
// del SRI responda, carga el lote de pendientes vencidos y lo procesa con el
// pool de trabajadores. El fallo de un comprobante no detiene el lote.
func (j *Job) Ejecutar(ctx context.Context) error {
	adquirido, err := j.candado.Adquirir(ctx)
	if err != nil {
		return err
	}
	if !adquirido {
		j.log.Debug().Msg("otra instancia tiene el candado, barrido omitido")
		return nil
	}
	defer func() {
		if err := j.candado.Liberar(context.WithoutCancel(ctx)); err != nil {
			j.log.Warn().Err(err).Msg("no se pudo liberar el candado")
		}
	}()

	if !j.sonda.Disponible(ctx) {
		j.log.Warn().Msg("WS del SRI no disponible, barrido omitido")
		return nil
	}

	pendientes, err := j.comprobantes.ListarPendientes(ctx, time.Now(), j.cfg.TamanoLote)
	if err != nil {
		return err
	}
	if len(pendientes) == 0 {
		j.log.Debug().Msg("sin comprobantes pendientes")
		return nil
	}

	inicio := time.Now()
	procesados, fallidos := j.procesarLote(ctx, pendientes)

	j.log.Info().
		Int("pendientes", len(pendientes)).
		Int("procesados", procesados).
		Int("fallidos", fallidos).
		Dur("duracion", time.Since(inicio)).
		Msg("barrido de reconciliación completado")
	return nil
}

// procesarLote reparte el lote entre cfg.Trabajadores goroutines. Cada fallo
// se registra y se aísla; el resto del lote continúa.
func (j *Job) procesarLote(ctx context.Context, lote []*entity.Comprobante) (procesados, fallidos int) {
	trabajos := make(chan *entity.Comprobante, len(lote))
	resultados := make(chan error, len(lote))

	var wg sync.WaitGroup
	for i := 0; i < j.cfg.Trabajadores; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range trabajos {
				if ctx.Err() != nil {
					resultados <- ctx.Err()
					continue
				}
				err := j.procesador.ProcesarComprobante(ctx, c)
				if err != nil {
					j.log.Error().
						Err(err).
						Str("clave_acceso", c.ClaveAcceso).
						Str("estado", string(c.Estado)).
						Msg("fallo procesando comprobante pendiente")
				}
				resultados <- err
			}
		}()
	}

	for _, c := range lote {
		trabajos <- c
	}
	close(trabajos)
	wg.Wait()
	close(resultados)

	for err := range resultados {
		if err != nil {
			fallidos++
		} else {
			procesados++
		}
	}
	return procesados, fallidos
}
