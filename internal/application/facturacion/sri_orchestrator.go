package facturacion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facturaec/sri-core/internal/domain"
	domcomprobante "github.com/facturaec/sri-core/internal/domain/comprobante"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"
	"github.com/facturaec/sri-core/pkg/logger"
)

// OrquestadorSRI conduce un comprobante por el ciclo de emisión electrónica:
//
//	CREADO → XML → Firma XAdES-BES → FIRMADO → Recepción SOAP → ENVIADO →
//	Autorización SOAP → AUTORIZADO | RECHAZADO
//
// Cada invocación de Procesar avanza exactamente un paso y persiste el
// resultado con su entrada de historial. Los fallos de transporte del WS son
// transitorios: programan un reintento con backoff exponencial hasta
// entity.MaxReintentos; la respuesta DEVUELTA o NO AUTORIZADO es un resultado
// de negocio y lleva el comprobante a RECHAZADO sin reintento.
type OrquestadorSRI struct {
	comprobantes repository.ComprobanteRepository
	constructor  *infrasri.ConstructorXML
	firmador     Firmador
	cliente      ClienteSRI
	artefactos   AlmacenArtefactos
	backoffBase  time.Duration
	log          *logger.Logger
}

// NewOrquestadorSRI construye el orquestador con todas sus dependencias.
func NewOrquestadorSRI(
	comprobantes repository.ComprobanteRepository,
	constructor *infrasri.ConstructorXML,
	firmador Firmador,
	cliente ClienteSRI,
	artefactos AlmacenArtefactos,
	backoffBase time.Duration,
	log *logger.Logger,
) *OrquestadorSRI {
	if backoffBase <= 0 {
		backoffBase = 5 * time.Second
	}
	return &OrquestadorSRI{
		comprobantes: comprobantes,
		constructor:  constructor,
		firmador:     firmador,
		cliente:      cliente,
		artefactos:   artefactos,
		backoffBase:  backoffBase,
		log:          log,
	}
}

// Procesar carga el comprobante y avanza un paso del ciclo según su estado.
func (o *OrquestadorSRI) Procesar(ctx context.Context, id string) error {
	c, err := o.comprobantes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return o.ProcesarComprobante(ctx, c)
}

// ProcesarComprobante avanza un paso sobre un comprobante ya cargado. El job
// de reconciliación lo usa directamente sobre los lotes de ListarPendientes.
func (o *OrquestadorSRI) ProcesarComprobante(ctx context.Context, c *entity.Comprobante) error {
	switch c.Estado {
	case entity.EstadoCreado:
		return o.firmar(ctx, c)
	case entity.EstadoFirmado:
		return o.enviar(ctx, c)
	case entity.EstadoEnviado:
		return o.consultarAutorizacion(ctx, c)
	default:
		return fmt.Errorf("%w: el estado %s no admite procesamiento automático",
			domain.ErrTransicionInvalida, c.Estado)
	}
}

// Reprocesar reanuda manualmente un comprobante varado: pone a cero el
// contador de reintentos, lo marca para reenvío y avanza un paso. Rechaza
// estados terminales.
func (o *OrquestadorSRI) Reprocesar(ctx context.Context, id, actor string) error {
	c, err := o.comprobantes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.EsTerminal() || c.Estado == entity.EstadoRechazado {
		return fmt.Errorf("%w: el estado %s no admite reproceso", domain.ErrTransicionInvalida, c.Estado)
	}
	if actor == "" {
		actor = "sistema"
	}

	c.Reintentos = 0
	c.RequiereReenvio = true
	c.ProximoReintento = nil
	if err := o.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
		ComprobanteID:  c.ID,
		EstadoAnterior: c.Estado,
		EstadoNuevo:    c.Estado,
		Fecha:          time.Now(),
		Actor:          actor,
	}); err != nil {
		return err
	}
	return o.ProcesarComprobante(ctx, c)
}

// firmar construye el XML del comprobante, lo firma y encola el artefacto en
// la cola durable. CREADO → FIRMADO.
func (o *OrquestadorSRI) firmar(ctx context.Context, c *entity.Comprobante) error {
	if err := domcomprobante.ValidarTransicion(c.Estado, entity.EstadoFirmado); err != nil {
		return err
	}

	xmlBytes, err := o.constructor.Construir(c)
	if err != nil {
		return o.registrarReintento(ctx, c, uuid.NewString(), codigoErrorFirma,
			fmt.Errorf("construyendo XML de %s: %w", c.ClaveAcceso, err))
	}
	firmado, err := o.firmador.Firmar(xmlBytes)
	if err != nil {
		return o.registrarReintento(ctx, c, uuid.NewString(), codigoErrorFirma,
			fmt.Errorf("firmando %s: %w", c.ClaveAcceso, err))
	}

	anterior := c.Estado
	c.Estado = entity.EstadoFirmado
	c.XMLFirmado = string(firmado)
	if err := o.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
		ComprobanteID:  c.ID,
		EstadoAnterior: anterior,
		EstadoNuevo:    entity.EstadoFirmado,
		Fecha:          time.Now(),
		Actor:          "sistema",
	}); err != nil {
		return err
	}

	// El encolado es best-effort: el XML firmado ya está en la DB y la cola
	// se puede reconstruir desde ella.
	if err := o.artefactos.Encolar(c.ClaveAcceso, firmado); err != nil {
		o.log.Warn().Err(err).Str("clave_acceso", c.ClaveAcceso).Msg("no se pudo encolar el XML firmado")
	}

	o.log.Info().Str("clave_acceso", c.ClaveAcceso).Msg("comprobante firmado")
	return nil
}

// enviar somete el XML firmado al WS de recepción. FIRMADO → ENVIADO si el
// SRI responde RECIBIDA; DEVUELTA lleva a RECHAZADO con los errores
// estructurados del WS.
func (o *OrquestadorSRI) enviar(ctx context.Context, c *entity.Comprobante) error {
	requestID := uuid.NewString()

	resp, err := o.cliente.EnviarComprobante(ctx, []byte(c.XMLFirmado))
	if err != nil {
		if domain.EsTransitorio(err) {
			return o.registrarReintento(ctx, c, requestID, codigoTransitorio, err)
		}
		return err
	}

	if !resp.Recibida() {
		return o.rechazar(ctx, c, requestID, resp.Estado, resp.Cruda, resp.Mensajes)
	}

	anterior := c.Estado
	c.Estado = entity.EstadoEnviado
	c.RequiereReenvio = true // queda pendiente de autorización
	proximo := time.Now().Add(o.backoffBase)
	c.ProximoReintento = &proximo
	if err := o.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
		ComprobanteID:   c.ID,
		EstadoAnterior:  anterior,
		EstadoNuevo:     entity.EstadoEnviado,
		Fecha:           time.Now(),
		Actor:           "sistema",
		RequestID:       requestID,
		CodigoRespuesta: resp.Estado,
		RespuestaCruda:  resp.Cruda,
	}); err != nil {
		return err
	}

	o.log.Info().Str("clave_acceso", c.ClaveAcceso).Msg("comprobante recibido por el SRI")
	return nil
}

// consultarAutorizacion consulta el WS de autorización. ENVIADO → AUTORIZADO
// o RECHAZADO; EN PROCESO reprograma la consulta sin consumir reintento.
func (o *OrquestadorSRI) consultarAutorizacion(ctx context.Context, c *entity.Comprobante) error {
	requestID := uuid.NewString()

	resp, err := o.cliente.ConsultarAutorizacion(ctx, c.ClaveAcceso)
	if err != nil {
		if domain.EsTransitorio(err) {
			return o.registrarReintento(ctx, c, requestID, codigoTransitorio, err)
		}
		return err
	}

	switch {
	case resp.Autorizado():
		return o.autorizar(ctx, c, requestID, resp)

	case resp.EnProceso():
		// Resultado normal del flujo offline: reprogramar sin penalizar.
		proximo := time.Now().Add(o.backoffBase)
		c.ProximoReintento = &proximo
		c.RequiereReenvio = true
		return o.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
			ComprobanteID:    c.ID,
			EstadoAnterior:   c.Estado,
			EstadoNuevo:      c.Estado,
			Fecha:            time.Now(),
			Actor:            "sistema",
			RequestID:        requestID,
			CodigoRespuesta:  resp.Estado,
			ProximoReintento: &proximo,
		})

	default: // NO AUTORIZADO
		return o.rechazar(ctx, c, requestID, resp.Estado, resp.Cruda, resp.Mensajes)
	}
}

func (o *OrquestadorSRI) autorizar(ctx context.Context, c *entity.Comprobante, requestID string, resp *infrasri.RespuestaAutorizacion) error {
	if err := domcomprobante.ValidarTransicion(c.Estado, entity.EstadoAutorizado); err != nil {
		return err
	}

	anterior := c.Estado
	c.Estado = entity.EstadoAutorizado
	c.NumeroAutorizacion = resp.NumeroAutorizacion
	c.FechaAutorizacion = resp.FechaAutorizacion
	c.RequiereReenvio = false
	c.ProximoReintento = nil
	if err := o.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
		ComprobanteID:   c.ID,
		EstadoAnterior:  anterior,
		EstadoNuevo:     entity.EstadoAutorizado,
		Fecha:           time.Now(),
		Actor:           "sistema",
		RequestID:       requestID,
		CodigoRespuesta: resp.Estado,
		RespuestaCruda:  resp.Cruda,
	}); err != nil {
		return err
	}

	if err := o.artefactos.Archivar(c.ClaveAcceso); err != nil {
		o.log.Warn().Err(err).Str("clave_acceso", c.ClaveAcceso).Msg("no se pudo archivar el XML autorizado")
	}

	o.log.Info().
		Str("clave_acceso", c.ClaveAcceso).
		Str("numero_autorizacion", resp.NumeroAutorizacion).
		Msg("comprobante autorizado")
	return nil
}

func (o *OrquestadorSRI) rechazar(ctx context.Context, c *entity.Comprobante, requestID, codigoRespuesta, cruda string, mensajes []infrasri.MensajeSRI) error {
	if err := domcomprobante.ValidarTransicion(c.Estado, entity.EstadoRechazado); err != nil {
		return err
	}

	errores := make([]entity.ErrorSRI, 0, len(mensajes))
	for _, m := range mensajes {
		errores = append(errores, m.AErrorSRI())
	}

	anterior := c.Estado
	c.Estado = entity.EstadoRechazado
	c.RequiereReenvio = false
	c.ProximoReintento = nil
	if err := o.comprobantes.ActualizarEstado(ctx, c, &entity.HistorialEstado{
		ComprobanteID:   c.ID,
		EstadoAnterior:  anterior,
		EstadoNuevo:     entity.EstadoRechazado,
		Fecha:           time.Now(),
		Actor:           "sistema",
		RequestID:       requestID,
		CodigoRespuesta: codigoRespuesta,
		RespuestaCruda:  cruda,
		Errores:         errores,
	}); err != nil {
		return err
	}

	if err := o.artefactos.Descartar(c.ClaveAcceso); err != nil {
		o.log.Warn().Err(err).Str("clave_acceso", c.ClaveAcceso).Msg("no se pudo descartar el XML rechazado")
	}

	o.log.Warn().
		Str("clave_acceso", c.ClaveAcceso).
		Str("respuesta", codigoRespuesta).
		Int("errores", len(errores)).
		Msg("comprobante rechazado por el SRI")
	return nil
}

// Códigos internos para los fallos reintentables registrados en el historial.
const (
	codigoTransitorio = "TRANSITORIO"
	codigoErrorFirma  = "ERROR_FIRMA"
)

// registrarReintento contabiliza un fallo reintentable: incrementa el contador,
// programa el próximo intento con backoff exponencial y, agotado el tope,
// marca el fallo como permanente para intervención manual. El comprobante
// permanece en su estado actual.
func (o *OrquestadorSRI) registrarReintento(ctx context.Context, c *entity.Comprobante, requestID, codigo string, causa error) error {
	c.Reintentos++

	historial := &entity.HistorialEstado{
		ComprobanteID:  c.ID,
		EstadoAnterior: c.Estado,
		EstadoNuevo:    c.Estado,
		Fecha:          time.Now(),
		Actor:          "sistema",
		RequestID:      requestID,
		Reintento:      c.Reintentos,
		Errores: []entity.ErrorSRI{{
			Codigo:    codigo,
			Mensaje:   causa.Error(),
			Severidad: "ERROR",
		}},
	}

	if c.Reintentos >= entity.MaxReintentos {
		c.RequiereReenvio = false
		c.ProximoReintento = nil
		if err := o.comprobantes.ActualizarEstado(ctx, c, historial); err != nil {
			return err
		}
		o.log.Error().
			Str("clave_acceso", c.ClaveAcceso).
			Int("reintentos", c.Reintentos).
			Err(causa).
			Msg("reintentos agotados")
		return fmt.Errorf("%w: %s: %v", domain.ErrFalloPermanente, c.ClaveAcceso, causa)
	}

	// backoff = base × 2^(reintentos-1): 5s, 10s, 20s con la base por defecto.
	espera := o.backoffBase * (1 << (c.Reintentos - 1))
	proximo := time.Now().Add(espera)
	c.RequiereReenvio = true
	c.ProximoReintento = &proximo
	historial.ProximoReintento = &proximo

	if err := o.comprobantes.ActualizarEstado(ctx, c, historial); err != nil {
		return err
	}

	o.log.Warn().
		Str("clave_acceso", c.ClaveAcceso).
		Int("reintento", c.Reintentos).
		Dur("espera", espera).
		Err(causa).
		Msg("fallo transitorio del WS, reintento programado")
	return nil
}
