package facturacion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/internal/application/facturacion"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"
	"github.com/facturaec/sri-core/pkg/logger"
	"github.com/facturaec/sri-core/pkg/sri"
)

// ── Dobles ────────────────────────────────────────────────────────────────────

type repoFalso struct {
	comprobantes map[string]*entity.Comprobante
	historial    []*entity.HistorialEstado
}

func nuevoRepoFalso(cs ...*entity.Comprobante) *repoFalso {
	r := &repoFalso{comprobantes: make(map[string]*entity.Comprobante)}
	for _, c := range cs {
		r.comprobantes[c.ID] = c
	}
	return r
}

func (r *repoFalso) Crear(_ context.Context, c *entity.Comprobante, h *entity.HistorialEstado) error {
	r.comprobantes[c.ID] = c
	r.historial = append(r.historial, h)
	return nil
}

func (r *repoFalso) GetByID(_ context.Context, id string) (*entity.Comprobante, error) {
	c, ok := r.comprobantes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *repoFalso) GetByClaveAcceso(_ context.Context, clave string) (*entity.Comprobante, error) {
	for _, c := range r.comprobantes {
		if c.ClaveAcceso == clave {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *repoFalso) ActualizarEstado(_ context.Context, c *entity.Comprobante, h *entity.HistorialEstado) error {
	r.comprobantes[c.ID] = c
	r.historial = append(r.historial, h)
	return nil
}

func (r *repoFalso) Historial(_ context.Context, comprobanteID string) ([]*entity.HistorialEstado, error) {
	var out []*entity.HistorialEstado
	for _, h := range r.historial {
		if h.ComprobanteID == comprobanteID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *repoFalso) ListarPendientes(_ context.Context, antesDe time.Time, limite int) ([]*entity.Comprobante, error) {
	var out []*entity.Comprobante
	for _, c := range r.comprobantes {
		if c.RequiereReenvio && c.ProximoReintento != nil && c.ProximoReintento.Before(antesDe) {
			out = append(out, c)
		}
		if len(out) == limite {
			break
		}
	}
	return out, nil
}

func (r *repoFalso) ultimoHistorial(t *testing.T) *entity.HistorialEstado {
	t.Helper()
	require.NotEmpty(t, r.historial)
	return r.historial[len(r.historial)-1]
}

type firmadorFalso struct{ err error }

func (f *firmadorFalso) Firmar(xmlComprobante []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append(xmlComprobante, []byte("<!--firmado-->")...), nil
}

type clienteFalso struct {
	recepcion     *infrasri.RespuestaRecepcion
	autorizacion  *infrasri.RespuestaAutorizacion
	errRecepcion  error
	errConsulta   error
	envios        int
	consultas     int
	claveRecibida string
}

func (c *clienteFalso) EnviarComprobante(_ context.Context, _ []byte) (*infrasri.RespuestaRecepcion, error) {
	c.envios++
	if c.errRecepcion != nil {
		return nil, c.errRecepcion
	}
	return c.recepcion, nil
}

func (c *clienteFalso) ConsultarAutorizacion(_ context.Context, clave string) (*infrasri.RespuestaAutorizacion, error) {
	c.consultas++
	c.claveRecibida = clave
	if c.errConsulta != nil {
		return nil, c.errConsulta
	}
	return c.autorizacion, nil
}

type artefactosFalsos struct {
	encolados   []string
	archivados  []string
	descartados []string
	errEncolar  error
}

func (a *artefactosFalsos) Encolar(clave string, _ []byte) error {
	if a.errEncolar != nil {
		return a.errEncolar
	}
	a.encolados = append(a.encolados, clave)
	return nil
}

func (a *artefactosFalsos) Archivar(clave string) error {
	a.archivados = append(a.archivados, clave)
	return nil
}

func (a *artefactosFalsos) Descartar(clave string) error {
	a.descartados = append(a.descartados, clave)
	return nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

const claveFactura = "2308202401179214673900110010010000000011234567813"

func facturaEnEstado(estado entity.Estado) *entity.Comprobante {
	c := &entity.Comprobante{
		ID:              "cmp-001",
		TipoComprobante: sri.TipoFactura,
		Version:         entity.Version110,
		Ambiente:        sri.AmbientePruebas,
		TipoEmision:     sri.EmisionNormal,
		RUCEmisor:       "1792146739001",
		RazonSocial:     "COMERCIAL EL AHORRO S.A.",
		DireccionMatriz: "Av. Amazonas N21-147, Quito",
		ClaveAcceso:     claveFactura,
		Establecimiento: "001",
		PuntoEmision:    "001",
		Secuencial:      1,
		FechaEmision:    time.Date(2024, 8, 23, 0, 0, 0, 0, time.UTC),

		ContraparteTipoID:         sri.IdentificacionCedula,
		ContraparteIdentificacion: "1710034065",
		ContraparteRazonSocial:    "Juan Pérez",

		Estado:          estado,
		RequiereReenvio: true,

		TotalSinImpuestos: decimal.RequireFromString("100.00"),
		TotalDescuento:    decimal.Zero,
		TotalImpuestos:    decimal.RequireFromString("15.00"),
		ImporteTotal:      decimal.RequireFromString("115.00"),

		Detalles: []*entity.Detalle{{
			NumeroLinea:            1,
			CodigoPrincipal:        "PROD-001",
			Descripcion:            "Producto gravado",
			Cantidad:               decimal.RequireFromString("2"),
			PrecioUnitario:         decimal.RequireFromString("50"),
			Descuento:              decimal.Zero,
			PrecioTotalSinImpuesto: decimal.RequireFromString("100.00"),
			Impuestos: []*entity.ImpuestoDetalle{{
				CodigoImpuesto: "2",
				CodigoTarifa:   "4",
				Tarifa:         decimal.RequireFromString("15"),
				BaseImponible:  decimal.RequireFromString("100.00"),
				Valor:          decimal.RequireFromString("15.00"),
			}},
		}},
	}
	if estado != entity.EstadoCreado {
		c.XMLFirmado = "<factura/><!--firmado-->"
	}
	return c
}

type banco struct {
	repo       *repoFalso
	firmador   *firmadorFalso
	cliente    *clienteFalso
	artefactos *artefactosFalsos
	orq        *facturacion.OrquestadorSRI
}

func montarOrquestador(c *entity.Comprobante, cliente *clienteFalso) *banco {
	repo := nuevoRepoFalso(c)
	firmador := &firmadorFalso{}
	artefactos := &artefactosFalsos{}
	orq := facturacion.NewOrquestadorSRI(
		repo,
		infrasri.NewConstructorXML(),
		firmador,
		cliente,
		artefactos,
		5*time.Second,
		logger.New(logger.Config{Level: "error"}),
	)
	return &banco{repo: repo, firmador: firmador, cliente: cliente, artefactos: artefactos, orq: orq}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestProcesarFirmaComprobanteCreado(t *testing.T) {
	c := facturaEnEstado(entity.EstadoCreado)
	b := montarOrquestador(c, &clienteFalso{})

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoFirmado, c.Estado)
	assert.Contains(t, c.XMLFirmado, "<!--firmado-->")
	assert.Equal(t, []string{claveFactura}, b.artefactos.encolados)

	h := b.repo.ultimoHistorial(t)
	assert.Equal(t, entity.EstadoCreado, h.EstadoAnterior)
	assert.Equal(t, entity.EstadoFirmado, h.EstadoNuevo)
	assert.Equal(t, "sistema", h.Actor)
}

func TestProcesarFirmaSigueAunqueFalleElEncolado(t *testing.T) {
	c := facturaEnEstado(entity.EstadoCreado)
	b := montarOrquestador(c, &clienteFalso{})
	b.artefactos.errEncolar = errors.New("disco lleno")

	// La cola es reconstruible desde la DB: su fallo no revierte la firma.
	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))
	assert.Equal(t, entity.EstadoFirmado, c.Estado)
}

func TestProcesarFalloDeFirmaQuedaEnHistorialYProgramaReintento(t *testing.T) {
	c := facturaEnEstado(entity.EstadoCreado)
	b := montarOrquestador(c, &clienteFalso{})
	b.firmador.err = errors.New("certificado expirado")

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoCreado, c.Estado, "la firma fallida no avanza el estado")
	assert.Empty(t, c.XMLFirmado)
	assert.Equal(t, 1, c.Reintentos)
	assert.True(t, c.RequiereReenvio, "queda visible para el barrido de pendientes")
	require.NotNil(t, c.ProximoReintento)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), *c.ProximoReintento, time.Second)

	h := b.repo.ultimoHistorial(t)
	assert.Equal(t, entity.EstadoCreado, h.EstadoAnterior)
	assert.Equal(t, entity.EstadoCreado, h.EstadoNuevo)
	assert.Equal(t, 1, h.Reintento)
	require.Len(t, h.Errores, 1)
	assert.Equal(t, "ERROR_FIRMA", h.Errores[0].Codigo)
	assert.Contains(t, h.Errores[0].Mensaje, "certificado expirado")
}

func TestProcesarFalloDeFirmaAgotaReintentos(t *testing.T) {
	c := facturaEnEstado(entity.EstadoCreado)
	c.Reintentos = entity.MaxReintentos - 1
	b := montarOrquestador(c, &clienteFalso{})
	b.firmador.err = errors.New("certificado expirado")

	err := b.orq.Procesar(context.Background(), c.ID)
	require.ErrorIs(t, err, domain.ErrFalloPermanente)
	assert.Equal(t, entity.EstadoCreado, c.Estado)
	assert.False(t, c.RequiereReenvio)
}

func TestProcesarEnviaComprobanteFirmado(t *testing.T) {
	c := facturaEnEstado(entity.EstadoFirmado)
	b := montarOrquestador(c, &clienteFalso{
		recepcion: &infrasri.RespuestaRecepcion{Estado: sri.SRIEstadoRecibida, Cruda: "<env/>"},
	})

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoEnviado, c.Estado)
	assert.True(t, c.RequiereReenvio, "queda pendiente de consulta de autorización")
	require.NotNil(t, c.ProximoReintento)
	assert.Equal(t, 1, b.cliente.envios)

	h := b.repo.ultimoHistorial(t)
	assert.Equal(t, sri.SRIEstadoRecibida, h.CodigoRespuesta)
	assert.NotEmpty(t, h.RequestID)
	assert.Equal(t, "<env/>", h.RespuestaCruda)
}

func TestProcesarDevueltaRechazaSinReintento(t *testing.T) {
	c := facturaEnEstado(entity.EstadoFirmado)
	b := montarOrquestador(c, &clienteFalso{
		recepcion: &infrasri.RespuestaRecepcion{
			Estado: sri.SRIEstadoDevuelta,
			Cruda:  "<env/>",
			Mensajes: []infrasri.MensajeSRI{{
				Identificador: "35",
				Mensaje:       "ARCHIVO NO CUMPLE ESTRUCTURA XML",
				Tipo:          "ERROR",
			}},
		},
	})

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoRechazado, c.Estado)
	assert.False(t, c.RequiereReenvio)
	assert.Zero(t, c.Reintentos, "DEVUELTA es resultado de negocio, no consume reintentos")
	assert.Equal(t, []string{claveFactura}, b.artefactos.descartados)

	h := b.repo.ultimoHistorial(t)
	require.Len(t, h.Errores, 1)
	assert.Equal(t, "35", h.Errores[0].Codigo)
}

func TestProcesarErrorTransitorioProgramaBackoffExponencial(t *testing.T) {
	c := facturaEnEstado(entity.EstadoFirmado)
	cliente := &clienteFalso{
		errRecepcion: &domain.ErrorTransitorioSRI{Operacion: "recepcion", Causa: errors.New("timeout")},
	}
	b := montarOrquestador(c, cliente)

	antes := time.Now()
	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))
	assert.Equal(t, entity.EstadoFirmado, c.Estado, "el estado no cambia en fallo transitorio")
	assert.Equal(t, 1, c.Reintentos)
	require.NotNil(t, c.ProximoReintento)
	assert.WithinDuration(t, antes.Add(5*time.Second), *c.ProximoReintento, 2*time.Second)

	// Segundo fallo: la espera se duplica.
	antes = time.Now()
	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))
	assert.Equal(t, 2, c.Reintentos)
	assert.WithinDuration(t, antes.Add(10*time.Second), *c.ProximoReintento, 2*time.Second)

	h := b.repo.ultimoHistorial(t)
	assert.Equal(t, c.Estado, h.EstadoAnterior)
	assert.Equal(t, c.Estado, h.EstadoNuevo)
	assert.Equal(t, 2, h.Reintento)
	require.Len(t, h.Errores, 1)
	assert.Equal(t, "TRANSITORIO", h.Errores[0].Codigo)
}

func TestProcesarReintentosAgotadosEsFalloPermanente(t *testing.T) {
	c := facturaEnEstado(entity.EstadoFirmado)
	c.Reintentos = entity.MaxReintentos - 1
	b := montarOrquestador(c, &clienteFalso{
		errRecepcion: &domain.ErrorTransitorioSRI{Operacion: "recepcion", Causa: errors.New("timeout")},
	})

	err := b.orq.Procesar(context.Background(), c.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFalloPermanente)
	assert.Equal(t, entity.MaxReintentos, c.Reintentos)
	assert.False(t, c.RequiereReenvio, "agotados los reintentos sale del barrido automático")
	assert.Nil(t, c.ProximoReintento)
	assert.Equal(t, entity.EstadoFirmado, c.Estado, "queda varado para intervención manual")
}

func TestProcesarErrorNoTransitorioNoConsumeReintento(t *testing.T) {
	c := facturaEnEstado(entity.EstadoFirmado)
	b := montarOrquestador(c, &clienteFalso{errRecepcion: errors.New("certificado revocado")})

	err := b.orq.Procesar(context.Background(), c.ID)
	require.Error(t, err)
	assert.Zero(t, c.Reintentos)
	assert.Equal(t, entity.EstadoFirmado, c.Estado)
}

func TestProcesarAutorizaComprobanteEnviado(t *testing.T) {
	c := facturaEnEstado(entity.EstadoEnviado)
	fecha := time.Date(2024, 8, 23, 14, 5, 10, 0, time.UTC)
	b := montarOrquestador(c, &clienteFalso{
		autorizacion: &infrasri.RespuestaAutorizacion{
			Estado:             sri.SRIEstadoAutorizado,
			NumeroAutorizacion: claveFactura,
			FechaAutorizacion:  &fecha,
			Cruda:              "<env/>",
		},
	})

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoAutorizado, c.Estado)
	assert.Equal(t, claveFactura, c.NumeroAutorizacion)
	require.NotNil(t, c.FechaAutorizacion)
	assert.False(t, c.RequiereReenvio)
	assert.Nil(t, c.ProximoReintento)
	assert.Equal(t, claveFactura, b.cliente.claveRecibida)
	assert.Equal(t, []string{claveFactura}, b.artefactos.archivados)
}

func TestProcesarEnProcesoReprogramaSinConsumirReintento(t *testing.T) {
	c := facturaEnEstado(entity.EstadoEnviado)
	b := montarOrquestador(c, &clienteFalso{
		autorizacion: &infrasri.RespuestaAutorizacion{Estado: sri.SRIEstadoEnProceso},
	})

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoEnviado, c.Estado)
	assert.Zero(t, c.Reintentos)
	assert.True(t, c.RequiereReenvio)
	require.NotNil(t, c.ProximoReintento)

	h := b.repo.ultimoHistorial(t)
	assert.Equal(t, entity.EstadoEnviado, h.EstadoAnterior)
	assert.Equal(t, entity.EstadoEnviado, h.EstadoNuevo)
}

func TestProcesarNoAutorizadoRechaza(t *testing.T) {
	c := facturaEnEstado(entity.EstadoEnviado)
	b := montarOrquestador(c, &clienteFalso{
		autorizacion: &infrasri.RespuestaAutorizacion{
			Estado: sri.SRIEstadoNoAutorizado,
			Mensajes: []infrasri.MensajeSRI{{
				Identificador: "60",
				Mensaje:       "CLAVE ACCESO REGISTRADA",
				Tipo:          "ERROR",
			}},
		},
	})

	require.NoError(t, b.orq.Procesar(context.Background(), c.ID))

	assert.Equal(t, entity.EstadoRechazado, c.Estado)
	assert.Equal(t, []string{claveFactura}, b.artefactos.descartados)
	h := b.repo.ultimoHistorial(t)
	assert.Equal(t, sri.SRIEstadoNoAutorizado, h.CodigoRespuesta)
}

func TestProcesarEstadoTerminalEsError(t *testing.T) {
	for _, estado := range []entity.Estado{entity.EstadoAutorizado, entity.EstadoRechazado, entity.EstadoAnulado} {
		c := facturaEnEstado(estado)
		b := montarOrquestador(c, &clienteFalso{})
		err := b.orq.Procesar(context.Background(), c.ID)
		assert.ErrorIs(t, err, domain.ErrTransicionInvalida, "estado %s", estado)
	}
}

func TestReprocesarReiniciaContadoresYAvanza(t *testing.T) {
	c := facturaEnEstado(entity.EstadoFirmado)
	c.Reintentos = entity.MaxReintentos
	c.RequiereReenvio = false
	b := montarOrquestador(c, &clienteFalso{
		recepcion: &infrasri.RespuestaRecepcion{Estado: sri.SRIEstadoRecibida},
	})

	require.NoError(t, b.orq.Reprocesar(context.Background(), c.ID, "operador@empresa.ec"))

	assert.Equal(t, entity.EstadoEnviado, c.Estado, "tras el reset avanza un paso")
	assert.Zero(t, c.Reintentos)

	// La primera entrada registrada es el reset manual con el actor.
	require.NotEmpty(t, b.repo.historial)
	assert.Equal(t, "operador@empresa.ec", b.repo.historial[0].Actor)
	assert.Equal(t, entity.EstadoFirmado, b.repo.historial[0].EstadoNuevo)
}

func TestReprocesarRechazaEstadosTerminales(t *testing.T) {
	for _, estado := range []entity.Estado{entity.EstadoAutorizado, entity.EstadoAnulado, entity.EstadoRechazado} {
		c := facturaEnEstado(estado)
		b := montarOrquestador(c, &clienteFalso{})
		err := b.orq.Reprocesar(context.Background(), c.ID, "operador@empresa.ec")
		assert.ErrorIs(t, err, domain.ErrTransicionInvalida, "estado %s", estado)
	}
}

func TestProcesarComprobanteInexistente(t *testing.T) {
	b := montarOrquestador(facturaEnEstado(entity.EstadoCreado), &clienteFalso{})
	err := b.orq.Procesar(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
