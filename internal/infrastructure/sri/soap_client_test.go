package sri_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/internal/domain"
	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"
	"github.com/facturaec/sri-core/pkg/config"
)

const envelopeRecibida = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:validarComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.recepcion">
      <RespuestaRecepcionComprobante>
        <estado>RECIBIDA</estado>
        <comprobantes/>
      </RespuestaRecepcionComprobante>
    </ns2:validarComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const envelopeDevuelta = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:validarComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.recepcion">
      <RespuestaRecepcionComprobante>
        <estado>DEVUELTA</estado>
        <comprobantes>
          <comprobante>
            <claveAcceso>2308202401179214673900110010010000000011234567813</claveAcceso>
            <mensajes>
              <mensaje>
                <identificador>35</identificador>
                <mensaje>ARCHIVO NO CUMPLE ESTRUCTURA XML</mensaje>
                <informacionAdicional>detalle de estructura</informacionAdicional>
                <tipo>ERROR</tipo>
              </mensaje>
            </mensajes>
          </comprobante>
        </comprobantes>
      </RespuestaRecepcionComprobante>
    </ns2:validarComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const envelopeAutorizado = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:autorizacionComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.autorizacion">
      <RespuestaAutorizacionComprobante>
        <claveAccesoConsultada>2308202401179214673900110010010000000011234567813</claveAccesoConsultada>
        <autorizaciones>
          <autorizacion>
            <estado>AUTORIZADO</estado>
            <numeroAutorizacion>2308202401179214673900110010010000000011234567813</numeroAutorizacion>
            <fechaAutorizacion>2024-08-23T14:05:10-05:00</fechaAutorizacion>
            <ambiente>PRUEBAS</ambiente>
          </autorizacion>
        </autorizaciones>
      </RespuestaAutorizacionComprobante>
    </ns2:autorizacionComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const envelopeSinAutorizaciones = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:autorizacionComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.autorizacion">
      <RespuestaAutorizacionComprobante>
        <claveAccesoConsultada>2308202401179214673900110010010000000011234567813</claveAccesoConsultada>
        <autorizaciones/>
      </RespuestaAutorizacionComprobante>
    </ns2:autorizacionComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const envelopeFault = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Internal error</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func clienteContra(servidor *httptest.Server) *infrasri.ClienteSOAP {
	return infrasri.NewClienteSOAP(config.SRIConfig{
		URLRecepcion:    servidor.URL,
		URLAutorizacion: servidor.URL,
		Timeout:         5 * time.Second,
	})
}

func servidorXML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestEnviarComprobanteRecibida(t *testing.T) {
	srv := servidorXML(t, http.StatusOK, envelopeRecibida)
	defer srv.Close()

	resp, err := clienteContra(srv).EnviarComprobante(context.Background(), []byte("<factura/>"))
	require.NoError(t, err)
	assert.True(t, resp.Recibida())
	assert.Empty(t, resp.Mensajes)
	assert.Contains(t, resp.Cruda, "RECIBIDA", "la respuesta cruda se conserva para auditoría")
}

func TestEnviarComprobanteDevuelta(t *testing.T) {
	srv := servidorXML(t, http.StatusOK, envelopeDevuelta)
	defer srv.Close()

	resp, err := clienteContra(srv).EnviarComprobante(context.Background(), []byte("<factura/>"))
	require.NoError(t, err, "DEVUELTA es una respuesta de negocio, no un error de transporte")
	assert.False(t, resp.Recibida())
	require.Len(t, resp.Mensajes, 1)
	assert.Equal(t, "35", resp.Mensajes[0].Identificador)
	assert.Equal(t, "ERROR", resp.Mensajes[0].Tipo)
}

func TestEnviarComprobanteErrorTransitorio5xx(t *testing.T) {
	srv := servidorXML(t, http.StatusServiceUnavailable, "mantenimiento")
	defer srv.Close()

	_, err := clienteContra(srv).EnviarComprobante(context.Background(), []byte("<factura/>"))
	require.Error(t, err)
	assert.True(t, domain.EsTransitorio(err), "un 5xx debe ser transitorio")
}

func TestEnviarComprobanteSOAPFaultEsTransitorio(t *testing.T) {
	srv := servidorXML(t, http.StatusOK, envelopeFault)
	defer srv.Close()

	_, err := clienteContra(srv).EnviarComprobante(context.Background(), []byte("<factura/>"))
	require.Error(t, err)
	assert.True(t, domain.EsTransitorio(err))
}

func TestEnviarComprobanteServidorCaido(t *testing.T) {
	srv := servidorXML(t, http.StatusOK, envelopeRecibida)
	srv.Close() // cerrado a propósito

	_, err := clienteContra(srv).EnviarComprobante(context.Background(), []byte("<factura/>"))
	require.Error(t, err)
	assert.True(t, domain.EsTransitorio(err), "un fallo de conexión debe ser transitorio")
}

func TestConsultarAutorizacionAutorizado(t *testing.T) {
	srv := servidorXML(t, http.StatusOK, envelopeAutorizado)
	defer srv.Close()

	resp, err := clienteContra(srv).ConsultarAutorizacion(context.Background(),
		"2308202401179214673900110010010000000011234567813")
	require.NoError(t, err)
	assert.True(t, resp.Autorizado())
	assert.Equal(t, "2308202401179214673900110010010000000011234567813", resp.NumeroAutorizacion)
	require.NotNil(t, resp.FechaAutorizacion)
	assert.Equal(t, 2024, resp.FechaAutorizacion.Year())
}

func TestConsultarAutorizacionSinRegistroEsEnProceso(t *testing.T) {
	srv := servidorXML(t, http.StatusOK, envelopeSinAutorizaciones)
	defer srv.Close()

	resp, err := clienteContra(srv).ConsultarAutorizacion(context.Background(),
		"2308202401179214673900110010010000000011234567813")
	require.NoError(t, err)
	assert.True(t, resp.EnProceso(), "sin autorizaciones registradas se trata como en proceso")
	assert.False(t, resp.Autorizado())
}

func TestDisponible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("<wsdl/>"))
	}))
	defer srv.Close()

	c := clienteContra(srv)
	assert.True(t, c.Disponible(context.Background()))

	srv.Close()
	assert.False(t, c.Disponible(context.Background()))
}
