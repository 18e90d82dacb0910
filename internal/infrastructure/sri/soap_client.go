package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/pkg/config"
	sricat "github.com/facturaec/sri-core/pkg/sri"
)

// ClienteSOAP habla con los dos WS offline del SRI: recepción (validarComprobante)
// y autorización (autorizacionComprobante). Usa net/http de la stdlib.
type ClienteSOAP struct {
	httpClient      *http.Client
	urlRecepcion    string
	urlAutorizacion string
}

// NewClienteSOAP construye el cliente según el ambiente configurado. Las URLs
// explícitas de la configuración tienen prioridad sobre las oficiales.
func NewClienteSOAP(cfg config.SRIConfig) *ClienteSOAP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	recepcion, autorizacion := urlRecepcionPruebas, urlAutorizacionPruebas
	if cfg.Ambiente == sricat.AmbienteProduccion {
		recepcion, autorizacion = urlRecepcionProduccion, urlAutorizacionProduccion
	}
	if cfg.URLRecepcion != "" {
		recepcion = cfg.URLRecepcion
	}
	if cfg.URLAutorizacion != "" {
		autorizacion = cfg.URLAutorizacion
	}
	return &ClienteSOAP{
		httpClient:      &http.Client{Timeout: timeout},
		urlRecepcion:    recepcion,
		urlAutorizacion: autorizacion,
	}
}

// ── Estructuras SOAP de request ───────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"soapenv:Envelope"`
	XmlnsS  string     `xml:"xmlns:soapenv,attr"`
	XmlnsEC string     `xml:"xmlns:ec,attr"`
	Body    soapBody   `xml:"soapenv:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type validarComprobanteBody struct {
	XMLName xml.Name `xml:"ec:validarComprobante"`
	XML     string   `xml:"xml"` // comprobante firmado en Base64
}

type autorizacionComprobanteBody struct {
	XMLName     xml.Name `xml:"ec:autorizacionComprobante"`
	ClaveAcceso string   `xml:"claveAccesoComprobante"`
}

// ── Estructuras SOAP de respuesta ─────────────────────────────────────────────

type mensajeXML struct {
	Identificador        string `xml:"identificador"`
	Mensaje              string `xml:"mensaje"`
	InformacionAdicional string `xml:"informacionAdicional"`
	Tipo                 string `xml:"tipo"`
}

type respuestaRecepcionEnvelope struct {
	Body struct {
		Respuesta struct {
			Resultado struct {
				Estado       string `xml:"estado"`
				Comprobantes struct {
					Comprobante []struct {
						ClaveAcceso string       `xml:"claveAcceso"`
						Mensajes    []mensajeXML `xml:"mensajes>mensaje"`
					} `xml:"comprobante"`
				} `xml:"comprobantes"`
			} `xml:"RespuestaRecepcionComprobante"`
		} `xml:"validarComprobanteResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type respuestaAutorizacionEnvelope struct {
	Body struct {
		Respuesta struct {
			Resultado struct {
				ClaveAcceso    string `xml:"claveAccesoConsultada"`
				Autorizaciones struct {
					Autorizacion []struct {
						Estado             string       `xml:"estado"`
						NumeroAutorizacion string       `xml:"numeroAutorizacion"`
						FechaAutorizacion  string       `xml:"fechaAutorizacion"`
						Ambiente           string       `xml:"ambiente"`
						Mensajes           []mensajeXML `xml:"mensajes>mensaje"`
					} `xml:"autorizacion"`
				} `xml:"autorizaciones"`
			} `xml:"RespuestaAutorizacionComprobante"`
		} `xml:"autorizacionComprobanteResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// EnviarComprobante entrega el XML firmado al WS de recepción. Timeouts,
// fallos de red y 5xx se marcan como transitorios; una respuesta DEVUELTA no
// es error de transporte, el llamador la interpreta.
func (c *ClienteSOAP) EnviarComprobante(ctx context.Context, xmlFirmado []byte) (*RespuestaRecepcion, error) {
	body := &validarComprobanteBody{XML: base64.StdEncoding.EncodeToString(xmlFirmado)}
	raw, err := c.llamar(ctx, c.urlRecepcion, nsRecepcion, "recepcion", body)
	if err != nil {
		return nil, err
	}

	var env respuestaRecepcionEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("sri recepcion: parsear respuesta: %w", err)
	}
	if env.Body.Fault != nil {
		return nil, &domain.ErrorTransitorioSRI{
			Operacion: "recepcion",
			Causa:     fmt.Errorf("SOAP Fault [%s]: %s", env.Body.Fault.FaultCode, env.Body.Fault.FaultString),
		}
	}

	resp := &RespuestaRecepcion{
		Estado: env.Body.Respuesta.Resultado.Estado,
		Cruda:  string(raw),
	}
	for _, comp := range env.Body.Respuesta.Resultado.Comprobantes.Comprobante {
		for _, m := range comp.Mensajes {
			resp.Mensajes = append(resp.Mensajes, MensajeSRI(m))
		}
	}
	return resp, nil
}

// ConsultarAutorizacion consulta el estado de autorización de una clave de acceso.
func (c *ClienteSOAP) ConsultarAutorizacion(ctx context.Context, claveAcceso string) (*RespuestaAutorizacion, error) {
	body := &autorizacionComprobanteBody{ClaveAcceso: claveAcceso}
	raw, err := c.llamar(ctx, c.urlAutorizacion, nsAutorizacion, "autorizacion", body)
	if err != nil {
		return nil, err
	}

	var env respuestaAutorizacionEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("sri autorizacion: parsear respuesta: %w", err)
	}
	if env.Body.Fault != nil {
		return nil, &domain.ErrorTransitorioSRI{
			Operacion: "autorizacion",
			Causa:     fmt.Errorf("SOAP Fault [%s]: %s", env.Body.Fault.FaultCode, env.Body.Fault.FaultString),
		}
	}

	resp := &RespuestaAutorizacion{Cruda: string(raw)}
	auths := env.Body.Respuesta.Resultado.Autorizaciones.Autorizacion
	if len(auths) == 0 {
		// El SRI aún no registra la clave: tratar como en proceso.
		resp.Estado = sricat.SRIEstadoEnProceso
		return resp, nil
	}
	a := auths[0]
	resp.Estado = a.Estado
	resp.NumeroAutorizacion = a.NumeroAutorizacion
	resp.Ambiente = a.Ambiente
	if a.FechaAutorizacion != "" {
		// El WS devuelve ISO 8601 con zona horaria.
		if t, err := time.Parse(time.RFC3339, a.FechaAutorizacion); err == nil {
			resp.FechaAutorizacion = &t
		}
	}
	for _, m := range a.Mensajes {
		resp.Mensajes = append(resp.Mensajes, MensajeSRI(m))
	}
	return resp, nil
}

// Disponible sondea el WSDL del WS de recepción. El job de reconciliación lo
// consulta antes de gastar un lote de reintentos contra un servicio caído.
func (c *ClienteSOAP) Disponible(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlRecepcion+"?wsdl", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode == http.StatusOK
}

func (c *ClienteSOAP) llamar(ctx context.Context, url, ns, operacion string, content interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsS:  nsSoap,
		XmlnsEC: ns,
		Body:    soapBody{Content: content},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("sri %s: serializar envelope: %w", operacion, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sri %s: crear request: %w", operacion, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout, DNS, conexión rechazada: todo recuperable con reintento.
		return nil, &domain.ErrorTransitorioSRI{Operacion: operacion, Causa: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // max 4 MB
	if err != nil {
		return nil, &domain.ErrorTransitorioSRI{Operacion: operacion, Causa: err}
	}
	if resp.StatusCode >= 500 {
		return nil, &domain.ErrorTransitorioSRI{
			Operacion: operacion,
			Causa:     fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sri %s: HTTP %d: %s", operacion, resp.StatusCode, string(raw))
	}
	return raw, nil
}
