// Package sri implementa la integración con los web services de comprobantes
// electrónicos del SRI (Ecuador): construcción del XML, firma y los dos
// endpoints SOAP (recepción y autorización).
package sri

import (
	"time"

	"github.com/facturaec/sri-core/internal/domain/entity"
)

// URLs de los WS del SRI según ambiente. Configurables; estos son los oficiales.
const (
	urlRecepcionPruebas     = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	urlRecepcionProduccion  = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	urlAutorizacionPruebas  = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
	urlAutorizacionProduccion = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	nsSoap         = "http://schemas.xmlsoap.org/soap/envelope/"
	nsRecepcion    = "http://ec.gob.sri.ws.recepcion"
	nsAutorizacion = "http://ec.gob.sri.ws.autorizacion"
)

// MensajeSRI mensaje estructurado devuelto por el WS.
type MensajeSRI struct {
	Identificador        string
	Mensaje              string
	InformacionAdicional string
	Tipo                 string // ERROR | ADVERTENCIA
}

// AErrorSRI convierte el mensaje al tipo de historial del dominio.
func (m MensajeSRI) AErrorSRI() entity.ErrorSRI {
	msg := m.Mensaje
	if m.InformacionAdicional != "" {
		msg += ": " + m.InformacionAdicional
	}
	return entity.ErrorSRI{Codigo: m.Identificador, Mensaje: msg, Severidad: m.Tipo}
}

// RespuestaRecepcion resultado de validarComprobante.
type RespuestaRecepcion struct {
	Estado   string // RECIBIDA | DEVUELTA
	Mensajes []MensajeSRI
	Cruda    string // envelope completo, para el historial
}

// Recibida reporta si el comprobante quedó en cola de autorización.
func (r *RespuestaRecepcion) Recibida() bool { return r.Estado == "RECIBIDA" }

// RespuestaAutorizacion resultado de autorizacionComprobante.
type RespuestaAutorizacion struct {
	Estado             string // AUTORIZADO | NO AUTORIZADO | EN PROCESO
	NumeroAutorizacion string
	FechaAutorizacion  *time.Time
	Ambiente           string
	Mensajes           []MensajeSRI
	Cruda              string
}

// Autorizado reporta si el SRI emitió número de autorización.
func (r *RespuestaAutorizacion) Autorizado() bool { return r.Estado == "AUTORIZADO" }

// EnProceso reporta si el SRI aún no resuelve (reconsultar más tarde).
func (r *RespuestaAutorizacion) EnProceso() bool { return r.Estado == "EN PROCESO" || r.Estado == "" }
