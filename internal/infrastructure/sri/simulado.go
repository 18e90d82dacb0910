package sri

import (
	"context"
	"time"

	sricat "github.com/facturaec/sri-core/pkg/sri"
)

// ClienteSimulado sustituye al WS del SRI en desarrollo local: recibe y
// autoriza todo sin salir a la red. Se activa con SRI_SIMULADO=true.
type ClienteSimulado struct{}

// NewClienteSimulado construye el cliente simulado.
func NewClienteSimulado() *ClienteSimulado {
	return &ClienteSimulado{}
}

// EnviarComprobante responde siempre RECIBIDA.
func (c *ClienteSimulado) EnviarComprobante(_ context.Context, _ []byte) (*RespuestaRecepcion, error) {
	return &RespuestaRecepcion{Estado: sricat.SRIEstadoRecibida, Cruda: "<simulado/>"}, nil
}

// ConsultarAutorizacion responde siempre AUTORIZADO con un número sintético.
func (c *ClienteSimulado) ConsultarAutorizacion(_ context.Context, claveAcceso string) (*RespuestaAutorizacion, error) {
	ahora := time.Now()
	return &RespuestaAutorizacion{
		Estado:             sricat.SRIEstadoAutorizado,
		NumeroAutorizacion: claveAcceso,
		FechaAutorizacion:  &ahora,
		Cruda:              "<simulado/>",
	}, nil
}

// Disponible siempre responde que sí.
func (c *ClienteSimulado) Disponible(_ context.Context) bool { return true }
