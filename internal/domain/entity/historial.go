package entity

import "time"

// ErrorSRI error estructurado devuelto por el WS del SRI o generado localmente.
type ErrorSRI struct {
	Codigo    string
	Mensaje   string
	Severidad string // "ERROR" | "ADVERTENCIA"
}

// HistorialEstado entrada inmutable del historial de transiciones de un
// comprobante. Se inserta una por transición, en la misma transacción que
// actualiza el estado del comprobante; nunca se actualiza ni borra.
type HistorialEstado struct {
	ID               string
	ComprobanteID    string
	EstadoAnterior   Estado
	EstadoNuevo      Estado
	Fecha            time.Time
	Actor            string // "sistema" o el usuario que disparó la transición
	RequestID        string // correlación con la llamada al WS
	CodigoRespuesta  string // estado devuelto por el SRI (RECIBIDA, DEVUELTA, ...)
	RespuestaCruda   string // payload completo de la respuesta, para auditoría
	Reintento        int
	ProximoReintento *time.Time
	Errores          []ErrorSRI
}
