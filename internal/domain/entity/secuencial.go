package entity

import "time"

// Secuencial contador monótono por (establecimiento, punto de emisión, tipo de
// comprobante). La asignación concurrente se serializa con bloqueo por fila.
type Secuencial struct {
	ID              string
	EmisorID        string
	Establecimiento string
	PuntoEmision    string
	TipoComprobante string
	Actual          int64 // último valor asignado
	UpdatedAt       time.Time
}

// AjusteSecuencial registro append-only de un ajuste manual del secuencial.
// Solo se admite subir el contador; bajarlo se rechaza.
type AjusteSecuencial struct {
	ID            string
	SecuencialID  string
	ValorAnterior int64
	ValorNuevo    int64
	Justificacion string
	Actor         string
	Fecha         time.Time
}
