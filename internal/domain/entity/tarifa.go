package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TipoCalculo forma de cálculo de una tarifa.
type TipoCalculo string

const (
	CalculoPorcentaje TipoCalculo = "PORCENTAJE" // round(base × pct/100, 2)
	CalculoEspecifico TipoCalculo = "ESPECIFICO" // valor fijo por unidad de base
	CalculoMixto      TipoCalculo = "MIXTO"      // porcentaje + valor específico
)

// Tarifa es una entrada del catálogo de impuestos, vigente en una ventana de
// fechas. Nunca se muta para cambios de tarifa: se cierra la vigencia de la
// fila vieja y se inserta una nueva (historia preservada).
type Tarifa struct {
	ID             string
	CodigoImpuesto string // Tabla 16
	CodigoTarifa   string // Tabla 17
	Descripcion    string
	TipoCalculo    TipoCalculo
	Porcentaje     decimal.Decimal
	ValorEspecifico decimal.Decimal
	VigenciaDesde  time.Time
	VigenciaHasta  *time.Time // nil = vigencia abierta
	Activa         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VigenteEn reporta si la tarifa está activa y su ventana contiene la fecha.
func (t *Tarifa) VigenteEn(fecha time.Time) bool {
	if !t.Activa || fecha.Before(t.VigenciaDesde) {
		return false
	}
	return t.VigenciaHasta == nil || !fecha.After(*t.VigenciaHasta)
}

// HistorialTarifa registro de auditoría de un cambio administrativo de tarifa.
// Se inserta en la misma transacción que cierra la tarifa anterior y crea la nueva.
type HistorialTarifa struct {
	ID                 string
	TarifaAnteriorID   string
	TarifaNuevaID      string
	PorcentajeAnterior decimal.Decimal
	PorcentajeNuevo    decimal.Decimal
	Motivo             string
	Actor              string
	Fecha              time.Time
}

// CategoriaTarifa sobrecarga de tarifa de IVA por categoría de producto dentro
// de una ventana fija de calendario (ej: MEDICINA 0%, TURISMO 8% en feriados).
// Si la fecha de evaluación cae en la ventana, aplica en lugar del código genérico.
type CategoriaTarifa struct {
	ID            string
	Categoria     string
	Porcentaje    decimal.Decimal
	VigenciaDesde time.Time
	VigenciaHasta time.Time
	Activa        bool
}

// VigenteEn reporta si la sobrecarga aplica en la fecha dada.
func (c *CategoriaTarifa) VigenteEn(fecha time.Time) bool {
	return c.Activa && !fecha.Before(c.VigenciaDesde) && !fecha.After(c.VigenciaHasta)
}
