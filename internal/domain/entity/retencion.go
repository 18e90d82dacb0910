package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CodigoRetencion entrada del catálogo de retenciones, análoga a Tarifa pero
// acotada además por tipo de contribuyente y régimen.
type CodigoRetencion struct {
	ID                string
	CodigoImpuesto    string // "1" renta, "2" IVA (retenciones)
	Codigo            string // código SRI (ej: "303" honorarios)
	Descripcion       string
	Porcentaje        decimal.Decimal
	TipoContribuyente string // "natural" | "sociedad" | "" (cualquiera)
	Regimen           string // "general" | "rimpe" | "especial" | "" (cualquiera)
	VigenciaDesde     time.Time
	VigenciaHasta     *time.Time
	Activa            bool
	Reglas            []*ReglaElegibilidad
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// VigenteEn reporta si el código está activo y vigente en la fecha.
func (c *CodigoRetencion) VigenteEn(fecha time.Time) bool {
	if !c.Activa || fecha.Before(c.VigenciaDesde) {
		return false
	}
	return c.VigenciaHasta == nil || !fecha.After(*c.VigenciaHasta)
}

// ReglaElegibilidad predicado campo/operador/valor evaluado contra la solicitud
// de retención. Operadores soportados: >, >=, <, <=, =, !=, in, not_in.
type ReglaElegibilidad struct {
	ID                string
	CodigoRetencionID string
	Campo             string
	Operador          string
	Valor             string   // valor escalar para operadores de comparación
	Valores           []string // lista para in / not_in
}
