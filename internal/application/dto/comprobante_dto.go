// Package dto define los contratos de entrada/salida de la API.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturaec/sri-core/internal/domain/entity"
)

// ImpuestoRequest impuesto declarado sobre una línea.
type ImpuestoRequest struct {
	Codigo           string          `json:"codigo"`            // Tabla 16: "2" IVA, "3" ICE, "5" IRBPNR
	CodigoPorcentaje string          `json:"codigo_porcentaje"` // Tabla 17
	Tarifa           decimal.Decimal `json:"tarifa"`
	BaseImponible    decimal.Decimal `json:"base_imponible"`
	Valor            decimal.Decimal `json:"valor"`
}

// DetalleRequest línea declarada del comprobante.
type DetalleRequest struct {
	CodigoPrincipal        string            `json:"codigo_principal"`
	CodigoAuxiliar         string            `json:"codigo_auxiliar,omitempty"`
	Descripcion            string            `json:"descripcion"`
	Cantidad               decimal.Decimal   `json:"cantidad"`
	PrecioUnitario         decimal.Decimal   `json:"precio_unitario"`
	Descuento              decimal.Decimal   `json:"descuento"`
	PrecioTotalSinImpuesto decimal.Decimal   `json:"precio_total_sin_impuesto"`
	CategoriaProducto      string            `json:"categoria_producto,omitempty"`
	Impuestos              []ImpuestoRequest `json:"impuestos"`
}

// ContraparteRequest comprador, proveedor o transportista del comprobante.
type ContraparteRequest struct {
	TipoIdentificacion string `json:"tipo_identificacion"` // Tabla 6
	Identificacion     string `json:"identificacion"`
	RazonSocial        string `json:"razon_social"`
	Direccion          string `json:"direccion,omitempty"`
}

// CrearComprobanteRequest petición de emisión de un comprobante.
type CrearComprobanteRequest struct {
	IDExterno         string             `json:"id_externo,omitempty"`
	TipoComprobante   string             `json:"tipo_comprobante"` // Tabla 3
	Version           string             `json:"version"`          // 1.0.0 | 1.1.0 | 2.0.0 | 2.1.0
	EmisorID          string             `json:"emisor_id"`
	Establecimiento   string             `json:"establecimiento"` // 3 dígitos
	PuntoEmision      string             `json:"punto_emision"`   // 3 dígitos
	FechaEmision      time.Time          `json:"fecha_emision"`
	Contraparte       ContraparteRequest `json:"contraparte"`
	Detalles          []DetalleRequest   `json:"detalles"`
	TotalSinImpuestos decimal.Decimal    `json:"total_sin_impuestos"`
	TotalDescuento    decimal.Decimal    `json:"total_descuento"`
	TotalImpuestos    decimal.Decimal    `json:"total_impuestos"`
	ImporteTotal      decimal.Decimal    `json:"importe_total"`
}

// ComprobanteResponse proyección del comprobante para la API.
type ComprobanteResponse struct {
	ID                 string          `json:"id"`
	IDExterno          string          `json:"id_externo,omitempty"`
	TipoComprobante    string          `json:"tipo_comprobante"`
	Version            string          `json:"version"`
	Ambiente           string          `json:"ambiente"`
	ClaveAcceso        string          `json:"clave_acceso"`
	Serie              string          `json:"serie"`
	Secuencial         int64           `json:"secuencial"`
	FechaEmision       time.Time       `json:"fecha_emision"`
	Estado             string          `json:"estado"`
	RUCEmisor          string          `json:"ruc_emisor"`
	RazonSocial        string          `json:"razon_social"`
	Contraparte        string          `json:"contraparte"`
	TotalSinImpuestos  decimal.Decimal `json:"total_sin_impuestos"`
	TotalDescuento     decimal.Decimal `json:"total_descuento"`
	TotalImpuestos     decimal.Decimal `json:"total_impuestos"`
	ImporteTotal       decimal.Decimal `json:"importe_total"`
	NumeroAutorizacion string          `json:"numero_autorizacion,omitempty"`
	FechaAutorizacion  *time.Time      `json:"fecha_autorizacion,omitempty"`
	Reintentos         int             `json:"reintentos"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewComprobanteResponse proyecta la entidad al contrato de la API.
func NewComprobanteResponse(c *entity.Comprobante) *ComprobanteResponse {
	return &ComprobanteResponse{
		ID:                 c.ID,
		IDExterno:          c.IDExterno,
		TipoComprobante:    c.TipoComprobante,
		Version:            string(c.Version),
		Ambiente:           c.Ambiente,
		ClaveAcceso:        c.ClaveAcceso,
		Serie:              c.Serie(),
		Secuencial:         c.Secuencial,
		FechaEmision:       c.FechaEmision,
		Estado:             string(c.Estado),
		RUCEmisor:          c.RUCEmisor,
		RazonSocial:        c.RazonSocial,
		Contraparte:        c.ContraparteRazonSocial,
		TotalSinImpuestos:  c.TotalSinImpuestos,
		TotalDescuento:     c.TotalDescuento,
		TotalImpuestos:     c.TotalImpuestos,
		ImporteTotal:       c.ImporteTotal,
		NumeroAutorizacion: c.NumeroAutorizacion,
		FechaAutorizacion:  c.FechaAutorizacion,
		Reintentos:         c.Reintentos,
		CreatedAt:          c.CreatedAt,
	}
}

// HistorialResponse entrada del historial de estados para la API.
type HistorialResponse struct {
	EstadoAnterior   string            `json:"estado_anterior"`
	EstadoNuevo      string            `json:"estado_nuevo"`
	Fecha            time.Time         `json:"fecha"`
	Actor            string            `json:"actor"`
	CodigoRespuesta  string            `json:"codigo_respuesta,omitempty"`
	Reintento        int               `json:"reintento"`
	ProximoReintento *time.Time        `json:"proximo_reintento,omitempty"`
	Errores          []entity.ErrorSRI `json:"errores,omitempty"`
}

// NewHistorialResponse proyecta una entrada de historial.
func NewHistorialResponse(h *entity.HistorialEstado) *HistorialResponse {
	return &HistorialResponse{
		EstadoAnterior:   string(h.EstadoAnterior),
		EstadoNuevo:      string(h.EstadoNuevo),
		Fecha:            h.Fecha,
		Actor:            h.Actor,
		CodigoRespuesta:  h.CodigoRespuesta,
		Reintento:        h.Reintento,
		ProximoReintento: h.ProximoReintento,
		Errores:          h.Errores,
	}
}

// AnularComprobanteRequest anulación explícita con motivo auditable.
type AnularComprobanteRequest struct {
	Motivo  string `json:"motivo"`
	Usuario string `json:"usuario"`
}

// CambiarTarifaRequest cambio administrativo de tarifa: cierra la vigencia de
// la fila anterior e inserta la nueva.
type CambiarTarifaRequest struct {
	TarifaAnteriorID string          `json:"tarifa_anterior_id"`
	Porcentaje       decimal.Decimal `json:"porcentaje"`
	ValorEspecifico  decimal.Decimal `json:"valor_especifico"`
	TipoCalculo      string          `json:"tipo_calculo"` // PORCENTAJE | ESPECIFICO | MIXTO
	Descripcion      string          `json:"descripcion"`
	VigenciaDesde    time.Time       `json:"vigencia_desde"`
	Motivo           string          `json:"motivo"`
	Actor            string          `json:"actor"`
}

// TarifaResponse proyección de una entrada del catálogo de tarifas.
type TarifaResponse struct {
	ID              string          `json:"id"`
	CodigoImpuesto  string          `json:"codigo_impuesto"`
	CodigoTarifa    string          `json:"codigo_tarifa"`
	Descripcion     string          `json:"descripcion"`
	TipoCalculo     string          `json:"tipo_calculo"`
	Porcentaje      decimal.Decimal `json:"porcentaje"`
	ValorEspecifico decimal.Decimal `json:"valor_especifico"`
	VigenciaDesde   time.Time       `json:"vigencia_desde"`
	VigenciaHasta   *time.Time      `json:"vigencia_hasta,omitempty"`
	Activa          bool            `json:"activa"`
}

// NewTarifaResponse proyecta la entidad.
func NewTarifaResponse(t *entity.Tarifa) *TarifaResponse {
	return &TarifaResponse{
		ID:              t.ID,
		CodigoImpuesto:  t.CodigoImpuesto,
		CodigoTarifa:    t.CodigoTarifa,
		Descripcion:     t.Descripcion,
		TipoCalculo:     string(t.TipoCalculo),
		Porcentaje:      t.Porcentaje,
		ValorEspecifico: t.ValorEspecifico,
		VigenciaDesde:   t.VigenciaDesde,
		VigenciaHasta:   t.VigenciaHasta,
		Activa:          t.Activa,
	}
}

// SecuencialResponse estado actual de un contador de secuenciales.
type SecuencialResponse struct {
	EmisorID        string `json:"emisor_id"`
	Establecimiento string `json:"establecimiento"`
	PuntoEmision    string `json:"punto_emision"`
	TipoComprobante string `json:"tipo_comprobante"`
	Actual          int64  `json:"actual"`
}

// NewSecuencialResponse proyecta la entidad.
func NewSecuencialResponse(s *entity.Secuencial) *SecuencialResponse {
	return &SecuencialResponse{
		EmisorID:        s.EmisorID,
		Establecimiento: s.Establecimiento,
		PuntoEmision:    s.PuntoEmision,
		TipoComprobante: s.TipoComprobante,
		Actual:          s.Actual,
	}
}

// AjustarSecuencialRequest ajuste manual del contador (solo hacia arriba).
type AjustarSecuencialRequest struct {
	EmisorID        string `json:"emisor_id"`
	Establecimiento string `json:"establecimiento"`
	PuntoEmision    string `json:"punto_emision"`
	TipoComprobante string `json:"tipo_comprobante"`
	NuevoValor      int64  `json:"nuevo_valor"`
	Justificacion   string `json:"justificacion"`
	Actor           string `json:"actor"`
}

// CalcularRetencionRequest consulta de cálculo de retención.
type CalcularRetencionRequest struct {
	CodigoImpuesto    string            `json:"codigo_impuesto"` // "1" renta, "2" IVA
	Codigo            string            `json:"codigo"`          // ej: "303"
	TipoContribuyente string            `json:"tipo_contribuyente"`
	Regimen           string            `json:"regimen"`
	BaseImponible     decimal.Decimal   `json:"base_imponible"`
	Fecha             time.Time         `json:"fecha"`
	Campos            map[string]string `json:"campos,omitempty"`
}

// CalcularRetencionResponse resultado del cálculo de retención.
type CalcularRetencionResponse struct {
	Codigo        string          `json:"codigo"`
	Descripcion   string          `json:"descripcion"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	BaseImponible decimal.Decimal `json:"base_imponible"`
	ValorRetenido decimal.Decimal `json:"valor_retenido"`
}

// EmisorRequest alta de emisor.
type EmisorRequest struct {
	RUC                   string `json:"ruc"`
	RazonSocial           string `json:"razon_social"`
	NombreComercial       string `json:"nombre_comercial,omitempty"`
	DireccionMatriz       string `json:"direccion_matriz"`
	ContribuyenteEspecial string `json:"contribuyente_especial,omitempty"`
	ObligadoContabilidad  bool   `json:"obligado_contabilidad"`
	Regimen               string `json:"regimen"`
	Ambiente              string `json:"ambiente"`
}

// EmisorResponse proyección del emisor (sin credenciales del certificado).
type EmisorResponse struct {
	ID                   string    `json:"id"`
	RUC                  string    `json:"ruc"`
	RazonSocial          string    `json:"razon_social"`
	NombreComercial      string    `json:"nombre_comercial,omitempty"`
	DireccionMatriz      string    `json:"direccion_matriz"`
	ObligadoContabilidad bool      `json:"obligado_contabilidad"`
	Regimen              string    `json:"regimen"`
	Ambiente             string    `json:"ambiente"`
	CreatedAt            time.Time `json:"created_at"`
}

// NewEmisorResponse proyecta la entidad.
func NewEmisorResponse(e *entity.Emisor) *EmisorResponse {
	return &EmisorResponse{
		ID:                   e.ID,
		RUC:                  e.RUC,
		RazonSocial:          e.RazonSocial,
		NombreComercial:      e.NombreComercial,
		DireccionMatriz:      e.DireccionMatriz,
		ObligadoContabilidad: e.ObligadoContabilidad,
		Regimen:              e.Regimen,
		Ambiente:             e.Ambiente,
		CreatedAt:            e.CreatedAt,
	}
}
