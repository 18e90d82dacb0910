// Package sri contiene catálogos y validaciones alineados a la Ficha Técnica
// de Comprobantes Electrónicos del SRI (Ecuador), esquemas XML 1.0.0 a 2.1.0.
package sri

// =============================================================================
// Tabla 3 - Tipos de comprobante (Ficha Técnica SRI)
// Código de dos dígitos que identifica el documento dentro de la clave de acceso.
// =============================================================================

const (
	TipoFactura             = "01" // Factura
	TipoLiquidacionCompra   = "03" // Liquidación de compra de bienes y prestación de servicios
	TipoNotaCredito         = "04" // Nota de crédito
	TipoNotaDebito          = "05" // Nota de débito
	TipoGuiaRemision        = "06" // Guía de remisión
	TipoComprobanteRetencion = "07" // Comprobante de retención
)

// TiposComprobanteValidos contiene los códigos de comprobante soportados por el motor.
var TiposComprobanteValidos = map[string]bool{
	TipoFactura: true, TipoLiquidacionCompra: true, TipoNotaCredito: true,
	TipoNotaDebito: true, TipoGuiaRemision: true, TipoComprobanteRetencion: true,
}

// =============================================================================
// Tabla 4 - Ambiente
// =============================================================================

const (
	AmbientePruebas    = "1" // Pruebas
	AmbienteProduccion = "2" // Producción
)

// =============================================================================
// Tabla 2 - Tipo de emisión
// =============================================================================

const (
	EmisionNormal       = "1" // Emisión normal
	EmisionContingencia = "2" // Emisión por indisponibilidad (contingencia)
)

// =============================================================================
// Tabla 6 - Tipos de identificación del comprador / sujeto retenido
// =============================================================================

const (
	IdentificacionRUC             = "04" // RUC (13 dígitos, termina en 001)
	IdentificacionCedula          = "05" // Cédula de identidad
	IdentificacionPasaporte       = "06" // Pasaporte
	IdentificacionConsumidorFinal = "07" // Consumidor final (9999999999999)
	IdentificacionExterior        = "08" // Identificación del exterior
)

// ConsumidorFinal es el identificador literal de venta a consumidor final.
const ConsumidorFinal = "9999999999999"

// =============================================================================
// Tabla 16 - Tipos de impuesto por línea
// =============================================================================

const (
	ImpuestoIVA    = "2" // Impuesto al Valor Agregado
	ImpuestoICE    = "3" // Impuesto a los Consumos Especiales
	ImpuestoIRBPNR = "5" // Impuesto Redimible a las Botellas Plásticas No Retornables
)

// TiposImpuestoValidos códigos de impuesto aceptados en detalles.
var TiposImpuestoValidos = map[string]bool{
	ImpuestoIVA: true, ImpuestoICE: true, ImpuestoIRBPNR: true,
}

// =============================================================================
// Tabla 17 - Tarifas de IVA (porcentajeCodigo)
// El porcentaje asociado a cada código es dato con vigencia en el catálogo de
// tarifas, no constante: el código "2" pasó de 12% a 15% en 2024.
// =============================================================================

const (
	TarifaIVACero        = "0" // 0%
	TarifaIVAGeneral     = "2" // Tarifa general vigente (12% histórico, 15% actual)
	TarifaIVACatorce     = "3" // 14% (vigencia temporal Ley Solidaria 2016-2017)
	TarifaIVANoObjeto    = "6" // No objeto de impuesto
	TarifaIVAExento      = "7" // Exento de IVA
	TarifaIVADiferenciado = "8" // 8% (zonas diferenciadas / feriados turismo)
)

// =============================================================================
// Tipos de contribuyente y regímenes para retenciones
// =============================================================================

const (
	ContribuyenteNatural  = "natural"
	ContribuyenteSociedad = "sociedad"

	RegimenGeneral  = "general"
	RegimenRIMPE    = "rimpe"
	RegimenEspecial = "especial"
)

// =============================================================================
// Estados de autorización devueltos por el WS del SRI
// =============================================================================

const (
	SRIEstadoRecibida     = "RECIBIDA"
	SRIEstadoDevuelta     = "DEVUELTA"
	SRIEstadoAutorizado   = "AUTORIZADO"
	SRIEstadoNoAutorizado = "NO AUTORIZADO"
	SRIEstadoEnProceso    = "EN PROCESO"
)
