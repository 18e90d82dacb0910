package entity

import "github.com/shopspring/decimal"

// Detalle representa una línea de producto o servicio de un comprobante.
// El orden lo da NumeroLinea (base 1).
type Detalle struct {
	ID             string
	ComprobanteID  string
	NumeroLinea    int
	CodigoPrincipal string
	CodigoAuxiliar  string
	Descripcion    string
	Cantidad       decimal.Decimal // 6 decimales desde v1.1.0; 2 en v1.0.0
	PrecioUnitario decimal.Decimal
	Descuento      decimal.Decimal
	PrecioTotalSinImpuesto decimal.Decimal // cantidad × precio − descuento, redondeado por versión
	Impuestos      []*ImpuestoDetalle
}

// ImpuestoDetalle es un impuesto aplicado a una línea (IVA, ICE o IRBPNR).
type ImpuestoDetalle struct {
	ID            string
	DetalleID     string
	CodigoImpuesto string          // Tabla 16: "2" IVA, "3" ICE, "5" IRBPNR
	CodigoTarifa   string          // Tabla 17 (porcentajeCodigo)
	Tarifa         decimal.Decimal // porcentaje declarado
	BaseImponible  decimal.Decimal
	Valor          decimal.Decimal // monto declarado; se recalcula y compara
}
