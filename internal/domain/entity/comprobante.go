package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado del ciclo de vida de un comprobante electrónico.
type Estado string

// Estados del ciclo de vida. AUTORIZADO y ANULADO son terminales, con la
// excepción de negocio AUTORIZADO → ANULADO (anulación posterior).
const (
	EstadoCreado     Estado = "CREADO"     // Persistido, secuencial y clave de acceso asignados
	EstadoFirmado    Estado = "FIRMADO"    // XML firmado con el certificado del emisor
	EstadoEnviado    Estado = "ENVIADO"    // Recibido por el WS de recepción del SRI
	EstadoAutorizado Estado = "AUTORIZADO" // Autorizado por el SRI (número y fecha registrados)
	EstadoRechazado  Estado = "RECHAZADO"  // Devuelto o no autorizado, con errores estructurados
	EstadoAnulado    Estado = "ANULADO"    // Anulación explícita con motivo y usuario
)

// VersionEsquema versión del esquema XML del SRI declarada por el comprobante.
type VersionEsquema string

// Versiones de esquema soportadas.
const (
	Version100 VersionEsquema = "1.0.0"
	Version110 VersionEsquema = "1.1.0"
	Version200 VersionEsquema = "2.0.0"
	Version210 VersionEsquema = "2.1.0"
)

// Comprobante es la raíz del agregado: cualquiera de los cinco tipos de
// documento (factura, nota de crédito, liquidación de compra, comprobante de
// retención, guía de remisión). Posee en exclusiva sus detalles y su historial.
type Comprobante struct {
	ID              string
	IDExterno       string // correlación con el sistema emisor
	TipoComprobante string // Tabla 3 (01, 03, 04, 06, 07)
	Version         VersionEsquema
	Ambiente        string // "1" pruebas, "2" producción
	TipoEmision     string // "1" normal, "2" contingencia

	// Snapshot del emisor al momento de la emisión.
	RUCEmisor         string
	RazonSocial       string
	NombreComercial   string
	DireccionMatriz   string

	ClaveAcceso     string // 49 dígitos, único global
	Establecimiento string // 3 dígitos
	PuntoEmision    string // 3 dígitos
	Secuencial      int64  // único por (emisor, establecimiento, punto, tipo)
	FechaEmision    time.Time

	// Snapshot de la contraparte (comprador, proveedor o transportista).
	ContraparteTipoID         string
	ContraparteIdentificacion string
	ContraparteRazonSocial    string
	ContraparteDireccion      string

	Estado Estado

	// Totales declarados; deben cuadrar con los detalles dentro de ±0.01.
	TotalSinImpuestos decimal.Decimal
	TotalDescuento    decimal.Decimal
	TotalImpuestos    decimal.Decimal
	ImporteTotal      decimal.Decimal

	// Bookkeeping de la interacción con el SRI.
	XMLFirmado          string
	NumeroAutorizacion  string
	FechaAutorizacion   *time.Time
	Reintentos          int
	RequiereReenvio     bool
	ProximoReintento    *time.Time

	// Anulación.
	MotivoAnulacion  string
	AnuladoPor       string

	Detalles []*Detalle

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Serie devuelve el par establecimiento-punto de emisión (ej: "001-002").
func (c *Comprobante) Serie() string {
	return c.Establecimiento + "-" + c.PuntoEmision
}

// EsTerminal reporta si el estado actual no admite más transiciones automáticas.
func (c *Comprobante) EsTerminal() bool {
	return c.Estado == EstadoAutorizado || c.Estado == EstadoAnulado
}

// NecesitaReintento regla de reintento del ciclo de vida: menos de
// MaxReintentos intentos, estado no terminal y reenvío marcado pendiente.
func (c *Comprobante) NecesitaReintento() bool {
	return c.Reintentos < MaxReintentos && !c.EsTerminal() && c.RequiereReenvio
}

// MaxReintentos tope de reintentos automáticos; superado, el fallo es
// permanente y requiere intervención manual.
const MaxReintentos = 3
