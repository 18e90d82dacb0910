package sri

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/facturaec/sri-core/internal/domain/comprobante"
	"github.com/facturaec/sri-core/internal/domain/entity"
	sricat "github.com/facturaec/sri-core/pkg/sri"
)

// formatoFechaEmision formato de fecha de los XML del SRI.
const formatoFechaEmision = "02/01/2006"

// ConstructorXML genera el XML de un comprobante según su tipo y versión de
// esquema. El documento sale sin firma; el firmador la añade después.
type ConstructorXML struct{}

// NewConstructorXML crea el constructor.
func NewConstructorXML() *ConstructorXML {
	return &ConstructorXML{}
}

// elementos raíz por tipo de comprobante (Tabla 3).
var raicesPorTipo = map[string]struct{ raiz, info string }{
	sricat.TipoFactura:               {"factura", "infoFactura"},
	sricat.TipoNotaCredito:           {"notaCredito", "infoNotaCredito"},
	sricat.TipoLiquidacionCompra:     {"liquidacionCompra", "infoLiquidacionCompra"},
	sricat.TipoComprobanteRetencion:  {"comprobanteRetencion", "infoCompRetencion"},
	sricat.TipoGuiaRemision:          {"guiaRemision", "infoGuiaRemision"},
}

// Construir genera los bytes del XML del comprobante.
func (b *ConstructorXML) Construir(c *entity.Comprobante) ([]byte, error) {
	nombres, ok := raicesPorTipo[c.TipoComprobante]
	if !ok {
		return nil, fmt.Errorf("xml: tipo de comprobante desconocido %q", c.TipoComprobante)
	}
	decCantidad, err := comprobante.DecimalesCantidad(c.Version)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	raiz := doc.CreateElement(nombres.raiz)
	raiz.CreateAttr("id", "comprobante")
	raiz.CreateAttr("version", string(c.Version))

	b.escribirInfoTributaria(raiz, c)
	b.escribirInfoDocumento(raiz, nombres.info, c)

	if c.TipoComprobante != sricat.TipoGuiaRemision && c.TipoComprobante != sricat.TipoComprobanteRetencion {
		b.escribirDetalles(raiz, c, decCantidad)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func (b *ConstructorXML) escribirInfoTributaria(raiz *etree.Element, c *entity.Comprobante) {
	info := raiz.CreateElement("infoTributaria")
	texto(info, "ambiente", c.Ambiente)
	texto(info, "tipoEmision", c.TipoEmision)
	texto(info, "razonSocial", c.RazonSocial)
	if c.NombreComercial != "" {
		texto(info, "nombreComercial", c.NombreComercial)
	}
	texto(info, "ruc", c.RUCEmisor)
	texto(info, "claveAcceso", c.ClaveAcceso)
	texto(info, "codDoc", c.TipoComprobante)
	texto(info, "estab", c.Establecimiento)
	texto(info, "ptoEmi", c.PuntoEmision)
	texto(info, "secuencial", fmt.Sprintf("%09d", c.Secuencial))
	texto(info, "dirMatriz", c.DireccionMatriz)
}

func (b *ConstructorXML) escribirInfoDocumento(raiz *etree.Element, nombre string, c *entity.Comprobante) {
	info := raiz.CreateElement(nombre)
	texto(info, "fechaEmision", c.FechaEmision.Format(formatoFechaEmision))
	if c.ContraparteDireccion != "" {
		texto(info, "dirEstablecimiento", c.ContraparteDireccion)
	}

	switch c.TipoComprobante {
	case sricat.TipoGuiaRemision:
		// La guía de remisión no lleva montos: transportista y rutas.
		texto(info, "rucTransportista", c.ContraparteIdentificacion)
		texto(info, "razonSocialTransportista", c.ContraparteRazonSocial)
	case sricat.TipoComprobanteRetencion:
		texto(info, "tipoIdentificacionSujetoRetenido", c.ContraparteTipoID)
		texto(info, "razonSocialSujetoRetenido", c.ContraparteRazonSocial)
		texto(info, "identificacionSujetoRetenido", c.ContraparteIdentificacion)
	default:
		texto(info, "tipoIdentificacionComprador", c.ContraparteTipoID)
		texto(info, "razonSocialComprador", c.ContraparteRazonSocial)
		texto(info, "identificacionComprador", c.ContraparteIdentificacion)
		texto(info, "totalSinImpuestos", c.TotalSinImpuestos.StringFixed(2))
		texto(info, "totalDescuento", c.TotalDescuento.StringFixed(2))
		b.escribirTotalesImpuestos(info, c)
		texto(info, "importeTotal", c.ImporteTotal.StringFixed(2))
		texto(info, "moneda", "DOLAR")
	}
}

func (b *ConstructorXML) escribirTotalesImpuestos(info *etree.Element, c *entity.Comprobante) {
	// Agrupar por (código, código de porcentaje) para totalConImpuestos.
	type claveImpuesto struct{ codigo, codigoPorcentaje string }
	bases := make(map[claveImpuesto]decimal.Decimal)
	valores := make(map[claveImpuesto]decimal.Decimal)
	var orden []claveImpuesto
	for _, d := range c.Detalles {
		for _, imp := range d.Impuestos {
			k := claveImpuesto{imp.CodigoImpuesto, imp.CodigoTarifa}
			if _, visto := bases[k]; !visto {
				orden = append(orden, k)
			}
			bases[k] = bases[k].Add(imp.BaseImponible)
			valores[k] = valores[k].Add(imp.Valor)
		}
	}
	totales := info.CreateElement("totalConImpuestos")
	for _, k := range orden {
		t := totales.CreateElement("totalImpuesto")
		texto(t, "codigo", k.codigo)
		texto(t, "codigoPorcentaje", k.codigoPorcentaje)
		texto(t, "baseImponible", bases[k].Round(2).StringFixed(2))
		texto(t, "valor", valores[k].Round(2).StringFixed(2))
	}
}

func (b *ConstructorXML) escribirDetalles(raiz *etree.Element, c *entity.Comprobante, decCantidad int) {
	detalles := raiz.CreateElement("detalles")
	for _, d := range c.Detalles {
		det := detalles.CreateElement("detalle")
		if d.CodigoPrincipal != "" {
			texto(det, "codigoPrincipal", d.CodigoPrincipal)
		}
		if d.CodigoAuxiliar != "" {
			texto(det, "codigoAuxiliar", d.CodigoAuxiliar)
		}
		texto(det, "descripcion", d.Descripcion)
		texto(det, "cantidad", d.Cantidad.StringFixed(int32(decCantidad)))
		texto(det, "precioUnitario", d.PrecioUnitario.StringFixed(int32(decCantidad)))
		texto(det, "descuento", d.Descuento.StringFixed(2))
		texto(det, "precioTotalSinImpuesto", d.PrecioTotalSinImpuesto.StringFixed(2))
		impuestos := det.CreateElement("impuestos")
		for _, imp := range d.Impuestos {
			i := impuestos.CreateElement("impuesto")
			texto(i, "codigo", imp.CodigoImpuesto)
			texto(i, "codigoPorcentaje", imp.CodigoTarifa)
			texto(i, "tarifa", imp.Tarifa.StringFixed(2))
			texto(i, "baseImponible", imp.BaseImponible.StringFixed(2))
			texto(i, "valor", imp.Valor.StringFixed(2))
		}
	}
}

func texto(parent *etree.Element, nombre, valor string) {
	parent.CreateElement(nombre).SetText(valor)
}
