package sri_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrasri "github.com/facturaec/sri-core/internal/infrastructure/sri"

	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/sri"
)

func comprobanteFactura() *entity.Comprobante {
	fecha := time.Date(2024, 8, 23, 0, 0, 0, 0, time.UTC)
	return &entity.Comprobante{
		TipoComprobante: sri.TipoFactura,
		Version:         entity.Version110,
		Ambiente:        sri.AmbientePruebas,
		TipoEmision:     sri.EmisionNormal,
		RUCEmisor:       "1792146739001",
		RazonSocial:     "COMERCIAL EL AHORRO S.A.",
		NombreComercial: "El Ahorro",
		DireccionMatriz: "Av. Amazonas N21-147, Quito",
		ClaveAcceso:     "2308202401179214673900110010010000000011234567813",
		Establecimiento: "001",
		PuntoEmision:    "001",
		Secuencial:      1,
		FechaEmision:    fecha,

		ContraparteTipoID:         sri.IdentificacionCedula,
		ContraparteIdentificacion: "1710034065",
		ContraparteRazonSocial:    "Juan Pérez",

		TotalSinImpuestos: decimal.RequireFromString("100.00"),
		TotalDescuento:    decimal.Zero,
		TotalImpuestos:    decimal.RequireFromString("15.00"),
		ImporteTotal:      decimal.RequireFromString("115.00"),

		Detalles: []*entity.Detalle{{
			NumeroLinea:            1,
			CodigoPrincipal:        "PROD-001",
			Descripcion:            "Producto gravado",
			Cantidad:               decimal.RequireFromString("2"),
			PrecioUnitario:         decimal.RequireFromString("50"),
			Descuento:              decimal.Zero,
			PrecioTotalSinImpuesto: decimal.RequireFromString("100.00"),
			Impuestos: []*entity.ImpuestoDetalle{{
				CodigoImpuesto: "2",
				CodigoTarifa:   "4",
				Tarifa:         decimal.RequireFromString("15"),
				BaseImponible:  decimal.RequireFromString("100.00"),
				Valor:          decimal.RequireFromString("15.00"),
			}},
		}},
	}
}

func parsear(t *testing.T, xmlBytes []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(xmlBytes))
	return doc
}

func textoDe(t *testing.T, doc *etree.Document, ruta string) string {
	t.Helper()
	el := doc.FindElement(ruta)
	require.NotNil(t, el, "debe existir el elemento %s", ruta)
	return el.Text()
}

func TestConstruirFactura(t *testing.T) {
	c := comprobanteFactura()
	xmlBytes, err := infrasri.NewConstructorXML().Construir(c)
	require.NoError(t, err)

	doc := parsear(t, xmlBytes)
	raiz := doc.Root()
	require.NotNil(t, raiz)
	assert.Equal(t, "factura", raiz.Tag)
	assert.Equal(t, "comprobante", raiz.SelectAttrValue("id", ""))
	assert.Equal(t, "1.1.0", raiz.SelectAttrValue("version", ""))

	assert.Equal(t, c.ClaveAcceso, textoDe(t, doc, "//infoTributaria/claveAcceso"))
	assert.Equal(t, "01", textoDe(t, doc, "//infoTributaria/codDoc"))
	assert.Equal(t, "000000001", textoDe(t, doc, "//infoTributaria/secuencial"),
		"el secuencial va con cero-padding a 9 dígitos")
	assert.Equal(t, "23/08/2024", textoDe(t, doc, "//infoFactura/fechaEmision"),
		"la fecha va en formato dd/mm/aaaa")
	assert.Equal(t, "DOLAR", textoDe(t, doc, "//infoFactura/moneda"))
	assert.Equal(t, "115.00", textoDe(t, doc, "//infoFactura/importeTotal"))

	// Totales agrupados por (codigo, codigoPorcentaje)
	assert.Equal(t, "2", textoDe(t, doc, "//totalConImpuestos/totalImpuesto/codigo"))
	assert.Equal(t, "4", textoDe(t, doc, "//totalConImpuestos/totalImpuesto/codigoPorcentaje"))
	assert.Equal(t, "100.00", textoDe(t, doc, "//totalConImpuestos/totalImpuesto/baseImponible"))

	// Detalle
	assert.Equal(t, "2.000000", textoDe(t, doc, "//detalles/detalle/cantidad"),
		"v1.1.0 lleva cantidades con 6 decimales")
	assert.Equal(t, "15.00", textoDe(t, doc, "//detalle/impuestos/impuesto/valor"))
}

func TestConstruirCantidadSegunVersion(t *testing.T) {
	c := comprobanteFactura()
	c.Version = entity.Version100

	xmlBytes, err := infrasri.NewConstructorXML().Construir(c)
	require.NoError(t, err)

	doc := parsear(t, xmlBytes)
	assert.Equal(t, "1.0.0", doc.Root().SelectAttrValue("version", ""))
	assert.Equal(t, "2.00", textoDe(t, doc, "//detalles/detalle/cantidad"),
		"v1.0.0 lleva cantidades con 2 decimales")
}

func TestConstruirGuiaRemisionSinMontos(t *testing.T) {
	c := comprobanteFactura()
	c.TipoComprobante = sri.TipoGuiaRemision
	c.ContraparteTipoID = sri.IdentificacionRUC
	c.ContraparteIdentificacion = "0992345678001"
	c.ContraparteRazonSocial = "Transportes Andinos S.A."

	xmlBytes, err := infrasri.NewConstructorXML().Construir(c)
	require.NoError(t, err)

	doc := parsear(t, xmlBytes)
	assert.Equal(t, "guiaRemision", doc.Root().Tag)
	assert.Equal(t, "0992345678001", textoDe(t, doc, "//infoGuiaRemision/rucTransportista"))
	assert.Nil(t, doc.FindElement("//importeTotal"), "la guía no lleva montos")
	assert.Nil(t, doc.FindElement("//detalles"), "la guía no lleva detalles de venta")
}

func TestConstruirRetencionSujetoRetenido(t *testing.T) {
	c := comprobanteFactura()
	c.TipoComprobante = sri.TipoComprobanteRetencion

	xmlBytes, err := infrasri.NewConstructorXML().Construir(c)
	require.NoError(t, err)

	doc := parsear(t, xmlBytes)
	assert.Equal(t, "comprobanteRetencion", doc.Root().Tag)
	assert.Equal(t, "1710034065", textoDe(t, doc, "//infoCompRetencion/identificacionSujetoRetenido"))
}

func TestConstruirTipoDesconocido(t *testing.T) {
	c := comprobanteFactura()
	c.TipoComprobante = "99"

	_, err := infrasri.NewConstructorXML().Construir(c)
	assert.Error(t, err)
}
