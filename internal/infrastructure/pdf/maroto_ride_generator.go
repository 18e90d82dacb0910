// Package pdf implementa la generación del RIDE (Representación Impresa del
// Documento Electrónico) de comprobantes autorizados por el SRI.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC  │  N° Documento + Fecha        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  AUTORIZACIÓN: clave de acceso + número + fecha             │
//	│  CONTRAPARTE: razón social + identificación                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Dcto | Subtotal       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Impuestos / VALOR TOTAL    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR de validación + leyenda                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/facturaec/sri-core/internal/domain/entity"
	sricat "github.com/facturaec/sri-core/pkg/sri"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// titulosPorTipo títulos del RIDE por tipo de comprobante (Tabla 3).
var titulosPorTipo = map[string]string{
	sricat.TipoFactura:              "FACTURA",
	sricat.TipoNotaCredito:          "NOTA DE CRÉDITO",
	sricat.TipoLiquidacionCompra:    "LIQUIDACIÓN DE COMPRA",
	sricat.TipoComprobanteRetencion: "COMPROBANTE DE RETENCIÓN",
	sricat.TipoGuiaRemision:         "GUÍA DE REMISIÓN",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// GeneradorRIDE genera el RIDE de un comprobante autorizado usando Maroto v2.
type GeneradorRIDE struct{}

// NewGeneradorRIDE construye el generador.
func NewGeneradorRIDE() *GeneradorRIDE { return &GeneradorRIDE{} }

// GenerarRIDE genera el PDF y devuelve sus bytes.
func (g *GeneradorRIDE) GenerarRIDE(_ context.Context, c *entity.Comprobante) ([]byte, error) {
	titulo, ok := titulosPorTipo[c.TipoComprobante]
	if !ok {
		return nil, fmt.Errorf("pdf: tipo de comprobante desconocido %q", c.TipoComprobante)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(titulo+" "+c.ClaveAcceso, true).
		WithAuthor(c.RazonSocial, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(c, titulo))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(autorizacionRows(c)...)
	m.AddRows(contraparteRow(c))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(c.Detalles) > 0 {
		m.AddRows(tableHeaderRow())
		for _, r := range tableDetailRows(c.Detalles) {
			m.AddRows(r)
		}
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(totalsRow(c))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(c, titulo) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + RUC (izq) y número de documento + fecha (der).
func headerRow(c *entity.Comprobante, titulo string) core.Row {
	numero := fmt.Sprintf("%s-%s-%09d", c.Establecimiento, c.PuntoEmision, c.Secuencial)
	fecha := c.FechaEmision.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(c.RazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RUC: "+c.RUCEmisor, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(titulo, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(numero, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// autorizacionRows: clave de acceso y datos de autorización del SRI.
func autorizacionRows(c *entity.Comprobante) []core.Row {
	ambiente := "PRUEBAS"
	if c.Ambiente == sricat.AmbienteProduccion {
		ambiente = "PRODUCCIÓN"
	}
	rows := []core.Row{
		row.New(9).Add(col.New(12).Add(
			text.New("CLAVE DE ACCESO", props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
			}),
			text.New(c.ClaveAcceso, props.Text{Size: 8, Top: 5, Color: colorGray}),
		)),
	}
	if c.NumeroAutorizacion != "" {
		fechaAut := "—"
		if c.FechaAutorizacion != nil {
			fechaAut = c.FechaAutorizacion.Format("02/01/2006 15:04:05")
		}
		rows = append(rows, row.New(9).Add(col.New(12).Add(
			text.New("NÚMERO DE AUTORIZACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Fecha: %s   |   Ambiente: %s",
				c.NumeroAutorizacion, fechaAut, ambiente,
			), props.Text{Size: 8, Top: 5, Color: colorGray}),
		)))
	}
	return rows
}

// contraparteRow: datos del comprador, proveedor o sujeto retenido.
func contraparteRow(c *entity.Comprobante) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("ADQUIRIENTE / CONTRAPARTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.ContraparteRazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New("Identificación: "+c.ContraparteIdentificacion, props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Dcto.", 1, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea de detalle.
func tableDetailRows(detalles []*entity.Detalle) []core.Row {
	result := make([]core.Row, 0, len(detalles))
	for _, d := range detalles {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				d.Cantidad.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				d.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+d.PrecioUnitario.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				"$"+d.Descuento.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1},
			)),
			col.New(3).Add(text.New(
				"$"+d.PrecioTotalSinImpuesto.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(c *entity.Comprobante) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(32).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal sin impuestos:"),
			label("Descuento:"),
			label("Impuestos:"),
			grandLabel("VALOR TOTAL:"),
		),
		col.New(3).Add(
			value("$"+c.TotalSinImpuestos.StringFixed(2)),
			value("$"+c.TotalDescuento.StringFixed(2)),
			value("$"+c.TotalImpuestos.StringFixed(2)),
			grandValue("$"+c.ImporteTotal.StringFixed(2)),
		),
		col.New(3),
	)
}

// footerRows: QR de validación + leyenda.
func footerRows(c *entity.Comprobante, titulo string) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN ELECTRÓNICA SRI", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	// Cadena de validación: clave de acceso + autorización, para consulta en
	// el portal de comprobantes electrónicos del SRI.
	qr := CadenaValidacion(c)
	rows = append(rows, row.New(50).Add(
		col.New(4).Add(code.NewQr(qr, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Escanea el código QR para validar\neste comprobante en el portal del SRI.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Representación impresa de\n"+titulo+" ELECTRÓNICA", props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 22,
				Left: 3, Color: colorPrimary,
			}),
		),
	))

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Este RIDE es la representación impresa de un comprobante electrónico "+
				"autorizado por el Servicio de Rentas Internas. "+
				"Conserve este documento como soporte tributario.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// CadenaValidacion arma la línea de validación que viaja en el QR del RIDE.
func CadenaValidacion(c *entity.Comprobante) string {
	s := "claveAcceso=" + c.ClaveAcceso
	if c.NumeroAutorizacion != "" {
		s += "&numeroAutorizacion=" + c.NumeroAutorizacion
	}
	if c.FechaAutorizacion != nil {
		s += "&fechaAutorizacion=" + c.FechaAutorizacion.Format("2006-01-02T15:04:05")
	}
	return s
}
