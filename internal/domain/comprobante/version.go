package comprobante

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/sri"
)

// GrupoCampos descriptor de campos requeridos de un tipo de comprobante bajo
// una versión de esquema, separados por grupo del XML.
type GrupoCampos struct {
	Cabecera      []string
	InfoDocumento []string
	Detalle       []string
}

// DecimalesCantidad precisión decimal de cantidad y precio unitario según la
// versión: 2 decimales en 1.0.0, 6 desde 1.1.0. El switch es exhaustivo sobre
// las cuatro versiones soportadas; una versión nueva obliga a tocar este punto.
func DecimalesCantidad(v entity.VersionEsquema) (int, error) {
	switch v {
	case entity.Version100:
		return 2, nil
	case entity.Version110, entity.Version200, entity.Version210:
		return 6, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrVersionNoSoportada, v)
	}
}

// DecimalesMoneda precisión de los campos monetarios (totales, valores de
// impuesto): siempre 2.
const DecimalesMoneda = 2

// CamposRequeridos devuelve el descriptor de campos requeridos para el par
// (tipo de comprobante, versión). Versión desconocida → ErrVersionNoSoportada.
func CamposRequeridos(tipo string, v entity.VersionEsquema) (GrupoCampos, error) {
	if !sri.TiposComprobanteValidos[tipo] {
		return GrupoCampos{}, fmt.Errorf("%w: tipo de comprobante %q", domain.ErrEntradaInvalida, tipo)
	}

	base := GrupoCampos{
		Cabecera: []string{
			"ambiente", "tipoEmision", "razonSocial", "ruc", "claveAcceso",
			"codDoc", "estab", "ptoEmi", "secuencial", "dirMatriz",
		},
		InfoDocumento: []string{
			"fechaEmision", "tipoIdentificacionContraparte",
			"identificacionContraparte", "razonSocialContraparte",
		},
		Detalle: []string{"descripcion", "cantidad", "precioUnitario", "precioTotalSinImpuesto"},
	}

	// La guía de remisión no lleva montos; el resto de tipos sí.
	if tipo != sri.TipoGuiaRemision {
		base.InfoDocumento = append(base.InfoDocumento,
			"totalSinImpuestos", "importeTotal")
	}
	if tipo == sri.TipoFactura || tipo == sri.TipoNotaCredito || tipo == sri.TipoLiquidacionCompra {
		base.InfoDocumento = append(base.InfoDocumento, "totalDescuento")
	}

	switch v {
	case entity.Version100:
		return base, nil
	case entity.Version110, entity.Version200, entity.Version210:
		// Desde 1.1.0 el código principal del producto es obligatorio en las
		// líneas, y la retención exige los campos de sustento.
		base.Detalle = append(base.Detalle, "codigoPrincipal")
		return base, nil
	default:
		return GrupoCampos{}, fmt.Errorf("%w: %q", domain.ErrVersionNoSoportada, v)
	}
}

// precisión numérica: entero con hasta N decimales opcionales.
var (
	regexDosDecimales  = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	regexSeisDecimales = regexp.MustCompile(`^\d+(\.\d{1,6})?$`)
)

func regexPrecision(decimales int) *regexp.Regexp {
	if decimales <= 2 {
		return regexDosDecimales
	}
	return regexSeisDecimales
}

// ValidarCampos valida presencia de campos requeridos y precisión numérica de
// un comprobante poblado contra las reglas de su versión. Acumula todos los
// problemas encontrados (errors.Join) en vez de cortar en el primero.
func ValidarCampos(c *entity.Comprobante) error {
	reglas, err := CamposRequeridos(c.TipoComprobante, c.Version)
	if err != nil {
		return err
	}
	decimales, err := DecimalesCantidad(c.Version)
	if err != nil {
		return err
	}

	campos := camposPoblados(c)
	var errs []error
	for _, grupo := range []struct {
		nombre string
		claves []string
	}{
		{"cabecera", reglas.Cabecera},
		{"infoDocumento", reglas.InfoDocumento},
	} {
		for _, clave := range grupo.claves {
			if campos[clave] == "" {
				errs = append(errs, fmt.Errorf("%w: falta %s.%s", domain.ErrEntradaInvalida, grupo.nombre, clave))
			}
		}
	}

	re := regexPrecision(decimales)
	reMoneda := regexPrecision(DecimalesMoneda)
	for _, d := range c.Detalles {
		for _, clave := range reglas.Detalle {
			if valorDetalle(d, clave) == "" {
				errs = append(errs, fmt.Errorf("%w: línea %d: falta detalle.%s", domain.ErrEntradaInvalida, d.NumeroLinea, clave))
			}
		}
		if !re.MatchString(d.Cantidad.Abs().String()) {
			errs = append(errs, fmt.Errorf("%w: línea %d: cantidad %s excede %d decimales",
				domain.ErrEntradaInvalida, d.NumeroLinea, d.Cantidad, decimales))
		}
		if !re.MatchString(d.PrecioUnitario.Abs().String()) {
			errs = append(errs, fmt.Errorf("%w: línea %d: precio unitario %s excede %d decimales",
				domain.ErrEntradaInvalida, d.NumeroLinea, d.PrecioUnitario, decimales))
		}
		for _, imp := range d.Impuestos {
			if !reMoneda.MatchString(imp.Valor.Abs().String()) {
				errs = append(errs, fmt.Errorf("%w: línea %d: valor de impuesto %s excede %d decimales",
					domain.ErrEntradaInvalida, d.NumeroLinea, imp.Valor, DecimalesMoneda))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// camposPoblados proyecta el comprobante al mapa de claves de esquema que
// valida ValidarCampos. Solo contiene campos representados en la entidad.
func camposPoblados(c *entity.Comprobante) map[string]string {
	secuencial := ""
	if c.Secuencial > 0 {
		secuencial = fmt.Sprintf("%09d", c.Secuencial)
	}
	fecha := ""
	if !c.FechaEmision.IsZero() {
		fecha = c.FechaEmision.Format("02/01/2006")
	}
	campos := map[string]string{
		"ambiente":                      c.Ambiente,
		"tipoEmision":                   c.TipoEmision,
		"razonSocial":                   c.RazonSocial,
		"ruc":                           c.RUCEmisor,
		"claveAcceso":                   c.ClaveAcceso,
		"codDoc":                        c.TipoComprobante,
		"estab":                         c.Establecimiento,
		"ptoEmi":                        c.PuntoEmision,
		"secuencial":                    secuencial,
		"dirMatriz":                     c.DireccionMatriz,
		"fechaEmision":                  fecha,
		"tipoIdentificacionContraparte": c.ContraparteTipoID,
		"identificacionContraparte":     c.ContraparteIdentificacion,
		"razonSocialContraparte":        c.ContraparteRazonSocial,
	}
	// Los totales cero son válidos solo si el comprobante realmente es de
	// monto cero; se consideran poblados al tener detalles.
	if len(c.Detalles) > 0 || !c.ImporteTotal.IsZero() {
		campos["totalSinImpuestos"] = c.TotalSinImpuestos.StringFixed(2)
		campos["totalDescuento"] = c.TotalDescuento.StringFixed(2)
		campos["importeTotal"] = c.ImporteTotal.StringFixed(2)
	}
	return campos
}

func valorDetalle(d *entity.Detalle, clave string) string {
	switch clave {
	case "descripcion":
		return d.Descripcion
	case "cantidad":
		if d.Cantidad.IsZero() {
			return ""
		}
		return d.Cantidad.String()
	case "precioUnitario":
		return d.PrecioUnitario.String()
	case "precioTotalSinImpuesto":
		return d.PrecioTotalSinImpuesto.String()
	case "codigoPrincipal":
		return d.CodigoPrincipal
	default:
		return ""
	}
}
