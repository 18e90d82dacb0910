package calculo

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
)

// SolicitudRetencion contexto contra el que se evalúa la elegibilidad de un
// código de retención. Campos lleva los atributos ad hoc de la solicitud que
// referencian las reglas de elegibilidad.
type SolicitudRetencion struct {
	TipoContribuyente string
	Regimen           string
	BaseImponible     decimal.Decimal
	Campos            map[string]string
}

// CalcularRetencion valor retenido: round(baseImponible × porcentaje/100, 2).
func CalcularRetencion(codigo *entity.CodigoRetencion, baseImponible decimal.Decimal) decimal.Decimal {
	return baseImponible.Mul(codigo.Porcentaje).Div(decimal.NewFromInt(100)).Round(2)
}

// ValidarRetencion valida que el valor retenido declarado corresponda al
// código aplicado, tras comprobar alcance y reglas de elegibilidad.
func ValidarRetencion(codigo *entity.CodigoRetencion, solicitud *SolicitudRetencion, valorDeclarado decimal.Decimal) error {
	if err := ValidarElegibilidad(codigo, solicitud); err != nil {
		return err
	}
	calculado := CalcularRetencion(codigo, solicitud.BaseImponible)
	if !DentroDeTolerancia(valorDeclarado, calculado) {
		return &domain.DescuadreError{
			Campo:     fmt.Sprintf("retencion[%s].valorRetenido", codigo.Codigo),
			Declarado: valorDeclarado,
			Calculado: calculado,
		}
	}
	return nil
}

// ValidarElegibilidad comprueba alcance por tipo de contribuyente y régimen,
// y evalúa cada regla estructurada. Cualquier predicado no cumplido rechaza
// con la razón específica.
func ValidarElegibilidad(codigo *entity.CodigoRetencion, solicitud *SolicitudRetencion) error {
	if codigo.TipoContribuyente != "" && codigo.TipoContribuyente != solicitud.TipoContribuyente {
		return fmt.Errorf("%w: código %s aplica a contribuyente %s, solicitud es %s",
			domain.ErrReglaElegibilidad, codigo.Codigo, codigo.TipoContribuyente, solicitud.TipoContribuyente)
	}
	if codigo.Regimen != "" && codigo.Regimen != solicitud.Regimen {
		return fmt.Errorf("%w: código %s aplica a régimen %s, solicitud es %s",
			domain.ErrReglaElegibilidad, codigo.Codigo, codigo.Regimen, solicitud.Regimen)
	}
	for _, regla := range codigo.Reglas {
		cumple, err := evaluarRegla(regla, solicitud)
		if err != nil {
			return err
		}
		if !cumple {
			return fmt.Errorf("%w: campo %s %s %s no se cumple",
				domain.ErrReglaElegibilidad, regla.Campo, regla.Operador, regla.Valor)
		}
	}
	return nil
}

// evaluarRegla evalúa un predicado campo/operador/valor. El conjunto de
// operadores es cerrado: {>, >=, <, <=, =, !=, in, not_in}; uno desconocido es
// un error de regla, no un falso silencioso. Las comparaciones de orden son
// numéricas si ambos lados parsean como decimal, léxicas en caso contrario.
func evaluarRegla(regla *entity.ReglaElegibilidad, solicitud *SolicitudRetencion) (bool, error) {
	actual, ok := solicitud.Campos[regla.Campo]
	if !ok {
		return false, fmt.Errorf("%w: la solicitud no contiene el campo %q",
			domain.ErrReglaElegibilidad, regla.Campo)
	}

	switch regla.Operador {
	case "=":
		return actual == regla.Valor, nil
	case "!=":
		return actual != regla.Valor, nil
	case ">", ">=", "<", "<=":
		cmp, err := comparar(actual, regla.Valor)
		if err != nil {
			return false, err
		}
		switch regla.Operador {
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<":
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case "in":
		for _, v := range regla.Valores {
			if actual == v {
				return true, nil
			}
		}
		return false, nil
	case "not_in":
		for _, v := range regla.Valores {
			if actual == v {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: operador %q no soportado", domain.ErrReglaElegibilidad, regla.Operador)
	}
}

func comparar(a, b string) (int, error) {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.Cmp(db), nil
	}
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	default:
		return 0, nil
	}
}
