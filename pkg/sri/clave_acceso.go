// Cálculo de la clave de acceso de 49 dígitos según la Ficha Técnica SRI.
// Estructura: fecha (8, ddmmaaaa) + tipo de comprobante (2) + RUC (13) +
// ambiente (1) + serie (6) + secuencial (9) + código numérico (8) +
// tipo de emisión (1) + dígito verificador módulo 11 (1).

package sri

import (
	"fmt"
	"time"
)

// ClaveAccesoParams datos para construir la clave de acceso.
type ClaveAccesoParams struct {
	FechaEmision    time.Time
	TipoComprobante string // Tabla 3, dos dígitos
	RUCEmisor       string // 13 dígitos
	Ambiente        string // "1" pruebas, "2" producción
	Establecimiento string // 3 dígitos
	PuntoEmision    string // 3 dígitos
	Secuencial      int64  // 1..999999999
	CodigoNumerico  string // 8 dígitos, elegido por el emisor
	TipoEmision     string // "1" normal, "2" contingencia
}

// BuildClaveAcceso construye la clave de acceso de 49 dígitos. Una longitud
// distinta de 49 es un bug de construcción, no un error de usuario: los campos
// se validan antes de concatenar.
func BuildClaveAcceso(p ClaveAccesoParams) (string, error) {
	if !TiposComprobanteValidos[p.TipoComprobante] {
		return "", fmt.Errorf("sri: tipo de comprobante %q no soportado", p.TipoComprobante)
	}
	if err := ValidarRUC(p.RUCEmisor); err != nil {
		return "", fmt.Errorf("sri: clave de acceso: %w", err)
	}
	if p.Ambiente != AmbientePruebas && p.Ambiente != AmbienteProduccion {
		return "", fmt.Errorf("sri: ambiente %q inválido", p.Ambiente)
	}
	if p.TipoEmision != EmisionNormal && p.TipoEmision != EmisionContingencia {
		return "", fmt.Errorf("sri: tipo de emisión %q inválido", p.TipoEmision)
	}
	if len(p.Establecimiento) != 3 || !esNumerica(p.Establecimiento) {
		return "", fmt.Errorf("sri: establecimiento debe tener 3 dígitos, es %q", p.Establecimiento)
	}
	if len(p.PuntoEmision) != 3 || !esNumerica(p.PuntoEmision) {
		return "", fmt.Errorf("sri: punto de emisión debe tener 3 dígitos, es %q", p.PuntoEmision)
	}
	if p.Secuencial < 1 || p.Secuencial > 999999999 {
		return "", fmt.Errorf("sri: secuencial %d fuera del rango 1..999999999", p.Secuencial)
	}
	if len(p.CodigoNumerico) != 8 || !esNumerica(p.CodigoNumerico) {
		return "", fmt.Errorf("sri: código numérico debe tener 8 dígitos, es %q", p.CodigoNumerico)
	}

	base := p.FechaEmision.Format("02012006") +
		p.TipoComprobante +
		p.RUCEmisor +
		p.Ambiente +
		p.Establecimiento + p.PuntoEmision +
		fmt.Sprintf("%09d", p.Secuencial) +
		p.CodigoNumerico +
		p.TipoEmision

	if len(base) != 48 {
		return "", fmt.Errorf("sri: clave de acceso base con %d dígitos, esperados 48", len(base))
	}
	clave := base + string('0'+byte(DigitoModulo11(base)))
	return clave, nil
}

// VerificarClaveAcceso comprueba longitud, composición numérica y que el
// dígito 49 sea el verificador módulo 11 de los 48 anteriores.
func VerificarClaveAcceso(clave string) error {
	if len(clave) != 49 {
		return fmt.Errorf("sri: clave de acceso debe tener 49 dígitos, tiene %d", len(clave))
	}
	if !esNumerica(clave) {
		return fmt.Errorf("sri: clave de acceso debe ser numérica")
	}
	esperado := DigitoModulo11(clave[:48])
	if recibido := int(clave[48] - '0'); recibido != esperado {
		return fmt.Errorf("sri: dígito verificador de clave de acceso inválido: esperado %d, recibido %d", esperado, recibido)
	}
	return nil
}

// DigitoModulo11 calcula el verificador módulo 11 con pesos 2..7 cíclicos
// aplicados de derecha a izquierda. Resultados 11 y 10 colapsan a 0 y 1.
func DigitoModulo11(digitos string) int {
	peso := 2
	suma := 0
	for i := len(digitos) - 1; i >= 0; i-- {
		suma += int(digitos[i]-'0') * peso
		peso++
		if peso > 7 {
			peso = 2
		}
	}
	dv := 11 - suma%11
	switch dv {
	case 11:
		return 0
	case 10:
		return 1
	default:
		return dv
	}
}
