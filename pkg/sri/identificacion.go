package sri

import (
	"fmt"
	"unicode"
)

// coeficientes módulo 11 para RUC de entidad pública (tercer dígito 6).
// Se aplican a los 8 primeros dígitos; el noveno es el verificador.
var coefRUCPublico = [8]int{3, 2, 7, 6, 5, 4, 3, 2}

// coeficientes módulo 11 para RUC de sociedad privada (tercer dígito 9).
// Se aplican a los 9 primeros dígitos; el décimo es el verificador.
var coefRUCSociedad = [9]int{4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidarIdentificacion valida un número de identificación según su tipo
// (Tabla 6 de la Ficha Técnica). Retorna nil si es válido; nunca entra en
// pánico por entradas malformadas, solo reporta la razón del rechazo.
func ValidarIdentificacion(tipo, valor string) error {
	switch tipo {
	case IdentificacionRUC:
		return ValidarRUC(valor)
	case IdentificacionCedula:
		return ValidarCedula(valor)
	case IdentificacionPasaporte:
		if l := len(valor); l < 3 || l > 20 {
			return fmt.Errorf("sri: pasaporte debe tener entre 3 y 20 caracteres, tiene %d", l)
		}
		return nil
	case IdentificacionConsumidorFinal:
		if valor != ConsumidorFinal {
			return fmt.Errorf("sri: consumidor final debe ser %s", ConsumidorFinal)
		}
		return nil
	case IdentificacionExterior:
		if valor == "" {
			return fmt.Errorf("sri: identificación del exterior no puede ser vacía")
		}
		return nil
	default:
		return fmt.Errorf("sri: tipo de identificación desconocido %q", tipo)
	}
}

// EsIdentificacionValida versión booleana de ValidarIdentificacion.
func EsIdentificacionValida(tipo, valor string) bool {
	return ValidarIdentificacion(tipo, valor) == nil
}

// ValidarCedula valida una cédula ecuatoriana de 10 dígitos:
// provincia 01-24, tercer dígito 0-5 y dígito verificador módulo 10 con
// coeficientes alternados 2,1 (productos >= 10 restan 9).
func ValidarCedula(cedula string) error {
	if !esNumerica(cedula) {
		return fmt.Errorf("sri: cédula debe contener solo dígitos")
	}
	if len(cedula) != 10 {
		return fmt.Errorf("sri: cédula debe tener 10 dígitos, tiene %d", len(cedula))
	}
	provincia := int(cedula[0]-'0')*10 + int(cedula[1]-'0')
	if provincia < 1 || provincia > 24 {
		return fmt.Errorf("sri: código de provincia %02d fuera del rango 01-24", provincia)
	}
	if tercero := int(cedula[2] - '0'); tercero > 5 {
		return fmt.Errorf("sri: tercer dígito de cédula debe estar entre 0 y 5, es %d", tercero)
	}
	var suma int
	for i := 0; i < 9; i++ {
		producto := int(cedula[i] - '0')
		if i%2 == 0 {
			producto *= 2
			if producto >= 10 {
				producto -= 9
			}
		}
		suma += producto
	}
	esperado := (10 - suma%10) % 10
	if recibido := int(cedula[9] - '0'); recibido != esperado {
		return fmt.Errorf("sri: dígito verificador de cédula inválido: esperado %d, recibido %d", esperado, recibido)
	}
	return nil
}

// ValidarRUC valida un RUC ecuatoriano de 13 dígitos terminado en "001".
// El tercer dígito discrimina el algoritmo: 0-5 persona natural (los 10
// primeros dígitos son una cédula), 6 entidad pública, 9 sociedad privada.
func ValidarRUC(ruc string) error {
	if !esNumerica(ruc) {
		return fmt.Errorf("sri: RUC debe contener solo dígitos")
	}
	if len(ruc) != 13 {
		return fmt.Errorf("sri: RUC debe tener 13 dígitos, tiene %d", len(ruc))
	}
	if ruc[10:] != "001" {
		return fmt.Errorf("sri: RUC debe terminar en 001, termina en %s", ruc[10:])
	}
	tercero := int(ruc[2] - '0')
	switch {
	case tercero <= 5:
		// Persona natural: cédula + 001.
		if err := ValidarCedula(ruc[:10]); err != nil {
			return fmt.Errorf("sri: RUC de persona natural: %w", err)
		}
		return nil
	case tercero == 6:
		return validarModulo11(ruc, coefRUCPublico[:], 8)
	case tercero == 9:
		return validarModulo11(ruc, coefRUCSociedad[:], 9)
	default:
		return fmt.Errorf("sri: tercer dígito de RUC inválido: %d", tercero)
	}
}

// validarModulo11 calcula el verificador módulo 11 de los primeros posVerif
// dígitos y lo compara contra el dígito en la posición posVerif.
func validarModulo11(ruc string, coeficientes []int, posVerif int) error {
	var suma int
	for i, c := range coeficientes {
		suma += int(ruc[i]-'0') * c
	}
	residuo := suma % 11
	esperado := 0
	if residuo != 0 {
		esperado = 11 - residuo
	}
	if esperado == 10 {
		return fmt.Errorf("sri: RUC con verificador imposible (residuo 1)")
	}
	if recibido := int(ruc[posVerif] - '0'); recibido != esperado {
		return fmt.Errorf("sri: dígito verificador de RUC inválido: esperado %d, recibido %d", esperado, recibido)
	}
	return nil
}

func esNumerica(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > '9' {
			return false
		}
	}
	return true
}
