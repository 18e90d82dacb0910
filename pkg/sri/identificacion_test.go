package sri_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/pkg/sri"
)

// ──────────────────────────────────────────────────────────────────────────────
// Cédulas y RUC de referencia. Los verificadores fueron calculados a mano con
// los algoritmos oficiales (módulo 10 con doblado para cédula, módulo 11 con
// coeficientes propios para RUC de sociedad y de entidad pública).
// ──────────────────────────────────────────────────────────────────────────────

const (
	cedulaValida      = "0927218487"
	rucNaturalValido  = "0927218487001"
	rucSociedadValido = "1790085783001" // tercer dígito 9: coeficientes 4,3,2,7,6,5,4,3,2
	rucPublicoValido  = "1760001550001" // tercer dígito 6: coeficientes 3,2,7,6,5,4,3,2
)

func TestValidarCedula_Valida(t *testing.T) {
	require.NoError(t, sri.ValidarCedula(cedulaValida))
}

// TestValidarCedula_MutacionDeUnDigito recorre las 10 posiciones de una cédula
// válida alterando un solo dígito: toda mutación debe invalidar el documento
// (el verificador módulo 10 detecta cualquier cambio de un dígito).
func TestValidarCedula_MutacionDeUnDigito(t *testing.T) {
	for i := 0; i < len(cedulaValida); i++ {
		mutada := []byte(cedulaValida)
		mutada[i] = byte('0' + (int(mutada[i]-'0')+1)%10)
		t.Run(fmt.Sprintf("posicion_%d", i), func(t *testing.T) {
			assert.Error(t, sri.ValidarCedula(string(mutada)),
				"la mutación %s debe ser inválida", mutada)
		})
	}
}

func TestValidarCedula_Rechazos(t *testing.T) {
	casos := map[string]string{
		"muy corta":            "092721848",
		"muy larga":            "09272184871",
		"no numérica":          "09272184A7",
		"provincia 00":         "0027218481",
		"provincia 25":         "2527218481",
		"tercer dígito 6":      "0967218487",
		"verificador alterado": "0927218488",
	}
	for nombre, cedula := range casos {
		t.Run(nombre, func(t *testing.T) {
			assert.Error(t, sri.ValidarCedula(cedula))
		})
	}
}

func TestValidarRUC_Validos(t *testing.T) {
	for _, ruc := range []string{rucNaturalValido, rucSociedadValido, rucPublicoValido} {
		assert.NoError(t, sri.ValidarRUC(ruc), "RUC %s debe ser válido", ruc)
	}
}

func TestValidarRUC_SufijoCorrupto(t *testing.T) {
	// Caso del mundo real: mismo contribuyente con el segmento final dañado.
	assert.Error(t, sri.ValidarRUC("0927218487002"))
	assert.Error(t, sri.ValidarRUC("0927218487000"))
}

func TestValidarRUC_VerificadorAlterado(t *testing.T) {
	// Sociedad: el décimo dígito es el verificador.
	mutada := []byte(rucSociedadValido)
	mutada[9] = byte('0' + (int(mutada[9]-'0')+1)%10)
	assert.Error(t, sri.ValidarRUC(string(mutada)))

	// Entidad pública: el noveno dígito es el verificador.
	mutada = []byte(rucPublicoValido)
	mutada[8] = byte('0' + (int(mutada[8]-'0')+1)%10)
	assert.Error(t, sri.ValidarRUC(string(mutada)))
}

func TestValidarRUC_TercerDigitoInvalido(t *testing.T) {
	// Tercer dígito 7 u 8 no corresponde a ningún tipo de contribuyente.
	assert.Error(t, sri.ValidarRUC("0977218487001"))
	assert.Error(t, sri.ValidarRUC("0987218487001"))
}

func TestValidarIdentificacion_PorTipo(t *testing.T) {
	casos := []struct {
		nombre string
		tipo   string
		valor  string
		valida bool
	}{
		{"ruc válido", sri.IdentificacionRUC, rucSociedadValido, true},
		{"cédula válida", sri.IdentificacionCedula, cedulaValida, true},
		{"pasaporte válido", sri.IdentificacionPasaporte, "AB123456", true},
		{"pasaporte muy corto", sri.IdentificacionPasaporte, "AB", false},
		{"pasaporte muy largo", sri.IdentificacionPasaporte, "ABCDEFGHIJKLMNOPQRSTU", false},
		{"consumidor final", sri.IdentificacionConsumidorFinal, sri.ConsumidorFinal, true},
		{"consumidor final incorrecto", sri.IdentificacionConsumidorFinal, "9999999999998", false},
		{"exterior siempre válido", sri.IdentificacionExterior, "X-773341", true},
		{"exterior vacío", sri.IdentificacionExterior, "", false},
		{"tipo desconocido", "99", "123", false},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			assert.Equal(t, c.valida, sri.EsIdentificacionValida(c.tipo, c.valor))
		})
	}
}
