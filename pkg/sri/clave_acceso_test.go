package sri_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/pkg/sri"
)

func paramsClaveValidos() sri.ClaveAccesoParams {
	return sri.ClaveAccesoParams{
		FechaEmision:    time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		TipoComprobante: sri.TipoFactura,
		RUCEmisor:       "1790085783001",
		Ambiente:        sri.AmbienteProduccion,
		Establecimiento: "001",
		PuntoEmision:    "002",
		Secuencial:      123,
		CodigoNumerico:  "12345678",
		TipoEmision:     sri.EmisionNormal,
	}
}

// TestBuildClaveAcceso_Forma verifica la propiedad estructural: 49 caracteres,
// todos dígitos ASCII, y el verificador reconstruible desde los 48 primeros.
func TestBuildClaveAcceso_Forma(t *testing.T) {
	clave, err := sri.BuildClaveAcceso(paramsClaveValidos())
	require.NoError(t, err)
	require.Len(t, clave, 49)
	for i := 0; i < len(clave); i++ {
		assert.True(t, clave[i] >= '0' && clave[i] <= '9', "posición %d no es dígito", i)
	}
	assert.Equal(t, int(clave[48]-'0'), sri.DigitoModulo11(clave[:48]))
	assert.NoError(t, sri.VerificarClaveAcceso(clave))
}

// TestBuildClaveAcceso_Composicion verifica el orden de los segmentos.
func TestBuildClaveAcceso_Composicion(t *testing.T) {
	clave, err := sri.BuildClaveAcceso(paramsClaveValidos())
	require.NoError(t, err)

	assert.Equal(t, "15072024", clave[0:8], "fecha ddmmaaaa")
	assert.Equal(t, "01", clave[8:10], "tipo de comprobante")
	assert.Equal(t, "1790085783001", clave[10:23], "RUC emisor")
	assert.Equal(t, "2", clave[23:24], "ambiente")
	assert.Equal(t, "001002", clave[24:30], "serie")
	assert.Equal(t, "000000123", clave[30:39], "secuencial con ceros a la izquierda")
	assert.Equal(t, "12345678", clave[39:47], "código numérico")
	assert.Equal(t, "1", clave[47:48], "tipo de emisión")
}

// TestBuildClaveAcceso_Determinista mismos parámetros producen la misma clave.
func TestBuildClaveAcceso_Determinista(t *testing.T) {
	c1, err1 := sri.BuildClaveAcceso(paramsClaveValidos())
	c2, err2 := sri.BuildClaveAcceso(paramsClaveValidos())
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, c1, c2)
}

func TestBuildClaveAcceso_Rechazos(t *testing.T) {
	casos := map[string]func(*sri.ClaveAccesoParams){
		"tipo de comprobante desconocido": func(p *sri.ClaveAccesoParams) { p.TipoComprobante = "99" },
		"ruc inválido":                    func(p *sri.ClaveAccesoParams) { p.RUCEmisor = "1790085783002" },
		"ambiente inválido":               func(p *sri.ClaveAccesoParams) { p.Ambiente = "3" },
		"establecimiento corto":           func(p *sri.ClaveAccesoParams) { p.Establecimiento = "01" },
		"punto de emisión no numérico":    func(p *sri.ClaveAccesoParams) { p.PuntoEmision = "0A2" },
		"secuencial cero":                 func(p *sri.ClaveAccesoParams) { p.Secuencial = 0 },
		"secuencial excedido":             func(p *sri.ClaveAccesoParams) { p.Secuencial = 1_000_000_000 },
		"código numérico corto":           func(p *sri.ClaveAccesoParams) { p.CodigoNumerico = "1234567" },
		"tipo de emisión inválido":        func(p *sri.ClaveAccesoParams) { p.TipoEmision = "0" },
	}
	for nombre, mutar := range casos {
		t.Run(nombre, func(t *testing.T) {
			p := paramsClaveValidos()
			mutar(&p)
			_, err := sri.BuildClaveAcceso(p)
			assert.Error(t, err)
		})
	}
}

func TestVerificarClaveAcceso_Alterada(t *testing.T) {
	clave, err := sri.BuildClaveAcceso(paramsClaveValidos())
	require.NoError(t, err)

	// Alterar un dígito intermedio rompe el verificador.
	alterada := []byte(clave)
	alterada[20] = byte('0' + (int(alterada[20]-'0')+1)%10)
	assert.Error(t, sri.VerificarClaveAcceso(string(alterada)))

	assert.Error(t, sri.VerificarClaveAcceso(clave[:48]), "longitud 48")
	assert.Error(t, sri.VerificarClaveAcceso(clave+"0"), "longitud 50")
}
