package calculo_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/calculo"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/sri"
)

// Código 303 (honorarios profesionales, 10%) restringido a sociedades del
// régimen general, con una regla de monto mínimo.
func codigoHonorarios() *entity.CodigoRetencion {
	return &entity.CodigoRetencion{
		Codigo:            "303",
		CodigoImpuesto:    "1",
		Descripcion:       "Honorarios profesionales",
		Porcentaje:        decimal.NewFromInt(10),
		TipoContribuyente: sri.ContribuyenteSociedad,
		Regimen:           sri.RegimenGeneral,
		VigenciaDesde:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Activa:            true,
		Reglas: []*entity.ReglaElegibilidad{
			{Campo: "montoOperacion", Operador: ">=", Valor: "50.00"},
		},
	}
}

func solicitudValida() *calculo.SolicitudRetencion {
	return &calculo.SolicitudRetencion{
		TipoContribuyente: sri.ContribuyenteSociedad,
		Regimen:           sri.RegimenGeneral,
		BaseImponible:     decimal.RequireFromString("150.00"),
		Campos:            map[string]string{"montoOperacion": "150.00"},
	}
}

func TestCalcularRetencion(t *testing.T) {
	valor := calculo.CalcularRetencion(codigoHonorarios(), decimal.RequireFromString("150.00"))
	assert.True(t, valor.Equal(decimal.RequireFromString("15.00")), "10%% de 150.00 = 15.00, fue %s", valor)
}

func TestValidarRetencion_Correcta(t *testing.T) {
	err := calculo.ValidarRetencion(codigoHonorarios(), solicitudValida(), decimal.RequireFromString("15.00"))
	assert.NoError(t, err)
}

func TestValidarRetencion_Descuadre(t *testing.T) {
	err := calculo.ValidarRetencion(codigoHonorarios(), solicitudValida(), decimal.RequireFromString("14.90"))
	var descuadre *domain.DescuadreError
	require.ErrorAs(t, err, &descuadre)
	assert.True(t, descuadre.Calculado.Equal(decimal.RequireFromString("15.00")))
}

func TestValidarElegibilidad_AlcanceContribuyente(t *testing.T) {
	solicitud := solicitudValida()
	solicitud.TipoContribuyente = sri.ContribuyenteNatural
	err := calculo.ValidarElegibilidad(codigoHonorarios(), solicitud)
	assert.ErrorIs(t, err, domain.ErrReglaElegibilidad)
}

func TestValidarElegibilidad_AlcanceRegimen(t *testing.T) {
	solicitud := solicitudValida()
	solicitud.Regimen = sri.RegimenRIMPE
	err := calculo.ValidarElegibilidad(codigoHonorarios(), solicitud)
	assert.ErrorIs(t, err, domain.ErrReglaElegibilidad)
}

func TestValidarElegibilidad_ReglaNoCumplida(t *testing.T) {
	solicitud := solicitudValida()
	solicitud.Campos["montoOperacion"] = "20.00" // bajo el mínimo de la regla
	err := calculo.ValidarElegibilidad(codigoHonorarios(), solicitud)
	require.ErrorIs(t, err, domain.ErrReglaElegibilidad)
	assert.Contains(t, err.Error(), "montoOperacion")
}

func TestValidarElegibilidad_CampoAusente(t *testing.T) {
	solicitud := solicitudValida()
	delete(solicitud.Campos, "montoOperacion")
	err := calculo.ValidarElegibilidad(codigoHonorarios(), solicitud)
	assert.ErrorIs(t, err, domain.ErrReglaElegibilidad)
}

// El conjunto de operadores es cerrado: uno desconocido es un error, no un
// falso silencioso.
func TestValidarElegibilidad_OperadorDesconocido(t *testing.T) {
	codigo := codigoHonorarios()
	codigo.Reglas = []*entity.ReglaElegibilidad{
		{Campo: "montoOperacion", Operador: "~", Valor: "50"},
	}
	err := calculo.ValidarElegibilidad(codigo, solicitudValida())
	require.ErrorIs(t, err, domain.ErrReglaElegibilidad)
	assert.Contains(t, err.Error(), "operador")
}

func TestValidarElegibilidad_Operadores(t *testing.T) {
	solicitud := solicitudValida()
	solicitud.Campos = map[string]string{
		"formaPago": "transferencia",
		"monto":     "100",
	}
	casos := []struct {
		nombre string
		regla  entity.ReglaElegibilidad
		cumple bool
	}{
		{"igualdad", entity.ReglaElegibilidad{Campo: "formaPago", Operador: "=", Valor: "transferencia"}, true},
		{"desigualdad", entity.ReglaElegibilidad{Campo: "formaPago", Operador: "!=", Valor: "efectivo"}, true},
		{"mayor numérico", entity.ReglaElegibilidad{Campo: "monto", Operador: ">", Valor: "99.5"}, true},
		{"menor o igual numérico", entity.ReglaElegibilidad{Campo: "monto", Operador: "<=", Valor: "100"}, true},
		{"menor falso", entity.ReglaElegibilidad{Campo: "monto", Operador: "<", Valor: "100"}, false},
		{"in", entity.ReglaElegibilidad{Campo: "formaPago", Operador: "in", Valores: []string{"tarjeta", "transferencia"}}, true},
		{"not_in", entity.ReglaElegibilidad{Campo: "formaPago", Operador: "not_in", Valores: []string{"efectivo"}}, true},
		{"not_in falso", entity.ReglaElegibilidad{Campo: "formaPago", Operador: "not_in", Valores: []string{"transferencia"}}, false},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			codigo := codigoHonorarios()
			regla := c.regla
			codigo.Reglas = []*entity.ReglaElegibilidad{&regla}
			err := calculo.ValidarElegibilidad(codigo, solicitud)
			if c.cumple {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrReglaElegibilidad)
			}
		})
	}
}
