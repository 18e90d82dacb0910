package comprobante_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/comprobante"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/pkg/sri"
)

func TestDecimalesCantidad(t *testing.T) {
	casos := map[entity.VersionEsquema]int{
		entity.Version100: 2,
		entity.Version110: 6,
		entity.Version200: 6,
		entity.Version210: 6,
	}
	for version, esperado := range casos {
		dec, err := comprobante.DecimalesCantidad(version)
		require.NoError(t, err)
		assert.Equal(t, esperado, dec, "versión %s", version)
	}

	_, err := comprobante.DecimalesCantidad("3.0.0")
	assert.ErrorIs(t, err, domain.ErrVersionNoSoportada)
}

func TestCamposRequeridos_PorVersion(t *testing.T) {
	v100, err := comprobante.CamposRequeridos(sri.TipoFactura, entity.Version100)
	require.NoError(t, err)
	v210, err := comprobante.CamposRequeridos(sri.TipoFactura, entity.Version210)
	require.NoError(t, err)

	assert.NotContains(t, v100.Detalle, "codigoPrincipal", "1.0.0 no exige código principal")
	assert.Contains(t, v210.Detalle, "codigoPrincipal", "2.1.0 exige código principal")
	assert.Contains(t, v210.Cabecera, "claveAcceso")
	assert.Contains(t, v210.InfoDocumento, "importeTotal")
}

func TestCamposRequeridos_GuiaSinMontos(t *testing.T) {
	guia, err := comprobante.CamposRequeridos(sri.TipoGuiaRemision, entity.Version110)
	require.NoError(t, err)
	assert.NotContains(t, guia.InfoDocumento, "importeTotal")
	assert.NotContains(t, guia.InfoDocumento, "totalSinImpuestos")
}

func TestCamposRequeridos_Errores(t *testing.T) {
	_, err := comprobante.CamposRequeridos(sri.TipoFactura, "9.9.9")
	assert.ErrorIs(t, err, domain.ErrVersionNoSoportada)

	_, err = comprobante.CamposRequeridos("99", entity.Version210)
	assert.ErrorIs(t, err, domain.ErrEntradaInvalida)
}

func comprobantePoblado(version entity.VersionEsquema) *entity.Comprobante {
	clave, err := sri.BuildClaveAcceso(sri.ClaveAccesoParams{
		FechaEmision:    time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		TipoComprobante: sri.TipoFactura,
		RUCEmisor:       "1790085783001",
		Ambiente:        sri.AmbientePruebas,
		Establecimiento: "001",
		PuntoEmision:    "001",
		Secuencial:      45,
		CodigoNumerico:  "12345678",
		TipoEmision:     sri.EmisionNormal,
	})
	if err != nil {
		panic(err)
	}
	return &entity.Comprobante{
		ClaveAcceso:               clave,
		TipoComprobante:           sri.TipoFactura,
		Version:                   version,
		Ambiente:                  sri.AmbientePruebas,
		TipoEmision:               sri.EmisionNormal,
		RUCEmisor:                 "1790085783001",
		RazonSocial:               "Comercial Andina S.A.",
		DireccionMatriz:           "Av. Amazonas N36-152, Quito",
		Establecimiento:           "001",
		PuntoEmision:              "001",
		Secuencial:                45,
		FechaEmision:              time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		ContraparteTipoID:         sri.IdentificacionCedula,
		ContraparteIdentificacion: "0927218487",
		ContraparteRazonSocial:    "María Vera",
		TotalSinImpuestos:         decimal.RequireFromString("20.00"),
		TotalDescuento:            decimal.Zero,
		TotalImpuestos:            decimal.RequireFromString("3.00"),
		ImporteTotal:              decimal.RequireFromString("23.00"),
		Detalles: []*entity.Detalle{{
			NumeroLinea:            1,
			CodigoPrincipal:        "PRD-001",
			Descripcion:            "Servicio de mantenimiento",
			Cantidad:               decimal.RequireFromString("2"),
			PrecioUnitario:         decimal.RequireFromString("10.00"),
			Descuento:              decimal.Zero,
			PrecioTotalSinImpuesto: decimal.RequireFromString("20.00"),
		}},
	}
}

func TestValidarCampos_Completo(t *testing.T) {
	assert.NoError(t, comprobante.ValidarCampos(comprobantePoblado(entity.Version210)))
}

func TestValidarCampos_Faltantes(t *testing.T) {
	c := comprobantePoblado(entity.Version210)
	c.DireccionMatriz = ""
	c.ContraparteRazonSocial = ""
	err := comprobante.ValidarCampos(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dirMatriz")
	assert.Contains(t, err.Error(), "razonSocialContraparte")
}

// Precisión de cantidad: 1.0.0 admite 2 decimales; 2.1.0 hasta 6.
func TestValidarCampos_PrecisionCantidad(t *testing.T) {
	c := comprobantePoblado(entity.Version100)
	c.Detalles[0].Cantidad = decimal.RequireFromString("2.125")
	err := comprobante.ValidarCampos(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cantidad")

	c = comprobantePoblado(entity.Version210)
	c.Detalles[0].Cantidad = decimal.RequireFromString("2.125")
	assert.NoError(t, comprobante.ValidarCampos(c))

	c.Detalles[0].Cantidad = decimal.RequireFromString("2.1234567")
	assert.Error(t, comprobante.ValidarCampos(c), "más de 6 decimales nunca es válido")
}

func TestValidarCampos_CodigoPrincipalPorVersion(t *testing.T) {
	c := comprobantePoblado(entity.Version100)
	c.Detalles[0].CodigoPrincipal = ""
	assert.NoError(t, comprobante.ValidarCampos(c), "1.0.0 no exige código principal")

	c = comprobantePoblado(entity.Version210)
	c.Detalles[0].CodigoPrincipal = ""
	assert.Error(t, comprobante.ValidarCampos(c))
}

func TestValidar_Agregado(t *testing.T) {
	c := comprobantePoblado(entity.Version210)
	assert.NoError(t, comprobante.Validar(c))

	c.ContraparteIdentificacion = "0927218488" // verificador roto
	err := comprobante.Validar(c)
	require.ErrorIs(t, err, comprobante.ErrComprobanteInvalido)
	assert.Contains(t, err.Error(), "contraparte")

	assert.ErrorIs(t, comprobante.Validar(nil), comprobante.ErrComprobanteInvalido)
}
