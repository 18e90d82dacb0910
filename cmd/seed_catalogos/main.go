// seed_catalogos genera el script SQL que puebla los catálogos paramétricos
// SRI: tarifas de IVA e ICE (Tablas 16 y 17 de la ficha técnica) y códigos de
// retención de renta e IVA, con sus ventanas de vigencia.
//
// Uso: go run ./cmd/seed_catalogos
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalogos.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type tarifa struct {
	codigoImpuesto string
	codigoTarifa   string
	descripcion    string
	tipoCalculo    string
	porcentaje     string
	vigenciaDesde  string
	vigenciaHasta  string // vacío = vigencia abierta
}

type retencion struct {
	codigoImpuesto    string
	codigo            string
	descripcion       string
	porcentaje        string
	tipoContribuyente string // vacío = cualquiera
	regimen           string // vacío = cualquiera
	vigenciaDesde     string
}

// Tarifas de IVA según la reforma de abril de 2024: la tarifa general 12 %
// cierra su vigencia al final del 2024-03-31 y la del 15 % abre el
// 2024-04-01. Las ventanas van pegadas para que cualquier hora del día de
// cambio caiga en una de las dos.
var tarifas = []tarifa{
	{"2", "0", "IVA tarifa 0%", "PORCENTAJE", "0", "2000-01-01", ""},
	{"2", "2", "IVA tarifa general 12%", "PORCENTAJE", "12", "2000-01-01", "2024-03-31 23:59:59"},
	{"2", "4", "IVA tarifa general 15%", "PORCENTAJE", "15", "2024-04-01", ""},
	{"2", "5", "IVA tarifa 5%", "PORCENTAJE", "5", "2024-04-01", ""},
	{"2", "8", "IVA diferenciado 8%", "PORCENTAJE", "8", "2023-01-01", ""},
	{"2", "6", "No objeto de impuesto", "PORCENTAJE", "0", "2000-01-01", ""},
	{"2", "7", "Exento de IVA", "PORCENTAJE", "0", "2000-01-01", ""},
	{"3", "3051", "ICE cerveza industrial", "MIXTO", "30", "2020-01-01", ""},
	{"3", "3023", "ICE cigarrillos", "ESPECIFICO", "0", "2020-01-01", ""},
	{"5", "5001", "IRBPNR botellas plásticas", "ESPECIFICO", "0", "2020-01-01", ""},
}

var retenciones = []retencion{
	{"1", "303", "Honorarios profesionales", "10", "", "", "2020-01-01"},
	{"1", "304", "Servicios predomina el intelecto", "8", "", "", "2020-01-01"},
	{"1", "307", "Servicios predomina mano de obra", "2", "", "", "2020-01-01"},
	{"1", "308", "Servicios entre sociedades", "2", "sociedad", "", "2020-01-01"},
	{"1", "312", "Transferencia de bienes muebles", "1.75", "", "", "2020-01-01"},
	{"1", "332", "Pagos sin retención (RIMPE negocio popular)", "0", "", "rimpe", "2020-01-01"},
	{"2", "9", "Retención IVA 10%", "10", "", "", "2020-01-01"},
	{"2", "10", "Retención IVA 20%", "20", "", "", "2020-01-01"},
	{"2", "1", "Retención IVA 30% bienes", "30", "", "", "2020-01-01"},
	{"2", "2", "Retención IVA 70% servicios", "70", "", "", "2020-01-01"},
	{"2", "3", "Retención IVA 100%", "100", "", "", "2020-01-01"},
}

func main() {
	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_catalogos.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Catálogos paramétricos SRI: tarifas y códigos de retención\n")
	out.WriteString("-- Generado por cmd/seed_catalogos\n\n")

	out.WriteString("-- 1. Tarifas (Tablas 16 y 17)\n")
	for _, t := range tarifas {
		hasta := "NULL"
		if t.vigenciaHasta != "" {
			hasta = fmt.Sprintf("'%s'", t.vigenciaHasta)
		}
		fmt.Fprintf(out, "INSERT INTO tarifas (id, codigo_impuesto, codigo_tarifa, descripcion, tipo_calculo, porcentaje, vigencia_desde, vigencia_hasta, activa)\n")
		fmt.Fprintf(out, "VALUES (gen_random_uuid(), '%s', '%s', '%s', '%s', %s, '%s', %s, TRUE)\nON CONFLICT DO NOTHING;\n",
			t.codigoImpuesto, t.codigoTarifa, escapeSQL(t.descripcion), t.tipoCalculo, t.porcentaje, t.vigenciaDesde, hasta)
	}

	out.WriteString("\n-- 2. Códigos de retención (renta e IVA)\n")
	for _, r := range retenciones {
		fmt.Fprintf(out, "INSERT INTO codigos_retencion (id, codigo_impuesto, codigo, descripcion, porcentaje, tipo_contribuyente, regimen, vigencia_desde, activa)\n")
		fmt.Fprintf(out, "VALUES (gen_random_uuid(), '%s', '%s', '%s', %s, %s, %s, '%s', TRUE)\nON CONFLICT DO NOTHING;\n",
			r.codigoImpuesto, r.codigo, escapeSQL(r.descripcion), r.porcentaje,
			nullOrQuoted(r.tipoContribuyente), nullOrQuoted(r.regimen), r.vigenciaDesde)
	}

	fmt.Printf("Generado %s: %d tarifas, %d códigos de retención\n", outPath, len(tarifas), len(retenciones))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func nullOrQuoted(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + escapeSQL(s) + "'"
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
