package entity

import "time"

// Emisor contribuyente que emite comprobantes electrónicos. Sus campos se
// copian como snapshot al comprobante en el momento de la emisión.
type Emisor struct {
	ID                    string
	RUC                   string
	RazonSocial           string
	NombreComercial       string
	DireccionMatriz       string
	ContribuyenteEspecial string // número de resolución, vacío si no aplica
	ObligadoContabilidad  bool
	Regimen               string // "general" | "rimpe" | "especial"
	Ambiente              string // ambiente por defecto para sus comprobantes
	CertificadoPath       string // ruta al .p12 de firma electrónica
	CertificadoPassword   string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
