package firmador

// FirmaNula devuelve el XML sin firmar. Solo para desarrollo local con el
// cliente SRI simulado, donde no hay certificado .p12 disponible.
type FirmaNula struct{}

// Firmar devuelve el documento tal cual.
func (FirmaNula) Firmar(xmlBytes []byte) ([]byte, error) { return xmlBytes, nil }
