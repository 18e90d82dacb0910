// Carga de certificado de firma desde .p12 (PKCS#12) o par PEM.

package firmador

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// CargarP12 carga certificado y llave privada desde un archivo .p12/.pfx, el
// formato en que las entidades certificadoras ecuatorianas entregan la firma
// electrónica. El password puede ser vacío si el archivo no está protegido.
func CargarP12(ruta, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(ruta)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve un solo certificado; basta el certificado hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// CargarPEM carga certificado y llave desde archivos PEM (separados o combinados).
func CargarPEM(rutaCert, rutaLlave string) (tls.Certificate, error) {
	if rutaCert == "" {
		return tls.Certificate{}, nil
	}
	if rutaLlave == "" {
		return tls.LoadX509KeyPair(rutaCert, rutaCert)
	}
	cert, err := tls.LoadX509KeyPair(rutaCert, rutaLlave)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}

// digestEIssuerSerial devuelve el digest SHA-256 del certificado (Base64), el
// nombre del emisor y el serial en decimal, para xades:SigningCertificate.
func digestEIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serial string) {
	h := sha256.Sum256(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serial = cert.SerialNumber.String()
	return digestB64, issuerName, serial
}
