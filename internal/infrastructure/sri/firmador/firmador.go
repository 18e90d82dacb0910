// Servicio de firma digital XAdES-BES para comprobantes electrónicos SRI.
// La firma es enveloped: <ds:Signature> se añade como último hijo del elemento
// raíz del comprobante (factura, notaCredito, etc.).

package firmador

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// ServicioFirma firma comprobantes con XAdES-BES e inyecta el nodo en el XML.
type ServicioFirma struct {
	cert tls.Certificate
}

// NewServicioFirma crea el servicio con el certificado del emisor ya cargado.
func NewServicioFirma(cert tls.Certificate) *ServicioFirma {
	return &ServicioFirma{cert: cert}
}

// Firmar firma el XML del comprobante e inyecta ds:Signature en la raíz.
func (s *ServicioFirma) Firmar(xmlBytes []byte) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("firmador: XML vacío")
	}
	if len(s.cert.Certificate) == 0 {
		return nil, fmt.Errorf("firmador: certificado no cargado")
	}
	priv, ok := s.cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("firmador: el certificado debe incluir llave privada RSA")
	}
	x509Cert, err := x509.ParseCertificate(s.cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("firmador: parsear certificado: %w", err)
	}

	// 1) Digest del documento canonicalizado (Reference URI="#comprobante").
	canonicalDoc, err := canonicalizar(xmlBytes)
	if err != nil {
		canonicalDoc = xmlBytes
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedProperties (SigningTime, SigningCertificate) y su digest: en
	// XAdES-BES el SignedInfo también referencia las propiedades firmadas.
	horaFirma := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	certDigestB64, issuerName, serial := digestEIssuerSerial(x509Cert)
	signedPropsXML := s.construirSignedProperties(horaFirma, certDigestB64, issuerName, serial)
	canonicalProps, err := canonicalizar([]byte(signedPropsXML))
	if err != nil {
		canonicalProps = []byte(signedPropsXML)
	}
	propsDigest := sha256.Sum256(canonicalProps)
	propsDigestB64 := base64.StdEncoding.EncodeToString(propsDigest[:])

	// 3) SignedInfo y firma RSA-SHA256 sobre su forma canónica.
	signedInfoXML := s.construirSignedInfo(docDigestB64, propsDigestB64)
	canonicalSignedInfo, err := canonicalizar([]byte(signedInfoXML))
	if err != nil {
		canonicalSignedInfo = []byte(signedInfoXML)
	}
	hash := sha256.Sum256(canonicalSignedInfo)
	valorFirma, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, hash[:])
	if err != nil {
		return nil, fmt.Errorf("firmador: firmar SignedInfo: %w", err)
	}
	valorFirmaB64 := base64.StdEncoding.EncodeToString(valorFirma)
	certB64 := base64.StdEncoding.EncodeToString(x509Cert.Raw)

	firmaXML := s.construirFirma(signedInfoXML, valorFirmaB64, certB64, signedPropsXML)

	// 4) Inyectar como último hijo del elemento raíz.
	return s.inyectarFirma(xmlBytes, firmaXML)
}

func canonicalizar(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func (s *ServicioFirma) construirSignedInfo(docDigestB64, propsDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="#` + IDComprobante + `">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`<ds:Reference Type="http://uri.etsi.org/01903#SignedProperties" URI="#signed-props">`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + propsDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func (s *ServicioFirma) construirSignedProperties(horaFirma, certDigestB64, issuerName, serial string) string {
	var sb strings.Builder
	sb.WriteString(`<xades:SignedProperties xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `" Id="signed-props">`)
	sb.WriteString(`<xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + horaFirma + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert>`)
	sb.WriteString(`<xades:CertDigest><ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + certDigestB64 + `</ds:DigestValue></xades:CertDigest>`)
	sb.WriteString(`<xades:IssuerSerial><ds:X509IssuerName>` + escaparXML(issuerName) + `</ds:X509IssuerName>`)
	sb.WriteString(`<ds:X509SerialNumber>` + serial + `</ds:X509SerialNumber></xades:IssuerSerial>`)
	sb.WriteString(`</xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`</xades:SignedSignatureProperties>`)
	sb.WriteString(`</xades:SignedProperties>`)
	return sb.String()
}

func (s *ServicioFirma) construirFirma(signedInfoXML, valorFirmaB64, certB64, signedPropsXML string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `" Id="firma-comprobante">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + valorFirmaB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`<ds:Object><xades:QualifyingProperties xmlns:xades="` + NamespaceXAdES + `" Target="#firma-comprobante">`)
	sb.WriteString(signedPropsXML)
	sb.WriteString(`</xades:QualifyingProperties></ds:Object>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func (s *ServicioFirma) inyectarFirma(xmlBytes []byte, firmaXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("firmador: parsear XML: %w", err)
	}
	raiz := doc.Root()
	if raiz == nil {
		return nil, fmt.Errorf("firmador: documento sin raíz")
	}
	firmaDoc := etree.NewDocument()
	if err := firmaDoc.ReadFromString(firmaXML); err != nil {
		return nil, fmt.Errorf("firmador: parsear nodo Signature: %w", err)
	}
	if firmaRaiz := firmaDoc.Root(); firmaRaiz != nil {
		raiz.AddChild(firmaRaiz)
	}
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("firmador: serializar: %w", err)
	}
	return out.Bytes(), nil
}

func escaparXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
