// Package cola implementa la cola durable de comprobantes pendientes como un
// directorio de XML firmados en disco, con la clave de acceso como nombre de
// archivo. Un comprobante entregado con éxito se archiva en el directorio de
// autorizados; uno fallido permanece en pendientes para el siguiente barrido.
package cola

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ColaPendientes cola durable sobre el sistema de archivos.
type ColaPendientes struct {
	dirPendientes  string
	dirAutorizados string
}

// NewColaPendientes crea la cola y asegura los directorios.
func NewColaPendientes(dirPendientes, dirAutorizados string) (*ColaPendientes, error) {
	for _, dir := range []string{dirPendientes, dirAutorizados} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("crear directorio %s: %w", dir, err)
		}
	}
	return &ColaPendientes{dirPendientes: dirPendientes, dirAutorizados: dirAutorizados}, nil
}

// Encolar escribe el XML firmado en pendientes, de forma atómica (tmp+rename)
// para que un corte a mitad de escritura nunca deje un artefacto truncado.
func (c *ColaPendientes) Encolar(claveAcceso string, xmlFirmado []byte) error {
	destino := c.rutaPendiente(claveAcceso)
	tmp := destino + ".tmp"
	if err := os.WriteFile(tmp, xmlFirmado, 0o644); err != nil {
		return fmt.Errorf("escribir pendiente %s: %w", claveAcceso, err)
	}
	if err := os.Rename(tmp, destino); err != nil {
		return fmt.Errorf("publicar pendiente %s: %w", claveAcceso, err)
	}
	return nil
}

// Leer devuelve el XML firmado de un pendiente.
func (c *ColaPendientes) Leer(claveAcceso string) ([]byte, error) {
	data, err := os.ReadFile(c.rutaPendiente(claveAcceso))
	if err != nil {
		return nil, fmt.Errorf("leer pendiente %s: %w", claveAcceso, err)
	}
	return data, nil
}

// Listar devuelve las claves de acceso pendientes en orden estable.
func (c *ColaPendientes) Listar() ([]string, error) {
	entradas, err := os.ReadDir(c.dirPendientes)
	if err != nil {
		return nil, fmt.Errorf("listar pendientes: %w", err)
	}
	var claves []string
	for _, e := range entradas {
		nombre := e.Name()
		if e.IsDir() || !strings.HasSuffix(nombre, ".xml") {
			continue
		}
		claves = append(claves, strings.TrimSuffix(nombre, ".xml"))
	}
	sort.Strings(claves)
	return claves, nil
}

// Archivar mueve el XML de pendientes a autorizados tras la autorización.
func (c *ColaPendientes) Archivar(claveAcceso string) error {
	origen := c.rutaPendiente(claveAcceso)
	destino := filepath.Join(c.dirAutorizados, claveAcceso+".xml")
	if err := os.Rename(origen, destino); err != nil {
		return fmt.Errorf("archivar %s: %w", claveAcceso, err)
	}
	return nil
}

// Descartar elimina un pendiente que ya no debe reenviarse (rechazo o anulación).
func (c *ColaPendientes) Descartar(claveAcceso string) error {
	if err := os.Remove(c.rutaPendiente(claveAcceso)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("descartar %s: %w", claveAcceso, err)
	}
	return nil
}

func (c *ColaPendientes) rutaPendiente(claveAcceso string) string {
	return filepath.Join(c.dirPendientes, claveAcceso+".xml")
}
