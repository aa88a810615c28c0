package saft

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/ucarion/c14n"
)

// Digest SHA-256 (base64) del XML canonicalizado (C14N 1.0). Dos exportaciones con el mismo
// contenido lógico dan el mismo digest aunque cambie la indentación de atributos o comillas.
func Digest(xmlBytes []byte) (string, error) {
	canonical, err := canonicalizeXML(xmlBytes)
	if err != nil {
		return "", fmt.Errorf("saft: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	dec.CharsetReader = charsetReader
	return c14n.Canonicalize(dec)
}
