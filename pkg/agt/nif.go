package agt

import (
	"fmt"
	"regexp"
	"strings"
)

// ConsumerFinalNIF NIF genérico para consumidor final.
const ConsumerFinalNIF = "999999999"

var (
	// Persona colectiva: 10 dígitos (ej: 5000123456).
	companyNIF = regexp.MustCompile(`^\d{10}$`)
	// Persona singular: número de BI, 9 dígitos + 2 letras + 3 dígitos (ej: 004512345LA042).
	personNIF = regexp.MustCompile(`^\d{9}[A-Z]{2}\d{3}$`)
)

// NormalizeNIF quita espacios, puntos y guiones y pasa a mayúsculas.
func NormalizeNIF(nif string) string {
	r := strings.NewReplacer(" ", "", ".", "", "-", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(nif)))
}

// ValidateNIF valida el formato de un NIF angolano (empresa, persona o consumidor final).
func ValidateNIF(nif string) error {
	n := NormalizeNIF(nif)
	if n == "" {
		return fmt.Errorf("agt: NIF vacío")
	}
	if n == ConsumerFinalNIF || companyNIF.MatchString(n) || personNIF.MatchString(n) {
		return nil
	}
	return fmt.Errorf("agt: NIF %q con formato inválido", nif)
}
