package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// QualityTier selects the JPEG quality a document is stored at.
type QualityTier string

const (
	TierHigh     QualityTier = "high"
	TierStandard QualityTier = "standard"
)

// Document is the per-document record of the checklist.
type Document struct {
	// Name identifies the document slot. Names are unique within a checklist.
	Name string `mapstructure:"name" json:"name"`

	// Tier selects the output quality.
	Tier QualityTier `mapstructure:"tier" json:"tier"`

	// Binarize stores the rectified image as pure black and white.
	Binarize bool `mapstructure:"binarize" json:"binarize"`
}

// Checklist is the ordered list of documents to capture. The order sets the
// numbering of exported files.
type Checklist []Document

// DefaultChecklist returns the standard hiring checklist.
func DefaultChecklist() Checklist {
	names := []string{
		"Formato de alta",
		"Solicitud de empleo",
		"Copia del acta de nacimiento",
		"Número de IMSS",
		"CURP",
		"Copia de comprobante de estudios",
		"Copia de comprobante de domicilio",
		"Credencial de elector (Frente)",
		"Credencial de elector (Reverso)",
		"Guía de entrevista",
		"Carta de identidad (solo menores)",
		"Permiso firmado por tutor",
		"Identificación oficial tutor",
		"Carta responsiva",
		"Políticas de la empresa",
		"Políticas de propina",
		"Convenio de manipulaciones",
		"Convenio de correo electrónico",
		"Vale de uniforme",
		"Apertura de cuentas",
		"Contrato laboral",
		"Responsiva tarjeta de nómina",
		"Cuenta Santander",
	}

	list := make(Checklist, len(names))
	for i, name := range names {
		list[i] = Document{Name: name, Tier: TierStandard}
		if name == "Contrato laboral" {
			list[i].Tier = TierHigh
			list[i].Binarize = true
		}
	}
	return list
}

// canonicalName trims and NFC-normalizes a document name so that composed
// and decomposed accents compare equal.
func canonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Index returns the 1-based position of a document, or 0 if it is not in the
// checklist.
func (c Checklist) Index(name string) int {
	name = canonicalName(name)
	for i, d := range c {
		if canonicalName(d.Name) == name {
			return i + 1
		}
	}
	return 0
}

// Lookup returns the record for a document name.
func (c Checklist) Lookup(name string) (Document, bool) {
	if i := c.Index(name); i > 0 {
		return c[i-1], true
	}
	return Document{}, false
}

// Validate checks that the checklist is non-empty, every name is set and
// unique, and every tier is known.
func (c Checklist) Validate() error {
	if len(c) == 0 {
		return errors.New("checklist cannot be empty")
	}

	seen := make(map[string]bool, len(c))
	for i, d := range c {
		name := canonicalName(d.Name)
		if name == "" {
			return fmt.Errorf("checklist entry %d has no name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate checklist entry: %s", d.Name)
		}
		seen[name] = true

		if d.Tier != TierHigh && d.Tier != TierStandard {
			return fmt.Errorf("invalid tier %q for %s (must be one of: high, standard)", d.Tier, d.Name)
		}
	}
	return nil
}
