// Package annotation reads and writes the XML annotation carried by SBML
// elements. A nil element reads as "" and ignores writes.
package annotation

import "github.com/olehluchkiv/sbmlannot/internal/sbml"

// Element is implemented by every annotatable SBML element.
type Element interface {
	IsSetAnnotation() bool
	AnnotationString() string
	SetAnnotation(text string)
}

// String returns the annotation stored on p, or "" if p is nil or has no
// annotation set. The text is returned exactly as stored.
func String[T any, P interface {
	*T
	Element
}](p P) string {
	if p == nil || !p.IsSetAnnotation() {
		return ""
	}
	return p.AnnotationString()
}

// Set replaces the annotation on p with text. A nil p is left alone.
func Set[T any, P interface {
	*T
	Element
}](p P, text string) {
	if p == nil {
		return
	}
	p.SetAnnotation(text)
}

// ModelString returns the annotation of m, or "" if m is nil or unannotated.
func ModelString(m *sbml.Model) string { return String(m) }

// SetModel replaces the annotation of m. A nil m is ignored.
func SetModel(m *sbml.Model, text string) { Set(m, text) }

// CompartmentString returns the annotation of c, or "" if c is nil or unannotated.
func CompartmentString(c *sbml.Compartment) string { return String(c) }

// SetCompartment replaces the annotation of c. A nil c is ignored.
func SetCompartment(c *sbml.Compartment, text string) { Set(c, text) }

// SpeciesString returns the annotation of s, or "" if s is nil or unannotated.
func SpeciesString(s *sbml.Species) string { return String(s) }

// SetSpecies replaces the annotation of s. A nil s is ignored.
func SetSpecies(s *sbml.Species, text string) { Set(s, text) }

// UnitDefinitionString returns the annotation of ud, or "" if ud is nil or unannotated.
func UnitDefinitionString(ud *sbml.UnitDefinition) string { return String(ud) }

// SetUnitDefinition replaces the annotation of ud. A nil ud is ignored.
func SetUnitDefinition(ud *sbml.UnitDefinition, text string) { Set(ud, text) }

// UnitString returns the annotation of u, or "" if u is nil or unannotated.
func UnitString(u *sbml.Unit) string { return String(u) }

// SetUnit replaces the annotation of u. A nil u is ignored.
func SetUnit(u *sbml.Unit, text string) { Set(u, text) }
