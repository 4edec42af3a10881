package sbml

import "github.com/beevik/etree"

// node holds the state shared by every element: the annotation and, for
// elements read from or already written to XML, the element's place in the
// document tree. The text is stored verbatim; set distinguishes "never set"
// from "set to empty".
type node struct {
	annotation string
	set        bool
	el         *etree.Element
}

// IsSetAnnotation reports whether an annotation has been set on the element.
func (a *node) IsSetAnnotation() bool { return a.set }

// AnnotationString returns the stored annotation, or "" when none is set.
func (a *node) AnnotationString() string { return a.annotation }

// SetAnnotation replaces the annotation with text. No validation is done here;
// malformed XML is only rejected when the document is written.
func (a *node) SetAnnotation(text string) {
	a.annotation = text
	a.set = true
}

// UnsetAnnotation clears the annotation.
func (a *node) UnsetAnnotation() {
	a.annotation = ""
	a.set = false
}

// Document is the root container. It holds at most one Model.
type Document struct {
	Level   int
	Version int
	Model   *Model

	// tree is the XML the document was read from. Content that this package
	// does not model lives only here and is written back unchanged.
	tree *etree.Document
}

// NewDocument creates an empty document for the given SBML level and version.
func NewDocument(level, version int) *Document {
	return &Document{Level: level, Version: version}
}

// CreateModel replaces the document's model with a new one.
func (d *Document) CreateModel(id string) *Model {
	d.Model = &Model{ID: id}
	return d.Model
}

// Model is the container for compartments, species and unit definitions.
type Model struct {
	node

	ID     string
	Name   string
	MetaID string

	Compartments    []*Compartment
	Species         []*Species
	UnitDefinitions []*UnitDefinition
}

func (m *Model) CreateCompartment(id string) *Compartment {
	c := &Compartment{ID: id}
	m.Compartments = append(m.Compartments, c)
	return c
}

func (m *Model) CreateSpecies(id string) *Species {
	s := &Species{ID: id}
	m.Species = append(m.Species, s)
	return s
}

func (m *Model) CreateUnitDefinition(id, name string) *UnitDefinition {
	ud := &UnitDefinition{ID: id, Name: name}
	m.UnitDefinitions = append(m.UnitDefinitions, ud)
	return ud
}

// FindCompartment returns the compartment with the given id, or nil.
func (m *Model) FindCompartment(id string) *Compartment {
	for _, c := range m.Compartments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FindSpecies returns the species with the given id, or nil.
func (m *Model) FindSpecies(id string) *Species {
	for _, s := range m.Species {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindUnitDefinition returns the unit definition with the given id, or nil.
func (m *Model) FindUnitDefinition(id string) *UnitDefinition {
	for _, ud := range m.UnitDefinitions {
		if ud.ID == id {
			return ud
		}
	}
	return nil
}

// Compartment is a bounded container in which species are located.
type Compartment struct {
	node

	ID                string
	Name              string
	MetaID            string
	SpatialDimensions *float64
	Size              *float64
	Units             string
	Constant          *bool
}

// Species is a pool of entities located in a compartment.
type Species struct {
	node

	ID                    string
	Name                  string
	MetaID                string
	Compartment           string
	InitialAmount         *float64
	InitialConcentration  *float64
	Units                 string
	BoundaryCondition     *bool
	HasOnlySubstanceUnits *bool
	Constant              *bool
}

// UnitDefinition is a named product of base units.
type UnitDefinition struct {
	node

	ID     string
	Name   string
	MetaID string
	Units  []*Unit
}

// CreateUnit appends a unit of the given kind with the SBML default
// exponent, scale and multiplier.
func (ud *UnitDefinition) CreateUnit(kind UnitKind) *Unit {
	u := &Unit{Kind: kind, Exponent: 1, Scale: 0, Multiplier: 1}
	ud.Units = append(ud.Units, u)
	return u
}

// Unit is one factor of a unit definition: (multiplier * 10^scale * kind)^exponent.
type Unit struct {
	node

	Kind       UnitKind
	Exponent   float64
	Scale      int
	Multiplier float64
	MetaID     string
}
