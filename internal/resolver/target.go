package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olehluchkiv/sbmlannot/internal/annotation"
	"github.com/olehluchkiv/sbmlannot/internal/sbml"
)

var (
	// ErrNoModel is returned by Resolve when the document has no model.
	ErrNoModel = errors.New("document has no model")
	// ErrNotFound is returned by Resolve when no element has the requested id.
	ErrNotFound = errors.New("element not found")
	// ErrUnitIndex is returned by Resolve when a unit index is outside the unit definition.
	ErrUnitIndex = errors.New("unit index out of range")
)

// Kind names one of the annotatable element kinds.
type Kind int

const (
	KindModel Kind = iota
	KindCompartment
	KindSpecies
	KindUnitDefinition
	KindUnit
)

var kindNames = map[Kind]string{
	KindModel:          "model",
	KindCompartment:    "compartment",
	KindSpecies:        "species",
	KindUnitDefinition: "unitdefinition",
	KindUnit:           "unit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the kind names case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown element kind: %s (valid: model, compartment, species, unitdefinition, unit)", s)
}

// Target identifies one element of a document. ID is ignored for KindModel.
// For KindUnit, ID names the unit definition and UnitIndex the unit within it.
type Target struct {
	Kind      Kind
	ID        string
	UnitIndex int
}

func (t Target) String() string {
	switch t.Kind {
	case KindModel:
		return "model"
	case KindUnit:
		return fmt.Sprintf("unit %s[%d]", t.ID, t.UnitIndex)
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.ID)
	}
}

// Handle reads and writes the annotation of a resolved element.
type Handle struct {
	Target Target

	get   func() string
	set   func(string)
	unset func()
}

// Annotation returns the element's annotation, or "" if none is set.
func (h Handle) Annotation() string { return h.get() }

// SetAnnotation replaces the element's annotation with text, verbatim.
func (h Handle) SetAnnotation(text string) { h.set(text) }

// UnsetAnnotation removes the element's annotation.
func (h Handle) UnsetAnnotation() { h.unset() }

// Resolve finds the element named by t in doc.
func Resolve(doc *sbml.Document, t Target) (Handle, error) {
	m := doc.Model
	if m == nil {
		return Handle{}, ErrNoModel
	}

	switch t.Kind {
	case KindModel:
		return Handle{
			Target: t,
			get:    func() string { return annotation.ModelString(m) },
			set:    func(text string) { annotation.SetModel(m, text) },
			unset:  m.UnsetAnnotation,
		}, nil

	case KindCompartment:
		c := m.FindCompartment(t.ID)
		if c == nil {
			return Handle{}, fmt.Errorf("%s: %w", t, ErrNotFound)
		}
		return Handle{
			Target: t,
			get:    func() string { return annotation.CompartmentString(c) },
			set:    func(text string) { annotation.SetCompartment(c, text) },
			unset:  c.UnsetAnnotation,
		}, nil

	case KindSpecies:
		s := m.FindSpecies(t.ID)
		if s == nil {
			return Handle{}, fmt.Errorf("%s: %w", t, ErrNotFound)
		}
		return Handle{
			Target: t,
			get:    func() string { return annotation.SpeciesString(s) },
			set:    func(text string) { annotation.SetSpecies(s, text) },
			unset:  s.UnsetAnnotation,
		}, nil

	case KindUnitDefinition, KindUnit:
		ud := m.FindUnitDefinition(t.ID)
		if ud == nil {
			return Handle{}, fmt.Errorf("%s: %w", Target{Kind: KindUnitDefinition, ID: t.ID}, ErrNotFound)
		}
		if t.Kind == KindUnitDefinition {
			return Handle{
				Target: t,
				get:    func() string { return annotation.UnitDefinitionString(ud) },
				set:    func(text string) { annotation.SetUnitDefinition(ud, text) },
				unset:  ud.UnsetAnnotation,
			}, nil
		}
		if t.UnitIndex < 0 || t.UnitIndex >= len(ud.Units) {
			return Handle{}, fmt.Errorf("%s (has %d units): %w", t, len(ud.Units), ErrUnitIndex)
		}
		u := ud.Units[t.UnitIndex]
		return Handle{
			Target: t,
			get:    func() string { return annotation.UnitString(u) },
			set:    func(text string) { annotation.SetUnit(u, text) },
			unset:  u.UnsetAnnotation,
		}, nil
	}

	return Handle{}, fmt.Errorf("unsupported element kind %s", t.Kind)
}
