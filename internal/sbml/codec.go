package sbml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformedAnnotation is returned by Write when an element carries
// annotation text that is not well-formed XML.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// Child element order. A child that has to be added goes before the first
// existing sibling that sorts after it; unknown tags sort last.
var (
	elementOrder        = []string{"notes", "annotation"}
	unitDefinitionOrder = []string{"notes", "annotation", "listOfUnits"}
	modelOrder          = []string{
		"notes", "annotation",
		"listOfFunctionDefinitions", "listOfUnitDefinitions", "listOfCompartments",
		"listOfSpecies", "listOfParameters", "listOfInitialAssignments", "listOfRules",
		"listOfConstraints", "listOfReactions", "listOfEvents",
	}
)

// Namespace returns the SBML core namespace URI for a level and version.
func Namespace(level, version int) string {
	if level >= 3 {
		return fmt.Sprintf("http://www.sbml.org/sbml/level%d/version%d/core", level, version)
	}
	return fmt.Sprintf("http://www.sbml.org/sbml/level%d/version%d", level, version)
}

// Read parses an SBML document. The parsed XML is kept with the document,
// so elements, attributes and namespace declarations this package does not
// model are written back unchanged by Write.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading sbml: %w", err)
	}
	if err := checkWellFormed(data); err != nil {
		return nil, fmt.Errorf("decoding sbml: %w", err)
	}
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("decoding sbml: %w", err)
	}
	root := tree.Root()
	if root == nil {
		return nil, errors.New("decoding sbml: no root element")
	}
	if root.Tag != "sbml" {
		return nil, fmt.Errorf("decoding sbml: unexpected root element <%s>", root.Tag)
	}
	return fromTree(tree)
}

// ReadString parses an SBML document held in a string.
func ReadString(s string) (*Document, error) {
	return Read(strings.NewReader(s))
}

// Write serializes doc as SBML XML. A document that was read keeps its
// original layout; only the modeled fields that changed are rewritten.
// A new document gets an XML header and two-space indentation.
func Write(w io.Writer, doc *Document) error {
	tree, err := doc.sync()
	if err != nil {
		return err
	}
	if _, err := tree.WriteTo(w); err != nil {
		return fmt.Errorf("encoding sbml: %w", err)
	}
	return nil
}

// XMLString is Write into a string.
func (d *Document) XMLString() (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func checkWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func fromTree(tree *etree.Document) (*Document, error) {
	root := tree.Root()
	level, err := intAttr(root, "level")
	if err != nil {
		return nil, fmt.Errorf("sbml: %w", err)
	}
	version, err := intAttr(root, "version")
	if err != nil {
		return nil, fmt.Errorf("sbml: %w", err)
	}
	doc := &Document{Level: level, Version: version, tree: tree}

	mel := firstChild(root, "model")
	if mel == nil {
		return doc, nil
	}
	m := doc.CreateModel(attrValue(mel, "id"))
	m.Name = attrValue(mel, "name")
	m.MetaID = attrValue(mel, "metaid")
	if err := readNode(&m.node, mel); err != nil {
		return nil, err
	}

	for _, el := range listItems(mel, "listOfUnitDefinitions", "unitDefinition") {
		ud := m.CreateUnitDefinition(attrValue(el, "id"), attrValue(el, "name"))
		ud.MetaID = attrValue(el, "metaid")
		if err := readNode(&ud.node, el); err != nil {
			return nil, err
		}
		for _, uel := range listItems(el, "listOfUnits", "unit") {
			if err := readUnit(ud, uel); err != nil {
				return nil, fmt.Errorf("unit definition %q: %w", ud.ID, err)
			}
		}
	}

	for _, el := range listItems(mel, "listOfCompartments", "compartment") {
		c := m.CreateCompartment(attrValue(el, "id"))
		c.Name = attrValue(el, "name")
		c.MetaID = attrValue(el, "metaid")
		c.Units = attrValue(el, "units")
		if c.SpatialDimensions, err = floatAttr(el, "spatialDimensions"); err != nil {
			return nil, fmt.Errorf("compartment %q: %w", c.ID, err)
		}
		if c.Size, err = floatAttr(el, "size"); err != nil {
			return nil, fmt.Errorf("compartment %q: %w", c.ID, err)
		}
		if c.Constant, err = boolAttr(el, "constant"); err != nil {
			return nil, fmt.Errorf("compartment %q: %w", c.ID, err)
		}
		if err := readNode(&c.node, el); err != nil {
			return nil, err
		}
	}

	for _, el := range listItems(mel, "listOfSpecies", "species") {
		s := m.CreateSpecies(attrValue(el, "id"))
		s.Name = attrValue(el, "name")
		s.MetaID = attrValue(el, "metaid")
		s.Compartment = attrValue(el, "compartment")
		s.Units = attrValue(el, "substanceUnits")
		if s.InitialAmount, err = floatAttr(el, "initialAmount"); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.ID, err)
		}
		if s.InitialConcentration, err = floatAttr(el, "initialConcentration"); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.ID, err)
		}
		if s.HasOnlySubstanceUnits, err = boolAttr(el, "hasOnlySubstanceUnits"); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.ID, err)
		}
		if s.BoundaryCondition, err = boolAttr(el, "boundaryCondition"); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.ID, err)
		}
		if s.Constant, err = boolAttr(el, "constant"); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.ID, err)
		}
		if err := readNode(&s.node, el); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// readUnit appends the unit described by el. Attributes that are absent
// (optional before Level 3) keep the CreateUnit defaults.
func readUnit(ud *UnitDefinition, el *etree.Element) error {
	kindName := attrValue(el, "kind")
	kind, ok := ParseUnitKind(kindName)
	if !ok {
		return fmt.Errorf("unknown unit kind %q", kindName)
	}
	u := ud.CreateUnit(kind)
	u.MetaID = attrValue(el, "metaid")

	exponent, err := floatAttr(el, "exponent")
	if err != nil {
		return err
	}
	if exponent != nil {
		u.Exponent = *exponent
	}
	multiplier, err := floatAttr(el, "multiplier")
	if err != nil {
		return err
	}
	if multiplier != nil {
		u.Multiplier = *multiplier
	}
	if findAttr(el, "scale") != nil {
		if u.Scale, err = intAttr(el, "scale"); err != nil {
			return err
		}
	}
	return readNode(&u.node, el)
}

// readNode binds n to el and captures el's <annotation> child, if any.
func readNode(n *node, el *etree.Element) error {
	n.el = el
	ann := firstChild(el, "annotation")
	if ann == nil {
		return nil
	}
	text, err := serialize(ann)
	if err != nil {
		return fmt.Errorf("reading annotation of <%s>: %w", el.Tag, err)
	}
	n.SetAnnotation(text)
	return nil
}

// sync brings the XML tree in line with the document's fields and returns it.
func (d *Document) sync() (*etree.Document, error) {
	if d.tree == nil || d.tree.Root() == nil {
		d.tree = newTree(d.Level, d.Version)
	}
	root := d.tree.Root()
	if findAttr(root, "xmlns") == nil {
		setAttr(root, "xmlns", Namespace(d.Level, d.Version))
	}
	setIntAttr(root, "level", d.Level)
	setIntAttr(root, "version", d.Version)

	for _, el := range children(root, "model") {
		if d.Model == nil || el != d.Model.el {
			removeChild(root, el)
		}
	}
	if d.Model == nil {
		return d.tree, nil
	}
	if err := syncModel(root, d.Model, d.Level); err != nil {
		return nil, err
	}
	return d.tree, nil
}

func newTree(level, version int) *etree.Document {
	tree := etree.NewDocument()
	tree.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	tree.AddChild(etree.NewText("\n"))
	root := tree.CreateElement("sbml")
	root.CreateAttr("xmlns", Namespace(level, version))
	tree.AddChild(etree.NewText("\n"))
	return tree
}

func syncModel(root *etree.Element, m *Model, level int) error {
	el := bind(&m.node, "model")
	if el.Parent() != root {
		insertChild(root, el, nil)
	}
	setStringAttr(el, "metaid", m.MetaID)
	setStringAttr(el, "id", m.ID)
	setStringAttr(el, "name", m.Name)
	if err := syncAnnotation(el, &m.node, modelOrder, "model", m.ID); err != nil {
		return err
	}

	uds := make([]*etree.Element, len(m.UnitDefinitions))
	for i, ud := range m.UnitDefinitions {
		uds[i] = bind(&ud.node, "unitDefinition")
	}
	syncList(el, "listOfUnitDefinitions", "unitDefinition", uds, modelOrder)
	for _, ud := range m.UnitDefinitions {
		if err := syncUnitDefinition(ud, level); err != nil {
			return err
		}
	}

	cs := make([]*etree.Element, len(m.Compartments))
	for i, c := range m.Compartments {
		cs[i] = bind(&c.node, "compartment")
	}
	syncList(el, "listOfCompartments", "compartment", cs, modelOrder)
	for _, c := range m.Compartments {
		if err := syncCompartment(c); err != nil {
			return err
		}
	}

	ss := make([]*etree.Element, len(m.Species))
	for i, s := range m.Species {
		ss[i] = bind(&s.node, "species")
	}
	syncList(el, "listOfSpecies", "species", ss, modelOrder)
	for _, s := range m.Species {
		if err := syncSpecies(s); err != nil {
			return err
		}
	}
	return nil
}

func syncUnitDefinition(ud *UnitDefinition, level int) error {
	el := ud.el
	setStringAttr(el, "metaid", ud.MetaID)
	setStringAttr(el, "id", ud.ID)
	setStringAttr(el, "name", ud.Name)
	if err := syncAnnotation(el, &ud.node, unitDefinitionOrder, "unitDefinition", ud.ID); err != nil {
		return err
	}

	units := make([]*etree.Element, len(ud.Units))
	for i, u := range ud.Units {
		units[i] = bind(&u.node, "unit")
	}
	syncList(el, "listOfUnits", "unit", units, unitDefinitionOrder)
	for i, u := range ud.Units {
		if err := syncUnit(u, level, fmt.Sprintf("%s[%d]", ud.ID, i)); err != nil {
			return err
		}
	}
	return nil
}

// syncUnit writes the unit's attributes. Level 3 requires exponent, scale
// and multiplier; earlier levels only get them when they were present or
// differ from the default.
func syncUnit(u *Unit, level int, id string) error {
	el := u.el
	setStringAttr(el, "metaid", u.MetaID)
	setStringAttr(el, "kind", u.Kind.String())
	if level >= 3 || findAttr(el, "exponent") != nil || u.Exponent != 1 {
		setFloatAttr(el, "exponent", u.Exponent)
	}
	if level >= 3 || findAttr(el, "scale") != nil || u.Scale != 0 {
		setIntAttr(el, "scale", u.Scale)
	}
	if level >= 3 || findAttr(el, "multiplier") != nil || u.Multiplier != 1 {
		setFloatAttr(el, "multiplier", u.Multiplier)
	}
	return syncAnnotation(el, &u.node, elementOrder, "unit", id)
}

func syncCompartment(c *Compartment) error {
	el := c.el
	setStringAttr(el, "metaid", c.MetaID)
	setStringAttr(el, "id", c.ID)
	setStringAttr(el, "name", c.Name)
	setOptFloatAttr(el, "spatialDimensions", c.SpatialDimensions)
	setOptFloatAttr(el, "size", c.Size)
	setStringAttr(el, "units", c.Units)
	setOptBoolAttr(el, "constant", c.Constant)
	return syncAnnotation(el, &c.node, elementOrder, "compartment", c.ID)
}

func syncSpecies(s *Species) error {
	el := s.el
	setStringAttr(el, "metaid", s.MetaID)
	setStringAttr(el, "id", s.ID)
	setStringAttr(el, "name", s.Name)
	setStringAttr(el, "compartment", s.Compartment)
	setOptFloatAttr(el, "initialAmount", s.InitialAmount)
	setOptFloatAttr(el, "initialConcentration", s.InitialConcentration)
	setStringAttr(el, "substanceUnits", s.Units)
	setOptBoolAttr(el, "hasOnlySubstanceUnits", s.HasOnlySubstanceUnits)
	setOptBoolAttr(el, "boundaryCondition", s.BoundaryCondition)
	setOptBoolAttr(el, "constant", s.Constant)
	return syncAnnotation(el, &s.node, elementOrder, "species", s.ID)
}

// syncAnnotation makes el's <annotation> child match n. An annotation that
// is unchanged since it was read is left exactly as it is.
func syncAnnotation(el *etree.Element, n *node, order []string, kind, id string) error {
	cur := firstChild(el, "annotation")
	if !n.IsSetAnnotation() {
		if cur != nil {
			removeChild(el, cur)
		}
		return nil
	}
	if cur != nil {
		if text, err := serialize(cur); err == nil && text == n.AnnotationString() {
			return nil
		}
	}

	ann, err := annotationElement(n.AnnotationString())
	if err != nil {
		return fmt.Errorf("%w on %s %q: %v", ErrMalformedAnnotation, kind, id, err)
	}
	if cur != nil {
		i := cur.Index()
		el.RemoveChildAt(i)
		el.InsertChildAt(i, ann)
		return nil
	}
	insertChild(el, ann, order)
	return nil
}

func annotationElement(text string) (*etree.Element, error) {
	body, err := AnnotationBody(text)
	if err != nil {
		return nil, err
	}
	frag := etree.NewDocument()
	if err := frag.ReadFromString("<annotation>" + body + "</annotation>"); err != nil {
		return nil, err
	}
	return frag.Root().Copy(), nil
}

func serialize(el *etree.Element) (string, error) {
	d := etree.NewDocument()
	d.SetRoot(el.Copy())
	return d.WriteToString()
}

// bind returns the tree element behind n, creating a detached one if the
// element has never been written.
func bind(n *node, tag string) *etree.Element {
	if n.el == nil {
		n.el = etree.NewElement(tag)
	}
	return n.el
}

// syncList makes the itemTag children of parent's listTag child equal els,
// in order. Other children of the list are left alone. The list element is
// created only when there is something to put in it, and removed once it
// has no children left.
func syncList(parent *etree.Element, listTag, itemTag string, els []*etree.Element, order []string) {
	list := firstChild(parent, listTag)
	if list == nil {
		if len(els) == 0 {
			return
		}
		list = etree.NewElement(listTag)
		insertChild(parent, list, order)
	}

	want := make(map[*etree.Element]bool, len(els))
	for _, e := range els {
		want[e] = true
	}
	var kept []*etree.Element
	for _, c := range children(list, itemTag) {
		if want[c] {
			kept = append(kept, c)
		} else {
			removeChild(list, c)
		}
	}
	if !slices.Equal(kept, els[:len(kept)]) {
		for _, c := range kept {
			removeChild(list, c)
		}
		kept = nil
	}
	for _, e := range els[len(kept):] {
		insertChild(list, e, nil)
	}

	if len(els) == 0 && len(list.ChildElements()) == 0 {
		removeChild(parent, list)
	}
}

// insertChild adds child to parent at the position given by order, with
// the indentation of its new siblings.
func insertChild(parent, child *etree.Element, order []string) {
	if p := child.Parent(); p != nil {
		removeChild(p, child)
	}
	indent := etree.NewText("\n" + strings.Repeat("  ", depth(parent)+1))

	rank := func(tag string) int {
		if i := slices.Index(order, tag); i >= 0 {
			return i
		}
		return len(order)
	}
	siblings := parent.ChildElements()
	for _, s := range siblings {
		if rank(s.Tag) > rank(child.Tag) {
			i := s.Index()
			parent.InsertChildAt(i, child)
			parent.InsertChildAt(i+1, indent)
			return
		}
	}
	switch {
	case len(siblings) > 0:
		i := siblings[len(siblings)-1].Index() + 1
		parent.InsertChildAt(i, indent)
		parent.InsertChildAt(i+1, child)
	case len(parent.Child) > 0:
		parent.InsertChildAt(0, indent)
		parent.InsertChildAt(1, child)
	default:
		parent.AddChild(indent)
		parent.AddChild(child)
		parent.AddChild(etree.NewText("\n" + strings.Repeat("  ", depth(parent))))
	}
}

// removeChild detaches child from parent together with the indentation
// in front of it.
func removeChild(parent, child *etree.Element) {
	if i := child.Index(); i > 0 {
		if cd, ok := parent.Child[i-1].(*etree.CharData); ok && strings.TrimSpace(cd.Data) == "" {
			parent.RemoveChildAt(i - 1)
		}
	}
	parent.RemoveChild(child)
}

// depth is the number of element ancestors of el.
func depth(el *etree.Element) int {
	d := 0
	for p := el.Parent(); p != nil && p.Tag != ""; p = p.Parent() {
		d++
	}
	return d
}

func firstChild(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func children(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

func listItems(el *etree.Element, listTag, itemTag string) []*etree.Element {
	list := firstChild(el, listTag)
	if list == nil {
		return nil
	}
	return children(list, itemTag)
}

// Attribute helpers. Only unprefixed attributes are modeled; prefixed ones
// and namespace declarations are never touched.

func findAttr(el *etree.Element, key string) *etree.Attr {
	for i := range el.Attr {
		if el.Attr[i].Space == "" && el.Attr[i].Key == key {
			return &el.Attr[i]
		}
	}
	return nil
}

func attrValue(el *etree.Element, key string) string {
	if a := findAttr(el, key); a != nil {
		return a.Value
	}
	return ""
}

func floatAttr(el *etree.Element, key string) (*float64, error) {
	a := findAttr(el, key)
	if a == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, a.Value)
	}
	return &v, nil
}

func boolAttr(el *etree.Element, key string) (*bool, error) {
	a := findAttr(el, key)
	if a == nil {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(a.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, a.Value)
	}
	return &v, nil
}

func intAttr(el *etree.Element, key string) (int, error) {
	a := findAttr(el, key)
	if a == nil {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(a.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, a.Value)
	}
	return v, nil
}

func setAttr(el *etree.Element, key, value string) {
	if a := findAttr(el, key); a != nil {
		a.Value = value
		return
	}
	el.CreateAttr(key, value)
}

func removeAttr(el *etree.Element, key string) {
	el.Attr = slices.DeleteFunc(el.Attr, func(a etree.Attr) bool {
		return a.Space == "" && a.Key == key
	})
}

func setStringAttr(el *etree.Element, key, value string) {
	if value == "" {
		removeAttr(el, key)
		return
	}
	setAttr(el, key, value)
}

// The numeric and boolean setters keep the existing text when it already
// parses to the wanted value, so "1.0" is not rewritten as "1".

func setFloatAttr(el *etree.Element, key string, v float64) {
	if old, err := floatAttr(el, key); err == nil && old != nil && *old == v {
		return
	}
	setAttr(el, key, strconv.FormatFloat(v, 'g', -1, 64))
}

func setOptFloatAttr(el *etree.Element, key string, v *float64) {
	if v == nil {
		removeAttr(el, key)
		return
	}
	setFloatAttr(el, key, *v)
}

func setIntAttr(el *etree.Element, key string, v int) {
	if old, err := intAttr(el, key); err == nil && findAttr(el, key) != nil && old == v {
		return
	}
	setAttr(el, key, strconv.Itoa(v))
}

func setOptBoolAttr(el *etree.Element, key string, v *bool) {
	if v == nil {
		removeAttr(el, key)
		return
	}
	if old, err := boolAttr(el, key); err == nil && old != nil && *old == *v {
		return
	}
	setAttr(el, key, strconv.FormatBool(*v))
}

// AnnotationBody checks that text is well-formed XML and returns the content
// that belongs inside an <annotation> element. Text that is itself a single
// <annotation> element is unwrapped; anything else is returned unchanged
// apart from surrounding whitespace.
func AnnotationBody(text string) (string, error) {
	s := strings.TrimSpace(text)
	dec := xml.NewDecoder(strings.NewReader(s))

	var (
		depth      int
		first      = true
		wrapped    bool
		closed     bool
		innerStart int64
		innerEnd   int64
	)
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if first && t.Name.Local == "annotation" {
				wrapped = true
				innerStart = dec.InputOffset()
			} else if closed && depth == 0 {
				wrapped = false
			}
			depth++
		case xml.EndElement:
			depth--
			if wrapped && !closed && depth == 0 {
				closed = true
				innerEnd = offset
			}
		case xml.CharData:
			if closed && depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				wrapped = false
			}
		}
		first = false
	}
	if depth != 0 {
		return "", errors.New("unclosed element")
	}
	if wrapped && closed {
		return s[innerStart:innerEnd], nil
	}
	return s, nil
}
