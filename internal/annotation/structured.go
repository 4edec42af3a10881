package annotation

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrNotSet is returned by Unmarshal when there is no annotation to decode.
var ErrNotSet = errors.New("annotation not set")

type wrapper struct {
	XMLName xml.Name `xml:"annotation"`
	Inner   []byte   `xml:",innerxml"`
}

// Marshal XML-encodes v and stores it on p as the single child of an
// <annotation> element. The existing annotation is kept if encoding fails.
func Marshal[T any, P interface {
	*T
	Element
}](p P, v any) error {
	if p == nil {
		return nil
	}
	payload, err := xml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding annotation: %w", err)
	}
	p.SetAnnotation("<annotation>" + string(payload) + "</annotation>")
	return nil
}

// Unmarshal decodes the content of the annotation stored on p into v.
func Unmarshal[T any, P interface {
	*T
	Element
}](p P, v any) error {
	text := String(p)
	if text == "" {
		return ErrNotSet
	}
	var w wrapper
	if err := xml.Unmarshal([]byte(text), &w); err != nil {
		return fmt.Errorf("decoding annotation: %w", err)
	}
	if err := xml.Unmarshal(w.Inner, v); err != nil {
		return fmt.Errorf("decoding annotation content: %w", err)
	}
	return nil
}
