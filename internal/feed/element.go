// Package feed reads the Atom-style documents returned by the catalog service.
//
// The service does not follow one schema across endpoints, so documents are
// read into a loose element tree and fields are looked up by local name.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// Element is a parsed XML element with namespaces stripped.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []*Element
	text     []byte
}

// Text returns the character data of the element and all its descendants, in
// document order, with surrounding whitespace removed.
func (e *Element) Text() string {
	return strings.TrimSpace(string(e.text))
}

// Attr returns the value of the attribute with the given local name.
func (e *Element) Attr(name string) string {
	return e.Attrs[name]
}

// Descendants returns every element below e in document order.
func (e *Element) Descendants() Elements {
	var out Elements
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(e)
	return out
}

// Child returns the first direct child named name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Elements is a flat run of elements, usually the descendants of a node.
type Elements []*Element

// First returns the first element named name, or nil.
func (es Elements) First(name string) *Element {
	for _, e := range es {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Named returns every element named name, keeping order.
func (es Elements) Named(name string) Elements {
	var out Elements
	for _, e := range es {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the text of the first element named name.
func (es Elements) Lookup(name string) (string, bool) {
	if e := es.First(name); e != nil {
		return e.Text(), true
	}
	return "", false
}

// Get returns the text of the first element named name. The match is case
// sensitive.
func (es Elements) Get(name string) (string, error) {
	if v, ok := es.Lookup(name); ok {
		return v, nil
	}
	return "", notFound(name)
}

// GetFloat parses the named field as a float.
func (es Elements) GetFloat(name string) (float32, error) {
	raw, err := es.Get(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, malformed(name, err)
	}
	return float32(v), nil
}

// GetInt16 parses the named field as a 16 bit integer.
func (es Elements) GetInt16(name string) (int16, error) {
	raw, err := es.Get(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 16)
	if err != nil {
		return 0, malformed(name, err)
	}
	return int16(v), nil
}

// GetInt parses the named field as an integer.
func (es Elements) GetInt(name string) (int, error) {
	raw, err := es.Get(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, malformed(name, err)
	}
	return v, nil
}

// Parse reads a document and returns its root element.
func Parse(doc string) (*Element, error) {
	dec := newDecoder(strings.NewReader(doc))

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFeedParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: more than one root element", ErrFeedParse)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if strings.TrimSpace(string(t)) == "" {
				continue
			}
			for _, open := range stack {
				open.text = append(open.text, t...)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrFeedParse)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element %q", ErrFeedParse, stack[len(stack)-1].Name)
	}
	return root, nil
}

// decodeInto binds the root element of doc onto a typed shape.
func decodeInto(doc string, v any) error {
	if err := newDecoder(strings.NewReader(doc)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrFeedParse, err)
	}
	return nil
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}
