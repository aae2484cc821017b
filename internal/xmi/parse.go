// Package xmi provides a minimal element tree over XMI 1.1 documents.
//
// Element names are matched by local name only, so "UML:Package" and
// "Package" are the same element. Attribute order is preserved.
package xmi

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"golang.org/x/net/html/charset"
)

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("xmi: document has no root element")

// Attr is one attribute of an element.
type Attr struct {
	Space string
	Name  string
	Value string
}

// IsNamespaceDecl reports whether the attribute is an xmlns declaration.
func (a Attr) IsNamespaceDecl() bool {
	return a.Space == "xmlns" || a.Name == "xmlns"
}

// Element is a node of the parsed document.
type Element struct {
	Space    string
	Local    string
	attrs    []Attr
	children []*Element
}

// Document is a parsed XMI file.
type Document struct {
	Root *Element
}

// ParseFile opens and parses the file at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse builds the element tree from r. Non-UTF-8 encodings declared in the
// prolog (windows-1252 is common in EA exports) are decoded transparently.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var stack []*Element
	var root *Element
	rootClosed := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmi: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("xmi: unexpected element %s after document end", t.Name.Local)
			}
			elem := &Element{
				Space: t.Name.Space,
				Local: t.Name.Local,
				attrs: convertAttrs(t.Attr),
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, elem)
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 && root != nil {
					rootClosed = true
				}
			}

		case xml.CharData:
			// XMI carries everything in attributes; only stray text outside
			// the root is an error.
			if len(stack) == 0 && !isIgnorableOutsideRoot(string(t)) {
				return nil, errors.New("xmi: unexpected character data outside root element")
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return &Document{Root: root}, nil
}

func convertAttrs(in []xml.Attr) []Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attr, len(in))
	for i, a := range in {
		out[i] = Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value}
	}
	return out
}

func isIgnorableOutsideRoot(data string) bool {
	for _, r := range data {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Find returns the first descendant of the document root (or the root itself)
// with the given local name.
func (d *Document) Find(name string) *Element {
	if d == nil || d.Root == nil {
		return nil
	}
	if d.Root.Local == name {
		return d.Root
	}
	return d.Root.Find(name)
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Attrs returns a copy of the element attributes in document order.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Children returns the direct child elements.
func (e *Element) Children() []*Element {
	return e.children
}

// Child returns the first direct child with the given local name.
func (e *Element) Child(name string) *Element {
	for _, c := range e.children {
		if c.Local == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every direct child with the given local name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.children {
		if c.Local == name {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant with the given local name in document
// order, excluding e itself.
func (e *Element) Find(name string) *Element {
	for _, c := range e.children {
		if c.Local == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant with the given local name in document
// order, excluding e itself.
func (e *Element) FindAll(name string) []*Element {
	var out []*Element
	e.walk(func(el *Element) {
		if el.Local == name {
			out = append(out, el)
		}
	})
	return out
}

func (e *Element) walk(fn func(*Element)) {
	for _, c := range e.children {
		fn(c)
		c.walk(fn)
	}
}
