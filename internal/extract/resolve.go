package extract

import (
	"strings"

	"github.com/dusk-indust/xmigraph/internal/uml"
	"github.com/dusk-indust/xmigraph/internal/xmi"
)

// XMI element and attribute names read by the resolver.
const (
	tagTaggedValueBlock = "ModelElement.taggedValue"
	tagTaggedValue      = "TaggedValue"
	tagStereotypeBlock  = "ModelElement.stereotype"
	tagStereotype       = "Stereotype"

	attrID           = "xmi.id"
	attrName         = "name"
	attrTag          = "tag"
	attrValue        = "value"
	attrModelElement = "modelElement"

	tvStereotype  = "stereotype"
	tvSavedAsStub = "savedasstub"
)

var textReplacer = strings.NewReplacer("\n", "<br>", "\t", "    ", "|", " ")

// normalizeTaggedValue canonicalizes identifier-typed tags and cleans free
// text so it survives the tab/pipe-delimited interchange tables.
func normalizeTaggedValue(tag, value string) string {
	if guidKeys[tag] {
		return uml.CanonicalGUID(value)
	}
	return textReplacer.Replace(strings.TrimSpace(value))
}

// resolveInto fills the descriptive parts of e from el: name, attributes,
// tagged values, stereotypes and the stub flag. The caller has already
// checked that el carries an identifier.
func (f *Filters) resolveInto(e *uml.Entity, el *xmi.Element) {
	e.Name = strings.ReplaceAll(el.AttrOr(attrName, ""), "\n", "<br>")

	for _, a := range el.Attrs() {
		if a.IsNamespaceDecl() || a.Name == attrID || a.Name == attrName {
			continue
		}
		if f.AttributeDenied(a.Name) {
			continue
		}
		if guidKeys[a.Name] {
			e.Attributes.Set(a.Name, uml.CanonicalGUID(a.Value))
		} else {
			e.Attributes.Set(a.Name, a.Value)
		}
	}

	if block := el.Child(tagTaggedValueBlock); block != nil {
		for _, tv := range block.ChildrenNamed(tagTaggedValue) {
			value, ok := tv.Attr(attrValue)
			if !ok {
				// embedded documents carry no value attribute
				continue
			}
			tag := tv.AttrOr(attrTag, "")
			if tag == "" || f.TaggedValueDenied(tag) {
				continue
			}
			e.TaggedValues.Set(tag, normalizeTaggedValue(tag, value))
		}
	}

	e.Stereotypes = resolveStereotypes(el, e.TaggedValues)
	e.IsStub = e.TaggedValues.Value(tvSavedAsStub) == "true"
}

// resolveStereotypes collects stereotype names from the stereotype block and
// the "stereotype" tagged value, which is consumed. Order is first seen;
// names with two or more spaces are dropped.
func resolveStereotypes(el *xmi.Element, tvs *uml.Props) []string {
	var names []string
	if block := el.Child(tagStereotypeBlock); block != nil {
		for _, st := range block.ChildrenNamed(tagStereotype) {
			if name, ok := st.Attr(attrName); ok {
				names = append(names, name)
			}
		}
	}
	if v, ok := tvs.Get(tvStereotype); ok {
		names = append(names, v)
		tvs.Delete(tvStereotype)
	}

	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if n == "" || seen[n] || strings.Count(n, " ") >= 2 {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// tailTaggedValue is a tagged value stored after the model in XMI.content and
// attached to an element by raw identifier.
type tailTaggedValue struct {
	tag   string
	value string
}

// collectTailTaggedValues indexes the direct TaggedValue children of
// XMI.content by their modelElement reference.
func (f *Filters) collectTailTaggedValues(content *xmi.Element) map[string][]tailTaggedValue {
	out := make(map[string][]tailTaggedValue)
	for _, tv := range content.ChildrenNamed(tagTaggedValue) {
		value, ok := tv.Attr(attrValue)
		if !ok {
			continue
		}
		tag := tv.AttrOr(attrTag, "")
		owner := tv.AttrOr(attrModelElement, "")
		if tag == "" || owner == "" || f.TaggedValueDenied(tag) {
			continue
		}
		out[owner] = append(out[owner], tailTaggedValue{tag: tag, value: normalizeTaggedValue(tag, value)})
	}
	return out
}
