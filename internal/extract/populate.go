package extract

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/xmigraph/internal/uml"
	"github.com/dusk-indust/xmigraph/internal/xmi"
)

// Bookkeeping attributes attached to every extracted entity.
const (
	AttrLoadFile      = "__load_file"
	AttrLoadHashIndex = "__load_hashindex"
)

const (
	tagConnection = "Association.connection"
	tvXMLPath     = "xmlpath"
)

// populateResult is the outcome of building one entity. Exactly one of
// Entity, Skip or Err is set.
type populateResult struct {
	Entity *uml.Entity
	Skip   string
	Err    error
}

func skipped(reason string) populateResult { return populateResult{Skip: reason} }

// fileContext carries per-file state needed while populating.
type fileContext struct {
	path string
	base string
	tail map[string][]tailTaggedValue
}

// populate builds a typed entity from el according to spec.
func (f *Filters) populate(el *xmi.Element, spec elementSpec, fc *fileContext) populateResult {
	raw, ok := el.Attr(attrID)
	if !ok || raw == "" {
		return skipped(fmt.Sprintf("%s without identifier", spec.variant))
	}

	e := uml.NewEntity(spec.variant, spec.kind)
	e.RawGUID = raw
	e.GUID = uml.CanonicalGUID(raw)
	f.resolveInto(e, el)

	if spec.kind == uml.KindRelationship {
		if spec.endpoints == nil {
			return populateResult{Err: fileErr(fc.path, fmt.Errorf("%w: %s has no endpoint rule", ErrUnknownKind, spec.variant))}
		}
		if reason := spec.endpoints(e, el); reason != "" {
			return skipped(fmt.Sprintf("%s %s: %s", spec.variant, raw, reason))
		}
	}

	if spec.variant == uml.VariantPackage && e.IsStub && strings.TrimSpace(e.TaggedValues.Value(tvXMLPath)) == "" {
		return populateResult{Err: fileErr(fc.path, fmt.Errorf("%w: package %s", ErrStubWithoutSource, e.GUID))}
	}

	e.Attributes.Set(AttrLoadFile, fc.base)
	e.Attributes.Set(AttrLoadHashIndex, fc.base+":"+raw)
	for _, tv := range fc.tail[raw] {
		e.TaggedValues.Set(tv.tag, tv.value)
	}

	return populateResult{Entity: e}
}

// attributeEndpoints reads From and To from two element attributes.
func attributeEndpoints(fromAttr, toAttr string) endpointRule {
	return func(e *uml.Entity, el *xmi.Element) string {
		from, ok := el.Attr(fromAttr)
		if !ok || from == "" {
			return "missing " + fromAttr + " attribute"
		}
		to, ok := el.Attr(toAttr)
		if !ok || to == "" {
			return "missing " + toAttr + " attribute"
		}
		e.From = uml.CanonicalGUID(from)
		e.To = uml.CanonicalGUID(to)
		return ""
	}
}

// connectionEndpoints reads From and To from the two ends under
// Association.connection. The first end is the source.
func connectionEndpoints(endTag string) endpointRule {
	return func(e *uml.Entity, el *xmi.Element) string {
		conn := el.Child(tagConnection)
		if conn == nil {
			return "missing " + tagConnection
		}
		ends := conn.ChildrenNamed(endTag)
		if len(ends) != 2 {
			return fmt.Sprintf("expected 2 %s elements, found %d", endTag, len(ends))
		}
		for i, end := range ends {
			n := i + 1
			e.Attributes.Set(fmt.Sprintf("end%d_aggregation", n), end.AttrOr("aggregation", ""))
			e.Attributes.Set(fmt.Sprintf("end%d_multiplicity", n), end.AttrOr("multiplicity", ""))
			e.Attributes.Set(fmt.Sprintf("end%d_name", n), end.AttrOr("name", ""))
		}
		from := ends[0].AttrOr("type", "")
		to := ends[1].AttrOr("type", "")
		if from == "" || to == "" {
			return endTag + " without type"
		}
		e.From = uml.CanonicalGUID(from)
		e.To = uml.CanonicalGUID(to)
		return ""
	}
}
