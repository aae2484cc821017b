package extract

import (
	"fmt"

	"github.com/gobwas/glob"
)

// DefaultAttributeDenylist lists XML attributes never copied onto an entity.
var DefaultAttributeDenylist = []string{
	"visibility",
	"isLeaf",
	"isAbstract",
	"isOrdered",
	"targetScope",
	"changeable",
	"isNavigable",
	"isActive",
	"isRoot",
}

// DefaultTaggedValueDenylist lists tool-internal tags dropped during
// extraction: layout, diagram styling, bookkeeping timestamps and the like.
var DefaultTaggedValueDenylist = []string{
	"$ea_xref_property",
	"actorkind",
	"atomic",
	"batchload",
	"batchsave",
	"complexity",
	"conditional",
	"containment",
	"created",
	"deststyle",
	"date_created",
	"date_modified",
	"difficulty",
	"dst_aggregation",
	"dst_containment",
	"dst_changeable",
	"dst_isNavigable",
	"dst_isOrdered",
	"dst_style",
	"dst_targetScope",
	"dst_visibility",
	"ea_localid",
	"ea_sourceID",
	"ea_sourceName",
	"ea_sourceType",
	"ea_stype",
	"ea_targetID",
	"ea_targetName",
	"ea_targetType",
	"functiontype",
	"gentype",
	"headStyle",
	"iconstyle",
	"isAbstract",
	"isActive",
	"isprotected",
	"isSpecification",
	"keywords",
	"lastloaddate",
	"lastsavedate",
	"lastupdate",
	"lb",
	"linecolor",
	"linemode",
	"lineStyle",
	"linewidth",
	"logxml",
	"lt",
	"mb",
	"mt",
	"object_style",
	"packageFlags",
	"phase",
	"prerequisite",
	"priority",
	"privatedata5",
	"product_name",
	"rb",
	"reqtype",
	"rotation",
	"seqno",
	"showdecoration",
	"sourcestyle",
	"src_aggregation",
	"src_containment",
	"src_changeable",
	"src_isNavigable",
	"src_isOrdered",
	"src_style",
	"src_targetScope",
	"src_visibility",
	"stability",
	"style",
	"styleex",
	"tagged",
	"tpos",
	"usedtd",
	"version",
	"virtualInheritance",
	"xmiver",
	"modified",
}

// guidKeys are attribute and tag names whose values are element identifiers.
var guidKeys = map[string]bool{
	"parent":    true,
	"namespace": true,
	"package":   true,
	"package2":  true,
	"owner":     true,
}

// denylist matches names exactly, or against glob patterns for entries
// containing glob metacharacters.
type denylist struct {
	exact    map[string]bool
	patterns []glob.Glob
}

func newDenylist(entries []string) (*denylist, error) {
	d := &denylist{exact: make(map[string]bool, len(entries))}
	for _, e := range entries {
		if !hasMeta(e) {
			d.exact[e] = true
			continue
		}
		g, err := glob.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("extract: bad denylist pattern %q: %w", e, err)
		}
		d.patterns = append(d.patterns, g)
	}
	return d, nil
}

func (d *denylist) Match(name string) bool {
	if d.exact[name] {
		return true
	}
	for _, g := range d.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func hasMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// Filters holds the two independent denylists applied by the resolver.
type Filters struct {
	attributes   *denylist
	taggedValues *denylist
}

// NewFilters compiles the default denylists extended with extra entries.
// Extra entries may be glob patterns such as "dst_*".
func NewFilters(extraAttributes, extraTaggedValues []string) (*Filters, error) {
	attrs, err := newDenylist(append(append([]string{}, DefaultAttributeDenylist...), extraAttributes...))
	if err != nil {
		return nil, err
	}
	tvs, err := newDenylist(append(append([]string{}, DefaultTaggedValueDenylist...), extraTaggedValues...))
	if err != nil {
		return nil, err
	}
	return &Filters{attributes: attrs, taggedValues: tvs}, nil
}

// DefaultFilters returns the filters with only the built-in denylists.
func DefaultFilters() *Filters {
	f, err := NewFilters(nil, nil)
	if err != nil {
		panic(err)
	}
	return f
}

// AttributeDenied reports whether an XML attribute is filtered out.
func (f *Filters) AttributeDenied(name string) bool {
	return f.attributes.Match(name)
}

// TaggedValueDenied reports whether a tagged value is filtered out.
func (f *Filters) TaggedValueDenied(tag string) bool {
	return f.taggedValues.Match(tag)
}
