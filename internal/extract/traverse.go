package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/xmigraph/internal/uml"
	"github.com/dusk-indust/xmigraph/internal/xmi"
)

const (
	tagContent       = "XMI.content"
	tagModel         = "Model"
	tagOwnedElement  = "Namespace.ownedElement"
	tagPackage       = "Package"
	tagActivityModel = "ActivityModel"
	tagActionState   = "ActionState"
)

// processFile extracts every known element of one XMI file, starting with
// its topmost package.
func (s *Session) processFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fileErr(path, fmt.Errorf("%w: %v", ErrNotAFile, err))
	}
	if !info.Mode().IsRegular() {
		return fileErr(path, ErrNotAFile)
	}
	if filepath.Ext(path) != ".xml" {
		return fileErr(path, ErrNotXML)
	}

	s.log.Info("parsing file", "file", path)
	doc, err := xmi.ParseFile(path)
	if err != nil {
		return fileErr(path, err)
	}

	content := doc.Find(tagContent)
	if content == nil {
		return missing(path, tagContent)
	}
	fc := &fileContext{
		path: path,
		base: filepath.Base(path),
		tail: s.filters.collectTailTaggedValues(content),
	}

	model := doc.Find(tagModel)
	if model == nil {
		return missing(path, tagModel)
	}
	owned := model.Find(tagOwnedElement)
	if owned == nil {
		return missing(path, tagModel+"/"+tagOwnedElement)
	}
	top := owned.Find(tagPackage)
	if top == nil {
		return missing(path, tagOwnedElement+"/"+tagPackage)
	}

	s.result.Files = append(s.result.Files, path)
	isEntry := len(s.result.Files) == 1
	spec, _ := lookup(tagPackage)
	if err := s.visit(top, spec, fc, isEntry); err != nil {
		return err
	}
	s.log.Debug("finished file", "file", path)
	return nil
}

// visit populates and registers el, then descends into its owned elements
// when it is a package. A package is registered before its children.
func (s *Session) visit(el *xmi.Element, spec elementSpec, fc *fileContext, isRoot bool) error {
	res := s.filters.populate(el, spec, fc)
	if res.Err != nil {
		return res.Err
	}
	if res.Skip != "" {
		s.log.Warn("skipping element", "reason", res.Skip, "file", fc.base)
		s.result.Skipped = append(s.result.Skipped, res.Skip)
		return nil
	}

	e := res.Entity
	if isRoot {
		s.result.RootGUID = e.GUID
	}
	if err := s.register(e); err != nil {
		return fileErr(fc.path, err)
	}

	if spec.variant != uml.VariantPackage {
		return nil
	}
	if e.IsStub && !s.singleFile {
		s.enqueue(e.TaggedValues.Value(tvXMLPath))
	}
	return s.walkOwned(el, fc)
}

// walkOwned visits the children of a package's owned-element container in
// document order.
func (s *Session) walkOwned(pkg *xmi.Element, fc *fileContext) error {
	owned := pkg.Find(tagOwnedElement)
	if owned == nil {
		return nil
	}
	for _, child := range owned.Children() {
		if spec, ok := lookup(child.Local); ok {
			if err := s.visit(child, spec, fc, false); err != nil {
				return err
			}
			continue
		}
		if child.Local == tagActivityModel {
			spec, _ := lookup(tagActionState)
			for _, as := range child.FindAll(tagActionState) {
				if err := s.visit(as, spec, fc, false); err != nil {
					return err
				}
			}
			continue
		}
		s.noteSkippedTag(child.Local)
	}
	return nil
}
