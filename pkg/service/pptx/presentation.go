package pptx

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/m-mizutani/goerr/v2"
)

const firstSlideID = 256

var slideFilePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// SlideFile is a slide part found by file name
type SlideFile struct {
	Number int
	Part   string
}

// SlideFiles returns the slide parts named ppt/slides/slideN.xml sorted by N,
// regardless of whether the presentation lists them.
func (p *Package) SlideFiles() []SlideFile {
	var out []SlideFile
	for _, part := range p.order {
		m := slideFilePattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, SlideFile{Number: n, Part: part})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// PresentationPart returns the main presentation part named by the package relationships
func (p *Package) PresentationPart() (string, error) {
	rels, err := p.Rels("")
	if err != nil {
		return "", err
	}
	rel, ok := rels.FirstOfType(RelTypeOfficeDocument)
	if !ok {
		return "", goerr.Wrap(ErrInvalidPackage, "no office document relationship")
	}
	part := resolveTarget("", rel.Target)
	if !p.Has(part) {
		return "", goerr.Wrap(ErrPartNotFound, "presentation part is missing", goerr.V(PartKey, part))
	}
	return part, nil
}

func (p *Package) presentation() (string, *etree.Document, *Relationships, error) {
	part, err := p.PresentationPart()
	if err != nil {
		return "", nil, nil, err
	}
	doc, err := p.Doc(part)
	if err != nil {
		return "", nil, nil, err
	}
	rels, err := p.Rels(part)
	if err != nil {
		return "", nil, nil, err
	}
	return part, doc, rels, nil
}

// SlideParts returns the slide parts in presentation order
func (p *Package) SlideParts() ([]string, error) {
	part, doc, rels, err := p.presentation()
	if err != nil {
		return nil, err
	}

	var out []string
	list := child(doc.Root(), NSPresentation, "sldIdLst")
	for _, id := range childrenNamed(list, NSPresentation, "sldId") {
		ref := attr(id, NSRelationships, "id")
		if ref == nil {
			continue
		}
		rel, ok := rels.Get(ref.Value)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidPart, "slide ID refers to unknown relationship",
				goerr.V(PartKey, part), goerr.V("rid", ref.Value))
		}
		out = append(out, resolveTarget(part, rel.Target))
	}
	return out, nil
}

// FirstLayout returns the first slide layout of the first slide master
func (p *Package) FirstLayout() (string, error) {
	part, doc, rels, err := p.presentation()
	if err != nil {
		return "", err
	}

	var master string
	list := child(doc.Root(), NSPresentation, "sldMasterIdLst")
	for _, id := range childrenNamed(list, NSPresentation, "sldMasterId") {
		if ref := attr(id, NSRelationships, "id"); ref != nil {
			if rel, ok := rels.Get(ref.Value); ok {
				master = resolveTarget(part, rel.Target)
				break
			}
		}
	}
	if master == "" {
		rel, ok := rels.FirstOfType(RelTypeSlideMaster)
		if !ok {
			return "", goerr.Wrap(ErrNoLayout, "presentation has no slide master")
		}
		master = resolveTarget(part, rel.Target)
	}

	masterDoc, err := p.Doc(master)
	if err != nil {
		return "", err
	}
	masterRels, err := p.Rels(master)
	if err != nil {
		return "", err
	}

	layouts := child(masterDoc.Root(), NSPresentation, "sldLayoutIdLst")
	for _, id := range childrenNamed(layouts, NSPresentation, "sldLayoutId") {
		if ref := attr(id, NSRelationships, "id"); ref != nil {
			if rel, ok := masterRels.Get(ref.Value); ok {
				return resolveTarget(master, rel.Target), nil
			}
		}
	}
	if rel, ok := masterRels.FirstOfType(RelTypeSlideLayout); ok {
		return resolveTarget(master, rel.Target), nil
	}
	return "", goerr.Wrap(ErrNoLayout, "slide master has no layouts", goerr.V(PartKey, master))
}

// RemoveAllSlides drops every slide from the presentation together with the
// custom shows and sections that refer to them, then prunes parts that are no
// longer reachable.
func (p *Package) RemoveAllSlides() error {
	part, doc, rels, err := p.presentation()
	if err != nil {
		return err
	}
	root := doc.Root()

	if list := child(root, NSPresentation, "sldIdLst"); list != nil {
		for _, id := range childrenNamed(list, NSPresentation, "sldId") {
			if ref := attr(id, NSRelationships, "id"); ref != nil {
				if rel, ok := rels.Get(ref.Value); ok {
					p.Remove(resolveTarget(part, rel.Target))
					rels.Remove(rel.ID)
				}
			}
			list.RemoveChild(id)
		}
	}

	if shows := child(root, NSPresentation, "custShowLst"); shows != nil {
		root.RemoveChild(shows)
	}
	if extLst := child(root, NSPresentation, "extLst"); extLst != nil {
		for _, ext := range childrenNamed(extLst, NSPresentation, "ext") {
			if child(ext, NSSection2010, "sectionLst") != nil {
				extLst.RemoveChild(ext)
			}
		}
		if len(extLst.ChildElements()) == 0 {
			root.RemoveChild(extLst)
		}
	}

	_, err = p.Prune()
	return err
}

// AddSlide appends an empty slide based on layout to the end of the
// presentation and returns its part name and document.
func (p *Package) AddSlide(layout string) (string, *etree.Document, error) {
	presPart, presDoc, presRels, err := p.presentation()
	if err != nil {
		return "", nil, err
	}
	if !p.Has(layout) {
		return "", nil, goerr.Wrap(ErrPartNotFound, "layout part is missing", goerr.V(PartKey, layout))
	}

	part := p.UniqueName("ppt/slides/slide1.xml")
	doc := newSlideDocument()
	p.SetDoc(part, doc)
	p.types.SetOverride(part, ContentTypeSlide)

	slideRels, err := p.Rels(part)
	if err != nil {
		return "", nil, err
	}
	slideRels.Add(Relationship{Type: RelTypeSlideLayout, Target: relativeTarget(part, layout)})

	rid := presRels.Add(Relationship{Type: RelTypeSlide, Target: relativeTarget(presPart, part)})

	root := presDoc.Root()
	pPrefix := prefixFor(root, NSPresentation, "p")
	rPrefix := prefixFor(root, NSRelationships, "r")

	list := child(root, NSPresentation, "sldIdLst")
	if list == nil {
		list = etree.NewElement(pPrefix + ":sldIdLst")
		insertSlideIDList(root, list)
	}

	nextID := firstSlideID
	for _, id := range childrenNamed(list, NSPresentation, "sldId") {
		if n, err := strconv.Atoi(plainAttr(id, "id")); err == nil && n >= nextID {
			nextID = n + 1
		}
	}

	id := list.CreateElement(pPrefix + ":sldId")
	id.CreateAttr("id", strconv.Itoa(nextID))
	id.CreateAttr(rPrefix+":id", rid)

	return part, doc, nil
}

// insertSlideIDList places list after the master lists and before sldSz, as
// the presentation schema requires.
func insertSlideIDList(root, list *etree.Element) {
	at := -1
	for _, name := range []string{"handoutMasterIdLst", "notesMasterIdLst", "sldMasterIdLst"} {
		if e := child(root, NSPresentation, name); e != nil {
			at = e.Index() + 1
			break
		}
	}
	if at < 0 {
		at = 0
	}
	root.InsertChildAt(at, list)
}

func newSlideDocument() *etree.Document {
	root := etree.NewElement("p:sld")
	root.CreateAttr("xmlns:a", NSDrawing)
	root.CreateAttr("xmlns:r", NSRelationships)
	root.CreateAttr("xmlns:p", NSPresentation)

	cSld := root.CreateElement("p:cSld")
	tree := cSld.CreateElement("p:spTree")

	nv := tree.CreateElement("p:nvGrpSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "1")
	cNvPr.CreateAttr("name", "")
	nv.CreateElement("p:cNvGrpSpPr")
	nv.CreateElement("p:nvPr")

	xfrm := tree.CreateElement("p:grpSpPr").CreateElement("a:xfrm")
	for _, pair := range [][2]string{{"a:off", "x"}, {"a:ext", "cx"}, {"a:chOff", "x"}, {"a:chExt", "cx"}} {
		e := xfrm.CreateElement(pair[0])
		if pair[1] == "x" {
			e.CreateAttr("x", "0")
			e.CreateAttr("y", "0")
		} else {
			e.CreateAttr("cx", "0")
			e.CreateAttr("cy", "0")
		}
	}

	root.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")
	return newXMLDocument(root)
}

// prefixFor returns the prefix bound to ns on root, declaring fallback when
// the namespace is not declared there.
func prefixFor(root *etree.Element, ns, fallback string) string {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == ns {
			return a.Key
		}
	}
	root.CreateAttr("xmlns:"+fallback, ns)
	return fallback
}

func childrenNamed(e *etree.Element, ns, local string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if is(c, ns, local) {
			out = append(out, c)
		}
	}
	return out
}

// RemoveSlide drops a single slide from the presentation. Parts only the
// slide referred to are left for Prune.
func (p *Package) RemoveSlide(slidePart string) error {
	part, doc, rels, err := p.presentation()
	if err != nil {
		return err
	}

	list := child(doc.Root(), NSPresentation, "sldIdLst")
	for _, id := range childrenNamed(list, NSPresentation, "sldId") {
		ref := attr(id, NSRelationships, "id")
		if ref == nil {
			continue
		}
		rel, ok := rels.Get(ref.Value)
		if !ok || resolveTarget(part, rel.Target) != slidePart {
			continue
		}
		list.RemoveChild(id)
		rels.Remove(rel.ID)
		p.Remove(slidePart)
		return nil
	}
	return goerr.Wrap(ErrSlideNotFound, "slide is not listed in the presentation", goerr.V(PartKey, slidePart))
}
