package pptx

import (
	"github.com/beevik/etree"
	"github.com/m-mizutani/goerr/v2"
)

// Cloner copies slides of one source package into a destination package.
// Parts referenced from copied slides (images, media, charts and whatever
// those refer to) are copied once per source and shared between slides.
type Cloner struct {
	dst    *Package
	src    *Package
	layout string
	copied map[string]string
}

// NewCloner creates a Cloner whose new slides use layout of dst
func NewCloner(dst, src *Package, layout string) *Cloner {
	return &Cloner{
		dst:    dst,
		src:    src,
		layout: layout,
		copied: make(map[string]string),
	}
}

// CloneSlide appends a copy of the source slide srcPart to the destination
// and returns the new slide part. The shape tree and background are copied;
// the slide is rolled back when any referenced part cannot be copied.
func (c *Cloner) CloneSlide(srcPart string) (string, error) {
	srcDoc, err := c.src.Doc(srcPart)
	if err != nil {
		return "", err
	}
	srcRels, err := c.src.Rels(srcPart)
	if err != nil {
		return "", err
	}
	srcCSld := child(srcDoc.Root(), NSPresentation, "cSld")
	srcTree := child(srcCSld, NSPresentation, "spTree")
	if srcTree == nil {
		return "", goerr.Wrap(ErrInvalidPart, "slide has no shape tree", goerr.V(PartKey, srcPart))
	}

	dstPart, dstDoc, err := c.dst.AddSlide(c.layout)
	if err != nil {
		return "", err
	}

	if err := c.fill(srcPart, srcRels, srcDoc.Root(), srcCSld, srcTree, dstPart, dstDoc); err != nil {
		if rmErr := c.dst.RemoveSlide(dstPart); rmErr != nil {
			return "", goerr.Wrap(rmErr, "failed to roll back slide", goerr.V(PartKey, dstPart), goerr.V("cause", err.Error()))
		}
		return "", err
	}
	return dstPart, nil
}

func (c *Cloner) fill(srcPart string, srcRels *Relationships, srcRoot, srcCSld, srcTree *etree.Element, dstPart string, dstDoc *etree.Document) error {
	dstRoot := dstDoc.Root()
	dstCSld := child(dstRoot, NSPresentation, "cSld")
	dstTree := child(dstCSld, NSPresentation, "spTree")

	for _, e := range dstTree.ChildElements() {
		dstTree.RemoveChild(e)
	}

	var copies []*etree.Element
	for _, e := range srcTree.ChildElements() {
		cp := e.Copy()
		dstTree.AddChild(cp)
		copies = append(copies, cp)
	}
	if bg := child(srcCSld, NSPresentation, "bg"); bg != nil {
		if old := child(dstCSld, NSPresentation, "bg"); old != nil {
			dstCSld.RemoveChild(old)
		}
		cp := bg.Copy()
		dstCSld.InsertChildAt(0, cp)
		copies = append(copies, cp)
	}

	declareNamespaces(srcRoot, dstRoot, copies)

	dstRels, err := c.dst.Rels(dstPart)
	if err != nil {
		return err
	}

	remapped := map[string]string{}
	var walkErr error
	for _, cp := range copies {
		walk(cp, func(e *etree.Element) bool {
			if walkErr != nil {
				return false
			}
			for i := 0; i < len(e.Attr); i++ {
				a := &e.Attr[i]
				if a.Space == "" || a.Space == "xmlns" || lookupNamespace(e, a.Space) != NSRelationships {
					continue
				}
				newID, ok := remapped[a.Value]
				if !ok {
					newID, err = c.relocate(srcPart, srcRels, a.Value, dstPart, dstRels)
					if err != nil {
						walkErr = err
						return false
					}
					remapped[a.Value] = newID
				}
				if newID == "" {
					e.RemoveAttr(a.FullKey())
					i--
					continue
				}
				a.Value = newID
			}
			return true
		})
	}
	return walkErr
}

// relocate copies the target of the source relationship id and registers it
// on the destination slide. An empty result means the reference is dropped.
func (c *Cloner) relocate(srcPart string, srcRels *Relationships, id, dstPart string, dstRels *Relationships) (string, error) {
	rel, ok := srcRels.Get(id)
	if !ok {
		return "", goerr.Wrap(ErrInvalidPart, "slide refers to unknown relationship",
			goerr.V(PartKey, srcPart), goerr.V("rid", id))
	}
	if rel.External {
		return dstRels.Add(Relationship{Type: rel.Type, Target: rel.Target, External: true}), nil
	}
	if structuralRelTypes[rel.Type] {
		return "", nil
	}

	target, err := c.copyPart(resolveTarget(srcPart, rel.Target))
	if err != nil {
		return "", err
	}
	return dstRels.Add(Relationship{Type: rel.Type, Target: relativeTarget(dstPart, target)}), nil
}

// copyPart copies srcPart and everything it refers to into the destination
// and returns the destination part name.
func (c *Cloner) copyPart(srcPart string) (string, error) {
	if name, ok := c.copied[srcPart]; ok {
		return name, nil
	}

	data, err := c.src.Data(srcPart)
	if err != nil {
		return "", err
	}
	name := c.dst.UniqueName(srcPart)
	c.copied[srcPart] = name
	c.dst.SetData(name, data)

	contentType, override := c.src.types.TypeOf(srcPart)
	switch {
	case override:
		c.dst.types.SetOverride(name, contentType)
	case contentType != "" && !c.dst.types.HasDefault(extOf(name)):
		c.dst.types.SetDefault(extOf(name), contentType)
	}

	srcRels, err := c.src.Rels(srcPart)
	if err != nil {
		return "", err
	}
	if len(srcRels.All()) == 0 {
		return name, nil
	}
	dstRels, err := c.dst.Rels(name)
	if err != nil {
		return "", err
	}
	for _, rel := range srcRels.All() {
		switch {
		case rel.External:
			dstRels.Add(rel)
		case structuralRelTypes[rel.Type]:
			continue
		default:
			target, err := c.copyPart(resolveTarget(srcPart, rel.Target))
			if err != nil {
				return "", err
			}
			dstRels.Add(Relationship{ID: rel.ID, Type: rel.Type, Target: relativeTarget(name, target)})
		}
	}
	return name, nil
}

// declareNamespaces makes the prefixes bound on the source slide root
// available to the copied elements. A prefix the destination binds to a
// different namespace is redeclared on each copied element.
func declareNamespaces(srcRoot, dstRoot *etree.Element, copies []*etree.Element) {
	for _, a := range srcRoot.Attr {
		if a.Space != "xmlns" {
			continue
		}
		switch current := lookupNamespace(dstRoot, a.Key); current {
		case a.Value:
		case "":
			dstRoot.CreateAttr("xmlns:"+a.Key, a.Value)
		default:
			for _, cp := range copies {
				cp.CreateAttr("xmlns:"+a.Key, a.Value)
			}
		}
	}
}
