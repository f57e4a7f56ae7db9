package pptx

import (
	"github.com/beevik/etree"
	"github.com/m-mizutani/goerr/v2"
)

func parseXML(name string, data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, goerr.Wrap(ErrInvalidPart, err.Error(), goerr.V(PartKey, name))
	}
	if doc.Root() == nil {
		return nil, goerr.Wrap(ErrInvalidPart, "part has no root element", goerr.V(PartKey, name))
	}
	return doc, nil
}

func newXMLDocument(root *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlDeclaration)
	doc.SetRoot(root)
	return doc
}

func is(e *etree.Element, ns, local string) bool {
	return e.Tag == local && e.NamespaceURI() == ns
}

// child returns the first direct child of e named {ns}local
func child(e *etree.Element, ns, local string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if is(c, ns, local) {
			return c
		}
	}
	return nil
}

// descendants returns every element below e named {ns}local in document order
func descendants(e *etree.Element, ns, local string) []*etree.Element {
	var out []*etree.Element
	walk(e, func(el *etree.Element) bool {
		if is(el, ns, local) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// walk visits e and its descendants depth-first. Returning false from fn
// skips the children of the visited element.
func walk(e *etree.Element, fn func(*etree.Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}

// attr returns the attribute {ns}local of e. Prefixes are resolved against
// e and its ancestors.
func attr(e *etree.Element, ns, local string) *etree.Attr {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key == local && a.Space != "" && a.Space != "xmlns" && lookupNamespace(e, a.Space) == ns {
			return a
		}
	}
	return nil
}

// plainAttr returns the value of the unprefixed attribute key of e
func plainAttr(e *etree.Element, key string) string {
	for _, a := range e.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value
		}
	}
	return ""
}

func lookupNamespace(e *etree.Element, prefix string) string {
	for ; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}
