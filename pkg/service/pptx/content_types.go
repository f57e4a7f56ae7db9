package pptx

import (
	"path"
	"strings"

	"github.com/beevik/etree"
)

// ContentTypes is the [Content_Types].xml part: default types per extension
// plus per-part overrides.
type ContentTypes struct {
	defaults  map[string]string
	overrides map[string]string
	extOrder  []string
	partOrder []string
}

func parseContentTypes(data []byte) (*ContentTypes, error) {
	doc, err := parseXML(contentTypesPart, data)
	if err != nil {
		return nil, err
	}

	ct := newContentTypes()
	for _, e := range doc.Root().ChildElements() {
		switch e.Tag {
		case "Default":
			ct.SetDefault(e.SelectAttrValue("Extension", ""), e.SelectAttrValue("ContentType", ""))
		case "Override":
			ct.SetOverride(strings.TrimPrefix(e.SelectAttrValue("PartName", ""), "/"), e.SelectAttrValue("ContentType", ""))
		}
	}
	return ct, nil
}

func newContentTypes() *ContentTypes {
	return &ContentTypes{
		defaults:  make(map[string]string),
		overrides: make(map[string]string),
	}
}

func extOf(part string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(part), "."))
}

// TypeOf returns the content type of part and whether it came from an override
func (c *ContentTypes) TypeOf(part string) (string, bool) {
	if t, ok := c.overrides[part]; ok {
		return t, true
	}
	return c.defaults[extOf(part)], false
}

// SetDefault registers the content type for files with extension ext
func (c *ContentTypes) SetDefault(ext, contentType string) {
	ext = strings.ToLower(ext)
	if _, ok := c.defaults[ext]; !ok {
		c.extOrder = append(c.extOrder, ext)
	}
	c.defaults[ext] = contentType
}

// HasDefault reports whether ext has a default content type
func (c *ContentTypes) HasDefault(ext string) bool {
	_, ok := c.defaults[strings.ToLower(ext)]
	return ok
}

// SetOverride registers the content type of a single part
func (c *ContentTypes) SetOverride(part, contentType string) {
	if _, ok := c.overrides[part]; !ok {
		c.partOrder = append(c.partOrder, part)
	}
	c.overrides[part] = contentType
}

// RemoveOverride drops the override of part
func (c *ContentTypes) RemoveOverride(part string) {
	if _, ok := c.overrides[part]; !ok {
		return
	}
	delete(c.overrides, part)
	out := c.partOrder[:0]
	for _, p := range c.partOrder {
		if p != part {
			out = append(out, p)
		}
	}
	c.partOrder = out
}

func (c *ContentTypes) marshal() ([]byte, error) {
	root := etree.NewElement("Types")
	root.CreateAttr("xmlns", NSContentTypes)
	for _, ext := range c.extOrder {
		e := root.CreateElement("Default")
		e.CreateAttr("Extension", ext)
		e.CreateAttr("ContentType", c.defaults[ext])
	}
	for _, part := range c.partOrder {
		e := root.CreateElement("Override")
		e.CreateAttr("PartName", "/"+part)
		e.CreateAttr("ContentType", c.overrides[part])
	}
	return newXMLDocument(root).WriteToBytes()
}
