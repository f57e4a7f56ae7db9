package pptx

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Relationship is one entry of a part's relationships file
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// Relationships holds the relationships of a single source part
type Relationships struct {
	items []Relationship
}

func parseRelationships(name string, data []byte) (*Relationships, error) {
	doc, err := parseXML(name, data)
	if err != nil {
		return nil, err
	}

	rels := &Relationships{}
	for _, e := range doc.Root().ChildElements() {
		if e.Tag != "Relationship" {
			continue
		}
		rels.items = append(rels.items, Relationship{
			ID:       e.SelectAttrValue("Id", ""),
			Type:     e.SelectAttrValue("Type", ""),
			Target:   e.SelectAttrValue("Target", ""),
			External: e.SelectAttrValue("TargetMode", "") == "External",
		})
	}
	return rels, nil
}

// All returns the relationships in file order
func (r *Relationships) All() []Relationship {
	return r.items
}

// Get returns the relationship with the given ID
func (r *Relationships) Get(id string) (Relationship, bool) {
	for _, rel := range r.items {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// FirstOfType returns the first relationship of type relType
func (r *Relationships) FirstOfType(relType string) (Relationship, bool) {
	for _, rel := range r.items {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Add appends rel. An empty ID is replaced by the next free rIdN, which is returned.
func (r *Relationships) Add(rel Relationship) string {
	if rel.ID == "" {
		rel.ID = r.nextID()
	}
	r.items = append(r.items, rel)
	return rel.ID
}

// Remove deletes the relationship with the given ID
func (r *Relationships) Remove(id string) {
	out := r.items[:0]
	for _, rel := range r.items {
		if rel.ID != id {
			out = append(out, rel)
		}
	}
	r.items = out
}

func (r *Relationships) nextID() string {
	maxID := 0
	for _, rel := range r.items {
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("rId%d", maxID+1)
}

func (r *Relationships) marshal() ([]byte, error) {
	root := etree.NewElement("Relationships")
	root.CreateAttr("xmlns", NSPackageRels)
	for _, rel := range r.items {
		e := root.CreateElement("Relationship")
		e.CreateAttr("Id", rel.ID)
		e.CreateAttr("Type", rel.Type)
		e.CreateAttr("Target", rel.Target)
		if rel.External {
			e.CreateAttr("TargetMode", "External")
		}
	}
	return newXMLDocument(root).WriteToBytes()
}

// relsPartName returns the relationships part of partName. The package-level
// relationships belong to the empty part name.
func relsPartName(partName string) string {
	dir, file := path.Split(partName)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget returns the part name a relative target points to from source
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir("/"+source), target), "/")
}

// relativeTarget returns the target string that addresses part from source
func relativeTarget(source, part string) string {
	from := strings.Split(path.Dir("/"+source), "/")[1:]
	to := strings.Split("/"+part, "/")[1:]
	if len(from) == 1 && from[0] == "" {
		from = nil
	}

	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}

	var parts []string
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}
