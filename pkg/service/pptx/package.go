package pptx

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/brendanbecker/ce101/pkg/utils/safe"
	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/goerr/v2"
)

// Package is an OOXML package held in memory. Parsed XML parts and
// relationships are cached and serialized back on Write.
type Package struct {
	parts map[string][]byte
	order []string
	docs  map[string]*etree.Document
	rels  map[string]*Relationships
	types *ContentTypes
}

// Open reads the package at filePath
func Open(filePath string) (*Package, error) {
	// #nosec G304 - path is provided by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read presentation", goerr.V(PathKey, filePath))
	}
	pkg, err := Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open presentation", goerr.V(PathKey, filePath))
	}
	return pkg, nil
}

// Read loads a package from a zip archive
func Read(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidPackage, err.Error())
	}

	pkg := &Package{
		parts: make(map[string][]byte),
		docs:  make(map[string]*etree.Document),
		rels:  make(map[string]*Relationships),
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidPackage, "failed to read zip entry", goerr.V(PartKey, f.Name), goerr.V("cause", err.Error()))
		}
		if f.Name == contentTypesPart {
			if pkg.types, err = parseContentTypes(data); err != nil {
				return nil, err
			}
			continue
		}
		pkg.parts[f.Name] = data
		pkg.order = append(pkg.order, f.Name)
	}

	if pkg.types == nil {
		return nil, goerr.Wrap(ErrInvalidPackage, "missing content types part")
	}
	if _, ok := pkg.parts[relsPartName("")]; !ok {
		return nil, goerr.Wrap(ErrInvalidPackage, "missing package relationships")
	}
	return pkg, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer safe.Close(context.Background(), rc, "part", f.Name)
	return io.ReadAll(rc)
}

// Parts returns the part names in archive order
func (p *Package) Parts() []string {
	return append([]string(nil), p.order...)
}

// Has reports whether the package contains part
func (p *Package) Has(part string) bool {
	_, ok := p.parts[part]
	return ok
}

// ContentTypes returns the package content types
func (p *Package) ContentTypes() *ContentTypes {
	return p.types
}

// Data returns the raw bytes of part, serializing a cached document if present
func (p *Package) Data(part string) ([]byte, error) {
	if doc, ok := p.docs[part]; ok {
		data, err := doc.WriteToBytes()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to serialize part", goerr.V(PartKey, part))
		}
		return data, nil
	}
	data, ok := p.parts[part]
	if !ok {
		return nil, goerr.Wrap(ErrPartNotFound, "no such part", goerr.V(PartKey, part))
	}
	return data, nil
}

// Doc returns the parsed XML document of part. Changes made to the returned
// document are written back on Write.
func (p *Package) Doc(part string) (*etree.Document, error) {
	if doc, ok := p.docs[part]; ok {
		return doc, nil
	}
	data, ok := p.parts[part]
	if !ok {
		return nil, goerr.Wrap(ErrPartNotFound, "no such part", goerr.V(PartKey, part))
	}
	doc, err := parseXML(part, data)
	if err != nil {
		return nil, err
	}
	p.docs[part] = doc
	return doc, nil
}

// SetData stores raw bytes as part
func (p *Package) SetData(part string, data []byte) {
	if _, ok := p.parts[part]; !ok {
		p.order = append(p.order, part)
	}
	p.parts[part] = data
	delete(p.docs, part)
}

// SetDoc stores an XML document as part
func (p *Package) SetDoc(part string, doc *etree.Document) {
	if _, ok := p.parts[part]; !ok {
		p.order = append(p.order, part)
		p.parts[part] = nil
	}
	p.docs[part] = doc
}

// Rels returns the relationships of source. A part without a relationships
// file gets an empty set that is written only when something is added.
func (p *Package) Rels(source string) (*Relationships, error) {
	if rels, ok := p.rels[source]; ok {
		return rels, nil
	}

	name := relsPartName(source)
	rels := &Relationships{}
	if data, ok := p.parts[name]; ok {
		parsed, err := parseRelationships(name, data)
		if err != nil {
			return nil, err
		}
		rels = parsed
	}
	p.rels[source] = rels
	return rels, nil
}

// Remove deletes part together with its relationships and content type override
func (p *Package) Remove(part string) {
	p.drop(part)
	p.drop(relsPartName(part))
	delete(p.rels, part)
	p.types.RemoveOverride(part)
}

func (p *Package) drop(part string) {
	if _, ok := p.parts[part]; !ok {
		return
	}
	delete(p.parts, part)
	delete(p.docs, part)
	out := p.order[:0]
	for _, name := range p.order {
		if name != part {
			out = append(out, name)
		}
	}
	p.order = out
}

var partNumberPattern = regexp.MustCompile(`^(.*?)(\d*)(\.[^./]*)?$`)

// UniqueName returns candidate if it is free, otherwise the same name with
// the lowest number suffix not yet used in the package.
func (p *Package) UniqueName(candidate string) string {
	if !p.Has(candidate) && !p.Has(relsPartName(candidate)) {
		return candidate
	}
	dir, file := path.Split(candidate)
	m := partNumberPattern.FindStringSubmatch(file)
	base, ext := m[1], m[3]
	for n := 1; ; n++ {
		name := dir + base + strconv.Itoa(n) + ext
		if !p.Has(name) {
			return name
		}
	}
}

// Prune removes every part that cannot be reached from the package
// relationships and returns the removed part names.
func (p *Package) Prune() ([]string, error) {
	reachable := map[string]bool{}
	queue := []string{""}
	for len(queue) > 0 {
		source := queue[0]
		queue = queue[1:]

		if source != "" {
			reachable[source] = true
		}
		if source != "" && !p.Has(relsPartName(source)) && p.rels[source] == nil {
			continue
		}
		rels, err := p.Rels(source)
		if err != nil {
			return nil, err
		}
		if len(rels.items) > 0 {
			reachable[relsPartName(source)] = true
		}
		for _, rel := range rels.items {
			if rel.External {
				continue
			}
			target := resolveTarget(source, rel.Target)
			if reachable[target] || !p.Has(target) {
				continue
			}
			reachable[target] = true
			queue = append(queue, target)
		}
	}

	var removed []string
	for _, part := range p.Parts() {
		if !reachable[part] {
			removed = append(removed, part)
		}
	}
	for _, part := range removed {
		p.drop(part)
		delete(p.rels, part)
		p.types.RemoveOverride(part)
	}
	for _, part := range append([]string(nil), p.types.partOrder...) {
		if !p.Has(part) {
			p.types.RemoveOverride(part)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

func (p *Package) flush() error {
	sources := make([]string, 0, len(p.rels))
	for source := range p.rels {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		rels := p.rels[source]
		name := relsPartName(source)
		if len(rels.items) == 0 {
			p.drop(name)
			continue
		}
		data, err := rels.marshal()
		if err != nil {
			return goerr.Wrap(err, "failed to serialize relationships", goerr.V(PartKey, name))
		}
		p.SetData(name, data)
	}

	if !p.types.HasDefault("rels") {
		p.types.SetDefault("rels", ContentTypeRelationships)
	}
	if !p.types.HasDefault("xml") {
		p.types.SetDefault("xml", ContentTypeXML)
	}
	return nil
}

// Write serializes the package as a zip archive. The content types part is
// always the first entry.
func (p *Package) Write(w io.Writer) error {
	if err := p.flush(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	types, err := p.types.marshal()
	if err != nil {
		return goerr.Wrap(err, "failed to serialize content types")
	}
	if err := writeZipFile(zw, contentTypesPart, types); err != nil {
		return err
	}

	for _, part := range p.order {
		data, err := p.Data(part)
		if err != nil {
			return err
		}
		if err := writeZipFile(zw, part, data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize zip archive")
	}
	return nil
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return goerr.Wrap(err, "failed to create zip entry", goerr.V(PartKey, name))
	}
	if _, err := fw.Write(data); err != nil {
		return goerr.Wrap(err, "failed to write zip entry", goerr.V(PartKey, name))
	}
	return nil
}

// Save writes the package to filePath through a temporary file in the same
// directory, so a failed save leaves any existing file untouched.
func (p *Package) Save(ctx context.Context, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create output directory", goerr.V(PathKey, dir))
	}

	tmp, err := os.CreateTemp(dir, ".ce101-*.pptx")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V(PathKey, dir))
	}
	tmpName := tmp.Name()
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			if err := os.Remove(tmpName); err != nil {
				logging.From(ctx).Warn("failed to remove temporary file", "path", tmpName, "error", err)
			}
		}
	}()

	if err := p.Write(tmp); err != nil {
		safe.Close(ctx, tmp, "path", tmpName)
		return goerr.Wrap(err, "failed to write presentation", goerr.V(PathKey, filePath))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file", goerr.V(PathKey, tmpName))
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return goerr.Wrap(err, "failed to move presentation into place", goerr.V(PathKey, filePath))
	}
	return nil
}
