// Package pptxtest builds minimal presentation packages for tests.
package pptxtest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/gt"
)

// Slide describes one slide of a generated deck. Each shape is a list of
// paragraphs; File overrides the number in the slide file name. Image adds a
// picture backed by a media part of that name.
type Slide struct {
	File   int
	Shapes [][]string
	Group  [][]string
	Image  string
	BG     string
}

const (
	nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	relsNS   = `http://schemas.openxmlformats.org/package/2006/relationships`
	relTypes = `http://schemas.openxmlformats.org/officeDocument/2006/relationships/`
	xmlHead  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// PNG is the content of every generated media part
var PNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func rel(id, typ, target string) string {
	return fmt.Sprintf(`<Relationship Id="%s" Type="%s%s" Target="%s"/>`, id, relTypes, typ, target)
}

func relsXML(items ...string) string {
	return xmlHead + `<Relationships xmlns="` + relsNS + `">` + strings.Join(items, "") + `</Relationships>`
}

func shapeXML(id int, paragraphs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`, id, id)
	for _, para := range paragraphs {
		b.WriteString(`<a:p>`)
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				b.WriteString(`<a:br/>`)
			}
			fmt.Fprintf(&b, `<a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r>`, line)
		}
		b.WriteString(`</a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func slideXML(s Slide) string {
	var b strings.Builder
	b.WriteString(xmlHead + `<p:sld ` + nsDecl + `><p:cSld>`)
	if s.BG != "" {
		fmt.Fprintf(&b, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`, s.BG)
	}
	b.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	id := 2
	for _, shape := range s.Shapes {
		b.WriteString(shapeXML(id, shape))
		id++
	}
	if len(s.Group) > 0 {
		fmt.Fprintf(&b, `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`, id)
		id++
		for _, shape := range s.Group {
			b.WriteString(shapeXML(id, shape))
			id++
		}
		b.WriteString(`</p:grpSp>`)
	}
	if s.Image != "" {
		fmt.Fprintf(&b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
			`<p:blipFill><a:blip r:embed="rId2"/></p:blipFill><p:spPr/></p:pic>`, id)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

// Build returns a minimal presentation package with one master, one layout
// and the given slides in presentation order.
func Build(t testing.TB, slides ...Slide) []byte {
	t.Helper()

	files := map[string]string{}
	var overrides, sldIDs, presRels []string
	presRels = append(presRels, rel("rId1", "slideMaster", "slideMasters/slideMaster1.xml"))

	for i, s := range slides {
		n := s.File
		if n == 0 {
			n = i + 1
		}
		part := fmt.Sprintf("ppt/slides/slide%d.xml", n)
		rid := fmt.Sprintf("rId%d", i+2)
		files[part] = slideXML(s)

		slideRels := []string{rel("rId1", "slideLayout", "../slideLayouts/slideLayout1.xml")}
		if s.Image != "" {
			slideRels = append(slideRels, rel("rId2", "image", "../media/"+s.Image))
			files["ppt/media/"+s.Image] = string(PNG)
		}
		files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)] = relsXML(slideRels...)

		overrides = append(overrides, fmt.Sprintf(`<Override PartName="/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, part))
		sldIDs = append(sldIDs, fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, 256+i, rid))
		presRels = append(presRels, rel(rid, "slide", fmt.Sprintf("slides/slide%d.xml", n)))
	}

	files["[Content_Types].xml"] = xmlHead + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
		`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
		`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
		strings.Join(overrides, "") + `</Types>`
	files["_rels/.rels"] = relsXML(rel("rId1", "officeDocument", "ppt/presentation.xml"))
	files["ppt/presentation.xml"] = xmlHead + `<p:presentation ` + nsDecl + `>` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>` + strings.Join(sldIDs, "") + `</p:sldIdLst>` +
		`<p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`
	files["ppt/_rels/presentation.xml.rels"] = relsXML(presRels...)
	files["ppt/slideMasters/slideMaster1.xml"] = xmlHead + `<p:sldMaster ` + nsDecl + `><p:cSld><p:spTree/></p:cSld>` +
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`
	files["ppt/slideMasters/_rels/slideMaster1.xml.rels"] = relsXML(rel("rId1", "slideLayout", "../slideLayouts/slideLayout1.xml"))
	files["ppt/slideLayouts/slideLayout1.xml"] = xmlHead + `<p:sldLayout ` + nsDecl + `><p:cSld><p:spTree/></p:cSld></p:sldLayout>`
	files["ppt/slideLayouts/_rels/slideLayout1.xml.rels"] = relsXML(rel("rId1", "slideMaster", "../slideMasters/slideMaster1.xml"))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := []string{"[Content_Types].xml"}
	for name := range files {
		if name != "[Content_Types].xml" {
			names = append(names, name)
		}
	}
	for _, name := range names {
		w, err := zw.Create(name)
		gt.NoError(t, err).Required()
		_, err = w.Write([]byte(files[name]))
		gt.NoError(t, err).Required()
	}
	gt.NoError(t, zw.Close()).Required()
	return buf.Bytes()
}

// Write stores a generated deck in a temporary directory and returns its path
func Write(t testing.TB, name string, slides ...Slide) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, Build(t, slides...), 0o600)).Required()
	return path
}
