package pptx

import (
	"fmt"

	"github.com/beevik/etree"
)

// Divider slide appearance. Geometry is in EMU (914400 per inch).
const (
	DividerBackground = "1F3864"
	DividerTextColor  = "FFFFFF"

	dividerX      = 914400
	dividerY      = 2743200
	dividerWidth  = 7315200
	dividerHeight = 1828800

	dividerNumberSize = 3600
	dividerTitleSize  = 5400
)

// AddDivider appends a section divider slide based on layout. It has a solid
// background and a centred "Module N" line above the title.
func (p *Package) AddDivider(layout string, number int, title string) (string, error) {
	part, doc, err := p.AddSlide(layout)
	if err != nil {
		return "", err
	}

	root := doc.Root()
	a := prefixFor(root, NSDrawing, "a")
	pp := prefixFor(root, NSPresentation, "p")
	cSld := child(root, NSPresentation, "cSld")
	tree := child(cSld, NSPresentation, "spTree")

	bg := etree.NewElement(pp + ":bg")
	bgPr := bg.CreateElement(pp + ":bgPr")
	solidFill(bgPr, a, DividerBackground)
	bgPr.CreateElement(a + ":effectLst")
	cSld.InsertChildAt(0, bg)

	sp := tree.CreateElement(pp + ":sp")
	nv := sp.CreateElement(pp + ":nvSpPr")
	cNvPr := nv.CreateElement(pp + ":cNvPr")
	cNvPr.CreateAttr("id", "2")
	cNvPr.CreateAttr("name", "TextBox 1")
	nv.CreateElement(pp+":cNvSpPr").CreateAttr("txBox", "1")
	nv.CreateElement(pp + ":nvPr")

	spPr := sp.CreateElement(pp + ":spPr")
	xfrm := spPr.CreateElement(a + ":xfrm")
	off := xfrm.CreateElement(a + ":off")
	off.CreateAttr("x", fmt.Sprint(dividerX))
	off.CreateAttr("y", fmt.Sprint(dividerY))
	ext := xfrm.CreateElement(a + ":ext")
	ext.CreateAttr("cx", fmt.Sprint(dividerWidth))
	ext.CreateAttr("cy", fmt.Sprint(dividerHeight))
	geom := spPr.CreateElement(a + ":prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement(a + ":avLst")
	spPr.CreateElement(a + ":noFill")

	body := sp.CreateElement(pp + ":txBody")
	bodyPr := body.CreateElement(a + ":bodyPr")
	bodyPr.CreateAttr("wrap", "square")
	bodyPr.CreateAttr("rtlCol", "0")
	bodyPr.CreateElement(a + ":spAutoFit")
	body.CreateElement(a + ":lstStyle")

	centredParagraph(body, a, fmt.Sprintf("Module %d", number), dividerNumberSize)
	centredParagraph(body, a, title, dividerTitleSize)

	return part, nil
}

func centredParagraph(body *etree.Element, a, text string, size int) {
	para := body.CreateElement(a + ":p")
	para.CreateElement(a+":pPr").CreateAttr("algn", "ctr")
	run := para.CreateElement(a + ":r")
	rPr := run.CreateElement(a + ":rPr")
	rPr.CreateAttr("lang", "en-US")
	rPr.CreateAttr("sz", fmt.Sprint(size))
	rPr.CreateAttr("b", "1")
	rPr.CreateAttr("dirty", "0")
	solidFill(rPr, a, DividerTextColor)
	run.CreateElement(a + ":t").SetText(text)
}

func solidFill(parent *etree.Element, a, color string) {
	parent.CreateElement(a+":solidFill").CreateElement(a+":srgbClr").CreateAttr("val", color)
}
