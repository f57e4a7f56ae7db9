package pptx

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/brendanbecker/ce101/pkg/domain/model"
)

// SlideTexts returns the non-blank paragraphs of every slide file, ordered by
// the number in the file name.
func (p *Package) SlideTexts() ([]model.SlideText, error) {
	files := p.SlideFiles()
	out := make([]model.SlideText, 0, len(files))
	for _, f := range files {
		doc, err := p.Doc(f.Part)
		if err != nil {
			return nil, err
		}

		st := model.SlideText{Number: f.Number}
		for _, para := range descendants(doc.Root(), NSDrawing, "p") {
			if text := paragraphText(para); strings.TrimSpace(text) != "" {
				st.Paragraphs = append(st.Paragraphs, text)
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// Deck returns the text-bearing shapes of every slide in presentation order.
// Shapes inside groups are listed in place of the group.
func (p *Package) Deck() (*model.Deck, error) {
	parts, err := p.SlideParts()
	if err != nil {
		return nil, err
	}

	deck := &model.Deck{Slides: make([]model.Slide, 0, len(parts))}
	for i, part := range parts {
		doc, err := p.Doc(part)
		if err != nil {
			return nil, err
		}
		slide := model.Slide{Number: i + 1, Part: part}
		tree := child(child(doc.Root(), NSPresentation, "cSld"), NSPresentation, "spTree")
		slide.Shapes = collectShapes(tree, nil)
		deck.Slides = append(deck.Slides, slide)
	}
	return deck, nil
}

func collectShapes(tree *etree.Element, out []model.Shape) []model.Shape {
	if tree == nil {
		return out
	}
	for _, e := range tree.ChildElements() {
		switch {
		case is(e, NSPresentation, "grpSp"):
			out = collectShapes(e, out)
		case is(e, NSPresentation, "sp"):
			body := child(e, NSPresentation, "txBody")
			if body == nil {
				continue
			}
			shape := model.Shape{}
			if nv := child(child(e, NSPresentation, "nvSpPr"), NSPresentation, "cNvPr"); nv != nil {
				shape.ID = plainAttr(nv, "id")
				shape.Name = plainAttr(nv, "name")
			}
			for _, para := range childrenNamed(body, NSDrawing, "p") {
				shape.Paragraphs = append(shape.Paragraphs, paragraphText(para))
			}
			out = append(out, shape)
		}
	}
	return out
}

// paragraphText concatenates the runs and fields of a paragraph. Line breaks
// become newlines.
func paragraphText(para *etree.Element) string {
	var b strings.Builder
	walk(para, func(e *etree.Element) bool {
		switch {
		case is(e, NSDrawing, "t"):
			b.WriteString(e.Text())
			return false
		case is(e, NSDrawing, "br"):
			b.WriteByte('\n')
			return false
		}
		return true
	})
	return b.String()
}
