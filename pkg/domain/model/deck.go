package model

import "strings"

// Deck is the text content of a presentation
type Deck struct {
	Path   string
	Slides []Slide
}

// Slide holds the shapes of one slide. Number is 1-based in presentation order.
type Slide struct {
	Number int
	Part   string
	Shapes []Shape
}

// Shape is a text-bearing shape; group shapes are flattened into their members
type Shape struct {
	ID         string
	Name       string
	Paragraphs []string
}

// Text returns the paragraphs joined by newlines
func (s Shape) Text() string {
	return strings.Join(s.Paragraphs, "\n")
}

// SlideText is the flat paragraph list of one slide part, used by plain text extraction
type SlideText struct {
	Number     int
	Paragraphs []string
}
