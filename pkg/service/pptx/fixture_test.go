package pptx_test

import (
	"github.com/brendanbecker/ce101/pkg/service/pptx/pptxtest"
)

type fixtureSlide = pptxtest.Slide

var (
	buildDeck = pptxtest.Build
	writeDeck = pptxtest.Write
)
