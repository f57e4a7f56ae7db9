package usecase_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/service/pptx"
	"github.com/brendanbecker/ce101/pkg/service/pptx/pptxtest"
	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestPPTXUseCase_ExtractText(t *testing.T) {
	path := pptxtest.Write(t, "deck.pptx",
		pptxtest.Slide{File: 2, Shapes: [][]string{{"  Hello ", " "}, {"World"}}},
		pptxtest.Slide{File: 1},
	)

	var buf bytes.Buffer
	gt.NoError(t, usecase.NewPPTXUseCase().ExtractText(context.Background(), &buf, path)).Required()

	banner := strings.Repeat("=", 60)
	expected := "Total slides: 2\n\n" +
		banner + "\nSLIDE 1\n" + banner + "\n" +
		"[No text content]\n\n" +
		banner + "\nSLIDE 2\n" + banner + "\n" +
		"Hello\n\nWorld\n\n\n"
	gt.Value(t, buf.String()).Equal(expected)
}

func TestPPTXUseCase_ExtractTextMissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := usecase.NewPPTXUseCase().ExtractText(context.Background(), &buf, filepath.Join(t.TempDir(), "missing.pptx"))
	gt.Value(t, err).NotNil()
	gt.Value(t, buf.Len()).Equal(0)
}

func TestPPTXUseCase_ListShapes(t *testing.T) {
	path := pptxtest.Write(t, "deck.pptx",
		pptxtest.Slide{Shapes: [][]string{{"Title"}, {" "}}, Group: [][]string{{"in group"}}},
		pptxtest.Slide{Shapes: [][]string{{"Line one", "Line two"}}},
	)

	var buf bytes.Buffer
	gt.NoError(t, usecase.NewPPTXUseCase().ListShapes(context.Background(), &buf, path)).Required()

	out := buf.String()
	gt.String(t, out).Contains("Total slides: 2\n")
	gt.String(t, out).Contains("SLIDE 1\n")
	gt.String(t, out).Contains("Title\n\nin group\n\n")
	gt.String(t, out).Contains("SLIDE 2\n")
	gt.String(t, out).Contains("Line one\nLine two\n\n")
}

func unicodeDeck(t *testing.T) string {
	t.Helper()
	return pptxtest.Write(t, "unicode.pptx",
		pptxtest.Slide{Shapes: [][]string{{"Launch 🚀🚀 ready"}, {"bad \uFFFD char", "café → next"}}},
		pptxtest.Slide{Shapes: [][]string{{"plain text"}}},
		pptxtest.Slide{Group: [][]string{{"private \uE000 use"}}},
	)
}

func TestPPTXUseCase_AnalyzeUnicode(t *testing.T) {
	path := unicodeDeck(t)

	report, err := usecase.NewPPTXUseCase().AnalyzeUnicode(context.Background(), path)
	gt.NoError(t, err).Required()

	gt.Value(t, report.Path).Equal(path)
	gt.Value(t, report.TotalSlides).Equal(3)
	gt.Value(t, report.EmojiCount).Equal(2)
	gt.Value(t, report.BrokenCount).Equal(2)
	gt.Array(t, report.Findings).Length(2).Required()

	first := report.Findings[0]
	gt.Value(t, first.SlideNumber).Equal(1)
	gt.Array(t, first.Emoji).Length(1).Required()
	gt.Value(t, first.Emoji[0].CodePoint).Equal("U+1F680")
	gt.Value(t, first.Emoji[0].Name).Equal("ROCKET")
	gt.Array(t, first.Broken).Length(1).Required()
	gt.Value(t, first.Broken[0].CodePoint).Equal("U+FFFD")
	gt.Array(t, first.OtherSpecial).Length(1).Required()
	gt.Value(t, first.OtherSpecial[0].Name).Equal("RIGHTWARDS ARROW")

	third := report.Findings[1]
	gt.Value(t, third.SlideNumber).Equal(3)
	gt.Array(t, third.Broken).Length(1).Required()
	gt.Value(t, third.Broken[0].CodePoint).Equal("U+E000")
	gt.Value(t, third.Broken[0].Name).Equal("UNNAMED")
	gt.Array(t, third.Emoji).Length(0)
}

func TestRenderUnicodeReport(t *testing.T) {
	t.Run("findings", func(t *testing.T) {
		report, err := usecase.NewPPTXUseCase().AnalyzeUnicode(context.Background(), unicodeDeck(t))
		gt.NoError(t, err).Required()

		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderUnicodeReport(&buf, report)).Required()

		out := buf.String()
		gt.String(t, out).Contains("Analyzing: " + report.Path)
		gt.String(t, out).Contains("Total Slides: 3\n")
		gt.String(t, out).Contains("Slides with Issues: 2\n")
		gt.String(t, out).Contains("Total Emoji Characters Found: 2\n")
		gt.String(t, out).Contains("Total Broken Characters Found: 2\n")
		gt.String(t, out).Contains("--- Slide 1 ---")
		gt.String(t, out).Contains("BROKEN/GARBLED UNICODE (1 unique):")
		gt.String(t, out).Contains(`'\ufffd' - U+FFFD - REPLACEMENT CHARACTER (So)`)
		gt.String(t, out).Contains("🚀 - U+1F680 - ROCKET")
		gt.String(t, out).Contains("→ - U+2192 - RIGHTWARDS ARROW")
		gt.String(t, out).Contains("--- Slide 3 ---")
	})

	t.Run("clean deck", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, usecase.RenderUnicodeReport(&buf, &model.UnicodeReport{Path: "clean.pptx", TotalSlides: 4})).Required()
		gt.String(t, buf.String()).Contains("Total Slides: 4\n")
		gt.String(t, buf.String()).Contains("No emoji or unicode issues found!")
	})
}

func TestPPTXUseCase_AnalyzeFiles(t *testing.T) {
	good := unicodeDeck(t)
	missing := filepath.Join(t.TempDir(), "missing.pptx")
	clean := pptxtest.Write(t, "clean.pptx", pptxtest.Slide{Shapes: [][]string{{"ascii only"}}})

	var buf bytes.Buffer
	err := usecase.NewPPTXUseCase().AnalyzeFiles(context.Background(), &buf, []string{good, missing, clean})
	gt.Error(t, err).Is(usecase.ErrAnalysisFailed)

	out := buf.String()
	gt.String(t, out).Contains("ERROR: Could not open presentation")

	iGood := strings.Index(out, "Analyzing: "+good)
	iMissing := strings.Index(out, "Analyzing: "+missing)
	iClean := strings.Index(out, "Analyzing: "+clean)
	gt.Bool(t, iGood >= 0 && iGood < iMissing && iMissing < iClean).True()
}

func deckText(t *testing.T, path string) [][]string {
	t.Helper()
	pkg, err := pptx.Open(path)
	gt.NoError(t, err).Required()
	deck, err := pkg.Deck()
	gt.NoError(t, err).Required()

	var out [][]string
	for _, slide := range deck.Slides {
		var texts []string
		for _, shape := range slide.Shapes {
			texts = append(texts, shape.Text())
		}
		out = append(out, texts)
	}
	return out
}

func TestPPTXUseCase_Combine(t *testing.T) {
	ctx := context.Background()
	first := pptxtest.Write(t, "intro.pptx",
		pptxtest.Slide{Shapes: [][]string{{"a1"}}},
		pptxtest.Slide{Shapes: [][]string{{"a2"}}},
	)
	second := pptxtest.Write(t, "storage.pptx",
		pptxtest.Slide{Shapes: [][]string{{"b1"}}},
		pptxtest.Slide{Shapes: [][]string{{"b2"}}, Image: "image1.png"},
		pptxtest.Slide{Shapes: [][]string{{"b3"}}},
	)

	t.Run("all slides copied", func(t *testing.T) {
		dir := t.TempDir()
		plan := &model.CombinePlan{
			Output:  "out/combined.pptx",
			BaseDir: dir,
			Sources: []model.CombineSource{
				{Path: first, Divider: &model.Divider{Number: 1, Title: "Intro"}},
				{Path: second, Start: 2, Divider: &model.Divider{Number: 2, Title: "Storage"}},
			},
		}

		result, err := usecase.NewPPTXUseCase().Combine(ctx, plan)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Output).Equal(filepath.Join(dir, "out", "combined.pptx"))
		gt.Value(t, result.Slides).Equal(4)
		gt.Value(t, result.Dividers).Equal(2)
		gt.Array(t, result.Failures).Length(0)

		gt.Value(t, deckText(t, result.Output)).Equal([][]string{
			{"Module 1\nIntro"},
			{"a1"},
			{"a2"},
			{"Module 2\nStorage"},
			{"b2"},
			{"b3"},
		})

		out, err := pptx.Open(result.Output)
		gt.NoError(t, err).Required()
		gt.Bool(t, out.Has("ppt/media/image1.png")).True()
	})

	t.Run("missing slides are reported after saving", func(t *testing.T) {
		dir := t.TempDir()
		plan := &model.CombinePlan{
			Output:  filepath.Join(dir, "partial.pptx"),
			Sources: []model.CombineSource{
				{Path: second, Start: 2, End: 5},
			},
		}

		result, err := usecase.NewPPTXUseCase().Combine(ctx, plan)
		gt.Error(t, err).Is(usecase.ErrSlidesFailed)
		gt.Value(t, result).NotNil()
		gt.Value(t, result.Slides).Equal(2)
		gt.Array(t, result.Failures).Length(2).Required()
		gt.Value(t, result.Failures[0].Slide).Equal(4)
		gt.Value(t, result.Failures[1].Slide).Equal(5)
		gt.Error(t, result.Failures[0].Err).Is(pptx.ErrSlideNotFound)

		gt.Value(t, deckText(t, result.Output)).Equal([][]string{{"b2"}, {"b3"}})
	})

	t.Run("unreadable source is skipped", func(t *testing.T) {
		dir := t.TempDir()
		plan := &model.CombinePlan{
			Output: filepath.Join(dir, "skip.pptx"),
			Sources: []model.CombineSource{
				{Path: first, End: 1},
				{Path: filepath.Join(dir, "missing.pptx")},
			},
		}

		result, err := usecase.NewPPTXUseCase().Combine(ctx, plan)
		gt.Error(t, err).Is(usecase.ErrSlidesFailed)
		gt.Array(t, result.Failures).Length(1).Required()
		gt.Value(t, result.Failures[0].Slide).Equal(0)
		gt.Value(t, deckText(t, result.Output)).Equal([][]string{{"a1"}})
	})

	t.Run("invalid plan", func(t *testing.T) {
		_, err := usecase.NewPPTXUseCase().Combine(ctx, &model.CombinePlan{})
		gt.Value(t, err).NotNil()
	})
}
