package usecase

import (
	"context"
	"io"
	"strings"
	"unicode"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/service/pptx"
	"github.com/brendanbecker/ce101/pkg/utils/errutil"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	slideBanner  = 60
	reportBanner = 80

	// otherSpecialFloor is the code point above which a non-emoji, non-broken
	// character is reported
	otherSpecialFloor = 0x2000

	defaultAnalyzeConcurrency = 4
)

// PPTXUseCase reads, analyzes and combines presentations
type PPTXUseCase struct {
	concurrency int
}

// NewPPTXUseCase creates a new PPTXUseCase
func NewPPTXUseCase() *PPTXUseCase {
	return &PPTXUseCase{concurrency: defaultAnalyzeConcurrency}
}

// ExtractText writes the paragraphs of every slide file, ordered by slide file
// number
func (uc *PPTXUseCase) ExtractText(ctx context.Context, w io.Writer, path string) error {
	pkg, err := pptx.Open(path)
	if err != nil {
		return err
	}
	slides, err := pkg.SlideTexts()
	if err != nil {
		return goerr.Wrap(err, "failed to read slide text", goerr.V(PathKey, path))
	}

	logging.From(ctx).Debug("extracting text", "path", path, "slides", len(slides))

	p := &errWriter{w: w}
	p.printf("Total slides: %d\n\n", len(slides))
	for _, slide := range slides {
		printSlideBanner(p, slide.Number)
		if len(slide.Paragraphs) == 0 {
			p.printf("[No text content]\n")
		}
		for _, para := range slide.Paragraphs {
			p.printf("%s\n\n", strings.TrimSpace(para))
		}
		p.printf("\n")
	}
	return p.err
}

// ListShapes writes the text of every shape, slide by slide in presentation order
func (uc *PPTXUseCase) ListShapes(ctx context.Context, w io.Writer, path string) error {
	pkg, err := pptx.Open(path)
	if err != nil {
		return err
	}
	deck, err := pkg.Deck()
	if err != nil {
		return goerr.Wrap(err, "failed to read slides", goerr.V(PathKey, path))
	}

	logging.From(ctx).Debug("listing shapes", "path", path, "slides", len(deck.Slides))

	p := &errWriter{w: w}
	p.printf("Total slides: %d\n\n", len(deck.Slides))
	for _, slide := range deck.Slides {
		printSlideBanner(p, slide.Number)
		for _, shape := range slide.Shapes {
			if text := shape.Text(); strings.TrimSpace(text) != "" {
				p.printf("%s\n\n", text)
			}
		}
		p.printf("\n")
	}
	return p.err
}

func printSlideBanner(p *errWriter, number int) {
	line := strings.Repeat("=", slideBanner)
	p.printf("%s\nSLIDE %d\n%s\n", line, number, line)
}

// AnalyzeUnicode classifies the notable characters of every slide of path
func (uc *PPTXUseCase) AnalyzeUnicode(ctx context.Context, path string) (*model.UnicodeReport, error) {
	pkg, err := pptx.Open(path)
	if err != nil {
		return nil, err
	}
	deck, err := pkg.Deck()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read slides", goerr.V(PathKey, path))
	}

	report := &model.UnicodeReport{Path: path, TotalSlides: len(deck.Slides)}
	for _, slide := range deck.Slides {
		finding := model.SlideFinding{SlideNumber: slide.Number}
		seen := make(map[rune]bool)

		for _, shape := range slide.Shapes {
			for _, r := range shape.Text() {
				if r <= unicode.MaxASCII || unicode.IsSpace(r) {
					continue
				}

				info := model.NewCharInfo(r)
				var list *[]model.CharInfo
				switch {
				case info.IsBroken:
					report.BrokenCount++
					list = &finding.Broken
				case info.IsEmoji:
					report.EmojiCount++
					list = &finding.Emoji
				case r > otherSpecialFloor:
					list = &finding.OtherSpecial
				default:
					continue
				}

				if !seen[r] {
					seen[r] = true
					*list = append(*list, info)
				}
			}
		}

		if finding.HasFindings() {
			report.Findings = append(report.Findings, finding)
		}
	}

	logging.From(ctx).Debug("unicode analysis done",
		"path", path,
		"slides", report.TotalSlides,
		"emoji", report.EmojiCount,
		"broken", report.BrokenCount,
	)
	return report, nil
}

// AnalyzeFiles analyzes every path concurrently and writes the reports in
// argument order. A file that cannot be analyzed is reported inline and the
// rest are still processed; ErrAnalysisFailed is returned at the end.
func (uc *PPTXUseCase) AnalyzeFiles(ctx context.Context, w io.Writer, paths []string) error {
	reports := make([]*model.UnicodeReport, len(paths))
	errs := make([]error, len(paths))

	var eg errgroup.Group
	eg.SetLimit(uc.concurrency)
	for i, path := range paths {
		eg.Go(func() error {
			reports[i], errs[i] = uc.AnalyzeUnicode(ctx, path)
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for i, path := range paths {
		if errs[i] != nil {
			failed++
			errutil.Handle(ctx, errs[i], "failed to analyze presentation")
			if err := RenderUnicodeError(w, path, errs[i]); err != nil {
				return err
			}
			continue
		}
		if err := RenderUnicodeReport(w, reports[i]); err != nil {
			return err
		}
	}

	if failed > 0 {
		return goerr.Wrap(ErrAnalysisFailed, "unicode analysis incomplete",
			goerr.V("failed", failed), goerr.V("total", len(paths)))
	}
	return nil
}

func printReportHeader(p *errWriter, path string) {
	line := strings.Repeat("=", reportBanner)
	p.printf("\n%s\nAnalyzing: %s\n%s\n\n", line, path, line)
}

// RenderUnicodeError writes the section for a file that could not be opened
func RenderUnicodeError(w io.Writer, path string, cause error) error {
	p := &errWriter{w: w}
	printReportHeader(p, path)
	p.printf("%s\n", color.RedString("ERROR: Could not open presentation: %v", cause))
	return p.err
}

// RenderUnicodeReport writes the summary and per-slide findings of report
func RenderUnicodeReport(w io.Writer, report *model.UnicodeReport) error {
	p := &errWriter{w: w}
	printReportHeader(p, report.Path)

	p.printf("Total Slides: %d\n", report.TotalSlides)
	p.printf("Slides with Issues: %d\n", len(report.Findings))
	p.printf("Total Emoji Characters Found: %d\n", report.EmojiCount)
	p.printf("Total Broken Characters Found: %d\n\n", report.BrokenCount)

	if len(report.Findings) == 0 {
		p.printf("%s\n", color.GreenString("No emoji or unicode issues found!"))
		return p.err
	}

	for _, f := range report.Findings {
		p.printf("\n--- Slide %d ---\n", f.SlideNumber)
		if len(f.Broken) > 0 {
			p.printf("\n  %s\n", color.RedString("BROKEN/GARBLED UNICODE (%d unique):", len(f.Broken)))
			for _, c := range f.Broken {
				p.printf("    %+q - %s - %s (%s)\n", c.Char, c.CodePoint, c.Name, c.Category)
			}
		}
		if len(f.Emoji) > 0 {
			p.printf("\n  %s\n", color.YellowString("EMOJI CHARACTERS (%d unique):", len(f.Emoji)))
			for _, c := range f.Emoji {
				p.printf("    %c - %s - %s\n", c.Char, c.CodePoint, c.Name)
			}
		}
		if len(f.OtherSpecial) > 0 {
			p.printf("\n  OTHER SPECIAL UNICODE (%d unique):\n", len(f.OtherSpecial))
			for _, c := range f.OtherSpecial {
				p.printf("    %c - %s - %s\n", c.Char, c.CodePoint, c.Name)
			}
		}
	}
	p.printf("\n%s\n\n", strings.Repeat("=", reportBanner))
	return p.err
}

// SlideFailure records a slide that could not be added to the combined deck.
// Slide is 0 when the failure concerns the whole source or its divider.
type SlideFailure struct {
	Source string
	Slide  int
	Err    error
}

// CombineResult summarizes a combine run
type CombineResult struct {
	Output   string
	Slides   int
	Dividers int
	Removed  []string
	Failures []SlideFailure
}

// Combine builds the deck described by plan. The first source provides the
// masters and layouts; its own slides are only kept when selected like any
// other source. Failed slides are skipped and reported through
// ErrSlidesFailed after the output is saved.
func (uc *PPTXUseCase) Combine(ctx context.Context, plan *model.CombinePlan) (*CombineResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid combine plan")
	}
	logger := logging.From(ctx)

	templatePath := plan.Resolve(plan.Sources[0].Path)
	out, err := pptx.Open(templatePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open template presentation")
	}
	if err := out.RemoveAllSlides(); err != nil {
		return nil, goerr.Wrap(err, "failed to clear template slides", goerr.V(PathKey, templatePath))
	}
	layout, err := out.FirstLayout()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find slide layout", goerr.V(PathKey, templatePath))
	}

	result := &CombineResult{Output: plan.Resolve(plan.Output)}
	fail := func(source string, slide int, err error) {
		errutil.Handle(ctx, err, "failed to combine slide")
		result.Failures = append(result.Failures, SlideFailure{Source: source, Slide: slide, Err: err})
	}

	for _, src := range plan.Sources {
		path := plan.Resolve(src.Path)
		logger.Info("processing source", "path", path)

		pkg, err := pptx.Open(path)
		if err != nil {
			fail(path, 0, err)
			continue
		}

		if src.Divider != nil {
			if _, err := out.AddDivider(layout, src.Divider.Number, src.Divider.Title); err != nil {
				fail(path, 0, goerr.Wrap(err, "failed to add divider", goerr.V("title", src.Divider.Title)))
			} else {
				result.Dividers++
			}
		}

		parts, err := pkg.SlideParts()
		if err != nil {
			fail(path, 0, err)
			continue
		}

		start, end := src.Range(len(parts))
		cloner := pptx.NewCloner(out, pkg, layout)
		for n := start; n <= end; n++ {
			if n > len(parts) {
				fail(path, n, goerr.Wrap(pptx.ErrSlideNotFound, "slide out of range",
					goerr.V(PathKey, path), goerr.V("slide", n), goerr.V("total", len(parts))))
				continue
			}
			if _, err := cloner.CloneSlide(parts[n-1]); err != nil {
				fail(path, n, goerr.Wrap(err, "failed to copy slide", goerr.V(PathKey, path), goerr.V("slide", n)))
				continue
			}
			result.Slides++
			logger.Debug("copied slide", "path", path, "slide", n)
		}
	}

	removed, err := out.Prune()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prune output package")
	}
	result.Removed = removed

	if err := out.Save(ctx, result.Output); err != nil {
		return nil, err
	}

	logger.Info("combined presentation saved",
		"output", result.Output,
		"slides", result.Slides,
		"dividers", result.Dividers,
		"failed", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, goerr.Wrap(ErrSlidesFailed, "combined presentation is incomplete",
			goerr.V("failed", len(result.Failures)), goerr.V(PathKey, result.Output))
	}
	return result, nil
}
