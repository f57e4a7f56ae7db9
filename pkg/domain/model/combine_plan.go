package model

import (
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// CombinePlan describes how several presentations are merged into one deck.
// The first source also provides the masters, layouts and theme of the output.
type CombinePlan struct {
	Output  string          `toml:"output"`
	BaseDir string          `toml:"base_dir"`
	Sources []CombineSource `toml:"source"`
}

// CombineSource selects slides Start..End (1-based, inclusive) from Path.
// Zero Start means the first slide and zero End means the last one.
type CombineSource struct {
	Path    string   `toml:"path"`
	Start   int      `toml:"start"`
	End     int      `toml:"end"`
	Divider *Divider `toml:"divider"`
}

// Divider is a section slide inserted before a source's slides
type Divider struct {
	Number int    `toml:"number"`
	Title  string `toml:"title"`
}

// Validate checks if the CombinePlan is valid
func (p *CombinePlan) Validate() error {
	if p.Output == "" {
		return goerr.Wrap(ErrMissingName, "output path is required")
	}
	if len(p.Sources) == 0 {
		return goerr.New("combine plan has no sources")
	}
	for i, src := range p.Sources {
		if src.Path == "" {
			return goerr.New("source path is required", goerr.V("index", i))
		}
		if src.Start < 0 || src.End < 0 || (src.End != 0 && src.End < max(src.Start, 1)) {
			return goerr.Wrap(ErrInvalidSlideRange, "source range is invalid",
				goerr.V(SourcePathKey, src.Path), goerr.V("start", src.Start), goerr.V("end", src.End))
		}
		if src.Divider != nil {
			if src.Divider.Title == "" {
				return goerr.Wrap(ErrMissingName, "divider title is required", goerr.V(SourcePathKey, src.Path))
			}
			if src.Divider.Number <= 0 {
				return goerr.New("divider number must be positive", goerr.V(SourcePathKey, src.Path))
			}
		}
	}
	return nil
}

// Resolve returns path joined to BaseDir unless it is absolute
func (p *CombinePlan) Resolve(path string) string {
	if filepath.IsAbs(path) || p.BaseDir == "" {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// Range returns the 1-based inclusive slide range for a deck with total
// slides. Only an unset End is resolved against total; an explicit range past
// the end is kept so each missing slide is reported on its own.
func (s *CombineSource) Range(total int) (int, int) {
	start := max(s.Start, 1)
	end := s.End
	if end == 0 {
		end = total
	}
	return start, end
}
