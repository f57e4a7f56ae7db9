package model

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/runenames"
)

// CharInfo describes a single character found in slide text
type CharInfo struct {
	Char      rune
	CodePoint string
	Name      string
	Category  string
	IsEmoji   bool
	IsBroken  bool
}

type runeRange struct {
	lo, hi rune
}

var emojiRanges = []runeRange{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // misc symbols and pictographs
	{0x1F680, 0x1F6FF}, // transport and map
	{0x1F900, 0x1F9FF}, // supplemental symbols and pictographs
	{0x1FA70, 0x1FAFF}, // symbols and pictographs extended-A
	{0x2600, 0x26FF},   // misc symbols
	{0x2700, 0x27BF},   // dingbats
	{0x24C2, 0x24C2},   // circled M
	{0x1F170, 0x1F251}, // enclosed alphanumeric/ideographic supplement
}

var privateUseRanges = []runeRange{
	{0xE000, 0xF8FF},
	{0xF0000, 0xFFFFD},
	{0x100000, 0x10FFFD},
}

func inRanges(r rune, ranges []runeRange) bool {
	for _, rr := range ranges {
		if rr.lo <= r && r <= rr.hi {
			return true
		}
	}
	return false
}

// IsEmoji reports whether r falls in one of the emoji blocks
func IsEmoji(r rune) bool {
	return inRanges(r, emojiRanges)
}

// IsBroken reports whether r looks like mis-encoded text: the replacement
// character, a private-use code point, or an unassigned code point.
func IsBroken(r rune) bool {
	if r == unicode.ReplacementChar {
		return true
	}
	if inRanges(r, privateUseRanges) {
		return true
	}
	switch Category(r) {
	case "Co", "Cn":
		return true
	}
	return false
}

// categoryOrder is checked in order; the first table containing the rune wins.
var categoryOrder = []string{
	"Lu", "Ll", "Lt", "Lm", "Lo",
	"Mn", "Mc", "Me",
	"Nd", "Nl", "No",
	"Pc", "Pd", "Ps", "Pe", "Pi", "Pf", "Po",
	"Sm", "Sc", "Sk", "So",
	"Zs", "Zl", "Zp",
	"Cc", "Cf", "Cs", "Co",
}

// Category returns the two-letter Unicode general category of r. Code points
// not covered by any category table are reported as "Cn" (unassigned).
func Category(r rune) string {
	for _, name := range categoryOrder {
		if table, ok := unicode.Categories[name]; ok && unicode.Is(table, r) {
			return name
		}
	}
	return "Cn"
}

// NewCharInfo builds the CharInfo for r
func NewCharInfo(r rune) CharInfo {
	return CharInfo{
		Char:      r,
		CodePoint: fmt.Sprintf("U+%04X", r),
		Name:      charName(r),
		Category:  Category(r),
		IsEmoji:   IsEmoji(r),
		IsBroken:  IsBroken(r),
	}
}

// charName returns the Unicode name of r. Range entries such as private use
// areas have no individual name and yield "UNNAMED".
func charName(r rune) string {
	name := runenames.Name(r)
	switch {
	case strings.HasPrefix(name, "<CJK Ideograph"):
		return fmt.Sprintf("CJK UNIFIED IDEOGRAPH-%04X", r)
	case name == "", strings.HasPrefix(name, "<"):
		return "UNNAMED"
	}
	return name
}

// SlideFinding lists the unique notable characters of one slide
type SlideFinding struct {
	SlideNumber  int
	Broken       []CharInfo
	Emoji        []CharInfo
	OtherSpecial []CharInfo
}

// HasFindings reports whether any character was recorded
func (f *SlideFinding) HasFindings() bool {
	return len(f.Broken) > 0 || len(f.Emoji) > 0 || len(f.OtherSpecial) > 0
}

// UnicodeReport is the result of analyzing one presentation
type UnicodeReport struct {
	Path        string
	TotalSlides int
	Findings    []SlideFinding
	EmojiCount  int
	BrokenCount int
}
