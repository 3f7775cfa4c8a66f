package bookpress

import "strings"

// Font sizing bounds, in points. FitText starts at the base size and
// shrinks in 2pt steps, never past the floor.
const (
	BaseFontSize = 26.0
	MinFontSize  = 14.0
	fontSizeStep = 2.0
)

// Layout factors.
const (
	lineSpacingFactor = 1.35 // line spacing as a multiple of font size
	blankGapFactor    = 0.3  // paragraph gap as a fraction of line spacing
	textWidthRatio    = 0.7  // usable line width as a fraction of page width
	textHeightRatio   = 0.85 // vertical budget as a fraction of page height
)

// TextMeasurer reports the rendered width of a string at a font size.
// Canvas implementations satisfy it.
type TextMeasurer interface {
	TextWidth(s string, fontSize float64) float64
}

// LayoutLine is one entry of a fitted text block. Blank lines mark
// paragraph gaps; they carry no text and no position, only a reduced
// cursor advance.
type LayoutLine struct {
	Text  string
	Blank bool
	X, Y  float64 // baseline origin in top-down page coordinates
}

// Layout is a text block fitted to a page: the chosen font size and the
// positioned lines, vertically centered as a block with each line
// horizontally centered.
type Layout struct {
	FontSize    float64
	LineSpacing float64
	Height      float64
	Lines       []LayoutLine
}

// FitText wraps text against 70% of the page width and shrinks the font
// from the base size in 2pt steps until the block height fits within 85%
// of the page height or the size floor is reached. Empty text yields an
// empty layout at the base size.
func FitText(m TextMeasurer, text string, pageW, pageH float64) Layout {
	maxWidth := pageW * textWidthRatio

	fontSize := BaseFontSize
	var lines []string
	var height float64
	for {
		lines = wrapText(m, text, fontSize, maxWidth)
		height = blockHeight(lines, fontSize)
		if height <= pageH*textHeightRatio || fontSize <= MinFontSize {
			break
		}
		fontSize -= fontSizeStep
	}

	spacing := fontSize * lineSpacingFactor
	layout := Layout{
		FontSize:    fontSize,
		LineSpacing: spacing,
		Height:      height,
		Lines:       make([]LayoutLine, 0, len(lines)),
	}

	y := (pageH-height)/2 + spacing
	for _, ln := range lines {
		if ln == "" {
			layout.Lines = append(layout.Lines, LayoutLine{Blank: true})
			y += spacing * blankGapFactor
			continue
		}
		x := (pageW - m.TextWidth(ln, fontSize)) / 2
		layout.Lines = append(layout.Lines, LayoutLine{Text: ln, X: x, Y: y})
		y += spacing
	}
	return layout
}

// wrapText splits text into paragraphs on newlines and greedily wraps
// each one against maxWidth. Every paragraph is followed by a blank
// marker (empty string); one trailing marker is dropped. A single word
// wider than maxWidth keeps its own line, it is never hard-split.
func wrapText(m TextMeasurer, text string, fontSize, maxWidth float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(paragraph) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if m.TextWidth(candidate, fontSize) <= maxWidth {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			line = word
		}
		if line != "" {
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// blockHeight is numLines*spacing minus 0.3*spacing per blank marker.
func blockHeight(lines []string, fontSize float64) float64 {
	spacing := fontSize * lineSpacingFactor
	blanks := 0
	for _, l := range lines {
		if l == "" {
			blanks++
		}
	}
	return float64(len(lines))*spacing - spacing*blankGapFactor*float64(blanks)
}
