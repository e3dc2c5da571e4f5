package util

import (
	"github.com/mattn/go-runewidth"
)

// GetDisplayWidth returns the number of monospace cells text occupies,
// counting wide runes (CJK, emoji) as two
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// EstimateTextWidth estimates the rendered width in pixels of text set in a
// proportional font of fontSize pixels. An average cell is 0.6em wide.
func EstimateTextWidth(text string, fontSize float64) float64 {
	return float64(GetDisplayWidth(text)) * fontSize * 0.6
}

// TruncateToWidth shortens text so that its estimated pixel width fits
// maxWidth, marking the cut with an ellipsis. Text that already fits is
// returned unchanged; a width too small for anything returns "".
func TruncateToWidth(text string, fontSize, maxWidth float64) string {
	if EstimateTextWidth(text, fontSize) <= maxWidth {
		return text
	}
	cell := fontSize * 0.6
	if cell <= 0 {
		return ""
	}
	cells := int(maxWidth / cell)
	if cells < 2 {
		return ""
	}
	return runewidth.Truncate(text, cells, "…")
}
