package svg

import (
	"fmt"
	"os"

	"github.com/penwyp/go-wesgr/internal/errs"
	"gopkg.in/yaml.v3"
)

// FontStyle controls every text element
type FontStyle struct {
	Family string `yaml:"family"` // CSS font-family list
	Size   int    `yaml:"size"`   // Base size in pixels; tick and interval labels use Size-2
}

// ColorStyle holds the fixed colors of the diagram
type ColorStyle struct {
	Background string `yaml:"background"`
	Axis       string `yaml:"axis"`
	Grid       string `yaml:"grid"`
	Text       string `yaml:"text"`
	LaneEven   string `yaml:"lane_even"`
	LaneOdd    string `yaml:"lane_odd"`
	Annotation string `yaml:"annotation"`
	Outline    string `yaml:"outline"`
}

// Style is the complete geometry and look of a rendered timeline. It maps
// directly to the optional YAML style file.
type Style struct {
	Width           int        `yaml:"width"`             // Total SVG width in pixels
	MarginLeft      int        `yaml:"margin_left"`       // Room for entity names left of the plot
	MarginRight     int        `yaml:"margin_right"`      // Space right of the plot
	MarginTop       int        `yaml:"margin_top"`        // Space above the axis labels
	MarginBottom    int        `yaml:"margin_bottom"`     // Space below the legend
	AxisHeight      int        `yaml:"axis_height"`       // Band holding tick labels, above the first lane
	LaneHeight      int        `yaml:"lane_height"`       // Height of one entity lane
	LanePadding     int        `yaml:"lane_padding"`      // Vertical gap between a lane edge and its shapes
	MarkerSize      int        `yaml:"marker_size"`       // Half-diagonal of instant diamonds
	LegendGap       int        `yaml:"legend_gap"`        // Space between the last lane and the legend
	LegendRowHeight int        `yaml:"legend_row_height"` // Height of one legend row
	MaxTicks        int        `yaml:"max_ticks"`         // Upper bound on axis ticks
	Font            FontStyle  `yaml:"font"`
	Colors          ColorStyle `yaml:"colors"`
	Palette         []string   `yaml:"palette"` // Fill colors assigned to labels in order of appearance
}

// DefaultStyle returns the built-in style
func DefaultStyle() Style {
	return Style{
		Width:           1200,
		MarginLeft:      160,
		MarginRight:     40,
		MarginTop:       10,
		MarginBottom:    10,
		AxisHeight:      30,
		LaneHeight:      36,
		LanePadding:     4,
		MarkerSize:      5,
		LegendGap:       16,
		LegendRowHeight: 20,
		MaxTicks:        15,
		Font: FontStyle{
			Family: "DejaVu Sans, Arial, sans-serif",
			Size:   12,
		},
		Colors: ColorStyle{
			Background: "#ffffff",
			Axis:       "#333333",
			Grid:       "#dddddd",
			Text:       "#222222",
			LaneEven:   "#f7f7f7",
			LaneOdd:    "#ececec",
			Annotation: "#8a4b00",
			Outline:    "#333333",
		},
		Palette: []string{
			"#4e79a7", "#f28e2b", "#59a14f", "#e15759", "#b07aa1",
			"#76b7b2", "#edc948", "#ff9da7", "#9c755f", "#bab0ac",
		},
	}
}

// LoadStyle reads a YAML style file over the defaults. Keys missing from the
// file keep their default value. An empty path returns the defaults.
func LoadStyle(path string) (Style, error) {
	style := DefaultStyle()
	if path == "" {
		return style, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, errs.Config("read style", fmt.Errorf("error reading style file: %w", err))
	}
	if err := yaml.Unmarshal(data, &style); err != nil {
		return Style{}, errs.Config("parse style", fmt.Errorf("error parsing style file %s: %w", path, err))
	}
	if err := style.Validate(); err != nil {
		return Style{}, err
	}
	return style, nil
}

// Validate rejects geometry that cannot produce a diagram
func (s Style) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"width", s.Width},
		{"lane_height", s.LaneHeight},
		{"max_ticks", s.MaxTicks},
		{"font.size", s.Font.Size},
		{"legend_row_height", s.LegendRowHeight},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errs.Config("style", fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}

	nonNegative := []struct {
		name  string
		value int
	}{
		{"margin_left", s.MarginLeft},
		{"margin_right", s.MarginRight},
		{"margin_top", s.MarginTop},
		{"margin_bottom", s.MarginBottom},
		{"axis_height", s.AxisHeight},
		{"lane_padding", s.LanePadding},
		{"marker_size", s.MarkerSize},
		{"legend_gap", s.LegendGap},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return errs.Config("style", fmt.Errorf("%s must not be negative, got %d", p.name, p.value))
		}
	}

	if s.plotWidth() <= 0 {
		return errs.Config("style", fmt.Errorf("width %d leaves no room for the plot after margins %d+%d",
			s.Width, s.MarginLeft, s.MarginRight))
	}
	if 2*s.LanePadding >= s.LaneHeight {
		return errs.Config("style", fmt.Errorf("lane_padding %d leaves no room in lane_height %d", s.LanePadding, s.LaneHeight))
	}
	if len(s.Palette) == 0 {
		return errs.Config("style", fmt.Errorf("palette must not be empty"))
	}
	return nil
}

func (s Style) plotWidth() int {
	return s.Width - s.MarginLeft - s.MarginRight
}

func (s Style) smallFont() float64 {
	if s.Font.Size > 4 {
		return float64(s.Font.Size - 2)
	}
	return float64(s.Font.Size)
}
