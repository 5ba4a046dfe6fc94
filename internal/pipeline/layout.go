package pipeline

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLayout indicates layout values the machine cannot work with.
var ErrInvalidLayout = errors.New("invalid layout")

// Default layout values.
const (
	DefaultTextSize         = 11.0 // points
	DefaultParagraphSpacing = 2.5  // millimeters
	DefaultHeaderSpacing    = 3.0  // millimeters
)

// headingFactors scale the text size for heading levels 1..6.
var headingFactors = [...]float64{2.5, 2.0, 1.5, 1.2, 1.0, 0.8}

// Layout is the read-only configuration of a conversion.
type Layout struct {
	Justify          bool
	ParagraphSpacing float64 // mm below paragraphs and other blocks
	HeaderSpacing    float64 // mm above headings
	TextSize         float64 // pt
}

// DefaultLayout returns the standard layout.
func DefaultLayout() Layout {
	return Layout{
		Justify:          true,
		ParagraphSpacing: DefaultParagraphSpacing,
		HeaderSpacing:    DefaultHeaderSpacing,
		TextSize:         DefaultTextSize,
	}
}

// HeadingSize returns the font size of a heading, rounded to whole points.
// Levels outside 1..6 are clamped.
func (l Layout) HeadingSize(level int) float64 {
	level = max(1, min(level, len(headingFactors)))
	return math.Round(l.TextSize * headingFactors[level-1])
}

// Validate checks that sizes are finite and spacings are not negative.
func (l Layout) Validate() error {
	if !isFinite(l.TextSize) || l.TextSize <= 0 {
		return fmt.Errorf("%w: text size must be positive, got %v", ErrInvalidLayout, l.TextSize)
	}
	if !isFinite(l.ParagraphSpacing) || l.ParagraphSpacing < 0 {
		return fmt.Errorf("%w: paragraph spacing must not be negative, got %v", ErrInvalidLayout, l.ParagraphSpacing)
	}
	if !isFinite(l.HeaderSpacing) || l.HeaderSpacing < 0 {
		return fmt.Errorf("%w: header spacing must not be negative, got %v", ErrInvalidLayout, l.HeaderSpacing)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
