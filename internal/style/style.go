// Package style holds the cascading inline text style used while walking a
// Markdown tree, and the stack that tracks it across nested constructs.
package style

import (
	"errors"
	"fmt"
)

// ErrUnderflow is returned when popping would remove the base style.
var ErrUnderflow = errors.New("style stack underflow")

// Color is an RGB text color.
type Color struct {
	R, G, B uint8
}

// Predefined colors.
var (
	Black = Color{0, 0, 0}
	Muted = Color{40, 60, 60} // block quotes
)

// String returns the color in CSS rgb() notation.
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Style is an immutable snapshot of inline formatting.
type Style struct {
	FontSize      float64 // points
	Bold          bool
	Italic        bool
	Strikethrough bool
	Color         Color
}

// Base returns the document base style for the given text size.
func Base(fontSize float64) Style {
	return Style{FontSize: fontSize, Color: Black}
}

// Stack is a never-empty stack of styles. Index 0 is the base style.
type Stack struct {
	styles []Style
}

// NewStack creates a stack holding only the base style.
func NewStack(base Style) *Stack {
	return &Stack{styles: []Style{base}}
}

// Push derives a new style from the current one and makes it current.
func (s *Stack) Push(derive func(Style) Style) {
	s.styles = append(s.styles, derive(s.Current()))
}

// Pop removes the current style. The base style is never removed.
func (s *Stack) Pop() error {
	if len(s.styles) <= 1 {
		return ErrUnderflow
	}
	s.styles = s.styles[:len(s.styles)-1]
	return nil
}

// Current returns a copy of the top style.
func (s *Stack) Current() Style {
	return s.styles[len(s.styles)-1]
}

// Depth returns the number of styles on the stack, base included.
func (s *Stack) Depth() int {
	return len(s.styles)
}

// WithBold sets the bold flag.
func WithBold(st Style) Style {
	st.Bold = true
	return st
}

// WithItalic sets the italic flag.
func WithItalic(st Style) Style {
	st.Italic = true
	return st
}

// WithStrikethrough sets the strikethrough flag.
func WithStrikethrough(st Style) Style {
	st.Strikethrough = true
	return st
}
