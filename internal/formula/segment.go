// Package formula turns the content of ```math code blocks into display
// formulas: Segment splits a block into independent formula sources and
// Build compiles one source into MathML.
package formula

import "strings"

// Source is one formula group of a math block.
type Source struct {
	Line int // 1-based line inside the block where the group starts
	Text string
}

// Segment splits literal into formula groups. Consecutive non-blank lines
// are concatenated without separator; a blank line ends the group.
func Segment(literal string) []Source {
	var (
		out          []Source
		continuation bool
	)
	for i, line := range strings.Split(literal, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continuation = false
			continue
		}
		if continuation {
			out[len(out)-1].Text += line
		} else {
			out = append(out, Source{Line: i + 1, Text: line})
		}
		continuation = true
	}
	return out
}
