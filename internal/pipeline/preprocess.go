package pipeline

import (
	"context"
	"regexp"
	"strings"
)

const byteOrderMark = "\uFEFF"

var (
	lineBreak      = regexp.MustCompile(`\r\n?`)
	whitespaceLine = regexp.MustCompile(`(?m)^[ \t]+$`)
)

// MarkdownPreprocessor prepares raw Markdown before the tree is built.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommonMarkPreprocessor is the default MarkdownPreprocessor.
type CommonMarkPreprocessor struct{}

// PreprocessMarkdown strips a leading byte order mark, normalizes line
// endings and empties whitespace-only lines. The number of lines never
// changes, so line numbers in diagnostics match the source file.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = strings.TrimPrefix(content, byteOrderMark)
	content = lineBreak.ReplaceAllString(content, "\n")
	return whitespaceLine.ReplaceAllString(content, "")
}
