package pipeline

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestCommonMarkPreprocessor - Source normalization
// ---------------------------------------------------------------------------

func TestCommonMarkPreprocessor_PreprocessMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"CRLF to LF", "a\r\nb\r\n", "a\nb\n"},
		{"lone CR to LF", "a\rb", "a\nb"},
		{"mixed endings", "a\r\nb\rc\nd", "a\nb\nc\nd"},
		{"byte order mark stripped", "\uFEFF# Title", "# Title"},
		{"whitespace-only lines emptied", "a\n  \n\t\nb", "a\n\n\nb"},
		{"blank line runs kept", "a\n\n\n\nb", "a\n\n\n\nb"},
		{"indented text untouched", "a\n  b", "a\n  b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &CommonMarkPreprocessor{}
			if got := p.PreprocessMarkdown(context.Background(), tt.input); got != tt.want {
				t.Errorf("PreprocessMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCommonMarkPreprocessor_KeepsLineCount(t *testing.T) {
	t.Parallel()

	input := "\uFEFFintro\r\n\r\n \r\n\r\n\r\n```math\r\n\\bogus\r\n```\r\n"
	got := (&CommonMarkPreprocessor{}).PreprocessMarkdown(context.Background(), input)

	if want := strings.Count(input, "\n"); strings.Count(got, "\n") != want {
		t.Errorf("line count = %d, want %d", strings.Count(got, "\n"), want)
	}
	if line := strings.Split(got, "\n")[6]; line != `\bogus` {
		t.Errorf("line 7 = %q, want %q", line, `\bogus`)
	}
}

func TestCommonMarkPreprocessor_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &CommonMarkPreprocessor{}
	input := "\uFEFFa\r\nb"
	if got := p.PreprocessMarkdown(ctx, input); got != input {
		t.Errorf("PreprocessMarkdown() = %q, want unchanged %q", got, input)
	}
}
