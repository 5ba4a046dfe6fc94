// Package hints provides actionable hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdblocks/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ciVariables are set by the common CI providers.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// ForBrowserConnect returns hints for browser connection errors.
func ForBrowserConnect() string {
	var hints []string

	inCI := false
	for _, v := range ciVariables {
		if os.Getenv(v) != "" {
			inCI = true
			break
		}
	}

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "use --html-only to skip PDF rendering")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the timeout for slow documents.
func ForTimeout() string {
	return format("for large documents or many images, use --timeout flag")
}

// ForConfigNotFound suggests --config, or creating the user config file
// among searchedPaths.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-mdblocks") {
			hint += " or create " + p + " (mdblocks config prints a template)"
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForFontLoad returns hints for unreadable or unsupported font files.
func ForFontLoad() string {
	return format("fonts must be TrueType (.ttf) or OpenType (.otf) files; fonts.regular is required")
}

// ForMissingGlyph returns hints when a font lacks a glyph every document needs.
func ForMissingGlyph() string {
	return format("the font must cover '€' and '–'; pick a font with Latin-1 punctuation")
}

// ForInvariant returns hints for internal traversal errors.
func ForInvariant() string {
	return format("this is a bug; rerun with --print-ast and report the output")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
