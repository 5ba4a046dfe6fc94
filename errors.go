package mdblocks

import (
	"errors"

	"github.com/alnah/go-mdblocks/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrHTMLRender     = errors.New("HTML rendering failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrFontLoad       = errors.New("failed to load font")

	// ErrInvariant reports a traversal that left the document builder in an
	// inconsistent state. The document is discarded.
	ErrInvariant = pipeline.ErrInvariant

	// Layout and page settings validation errors.
	ErrInvalidLayout      = pipeline.ErrInvalidLayout
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)
