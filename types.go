package mdblocks

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdblocks/internal/element"
	"github.com/alnah/go-mdblocks/internal/fontsubset"
	"github.com/alnah/go-mdblocks/internal/pipeline"
	"github.com/alnah/go-mdblocks/internal/render"
)

// Page size constants.
const (
	PageSizeA3     = "a3"
	PageSizeA4     = "a4"
	PageSizeA5     = "a5"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// MaxMargin bounds each page margin, in millimeters.
const MaxMargin = 100.0

// pageSizes holds portrait dimensions in millimeters.
var pageSizes = map[string][2]float64{
	PageSizeA3:     {297, 420},
	PageSizeA4:     {210, 297},
	PageSizeA5:     {148, 210},
	PageSizeLetter: {215.9, 279.4},
	PageSizeLegal:  {215.9, 355.6},
}

// Margins are page margins in millimeters.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins returns the margins of the built-in layout.
func DefaultMargins() Margins {
	return Margins{Top: 20, Right: 35.5, Bottom: 30, Left: 42.5}
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string // "a3", "a4", "a5", "letter", "legal"
	Orientation string // "portrait", "landscape"
	Margins     Margins
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
// Does not mutate - uses case-insensitive comparison.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if _, ok := pageSizes[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	for _, m := range []float64{p.Margins.Top, p.Margins.Right, p.Margins.Bottom, p.Margins.Left} {
		if math.IsNaN(m) || m < 0 || m > MaxMargin {
			return fmt.Errorf("%w: %v (must be between 0 and %v mm)", ErrInvalidMargin, m, MaxMargin)
		}
	}

	w, h := p.Dimensions()
	if p.Margins.Left+p.Margins.Right >= w || p.Margins.Top+p.Margins.Bottom >= h {
		return fmt.Errorf("%w: margins leave no room for content on a %vx%v mm page", ErrInvalidMargin, w, h)
	}

	return nil
}

// Dimensions returns the oriented page width and height in millimeters.
// Unknown sizes fall back to A4.
func (p *PageSettings) Dimensions() (width, height float64) {
	dims, ok := pageSizes[strings.ToLower(p.Size)]
	if !ok {
		dims = pageSizes[PageSizeA4]
	}
	if strings.ToLower(p.Orientation) == OrientationLandscape {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

func (p *PageSettings) renderPage() render.Page {
	w, h := p.Dimensions()
	return render.Page{
		Width:  w,
		Height: h,
		Top:    p.Margins.Top,
		Right:  p.Margins.Right,
		Bottom: p.Margins.Bottom,
		Left:   p.Margins.Left,
	}
}

// Input contains conversion parameters.
type Input struct {
	Markdown  string        // Markdown content (required)
	SourceDir string        // Directory relative image paths resolve against (optional)
	Title     string        // Document title (optional)
	Lang      string        // Hyphenation language, e.g. "en" (optional)
	Page      *PageSettings // Page settings (optional, nil = defaults)
	HTMLOnly  bool          // Skip PDF generation
}

// ConvertResult contains the outputs of a conversion.
type ConvertResult struct {
	Document *Document // Block document built from the Markdown
	HTML     []byte    // Paged HTML handed to the browser
	PDF      []byte    // Empty when Input.HTMLOnly is set
}

// Document is the ordered block list a conversion produces.
type Document = element.Document

// Layout holds the spacing and text size settings of a conversion.
type Layout = pipeline.Layout

// DefaultLayout returns justified 11pt text with 2.5mm paragraph and 3mm
// heading spacing.
func DefaultLayout() Layout {
	return pipeline.DefaultLayout()
}

// FontFamily holds the font faces embedded into the output.
type FontFamily = fontsubset.Family

// GoFonts returns the built-in Go font family.
func GoFonts() FontFamily {
	return fontsubset.GoFamily()
}

// ImageLoader resolves image references to decoded images.
type ImageLoader = pipeline.ImageLoader

// FormulaBuilder compiles formula sources.
type FormulaBuilder = pipeline.FormulaBuilder

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout     time.Duration
	layout      Layout
	lineSpacing float64
	fonts       FontFamily
	subset      bool
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the PDF rendering timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdblocks: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the diagnostic sink. Skipped images and formulas are
// reported as warnings.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithLayout sets text size and block spacing.
func WithLayout(l Layout) Option {
	return func(c *Converter) {
		c.cfg.layout = l
	}
}

// WithLineSpacing sets the line height as a factor of the font size.
func WithLineSpacing(f float64) Option {
	return func(c *Converter) {
		c.cfg.lineSpacing = f
	}
}

// WithFonts sets the embedded font family.
func WithFonts(f FontFamily) Option {
	return func(c *Converter) {
		c.cfg.fonts = f
	}
}

// WithFontSubset enables or disables font subsetting (enabled by default).
func WithFontSubset(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.subset = enabled
	}
}

// WithImageLoader replaces the file system image loader.
func WithImageLoader(l ImageLoader) Option {
	return func(c *Converter) {
		c.images = l
	}
}

// WithFormulaBuilder replaces the built-in TeX formula builder.
func WithFormulaBuilder(b FormulaBuilder) Option {
	return func(c *Converter) {
		c.formulas = b
	}
}
