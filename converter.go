package mdblocks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-mdblocks/internal/formula"
	"github.com/alnah/go-mdblocks/internal/imageload"
	"github.com/alnah/go-mdblocks/internal/mdtree"
	"github.com/alnah/go-mdblocks/internal/pipeline"
	"github.com/alnah/go-mdblocks/internal/render"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ mdtree.Parser                 = (*mdtree.GoldmarkParser)(nil)
	_ ImageLoader                   = (*imageload.Loader)(nil)
	_ FormulaBuilder                = formula.Builder{}
	_ pdfConverter                  = (*rodConverter)(nil)
	_ pdfRenderer                   = (*rodRenderer)(nil)
)

// Converter orchestrates the Markdown to PDF conversion.
// Create with NewConverter, use Convert for conversion, and Close when done.
// A Converter runs one conversion at a time; use ConverterPool for parallelism.
type Converter struct {
	cfg          converterConfig
	log          *zap.Logger
	preprocessor pipeline.MarkdownPreprocessor
	parser       mdtree.Parser
	images       ImageLoader // nil = file system loader rooted at Input.SourceDir
	formulas     FormulaBuilder
	pdfConverter pdfConverter
}

// NewConverter creates a Converter with default configuration: the Go font
// family subset per document, A4 page, DefaultLayout.
// Returns an error wrapping ErrInvalidLayout for unusable layout options.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:     defaultTimeout,
			layout:      DefaultLayout(),
			lineSpacing: render.DefaultLineSpacing,
			fonts:       GoFonts(),
			subset:      true,
		},
		log:          zap.NewNop(),
		preprocessor: &pipeline.CommonMarkPreprocessor{},
		parser:       mdtree.NewGoldmarkParser(),
		formulas:     formula.Builder{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.layout.Validate(); err != nil {
		return nil, err
	}
	if c.cfg.lineSpacing <= 0 {
		return nil, fmt.Errorf("%w: line spacing must be positive, got %v", ErrInvalidLayout, c.cfg.lineSpacing)
	}

	if c.pdfConverter == nil {
		c.pdfConverter = newRodConverter(c.cfg.timeout, c.log)
	}

	return c, nil
}

// Convert runs the full pipeline and returns the block document, its HTML
// and, unless input.HTMLOnly is set, the PDF.
// Images and formulas that cannot be used are skipped with a warning on the
// logger; they never fail the conversion.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	res, err := c.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if input.HTMLOnly {
		return res, nil
	}

	pdf, err := c.pdfConverter.ToPDF(ctx, string(res.HTML))
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	res.PDF = pdf
	return res, nil
}

// Tree parses input.Markdown after preprocessing, as Convert does, and
// returns the node tree the document is built from.
func (c *Converter) Tree(ctx context.Context, input Input) (*mdtree.Tree, error) {
	if input.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}
	md := c.preprocessor.PreprocessMarkdown(ctx, input.Markdown)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.parser.Parse([]byte(md)), nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.pdfConverter != nil {
		return c.pdfConverter.Close()
	}
	return nil
}

func (c *Converter) build(ctx context.Context, input Input) (*ConvertResult, error) {
	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	md := c.preprocessor.PreprocessMarkdown(ctx, input.Markdown)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree := c.parser.Parse([]byte(md))

	fonts := c.cfg.fonts
	if c.cfg.subset {
		var err error
		fonts, err = fonts.Subset(md + tree.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFontLoad, err)
		}
	}

	images := c.images
	if images == nil {
		images = imageload.New(input.SourceDir)
	}

	machine := pipeline.NewMachine(
		pipeline.WithLayout(c.cfg.layout),
		pipeline.WithLogger(c.log),
		pipeline.WithImageLoader(images),
		pipeline.WithFormulaBuilder(c.formulas),
	)
	doc, err := machine.Run(tree)
	if err != nil {
		return nil, fmt.Errorf("building document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := input.Page
	if page == nil {
		page = DefaultPageSettings()
	}

	htmlContent, err := render.HTML(doc, render.Options{
		Title:       input.Title,
		Lang:        input.Lang,
		Page:        page.renderPage(),
		LineSpacing: c.cfg.lineSpacing,
		Fonts:       fonts,
		Logger:      c.log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLRender, err)
	}

	return &ConvertResult{Document: doc, HTML: []byte(htmlContent)}, nil
}

// validateInput checks that required fields are present and valid.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
// CLI users have their input validated earlier by Config.Validate() at config load time.
func (c *Converter) validateInput(input Input) error {
	if input.Markdown == "" {
		return ErrEmptyMarkdown
	}
	return input.Page.Validate()
}
