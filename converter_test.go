package mdblocks

// Notes:
// - Tests Converter.Convert with a mocked PDF backend; everything up to the
//   HTML runs for real (goldmark, Go fonts subsetting, rendering).
// - Browser behavior is covered by the integration tests.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-mdblocks/internal/element"
	"github.com/alnah/go-mdblocks/internal/mdtree"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type mockPDFConverter struct {
	called bool
	html   string
	result []byte
	err    error
	closed bool
}

func (m *mockPDFConverter) ToPDF(_ context.Context, htmlContent string) ([]byte, error) {
	m.called = true
	m.html = htmlContent
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return []byte("%PDF-1.4 mock"), nil
}

func (m *mockPDFConverter) Close() error {
	m.closed = true
	return nil
}

type stubImages struct {
	paths []string
}

func (s *stubImages) LoadImage(path string) (*element.Image, error) {
	s.paths = append(s.paths, path)
	return &element.Image{Source: path, Data: []byte("GIF89a"), MIME: "image/gif", Width: 30, Height: 60}, nil
}

type panickingFormulas struct{}

func (panickingFormulas) BuildFormula(string) (*element.Formula, error) {
	panic("formula builder exploded")
}

func newTestConverter(t *testing.T, opts ...Option) (*Converter, *mockPDFConverter) {
	t.Helper()
	conv, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	mock := &mockPDFConverter{}
	conv.pdfConverter = mock
	return conv, mock
}

const sampleMarkdown = "# Title\n\nHello *world*\n\n---\n\n```math\nx^2\n```\n"

// ---------------------------------------------------------------------------
// TestConverter_Convert - Full pipeline with mocked browser
// ---------------------------------------------------------------------------

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t)

	res, err := conv.Convert(context.Background(), Input{Markdown: sampleMarkdown, Title: "Report", Lang: "en"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if !mock.called {
		t.Fatal("PDF converter not called")
	}
	if string(res.PDF) != "%PDF-1.4 mock" {
		t.Errorf("PDF = %q, want mock output", res.PDF)
	}
	if mock.html != string(res.HTML) {
		t.Error("PDF converter should receive the returned HTML")
	}

	blocks := res.Document.Blocks()
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4 (heading, paragraph, page break, formula)", len(blocks))
	}
	if _, ok := blocks[2].Element.(element.PageBreak); !ok {
		t.Errorf("blocks[2] = %T, want PageBreak", blocks[2].Element)
	}
	if _, ok := blocks[3].Element.(*element.Formula); !ok {
		t.Errorf("blocks[3] = %T, want *Formula", blocks[3].Element)
	}

	html := string(res.HTML)
	for _, want := range []string{"<title>Report</title>", `lang="en"`, "@font-face", "@page{size:210mm 297mm", "<math", "page-break"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestConverter_Convert_HTMLOnly(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t)

	res, err := conv.Convert(context.Background(), Input{Markdown: "Hello", HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if mock.called {
		t.Error("PDF converter should not be called in HTML-only mode")
	}
	if res.PDF != nil {
		t.Errorf("PDF = %q, want nil", res.PDF)
	}
	if !strings.Contains(string(res.HTML), "Hello") {
		t.Error("HTML should contain the text")
	}
}

func TestConverter_Convert_PageSettings(t *testing.T) {
	t.Parallel()

	conv, _ := newTestConverter(t)

	page := &PageSettings{Size: "letter", Orientation: "landscape", Margins: Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}}
	res, err := conv.Convert(context.Background(), Input{Markdown: "x", Page: page, HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(string(res.HTML), "@page{size:279.4mm 215.9mm;margin:10mm 10mm 10mm 10mm}") {
		t.Errorf("HTML should carry landscape letter geometry")
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_Errors - Error propagation
// ---------------------------------------------------------------------------

func TestConverter_Convert_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   Input
		pdfErr  error
		wantErr error
	}{
		{
			name:    "empty markdown",
			input:   Input{},
			wantErr: ErrEmptyMarkdown,
		},
		{
			name:    "invalid page size",
			input:   Input{Markdown: "x", Page: &PageSettings{Size: "tabloid", Orientation: "portrait"}},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "margins wider than page",
			input:   Input{Markdown: "x", Page: &PageSettings{Size: "a5", Orientation: "portrait", Margins: Margins{Left: 80, Right: 80}}},
			wantErr: ErrInvalidMargin,
		},
		{
			name:    "PDF failure wrapped",
			input:   Input{Markdown: "x"},
			pdfErr:  ErrPDFGeneration,
			wantErr: ErrPDFGeneration,
		},
		{
			name:    "browser failure wrapped",
			input:   Input{Markdown: "x"},
			pdfErr:  ErrBrowserConnect,
			wantErr: ErrBrowserConnect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv, mock := newTestConverter(t)
			mock.err = tt.pdfErr

			_, err := conv.Convert(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConverter_Convert_CanceledContext(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, Input{Markdown: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
	if mock.called {
		t.Error("PDF converter should not be called after cancellation")
	}
}

func TestConverter_Convert_RecoversPanic(t *testing.T) {
	t.Parallel()

	conv, _ := newTestConverter(t, WithFormulaBuilder(panickingFormulas{}))

	_, err := conv.Convert(context.Background(), Input{Markdown: "```math\nx\n```\n", HTMLOnly: true})
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("Convert() error = %v, want internal error", err)
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Convert_Diagnostics - Skipped images are logged
// ---------------------------------------------------------------------------

func TestConverter_Convert_Diagnostics(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	conv, _ := newTestConverter(t, WithLogger(zap.New(core)))

	res, err := conv.Convert(context.Background(), Input{
		Markdown:  "Before\n\n![chart](missing.png)\n\nAfter\n",
		SourceDir: t.TempDir(),
		HTMLOnly:  true,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	entries := logs.FilterMessage("Unable to load image, skipping").All()
	if len(entries) != 1 {
		t.Fatalf("got %d image warnings, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["url"]; got != "missing.png" {
		t.Errorf("warning url = %v, want missing.png", got)
	}
	for _, b := range res.Document.Blocks() {
		if _, ok := b.Element.(*element.Image); ok {
			t.Error("missing image should not produce a block")
		}
	}
}

func TestConverter_Convert_FormulaWarningLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
		wantLine int64
	}{
		{"blank line run before block", "intro\n\n\n\n```math\n\\bogus\n```\n", 6},
		{"whitespace lines and CRLF", "intro\r\n \r\n\t\r\n\r\n```math\r\nx\r\n\r\n\\bogus\r\n```\r\n", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			conv, _ := newTestConverter(t, WithLogger(zap.New(core)))

			if _, err := conv.Convert(context.Background(), Input{Markdown: tt.markdown, HTMLOnly: true}); err != nil {
				t.Fatalf("Convert() error = %v", err)
			}

			entries := logs.FilterMessage("Unable to build formula, skipping").All()
			if len(entries) != 1 {
				t.Fatalf("got %d formula warnings, want 1", len(entries))
			}
			if got := entries[0].ContextMap()["line"]; got != tt.wantLine {
				t.Errorf("line = %v, want %d", got, tt.wantLine)
			}
		})
	}
}

func TestConverter_Convert_CustomImageLoader(t *testing.T) {
	t.Parallel()

	images := &stubImages{}
	conv, _ := newTestConverter(t, WithImageLoader(images))

	res, err := conv.Convert(context.Background(), Input{Markdown: "![Q&amp;A plot](plot.gif \"scale=2\")\n", HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(images.paths) != 1 || images.paths[0] != "plot.gif" {
		t.Errorf("loader paths = %v, want [plot.gif]", images.paths)
	}
	img, ok := res.Document.Blocks()[0].Element.(*element.Image)
	if !ok {
		t.Fatalf("blocks[0] = %T, want *Image", res.Document.Blocks()[0].Element)
	}
	if img.Transform.ScaleX != 2 || img.Transform.ScaleY != 2 {
		t.Errorf("Transform = %+v, want scale 2", img.Transform)
	}
	if img.Alt != "Q&A plot" {
		t.Errorf("Alt = %q, want %q", img.Alt, "Q&A plot")
	}
	if !strings.Contains(string(res.HTML), `alt="Q&amp;A plot"`) {
		t.Errorf("HTML missing decoded alt attribute")
	}
}

func TestConverter_Convert_DecodedText(t *testing.T) {
	t.Parallel()

	conv, _ := newTestConverter(t)
	res, err := conv.Convert(context.Background(), Input{Markdown: `Tom &amp; Jerry \*x\* &copy;`, HTMLOnly: true})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	para, ok := res.Document.Blocks()[0].Element.(*element.Paragraph)
	if !ok {
		t.Fatalf("blocks[0] = %T, want *Paragraph", res.Document.Blocks()[0].Element)
	}
	if got := para.Text(); got != "Tom & Jerry *x* ©" {
		t.Errorf("paragraph text = %q, want %q", got, "Tom & Jerry *x* ©")
	}

	html := string(res.HTML)
	for _, bad := range []string{"&amp;amp;", `\*`} {
		if strings.Contains(html, bad) {
			t.Errorf("HTML contains %q", bad)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Fonts - Subsetting shrinks the embedded faces
// ---------------------------------------------------------------------------

func TestConverter_Fonts(t *testing.T) {
	t.Parallel()

	subset, _ := newTestConverter(t)
	full, _ := newTestConverter(t, WithFontSubset(false))

	in := Input{Markdown: "Short text", HTMLOnly: true}
	a, err := subset.Convert(context.Background(), in)
	if err != nil {
		t.Fatalf("subset Convert() error = %v", err)
	}
	b, err := full.Convert(context.Background(), in)
	if err != nil {
		t.Fatalf("full Convert() error = %v", err)
	}
	if len(a.HTML) >= len(b.HTML) {
		t.Errorf("subset HTML (%d bytes) should be smaller than full HTML (%d bytes)", len(a.HTML), len(b.HTML))
	}
}

func TestConverter_Fonts_InvalidFace(t *testing.T) {
	t.Parallel()

	bad := FontFamily{Name: "Broken"}
	bad.Faces[0] = []byte("not a font")
	conv, _ := newTestConverter(t, WithFonts(bad))

	_, err := conv.Convert(context.Background(), Input{Markdown: "x", HTMLOnly: true})
	if !errors.Is(err, ErrFontLoad) {
		t.Errorf("Convert() error = %v, want ErrFontLoad", err)
	}
}

// ---------------------------------------------------------------------------
// TestNewConverter - Option validation
// ---------------------------------------------------------------------------

func TestNewConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults"},
		{name: "custom layout", opts: []Option{WithLayout(Layout{TextSize: 12, ParagraphSpacing: 1, HeaderSpacing: 2})}},
		{name: "zero text size", opts: []Option{WithLayout(Layout{})}, wantErr: ErrInvalidLayout},
		{name: "negative spacing", opts: []Option{WithLayout(Layout{TextSize: 11, ParagraphSpacing: -1})}, wantErr: ErrInvalidLayout},
		{name: "zero line spacing", opts: []Option{WithLineSpacing(0)}, wantErr: ErrInvalidLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv, err := NewConverter(tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewConverter() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConverter() error = %v", err)
			}
			if conv.pdfConverter == nil {
				t.Error("pdfConverter should default to the rod backend")
			}
		})
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

// ---------------------------------------------------------------------------
// TestConverter_Tree - Parsed tree for inspection
// ---------------------------------------------------------------------------

func TestConverter_Tree(t *testing.T) {
	t.Parallel()

	conv, _ := newTestConverter(t)

	tree, err := conv.Tree(context.Background(), Input{Markdown: "# Hi\r\n"})
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	children := tree.Children(tree.Root())
	if len(children) != 1 || tree.Node(children[0]).Kind != mdtree.KindHeading {
		t.Errorf("root children = %v, want one heading", children)
	}

	if _, err := conv.Tree(context.Background(), Input{}); !errors.Is(err, ErrEmptyMarkdown) {
		t.Errorf("Tree(empty) error = %v, want ErrEmptyMarkdown", err)
	}
}

func TestConverter_Close(t *testing.T) {
	t.Parallel()

	conv, mock := newTestConverter(t)
	if err := conv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !mock.closed {
		t.Error("Close() should close the PDF backend")
	}
}
