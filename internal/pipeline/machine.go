package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-mdblocks/internal/directive"
	"github.com/alnah/go-mdblocks/internal/element"
	"github.com/alnah/go-mdblocks/internal/formula"
	"github.com/alnah/go-mdblocks/internal/mdtree"
	"github.com/alnah/go-mdblocks/internal/style"
)

// Sentinel errors.
var (
	// ErrInvariant indicates broken stack discipline during traversal.
	// It is never caused by document content.
	ErrInvariant = errors.New("conversion invariant violated")

	// ErrNoImageLoader is reported for every image when no loader is set.
	ErrNoImageLoader = errors.New("no image loader configured")
)

// mathInfo is the code block info string that marks formula blocks.
const mathInfo = "math"

// ImageLoader loads an image referenced from the document.
type ImageLoader interface {
	LoadImage(path string) (*element.Image, error)
}

// FormulaBuilder builds a display formula from its source.
type FormulaBuilder interface {
	BuildFormula(src string) (*element.Formula, error)
}

type noImageLoader struct{}

func (noImageLoader) LoadImage(string) (*element.Image, error) {
	return nil, ErrNoImageLoader
}

// Option configures a Machine.
type Option func(*Machine)

// WithLayout sets the layout. Invalid layouts are rejected by Run.
func WithLayout(l Layout) Option {
	return func(m *Machine) {
		m.layout = l
	}
}

// WithLogger sets the diagnostic sink.
func WithLogger(log *zap.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithImageLoader sets the image loader.
func WithImageLoader(l ImageLoader) Option {
	return func(m *Machine) {
		if l != nil {
			m.images = l
		}
	}
}

// WithFormulaBuilder sets the formula constructor.
func WithFormulaBuilder(b FormulaBuilder) Option {
	return func(m *Machine) {
		if b != nil {
			m.formulas = b
		}
	}
}

// Machine turns a document tree into a block document.
// A Machine is not safe for concurrent use; Run may be called repeatedly.
type Machine struct {
	layout   Layout
	images   ImageLoader
	formulas FormulaBuilder
	log      *zap.Logger

	// traversal state, reset by Run
	styles     *style.Stack
	paragraphs []*element.Paragraph
	lists      []*element.List
	quote      bool
	doc        *element.Document
}

// NewMachine creates a Machine with the default layout, the default
// formula builder and no image loader.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		layout:   DefaultLayout(),
		images:   noImageLoader{},
		formulas: formula.Builder{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run walks the tree once and returns the accumulated document.
// Content failures are logged and skipped. A violated stack invariant
// aborts the walk with an error wrapping ErrInvariant and no document.
func (m *Machine) Run(tree *mdtree.Tree) (*element.Document, error) {
	if err := m.layout.Validate(); err != nil {
		return nil, err
	}
	m.reset()

	for ev := range tree.Events() {
		var err error
		if ev.Phase == mdtree.Enter {
			err = m.enter(ev.Node)
		} else {
			err = m.exit(ev.Node)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := m.checkBalanced(); err != nil {
		return nil, err
	}
	return m.doc, nil
}

func (m *Machine) reset() {
	m.styles = style.NewStack(style.Base(m.layout.TextSize))
	m.paragraphs = m.paragraphs[:0]
	m.lists = m.lists[:0]
	m.quote = false
	m.doc = &element.Document{}
}

func (m *Machine) enter(n *mdtree.Node) error {
	switch n.Kind {
	case mdtree.KindParagraph:
		m.openParagraph()
	case mdtree.KindHeading:
		m.openHeading(n.Level)
	case mdtree.KindText:
		return m.appendText(n.Text)
	case mdtree.KindSoftBreak:
		return m.appendText(" ")
	case mdtree.KindLineBreak:
		return m.lineBreak()
	case mdtree.KindEmphasis:
		m.pushStyle(style.WithItalic)
	case mdtree.KindStrong:
		m.pushStyle(style.WithBold)
	case mdtree.KindStrikethrough:
		m.pushStyle(style.WithStrikethrough)
	case mdtree.KindList:
		m.openList()
	case mdtree.KindBlockQuote:
		m.openQuote()
	case mdtree.KindImage:
		m.addImage(n)
	case mdtree.KindThematicBreak:
		m.doc.Append(element.PageBreak{}, 0, 0)
	case mdtree.KindCodeBlock:
		m.addCodeBlock(n)
	}
	return nil
}

func (m *Machine) exit(n *mdtree.Node) error {
	switch n.Kind {
	case mdtree.KindParagraph:
		return m.closeParagraph()
	case mdtree.KindHeading:
		return m.closeHeading()
	case mdtree.KindEmphasis, mdtree.KindStrong, mdtree.KindStrikethrough:
		return m.popStyle()
	case mdtree.KindBlockQuote:
		return m.closeQuote()
	case mdtree.KindList:
		return m.closeList()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

func (m *Machine) pushStyle(derive func(style.Style) style.Style) {
	m.styles.Push(derive)
}

func (m *Machine) popStyle() error {
	if err := m.styles.Pop(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	return nil
}

func (m *Machine) openQuote() {
	m.pushStyle(func(st style.Style) style.Style {
		st.Italic = true
		st.Color = style.Muted
		return st
	})
	m.quote = true
}

func (m *Machine) closeQuote() error {
	m.quote = false
	return m.popStyle()
}

// ---------------------------------------------------------------------------
// Paragraphs
// ---------------------------------------------------------------------------

func (m *Machine) newParagraph() *element.Paragraph {
	p := &element.Paragraph{Align: element.AlignLeft}
	if m.layout.Justify {
		p.Align = element.AlignJustified
	}
	return p
}

func (m *Machine) openParagraph() {
	m.paragraphs = append(m.paragraphs, m.newParagraph())
}

func (m *Machine) popParagraph() (*element.Paragraph, error) {
	if len(m.paragraphs) == 0 {
		return nil, fmt.Errorf("%w: paragraph stack underflow", ErrInvariant)
	}
	p := m.paragraphs[len(m.paragraphs)-1]
	m.paragraphs = m.paragraphs[:len(m.paragraphs)-1]
	return p, nil
}

func (m *Machine) closeParagraph() error {
	p, err := m.popParagraph()
	if err != nil {
		return err
	}
	m.flush(p, 0, m.layout.ParagraphSpacing)
	return nil
}

func (m *Machine) appendText(text string) error {
	if len(m.paragraphs) == 0 {
		return fmt.Errorf("%w: text %q outside a paragraph", ErrInvariant, text)
	}
	m.paragraphs[len(m.paragraphs)-1].PushStyled(text, m.styles.Current())
	return nil
}

// lineBreak ends the current paragraph and continues in a fresh one.
func (m *Machine) lineBreak() error {
	p, err := m.popParagraph()
	if err != nil {
		return err
	}
	m.flush(p, 0, m.layout.ParagraphSpacing)
	m.openParagraph()
	return nil
}

func (m *Machine) openHeading(level int) {
	size := m.layout.HeadingSize(level)
	m.pushStyle(func(st style.Style) style.Style {
		st.FontSize = size
		st.Bold = true
		return st
	})
	m.openParagraph()
}

func (m *Machine) closeHeading() error {
	p, err := m.popParagraph()
	if err != nil {
		return err
	}
	m.flush(p, m.layout.HeaderSpacing, m.layout.ParagraphSpacing)
	return m.popStyle()
}

// flush hands a finished block to the nearest container: the innermost
// open list, where margins do not apply, or else the document.
func (m *Machine) flush(el element.Element, top, bottom float64) {
	if len(m.lists) > 0 {
		m.lists[len(m.lists)-1].Push(el)
		return
	}
	m.doc.Append(el, top, bottom)
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func (m *Machine) openList() {
	m.lists = append(m.lists, &element.List{})
}

func (m *Machine) closeList() error {
	if len(m.lists) == 0 {
		return fmt.Errorf("%w: list stack underflow", ErrInvariant)
	}
	l := m.lists[len(m.lists)-1]
	m.lists = m.lists[:len(m.lists)-1]

	if len(m.lists) > 0 {
		m.lists[len(m.lists)-1].PushNoBullet(l)
		return nil
	}
	m.doc.Append(l, 0, m.layout.ParagraphSpacing)
	return nil
}

// ---------------------------------------------------------------------------
// Leaf blocks
// ---------------------------------------------------------------------------

func (m *Machine) addImage(n *mdtree.Node) {
	transform, warnings := directive.Parse(n.Caption)
	for _, w := range warnings {
		m.log.Warn("Unable to parse image directive, ignoring",
			zap.String("url", n.URL), zap.String("clause", w.Clause), zap.Error(w.Err))
	}

	img, err := m.images.LoadImage(n.URL)
	if err != nil {
		m.log.Warn("Unable to load image, skipping", zap.String("url", n.URL), zap.Error(err))
		return
	}
	img.Alt = n.Alt
	img.Transform = transform
	img.Align = element.AlignCenter
	m.doc.Append(img, 0, m.layout.ParagraphSpacing)
}

func (m *Machine) addCodeBlock(n *mdtree.Node) {
	if n.Info != mathInfo {
		return
	}
	for _, src := range formula.Segment(n.Literal) {
		f, err := m.formulas.BuildFormula(src.Text)
		if err != nil {
			m.log.Warn("Unable to build formula, skipping",
				zap.Int("line", n.Line+src.Line-1), zap.String("formula", src.Text), zap.Error(err))
			continue
		}
		m.doc.Append(f, 0, m.layout.ParagraphSpacing)
	}
}

// checkBalanced verifies that the walk left only the base style and no
// open paragraphs or lists behind.
func (m *Machine) checkBalanced() error {
	switch {
	case m.styles.Depth() != 1:
		return fmt.Errorf("%w: %d styles left open", ErrInvariant, m.styles.Depth()-1)
	case len(m.paragraphs) != 0:
		return fmt.Errorf("%w: %d paragraphs left open", ErrInvariant, len(m.paragraphs))
	case len(m.lists) != 0:
		return fmt.Errorf("%w: %d lists left open", ErrInvariant, len(m.lists))
	}
	return nil
}
