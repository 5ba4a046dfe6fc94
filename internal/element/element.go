// Package element defines the page-ready block elements produced by the
// conversion and the document that accumulates them in output order.
package element

import (
	"github.com/alnah/go-mdblocks/internal/directive"
	"github.com/alnah/go-mdblocks/internal/style"
)

// Element is a finished block element. The set of implementations is
// closed: Paragraph, List, Image, Formula and PageBreak.
type Element interface {
	element()
}

// Alignment controls horizontal placement of a block.
type Alignment uint8

// Alignment values.
const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignJustified
)

// Run is a piece of text sharing one style.
type Run struct {
	Text  string
	Style style.Style
}

// Paragraph is an ordered sequence of styled runs.
type Paragraph struct {
	Align Alignment
	Runs  []Run
}

// PushStyled appends text with the given style.
func (p *Paragraph) PushStyled(text string, st style.Style) {
	p.Runs = append(p.Runs, Run{Text: text, Style: st})
}

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var n int
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range p.Runs {
		b = append(b, r.Text...)
	}
	return string(b)
}

// ListItem is a child of a list. Bullet is false for a nested list that
// renders without its own marker because the parent item carries one.
type ListItem struct {
	Element Element
	Bullet  bool
}

// List is an unordered list.
type List struct {
	Items []ListItem
}

// Push appends a bulleted child.
func (l *List) Push(el Element) {
	l.Items = append(l.Items, ListItem{Element: el, Bullet: true})
}

// PushNoBullet appends a child rendered without a marker.
func (l *List) PushNoBullet(el Element) {
	l.Items = append(l.Items, ListItem{Element: el, Bullet: false})
}

// Image is a decoded raster image ready for embedding.
type Image struct {
	Source    string // path as written in the Markdown
	Alt       string // alternative text, decoded
	Data      []byte // encoded image
	MIME      string // "image/png", "image/jpeg" or "image/gif"
	Width     int    // pixels
	Height    int    // pixels
	Transform directive.Transform
	Align     Alignment
}

// Formula is a display math block.
type Formula struct {
	Source string
	MathML string
}

// PageBreak forces the following content onto a new page.
type PageBreak struct{}

func (*Paragraph) element() {}
func (*List) element()      {}
func (*Image) element()     {}
func (*Formula) element()   {}
func (PageBreak) element()  {}

// Margins is the vertical spacing around a block, in millimeters.
type Margins struct {
	Top    float64
	Bottom float64
}

// Block is an element placed in the document with its margins.
type Block struct {
	Element Element
	Margins Margins
}

// Document is the append-only output sequence handed to the renderer.
type Document struct {
	blocks []Block
}

// Append adds el at the end of the document.
func (d *Document) Append(el Element, top, bottom float64) {
	d.blocks = append(d.blocks, Block{Element: el, Margins: Margins{Top: top, Bottom: bottom}})
}

// Blocks returns the blocks in append order.
func (d *Document) Blocks() []Block {
	return d.blocks
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}
