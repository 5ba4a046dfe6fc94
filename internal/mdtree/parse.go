package mdtree

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser turns Markdown source into a Tree.
type Parser interface {
	Parse(src []byte) *Tree
}

// GoldmarkParser parses CommonMark plus strikethrough using goldmark.
type GoldmarkParser struct {
	md goldmark.Markdown
}

// NewGoldmarkParser creates a GoldmarkParser.
func NewGoldmarkParser() *GoldmarkParser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough, // ~~text~~
		),
	)
	return &GoldmarkParser{md: md}
}

// Parse builds a Tree from Markdown source. Parsing never fails: unknown
// constructs become KindUnsupported nodes.
func (p *GoldmarkParser) Parse(src []byte) *Tree {
	doc := p.md.Parser().Parse(text.NewReader(src))
	return FromAST(doc, src)
}

// Parse is a shorthand for NewGoldmarkParser().Parse(src).
func Parse(src []byte) *Tree {
	return NewGoldmarkParser().Parse(src)
}

// FromAST converts a goldmark AST into a Tree. src must be the source the
// AST was parsed from.
func FromAST(doc ast.Node, src []byte) *Tree {
	t := NewTree()
	b := builder{t: t, src: src}
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		b.convert(c, t.Root())
	}
	return t
}

type builder struct {
	t   *Tree
	src []byte
}

func (b *builder) convert(n ast.Node, parent NodeID) {
	var (
		node         Node
		skipChildren bool
	)

	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		node.Kind = KindParagraph
	case *ast.Heading:
		node.Kind = KindHeading
		node.Level = v.Level
	case *ast.Text:
		b.convertText(v, parent)
		return
	case *ast.String:
		node.Kind = KindText
		node.Text = string(v.Value)
	case *ast.Emphasis:
		node.Kind = KindEmphasis
		if v.Level >= 2 {
			node.Kind = KindStrong
		}
	case *east.Strikethrough:
		node.Kind = KindStrikethrough
	case *ast.List:
		node.Kind = KindList
	case *ast.ListItem:
		node.Kind = KindListItem
	case *ast.Blockquote:
		node.Kind = KindBlockQuote
	case *ast.Image:
		node.Kind = KindImage
		node.URL = string(v.Destination)
		node.Caption = string(v.Title)
		node.Alt = b.plainText(v)
		skipChildren = true
	case *ast.ThematicBreak:
		node.Kind = KindThematicBreak
	case *ast.FencedCodeBlock:
		node.Kind = KindCodeBlock
		if v.Info != nil {
			node.Info = strings.TrimSpace(string(v.Info.Segment.Value(b.src)))
		}
		node.Literal, node.Line = b.lines(v)
	case *ast.CodeBlock:
		node.Kind = KindCodeBlock
		node.Literal, node.Line = b.lines(v)
	case *ast.CodeSpan, *ast.RawHTML, *ast.HTMLBlock:
		node.Kind = KindUnsupported
		node.Name = n.Kind().String()
		skipChildren = true
	default:
		// Links keep their children so that the link text survives.
		node.Kind = KindUnsupported
		node.Name = n.Kind().String()
	}

	id := b.t.Add(parent, node)
	if skipChildren {
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.convert(c, id)
	}
}

// convertText adds a Text node followed by the break goldmark records as a
// flag on the text segment.
func (b *builder) convertText(v *ast.Text, parent NodeID) {
	b.t.Add(parent, Node{Kind: KindText, Text: b.textValue(v)})
	switch {
	case v.HardLineBreak():
		b.t.Add(parent, Node{Kind: KindLineBreak})
	case v.SoftLineBreak():
		b.t.Add(parent, Node{Kind: KindSoftBreak})
	}
}

// lines returns the literal content of a block and the 1-based line of its
// first content line, or 0 for an empty block.
func (b *builder) lines(n ast.Node) (string, int) {
	segs := n.Lines()
	if segs.Len() == 0 {
		return "", 0
	}
	var buf strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(b.src))
	}
	first := segs.At(0).Start
	return buf.String(), bytes.Count(b.src[:first], []byte{'\n'}) + 1
}

// plainText concatenates the text content below n.
func (b *builder) plainText(n ast.Node) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			buf.WriteString(b.textValue(v))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// textValue returns the text of v with backslash escapes and character
// references decoded. Raw segments are taken as they are.
func (b *builder) textValue(v *ast.Text) string {
	value := v.Segment.Value(b.src)
	if v.IsRaw() {
		return string(value)
	}
	value = util.UnescapePunctuations(value)
	value = util.ResolveNumericReferences(value)
	value = util.ResolveEntityNames(value)
	return string(value)
}
