// Package render lays out a block document as a paged HTML document that a
// headless browser prints to PDF.
//
// Page geometry goes into an @page rule, fonts are embedded as @font-face
// data URIs and every block carries its vertical margins inline. Images
// are embedded as data URIs sized in millimeters; rotations are applied to
// the pixels before embedding.
package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mdblocks/internal/element"
	"github.com/alnah/go-mdblocks/internal/fontsubset"
	"github.com/alnah/go-mdblocks/internal/imageload"
	"github.com/alnah/go-mdblocks/internal/style"
)

// ErrRender indicates the document could not be serialized.
var ErrRender = errors.New("HTML rendering failed")

// Defaults.
const (
	DefaultDPI         = 300.0
	DefaultLineSpacing = 1.281
	fontFamily         = "mdblocks"
	mmPerInch          = 25.4
)

// Page is the page geometry in millimeters.
type Page struct {
	Width, Height            float64
	Top, Right, Bottom, Left float64
}

// Options control the HTML output.
type Options struct {
	Title       string
	Lang        string // enables hyphenation when set
	Page        Page
	LineSpacing float64
	Fonts       fontsubset.Family
	DPI         float64
	Logger      *zap.Logger
}

type renderer struct {
	opts Options
	log  *zap.Logger
}

// HTML renders doc as a complete HTML5 document.
func HTML(doc *element.Document, opts Options) (string, error) {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = DefaultLineSpacing
	}
	r := &renderer{opts: opts, log: opts.Logger}
	if r.log == nil {
		r.log = zap.NewNop()
	}

	body := elem(atom.Body)
	for _, b := range doc.Blocks() {
		n, err := r.block(b.Element)
		if err != nil {
			return "", err
		}
		if b.Margins != (element.Margins{}) {
			appendStyle(n, fmt.Sprintf("margin-top:%smm;margin-bottom:%smm", num(b.Margins.Top), num(b.Margins.Bottom)))
		}
		body.AppendChild(n)
	}

	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	htm := elem(atom.Html)
	if opts.Lang != "" {
		htm.Attr = append(htm.Attr, html.Attribute{Key: "lang", Val: opts.Lang})
	}
	htm.AppendChild(r.head())
	htm.AppendChild(body)
	root.AppendChild(htm)

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return sb.String(), nil
}

func (r *renderer) head() *html.Node {
	head := elem(atom.Head)
	meta := elem(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)

	title := elem(atom.Title)
	title.AppendChild(text(r.opts.Title))
	head.AppendChild(title)

	css := elem(atom.Style)
	css.AppendChild(text(r.stylesheet()))
	head.AppendChild(css)
	return head
}

func (r *renderer) stylesheet() string {
	var sb strings.Builder
	p := r.opts.Page
	if p.Width > 0 && p.Height > 0 {
		fmt.Fprintf(&sb, "@page{size:%smm %smm;margin:%smm %smm %smm %smm}\n",
			num(p.Width), num(p.Height), num(p.Top), num(p.Right), num(p.Bottom), num(p.Left))
	}

	for face, data := range r.opts.Fonts.Faces {
		if data == nil {
			continue
		}
		f := fontsubset.Face(face)
		weight, slant := "normal", "normal"
		if f.Bold() {
			weight = "bold"
		}
		if f.Italic() {
			slant = "italic"
		}
		fmt.Fprintf(&sb, "@font-face{font-family:%q;src:url(data:%s;base64,%s);font-weight:%s;font-style:%s}\n",
			fontFamily, fontMIME(data), base64.StdEncoding.EncodeToString(data), weight, slant)
	}

	fmt.Fprintf(&sb, "html,body{margin:0;padding:0}\n")
	fmt.Fprintf(&sb, "body{font-family:%q,serif;line-height:%s;color:rgb(0,0,0)", fontFamily, num(r.opts.LineSpacing))
	if r.opts.Lang != "" {
		sb.WriteString(";hyphens:auto")
	}
	sb.WriteString("}\n")
	sb.WriteString("p{margin:0}\n")
	sb.WriteString("ul{margin:0;padding-left:5mm}\n")
	sb.WriteString("li{list-style-type:\"\\2013  \"}\n")
	sb.WriteString("li.nobullet{list-style-type:none}\n")
	sb.WriteString("figure{margin:0;text-align:center}\n")
	sb.WriteString("img{display:inline-block}\n")
	sb.WriteString(".formula{text-align:center}\n")
	sb.WriteString(".page-break{break-after:page;height:0}\n")
	return sb.String()
}

func (r *renderer) block(el element.Element) (*html.Node, error) {
	switch v := el.(type) {
	case *element.Paragraph:
		return r.paragraph(v), nil
	case *element.List:
		return r.list(v)
	case *element.Image:
		return r.image(v), nil
	case *element.Formula:
		return r.formula(v)
	case element.PageBreak:
		n := elem(atom.Div)
		n.Attr = []html.Attribute{{Key: "class", Val: "page-break"}}
		return n, nil
	}
	return nil, fmt.Errorf("%w: unknown element %T", ErrRender, el)
}

func (r *renderer) paragraph(p *element.Paragraph) *html.Node {
	n := elem(atom.P)
	appendStyle(n, "text-align:"+alignment(p.Align))
	for _, run := range p.Runs {
		span := elem(atom.Span)
		appendStyle(span, runStyle(run.Style))
		span.AppendChild(text(run.Text))
		n.AppendChild(span)
	}
	return n
}

func (r *renderer) list(l *element.List) (*html.Node, error) {
	ul := elem(atom.Ul)
	for _, it := range l.Items {
		child, err := r.block(it.Element)
		if err != nil {
			return nil, err
		}
		li := elem(atom.Li)
		if !it.Bullet {
			li.Attr = append(li.Attr, html.Attribute{Key: "class", Val: "nobullet"})
		}
		li.AppendChild(child)
		ul.AppendChild(li)
	}
	return ul, nil
}

func (r *renderer) image(img *element.Image) *html.Node {
	data, mime, w, h := img.Data, img.MIME, img.Width, img.Height

	if rot := math.Mod(img.Transform.Rotation, 360); rot != 0 {
		rotated, rw, rh, err := imageload.Rotate(data, rot)
		if err != nil {
			r.log.Warn("Unable to rotate image, keeping orientation", zap.String("url", img.Source), zap.Error(err))
		} else {
			data, mime, w, h = rotated, "image/png", rw, rh
		}
	}

	scaleX, scaleY := img.Transform.ScaleX, img.Transform.ScaleY
	if scaleX == 0 {
		scaleX = 1
	}
	if scaleY == 0 {
		scaleY = 1
	}
	width := float64(w) * mmPerInch / r.opts.DPI * scaleX
	height := float64(h) * mmPerInch / r.opts.DPI * scaleY

	alt := img.Alt
	if alt == "" {
		alt = img.Source
	}

	fig := elem(atom.Figure)
	appendStyle(fig, "text-align:"+alignment(img.Align))
	tag := elem(atom.Img)
	tag.Attr = []html.Attribute{
		{Key: "src", Val: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)},
		{Key: "alt", Val: alt},
		{Key: "style", Val: fmt.Sprintf("width:%smm;height:%smm", num(width), num(height))},
	}
	fig.AppendChild(tag)
	return fig
}

func (r *renderer) formula(f *element.Formula) (*html.Node, error) {
	div := elem(atom.Div)
	div.Attr = []html.Attribute{{Key: "class", Val: "formula"}}
	nodes, err := html.ParseFragment(strings.NewReader(f.MathML), elem(atom.Div))
	if err != nil {
		return nil, fmt.Errorf("%w: formula %q: %v", ErrRender, f.Source, err)
	}
	for _, n := range nodes {
		div.AppendChild(n)
	}
	return div, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func elem(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendStyle adds declarations to the style attribute of n.
func appendStyle(n *html.Node, decl string) {
	if decl == "" {
		return
	}
	for i, a := range n.Attr {
		if a.Key == "style" {
			n.Attr[i].Val = a.Val + ";" + decl
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: decl})
}

func runStyle(st style.Style) string {
	parts := []string{"font-size:" + num(st.FontSize) + "pt"}
	if st.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if st.Italic {
		parts = append(parts, "font-style:italic")
	}
	if st.Strikethrough {
		parts = append(parts, "text-decoration:line-through")
	}
	if st.Color != style.Black {
		parts = append(parts, "color:"+st.Color.String())
	}
	return strings.Join(parts, ";")
}

func alignment(a element.Alignment) string {
	switch a {
	case element.AlignCenter:
		return "center"
	case element.AlignJustified:
		return "justify"
	}
	return "left"
}

func fontMIME(data []byte) string {
	if filetype.Is(data, "otf") {
		return "font/otf"
	}
	return "font/ttf"
}

// num formats a length without trailing zeros.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
}
