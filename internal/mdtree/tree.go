// Package mdtree holds the Markdown document tree consumed by the
// conversion pipeline.
//
// Nodes live in an index-addressed arena owned by Tree. Parent, child and
// sibling links are NodeIDs, so a Tree can be copied, compared and built by
// hand in tests without pointer juggling. The tree is read through a
// depth-first stream of enter/exit events (see Cursor and Tree.Events).
package mdtree

import (
	"fmt"
	"strings"
)

// NodeID addresses a node inside its Tree.
type NodeID int32

// None marks an absent link.
const None NodeID = -1

// Kind is the closed set of node variants the pipeline understands.
// Everything else is mapped to KindUnsupported.
type Kind uint8

const (
	KindDocument Kind = iota
	KindParagraph
	KindHeading
	KindText
	KindEmphasis
	KindStrong
	KindStrikethrough
	KindList
	KindListItem
	KindBlockQuote
	KindImage
	KindLineBreak
	KindSoftBreak
	KindThematicBreak
	KindCodeBlock
	KindUnsupported
)

var kindNames = [...]string{
	KindDocument:      "Document",
	KindParagraph:     "Paragraph",
	KindHeading:       "Heading",
	KindText:          "Text",
	KindEmphasis:      "Emphasis",
	KindStrong:        "Strong",
	KindStrikethrough: "Strikethrough",
	KindList:          "List",
	KindListItem:      "ListItem",
	KindBlockQuote:    "BlockQuote",
	KindImage:         "Image",
	KindLineBreak:     "LineBreak",
	KindSoftBreak:     "SoftBreak",
	KindThematicBreak: "ThematicBreak",
	KindCodeBlock:     "CodeBlock",
	KindUnsupported:   "Unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Node is a single tree node. Only the fields relevant to Kind are set.
type Node struct {
	Kind Kind

	Parent      NodeID
	FirstChild  NodeID
	LastChild   NodeID
	NextSibling NodeID

	// Heading.
	Level int

	// Text.
	Text string

	// Image. Caption is the Markdown title and carries layout directives.
	URL     string
	Caption string
	Alt     string

	// CodeBlock. Line is the 1-based source line of the first content line.
	Info    string
	Literal string
	Line    int

	// Unsupported: name of the source construct, for diagnostics.
	Name string
}

// Tree is an arena of nodes rooted at a Document node.
type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only the Document root.
func NewTree() *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, Node{
		Kind:        KindDocument,
		Parent:      None,
		FirstChild:  None,
		LastChild:   None,
		NextSibling: None,
	})
	return t
}

// Root returns the Document node ID.
func (t *Tree) Root() NodeID { return 0 }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node stored at id.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Add appends n as the last child of parent and returns its ID.
// Link fields of n are overwritten.
func (t *Tree) Add(parent NodeID, n Node) NodeID {
	id := NodeID(len(t.nodes))
	n.Parent = parent
	n.FirstChild = None
	n.LastChild = None
	n.NextSibling = None
	t.nodes = append(t.nodes, n)

	p := &t.nodes[parent]
	if p.LastChild == None {
		p.FirstChild = id
	} else {
		t.nodes[p.LastChild].NextSibling = id
	}
	p.LastChild = id
	return id
}

// Children returns the IDs of the direct children of id, in order.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.nodes[id].FirstChild; c != None; c = t.nodes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// Text returns every decoded text and image alt string of the tree, in
// node order. It is the reference text for font subsetting.
func (t *Tree) Text() string {
	var b strings.Builder
	for i := range t.nodes {
		n := &t.nodes[i]
		b.WriteString(n.Text)
		b.WriteString(n.Alt)
	}
	return b.String()
}
