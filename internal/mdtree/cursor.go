package mdtree

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Phase tells whether an event opens or closes a node.
type Phase uint8

const (
	Enter Phase = iota
	Exit
)

func (p Phase) String() string {
	if p == Enter {
		return "enter"
	}
	return "exit"
}

// Event is one step of the depth-first traversal.
type Event struct {
	ID    NodeID
	Node  *Node
	Phase Phase
}

// Cursor walks a Tree depth-first. Every node produces exactly one Enter
// and one Exit event; Exit follows the events of all descendants.
type Cursor struct {
	t       *Tree
	id      NodeID
	phase   Phase
	started bool
	done    bool
}

// Cursor returns a cursor positioned before the root.
func (t *Tree) Cursor() *Cursor {
	return &Cursor{t: t, id: t.Root()}
}

// Next advances the cursor. It returns false once the root has been exited.
func (c *Cursor) Next() (Event, bool) {
	switch {
	case c.done:
		return Event{}, false
	case !c.started:
		c.started = true
		c.phase = Enter
	case c.phase == Enter:
		if first := c.t.nodes[c.id].FirstChild; first != None {
			c.id = first
		} else {
			c.phase = Exit
		}
	default:
		n := &c.t.nodes[c.id]
		switch {
		case n.Parent == None:
			c.done = true
			return Event{}, false
		case n.NextSibling != None:
			c.id = n.NextSibling
			c.phase = Enter
		default:
			c.id = n.Parent
		}
	}
	return Event{ID: c.id, Node: &c.t.nodes[c.id], Phase: c.phase}, true
}

// Events returns the full event stream of the tree.
func (t *Tree) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		c := t.Cursor()
		for ev, ok := c.Next(); ok; ev, ok = c.Next() {
			if !yield(ev) {
				return
			}
		}
	}
}

// Dump writes the event stream to w, one event per line, indented by depth.
func (t *Tree) Dump(w io.Writer) error {
	depth := 0
	for ev := range t.Events() {
		if ev.Phase == Exit {
			depth--
		}
		if _, err := fmt.Fprintf(w, "%s%s %s%s\n", strings.Repeat("  ", depth), ev.Phase, ev.Node.Kind, describe(ev.Node)); err != nil {
			return err
		}
		if ev.Phase == Enter {
			depth++
		}
	}
	return nil
}

func describe(n *Node) string {
	switch n.Kind {
	case KindHeading:
		return fmt.Sprintf(" level=%d", n.Level)
	case KindText:
		return fmt.Sprintf(" %q", n.Text)
	case KindImage:
		return fmt.Sprintf(" url=%q caption=%q", n.URL, n.Caption)
	case KindCodeBlock:
		return fmt.Sprintf(" info=%q line=%d", n.Info, n.Line)
	case KindUnsupported:
		return fmt.Sprintf(" (%s)", n.Name)
	}
	return ""
}
