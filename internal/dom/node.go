package dom

import (
	"net/url"
	"strings"
)

// NodeType distinguishes element nodes from text nodes.
type NodeType int

const (
	// ElementNode is an HTML element.
	ElementNode NodeType = iota
	// TextNode is a run of character data.
	TextNode
)

// ComputedStyle is the subset of resolved presentation values the
// extractors read. Colors are normalized to "rgb(r, g, b)" or
// "rgba(r, g, b, a)".
type ComputedStyle struct {
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	BackgroundImage string `json:"backgroundImage"`
	FontFamily      string `json:"fontFamily"`
}

// Node is one node of the rendered tree.
type Node struct {
	Type     NodeType
	Tag      string            // lower-case element name, empty for text
	Attrs    map[string]string // attribute names are lower-case
	Text     string            // character data of text nodes
	Parent   *Node
	Children []*Node

	Style ComputedStyle

	// CurrentSrc is the address of the resource an image element has loaded.
	CurrentSrc string
	// NaturalWidth and NaturalHeight are the intrinsic image size, 0 if unknown.
	NaturalWidth  int
	NaturalHeight int
}

// Document is a rendered page.
type Document struct {
	// URL is the address the page was loaded from.
	URL string
	// Base resolves relative references. It honours <base href>.
	Base *url.URL
	// Title is the document title.
	Title string
	// Root is the document element.
	Root *Node
}

// IsElement reports whether n is an element, optionally with one of tags.
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute or "".
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	if n == nil || n.Attrs == nil {
		return false
	}
	_, ok := n.Attrs[name]
	return ok
}

// TextContent returns the concatenated character data of n and its
// descendants, in document order.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	for _, c := range n.Children {
		if c.Type == TextNode {
			b.WriteString(c.Text)
			continue
		}
		c.writeText(b)
	}
}

// AppendChild attaches c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Elements returns every element of the document in document order.
func (d *Document) Elements() []*Node {
	var out []*Node
	d.Root.Walk(func(n *Node) bool {
		if n.Type == ElementNode {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindAll returns the elements with one of tags in document order.
func (d *Document) FindAll(tags ...string) []*Node {
	var out []*Node
	d.Root.Walk(func(n *Node) bool {
		if n.IsElement(tags...) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Find returns the first element with one of tags, or nil.
func (d *Document) Find(tags ...string) *Node {
	var found *Node
	d.Root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.IsElement(tags...) {
			found = n
			return false
		}
		return true
	})
	return found
}

// BaseString returns the textual base address or "".
func (d *Document) BaseString() string {
	if d.Base == nil {
		return ""
	}
	return d.Base.String()
}

// NewElement returns a detached element node.
func NewElement(tag string, attrs map[string]string) *Node {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Node{Type: ElementNode, Tag: strings.ToLower(tag), Attrs: attrs}
}

// NewText returns a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}
