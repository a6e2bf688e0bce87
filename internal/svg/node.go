// Package svg provides a small generic markup tree for vector documents.
// Element and attribute names are kept exactly as written (including any
// namespace prefix) so documents round-trip without the namespace
// rewriting performed by encoding/xml.
package svg

import (
	"strconv"
	"strings"
)

// Namespace URIs used by composite documents.
const (
	NamespaceSVG   = "http://www.w3.org/2000/svg"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
)

// Attr is a single attribute. Name includes the prefix, e.g. "xlink:href".
type Attr struct {
	Name  string
	Value string
}

// Node is an element with ordered attributes and children. Character data
// before the first child is kept in Text; character data following an
// element inside its parent is kept in that element's Tail, so mixed
// content keeps its order.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
	Tail     string
}

// New creates an element with the given name and attribute pairs.
// Attribute pairs are given as name, value, name, value...
func New(name string, pairs ...string) *Node {
	n := &Node{Name: name}
	for i := 0; i+1 < len(pairs); i += 2 {
		n.Attrs = append(n.Attrs, Attr{Name: pairs[i], Value: pairs[i+1]})
	}
	return n
}

// LocalName returns the element name without a namespace prefix.
func (n *Node) LocalName() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set sets an attribute, replacing an existing value in place so attribute
// order stays stable.
func (n *Node) Set(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	return n
}

// Remove deletes the named attributes if present.
func (n *Node) Remove(names ...string) *Node {
	kept := n.Attrs[:0]
	for _, a := range n.Attrs {
		drop := false
		for _, name := range names {
			if a.Name == name {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, a)
		}
	}
	n.Attrs = kept
	return n
}

// Append adds children and returns n for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, Text: n.Text, Tail: n.Tail}
	if len(n.Attrs) > 0 {
		c.Attrs = make([]Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// FindAll returns every descendant of n (n included) whose local name is
// local, in document order.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if x.LocalName() == local {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Find returns the first node in document order with the given local name.
func (n *Node) Find(local string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.LocalName() == local {
			found = x
			return false
		}
		return true
	})
	return found
}

// FindID returns the first node whose id attribute equals id.
func (n *Node) FindID(id string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if v, ok := x.Attr("id"); ok && v == id {
			found = x
			return false
		}
		return true
	})
	return found
}

// Walk visits n and its descendants depth-first in document order. When fn
// returns false the children of that node are skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Num formats a coordinate with the shortest exact representation and
// without a negative zero.
func Num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
