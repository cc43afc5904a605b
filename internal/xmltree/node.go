// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package xmltree holds the generic XML tree model shared by the parser,
// writer, diff engine, and every conversion pass.
package xmltree

import (
	"maps"
	"sort"
	"strings"
)

// Node is a generic XML tree element. Child order is preserved because
// repeated children model ordered collections (firewall rules) and order is
// observable. Attribute order is irrelevant for semantics but serialized in
// sorted-key order so output is stable.
type Node struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []*Node           `json:"children,omitempty"`
	Text       string            `json:"text,omitempty"`
}

// New creates a node with no attributes, children, or text.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// NewText creates a node carrying only text content.
func NewText(tag, text string) *Node {
	return &Node{Tag: tag, Text: text}
}

// Child returns the first child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildList returns all children with the given tag.
func (n *Node) ChildList(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// HasChild reports whether a direct child with the given tag exists.
func (n *Node) HasChild(tag string) bool {
	return n.Child(tag) != nil
}

// Find walks a nested child path and returns the terminal node, or nil.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, seg := range path {
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// TextAt walks a nested child path and returns the terminal node's text.
// Nodes with no text content report ok=false.
func (n *Node) TextAt(path ...string) (string, bool) {
	cur := n.Find(path...)
	if cur == nil || cur.Text == "" {
		return "", false
	}
	return cur.Text, true
}

// TextOr is TextAt with a fallback for missing or empty values.
func (n *Node) TextOr(fallback string, path ...string) string {
	if v, ok := n.TextAt(path...); ok {
		return v
	}
	return fallback
}

// TrimmedText returns the trimmed text at path, ok=false when missing or
// blank after trimming.
func (n *Node) TrimmedText(path ...string) (string, bool) {
	v, ok := n.TextAt(path...)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Attr returns the named attribute value.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attributes[name]
	return v, ok
}

// SetAttr sets the named attribute.
func (n *Node) SetAttr(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	n.Attributes[name] = value
}

// DelAttr removes the named attribute.
func (n *Node) DelAttr(name string) {
	delete(n.Attributes, name)
}

// AttrKeys returns attribute names in sorted order.
func (n *Node) AttrKeys() []string {
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Append adds a child at the end.
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// AppendText adds a text-only child at the end.
func (n *Node) AppendText(tag, text string) {
	n.Append(NewText(tag, text))
}

// SetChildText replaces the text of the first child with the given tag,
// inserting the child if absent.
func (n *Node) SetChildText(tag, text string) {
	if c := n.Child(tag); c != nil {
		c.Text = text
		return
	}
	n.AppendText(tag, text)
}

// EnsureChild returns the first child with the given tag, creating an empty
// one when none exists.
func (n *Node) EnsureChild(tag string) *Node {
	if c := n.Child(tag); c != nil {
		return c
	}
	c := New(tag)
	n.Append(c)
	return c
}

// EnsureChildText inserts a text child only when no child with the tag exists.
func (n *Node) EnsureChildText(tag, text string) {
	if n.HasChild(tag) {
		return
	}
	n.AppendText(tag, text)
}

// RemoveChildren drops every direct child with the given tag.
func (n *Node) RemoveChildren(tag string) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Tag != tag {
			kept = append(kept, c)
		}
	}
	n.Children = kept
}

// RetainChildren keeps only children for which keep returns true.
func (n *Node) RetainChildren(keep func(*Node) bool) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	n.Children = kept
}

// ReplaceChild swaps the first child with the given tag for the replacement,
// appending when no such child exists.
func (n *Node) ReplaceChild(tag string, replacement *Node) {
	for i, c := range n.Children {
		if c.Tag == tag {
			n.Children[i] = replacement
			return
		}
	}
	n.Append(replacement)
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	out := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Attributes) > 0 {
		out.Attributes = maps.Clone(n.Attributes)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Equal reports deep structural equality.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Tag != other.Tag || n.Text != other.Text {
		return false
	}
	if len(n.Attributes) != len(other.Attributes) {
		return false
	}
	for k, v := range n.Attributes {
		if ov, ok := other.Attributes[k]; !ok || ov != v {
			return false
		}
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i, c := range n.Children {
		if !c.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// String renders the node as compact single-line XML, for diagnostics.
func (n *Node) String() string {
	var b strings.Builder
	n.compact(&b)
	return b.String()
}

func (n *Node) compact(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, k := range n.AttrKeys() {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(n.Attributes[k])
		b.WriteByte('"')
	}
	if len(n.Children) == 0 && n.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.compact(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
