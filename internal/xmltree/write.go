// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package xmltree

import (
	"os"
	"strings"

	"grimm.is/pfopn/internal/errors"
)

// Write serializes a Node tree as indented XML. Children are indented two
// spaces per level, attributes come out in sorted-key order, and elements
// with no content are self-closing.
func Write(node *Node) []byte {
	var b strings.Builder
	writeNode(&b, node, 0)
	return []byte(b.String())
}

// WriteFile serializes the tree and writes it to path.
func WriteFile(node *Node, path string) error {
	if err := os.WriteFile(path, Write(node), 0o644); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "failed to write XML file %s", path)
	}
	return nil
}

func writeNode(b *strings.Builder, node *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(node.Tag)
	for _, k := range node.AttrKeys() {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(node.Attributes[k]))
		b.WriteByte('"')
	}

	if len(node.Children) == 0 && node.Text == "" {
		b.WriteString("/>")
		return
	}

	b.WriteByte('>')
	if node.Text != "" {
		b.WriteString(escapeText(node.Text))
	}
	for _, child := range node.Children {
		b.WriteByte('\n')
		writeNode(b, child, depth+1)
	}
	if len(node.Children) > 0 {
		b.WriteByte('\n')
		b.WriteString(indent)
	}
	b.WriteString("</")
	b.WriteString(node.Tag)
	b.WriteByte('>')
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
