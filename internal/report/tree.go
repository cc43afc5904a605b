// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package report

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// RenderTree renders a tag-only outline of the tree, indented two spaces
// per level, pruned below maxDepth.
func RenderTree(node *xmltree.Node, maxDepth int) string {
	var b strings.Builder
	renderNode(&b, node, 0, maxDepth)
	return b.String()
}

func renderNode(b *strings.Builder, node *xmltree.Node, depth, maxDepth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(node.Tag)
	b.WriteString("\n")

	if depth >= maxDepth {
		return
	}
	for _, child := range node.Children {
		renderNode(b, child, depth+1, maxDepth)
	}
}
