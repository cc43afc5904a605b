// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package xmltree

import (
	"fmt"
	"strings"
)

// DiffKind classifies a single diff outcome.
type DiffKind int

const (
	// DiffIdentical means the node exists in both trees with equal content.
	DiffIdentical DiffKind = iota
	// DiffModified means text or attributes differ.
	DiffModified
	// DiffOnlyLeft means the node exists only in the left tree.
	DiffOnlyLeft
	// DiffOnlyRight means the node exists only in the right tree.
	DiffOnlyRight
	// DiffStructural means a structural mismatch such as a tag rename.
	DiffStructural
)

func (k DiffKind) String() string {
	switch k {
	case DiffIdentical:
		return "identical"
	case DiffModified:
		return "modified"
	case DiffOnlyLeft:
		return "only_left"
	case DiffOnlyRight:
		return "only_right"
	case DiffStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// DiffEntry is one diff outcome. Path is dot-separated with a positional
// [n] suffix (1-based) for repeated tags, or [keyvalue] when a key field is
// configured for the tag.
type DiffEntry struct {
	Kind        DiffKind
	Path        string
	Left        string // local signature, Modified only
	Right       string // local signature, Modified only
	Description string // Structural only
	Node        *Node  // OnlyLeft / OnlyRight payload
}

// DiffOptions configures tree diff behavior.
type DiffOptions struct {
	// IncludeIdentical emits a row for nodes whose whole subtree matched.
	IncludeIdentical bool
	// MaxDepth bounds recursion; negative means unlimited.
	MaxDepth int
	// KeyFields maps a repeated tag to the child tag whose text identifies
	// an element for matching (for example rule -> tracker).
	KeyFields map[string]string
	// IgnorePaths suppresses outcomes whose path matches a prefix or tag.
	IgnorePaths []string
}

// DefaultDiffOptions returns options matching the plain two-tree diff.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDepth: -1}
}

// Diff compares two trees with default options.
func Diff(left, right *Node) []DiffEntry {
	return DiffWithOptions(left, right, DefaultDiffOptions())
}

// DiffWithOptions compares two trees.
func DiffWithOptions(left, right *Node, opts DiffOptions) []DiffEntry {
	var out []DiffEntry
	diffNode(left, right, left.Tag, 0, &opts, &out)
	return out
}

func diffNode(left, right *Node, path string, depth int, opts *DiffOptions, out *[]DiffEntry) {
	if shouldIgnore(path, opts) {
		return
	}
	if opts.MaxDepth >= 0 && depth > opts.MaxDepth {
		return
	}

	startLen := len(*out)

	if left.Tag != right.Tag {
		*out = append(*out, DiffEntry{
			Kind:        DiffStructural,
			Path:        path,
			Description: fmt.Sprintf("tag mismatch: left='%s' right='%s'", left.Tag, right.Tag),
		})
		diffChildren(left, right, path, depth, opts, out)
		return
	}

	if !attrsEqual(left, right) || normalizeText(left.Text) != normalizeText(right.Text) {
		*out = append(*out, DiffEntry{
			Kind:  DiffModified,
			Path:  path,
			Left:  localSignature(left),
			Right: localSignature(right),
		})
	}

	diffChildren(left, right, path, depth, opts, out)

	if opts.IncludeIdentical && len(*out) == startLen {
		*out = append(*out, DiffEntry{Kind: DiffIdentical, Path: path})
	}
}

func diffChildren(left, right *Node, path string, depth int, opts *DiffOptions, out *[]DiffEntry) {
	var tags []string
	seen := map[string]bool{}
	for _, c := range left.Children {
		if !seen[c.Tag] {
			seen[c.Tag] = true
			tags = append(tags, c.Tag)
		}
	}
	for _, c := range right.Children {
		if !seen[c.Tag] {
			seen[c.Tag] = true
			tags = append(tags, c.Tag)
		}
	}

	for _, tag := range tags {
		leftNodes := left.ChildList(tag)
		rightNodes := right.ChildList(tag)
		if key, ok := opts.KeyFields[tag]; ok {
			matchByKey(tag, key, leftNodes, rightNodes, path, depth, opts, out)
		} else {
			matchByIndex(tag, leftNodes, rightNodes, path, depth, opts, out)
		}
	}
}

func matchByIndex(tag string, leftNodes, rightNodes []*Node, parentPath string, depth int, opts *DiffOptions, out *[]DiffEntry) {
	max := len(leftNodes)
	if len(rightNodes) > max {
		max = len(rightNodes)
	}
	for i := 0; i < max; i++ {
		childPath := fmt.Sprintf("%s.%s[%d]", parentPath, tag, i+1)
		switch {
		case i < len(leftNodes) && i < len(rightNodes):
			diffNode(leftNodes[i], rightNodes[i], childPath, depth+1, opts, out)
		case i < len(leftNodes):
			*out = append(*out, DiffEntry{Kind: DiffOnlyLeft, Path: childPath, Node: leftNodes[i].Clone()})
		default:
			*out = append(*out, DiffEntry{Kind: DiffOnlyRight, Path: childPath, Node: rightNodes[i].Clone()})
		}
	}
}

func matchByKey(tag, keyField string, leftNodes, rightNodes []*Node, parentPath string, depth int, opts *DiffOptions, out *[]DiffEntry) {
	rightKeys := make([]string, len(rightNodes))
	rightHasKey := make([]bool, len(rightNodes))
	for i, n := range rightNodes {
		rightKeys[i], rightHasKey[i] = n.TextAt(keyField)
	}

	usedRight := map[int]bool{}

	for leftIdx, leftNode := range leftNodes {
		leftKey, leftHasKey := leftNode.TextAt(keyField)
		childPath := fmt.Sprintf("%s.%s[%d]", parentPath, tag, leftIdx+1)
		if leftHasKey {
			childPath = fmt.Sprintf("%s.%s[%s]", parentPath, tag, leftKey)
		}

		matchedRight := -1
		if leftHasKey {
			for idx := range rightNodes {
				if usedRight[idx] {
					continue
				}
				if rightHasKey[idx] && rightKeys[idx] == leftKey {
					matchedRight = idx
					break
				}
			}
		}

		if matchedRight >= 0 {
			usedRight[matchedRight] = true
			diffNode(leftNode, rightNodes[matchedRight], childPath, depth+1, opts, out)
			continue
		}

		if leftIdx < len(rightNodes) && !usedRight[leftIdx] {
			usedRight[leftIdx] = true
			diffNode(leftNode, rightNodes[leftIdx], childPath, depth+1, opts, out)
			continue
		}

		*out = append(*out, DiffEntry{Kind: DiffOnlyLeft, Path: childPath, Node: leftNode.Clone()})
	}

	for rightIdx, rightNode := range rightNodes {
		if usedRight[rightIdx] {
			continue
		}
		childPath := fmt.Sprintf("%s.%s[%d]", parentPath, tag, rightIdx+1)
		if rightHasKey[rightIdx] {
			childPath = fmt.Sprintf("%s.%s[%s]", parentPath, tag, rightKeys[rightIdx])
		}
		*out = append(*out, DiffEntry{Kind: DiffOnlyRight, Path: childPath, Node: rightNode.Clone()})
	}
}

func shouldIgnore(path string, opts *DiffOptions) bool {
	for _, ignore := range opts.IgnorePaths {
		if path == ignore ||
			strings.HasSuffix(path, "."+ignore) ||
			strings.Contains(path, "."+ignore+"[") ||
			path == ignore+"[1]" {
			return true
		}
	}
	return false
}

func attrsEqual(left, right *Node) bool {
	if len(left.Attributes) != len(right.Attributes) {
		return false
	}
	for k, v := range left.Attributes {
		if rv, ok := right.Attributes[k]; !ok || rv != v {
			return false
		}
	}
	return true
}

func normalizeText(s string) string {
	return strings.TrimSpace(s)
}

func localSignature(n *Node) string {
	var attrs strings.Builder
	attrs.WriteByte('{')
	for i, k := range n.AttrKeys() {
		if i > 0 {
			attrs.WriteString(", ")
		}
		fmt.Fprintf(&attrs, "%q: %q", k, n.Attributes[k])
	}
	attrs.WriteByte('}')

	text := "none"
	if t := normalizeText(n.Text); t != "" {
		text = fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf("attributes=%s, text=%s", attrs.String(), text)
}
