// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package merge

import (
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// Diff paths are dot-separated tag names with an optional [n] suffix
// (1-based) for repeated tags, or [keyvalue] when the diff matched by a key
// field: "pfsense.interfaces.lan" or "pfsense.filter.rule[3]".

// splitParentPath strips the final segment, returning the parent path.
func splitParentPath(path string) (string, bool) {
	idx := strings.LastIndex(path, ".")
	if idx <= 0 {
		return "", false
	}
	return path[:idx], true
}

// normalizeRootPath rewrites the root segment of a path to the output tree's
// root tag. Diff paths are rooted in the left tree's tag, which differs from
// the output root when merging across platforms (pfsense vs opnsense).
func normalizeRootPath(path, outTag, leftTag, rightTag string) string {
	root, rest, found := strings.Cut(path, ".")
	if root == leftTag || root == rightTag {
		root = outTag
	}
	if !found {
		return root
	}
	return root + "." + rest
}

// findNodeByPath resolves a normalized path against a tree. The first
// segment must name the root. Indexed segments pick the nth child with that
// tag; a non-numeric bracket value is a key-field match and resolves to the
// child whose any direct field carries that text.
func findNodeByPath(root *xmltree.Node, path string) *xmltree.Node {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil
	}
	tag, _, _ := parseSegment(segments[0])
	if tag != root.Tag {
		return nil
	}
	node := root
	for _, segment := range segments[1:] {
		tag, selector, indexed := parseSegment(segment)
		matches := node.ChildList(tag)
		if len(matches) == 0 {
			return nil
		}
		switch {
		case selector == "":
			node = matches[0]
		case indexed:
			n, err := strconv.Atoi(selector)
			if err != nil || n < 1 || n > len(matches) {
				return nil
			}
			node = matches[n-1]
		default:
			node = matchByKeyText(matches, selector)
			if node == nil {
				return nil
			}
		}
	}
	return node
}

// parseSegment splits "rule[3]" into tag, selector, and whether the
// selector is a positional index.
func parseSegment(segment string) (tag, selector string, indexed bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 || !strings.HasSuffix(segment, "]") {
		return segment, "", false
	}
	tag = segment[:open]
	selector = segment[open+1 : len(segment)-1]
	_, err := strconv.Atoi(selector)
	return tag, selector, err == nil
}

func matchByKeyText(matches []*xmltree.Node, key string) *xmltree.Node {
	for _, m := range matches {
		for _, field := range m.Children {
			if strings.TrimSpace(field.Text) == key {
				return m
			}
		}
	}
	return nil
}
