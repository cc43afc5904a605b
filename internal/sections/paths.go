// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sections

import (
	"sort"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// collectTopSections lists unique top-level section names, excluding the
// version element.
func collectTopSections(root *xmltree.Node) []string {
	seen := make(map[string]bool)
	for _, child := range root.Children {
		if child.Tag != "version" {
			seen[child.Tag] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// normalize strips non-alphanumeric characters and lowercases, so
// "OpenVPN-Config" compares equal to "openvpnconfig".
func normalize(name string) string {
	var b strings.Builder
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune(ch + ('a' - 'A'))
		}
	}
	return b.String()
}

// normalizeTag normalizes and strips a trailing 's' so plural and singular
// variants match ("aliases" vs "alias").
func normalizeTag(name string) string {
	s := normalize(name)
	if len(s) > 1 && strings.HasSuffix(s, "s") {
		s = s[:len(s)-1]
	}
	return s
}

// findAliasPaths locates alias definitions at any depth. Alias sections live
// in different places on each platform.
func findAliasPaths(root *xmltree.Node) []string {
	var out []string
	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if node.Tag == "aliases" || node.Tag == "Alias" {
			out = append(out, path)
		}
		for _, child := range node.Children {
			walk(child, path+"."+child.Tag)
		}
	}
	walk(root, root.Tag)
	sort.Strings(out)
	return out
}

// findPathsByCanonicalTag returns every dotted path whose tag matches the
// target after normalization, for spotting sections that moved.
func findPathsByCanonicalTag(root *xmltree.Node, target string) []string {
	targetNorm := normalizeTag(target)
	var out []string
	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if normalizeTag(node.Tag) == targetNorm {
			out = append(out, path)
		}
		for _, child := range node.Children {
			walk(child, path+"."+child.Tag)
		}
	}
	walk(root, root.Tag)
	sort.Strings(out)
	return out
}

// isFuzzyRenameCandidate reports whether two section names look related:
// equal after normalization, one containing the other, or sharing an
// alphabetic token of 4+ characters.
func isFuzzyRenameCandidate(left, right string) bool {
	l := normalizeTag(left)
	r := normalizeTag(right)
	if l == r || strings.Contains(l, r) || strings.Contains(r, l) {
		return true
	}
	rTokens := make(map[string]bool)
	for _, token := range splitAlphaTokens(r) {
		rTokens[token] = true
	}
	for _, token := range splitAlphaTokens(l) {
		if len(token) >= 4 && rTokens[token] {
			return true
		}
	}
	return false
}

func splitAlphaTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}
