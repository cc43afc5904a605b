// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package transform holds the per-root conversion passes. Every pass has the
// same shape: it mutates the output tree in place given the read-only source
// and destination baseline trees. Pass order is fixed by the pipeline; later
// passes rely on invariants established by earlier ones.
package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// Pass is the uniform signature shared by every conversion pass.
type Pass func(out, source, baseline *xmltree.Node)

// truthy spellings accepted anywhere an enablement flag is read.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "enabled", "on":
		return true
	}
	return false
}

// enabledTernary evaluates the legacy enablement convention: a truthy
// <disabled> wins, a present <enable> counts as on even with empty text,
// a truthy <enabled> counts as on, and the default is on.
func enabledTernary(node *xmltree.Node) bool {
	if v, ok := node.TextAt("disabled"); ok && isTruthy(v) {
		return false
	}
	if c := node.Child("enable"); c != nil {
		return c.Text == "" || isTruthy(c.Text)
	}
	if v, ok := node.TextAt("enabled"); ok {
		return isTruthy(v)
	}
	return true
}

// upsertChild replaces the first child sharing the node's tag, appending
// when no such child exists.
func upsertChild(parent *xmltree.Node, child *xmltree.Node) {
	parent.ReplaceChild(child.Tag, child)
}

func isDelim(ch rune) bool {
	switch ch {
	case ',', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// rewriteTokenList replaces mapped tokens in a delimiter-separated list,
// preserving the delimiters exactly.
func rewriteTokenList(input string, mapping map[string]string) string {
	var out, token strings.Builder
	flush := func() {
		if token.Len() == 0 {
			return
		}
		if mapped, ok := mapping[token.String()]; ok {
			out.WriteString(mapped)
		} else {
			out.WriteString(token.String())
		}
		token.Reset()
	}
	for _, ch := range input {
		if isDelim(ch) {
			flush()
			out.WriteRune(ch)
		} else {
			token.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}
