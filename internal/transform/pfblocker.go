// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// PrunePfBlockerFloatingRules removes the floating firewall rules that
// pfBlockerNG generates. OPNsense has no pfBlockerNG, so rules referencing
// its pfB_* aliases would dangle and can break loading the ruleset. Only
// floating rules are pruned; user rules on specific interfaces are kept.
func PrunePfBlockerFloatingRules(root *xmltree.Node) {
	filter := root.Child("filter")
	if filter == nil {
		return
	}
	filter.RetainChildren(func(child *xmltree.Node) bool {
		if child.Tag != "rule" {
			return true
		}
		return !isPfBlockerFloatingRule(child)
	})
}

func isPfBlockerFloatingRule(rule *xmltree.Node) bool {
	if !strings.EqualFold(strings.TrimSpace(rule.TextOr("", "floating")), "yes") {
		return false
	}
	return subtreeHasPfBlockerMarker(rule)
}

// subtreeHasPfBlockerMarker scans all text at any depth; the alias can
// appear in source, destination, descr, or elsewhere.
func subtreeHasPfBlockerMarker(node *xmltree.Node) bool {
	t := strings.TrimSpace(node.Text)
	if t != "" {
		if strings.EqualFold(t, "pfB_Top_v4") || strings.EqualFold(t, "pfB_Top_v6") ||
			strings.HasPrefix(strings.ToLower(t), "pfb_") {
			return true
		}
	}
	for _, child := range node.Children {
		if subtreeHasPfBlockerMarker(child) {
			return true
		}
	}
	return false
}
