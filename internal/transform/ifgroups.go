// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// IfGroupsToOpnsense prunes auto-generated plugin interface groups and
// rewrites pfSense's WireGuard group token to OPNsense's wireGuard casing.
// The auto-generated groups (marked "DO NOT EDIT/DELETE!") are recreated by
// the plugin on the target, so importing them would duplicate them.
func IfGroupsToOpnsense(root *xmltree.Node) {
	pruneAutogenIfGroups(root)
	rewriteGroupTokens(root, "WireGuard", "wireGuard")
}

// IfGroupsToPfsense rewrites the wireGuard casing back; pfSense does not
// auto-generate plugin groups so no pruning is needed.
func IfGroupsToPfsense(root *xmltree.Node) {
	rewriteGroupTokens(root, "wireGuard", "WireGuard")
}

func pruneAutogenIfGroups(root *xmltree.Node) {
	ifgroups := root.Child("ifgroups")
	if ifgroups == nil {
		return
	}
	ifgroups.RetainChildren(func(entry *xmltree.Node) bool {
		if entry.Tag != "ifgroupentry" {
			return true
		}
		ifname := strings.ToLower(strings.TrimSpace(entry.TextOr("", "ifname")))
		descr := strings.ToLower(strings.TrimSpace(entry.TextOr("", "descr")))
		autogen := strings.Contains(descr, "do not edit/delete")
		pluginGroup := ifname == "wireguard" || ifname == "tailscale"
		return !(autogen && pluginGroup)
	})
}

// rewriteGroupTokens walks the whole tree and rewrites exact token matches
// inside interface, members, and interfaces elements, which is where group
// names appear as delimiter-separated lists.
func rewriteGroupTokens(node *xmltree.Node, from, to string) {
	switch node.Tag {
	case "interface", "members", "interfaces":
		if node.Text != "" {
			node.Text = rewriteTokenList(node.Text, map[string]string{from: to})
		}
	}
	for _, child := range node.Children {
		rewriteGroupTokens(child, from, to)
	}
}
