// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package inventory

import (
	"sort"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// WireGuardInventory records where WireGuard config lives in a tree and how
// many entries are switched on. WireGuard has no certificate store, so
// unlike the other VPNs there is no reference/availability comparison; the
// useful signal is presence and enablement on each side.
type WireGuardInventory struct {
	Configured     bool     `json:"configured"`
	EnabledEntries int      `json:"enabled_entries"`
	Paths          []string `json:"paths"`
}

// WireGuardDependencyReport holds both sides' inventories.
type WireGuardDependencyReport struct {
	Left  WireGuardInventory `json:"left"`
	Right WireGuardInventory `json:"right"`
}

// CompareWireGuardDependencies inventories WireGuard config on both sides.
func CompareWireGuardDependencies(left, right *xmltree.Node) WireGuardDependencyReport {
	return WireGuardDependencyReport{
		Left:  collectWireGuardInventory(left),
		Right: collectWireGuardInventory(right),
	}
}

func collectWireGuardInventory(root *xmltree.Node) WireGuardInventory {
	var paths []string
	enabled := 0

	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if strings.EqualFold(node.Tag, "wireguard") {
			paths = append(paths, path)
			enabled += countEnabledFlags(node)
		}
		for _, child := range node.Children {
			walk(child, path+"."+child.Tag)
		}
	}
	walk(root, root.Tag)
	sort.Strings(paths)

	return WireGuardInventory{
		Configured:     len(paths) > 0,
		EnabledEntries: enabled,
		Paths:          paths,
	}
}

func countEnabledFlags(node *xmltree.Node) int {
	count := 0
	if strings.EqualFold(node.Tag, "enabled") && truthy(node.Text) {
		count++
	}
	for _, child := range node.Children {
		count += countEnabledFlags(child)
	}
	return count
}
