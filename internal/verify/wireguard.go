// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// WireGuardFindings warns when WireGuard is enabled but nothing assigns a
// wireguard or tun_wg* interface. The tunnel config would exist without a
// usable interface. Assignments are not strictly required, so this is a
// warning, not an error.
func WireGuardFindings(root *xmltree.Node) []Finding {
	if !hasWireGuardConfig(root) || !wireGuardEnabled(root) {
		return nil
	}
	if hasWireGuardInterfaceAssignment(root) {
		return nil
	}
	return []Finding{warnFinding("wireguard_missing_interface_assignment",
		"WireGuard appears enabled but no wireguard/tun_wg* interface assignment was found")}
}

func hasWireGuardConfig(root *xmltree.Node) bool {
	return root.HasChild("wireguard") || root.Find("OPNsense", "wireguard") != nil
}

// wireGuardEnabled walks the wireguard subtrees looking for any truthy
// <enabled> element.
func wireGuardEnabled(root *xmltree.Node) bool {
	var stack []*xmltree.Node
	if top := root.Child("wireguard"); top != nil {
		stack = append(stack, top)
	}
	if nested := root.Find("OPNsense", "wireguard"); nested != nil {
		stack = append(stack, nested)
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if strings.EqualFold(node.Tag, "enabled") && isTruthy(node.Text) {
			return true
		}
		stack = append(stack, node.Children...)
	}
	return false
}

func hasWireGuardInterfaceAssignment(root *xmltree.Node) bool {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return false
	}
	for _, iface := range interfaces.Children {
		if strings.EqualFold(iface.Tag, "wireguard") {
			return true
		}
		if strings.Contains(strings.ToLower(iface.TextOr("", "if")), "wg") {
			return true
		}
	}
	return false
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "yes", "true", "enabled", "on":
		return true
	}
	return false
}
