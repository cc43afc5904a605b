// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dhcp

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// DisableAll switches every DHCP backend in the tree off in place. Opt-in:
// only called when the user asks for DHCP shutdown in restore or testing
// workflows.
func DisableAll(root *xmltree.Node) {
	disableLegacySection(root, "dhcpd")
	disableLegacySection(root, "dhcpdv6")
	disableLegacySection(root, "dhcpd6")
	disableKeaServices(root)
	if kea := root.Child("kea"); kea != nil {
		disableFlagsRecursive(kea)
	}
	if kea := root.Child("Kea"); kea != nil {
		disableFlagsRecursive(kea)
	}
}

// disableLegacySection flips every per-interface block in an ISC section to
// disabled. All three flag spellings are set because consumers disagree on
// which one they honor.
func disableLegacySection(root *xmltree.Node, section string) {
	node := root.Child(section)
	if node == nil {
		return
	}
	for _, iface := range node.Children {
		if strings.HasPrefix(iface.Tag, "#") {
			continue
		}
		iface.SetChildText("enable", "0")
		iface.SetChildText("enabled", "0")
		iface.SetChildText("disabled", "1")
	}
}

func disableKeaServices(root *xmltree.Node) {
	kea := root.Find("OPNsense", "Kea")
	if kea == nil {
		return
	}
	for _, service := range []string{"dhcp4", "dhcp6", "ctrl_agent"} {
		if serviceNode := kea.Child(service); serviceNode != nil {
			serviceNode.EnsureChild("general").SetChildText("enabled", "0")
		}
	}
	disableFlagsRecursive(kea)
}

func disableFlagsRecursive(node *xmltree.Node) {
	switch node.Tag {
	case "enabled", "enable":
		node.Text = "0"
	case "disabled":
		node.Text = "1"
	}
	for _, child := range node.Children {
		disableFlagsRecursive(child)
	}
}
