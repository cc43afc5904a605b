// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"fmt"

	"grimm.is/pfopn/internal/xmltree"
)

// Summary counts the major configuration objects present in a converted
// tree, for the one-line report printed after a successful run.
type Summary struct {
	Interfaces int `json:"interfaces"`
	Bridges    int `json:"bridges"`
	Aliases    int `json:"aliases"`
	Rules      int `json:"rules"`
	Routes     int `json:"routes"`
	VPNs       int `json:"vpns"`
}

// Summarize counts objects across both platform layouts.
func Summarize(root *xmltree.Node) Summary {
	return Summary{
		Interfaces: childCount(root, "interfaces"),
		Bridges:    taggedChildCount(root.Child("bridges"), "bridged"),
		Aliases:    countAliases(root),
		Rules:      taggedChildCount(root.Child("filter"), "rule"),
		Routes:     childCount(root, "staticroutes"),
		VPNs:       countVPNs(root),
	}
}

// Render formats the summary as a single human-readable line.
func (s Summary) Render() string {
	return fmt.Sprintf("convert_summary interfaces=%d bridges=%d aliases=%d rules=%d routes=%d vpns=%d",
		s.Interfaces, s.Bridges, s.Aliases, s.Rules, s.Routes, s.VPNs)
}

func childCount(root *xmltree.Node, tag string) int {
	if child := root.Child(tag); child != nil {
		return len(child.Children)
	}
	return 0
}

func taggedChildCount(node *xmltree.Node, tag string) int {
	if node == nil {
		return 0
	}
	count := 0
	for _, child := range node.Children {
		if child.Tag == tag {
			count++
		}
	}
	return count
}

func countAliases(root *xmltree.Node) int {
	top := taggedChildCount(root.Child("aliases"), "alias")
	nested := taggedChildCount(root.Find("OPNsense", "Firewall", "Alias", "aliases"), "alias")
	if nested > top {
		return nested
	}
	return top
}

func countVPNs(root *xmltree.Node) int {
	count := 0
	if openvpn := root.Child("openvpn"); openvpn != nil {
		for _, child := range openvpn.Children {
			if child.Tag == "openvpn-server" || child.Tag == "openvpn-client" {
				count++
			}
		}
	}
	for _, present := range []*xmltree.Node{
		root.Child("ipsec"),
		root.Find("OPNsense", "IPsec"),
		root.Child("wireguard"),
		root.Find("OPNsense", "wireguard"),
		root.Child("tailscale"),
		root.Child("tailscaleauth"),
		root.Find("installedpackages", "tailscale"),
		root.Find("OPNsense", "tailscale"),
	} {
		if present != nil {
			count++
		}
	}
	return count
}
