// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// InterfaceReferenceFindings validates that firewall rules, gateways, and
// static routes only reference interfaces that exist. It also flags the same
// logical interface being assigned more than once.
func InterfaceReferenceFindings(root *xmltree.Node) []Finding {
	defined := CollectDefinedInterfaceNames(root)
	var out []Finding
	out = append(out, duplicateInterfaceFindings(root)...)
	out = append(out, ruleInterfaceFindings(root, defined)...)
	out = append(out, gatewayInterfaceFindings(root, defined)...)
	out = append(out, routeInterfaceFindings(root, defined)...)
	return out
}

// CollectDefinedInterfaceNames gathers every interface name the configuration
// defines: the <interfaces> children plus the VPN pseudo-interfaces implied by
// openvpn, wireguard, and tailscale sections. Names are lowercased.
func CollectDefinedInterfaceNames(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	if interfaces := root.Child("interfaces"); interfaces != nil {
		for _, iface := range interfaces.Children {
			out[strings.ToLower(iface.Tag)] = true
		}
	}
	if root.HasChild("openvpn") {
		out["openvpn"] = true
	}
	if root.HasChild("wireguard") || root.Find("OPNsense", "wireguard") != nil {
		out["wireguard"] = true
	}
	if root.HasChild("tailscale") || root.HasChild("tailscaleauth") ||
		root.Find("installedpackages", "tailscale") != nil ||
		root.Find("OPNsense", "tailscale") != nil {
		out["tailscale"] = true
	}
	return out
}

func duplicateInterfaceFindings(root *xmltree.Node) []Finding {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, iface := range interfaces.Children {
		counts[strings.ToLower(iface.Tag)]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []Finding
	for _, name := range names {
		if counts[name] > 1 {
			out = append(out, errFinding("duplicate_interface_assignment",
				fmt.Sprintf("interface '%s' assigned %d times", name, counts[name])))
		}
	}
	return out
}

func ruleInterfaceFindings(root *xmltree.Node, defined map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.ChildList("rule") {
		interfaceText, ok := rule.TextAt("interface")
		if !ok {
			continue
		}
		for _, token := range splitInterfaceTokens(interfaceText) {
			if !isInterfaceTokenKnown(token, defined) {
				out = append(out, errFinding("missing_interface_reference",
					fmt.Sprintf("filter rule #%d references missing interface '%s'", idx, token)))
			}
		}
	}
	return out
}

func gatewayInterfaceFindings(root *xmltree.Node, defined map[string]bool) []Finding {
	gateways := root.Child("gateways")
	if gateways == nil {
		return nil
	}
	var out []Finding
	for _, gw := range gateways.Children {
		interfaceText, ok := gw.TextAt("interface")
		if !ok {
			continue
		}
		for _, token := range splitInterfaceTokens(interfaceText) {
			if !isInterfaceTokenKnown(token, defined) {
				out = append(out, errFinding("missing_gateway_interface",
					fmt.Sprintf("gateway references missing interface '%s'", token)))
			}
		}
	}
	return out
}

func routeInterfaceFindings(root *xmltree.Node, defined map[string]bool) []Finding {
	routes := root.Child("staticroutes")
	if routes == nil {
		return nil
	}
	var out []Finding
	for _, route := range routes.Children {
		interfaceText, ok := route.TextAt("interface")
		if !ok {
			continue
		}
		for _, token := range splitInterfaceTokens(interfaceText) {
			if !isInterfaceTokenKnown(token, defined) {
				out = append(out, errFinding("missing_route_interface",
					fmt.Sprintf("static route references missing interface '%s'", token)))
			}
		}
	}
	return out
}

// splitInterfaceTokens splits a multi-interface value on commas and
// whitespace, lowercasing each token.
func splitInterfaceTokens(raw string) []string {
	var out []string
	for _, token := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, strings.ToLower(token))
		}
	}
	return out
}

func isInterfaceTokenKnown(token string, defined map[string]bool) bool {
	if defined[token] {
		return true
	}
	switch token {
	case "any", "floating", "lo0", "enc0", "ipsec", "openvpn", "wireguard",
		"tailscale", "wanip", "lanip":
		return true
	}
	return isBridgeToken(token)
}

// isBridgeToken accepts names of the form bridgeN.
func isBridgeToken(token string) bool {
	stripped := strings.TrimPrefix(token, "bridge")
	if stripped == "" {
		return false
	}
	for _, ch := range stripped {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
