// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package scan analyzes a single config for migration readiness: platform
// and version detection, DHCP backend, section inventory, and plugin
// compatibility against the mapping knowledge base.
package scan

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/xmltree"
)

// PluginState reports one plugin's footprint in a config: declared in the
// package/plugin list, configured in a section, and whether it looks enabled.
type PluginState struct {
	Plugin     string   `json:"plugin"`
	Declared   bool     `json:"declared"`
	Configured bool     `json:"configured"`
	Enabled    bool     `json:"enabled"`
	Evidence   []string `json:"evidence"`
}

// PluginInventory is the detection result for all known plugins.
type PluginInventory struct {
	Platform string        `json:"platform"`
	Plugins  []PluginState `json:"plugins"`
}

type pluginDefinition struct {
	name                   string
	pfsensePackageNames    []string
	pfsenseTopSections     []string
	opnsensePackageNames   []string
	opnsensePluginSections []string
}

var pluginDefinitions = []pluginDefinition{
	{
		name:                   "wireguard",
		pfsensePackageNames:    []string{"wireguard"},
		pfsenseTopSections:     []string{"wireguard"},
		opnsensePackageNames:   []string{"os-wireguard"},
		opnsensePluginSections: []string{"Wireguard"},
	},
	{
		name:                   "tailscale",
		pfsensePackageNames:    []string{"tailscale"},
		pfsenseTopSections:     []string{"tailscale", "tailscaleauth"},
		opnsensePackageNames:   []string{"os-tailscale"},
		opnsensePluginSections: []string{"tailscale"},
	},
	{
		name:                   "openvpn",
		pfsenseTopSections:     []string{"openvpn", "ovpnserver"},
		opnsensePackageNames:   []string{"os-openvpn-client-export"},
		opnsensePluginSections: []string{"OpenVPN", "OpenVPNExport"},
	},
	{
		name:                   "ipsec",
		pfsenseTopSections:     []string{"ipsec"},
		opnsensePluginSections: []string{"IPsec", "Swanctl"},
	},
	{
		name:                   "kea-dhcp",
		pfsenseTopSections:     []string{"kea", "dhcpbackend"},
		opnsensePackageNames:   []string{"os-kea"},
		opnsensePluginSections: []string{"Kea"},
	},
	{
		name:                   "isc-dhcp",
		pfsenseTopSections:     []string{"dhcpd", "dhcpdv6", "dhcpd6"},
		opnsensePackageNames:   []string{"os-isc-dhcp"},
		opnsensePluginSections: []string{"dhcpd", "dhcpdv6", "dhcpd6", "DHCRelay"},
	},
}

// DetectPlugins inventories the known plugin set against a config tree.
func DetectPlugins(root *xmltree.Node) PluginInventory {
	flavor := platform.Detect(root)

	var plugins []PluginState
	for _, def := range pluginDefinitions {
		var state PluginState
		switch flavor {
		case platform.PfSense:
			state = detectPfsensePlugin(def, root)
		case platform.OpnSense:
			state = detectOpnsensePlugin(def, root)
		default:
			state = PluginState{Plugin: def.name, Evidence: []string{"unknown platform"}}
		}
		plugins = append(plugins, state)
	}

	return PluginInventory{Platform: flavor.String(), Plugins: plugins}
}

func detectPfsensePlugin(def pluginDefinition, root *xmltree.Node) PluginState {
	var evidence []string
	installed := collectPfsenseInstalledPackages(root)

	declared := false
	for _, pkg := range def.pfsensePackageNames {
		for _, p := range installed {
			if strings.EqualFold(p, pkg) {
				declared = true
				evidence = append(evidence, "installedpackages="+pkg)
				break
			}
		}
	}

	configured := false
	for _, section := range def.pfsenseTopSections {
		if root.HasChild(section) {
			configured = true
			evidence = append(evidence, "top_section="+section)
		}
	}

	return PluginState{
		Plugin:     def.name,
		Declared:   declared,
		Configured: configured,
		Enabled:    detectEnabledState(root, def.pfsenseTopSections),
		Evidence:   evidence,
	}
}

func detectOpnsensePlugin(def pluginDefinition, root *xmltree.Node) PluginState {
	var evidence []string
	installed := collectOpnsenseDeclaredPlugins(root)

	declared := false
	for _, pkg := range def.opnsensePackageNames {
		for _, p := range installed {
			if strings.EqualFold(p, pkg) {
				declared = true
				evidence = append(evidence, "firmware.plugins="+pkg)
				break
			}
		}
	}

	configured := false
	for _, section := range def.opnsensePluginSections {
		paths := findPathsByTag(root, section)
		if len(paths) > 0 {
			configured = true
			if len(paths) > 4 {
				paths = paths[:4]
			}
			for _, path := range paths {
				evidence = append(evidence, "path="+path)
			}
		}
	}

	return PluginState{
		Plugin:     def.name,
		Declared:   declared,
		Configured: configured,
		Enabled:    detectEnabledState(root, def.opnsensePluginSections),
		Evidence:   evidence,
	}
}

// detectEnabledState scans each candidate section for an enabled flag. An
// explicit truthy <enabled> wins; a bare <disable> marker reads as off.
func detectEnabledState(root *xmltree.Node, sections []string) bool {
	for _, section := range sections {
		for _, node := range findNodesByTag(root, section) {
			if subtreeHasEnabledTrue(node) {
				return true
			}
			if subtreeHasDisableFlag(node) {
				return false
			}
		}
	}
	return false
}

func subtreeHasEnabledTrue(node *xmltree.Node) bool {
	if strings.EqualFold(node.Tag, "enabled") {
		return isTruthy(node.Text)
	}
	for _, child := range node.Children {
		if subtreeHasEnabledTrue(child) {
			return true
		}
	}
	return false
}

func subtreeHasDisableFlag(node *xmltree.Node) bool {
	if strings.EqualFold(node.Tag, "disable") {
		return true
	}
	for _, child := range node.Children {
		if subtreeHasDisableFlag(child) {
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

func collectPfsenseInstalledPackages(root *xmltree.Node) []string {
	var out []string
	installed := root.Child("installedpackages")
	if installed == nil {
		return out
	}
	for _, pkg := range installed.ChildList("package") {
		if name := strings.TrimSpace(pkg.TextOr("", "name")); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func collectOpnsenseDeclaredPlugins(root *xmltree.Node) []string {
	plugins, _ := root.TextAt("system", "firmware", "plugins")
	var out []string
	for _, p := range strings.FieldsFunc(plugins, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	}) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findPathsByTag(root *xmltree.Node, target string) []string {
	var out []string
	var walk func(node *xmltree.Node, path string)
	walk = func(node *xmltree.Node, path string) {
		if strings.EqualFold(node.Tag, target) {
			out = append(out, path)
		}
		for _, child := range node.Children {
			walk(child, fmt.Sprintf("%s.%s", path, child.Tag))
		}
	}
	walk(root, root.Tag)
	sort.Strings(out)
	return out
}

func findNodesByTag(root *xmltree.Node, target string) []*xmltree.Node {
	var out []*xmltree.Node
	var walk func(node *xmltree.Node)
	walk = func(node *xmltree.Node) {
		if strings.EqualFold(node.Tag, target) {
			out = append(out, node)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}
