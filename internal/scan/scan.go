// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package scan

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/xmltree"
)

// Report summarizes a config's migration readiness.
type Report struct {
	Platform            string                    `json:"platform"`
	Version             platform.VersionDetection `json:"version"`
	TargetVersion       string                    `json:"target_version,omitempty"`
	DHCPBackend         string                    `json:"dhcp_backend"`
	BackendReason       string                    `json:"backend_reason"`
	MappingsSource      string                    `json:"mappings_source"`
	TargetPlatform      string                    `json:"target_platform,omitempty"`
	TopLevelSections    []string                  `json:"top_level_sections"`
	SupportedSections   []string                  `json:"supported_sections"`
	ReviewSections      []string                  `json:"review_sections"`
	KnownPluginsPresent []string                  `json:"known_plugins_present"`
	UnsupportedPlugins  []string                  `json:"unsupported_plugins"`
	MissingTargetCompat []string                  `json:"missing_target_compat"`
	Recommendations     []string                  `json:"recommendations"`
}

// Build produces a readiness report; target may be empty when no destination
// platform was chosen.
func Build(root *xmltree.Node, target string) Report {
	return BuildWithVersion(root, target, "", "")
}

// BuildWithVersion is Build with an explicit target version annotation and
// an optional mappings directory override.
func BuildWithVersion(root *xmltree.Node, target, targetVersion, mappingsDir string) Report {
	pf := platform.Detect(root).String()
	version := platform.DetectVersionInfo(root)
	backend := dhcp.DetectBackend(root)
	topLevel := collectTopSections(root)

	supportedSet := make(map[string]bool)
	for _, s := range supportedSectionsForPlatform(pf) {
		supportedSet[s] = true
	}
	var supported []string
	for _, s := range topLevel {
		if supportedSet[s] {
			supported = append(supported, s)
		}
	}
	supported = append(supported, derivedSupportedSections(root, pf, supported)...)
	sort.Strings(supported)
	supported = dedupeSortedStrings(supported)

	var review []string
	for _, s := range topLevel {
		if isReviewSection(root, s, supportedSet) {
			review = append(review, s)
		}
	}

	inventory := DetectPlugins(root)
	matrix, mappingsSource := loadPluginMatrixWithSource(mappingsDir)
	knownPresent := detectKnownPluginsPresent(root, pf, inventory, matrix)
	unsupported := detectUnsupportedPlugins(root, pf, matrix)
	missingCompat := detectMissingTargetCompat(knownPresent, pf, target, matrix)

	var recommendations []string
	if len(unsupported) > 0 {
		recommendations = append(recommendations,
			"unsupported plugins detected; expect manual migration for those plugin configs")
	}
	if len(review) > 0 {
		recommendations = append(recommendations,
			"some top-level sections are not in the current supported set; review with sections --extras")
	}
	if len(missingCompat) > 0 {
		recommendations = append(recommendations,
			"plugins present in source are not marked compatible with selected target")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"no immediate blockers detected; run diff/convert for full validation")
	}

	return Report{
		Platform:            pf,
		Version:             version,
		TargetVersion:       targetVersion,
		DHCPBackend:         backend.Mode,
		BackendReason:       backend.Reason,
		MappingsSource:      mappingsSource,
		TargetPlatform:      target,
		TopLevelSections:    topLevel,
		SupportedSections:   supported,
		ReviewSections:      review,
		KnownPluginsPresent: knownPresent,
		UnsupportedPlugins:  unsupported,
		MissingTargetCompat: missingCompat,
		Recommendations:     recommendations,
	}
}

// RenderText formats a report for terminal output.
func RenderText(report Report, verbose bool) string {
	var out []string
	out = append(out, fmt.Sprintf("scan platform=%s version=%s version_source=%s version_confidence=%s",
		report.Platform, report.Version.Value, report.Version.Source, report.Version.Confidence))
	out = append(out, fmt.Sprintf("backend mode=%s reason=%s", report.DHCPBackend, report.BackendReason))
	if verbose {
		out = append(out, "Using mappings: "+report.MappingsSource)
	}
	if report.TargetPlatform != "" {
		out = append(out, "target_platform="+report.TargetPlatform)
	}
	if report.TargetVersion != "" {
		out = append(out, "target_version="+report.TargetVersion)
	}
	out = append(out, "supported_sections")
	out = appendList(out, report.SupportedSections)
	out = append(out, "review_sections")
	out = appendList(out, report.ReviewSections)
	out = append(out, "known_plugins_present")
	out = appendList(out, report.KnownPluginsPresent)
	out = append(out, "unsupported_plugins")
	out = appendList(out, report.UnsupportedPlugins)
	if report.TargetPlatform != "" {
		out = append(out, "missing_target_compat")
		out = appendList(out, report.MissingTargetCompat)
	}
	out = append(out, "recommendations")
	out = appendList(out, report.Recommendations)
	return strings.Join(out, "\n")
}

func appendList(out []string, items []string) []string {
	if len(items) == 0 {
		return append(out, "- none")
	}
	for _, item := range items {
		out = append(out, "- "+item)
	}
	return out
}

func collectTopSections(root *xmltree.Node) []string {
	var sections []string
	for _, child := range root.Children {
		sections = append(sections, child.Tag)
	}
	sort.Strings(sections)
	return dedupeSortedStrings(sections)
}

func supportedSectionsForPlatform(pf string) []string {
	switch pf {
	case "pfsense":
		return []string{
			"system", "interfaces", "filter", "nat", "aliases", "openvpn",
			"ipsec", "dhcpbackend", "dhcpd", "dhcpdv6", "dhcpd6", "dhcrelay",
			"dhcp6relay", "cert", "ca", "installedpackages", "tailscale",
			"tailscaleauth", "ppps", "ovpnserver", "vlans", "virtualip",
			"wireguard", "ifgroups", "gateways", "staticroutes",
		}
	case "opnsense":
		return []string{
			"system", "interfaces", "filter", "nat", "openvpn", "ipsec",
			"dhcpd", "dhcpdv6", "dhcpd6", "dhcrelay", "dhcp6relay", "cert",
			"ca", "OPNsense", "dnsmasq", "wireguard", "tailscale", "ifgroups",
			"staticroutes", "ppps", "ovpnserver", "vlans", "virtualip",
		}
	}
	return nil
}

// derivedSupportedSections picks up sections whose data lives in a
// different shape than the plain top-level tag would suggest.
func derivedSupportedSections(root *xmltree.Node, pf string, existing []string) []string {
	var out []string
	if pf == "opnsense" && !containsString(existing, "gateways") && root.Find("OPNsense", "Gateways") != nil {
		out = append(out, "gateways")
	}
	if !containsString(existing, "bridges") && hasParseableBridges(root) {
		out = append(out, "bridges")
	}
	return out
}

func isReviewSection(root *xmltree.Node, section string, supportedSet map[string]bool) bool {
	if supportedSet[section] {
		return false
	}
	if strings.EqualFold(section, "gateways") &&
		(root.HasChild("gateways") || root.Find("OPNsense", "Gateways") != nil) {
		return false
	}
	if strings.EqualFold(section, "bridges") && hasParseableBridges(root) {
		return false
	}
	return true
}

func hasParseableBridges(root *xmltree.Node) bool {
	bridges := root.Child("bridges")
	if bridges == nil {
		return false
	}
	for _, bridged := range bridges.ChildList("bridged") {
		if strings.TrimSpace(bridged.TextOr("", "members")) != "" {
			return true
		}
		if strings.TrimSpace(bridged.TextOr("", "bridgeif")) != "" {
			return true
		}
	}
	return false
}

func containsString(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}

func dedupeSortedStrings(items []string) []string {
	out := items[:0]
	for i, item := range items {
		if i == 0 || items[i-1] != item {
			out = append(out, item)
		}
	}
	return out
}
