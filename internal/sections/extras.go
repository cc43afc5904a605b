// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sections

import (
	"fmt"
	"sort"

	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/inventory"
	"grimm.is/pfopn/internal/mappings"
	"grimm.is/pfopn/internal/scan"
	"grimm.is/pfopn/internal/xmltree"
)

// buildAllExtras combines every heuristic detection: structural evidence for
// moved/renamed sections, DHCP backend transitions, VPN dependency gaps,
// WireGuard presence gaps, and plugin support gaps.
func buildAllExtras(left, right *xmltree.Node, leftOnly, rightOnly, leftSections []string,
	sectionMappings []mappings.SectionMapping) []ExtraFinding {
	extras := buildBaseExtras(left, right, leftOnly, rightOnly, leftSections, sectionMappings)
	extras = append(extras, buildBackendExtras(dhcp.DetectBackend(left), dhcp.DetectBackend(right))...)
	extras = append(extras, buildVPNExtras(inventory.CompareOpenVPNDependencies(left, right))...)
	extras = append(extras, buildIPsecExtras(inventory.CompareIPsecDependencies(left, right))...)
	extras = append(extras, buildWireGuardExtras(inventory.CompareWireGuardDependencies(left, right))...)
	extras = append(extras, buildPluginExtras(scan.DetectPlugins(left), scan.DetectPlugins(right))...)
	return extras
}

func groupExtras(extras []ExtraFinding) []ExtraGroup {
	bySection := make(map[string][]ExtraFinding)
	for _, finding := range extras {
		bySection[finding.Section] = append(bySection[finding.Section], finding)
	}
	names := make([]string, 0, len(bySection))
	for name := range bySection {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]ExtraGroup, 0, len(names))
	for _, name := range names {
		out = append(out, ExtraGroup{Section: name, Findings: bySection[name]})
	}
	return out
}

// buildBaseExtras looks for structural evidence that a left-only or
// right-only section actually lives elsewhere in the opposite tree: the same
// name nested deeper, a fuzzy rename candidate, or a known cross-platform
// mapping.
func buildBaseExtras(left, right *xmltree.Node, leftOnly, rightOnly, leftSections []string,
	sectionMappings []mappings.SectionMapping) []ExtraFinding {
	var out []ExtraFinding
	for _, section := range leftOnly {
		if paths := findPathsByCanonicalTag(right, section); len(paths) > 0 {
			out = append(out, ExtraFinding{
				Kind:    "nested_presence",
				Section: section,
				Side:    "left_only",
				Paths:   capPaths(paths, 8),
				Reason:  "section name appears nested in right tree",
			})
		}
	}
	for _, section := range rightOnly {
		if paths := findPathsByCanonicalTag(left, section); len(paths) > 0 {
			out = append(out, ExtraFinding{
				Kind:    "nested_presence",
				Section: section,
				Side:    "right_only",
				Paths:   capPaths(paths, 8),
				Reason:  "section name appears nested in left tree",
			})
		}
	}
	for _, l := range leftOnly {
		for _, r := range rightOnly {
			if isFuzzyRenameCandidate(l, r) {
				out = append(out, ExtraFinding{
					Kind:    "rename_candidate",
					Section: l + " -> " + r,
					Side:    "cross",
					Reason:  "names look related by normalization/token overlap",
				})
			}
		}
	}
	for _, mapping := range sectionMappings {
		if !containsString(leftSections, mapping.Left) {
			continue
		}
		for _, candidate := range mapping.Right {
			if paths := findPathsByCanonicalTag(right, candidate); len(paths) > 0 {
				out = append(out, ExtraFinding{
					Kind:    "mapping_presence",
					Section: mapping.Left + " -> " + candidate,
					Side:    "cross",
					Paths:   capPaths(paths, 8),
					Reason:  "known mapping candidate present: " + mapping.Note,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// buildBackendExtras records the DHCP backend transition and adds a
// migration hint when a conversion between ISC and Kea is in play.
func buildBackendExtras(left, right dhcp.Detection) []ExtraFinding {
	transition := dhcp.Transition(left, right)
	out := []ExtraFinding{{
		Kind:    "backend_transition",
		Section: "dhcp",
		Side:    "cross",
		Reason: fmt.Sprintf("detected dhcp backend transition %s (left=%s, right=%s)",
			transition, left.Reason, right.Reason),
	}}
	switch transition {
	case "isc->kea":
		out = append(out, ExtraFinding{
			Kind:    "dhcp_migration_hint",
			Section: "dhcp",
			Side:    "cross",
			Paths:   []string{"left: dhcpd/dhcpdv6/dhcpd6", "right: OPNsense.Kea.dhcp4/dhcp6"},
			Reason:  "legacy ISC to Kea migration: verify ranges/reservations/options parity",
		})
	case "kea->isc":
		out = append(out, ExtraFinding{
			Kind:    "dhcp_migration_hint",
			Section: "dhcp",
			Side:    "cross",
			Paths:   []string{"left: Kea subtree", "right: dhcpd/dhcpdv6/dhcpd6"},
			Reason:  "Kea to legacy ISC migration: verify static mappings and DHCP options are retained",
		})
	case "mixed->kea", "isc->mixed", "mixed->isc", "kea->mixed":
		out = append(out, ExtraFinding{
			Kind:    "dhcp_migration_hint",
			Section: "dhcp",
			Side:    "cross",
			Paths:   []string{"review both legacy and Kea sections"},
			Reason:  "mixed backend state detected; prefer explicit target backend before conversion",
		})
	}
	return out
}

func buildVPNExtras(report inventory.OpenVPNDependencyReport) []ExtraFinding {
	var out []ExtraFinding
	if report.Left.DisabledInstances > 0 {
		out = append(out, disabledOpenVPNFinding("left", report.Left.DisabledInstances))
	}
	if report.Right.DisabledInstances > 0 {
		out = append(out, disabledOpenVPNFinding("right", report.Right.DisabledInstances))
	}
	out = appendOpenVPNGapFinding(out, report.LeftToRight)
	out = appendOpenVPNGapFinding(out, report.RightToLeft)
	return out
}

func disabledOpenVPNFinding(side string, count int) ExtraFinding {
	return ExtraFinding{
		Kind:    "vpn_disabled_config_present",
		Section: "openvpn",
		Side:    side,
		Paths:   []string{fmt.Sprintf("disabled_instances=%d", count)},
		Reason:  "disabled OpenVPN configs still carry users/certs/CAs and should be migrated",
	}
}

func appendOpenVPNGapFinding(out []ExtraFinding, gap inventory.OpenVPNDependencyGap) []ExtraFinding {
	if len(gap.MissingCAIDs) == 0 && len(gap.MissingCertIDs) == 0 && len(gap.MissingUsernames) == 0 {
		return out
	}
	var paths []string
	for _, ca := range gap.MissingCAIDs {
		paths = append(paths, "missing_ca: "+ca)
	}
	for _, cert := range gap.MissingCertIDs {
		paths = append(paths, "missing_cert: "+cert)
	}
	for _, user := range gap.MissingUsernames {
		paths = append(paths, "missing_user: "+user)
	}
	return append(out, ExtraFinding{
		Kind:    "vpn_dependency_gap",
		Section: "openvpn",
		Side:    gap.Direction,
		Paths:   capPaths(paths, 12),
		Reason:  "OpenVPN references do not exist on target side; migrate system users, certs and CAs",
	})
}

func buildIPsecExtras(report inventory.IPsecDependencyReport) []ExtraFinding {
	var out []ExtraFinding
	out = appendIPsecGapFinding(out, report.LeftToRight)
	out = appendIPsecGapFinding(out, report.RightToLeft)
	return out
}

func appendIPsecGapFinding(out []ExtraFinding, gap inventory.IPsecDependencyGap) []ExtraFinding {
	if len(gap.MissingCAIDs) == 0 && len(gap.MissingCertIDs) == 0 && len(gap.MissingInterfaces) == 0 {
		return out
	}
	var paths []string
	for _, ca := range gap.MissingCAIDs {
		paths = append(paths, "missing_ca: "+ca)
	}
	for _, cert := range gap.MissingCertIDs {
		paths = append(paths, "missing_cert: "+cert)
	}
	for _, iface := range gap.MissingInterfaces {
		paths = append(paths, "missing_interface: "+iface)
	}
	return append(out, ExtraFinding{
		Kind:    "ipsec_dependency_gap",
		Section: "ipsec",
		Side:    gap.Direction,
		Paths:   capPaths(paths, 12),
		Reason:  "IPsec references do not exist on target side; migrate certs/CAs/interfaces",
	})
}

// buildWireGuardExtras reports configs present on one side only, plus
// configs that exist but have every entry disabled.
func buildWireGuardExtras(report inventory.WireGuardDependencyReport) []ExtraFinding {
	var out []ExtraFinding
	if report.Left.Configured && !report.Right.Configured {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_dependency_gap",
			Section: "wireguard",
			Side:    "left_to_right",
			Paths:   capPaths(report.Left.Paths, 6),
			Reason:  "WireGuard config exists on left but not on right",
		})
	}
	if report.Right.Configured && !report.Left.Configured {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_dependency_gap",
			Section: "wireguard",
			Side:    "right_to_left",
			Paths:   capPaths(report.Right.Paths, 6),
			Reason:  "WireGuard config exists on right but not on left",
		})
	}
	if report.Left.Configured && report.Left.EnabledEntries == 0 {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_disabled_config_present",
			Section: "wireguard",
			Side:    "left",
			Paths:   capPaths(report.Left.Paths, 4),
			Reason:  "WireGuard config is present but currently disabled on left",
		})
	}
	if report.Right.Configured && report.Right.EnabledEntries == 0 {
		out = append(out, ExtraFinding{
			Kind:    "wireguard_disabled_config_present",
			Section: "wireguard",
			Side:    "right",
			Paths:   capPaths(report.Right.Paths, 4),
			Reason:  "WireGuard config is present but currently disabled on right",
		})
	}
	return out
}

// buildPluginExtras flags plugins present on one side but neither declared
// nor configured on the other.
func buildPluginExtras(left, right scan.PluginInventory) []ExtraFinding {
	var out []ExtraFinding
	for _, leftPlugin := range left.Plugins {
		var rightPlugin *scan.PluginState
		for i := range right.Plugins {
			if right.Plugins[i].Plugin == leftPlugin.Plugin {
				rightPlugin = &right.Plugins[i]
				break
			}
		}
		if rightPlugin == nil {
			continue
		}
		leftPresent := leftPlugin.Declared || leftPlugin.Configured
		rightPresent := rightPlugin.Declared || rightPlugin.Configured
		if leftPresent && !rightPresent {
			out = append(out, ExtraFinding{
				Kind:    "plugin_support_gap",
				Section: leftPlugin.Plugin,
				Side:    "left_to_right",
				Paths:   capPaths(leftPlugin.Evidence, 6),
				Reason:  "plugin is present on left but not declared/configured on right",
			})
		}
		if rightPresent && !leftPresent {
			out = append(out, ExtraFinding{
				Kind:    "plugin_support_gap",
				Section: rightPlugin.Plugin,
				Side:    "right_to_left",
				Paths:   capPaths(rightPlugin.Evidence, 6),
				Reason:  "plugin is present on right but not declared/configured on left",
			})
		}
	}
	return out
}

func capPaths(paths []string, max int) []string {
	if len(paths) <= max {
		return paths
	}
	return paths[:max]
}
