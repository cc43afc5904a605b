// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package dhcp resolves, enforces, and migrates between the two DHCP
// backends the platforms ship: legacy ISC dhcpd and Kea.
package dhcp

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// Detection is a best-effort identification of the DHCP backend a config
// tree is using, with the evidence that led to the call.
type Detection struct {
	Mode          string   `json:"mode"`
	Reason        string   `json:"reason"`
	EvidencePaths []string `json:"evidence_paths"`
}

// DetectBackend identifies the DHCP backend mode of a config root. Modes are
// "isc", "kea", "mixed" (Kea enabled while legacy sections remain), or
// "unknown".
func DetectBackend(root *xmltree.Node) Detection {
	switch root.Tag {
	case "pfsense":
		return detectPfsenseBackend(root)
	case "opnsense":
		return detectOpnsenseBackend(root)
	default:
		return Detection{
			Mode:          "unknown",
			Reason:        "unsupported root tag for backend detection",
			EvidencePaths: []string{root.Tag},
		}
	}
}

// Transition describes a backend change between two detections.
func Transition(left, right Detection) string {
	return left.Mode + "->" + right.Mode
}

func detectPfsenseBackend(root *xmltree.Node) Detection {
	if v, ok := root.TextAt("dhcpbackend"); ok {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "kea" || normalized == "isc" {
			return Detection{
				Mode:          normalized,
				Reason:        "pfsense explicit <dhcpbackend> value",
				EvidencePaths: []string{"pfsense.dhcpbackend"},
			}
		}
	}

	if HasLegacyData(root) {
		return Detection{
			Mode:          "isc",
			Reason:        "legacy dhcp sections present without explicit backend value",
			EvidencePaths: legacyEvidencePaths("pfsense"),
		}
	}

	return Detection{
		Mode:   "unknown",
		Reason: "no recognizable dhcp backend indicators found",
	}
}

func detectOpnsenseBackend(root *xmltree.Node) Detection {
	keaPaths := keaEnabledEvidence(root)
	if len(keaPaths) > 0 {
		if HasLegacyData(root) {
			return Detection{
				Mode:          "mixed",
				Reason:        "kea appears enabled while legacy dhcp sections are also present",
				EvidencePaths: append(keaPaths, legacyEvidencePaths("opnsense")...),
			}
		}
		return Detection{
			Mode:          "kea",
			Reason:        "opnsense kea settings enabled",
			EvidencePaths: keaPaths,
		}
	}

	if HasLegacyData(root) {
		return Detection{
			Mode:          "isc",
			Reason:        "legacy dhcp sections present and kea appears disabled",
			EvidencePaths: legacyEvidencePaths("opnsense"),
		}
	}

	return Detection{
		Mode:   "unknown",
		Reason: "no recognizable dhcp backend indicators found",
	}
}

// keaEnabledEvidence returns the paths of Kea components whose general
// enabled flag is truthy, or nil when Kea is absent or fully disabled.
func keaEnabledEvidence(root *xmltree.Node) []string {
	kea := root.Find("OPNsense", "Kea")
	if kea == nil {
		return nil
	}

	checks := []struct {
		component string
		path      string
	}{
		{"dhcp4", "opnsense.OPNsense.Kea.dhcp4.general.enabled"},
		{"dhcp6", "opnsense.OPNsense.Kea.dhcp6.general.enabled"},
		{"ctrl_agent", "opnsense.OPNsense.Kea.ctrl_agent.general.enabled"},
	}

	var evidence []string
	for _, check := range checks {
		value, ok := kea.TextAt(check.component, "general", "enabled")
		if !ok {
			continue
		}
		if dhcpTruthy(value) {
			evidence = append(evidence, check.path)
		}
	}
	return evidence
}

func dhcpTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "enabled", "yes":
		return true
	}
	return false
}

// HasLegacyData reports whether any ISC dhcpd section exists, counting the
// dhcpd6 spelling some exports use for the IPv6 section.
func HasLegacyData(root *xmltree.Node) bool {
	return root.HasChild("dhcpd") || root.HasChild("dhcpdv6") || root.HasChild("dhcpd6")
}

func legacyEvidencePaths(prefix string) []string {
	return []string{prefix + ".dhcpd", prefix + ".dhcpdv6", prefix + ".dhcpd6"}
}
