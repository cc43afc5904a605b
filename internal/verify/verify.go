// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/inventory"
	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/profile"
	"grimm.is/pfopn/internal/scan"
	"grimm.is/pfopn/internal/xmltree"
)

// Report is the outcome of verifying one configuration.
type Report struct {
	Platform       string    `json:"platform"`
	Version        string    `json:"version"`
	TargetPlatform string    `json:"target_platform,omitempty"`
	ProfilesSource string    `json:"profiles_source,omitempty"`
	Errors         int       `json:"errors"`
	Warnings       int       `json:"warnings"`
	Issues         []Finding `json:"issues"`
}

// Build verifies a configuration, optionally against a target platform.
func Build(root *xmltree.Node, target string) Report {
	return BuildWithVersion(root, target, "", "")
}

// BuildWithVersion verifies a configuration. targetVersion overrides the
// detected version for profile selection; profilesDir points at an override
// profile directory.
func BuildWithVersion(root *xmltree.Node, target, targetVersion, profilesDir string) Report {
	flavor := platform.Detect(root)
	pf := flavor.String()
	version := targetVersion
	if version == "" {
		version = platform.DetectVersionInfo(root).Value
	}
	scanReport := scan.Build(root, target)
	profilePlatform := target
	if profilePlatform == "" {
		profilePlatform = pf
	}
	expected, profilesSource, hasProfile := profile.LoadWithSource(profilePlatform, version, profilesDir)

	var issues []Finding
	if flavor == platform.Unknown {
		issues = append(issues, errFinding("unknown_platform",
			"root tag is not recognized as pfsense/opnsense"))
	}
	issues = append(issues, requiredSectionIssues(root, pf)...)
	issues = append(issues, pluginIssues(scanReport)...)
	issues = append(issues, InterfaceReferenceFindings(root)...)
	issues = append(issues, BridgeFindings(root)...)
	issues = append(issues, NATFindings(root)...)
	issues = append(issues, RuleReferenceFindings(root)...)
	issues = append(issues, RuleDuplicateFindings(root)...)
	issues = append(issues, WireGuardFindings(root)...)
	issues = append(issues, dhcpIssues(root, pf)...)
	if hasProfile {
		issues = append(issues, ProfileFindings(root, expected)...)
	}
	issues = append(issues, openvpnIssues(root)...)
	issues = append(issues, ipsecIssues(root)...)

	errors, warnings := 0, 0
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}

	report := Report{
		Platform:       pf,
		Version:        version,
		TargetPlatform: target,
		Errors:         errors,
		Warnings:       warnings,
		Issues:         issues,
	}
	if hasProfile {
		report.ProfilesSource = profilesSource
	}
	return report
}

// RenderText formats a report for terminal output.
func RenderText(report Report, verbose bool) string {
	var out []string
	target := report.TargetPlatform
	if target == "" {
		target = "none"
	}
	out = append(out, fmt.Sprintf("verify platform=%s version=%s target=%s",
		report.Platform, report.Version, target))
	if verbose {
		source := report.ProfilesSource
		if source == "" {
			source = "none"
		}
		out = append(out, "Using profiles: "+source)
	}
	out = append(out, fmt.Sprintf("result errors=%d warnings=%d", report.Errors, report.Warnings))
	out = append(out, "issues")
	if len(report.Issues) == 0 {
		out = append(out, "- none")
		return strings.Join(out, "\n")
	}
	for _, issue := range report.Issues {
		out = append(out, fmt.Sprintf("- [%s] %s: %s", issue.Severity, issue.Code, issue.Message))
	}
	return strings.Join(out, "\n")
}

func requiredSectionIssues(root *xmltree.Node, pf string) []Finding {
	if pf != "pfsense" && pf != "opnsense" {
		return nil
	}
	var out []Finding
	for _, section := range []string{"system", "interfaces"} {
		if !root.HasChild(section) {
			out = append(out, errFinding("missing_required_section",
				fmt.Sprintf("required section '%s' is missing", section)))
		}
	}
	return out
}

func pluginIssues(scanReport scan.Report) []Finding {
	var out []Finding
	for _, plugin := range scanReport.UnsupportedPlugins {
		out = append(out, warnFinding("unsupported_plugin",
			"unsupported plugin detected: "+plugin))
	}
	for _, plugin := range scanReport.MissingTargetCompat {
		out = append(out, warnFinding("target_plugin_compat",
			"plugin not marked compatible with target: "+plugin))
	}
	return out
}

// dhcpIssues cross-checks the declared DHCP backend against the sections that
// actually exist. A backend marker without its data means the conversion or a
// manual edit left the config half-migrated.
func dhcpIssues(root *xmltree.Node, pf string) []Finding {
	hasLegacy := root.HasChild("dhcpd") || root.HasChild("dhcpdv6") || root.HasChild("dhcpd6")
	hasPfsenseKea := root.HasChild("kea")
	hasOpnsenseKea := root.Find("OPNsense", "Kea") != nil

	var out []Finding
	switch pf {
	case "pfsense":
		backend := strings.ToLower(strings.TrimSpace(root.TextOr("", "dhcpbackend")))
		if backend == "isc" && !hasLegacy {
			out = append(out, errFinding("dhcp_backend_inconsistent",
				"pfSense backend is ISC but legacy DHCP sections are missing (dhcpd/dhcpdv6/dhcpd6)"))
		}
		if backend == "isc" && hasPfsenseKea {
			out = append(out, errFinding("dhcp_backend_inconsistent",
				"pfSense backend is ISC but Kea section is still present"))
		}
		if backend == "kea" && !hasPfsenseKea {
			out = append(out, warnFinding("dhcp_backend_advisory",
				"pfSense backend is Kea but top-level <kea> section is missing; verify DHCP backend state on target"))
		}
	case "opnsense":
		backend := dhcp.DetectBackend(root).Mode
		if backend == "isc" {
			if !opnsenseHasDeclaredPlugin(root, "os-isc-dhcp") {
				out = append(out, errFinding("dhcp_backend_inconsistent",
					"OPNsense appears to use ISC DHCP but os-isc-dhcp is not declared in system.firmware.plugins"))
			}
			if !hasLegacy {
				out = append(out, errFinding("dhcp_backend_inconsistent",
					"OPNsense appears to use ISC DHCP but legacy DHCP sections are missing (dhcpd/dhcpdv6/dhcpd6)"))
			}
		}
		if backend == "kea" && !hasOpnsenseKea {
			out = append(out, errFinding("dhcp_backend_inconsistent",
				"OPNsense appears to use Kea but OPNsense.Kea section is missing"))
		}
	}
	return out
}

// openvpnIssues surfaces certificate and user references that a self-compare
// of the OpenVPN inventory cannot resolve.
func openvpnIssues(root *xmltree.Node) []Finding {
	report := inventory.CompareOpenVPNDependencies(root, root)
	var out []Finding
	for _, ca := range report.LeftToRight.MissingCAIDs {
		out = append(out, errFinding("openvpn_missing_ca",
			fmt.Sprintf("OpenVPN references missing CA '%s'", ca)))
	}
	for _, cert := range report.LeftToRight.MissingCertIDs {
		out = append(out, errFinding("openvpn_missing_cert",
			fmt.Sprintf("OpenVPN references missing cert '%s'", cert)))
	}
	for _, user := range report.LeftToRight.MissingUsernames {
		out = append(out, errFinding("openvpn_missing_user",
			fmt.Sprintf("OpenVPN references missing user '%s'", user)))
	}
	return out
}

func ipsecIssues(root *xmltree.Node) []Finding {
	report := inventory.CompareIPsecDependencies(root, root)
	var out []Finding
	for _, ca := range report.LeftToRight.MissingCAIDs {
		out = append(out, errFinding("ipsec_missing_ca",
			fmt.Sprintf("IPsec references missing CA '%s'", ca)))
	}
	for _, cert := range report.LeftToRight.MissingCertIDs {
		out = append(out, errFinding("ipsec_missing_cert",
			fmt.Sprintf("IPsec references missing cert '%s'", cert)))
	}
	for _, iface := range report.LeftToRight.MissingInterfaces {
		out = append(out, errFinding("ipsec_missing_interface",
			fmt.Sprintf("IPsec references missing interface '%s'", iface)))
	}
	return out
}

func opnsenseHasDeclaredPlugin(root *xmltree.Node, plugin string) bool {
	declared := root.TextOr("", "system", "firmware", "plugins")
	for _, token := range strings.FieldsFunc(declared, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	}) {
		if strings.EqualFold(strings.TrimSpace(token), plugin) {
			return true
		}
	}
	return false
}
