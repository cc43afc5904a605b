// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package migratecheck rolls the scan and verify results into a single
// pass/fail gate for migrating a configuration to a target platform.
package migratecheck

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/convert"
	"grimm.is/pfopn/internal/scan"
	"grimm.is/pfopn/internal/verify"
	"grimm.is/pfopn/internal/xmltree"
)

// Item is one named migration readiness check.
type Item struct {
	ID     string `json:"id"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// Report aggregates every readiness check plus the underlying scan and
// verify reports for drill-down.
type Report struct {
	Platform       string          `json:"platform"`
	TargetPlatform string          `json:"target_platform"`
	Pass           bool            `json:"pass"`
	Errors         int             `json:"errors"`
	Warnings       int             `json:"warnings"`
	Summary        convert.Summary `json:"summary"`
	Items          []Item          `json:"items"`
	Verify         verify.Report   `json:"verify"`
	Scan           scan.Report     `json:"scan"`
}

// Build runs every readiness check against a target platform.
func Build(root *xmltree.Node, target string) Report {
	return BuildWithVersion(root, target, "", "")
}

// BuildWithVersion is Build with a target version override for profile
// selection and an override profile directory.
func BuildWithVersion(root *xmltree.Node, target, targetVersion, profilesDir string) Report {
	verifyReport := verify.BuildWithVersion(root, target, targetVersion, profilesDir)
	scanReport := scan.Build(root, target)
	summary := convert.Summarize(root)

	items := []Item{
		item("platform_target_match", scanReport.Platform == target,
			fmt.Sprintf("detected=%s target=%s", scanReport.Platform, target)),
		item("required_sections", !hasIssue(verifyReport, "missing_required_section"),
			"system/interfaces/filter baseline present"),
		item("interface_integrity", !hasAnyIssue(verifyReport,
			"duplicate_interface_assignment", "missing_interface_reference",
			"missing_gateway_interface", "missing_route_interface"),
			"interface refs and assignments are valid"),
		item("bridge_integrity", !hasAnyIssue(verifyReport,
			"empty_bridge_members", "missing_bridge_member"),
			"bridge members are valid"),
		item("rule_reference_integrity", !hasAnyIssue(verifyReport,
			"missing_alias_reference", "missing_gateway_reference",
			"missing_route_gateway", "missing_schedule_reference"),
			"rule/route references resolve"),
		item("nat_integrity", !hasAnyIssue(verifyReport,
			"nat_missing_interface", "nat_missing_associated_rule", "nat_invalid_outbound_mode"),
			"nat mode/bindings/associations are valid"),
		item("dhcp_integrity", !hasIssue(verifyReport, "dhcp_backend_inconsistent"),
			"dhcp backend policy and section layout are consistent"),
		item("openvpn_integrity", !hasIssuePrefix(verifyReport, "openvpn_missing_"),
			"openvpn refs resolve"),
		item("ipsec_integrity", !hasIssuePrefix(verifyReport, "ipsec_missing_"),
			"ipsec refs resolve"),
		item("plugin_compatibility",
			len(scanReport.UnsupportedPlugins) == 0 && len(scanReport.MissingTargetCompat) == 0,
			"no unsupported or target-incompatible plugins"),
		item("profile_baseline", true,
			fmt.Sprintf("advisory profile warnings=%d", countIssuePrefix(verifyReport, "profile_"))),
	}

	pass := verifyReport.Errors == 0
	for _, it := range items {
		if !it.Pass {
			pass = false
		}
	}
	return Report{
		Platform:       scanReport.Platform,
		TargetPlatform: target,
		Pass:           pass,
		Errors:         verifyReport.Errors,
		Warnings:       verifyReport.Warnings,
		Summary:        summary,
		Items:          items,
		Verify:         verifyReport,
		Scan:           scanReport,
	}
}

// RenderText formats a report for terminal output.
func RenderText(report Report, verbose bool) string {
	var out []string
	out = append(out, fmt.Sprintf("migrate_check pass=%t platform=%s target=%s errors=%d warnings=%d",
		report.Pass, report.Platform, report.TargetPlatform, report.Errors, report.Warnings))
	if verbose {
		source := report.Verify.ProfilesSource
		if source == "" {
			source = "none"
		}
		out = append(out, "Using profiles: "+source)
		out = append(out, "Using mappings: "+report.Scan.MappingsSource)
	}
	out = append(out, fmt.Sprintf("counts interfaces=%d bridges=%d aliases=%d rules=%d routes=%d vpns=%d",
		report.Summary.Interfaces, report.Summary.Bridges, report.Summary.Aliases,
		report.Summary.Rules, report.Summary.Routes, report.Summary.VPNs))
	out = append(out, "items")
	for _, it := range report.Items {
		state := "FAIL"
		if it.Pass {
			state = "PASS"
		}
		out = append(out, fmt.Sprintf("- [%s] %s: %s", state, it.ID, it.Detail))
	}
	return strings.Join(out, "\n")
}

func item(id string, pass bool, detail string) Item {
	return Item{ID: id, Pass: pass, Detail: detail}
}

func hasIssue(report verify.Report, code string) bool {
	for _, issue := range report.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func hasIssuePrefix(report verify.Report, prefix string) bool {
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue.Code, prefix) {
			return true
		}
	}
	return false
}

func hasAnyIssue(report verify.Report, codes ...string) bool {
	for _, code := range codes {
		if hasIssue(report, code) {
			return true
		}
	}
	return false
}

func countIssuePrefix(report verify.Report, prefix string) int {
	count := 0
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue.Code, prefix) {
			count++
		}
	}
	return count
}
