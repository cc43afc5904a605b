// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// RuleDuplicateFindings detects firewall rules whose matching-relevant fields
// are identical. Groups mixing a default rule with a custom one are reported
// as an overlap; otherwise the group is a plain duplicate. Both are warnings.
func RuleDuplicateFindings(root *xmltree.Node) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	byFingerprint := make(map[string][]ruleMeta)
	for idx, rule := range filter.ChildList("rule") {
		fp := ruleFingerprint(rule)
		byFingerprint[fp] = append(byFingerprint[fp], ruleMeta{
			idx:     idx,
			tracker: strings.TrimSpace(rule.TextOr("", "tracker")),
			descr:   strings.TrimSpace(rule.TextOr("", "descr")),
		})
	}

	fingerprints := make([]string, 0, len(byFingerprint))
	for fp := range byFingerprint {
		fingerprints = append(fingerprints, fp)
	}
	sort.Strings(fingerprints)

	var out []Finding
	for _, fp := range fingerprints {
		rows := byFingerprint[fp]
		if len(rows) < 2 {
			continue
		}
		hasDefault, hasCustom := false, false
		for _, row := range rows {
			if isDefaultDescr(row.descr) {
				hasDefault = true
			} else {
				hasCustom = true
			}
		}
		if hasDefault && hasCustom {
			out = append(out, warnFinding("default_rule_overlap",
				fmt.Sprintf("default rule overlaps custom rule signatures (trackers: %s)", trackers(rows))))
			continue
		}
		out = append(out, warnFinding("duplicate_firewall_rule",
			fmt.Sprintf("duplicate firewall rule signature detected (trackers: %s)", trackers(rows))))
	}
	return out
}

type ruleMeta struct {
	idx     int
	tracker string
	descr   string
}

// ruleFingerprint joins every field that affects what traffic a rule matches.
func ruleFingerprint(rule *xmltree.Node) string {
	fields := []string{
		strings.ToLower(strings.TrimSpace(rule.TextOr("", "interface"))),
		strings.ToLower(strings.TrimSpace(rule.TextOr("", "type"))),
		strings.ToLower(strings.TrimSpace(rule.TextOr("", "ipprotocol"))),
		strings.ToLower(strings.TrimSpace(rule.TextOr("", "protocol"))),
		strings.ToLower(sideAddr(rule, "source")),
		strings.ToLower(sidePort(rule, "source")),
		strings.ToLower(sideAddr(rule, "destination")),
		strings.ToLower(sidePort(rule, "destination")),
		strings.ToLower(strings.TrimSpace(rule.TextOr("", "direction"))),
		boolField(rule.HasChild("floating")),
		boolField(rule.HasChild("quick")),
		boolField(rule.HasChild("disabled")),
		strings.ToLower(strings.TrimSpace(rule.TextOr("", "gateway"))),
		strings.ToLower(strings.TrimSpace(rule.TextOr(rule.TextOr("", "schedule"), "sched"))),
	}
	return strings.Join(fields, "|")
}

func sideAddr(rule *xmltree.Node, side string) string {
	node := rule.Child(side)
	if node == nil {
		return ""
	}
	if v := strings.TrimSpace(node.TextOr("", "address")); v != "" {
		return v
	}
	if node.HasChild("any") {
		return "any"
	}
	if v := strings.TrimSpace(node.TextOr("", "network")); v != "" {
		return "network:" + v
	}
	return ""
}

func sidePort(rule *xmltree.Node, side string) string {
	node := rule.Child(side)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.TextOr("", "port"))
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func isDefaultDescr(value string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "default ")
}

func trackers(rows []ruleMeta) string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.tracker == "" {
			out = append(out, fmt.Sprintf("idx%d", row.idx))
		} else {
			out = append(out, row.tracker)
		}
	}
	return strings.Join(out, ",")
}
