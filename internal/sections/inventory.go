// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sections

import (
	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/mappings"
	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/xmltree"
)

// SuggestedMapping is a proposed correspondence between differing section
// names on the two sides.
type SuggestedMapping struct {
	Left       string `json:"left"`
	Right      string `json:"right"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
}

// ExtraFinding is one heuristic hint from the optional extras pass.
type ExtraFinding struct {
	Kind    string   `json:"kind"`
	Section string   `json:"section"`
	Side    string   `json:"side"`
	Paths   []string `json:"paths"`
	Reason  string   `json:"reason"`
}

// ExtraGroup collects the findings for one section identifier.
type ExtraGroup struct {
	Section  string         `json:"section"`
	Findings []ExtraFinding `json:"findings"`
}

// Inventory is the top-level section comparison across two config roots.
type Inventory struct {
	LeftRoot           string                    `json:"left_root"`
	RightRoot          string                    `json:"right_root"`
	LeftVersion        platform.VersionDetection `json:"left_version"`
	RightVersion       platform.VersionDetection `json:"right_version"`
	LeftDHCPBackend    dhcp.Detection            `json:"left_dhcp_backend"`
	RightDHCPBackend   dhcp.Detection            `json:"right_dhcp_backend"`
	MappingsSource     string                    `json:"mappings_source"`
	LeftSections       []string                  `json:"left_sections"`
	RightSections      []string                  `json:"right_sections"`
	Common             []string                  `json:"common"`
	LeftOnly           []string                  `json:"left_only"`
	RightOnly          []string                  `json:"right_only"`
	SuggestedMappings  []SuggestedMapping        `json:"suggested_mappings"`
	LeftAliasPaths     []string                  `json:"left_alias_paths"`
	RightAliasPaths    []string                  `json:"right_alias_paths"`
	Extras             []ExtraFinding            `json:"extras"`
	ExtrasGrouped      []ExtraGroup              `json:"extras_grouped"`
	UnmatchedLeftOnly  []string                  `json:"unmatched_left_only"`
	UnmatchedRightOnly []string                  `json:"unmatched_right_only"`
}

// ExtrasJSONReport is the compact extras-only payload.
type ExtrasJSONReport struct {
	MappingsSource     string       `json:"mappings_source"`
	ExtrasGrouped      []ExtraGroup `json:"extras_grouped"`
	UnmatchedLeftOnly  []string     `json:"unmatched_left_only"`
	UnmatchedRightOnly []string     `json:"unmatched_right_only"`
}

// BuildInventory compares the top-level sections of two configs. It reports
// what they share, what each side has alone, suggested mappings for renamed
// sections, and optional heuristic extras (moved/renamed section evidence,
// DHCP backend transitions, VPN dependency gaps, plugin gaps).
func BuildInventory(left, right *xmltree.Node, includeExtras bool,
	sectionMappings []mappings.SectionMapping, mappingsSource string) Inventory {
	leftSections := collectTopSections(left)
	rightSections := collectTopSections(right)

	leftSet := stringSet(leftSections)
	rightSet := stringSet(rightSections)

	var common, leftOnly, rightOnly []string
	for _, name := range leftSections {
		if rightSet[name] {
			common = append(common, name)
		} else {
			leftOnly = append(leftOnly, name)
		}
	}
	for _, name := range rightSections {
		if !leftSet[name] {
			rightOnly = append(rightOnly, name)
		}
	}

	var suggested []SuggestedMapping
	matchedLeftOnly := make(map[string]bool)
	matchedRightOnly := make(map[string]bool)

	for _, mapping := range sectionMappings {
		if !containsString(leftOnly, mapping.Left) {
			continue
		}
		for _, candidate := range mapping.Right {
			rightTopMatch := false
			for _, name := range rightOnly {
				if normalize(name) == normalize(candidate) {
					rightTopMatch = true
					matchedRightOnly[name] = true
				}
			}
			rightNested := findPathsByCanonicalTag(right, candidate)
			if !rightTopMatch && len(rightNested) == 0 {
				continue
			}
			confidence := "medium"
			if rightTopMatch {
				confidence = "high"
			}
			suggested = append(suggested, SuggestedMapping{
				Left:       mapping.Left,
				Right:      candidate,
				Confidence: confidence,
				Reason:     mapping.Note + " [" + mapping.Category + "]",
			})
			matchedLeftOnly[mapping.Left] = true
		}
	}

	for _, leftName := range leftOnly {
		for _, rightName := range rightOnly {
			if normalize(leftName) == normalize(rightName) {
				suggested = append(suggested, SuggestedMapping{
					Left:       leftName,
					Right:      rightName,
					Confidence: "medium",
					Reason:     "normalized names match",
				})
				matchedLeftOnly[leftName] = true
				matchedRightOnly[rightName] = true
			}
		}
	}

	var extras []ExtraFinding
	if includeExtras {
		extras = buildAllExtras(left, right, leftOnly, rightOnly, leftSections, sectionMappings)
	}
	extrasGrouped := groupExtras(extras)

	for _, finding := range extras {
		if finding.Kind != "nested_presence" {
			continue
		}
		switch finding.Side {
		case "left_only":
			matchedLeftOnly[finding.Section] = true
		case "right_only":
			matchedRightOnly[finding.Section] = true
		}
	}

	var unmatchedLeftOnly, unmatchedRightOnly []string
	for _, name := range leftOnly {
		if !matchedLeftOnly[name] {
			unmatchedLeftOnly = append(unmatchedLeftOnly, name)
		}
	}
	for _, name := range rightOnly {
		if !matchedRightOnly[name] {
			unmatchedRightOnly = append(unmatchedRightOnly, name)
		}
	}

	return Inventory{
		LeftRoot:           left.Tag,
		RightRoot:          right.Tag,
		LeftVersion:        platform.DetectVersionInfo(left),
		RightVersion:       platform.DetectVersionInfo(right),
		LeftDHCPBackend:    dhcp.DetectBackend(left),
		RightDHCPBackend:   dhcp.DetectBackend(right),
		MappingsSource:     mappingsSource,
		LeftSections:       leftSections,
		RightSections:      rightSections,
		Common:             common,
		LeftOnly:           leftOnly,
		RightOnly:          rightOnly,
		SuggestedMappings:  suggested,
		LeftAliasPaths:     findAliasPaths(left),
		RightAliasPaths:    findAliasPaths(right),
		Extras:             extras,
		ExtrasGrouped:      extrasGrouped,
		UnmatchedLeftOnly:  unmatchedLeftOnly,
		UnmatchedRightOnly: unmatchedRightOnly,
	}
}

// ExtrasJSON builds the extras-only payload from an inventory.
func ExtrasJSON(inv Inventory) ExtrasJSONReport {
	return ExtrasJSONReport{
		MappingsSource:     inv.MappingsSource,
		ExtrasGrouped:      inv.ExtrasGrouped,
		UnmatchedLeftOnly:  inv.UnmatchedLeftOnly,
		UnmatchedRightOnly: inv.UnmatchedRightOnly,
	}
}

func stringSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item] = true
	}
	return out
}

func containsString(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
