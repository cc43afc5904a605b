// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package inventory cross-checks the dependencies VPN configurations carry
// (certificates, CAs, usernames, interfaces) between two config trees. A
// tunnel converted to a box that lacks its certificate will import cleanly
// and then fail at runtime; these reports surface that before deployment.
package inventory

import (
	"sort"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// OpenVPNInventory summarizes one side's OpenVPN footprint: how many
// instances it has and which CAs, certificates, and local users they
// reference, next to what the config actually provides.
type OpenVPNInventory struct {
	InstanceCount       int      `json:"instance_count"`
	EnabledInstances    int      `json:"enabled_instances"`
	DisabledInstances   int      `json:"disabled_instances"`
	ReferencedCAIDs     []string `json:"referenced_ca_ids"`
	ReferencedCertIDs   []string `json:"referenced_cert_ids"`
	ReferencedUsernames []string `json:"referenced_usernames"`
	AvailableCAIDs      []string `json:"available_ca_ids"`
	AvailableCertIDs    []string `json:"available_cert_ids"`
	AvailableUsernames  []string `json:"available_usernames"`
}

// OpenVPNDependencyGap lists references one side makes that the other side
// cannot satisfy.
type OpenVPNDependencyGap struct {
	Direction        string   `json:"direction"`
	MissingCAIDs     []string `json:"missing_ca_ids"`
	MissingCertIDs   []string `json:"missing_cert_ids"`
	MissingUsernames []string `json:"missing_usernames"`
}

// OpenVPNDependencyReport pairs both inventories with the gaps in each
// direction.
type OpenVPNDependencyReport struct {
	Left        OpenVPNInventory     `json:"left"`
	Right       OpenVPNInventory     `json:"right"`
	LeftToRight OpenVPNDependencyGap `json:"left_to_right"`
	RightToLeft OpenVPNDependencyGap `json:"right_to_left"`
}

// CompareOpenVPNDependencies inventories OpenVPN references on both sides
// and reports what each side's instances need that the other side lacks.
func CompareOpenVPNDependencies(left, right *xmltree.Node) OpenVPNDependencyReport {
	li := collectOpenVPNInventory(left)
	ri := collectOpenVPNInventory(right)
	return OpenVPNDependencyReport{
		Left:        li,
		Right:       ri,
		LeftToRight: buildOpenVPNGap("left_to_right", li, ri),
		RightToLeft: buildOpenVPNGap("right_to_left", ri, li),
	}
}

func buildOpenVPNGap(direction string, source, target OpenVPNInventory) OpenVPNDependencyGap {
	return OpenVPNDependencyGap{
		Direction:        direction,
		MissingCAIDs:     sortedDiff(source.ReferencedCAIDs, target.AvailableCAIDs),
		MissingCertIDs:   sortedDiff(source.ReferencedCertIDs, target.AvailableCertIDs),
		MissingUsernames: sortedDiff(source.ReferencedUsernames, target.AvailableUsernames),
	}
}

func collectOpenVPNInventory(root *xmltree.Node) OpenVPNInventory {
	inv := OpenVPNInventory{
		AvailableCAIDs:     collectTopLevelRefIDs(root, "ca"),
		AvailableCertIDs:   collectTopLevelRefIDs(root, "cert"),
		AvailableUsernames: collectSystemUsernames(root),
	}

	caIDs := map[string]bool{}
	certIDs := map[string]bool{}
	users := map[string]bool{}

	for _, openvpn := range findTaggedNodes(root, "openvpn", "OpenVPN") {
		walkOpenVPNRefs(openvpn, caIDs, certIDs, users)
		countInstances(openvpn, &inv)
	}

	inv.ReferencedCAIDs = sortedKeys(caIDs)
	inv.ReferencedCertIDs = sortedKeys(certIDs)
	inv.ReferencedUsernames = sortedKeys(users)
	return inv
}

func walkOpenVPNRefs(node *xmltree.Node, caIDs, certIDs, users map[string]bool) {
	if value := strings.TrimSpace(node.Text); value != "" {
		switch strings.ToLower(node.Tag) {
		case "caref", "authcertca", "ca":
			caIDs[value] = true
		case "certref", "authcertname", "cert":
			certIDs[value] = true
		case "username", "user", "local_user":
			users[value] = true
		}
	}
	for _, child := range node.Children {
		walkOpenVPNRefs(child, caIDs, certIDs, users)
	}
}

func countInstances(node *xmltree.Node, inv *OpenVPNInventory) {
	if node.Tag == "openvpn-server" || node.Tag == "Instance" {
		inv.InstanceCount++
		if isDisabledInstance(node) {
			inv.DisabledInstances++
		} else {
			inv.EnabledInstances++
		}
	}
	for _, child := range node.Children {
		countInstances(child, inv)
	}
}

// isDisabledInstance understands both conventions: pfSense's <disable>
// marker element (bare presence means disabled) and OPNsense's explicit
// <enabled> flag.
func isDisabledInstance(node *xmltree.Node) bool {
	if disable := node.Child("disable"); disable != nil {
		value := strings.TrimSpace(disable.Text)
		if value == "" {
			return true
		}
		return truthy(value)
	}
	if enabled := node.Child("enabled"); enabled != nil {
		if value := strings.TrimSpace(enabled.Text); value != "" {
			return !truthy(value)
		}
	}
	return false
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "yes", "true", "enabled", "on":
		return true
	}
	return false
}

// findTaggedNodes collects every node in the tree whose tag matches one of
// the given names exactly.
func findTaggedNodes(root *xmltree.Node, tags ...string) []*xmltree.Node {
	var out []*xmltree.Node
	var walk func(*xmltree.Node)
	walk = func(node *xmltree.Node) {
		for _, tag := range tags {
			if node.Tag == tag {
				out = append(out, node)
				break
			}
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

func collectTopLevelRefIDs(root *xmltree.Node, sectionTag string) []string {
	seen := map[string]bool{}
	for _, child := range root.ChildList(sectionTag) {
		if v, ok := child.TextAt("refid"); ok {
			if id := strings.TrimSpace(v); id != "" {
				seen[id] = true
			}
		}
	}
	return sortedKeys(seen)
}

func collectSystemUsernames(root *xmltree.Node) []string {
	seen := map[string]bool{}
	system := root.Child("system")
	if system == nil {
		return nil
	}
	for _, user := range system.ChildList("user") {
		if v, ok := user.TextAt("name"); ok {
			if name := strings.TrimSpace(v); name != "" {
				seen[name] = true
			}
		}
	}
	return sortedKeys(seen)
}

// sortedDiff returns the entries of source missing from target, sorted.
// Both inputs are already sorted and deduplicated.
func sortedDiff(source, target []string) []string {
	have := map[string]bool{}
	for _, t := range target {
		have[t] = true
	}
	var out []string
	for _, s := range source {
		if !have[s] {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
