// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package inventory

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// IPsecInventory summarizes one side's IPsec footprint: the CAs,
// certificates, and interfaces its tunnels reference, next to what the
// config provides.
type IPsecInventory struct {
	Configured           bool     `json:"configured"`
	ReferencedCAIDs      []string `json:"referenced_ca_ids"`
	ReferencedCertIDs    []string `json:"referenced_cert_ids"`
	ReferencedInterfaces []string `json:"referenced_interfaces"`
	AvailableCAIDs       []string `json:"available_ca_ids"`
	AvailableCertIDs     []string `json:"available_cert_ids"`
	AvailableInterfaces  []string `json:"available_interfaces"`
}

// IPsecDependencyGap lists IPsec references one side makes that the other
// cannot satisfy.
type IPsecDependencyGap struct {
	Direction         string   `json:"direction"`
	MissingCAIDs      []string `json:"missing_ca_ids"`
	MissingCertIDs    []string `json:"missing_cert_ids"`
	MissingInterfaces []string `json:"missing_interfaces"`
}

// IPsecDependencyReport pairs both inventories with the directional gaps.
type IPsecDependencyReport struct {
	Left        IPsecInventory     `json:"left"`
	Right       IPsecInventory     `json:"right"`
	LeftToRight IPsecDependencyGap `json:"left_to_right"`
	RightToLeft IPsecDependencyGap `json:"right_to_left"`
}

// CompareIPsecDependencies inventories IPsec references on both sides and
// reports what each side's tunnels need that the other side lacks.
func CompareIPsecDependencies(left, right *xmltree.Node) IPsecDependencyReport {
	li := collectIPsecInventory(left)
	ri := collectIPsecInventory(right)
	return IPsecDependencyReport{
		Left:        li,
		Right:       ri,
		LeftToRight: buildIPsecGap("left_to_right", li, ri),
		RightToLeft: buildIPsecGap("right_to_left", ri, li),
	}
}

func buildIPsecGap(direction string, source, target IPsecInventory) IPsecDependencyGap {
	return IPsecDependencyGap{
		Direction:         direction,
		MissingCAIDs:      sortedDiff(source.ReferencedCAIDs, target.AvailableCAIDs),
		MissingCertIDs:    sortedDiff(source.ReferencedCertIDs, target.AvailableCertIDs),
		MissingInterfaces: sortedDiff(source.ReferencedInterfaces, target.AvailableInterfaces),
	}
}

func collectIPsecInventory(root *xmltree.Node) IPsecInventory {
	roots := findIPsecRoots(root)
	caIDs := map[string]bool{}
	certIDs := map[string]bool{}
	ifaces := map[string]bool{}
	for _, node := range roots {
		walkIPsecRefs(node, caIDs, certIDs, ifaces)
	}
	return IPsecInventory{
		Configured:           len(roots) > 0,
		ReferencedCAIDs:      sortedKeys(caIDs),
		ReferencedCertIDs:    sortedKeys(certIDs),
		ReferencedInterfaces: sortedKeys(ifaces),
		AvailableCAIDs:       collectTopLevelRefIDs(root, "ca"),
		AvailableCertIDs:     collectTopLevelRefIDs(root, "cert"),
		AvailableInterfaces:  collectInterfaceNames(root),
	}
}

// Both the flat <ipsec> section and the nested Swanctl model count as IPsec
// config, in any tag casing.
func findIPsecRoots(root *xmltree.Node) []*xmltree.Node {
	var out []*xmltree.Node
	var walk func(*xmltree.Node)
	walk = func(node *xmltree.Node) {
		if strings.EqualFold(node.Tag, "ipsec") || strings.EqualFold(node.Tag, "swanctl") {
			out = append(out, node)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

func walkIPsecRefs(node *xmltree.Node, caIDs, certIDs, ifaces map[string]bool) {
	if value := strings.TrimSpace(node.Text); value != "" {
		switch strings.ToLower(node.Tag) {
		case "caref", "ca_ref":
			caIDs[value] = true
		case "certref", "cert_ref", "localcertref", "peercertref":
			certIDs[value] = true
		case "interface", "if":
			ifaces[value] = true
		}
	}
	for _, child := range node.Children {
		walkIPsecRefs(child, caIDs, certIDs, ifaces)
	}
}

func collectInterfaceNames(root *xmltree.Node) []string {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	seen := map[string]bool{}
	for _, iface := range interfaces.Children {
		seen[iface.Tag] = true
	}
	return sortedKeys(seen)
}
