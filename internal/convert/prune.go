// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"sort"

	"grimm.is/pfopn/internal/xmltree"
)

// PruneImportedIncompatibleSections drops top-level sections the merge
// brought over that the target platform neither ships by default nor has on
// its baseline. Returns the sorted, deduplicated list of removed tags.
func PruneImportedIncompatibleSections(out *xmltree.Node, targetPlatform string, targetBaseline *xmltree.Node) []string {
	baseline := make(map[string]bool, len(targetBaseline.Children))
	for _, child := range targetBaseline.Children {
		baseline[child.Tag] = true
	}
	allowed := allowedSections(targetPlatform)

	var removed []string
	out.RetainChildren(func(child *xmltree.Node) bool {
		if baseline[child.Tag] || allowed[child.Tag] {
			return true
		}
		removed = append(removed, child.Tag)
		return false
	})

	sort.Strings(removed)
	return dedupeSorted(removed)
}

func allowedSections(platform string) map[string]bool {
	shared := []string{
		"version", "system", "interfaces", "filter", "nat",
		"dhcpd", "dhcpdv6", "dhcrelay", "dhcrelay6", "dhcp6relay",
		"vlans", "openvpn", "ipsec", "cert", "ca", "ifgroups",
		"bridges", "staticroutes", "gateways", "hasync", "revision",
	}
	allowed := make(map[string]bool, len(shared)+3)
	for _, tag := range shared {
		allowed[tag] = true
	}
	switch platform {
	case "opnsense":
		allowed["OPNsense"] = true
	case "pfsense":
		allowed["aliases"] = true
		allowed["installedpackages"] = true
		allowed["dhcpbackend"] = true
	default:
		return map[string]bool{}
	}
	return allowed
}

func dedupeSorted(items []string) []string {
	out := items[:0]
	for i, item := range items {
		if i == 0 || items[i-1] != item {
			out = append(out, item)
		}
	}
	return out
}
