// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"sort"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// PruneMissingInterfaces drops interface entries whose tag has no counterpart
// in the destination baseline, unless they are backed by a virtual device.
// Source configs often assign optional interfaces to NICs the target box
// does not have; importing those would leave broken assignments. Returns the
// sorted list of removed tags for the conversion summary.
func PruneMissingInterfaces(out, targetBaseline *xmltree.Node) []string {
	outIfaces := out.Child("interfaces")
	if outIfaces == nil {
		return nil
	}
	targetIfaces := targetBaseline.Child("interfaces")
	if targetIfaces == nil {
		return nil
	}

	allowed := map[string]bool{}
	for _, c := range targetIfaces.Children {
		allowed[c.Tag] = true
	}

	var removed []string
	outIfaces.RetainChildren(func(iface *xmltree.Node) bool {
		keep := allowed[iface.Tag] || isVirtualBackedInterface(iface)
		if !keep {
			removed = append(removed, iface.Tag)
		}
		return keep
	})
	sort.Strings(removed)
	return dedupSorted(removed)
}

// Virtual interfaces (VLANs, tunnels, bridges) do not depend on a physical
// port being present, so they survive the presence check.
func isVirtualBackedInterface(iface *xmltree.Node) bool {
	if strings.EqualFold(iface.Tag, "wireguard") {
		return true
	}
	if v, ok := iface.TextAt("if"); ok {
		return isVirtualIfName(v)
	}
	return false
}

func isVirtualIfName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(lower, ".") || strings.Contains(lower, "wg") {
		return true
	}
	prefixes := []string{
		"vlan", "bridge", "ovpns", "ovpnc", "openvpn", "wg", "tun_wg",
		"gif", "gre", "lagg", "tap", "tun", "enc", "ipsec", "lo",
	}
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func dedupSorted(in []string) []string {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}
