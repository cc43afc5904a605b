// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"net/netip"
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/xmltree"
)

// RenumberLAN rewrites the LAN interface address and every reference to it.
// Moving a config to new hardware often changes the LAN subnet, and changing
// interfaces/lan/ipaddr alone leaves stale addresses in DHCP ranges, static
// routes, and gateways. Three passes: write the new address, remap DHCP
// addresses in the old subnet preserving host bits, then replace exact
// matches of the old address anywhere in the tree.
func RenumberLAN(root *xmltree.Node, newLANIP string) error {
	newIP, err := parseIPv4(newLANIP)
	if err != nil {
		return errors.Errorf(errors.KindValidation, "invalid --lan-ip value: %s", newLANIP)
	}

	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return errors.New(errors.KindValidation, "missing interfaces section")
	}
	lan := interfaces.Child("lan")
	if lan == nil {
		return errors.New(errors.KindValidation, "missing interfaces.lan section")
	}
	oldIPText, ok := lan.TextAt("ipaddr")
	if !ok {
		return errors.New(errors.KindValidation, "missing interfaces.lan.ipaddr")
	}
	oldIPText = strings.TrimSpace(oldIPText)
	oldIP, err := parseIPv4(oldIPText)
	if err != nil {
		return errors.Errorf(errors.KindValidation, "interfaces.lan.ipaddr is not IPv4: %s", oldIPText)
	}
	if oldIP == newIP {
		return nil
	}
	prefix := 24
	if v, ok := lan.TextAt("subnet"); ok {
		if p, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			prefix = p
		}
	}

	newIPStr := newIP.String()
	for _, iface := range interfaces.Children {
		if iface.Tag == "lan" {
			continue
		}
		if v, ok := iface.TextAt("ipaddr"); ok && strings.TrimSpace(v) == newIPStr {
			return errors.Errorf(errors.KindConflict, "--lan-ip conflicts with existing interface %s.ipaddr=%s", iface.Tag, newIPStr)
		}
	}

	lan.SetChildText("ipaddr", newIPStr)
	if dhcpd := root.Child("dhcpd"); dhcpd != nil {
		if dhcpLAN := dhcpd.Child("lan"); dhcpLAN != nil {
			remapIPv4Subtree(dhcpLAN, oldIP, newIP, prefix)
		}
	}
	replaceExactIPText(root, oldIP.String(), newIPStr)
	return nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, err
	}
	if !addr.Is4() {
		return netip.Addr{}, errors.New(errors.KindValidation, "not an IPv4 address")
	}
	return addr, nil
}

func remapIPv4Subtree(node *xmltree.Node, oldIP, newIP netip.Addr, prefix int) {
	if node.Text != "" {
		if remapped, ok := remapIfInOldSubnet(strings.TrimSpace(node.Text), oldIP, newIP, prefix); ok {
			node.Text = remapped
		}
	}
	for _, child := range node.Children {
		remapIPv4Subtree(child, oldIP, newIP, prefix)
	}
}

// remapIfInOldSubnet moves an address from the old subnet into the new one
// with the same host portion (10.1.10.200 stays .200 in 192.168.1.0/24).
func remapIfInOldSubnet(value string, oldIP, newIP netip.Addr, prefix int) (string, bool) {
	addr, err := netip.ParseAddr(value)
	if err != nil || !addr.Is4() {
		return "", false
	}
	m, ok := ipv4Mask(prefix)
	if !ok {
		return "", false
	}
	a := ipv4Uint(addr)
	oldNet := ipv4Uint(oldIP) & m
	if a&m != oldNet {
		return "", false
	}
	host := a & ^m
	newNet := ipv4Uint(newIP) & m
	return uintIPv4(newNet | host).String(), true
}

func replaceExactIPText(node *xmltree.Node, oldIP, newIP string) {
	if strings.TrimSpace(node.Text) == oldIP {
		node.Text = newIP
	}
	for _, child := range node.Children {
		replaceExactIPText(child, oldIP, newIP)
	}
}

func ipv4Mask(prefix int) (uint32, bool) {
	if prefix < 0 || prefix > 32 {
		return 0, false
	}
	if prefix == 0 {
		return 0, true
	}
	return ^uint32(0) << (32 - prefix), true
}

func ipv4Uint(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func uintIPv4(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
